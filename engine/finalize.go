/*
 * basm - post-convergence delayed command execution and output emission
 *
 * Copyright 2026, CPC SDK Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package engine

import (
	"fmt"
	"os"

	"github.com/cpcsdk/basm/amsdos"
	"github.com/cpcsdk/basm/cartridge"
	"github.com/cpcsdk/basm/compress"
	"github.com/cpcsdk/basm/delayed"
	"github.com/cpcsdk/basm/disc"
	"github.com/cpcsdk/basm/internal/asmerr"
	"github.com/cpcsdk/basm/page"
	"github.com/cpcsdk/basm/snapshot"
	"github.com/cpcsdk/basm/token"
)

// Note is a deferred Print command that succeeded; printed to stdout in
// source order by finalize.
type Note struct {
	Span token.Span
	Text string
}

// Notes returns every successful Print command collected across all
// pages, in the order they were pushed.
func (e *Env) Notes() []Note { return e.notes }

// finalize executes the delayed commands (asserts first, then prints,
// then saves) in deterministic page order, only once the pass loop has
// reached a fixed point. No output is produced unless every assert
// passed and no fatal error accumulated.
func (e *Env) finalize() error {
	var failedAsserts asmerr.MultipleErrors
	for _, q := range e.queues {
		for _, c := range q.All() {
			if c.Kind == delayed.KindFailedAssert {
				if d, ok := asmerr.AsDiagnostic(c.AssertErr); ok {
					failedAsserts.Add(d)
				} else {
					failedAsserts.Add(asmerr.New(c.Span, asmerr.ErrAssembling, "%s", c.AssertErr.Error()))
				}
			}
		}
	}
	if failedAsserts.HasErrors() {
		e.errors = append(e.errors, failedAsserts.Errors...)
		return &failedAsserts
	}

	for _, q := range e.queues {
		for _, c := range q.All() {
			if c.Kind == delayed.KindPause {
				e.notes = append(e.notes, Note{Span: c.Span, Text: "pause"})
				continue
			}
			if c.Kind != delayed.KindPrint {
				continue
			}
			if c.PrintErr != nil {
				d := asmerr.New(c.Span, asmerr.ErrExpression, "%s", c.PrintErr.Error())
				e.warnings = append(e.warnings, d)
				continue
			}
			e.notes = append(e.notes, Note{Span: c.Span, Text: c.Text})
		}
	}

	if e.opts.WarnAsError && len(e.warnings) > 0 {
		var escalated asmerr.MultipleErrors
		escalated.Errors = append(escalated.Errors, e.warnings...)
		e.errors = append(e.errors, e.warnings...)
		return &escalated
	}

	for pageIdx, q := range e.queues {
		for _, c := range q.All() {
			if c.Kind != delayed.KindSave {
				continue
			}
			if err := e.runSave(pageIdx, c); err != nil {
				d := asmerr.Wrap(c.Span, asmerr.ErrIO, err, "save to %s failed", c.Path)
				e.errors = append(e.errors, d)
				return d
			}
		}
	}
	return nil
}

// Snapshot materialises the snapshot assembly state: every byte written
// to any page lands at page_index*0x10000 + address in the expanded
// memory buffer, and the PC register carries the address of the last
// `run` directive seen.
func (e *Env) Snapshot() *snapshot.State {
	st := snapshot.New(3, len(e.pages))
	for idx, p := range e.pages {
		if !p.HasWritten() {
			continue
		}
		base := idx * page.Size
		for addr := p.StartAddr(); addr <= p.MaxAddr(); addr++ {
			if p.WasWritten(addr) {
				st.SetByte(base+addr, p.PeekByte(addr))
			}
		}
	}
	if e.hasSnapshotPC {
		st.Regs.PC = uint16(e.snapshotPC)
	}
	return st
}

// Cartridge serialises the banks collected so far into a CPR file body.
func (e *Env) Cartridge() []byte { return cartridge.Write(e.Banks()) }

// runSave dispatches one SaveCommand to the writer matching its
// FileKind, compressing the payload first when a method was named.
func (e *Env) runSave(pageIdx int, c delayed.Command) error {
	p := e.Page(pageIdx)
	lo, hi := c.Lo, c.Hi
	data := p.Bytes(lo, hi)

	if c.Compress != "" {
		compressed, err := compress.Compress(c.Compress, data)
		if err != nil {
			return err
		}
		data = compressed
	}

	switch c.FileKind {
	case delayed.SaveBinary:
		return os.WriteFile(c.Path, data, 0o644)

	case delayed.SaveAmsdos:
		out := amsdos.Wrap(c.Path, data, amsdos.Header{
			LoadAddr: c.Header.LoadAddr,
			ExecAddr: c.Header.ExecAddr,
			HasExec:  c.Header.HasExec,
		})
		return os.WriteFile(c.Path, out, 0o644)

	case delayed.SaveDSK, delayed.SaveHFE:
		return disc.Default.Insert(c.Path, basenameOf(c.Path), data)

	case delayed.SaveCPR:
		return os.WriteFile(c.Path, e.Cartridge(), 0o644)

	case delayed.SaveSNA:
		st := e.Snapshot()
		return os.WriteFile(c.Path, st.Write(), 0o644)

	case delayed.SaveTape:
		return os.WriteFile(c.Path, data, 0o644)

	default:
		return fmt.Errorf("save: unknown file kind %d", c.FileKind)
	}
}

func basenameOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
