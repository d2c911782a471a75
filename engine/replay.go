/*
 * basm - control-store replay, the convergence fast path
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
	"github.com/cpcsdk/basm/control"
	"github.com/cpcsdk/basm/internal/asmerr"
)

// replayStore re-issues the previous pass's recorded control-store
// operations against the freshly reset pages instead of re-walking the
// listing. It runs only when the prior pass left the symbol table and
// page extents unchanged (Run sets canReplay), so the symbol table and
// delayed command queues from that pass are still valid and are
// deliberately left untouched by Run.
func (e *Env) replayStore() error {
	for _, op := range e.store.Ops() {
		switch op.Kind {
		case control.OpOutputByte:
			if err := e.Page(op.PageIndex).OutputByte(op.Byte); err != nil {
				return asmerr.Wrap(op.Span, asmerr.ErrAssembling, err, "%v", err)
			}
		case control.OpOutputBytes:
			p := e.Page(op.PageIndex)
			for _, b := range op.Bytes {
				if err := p.OutputByte(b); err != nil {
					return asmerr.Wrap(op.Span, asmerr.ErrAssembling, err, "%v", err)
				}
			}
		case control.OpOrg:
			out := op.OutputAddr
			e.Page(op.PageIndex).SetOrg(op.CodeAddr, &out)
		case control.OpAssert:
			// Already reflected in the delayed queue carried over from
			// the pass that recorded it; nothing to redo here.
		}
	}
	return nil
}
