/*
 * basm - Env pass driver
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
	"log/slog"
	"strconv"

	"github.com/cpcsdk/basm/control"
	"github.com/cpcsdk/basm/delayed"
	"github.com/cpcsdk/basm/internal/asmerr"
	"github.com/cpcsdk/basm/page"
	"github.com/cpcsdk/basm/symbol"
	"github.com/cpcsdk/basm/token"
	"github.com/cpcsdk/basm/value"
)

// Env is the assembler engine: the pass driver composing the symbol
// table, page memory, delayed command queues and control store.
type Env struct {
	opts Options
	log  *slog.Logger

	symbols *symbol.Table
	pages   []*page.Page
	queues  []*delayed.Queue
	banks     map[int]*page.Bank
	bankOrder []int
	store     *control.Store

	pageIndex    int
	bankIndex    int
	pagesetIndex int
	lastLabel    string

	pass          int
	forwardRef    bool
	finalPass     bool
	lastPageState []pageSnapshot
	canReplay     bool

	warnings []*asmerr.Diagnostic
	errors   []*asmerr.Diagnostic

	structs map[string]token.Token
	macros  map[string]token.Token

	userFuncs map[string]func([]value.Value) (value.Value, error)

	includeCache map[string]token.Listing
	currentFile  string
	scopeSeq     int

	snapshotPC    int32
	hasSnapshotPC bool

	breakpoints []breakpointEntry

	notes []Note
}

type breakpointEntry struct {
	Span token.Span
	Addr int32
	Has  bool
}

type pageSnapshot struct {
	hasStart bool
	start    int
	max      int
}

// New constructs an Env ready to Run a listing.
func New(opts Options) *Env {
	opts = opts.withDefaults()
	e := &Env{
		opts:         opts,
		log:          opts.Logger,
		symbols:      symbol.New(opts.CaseSensitive),
		store:        &control.Store{},
		banks:        make(map[int]*page.Bank),
		structs:      make(map[string]token.Token),
		macros:       make(map[string]token.Token),
		userFuncs:    make(map[string]func([]value.Value) (value.Value, error)),
		includeCache: make(map[string]token.Listing),
	}
	e.pages = append(e.pages, page.New(0))
	e.queues = append(e.queues, &delayed.Queue{})
	for name, raw := range opts.Defines {
		e.symbols.Define(name, parseDefineValue(raw), symbol.KindEqu)
	}
	return e
}

// parseDefineValue interprets a -D name=value argument: numeric text
// becomes an Int, anything else a String.
func parseDefineValue(raw string) value.Value {
	if n, err := strconv.ParseInt(raw, 0, 32); err == nil {
		return value.NewInt(int32(n))
	}
	return value.NewString(raw)
}

// Symbols exposes the engine's symbol table, for symbol-file emission.
func (e *Env) Symbols() *symbol.Table { return e.symbols }

// Banks returns the registered cartridge banks in registration order,
// for CPR output.
func (e *Env) Banks() []*page.Bank {
	out := make([]*page.Bank, 0, len(e.bankOrder))
	for _, n := range e.bankOrder {
		out = append(out, e.banks[n])
	}
	return out
}

// Page returns the page at index i, creating pages up to i if needed.
func (e *Env) Page(i int) *page.Page {
	for len(e.pages) <= i {
		e.pages = append(e.pages, page.New(len(e.pages)))
		e.queues = append(e.queues, &delayed.Queue{})
	}
	return e.pages[i]
}

func (e *Env) activePage() *page.Page   { return e.Page(e.pageIndex) }
func (e *Env) activeQueue() *delayed.Queue {
	e.Page(e.pageIndex)
	return e.queues[e.pageIndex]
}

// Warnings/Errors expose accumulated diagnostics after Run returns.
func (e *Env) Warnings() []*asmerr.Diagnostic { return e.warnings }
func (e *Env) Errors() []*asmerr.Diagnostic   { return e.errors }

// PassCount reports the number of passes actually run.
func (e *Env) PassCount() int { return e.pass }

func (e *Env) addWarning(d *asmerr.Diagnostic) { e.warnings = append(e.warnings, d) }

// Run drives the full pass loop to convergence (or MaxPassesExceeded)
// and, on success, executes the delayed commands collected during the
// final pass.
func Run(listing token.Listing, opts Options) (*Env, error) {
	e := New(opts)
	for {
		e.beginPass()

		var err error
		if e.canReplay {
			// Nothing changed last pass: the symbol table and delayed
			// command queues from that pass are still valid, so leave
			// them untouched and just re-issue the recorded store ops
			// against the freshly reset pages instead of re-walking
			// the listing.
			err = e.replayStore()
		} else {
			e.symbols.BeginPass()
			e.store.Reset()
			for _, q := range e.queues {
				q.Clear()
			}
			_, err = e.visitAll(listing)
		}
		if err != nil {
			return e, err
		}

		changed := e.symbols.Changed() || e.pageStateChanged()
		e.snapshotPageState()

		if !e.forwardRef && !changed {
			break
		}
		e.canReplay = !changed
		if e.pass >= e.opts.MaxPasses {
			d := asmerr.New(token.Span{}, asmerr.ErrMaxPassesExceeded, "assembly did not converge within %d passes", e.opts.MaxPasses)
			e.errors = append(e.errors, d)
			return e, d
		}
	}

	if err := e.finalize(); err != nil {
		return e, err
	}
	return e, nil
}

// beginPass resets the state every pass rebuilds from scratch
// regardless of whether it walks the full listing or replays the
// control store. The symbol table and delayed queues are reset only
// on a real (non-replay) pass; see Run.
func (e *Env) beginPass() {
	e.pass++
	e.forwardRef = false
	e.finalPass = e.pass >= e.opts.MaxPasses
	for _, p := range e.pages {
		p.Reset()
	}
	e.pageIndex = 0
	e.log.Debug("pass begun", "pass", e.pass, "replay", e.canReplay)
}

func (e *Env) pageStateChanged() bool {
	if e.lastPageState == nil {
		return true
	}
	if len(e.lastPageState) != len(e.pages) {
		return true
	}
	for i, p := range e.pages {
		s := e.lastPageState[i]
		if s.hasStart != p.HasWritten() || s.start != p.StartAddr() || s.max != p.MaxAddr() {
			return true
		}
	}
	return false
}

func (e *Env) snapshotPageState() {
	snap := make([]pageSnapshot, len(e.pages))
	for i, p := range e.pages {
		snap[i] = pageSnapshot{hasStart: p.HasWritten(), start: p.StartAddr(), max: p.MaxAddr()}
	}
	e.lastPageState = snap
}

// visitAll walks the whole listing in source order, per the "tokens
// visited in source order" ordering guarantee.
func (e *Env) visitAll(listing token.Listing) (token.Signal, error) {
	for _, loc := range listing {
		sig, err := e.visit(loc)
		if err != nil {
			return sig, err
		}
		if sig != token.SignalNone {
			return sig, nil
		}
	}
	return token.SignalNone, nil
}
