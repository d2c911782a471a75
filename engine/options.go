/*
 * basm - assembler engine construction options
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

// Package engine implements the Env pass driver: the multi-pass walk
// over a token.Listing that resolves forward references under an
// incrementally refined symbol table, enforces page/section/bank
// placement, expands macros and structs, runs conditional/iterative
// directives, and executes delayed side effects once the pass loop
// reaches a fixed point.
package engine

import (
	"log/slog"

	"github.com/cpcsdk/basm/internal/logging"
)

// OutputMode selects which delayed Save targets the engine is prepared
// to produce bit-exact bytes for.
type OutputMode int

const (
	ModeBinary OutputMode = iota
	ModeSnapshot
	ModeCartridge
)

// Options is a plain value object passed once at construction rather
// than a chain of functional setters.
type Options struct {
	CaseSensitive        bool
	MaxPasses            int // default 5
	TolerateUndocumented bool
	StrictSections       bool
	SearchPaths          []string
	MaxIterations        int // runaway repeat/while/for guard, default 100000
	Mode                 OutputMode
	Logger               *slog.Logger
	WarnAsError          bool // escalate recoverable warnings to fatal errors
	Defines              map[string]string // command-line equ injection, e.g. "-D NAME=value"
}

// withDefaults fills the zero-value gaps a caller left unset.
func (o Options) withDefaults() Options {
	if o.MaxPasses <= 0 {
		o.MaxPasses = 5
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 100000
	}
	if o.Logger == nil {
		o.Logger = logging.New(nil, false, slog.LevelInfo)
	}
	return o
}
