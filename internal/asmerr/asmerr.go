/*
 * basm - assembler error taxonomy
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

// Package asmerr defines the sentinel-wrapped error taxonomy the engine
// and its collaborators raise: plain errors.New sentinels combined via
// fmt.Errorf("%w") and matched with errors.Is/errors.As.
package asmerr

import (
	"errors"
	"fmt"

	"github.com/cpcsdk/basm/token"
)

// Sentinel errors. Use errors.Is against these to classify a failure.
var (
	ErrExpression           = errors.New("expression error")
	ErrSymbol               = errors.New("symbol error")
	ErrParse                = errors.New("parse error")
	ErrIO                   = errors.New("io error")
	ErrAssembling           = errors.New("assembling error")
	ErrMaxPassesExceeded    = errors.New("maximum pass count exceeded without convergence")
	ErrCounterAlreadyExists = errors.New("counter already exists")
	ErrDependency           = errors.New("dependency error")
)

// Diagnostic is one located assembling error, the unit the engine
// collects per pass and the listing/build layers render.
type Diagnostic struct {
	Span    token.Span
	Kind    error // one of the sentinels above
	Message string
	Cause   error
}

func (d *Diagnostic) Error() string {
	if d.Span.File != "" {
		return fmt.Sprintf("%s: %s", d.Span, d.Message)
	}
	return d.Message
}

func (d *Diagnostic) Unwrap() error {
	if d.Cause != nil {
		return d.Cause
	}
	return d.Kind
}

// New builds a Diagnostic of the given sentinel kind.
func New(span token.Span, kind error, format string, args ...any) *Diagnostic {
	return &Diagnostic{Span: span, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a Diagnostic carrying cause as its wrapped error, still
// classifiable via errors.Is(d, kind).
func Wrap(span token.Span, kind error, cause error, format string, args ...any) *Diagnostic {
	return &Diagnostic{Span: span, Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// MultipleErrors aggregates every Diagnostic collected during a single
// assembling run; the engine keeps assembling after a non-fatal error so
// a source file can report more than one mistake per invocation.
type MultipleErrors struct {
	Errors []*Diagnostic
}

func (m *MultipleErrors) Error() string {
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors, first: %s", len(m.Errors), m.Errors[0].Error())
}

func (m *MultipleErrors) Add(d *Diagnostic) { m.Errors = append(m.Errors, d) }
func (m *MultipleErrors) Len() int          { return len(m.Errors) }
func (m *MultipleErrors) HasErrors() bool   { return len(m.Errors) > 0 }

// AsDiagnostic unwraps any error down to a *Diagnostic if one is present
// in its chain, for callers that need the source span.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
