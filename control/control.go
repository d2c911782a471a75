/*
 * basm - per-pass control store / fast-path replay log
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

// Package control implements the engine's per-pass control store: a
// minimal ordered log of operations sufficient to replay a pass without
// re-walking tokens, used as the convergence fast path once a pass's
// output has stabilised.
package control

import "github.com/cpcsdk/basm/token"

// OpKind discriminates a control-store entry.
type OpKind int

const (
	OpOutputByte OpKind = iota
	OpOutputBytes
	OpOrg
	OpAssert
)

// Op is one replayable control-store entry.
type Op struct {
	Kind OpKind
	Span token.Span

	PageIndex int
	Byte      byte
	Bytes     []byte

	CodeAddr   int
	OutputAddr int

	AssertOK     bool
	AssertErrMsg string
}

// Store is the ordered log recorded during one pass.
type Store struct {
	ops []Op
}

// Record appends op to the store.
func (s *Store) Record(op Op) { s.ops = append(s.ops, op) }

// Ops returns the recorded entries in record order.
func (s *Store) Ops() []Op { return s.ops }

// Reset clears the store before a fresh pass begins recording.
func (s *Store) Reset() { s.ops = nil }

// Len reports how many operations were recorded.
func (s *Store) Len() int { return len(s.ops) }
