/*
 * basm - delayed command queues
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

// Package delayed models the engine's per-page side-effect queues: save,
// print, pause and assert commands collected during visitation and only
// executed after the pass loop reaches a fixed point. Each variant is a
// data object with a discriminator, not a closure, so a replay/dry-run
// driver can inspect queued commands without invoking them.
package delayed

import "github.com/cpcsdk/basm/token"

// Kind discriminates a Command's variant.
type Kind int

const (
	KindSave Kind = iota
	KindPrint
	KindPause
	KindFailedAssert
)

// SaveFileKind enumerates the output container a Save command targets.
type SaveFileKind int

const (
	SaveBinary SaveFileKind = iota
	SaveAmsdos
	SaveDSK
	SaveHFE
	SaveCPR
	SaveSNA
	SaveTape
)

// AmsdosHeader carries the optional header fields a SaveAmsdos command
// may override; zero values fall back to computed defaults.
type AmsdosHeader struct {
	LoadAddr int
	ExecAddr int
	HasExec  bool
}

// Command is a tagged delayed side effect. Only fields relevant to Kind
// are populated.
type Command struct {
	Kind Kind
	Span token.Span

	// Save
	PageIndex int
	Lo, Hi    int
	Path      string
	FileKind  SaveFileKind
	Header    AmsdosHeader
	Compress  string

	// Print
	Text    string
	PrintErr error

	// FailedAssert
	AssertErr error
}

// Queue is one page's ordered FIFO of delayed commands.
type Queue struct {
	commands []Command
}

// Push enqueues c at the back of the queue.
func (q *Queue) Push(c Command) { q.commands = append(q.commands, c) }

// All returns the queue contents in enqueue order.
func (q *Queue) All() []Command { return q.commands }

// Clear empties the queue; called at the start of every pass that walks
// the listing (a replay pass keeps the previous pass's commands), so only
// the last walked pass's commands survive to execution.
func (q *Queue) Clear() { q.commands = nil }

// Len reports the number of queued commands.
func (q *Queue) Len() int { return len(q.commands) }
