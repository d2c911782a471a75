/*
 * basm - build orchestrator event observer
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

// Package event defines the build orchestrator's Observer seam: worker
// threads post start/stop and stdout/stderr notifications through an
// Observer rather than writing to standard streams directly, so a CLI,
// a TUI, or a test double can all consume the same stream of build
// activity.
package event

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Observer receives every build-activity notification the orchestrator
// produces. The engine and task runners never write to stdout/stderr
// directly; they only go through an Observer.
type Observer interface {
	RuleStart(target string)
	RuleDone(target string, err error)
	TaskStart(target, cmd string)
	TaskDone(target, cmd string, dur time.Duration, err error)
	EmitStdout(target, line string)
	EmitStderr(target, line string)
}

// NopObserver discards every notification; useful as a default or in
// tests that don't care about build activity output.
type NopObserver struct{}

func (NopObserver) RuleStart(string)                                   {}
func (NopObserver) RuleDone(string, error)                             {}
func (NopObserver) TaskStart(string, string)                           {}
func (NopObserver) TaskDone(string, string, time.Duration, error)      {}
func (NopObserver) EmitStdout(string, string)                          {}
func (NopObserver) EmitStderr(string, string)                          {}

// CLIObserver renders build activity to a single writer, interleaving
// concurrent tasks by prefixing every line with "[target] ".
type CLIObserver struct {
	out io.Writer
	mu  sync.Mutex
}

// NewCLIObserver builds an observer writing to out.
func NewCLIObserver(out io.Writer) *CLIObserver {
	return &CLIObserver{out: out}
}

func (o *CLIObserver) println(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.out, format+"\n", args...)
}

func (o *CLIObserver) RuleStart(target string) {
	o.println("--- building %s", target)
}

func (o *CLIObserver) RuleDone(target string, err error) {
	if err != nil {
		o.println("--- %s failed: %s", target, err)
		return
	}
	o.println("--- %s done", target)
}

func (o *CLIObserver) TaskStart(target, cmd string) {
	o.println("[%s] $ %s", target, cmd)
}

func (o *CLIObserver) TaskDone(target, cmd string, dur time.Duration, err error) {
	if err != nil {
		o.println("[%s] failed after %s: %s", target, dur.Round(time.Millisecond), err)
	}
}

func (o *CLIObserver) EmitStdout(target, line string) {
	o.println("[%s] %s", target, line)
}

func (o *CLIObserver) EmitStderr(target, line string) {
	o.println("[%s] %s", target, line)
}
