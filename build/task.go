/*
 * basm - build orchestrator task template expansion and dispatch
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

package build

import (
	"runtime"
	"strings"
)

// Task is one parsed command line from a Rule, after ignore-errors and
// template expansion but before kind dispatch.
type Task struct {
	Raw          string // the rules-file command string, verbatim
	IgnoreErrors bool   // a leading "-" on the command
	Expanded     string // after $@/$</$^/{{var}} substitution
	Kind         string // first whitespace-separated token of Expanded
	Args         string // Expanded with Kind stripped
}

// taskKinds lists the recognised first-token dispatch values; "extern"
// plus any unrecognised kind fall back to a raw subprocess invocation.
var taskKinds = map[string]bool{
	"basm": true, "rm": true, "cp": true, "mv": true, "mkdir": true,
	"echo": true, "img2cpc": true, "xfer": true, "disc": true,
	"rasm": true, "sjasmplus": true, "martine": true, "bdasm": true,
	"hideur": true, "extern": true,
}

// NewTask parses and expands one command string from rule against the
// build variables var map (user `{{name}}` bindings plus the rule's
// own Env). A leading "-" marks the task ignore-errors.
func NewTask(raw string, rule *Rule, vars map[string]string) Task {
	t := Task{Raw: raw}
	s := raw
	if strings.HasPrefix(s, "-") {
		t.IgnoreErrors = true
		s = s[1:]
	}
	t.Expanded = expandTemplate(s, rule, vars)
	fields := strings.Fields(t.Expanded)
	if len(fields) > 0 {
		t.Kind = fields[0]
		t.Args = strings.TrimSpace(strings.TrimPrefix(t.Expanded, fields[0]))
	}
	return t
}

// expandTemplate substitutes $@ (first target), $< (first dependency),
// $^ (all dependencies, space-joined) and {{name}} user variables into
// cmd.
func expandTemplate(cmd string, rule *Rule, vars map[string]string) string {
	var firstTarget, firstDep string
	if len(rule.Targets) > 0 {
		firstTarget = rule.Targets[0]
	}
	if len(rule.Dependencies) > 0 {
		firstDep = rule.Dependencies[0]
	}
	allDeps := strings.Join(rule.Dependencies, " ")

	replacer := strings.NewReplacer(
		"$@", firstTarget,
		"$<", firstDep,
		"$^", allDeps,
	)
	out := replacer.Replace(cmd)

	merged := make(map[string]string, len(vars)+len(rule.Env))
	for k, v := range vars {
		merged[k] = v
	}
	for k, v := range rule.Env {
		merged[k] = v
	}
	for name, val := range merged {
		out = strings.ReplaceAll(out, "{{"+name+"}}", val)
	}
	return out
}

// EscapePath quotes a path the way basm_escape_path does: a bare
// double-backslash escape on Windows (where backslash is the path
// separator and needs doubling inside a shell-quoted argument), a
// no-op everywhere else.
func EscapePath(path string) string {
	return EscapePathForOS(path, runtime.GOOS)
}

// EscapePathForOS is EscapePath parameterised on goos, for tests.
func EscapePathForOS(path, goos string) string {
	if goos != "windows" {
		return path
	}
	return strings.ReplaceAll(path, `\`, `\\`)
}
