/*
 * basm - build orchestrator rule model
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

// Package build implements the build orchestrator: a YAML-defined DAG
// of rules producing files through typed tasks, with topological
// layering, up-to-date detection, phony rules, glob expansion, per-rule
// OS constraints and watch-mode re-execution.
package build

import (
	"fmt"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule is one entry of the rules file: targets it produces, the
// dependencies that must be up to date first, and the commands that
// produce them.
type Rule struct {
	Targets      []string
	Dependencies []string
	Commands     []string
	Help         string
	Phony        bool
	phonySet     bool
	If           string
	Env          map[string]string
}

// Legacy rules files spell the same field several ways; the first
// matching alias wins.
var targetKeys = []string{"tgt", "target"}
var depKeys = []string{"dep", "dependency", "requires"}
var cmdKeys = []string{"cmd", "command", "launch", "run"}

// UnmarshalYAML implements custom decoding so that any of the legacy
// key aliases for a field populate the same Rule field, and so that
// `cmd` may be either a single-line string or a list of task strings.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("build: rule must be a mapping, got kind %d", node.Kind)
	}
	raw := map[string]*yaml.Node{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := strings.ToLower(node.Content[i].Value)
		raw[key] = node.Content[i+1]
	}

	targetStr, err := firstString(raw, targetKeys)
	if err != nil {
		return err
	}
	r.Targets = splitPaths(targetStr)

	depStr, err := firstString(raw, depKeys)
	if err != nil {
		return err
	}
	r.Dependencies = splitPaths(depStr)

	if n, ok := firstNode(raw, cmdKeys); ok {
		cmds, err := decodeCommands(n)
		if err != nil {
			return err
		}
		r.Commands = cmds
	}

	if n, ok := raw["help"]; ok {
		_ = n.Decode(&r.Help)
	}
	if n, ok := raw["phony"]; ok {
		if err := n.Decode(&r.Phony); err != nil {
			return err
		}
		r.phonySet = true
	}
	if n, ok := raw["if"]; ok {
		_ = n.Decode(&r.If)
	}
	if n, ok := raw["env"]; ok {
		_ = n.Decode(&r.Env)
	}
	return nil
}

func firstNode(raw map[string]*yaml.Node, keys []string) (*yaml.Node, bool) {
	for _, k := range keys {
		if n, ok := raw[k]; ok {
			return n, true
		}
	}
	return nil, false
}

func firstString(raw map[string]*yaml.Node, keys []string) (string, error) {
	n, ok := firstNode(raw, keys)
	if !ok {
		return "", nil
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return "", err
	}
	return s, nil
}

func decodeCommands(n *yaml.Node) ([]string, error) {
	if n.Kind == yaml.SequenceNode {
		var out []string
		if err := n.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return nil, err
	}
	return []string{s}, nil
}

// splitPaths splits a whitespace-separated path list; blank entries
// are dropped.
func splitPaths(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	out = append(out, fields...)
	return out
}

// IsPhony reports whether this rule is phony: an explicit `phony: true`
// always wins; otherwise it is inferred from the absence of a real file
// target. A phony rule is always considered outdated.
func (r *Rule) IsPhony(exists func(string) bool) bool {
	if r.phonySet {
		return r.Phony
	}
	if len(r.Targets) == 0 {
		return true
	}
	for _, t := range r.Targets {
		if !exists(t) {
			return true
		}
	}
	return false
}

// MatchesOS evaluates the `if:` OS predicate against goos (normally
// runtime.GOOS), supporting bare OS names and "not(os)".
func (r *Rule) MatchesOS(goos string) bool {
	pred := strings.TrimSpace(r.If)
	if pred == "" {
		return true
	}
	neg := false
	if strings.HasPrefix(pred, "not(") && strings.HasSuffix(pred, ")") {
		neg = true
		pred = pred[4 : len(pred)-1]
	}
	match := matchOSName(strings.TrimSpace(pred), goos)
	if neg {
		return !match
	}
	return match
}

func matchOSName(name, goos string) bool {
	switch strings.ToLower(name) {
	case "windows":
		return goos == "windows"
	case "linux":
		return goos == "linux"
	case "macos", "darwin", "osx":
		return goos == "darwin"
	default:
		return strings.EqualFold(name, goos)
	}
}

// CurrentOS is the runtime.GOOS value rules are matched against unless
// a caller overrides it (tests do, to exercise all branches).
var CurrentOS = runtime.GOOS
