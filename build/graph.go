/*
 * basm - build orchestrator dependency graph
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
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cpcsdk/basm/internal/asmerr"
	"github.com/cpcsdk/basm/token"
)

// Graph is the acyclic mapping from target path to its producing rule,
// kept as a plain adjacency map.
type Graph struct {
	rules    []*Rule
	producer map[string]*Rule // target path -> producing rule
	order    []string         // all known targets, insertion order
}

// NewGraph expands brace/glob expressions in every rule's targets and
// builds the producer map. A target produced by two different rules is
// a DependencyError.
func NewGraph(rules []*Rule) (*Graph, error) {
	g := &Graph{producer: make(map[string]*Rule)}
	for _, r := range rules {
		expanded, err := expandTargets(r.Targets)
		if err != nil {
			return nil, err
		}
		r.Targets = expanded
		g.rules = append(g.rules, r)
		for _, t := range expanded {
			if existing, ok := g.producer[t]; ok && existing != r {
				return nil, asmerr.New(token.Span{}, asmerr.ErrDependency,
					"target %q is produced by more than one rule", t)
			}
			g.producer[t] = r
			g.order = append(g.order, t)
		}
	}
	return g, nil
}

// expandTargets applies `{a,b,c}` brace expansion followed by glob
// expansion to each raw target string. A glob matching nothing keeps
// the literal pattern (a not-yet-existing generated file target is
// legitimate).
func expandTargets(raw []string) ([]string, error) {
	var out []string
	for _, r := range raw {
		for _, braceExpanded := range expandBraces(r) {
			matches, err := filepath.Glob(braceExpanded)
			if err != nil {
				return nil, fmt.Errorf("build: bad glob %q: %w", braceExpanded, err)
			}
			if len(matches) == 0 {
				out = append(out, braceExpanded)
				continue
			}
			out = append(out, matches...)
		}
	}
	return out, nil
}

// expandBraces expands a single `{a,b,c}` group, if present, into its
// alternatives. Only one group per string is supported.
func expandBraces(s string) []string {
	open := strings.IndexByte(s, '{')
	if open < 0 {
		return []string{s}
	}
	closeIdx := strings.IndexByte(s[open:], '}')
	if closeIdx < 0 {
		return []string{s}
	}
	closeIdx += open
	prefix, suffix := s[:open], s[closeIdx+1:]
	alts := strings.Split(s[open+1:closeIdx], ",")
	out := make([]string, 0, len(alts))
	for _, a := range alts {
		out = append(out, prefix+a+suffix)
	}
	return out
}

// RuleFor returns the rule producing target, if any.
func (g *Graph) RuleFor(target string) (*Rule, bool) {
	r, ok := g.producer[target]
	return r, ok
}

// Rules returns every rule in the graph, in declaration order.
func (g *Graph) Rules() []*Rule { return g.rules }

// Layers computes forward-dependency topological layers via Kahn's
// algorithm: layer k contains every rule whose dependencies are all
// satisfied by rules in layers <k. Rules within a layer have no
// dependency between them by construction and may run in parallel.
func (g *Graph) Layers() ([][]*Rule, error) {
	indegree := make(map[*Rule]int, len(g.rules))
	dependents := make(map[*Rule][]*Rule)
	seen := make(map[*Rule]bool)

	for _, r := range g.rules {
		if !seen[r] {
			indegree[r] = 0
			seen[r] = true
		}
	}

	for _, r := range g.rules {
		for _, dep := range r.Dependencies {
			if depRule, ok := g.producer[dep]; ok && depRule != r {
				indegree[r]++
				dependents[depRule] = append(dependents[depRule], r)
			}
		}
	}

	var layers [][]*Rule
	remaining := len(g.rules)
	current := readyRules(g.rules, indegree)

	for len(current) > 0 {
		sortRulesByFirstTarget(current)
		layers = append(layers, current)
		remaining -= len(current)

		var next []*Rule
		nextSet := make(map[*Rule]bool)
		for _, r := range current {
			for _, dep := range dependents[r] {
				indegree[dep]--
				if indegree[dep] == 0 && !nextSet[dep] {
					nextSet[dep] = true
					next = append(next, dep)
				}
			}
		}
		current = next
	}

	if remaining > 0 {
		return nil, asmerr.New(token.Span{}, asmerr.ErrDependency, "build: dependency cycle detected among %d rule(s)", remaining)
	}
	return layers, nil
}

func readyRules(rules []*Rule, indegree map[*Rule]int) []*Rule {
	var out []*Rule
	counted := make(map[*Rule]bool)
	for _, r := range rules {
		if counted[r] {
			continue
		}
		counted[r] = true
		if indegree[r] == 0 {
			out = append(out, r)
		}
	}
	return out
}

func sortRulesByFirstTarget(rules []*Rule) {
	sort.Slice(rules, func(i, j int) bool {
		a, b := "", ""
		if len(rules[i].Targets) > 0 {
			a = rules[i].Targets[0]
		}
		if len(rules[j].Targets) > 0 {
			b = rules[j].Targets[0]
		}
		return a < b
	})
}
