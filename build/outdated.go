/*
 * basm - build orchestrator up-to-date detection
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
	"os"
	"time"
)

// Checker decides whether a target must be rebuilt, memoizing
// per-target results within one build round since a target's
// outdated-ness may be asked for repeatedly (it is both a dependency of
// several rules and a target in its own right).
type Checker struct {
	graph *Graph

	// lastBuild records, per target, the timestamp of its last
	// successful build; populated by watch mode between rounds. A zero
	// Time means "never built in watch mode", which falls back to the
	// plain mtime-comparison rule.
	lastBuild map[string]time.Time

	cache map[string]bool
	stat  func(string) (os.FileInfo, error)
}

// NewChecker builds a Checker over g. Pass nil for lastBuild outside
// watch mode.
func NewChecker(g *Graph, lastBuild map[string]time.Time) *Checker {
	return &Checker{
		graph:     g,
		lastBuild: lastBuild,
		cache:     make(map[string]bool),
		stat:      os.Stat,
	}
}

// Exists reports whether target exists on disk right now.
func (c *Checker) Exists(target string) bool {
	_, err := c.stat(target)
	return err == nil
}

func (c *Checker) mtime(target string) (time.Time, bool) {
	info, err := c.stat(target)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Outdated reports whether target must be rebuilt, recursing into its
// dependencies first so a stale grandparent propagates staleness down
// the chain even when the immediate dependency's own file is present
// and newer than target.
func (c *Checker) Outdated(target string) bool {
	if v, ok := c.cache[target]; ok {
		return v
	}
	// Guard recursive targets against infinite loops; Layers() already
	// rejects true cycles before this is ever called.
	c.cache[target] = false
	result := c.computeOutdated(target)
	c.cache[target] = result
	return result
}

func (c *Checker) computeOutdated(target string) bool {
	rule, hasRule := c.graph.RuleFor(target)
	if !hasRule {
		// A leaf input with no producing rule is outdated only in the
		// degenerate sense of "doesn't exist"; a missing leaf input is
		// a build error surfaced by the runner, not this checker.
		return false
	}
	if rule.IsPhony(c.Exists) {
		return true
	}

	anyDepOutdated := false
	for _, dep := range rule.Dependencies {
		if c.Outdated(dep) {
			anyDepOutdated = true
			break
		}
	}

	if len(rule.Commands) == 0 {
		return anyDepOutdated
	}

	if anyDepOutdated {
		return true
	}

	targetTime, targetExists := c.mtime(target)
	if !targetExists {
		return true
	}

	baseline := targetTime
	useLastBuild := false
	if c.lastBuild != nil {
		if lb, ok := c.lastBuild[target]; ok && !lb.IsZero() {
			baseline = lb
			useLastBuild = true
		}
	}

	for _, dep := range rule.Dependencies {
		depTime, ok := c.mtime(dep)
		if !ok {
			continue
		}
		if useLastBuild {
			if depTime.After(baseline) {
				return true
			}
		} else if !depTime.Before(targetTime) {
			return true
		}
	}
	return false
}
