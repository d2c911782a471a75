/*
 * basm - build orchestrator layered execution
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
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cpcsdk/basm/event"
	"gopkg.in/yaml.v3"
)

// Orchestrator drives one build: it owns the dependency graph, the
// event.Observer every task reports through, the `{{name}}` variable
// bindings and a bounded worker pool for within-layer parallelism.
type Orchestrator struct {
	Graph     *Graph
	Obs       event.Observer
	Vars      map[string]string
	Workers   int  // bounded pool size; <=0 defaults to 4
	KeepGoing bool // continue independent layers after a failure; default is fail-fast, per make -k

	cancelled int32

	lastBuild map[string]time.Time
	mu        sync.Mutex
}

// New builds an Orchestrator over rules.
func New(rules []*Rule, obs event.Observer, vars map[string]string) (*Orchestrator, error) {
	g, err := NewGraph(rules)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		obs = event.NopObserver{}
	}
	return &Orchestrator{Graph: g, Obs: obs, Vars: vars, lastBuild: make(map[string]time.Time)}, nil
}

// LoadRules parses a YAML rules file into a slice of Rule.
func LoadRules(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules []*Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("build: parsing %s: %w", path, err)
	}
	return rules, nil
}

// Cancel sets the cooperative cancellation flag; running task runners
// poll it between subprocess invocations. It does not forcibly kill
// in-flight subprocesses.
func (o *Orchestrator) Cancel() { atomic.StoreInt32(&o.cancelled, 1) }

// Cancelled reports whether Cancel has been called.
func (o *Orchestrator) Cancelled() bool { return atomic.LoadInt32(&o.cancelled) == 1 }

// Run builds every rule in the graph that Checker finds outdated,
// visiting dependencies strictly before dependents and running
// same-layer rules concurrently up to Workers.
func (o *Orchestrator) Run() error {
	layers, err := o.Graph.Layers()
	if err != nil {
		return err
	}
	checker := NewChecker(o.Graph, o.lastBuild)
	failed := make(map[*Rule]bool)

	for _, layer := range layers {
		if !o.KeepGoing && len(failed) > 0 {
			break
		}
		runnable := make([]*Rule, 0, len(layer))
		for _, r := range layer {
			if !r.MatchesOS(CurrentOS) {
				continue
			}
			if o.ruleDependsOnFailure(r, failed) {
				failed[r] = true
				continue
			}
			if !o.ruleOutdated(r, checker) {
				continue
			}
			runnable = append(runnable, r)
		}
		o.runLayer(runnable, failed)
	}
	return nil
}

// ruleOutdated reports whether any of r's own targets is outdated.
func (o *Orchestrator) ruleOutdated(r *Rule, checker *Checker) bool {
	if len(r.Targets) == 0 {
		return true // phony rule with no listed target, e.g. a top-level "all"
	}
	for _, t := range r.Targets {
		if checker.Outdated(t) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) ruleDependsOnFailure(r *Rule, failed map[*Rule]bool) bool {
	for _, dep := range r.Dependencies {
		if depRule, ok := o.Graph.RuleFor(dep); ok && failed[depRule] {
			return true
		}
	}
	return false
}

func (o *Orchestrator) runLayer(rules []*Rule, failed map[*Rule]bool) {
	workers := o.Workers
	if workers <= 0 {
		workers = 4
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, r := range rules {
		wg.Add(1)
		sem <- struct{}{}
		go func(r *Rule) {
			defer wg.Done()
			defer func() { <-sem }()
			err := o.runRule(r)
			if err != nil {
				mu.Lock()
				failed[r] = true
				mu.Unlock()
			} else {
				mu.Lock()
				now := time.Now()
				for _, t := range r.Targets {
					o.lastBuild[t] = now
				}
				mu.Unlock()
			}
		}(r)
	}
	wg.Wait()
}

func (o *Orchestrator) runRule(r *Rule) error {
	target := ruleLabel(r)
	o.Obs.RuleStart(target)

	var ruleErr error
	for _, raw := range r.Commands {
		if o.Cancelled() {
			ruleErr = fmt.Errorf("rule %s cancelled", target)
			break
		}
		t := NewTask(raw, r, o.Vars)
		o.Obs.TaskStart(target, t.Expanded)
		start := time.Now()
		err := Dispatch(t, RunContext{Target: target, Obs: o.Obs, Cancelled: o.Cancelled})
		o.Obs.TaskDone(target, t.Expanded, time.Since(start), err)
		if err != nil {
			if t.IgnoreErrors {
				continue
			}
			ruleErr = err
			break
		}
	}
	o.Obs.RuleDone(target, ruleErr)
	return ruleErr
}

func ruleLabel(r *Rule) string {
	if len(r.Targets) > 0 {
		return r.Targets[0]
	}
	return r.Help
}
