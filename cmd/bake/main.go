/*
 * bake - build-orchestrator command-line driver
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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/cpcsdk/basm/build"
	"github.com/cpcsdk/basm/event"
)

func main() {
	optFile := getopt.StringLong("file", 'f', "rules.yml", "Rules file path")
	optWorkers := getopt.StringLong("jobs", 'j', "", "Worker pool size (default 4)")
	optWatch := getopt.BoolLong("watch", 0, "Re-run the build whenever a dependency changes")
	optDryRun := getopt.BoolLong("dry-run", 0, "Print the layered build plan without running anything")
	optKeepGoing := getopt.BoolLong("keep-going", 'k', "Continue independent layers after a failure")
	optVars := getopt.StringLong("var", 0, "", "Comma-separated name=value {{ }} bindings")
	optQuiet := getopt.BoolLong("quiet", 'q', "Suppress per-task progress output")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	rules, err := build.LoadRules(*optFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bake: %s\n", err)
		os.Exit(1)
	}

	var obs event.Observer = event.NopObserver{}
	if !*optQuiet {
		obs = event.NewCLIObserver(os.Stdout)
	}

	orch, err := build.New(rules, obs, parseVars(*optVars))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bake: %s\n", err)
		os.Exit(1)
	}
	orch.Workers = atoiOrZero(*optWorkers)
	orch.KeepGoing = *optKeepGoing

	if *optDryRun {
		printPlan(orch)
		return
	}

	if *optWatch {
		stop := make(chan struct{})
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, os.Interrupt)
		go func() {
			<-sigc
			close(stop)
		}()
		if err := orch.Watch(stop); err != nil {
			fmt.Fprintf(os.Stderr, "bake: %s\n", err)
			os.Exit(1)
		}
		return
	}

	if err := orch.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "bake: %s\n", err)
		os.Exit(1)
	}
}

// printPlan renders the layered build plan for --dry-run, one line per
// rule grouped by layer, without executing any command.
func printPlan(o *build.Orchestrator) {
	layers, err := o.Graph.Layers()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bake: %s\n", err)
		os.Exit(1)
	}
	for i, layer := range layers {
		fmt.Printf("layer %d:\n", i)
		for _, r := range layer {
			target := strings.Join(r.Targets, " ")
			if target == "" {
				target = r.Help
			}
			fmt.Printf("  %s\n", target)
		}
	}
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// parseVars turns a comma-separated "name=value" argument into the
// orchestrator's {{name}} binding map.
func parseVars(s string) map[string]string {
	if s == "" {
		return nil
	}
	vars := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		vars[name] = val
	}
	return vars
}
