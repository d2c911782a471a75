/*
 * basm - command-line assembler driver
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
	"log/slog"
	"os"
	"strconv"
	"strings"

	getopt "github.com/pborman/getopt/v2"

	"github.com/cpcsdk/basm/engine"
	"github.com/cpcsdk/basm/internal/asmerr"
	"github.com/cpcsdk/basm/internal/logging"
	"github.com/cpcsdk/basm/listing"
	"github.com/cpcsdk/basm/token"
)

func main() {
	optInput := getopt.StringLong("input", 'i', "", "Input source file")
	optOutput := getopt.StringLong("output", 'o', "", "Output binary path")
	optIncludes := getopt.StringLong("include", 'I', "", "Comma-separated include search paths")
	optCaseInsensitive := getopt.BoolLong("case-insensitive", 0, "Fold symbol names case-insensitively")
	optSymFile := getopt.StringLong("sym", 0, "", "Emit symbol table to this file")
	optLstFile := getopt.StringLong("lst", 0, "", "Emit listing to this file")
	optSnapshot := getopt.BoolLong("snapshot", 0, "Save in snapshot (.sna) mode")
	optCPR := getopt.BoolLong("cpr", 0, "Save in cartridge (.cpr) mode")
	optProgress := getopt.BoolLong("progress", 0, "Print per-pass progress")
	optWarnAsError := getopt.BoolLong("warn-as-error", 0, "Escalate warnings to fatal errors")
	optMaxPasses := getopt.StringLong("max-passes", 0, "", "Override the convergence pass limit")
	optMaxIterations := getopt.StringLong("max-iterations", 0, "", "Override the repeat/while/for runaway guard")
	optDefine := getopt.StringLong("define", 'D', "", "Comma-separated name=value equ injections")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}
	if *optInput == "" {
		fmt.Fprintln(os.Stderr, "basm: -i <input> is required")
		getopt.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *optProgress {
		level = slog.LevelDebug
	}
	log := logging.New(os.Stderr, *optProgress, level)
	slog.SetDefault(log)

	src, err := os.ReadFile(*optInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ioerror: %s\n", err)
		os.Exit(1)
	}

	lst, err := listing.NewReader(string(src), *optInput).Read()
	if err != nil {
		reportErr(err)
		os.Exit(1)
	}

	mode := engine.ModeBinary
	switch {
	case *optSnapshot:
		mode = engine.ModeSnapshot
	case *optCPR:
		mode = engine.ModeCartridge
	}

	opts := engine.Options{
		CaseSensitive: !*optCaseInsensitive,
		SearchPaths:   splitIncludes(*optIncludes),
		Mode:          mode,
		Logger:        log,
		WarnAsError:   *optWarnAsError,
		MaxPasses:     atoiOrZero(*optMaxPasses),
		MaxIterations: atoiOrZero(*optMaxIterations),
		Defines:       parseDefines(*optDefine),
	}

	env, err := engine.Run(lst, opts)
	if err != nil {
		reportErr(err)
		os.Exit(1)
	}
	for _, n := range env.Notes() {
		if n.Span.File != "" {
			fmt.Printf("%s: %s\n", n.Span, n.Text)
		} else {
			fmt.Println(n.Text)
		}
	}

	if *optOutput != "" {
		var out []byte
		switch mode {
		case engine.ModeSnapshot:
			out = env.Snapshot().Write()
		case engine.ModeCartridge:
			out = env.Cartridge()
		default:
			p := env.Page(0)
			out = p.Bytes(p.StartAddr(), p.MaxAddr())
		}
		if err := os.WriteFile(*optOutput, out, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "ioerror: %s\n", err)
			os.Exit(1)
		}
	}
	if *optSymFile != "" {
		if err := writeSymbolFile(*optSymFile, env); err != nil {
			fmt.Fprintf(os.Stderr, "ioerror: %s\n", err)
			os.Exit(1)
		}
	}
	if *optLstFile != "" {
		if err := os.WriteFile(*optLstFile, []byte(renderListing(lst)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "ioerror: %s\n", err)
			os.Exit(1)
		}
	}
}

// reportErr prints a fatal error as "<kind>: <message>" with the
// source span rendered as file:line:col.
func reportErr(err error) {
	if d, ok := asmerr.AsDiagnostic(err); ok {
		fmt.Fprintf(os.Stderr, "%s: %s\n", kindName(d.Kind), d.Error())
		return
	}
	if me, ok := err.(*asmerr.MultipleErrors); ok {
		for _, d := range me.Errors {
			fmt.Fprintf(os.Stderr, "%s: %s\n", kindName(d.Kind), d.Error())
		}
		return
	}
	fmt.Fprintln(os.Stderr, err)
}

// atoiOrZero parses a decimal flag value, falling back to 0 (engine
// default) for an empty or unparsable string.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// parseDefines turns a comma-separated "-D name=value,name2=value2"
// argument into the engine's pre-seeded equ map.
func parseDefines(s string) map[string]string {
	if s == "" {
		return nil
	}
	defs := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		defs[name] = val
	}
	return defs
}

// splitIncludes turns a comma-separated -I argument into search paths,
// trimming incidental whitespace around each entry.
func splitIncludes(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	paths := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// writeSymbolFile emits one "symbol EQU $value ; page N" line per
// symbol, in definition order.
func writeSymbolFile(path string, env *engine.Env) error {
	var b strings.Builder
	for _, name := range env.Symbols().Names() {
		val, ok := env.Symbols().Value(name)
		if !ok {
			continue
		}
		page, _, _, _ := env.Symbols().Location(name)
		fmt.Fprintf(&b, "%s EQU $%s ; page %d\n", name, val.ToString(), page)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// renderListing renders a parsed listing back into one line per located
// token, giving each its source span, for the --lst output.
func renderListing(lst token.Listing) string {
	var b strings.Builder
	for _, loc := range lst {
		switch {
		case loc.Tok.Mnemonic != "":
			fmt.Fprintf(&b, "%s: %s\n", loc.Span, loc.Tok.Mnemonic)
		case loc.Tok.Name != "":
			fmt.Fprintf(&b, "%s: %s\n", loc.Span, loc.Tok.Name)
		default:
			fmt.Fprintf(&b, "%s:\n", loc.Span)
		}
	}
	return b.String()
}

func kindName(kind error) string {
	switch kind {
	case asmerr.ErrExpression:
		return "ExpressionError"
	case asmerr.ErrSymbol:
		return "SymbolError"
	case asmerr.ErrParse:
		return "ParseError"
	case asmerr.ErrIO:
		return "IOError"
	case asmerr.ErrAssembling:
		return "AssemblingError"
	case asmerr.ErrMaxPassesExceeded:
		return "MaxPassesExceeded"
	case asmerr.ErrCounterAlreadyExists:
		return "CounterAlreadyExists"
	case asmerr.ErrDependency:
		return "DependencyError"
	default:
		return "Error"
	}
}
