/*
 * basm - build orchestrator task runners
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
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cpcsdk/basm/engine"
	"github.com/cpcsdk/basm/event"
	"github.com/cpcsdk/basm/listing"
)

// RunContext is everything a Runner needs beyond its own argument
// string: where to report activity, and a way to notice a cooperative
// cancellation request.
type RunContext struct {
	Target    string
	Obs       event.Observer
	Cancelled func() bool
}

// Runner executes one task's Args string (the command with its kind
// token already stripped) and reports success or failure. Only Runner
// implementations perform blocking calls (subprocess exec, file IO).
type Runner func(args string, ctx RunContext) error

// Runners is the package-level kind->Runner dispatch table. A kind
// absent here (or "extern") falls back to runExternal, which shells out
// to whatever binary the rules file names — every sibling CPC tool
// (img2cpc, xfer, disc, rasm, sjasmplus, martine, bdasm, hideur) is
// invoked the same way compress.Compress shells out to a codec binary.
var Runners = map[string]Runner{
	"basm":  runBasm,
	"rm":    runRemove,
	"cp":    runCopy,
	"mv":    runMove,
	"mkdir": runMkdir,
	"echo":  runEcho,
}

// externalTools maps the remaining documented task kinds to the binary
// PATH lookup name invoked on their behalf.
var externalTools = map[string]string{
	"img2cpc":   "img2cpc",
	"xfer":      "xfer",
	"disc":      "iDSK",
	"rasm":      "rasm",
	"sjasmplus": "sjasmplus",
	"martine":   "martine",
	"bdasm":     "bdasm",
	"hideur":    "hideur",
}

// Dispatch runs t against ctx, resolving t.Kind through Runners, then
// externalTools, then a plain "extern <cmd>" passthrough.
func Dispatch(t Task, ctx RunContext) error {
	if r, ok := Runners[t.Kind]; ok {
		return r(t.Args, ctx)
	}
	if bin, ok := externalTools[t.Kind]; ok {
		return runExternalBin(bin, t.Args, ctx)
	}
	if t.Kind == "extern" {
		return runExternal(t.Args, ctx)
	}
	// Unknown kind: treat the whole expanded command as an external
	// invocation, the same fallback `extern` offers explicitly.
	return runExternal(t.Expanded, ctx)
}

func runEcho(args string, ctx RunContext) error {
	ctx.Obs.EmitStdout(ctx.Target, args)
	return nil
}

func runMkdir(args string, ctx RunContext) error {
	for _, p := range strings.Fields(args) {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func runRemove(args string, ctx RunContext) error {
	for _, p := range strings.Fields(args) {
		if p == "-f" || p == "-rf" || p == "-r" {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return nil
}

func runCopy(args string, ctx RunContext) error {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return fmt.Errorf("cp: expected at least a source and destination, got %q", args)
	}
	dst := fields[len(fields)-1]
	for _, src := range fields[:len(fields)-1] {
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	target := dst
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		target = filepath.Join(dst, filepath.Base(src))
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func runMove(args string, ctx RunContext) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return fmt.Errorf("mv: expected exactly a source and destination, got %q", args)
	}
	return os.Rename(fields[0], fields[1])
}

// runBasm assembles one source file in-process through the engine and
// listing packages (rather than shelling out to a sibling `basm`
// binary), accepting the same flags the CLI does: `-i <input>`
// (required), `-o <output>`, repeatable `-I <dir>`, `--case-insensitive`.
func runBasm(args string, ctx RunContext) error {
	fields := strings.Fields(args)
	var input, output string
	var includes []string
	caseSensitive := true
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "-i":
			i++
			if i < len(fields) {
				input = fields[i]
			}
		case "-o":
			i++
			if i < len(fields) {
				output = fields[i]
			}
		case "-I":
			i++
			if i < len(fields) {
				includes = append(includes, fields[i])
			}
		case "--case-insensitive":
			caseSensitive = false
		}
	}
	if input == "" {
		return fmt.Errorf("basm: missing -i <input>")
	}

	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("basm: %w", err)
	}
	lst, err := listing.NewReader(string(src), input).Read()
	if err != nil {
		return fmt.Errorf("basm: %w", err)
	}

	opts := engine.Options{CaseSensitive: caseSensitive, SearchPaths: includes}
	env, err := engine.Run(lst, opts)
	if err != nil {
		return fmt.Errorf("basm: %w", err)
	}
	for _, n := range env.Notes() {
		ctx.Obs.EmitStdout(ctx.Target, n.Text)
	}

	if output == "" {
		return nil
	}
	p := env.Page(0)
	return os.WriteFile(output, p.Bytes(p.StartAddr(), p.MaxAddr()), 0o644)
}

// runExternalBin runs an explicitly named tool binary against the raw
// command arguments.
func runExternalBin(bin, args string, ctx RunContext) error {
	return execStream(bin, strings.Fields(args), ctx)
}

// runExternal parses `extern <cmd> args...` and runs it as a
// subprocess, streaming its output through ctx.Obs.
func runExternal(cmd string, ctx RunContext) error {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return fmt.Errorf("extern: empty command")
	}
	return execStream(fields[0], fields[1:], ctx)
}

func execStream(bin string, args []string, ctx RunContext) error {
	if ctx.Cancelled != nil && ctx.Cancelled() {
		return fmt.Errorf("%s: cancelled before start", bin)
	}
	cmd := exec.Command(bin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	done := make(chan struct{}, 2)
	go streamLines(stdout, ctx.Obs.EmitStdout, ctx.Target, done)
	go streamLines(stderr, ctx.Obs.EmitStderr, ctx.Target, done)
	<-done
	<-done
	return cmd.Wait()
}

func streamLines(r io.Reader, emit func(target, line string), target string, done chan<- struct{}) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		emit(target, scanner.Text())
	}
	done <- struct{}{}
}
