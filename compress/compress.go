/*
 * basm - external compressor dispatch
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

// Package compress exposes a single Compress(method, data) call,
// dispatching to whichever external compressor binary implements
// method (apultra, exomizer, lz4, lzsa, shrinkler, zx0, ...). It never
// reimplements a codec: it shells out via os/exec.
package compress

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// commandTemplate describes how to invoke one external compressor:
// argv entries "-" mean "read from stdin" and are replaced by nothing
// (the tool is fed via Stdin); output is always captured from Stdout.
type commandTemplate struct {
	bin  string
	args []string
}

// methods maps a `save ..., compress=<method>` name to the external
// binary and flags basm invokes. Binary names follow each tool's
// upstream CLI; PATH resolution is left to exec.LookPath.
var methods = map[string]commandTemplate{
	"apultra":   {bin: "apultra", args: []string{"-", "-"}},
	"exomizer":  {bin: "exomizer", args: []string{"raw", "-", "-o", "-"}},
	"lz4":       {bin: "lz4", args: []string{"-c"}},
	"lz48":      {bin: "zx7", args: []string{"-f", "-"}},
	"lz49":      {bin: "zx7", args: []string{"-b", "-"}},
	"lzsa1":     {bin: "lzsa", args: []string{"-f", "1"}},
	"lzsa2":     {bin: "lzsa", args: []string{"-f", "2"}},
	"shrinkler":  {bin: "shrinkler", args: []string{}},
	"zx0":       {bin: "zx0", args: []string{}},
}

// Methods lists the compression method names basm recognises.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for m := range methods {
		names = append(names, m)
	}
	return names
}

// Compress runs data through the external tool registered for method
// and returns its compressed form.
func Compress(method string, data []byte) ([]byte, error) {
	tmpl, ok := methods[strings.ToLower(method)]
	if !ok {
		return nil, fmt.Errorf("compress: unknown method %q (known: %s)", method, strings.Join(Methods(), ", "))
	}
	if _, err := exec.LookPath(tmpl.bin); err != nil {
		return nil, fmt.Errorf("compress: %s: %w", method, err)
	}

	cmd := exec.Command(tmpl.bin, tmpl.args...)
	cmd.Stdin = bytes.NewReader(data)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("compress: %s failed: %w: %s", method, err, stderr.String())
	}
	return out.Bytes(), nil
}
