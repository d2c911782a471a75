/*
 * basm - CPR cartridge RIFF container writer
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

// Package cartridge serialises the collected banks into a .cpr file: a
// RIFF container with form type "AMS!" and one "cbNN" chunk per bank.
// The RIFF framing is the same four-byte-id/length-prefixed-chunk
// structure golang.org/x/image/riff reads, written out by hand here
// since that package is decode-only.
package cartridge

import (
	"fmt"

	"github.com/cpcsdk/basm/page"
)

func putU32LE(b []byte, v int) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func chunk(id string, data []byte) []byte {
	out := make([]byte, 0, 8+len(data)+1)
	out = append(out, id...)
	sz := make([]byte, 4)
	putU32LE(sz, len(data))
	out = append(out, sz...)
	out = append(out, data...)
	if len(data)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

// Write serialises banks, in registration order, into a complete CPR
// file body.
func Write(banks []*page.Bank) []byte {
	var body []byte
	body = append(body, "AMS!"...)
	for _, b := range banks {
		body = append(body, chunk(b.RiffCode(), b.Bytes())...)
	}

	out := make([]byte, 0, 8+len(body))
	out = append(out, "RIFF"...)
	sz := make([]byte, 4)
	putU32LE(sz, len(body))
	out = append(out, sz...)
	out = append(out, body...)
	return out
}

func getU32LE(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16 | int(b[3])<<24
}

// Chunk is one bank read back from a CPR file: its cbNN code and bytes.
type Chunk struct {
	Code string
	Data []byte
}

// Read parses a CPR file body back into its ordered bank chunks.
func Read(data []byte) ([]Chunk, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" {
		return nil, fmt.Errorf("cpr: not a RIFF container")
	}
	size := getU32LE(data[4:8])
	if size+8 > len(data) {
		return nil, fmt.Errorf("cpr: truncated container (declared %d bytes, have %d)", size, len(data)-8)
	}
	if string(data[8:12]) != "AMS!" {
		return nil, fmt.Errorf("cpr: form type %q, want AMS!", data[8:12])
	}

	var chunks []Chunk
	pos := 12
	for pos+8 <= 8+size {
		code := string(data[pos : pos+4])
		n := getU32LE(data[pos+4 : pos+8])
		pos += 8
		if pos+n > len(data) {
			return nil, fmt.Errorf("cpr: chunk %s truncated", code)
		}
		chunks = append(chunks, Chunk{Code: code, Data: append([]byte(nil), data[pos:pos+n]...)})
		pos += n
		if n%2 == 1 {
			pos++
		}
	}
	return chunks, nil
}
