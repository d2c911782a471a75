/*
 * basm - Amsdos header tests
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

package amsdos

import "testing"

func word(b []byte, off int) int {
	return int(b[off]) | int(b[off+1])<<8
}

func TestWrapHeaderFields(t *testing.T) {
	data := []byte{0xC9, 0x00, 0x3E}
	out := Wrap("disc/game.bin", data, Header{LoadAddr: 0x8000, ExecAddr: 0x8001, HasExec: true})

	if len(out) != HeaderSize+len(data) {
		t.Fatalf("len = %d, want %d", len(out), HeaderSize+len(data))
	}
	if got := string(out[1:9]); got != "GAME    " {
		t.Errorf("name = %q, want %q", got, "GAME    ")
	}
	if got := string(out[9:12]); got != "BIN" {
		t.Errorf("ext = %q, want %q", got, "BIN")
	}
	if out[18] != 2 {
		t.Errorf("type = %d, want 2 (binary)", out[18])
	}
	if got := word(out, 21); got != 0x8000 {
		t.Errorf("load = %#x, want 0x8000", got)
	}
	if got := word(out, 24); got != len(data) {
		t.Errorf("size = %d, want %d", got, len(data))
	}
	if got := word(out, 26); got != 0x8001 {
		t.Errorf("exec = %#x, want 0x8001", got)
	}
	for i := range data {
		if out[HeaderSize+i] != data[i] {
			t.Errorf("payload byte %d = %#x, want %#x", i, out[HeaderSize+i], data[i])
		}
	}
}

func TestWrapExecDefaultsToLoad(t *testing.T) {
	out := Wrap("x.bin", []byte{1}, Header{LoadAddr: 0x4000})
	if got := word(out, 26); got != 0x4000 {
		t.Errorf("exec = %#x, want load address 0x4000", got)
	}
}

func TestChecksumCoversFirst67Bytes(t *testing.T) {
	// For any binary of length >= 1 the checksum field must equal the
	// sum of header bytes 0..66 mod 65536, stored little-endian at 67.
	payloads := [][]byte{
		{0},
		{0xFF},
		{1, 2, 3, 4, 5},
		make([]byte, 0x4000),
	}
	for _, data := range payloads {
		out := Wrap("prog.bin", data, Header{LoadAddr: 0xC000})
		sum := 0
		for i := 0; i < 67; i++ {
			sum += int(out[i])
		}
		sum %= 65536
		if got := word(out, 67); got != sum {
			t.Errorf("len %d: checksum field = %d, want %d", len(data), got, sum)
		}
		if got := Checksum(out[:HeaderSize]); got != sum {
			t.Errorf("len %d: Checksum() = %d, want %d", len(data), got, sum)
		}
	}
}
