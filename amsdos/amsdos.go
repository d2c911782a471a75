/*
 * basm - Amsdos 128-byte file header
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

// Package amsdos builds the 128-byte header the CPC's AMSDOS filing
// system expects ahead of a binary file's payload.
package amsdos

import (
	"path/filepath"
	"strings"
)

// HeaderSize is the fixed length of an Amsdos header.
const HeaderSize = 128

// fileType values recognised by AMSDOS; basm only ever writes binaries.
const typeBinary = 2

// Header describes the load/exec metadata a SaveAmsdos command may
// override; LoadAddr/ExecAddr default to 0 and HasExec to false when a
// directive doesn't specify them.
type Header struct {
	LoadAddr int
	ExecAddr int
	HasExec  bool
}

// splitName upper-cases and 8.3-pads path's base name the way AMSDOS
// filenames are stored on disc.
func splitName(path string) (name [8]byte, ext [3]byte) {
	base := filepath.Base(path)
	e := strings.TrimPrefix(filepath.Ext(base), ".")
	n := strings.TrimSuffix(base, filepath.Ext(base))
	n = strings.ToUpper(n)
	e = strings.ToUpper(e)
	for i := range name {
		name[i] = ' '
	}
	for i := range ext {
		ext[i] = ' '
	}
	copy(name[:], n)
	copy(ext[:], e)
	return name, ext
}

func putWord(b []byte, off, v int) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}

// Wrap builds the 128-byte header for data saved to path and returns
// header||data, the form a SaveAmsdos command writes to disc.
func Wrap(path string, data []byte, hdr Header) []byte {
	out := make([]byte, HeaderSize+len(data))
	h := out[:HeaderSize]

	name, ext := splitName(path)
	copy(h[1:9], name[:])
	copy(h[9:12], ext[:])
	h[18] = typeBinary

	putWord(h, 21, hdr.LoadAddr)
	putWord(h, 24, len(data))
	entry := hdr.ExecAddr
	if !hdr.HasExec {
		entry = hdr.LoadAddr
	}
	putWord(h, 26, entry)

	// 24-bit "real" length at 64..66, low byte first.
	h[64] = byte(len(data))
	h[65] = byte(len(data) >> 8)
	h[66] = byte(len(data) >> 16)

	sum := Checksum(h)
	putWord(h, 67, sum)

	copy(out[HeaderSize:], data)
	return out
}

// Checksum computes the header checksum: the sum of bytes 0..66
// (the 67 bytes preceding the checksum field itself) modulo 65536.
func Checksum(header []byte) int {
	sum := 0
	for i := 0; i < 67 && i < len(header); i++ {
		sum += int(header[i])
	}
	return sum % 65536
}
