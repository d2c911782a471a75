/*
 * basm - CPR container tests
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

package cartridge

import (
	"bytes"
	"testing"

	"github.com/cpcsdk/basm/page"
)

func makeBank(t *testing.T, n int, fill []byte) *page.Bank {
	t.Helper()
	p := page.New(n)
	b := page.NewBank(n, p)
	for _, v := range fill {
		if err := p.OutputByte(v); err != nil {
			t.Fatalf("bank %d: OutputByte: %v", n, err)
		}
	}
	return b
}

func TestWriteReadRoundTrip(t *testing.T) {
	banks := []*page.Bank{
		makeBank(t, 0, []byte{0x01, 0x02, 0x03}),
		makeBank(t, 1, []byte{0xAA}),
	}
	body := Write(banks)

	chunks, err := Read(body)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(chunks) != len(banks) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(banks))
	}
	for i, b := range banks {
		if chunks[i].Code != b.RiffCode() {
			t.Errorf("chunk %d code = %q, want %q", i, chunks[i].Code, b.RiffCode())
		}
		if !bytes.Equal(chunks[i].Data, b.Bytes()) {
			t.Errorf("chunk %d data differs from bank bytes", i)
		}
		if len(chunks[i].Data) != page.BankSize {
			t.Errorf("chunk %d is %d bytes, want exactly %d", i, len(chunks[i].Data), page.BankSize)
		}
	}
}

func TestRiffLengthCoversChunks(t *testing.T) {
	// The RIFF length field must equal the AMS! form code plus the sum
	// of per-chunk sizes and their 8-byte headers.
	banks := []*page.Bank{
		makeBank(t, 0, []byte{0x01}),
		makeBank(t, 1, []byte{0x02}),
		makeBank(t, 2, []byte{0x03}),
	}
	body := Write(banks)

	declared := getU32LE(body[4:8])
	want := 4 + len(banks)*(8+page.BankSize)
	if declared != want {
		t.Errorf("declared RIFF length = %d, want %d", declared, want)
	}
	if len(body) != 8+declared {
		t.Errorf("file length = %d, want %d", len(body), 8+declared)
	}
}

func TestReadRejectsBadContainer(t *testing.T) {
	cases := map[string][]byte{
		"too short":  {1, 2, 3},
		"not riff":   append([]byte("JUNK"), make([]byte, 20)...),
		"wrong form": append(append([]byte("RIFF"), 4, 0, 0, 0), "WAVE"...),
	}
	for name, data := range cases {
		if _, err := Read(data); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestRiffCodeDecimalNaming(t *testing.T) {
	b := makeBank(t, 17, nil)
	if got := b.RiffCode(); got != "cb17" {
		t.Errorf("RiffCode = %q, want cb17", got)
	}
}
