/*
 * basm - CPR cartridge bank view over a page
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

package page

// BankSize is the size of one CPR cartridge bank.
const BankSize = 0x4000

// Bank registers n's backing page and enforces the 16 KiB limit that
// confines the bank's writes to the first BankSize bytes after its
// start address.
type Bank struct {
	Number int
	Page   *Page
}

// NewBank binds bank number n to page p and sets the page's limit so
// that only one bank's worth of bytes can be written from the current
// start address.
func NewBank(n int, p *Page) *Bank {
	p.SetLimit(p.OutputAddress() + BankSize - 1)
	return &Bank{Number: n, Page: p}
}

// Bytes returns exactly BankSize bytes for the bank: the page's written
// window zero-padded to a full 16 KiB chunk.
func (b *Bank) Bytes() []byte {
	start := b.Page.StartAddr()
	out := make([]byte, BankSize)
	if !b.Page.HasWritten() {
		return out
	}
	end := start + BankSize - 1
	if end >= Size {
		end = Size - 1
	}
	copy(out, b.Page.Bytes(start, end))
	return out
}

// RiffCode is the `cbNN` four-character chunk code for this bank
// (cb00..cb31, decimal, per the CPR convention).
func (b *Bank) RiffCode() string {
	n := b.Number % 32
	return "cb" + string([]byte{'0' + byte(n/10), '0' + byte(n%10)})
}
