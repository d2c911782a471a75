/*
 * basm - page/section/bank memory model
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

// Package page implements the engine's 64 KiB page memory model: current
// output/code cursors, protected ranges, a written-bytes bitmap and named
// sections, with one independent buffer per page.
package page

import "fmt"

const Size = 0x10000

// Range is an inclusive [Lo, Hi] byte range.
type Range struct{ Lo, Hi int }

func (r Range) contains(addr int) bool { return addr >= r.Lo && addr <= r.Hi }

// Section is a named [Start,Stop] sub-range of a page with its own
// output/code/max cursors, used to interleave independent logical zones
// sharing one page.
type Section struct {
	Name        string
	Start, Stop int
	Output      int
	Code        int
	Max         int
	hasWritten  bool
}

// Page is one virtual 64 KiB memory page.
type Page struct {
	Index int

	buf     [Size]byte
	written [Size / 8]byte // bitmap of written bytes

	startAddr int
	hasStart  bool
	maxAddr   int

	output int // current output address
	code   int // current code address ($ under normal org; output+delta under rorg)
	rorg   bool
	delta  int

	limit     int
	hasLimit  bool
	protected []Range

	sections       map[string]*Section
	activeSection  *Section
}

// New creates a page starting fresh at output/code address 0.
func New(index int) *Page {
	return &Page{Index: index, limit: Size - 1}
}

// Reset clears per-pass state (start/max addr, cursors, limit, protected
// ranges, sections and the written bitmap) while keeping the page's
// identity, ready for the pass that is about to be rebuilt from scratch.
func (p *Page) Reset() {
	p.hasStart = false
	p.startAddr = 0
	p.maxAddr = 0
	p.output = 0
	p.code = 0
	p.rorg = false
	p.delta = 0
	p.limit = Size - 1
	p.hasLimit = false
	p.protected = nil
	p.sections = nil
	p.activeSection = nil
	for i := range p.written {
		p.written[i] = 0
	}
}

// SetOrg implements the `org code[, output]` directive.
func (p *Page) SetOrg(code int, output *int) {
	p.code = wrap(code)
	if output != nil {
		p.output = wrap(*output)
	} else {
		p.output = p.code
	}
	p.rorg = false
}

// SetRorg implements `rorg delta`: `$` reports output+delta while bytes
// still land at the real output address.
func (p *Page) SetRorg(delta int) {
	p.rorg = true
	p.delta = delta
	p.code = wrap(p.output + delta)
}

// EndRorg restores `$` to tracking the output address directly.
func (p *Page) EndRorg() {
	p.rorg = false
	p.code = p.output
}

// CodeAddress is what `$` evaluates to.
func (p *Page) CodeAddress() int { return p.code }

// OutputAddress is where the next byte lands.
func (p *Page) OutputAddress() int { return p.output }

// SetLimit implements the `limit` directive.
func (p *Page) SetLimit(addr int) {
	p.limit = addr
	p.hasLimit = true
}

// Protect adds a protected range; writes into it fail.
func (p *Page) Protect(lo, hi int) {
	p.protected = append(p.protected, Range{Lo: lo, Hi: hi})
}

func (p *Page) isProtected(addr int) bool {
	for _, r := range p.protected {
		if r.contains(addr) {
			return true
		}
	}
	return false
}

// WriteError is returned by OutputByte when a write is rejected.
type WriteError struct {
	Addr   int
	Reason string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write byte at %#04x: %s", e.Addr, e.Reason)
}

// OutputByte writes one byte at the output cursor: permit check first
// (limit, protected ranges), then startAddr latches on the first write
// of a pass, maxAddr tracks the highest written address, the bitmap bit
// is set and the buffer byte stored. Both cursors advance: output
// always by one, code by one unless under rorg (rorg advances output
// only; code is derived from delta).
func (p *Page) OutputByte(b byte) error {
	addr := p.output
	if addr > p.limit {
		return &WriteError{Addr: addr, Reason: "beyond page limit"}
	}
	if p.isProtected(addr) {
		return &WriteError{Addr: addr, Reason: "protected range"}
	}
	if !p.hasStart {
		p.startAddr = addr
		p.hasStart = true
	}
	if addr > p.maxAddr || !p.hasStart {
		p.maxAddr = addr
	}
	p.written[addr/8] |= 1 << uint(addr%8)
	p.buf[addr] = b

	p.output = wrap(p.output + 1)
	if p.rorg {
		p.code = wrap(p.output + p.delta)
	} else {
		p.code = p.output
	}
	if p.activeSection != nil {
		p.activeSection.Output = p.output
		p.activeSection.Code = p.code
		if addr > p.activeSection.Max {
			p.activeSection.Max = addr
		}
	}
	return nil
}

// WasWritten reports whether OutputByte ever touched addr.
func (p *Page) WasWritten(addr int) bool {
	return p.written[addr/8]&(1<<uint(addr%8)) != 0
}

// StartAddr/MaxAddr/HasStart expose the page's write extent for Save.
func (p *Page) StartAddr() int  { return p.startAddr }
func (p *Page) MaxAddr() int    { return p.maxAddr }
func (p *Page) HasWritten() bool { return p.hasStart }

// Bytes returns a copy of [lo,hi] inclusive from the page buffer.
func (p *Page) Bytes(lo, hi int) []byte {
	if lo < 0 {
		lo = 0
	}
	if hi >= Size {
		hi = Size - 1
	}
	if hi < lo {
		return nil
	}
	out := make([]byte, hi-lo+1)
	copy(out, p.buf[lo:hi+1])
	return out
}

// PeekByte reads a single byte without affecting cursors, used by
// snapshot generation and tests.
func (p *Page) PeekByte(addr int) byte { return p.buf[addr&0xFFFF] }

func wrap(addr int) int {
	addr %= Size
	if addr < 0 {
		addr += Size
	}
	return addr
}

// Section returns the named section, creating it on first reference.
func (p *Page) Section(name string, start, stop int) *Section {
	if p.sections == nil {
		p.sections = make(map[string]*Section)
	}
	s, ok := p.sections[name]
	if !ok {
		s = &Section{Name: name, Start: start, Stop: stop, Output: start, Code: start, Max: start}
		p.sections[name] = s
	}
	return s
}

// LookupSection returns a previously-declared section by name.
func (p *Page) LookupSection(name string) (*Section, bool) {
	if p.sections == nil {
		return nil, false
	}
	s, ok := p.sections[name]
	return s, ok
}

// SwitchSection saves the current cursors into the previously active
// section (if any) and restores them from the newly selected one.
func (p *Page) SwitchSection(s *Section) {
	if p.activeSection != nil {
		p.activeSection.Output = p.output
		p.activeSection.Code = p.code
	}
	p.activeSection = s
	if s != nil {
		p.output = s.Output
		p.code = s.Code
	}
}

// ActiveSection returns the currently selected section, or nil.
func (p *Page) ActiveSection() *Section { return p.activeSection }
