/*
 * basm - snapshot state tests
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

package snapshot

import "testing"

func TestSetByteTracksWrites(t *testing.T) {
	s := New(3, 1)
	s.SetByte(0x4000, 0xC3)
	if !s.WasWritten(0x4000) {
		t.Error("expected 0x4000 to be marked written")
	}
	if s.WasWritten(0x4001) {
		t.Error("expected 0x4001 to be untouched")
	}
	if s.Memory()[0x4000] != 0xC3 {
		t.Errorf("memory[0x4000] = %#x, want 0xC3", s.Memory()[0x4000])
	}
}

func TestSetByteGrowsExpandedMemory(t *testing.T) {
	// Addresses are 17+ bits into expanded memory; writing past the
	// allocated pages must grow the buffer, not fault.
	s := New(3, 1)
	s.SetByte(0x1ABCD, 0x7F)
	if got := s.Memory()[0x1ABCD]; got != 0x7F {
		t.Errorf("memory[0x1ABCD] = %#x, want 0x7F", got)
	}
	if !s.WasWritten(0x1ABCD) {
		t.Error("expected grown address to be marked written")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := New(3, 1)
	s.SetByte(0x4000, 0xC3)
	s.SetByte(0x4001, 0x00)
	s.SetByte(0x4002, 0x40)
	s.Regs.PC = 0x4000
	s.Regs.SP = 0xBFFE
	s.Regs.AF = 0x1234
	s.Regs.IFF1 = true
	s.Regs.InterruptMode = 1

	back := Read(s.Write())

	if back.Version != 3 {
		t.Errorf("version = %d, want 3", back.Version)
	}
	if back.Regs != s.Regs {
		t.Errorf("registers = %+v, want %+v", back.Regs, s.Regs)
	}
	for _, addr := range []int{0x4000, 0x4001, 0x4002} {
		if back.Memory()[addr] != s.Memory()[addr] {
			t.Errorf("memory[%#x] = %#x, want %#x", addr, back.Memory()[addr], s.Memory()[addr])
		}
	}
	if len(back.Memory()) != len(s.Memory()) {
		t.Errorf("memory size = %d, want %d", len(back.Memory()), len(s.Memory()))
	}
}
