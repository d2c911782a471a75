/*
 * basm - CPC snapshot (SNA) assembly state and writer
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

// Package snapshot models the snapshot assembly state: a CPU register
// block plus an expanded-memory buffer addressed by SetByte, and its
// serialisation to a versioned SNA container. The container framing is
// deliberately minimal — a register header ahead of the raw memory
// dump — not a byte-for-byte WinAPE/CPCEmu-compatible encoder.
package snapshot

// PageSize is one 64 KiB memory bank inside the expanded-memory buffer.
const PageSize = 0x10000

// Registers holds the Z80 CPU state a snapshot records.
type Registers struct {
	AF, BC, DE, HL    uint16
	AFAlt, BCAlt      uint16
	DEAlt, HLAlt      uint16
	IX, IY, SP, PC    uint16
	I, R              byte
	IFF1, IFF2        bool
	InterruptMode     byte
}

// State is the snapshot assembly buffer: multiple 64 KiB pages of
// expanded memory plus a global written-bytes bitmap, built up by
// SetByte as the engine's `snapshot` save directives run.
type State struct {
	Version int // 2 or 3
	Regs    Registers

	mem     []byte
	written []byte
}

// New allocates a State with numPages 64 KiB pages of expanded memory.
func New(version, numPages int) *State {
	if numPages < 1 {
		numPages = 1
	}
	size := numPages * PageSize
	return &State{
		Version: version,
		mem:     make([]byte, size),
		written: make([]byte, (size+7)/8),
	}
}

// SetByte stores b at address, a 17+ bit offset into the
// expanded-memory buffer, growing the buffer if address falls beyond
// the currently allocated pages.
func (s *State) SetByte(address int, b byte) {
	if address >= len(s.mem) {
		grown := make([]byte, address+1)
		copy(grown, s.mem)
		s.mem = grown
		wb := make([]byte, (len(grown)+7)/8)
		copy(wb, s.written)
		s.written = wb
	}
	s.mem[address] = b
	s.written[address/8] |= 1 << uint(address%8)
}

// WasWritten reports whether SetByte ever touched address.
func (s *State) WasWritten(address int) bool {
	if address < 0 || address/8 >= len(s.written) {
		return false
	}
	return s.written[address/8]&(1<<uint(address%8)) != 0
}

// Memory returns the full expanded-memory buffer.
func (s *State) Memory() []byte { return s.mem }

func putWord(b []byte, off int, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}

func getWord(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// headerSize is the fixed register/metadata block preceding the
// memory dump.
const headerSize = 64

// Write serialises the snapshot to its container form: a small fixed
// register header followed by the raw expanded-memory buffer.
func (s *State) Write() []byte {
	out := make([]byte, headerSize+len(s.mem))
	copy(out[0:8], "MV - SNA")
	out[8] = byte(s.Version)
	r := s.Regs
	putWord(out, 9, r.AF)
	putWord(out, 11, r.BC)
	putWord(out, 13, r.DE)
	putWord(out, 15, r.HL)
	putWord(out, 17, r.AFAlt)
	putWord(out, 19, r.BCAlt)
	putWord(out, 21, r.DEAlt)
	putWord(out, 23, r.HLAlt)
	putWord(out, 25, r.IX)
	putWord(out, 27, r.IY)
	putWord(out, 29, r.SP)
	putWord(out, 31, r.PC)
	out[33] = r.I
	out[34] = r.R
	out[35] = boolByte(r.IFF1)
	out[36] = boolByte(r.IFF2)
	out[37] = r.InterruptMode
	putWord(out, 38, uint16(len(s.mem)/1024))
	copy(out[headerSize:], s.mem)
	return out
}

// Read parses a buffer produced by Write back into a State.
func Read(data []byte) *State {
	s := &State{Version: int(data[8])}
	s.Regs = Registers{
		AF: getWord(data, 9), BC: getWord(data, 11), DE: getWord(data, 13), HL: getWord(data, 15),
		AFAlt: getWord(data, 17), BCAlt: getWord(data, 19), DEAlt: getWord(data, 21), HLAlt: getWord(data, 23),
		IX: getWord(data, 25), IY: getWord(data, 27), SP: getWord(data, 29), PC: getWord(data, 31),
		I: data[33], R: data[34], IFF1: data[35] != 0, IFF2: data[36] != 0, InterruptMode: data[37],
	}
	s.mem = append([]byte(nil), data[headerSize:]...)
	s.written = make([]byte, (len(s.mem)+7)/8)
	for i := range s.written {
		s.written[i] = 0xFF
	}
	return s
}
