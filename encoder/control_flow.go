/*
 * basm - jump, call, I/O, rotate and bit-manipulation instruction encoding
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

package encoder

import "fmt"

func encJP(ops []Operand, resolve Resolver) ([]byte, error) {
	if len(ops) == 1 {
		o := ops[0]
		switch o.Kind {
		case KindImmediate:
			v, _, err := resolve(o)
			if err != nil {
				return nil, err
			}
			return append([]byte{0xC3}, word(v)...), nil
		case KindIndirectReg:
			if o.Reg == "HL" {
				return []byte{0xE9}, nil
			}
		case KindReg:
			if p := ixyPrefix(o.Reg); p != 0 {
				return []byte{p, 0xE9}, nil
			}
		}
		return nil, fmt.Errorf("JP: unsupported operand")
	}
	if len(ops) == 2 {
		cc, ok := condCodes[ops[0].Reg]
		if !ok {
			return nil, fmt.Errorf("JP: bad condition %q", ops[0].Reg)
		}
		v, _, err := resolve(ops[1])
		if err != nil {
			return nil, err
		}
		return append([]byte{0xC2 | cc<<3}, word(v)...), nil
	}
	return nil, fmt.Errorf("JP: expected one or two operands")
}

// jrDisplacement converts an absolute target address and the address of
// the instruction after JR/DJNZ into a signed 8-bit relative offset,
// erroring if it is out of the -128..127 range once fully resolved.
func jrDisplacement(target int32, nextAddr int32, known bool) (byte, error) {
	if !known {
		return 0, nil
	}
	delta := target - nextAddr
	if delta < -128 || delta > 127 {
		return 0, fmt.Errorf("relative jump target out of range (%d)", delta)
	}
	return asByte(delta), nil
}

func encJR(ops []Operand, resolve Resolver) ([]byte, error) {
	var target Operand
	var cc byte
	hasCond := false
	if len(ops) == 1 {
		target = ops[0]
	} else if len(ops) == 2 {
		c, ok := condCodes[ops[0].Reg]
		if !ok || c > 3 {
			return nil, fmt.Errorf("JR: bad condition %q", ops[0].Reg)
		}
		cc, hasCond = c, true
		target = ops[1]
	} else {
		return nil, fmt.Errorf("JR: expected one or two operands")
	}
	v, ok, err := resolve(target)
	if err != nil {
		return nil, err
	}
	if !ok {
		if hasCond {
			return []byte{0x20 | cc<<3, 0}, nil
		}
		return []byte{0x18, 0}, nil
	}
	// The engine bakes the instruction's own address into the value
	// it hands us (its resolver evaluates JR targets as target-$-2),
	// so v already is the final signed displacement once resolvable.
	d, err := jrDisplacement(v, 0, true)
	if err != nil {
		return nil, err
	}
	if hasCond {
		return []byte{0x20 | cc<<3, d}, nil
	}
	return []byte{0x18, d}, nil
}

func encDJNZ(ops []Operand, resolve Resolver) ([]byte, error) {
	if len(ops) != 1 {
		return nil, fmt.Errorf("DJNZ requires one operand")
	}
	v, ok, err := resolve(ops[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return []byte{0x10, 0}, nil
	}
	d, err := jrDisplacement(v, 0, true)
	if err != nil {
		return nil, err
	}
	return []byte{0x10, d}, nil
}

func encCall(ops []Operand, resolve Resolver) ([]byte, error) {
	if len(ops) == 1 {
		v, _, err := resolve(ops[0])
		if err != nil {
			return nil, err
		}
		return append([]byte{0xCD}, word(v)...), nil
	}
	if len(ops) == 2 {
		cc, ok := condCodes[ops[0].Reg]
		if !ok {
			return nil, fmt.Errorf("CALL: bad condition %q", ops[0].Reg)
		}
		v, _, err := resolve(ops[1])
		if err != nil {
			return nil, err
		}
		return append([]byte{0xC4 | cc<<3}, word(v)...), nil
	}
	return nil, fmt.Errorf("CALL: expected one or two operands")
}

var rstTargets = map[int32]byte{
	0x00: 0, 0x08: 1, 0x10: 2, 0x18: 3, 0x20: 4, 0x28: 5, 0x30: 6, 0x38: 7,
}

func encRST(ops []Operand, resolve Resolver) ([]byte, error) {
	if len(ops) != 1 {
		return nil, fmt.Errorf("RST requires one operand")
	}
	v, _, err := resolve(ops[0])
	if err != nil {
		return nil, err
	}
	t, ok := rstTargets[v]
	if !ok {
		return nil, fmt.Errorf("RST: %#x is not a valid restart vector", v)
	}
	return []byte{0xC7 | t<<3}, nil
}

var imModes = map[int32]byte{0: 0x46, 1: 0x56, 2: 0x5E}

func encIM(ops []Operand, resolve Resolver) ([]byte, error) {
	if len(ops) != 1 {
		return nil, fmt.Errorf("IM requires one operand")
	}
	v, _, err := resolve(ops[0])
	if err != nil {
		return nil, err
	}
	b, ok := imModes[v]
	if !ok {
		return nil, fmt.Errorf("IM: mode must be 0, 1 or 2")
	}
	return []byte{0xED, b}, nil
}

func encIN(ops []Operand, resolve Resolver) ([]byte, error) {
	if len(ops) != 2 {
		return nil, fmt.Errorf("IN requires two operands")
	}
	dst, src := ops[0], ops[1]
	if dst.Kind != KindReg {
		return nil, fmt.Errorf("IN: bad destination")
	}
	if dst.Reg == "A" && src.Kind == KindIndirectImmediate {
		v, _, err := resolve(src)
		if err != nil {
			return nil, err
		}
		return []byte{0xDB, asByte(v)}, nil
	}
	if src.Kind == KindIndirectReg && src.Reg == "C" {
		if dst.Reg == "F" {
			return []byte{0xED, 0x70}, nil
		}
		if r, ok := reg8[dst.Reg]; ok {
			return []byte{0xED, 0x40 | r<<3}, nil
		}
	}
	return nil, fmt.Errorf("IN: unsupported operand combination")
}

func encOUT(ops []Operand, resolve Resolver) ([]byte, error) {
	if len(ops) != 2 {
		return nil, fmt.Errorf("OUT requires two operands")
	}
	dst, src := ops[0], ops[1]
	if dst.Kind == KindIndirectImmediate && src.Kind == KindReg && src.Reg == "A" {
		v, _, err := resolve(dst)
		if err != nil {
			return nil, err
		}
		return []byte{0xD3, asByte(v)}, nil
	}
	if dst.Kind == KindIndirectReg && dst.Reg == "C" {
		if src.Kind == KindImmediate {
			return []byte{0xED, 0x71}, nil
		}
		if r, ok := reg8[src.Reg]; ok {
			return []byte{0xED, 0x41 | r<<3}, nil
		}
	}
	return nil, fmt.Errorf("OUT: unsupported operand combination")
}

// encRot encodes the CB-prefixed rotate/shift group (RLC/RRC/RL/RR/
// SLA/SRA/SLL/SRL), each selecting opcode 00 ooo rrr.
func encRot(sel byte) encodeFunc {
	return func(ops []Operand, resolve Resolver) ([]byte, error) {
		if len(ops) != 1 {
			return nil, fmt.Errorf("expected one operand, got %d", len(ops))
		}
		o := ops[0]
		switch o.Kind {
		case KindReg:
			if r, ok := reg8[o.Reg]; ok {
				return []byte{0xCB, sel<<3 | r}, nil
			}
		case KindIndirectReg:
			if o.Reg == "HL" {
				return []byte{0xCB, sel<<3 | 6}, nil
			}
		case KindIndexed:
			p := ixyPrefix(o.Reg)
			disp, err := indexedDisp(o, resolve)
			if err != nil {
				return nil, err
			}
			return []byte{p, 0xCB, disp, sel<<3 | 6}, nil
		}
		return nil, fmt.Errorf("unsupported rotate/shift operand")
	}
}

// encBitOp encodes BIT/RES/SET (base = 0x40/0x80/0xC0): bit b, r.
func encBitOp(base byte) encodeFunc {
	return func(ops []Operand, resolve Resolver) ([]byte, error) {
		if len(ops) != 2 {
			return nil, fmt.Errorf("expected two operands, got %d", len(ops))
		}
		bit, _, err := resolve(ops[0])
		if err != nil {
			return nil, err
		}
		if bit < 0 || bit > 7 {
			return nil, fmt.Errorf("bit index %d out of range 0..7", bit)
		}
		b := byte(bit)
		o := ops[1]
		switch o.Kind {
		case KindReg:
			if r, ok := reg8[o.Reg]; ok {
				return []byte{0xCB, base | b<<3 | r}, nil
			}
		case KindIndirectReg:
			if o.Reg == "HL" {
				return []byte{0xCB, base | b<<3 | 6}, nil
			}
		case KindIndexed:
			p := ixyPrefix(o.Reg)
			disp, err := indexedDisp(o, resolve)
			if err != nil {
				return nil, err
			}
			return []byte{p, 0xCB, disp, base | b<<3 | 6}, nil
		}
		return nil, fmt.Errorf("unsupported bit operand")
	}
}
