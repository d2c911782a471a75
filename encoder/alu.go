/*
 * basm - ALU, stack and increment/decrement instruction encoding
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

// aluOperand resolves a single ALU right-hand operand (r, n, (HL),
// (IX+d)/(IY+d)) to its trailing bytes plus the 3-bit register field,
// or a negative form marker: -1 immediate, -2 (HL), -3 indexed.
func aluOperand(op Operand, resolve Resolver) (field int, trailing []byte, err error) {
	switch op.Kind {
	case KindReg:
		if r, ok := reg8[op.Reg]; ok {
			return int(r), nil, nil
		}
	case KindImmediate:
		v, _, e := resolve(op)
		if e != nil {
			return 0, nil, e
		}
		return -1, []byte{asByte(v)}, nil
	case KindIndirectReg:
		if op.Reg == "HL" {
			return -2, nil, nil
		}
	case KindIndexed:
		p := ixyPrefix(op.Reg)
		disp, e := indexedDisp(op, resolve)
		if e != nil {
			return 0, nil, e
		}
		return -3, []byte{p, disp}, nil
	}
	return 0, nil, fmt.Errorf("unsupported ALU operand")
}

// encAluSimple encodes the single-operand accumulator ops AND/XOR/OR/CP,
// whose opcode is 10 ooo rrr with ooo selecting the operation.
func encAluSimple(sel byte) encodeFunc {
	return func(ops []Operand, resolve Resolver) ([]byte, error) {
		if len(ops) != 1 {
			return nil, fmt.Errorf("expected one operand, got %d", len(ops))
		}
		field, trailing, err := aluOperand(ops[0], resolve)
		if err != nil {
			return nil, err
		}
		switch field {
		case -1:
			return append([]byte{0xC6 | sel<<3}, trailing...), nil
		case -2:
			return []byte{0x80 | sel<<3 | 6}, nil
		case -3:
			return []byte{trailing[0], 0x80 | sel<<3 | 6, trailing[1]}, nil
		default:
			return []byte{0x80 | sel<<3 | byte(field)}, nil
		}
	}
}

// encAlu encodes ADD/ADC/SUB/SBC, which additionally have 16-bit
// register-pair forms (ADD HL,rp / ADC HL,rp / SBC HL,rp and ADD
// IX/IY,rp).
func encAlu(name string, sel byte) encodeFunc {
	return func(ops []Operand, resolve Resolver) ([]byte, error) {
		if len(ops) == 1 {
			field, trailing, err := aluOperand(ops[0], resolve)
			if err != nil {
				return nil, err
			}
			switch field {
			case -1:
				return append([]byte{0xC6 | sel<<3}, trailing...), nil
			case -2:
				return []byte{0x80 | sel<<3 | 6}, nil
			case -3:
				return []byte{trailing[0], 0x80 | sel<<3 | 6, trailing[1]}, nil
			default:
				return []byte{0x80 | sel<<3 | byte(field)}, nil
			}
		}
		if len(ops) != 2 {
			return nil, fmt.Errorf("%s: expected one or two operands", name)
		}
		dst, src := ops[0], ops[1]
		if dst.Kind != KindReg {
			return nil, fmt.Errorf("%s: bad destination", name)
		}
		// 16-bit register-pair form
		if rp, ok := reg16[src.Reg]; ok && src.Kind == KindReg {
			switch dst.Reg {
			case "HL":
				switch name {
				case "ADD":
					return []byte{0x09 | rp<<4}, nil
				case "ADC":
					return []byte{0xED, 0x4A | rp<<4}, nil
				case "SBC":
					return []byte{0xED, 0x42 | rp<<4}, nil
				}
			case "IX", "IY":
				if name == "ADD" {
					p := ixyPrefix(dst.Reg)
					rpIdx := rp
					if src.Reg == dst.Reg {
						rpIdx = 2 // IX/IY,IX/IY encodes as the HL slot
					}
					return []byte{p, 0x09 | rpIdx<<4}, nil
				}
			}
		}
		if dst.Reg != "A" {
			return nil, fmt.Errorf("%s: 8-bit form requires A as destination", name)
		}
		field, trailing, err := aluOperand(src, resolve)
		if err != nil {
			return nil, err
		}
		switch field {
		case -1:
			return append([]byte{0xC6 | sel<<3}, trailing...), nil
		case -2:
			return []byte{0x80 | sel<<3 | 6}, nil
		case -3:
			return []byte{trailing[0], 0x80 | sel<<3 | 6, trailing[1]}, nil
		default:
			return []byte{0x80 | sel<<3 | byte(field)}, nil
		}
	}
}

// encIncDec encodes INC (which=0) and DEC (which=1) across all their 8-
// and 16-bit register forms.
func encIncDec(which byte) encodeFunc {
	return func(ops []Operand, resolve Resolver) ([]byte, error) {
		if len(ops) != 1 {
			return nil, fmt.Errorf("expected one operand, got %d", len(ops))
		}
		o := ops[0]
		base8 := byte(0x04)
		base16 := byte(0x03)
		if which == 1 {
			base8 = 0x05
			base16 = 0x0B
		}
		switch o.Kind {
		case KindReg:
			if r, ok := reg8[o.Reg]; ok {
				return []byte{base8 | r<<3}, nil
			}
			if rp, ok := reg16[o.Reg]; ok {
				return []byte{base16 | rp<<4}, nil
			}
			if p := ixyPrefix(o.Reg); p != 0 {
				return []byte{p, base16 | 2<<4}, nil
			}
		case KindIndirectReg:
			if o.Reg == "HL" {
				return []byte{base8 | 6<<3}, nil
			}
		case KindIndexed:
			p := ixyPrefix(o.Reg)
			disp, err := indexedDisp(o, resolve)
			if err != nil {
				return nil, err
			}
			return []byte{p, base8 | 6<<3, disp}, nil
		}
		return nil, fmt.Errorf("unsupported INC/DEC operand")
	}
}

func encPush(ops []Operand, _ Resolver) ([]byte, error) {
	if len(ops) != 1 || ops[0].Kind != KindReg {
		return nil, fmt.Errorf("PUSH requires one register operand")
	}
	if rp, ok := reg16stk[ops[0].Reg]; ok {
		return []byte{0xC5 | rp<<4}, nil
	}
	if p := ixyPrefix(ops[0].Reg); p != 0 {
		return []byte{p, 0xE5}, nil
	}
	return nil, fmt.Errorf("PUSH: bad register %q", ops[0].Reg)
}

func encPop(ops []Operand, _ Resolver) ([]byte, error) {
	if len(ops) != 1 || ops[0].Kind != KindReg {
		return nil, fmt.Errorf("POP requires one register operand")
	}
	if rp, ok := reg16stk[ops[0].Reg]; ok {
		return []byte{0xC1 | rp<<4}, nil
	}
	if p := ixyPrefix(ops[0].Reg); p != 0 {
		return []byte{p, 0xE1}, nil
	}
	return nil, fmt.Errorf("POP: bad register %q", ops[0].Reg)
}

func encEx(ops []Operand, _ Resolver) ([]byte, error) {
	if len(ops) != 2 {
		return nil, fmt.Errorf("EX requires two operands")
	}
	a, b := ops[0], ops[1]
	switch {
	case a.Kind == KindReg && a.Reg == "AF" && b.Kind == KindReg && b.Reg == "AF'":
		return []byte{0x08}, nil
	case a.Kind == KindReg && a.Reg == "DE" && b.Kind == KindReg && b.Reg == "HL":
		return []byte{0xEB}, nil
	case a.Kind == KindIndirectReg && a.Reg == "SP" && b.Kind == KindReg && b.Reg == "HL":
		return []byte{0xE3}, nil
	case a.Kind == KindIndirectReg && a.Reg == "SP" && b.Kind == KindReg:
		if p := ixyPrefix(b.Reg); p != 0 {
			return []byte{p, 0xE3}, nil
		}
	}
	return nil, fmt.Errorf("EX: unsupported operand combination")
}
