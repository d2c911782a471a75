/*
 * basm - LD instruction encoding
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

func encLD(ops []Operand, resolve Resolver) ([]byte, error) {
	if len(ops) != 2 {
		return nil, fmt.Errorf("LD requires two operands, got %d", len(ops))
	}
	dst, src := ops[0], ops[1]

	// LD A,I / LD A,R / LD I,A / LD R,A
	if dst.Kind == KindReg && dst.Reg == "A" && src.Kind == KindReg && (src.Reg == "I" || src.Reg == "R") {
		if src.Reg == "I" {
			return []byte{0xED, 0x57}, nil
		}
		return []byte{0xED, 0x5F}, nil
	}
	if src.Kind == KindReg && src.Reg == "A" && dst.Kind == KindReg && (dst.Reg == "I" || dst.Reg == "R") {
		if dst.Reg == "I" {
			return []byte{0xED, 0x47}, nil
		}
		return []byte{0xED, 0x4F}, nil
	}

	// LD r,r' / LD r,n / LD r,(HL) / LD (HL),r / LD (HL),n
	if dst.Kind == KindReg {
		if _, ok := reg8[dst.Reg]; ok {
			return encLDReg8Dest(dst, src, resolve)
		}
		if p := ixyPrefix(dst.Reg); p != 0 {
			return encLDIndexDest16(p, src, resolve)
		}
		if _, ok := reg16[dst.Reg]; ok {
			return encLDReg16Dest(dst, src, resolve)
		}
		if dst.Reg == "SP" {
			return encLDSPDest(src, resolve)
		}
	}

	if dst.Kind == KindIndirectReg {
		switch dst.Reg {
		case "HL":
			return encLDIndirectHLDest(src, resolve)
		case "BC":
			if src.Kind == KindReg && src.Reg == "A" {
				return []byte{0x02}, nil
			}
		case "DE":
			if src.Kind == KindReg && src.Reg == "A" {
				return []byte{0x12}, nil
			}
		}
	}

	if dst.Kind == KindIndexed {
		return encLDIndexedDest(dst, src, resolve)
	}

	if dst.Kind == KindIndirectImmediate {
		return encLDIndirectImmDest(dst, src, resolve)
	}

	return nil, fmt.Errorf("LD: unsupported operand combination")
}

func encLDReg8Dest(dst, src Operand, resolve Resolver) ([]byte, error) {
	d := reg8[dst.Reg]
	switch src.Kind {
	case KindReg:
		if s, ok := reg8[src.Reg]; ok {
			return []byte{0x40 | d<<3 | s}, nil
		}
	case KindImmediate:
		v, _, err := resolve(src)
		if err != nil {
			return nil, err
		}
		return []byte{0x06 | d<<3, asByte(v)}, nil
	case KindIndirectReg:
		if src.Reg == "HL" {
			return []byte{0x46 | d<<3}, nil
		}
		if src.Reg == "BC" && dst.Reg == "A" {
			return []byte{0x0A}, nil
		}
		if src.Reg == "DE" && dst.Reg == "A" {
			return []byte{0x1A}, nil
		}
	case KindIndirectImmediate:
		if dst.Reg == "A" {
			v, _, err := resolve(src)
			if err != nil {
				return nil, err
			}
			return append([]byte{0x3A}, word(v)...), nil
		}
	case KindIndexed:
		p := ixyPrefix(src.Reg)
		disp, err := indexedDisp(src, resolve)
		if err != nil {
			return nil, err
		}
		return []byte{p, 0x46 | d<<3, disp}, nil
	}
	return nil, fmt.Errorf("LD %s,<operand>: unsupported source", dst.Reg)
}

func encLDIndirectHLDest(src Operand, resolve Resolver) ([]byte, error) {
	switch src.Kind {
	case KindReg:
		if s, ok := reg8[src.Reg]; ok {
			return []byte{0x70 | s}, nil
		}
	case KindImmediate:
		v, _, err := resolve(src)
		if err != nil {
			return nil, err
		}
		return []byte{0x36, asByte(v)}, nil
	}
	return nil, fmt.Errorf("LD (HL),<operand>: unsupported source")
}

func encLDIndexedDest(dst, src Operand, resolve Resolver) ([]byte, error) {
	p := ixyPrefix(dst.Reg)
	disp, err := indexedDisp(dst, resolve)
	if err != nil {
		return nil, err
	}
	switch src.Kind {
	case KindReg:
		if s, ok := reg8[src.Reg]; ok {
			return []byte{p, 0x70 | s, disp}, nil
		}
	case KindImmediate:
		v, _, err := resolve(src)
		if err != nil {
			return nil, err
		}
		return []byte{p, 0x36, disp, asByte(v)}, nil
	}
	return nil, fmt.Errorf("LD (%s+d),<operand>: unsupported source", dst.Reg)
}

func encLDReg16Dest(dst, src Operand, resolve Resolver) ([]byte, error) {
	rp := reg16[dst.Reg]
	switch src.Kind {
	case KindImmediate:
		v, _, err := resolve(src)
		if err != nil {
			return nil, err
		}
		return append([]byte{0x01 | rp<<4}, word(v)...), nil
	case KindIndirectImmediate:
		v, _, err := resolve(src)
		if err != nil {
			return nil, err
		}
		if dst.Reg == "HL" {
			return append([]byte{0x2A}, word(v)...), nil
		}
		return append([]byte{0xED, 0x4B | rp<<4}, word(v)...), nil
	case KindReg:
		if dst.Reg == "SP" && src.Reg == "HL" {
			return []byte{0xF9}, nil
		}
		if dst.Reg == "SP" {
			if p := ixyPrefix(src.Reg); p != 0 {
				return []byte{p, 0xF9}, nil
			}
		}
	}
	return nil, fmt.Errorf("LD %s,<operand>: unsupported source", dst.Reg)
}

func encLDSPDest(src Operand, resolve Resolver) ([]byte, error) {
	switch src.Kind {
	case KindImmediate:
		v, _, err := resolve(src)
		if err != nil {
			return nil, err
		}
		return append([]byte{0x31}, word(v)...), nil
	case KindIndirectImmediate:
		v, _, err := resolve(src)
		if err != nil {
			return nil, err
		}
		return append([]byte{0xED, 0x7B}, word(v)...), nil
	case KindReg:
		if src.Reg == "HL" {
			return []byte{0xF9}, nil
		}
		if p := ixyPrefix(src.Reg); p != 0 {
			return []byte{p, 0xF9}, nil
		}
	}
	return nil, fmt.Errorf("LD SP,<operand>: unsupported source")
}

func encLDIndexDest16(prefix byte, src Operand, resolve Resolver) ([]byte, error) {
	switch src.Kind {
	case KindImmediate:
		v, _, err := resolve(src)
		if err != nil {
			return nil, err
		}
		return append([]byte{prefix, 0x21}, word(v)...), nil
	case KindIndirectImmediate:
		v, _, err := resolve(src)
		if err != nil {
			return nil, err
		}
		return append([]byte{prefix, 0x2A}, word(v)...), nil
	}
	return nil, fmt.Errorf("LD IX/IY,<operand>: unsupported source")
}

func encLDIndirectImmDest(dst, src Operand, resolve Resolver) ([]byte, error) {
	addr, _, err := resolve(dst)
	if err != nil {
		return nil, err
	}
	switch src.Kind {
	case KindReg:
		if src.Reg == "A" {
			return append([]byte{0x32}, word(addr)...), nil
		}
		if src.Reg == "HL" {
			return append([]byte{0x22}, word(addr)...), nil
		}
		if rp, ok := reg16[src.Reg]; ok {
			return append([]byte{0xED, 0x43 | rp<<4}, word(addr)...), nil
		}
		if p := ixyPrefix(src.Reg); p != 0 {
			return append([]byte{p, 0x22}, word(addr)...), nil
		}
	}
	return nil, fmt.Errorf("LD (nn),<operand>: unsupported source")
}
