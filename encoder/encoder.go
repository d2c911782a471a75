/*
 * basm - Z80 instruction encoder
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

import (
	"fmt"
	"strings"
)

// reg8 maps an 8-bit register name to its 3-bit field value, per the
// standard Z80 r table (B,C,D,E,H,L,(HL),A).
var reg8 = map[string]byte{
	"B": 0, "C": 1, "D": 2, "E": 3, "H": 4, "L": 5, "A": 7,
}

// reg16 maps a 16-bit register-pair name to its 2-bit field value in the
// rp table (BC,DE,HL,SP).
var reg16 = map[string]byte{
	"BC": 0, "DE": 1, "HL": 2, "SP": 3,
}

// reg16stk maps the rp2 table used by PUSH/POP (BC,DE,HL,AF).
var reg16stk = map[string]byte{
	"BC": 0, "DE": 1, "HL": 2, "AF": 3,
}

var condCodes = map[string]byte{
	"NZ": 0, "Z": 1, "NC": 2, "C": 3, "PO": 4, "PE": 5, "P": 6, "M": 7,
}

// ixyPrefix returns the DD/FD index prefix byte for "IX"/"IY", or 0 if
// reg names neither.
func ixyPrefix(reg string) byte {
	switch reg {
	case "IX":
		return 0xDD
	case "IY":
		return 0xFD
	}
	return 0
}

func asByte(v int32) byte { return byte(v & 0xFF) }

func word(v int32) []byte { return []byte{asByte(v), asByte(v >> 8)} }

// Resolver lets the encoder turn an operand's expression into a
// placeholder-aware int32: ok=false means "not yet resolvable this
// pass", in which case the encoder emits zero bytes of the right width
// and the engine marks the pass as not converged.
type Resolver func(o Operand) (int32, bool, error)

// Encode produces the full byte sequence for one instruction, given its
// operands and a way to resolve their values. Instruction length never
// depends on a resolved value (Z80 has no value-dependent widths other
// than a JR whose out-of-range displacement is an assembling error, not
// a width change), so Encode is also authoritative for instruction size.
func Encode(mnemonic string, ops []Operand, resolve Resolver) ([]byte, error) {
	m := strings.ToUpper(mnemonic)
	if fn, ok := encoders[m]; ok {
		return fn(ops, resolve)
	}
	return nil, fmt.Errorf("unknown mnemonic %q", mnemonic)
}

type encodeFunc func(ops []Operand, resolve Resolver) ([]byte, error)

var encoders map[string]encodeFunc

func init() {
	encoders = map[string]encodeFunc{
		"NOP":  fixed(0x00),
		"HALT": fixed(0x76),
		"DI":   fixed(0xF3),
		"EI":   fixed(0xFB),
		"EXX":  fixed(0xD9),
		"RLCA": fixed(0x07),
		"RRCA": fixed(0x0F),
		"RLA":  fixed(0x17),
		"RRA":  fixed(0x1F),
		"DAA":  fixed(0x27),
		"CPL":  fixed(0x2F),
		"SCF":  fixed(0x37),
		"CCF":  fixed(0x3F),
		"RET":  encRet,
		"RETI": fixed2(0xED, 0x4D),
		"RETN": fixed2(0xED, 0x45),

		"LD":  encLD,
		"PUSH": encPush,
		"POP":  encPop,
		"INC":  encIncDec(0),
		"DEC":  encIncDec(1),
		"ADD":  encAlu("ADD", 0),
		"ADC":  encAlu("ADC", 1),
		"SUB":  encAlu("SUB", 2),
		"SBC":  encAlu("SBC", 3),
		"AND":  encAluSimple(4),
		"XOR":  encAluSimple(5),
		"OR":   encAluSimple(6),
		"CP":   encAluSimple(7),
		"EX":   encEx,
		"JP":   encJP,
		"JR":   encJR,
		"CALL": encCall,
		"DJNZ": encDJNZ,
		"IN":   encIN,
		"OUT":  encOUT,
		"RST":  encRST,
		"IM":   encIM,

		"RLC": encRot(0),
		"RRC": encRot(1),
		"RL":  encRot(2),
		"RR":  encRot(3),
		"SLA": encRot(4),
		"SRA": encRot(5),
		"SLL": encRot(6),
		"SRL": encRot(7),
		"BIT": encBitOp(0x40),
		"RES": encBitOp(0x80),
		"SET": encBitOp(0xC0),

		"NEG":  fixed2(0xED, 0x44),
		"RRD":  fixed2(0xED, 0x67),
		"RLD":  fixed2(0xED, 0x6F),
		"LDI":  fixed2(0xED, 0xA0),
		"CPI":  fixed2(0xED, 0xA1),
		"INI":  fixed2(0xED, 0xA2),
		"OUTI": fixed2(0xED, 0xA3),
		"LDD":  fixed2(0xED, 0xA8),
		"CPD":  fixed2(0xED, 0xA9),
		"IND":  fixed2(0xED, 0xAA),
		"OUTD": fixed2(0xED, 0xAB),
		"LDIR": fixed2(0xED, 0xB0),
		"CPIR": fixed2(0xED, 0xB1),
		"INIR": fixed2(0xED, 0xB2),
		"OTIR": fixed2(0xED, 0xB3),
		"LDDR": fixed2(0xED, 0xB8),
		"CPDR": fixed2(0xED, 0xB9),
		"INDR": fixed2(0xED, 0xBA),
		"OTDR": fixed2(0xED, 0xBB),
	}
}

func fixed(b byte) encodeFunc {
	return func(ops []Operand, _ Resolver) ([]byte, error) { return []byte{b}, nil }
}

func fixed2(a, b byte) encodeFunc {
	return func(ops []Operand, _ Resolver) ([]byte, error) { return []byte{a, b}, nil }
}

func encRet(ops []Operand, _ Resolver) ([]byte, error) {
	if len(ops) == 0 {
		return []byte{0xC9}, nil
	}
	cc, ok := condCodes[ops[0].Reg]
	if !ok {
		return nil, fmt.Errorf("RET: bad condition %q", ops[0].Reg)
	}
	return []byte{0xC0 | cc<<3}, nil
}

// indexedDisp resolves an Indexed operand's displacement byte, returning
// 0 (placeholder) when not yet resolvable.
func indexedDisp(o Operand, resolve Resolver) (byte, error) {
	v, _, err := resolve(o)
	if err != nil {
		return 0, err
	}
	return asByte(v), nil
}
