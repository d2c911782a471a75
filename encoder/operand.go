/*
 * basm - Z80 instruction operand shapes
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

// Package encoder implements the per-mnemonic Z80 instruction encoder:
// a dispatch table keyed by mnemonic whose entries validate the operand
// combination and emit the encoded bytes.
package encoder

import "github.com/cpcsdk/basm/expr"

// OperandKind tags an instruction operand's addressing mode. The
// listing reader classifies operands syntactically (a register name is
// never ambiguous with an expression); the engine resolves Val through
// expr.Eval before calling Encode.
type OperandKind int

const (
	KindNone OperandKind = iota
	KindReg
	KindIndirectReg // (HL), (BC), (DE), (SP), (C)
	KindIndexed     // (IX+d), (IY+d)
	KindImmediate
	KindIndirectImmediate // (nn)
	KindCond              // Z, NZ, C, NC, PO, PE, P, M
)

// Operand is one resolved or to-be-resolved instruction operand.
type Operand struct {
	Kind OperandKind
	Reg  string     // register/condition mnemonic, upper-cased ("A","HL","IX","NZ",...)
	Val  *expr.Node // immediate value, absolute address, or index displacement
}

func Reg(name string) Operand             { return Operand{Kind: KindReg, Reg: name} }
func IndirectReg(name string) Operand     { return Operand{Kind: KindIndirectReg, Reg: name} }
func Cond(name string) Operand            { return Operand{Kind: KindCond, Reg: name} }
func Immediate(v *expr.Node) Operand      { return Operand{Kind: KindImmediate, Val: v} }
func IndirectImm(v *expr.Node) Operand    { return Operand{Kind: KindIndirectImmediate, Val: v} }
func Indexed(reg string, disp *expr.Node) Operand {
	return Operand{Kind: KindIndexed, Reg: reg, Val: disp}
}
