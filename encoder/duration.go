/*
 * basm - approximate Z80 instruction timing table
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

import "strings"

// baseDuration holds the un-indexed, non-branch-sensitive T-state count
// for each mnemonic, measured at 4 MHz NMOS timings. It deliberately
// ignores addressing-mode/condition-taken variation (a handful of
// mnemonics cost a few cycles more with an indexed or met-condition
// operand); callers that need exact cycle accounting should consult the
// CPC's own timing tables instead. Used only by the `duration()`
// expression intrinsic, which is itself documented as an estimate.
var baseDuration = map[string]int{
	"NOP": 4, "HALT": 4, "DI": 4, "EI": 4, "EXX": 4,
	"RLCA": 4, "RRCA": 4, "RLA": 4, "RRA": 4, "DAA": 4, "CPL": 4, "SCF": 4, "CCF": 4,
	"RET": 10, "RETI": 14, "RETN": 14,
	"LD": 7, "PUSH": 11, "POP": 10,
	"INC": 4, "DEC": 4,
	"ADD": 4, "ADC": 4, "SUB": 4, "SBC": 4, "AND": 4, "XOR": 4, "OR": 4, "CP": 4,
	"EX": 4, "JP": 10, "JR": 12, "CALL": 17, "DJNZ": 13,
	"IN": 11, "OUT": 11, "RST": 11, "IM": 8,
	"RLC": 8, "RRC": 8, "RL": 8, "RR": 8, "SLA": 8, "SRA": 8, "SLL": 8, "SRL": 8,
	"BIT": 8, "RES": 8, "SET": 8,
	"NEG": 8, "RRD": 18, "RLD": 18,
	"LDI": 16, "CPI": 16, "INI": 16, "OUTI": 16,
	"LDD": 16, "CPD": 16, "IND": 16, "OUTD": 16,
	"LDIR": 21, "CPIR": 21, "INIR": 21, "OTIR": 21,
	"LDDR": 21, "CPDR": 21, "INDR": 21, "OTDR": 21,
}

// Duration returns the estimated T-state count for mnemonic, or false if
// it is not a recognised opcode.
func Duration(mnemonic string) (int, bool) {
	d, ok := baseDuration[strings.ToUpper(mnemonic)]
	return d, ok
}
