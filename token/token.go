/*
 * basm - located token model
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

// Package token defines the located-token model the engine consumes: one
// instruction or directive plus its source span. Tokens are a single
// tagged struct (mirroring value.Value and expr.Node) rather than a type
// hierarchy per mnemonic/directive; only the fields relevant to Kind are
// populated.
package token

import (
	"fmt"

	"github.com/cpcsdk/basm/encoder"
	"github.com/cpcsdk/basm/expr"
)

// Span locates a token in its source file.
type Span struct {
	File string
	Line int
	Col  int
}

func (s Span) String() string {
	if s.File == "" {
		return "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Col)
}

// Kind tags a token's family.
type Kind int

const (
	KindOpcode Kind = iota
	KindLabel
	KindEqu
	KindSet
	KindLet
	KindOrg
	KindRorg
	KindDefb
	KindDefw
	KindDefs
	KindDefr
	KindInclude
	KindIncbin
	KindIf
	KindRepeat
	KindWhile
	KindFor
	KindBreak
	KindContinue
	KindMacroDecl
	KindMacroCall
	KindStructDecl
	KindStructCall
	KindModule
	KindEndModule
	KindSave
	KindPrint
	KindPause
	KindAssert
	KindLimit
	KindProtect
	KindBankset
	KindBank
	KindPage
	KindSection
	KindBreakpoint
	KindAlign
	KindRun
)

// Signal is returned alongside an error by the engine's token dispatcher
// and by the visitors that walk nested bodies (if/repeat/while/for/rorg)
// to carry break/continue control flow out of them without a
// host-language exception, per the "no panic/recover for control flow"
// design note.
type Signal int

const (
	SignalNone Signal = iota
	SignalBreak
	SignalContinue
)

// MacroParam describes one formal parameter of a macro/struct declaration.
type MacroParam struct {
	Name    string
	Default *expr.Node // nil if required
}

// StructField describes one field of a struct declaration.
type StructField struct {
	Name string
	Kind string // "db", "dw", "ds", "dd"
	Size *expr.Node // for "ds"
}

// Branch is one if/elif/else arm.
type Branch struct {
	Cond *expr.Node // nil for the trailing else
	Body []Located
}

// Token is the tagged token payload. Only fields relevant to Kind are
// meaningful; this mirrors the engine's general "tagged struct, no deep
// inheritance" convention.
type Token struct {
	Kind Kind

	// Opcode
	Mnemonic string
	Operands []encoder.Operand

	// Label / Equ / Set / Let / MacroDecl / StructDecl / Module / Bankset / Bank / Page / Section
	Name string
	Expr *expr.Node

	// Org: Expr = code address, Expr2 = optional separate output address
	Expr2 *expr.Node

	// Defb/Defw/Defs(filler)/Defr(tuple exprs)
	Exprs []*expr.Node

	// Defs: reserve count, filler
	Count *expr.Node

	// Include/Incbin
	Path   string
	Offset *expr.Node
	Length *expr.Node
	Repeat *expr.Node

	// If/Elif/Else chain
	Branches []Branch

	// Repeat/While/For bodies
	Body      []Located
	Until     *expr.Node // Repeat..Until condition, nil for bare "repeat n"
	CountExpr *expr.Node // Repeat n
	ForStart  *expr.Node
	ForEnd    *expr.Node
	ForStep   *expr.Node
	IterName  string // iteration variable / REPEAT_COUNT override

	// Macro/Struct declaration
	Params []MacroParam
	Fields []StructField

	// Macro/Struct invocation
	CallArgs []MacroCallArg

	// Save
	Range   [2]*expr.Node
	SaveAs  string // binary/amsdos/dsk/hfe/cpr/sna/tape
	Compress string

	// Print
	PrintArgs []*expr.Node

	// Assert
	AssertExpr  *expr.Node
	AssertFmt   string
	AssertArgs  []*expr.Node

	// Limit/Protect
	ProtectHi *expr.Node

	// Align
	Filler *expr.Node
}

// MacroCallArg is either a bare expression or, when the source supplied a
// bracketed tokenized fragment, a list literal built from sub-expressions.
type MacroCallArg struct {
	Expr     *expr.Node
	IsList   bool
	ListVals []*expr.Node
}

// Located pairs a Token with the span it came from.
type Located struct {
	Span Span
	Tok  Token
}

// Listing is a parsed, ordered sequence of located tokens: the engine's
// unit of "a file's worth of assembly".
type Listing []Located
