/*
 * basm - source reader tests
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

package listing

import (
	"testing"

	"github.com/cpcsdk/basm/encoder"
	"github.com/cpcsdk/basm/expr"
	"github.com/cpcsdk/basm/token"
	"github.com/cpcsdk/basm/value"
)

func mustRead(t *testing.T, src string) token.Listing {
	t.Helper()
	out, err := NewReader(src, "test.asm").Read()
	if err != nil {
		t.Fatalf("Read(%q): %v", src, err)
	}
	return out
}

func TestLexerSkipsCommentsAndTracksNewlines(t *testing.T) {
	toks := NewLexer("ld a,1 ; comment\n/* block */ nop\n").Lex()
	var kinds []LexKind
	for _, tk := range toks {
		kinds = append(kinds, tk.Kind)
	}
	want := []LexKind{LexIdent, LexIdent, LexComma, LexNumber, LexNewline, LexIdent, LexNewline, LexEOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(kinds), kinds, len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestLexerNumericLiterals(t *testing.T) {
	cases := map[string]int32{
		"%1010":  10,
		"&1F":    31,
		"0FFh":   255,
		"42":     42,
	}
	for src, want := range cases {
		toks := NewLexer(src).Lex()
		if toks[0].Kind != LexNumber {
			t.Fatalf("%q: expected LexNumber, got %v", src, toks[0].Kind)
		}
		v, err := parseNumberLiteral(toks[0].Text)
		if err != nil {
			t.Fatalf("%q: %v", src, err)
		}
		n, _ := v.ToInt()
		if n != want {
			t.Errorf("%q: got %d, want %d", src, n, want)
		}
	}
}

func TestReaderLabelAndOpcode(t *testing.T) {
	out := mustRead(t, "loop: ld a,1\n inc a\n jp nz,loop\n")
	if len(out) != 4 {
		t.Fatalf("got %d tokens, want 4: %+v", len(out), out)
	}
	if out[0].Tok.Kind != token.KindLabel || out[0].Tok.Name != "loop" {
		t.Fatalf("token 0: %+v", out[0].Tok)
	}
	if out[1].Tok.Kind != token.KindOpcode || out[1].Tok.Mnemonic != "ld" {
		t.Fatalf("token 1: %+v", out[1].Tok)
	}
	if len(out[1].Tok.Operands) != 2 {
		t.Fatalf("ld operands: %+v", out[1].Tok.Operands)
	}
	if out[1].Tok.Operands[0].Kind != encoder.KindReg || out[1].Tok.Operands[0].Reg != "A" {
		t.Fatalf("ld dest: %+v", out[1].Tok.Operands[0])
	}
	if out[3].Tok.Mnemonic != "jp" || out[3].Tok.Operands[0].Reg != "NZ" {
		t.Fatalf("jp nz: %+v", out[3].Tok)
	}
}

func TestReaderIndirectAndIndexedOperands(t *testing.T) {
	out := mustRead(t, "ld (hl),5\n ld a,(ix+3)\n ld (iy-2),b\n")
	ld1 := out[0].Tok
	if ld1.Operands[0].Kind != encoder.KindIndirectReg || ld1.Operands[0].Reg != "HL" {
		t.Fatalf("(hl) dest: %+v", ld1.Operands[0])
	}
	ld2 := out[1].Tok
	if ld2.Operands[1].Kind != encoder.KindIndexed || ld2.Operands[1].Reg != "IX" {
		t.Fatalf("(ix+3) src: %+v", ld2.Operands[1])
	}
	ld3 := out[2].Tok
	if ld3.Operands[0].Kind != encoder.KindIndexed || ld3.Operands[0].Reg != "IY" {
		t.Fatalf("(iy-2) dest: %+v", ld3.Operands[0])
	}
}

func TestReaderOrgAndDefbDefw(t *testing.T) {
	out := mustRead(t, "org &8000\n db 1,2,3\n dw &1234,&5678\n")
	if out[0].Tok.Kind != token.KindOrg {
		t.Fatalf("expected org, got %+v", out[0].Tok)
	}
	if out[1].Tok.Kind != token.KindDefb || len(out[1].Tok.Exprs) != 3 {
		t.Fatalf("defb: %+v", out[1].Tok)
	}
	if out[2].Tok.Kind != token.KindDefw || len(out[2].Tok.Exprs) != 2 {
		t.Fatalf("defw: %+v", out[2].Tok)
	}
}

func TestReaderIfElifElse(t *testing.T) {
	out := mustRead(t, "if 1\n nop\nelif 2\n nop\nelse\n nop\nendif\n")
	tok := out[0].Tok
	if tok.Kind != token.KindIf {
		t.Fatalf("expected if, got %+v", tok)
	}
	if len(tok.Branches) != 3 {
		t.Fatalf("expected 3 branches, got %d: %+v", len(tok.Branches), tok.Branches)
	}
	if tok.Branches[2].Cond != nil {
		t.Fatalf("trailing else should have nil condition, got %+v", tok.Branches[2].Cond)
	}
}

func TestReaderRepeatUntil(t *testing.T) {
	out := mustRead(t, "repeat 4\n nop\nendr\n")
	if out[0].Tok.Kind != token.KindRepeat || out[0].Tok.CountExpr == nil {
		t.Fatalf("repeat: %+v", out[0].Tok)
	}
	if len(out[0].Tok.Body) != 1 {
		t.Fatalf("repeat body: %+v", out[0].Tok.Body)
	}
}

func TestReaderPrefixedSymExpression(t *testing.T) {
	out := mustRead(t, "ld a,{bank}sprite_data\n")
	op := out[0].Tok.Operands[1]
	if op.Kind != encoder.KindImmediate || op.Val.Kind != expr.PrefixedSym {
		t.Fatalf("expected prefixed sym immediate, got %+v", op)
	}
	if op.Val.Prefix != expr.PrefixBank || op.Val.Name != "sprite_data" {
		t.Fatalf("prefix node: %+v", op.Val)
	}
}

func TestReaderMacroDecl(t *testing.T) {
	out := mustRead(t, "macro push_all reg=hl\n push reg\nendm\n")
	decl := out[0].Tok
	if decl.Kind != token.KindMacroDecl || decl.Name != "push_all" {
		t.Fatalf("macro decl: %+v", decl)
	}
	if len(decl.Params) != 1 || decl.Params[0].Name != "reg" || decl.Params[0].Default == nil {
		t.Fatalf("macro params: %+v", decl.Params)
	}
	if len(decl.Body) != 1 {
		t.Fatalf("macro body: %+v", decl.Body)
	}
}

func TestExprParserPrecedence(t *testing.T) {
	toks := NewLexer("1+2*3\n").Lex()
	pos := 0
	n, err := ParseExpr(toks, &pos, "test")
	if err != nil {
		t.Fatalf("ParseExpr: %v", err)
	}
	if n.Kind != expr.BinOp || n.Op != "+" {
		t.Fatalf("expected top-level '+', got %+v", n)
	}
	if n.R.Kind != expr.BinOp || n.R.Op != "*" {
		t.Fatalf("expected right operand '*', got %+v", n.R)
	}
}

func TestExprParserUnaryAndHighLowByte(t *testing.T) {
	toks := NewLexer(">label\n").Lex()
	pos := 0
	n, err := ParseExpr(toks, &pos, "test")
	if err != nil {
		t.Fatalf("ParseExpr: %v", err)
	}
	if n.Kind != expr.UnOp || n.Op != ">" {
		t.Fatalf("expected unary '>', got %+v", n)
	}
}

func TestMacroExpandSubstitutesArgument(t *testing.T) {
	body := []token.Located{
		{Tok: token.Token{
			Kind:     token.KindOpcode,
			Mnemonic: "push",
			Operands: []encoder.Operand{encoder.Immediate(expr.NewSym("reg"))},
		}},
	}
	params := []token.MacroParam{{Name: "reg", Default: expr.NewSym("hl")}}
	segs := Pretokenize(body)

	withArg := Expand(segs, params, []token.MacroCallArg{{Expr: expr.NewSym("bc")}})
	if withArg[0].Tok.Operands[0].Val.Name != "bc" {
		t.Fatalf("expected substituted 'bc', got %+v", withArg[0].Tok.Operands[0].Val)
	}

	withDefault := Expand(segs, params, nil)
	if withDefault[0].Tok.Operands[0].Val.Name != "hl" {
		t.Fatalf("expected default 'hl', got %+v", withDefault[0].Tok.Operands[0].Val)
	}
}

func TestMacroExpandSubstitutesInsideBinOp(t *testing.T) {
	body := []token.Located{
		{Tok: token.Token{
			Kind: token.KindDefb,
			Exprs: []*expr.Node{
				expr.NewBin("+", expr.NewSym("offset"), expr.NewLit(value.NewInt(1))),
			},
		}},
	}
	params := []token.MacroParam{{Name: "offset"}}
	segs := Pretokenize(body)
	out := Expand(segs, params, []token.MacroCallArg{{Expr: expr.NewLit(value.NewInt(10))}})
	got := out[0].Tok.Exprs[0]
	if got.Kind != expr.BinOp || got.L.Lit.Kind() != value.Int {
		t.Fatalf("expected substituted literal on left, got %+v", got.L)
	}
	n, _ := got.L.Lit.ToInt()
	if n != 10 {
		t.Fatalf("expected 10, got %d", n)
	}
}

func TestMacroExpandListArgument(t *testing.T) {
	body := []token.Located{
		{Tok: token.Token{Kind: token.KindDefb, Exprs: []*expr.Node{expr.NewSym("vals")}}},
	}
	params := []token.MacroParam{{Name: "vals"}}
	segs := Pretokenize(body)
	out := Expand(segs, params, []token.MacroCallArg{{
		IsList:   true,
		ListVals: []*expr.Node{expr.NewLit(value.NewInt(1)), expr.NewLit(value.NewInt(2))},
	}})
	got := out[0].Tok.Exprs[0]
	if got.Kind != expr.ListCtor || len(got.Args) != 2 {
		t.Fatalf("expected 2-item list, got %+v", got)
	}
}
