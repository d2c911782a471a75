/*
 * basm - statement reader
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
	"strings"

	"github.com/cpcsdk/basm/encoder"
	"github.com/cpcsdk/basm/expr"
	"github.com/cpcsdk/basm/internal/asmerr"
	"github.com/cpcsdk/basm/token"
)

// Reader turns one file's lexed tokens into a token.Listing. It never
// evaluates expressions itself (that is the engine's job across passes)
// — it only builds the AST and classifies opcode operands.
type Reader struct {
	toks []Lex
	pos  int
	file string
}

func NewReader(src, file string) *Reader {
	return &Reader{toks: NewLexer(src).Lex(), file: file}
}

func (r *Reader) cur() Lex  { return r.toks[r.pos] }
func (r *Reader) next() Lex { t := r.toks[r.pos]; r.advance(); return t }

func (r *Reader) advance() {
	if r.pos < len(r.toks)-1 {
		r.pos++
	}
}

func (r *Reader) span() token.Span {
	c := r.cur()
	return token.Span{File: r.file, Line: c.Line, Col: c.Col}
}

func (r *Reader) skipSeparators() {
	for r.cur().Kind == LexNewline || r.cur().Kind == LexColon {
		r.advance()
	}
}

func (r *Reader) parseExpr() (*expr.Node, error) {
	return ParseExpr(r.toks, &r.pos, r.file)
}

// Read parses the whole token stream into a Listing.
func (r *Reader) Read() (token.Listing, error) {
	var out token.Listing
	var errs asmerr.MultipleErrors
	for r.cur().Kind != LexEOF {
		r.skipSeparators()
		if r.cur().Kind == LexEOF {
			break
		}
		loc, err := r.readStatement()
		if err != nil {
			if d, ok := asmerr.AsDiagnostic(err); ok {
				errs.Add(d)
			} else {
				errs.Add(asmerr.Wrap(r.span(), asmerr.ErrParse, err, "%v", err))
			}
			r.skipToStatementEnd()
			continue
		}
		if loc != nil {
			out = append(out, *loc)
		}
	}
	if errs.HasErrors() {
		return out, &errs
	}
	return out, nil
}

func (r *Reader) skipToStatementEnd() {
	for r.cur().Kind != LexNewline && r.cur().Kind != LexColon && r.cur().Kind != LexEOF {
		r.advance()
	}
}

// readStatement parses one label/directive/opcode. A label followed by
// more statement content on the same logical line (e.g. `loop: ld a,1`)
// is returned on its own; the rest of the line is left for the next
// Read iteration.
func (r *Reader) readStatement() (*token.Located, error) {
	span := r.span()
	c := r.cur()

	if c.Kind == LexIdent && looksLikeLabel(c.Text, r.peekNext()) {
		r.advance()
		if r.cur().Kind == LexColon {
			r.advance()
		}
		return &token.Located{Span: span, Tok: token.Token{Kind: token.KindLabel, Name: c.Text}}, nil
	}

	if c.Kind != LexIdent {
		return nil, asmerr.New(span, asmerr.ErrParse, "expected statement, found %q", c.Text)
	}

	name := c.Text
	low := strings.ToLower(name)
	if fn, ok := directiveParsers[low]; ok {
		r.advance()
		return fn(r, span)
	}

	// name = expr / name equ expr / name set expr handled by peeking the
	// next token before falling through to an opcode.
	if r.peekNext().Kind == LexOp && r.peekNext().Text == "=" {
		r.advance() // name
		r.advance() // "="
		e, err := r.parseExpr()
		if err != nil {
			return nil, err
		}
		return &token.Located{Span: span, Tok: token.Token{Kind: token.KindSet, Name: name, Expr: e}}, nil
	}
	if r.peekNext().Kind == LexIdent {
		switch strings.ToLower(r.peekNext().Text) {
		case "equ":
			r.advance()
			r.advance()
			e, err := r.parseExpr()
			if err != nil {
				return nil, err
			}
			return &token.Located{Span: span, Tok: token.Token{Kind: token.KindEqu, Name: name, Expr: e}}, nil
		case "set":
			r.advance()
			r.advance()
			e, err := r.parseExpr()
			if err != nil {
				return nil, err
			}
			return &token.Located{Span: span, Tok: token.Token{Kind: token.KindSet, Name: name, Expr: e}}, nil
		}
	}

	return r.readOpcodeOrMacroCall(span, name)
}

func (r *Reader) peekNext() Lex {
	if r.pos+1 < len(r.toks) {
		return r.toks[r.pos+1]
	}
	return Lex{Kind: LexEOF}
}

// looksLikeLabel: an identifier starting a statement is a label when it
// is immediately followed by ':'; a local name (starting with '.') is
// also a label when it ends the statement (bare label line).
func looksLikeLabel(name string, nextTok Lex) bool {
	if strings.HasPrefix(name, ".") {
		return nextTok.Kind == LexColon || nextTok.Kind == LexNewline || nextTok.Kind == LexEOF
	}
	return nextTok.Kind == LexColon
}

func (r *Reader) readOpcodeOrMacroCall(span token.Span, name string) (*token.Located, error) {
	r.advance()
	ops, err := r.parseOperandList()
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindOpcode, Mnemonic: name, Operands: ops}}, nil
}

// knownRegisters classifies bare identifiers that denote a CPU register
// or condition code rather than a symbol reference, so the reader can
// build encoder.Operand values without the engine's symbol table.
var knownRegisters = map[string]bool{
	"A": true, "B": true, "C": true, "D": true, "E": true, "H": true, "L": true,
	"I": true, "R": true, "F": true,
	"BC": true, "DE": true, "HL": true, "SP": true, "AF": true, "AF'": true,
	"IX": true, "IY": true,
	"NZ": true, "Z": true, "NC": true, "PO": true, "PE": true, "P": true, "M": true,
}

func (r *Reader) parseOperandList() ([]encoder.Operand, error) {
	var ops []encoder.Operand
	if r.atStatementEnd() {
		return ops, nil
	}
	for {
		op, err := r.parseOperand()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		if r.cur().Kind == LexComma {
			r.advance()
			continue
		}
		break
	}
	return ops, nil
}

func (r *Reader) atStatementEnd() bool {
	k := r.cur().Kind
	return k == LexNewline || k == LexColon || k == LexEOF
}

func (r *Reader) parseOperand() (encoder.Operand, error) {
	if r.cur().Kind == LexLParen {
		return r.parseIndirectOperand()
	}
	// Condition codes (NZ, Z, NC, C, PO, PE, P, M) share spelling with
	// registers/flags in some slots ("C" is both a register and a
	// condition). The encoder only inspects Operand.Reg for condition
	// lookups, so tagging every such identifier KindReg is sufficient;
	// only JP/JR/CALL/RET consult condCodes, and no mnemonic is
	// ambiguous between "register C" and "condition C" in the same slot.
	if r.cur().Kind == LexIdent && knownRegisters[strings.ToUpper(r.cur().Text)] {
		name := strings.ToUpper(r.cur().Text)
		r.advance()
		if name == "AF" && r.cur().Kind == LexOp && r.cur().Text == "'" {
			r.advance()
			name = "AF'"
		}
		return encoder.Reg(name), nil
	}
	e, err := r.parseExpr()
	if err != nil {
		return encoder.Operand{}, err
	}
	return encoder.Immediate(e), nil
}

func (r *Reader) parseIndirectOperand() (encoder.Operand, error) {
	r.advance() // "("
	if r.cur().Kind == LexIdent && knownRegisters[strings.ToUpper(r.cur().Text)] {
		name := strings.ToUpper(r.cur().Text)
		r.advance()
		if (name == "IX" || name == "IY") && r.cur().Kind == LexOp && (r.cur().Text == "+" || r.cur().Text == "-") {
			sign := r.cur().Text
			r.advance()
			d, err := r.parseExpr()
			if err != nil {
				return encoder.Operand{}, err
			}
			if sign == "-" {
				d = expr.NewUn("-", d)
			}
			if r.cur().Kind == LexRParen {
				r.advance()
			}
			return encoder.Indexed(name, d), nil
		}
		if r.cur().Kind == LexRParen {
			r.advance()
		}
		return encoder.IndirectReg(name), nil
	}
	e, err := r.parseExpr()
	if err != nil {
		return encoder.Operand{}, err
	}
	if r.cur().Kind == LexRParen {
		r.advance()
	}
	return encoder.IndirectImm(e), nil
}
