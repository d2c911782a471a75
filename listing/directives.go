/*
 * basm - directive parsers
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

	"github.com/cpcsdk/basm/expr"
	"github.com/cpcsdk/basm/internal/asmerr"
	"github.com/cpcsdk/basm/token"
)

type directiveFunc func(r *Reader, span token.Span) (*token.Located, error)

// directiveParsers dispatches by lower-cased directive keyword: the
// first token of a statement selects its handler.
var directiveParsers map[string]directiveFunc

func init() {
	directiveParsers = map[string]directiveFunc{
		"let":        parseLet,
		"org":        parseOrg,
		"rorg":       parseRorg,
		"db":         parseDefb,
		"defb":       parseDefb,
		"dw":         parseDefw,
		"defw":       parseDefw,
		"ds":         parseDefs,
		"defs":       parseDefs,
		"defr":       parseDefr,
		"include":    parseInclude,
		"incbin":     parseIncbin,
		"if":         parseIf,
		"repeat":     parseRepeat,
		"while":      parseWhile,
		"for":        parseFor,
		"break":      simple(token.KindBreak),
		"continue":   simple(token.KindContinue),
		"macro":      parseMacroDecl,
		"struct":     parseStructDecl,
		"module":     parseModule,
		"endmodule":  simple(token.KindEndModule),
		"save":       parseSave,
		"print":      parsePrint,
		"pause":      simple(token.KindPause),
		"assert":     parseAssert,
		"limit":      parseLimit,
		"protect":    parseProtect,
		"bankset":    parseBankset,
		"bank":       parseBank,
		"page":       parsePage,
		"section":    parseSection,
		"breakpoint": parseBreakpoint,
		"align":      parseAlign,
		"run":        parseRun,
	}
}

func simple(kind token.Kind) directiveFunc {
	return func(r *Reader, span token.Span) (*token.Located, error) {
		return &token.Located{Span: span, Tok: token.Token{Kind: kind}}, nil
	}
}

// Equ and Set appear only as `name equ expr` / `name set expr`, handled
// directly by readStatement before it consults directiveParsers; `let`
// uses its own `let name = expr` keyword-first spelling, so it keeps an
// entry here.
func parseLet(r *Reader, span token.Span) (*token.Located, error) {
	name := r.cur().Text
	r.advance()
	if r.cur().Kind == LexOp && r.cur().Text == "=" {
		r.advance()
	}
	e, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindLet, Name: name, Expr: e}}, nil
}

func parseOrg(r *Reader, span token.Span) (*token.Located, error) {
	e, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	tok := token.Token{Kind: token.KindOrg, Expr: e}
	if r.cur().Kind == LexComma {
		r.advance()
		e2, err := r.parseExpr()
		if err != nil {
			return nil, err
		}
		tok.Expr2 = e2
	}
	return &token.Located{Span: span, Tok: tok}, nil
}

func parseRorg(r *Reader, span token.Span) (*token.Located, error) {
	e, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindRorg, Expr: e}}, nil
}

func parseExprList(r *Reader) ([]*expr.Node, error) {
	var out []*expr.Node
	for {
		e, err := r.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if r.cur().Kind == LexComma {
			r.advance()
			continue
		}
		break
	}
	return out, nil
}

func parseDefb(r *Reader, span token.Span) (*token.Located, error) {
	exprs, err := parseExprList(r)
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindDefb, Exprs: exprs}}, nil
}

func parseDefw(r *Reader, span token.Span) (*token.Located, error) {
	exprs, err := parseExprList(r)
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindDefw, Exprs: exprs}}, nil
}

func parseDefs(r *Reader, span token.Span) (*token.Located, error) {
	count, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	tok := token.Token{Kind: token.KindDefs, Count: count}
	if r.cur().Kind == LexComma {
		r.advance()
		filler, err := r.parseExpr()
		if err != nil {
			return nil, err
		}
		tok.Exprs = []*expr.Node{filler}
	}
	return &token.Located{Span: span, Tok: tok}, nil
}

func parseDefr(r *Reader, span token.Span) (*token.Located, error) {
	exprs, err := parseExprList(r)
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindDefr, Exprs: exprs}}, nil
}

func parsePathLiteral(r *Reader) string {
	if r.cur().Kind == LexString {
		p := r.cur().Text
		r.advance()
		return p
	}
	// bareword path (no quotes)
	var b strings.Builder
	for !r.atStatementEnd() && r.cur().Kind != LexComma {
		b.WriteString(r.cur().Text)
		r.advance()
	}
	return b.String()
}

func parseInclude(r *Reader, span token.Span) (*token.Located, error) {
	path := parsePathLiteral(r)
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindInclude, Path: path}}, nil
}

func parseIncbin(r *Reader, span token.Span) (*token.Located, error) {
	path := parsePathLiteral(r)
	tok := token.Token{Kind: token.KindIncbin, Path: path}
	if r.cur().Kind == LexComma {
		r.advance()
		e, err := r.parseExpr()
		if err != nil {
			return nil, err
		}
		tok.Offset = e
	}
	if r.cur().Kind == LexComma {
		r.advance()
		e, err := r.parseExpr()
		if err != nil {
			return nil, err
		}
		tok.Length = e
	}
	return &token.Located{Span: span, Tok: tok}, nil
}

// parseBlockUntil reads statements until a directive keyword in
// terminators is seen (consumed), returning the collected body.
func (r *Reader) parseBlockUntil(terminators ...string) ([]token.Located, string, error) {
	var body []token.Located
	for {
		r.skipSeparators()
		if r.cur().Kind == LexEOF {
			return body, "", asmerr.New(r.span(), asmerr.ErrParse, "unexpected end of file, expected one of %v", terminators)
		}
		if r.cur().Kind == LexIdent {
			low := strings.ToLower(r.cur().Text)
			for _, t := range terminators {
				if low == t {
					r.advance()
					return body, low, nil
				}
			}
		}
		loc, err := r.readStatement()
		if err != nil {
			return nil, "", err
		}
		if loc != nil {
			body = append(body, *loc)
		}
	}
}

func parseIf(r *Reader, span token.Span) (*token.Located, error) {
	var branches []token.Branch
	cond, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	for {
		body, term, err := r.parseBlockUntil("elif", "else", "endif")
		if err != nil {
			return nil, err
		}
		branches = append(branches, token.Branch{Cond: cond, Body: body})
		switch term {
		case "elif":
			cond, err = r.parseExpr()
			if err != nil {
				return nil, err
			}
			continue
		case "else":
			body, _, err := r.parseBlockUntil("endif")
			if err != nil {
				return nil, err
			}
			branches = append(branches, token.Branch{Cond: nil, Body: body})
		}
		break
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindIf, Branches: branches}}, nil
}

func parseRepeat(r *Reader, span token.Span) (*token.Located, error) {
	count, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	tok := token.Token{Kind: token.KindRepeat, CountExpr: count, IterName: "REPEAT_COUNT"}
	body, term, err := r.parseBlockUntil("endr", "until")
	if err != nil {
		return nil, err
	}
	tok.Body = body
	if term == "until" {
		until, err := r.parseExpr()
		if err != nil {
			return nil, err
		}
		tok.Until = until
	}
	return &token.Located{Span: span, Tok: tok}, nil
}

func parseWhile(r *Reader, span token.Span) (*token.Located, error) {
	cond, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	body, _, err := r.parseBlockUntil("endw", "wend")
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindWhile, Expr: cond, Body: body}}, nil
}

func parseFor(r *Reader, span token.Span) (*token.Located, error) {
	name := r.cur().Text
	r.advance()
	if r.cur().Kind == LexOp && r.cur().Text == "=" {
		r.advance()
	}
	start, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	if r.cur().Kind == LexIdent && strings.EqualFold(r.cur().Text, "to") {
		r.advance()
	}
	end, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	tok := token.Token{Kind: token.KindFor, IterName: name, ForStart: start, ForEnd: end}
	if r.cur().Kind == LexIdent && strings.EqualFold(r.cur().Text, "step") {
		r.advance()
		step, err := r.parseExpr()
		if err != nil {
			return nil, err
		}
		tok.ForStep = step
	}
	body, _, err := r.parseBlockUntil("endfor", "next")
	if err != nil {
		return nil, err
	}
	tok.Body = body
	return &token.Located{Span: span, Tok: tok}, nil
}

func parseMacroDecl(r *Reader, span token.Span) (*token.Located, error) {
	name := r.cur().Text
	r.advance()
	var params []token.MacroParam
	for r.cur().Kind == LexIdent {
		p := token.MacroParam{Name: r.cur().Text}
		r.advance()
		if r.cur().Kind == LexOp && r.cur().Text == "=" {
			r.advance()
			def, err := r.parseExpr()
			if err != nil {
				return nil, err
			}
			p.Default = def
		}
		params = append(params, p)
		if r.cur().Kind == LexComma {
			r.advance()
			continue
		}
		break
	}
	body, _, err := r.parseBlockUntil("endm")
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindMacroDecl, Name: name, Params: params, Body: body}}, nil
}

func parseStructDecl(r *Reader, span token.Span) (*token.Located, error) {
	name := r.cur().Text
	r.advance()
	var fields []token.StructField
	for {
		r.skipSeparators()
		if r.cur().Kind == LexIdent && strings.EqualFold(r.cur().Text, "endstruct") {
			r.advance()
			break
		}
		if r.cur().Kind != LexIdent {
			return nil, asmerr.New(r.span(), asmerr.ErrParse, "expected field name in struct %s", name)
		}
		fname := r.cur().Text
		r.advance()
		if r.cur().Kind != LexIdent {
			return nil, asmerr.New(r.span(), asmerr.ErrParse, "expected field kind (db/dw/ds/dd) in struct %s", name)
		}
		kind := strings.ToLower(r.cur().Text)
		r.advance()
		field := token.StructField{Name: fname, Kind: kind}
		if kind == "ds" {
			sz, err := r.parseExpr()
			if err != nil {
				return nil, err
			}
			field.Size = sz
		}
		fields = append(fields, field)
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindStructDecl, Name: name, Fields: fields}}, nil
}

func parseModule(r *Reader, span token.Span) (*token.Located, error) {
	name := r.cur().Text
	r.advance()
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindModule, Name: name}}, nil
}

func parseSave(r *Reader, span token.Span) (*token.Located, error) {
	lo, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	if r.cur().Kind == LexComma {
		r.advance()
	}
	hi, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	if r.cur().Kind == LexIdent && strings.EqualFold(r.cur().Text, "to") {
		r.advance()
	}
	if r.cur().Kind == LexComma {
		r.advance()
	}
	path := parsePathLiteral(r)
	tok := token.Token{Kind: token.KindSave, Range: [2]*expr.Node{lo, hi}, Path: path, SaveAs: "binary"}
	for r.cur().Kind == LexComma {
		r.advance()
		if r.cur().Kind == LexIdent {
			tok.SaveAs = strings.ToLower(r.cur().Text)
			r.advance()
		}
	}
	return &token.Located{Span: span, Tok: tok}, nil
}

func parsePrint(r *Reader, span token.Span) (*token.Located, error) {
	args, err := parseExprList(r)
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindPrint, PrintArgs: args}}, nil
}

func parseAssert(r *Reader, span token.Span) (*token.Located, error) {
	e, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	tok := token.Token{Kind: token.KindAssert, AssertExpr: e}
	if r.cur().Kind == LexComma {
		r.advance()
		if r.cur().Kind == LexString {
			tok.AssertFmt = r.cur().Text
			r.advance()
		}
		for r.cur().Kind == LexComma {
			r.advance()
			arg, err := r.parseExpr()
			if err != nil {
				return nil, err
			}
			tok.AssertArgs = append(tok.AssertArgs, arg)
		}
	}
	return &token.Located{Span: span, Tok: tok}, nil
}

func parseLimit(r *Reader, span token.Span) (*token.Located, error) {
	e, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindLimit, Expr: e}}, nil
}

func parseProtect(r *Reader, span token.Span) (*token.Located, error) {
	lo, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	if r.cur().Kind == LexComma {
		r.advance()
	}
	hi, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindProtect, Expr: lo, ProtectHi: hi}}, nil
}

func parseBankset(r *Reader, span token.Span) (*token.Located, error) {
	e, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindBankset, Expr: e}}, nil
}

func parseBank(r *Reader, span token.Span) (*token.Located, error) {
	e, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindBank, Expr: e}}, nil
}

func parsePage(r *Reader, span token.Span) (*token.Located, error) {
	e, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindPage, Expr: e}}, nil
}

func parseSection(r *Reader, span token.Span) (*token.Located, error) {
	name := r.cur().Text
	r.advance()
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindSection, Name: name}}, nil
}

func parseBreakpoint(r *Reader, span token.Span) (*token.Located, error) {
	tok := token.Token{Kind: token.KindBreakpoint}
	if !r.atStatementEnd() {
		e, err := r.parseExpr()
		if err != nil {
			return nil, err
		}
		tok.Expr = e
	}
	return &token.Located{Span: span, Tok: tok}, nil
}

// parseRun handles the legacy `run <addr>` pseudo-op that sets the
// snapshot's entry program counter, kept from original_source/ since
// scenario 4 of the engine's testable properties exercises it.
func parseRun(r *Reader, span token.Span) (*token.Located, error) {
	e, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	return &token.Located{Span: span, Tok: token.Token{Kind: token.KindRun, Expr: e}}, nil
}

func parseAlign(r *Reader, span token.Span) (*token.Located, error) {
	n, err := r.parseExpr()
	if err != nil {
		return nil, err
	}
	tok := token.Token{Kind: token.KindAlign, Expr: n}
	if r.cur().Kind == LexComma {
		r.advance()
		filler, err := r.parseExpr()
		if err != nil {
			return nil, err
		}
		tok.Filler = filler
	}
	return &token.Located{Span: span, Tok: tok}, nil
}
