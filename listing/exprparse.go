/*
 * basm - expression parser
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
	"strconv"
	"strings"

	"github.com/cpcsdk/basm/expr"
	"github.com/cpcsdk/basm/internal/asmerr"
	"github.com/cpcsdk/basm/token"
	"github.com/cpcsdk/basm/value"
)

// exprParser walks a Lex slice with a precedence-climbing algorithm: a
// small, explicit per-construct switch with binding powers, rather than
// a generated parser.
type exprParser struct {
	toks []Lex
	pos  int
	file string
}

var precedence = map[string]int{
	"||": 1, "or": 1,
	"&&": 2, "and": 2,
	"|": 3,
	"^": 4,
	"&": 5,
	"==": 6, "!=": 6,
	"<": 7, "<=": 7, ">": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10, "mod": 10,
	"**": 11,
}

func (p *exprParser) cur() Lex { return p.toks[p.pos] }

func (p *exprParser) next() Lex {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *exprParser) atEnd() bool {
	k := p.cur().Kind
	return k == LexEOF || k == LexNewline || k == LexColon
}

func (p *exprParser) span() token.Span {
	c := p.cur()
	return token.Span{File: p.file, Line: c.Line, Col: c.Col}
}

// ParseExpr parses one expression from toks starting at *pos, advancing
// *pos past the consumed tokens.
func ParseExpr(toks []Lex, pos *int, file string) (*expr.Node, error) {
	p := &exprParser{toks: toks, pos: *pos, file: file}
	n, err := p.parseBin(0)
	*pos = p.pos
	return n, err
}

func (p *exprParser) parseBin(minPrec int) (*expr.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.opText()
		prec, ok := precedence[op]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.next()
		right, err := p.parseBin(prec + 1)
		if err != nil {
			return nil, err
		}
		left = expr.NewBin(op, left, right)
	}
}

func (p *exprParser) opText() string {
	c := p.cur()
	if c.Kind == LexOp {
		return c.Text
	}
	if c.Kind == LexIdent {
		low := strings.ToLower(c.Text)
		if low == "and" || low == "or" || low == "mod" {
			return low
		}
	}
	return ""
}

func (p *exprParser) parseUnary() (*expr.Node, error) {
	c := p.cur()
	if c.Kind == LexOp && (c.Text == "-" || c.Text == "~" || c.Text == "!" || c.Text == "<" || c.Text == ">") {
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.NewUn(c.Text, v), nil
	}
	if c.Kind == LexIdent && strings.ToLower(c.Text) == "not" {
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.NewUn("not", v), nil
	}
	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() (*expr.Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == LexLBracket {
		p.next()
		var idx []*expr.Node
		for {
			e, err := p.parseBin(0)
			if err != nil {
				return nil, err
			}
			idx = append(idx, e)
			if p.cur().Kind == LexComma {
				p.next()
				continue
			}
			break
		}
		if p.cur().Kind == LexRBracket {
			p.next()
		}
		n = expr.NewIndex(n, idx)
	}
	return n, nil
}

func (p *exprParser) parsePrimary() (*expr.Node, error) {
	c := p.cur()
	span := p.span()
	switch c.Kind {
	case LexNumber:
		p.next()
		v, err := parseNumberLiteral(c.Text)
		if err != nil {
			return nil, asmerr.Wrap(span, asmerr.ErrParse, err, "bad numeric literal %q", c.Text)
		}
		return expr.NewLit(v), nil
	case LexString:
		p.next()
		return expr.NewLit(value.NewString(c.Text)), nil
	case LexChar:
		p.next()
		r := []rune(c.Text)
		if len(r) == 0 {
			return expr.NewLit(value.NewInt(0)), nil
		}
		return expr.NewLit(value.NewChar(uint8(r[0]))), nil
	case LexDollar:
		p.next()
		return expr.NewSym("$"), nil
	case LexLParen:
		p.next()
		inner, err := p.parseBin(0)
		if err != nil {
			return nil, err
		}
		if p.cur().Kind == LexRParen {
			p.next()
		}
		return inner, nil
	case LexLBracket:
		p.next()
		var items []*expr.Node
		if p.cur().Kind != LexRBracket {
			for {
				e, err := p.parseBin(0)
				if err != nil {
					return nil, err
				}
				items = append(items, e)
				if p.cur().Kind == LexComma {
					p.next()
					continue
				}
				break
			}
		}
		if p.cur().Kind == LexRBracket {
			p.next()
		}
		return expr.NewList(items), nil
	case LexOp:
		if c.Text == "{" {
			return p.parsePrefixedSym()
		}
	case LexIdent:
		return p.parseIdentExpr()
	}
	return nil, asmerr.New(span, asmerr.ErrParse, "unexpected token %q in expression", c.Text)
}

// parsePrefixedSym parses the `{bank}symbol` / `{page}symbol` /
// `{pageset}symbol` label-location operators. The lexer reports `{` and
// `}` as single-character LexOp tokens since they are not identifier or
// bracket characters.
func (p *exprParser) parsePrefixedSym() (*expr.Node, error) {
	span := p.span()
	p.next() // consume "{"
	kw := p.cur()
	if kw.Kind != LexIdent {
		return nil, asmerr.New(span, asmerr.ErrParse, "expected bank/page/pageset after '{'")
	}
	p.next()
	var prefix expr.Prefix
	switch strings.ToLower(kw.Text) {
	case "bank":
		prefix = expr.PrefixBank
	case "page":
		prefix = expr.PrefixPage
	case "pageset":
		prefix = expr.PrefixPageset
	default:
		return nil, asmerr.New(span, asmerr.ErrParse, "unknown prefix operator %q", kw.Text)
	}
	if p.cur().Kind == LexOp && p.cur().Text == "}" {
		p.next()
	} else {
		return nil, asmerr.New(span, asmerr.ErrParse, "expected '}' after prefix operator")
	}
	name := p.cur()
	if name.Kind != LexIdent {
		return nil, asmerr.New(span, asmerr.ErrParse, "expected symbol name after prefix operator")
	}
	p.next()
	return expr.NewPrefixedSym(prefix, name.Text), nil
}

func (p *exprParser) parseIdentExpr() (*expr.Node, error) {
	c := p.next()
	name := c.Text
	if low := strings.ToLower(name); low == "true" {
		return expr.NewLit(value.NewBool(true)), nil
	} else if low == "false" {
		return expr.NewLit(value.NewBool(false)), nil
	}

	if p.cur().Kind == LexLParen {
		p.next()
		var args []*expr.Node
		if p.cur().Kind != LexRParen {
			for {
				e, err := p.parseBin(0)
				if err != nil {
					return nil, err
				}
				args = append(args, e)
				if p.cur().Kind == LexComma {
					p.next()
					continue
				}
				break
			}
		}
		if p.cur().Kind == LexRParen {
			p.next()
		}
		return expr.NewCall(name, args), nil
	}

	return expr.NewSym(name), nil
}

func parseNumberLiteral(text string) (value.Value, error) {
	switch {
	case strings.HasPrefix(text, "%"):
		n, err := strconv.ParseInt(text[1:], 2, 64)
		return value.NewInt(int32(n)), err
	case strings.HasPrefix(text, "&"):
		n, err := strconv.ParseInt(text[1:], 16, 64)
		return value.NewInt(int32(n)), err
	case strings.HasPrefix(strings.ToLower(text), "0x"):
		n, err := strconv.ParseInt(text[2:], 16, 64)
		return value.NewInt(int32(n)), err
	case strings.HasSuffix(strings.ToLower(text), "h"):
		n, err := strconv.ParseInt(text[:len(text)-1], 16, 64)
		return value.NewInt(int32(n)), err
	case strings.Contains(text, "."):
		f, err := strconv.ParseFloat(text, 64)
		return value.NewFloat(f), err
	default:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			// fall back to hex without marker (e.g. leading-digit hex like 0FFh already handled above)
			return value.Value{}, err
		}
		return value.NewInt(int32(n)), nil
	}
}
