/*
 * basm - source lexer
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

// Package listing implements the thin recursive-descent source reader:
// it turns assembly source text into a token.Listing, handling comments,
// statement separators, expressions and macro body pre-tokenization.
// The engine depends only on the shape of the tokens it produces, never
// on the source text itself.
package listing

import (
	"strings"
	"unicode"
)

// LexKind tags a lexical token.
type LexKind int

const (
	LexEOF LexKind = iota
	LexIdent
	LexNumber
	LexString
	LexChar
	LexOp
	LexLParen
	LexRParen
	LexLBracket
	LexRBracket
	LexComma
	LexColon
	LexNewline
	LexDollar // current address, `$`
)

// Lex is one lexical token with its source position.
type Lex struct {
	Kind LexKind
	Text string
	Line int
	Col  int
}

// Lexer tokenizes one file's contents. It strips comments (`;` line
// comments and `/* */` block comments) and reports `:` as a statement
// separator rather than folding it into identifiers.
type Lexer struct {
	src   []rune
	pos   int
	line  int
	col   int
	toks  []Lex
}

func NewLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

// Lex tokenizes the entire source, returning the list of Lex tokens
// terminated by a LexEOF.
func (l *Lexer) Lex() []Lex {
	for l.pos < len(l.src) {
		r := l.peek()
		switch {
		case r == '\n':
			line, col := l.line, l.col
			l.advance()
			l.emit(LexNewline, "\n", line, col)
		case r == ' ' || r == '\t' || r == '\r':
			l.advance()
		case r == ';':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		case r == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			for l.pos < len(l.src) && !(l.peek() == '*' && l.peekAt(1) == '/') {
				l.advance()
			}
			if l.pos < len(l.src) {
				l.advance()
				l.advance()
			}
		case r == '"':
			l.lexString()
		case r == '\'':
			l.lexChar()
		case r == '$' && !isIdentStart(l.peekAt(1)):
			line, col := l.line, l.col
			l.advance()
			l.emit(LexDollar, "$", line, col)
		case r == '%' && isBinDigit(l.peekAt(1)):
			l.lexNumber()
		case r == '&' && isHexDigit(l.peekAt(1)):
			l.lexNumber()
		case unicode.IsDigit(r):
			l.lexNumber()
		case isIdentStart(r):
			l.lexIdent()
		case r == '(':
			line, col := l.line, l.col
			l.advance()
			l.emit(LexLParen, "(", line, col)
		case r == ')':
			line, col := l.line, l.col
			l.advance()
			l.emit(LexRParen, ")", line, col)
		case r == '[':
			line, col := l.line, l.col
			l.advance()
			l.emit(LexLBracket, "[", line, col)
		case r == ']':
			line, col := l.line, l.col
			l.advance()
			l.emit(LexRBracket, "]", line, col)
		case r == ',':
			line, col := l.line, l.col
			l.advance()
			l.emit(LexComma, ",", line, col)
		case r == ':':
			line, col := l.line, l.col
			l.advance()
			l.emit(LexColon, ":", line, col)
		default:
			l.lexOperator()
		}
	}
	l.emit(LexEOF, "", l.line, l.col)
	return l.toks
}

func (l *Lexer) emit(kind LexKind, text string, line, col int) {
	l.toks = append(l.toks, Lex{Kind: kind, Text: text, Line: line, Col: col})
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '.'
}

func isIdentCont(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '\''
}

func isHexDigit(r rune) bool {
	return unicode.IsDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isBinDigit(r rune) bool { return r == '0' || r == '1' }

func (l *Lexer) lexIdent() {
	line, col := l.line, l.col
	var b strings.Builder
	for l.pos < len(l.src) && isIdentCont(l.peek()) {
		b.WriteRune(l.advance())
	}
	l.emit(LexIdent, b.String(), line, col)
}

func (l *Lexer) lexNumber() {
	line, col := l.line, l.col
	var b strings.Builder
	if l.peek() == '%' || l.peek() == '&' {
		b.WriteRune(l.advance())
	}
	for l.pos < len(l.src) && (isHexDigit(l.peek()) || l.peek() == '.' || l.peek() == 'x' || l.peek() == 'h' || l.peek() == 'H') {
		b.WriteRune(l.advance())
	}
	l.emit(LexNumber, b.String(), line, col)
}

func (l *Lexer) lexString() {
	line, col := l.line, l.col
	l.advance()
	var b strings.Builder
	for l.pos < len(l.src) && l.peek() != '"' {
		if l.peek() == '\\' && l.pos+1 < len(l.src) {
			l.advance()
			b.WriteRune(unescape(l.advance()))
			continue
		}
		b.WriteRune(l.advance())
	}
	if l.pos < len(l.src) {
		l.advance()
	}
	l.emit(LexString, b.String(), line, col)
}

func (l *Lexer) lexChar() {
	line, col := l.line, l.col
	l.advance()
	var b strings.Builder
	for l.pos < len(l.src) && l.peek() != '\'' {
		if l.peek() == '\\' && l.pos+1 < len(l.src) {
			l.advance()
			b.WriteRune(unescape(l.advance()))
			continue
		}
		b.WriteRune(l.advance())
	}
	if l.pos < len(l.src) {
		l.advance()
	}
	l.emit(LexChar, b.String(), line, col)
}

func unescape(r rune) rune {
	switch r {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return r
	}
}

var multiCharOps = []string{"<<", ">>", "<=", ">=", "==", "!=", "&&", "||", "**"}

func (l *Lexer) lexOperator() {
	line, col := l.line, l.col
	for _, op := range multiCharOps {
		if l.hasPrefix(op) {
			for range op {
				l.advance()
			}
			l.emit(LexOp, op, line, col)
			return
		}
	}
	r := l.advance()
	l.emit(LexOp, string(r), line, col)
}

func (l *Lexer) hasPrefix(s string) bool {
	for i, r := range s {
		if l.peekAt(i) != r {
			return false
		}
	}
	return true
}
