/*
 * basm - macro body pre-tokenization and expansion
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
	"github.com/cpcsdk/basm/expr"
	"github.com/cpcsdk/basm/token"
)

// Segment is one pre-tokenized body token, already fully parsed at
// declaration time so a call never reparses the body text. Parameter
// references live inside its expression trees as ordinary Sym nodes;
// Expand substitutes those
// against the call's arguments directly over the AST rather than by
// rewriting source text, so an argument containing operators or nested
// calls never needs reparsing.
type Segment struct {
	Lit token.Located
}

// Pretokenize wraps a macro's declared body as the segment list the
// engine replays for every invocation.
func Pretokenize(body []token.Located) []Segment {
	segs := make([]Segment, 0, len(body))
	for _, loc := range body {
		segs = append(segs, Segment{Lit: loc})
	}
	return segs
}

// Expand substitutes args (by formal-parameter position, falling back
// to each parameter's Default when an argument slot is omitted) into
// every expression reachable from segs, returning a fresh located
// listing ready for the engine to visit in a new scope.
func Expand(segs []Segment, params []token.MacroParam, args []token.MacroCallArg) []token.Located {
	paramIndex := make(map[string]int, len(params))
	for i, p := range params {
		paramIndex[p.Name] = i
	}
	argExprs := make([]*expr.Node, len(params))
	for i, p := range params {
		if i < len(args) && args[i].Expr != nil {
			argExprs[i] = args[i].Expr
		} else if i < len(args) && args[i].IsList {
			argExprs[i] = expr.NewList(args[i].ListVals)
		} else if p.Default != nil {
			argExprs[i] = p.Default
		}
	}

	out := make([]token.Located, 0, len(segs))
	for _, s := range segs {
		loc := s.Lit
		loc.Tok = substituteToken(loc.Tok, paramIndex, argExprs)
		out = append(out, loc)
	}
	return out
}

func substituteToken(t token.Token, idx map[string]int, args []*expr.Node) token.Token {
	t.Expr = substituteExpr(t.Expr, idx, args)
	t.Expr2 = substituteExpr(t.Expr2, idx, args)
	t.Count = substituteExpr(t.Count, idx, args)
	t.Offset = substituteExpr(t.Offset, idx, args)
	t.Length = substituteExpr(t.Length, idx, args)
	t.Until = substituteExpr(t.Until, idx, args)
	t.CountExpr = substituteExpr(t.CountExpr, idx, args)
	t.ForStart = substituteExpr(t.ForStart, idx, args)
	t.ForEnd = substituteExpr(t.ForEnd, idx, args)
	t.ForStep = substituteExpr(t.ForStep, idx, args)
	t.AssertExpr = substituteExpr(t.AssertExpr, idx, args)
	t.ProtectHi = substituteExpr(t.ProtectHi, idx, args)
	t.Filler = substituteExpr(t.Filler, idx, args)
	t.Exprs = substituteExprSlice(t.Exprs, idx, args)
	t.PrintArgs = substituteExprSlice(t.PrintArgs, idx, args)
	t.AssertArgs = substituteExprSlice(t.AssertArgs, idx, args)
	t.Operands = append(t.Operands[:0:0], t.Operands...)
	t.Branches = append(t.Branches[:0:0], t.Branches...)
	for i := range t.Operands {
		t.Operands[i].Val = substituteExpr(t.Operands[i].Val, idx, args)
	}
	for bi := range t.Branches {
		t.Branches[bi].Cond = substituteExpr(t.Branches[bi].Cond, idx, args)
		t.Branches[bi].Body = substituteListing(t.Branches[bi].Body, idx, args)
	}
	t.Body = substituteListing(t.Body, idx, args)
	return t
}

// substituteListing recurses substituteToken over every statement nested
// inside a repeat/while/for body or an if/elif/else branch arm, so a
// parameter reference anywhere inside a macro's control-flow blocks is
// replaced, not just ones at the body's top level.
func substituteListing(in []token.Located, idx map[string]int, args []*expr.Node) []token.Located {
	if in == nil {
		return nil
	}
	out := make([]token.Located, len(in))
	for i, loc := range in {
		loc.Tok = substituteToken(loc.Tok, idx, args)
		out[i] = loc
	}
	return out
}

func substituteExprSlice(in []*expr.Node, idx map[string]int, args []*expr.Node) []*expr.Node {
	if in == nil {
		return nil
	}
	out := make([]*expr.Node, len(in))
	for i, e := range in {
		out[i] = substituteExpr(e, idx, args)
	}
	return out
}

// substituteExpr returns a new tree with every Sym node naming a formal
// parameter replaced by its bound argument expression.
func substituteExpr(n *expr.Node, idx map[string]int, args []*expr.Node) *expr.Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case expr.Sym:
		if i, ok := idx[n.Name]; ok && args[i] != nil {
			return args[i]
		}
		return n
	case expr.PrefixedSym, expr.Lit:
		return n
	case expr.BinOp:
		return expr.NewBin(n.Op, substituteExpr(n.L, idx, args), substituteExpr(n.R, idx, args))
	case expr.UnOp:
		return expr.NewUn(n.Op, substituteExpr(n.L, idx, args))
	case expr.Call:
		return expr.NewCall(n.Name, substituteExprSlice(n.Args, idx, args))
	case expr.ListCtor:
		return expr.NewList(substituteExprSlice(n.Args, idx, args))
	case expr.MatrixCtor:
		rows := make([][]*expr.Node, len(n.Rows))
		for i, row := range n.Rows {
			rows[i] = substituteExprSlice(row, idx, args)
		}
		return expr.NewMatrix(rows)
	case expr.IndexOp:
		return expr.NewIndex(substituteExpr(n.Base, idx, args), substituteExprSlice(n.Idx, idx, args))
	}
	return n
}
