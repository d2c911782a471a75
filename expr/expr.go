/*
 * basm - expression AST and evaluator
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

// Package expr implements the expression AST and its evaluator: literals,
// symbol references (including {bank}/{page}/{pageset} prefixed forms),
// binary/unary operators, function calls and list/matrix constructors.
package expr

import (
	"fmt"

	"github.com/cpcsdk/basm/value"
)

// NodeKind tags the variant of an expression node. Nodes are immutable
// once built by the listing reader.
type NodeKind int

const (
	Lit NodeKind = iota
	Sym
	PrefixedSym
	BinOp
	UnOp
	Call
	ListCtor
	MatrixCtor
	IndexOp
)

// Prefix identifies the {bank}/{page}/{pageset} label-prefix operators.
type Prefix int

const (
	PrefixNone Prefix = iota
	PrefixBank
	PrefixPage
	PrefixPageset
)

func (p Prefix) String() string {
	switch p {
	case PrefixBank:
		return "bank"
	case PrefixPage:
		return "page"
	case PrefixPageset:
		return "pageset"
	default:
		return ""
	}
}

// Node is a single expression tree node. Like Value, it is a tagged
// struct rather than a type hierarchy: only the fields relevant to Kind
// are populated.
type Node struct {
	Kind   NodeKind
	Lit    value.Value
	Name   string // Sym, PrefixedSym, Call
	Prefix Prefix // PrefixedSym
	Op     string // BinOp, UnOp
	L, R   *Node  // BinOp; UnOp uses L only
	Args   []*Node
	Rows   [][]*Node // MatrixCtor
	Base   *Node     // IndexOp
	Idx    []*Node   // IndexOp
}

func NewLit(v value.Value) *Node           { return &Node{Kind: Lit, Lit: v} }
func NewSym(name string) *Node             { return &Node{Kind: Sym, Name: name} }
func NewPrefixedSym(p Prefix, name string) *Node {
	return &Node{Kind: PrefixedSym, Prefix: p, Name: name}
}
func NewBin(op string, l, r *Node) *Node { return &Node{Kind: BinOp, Op: op, L: l, R: r} }
func NewUn(op string, v *Node) *Node     { return &Node{Kind: UnOp, Op: op, L: v} }
func NewCall(name string, args []*Node) *Node {
	return &Node{Kind: Call, Name: name, Args: args}
}
func NewList(items []*Node) *Node { return &Node{Kind: ListCtor, Args: items} }
func NewMatrix(rows [][]*Node) *Node { return &Node{Kind: MatrixCtor, Rows: rows} }
func NewIndex(base *Node, idx []*Node) *Node {
	return &Node{Kind: IndexOp, Base: base, Idx: idx}
}

// Error wraps an evaluation failure (ExpressionError in spec terms).
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func errf(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// UnknownFunctionError is raised for Call nodes whose name is not a
// registered intrinsic or user function.
type UnknownFunctionError struct{ Name string }

func (e *UnknownFunctionError) Error() string { return "unknown function: " + e.Name }

// UndefinedSymbolError distinguishes a symbol lookup miss so the engine
// can tell "forward reference, try again next pass" from "undefined at
// the final pass, fatal".
type UndefinedSymbolError struct{ Name string }

func (e *UndefinedSymbolError) Error() string { return "undefined symbol: " + e.Name }

// Env is the minimal evaluation context an expression needs: symbol
// lookup, location lookup for prefixed references, and a function
// registry (intrinsics plus any user-defined functions).
type Env interface {
	LookupSymbol(name string) (value.Value, bool)
	LookupLocation(name string) (page, bank, pageset int, ok bool)
	CallFunction(name string, args []value.Value) (value.Value, error)
	CurrentAddress() int32 // `$`
}

// Eval evaluates n against env, returning a value.Value or an error. A
// *UndefinedSymbolError means "not yet resolvable"; the engine decides
// whether that is fatal based on which pass it is.
func Eval(n *Node, env Env) (value.Value, error) {
	if n == nil {
		return value.Value{}, errf("nil expression node")
	}
	switch n.Kind {
	case Lit:
		return n.Lit, nil

	case Sym:
		if n.Name == "$" {
			return value.NewInt(env.CurrentAddress()), nil
		}
		v, ok := env.LookupSymbol(n.Name)
		if !ok {
			return value.Value{}, &UndefinedSymbolError{Name: n.Name}
		}
		return v, nil

	case PrefixedSym:
		page, bank, pageset, ok := env.LookupLocation(n.Name)
		if !ok {
			return value.Value{}, errf("symbol %q is not located on any page/bank/pageset", n.Name)
		}
		switch n.Prefix {
		case PrefixBank:
			return value.NewInt(int32(bank)), nil
		case PrefixPage:
			return value.NewInt(int32(page)), nil
		case PrefixPageset:
			return value.NewInt(int32(pageset)), nil
		}
		return value.Value{}, errf("unknown prefix operator")

	case BinOp:
		return evalBin(n, env)

	case UnOp:
		return evalUn(n, env)

	case Call:
		return evalCall(n, env)

	case ListCtor:
		items := make([]value.Value, len(n.Args))
		for i, a := range n.Args {
			v, err := Eval(a, env)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.NewList(items), nil

	case MatrixCtor:
		return evalMatrix(n, env)

	case IndexOp:
		return evalIndex(n, env)
	}
	return value.Value{}, errf("unhandled expression node kind %d", n.Kind)
}

func evalBin(n *Node, env Env) (value.Value, error) {
	// short circuit and/or: never evaluate the right operand when the
	// left is decisive.
	if n.Op == "&&" || n.Op == "and" {
		l, err := Eval(n.L, env)
		if err != nil {
			return value.Value{}, err
		}
		if !l.Truthy() {
			return value.NewBool(false), nil
		}
		r, err := Eval(n.R, env)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(r.Truthy()), nil
	}
	if n.Op == "||" || n.Op == "or" {
		l, err := Eval(n.L, env)
		if err != nil {
			return value.Value{}, err
		}
		if l.Truthy() {
			return value.NewBool(true), nil
		}
		r, err := Eval(n.R, env)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(r.Truthy()), nil
	}

	l, err := Eval(n.L, env)
	if err != nil {
		return value.Value{}, err
	}
	r, err := Eval(n.R, env)
	if err != nil {
		return value.Value{}, err
	}
	switch n.Op {
	case "+":
		return value.Add(l, r)
	case "-":
		return value.Sub(l, r)
	case "*":
		return value.Mul(l, r)
	case "/":
		return value.Div(l, r)
	case "%", "mod":
		return value.Mod(l, r)
	case "**":
		return evalPow(l, r)
	case "&":
		return value.BitAnd(l, r)
	case "|":
		return value.BitOr(l, r)
	case "^":
		return value.BitXor(l, r)
	case "<<":
		return value.Shl(l, r)
	case ">>":
		return value.Shr(l, r)
	case "==":
		return value.Eq(l, r)
	case "!=":
		return value.Ne(l, r)
	case "<":
		return value.Lt(l, r)
	case "<=":
		return value.Le(l, r)
	case ">":
		return value.Gt(l, r)
	case ">=":
		return value.Ge(l, r)
	default:
		return value.Value{}, errf("unknown binary operator %q", n.Op)
	}
}

func evalPow(l, r value.Value) (value.Value, error) {
	base, err := l.ToFloat()
	if err != nil {
		return value.Value{}, err
	}
	exp, err := r.ToFloat()
	if err != nil {
		return value.Value{}, err
	}
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	if l.Kind() == value.Float || r.Kind() == value.Float || exp != float64(int(exp)) {
		return value.NewFloat(powFloat(base, exp)), nil
	}
	return value.NewInt(int32(result)), nil
}

func evalUn(n *Node, env Env) (value.Value, error) {
	v, err := Eval(n.L, env)
	if err != nil {
		return value.Value{}, err
	}
	switch n.Op {
	case "-":
		return value.Neg(v)
	case "~":
		return value.BitNot(v)
	case "!", "not":
		return value.Not(v), nil
	case "<": // low byte
		i, err := v.ToInt()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt(i & 0xFF), nil
	case ">": // high byte
		i, err := v.ToInt()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt((i >> 8) & 0xFF), nil
	default:
		return value.Value{}, errf("unknown unary operator %q", n.Op)
	}
}

func evalMatrix(n *Node, env Env) (value.Value, error) {
	if len(n.Rows) == 0 {
		return value.Value{}, errf("empty matrix constructor")
	}
	cols := len(n.Rows[0])
	m, err := value.NewMatrix(len(n.Rows), cols, value.NewInt(0))
	if err != nil {
		return value.Value{}, err
	}
	for y, row := range n.Rows {
		if len(row) != cols {
			return value.Value{}, &value.Error{Kind: value.InvalidSize, Message: "ragged matrix row"}
		}
		for x, cell := range row {
			v, err := Eval(cell, env)
			if err != nil {
				return value.Value{}, err
			}
			m, err = value.MatrixSet(m, value.NewInt(int32(y)), value.NewInt(int32(x)), v)
			if err != nil {
				return value.Value{}, err
			}
		}
	}
	return m, nil
}

func evalIndex(n *Node, env Env) (value.Value, error) {
	base, err := Eval(n.Base, env)
	if err != nil {
		return value.Value{}, err
	}
	if len(n.Idx) == 1 {
		idx, err := Eval(n.Idx[0], env)
		if err != nil {
			return value.Value{}, err
		}
		i, err := idx.ToInt()
		if err != nil {
			return value.Value{}, err
		}
		return value.Index(base, i)
	}
	if len(n.Idx) == 2 {
		y, err := Eval(n.Idx[0], env)
		if err != nil {
			return value.Value{}, err
		}
		x, err := Eval(n.Idx[1], env)
		if err != nil {
			return value.Value{}, err
		}
		return value.MatrixGet(base, y, x)
	}
	return value.Value{}, errf("index expects 1 or 2 subscripts")
}

func evalCall(n *Node, env Env) (value.Value, error) {
	args := make([]value.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a, env)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}
	if fn, ok := intrinsics[n.Name]; ok {
		return fn(args)
	}
	return env.CallFunction(n.Name, args)
}
