/*
 * basm - tagged runtime value
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

// Package value implements the tagged runtime value used throughout the
// expression evaluator and symbol table: integers, booleans, floats,
// characters, strings, lists and matrices, with wrapping 32-bit integer
// arithmetic matching legacy CPC cross-assemblers.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value. A Value never changes kind
// after construction; every operation below returns a new Value.
type Kind int

const (
	Int Kind = iota
	Bool
	Float
	Char
	String
	List
	Matrix
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Float:
		return "float"
	case Char:
		return "char"
	case String:
		return "string"
	case List:
		return "list"
	case Matrix:
		return "matrix"
	default:
		return "unknown"
	}
}

// Value is an immutable tagged union. Only the field matching Kind is
// meaningful.
type Value struct {
	kind Kind
	i    int32
	b    bool
	f    float64
	c    uint8
	s    []byte
	list []Value
	mat  *matrix
}

type matrix struct {
	rows, cols int
	cells      []Value
}

// Constructors.

func NewInt(i int32) Value  { return Value{kind: Int, i: i} }
func NewBool(b bool) Value  { return Value{kind: Bool, b: b} }
func NewFloat(f float64) Value { return Value{kind: Float, f: f} }
func NewChar(c uint8) Value { return Value{kind: Char, c: c} }

func NewString(s string) Value {
	return Value{kind: String, s: []byte(s)}
}

func NewList(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: List, list: cp}
}

// NewMatrix builds an h x w matrix filled with v.
func NewMatrix(h, w int, v Value) (Value, error) {
	if h <= 0 || w <= 0 {
		return Value{}, &Error{Kind: InvalidSize, Message: "matrix dimensions must be positive"}
	}
	cells := make([]Value, h*w)
	for i := range cells {
		cells[i] = v
	}
	return Value{kind: Matrix, mat: &matrix{rows: h, cols: w, cells: cells}}, nil
}

// MatrixFromRows builds a matrix from list values, one per row; every
// row must have the same width.
func MatrixFromRows(rows []Value) (Value, error) {
	if len(rows) == 0 {
		return Value{}, &Error{Kind: InvalidSize, Message: "matrix needs at least one row"}
	}
	var cells []Value
	cols := -1
	for _, r := range rows {
		if r.kind != List {
			return Value{}, &Error{Kind: IncompatibleTypes, Message: "matrix row must be a list"}
		}
		if cols < 0 {
			cols = len(r.list)
		} else if len(r.list) != cols {
			return Value{}, &Error{Kind: InvalidSize, Message: "matrix rows differ in width"}
		}
		cells = append(cells, r.list...)
	}
	if cols <= 0 {
		return Value{}, &Error{Kind: InvalidSize, Message: "matrix rows must not be empty"}
	}
	return Value{kind: Matrix, mat: &matrix{rows: len(rows), cols: cols, cells: cells}}, nil
}

func (v Value) Kind() Kind { return v.kind }

// ErrorKind enumerates the kinds of errors Value operations can raise.
type ErrorKind int

const (
	DivisionByZero ErrorKind = iota
	IncompatibleTypes
	OverflowOnIntRange
	InvalidSize
	NotANumber
)

// Error is the error type raised by Value operations (ExpressionError in
// spec terms).
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func typeError(op string, a, b Value) error {
	return &Error{Kind: IncompatibleTypes, Message: fmt.Sprintf("incompatible types for %s: %s and %s", op, a.kind, b.kind)}
}

// ---- coercion helpers ----

// IsNumeric reports whether the value can participate in arithmetic
// (int, float or char; bool coerces via nonzero too).
func (v Value) IsNumeric() bool {
	switch v.kind {
	case Int, Float, Char, Bool:
		return true
	default:
		return false
	}
}

// ToInt converts v to a wrapped 32-bit integer.
func (v Value) ToInt() (int32, error) {
	switch v.kind {
	case Int:
		return v.i, nil
	case Bool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case Char:
		return int32(v.c), nil
	case Float:
		return int32(int64(v.f)), nil
	case String:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v.s)), 0, 64)
		if err != nil {
			return 0, &Error{Kind: NotANumber, Message: "cannot convert string to int: " + string(v.s)}
		}
		return int32(n), nil
	default:
		return 0, &Error{Kind: NotANumber, Message: "cannot convert " + v.kind.String() + " to int"}
	}
}

// ToFloat converts v to a float64.
func (v Value) ToFloat() (float64, error) {
	switch v.kind {
	case Float:
		return v.f, nil
	case Int:
		return float64(v.i), nil
	case Char:
		return float64(v.c), nil
	case Bool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, &Error{Kind: NotANumber, Message: "cannot convert " + v.kind.String() + " to float"}
	}
}

// Truthy reports the truthiness of v: nonzero int/float/char, true bool,
// non-empty string/list/matrix.
func (v Value) Truthy() bool {
	switch v.kind {
	case Bool:
		return v.b
	case Int:
		return v.i != 0
	case Float:
		return v.f != 0
	case Char:
		return v.c != 0
	case String:
		return len(v.s) > 0
	case List:
		return len(v.list) > 0
	case Matrix:
		return v.mat != nil && len(v.mat.cells) > 0
	}
	return false
}

// ToString renders v the way `hex$`/string concatenation expect.
func (v Value) ToString() string {
	switch v.kind {
	case String:
		return string(v.s)
	case Int:
		return strconv.FormatInt(int64(v.i), 10)
	case Float:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case Char:
		return string(rune(v.c))
	case List:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.ToString()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case Matrix:
		return fmt.Sprintf("matrix(%dx%d)", v.mat.rows, v.mat.cols)
	}
	return ""
}

func isFloaty(k Kind) bool { return k == Float }

// arithmetic dispatch: promote to float if either side is float, otherwise
// wrap as int32.
func numericOp(op string, a, b Value, iop func(int32, int32) (int32, error), fop func(float64, float64) float64) (Value, error) {
	if a.kind == String || b.kind == String {
		return Value{}, typeError(op, a, b)
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return Value{}, typeError(op, a, b)
	}
	if isFloaty(a.kind) || isFloaty(b.kind) {
		af, _ := a.ToFloat()
		bf, _ := b.ToFloat()
		return NewFloat(fop(af, bf)), nil
	}
	ai, _ := a.ToInt()
	bi, _ := b.ToInt()
	r, err := iop(ai, bi)
	if err != nil {
		return Value{}, err
	}
	return NewInt(r), nil
}

// Add implements `+`: numeric addition, list concatenation, string
// concatenation (with right-operand stringification).
func Add(a, b Value) (Value, error) {
	if a.kind == List && b.kind == List {
		out := make([]Value, 0, len(a.list)+len(b.list))
		out = append(out, a.list...)
		out = append(out, b.list...)
		return NewList(out), nil
	}
	if a.kind == String || b.kind == String {
		return NewString(a.ToString() + b.ToString()), nil
	}
	return numericOp("+", a, b,
		func(x, y int32) (int32, error) { return x + y, nil },
		func(x, y float64) float64 { return x + y })
}

func Sub(a, b Value) (Value, error) {
	return numericOp("-", a, b,
		func(x, y int32) (int32, error) { return x - y, nil },
		func(x, y float64) float64 { return x - y })
}

func Mul(a, b Value) (Value, error) {
	return numericOp("*", a, b,
		func(x, y int32) (int32, error) { return x * y, nil },
		func(x, y float64) float64 { return x * y })
}

func Div(a, b Value) (Value, error) {
	return numericOp("/", a, b,
		func(x, y int32) (int32, error) {
			if y == 0 {
				return 0, &Error{Kind: DivisionByZero, Message: "division by zero"}
			}
			return x / y, nil
		},
		func(x, y float64) float64 { return x / y })
}

func Mod(a, b Value) (Value, error) {
	return numericOp("%", a, b,
		func(x, y int32) (int32, error) {
			if y == 0 {
				return 0, &Error{Kind: DivisionByZero, Message: "division by zero"}
			}
			return x % y, nil
		},
		func(x, y float64) float64 { return math.Mod(x, y) })
}

func Neg(a Value) (Value, error) {
	if a.kind == Float {
		return NewFloat(-a.f), nil
	}
	i, err := a.ToInt()
	if err != nil {
		return Value{}, err
	}
	return NewInt(-i), nil
}

func Abs(a Value) (Value, error) {
	if a.kind == Float {
		return NewFloat(math.Abs(a.f)), nil
	}
	i, err := a.ToInt()
	if err != nil {
		return Value{}, err
	}
	if i < 0 {
		i = -i
	}
	return NewInt(i), nil
}

// bitwise ops always operate on wrapped 32-bit ints; a left shift by 32
// or more yields 0, a right shift count reduces mod 32.

func bitOp(op string, a, b Value, f func(uint32, uint32) uint32) (Value, error) {
	ai, err := a.ToInt()
	if err != nil {
		return Value{}, typeError(op, a, b)
	}
	bi, err := b.ToInt()
	if err != nil {
		return Value{}, typeError(op, a, b)
	}
	return NewInt(int32(f(uint32(ai), uint32(bi)))), nil
}

func BitAnd(a, b Value) (Value, error) {
	return bitOp("&", a, b, func(x, y uint32) uint32 { return x & y })
}

func BitOr(a, b Value) (Value, error) {
	return bitOp("|", a, b, func(x, y uint32) uint32 { return x | y })
}

func BitXor(a, b Value) (Value, error) {
	return bitOp("^", a, b, func(x, y uint32) uint32 { return x ^ y })
}

func BitNot(a Value) (Value, error) {
	i, err := a.ToInt()
	if err != nil {
		return Value{}, &Error{Kind: IncompatibleTypes, Message: "~ requires a numeric operand"}
	}
	return NewInt(int32(^uint32(i))), nil
}

func Shl(a, b Value) (Value, error) {
	return bitOp("<<", a, b, func(x, y uint32) uint32 { return x << y })
}

func Shr(a, b Value) (Value, error) {
	return bitOp(">>", a, b, func(x, y uint32) uint32 { return x >> (y % 32) })
}

// comparisons

func cmpNumeric(a, b Value) (int, error) {
	if isFloaty(a.kind) || isFloaty(b.kind) {
		af, err := a.ToFloat()
		if err != nil {
			return 0, err
		}
		bf, err := b.ToFloat()
		if err != nil {
			return 0, err
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	ai, err := a.ToInt()
	if err != nil {
		return 0, err
	}
	bi, err := b.ToInt()
	if err != nil {
		return 0, err
	}
	switch {
	case ai < bi:
		return -1, nil
	case ai > bi:
		return 1, nil
	default:
		return 0, nil
	}
}

// Eq implements `==`. Numeric kinds compare across type; strings compare
// byte-for-byte; heterogeneous non-numeric comparisons are an error.
func Eq(a, b Value) (Value, error) {
	if a.kind == String && b.kind == String {
		return NewBool(string(a.s) == string(b.s)), nil
	}
	if a.IsNumeric() && b.IsNumeric() {
		c, err := cmpNumeric(a, b)
		if err != nil {
			return Value{}, err
		}
		return NewBool(c == 0), nil
	}
	return Value{}, typeError("==", a, b)
}

func Ne(a, b Value) (Value, error) {
	v, err := Eq(a, b)
	if err != nil {
		return Value{}, err
	}
	return NewBool(!v.b), nil
}

func cmp(op string, a, b Value, test func(int) bool) (Value, error) {
	if a.kind == String && b.kind == String {
		c := strings.Compare(string(a.s), string(b.s))
		return NewBool(test(c)), nil
	}
	if !a.IsNumeric() || !b.IsNumeric() {
		return Value{}, typeError(op, a, b)
	}
	c, err := cmpNumeric(a, b)
	if err != nil {
		return Value{}, err
	}
	return NewBool(test(c)), nil
}

func Lt(a, b Value) (Value, error) { return cmp("<", a, b, func(c int) bool { return c < 0 }) }
func Le(a, b Value) (Value, error) { return cmp("<=", a, b, func(c int) bool { return c <= 0 }) }
func Gt(a, b Value) (Value, error) { return cmp(">", a, b, func(c int) bool { return c > 0 }) }
func Ge(a, b Value) (Value, error) { return cmp(">=", a, b, func(c int) bool { return c >= 0 }) }

// logical operators: non short-circuit helpers; short-circuit evaluation
// itself lives in the expr evaluator since it must avoid evaluating the
// right-hand AST node at all.

func And(a, b Value) Value { return NewBool(a.Truthy() && b.Truthy()) }
func Or(a, b Value) Value  { return NewBool(a.Truthy() || b.Truthy()) }
func Not(a Value) Value    { return NewBool(!a.Truthy()) }

// Len returns the length of a string/list/matrix-row-count value.
func Len(a Value) (Value, error) {
	switch a.kind {
	case String:
		return NewInt(int32(len(a.s))), nil
	case List:
		return NewInt(int32(len(a.list))), nil
	case Matrix:
		return NewInt(int32(a.mat.rows)), nil
	default:
		return Value{}, &Error{Kind: IncompatibleTypes, Message: "len() requires a string, list or matrix"}
	}
}

// Concat is string/list concatenation (used internally by `+`, exposed for
// explicit callers).
func Concat(a, b Value) (Value, error) { return Add(a, b) }

// Index returns the i-th element of a list/string (0-based).
func Index(a Value, i int32) (Value, error) {
	switch a.kind {
	case List:
		if i < 0 || int(i) >= len(a.list) {
			return Value{}, &Error{Kind: InvalidSize, Message: "list index out of range"}
		}
		return a.list[i], nil
	case String:
		if i < 0 || int(i) >= len(a.s) {
			return Value{}, &Error{Kind: InvalidSize, Message: "string index out of range"}
		}
		return NewChar(a.s[i]), nil
	default:
		return Value{}, &Error{Kind: IncompatibleTypes, Message: "index requires a list or string"}
	}
}

// Slice returns a[lo:hi) for lists and strings.
func Slice(a Value, lo, hi int32) (Value, error) {
	switch a.kind {
	case List:
		if lo < 0 || hi > int32(len(a.list)) || lo > hi {
			return Value{}, &Error{Kind: InvalidSize, Message: "list slice out of range"}
		}
		return NewList(a.list[lo:hi]), nil
	case String:
		if lo < 0 || hi > int32(len(a.s)) || lo > hi {
			return Value{}, &Error{Kind: InvalidSize, Message: "string slice out of range"}
		}
		return NewString(string(a.s[lo:hi])), nil
	default:
		return Value{}, &Error{Kind: IncompatibleTypes, Message: "slice requires a list or string"}
	}
}

// Items exposes list elements (used by list/matrix intrinsics).
func (v Value) Items() []Value {
	if v.kind != List {
		return nil
	}
	return v.list
}

// Bytes exposes the raw content of a string value.
func (v Value) Bytes() []byte {
	if v.kind != String {
		return nil
	}
	return v.s
}

// MatrixNew is the `matrix_new(h,w,v)` intrinsic.
func MatrixNew(h, w, v Value) (Value, error) {
	hi, err := h.ToInt()
	if err != nil {
		return Value{}, err
	}
	wi, err := w.ToInt()
	if err != nil {
		return Value{}, err
	}
	return NewMatrix(int(hi), int(wi), v)
}

func (v Value) matrixDims() (int, int, bool) {
	if v.kind != Matrix {
		return 0, 0, false
	}
	return v.mat.rows, v.mat.cols, true
}

// MatrixGet is the `matrix_get(m,y,x)` intrinsic.
func MatrixGet(m, y, x Value) (Value, error) {
	rows, cols, ok := m.matrixDims()
	if !ok {
		return Value{}, &Error{Kind: IncompatibleTypes, Message: "matrix_get requires a matrix"}
	}
	yi, err := y.ToInt()
	if err != nil {
		return Value{}, err
	}
	xi, err := x.ToInt()
	if err != nil {
		return Value{}, err
	}
	if int(yi) < 0 || int(yi) >= rows || int(xi) < 0 || int(xi) >= cols {
		return Value{}, &Error{Kind: InvalidSize, Message: "matrix index out of range"}
	}
	return m.mat.cells[int(yi)*cols+int(xi)], nil
}

// MatrixSet is the `matrix_set(m,y,x,v)` intrinsic; returns a new matrix
// value (Value never mutates in place).
func MatrixSet(m, y, x, v Value) (Value, error) {
	rows, cols, ok := m.matrixDims()
	if !ok {
		return Value{}, &Error{Kind: IncompatibleTypes, Message: "matrix_set requires a matrix"}
	}
	yi, err := y.ToInt()
	if err != nil {
		return Value{}, err
	}
	xi, err := x.ToInt()
	if err != nil {
		return Value{}, err
	}
	if int(yi) < 0 || int(yi) >= rows || int(xi) < 0 || int(xi) >= cols {
		return Value{}, &Error{Kind: InvalidSize, Message: "matrix index out of range"}
	}
	cells := make([]Value, len(m.mat.cells))
	copy(cells, m.mat.cells)
	cells[int(yi)*cols+int(xi)] = v
	return Value{kind: Matrix, mat: &matrix{rows: rows, cols: cols, cells: cells}}, nil
}

// MatrixRow is the `matrix_row(m,y)` intrinsic; returns a list.
func MatrixRow(m, y Value) (Value, error) {
	rows, cols, ok := m.matrixDims()
	if !ok {
		return Value{}, &Error{Kind: IncompatibleTypes, Message: "matrix_row requires a matrix"}
	}
	yi, err := y.ToInt()
	if err != nil {
		return Value{}, err
	}
	if int(yi) < 0 || int(yi) >= rows {
		return Value{}, &Error{Kind: InvalidSize, Message: "matrix row out of range"}
	}
	row := make([]Value, cols)
	copy(row, m.mat.cells[int(yi)*cols:(int(yi)+1)*cols])
	return NewList(row), nil
}

// MatrixCol is the `matrix_col(m,x)` intrinsic; returns a list.
func MatrixCol(m, x Value) (Value, error) {
	rows, cols, ok := m.matrixDims()
	if !ok {
		return Value{}, &Error{Kind: IncompatibleTypes, Message: "matrix_col requires a matrix"}
	}
	xi, err := x.ToInt()
	if err != nil {
		return Value{}, err
	}
	if int(xi) < 0 || int(xi) >= cols {
		return Value{}, &Error{Kind: InvalidSize, Message: "matrix column out of range"}
	}
	col := make([]Value, rows)
	for r := 0; r < rows; r++ {
		col[r] = m.mat.cells[r*cols+int(xi)]
	}
	return NewList(col), nil
}
