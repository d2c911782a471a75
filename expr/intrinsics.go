/*
 * basm - built-in expression functions
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

package expr

import (
	"math"
	"strconv"
	"strings"

	"github.com/cpcsdk/basm/value"
)

type intrinsicFn func(args []value.Value) (value.Value, error)

// intrinsics is the fixed built-in function table. assemble/duration/
// opcode_size are not listed here: they need an isolated child
// environment (assemble) or an instruction encoder (duration,
// opcode_size) that only the engine has, so the engine's Env serves
// them from its CallFunction method instead.
var intrinsics = map[string]intrinsicFn{
	"abs": unaryNumeric(math.Abs, func(i int32) int32 {
		if i < 0 {
			return -i
		}
		return i
	}),
	"min": func(a []value.Value) (value.Value, error) { return reduceNumeric(a, "min") },
	"max": func(a []value.Value) (value.Value, error) { return reduceNumeric(a, "max") },
	"lo": func(a []value.Value) (value.Value, error) {
		if err := arity("lo", a, 1); err != nil {
			return value.Value{}, err
		}
		i, err := a[0].ToInt()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt(i & 0xFF), nil
	},
	"hi": func(a []value.Value) (value.Value, error) {
		if err := arity("hi", a, 1); err != nil {
			return value.Value{}, err
		}
		i, err := a[0].ToInt()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt((i >> 8) & 0xFF), nil
	},
	"sin":   unaryFloat(math.Sin),
	"cos":   unaryFloat(math.Cos),
	"sqrt":  unaryFloat(math.Sqrt),
	"log":   unaryFloat(math.Log),
	"exp":   unaryFloat(math.Exp),
	"floor": unaryFloat(math.Floor),
	"ceil":  unaryFloat(math.Ceil),
	"int": func(a []value.Value) (value.Value, error) {
		if err := arity("int", a, 1); err != nil {
			return value.Value{}, err
		}
		i, err := a[0].ToInt()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt(i), nil
	},
	"frac": func(a []value.Value) (value.Value, error) {
		if err := arity("frac", a, 1); err != nil {
			return value.Value{}, err
		}
		f, err := a[0].ToFloat()
		if err != nil {
			return value.Value{}, err
		}
		_, frac := math.Modf(f)
		return value.NewFloat(frac), nil
	},
	"len":    func(a []value.Value) (value.Value, error) { return unaryValue("len", a, value.Len) },
	"strlen": func(a []value.Value) (value.Value, error) { return unaryValue("strlen", a, value.Len) },
	"left$": func(a []value.Value) (value.Value, error) {
		if err := arity("left$", a, 2); err != nil {
			return value.Value{}, err
		}
		n, err := a[1].ToInt()
		if err != nil {
			return value.Value{}, err
		}
		s := a[0].ToString()
		if int(n) > len(s) {
			n = int32(len(s))
		}
		if n < 0 {
			n = 0
		}
		return value.NewString(s[:n]), nil
	},
	"right$": func(a []value.Value) (value.Value, error) {
		if err := arity("right$", a, 2); err != nil {
			return value.Value{}, err
		}
		n, err := a[1].ToInt()
		if err != nil {
			return value.Value{}, err
		}
		s := a[0].ToString()
		if int(n) > len(s) {
			n = int32(len(s))
		}
		if n < 0 {
			n = 0
		}
		return value.NewString(s[len(s)-int(n):]), nil
	},
	"mid$": func(a []value.Value) (value.Value, error) {
		if len(a) != 2 && len(a) != 3 {
			return value.Value{}, errf("mid$ expects 2 or 3 arguments")
		}
		s := a[0].ToString()
		start, err := a[1].ToInt()
		if err != nil {
			return value.Value{}, err
		}
		start--
		if start < 0 {
			start = 0
		}
		length := int32(len(s)) - start
		if len(a) == 3 {
			length, err = a[2].ToInt()
			if err != nil {
				return value.Value{}, err
			}
		}
		if int(start) > len(s) {
			return value.NewString(""), nil
		}
		end := int(start) + int(length)
		if end > len(s) {
			end = len(s)
		}
		return value.NewString(s[start:end]), nil
	},
	"upper$": func(a []value.Value) (value.Value, error) {
		if err := arity("upper$", a, 1); err != nil {
			return value.Value{}, err
		}
		return value.NewString(strings.ToUpper(a[0].ToString())), nil
	},
	"lower$": func(a []value.Value) (value.Value, error) {
		if err := arity("lower$", a, 1); err != nil {
			return value.Value{}, err
		}
		return value.NewString(strings.ToLower(a[0].ToString())), nil
	},
	"chr$": func(a []value.Value) (value.Value, error) {
		if err := arity("chr$", a, 1); err != nil {
			return value.Value{}, err
		}
		i, err := a[0].ToInt()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewString(string(rune(byte(i)))), nil
	},
	"asc": func(a []value.Value) (value.Value, error) {
		if err := arity("asc", a, 1); err != nil {
			return value.Value{}, err
		}
		s := a[0].Bytes()
		if len(s) == 0 {
			return value.Value{}, errf("asc() requires a non-empty string")
		}
		return value.NewInt(int32(s[0])), nil
	},
	"val": func(a []value.Value) (value.Value, error) {
		if err := arity("val", a, 1); err != nil {
			return value.Value{}, err
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(a[0].ToString()), 64)
		if err != nil {
			return value.NewInt(0), nil
		}
		if n == math.Trunc(n) {
			return value.NewInt(int32(n)), nil
		}
		return value.NewFloat(n), nil
	},
	"hex$": func(a []value.Value) (value.Value, error) {
		if len(a) < 1 || len(a) > 2 {
			return value.Value{}, errf("hex$ expects 1 or 2 arguments")
		}
		i, err := a[0].ToInt()
		if err != nil {
			return value.Value{}, err
		}
		width := 0
		if len(a) == 2 {
			w, err := a[1].ToInt()
			if err != nil {
				return value.Value{}, err
			}
			width = int(w)
		}
		s := strconv.FormatUint(uint64(uint32(i)), 16)
		for len(s) < width {
			s = "0" + s
		}
		return value.NewString(strings.ToUpper(s)), nil
	},
	"bin$": func(a []value.Value) (value.Value, error) {
		if len(a) < 1 || len(a) > 2 {
			return value.Value{}, errf("bin$ expects 1 or 2 arguments")
		}
		i, err := a[0].ToInt()
		if err != nil {
			return value.Value{}, err
		}
		width := 0
		if len(a) == 2 {
			w, err := a[1].ToInt()
			if err != nil {
				return value.Value{}, err
			}
			width = int(w)
		}
		s := strconv.FormatUint(uint64(uint32(i)), 2)
		for len(s) < width {
			s = "0" + s
		}
		return value.NewString(s), nil
	},
	"list":   func(a []value.Value) (value.Value, error) { return value.NewList(a), nil },
	"matrix": func(a []value.Value) (value.Value, error) { return value.MatrixFromRows(a) },
	"matrix_new": func(a []value.Value) (value.Value, error) {
		if err := arity("matrix_new", a, 3); err != nil {
			return value.Value{}, err
		}
		return value.MatrixNew(a[0], a[1], a[2])
	},
	"matrix_row": func(a []value.Value) (value.Value, error) {
		if err := arity("matrix_row", a, 2); err != nil {
			return value.Value{}, err
		}
		return value.MatrixRow(a[0], a[1])
	},
	"matrix_col": func(a []value.Value) (value.Value, error) {
		if err := arity("matrix_col", a, 2); err != nil {
			return value.Value{}, err
		}
		return value.MatrixCol(a[0], a[1])
	},
	"matrix_get": func(a []value.Value) (value.Value, error) {
		if err := arity("matrix_get", a, 3); err != nil {
			return value.Value{}, err
		}
		return value.MatrixGet(a[0], a[1], a[2])
	},
	"matrix_set": func(a []value.Value) (value.Value, error) {
		if err := arity("matrix_set", a, 4); err != nil {
			return value.Value{}, err
		}
		return value.MatrixSet(a[0], a[1], a[2], a[3])
	},
}

func arity(name string, args []value.Value, n int) error {
	if len(args) != n {
		return errf("%s expects %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func unaryFloat(f func(float64) float64) intrinsicFn {
	return func(a []value.Value) (value.Value, error) {
		if len(a) != 1 {
			return value.Value{}, errf("expects 1 argument, got %d", len(a))
		}
		v, err := a[0].ToFloat()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(f(v)), nil
	}
}

func unaryNumeric(ffn func(float64) float64, ifn func(int32) int32) intrinsicFn {
	return func(a []value.Value) (value.Value, error) {
		if len(a) != 1 {
			return value.Value{}, errf("abs expects 1 argument, got %d", len(a))
		}
		if a[0].Kind() == value.Float {
			f, _ := a[0].ToFloat()
			return value.NewFloat(ffn(f)), nil
		}
		i, err := a[0].ToInt()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt(ifn(i)), nil
	}
}

func unaryValue(name string, a []value.Value, f func(value.Value) (value.Value, error)) (value.Value, error) {
	if err := arity(name, a, 1); err != nil {
		return value.Value{}, err
	}
	return f(a[0])
}

func reduceNumeric(args []value.Value, which string) (value.Value, error) {
	if len(args) == 0 {
		return value.Value{}, errf("%s requires at least one argument", which)
	}
	best := args[0]
	for _, a := range args[1:] {
		c, err := cmpValues(best, a)
		if err != nil {
			return value.Value{}, err
		}
		if (which == "max" && c < 0) || (which == "min" && c > 0) {
			best = a
		}
	}
	return best, nil
}

func cmpValues(a, b value.Value) (int, error) {
	lt, err := value.Lt(a, b)
	if err != nil {
		return 0, err
	}
	if lt.Truthy() {
		return -1, nil
	}
	gt, err := value.Gt(a, b)
	if err != nil {
		return 0, err
	}
	if gt.Truthy() {
		return 1, nil
	}
	return 0, nil
}

func powFloat(base, exp float64) float64 {
	return math.Pow(base, exp)
}
