/*
 * basm - expr.Env implementation and engine-provided intrinsics
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

package engine

import (
	"fmt"

	"github.com/cpcsdk/basm/encoder"
	"github.com/cpcsdk/basm/expr"
	"github.com/cpcsdk/basm/listing"
	"github.com/cpcsdk/basm/token"
	"github.com/cpcsdk/basm/value"
)

// LookupSymbol implements expr.Env, resolving ".local" suffixes against
// the most recently defined label before consulting the symbol table.
func (e *Env) LookupSymbol(name string) (value.Value, bool) {
	if v, ok := e.symbols.Lookup(e.qualifyLocal(name)); ok {
		return v, ok
	}
	return e.symbols.Lookup(name)
}

// LookupLocation implements expr.Env for {bank}/{page}/{pageset} prefixed
// references.
func (e *Env) LookupLocation(name string) (page, bank, pageset int, ok bool) {
	if p, b, ps, found := e.symbols.Location(e.qualifyLocal(name)); found {
		return p, b, ps, true
	}
	return e.symbols.Location(name)
}

// CurrentAddress implements expr.Env's `$`.
func (e *Env) CurrentAddress() int32 { return int32(e.activePage().CodeAddress()) }

// CallFunction implements expr.Env for everything not covered by the
// fixed intrinsic table: the engine-provided assemble/duration/
// opcode_size/section_* functions plus any user-registered function.
func (e *Env) CallFunction(name string, args []value.Value) (value.Value, error) {
	switch name {
	case "assemble":
		return e.intrinsicAssemble(args)
	case "opcode_size":
		return e.intrinsicOpcodeSize(args)
	case "duration":
		return e.intrinsicDuration(args)
	case "section_start":
		return e.intrinsicSection(args, func(s *sectionView) int32 { return int32(s.Start) })
	case "section_stop":
		return e.intrinsicSection(args, func(s *sectionView) int32 { return int32(s.Stop) })
	case "section_length":
		return e.intrinsicSection(args, func(s *sectionView) int32 { return int32(s.Stop - s.Start + 1) })
	case "section_used":
		return e.intrinsicSection(args, func(s *sectionView) int32 { return int32(s.Max - s.Start + 1) })
	case "section_mmr":
		return e.intrinsicSection(args, func(s *sectionView) int32 { return int32(e.bankIndex<<3 | e.pageIndex) })
	}
	if fn, ok := e.userFuncs[name]; ok {
		return fn(args)
	}
	return value.Value{}, &expr.UnknownFunctionError{Name: name}
}

// parseSingleOpcode parses src as one instruction line, for the
// duration()/opcode_size() intrinsics which operate on a bare mnemonic
// string rather than a full listing.
func parseSingleOpcode(src string) (token.Token, error) {
	lst, err := listing.NewReader(src, "<expr>").Read()
	if err != nil {
		return token.Token{}, err
	}
	for _, loc := range lst {
		if loc.Tok.Kind == token.KindOpcode {
			return loc.Tok, nil
		}
	}
	return token.Token{}, fmt.Errorf("no instruction found in %q", src)
}

func (e *Env) intrinsicOpcodeSize(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("opcode_size expects 1 argument, got %d", len(args))
	}
	tok, err := parseSingleOpcode(args[0].ToString())
	if err != nil {
		return value.Value{}, err
	}
	resolver := func(o encoder.Operand) (int32, bool, error) { return 0, true, nil }
	bytes, err := encoder.Encode(tok.Mnemonic, tok.Operands, resolver)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewInt(int32(len(bytes))), nil
}

func (e *Env) intrinsicDuration(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("duration expects 1 argument, got %d", len(args))
	}
	tok, err := parseSingleOpcode(args[0].ToString())
	if err != nil {
		return value.Value{}, err
	}
	d, ok := encoder.Duration(tok.Mnemonic)
	if !ok {
		return value.Value{}, fmt.Errorf("duration: unknown mnemonic %q", tok.Mnemonic)
	}
	return value.NewInt(int32(d)), nil
}

// intrinsicAssemble runs src through an isolated child Env sharing this
// Env's options and returns the bytes it produced as a list.
func (e *Env) intrinsicAssemble(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("assemble expects 1 argument, got %d", len(args))
	}
	src := args[0].ToString()
	lst, err := listing.NewReader(src, "<assemble>").Read()
	if err != nil {
		return value.Value{}, err
	}
	child, err := Run(lst, e.opts)
	if err != nil {
		return value.Value{}, err
	}
	p := child.Page(0)
	if !p.HasWritten() {
		return value.NewList(nil), nil
	}
	raw := p.Bytes(p.StartAddr(), p.MaxAddr())
	items := make([]value.Value, len(raw))
	for i, b := range raw {
		items[i] = value.NewInt(int32(b))
	}
	return value.NewList(items), nil
}

// sectionView is the subset of page.Section fields the section_*
// intrinsics read.
type sectionView struct {
	Start, Stop, Max int
}

func (e *Env) intrinsicSection(args []value.Value, get func(*sectionView) int32) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("section function expects 1 argument, got %d", len(args))
	}
	name := args[0].ToString()
	s, ok := e.activePage().LookupSection(name)
	if !ok {
		return value.Value{}, fmt.Errorf("unknown section %q", name)
	}
	return value.NewInt(get(&sectionView{Start: s.Start, Stop: s.Stop, Max: s.Max})), nil
}
