/*
 * basm - Env token visitation
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
	"os"
	"path/filepath"
	"strings"

	"github.com/cpcsdk/basm/control"
	"github.com/cpcsdk/basm/delayed"
	"github.com/cpcsdk/basm/encoder"
	"github.com/cpcsdk/basm/expr"
	"github.com/cpcsdk/basm/internal/asmerr"
	"github.com/cpcsdk/basm/listing"
	"github.com/cpcsdk/basm/page"
	"github.com/cpcsdk/basm/symbol"
	"github.com/cpcsdk/basm/token"
	"github.com/cpcsdk/basm/value"
)

// visit dispatches one located token to its kind's handler. It returns
// the control-flow Signal that should propagate to the nearest enclosing
// loop (break/continue) and an error. An undefined symbol met through
// evalDeferred is deferred (placeholder bytes emitted, pass marked
// non-converged) except on the final pass, where it becomes fatal; any
// other expression error evalDeferred reports is fatal on the pass that
// raises it.
func (e *Env) visit(loc token.Located) (token.Signal, error) {
	t := loc.Tok
	switch t.Kind {
	case token.KindLabel:
		return token.SignalNone, e.visitLabel(loc)
	case token.KindEqu:
		return token.SignalNone, e.visitAssign(loc, symbol.KindEqu)
	case token.KindSet, token.KindLet:
		return token.SignalNone, e.visitAssign(loc, symbol.KindSet)
	case token.KindOrg:
		return token.SignalNone, e.visitOrg(loc)
	case token.KindRorg:
		return e.visitRorg(loc)
	case token.KindDefb:
		return token.SignalNone, e.visitDefb(loc)
	case token.KindDefw:
		return token.SignalNone, e.visitDefw(loc)
	case token.KindDefs:
		return token.SignalNone, e.visitDefs(loc)
	case token.KindDefr:
		return token.SignalNone, e.visitDefr(loc)
	case token.KindInclude:
		return token.SignalNone, e.visitInclude(loc)
	case token.KindIncbin:
		return token.SignalNone, e.visitIncbin(loc)
	case token.KindIf:
		return e.visitIf(loc)
	case token.KindRepeat:
		return e.visitRepeat(loc)
	case token.KindWhile:
		return e.visitWhile(loc)
	case token.KindFor:
		return e.visitFor(loc)
	case token.KindBreak:
		return token.SignalBreak, nil
	case token.KindContinue:
		return token.SignalContinue, nil
	case token.KindMacroDecl:
		e.macros[strings.ToUpper(t.Name)] = t
		return token.SignalNone, nil
	case token.KindStructDecl:
		return token.SignalNone, e.visitStructDecl(loc)
	case token.KindModule:
		e.symbols.EnterScope(t.Name)
		return token.SignalNone, nil
	case token.KindEndModule:
		e.symbols.LeaveScope()
		return token.SignalNone, nil
	case token.KindSave:
		return token.SignalNone, e.visitSave(loc)
	case token.KindPrint:
		return token.SignalNone, e.visitPrint(loc)
	case token.KindPause:
		e.activeQueue().Push(delayed.Command{Kind: delayed.KindPause, Span: loc.Span})
		return token.SignalNone, nil
	case token.KindAssert:
		return token.SignalNone, e.visitAssert(loc)
	case token.KindLimit:
		return token.SignalNone, e.visitLimit(loc)
	case token.KindProtect:
		return token.SignalNone, e.visitProtect(loc)
	case token.KindBankset:
		return token.SignalNone, e.visitBankset(loc)
	case token.KindBank:
		return token.SignalNone, e.visitBank(loc)
	case token.KindPage:
		return token.SignalNone, e.visitPage(loc)
	case token.KindSection:
		return token.SignalNone, e.visitSection(loc)
	case token.KindBreakpoint:
		return token.SignalNone, e.visitBreakpoint(loc)
	case token.KindAlign:
		return token.SignalNone, e.visitAlign(loc)
	case token.KindRun:
		return token.SignalNone, e.visitRun(loc)
	case token.KindOpcode:
		return token.SignalNone, e.visitOpcode(loc)
	}
	return token.SignalNone, asmerr.New(loc.Span, asmerr.ErrAssembling, "unhandled token kind %d", t.Kind)
}

func (e *Env) visitBody(body []token.Located) (token.Signal, error) {
	for _, loc := range body {
		sig, err := e.visit(loc)
		if err != nil {
			return sig, err
		}
		if sig != token.SignalNone {
			return sig, nil
		}
	}
	return token.SignalNone, nil
}

// qualifyLocal resolves a ".local" name against the most recently
// defined non-local label: ".loop" after "draw:" means "draw.loop".
func (e *Env) qualifyLocal(name string) string {
	if strings.HasPrefix(name, ".") && e.lastLabel != "" {
		return e.lastLabel + name
	}
	return name
}

func (e *Env) visitLabel(loc token.Located) error {
	name := e.qualifyLocal(loc.Tok.Name)
	addr := value.NewInt(int32(e.activePage().CodeAddress()))
	if err := e.symbols.DefineLocated(name, addr, symbol.KindLabel, e.pageIndex, e.bankIndex, e.pagesetIndex); err != nil {
		return e.fatalIfFinal(loc.Span, asmerr.ErrSymbol, err)
	}
	if !strings.HasPrefix(loc.Tok.Name, ".") {
		e.lastLabel = loc.Tok.Name
	}
	return nil
}

func (e *Env) visitAssign(loc token.Located, kind symbol.Kind) error {
	name := e.qualifyLocal(loc.Tok.Name)
	v, err := e.evalDeferred(loc.Tok.Expr, loc.Span)
	if err != nil {
		return err
	}
	if err := e.symbols.Define(name, v, kind); err != nil {
		return e.fatalIfFinal(loc.Span, asmerr.ErrSymbol, err)
	}
	return nil
}

// evalDeferred evaluates n, treating an undefined symbol as a forward
// reference (placeholder zero, pass marked non-converged) on every pass
// but the last, where it becomes a fatal SymbolError.
func (e *Env) evalDeferred(n *expr.Node, span token.Span) (value.Value, error) {
	v, err := expr.Eval(n, e)
	if err == nil {
		return v, nil
	}
	if _, ok := err.(*expr.UndefinedSymbolError); ok {
		if e.finalPass {
			return value.Value{}, asmerr.Wrap(span, asmerr.ErrSymbol, err, "%v", err)
		}
		e.forwardRef = true
		return value.NewInt(0), nil
	}
	return value.Value{}, asmerr.Wrap(span, asmerr.ErrExpression, err, "%v", err)
}

// fatalIfFinal classifies err as deferred (nil, pass marked non-converged)
// unless the engine believes this is the final pass, in which case it
// wraps err as a fatal Diagnostic.
func (e *Env) fatalIfFinal(span token.Span, kind error, err error) error {
	e.forwardRef = true
	if e.finalPass {
		return asmerr.Wrap(span, kind, err, "%v", err)
	}
	return nil
}

func (e *Env) visitOrg(loc token.Located) error {
	code, err := e.evalDeferred(loc.Tok.Expr, loc.Span)
	if err != nil {
		return err
	}
	ci, _ := code.ToInt()
	var out *int
	if loc.Tok.Expr2 != nil {
		ov, err := e.evalDeferred(loc.Tok.Expr2, loc.Span)
		if err != nil {
			return err
		}
		oi, _ := ov.ToInt()
		oiInt := int(oi)
		out = &oiInt
	}
	e.activePage().SetOrg(int(ci), out)
	outAddr := int(ci)
	if out != nil {
		outAddr = *out
	}
	e.store.Record(control.Op{Kind: control.OpOrg, Span: loc.Span, PageIndex: e.pageIndex, CodeAddr: int(ci), OutputAddr: outAddr})
	return nil
}

func (e *Env) visitRorg(loc token.Located) (token.Signal, error) {
	d, err := e.evalDeferred(loc.Tok.Expr, loc.Span)
	if err != nil {
		return token.SignalNone, err
	}
	di, _ := d.ToInt()
	e.activePage().SetRorg(int(di))
	sig, err := e.visitBody(loc.Tok.Body)
	e.activePage().EndRorg()
	return sig, err
}

func (e *Env) outputByte(b byte, span token.Span) error {
	if err := e.activePage().OutputByte(b); err != nil {
		return asmerr.Wrap(span, asmerr.ErrAssembling, err, "%v", err)
	}
	e.store.Record(control.Op{Kind: control.OpOutputByte, Span: span, PageIndex: e.pageIndex, Byte: b})
	return nil
}

func (e *Env) visitDefb(loc token.Located) error {
	for _, ex := range loc.Tok.Exprs {
		v, err := e.evalDeferred(ex, loc.Span)
		if err != nil {
			return err
		}
		if err := e.outputDataValue(v, loc.Span); err != nil {
			return err
		}
	}
	return nil
}

// outputDataValue emits one defb operand: a string emits each of its
// bytes, a list each of its elements, anything else its low 8 bits.
func (e *Env) outputDataValue(v value.Value, span token.Span) error {
	switch v.Kind() {
	case value.String:
		for _, b := range v.Bytes() {
			if err := e.outputByte(b, span); err != nil {
				return err
			}
		}
		return nil
	case value.List:
		for _, item := range v.Items() {
			if err := e.outputDataValue(item, span); err != nil {
				return err
			}
		}
		return nil
	default:
		i, _ := v.ToInt()
		return e.outputByte(byte(i), span)
	}
}

func (e *Env) visitDefw(loc token.Located) error {
	for _, ex := range loc.Tok.Exprs {
		v, err := e.evalDeferred(ex, loc.Span)
		if err != nil {
			return err
		}
		i, _ := v.ToInt()
		if err := e.outputByte(byte(i), loc.Span); err != nil {
			return err
		}
		if err := e.outputByte(byte(i>>8), loc.Span); err != nil {
			return err
		}
	}
	return nil
}

func (e *Env) visitDefs(loc token.Located) error {
	n, err := e.evalDeferred(loc.Tok.Count, loc.Span)
	if err != nil {
		return err
	}
	ni, _ := n.ToInt()
	var filler byte
	if len(loc.Tok.Exprs) == 1 {
		fv, err := e.evalDeferred(loc.Tok.Exprs[0], loc.Span)
		if err != nil {
			return err
		}
		fi, _ := fv.ToInt()
		filler = byte(fi)
	}
	for i := int32(0); i < ni; i++ {
		if err := e.outputByte(filler, loc.Span); err != nil {
			return err
		}
	}
	return nil
}

func (e *Env) visitDefr(loc token.Located) error {
	return e.visitDefb(loc)
}

func (e *Env) visitAlign(loc token.Located) error {
	n, err := e.evalDeferred(loc.Tok.Expr, loc.Span)
	if err != nil {
		return err
	}
	ni, _ := n.ToInt()
	if ni <= 0 {
		return nil
	}
	filler := byte(0)
	if loc.Tok.Filler != nil {
		fv, err := e.evalDeferred(loc.Tok.Filler, loc.Span)
		if err != nil {
			return err
		}
		fi, _ := fv.ToInt()
		filler = byte(fi)
	}
	cur := e.activePage().OutputAddress()
	next := ((cur / int(ni)) + 1) * int(ni)
	for cur < next {
		if err := e.outputByte(filler, loc.Span); err != nil {
			return err
		}
		cur++
	}
	return nil
}

func (e *Env) resolveSearchPath(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	candidates := []string{filepath.Join(dir, path)}
	for _, sp := range e.opts.SearchPaths {
		candidates = append(candidates, filepath.Join(sp, path))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return candidates[0]
}

func (e *Env) visitInclude(loc token.Located) error {
	dir := filepath.Dir(loc.Span.File)
	resolved := e.resolveSearchPath(dir, loc.Tok.Path)
	canon := resolved
	if abs, err := filepath.Abs(resolved); err == nil {
		canon = abs
	}
	listingTokens, ok := e.includeCache[canon]
	if !ok {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return asmerr.Wrap(loc.Span, asmerr.ErrIO, err, "cannot read include file %q", loc.Tok.Path)
		}
		parsed, err := listing.NewReader(string(data), resolved).Read()
		if err != nil {
			return asmerr.Wrap(loc.Span, asmerr.ErrParse, err, "%v", err)
		}
		e.includeCache[canon] = parsed
		listingTokens = parsed
	}
	prevFile := e.currentFile
	e.currentFile = resolved
	_, err := e.visitBody(listingTokens)
	e.currentFile = prevFile
	return err
}

func (e *Env) visitIncbin(loc token.Located) error {
	dir := filepath.Dir(loc.Span.File)
	resolved := e.resolveSearchPath(dir, loc.Tok.Path)
	data, err := os.ReadFile(resolved)
	if err != nil {
		return asmerr.Wrap(loc.Span, asmerr.ErrIO, err, "cannot read incbin file %q", loc.Tok.Path)
	}
	off := 0
	if loc.Tok.Offset != nil {
		v, err := e.evalDeferred(loc.Tok.Offset, loc.Span)
		if err != nil {
			return err
		}
		oi, _ := v.ToInt()
		off = int(oi)
	}
	length := len(data) - off
	if loc.Tok.Length != nil {
		v, err := e.evalDeferred(loc.Tok.Length, loc.Span)
		if err != nil {
			return err
		}
		li, _ := v.ToInt()
		length = int(li)
	}
	repeat := 1
	if loc.Tok.Repeat != nil {
		v, err := e.evalDeferred(loc.Tok.Repeat, loc.Span)
		if err != nil {
			return err
		}
		ri, _ := v.ToInt()
		repeat = int(ri)
	}
	if off < 0 || off > len(data) {
		return asmerr.New(loc.Span, asmerr.ErrIO, "incbin offset %d out of range for %q", off, loc.Tok.Path)
	}
	end := off + length
	if end > len(data) {
		end = len(data)
	}
	chunk := data[off:end]
	for r := 0; r < repeat; r++ {
		for _, b := range chunk {
			if err := e.outputByte(b, loc.Span); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Env) visitIf(loc token.Located) (token.Signal, error) {
	for _, br := range loc.Tok.Branches {
		if br.Cond == nil {
			return e.visitBody(br.Body)
		}
		v, err := e.evalDeferred(br.Cond, loc.Span)
		if err != nil {
			return token.SignalNone, err
		}
		if v.Truthy() {
			return e.visitBody(br.Body)
		}
	}
	return token.SignalNone, nil
}

func (e *Env) newScopeName(prefix string) string {
	e.scopeSeq++
	return fmt.Sprintf("%s$%d", prefix, e.scopeSeq)
}

func (e *Env) visitRepeat(loc token.Located) (token.Signal, error) {
	n, err := e.evalDeferred(loc.Tok.CountExpr, loc.Span)
	if err != nil {
		return token.SignalNone, err
	}
	ni, _ := n.ToInt()
	iterName := loc.Tok.IterName
	if iterName == "" {
		iterName = "REPEAT_COUNT"
	}
	max := int(ni)
	if loc.Tok.Until != nil {
		max = e.opts.MaxIterations
	}
	count := 0
	for i := 0; i < max; i++ {
		count++
		if count > e.opts.MaxIterations {
			return token.SignalNone, asmerr.New(loc.Span, asmerr.ErrAssembling, "repeat exceeded MaxIterations (%d)", e.opts.MaxIterations)
		}
		scope := e.newScopeName("repeat")
		e.symbols.EnterScope(scope)
		e.symbols.Define(iterName, value.NewInt(int32(i)), symbol.KindSet)
		sig, err := e.visitBody(loc.Tok.Body)
		if err == nil && loc.Tok.Until != nil {
			v, uerr := e.evalDeferred(loc.Tok.Until, loc.Span)
			err = uerr
			if err == nil && v.Truthy() {
				e.symbols.LeaveScope()
				break
			}
		}
		e.symbols.LeaveScope()
		if err != nil {
			return sig, err
		}
		if sig == token.SignalBreak {
			break
		}
	}
	return token.SignalNone, nil
}

func (e *Env) visitWhile(loc token.Located) (token.Signal, error) {
	for i := 0; i < e.opts.MaxIterations; i++ {
		v, err := e.evalDeferred(loc.Tok.Expr, loc.Span)
		if err != nil {
			return token.SignalNone, err
		}
		if !v.Truthy() {
			break
		}
		scope := e.newScopeName("while")
		e.symbols.EnterScope(scope)
		sig, err := e.visitBody(loc.Tok.Body)
		e.symbols.LeaveScope()
		if err != nil {
			return sig, err
		}
		if sig == token.SignalBreak {
			break
		}
	}
	return token.SignalNone, nil
}

func (e *Env) visitFor(loc token.Located) (token.Signal, error) {
	startV, err := e.evalDeferred(loc.Tok.ForStart, loc.Span)
	if err != nil {
		return token.SignalNone, err
	}
	endV, err := e.evalDeferred(loc.Tok.ForEnd, loc.Span)
	if err != nil {
		return token.SignalNone, err
	}
	start, _ := startV.ToInt()
	end, _ := endV.ToInt()
	step := int32(1)
	if loc.Tok.ForStep != nil {
		sv, err := e.evalDeferred(loc.Tok.ForStep, loc.Span)
		if err != nil {
			return token.SignalNone, err
		}
		step, _ = sv.ToInt()
	}
	if step == 0 {
		return token.SignalNone, asmerr.New(loc.Span, asmerr.ErrExpression, "for step must not be zero")
	}
	iterations := 0
	for i := start; (step > 0 && i <= end) || (step < 0 && i >= end); i += step {
		iterations++
		if iterations > e.opts.MaxIterations {
			return token.SignalNone, asmerr.New(loc.Span, asmerr.ErrAssembling, "for exceeded MaxIterations (%d)", e.opts.MaxIterations)
		}
		scope := e.newScopeName("for")
		e.symbols.EnterScope(scope)
		e.symbols.Define(loc.Tok.IterName, value.NewInt(i), symbol.KindSet)
		sig, err := e.visitBody(loc.Tok.Body)
		e.symbols.LeaveScope()
		if err != nil {
			return sig, err
		}
		if sig == token.SignalBreak {
			break
		}
	}
	return token.SignalNone, nil
}

func (e *Env) visitStructDecl(loc token.Located) error {
	e.structs[strings.ToUpper(loc.Tok.Name)] = loc.Tok
	total := 0
	for _, f := range loc.Tok.Fields {
		switch f.Kind {
		case "db":
			total++
		case "dw":
			total += 2
		case "dd":
			total += 4
		case "ds":
			if f.Size != nil {
				v, err := e.evalDeferred(f.Size, loc.Span)
				if err == nil {
					n, _ := v.ToInt()
					total += int(n)
				}
			}
		}
	}
	return e.symbols.Define(loc.Tok.Name, value.NewInt(int32(total)), symbol.KindEqu)
}

// operandExpr converts a parsed instruction operand into the expression
// a macro/struct call argument needs: register/condition operands
// substitute as bare symbol references (macro bodies may use them
// positionally as ordinary identifiers), everything else carries its
// already-parsed expression.
func operandExpr(o encoder.Operand) *expr.Node {
	switch o.Kind {
	case encoder.KindReg, encoder.KindCond:
		return expr.NewSym(o.Reg)
	case encoder.KindIndirectReg:
		return expr.NewSym(o.Reg)
	default:
		return o.Val
	}
}

func macroCallArgs(ops []encoder.Operand) []token.MacroCallArg {
	args := make([]token.MacroCallArg, len(ops))
	for i, o := range ops {
		ex := operandExpr(o)
		if ex != nil && ex.Kind == expr.ListCtor {
			args[i] = token.MacroCallArg{IsList: true, ListVals: ex.Args}
		} else {
			args[i] = token.MacroCallArg{Expr: ex}
		}
	}
	return args
}

func (e *Env) visitMacroCall(loc token.Located, decl token.Token) error {
	args := macroCallArgs(loc.Tok.Operands)
	segs := listing.Pretokenize(decl.Body)
	expanded := listing.Expand(segs, decl.Params, args)
	scope := e.newScopeName("macro_" + decl.Name)
	e.symbols.EnterScope(scope)
	_, err := e.visitBody(expanded)
	e.symbols.LeaveScope()
	return err
}

func fieldWidth(kind string) int {
	switch kind {
	case "dw":
		return 2
	case "dd":
		return 4
	default:
		return 1
	}
}

func (e *Env) visitStructCall(loc token.Located, decl token.Token) error {
	args := macroCallArgs(loc.Tok.Operands)
	ai := 0
	for _, f := range decl.Fields {
		if f.Kind == "ds" {
			n := 0
			if f.Size != nil {
				v, err := e.evalDeferred(f.Size, loc.Span)
				if err != nil {
					return err
				}
				ni, _ := v.ToInt()
				n = int(ni)
			}
			for i := 0; i < n; i++ {
				if err := e.outputByte(0, loc.Span); err != nil {
					return err
				}
			}
			continue
		}
		var fv value.Value
		if ai < len(args) && args[ai].Expr != nil {
			v, err := e.evalDeferred(args[ai].Expr, loc.Span)
			if err != nil {
				return err
			}
			fv = v
		} else {
			fv = value.NewInt(0)
		}
		ai++
		iv, _ := fv.ToInt()
		width := fieldWidth(f.Kind)
		for b := 0; b < width; b++ {
			if err := e.outputByte(byte(iv>>(8*b)), loc.Span); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Env) visitOpcode(loc token.Located) error {
	upper := strings.ToUpper(loc.Tok.Mnemonic)
	if decl, ok := e.macros[upper]; ok {
		return e.visitMacroCall(loc, decl)
	}
	if decl, ok := e.structs[upper]; ok {
		return e.visitStructCall(loc, decl)
	}

	var resolveErr error
	resolver := func(o encoder.Operand) (int32, bool, error) {
		if o.Val == nil {
			return 0, true, nil
		}
		v, err := expr.Eval(o.Val, e)
		if err != nil {
			if _, ok := err.(*expr.UndefinedSymbolError); ok {
				if e.finalPass {
					resolveErr = asmerr.Wrap(loc.Span, asmerr.ErrSymbol, err, "%v", err)
					return 0, false, resolveErr
				}
				e.forwardRef = true
				return 0, false, nil
			}
			return 0, false, err
		}
		i, err := v.ToInt()
		if err != nil {
			return 0, false, err
		}
		if upper == "JR" || upper == "DJNZ" {
			return i - int32(e.activePage().CodeAddress()+2), true, nil
		}
		return i, true, nil
	}

	bytes, err := encoder.Encode(loc.Tok.Mnemonic, loc.Tok.Operands, resolver)
	if err != nil {
		if resolveErr != nil {
			return resolveErr
		}
		return e.fatalIfFinal(loc.Span, asmerr.ErrAssembling, err)
	}
	for _, b := range bytes {
		if err := e.outputByte(b, loc.Span); err != nil {
			return err
		}
	}
	return nil
}

func (e *Env) visitSave(loc token.Located) error {
	lo, err := e.evalDeferred(loc.Tok.Range[0], loc.Span)
	if err != nil {
		return err
	}
	hi, err := e.evalDeferred(loc.Tok.Range[1], loc.Span)
	if err != nil {
		return err
	}
	loi, _ := lo.ToInt()
	hii, _ := hi.ToInt()
	kind := saveKindFromString(loc.Tok.SaveAs)
	e.activeQueue().Push(delayed.Command{
		Kind: delayed.KindSave, Span: loc.Span,
		PageIndex: e.pageIndex, Lo: int(loi), Hi: int(hii),
		Path: loc.Tok.Path, FileKind: kind, Compress: loc.Tok.Compress,
	})
	return nil
}

func saveKindFromString(s string) delayed.SaveFileKind {
	switch strings.ToLower(s) {
	case "amsdos":
		return delayed.SaveAmsdos
	case "dsk":
		return delayed.SaveDSK
	case "hfe":
		return delayed.SaveHFE
	case "cpr":
		return delayed.SaveCPR
	case "sna":
		return delayed.SaveSNA
	case "tape", "cdt", "tzx":
		return delayed.SaveTape
	default:
		return delayed.SaveBinary
	}
}

func (e *Env) visitPrint(loc token.Located) error {
	var parts []string
	for _, a := range loc.Tok.PrintArgs {
		v, err := e.evalDeferred(a, loc.Span)
		if err != nil {
			e.activeQueue().Push(delayed.Command{Kind: delayed.KindPrint, Span: loc.Span, PrintErr: err})
			return nil
		}
		parts = append(parts, v.ToString())
	}
	e.activeQueue().Push(delayed.Command{Kind: delayed.KindPrint, Span: loc.Span, Text: strings.Join(parts, " ")})
	return nil
}

func (e *Env) visitAssert(loc token.Located) error {
	v, err := e.evalDeferred(loc.Tok.AssertExpr, loc.Span)
	if err != nil {
		return err
	}
	if v.Truthy() {
		e.store.Record(control.Op{Kind: control.OpAssert, Span: loc.Span, PageIndex: e.pageIndex, AssertOK: true})
		return nil
	}
	msg := "assertion failed"
	if loc.Tok.AssertFmt != "" {
		var args []interface{}
		for _, a := range loc.Tok.AssertArgs {
			av, err := e.evalDeferred(a, loc.Span)
			if err == nil {
				args = append(args, av.ToString())
			}
		}
		msg = fmt.Sprintf(loc.Tok.AssertFmt, args...)
	}
	e.store.Record(control.Op{Kind: control.OpAssert, Span: loc.Span, PageIndex: e.pageIndex, AssertOK: false, AssertErrMsg: msg})
	e.activeQueue().Push(delayed.Command{
		Kind: delayed.KindFailedAssert, Span: loc.Span,
		AssertErr: asmerr.New(loc.Span, asmerr.ErrAssembling, "%s", msg),
	})
	return nil
}

func (e *Env) visitLimit(loc token.Located) error {
	v, err := e.evalDeferred(loc.Tok.Expr, loc.Span)
	if err != nil {
		return err
	}
	vi, _ := v.ToInt()
	e.activePage().SetLimit(int(vi))
	return nil
}

func (e *Env) visitProtect(loc token.Located) error {
	lo, err := e.evalDeferred(loc.Tok.Expr, loc.Span)
	if err != nil {
		return err
	}
	hi, err := e.evalDeferred(loc.Tok.ProtectHi, loc.Span)
	if err != nil {
		return err
	}
	loi, _ := lo.ToInt()
	hii, _ := hi.ToInt()
	e.activePage().Protect(int(loi), int(hii))
	return nil
}

func (e *Env) visitBankset(loc token.Located) error {
	v, err := e.evalDeferred(loc.Tok.Expr, loc.Span)
	if err != nil {
		return err
	}
	vi, _ := v.ToInt()
	e.pagesetIndex = int(vi)
	return nil
}

func (e *Env) visitBank(loc token.Located) error {
	v, err := e.evalDeferred(loc.Tok.Expr, loc.Span)
	if err != nil {
		return err
	}
	vi, _ := v.ToInt()
	n := int(vi)
	b, ok := e.banks[n]
	if !ok {
		p := e.Page(len(e.pages))
		b = page.NewBank(n, p)
		e.banks[n] = b
		e.bankOrder = append(e.bankOrder, n)
	}
	e.pageIndex = b.Page.Index
	e.bankIndex = n
	return nil
}

func (e *Env) visitPage(loc token.Located) error {
	v, err := e.evalDeferred(loc.Tok.Expr, loc.Span)
	if err != nil {
		return err
	}
	vi, _ := v.ToInt()
	e.pageIndex = int(vi)
	e.Page(e.pageIndex)
	return nil
}

// visitSection implements the "section name" directive: the first
// reference creates the named zone starting at the current output
// address and running to the end of the page; later references switch
// into it, saving the active section's cursors and restoring the new
// section's own.
func (e *Env) visitSection(loc token.Located) error {
	p := e.activePage()
	s, ok := p.LookupSection(loc.Tok.Name)
	if !ok {
		s = p.Section(loc.Tok.Name, p.OutputAddress(), page.Size-1)
	}
	p.SwitchSection(s)
	return nil
}

func (e *Env) visitBreakpoint(loc token.Located) error {
	entry := breakpointEntry{Span: loc.Span}
	if loc.Tok.Expr != nil {
		v, err := e.evalDeferred(loc.Tok.Expr, loc.Span)
		if err != nil {
			return err
		}
		vi, _ := v.ToInt()
		entry.Addr, entry.Has = vi, true
	} else {
		entry.Addr, entry.Has = int32(e.activePage().CodeAddress()), true
	}
	e.breakpoints = append(e.breakpoints, entry)
	return nil
}

func (e *Env) visitRun(loc token.Located) error {
	v, err := e.evalDeferred(loc.Tok.Expr, loc.Span)
	if err != nil {
		return err
	}
	vi, _ := v.ToInt()
	e.snapshotPC, e.hasSnapshotPC = vi, true
	return nil
}
