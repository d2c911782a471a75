package expr

import (
	"testing"

	"github.com/cpcsdk/basm/value"
)

type fakeEnv struct {
	syms map[string]value.Value
	addr int32
}

func (f *fakeEnv) LookupSymbol(name string) (value.Value, bool) {
	v, ok := f.syms[name]
	return v, ok
}

func (f *fakeEnv) LookupLocation(name string) (int, int, int, bool) {
	return 0, 0, 0, false
}

func (f *fakeEnv) CallFunction(name string, args []value.Value) (value.Value, error) {
	return value.Value{}, &UnknownFunctionError{Name: name}
}

func (f *fakeEnv) CurrentAddress() int32 { return f.addr }

func TestPrecedenceAndArithmetic(t *testing.T) {
	env := &fakeEnv{syms: map[string]value.Value{}}
	// 2 + 3 * 4 == 14
	n := NewBin("+", NewLit(value.NewInt(2)), NewBin("*", NewLit(value.NewInt(3)), NewLit(value.NewInt(4))))
	v, err := Eval(n, env)
	if err != nil {
		t.Fatal(err)
	}
	if i, _ := v.ToInt(); i != 14 {
		t.Errorf("got %d, want 14", i)
	}
}

func TestUndefinedSymbolDistinguishable(t *testing.T) {
	env := &fakeEnv{syms: map[string]value.Value{}}
	_, err := Eval(NewSym("LABEL"), env)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*UndefinedSymbolError); !ok {
		t.Errorf("expected UndefinedSymbolError, got %T", err)
	}
}

func TestShortCircuitAnd(t *testing.T) {
	env := &fakeEnv{syms: map[string]value.Value{}}
	// false and UNDEF should not evaluate UNDEF
	n := NewBin("and", NewLit(value.NewBool(false)), NewSym("UNDEF"))
	v, err := Eval(n, env)
	if err != nil {
		t.Fatal(err)
	}
	if v.Truthy() {
		t.Error("expected false")
	}
}

func TestShortCircuitOr(t *testing.T) {
	env := &fakeEnv{syms: map[string]value.Value{}}
	n := NewBin("or", NewLit(value.NewBool(true)), NewSym("UNDEF"))
	v, err := Eval(n, env)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Truthy() {
		t.Error("expected true")
	}
}

func TestCallIntrinsicMax(t *testing.T) {
	env := &fakeEnv{syms: map[string]value.Value{}}
	n := NewCall("max", []*Node{
		NewLit(value.NewInt(10)), NewLit(value.NewInt(50)), NewLit(value.NewInt(20)),
	})
	v, err := Eval(n, env)
	if err != nil {
		t.Fatal(err)
	}
	if i, _ := v.ToInt(); i != 50 {
		t.Errorf("got %d, want 50", i)
	}
}

func TestPrefixedSymLocation(t *testing.T) {
	env := &fakeEnv{syms: map[string]value.Value{}}
	_, err := Eval(NewPrefixedSym(PrefixBank, "TABLE"), env)
	if err == nil {
		t.Fatal("expected error: symbol not located")
	}
}

func TestCurrentAddress(t *testing.T) {
	env := &fakeEnv{syms: map[string]value.Value{}, addr: 0x4000}
	v, err := Eval(NewSym("$"), env)
	if err != nil {
		t.Fatal(err)
	}
	if i, _ := v.ToInt(); i != 0x4000 {
		t.Errorf("got %#x, want 0x4000", i)
	}
}

func TestListAndIndex(t *testing.T) {
	env := &fakeEnv{syms: map[string]value.Value{}}
	lst := NewList([]*Node{NewLit(value.NewInt(1)), NewLit(value.NewInt(2)), NewLit(value.NewInt(3))})
	idx := NewIndex(lst, []*Node{NewLit(value.NewInt(1))})
	v, err := Eval(idx, env)
	if err != nil {
		t.Fatal(err)
	}
	if i, _ := v.ToInt(); i != 2 {
		t.Errorf("got %d, want 2", i)
	}
}
