package symbol

import (
	"testing"

	"github.com/cpcsdk/basm/value"
)

func TestCaseSensitivityToggle(t *testing.T) {
	t.Run("case sensitive", func(t *testing.T) {
		tab := New(true)
		if err := tab.Define("FOO", value.NewInt(1), KindEqu); err != nil {
			t.Fatal(err)
		}
		if _, ok := tab.Lookup("foo"); ok {
			t.Error("expected foo and FOO to be distinct symbols")
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		tab := New(false)
		if err := tab.Define("FOO", value.NewInt(1), KindEqu); err != nil {
			t.Fatal(err)
		}
		v, ok := tab.Lookup("foo")
		if !ok {
			t.Fatal("expected foo to resolve to FOO")
		}
		if i, _ := v.ToInt(); i != 1 {
			t.Errorf("got %d, want 1", i)
		}
	})
}

func TestLabelsResetAcrossPasses(t *testing.T) {
	tab := New(true)
	if err := tab.Define("LOOP", value.NewInt(0x400), KindLabel); err != nil {
		t.Fatal(err)
	}
	if err := tab.Define("MAXV", value.NewInt(10), KindEqu); err != nil {
		t.Fatal(err)
	}
	tab.BeginPass()
	if _, ok := tab.Lookup("LOOP"); ok {
		t.Error("expected label to be cleared at new pass")
	}
	if v, ok := tab.Lookup("MAXV"); !ok {
		t.Error("expected equ to survive pass reset")
	} else if i, _ := v.ToInt(); i != 10 {
		t.Errorf("got %d, want 10", i)
	}
}

func TestDuplicateLabelWithinPass(t *testing.T) {
	tab := New(true)
	if err := tab.Define("START", value.NewInt(0), KindLabel); err != nil {
		t.Fatal(err)
	}
	if err := tab.Define("START", value.NewInt(1), KindLabel); err == nil {
		t.Fatal("expected duplicate definition error")
	}
}

func TestEquCannotBeRedefinedWithoutSet(t *testing.T) {
	tab := New(true)
	if err := tab.Define("SIZE", value.NewInt(4), KindEqu); err != nil {
		t.Fatal(err)
	}
	if err := tab.Define("SIZE", value.NewInt(8), KindEqu); err == nil {
		t.Fatal("expected error redefining equ")
	}
	if err := tab.Define("SIZE", value.NewInt(8), KindSet); err != nil {
		t.Fatalf("set should be allowed to redefine: %v", err)
	}
}

func TestScopedLocalLabel(t *testing.T) {
	tab := New(true)
	tab.EnterScope("loop1")
	if err := tab.Define(".again", value.NewInt(0x10), KindLabel); err != nil {
		t.Fatal(err)
	}
	v, ok := tab.Lookup(".again")
	if !ok {
		t.Fatal("expected scoped local label to resolve")
	}
	if i, _ := v.ToInt(); i != 0x10 {
		t.Errorf("got %d, want 16", i)
	}
	tab.LeaveScope()
}

func TestGenerationMonotonic(t *testing.T) {
	tab := New(true)
	g0 := tab.Generation()
	tab.BeginPass()
	if tab.Generation() <= g0 {
		t.Error("expected generation to increase")
	}
}
