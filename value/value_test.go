package value

import "testing"

func TestWrappingArithmetic(t *testing.T) {
	tests := []struct {
		name string
		a, b int32
		op   func(Value, Value) (Value, error)
		want int32
	}{
		{"overflow add", 0x7FFFFFFF, 1, Add, -0x80000000},
		{"underflow sub", 0, 1, Sub, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(NewInt(tt.a), NewInt(tt.b))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			i, _ := got.ToInt()
			if i != tt.want {
				t.Errorf("got %d, want %d", i, tt.want)
			}
		})
	}
}

func TestUint32WrapSemantics(t *testing.T) {
	// (0xFFFFFFFF + 1) == 0
	v, err := Add(NewInt(-1), NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if i, _ := v.ToInt(); i != 0 {
		t.Errorf("0xFFFFFFFF+1 = %d, want 0", i)
	}

	// (0 - 1) == 0xFFFFFFFF
	v, err = Sub(NewInt(0), NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if i, _ := v.ToInt(); uint32(i) != 0xFFFFFFFF {
		t.Errorf("0-1 = %#x, want 0xFFFFFFFF", uint32(i))
	}

	// (1 << 32) == 0
	v, err = Shl(NewInt(1), NewInt(32))
	if err != nil {
		t.Fatal(err)
	}
	if i, _ := v.ToInt(); i != 0 {
		// the only set bit is shifted out of the 32-bit word
		t.Errorf("1<<32 = %d, want 0", i)
	}
}

func TestDivisionByZero(t *testing.T) {
	_, err := Div(NewInt(1), NewInt(0))
	if err == nil {
		t.Fatal("expected division by zero error")
	}
	var ve *Error
	if !asError(err, &ve) || ve.Kind != DivisionByZero {
		t.Errorf("expected DivisionByZero, got %v", err)
	}
}

func asError(err error, target **Error) bool {
	v, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = v
	return true
}

func TestMixedIntFloatPromotion(t *testing.T) {
	v, err := Add(NewInt(1), NewFloat(0.5))
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind() != Float {
		t.Fatalf("expected float result, got %s", v.Kind())
	}
	f, _ := v.ToFloat()
	if f != 1.5 {
		t.Errorf("got %v, want 1.5", f)
	}
}

func TestStringConcat(t *testing.T) {
	v, err := Add(NewString("foo"), NewInt(42))
	if err != nil {
		t.Fatal(err)
	}
	if v.ToString() != "foo42" {
		t.Errorf("got %q, want foo42", v.ToString())
	}
}

func TestListConcat(t *testing.T) {
	v, err := Add(NewList([]Value{NewInt(1)}), NewList([]Value{NewInt(2)}))
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Items()) != 2 {
		t.Errorf("expected 2 items, got %d", len(v.Items()))
	}
}

func TestMatrixBounds(t *testing.T) {
	m, err := NewMatrix(2, 3, NewInt(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := MatrixGet(m, NewInt(5), NewInt(0)); err == nil {
		t.Fatal("expected out of bounds error")
	}
	m2, err := MatrixSet(m, NewInt(0), NewInt(0), NewInt(7))
	if err != nil {
		t.Fatal(err)
	}
	got, err := MatrixGet(m2, NewInt(0), NewInt(0))
	if err != nil {
		t.Fatal(err)
	}
	if i, _ := got.ToInt(); i != 7 {
		t.Errorf("got %d, want 7", i)
	}
}

func TestHeterogeneousComparisonErrors(t *testing.T) {
	_, err := Eq(NewString("x"), NewList(nil))
	if err == nil {
		t.Fatal("expected incompatible types error")
	}
}
