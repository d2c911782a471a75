package encoder

import (
	"bytes"
	"testing"

	"github.com/cpcsdk/basm/expr"
	"github.com/cpcsdk/basm/value"
)

func imm(n int32) Operand { return Immediate(expr.NewLit(value.NewInt(n))) }

func resolveConst(o Operand) (int32, bool, error) {
	if o.Val == nil {
		return 0, true, nil
	}
	v, err := expr.Eval(o.Val, nil)
	if err != nil {
		return 0, false, err
	}
	i, err := v.ToInt()
	return i, true, err
}

func TestEncodeSimpleFixed(t *testing.T) {
	cases := []struct {
		m    string
		want []byte
	}{
		{"NOP", []byte{0x00}},
		{"HALT", []byte{0x76}},
		{"EXX", []byte{0xD9}},
		{"RET", []byte{0xC9}},
		{"LDIR", []byte{0xED, 0xB0}},
	}
	for _, c := range cases {
		got, err := Encode(c.m, nil, resolveConst)
		if err != nil {
			t.Fatalf("%s: %v", c.m, err)
		}
		if !bytes.Equal(got, c.want) {
			t.Errorf("%s: got % x, want % x", c.m, got, c.want)
		}
	}
}

func TestEncodeLDRegReg(t *testing.T) {
	got, err := Encode("LD", []Operand{Reg("A"), Reg("B")}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x78}; !bytes.Equal(got, want) {
		t.Errorf("LD A,B: got % x, want % x", got, want)
	}
}

func TestEncodeLDImmediate(t *testing.T) {
	got, err := Encode("LD", []Operand{Reg("A"), imm(0x42)}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x3E, 0x42}; !bytes.Equal(got, want) {
		t.Errorf("LD A,42h: got % x, want % x", got, want)
	}
}

func TestEncodeLDHLImmediate16(t *testing.T) {
	got, err := Encode("LD", []Operand{Reg("HL"), imm(0x1234)}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x21, 0x34, 0x12}; !bytes.Equal(got, want) {
		t.Errorf("LD HL,1234h: got % x, want % x", got, want)
	}
}

func TestEncodeLDIndirectHL(t *testing.T) {
	got, err := Encode("LD", []Operand{IndirectReg("HL"), Reg("A")}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x77}; !bytes.Equal(got, want) {
		t.Errorf("LD (HL),A: got % x, want % x", got, want)
	}
}

func TestEncodeLDIndexed(t *testing.T) {
	got, err := Encode("LD", []Operand{Reg("A"), Indexed("IX", expr.NewLit(value.NewInt(5)))}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0xDD, 0x7E, 0x05}; !bytes.Equal(got, want) {
		t.Errorf("LD A,(IX+5): got % x, want % x", got, want)
	}
}

func TestEncodePushPop(t *testing.T) {
	got, err := Encode("PUSH", []Operand{Reg("BC")}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0xC5}; !bytes.Equal(got, want) {
		t.Errorf("PUSH BC: got % x, want % x", got, want)
	}
	got, err = Encode("POP", []Operand{Reg("IX")}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0xDD, 0xE1}; !bytes.Equal(got, want) {
		t.Errorf("POP IX: got % x, want % x", got, want)
	}
}

func TestEncodeAddHLBC(t *testing.T) {
	got, err := Encode("ADD", []Operand{Reg("HL"), Reg("BC")}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0x09}; !bytes.Equal(got, want) {
		t.Errorf("ADD HL,BC: got % x, want % x", got, want)
	}
}

func TestEncodeAluImmediate(t *testing.T) {
	got, err := Encode("AND", []Operand{imm(0x0F)}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0xE6, 0x0F}; !bytes.Equal(got, want) {
		t.Errorf("AND 0Fh: got % x, want % x", got, want)
	}
}

func TestEncodeJPConditional(t *testing.T) {
	got, err := Encode("JP", []Operand{Cond("NZ"), imm(0x8000)}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0xC2, 0x00, 0x80}; !bytes.Equal(got, want) {
		t.Errorf("JP NZ,8000h: got % x, want % x", got, want)
	}
}

func TestEncodeBit(t *testing.T) {
	got, err := Encode("BIT", []Operand{imm(3), Reg("B")}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0xCB, 0x58}; !bytes.Equal(got, want) {
		t.Errorf("BIT 3,B: got % x, want % x", got, want)
	}
}

func TestEncodeRotateIndexed(t *testing.T) {
	got, err := Encode("RLC", []Operand{Indexed("IY", expr.NewLit(value.NewInt(2)))}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0xFD, 0xCB, 0x02, 0x06}; !bytes.Equal(got, want) {
		t.Errorf("RLC (IY+2): got % x, want % x", got, want)
	}
}

func TestEncodeRST(t *testing.T) {
	got, err := Encode("RST", []Operand{imm(0x10)}, resolveConst)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{0xD7}; !bytes.Equal(got, want) {
		t.Errorf("RST 10h: got % x, want % x", got, want)
	}
}

func TestEncodeUnknownMnemonic(t *testing.T) {
	if _, err := Encode("FROB", nil, resolveConst); err == nil {
		t.Fatal("expected error for unknown mnemonic")
	}
}
