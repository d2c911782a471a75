package page

import "testing"

func TestWriteProtocol(t *testing.T) {
	p := New(0)
	p.SetOrg(0x400, nil)
	if err := p.OutputByte(0xC3); err != nil {
		t.Fatal(err)
	}
	if p.StartAddr() != 0x400 {
		t.Errorf("startAddr = %#x, want 0x400", p.StartAddr())
	}
	if p.MaxAddr() != 0x400 {
		t.Errorf("maxAddr = %#x, want 0x400", p.MaxAddr())
	}
	if !p.WasWritten(0x400) {
		t.Error("expected byte 0x400 marked written")
	}
	if p.WasWritten(0x401) {
		t.Error("expected byte 0x401 not written")
	}
	if p.OutputAddress() != 0x401 {
		t.Errorf("output cursor = %#x, want 0x401", p.OutputAddress())
	}
}

func TestProtectEnforcement(t *testing.T) {
	p := New(0)
	p.SetOrg(0x1000, nil)
	p.Protect(0x1000, 0x1010)
	err := p.OutputByte(0x00)
	if err == nil {
		t.Fatal("expected write into protected range to fail")
	}
	if p.WasWritten(0x1000) {
		t.Error("expected no byte written on protect failure")
	}
}

func TestLimitEnforcement(t *testing.T) {
	p := New(0)
	p.SetOrg(0xFFFF, nil)
	p.SetLimit(0xFFFE)
	if err := p.OutputByte(0x00); err == nil {
		t.Fatal("expected write beyond limit to fail")
	}
}

func TestAddressWraps(t *testing.T) {
	p := New(0)
	p.SetOrg(0xFFFF, nil)
	p.SetLimit(0xFFFF)
	if err := p.OutputByte(0x01); err != nil {
		t.Fatal(err)
	}
	if p.OutputAddress() != 0 {
		t.Errorf("expected output address to wrap to 0, got %#x", p.OutputAddress())
	}
}

func TestRorgReportsRelocatedAddress(t *testing.T) {
	p := New(0)
	p.SetOrg(0x8000, nil)
	p.SetRorg(-0x4000) // code runs as if at 0x4000 while stored at 0x8000
	if p.CodeAddress() != 0x4000 {
		t.Errorf("code address = %#x, want 0x4000", p.CodeAddress())
	}
	_ = p.OutputByte(0x00)
	if p.OutputAddress() != 0x8001 {
		t.Errorf("output address = %#x, want 0x8001", p.OutputAddress())
	}
	if p.CodeAddress() != 0x4001 {
		t.Errorf("code address after write = %#x, want 0x4001", p.CodeAddress())
	}
}

func TestSectionSwitchPreservesCursors(t *testing.T) {
	p := New(0)
	a := p.Section("a", 0x100, 0x1FF)
	b := p.Section("b", 0x200, 0x2FF)
	p.SwitchSection(a)
	p.SetOrg(0x100, nil)
	_ = p.OutputByte(0x01)
	p.SwitchSection(b)
	p.SetOrg(0x200, nil)
	_ = p.OutputByte(0x02)
	p.SwitchSection(a)
	if p.OutputAddress() != 0x101 {
		t.Errorf("section a output = %#x, want 0x101", p.OutputAddress())
	}
}

func TestBankWindow(t *testing.T) {
	p := New(1)
	p.SetOrg(0xC000, nil)
	bank := NewBank(5, p)
	_ = p.OutputByte(0xAA)
	_ = p.OutputByte(0xBB)
	bytes := bank.Bytes()
	if len(bytes) != BankSize {
		t.Fatalf("bank size = %d, want %d", len(bytes), BankSize)
	}
	if bytes[0] != 0xAA || bytes[1] != 0xBB {
		t.Errorf("unexpected bank content: %v", bytes[:4])
	}
	if bank.RiffCode() != "cb05" {
		t.Errorf("riff code = %q, want cb05", bank.RiffCode())
	}
}
