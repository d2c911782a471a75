/*
 * basm - control store tests
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

package control

import "testing"

func TestRecordPreservesOrder(t *testing.T) {
	var s Store
	s.Record(Op{Kind: OpOrg, CodeAddr: 0x8000, OutputAddr: 0x8000})
	s.Record(Op{Kind: OpOutputByte, PageIndex: 0, Byte: 0xC9})
	s.Record(Op{Kind: OpOutputBytes, PageIndex: 0, Bytes: []byte{1, 2}})

	ops := s.Ops()
	if len(ops) != 3 || s.Len() != 3 {
		t.Fatalf("recorded %d ops, want 3", len(ops))
	}
	wantKinds := []OpKind{OpOrg, OpOutputByte, OpOutputBytes}
	for i, k := range wantKinds {
		if ops[i].Kind != k {
			t.Errorf("op %d kind = %d, want %d", i, ops[i].Kind, k)
		}
	}
	if ops[0].CodeAddr != 0x8000 {
		t.Errorf("org code addr = %#x, want 0x8000", ops[0].CodeAddr)
	}
	if ops[1].Byte != 0xC9 {
		t.Errorf("byte = %#x, want 0xC9", ops[1].Byte)
	}
}

func TestResetClearsStore(t *testing.T) {
	var s Store
	s.Record(Op{Kind: OpOutputByte})
	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", s.Len())
	}
}
