/*
 * basm - delayed command queue tests
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

package delayed

import "testing"

func TestPushPreservesFIFOOrder(t *testing.T) {
	var q Queue
	q.Push(Command{Kind: KindPrint, Text: "first"})
	q.Push(Command{Kind: KindSave, Path: "out.bin", FileKind: SaveBinary, Lo: 0x8000, Hi: 0x8002})
	q.Push(Command{Kind: KindPause})

	cmds := q.All()
	if len(cmds) != 3 || q.Len() != 3 {
		t.Fatalf("queued %d commands, want 3", len(cmds))
	}
	if cmds[0].Kind != KindPrint || cmds[0].Text != "first" {
		t.Errorf("command 0 = %+v, want the print", cmds[0])
	}
	if cmds[1].Kind != KindSave || cmds[1].Path != "out.bin" {
		t.Errorf("command 1 = %+v, want the save", cmds[1])
	}
	if cmds[2].Kind != KindPause {
		t.Errorf("command 2 kind = %d, want KindPause", cmds[2].Kind)
	}
}

func TestClearEmptiesQueue(t *testing.T) {
	var q Queue
	q.Push(Command{Kind: KindPrint, Text: "stale"})
	q.Clear()
	if q.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", q.Len())
	}
}
