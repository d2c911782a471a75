/*
 * basm - symbol table
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

// Package symbol implements the engine's symbol table: a scoped,
// qualified-name to value.Value map supporting case folding, local-label
// suffixes, and the per-pass label reset that drives convergence
// detection.
package symbol

import (
	"strings"

	"github.com/cpcsdk/basm/value"
)

// Kind distinguishes how a symbol was defined, which controls whether it
// may be redefined.
type Kind int

const (
	KindLabel Kind = iota
	KindEqu
	KindSet
	KindForward
)

type entry struct {
	value      value.Value
	kind       Kind
	generation int
	page       int // producing page index, for {page}/{bank}/{pageset} prefixes
	bank       int
	pageset    int
}

// Table is the engine's symbol table. Zero value is not usable; use New.
type Table struct {
	caseSensitive bool
	entries       map[string]entry
	order         []string        // first-definition order, for symbol-file emission
	orderSeen     map[string]bool // dedupes order against labels cleared and redefined across passes
	scopes        []string        // prefix stack, innermost last
	generation    int
	changed       bool // any symbol defined/redefined with a different value this pass
}

// New creates a symbol table. caseSensitive fixes folding behaviour for
// the table's lifetime.
func New(caseSensitive bool) *Table {
	return &Table{
		caseSensitive: caseSensitive,
		entries:       make(map[string]entry),
	}
}

func (t *Table) fold(name string) string {
	if t.caseSensitive {
		return name
	}
	return strings.ToUpper(name)
}

// IsCaseSensitive reports the fixed case-sensitivity of the table.
func (t *Table) IsCaseSensitive() bool { return t.caseSensitive }

// Generation returns the monotonically increasing pass counter, used by
// the engine to detect "nothing changed this pass".
func (t *Table) Generation() int { return t.generation }

// Changed reports whether any symbol was defined or changed value during
// the current pass.
func (t *Table) Changed() bool { return t.changed }

// EnterScope pushes a new qualifying prefix, used around macro
// invocations, iteration constructs and module blocks.
func (t *Table) EnterScope(prefix string) {
	t.scopes = append(t.scopes, prefix)
}

// LeaveScope pops the innermost scope prefix.
func (t *Table) LeaveScope() {
	if len(t.scopes) == 0 {
		return
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// BeginPass clears label definitions (equ/set survive), bumps the
// generation counter and resets the changed flag.
func (t *Table) BeginPass() {
	t.generation++
	t.changed = false
	for name, e := range t.entries {
		if e.kind == KindLabel || e.kind == KindForward {
			delete(t.entries, name)
		}
	}
}

// qualify prefixes a bare name with the current module/loop scope stack
// joined by '.', if any. Attaching a '.local' name to its preceding
// non-local label is done by the engine before the name reaches the
// table.
func (t *Table) qualify(name string) string {
	if len(t.scopes) == 0 {
		return name
	}
	return strings.Join(t.scopes, ".") + "." + name
}

// The table keeps no last-label state of its own; see qualify.
var _ = strings.HasPrefix

// Define assigns name = val with the given Kind. Label definitions may be
// redefined across passes but never twice within the same pass; equ may
// not be redefined without kind==KindSet.
func (t *Table) Define(name string, val value.Value, kind Kind) error {
	key := t.fold(t.qualify(name))
	prev, exists := t.entries[key]

	if exists {
		switch prev.kind {
		case KindEqu:
			if kind != KindSet {
				return &DuplicateError{Name: name}
			}
		case KindLabel:
			if kind == KindLabel && prev.generation == t.generation {
				return &DuplicateError{Name: name}
			}
		}
		if !valuesEqual(prev.value, val) {
			t.changed = true
		}
	} else {
		t.changed = true
		if !t.orderSeen[key] {
			if t.orderSeen == nil {
				t.orderSeen = make(map[string]bool)
			}
			t.orderSeen[key] = true
			t.order = append(t.order, key)
		}
	}

	t.entries[key] = entry{value: val, kind: kind, generation: t.generation}
	return nil
}

// DefineLocated additionally records the producing page/bank/pageset used
// to resolve {page}/{bank}/{pageset} prefixes.
func (t *Table) DefineLocated(name string, val value.Value, kind Kind, page, bank, pageset int) error {
	if err := t.Define(name, val, kind); err != nil {
		return err
	}
	key := t.fold(t.qualify(name))
	e := t.entries[key]
	e.page, e.bank, e.pageset = page, bank, pageset
	t.entries[key] = e
	return nil
}

func valuesEqual(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	ea, eq1 := value.Eq(a, b)
	if eq1 == nil {
		return ea.Truthy()
	}
	return a.ToString() == b.ToString()
}

// Lookup resolves name against the scope stack, innermost to outermost.
func (t *Table) Lookup(name string) (value.Value, bool) {
	// try fully qualified first (handles .local suffixes against current scope)
	if len(t.scopes) > 0 {
		for i := len(t.scopes); i >= 0; i-- {
			key := t.fold(strings.Join(t.scopes[:i], ".") + boolSuffix(i, name))
			if e, ok := t.entries[key]; ok {
				return e.value, true
			}
		}
	}
	if e, ok := t.entries[t.fold(name)]; ok {
		return e.value, true
	}
	return value.Value{}, false
}

func boolSuffix(i int, name string) string {
	if i == 0 {
		return name
	}
	return "." + name
}

// Location returns the producing page/bank/pageset recorded for name via
// DefineLocated, used by {bank}/{page}/{pageset} prefixed references.
func (t *Table) Location(name string) (page, bank, pageset int, ok bool) {
	if len(t.scopes) > 0 {
		for i := len(t.scopes); i >= 0; i-- {
			key := t.fold(strings.Join(t.scopes[:i], ".") + boolSuffix(i, name))
			if e, found := t.entries[key]; found {
				return e.page, e.bank, e.pageset, true
			}
		}
	}
	if e, found := t.entries[t.fold(name)]; found {
		return e.page, e.bank, e.pageset, true
	}
	return 0, 0, 0, false
}

// DuplicateError is raised by Define when a label is redefined within a
// single pass, or an equ is redefined without `set`.
type DuplicateError struct{ Name string }

func (e *DuplicateError) Error() string { return "duplicate symbol definition: " + e.Name }

// Names returns currently-defined symbol names in definition order, for
// symbol-file emission. A name cleared by BeginPass (an ordinary label,
// not yet redefined this pass) is skipped until it reappears.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for _, k := range t.order {
		if _, ok := t.entries[k]; ok {
			names = append(names, k)
		}
	}
	return names
}

// Value looks up a raw qualified name without scope resolution (used by
// the symbol-file writer, which already has canonical names).
func (t *Table) Value(qualified string) (value.Value, bool) {
	e, ok := t.entries[t.fold(qualified)]
	return e.value, ok
}
