package build

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func parseRules(t *testing.T, doc string) []*Rule {
	t.Helper()
	var rules []*Rule
	if err := yaml.Unmarshal([]byte(doc), &rules); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return rules
}

func TestRuleAliases(t *testing.T) {
	doc := `
- target: out.bin
  dependency: src.asm
  launch: basm -i src.asm -o out.bin
`
	rules := parseRules(t, doc)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	r := rules[0]
	if len(r.Targets) != 1 || r.Targets[0] != "out.bin" {
		t.Errorf("targets = %v", r.Targets)
	}
	if len(r.Dependencies) != 1 || r.Dependencies[0] != "src.asm" {
		t.Errorf("deps = %v", r.Dependencies)
	}
	if len(r.Commands) != 1 || r.Commands[0] != "basm -i src.asm -o out.bin" {
		t.Errorf("commands = %v", r.Commands)
	}
}

func TestRuleCommandList(t *testing.T) {
	doc := `
- tgt: out.bin
  cmd:
    - mkdir build
    - basm -i src.asm -o out.bin
`
	rules := parseRules(t, doc)
	if len(rules[0].Commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(rules[0].Commands))
	}
}

func TestPhonyInference(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "out.bin")
	if err := os.WriteFile(real, []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}
	r := &Rule{Targets: []string{real}}
	exists := func(p string) bool { _, err := os.Stat(p); return err == nil }
	if r.IsPhony(exists) {
		t.Error("rule with an existing file target should not be phony")
	}

	r2 := &Rule{Targets: []string{"all"}}
	if !r2.IsPhony(exists) {
		t.Error("rule with no real file target should be inferred phony")
	}

	r3 := &Rule{Targets: []string{real}, Phony: true, phonySet: true}
	if !r3.IsPhony(exists) {
		t.Error("explicit phony:true should override inference")
	}
}

func TestOSPredicate(t *testing.T) {
	r := &Rule{If: "windows"}
	if r.MatchesOS("linux") {
		t.Error("windows predicate should not match linux")
	}
	if !r.MatchesOS("windows") {
		t.Error("windows predicate should match windows")
	}

	r2 := &Rule{If: "not(windows)"}
	if !r2.MatchesOS("linux") {
		t.Error("not(windows) should match linux")
	}
	if r2.MatchesOS("windows") {
		t.Error("not(windows) should not match windows")
	}
}

func TestTopologicalLayering(t *testing.T) {
	rules := []*Rule{
		{Targets: []string{"final.bin"}, Dependencies: []string{"mid.bin"}},
		{Targets: []string{"mid.bin"}, Dependencies: []string{"src.asm"}},
	}
	g, err := NewGraph(rules)
	if err != nil {
		t.Fatal(err)
	}
	layers, err := g.Layers()
	if err != nil {
		t.Fatal(err)
	}
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(layers))
	}
	if layers[0][0].Targets[0] != "mid.bin" {
		t.Errorf("layer 0 = %v, want mid.bin first (leaf dependency before dependent)", layers[0])
	}
	if layers[1][0].Targets[0] != "final.bin" {
		t.Errorf("layer 1 = %v, want final.bin", layers[1])
	}
}

func TestCycleDetected(t *testing.T) {
	rules := []*Rule{
		{Targets: []string{"a"}, Dependencies: []string{"b"}},
		{Targets: []string{"b"}, Dependencies: []string{"a"}},
	}
	g, err := NewGraph(rules)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Layers(); err == nil {
		t.Fatal("expected a dependency cycle error")
	}
}

func TestDuplicateTargetRejected(t *testing.T) {
	rules := []*Rule{
		{Targets: []string{"out.bin"}, Dependencies: []string{"a.asm"}},
		{Targets: []string{"out.bin"}, Dependencies: []string{"b.asm"}},
	}
	if _, err := NewGraph(rules); err == nil {
		t.Fatal("expected a duplicate-target dependency error")
	}
}

func TestOutdatedNoOpOnSecondBuild(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.asm")
	out := filepath.Join(dir, "out.bin")
	if err := os.WriteFile(src, []byte("org 0\n db 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rules := []*Rule{{Targets: []string{out}, Dependencies: []string{src}, Commands: []string{"cp " + src + " " + out}}}
	g, err := NewGraph(rules)
	if err != nil {
		t.Fatal(err)
	}
	if !NewChecker(g, nil).Outdated(out) {
		t.Fatal("expected out.bin to be outdated before its first build")
	}

	if err := os.WriteFile(out, []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(out, time.Now().Add(time.Hour), time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if NewChecker(g, nil).Outdated(out) {
		t.Error("expected out.bin to be up to date once newer than its dependency")
	}
}

func TestOutdatedPropagatesThroughChain(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.asm")
	mid := filepath.Join(dir, "mid.bin")
	final := filepath.Join(dir, "final.bin")
	now := time.Now()
	for i, p := range []string{src, mid, final} {
		if err := os.WriteFile(p, []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		// mid and final both look newer than src by default file-creation
		// order, so force src to be the newest: a rebuild should still
		// cascade to final through mid.
	}
	if err := os.Chtimes(src, now.Add(time.Hour), now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	rules := []*Rule{
		{Targets: []string{final}, Dependencies: []string{mid}, Commands: []string{"cp " + mid + " " + final}},
		{Targets: []string{mid}, Dependencies: []string{src}, Commands: []string{"cp " + src + " " + mid}},
	}
	g, err := NewGraph(rules)
	if err != nil {
		t.Fatal(err)
	}
	if !NewChecker(g, nil).Outdated(final) {
		t.Error("expected final.bin outdated: its grandparent dependency is newer")
	}
}

func TestTemplateExpansion(t *testing.T) {
	rule := &Rule{Targets: []string{"out.bin"}, Dependencies: []string{"a.asm", "b.asm"}}
	got := expandTemplate("basm -o $@ $^", rule, nil)
	want := "basm -o out.bin a.asm b.asm"
	if got != want {
		t.Errorf("expandTemplate = %q, want %q", got, want)
	}
}

func TestTemplateExpansionUserVars(t *testing.T) {
	rule := &Rule{Targets: []string{"out.bin"}}
	got := expandTemplate("basm -I {{include}}", rule, map[string]string{"include": "lib/"})
	if got != "basm -I lib/" {
		t.Errorf("expandTemplate = %q", got)
	}
}

func TestBraceExpansion(t *testing.T) {
	got := expandBraces("out.{bin,sym}")
	want := []string{"out.bin", "out.sym"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expandBraces = %v, want %v", got, want)
	}
}

func TestOrchestratorRunsLayeredBuild(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.asm")
	out := filepath.Join(dir, "out.bin")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	rules := []*Rule{{Targets: []string{out}, Dependencies: []string{src}, Commands: []string{"cp " + src + " " + out}}}
	o, err := New(rules, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Run(); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "data" {
		t.Errorf("out.bin = %q, want %q", got, "data")
	}
}
