package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/lang"
)

func mustRegister(t *testing.T, r *Registry, id, pattern, suggestion string) {
	t.Helper()
	if err := r.Register(id, pattern, issue.SeverityMedium, issue.CategoryBestPractice, "found "+id, suggestion); err != nil {
		t.Fatalf("Register(%s) error = %v", id, err)
	}
}

func TestRegisterOverwrite(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, "no-print", `\bprint\(`, "use logging")
	mustRegister(t, r, "other", `xyz`, "")

	lines := []string{`print("hi")`}
	before := r.Snapshot().Scan("a.py", lang.Python, lines)
	if len(before) != 1 || before[0].Suggestion != "use logging" {
		t.Fatalf("before = %+v", before)
	}

	mustRegister(t, r, "no-print", `\bprint\(`, "use the logger module")
	after := r.Snapshot().Scan("a.py", lang.Python, lines)
	if len(after) != 1 || after[0].Suggestion != "use the logger module" {
		t.Fatalf("after = %+v", after)
	}

	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	// Overwrite keeps the original position.
	if ids := r.Snapshot().Rules(); ids[0].ID != "no-print" {
		t.Errorf("first rule = %s, want no-print", ids[0].ID)
	}
}

func TestRegisterErrors(t *testing.T) {
	r := NewRegistry()

	err := r.Register("bad", `([`, issue.SeverityLow, issue.CategoryStyle, "m", "")
	if !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("bad regex error = %v, want ErrInvalidPattern", err)
	}

	err = r.Register("", `x`, issue.SeverityLow, issue.CategoryStyle, "m", "")
	if !errors.Is(err, ErrInvalidRule) {
		t.Errorf("empty id error = %v, want ErrInvalidRule", err)
	}

	err = r.Register("x", `x`, issue.Severity("urgent"), issue.CategoryStyle, "m", "")
	if !errors.Is(err, ErrInvalidRule) {
		t.Errorf("bad severity error = %v, want ErrInvalidRule", err)
	}

	if r.Len() != 0 {
		t.Errorf("Len() = %d after failed registrations, want 0", r.Len())
	}
}

func TestSnapshotIsFrozen(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, "a", `a`, "")
	snap := r.Snapshot()

	mustRegister(t, r, "b", `b`, "")
	r.Remove("a")

	if got := len(snap.Rules()); got != 1 {
		t.Errorf("snapshot rules = %d, want 1", got)
	}
	if snap.Version() == r.Version() {
		t.Error("registry version should move on after mutation")
	}
	if got := snap.Scan("f", lang.Go, []string{"a"}); len(got) != 1 {
		t.Errorf("snapshot scan = %d issues, want 1", len(got))
	}
}

func TestSnapshotFingerprint(t *testing.T) {
	a, b := NewRegistry(), NewRegistry()
	mustRegister(t, a, "one", `x`, "")
	mustRegister(t, b, "one", `x`, "")
	if a.Snapshot().Fingerprint() != b.Snapshot().Fingerprint() {
		t.Error("equal rules should have equal fingerprints")
	}

	before := a.Snapshot().Fingerprint()
	mustRegister(t, a, "one", `y`, "")
	if a.Snapshot().Fingerprint() == before {
		t.Error("changing a pattern should change the fingerprint")
	}

	var nilSnap *Snapshot
	if nilSnap.Fingerprint() != NewRegistry().Snapshot().Fingerprint() {
		t.Error("nil snapshot should fingerprint like an empty registry")
	}
}

func TestSnapshotScanOncePerLine(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, "dup", `x`, "")
	got := r.Snapshot().Scan("f", lang.Unknown, []string{"x x x", "", "  x"})
	if len(got) != 2 {
		t.Fatalf("issues = %d, want 2", len(got))
	}
	if got[1].Line != 3 || got[1].Column != 2 || got[1].Context != "x" {
		t.Errorf("second issue = %+v", got[1])
	}
}

func TestFilter(t *testing.T) {
	rules := []Rule{
		{ID: "R1", Languages: []lang.Language{lang.Go}},
		{ID: "R2", Languages: []lang.Language{lang.Python}},
		{ID: "R3", Languages: []lang.Language{lang.Go, lang.Python}},
		{ID: "R4"}, // All languages
		{ID: "R5", Files: []string{"*_test.go"}},
	}

	filtered := Filter(rules, lang.Go, "cmd/main.go")

	if len(filtered) != 3 {
		t.Errorf("len(filtered) = %d, want 3", len(filtered))
	}

	ids := make(map[string]bool)
	for _, r := range filtered {
		ids[r.ID] = true
	}
	if !ids["R1"] || !ids["R3"] || !ids["R4"] {
		t.Error("Missing expected rules")
	}
	if ids["R2"] || ids["R5"] {
		t.Error("Unexpected rules included")
	}

	if got := Filter(rules, lang.Go, "pkg/x_test.go"); len(got) != 4 {
		t.Errorf("test file rules = %d, want 4", len(got))
	}
}

func TestAtLeastAndByCategory(t *testing.T) {
	rules := []Rule{
		{ID: "R1", Severity: issue.SeverityInfo, Category: issue.CategoryStyle},
		{ID: "R2", Severity: issue.SeverityLow, Category: issue.CategoryBug},
		{ID: "R3", Severity: issue.SeverityHigh, Category: issue.CategoryBug},
		{ID: "R4", Severity: issue.SeverityCritical, Category: issue.CategorySecurity},
	}

	if got := AtLeast(rules, issue.SeverityLow); len(got) != 3 {
		t.Errorf("len(AtLeast(low)) = %d, want 3", len(got))
	}
	if got := ByCategory(rules, issue.CategoryBug); len(got) != 2 {
		t.Errorf("len(ByCategory(bug)) = %d, want 2", len(got))
	}
}

func TestContainsLanguage(t *testing.T) {
	langs := []lang.Language{"go", "Python", "JAVASCRIPT"}

	if !containsLanguage(langs, lang.Go) {
		t.Error("Should find 'go'")
	}
	if !containsLanguage(langs, lang.Python) { // Case insensitive
		t.Error("Should find 'python'")
	}
	if containsLanguage(langs, lang.Rust) {
		t.Error("Should not find 'rust'")
	}
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
name: team
rules:
  - id: no-fixme
    pattern: 'FIXME'
    severity: Low
    category: best-practice
    message: FIXME left in code
    languages: [Go]
  - id: disabled
    pattern: 'x'
    severity: info
    category: style
    message: disabled rule
    enabled: false
`)
	defs, err := ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("len(defs) = %d, want 2", len(defs))
	}

	rule, err := Compile(defs[0])
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if rule.Severity != issue.SeverityLow || rule.Category != issue.CategoryBestPractice {
		t.Errorf("rule = %s/%s", rule.Severity, rule.Category)
	}
	if rule.Languages[0] != lang.Go {
		t.Errorf("language = %q, want go", rule.Languages[0])
	}
	if defs[1].IsEnabled() {
		t.Error("second rule should be disabled")
	}
}

func TestParseYAMLInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"missing message", "rules:\n  - id: a\n    pattern: x\n    severity: low\n    category: style\n", ErrInvalidRule},
		{"bad severity", "rules:\n  - id: a\n    pattern: x\n    severity: warning\n    category: style\n    message: m\n", ErrInvalidRule},
		{"bad category", "rules:\n  - id: a\n    pattern: x\n    severity: low\n    category: vibes\n    message: m\n", ErrInvalidRule},
		{"bad pattern", "rules:\n  - id: a\n    pattern: '(['\n    severity: low\n    category: style\n    message: m\n", ErrInvalidPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.yaml))
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseYAML() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoaderLoadInto(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "team")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	rule := "rules:\n  - id: %s\n    pattern: x\n    severity: low\n    category: style\n    message: m\n"
	write := func(path, id string) {
		if err := os.WriteFile(path, []byte(fmt.Sprintf(rule, id)), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(dir, "single.yaml")
	write(single, "from-file")
	write(filepath.Join(sub, "a.yml"), "from-dir")
	write(filepath.Join(sub, "ignored.txt"), "ignored")

	reg := NewRegistry()
	n, err := NewLoader([]string{single}, []string{sub, filepath.Join(dir, "missing")}, true).LoadInto(reg)
	if err != nil {
		t.Fatalf("LoadInto() error = %v", err)
	}

	// Four embedded defaults plus two from disk.
	if n != 6 || reg.Len() != 6 {
		t.Errorf("registered = %d (Len %d), want 6", n, reg.Len())
	}
	ids := map[string]bool{}
	for _, r := range reg.Snapshot().Rules() {
		ids[r.ID] = true
	}
	for _, want := range []string{"from-file", "from-dir", "debugger-statement", "hardcoded-ip"} {
		if !ids[want] {
			t.Errorf("missing rule %s", want)
		}
	}
	if ids["ignored"] {
		t.Error("non-yaml file should be ignored")
	}
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := NewLoader([]string{filepath.Join(t.TempDir(), "nope.yaml")}, nil, false).Load()
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want not-exist", err)
	}
}

func TestRegistryConcurrentReads(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, "a", `a`, "")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.Snapshot().Scan("f", lang.Go, []string{"abc"})
			}
		}()
	}
	mustRegister(t, r, "b", `b`, "")
	wg.Wait()
}
