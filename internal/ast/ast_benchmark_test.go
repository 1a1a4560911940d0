package ast

import (
	"strings"
	"testing"
	"time"

	"github.com/JNZader/codesentry/internal/lang"
)

// Inputs near the review size limit must stay linear. The budgets are
// loose enough for slow CI machines; quadratic behavior misses them by
// orders of magnitude.
const inputBudget = 5 * time.Second

func minifiedLine(size int) string {
	return "var a = [" + strings.Repeat("1,", size/2) + "1];"
}

func unclosedBlocks(n int) string {
	return strings.Repeat("if (x) {\n", n)
}

func TestStripLinesLongLine(t *testing.T) {
	line := minifiedLine(1 << 20)

	start := time.Now()
	got := StripLines(lang.JavaScript, []string{line})
	if elapsed := time.Since(start); elapsed > inputBudget {
		t.Fatalf("StripLines took %s for a %d byte line", elapsed, len(line))
	}
	if got[0] != line {
		t.Error("a line without comments or strings should be unchanged")
	}
}

func TestApproximateUnclosedBlocks(t *testing.T) {
	const n = 50000

	start := time.Now()
	root := Approximate(lang.JavaScript, unclosedBlocks(n))
	if elapsed := time.Since(start); elapsed > inputBudget {
		t.Fatalf("Approximate took %s for %d unclosed blocks", elapsed, n)
	}
	if got := Count(root, KindConditional); got != n {
		t.Errorf("conditionals = %d, want %d", got, n)
	}
}

func TestScanUnclosedDefinitions(t *testing.T) {
	const n = 50000
	lines := strings.Split(strings.Repeat("function f() {\n", n), "\n")

	start := time.Now()
	out := NewScanner(lang.JavaScript).Scan(lines)
	if elapsed := time.Since(start); elapsed > inputBudget {
		t.Fatalf("Scan took %s for %d unclosed definitions", elapsed, n)
	}
	if len(out.Functions) != n {
		t.Fatalf("functions = %d, want %d", len(out.Functions), n)
	}
	if end := out.Functions[0].EndLine; end != len(lines) {
		t.Errorf("first EndLine = %d, want %d", end, len(lines))
	}
}

func BenchmarkStripLinesLongLine(b *testing.B) {
	lines := []string{minifiedLine(1 << 20)}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		StripLines(lang.JavaScript, lines)
	}
}

func BenchmarkApproximateUnclosed(b *testing.B) {
	src := unclosedBlocks(20000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Approximate(lang.JavaScript, src)
	}
}
