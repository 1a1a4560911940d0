package issue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityRank(t *testing.T) {
	ordered := Severities()
	for i := 1; i < len(ordered); i++ {
		assert.Less(t, ordered[i-1].Rank(), ordered[i].Rank(), "%s should outrank %s", ordered[i-1], ordered[i])
	}
	assert.True(t, SeverityCritical.AtLeast(SeverityHigh))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
	assert.Greater(t, Severity("bogus").Rank(), SeverityInfo.Rank())
}

func TestParseSeverity(t *testing.T) {
	s, err := ParseSeverity(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, s)

	_, err = ParseSeverity("warning")
	assert.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{
		"security":      CategorySecurity,
		"best-practice": CategoryBestPractice,
		"BestPractice":  CategoryBestPractice,
		"code smell":    CategoryCodeSmell,
		"documentation": CategoryDocumentation,
	}
	for in, want := range tests {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCategory("nonsense")
	assert.Error(t, err)
}

func TestSort(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityMedium, Line: 10, RuleID: "bare-except"},
		{Severity: SeverityCritical, Line: 20, RuleID: "command-injection"},
		{Severity: SeverityInfo, Line: 1, RuleID: "todo-comment"},
		{Severity: SeverityCritical, Line: 5, RuleID: "hardcoded-secret"},
		{Severity: SeverityMedium, Line: 10, RuleID: "second"},
	}

	Sort(issues)

	got := make([]string, len(issues))
	for i, is := range issues {
		got[i] = is.RuleID
	}
	assert.Equal(t, []string{"hardcoded-secret", "command-injection", "bare-except", "second", "todo-comment"}, got)
}

func TestDedupe(t *testing.T) {
	issues := []Issue{
		{RuleID: "a", Line: 1},
		{RuleID: "a", Line: 1},
		{RuleID: "a", Line: 2},
		{Line: 1},
		{Line: 1},
	}
	assert.Len(t, Dedupe(issues), 4)
}

func TestWorstAndCounts(t *testing.T) {
	assert.Equal(t, Severity(""), Worst(nil))

	issues := []Issue{{Severity: SeverityLow}, {Severity: SeverityHigh}, {Severity: SeverityHigh}}
	assert.Equal(t, SeverityHigh, Worst(issues))

	counts := Counts(issues)
	assert.Equal(t, 2, counts[SeverityHigh])
	assert.Equal(t, 1, counts[SeverityLow])
	assert.Equal(t, 0, counts[SeverityCritical])
}

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	assert.Equal(t, 1, m.CyclomaticComplexity)
	assert.Zero(t, m.LinesOfCode)
	assert.Zero(t, m.CommentRatio)
}
