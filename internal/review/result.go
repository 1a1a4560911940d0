package review

import (
	"fmt"
	"time"

	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/lang"
)

// Thresholds behind the suggested improvements.
const (
	improveComplexity   = 10
	improveNesting      = 4
	improveCommentRatio = 0.1
	improveCommentLOC   = 20
)

// ReviewResult is the outcome of reviewing one file. Issues are sorted by
// severity, then line, then column. The caller owns the value.
type ReviewResult struct {
	FilePath              string        `json:"file_path"`
	Language              lang.Language `json:"language"`
	Issues                []issue.Issue `json:"issues"`
	Metrics               issue.Metrics `json:"metrics"`
	ReviewedAt            time.Time     `json:"reviewed_at"`
	SuggestedImprovements []string      `json:"suggested_improvements"`
}

// clone copies the slices so a cached result never shares memory with one
// handed to a caller.
func (r *ReviewResult) clone() *ReviewResult {
	c := *r
	c.Issues = append([]issue.Issue{}, r.Issues...)
	c.SuggestedImprovements = append([]string{}, r.SuggestedImprovements...)
	return &c
}

// SuggestImprovements derives file-level advice from metrics and issues.
// The order is fixed.
func SuggestImprovements(m issue.Metrics, issues []issue.Issue) []string {
	out := []string{}

	if m.CyclomaticComplexity > improveComplexity {
		out = append(out, fmt.Sprintf("Reduce cyclomatic complexity (currently %d) by splitting large functions", m.CyclomaticComplexity))
	}
	if m.MaxNestingDepth > improveNesting {
		out = append(out, fmt.Sprintf("Reduce nesting depth (currently %d) with early returns or helper functions", m.MaxNestingDepth))
	}
	if m.LinesOfCode > improveCommentLOC && m.CommentRatio < improveCommentRatio {
		out = append(out, fmt.Sprintf("Add comments to explain complex logic (comment ratio %.2f)", m.CommentRatio))
	}

	var security, bugs int
	for _, is := range issues {
		switch is.Category {
		case issue.CategorySecurity:
			security++
		case issue.CategoryBug:
			bugs++
		}
	}
	if security > 0 {
		out = append(out, fmt.Sprintf("Address %d security issue(s) before merging", security))
	}
	if bugs > 0 {
		out = append(out, fmt.Sprintf("Fix %d potential bug(s)", bugs))
	}
	return out
}
