// Package issue defines the findings produced by a review and the
// per-file metrics that accompany them.
package issue

import (
	"fmt"
	"strings"
)

// Severity indicates the urgency of an issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
	SeverityInfo:     4,
}

// Rank orders severities with the most severe first (Critical = 0).
// Unknown severities sort after Info.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// AtLeast reports whether s is as severe as or more severe than min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() <= min.Rank()
}

// Label returns the upper-case marker used in reports, e.g. "CRITICAL".
func (s Severity) Label() string {
	return strings.ToUpper(string(s))
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// ParseSeverity converts a case-insensitive name into a Severity.
func ParseSeverity(name string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown severity %q, must be one of: critical, high, medium, low, info", name)
	}
	return s, nil
}

// Severities returns all severities from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
}

// Category classifies what kind of problem an issue describes.
type Category string

const (
	CategorySecurity      Category = "security"
	CategoryPerformance   Category = "performance"
	CategoryCodeSmell     Category = "code_smell"
	CategoryStyle         Category = "style"
	CategoryComplexity    Category = "complexity"
	CategoryBestPractice  Category = "best_practice"
	CategoryBug           Category = "bug"
	CategoryDocumentation Category = "documentation"
)

var categories = map[Category]bool{
	CategorySecurity:      true,
	CategoryPerformance:   true,
	CategoryCodeSmell:     true,
	CategoryStyle:         true,
	CategoryComplexity:    true,
	CategoryBestPractice:  true,
	CategoryBug:           true,
	CategoryDocumentation: true,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return categories[c]
}

// ParseCategory converts a case-insensitive name into a Category.
// Hyphens and spaces are accepted in place of underscores.
func ParseCategory(name string) (Category, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "codesmell":
		normalized = string(CategoryCodeSmell)
	case "bestpractice":
		normalized = string(CategoryBestPractice)
	}
	c := Category(normalized)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", name)
	}
	return c, nil
}

// Issue is a single finding. Line is 1-based; 0 marks a file-level issue.
// Column is 0-based.
type Issue struct {
	Severity   Severity `json:"severity" yaml:"severity"`
	Category   Category `json:"category" yaml:"category"`
	Line       int      `json:"line" yaml:"line"`
	Column     int      `json:"column" yaml:"column"`
	Message    string   `json:"message" yaml:"message"`
	Suggestion string   `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	RuleID     string   `json:"rule_id,omitempty" yaml:"rule_id,omitempty"`
	FilePath   string   `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	Context    string   `json:"context,omitempty" yaml:"context,omitempty"`
}

// Metrics holds the per-file measurements of a review.
type Metrics struct {
	CyclomaticComplexity int     `json:"cyclomatic_complexity"`
	CognitiveComplexity  int     `json:"cognitive_complexity"`
	LinesOfCode          int     `json:"lines_of_code"`
	CommentRatio         float64 `json:"comment_ratio"`
	FunctionCount        int     `json:"function_count"`
	ClassCount           int     `json:"class_count"`
	MaxNestingDepth      int     `json:"max_nesting_depth"`
	AverageLineLength    float64 `json:"average_line_length"`
}

// NewMetrics returns metrics at their neutral values. A routine with no
// decision points has a cyclomatic complexity of 1.
func NewMetrics() Metrics {
	return Metrics{CyclomaticComplexity: 1}
}
