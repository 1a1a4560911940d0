package security

import (
	"strings"

	"github.com/JNZader/codesentry/internal/issue"
)

// Scanner applies the catalogue line by line.
type Scanner struct {
	patterns []Pattern
}

// NewScanner returns a scanner over the built-in catalogue.
func NewScanner() *Scanner {
	return &Scanner{patterns: catalog}
}

// Scan reports every catalogue match in lines. Each pattern fires at
// most once per line. Findings are Critical and in the Security category.
func (s *Scanner) Scan(path string, lines []string) []issue.Issue {
	var out []issue.Issue
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, p := range s.patterns {
			loc := p.Regex.FindStringIndex(line)
			if loc == nil {
				continue
			}
			if p.Exclude != nil && p.Exclude.MatchString(line) {
				continue
			}
			out = append(out, issue.Issue{
				Severity:   issue.SeverityCritical,
				Category:   issue.CategorySecurity,
				Line:       i + 1,
				Column:     loc[0],
				Message:    p.Message,
				Suggestion: p.Suggestion,
				RuleID:     p.ID,
				FilePath:   path,
				Context:    strings.TrimSpace(line),
			})
		}
	}
	return out
}
