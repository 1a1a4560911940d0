package analyzer

import (
	"strings"
	"unicode/utf8"

	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/lang"
)

// LineMetrics fills the line-based fields of m: lines of code (non-blank,
// non-comment), comment ratio (comment lines / LOC, 0 when LOC is 0) and
// average length of non-blank lines.
func LineMetrics(l lang.Language, lines []string, m *issue.Metrics) {
	prefixes := lang.CommentPrefixes(l)

	var loc, comments, nonBlank, totalLen int
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonBlank++
		totalLen += utf8.RuneCountInString(line)

		if hasAnyPrefix(trimmed, prefixes) {
			comments++
			continue
		}
		loc++
	}

	m.LinesOfCode = loc
	m.CommentRatio = 0
	if loc > 0 {
		m.CommentRatio = float64(comments) / float64(loc)
	}
	m.AverageLineLength = 0
	if nonBlank > 0 {
		m.AverageLineLength = float64(totalLen) / float64(nonBlank)
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
