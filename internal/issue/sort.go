package issue

import "sort"

// Sort orders issues by severity (most severe first), then by line, then
// by column. Issues that compare equal keep their relative order so the
// scanner order (structural, security, custom) is preserved.
func Sort(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if ra, rb := a.Severity.Rank(), b.Severity.Rank(); ra != rb {
			return ra < rb
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

type dedupKey struct {
	rule   string
	line   int
	column int
}

// Dedupe drops issues that repeat an earlier issue's rule id and position.
// Issues without a rule id are always kept.
func Dedupe(issues []Issue) []Issue {
	seen := make(map[dedupKey]bool, len(issues))
	out := issues[:0]
	for _, is := range issues {
		if is.RuleID != "" {
			k := dedupKey{rule: is.RuleID, line: is.Line, column: is.Column}
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, is)
	}
	return out
}

// Counts tallies issues per severity.
func Counts(issues []Issue) map[Severity]int {
	counts := make(map[Severity]int, len(severityRank))
	for _, is := range issues {
		counts[is.Severity]++
	}
	return counts
}

// Worst returns the most severe severity present, or "" when issues is empty.
func Worst(issues []Issue) Severity {
	var worst Severity
	for _, is := range issues {
		if worst == "" || is.Severity.Rank() < worst.Rank() {
			worst = is.Severity
		}
	}
	return worst
}
