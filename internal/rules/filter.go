package rules

import (
	"path/filepath"
	"strings"

	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/lang"
)

// AppliesTo reports whether r should run on a file of language l at path.
func (r *Rule) AppliesTo(l lang.Language, path string) bool {
	if len(r.Languages) > 0 && !containsLanguage(r.Languages, l) {
		return false
	}
	if len(r.Files) > 0 && !matchesAnyPattern(r.Files, path) {
		return false
	}
	return true
}

// Filter returns the rules that apply to a file of language l at path.
func Filter(rules []Rule, l lang.Language, path string) []Rule {
	var filtered []Rule
	for i := range rules {
		if rules[i].AppliesTo(l, path) {
			filtered = append(filtered, rules[i])
		}
	}
	return filtered
}

// ByCategory returns the rules in category c.
func ByCategory(rules []Rule, c issue.Category) []Rule {
	var filtered []Rule
	for _, rule := range rules {
		if rule.Category == c {
			filtered = append(filtered, rule)
		}
	}
	return filtered
}

// AtLeast returns the rules at or above severity min.
func AtLeast(rules []Rule, min issue.Severity) []Rule {
	var filtered []Rule
	for _, rule := range rules {
		if rule.Severity.AtLeast(min) {
			filtered = append(filtered, rule)
		}
	}
	return filtered
}

func containsLanguage(langs []lang.Language, l lang.Language) bool {
	for _, item := range langs {
		if strings.EqualFold(string(item), string(l)) {
			return true
		}
	}
	return false
}

func matchesAnyPattern(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, _ := filepath.Match(pattern, filepath.Base(path))
		if matched {
			return true
		}
	}
	return false
}
