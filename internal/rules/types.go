// Package rules holds the custom rule registry: user-supplied line
// patterns layered on top of the built-in checks.
package rules

import (
	"errors"
	"regexp"

	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/lang"
)

var (
	// ErrInvalidPattern is returned when a rule's regular expression does
	// not compile.
	ErrInvalidPattern = errors.New("invalid rule pattern")
	// ErrInvalidRule is returned when a rule definition is incomplete or
	// names an unknown severity or category.
	ErrInvalidRule = errors.New("invalid rule")
)

// Definition is a custom rule as written in a YAML rule file.
type Definition struct {
	ID         string   `yaml:"id" json:"id" validate:"required,max=64"`
	Name       string   `yaml:"name,omitempty" json:"name,omitempty"`
	Pattern    string   `yaml:"pattern" json:"pattern" validate:"required"`
	Severity   string   `yaml:"severity" json:"severity" validate:"required"`
	Category   string   `yaml:"category" json:"category" validate:"required"`
	Message    string   `yaml:"message" json:"message" validate:"required"`
	Suggestion string   `yaml:"suggestion,omitempty" json:"suggestion,omitempty"`
	Languages  []string `yaml:"languages,omitempty" json:"languages,omitempty"`
	Files      []string `yaml:"files,omitempty" json:"files,omitempty"` // base-name globs
	Enabled    *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// IsEnabled reports whether the definition is active. Rules are enabled
// unless they say otherwise.
func (d Definition) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// RuleSet is the top-level document of a rule file.
type RuleSet struct {
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description" json:"description"`
	Rules       []Definition `yaml:"rules" json:"rules"`
}

// Rule is a compiled custom rule. Rules are never mutated after
// registration; re-registering an id replaces the value.
type Rule struct {
	ID         string
	Pattern    *regexp.Regexp
	Severity   issue.Severity
	Category   issue.Category
	Message    string
	Suggestion string
	// Languages restricts the rule to these languages; empty means all.
	Languages []lang.Language
	// Files restricts the rule to paths whose base name matches one of
	// these globs; empty means all.
	Files []string
}
