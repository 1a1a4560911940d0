package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/lang"
)

// Registry is a mutable table of custom rules keyed by id. Registering an
// existing id replaces the earlier rule and keeps its position. A
// Registry is safe for concurrent use; reviews read from a Snapshot so a
// batch never observes a mutation made after it started.
type Registry struct {
	mu      sync.RWMutex
	rules   map[string]*Rule
	order   []string
	version uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]*Rule)}
}

// Register compiles pattern and stores it under id.
func (r *Registry) Register(id, pattern string, severity issue.Severity, category issue.Category, message, suggestion string) error {
	if pattern == "" {
		return fmt.Errorf("%w: rule %q: empty pattern", ErrInvalidPattern, id)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("%w: rule %q: %v", ErrInvalidPattern, id, err)
	}
	return r.Add(Rule{
		ID:         id,
		Pattern:    re,
		Severity:   severity,
		Category:   category,
		Message:    message,
		Suggestion: suggestion,
	})
}

// Add stores an already compiled rule.
func (r *Registry) Add(rule Rule) error {
	if err := checkRule(&rule); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.ID]; !exists {
		r.order = append(r.order, rule.ID)
	}
	r.rules[rule.ID] = &rule
	r.version++
	return nil
}

// AddDefinition validates and compiles d, then stores it. Disabled
// definitions are ignored.
func (r *Registry) AddDefinition(d Definition) error {
	if !d.IsEnabled() {
		return nil
	}
	rule, err := Compile(d)
	if err != nil {
		return err
	}
	return r.Add(rule)
}

// Remove deletes the rule with id and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[id]; !ok {
		return false
	}
	delete(r.rules, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.version++
	return true
}

// Len returns the number of registered rules.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Version increases with every mutation.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Snapshot returns an immutable view of the current rules.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]*Rule, 0, len(r.order))
	for _, id := range r.order {
		rules = append(rules, r.rules[id])
	}
	return &Snapshot{rules: rules, version: r.version, fingerprint: fingerprint(rules)}
}

// fingerprint hashes every field that affects what a rule reports, in
// registration order.
func fingerprint(rules []*Rule) string {
	h := sha256.New()
	for _, r := range rules {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%s\x00%s\x00%v\x00%v\n",
			r.ID, r.Pattern, r.Severity, r.Category, r.Message, r.Suggestion, r.Languages, r.Files)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func checkRule(rule *Rule) error {
	switch {
	case strings.TrimSpace(rule.ID) == "":
		return fmt.Errorf("%w: empty id", ErrInvalidRule)
	case strings.ContainsAny(rule.ID, " \t\n"):
		return fmt.Errorf("%w: id %q contains whitespace", ErrInvalidRule, rule.ID)
	case rule.Pattern == nil:
		return fmt.Errorf("%w: rule %q has no pattern", ErrInvalidPattern, rule.ID)
	case !rule.Severity.Valid():
		return fmt.Errorf("%w: rule %q: unknown severity %q", ErrInvalidRule, rule.ID, rule.Severity)
	case !rule.Category.Valid():
		return fmt.Errorf("%w: rule %q: unknown category %q", ErrInvalidRule, rule.ID, rule.Category)
	case strings.TrimSpace(rule.Message) == "":
		return fmt.Errorf("%w: rule %q has no message", ErrInvalidRule, rule.ID)
	}
	return nil
}

// Snapshot is a frozen set of rules taken from a Registry.
type Snapshot struct {
	rules       []*Rule
	version     uint64
	fingerprint string
}

// Version is the registry version the snapshot was taken at.
func (s *Snapshot) Version() uint64 {
	if s == nil {
		return 0
	}
	return s.version
}

// Fingerprint identifies the rule contents. Two snapshots with equal
// rules have equal fingerprints, even across processes.
func (s *Snapshot) Fingerprint() string {
	if s == nil {
		return fingerprint(nil)
	}
	return s.fingerprint
}

// Rules returns copies of the rules in registration order.
func (s *Snapshot) Rules() []Rule {
	if s == nil {
		return nil
	}
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = *r
	}
	return out
}

// Scan evaluates every applicable rule against each line. A rule fires at
// most once per line.
func (s *Snapshot) Scan(path string, l lang.Language, lines []string) []issue.Issue {
	if s == nil || len(s.rules) == 0 {
		return nil
	}

	var active []*Rule
	for _, r := range s.rules {
		if r.AppliesTo(l, path) {
			active = append(active, r)
		}
	}

	var out []issue.Issue
	for i, line := range lines {
		for _, r := range active {
			loc := r.Pattern.FindStringIndex(line)
			if loc == nil {
				continue
			}
			out = append(out, issue.Issue{
				Severity:   r.Severity,
				Category:   r.Category,
				Line:       i + 1,
				Column:     loc[0],
				Message:    r.Message,
				Suggestion: r.Suggestion,
				RuleID:     r.ID,
				FilePath:   path,
				Context:    strings.TrimSpace(line),
			})
		}
	}
	return out
}
