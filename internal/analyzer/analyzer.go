// Package analyzer implements the per-language analysis tiers. Python is
// parsed into a full syntax tree; every other language gets line
// heuristics over an approximate structure.
package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/JNZader/codesentry/internal/ast"
	"github.com/JNZader/codesentry/internal/complexity"
	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/lang"
)

// Rule ids produced by the analyzers.
const (
	RuleSyntaxError      = "syntax-error"
	RuleFunctionCapWords = "naming-function-capwords"
	RuleFunctionCase     = "naming-function-case"
	RuleClassCase        = "naming-class-case"
	RuleMutableDefault   = "mutable-default-argument"
	RuleBareExcept       = "bare-except"
	RuleHighComplexity   = "high-complexity"
	RuleDeepNesting      = "deep-nesting"
	RuleNoVar            = "no-var"
	RuleLooseEquality    = "loose-equality"
	RuleConsoleLog       = "console-log"
	RuleUncheckedError   = "unchecked-error"
	RulePanicCall        = "panic-call"
	RuleBroadCatch       = "broad-catch"
	RuleStdoutPrint      = "stdout-print"
	RuleLineTooLong      = "line-too-long"
	RuleTodoComment      = "todo-comment"
)

const (
	defaultComplexity    = 7
	defaultMaxNesting    = 4
	defaultMaxLineLength = 120
)

// Input is one file to analyze.
type Input struct {
	Path     string
	Language lang.Language
	Source   []byte
	// Lines is Source split on newlines.
	Lines []string
}

// NewInput splits src into lines and returns an Input for it.
func NewInput(path string, l lang.Language, src []byte) Input {
	var lines []string
	if len(src) > 0 {
		lines = strings.Split(strings.TrimSuffix(string(src), "\n"), "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSuffix(line, "\r")
		}
	}
	return Input{Path: path, Language: l, Source: src, Lines: lines}
}

// Result is what an analyzer found in one file.
type Result struct {
	Issues    []issue.Issue
	Metrics   issue.Metrics
	Functions []complexity.Function
	// ParseError is set when a structural parse failed; Metrics are then
	// left at their defaults.
	ParseError *ast.SyntaxError
}

// Analyzer analyzes a single file.
type Analyzer interface {
	Analyze(ctx context.Context, in Input) Result
}

// Options tunes thresholds shared by all tiers.
type Options struct {
	// ComplexityThreshold flags functions whose cyclomatic complexity is
	// strictly greater. Zero means the default of 7.
	ComplexityThreshold int
	// MaxNesting flags functions nested deeper than this. Zero means 4.
	MaxNesting int
	// MaxLineLength is used by the heuristic tier. Zero means 120.
	MaxLineLength int
}

func (o Options) withDefaults() Options {
	if o.ComplexityThreshold <= 0 {
		o.ComplexityThreshold = defaultComplexity
	}
	if o.MaxNesting <= 0 {
		o.MaxNesting = defaultMaxNesting
	}
	if o.MaxLineLength <= 0 {
		o.MaxLineLength = defaultMaxLineLength
	}
	return o
}

// Set selects an analyzer by the capability tier of a language.
type Set struct {
	tiers map[lang.Tier]Analyzer
}

// NewSet returns the structural and heuristic analyzers configured with
// opts.
func NewSet(opts Options) *Set {
	opts = opts.withDefaults()
	return &Set{tiers: map[lang.Tier]Analyzer{
		lang.TierStructural: &Structural{opts: opts},
		lang.TierHeuristic:  &Heuristic{opts: opts},
	}}
}

// For returns the analyzer for l.
func (s *Set) For(l lang.Language) Analyzer {
	if a, ok := s.tiers[lang.TierOf(l)]; ok {
		return a
	}
	return s.tiers[lang.TierHeuristic]
}

// functionChecks flags functions that are too complex or too deeply
// nested. Both tiers share it.
func functionChecks(in Input, fns []complexity.Function, opts Options) []issue.Issue {
	var out []issue.Issue
	for _, fn := range fns {
		if fn.Metrics.Cyclomatic > opts.ComplexityThreshold {
			out = append(out, newIssue(in, fn.Line, 0, issue.SeverityHigh, issue.CategoryComplexity, RuleHighComplexity,
				fmt.Sprintf("Function '%s' has cyclomatic complexity %d (threshold %d)", fn.Name, fn.Metrics.Cyclomatic, opts.ComplexityThreshold),
				"Break the function into smaller functions with a single responsibility"))
		}
		if fn.Metrics.MaxNesting > opts.MaxNesting {
			out = append(out, newIssue(in, fn.Line, 0, issue.SeverityMedium, issue.CategoryComplexity, RuleDeepNesting,
				fmt.Sprintf("Function '%s' nests %d levels deep (max %d)", fn.Name, fn.Metrics.MaxNesting, opts.MaxNesting),
				"Use early returns or extract nested blocks into helper functions"))
		}
	}
	return out
}

func newIssue(in Input, line, col int, sev issue.Severity, cat issue.Category, rule, msg, suggestion string) issue.Issue {
	return issue.Issue{
		Severity:   sev,
		Category:   cat,
		Line:       line,
		Column:     col,
		Message:    msg,
		Suggestion: suggestion,
		RuleID:     rule,
		FilePath:   in.Path,
		Context:    contextLine(in.Lines, line),
	}
}

func contextLine(lines []string, line int) string {
	if line < 1 || line > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[line-1])
}
