package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JNZader/codesentry/internal/ast"
	"github.com/JNZader/codesentry/internal/complexity"
	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/lang"
)

// lineCheck is a single-line heuristic. Code checks see the line with
// comments and string contents blanked out; raw checks see it verbatim.
type lineCheck struct {
	id         string
	severity   issue.Severity
	category   issue.Category
	re         *regexp.Regexp
	group      int // submatch whose start is the column, 0 for the whole match
	raw        bool
	message    string
	suggestion string
}

var (
	jsChecks = []lineCheck{
		{
			id: RuleNoVar, severity: issue.SeverityLow, category: issue.CategoryBestPractice,
			re:         regexp.MustCompile(`\bvar\s+[\w$]`),
			message:    "'var' declaration has function scope",
			suggestion: "Use 'let' or 'const' instead of 'var'",
		},
		{
			id: RuleLooseEquality, severity: issue.SeverityMedium, category: issue.CategoryBug,
			re:         regexp.MustCompile(`(?:^|[^=!<>])((?:==|!=))(?:[^=]|$)`),
			group:      1,
			message:    "Loose equality operator performs type coercion",
			suggestion: "Use strict equality ('===' or '!==')",
		},
		{
			id: RuleConsoleLog, severity: issue.SeverityInfo, category: issue.CategoryBestPractice,
			re:         regexp.MustCompile(`\bconsole\.log\s*\(`),
			message:    "console.log call left in code",
			suggestion: "Remove debug output or use a proper logger",
		},
	}

	goChecks = []lineCheck{
		{
			id: RulePanicCall, severity: issue.SeverityLow, category: issue.CategoryBestPractice,
			re:         regexp.MustCompile(`\bpanic\s*\(`),
			message:    "panic used for error handling",
			suggestion: "Return an error to the caller instead of panicking",
		},
	}

	javaChecks = []lineCheck{
		{
			id: RuleBroadCatch, severity: issue.SeverityMedium, category: issue.CategoryBestPractice,
			re:         regexp.MustCompile(`\bcatch\s*\(\s*(?:final\s+)?(?:java\.lang\.)?(?:Exception|Throwable)\s+\w+\s*\)`),
			message:    "Catching Exception or Throwable hides unrelated failures",
			suggestion: "Catch the specific exception types the block can handle",
		},
		{
			id: RuleStdoutPrint, severity: issue.SeverityInfo, category: issue.CategoryBestPractice,
			re:         regexp.MustCompile(`\bSystem\.(?:out|err)\.print`),
			message:    "Direct console output",
			suggestion: "Use a logging framework such as SLF4J",
		},
	}

	commonChecks = []lineCheck{
		{
			id: RuleTodoComment, severity: issue.SeverityInfo, category: issue.CategoryDocumentation,
			re:         regexp.MustCompile(`\b(?:TODO|FIXME)\b`),
			raw:        true,
			message:    "Unresolved TODO/FIXME marker",
			suggestion: "Resolve the note or track it in the issue tracker",
		},
	}

	profiles = map[lang.Language][]lineCheck{
		lang.JavaScript: jsChecks,
		lang.TypeScript: jsChecks,
		lang.Go:         goChecks,
		lang.Java:       javaChecks,
	}

	errAssign = regexp.MustCompile(`\berr\s*:?=[^=]`)
	errUse    = regexp.MustCompile(`\berr\b`)
)

// Heuristic analyzes languages without a full parser. It runs per-language
// line checks and the checks common to every language, and measures
// complexity over an approximate tree.
type Heuristic struct {
	opts Options
}

// Analyze runs the line heuristics for in.Language, falling back to the
// common checks for languages without a profile.
func (h *Heuristic) Analyze(_ context.Context, in Input) Result {
	code := ast.StripLines(in.Language, in.Lines)
	root := ast.Approximate(in.Language, string(in.Source))
	fns := complexity.Functions(root)
	outline := ast.NewScanner(in.Language).Scan(code)

	m := issue.NewMetrics()
	m.CyclomaticComplexity = complexity.Cyclomatic(root)
	m.CognitiveComplexity = complexity.Cognitive(root)
	m.MaxNestingDepth = complexity.MaxNesting(root)
	// Declarations are counted from the line outline, which knows more
	// declaration forms than the brace approximation.
	m.FunctionCount = len(outline.Functions)
	m.ClassCount = len(outline.Classes)
	LineMetrics(in.Language, in.Lines, &m)

	checks := append(append([]lineCheck(nil), profiles[in.Language]...), commonChecks...)

	var issues []issue.Issue
	for i, raw := range in.Lines {
		line := code[i]
		for _, c := range checks {
			target := line
			if c.raw {
				target = raw
			}
			if col, ok := c.match(target); ok {
				issues = append(issues, newIssue(in, i+1, col, c.severity, c.category, c.id, c.message, c.suggestion))
			}
		}
		if n := utf8.RuneCountInString(raw); n > h.opts.MaxLineLength {
			issues = append(issues, newIssue(in, i+1, h.opts.MaxLineLength, issue.SeverityLow, issue.CategoryStyle, RuleLineTooLong,
				fmt.Sprintf("Line is %d characters long (max %d)", n, h.opts.MaxLineLength),
				"Wrap the line or extract part of the expression"))
		}
	}

	if in.Language == lang.Go {
		issues = append(issues, uncheckedErrors(in, code)...)
	}
	issues = append(issues, functionChecks(in, fns, h.opts)...)

	return Result{Issues: issues, Metrics: m, Functions: fns}
}

func (c lineCheck) match(line string) (int, bool) {
	loc := c.re.FindStringSubmatchIndex(line)
	if loc == nil {
		return 0, false
	}
	if c.group > 0 && len(loc) > 2*c.group && loc[2*c.group] >= 0 {
		return loc[2*c.group], true
	}
	return loc[0], true
}

// uncheckedErrors flags an assignment to err whose next code line does not
// mention err. Checks on the same line (`if err := f(); err != nil`) count.
func uncheckedErrors(in Input, code []string) []issue.Issue {
	var out []issue.Issue
	for i, line := range code {
		loc := errAssign.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if errUse.MatchString(line[loc[1]:]) {
			continue
		}
		next := ""
		for j := i + 1; j < len(code); j++ {
			if t := strings.TrimSpace(code[j]); t != "" {
				next = t
				break
			}
		}
		if errUse.MatchString(next) {
			continue
		}
		out = append(out, newIssue(in, i+1, loc[0], issue.SeverityMedium, issue.CategoryBug, RuleUncheckedError,
			"Error assigned to 'err' is not checked",
			"Handle the error right after the call, e.g. 'if err != nil { return err }'"))
	}
	return out
}
