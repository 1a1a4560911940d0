package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JNZader/codesentry/internal/ast"
	"github.com/JNZader/codesentry/internal/complexity"
	"github.com/JNZader/codesentry/internal/issue"
)

var (
	snakeCase = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	capWords  = regexp.MustCompile(`^_?[A-Z][a-zA-Z0-9]*$`)
)

// Structural analyzes Python from its syntax tree.
type Structural struct {
	opts Options
}

// Analyze parses in.Source and runs the tree checks. A syntax error yields
// a single Critical issue and default metrics.
func (s *Structural) Analyze(ctx context.Context, in Input) Result {
	parsed := ast.ParsePython(ctx, in.Source)
	if !parsed.OK() {
		return Result{
			Metrics:    issue.NewMetrics(),
			ParseError: parsed.Err,
			Issues: []issue.Issue{newIssue(in, parsed.Err.Line, parsed.Err.Column,
				issue.SeverityCritical, issue.CategoryBug, RuleSyntaxError,
				"Syntax error: "+parsed.Err.Message,
				"Fix the syntax error so the file can be analyzed")},
		}
	}

	root := parsed.Root
	fns := complexity.Functions(root)

	m := issue.NewMetrics()
	m.CyclomaticComplexity = complexity.Cyclomatic(root)
	m.CognitiveComplexity = complexity.Cognitive(root)
	m.MaxNestingDepth = complexity.MaxNesting(root)
	m.FunctionCount = len(fns)
	m.ClassCount = ast.Count(root, ast.KindClass)
	LineMetrics(in.Language, in.Lines, &m)

	var issues []issue.Issue
	ast.Inspect(root, func(n *ast.Node) bool {
		switch n.Kind {
		case ast.KindFunction:
			issues = append(issues, checkFunctionName(in, n)...)
			issues = append(issues, checkMutableDefaults(in, n)...)
		case ast.KindClass:
			issues = append(issues, checkClassName(in, n)...)
		case ast.KindHandler:
			if n.HandlerType == "" {
				issues = append(issues, newIssue(in, n.Line, n.Column, issue.SeverityMedium, issue.CategoryBestPractice, RuleBareExcept,
					"Bare 'except:' catches every exception, including SystemExit and KeyboardInterrupt",
					"Catch specific exceptions, e.g. 'except ValueError:', or at least 'except Exception:'"))
			}
		}
		return true
	})
	issues = append(issues, functionChecks(in, fns, s.opts)...)

	return Result{Issues: issues, Metrics: m, Functions: fns}
}

func checkFunctionName(in Input, fn *ast.Node) []issue.Issue {
	name := fn.Name
	if name == "" || snakeCase.MatchString(name) {
		return nil
	}
	if capWords.MatchString(name) {
		return []issue.Issue{newIssue(in, fn.Line, fn.Column, issue.SeverityMedium, issue.CategoryStyle, RuleFunctionCapWords,
			fmt.Sprintf("Function '%s' is named like a class", name),
			fmt.Sprintf("Use snake_case for functions, e.g. '%s'", toSnake(name)))}
	}
	return []issue.Issue{newIssue(in, fn.Line, fn.Column, issue.SeverityMedium, issue.CategoryStyle, RuleFunctionCase,
		fmt.Sprintf("Function '%s' is not snake_case", name),
		fmt.Sprintf("Rename to '%s'", toSnake(name)))}
}

func checkClassName(in Input, cls *ast.Node) []issue.Issue {
	name := cls.Name
	if name == "" || capWords.MatchString(name) {
		return nil
	}
	return []issue.Issue{newIssue(in, cls.Line, cls.Column, issue.SeverityMedium, issue.CategoryStyle, RuleClassCase,
		fmt.Sprintf("Class '%s' is not CapWords", name),
		fmt.Sprintf("Rename to '%s'", toCapWords(name)))}
}

// checkMutableDefaults reports a function once no matter how many of its
// parameters default to a mutable literal.
func checkMutableDefaults(in Input, fn *ast.Node) []issue.Issue {
	var names []string
	for _, p := range fn.Params {
		if p.MutableDefault {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return []issue.Issue{newIssue(in, fn.Line, fn.Column, issue.SeverityHigh, issue.CategoryBug, RuleMutableDefault,
		fmt.Sprintf("Function '%s' uses a mutable default argument (%s) that is shared between calls", fn.Name, strings.Join(names, ", ")),
		"Default to None and create the container inside the function")}
}

// words splits an identifier on underscores and lower-to-upper case
// boundaries: "parseHTTPRequest_v2" -> parse, HTTP, Request, v2.
func words(name string) []string {
	var out []string
	for _, part := range strings.Split(name, "_") {
		runes := []rune(part)
		start := 0
		for i := 1; i < len(runes); i++ {
			prev, cur := runes[i-1], runes[i]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsUpper(cur) && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
				out = append(out, string(runes[start:i]))
				start = i
			}
		}
		if start < len(runes) {
			out = append(out, string(runes[start:]))
		}
	}
	return out
}

func toSnake(name string) string {
	prefix := leadingUnderscores(name)
	// Casers keep state, so each call gets its own.
	lower := cases.Lower(language.Und)
	ws := words(name)
	for i, w := range ws {
		ws[i] = lower.String(w)
	}
	return prefix + strings.Join(ws, "_")
}

func toCapWords(name string) string {
	prefix := ""
	if strings.HasPrefix(name, "_") {
		prefix = "_"
	}
	title := cases.Title(language.Und, cases.NoLower)
	ws := words(name)
	for i, w := range ws {
		ws[i] = title.String(w)
	}
	return prefix + strings.Join(ws, "")
}

func leadingUnderscores(name string) string {
	return name[:len(name)-len(strings.TrimLeft(name, "_"))]
}
