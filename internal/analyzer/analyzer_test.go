package analyzer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/lang"
)

func analyze(t *testing.T, path string, l lang.Language, src string) Result {
	t.Helper()
	return NewSet(Options{}).For(l).Analyze(context.Background(), NewInput(path, l, []byte(src)))
}

func byRule(issues []issue.Issue, rule string) []issue.Issue {
	var out []issue.Issue
	for _, is := range issues {
		if is.RuleID == rule {
			out = append(out, is)
		}
	}
	return out
}

func TestNewInput(t *testing.T) {
	in := NewInput("a.py", lang.Python, []byte("a\r\nb\n"))
	assert.Equal(t, []string{"a", "b"}, in.Lines)

	empty := NewInput("a.py", lang.Python, nil)
	assert.Nil(t, empty.Lines)
}

func TestSetFor(t *testing.T) {
	set := NewSet(Options{})
	assert.IsType(t, &Structural{}, set.For(lang.Python))
	assert.IsType(t, &Heuristic{}, set.For(lang.Go))
	assert.IsType(t, &Heuristic{}, set.For(lang.Unknown))
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{MaxNesting: 2}.withDefaults()
	assert.Equal(t, 7, o.ComplexityThreshold)
	assert.Equal(t, 2, o.MaxNesting)
	assert.Equal(t, 120, o.MaxLineLength)
}

func TestStructuralNaming(t *testing.T) {
	src := `def ProcessData():
    pass

def processData():
    pass

def good_name():
    pass

class my_class:
    def __init__(self):
        pass
`
	res := analyze(t, "naming.py", lang.Python, src)

	capWordsFns := byRule(res.Issues, RuleFunctionCapWords)
	require.Len(t, capWordsFns, 1)
	assert.Equal(t, 1, capWordsFns[0].Line)
	assert.Contains(t, capWordsFns[0].Suggestion, "process_data")

	caseFns := byRule(res.Issues, RuleFunctionCase)
	require.Len(t, caseFns, 1)
	assert.Equal(t, 4, caseFns[0].Line)
	assert.Contains(t, caseFns[0].Suggestion, "process_data")

	classes := byRule(res.Issues, RuleClassCase)
	require.Len(t, classes, 1)
	assert.Equal(t, 10, classes[0].Line)
	assert.Contains(t, classes[0].Suggestion, "MyClass")
	assert.Equal(t, issue.SeverityMedium, classes[0].Severity)
	assert.Equal(t, issue.CategoryStyle, classes[0].Category)

	assert.Equal(t, 4, res.Metrics.FunctionCount)
	assert.Equal(t, 1, res.Metrics.ClassCount)
}

func TestStructuralMutableDefaultOncePerFunction(t *testing.T) {
	src := "def f(a=[], b={}, c=None):\n    return a\n\ndef g(x=()):\n    return x\n"
	res := analyze(t, "defaults.py", lang.Python, src)

	got := byRule(res.Issues, RuleMutableDefault)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Line)
	assert.Equal(t, issue.SeverityHigh, got[0].Severity)
	assert.Contains(t, got[0].Message, "a, b")
}

func TestStructuralBareExcept(t *testing.T) {
	src := `def load():
    try:
        return open("x").read()
    except ValueError:
        pass
    try:
        return 1
    except:
        return 2
`
	res := analyze(t, "load.py", lang.Python, src)

	got := byRule(res.Issues, RuleBareExcept)
	require.Len(t, got, 1)
	assert.Equal(t, 8, got[0].Line)
	assert.Equal(t, issue.CategoryBestPractice, got[0].Category)
	assert.Equal(t, "except:", got[0].Context)
}

func TestStructuralHighComplexity(t *testing.T) {
	var b strings.Builder
	b.WriteString("def busy(x):\n")
	for i := 0; i < 7; i++ {
		b.WriteString("    if x:\n        x -= 1\n")
	}
	b.WriteString("    return x\n\ndef calm(x):\n    return x\n")

	res := analyze(t, "busy.py", lang.Python, b.String())

	got := byRule(res.Issues, RuleHighComplexity)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Line)
	assert.Equal(t, issue.SeverityHigh, got[0].Severity)
	assert.Contains(t, got[0].Message, "busy")
	assert.Equal(t, 8, res.Metrics.CyclomaticComplexity)
}

func TestStructuralDeepNesting(t *testing.T) {
	src := `def process(items):
    total = 0
    for item in items:
        if item > 0:
            if item > 10:
                if item > 100:
                    if item > 1000:
                        total += item
    return total
`
	res := analyze(t, "deep.py", lang.Python, src)

	got := byRule(res.Issues, RuleDeepNesting)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "5 levels")
	assert.Empty(t, byRule(res.Issues, RuleHighComplexity))
	require.Len(t, res.Functions, 1)
	assert.Equal(t, 5, res.Functions[0].Metrics.MaxNesting)
}

func TestStructuralSyntaxError(t *testing.T) {
	res := analyze(t, "broken.py", lang.Python, "def broken(:\n    pass\n")

	require.NotNil(t, res.ParseError)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, RuleSyntaxError, res.Issues[0].RuleID)
	assert.Equal(t, issue.SeverityCritical, res.Issues[0].Severity)
	assert.Equal(t, issue.CategoryBug, res.Issues[0].Category)
	assert.GreaterOrEqual(t, res.Issues[0].Line, 1)
	assert.Equal(t, issue.NewMetrics(), res.Metrics)
}

func TestStructuralEmptyFile(t *testing.T) {
	res := analyze(t, "empty.py", lang.Python, "")

	assert.Nil(t, res.ParseError)
	assert.Empty(t, res.Issues)
	assert.Equal(t, 1, res.Metrics.CyclomaticComplexity)
	assert.Equal(t, 0, res.Metrics.LinesOfCode)
	assert.Zero(t, res.Metrics.CommentRatio)
}

func TestHeuristicJavaScript(t *testing.T) {
	src := "var x = 1;\nif (x == 2) { console.log(x); }\nif (x === 3) { let y = \"a == b\"; }\n"
	res := analyze(t, "app.js", lang.JavaScript, src)

	noVar := byRule(res.Issues, RuleNoVar)
	require.Len(t, noVar, 1)
	assert.Equal(t, 1, noVar[0].Line)
	assert.Equal(t, 0, noVar[0].Column)

	loose := byRule(res.Issues, RuleLooseEquality)
	require.Len(t, loose, 1)
	assert.Equal(t, 2, loose[0].Line)
	assert.Equal(t, strings.Index("if (x == 2)", "=="), loose[0].Column)

	logs := byRule(res.Issues, RuleConsoleLog)
	require.Len(t, logs, 1)
	assert.Equal(t, issue.SeverityInfo, logs[0].Severity)
}

func TestHeuristicGoUncheckedError(t *testing.T) {
	src := `package main

func main() {
	f, err := os.Open("x")
	f.Close()

	if err := run(); err != nil {
		return
	}

	data, err := read()

	if err != nil {
		panic("read failed")
	}
	_ = data
}
`
	res := analyze(t, "main.go", lang.Go, src)

	unchecked := byRule(res.Issues, RuleUncheckedError)
	require.Len(t, unchecked, 1)
	assert.Equal(t, 4, unchecked[0].Line)
	assert.Equal(t, issue.CategoryBug, unchecked[0].Category)

	panics := byRule(res.Issues, RulePanicCall)
	require.Len(t, panics, 1)
	assert.Equal(t, 14, panics[0].Line)

	assert.Equal(t, 1, res.Metrics.FunctionCount)
}

func TestHeuristicJava(t *testing.T) {
	src := `public class App {
    public void run() {
        try {
            work();
        } catch (Exception e) {
            System.out.println("failed");
        } catch (java.io.IOException e) {
        }
    }
}
`
	res := analyze(t, "App.java", lang.Java, src)

	broad := byRule(res.Issues, RuleBroadCatch)
	require.Len(t, broad, 1)
	assert.Equal(t, 5, broad[0].Line)

	prints := byRule(res.Issues, RuleStdoutPrint)
	require.Len(t, prints, 1)
	assert.Equal(t, 6, prints[0].Line)

	assert.Equal(t, 1, res.Metrics.ClassCount)
	assert.Equal(t, 1, res.Metrics.FunctionCount)
}

func TestHeuristicCommonChecks(t *testing.T) {
	long := "let s = 1; " + strings.Repeat("a", 130)
	src := "// TODO: tidy this\n" + long + "\n"
	for _, l := range []lang.Language{lang.Rust, lang.Unknown} {
		t.Run(string(l), func(t *testing.T) {
			res := analyze(t, "file", l, src)

			todos := byRule(res.Issues, RuleTodoComment)
			require.Len(t, todos, 1)
			assert.Equal(t, 1, todos[0].Line)
			assert.Equal(t, issue.CategoryDocumentation, todos[0].Category)

			long := byRule(res.Issues, RuleLineTooLong)
			require.Len(t, long, 1)
			assert.Equal(t, 2, long[0].Line)
			assert.Equal(t, 120, long[0].Column)
		})
	}
}

func TestHeuristicIgnoresStrings(t *testing.T) {
	res := analyze(t, "a.js", lang.JavaScript, "let msg = \"var x == console.log(\";\n")
	assert.Empty(t, byRule(res.Issues, RuleNoVar))
	assert.Empty(t, byRule(res.Issues, RuleLooseEquality))
	assert.Empty(t, byRule(res.Issues, RuleConsoleLog))
}

func TestLineMetrics(t *testing.T) {
	var m issue.Metrics
	LineMetrics(lang.Python, []string{"# c", "x = 1", "", "y = 2"}, &m)

	assert.Equal(t, 2, m.LinesOfCode)
	assert.InDelta(t, 0.5, m.CommentRatio, 1e-9)
	assert.InDelta(t, 13.0/3.0, m.AverageLineLength, 1e-9)

	var none issue.Metrics
	LineMetrics(lang.Go, []string{"// only", "// comments"}, &none)
	assert.Equal(t, 0, none.LinesOfCode)
	assert.Zero(t, none.CommentRatio)
}

func TestHeuristicLargeInputs(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"minified line", "var a = [" + strings.Repeat("1,", 1<<19) + "1];\n"},
		{"unclosed blocks", strings.Repeat("if (x) {\n", 50000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			res := analyze(t, "big.js", lang.JavaScript, tt.src)
			assert.Less(t, time.Since(start), 10*time.Second)
			assert.Positive(t, res.Metrics.CyclomaticComplexity)
		})
	}
}
