package ast

import (
	"regexp"
	"sort"
	"strings"

	"github.com/JNZader/codesentry/internal/lang"
)

var (
	conditionalPattern = regexp.MustCompile(`\b(?:if|elif|elsif|unless|case|when)\b`)
	loopPattern        = regexp.MustCompile(`\b(?:for|foreach|while|until)\b|\bloop\s*\{`)
	handlerPattern     = regexp.MustCompile(`\b(?:catch|except|rescue)\b`)
	resourcePattern    = regexp.MustCompile(`\busing\s*\(|\btry\s*\(|\bwith\s*\(`)
)

// Approximate builds a structural tree for a language without a full
// parser. Definitions come from the line scanner; control constructs are
// found by keyword and scoped by their brace block, and nesting follows
// line-range containment. It is an estimate: `else if` chains become
// siblings and constructs without braces have a single-line scope.
func Approximate(l lang.Language, src string) *Node {
	lines := strings.Split(src, "\n")
	code := StripLines(l, lines)

	root := &Node{Kind: KindModule, Line: 1, EndLine: len(lines)}
	if strings.TrimSpace(src) == "" {
		return root
	}

	outline := NewScanner(l).Scan(code)

	var nodes []*Node
	for _, c := range outline.Classes {
		nodes = append(nodes, &Node{Kind: KindClass, Name: c.Name, Line: c.StartLine, EndLine: c.EndLine})
	}
	for _, f := range outline.Functions {
		nodes = append(nodes, &Node{Kind: KindFunction, Name: f.Name, Line: f.StartLine, EndLine: f.EndLine})
	}

	blocks := indexBlocks(code)
	for i, line := range code {
		nodes = append(nodes, constructs(blocks, line, i)...)
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.EndLine != b.EndLine {
			return a.EndLine > b.EndLine
		}
		return containerRank(a.Kind) < containerRank(b.Kind)
	})

	stack := []*Node{root}
	for _, n := range nodes {
		for len(stack) > 1 && stack[len(stack)-1].EndLine < n.Line {
			stack = stack[:len(stack)-1]
		}
		stack[len(stack)-1].Add(n)
		if containerRank(n.Kind) < containerRank(KindBoolOp) {
			stack = append(stack, n)
		}
	}

	return root
}

// constructs returns the control-flow nodes that start on line idx. Only
// the first construct on a line owns the brace block that follows it.
func constructs(blocks *blockIndex, line string, idx int) []*Node {
	type hit struct {
		kind Kind
		col  int
	}
	var hits []hit
	for _, p := range []struct {
		re   *regexp.Regexp
		kind Kind
	}{
		{conditionalPattern, KindConditional},
		{loopPattern, KindLoop},
		{handlerPattern, KindHandler},
		{resourcePattern, KindResource},
	} {
		for _, loc := range p.re.FindAllStringIndex(line, -1) {
			hits = append(hits, hit{kind: p.kind, col: loc[0]})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].col < hits[j].col })

	lineNum := idx + 1
	var out []*Node
	for i, h := range hits {
		end := lineNum
		if i == 0 {
			end = blocks.braceEnd(idx) + 1
		}
		out = append(out, &Node{Kind: h.kind, Line: lineNum, Column: h.col, EndLine: end})
	}

	for _, op := range []string{"&&", "||"} {
		if n := strings.Count(line, op); n > 0 {
			out = append(out, &Node{
				Kind:     KindBoolOp,
				Operator: op,
				Operands: n + 1,
				Line:     lineNum,
				Column:   strings.Index(line, op),
				EndLine:  lineNum,
			})
		}
	}

	return out
}

// containerRank orders nodes that open on the same line and span the same
// range: definitions enclose control flow, which encloses expressions.
func containerRank(k Kind) int {
	switch k {
	case KindClass:
		return 0
	case KindFunction:
		return 1
	case KindConditional, KindLoop, KindHandler, KindResource:
		return 2
	default:
		return 3
	}
}
