// Package complexity computes cyclomatic complexity, cognitive complexity
// and maximum nesting depth over a structural tree. The three measures are
// independent folds; none reads another's result.
package complexity

import "github.com/JNZader/codesentry/internal/ast"

// Metrics holds the three measures for one subtree.
type Metrics struct {
	Cyclomatic int `json:"cyclomatic"`
	Cognitive  int `json:"cognitive"`
	MaxNesting int `json:"max_nesting"`
}

// Function is the complexity of a single function or method.
type Function struct {
	Name    string  `json:"name"`
	Line    int     `json:"line"`
	EndLine int     `json:"end_line"`
	Metrics Metrics `json:"metrics"`
}

func isBranch(k ast.Kind) bool {
	return k == ast.KindConditional || k == ast.KindLoop || k == ast.KindHandler
}

func nests(k ast.Kind) bool {
	switch k {
	case ast.KindConditional, ast.KindLoop, ast.KindResource, ast.KindFunction, ast.KindClass:
		return true
	}
	return false
}

// Cyclomatic returns 1 plus the number of decision points under root:
// one per conditional, loop and handler, and one per extra operand of a
// boolean chain.
func Cyclomatic(root *ast.Node) int {
	total := 1
	ast.Inspect(root, func(n *ast.Node) bool {
		switch {
		case isBranch(n.Kind):
			total++
		case n.Kind == ast.KindBoolOp && n.Operands > 1:
			total += n.Operands - 1
		}
		return true
	})
	return total
}

// Cognitive returns the nesting-weighted complexity of root. Each
// conditional, loop and handler adds 1 plus its nesting level; only
// conditionals and loops increase the level for their children.
func Cognitive(root *ast.Node) int {
	return cognitive(root, 0)
}

func cognitive(n *ast.Node, nesting int) int {
	if n == nil {
		return 0
	}
	score := 0
	if isBranch(n.Kind) {
		score = 1 + nesting
	}
	if n.Kind == ast.KindConditional || n.Kind == ast.KindLoop {
		nesting++
	}
	for _, c := range n.Children {
		score += cognitive(c, nesting)
	}
	return score
}

// MaxNesting returns the deepest stack of conditionals, loops, resource
// scopes, functions and classes under root, counting root itself.
func MaxNesting(root *ast.Node) int {
	if root == nil {
		return 0
	}
	deepest := 0
	for _, c := range root.Children {
		if d := MaxNesting(c); d > deepest {
			deepest = d
		}
	}
	if nests(root.Kind) {
		deepest++
	}
	return deepest
}

// BodyNesting is MaxNesting of n's children, i.e. the nesting inside a
// function or class body not counting the definition itself.
func BodyNesting(n *ast.Node) int {
	if n == nil {
		return 0
	}
	deepest := 0
	for _, c := range n.Children {
		if d := MaxNesting(c); d > deepest {
			deepest = d
		}
	}
	return deepest
}

// Measure runs all three folds over root.
func Measure(root *ast.Node) Metrics {
	return Metrics{
		Cyclomatic: Cyclomatic(root),
		Cognitive:  Cognitive(root),
		MaxNesting: MaxNesting(root),
	}
}

// Functions measures every function in the tree, nested ones included, in
// source order. Each function is measured over its own body: functions
// nested inside it are left out, since they are measured on their own.
// MaxNesting is relative to the function body.
func Functions(root *ast.Node) []Function {
	var out []Function
	for _, fn := range ast.Collect(root, ast.KindFunction) {
		body := ownBody(fn)
		out = append(out, Function{
			Name:    fn.Name,
			Line:    fn.Line,
			EndLine: fn.EndLine,
			Metrics: Metrics{
				Cyclomatic: Cyclomatic(body),
				Cognitive:  Cognitive(body),
				MaxNesting: BodyNesting(body),
			},
		})
	}
	return out
}

// ownBody returns a shallow copy of fn without the functions nested in it.
// Every node is copied for at most one function, so measuring all of them
// stays linear in the size of the tree.
func ownBody(fn *ast.Node) *ast.Node {
	cp := *fn
	cp.Children = nil
	for _, c := range fn.Children {
		if c.Kind == ast.KindFunction {
			continue
		}
		cp.Children = append(cp.Children, ownBody(c))
	}
	return &cp
}
