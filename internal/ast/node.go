// Package ast builds the structural trees that complexity and structure
// checks run over. Python sources are parsed with tree-sitter; C-family
// sources get an approximate tree built from keywords and brace scopes.
package ast

// Kind tags the variant of a Node.
type Kind int

const (
	KindModule Kind = iota
	KindFunction
	KindClass
	KindConditional
	KindLoop
	KindHandler
	KindResource
	KindBoolOp
	KindCall
	KindLiteral
	KindBlock
)

var kindNames = [...]string{
	KindModule:      "module",
	KindFunction:    "function",
	KindClass:       "class",
	KindConditional: "conditional",
	KindLoop:        "loop",
	KindHandler:     "handler",
	KindResource:    "resource",
	KindBoolOp:      "boolop",
	KindCall:        "call",
	KindLiteral:     "literal",
	KindBlock:       "block",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Param is a function parameter.
type Param struct {
	Name string
	// HasDefault is set when the parameter declares a default value.
	HasDefault bool
	// MutableDefault is set when the default is a list, dict or set
	// literal (or comprehension), which is evaluated once and shared
	// between calls.
	MutableDefault bool
}

// Node is one element of a structural tree.
type Node struct {
	Kind    Kind
	Name    string // functions, classes, calls
	Line    int    // 1-based
	Column  int    // 0-based
	EndLine int

	// Operator and Operands describe a KindBoolOp: a chain of Operands
	// values joined by the same Operator.
	Operator string
	Operands int

	Params []Param // KindFunction

	// HandlerType is the caught type of a KindHandler. Empty means the
	// handler catches everything.
	HandlerType string

	Children []*Node
}

// Add appends child to n.
func (n *Node) Add(child *Node) {
	n.Children = append(n.Children, child)
}

// Inspect traverses the tree rooted at n in depth-first pre-order. If fn
// returns false the children of that node are skipped.
func Inspect(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Inspect(c, fn)
	}
}

// Collect returns every node of the given kind in pre-order, including
// nodes nested inside other matches.
func Collect(root *Node, kind Kind) []*Node {
	var out []*Node
	Inspect(root, func(n *Node) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Count returns the number of nodes of the given kind.
func Count(root *Node, kind Kind) int {
	return len(Collect(root, kind))
}
