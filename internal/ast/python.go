package ast

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// SyntaxError describes where a source file failed to parse.
type SyntaxError struct {
	Line    int // 1-based, 0 when unknown
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return "syntax error: " + e.Message
}

// ParseResult is the outcome of parsing a file. Exactly one of Root and
// Err is set.
type ParseResult struct {
	Root *Node
	Err  *SyntaxError
}

// OK reports whether parsing succeeded.
func (r ParseResult) OK() bool {
	return r.Err == nil
}

// sitter.Parser is not safe for concurrent use, so parsers are pooled.
var pythonParsers = sync.Pool{
	New: func() any {
		p := sitter.NewParser()
		p.SetLanguage(python.GetLanguage())
		return p
	},
}

// ParsePython parses Python source into a structural tree.
func ParsePython(ctx context.Context, src []byte) ParseResult {
	if len(src) == 0 {
		return ParseResult{Root: &Node{Kind: KindModule, Line: 1}}
	}

	parser := pythonParsers.Get().(*sitter.Parser)
	defer pythonParsers.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return ParseResult{Err: &SyntaxError{Message: err.Error()}}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return ParseResult{Err: firstSyntaxError(root, src)}
	}

	b := &pyBuilder{src: src}
	module := &Node{
		Kind:    KindModule,
		Line:    1,
		EndLine: int(root.EndPoint().Row) + 1,
	}
	b.children(root, module)
	return ParseResult{Root: module}
}

// firstSyntaxError locates the first ERROR or MISSING node, descending only
// into subtrees that contain one.
func firstSyntaxError(n *sitter.Node, src []byte) *SyntaxError {
	if n.IsMissing() {
		return &SyntaxError{
			Line:    int(n.StartPoint().Row) + 1,
			Column:  int(n.StartPoint().Column),
			Message: fmt.Sprintf("missing %q", n.Type()),
		}
	}
	if n.IsError() {
		text := n.Content(src)
		if len(text) > 40 {
			text = text[:40] + "..."
		}
		return &SyntaxError{
			Line:    int(n.StartPoint().Row) + 1,
			Column:  int(n.StartPoint().Column),
			Message: fmt.Sprintf("invalid syntax near %q", text),
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if e := firstSyntaxError(child, src); e != nil {
			return e
		}
	}
	return &SyntaxError{
		Line:    int(n.StartPoint().Row) + 1,
		Column:  int(n.StartPoint().Column),
		Message: "invalid syntax",
	}
}

type pyBuilder struct {
	src []byte
}

func (b *pyBuilder) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(b.src)
}

func (b *pyBuilder) node(kind Kind, n *sitter.Node) *Node {
	return &Node{
		Kind:    kind,
		Line:    int(n.StartPoint().Row) + 1,
		Column:  int(n.StartPoint().Column),
		EndLine: int(n.EndPoint().Row) + 1,
	}
}

// children converts every named child of n into parent.
func (b *pyBuilder) children(n *sitter.Node, parent *Node) {
	if n == nil {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		b.convert(n.NamedChild(i), parent)
	}
}

func (b *pyBuilder) convert(n *sitter.Node, parent *Node) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "comment":
		return

	case "decorated_definition":
		b.convert(n.ChildByFieldName("definition"), parent)

	case "function_definition":
		fn := b.node(KindFunction, n)
		fn.Name = b.text(n.ChildByFieldName("name"))
		fn.Params = b.params(n.ChildByFieldName("parameters"))
		b.children(n.ChildByFieldName("body"), fn)
		parent.Add(fn)

	case "class_definition":
		cls := b.node(KindClass, n)
		cls.Name = b.text(n.ChildByFieldName("name"))
		b.children(n.ChildByFieldName("body"), cls)
		parent.Add(cls)

	case "if_statement":
		b.ifStatement(n, parent)

	case "for_statement", "while_statement", "for_in_clause":
		loop := b.node(KindLoop, n)
		b.children(n, loop)
		parent.Add(loop)

	// Ternaries, comprehension filters and match arms branch like an if.
	case "conditional_expression", "if_clause", "case_clause":
		cond := b.node(KindConditional, n)
		b.children(n, cond)
		parent.Add(cond)

	case "except_clause", "except_group_clause":
		h := b.node(KindHandler, n)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "block":
				b.children(child, h)
			case "comment":
			default:
				if h.HandlerType == "" {
					h.HandlerType = b.text(child)
				}
				b.convert(child, h)
			}
		}
		parent.Add(h)

	case "with_statement":
		res := b.node(KindResource, n)
		b.children(n, res)
		parent.Add(res)

	case "boolean_operator":
		b.boolOp(n, parent)

	case "call":
		call := b.node(KindCall, n)
		call.Name = b.text(n.ChildByFieldName("function"))
		b.children(n.ChildByFieldName("arguments"), call)
		parent.Add(call)

	case "string", "integer", "float", "true", "false", "none", "concatenated_string":
		parent.Add(b.node(KindLiteral, n))

	case "list", "dictionary", "set", "tuple":
		lit := b.node(KindLiteral, n)
		lit.Name = n.Type()
		b.children(n, lit)
		parent.Add(lit)

	default:
		b.children(n, parent)
	}
}

// ifStatement models elif as a conditional nested in the else-branch of
// the preceding one, the way a Python syntax tree does.
func (b *pyBuilder) ifStatement(n *sitter.Node, parent *Node) {
	cond := b.node(KindConditional, n)
	b.convert(n.ChildByFieldName("condition"), cond)
	b.children(n.ChildByFieldName("consequence"), cond)
	parent.Add(cond)

	current := cond
	for i := 0; i < int(n.NamedChildCount()); i++ {
		alt := n.NamedChild(i)
		switch alt.Type() {
		case "elif_clause":
			elif := b.node(KindConditional, alt)
			b.convert(alt.ChildByFieldName("condition"), elif)
			b.children(alt.ChildByFieldName("consequence"), elif)
			current.Add(elif)
			current = elif
		case "else_clause":
			block := b.node(KindBlock, alt)
			b.children(alt.ChildByFieldName("body"), block)
			current.Add(block)
		}
	}
}

// boolOp flattens a same-operator chain such as `a and b and c` into one
// node with three operands.
func (b *pyBuilder) boolOp(n *sitter.Node, parent *Node) {
	op := b.operator(n)
	var operands []*sitter.Node
	b.collectOperands(n, op, &operands)

	node := b.node(KindBoolOp, n)
	node.Operator = op
	node.Operands = len(operands)
	for _, o := range operands {
		b.convert(o, node)
	}
	parent.Add(node)
}

func (b *pyBuilder) operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}

func (b *pyBuilder) collectOperands(n *sitter.Node, op string, out *[]*sitter.Node) {
	if n == nil {
		return
	}
	if n.Type() == "boolean_operator" && b.operator(n) == op {
		b.collectOperands(n.ChildByFieldName("left"), op, out)
		b.collectOperands(n.ChildByFieldName("right"), op, out)
		return
	}
	*out = append(*out, n)
}

var mutableLiteralTypes = map[string]bool{
	"list":                     true,
	"dictionary":               true,
	"set":                      true,
	"list_comprehension":       true,
	"dictionary_comprehension": true,
	"set_comprehension":        true,
}

func (b *pyBuilder) params(n *sitter.Node) []Param {
	if n == nil {
		return nil
	}
	var params []Param
	for i := 0; i < int(n.NamedChildCount()); i++ {
		p := n.NamedChild(i)
		switch p.Type() {
		case "identifier":
			params = append(params, Param{Name: b.text(p)})
		case "typed_parameter", "list_splat_pattern", "dictionary_splat_pattern":
			name := p
			if p.NamedChildCount() > 0 {
				name = p.NamedChild(0)
			}
			params = append(params, Param{Name: b.text(name)})
		case "default_parameter", "typed_default_parameter":
			value := p.ChildByFieldName("value")
			params = append(params, Param{
				Name:           b.text(p.ChildByFieldName("name")),
				HasDefault:     true,
				MutableDefault: value != nil && mutableLiteralTypes[value.Type()],
			})
		}
	}
	return params
}
