// Package template provides parse-time analysis of Jinja-style SQL templates.
// It supports {{ expr }} expressions, {% stmt %} statements and {# comment #}
// comments. Templates are never rendered here: expressions are parsed into a
// small, closed expression AST so callers can inspect calls and literal
// arguments without evaluating anything.
package template

// Position tracks source location for error reporting.
type Position struct {
	File   string
	Line   int
	Column int
}

// Node is the interface for all template AST nodes.
type Node interface {
	Pos() Position
	node() // marker method to restrict implementation
}

// nodeBase provides common Position handling for all nodes.
type nodeBase struct {
	pos Position
}

func (n *nodeBase) Pos() Position { return n.pos }
func (n *nodeBase) node()         {}

// TextNode represents literal SQL text (passed through unchanged).
type TextNode struct {
	nodeBase
	Text string
}

// ExprNode represents a {{ expr }} segment with its parsed expression.
type ExprNode struct {
	nodeBase
	Expr Expr
}

// StmtNode represents a {% stmt %} segment. Keyword is the leading word
// (if, elif, for, set, do, macro, ...). Exprs holds the parsed expressions
// embedded in the statement head, if any.
type StmtNode struct {
	nodeBase
	Keyword string
	Exprs   []Expr
}

// Expr is the interface for expression nodes. The set of implementations is
// closed: ConstExpr, NameExpr, CallExpr, GetattrExpr, DictExpr, ConcatExpr,
// ListExpr and OpaqueExpr cover every shape the converter produces.
type Expr interface {
	Node
	expr() // marker method to keep the variant closed
}

type exprBase struct {
	nodeBase
}

func (e *exprBase) expr() {}

// ConstExpr is a literal constant. Value is one of string, bool, int64,
// float64 or nil; any other payload means the literal was recognized
// syntactically but its value is not classifiable.
type ConstExpr struct {
	exprBase
	Value any
}

// NameExpr is a bare identifier reference.
type NameExpr struct {
	exprBase
	Name string
}

// Keyword is a keyword argument in a call (name=value).
type Keyword struct {
	Name  string
	Value Expr
}

// CallExpr is a function or macro call. Func is typically a NameExpr or a
// GetattrExpr; Args holds positional arguments, Kwargs keyword arguments.
type CallExpr struct {
	exprBase
	Func   Expr
	Args   []Expr
	Kwargs []Keyword
}

// GetattrExpr is attribute access (x.y).
type GetattrExpr struct {
	exprBase
	Target Expr
	Attr   string
}

// DictItem is one key/value pair in a dict literal.
type DictItem struct {
	Key   Expr
	Value Expr
}

// DictExpr is a mapping literal.
type DictExpr struct {
	exprBase
	Items []DictItem
}

// ConcatExpr is a string-concatenation chain (a + b + c).
type ConcatExpr struct {
	exprBase
	Parts []Expr
}

// ListExpr is a list literal.
type ListExpr struct {
	exprBase
	Items []Expr
}

// OpaqueExpr covers expression shapes the static analysis does not model
// (subscripts, arithmetic, conditionals, comprehensions, ...). Desc names
// the shape; Children holds converted sub-expressions so call discovery
// still reaches calls nested inside unsupported constructs.
type OpaqueExpr struct {
	exprBase
	Desc     string
	Children []Expr
}

// Template represents a complete parsed template.
type Template struct {
	Nodes []Node
	File  string // Source file path
}

// FindCalls returns all call expressions in the template in document order,
// pre-order within each expression. A template with no calls yields nil.
func (t *Template) FindCalls() []*CallExpr {
	var calls []*CallExpr
	for _, n := range t.Nodes {
		switch n := n.(type) {
		case *ExprNode:
			calls = appendCalls(calls, n.Expr)
		case *StmtNode:
			for _, e := range n.Exprs {
				calls = appendCalls(calls, e)
			}
		}
	}
	return calls
}

func appendCalls(calls []*CallExpr, e Expr) []*CallExpr {
	if e == nil {
		return calls
	}
	switch e := e.(type) {
	case *ConstExpr, *NameExpr:
		// no children
	case *CallExpr:
		calls = append(calls, e)
		calls = appendCalls(calls, e.Func)
		for _, arg := range e.Args {
			calls = appendCalls(calls, arg)
		}
		for _, kw := range e.Kwargs {
			calls = appendCalls(calls, kw.Value)
		}
	case *GetattrExpr:
		calls = appendCalls(calls, e.Target)
	case *DictExpr:
		for _, item := range e.Items {
			calls = appendCalls(calls, item.Key)
			calls = appendCalls(calls, item.Value)
		}
	case *ConcatExpr:
		for _, p := range e.Parts {
			calls = appendCalls(calls, p)
		}
	case *ListExpr:
		for _, item := range e.Items {
			calls = appendCalls(calls, item)
		}
	case *OpaqueExpr:
		for _, c := range e.Children {
			calls = appendCalls(calls, c)
		}
	}
	return calls
}
