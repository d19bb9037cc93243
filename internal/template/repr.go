package template

import (
	"fmt"
	"math/big"
	"strings"
)

// Repr returns a stable structural rendering of an expression. The output
// is used as an opaque snapshot for change detection across parses; it is
// deterministic for identical input but is not meant to be parsed back.
func Repr(e Expr) string {
	if e == nil {
		return "None"
	}
	switch e := e.(type) {
	case *ConstExpr:
		return fmt.Sprintf("Const(value=%s)", reprValue(e.Value))
	case *NameExpr:
		return fmt.Sprintf("Name(name='%s')", e.Name)
	case *CallExpr:
		return fmt.Sprintf("Call(func=%s, args=[%s], kwargs=[%s])",
			Repr(e.Func), reprList(e.Args), reprKeywords(e.Kwargs))
	case *GetattrExpr:
		return fmt.Sprintf("Getattr(target=%s, attr='%s')", Repr(e.Target), e.Attr)
	case *DictExpr:
		items := make([]string, 0, len(e.Items))
		for _, item := range e.Items {
			items = append(items, fmt.Sprintf("Pair(key=%s, value=%s)", Repr(item.Key), Repr(item.Value)))
		}
		return fmt.Sprintf("Dict(items=[%s])", strings.Join(items, ", "))
	case *ConcatExpr:
		return fmt.Sprintf("Concat(parts=[%s])", reprList(e.Parts))
	case *ListExpr:
		return fmt.Sprintf("List(items=[%s])", reprList(e.Items))
	case *OpaqueExpr:
		if len(e.Children) == 0 {
			return fmt.Sprintf("Opaque(desc='%s')", e.Desc)
		}
		return fmt.Sprintf("Opaque(desc='%s', children=[%s])", e.Desc, reprList(e.Children))
	default:
		return "Opaque(desc='unknown')"
	}
}

// ReprKeyword renders a keyword argument the same way Repr renders nodes.
func ReprKeyword(kw Keyword) string {
	return fmt.Sprintf("Keyword(key='%s', value=%s)", kw.Name, Repr(kw.Value))
}

func reprList(exprs []Expr) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, Repr(e))
	}
	return strings.Join(parts, ", ")
}

func reprKeywords(kwargs []Keyword) string {
	parts := make([]string, 0, len(kwargs))
	for _, kw := range kwargs {
		parts = append(parts, ReprKeyword(kw))
	}
	return strings.Join(parts, ", ")
}

func reprValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "None"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "\\'") + "'"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	case *big.Int:
		return v.String()
	case []byte:
		return fmt.Sprintf("b'%s'", string(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}
