package template

import (
	"go.starlark.net/syntax"
)

// convertExpr maps a parsed expression onto the closed expression AST.
// Shapes with no dedicated kind become OpaqueExpr, keeping their converted
// sub-expressions as children so call discovery still descends into them.
func convertExpr(e syntax.Expr, base Position) Expr {
	switch e := e.(type) {
	case *syntax.Literal:
		return convertLiteral(e, base)

	case *syntax.Ident:
		return convertIdent(e, base)

	case *syntax.CallExpr:
		return convertCall(e, base)

	case *syntax.DotExpr:
		n := &GetattrExpr{
			Target: convertExpr(e.X, base),
			Attr:   e.Name.Name,
		}
		n.pos = spanPos(e, base)
		return n

	case *syntax.DictExpr:
		n := &DictExpr{}
		n.pos = spanPos(e, base)
		for _, entry := range e.List {
			pair, ok := entry.(*syntax.DictEntry)
			if !ok {
				continue
			}
			n.Items = append(n.Items, DictItem{
				Key:   convertExpr(pair.Key, base),
				Value: convertExpr(pair.Value, base),
			})
		}
		return n

	case *syntax.ListExpr:
		n := &ListExpr{}
		n.pos = spanPos(e, base)
		for _, item := range e.List {
			n.Items = append(n.Items, convertExpr(item, base))
		}
		return n

	case *syntax.BinaryExpr:
		if e.Op == syntax.PLUS {
			return convertConcat(e, base)
		}
		return opaque(e, base, "binary("+e.Op.String()+")", e.X, e.Y)

	case *syntax.ParenExpr:
		return convertExpr(e.X, base)

	case *syntax.UnaryExpr:
		if e.X == nil {
			return opaque(e, base, "unary("+e.Op.String()+")")
		}
		return opaque(e, base, "unary("+e.Op.String()+")", e.X)

	case *syntax.IndexExpr:
		return opaque(e, base, "index", e.X, e.Y)

	case *syntax.SliceExpr:
		return opaque(e, base, "slice", e.X, e.Lo, e.Hi, e.Step)

	case *syntax.CondExpr:
		return opaque(e, base, "cond", e.Cond, e.True, e.False)

	case *syntax.TupleExpr:
		return opaque(e, base, "tuple", e.List...)

	case *syntax.Comprehension:
		return opaque(e, base, "comprehension", e.Body)

	case *syntax.LambdaExpr:
		return opaque(e, base, "lambda")

	default:
		return opaque(e, base, "unsupported")
	}
}

// convertLiteral maps literal tokens to ConstExpr. Byte strings keep a
// non-classifiable payload on purpose: they are not text literals.
func convertLiteral(e *syntax.Literal, base Position) Expr {
	n := &ConstExpr{}
	n.pos = spanPos(e, base)

	switch e.Token {
	case syntax.STRING:
		n.Value = e.Value
	case syntax.INT:
		// Value is int64 for machine-sized ints, *big.Int otherwise.
		n.Value = e.Value
	case syntax.FLOAT:
		n.Value = e.Value
	case syntax.BYTES:
		if s, ok := e.Value.(string); ok {
			n.Value = []byte(s)
		}
	default:
		n.Value = e.Value
	}
	return n
}

// convertIdent maps boolean/none keywords to constants and everything else
// to a name reference. Both the Python-style and Jinja-style spellings of
// the keyword literals are accepted.
func convertIdent(e *syntax.Ident, base Position) Expr {
	pos := spanPos(e, base)
	switch e.Name {
	case "True", "true":
		n := &ConstExpr{Value: true}
		n.pos = pos
		return n
	case "False", "false":
		n := &ConstExpr{Value: false}
		n.pos = pos
		return n
	case "None", "none":
		n := &ConstExpr{Value: nil}
		n.pos = pos
		return n
	}
	n := &NameExpr{Name: e.Name}
	n.pos = pos
	return n
}

// convertCall splits call arguments into positionals and keywords.
// name=value arguments arrive as binary '=' expressions with an identifier
// on the left; *args and **kwargs become opaque positionals.
func convertCall(e *syntax.CallExpr, base Position) Expr {
	n := &CallExpr{Func: convertExpr(e.Fn, base)}
	n.pos = spanPos(e, base)

	for _, arg := range e.Args {
		if bin, ok := arg.(*syntax.BinaryExpr); ok && bin.Op == syntax.EQ {
			if ident, ok := bin.X.(*syntax.Ident); ok {
				n.Kwargs = append(n.Kwargs, Keyword{
					Name:  ident.Name,
					Value: convertExpr(bin.Y, base),
				})
				continue
			}
		}
		if un, ok := arg.(*syntax.UnaryExpr); ok && (un.Op == syntax.STAR || un.Op == syntax.STARSTAR) {
			n.Args = append(n.Args, opaque(un, base, "splat", un.X))
			continue
		}
		n.Args = append(n.Args, convertExpr(arg, base))
	}
	return n
}

// convertConcat flattens a chain of '+' expressions into one ConcatExpr.
func convertConcat(e *syntax.BinaryExpr, base Position) Expr {
	n := &ConcatExpr{}
	n.pos = spanPos(e, base)

	var flatten func(syntax.Expr)
	flatten = func(part syntax.Expr) {
		if bin, ok := part.(*syntax.BinaryExpr); ok && bin.Op == syntax.PLUS {
			flatten(bin.X)
			flatten(bin.Y)
			return
		}
		n.Parts = append(n.Parts, convertExpr(part, base))
	}
	flatten(e.X)
	flatten(e.Y)
	return n
}

// opaque builds an OpaqueExpr from any non-nil sub-expressions.
func opaque(e syntax.Expr, base Position, desc string, children ...syntax.Expr) Expr {
	n := &OpaqueExpr{Desc: desc}
	n.pos = spanPos(e, base)
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, convertExpr(c, base))
		}
	}
	return n
}

// spanPos translates an expression position (relative to the expression
// source) into a template position relative to the enclosing segment.
func spanPos(e syntax.Expr, base Position) Position {
	start, _ := e.Span()
	pos := Position{File: base.File}
	if int(start.Line) <= 1 {
		pos.Line = base.Line
		pos.Column = base.Column + int(start.Col) - 1
	} else {
		pos.Line = base.Line + int(start.Line) - 1
		pos.Column = int(start.Col)
	}
	return pos
}
