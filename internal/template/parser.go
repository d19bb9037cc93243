package template

import (
	"strings"

	"go.starlark.net/syntax"
)

// Parse parses template text into a Template. Expression segments and the
// expression parts of statement heads are parsed into the closed expression
// AST; literal text is kept as TextNode. Nothing is evaluated, so undefined
// identifiers (user macros, adapter macros) parse without being in scope.
func Parse(text, file string) (*Template, error) {
	tokens, err := NewLexer(text, file).Tokenize()
	if err != nil {
		return nil, err
	}

	tpl := &Template{File: file}

	for _, tok := range tokens {
		switch tok.Type {
		case TokenText:
			n := &TextNode{Text: tok.Value}
			n.pos = tok.Pos
			tpl.Nodes = append(tpl.Nodes, n)

		case TokenExpr:
			expr, err := parseExpression(tok.Value, tok.Pos)
			if err != nil {
				return nil, err
			}
			n := &ExprNode{Expr: expr}
			n.pos = tok.Pos
			tpl.Nodes = append(tpl.Nodes, n)

		case TokenStmt:
			n, err := parseStatement(tok.Value, tok.Pos)
			if err != nil {
				return nil, err
			}
			tpl.Nodes = append(tpl.Nodes, n)

		case TokenEOF:
			// done
		}
	}

	return tpl, nil
}

// parseExpression parses one expression string at the given template position.
func parseExpression(src string, pos Position) (Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, NewParseError(pos, "empty expression")
	}

	parsed, err := syntax.ParseExpr(pos.File, strings.TrimSpace(src), 0)
	if err != nil {
		return nil, WrapParseError(pos, "invalid expression", err)
	}

	return convertExpr(parsed, pos), nil
}

// parseStatement parses a {% stmt %} head. Only statement kinds that embed
// expressions have their expression part parsed; everything else (endif,
// endfor, else, endmacro, ...) is recorded by keyword alone. Macro
// definition heads are deliberately not parsed as expressions: a signature
// is not a call site.
func parseStatement(src string, pos Position) (*StmtNode, error) {
	keyword, rest := splitKeyword(src)

	n := &StmtNode{Keyword: keyword}
	n.pos = pos

	var exprSrc string
	switch keyword {
	case "if", "elif", "do", "call":
		exprSrc = rest
	case "for":
		// {% for x in expr %}: only the iterable is an expression.
		if idx := strings.Index(rest, " in "); idx >= 0 {
			exprSrc = rest[idx+len(" in "):]
		}
	case "set":
		// {% set name = expr %}. Block-form set has no '=' and no expression.
		if idx := strings.Index(rest, "="); idx >= 0 {
			exprSrc = rest[idx+1:]
		}
	default:
		return n, nil
	}

	if strings.TrimSpace(exprSrc) == "" {
		return n, nil
	}

	expr, err := parseExpression(exprSrc, pos)
	if err != nil {
		return nil, err
	}
	n.Exprs = append(n.Exprs, expr)
	return n, nil
}

// splitKeyword splits a statement head into its leading keyword and the rest.
func splitKeyword(src string) (keyword, rest string) {
	src = strings.TrimSpace(src)
	if idx := strings.IndexAny(src, " \t\n"); idx >= 0 {
		return src[:idx], strings.TrimSpace(src[idx:])
	}
	return src, ""
}
