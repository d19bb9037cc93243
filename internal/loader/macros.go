// Package loader discovers a project's model and macro files on disk and
// statically extracts macro definitions without rendering any template.
package loader

import (
	"fmt"
	"path/filepath"

	"go.starlark.net/syntax"

	"github.com/leapstack-labs/macroscope/internal/registry"
	"github.com/leapstack-labs/macroscope/internal/template"
)

// ParseMacros statically extracts {% macro name(args) %} definitions from a
// macro file. The file is tokenized but never rendered; a macro signature
// is parsed as a call-shaped expression purely to pull out its name and
// parameter list.
func ParseMacros(pkg, path string, content []byte) ([]*registry.Macro, error) {
	tokens, err := template.NewLexer(string(content), path).Tokenize()
	if err != nil {
		return nil, &LoadError{File: path, Message: err.Error()}
	}

	var macros []*registry.Macro
	for _, tok := range tokens {
		if tok.Type != template.TokenStmt {
			continue
		}
		keyword, rest := splitWord(tok.Value)
		if keyword != "macro" {
			continue
		}

		name, args, err := parseSignature(rest)
		if err != nil {
			return nil, &LoadError{
				File:    path,
				Message: fmt.Sprintf("invalid macro signature on line %d: %v", tok.Pos.Line, err),
			}
		}

		macros = append(macros, &registry.Macro{
			Package:  pkg,
			Name:     name,
			Args:     args,
			FilePath: path,
			Line:     tok.Pos.Line,
		})
	}
	return macros, nil
}

// parseSignature extracts the macro name and parameter names from a
// signature like "dateadd(part, interval=1)".
func parseSignature(signature string) (string, []string, error) {
	expr, err := syntax.ParseExpr("", signature, 0)
	if err != nil {
		return "", nil, err
	}

	call, ok := expr.(*syntax.CallExpr)
	if !ok {
		// A parameterless macro may be written without parentheses.
		if ident, isIdent := expr.(*syntax.Ident); isIdent {
			return ident.Name, nil, nil
		}
		return "", nil, fmt.Errorf("expected name(args), got %q", signature)
	}

	ident, ok := call.Fn.(*syntax.Ident)
	if !ok {
		return "", nil, fmt.Errorf("macro name must be a plain identifier")
	}

	return ident.Name, extractParams(call.Args), nil
}

// extractParams converts signature parameters to string representations,
// rendering defaults inline ("x", "y=1", "*args", "**kwargs").
func extractParams(params []syntax.Expr) []string {
	var args []string
	for _, param := range params {
		switch p := param.(type) {
		case *syntax.Ident:
			args = append(args, p.Name)
		case *syntax.BinaryExpr:
			if p.Op == syntax.EQ {
				if ident, ok := p.X.(*syntax.Ident); ok {
					args = append(args, ident.Name+"="+defaultRepr(p.Y))
				}
			}
		case *syntax.UnaryExpr:
			if ident, ok := p.X.(*syntax.Ident); ok {
				prefix := ""
				if p.Op == syntax.STAR {
					prefix = "*"
				} else if p.Op == syntax.STARSTAR {
					prefix = "**"
				}
				args = append(args, prefix+ident.Name)
			}
		}
	}
	return args
}

// defaultRepr renders a parameter default for signatures. Complex defaults
// collapse to a placeholder.
func defaultRepr(expr syntax.Expr) string {
	switch e := expr.(type) {
	case *syntax.Literal:
		return e.Raw
	case *syntax.Ident:
		return e.Name
	case *syntax.ListExpr:
		return "[]"
	case *syntax.DictExpr:
		return "{}"
	case *syntax.TupleExpr:
		return "()"
	case *syntax.UnaryExpr:
		if e.Op == syntax.MINUS {
			return "-" + defaultRepr(e.X)
		}
		return defaultRepr(e.X)
	default:
		return "..."
	}
}

// LoadError represents an error while loading a project file.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s", filepath.Base(e.File), e.Message)
}
