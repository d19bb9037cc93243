package resolver

import (
	"github.com/leapstack-labs/macroscope/internal/template"
)

// ClassifyArg assigns a coarse type tag to a call argument. It is a total
// function over the closed expression variant: unrecognized shapes and
// unclassifiable literal payloads degrade to TypeUnknown, never an error.
//
// Concatenation expressions classify as TypeDict. That mirrors the behavior
// callers already depend on; see DESIGN.md before changing it.
func ClassifyArg(e template.Expr) ArgType {
	switch e := e.(type) {
	case *template.NameExpr:
		// TODO: infer types from assignment context
		return TypeUnknown
	case *template.CallExpr:
		return TypeUnknown
	case *template.GetattrExpr:
		return TypeUnknown
	case *template.ConcatExpr:
		return TypeDict
	case *template.ConstExpr:
		return classifyConst(e.Value)
	case *template.DictExpr:
		return TypeDict
	case *template.ListExpr:
		return TypeUnknown
	case *template.OpaqueExpr:
		return TypeUnknown
	default:
		return TypeUnknown
	}
}

// classifyConst tags a literal payload. Bool is checked before the numeric
// types: in the evaluation model booleans are structurally a numeric
// subtype, so ordering matters there even though Go's type switch keeps the
// cases disjoint.
func classifyConst(v any) ArgType {
	switch v.(type) {
	case string:
		return TypeString
	case bool:
		return TypeBool
	case int64:
		return TypeInt
	case float64:
		return TypeFloat
	case nil:
		return TypeNone
	default:
		return TypeUnknown
	}
}

// kindName labels an expression node's kind for error reporting.
func kindName(e template.Expr) string {
	switch e.(type) {
	case *template.ConstExpr:
		return "Const"
	case *template.NameExpr:
		return "Name"
	case *template.CallExpr:
		return "Call"
	case *template.GetattrExpr:
		return "Getattr"
	case *template.DictExpr:
		return "Dict"
	case *template.ConcatExpr:
		return "Concat"
	case *template.ListExpr:
		return "List"
	case *template.OpaqueExpr:
		return "Opaque"
	default:
		return "Unknown"
	}
}
