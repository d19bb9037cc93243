// Package resolver statically resolves macro calls in Jinja-style SQL
// templates. Given template text it determines which macros are invoked and
// with what argument shapes, without rendering anything, so dependency
// edges between models and macros exist before any database connection.
package resolver

import (
	"github.com/leapstack-labs/macroscope/internal/template"
)

// ArgType is the coarse type tag assigned to a call argument. Classification
// is purely syntactic; TypeUnknown is the safe default for anything that
// cannot be determined without evaluation.
type ArgType int

// ArgType constants. The zero value is TypeUnknown.
const (
	TypeUnknown ArgType = iota
	TypeString
	TypeBool
	TypeInt
	TypeFloat
	TypeNone
	TypeDict
)

func (t ArgType) String() string {
	switch t {
	case TypeString:
		return "str"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeNone:
		return "None"
	case TypeDict:
		return "Dict"
	default:
		return ""
	}
}

// MacroCall is one statically-detected macro invocation.
type MacroCall struct {
	// Name is the macro name, possibly dotted (package.macro).
	Name string
	// Source is the full template text the call was extracted from.
	Source string
	// ArgTypes holds one coarse tag per positional argument, in call order.
	ArgTypes []ArgType
	// KwargTypes maps keyword names to coarse tags.
	KwargTypes map[string]ArgType
}

// newMacroCall builds a MacroCall from a call node, classifying every
// argument. Source is stamped later by the resolver.
func newMacroCall(call *template.CallExpr, name string) *MacroCall {
	mc := &MacroCall{
		Name:       name,
		KwargTypes: make(map[string]ArgType, len(call.Kwargs)),
	}
	for _, arg := range call.Args {
		mc.ArgTypes = append(mc.ArgTypes, ClassifyArg(arg))
	}
	for _, kw := range call.Kwargs {
		mc.KwargTypes[kw.Name] = ClassifyArg(kw.Value)
	}
	return mc
}

// ResolvedMacro is the fully-qualified macro a namespace lookup selected.
type ResolvedMacro struct {
	Package string
	Name    string
}

// NamespaceLookup resolves a dispatch invocation to a concrete macro using
// the compiler's package/macro namespace view. Implementations may perform
// their own bookkeeping; the resolver calls Dispatch at most once per
// adapter.dispatch call and never caches the result.
type NamespaceLookup interface {
	Dispatch(macroName, macroNamespace string) (*ResolvedMacro, error)
}

// Context is a snapshot of the evaluation context, used only as a
// membership test: a call whose name is already bound to a truthy value is
// not an undefined macro needing resolution.
type Context map[string]any

// Has reports whether name is bound to a truthy value in the context.
// Empty strings, zero numbers, and empty collections count as unbound, so
// a call by that name still resolves as a macro.
func (c Context) Has(name string) bool {
	switch v := c[name].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
