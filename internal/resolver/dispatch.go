package resolver

import (
	"github.com/leapstack-labs/macroscope/internal/template"
)

// resolveDispatch resolves an adapter.dispatch(macro_name, packages) call
// into its candidate macro calls.
//
// The macro name comes from the first positional argument when it is a
// literal string, and from a macro_name keyword argument, which must be a
// literal string. The namespace comes from a macro_namespace keyword
// argument (literal string required) or from the second positional
// argument: a literal list contributes a package search list, a literal
// string overrides any keyword namespace (positional is evaluated after
// keyword, so positional wins).
//
// With a live lookup, the dispatch resolves to exactly one fully-qualified
// macro. Without one, each candidate package contributes one call named
// package.macro_name. Duplicates are permitted here; the caller dedupes.
func resolveDispatch(call *template.CallExpr, lookup NamespaceLookup) ([]*MacroCall, error) {
	var candidates []*MacroCall

	// macro_name positional argument
	var funcName string
	if len(call.Args) > 0 {
		if name, ok := constString(call.Args[0]); ok && name != "" {
			funcName = name
			candidates = append(candidates, newMacroCall(call, name))
		}
	}

	// keyword arguments
	var macroNamespace string
	for _, kw := range call.Kwargs {
		switch kw.Name {
		case "macro_name":
			name, ok := constString(kw.Value)
			if !ok {
				return nil, &MacroNameNotStringError{Value: template.Repr(kw.Value)}
			}
			funcName = name
			candidates = append(candidates, newMacroCall(call, name))
		case "macro_namespace":
			ns, ok := constString(kw.Value)
			if !ok {
				return nil, &MacroNamespaceNotStringError{Kind: kindName(kw.Value)}
			}
			macroNamespace = ns
		}
	}

	// packages positional argument: a list of candidate packages, or a
	// single literal acting as a namespace override.
	var packages []string
	if len(call.Args) > 1 {
		switch p := call.Args[1].(type) {
		case *template.ListExpr:
			for _, item := range p.Items {
				if pkg, ok := constString(item); ok {
					packages = append(packages, pkg)
				}
			}
		case *template.ConstExpr:
			if ns, ok := constString(p); ok {
				macroNamespace = ns
			}
		}
	}

	if funcName == "" {
		// Fully dynamic macro name; nothing further can be resolved.
		return candidates, nil
	}

	if lookup != nil {
		resolved, err := lookup.Dispatch(funcName, macroNamespace)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, newMacroCall(call, resolved.Package+"."+resolved.Name))
		return candidates, nil
	}

	// Offline resolution: an explicit namespace is the sole candidate
	// package, otherwise use the packages list as given.
	if macroNamespace != "" {
		packages = []string{macroNamespace}
	}
	for _, pkg := range packages {
		candidates = append(candidates, newMacroCall(call, pkg+"."+funcName))
	}
	return candidates, nil
}

// constString reports whether e is a literal string and returns its value.
func constString(e template.Expr) (string, bool) {
	c, ok := e.(*template.ConstExpr)
	if !ok {
		return "", false
	}
	s, ok := c.Value.(string)
	return s, ok
}
