package graph

import (
	"strings"

	"github.com/leapstack-labs/macroscope/internal/project"
	"github.com/leapstack-labs/macroscope/internal/registry"
)

// Build assembles the dependency graph from a project scan. Models depend
// on the models they ref, the sources they select from, and the macros
// they call. Macro calls that cannot be matched to a registered macro are
// dropped rather than failing the build; missing edges are a precision
// loss the downstream build surfaces on its own terms.
func Build(result *project.Result, reg *registry.MacroRegistry) (*Graph, error) {
	g := New()

	// Model names resolve to dotted paths; refs may use either.
	byName := make(map[string]string, len(result.Models))
	for _, m := range result.Models {
		g.AddNode(m.Path, KindModel)
		byName[m.Name] = m.Path
	}

	for _, m := range result.Models {
		for _, ref := range m.Refs {
			target := ref.Name
			if path, ok := byName[ref.Name]; ok {
				target = path
			}
			g.AddNode(target, KindModel)
			if err := g.AddEdge(target, m.Path); err != nil {
				return nil, err
			}
		}

		for _, src := range m.Sources {
			id := src[0] + "." + src[1]
			g.AddNode(id, KindSource)
			if err := g.AddEdge(id, m.Path); err != nil {
				return nil, err
			}
		}

		for _, call := range m.MacroCalls {
			id, ok := macroNodeID(call.Name, reg)
			if !ok {
				continue
			}
			g.AddNode(id, KindMacro)
			if err := g.AddEdge(id, m.Path); err != nil {
				return nil, err
			}
		}
	}

	return g, nil
}

// macroNodeID maps a macro call name to a graph node ID. Dotted names are
// already package-qualified; bare names go through the registry's search
// order.
func macroNodeID(name string, reg *registry.MacroRegistry) (string, bool) {
	if strings.Contains(name, ".") {
		return name, true
	}
	if reg == nil {
		return "", false
	}

	resolved, err := reg.Dispatch(name, "")
	if err != nil {
		return "", false
	}
	return resolved.Package + "." + resolved.Name, true
}
