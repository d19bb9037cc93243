// Package registry provides macro registration and namespaced lookup.
// It maps package-qualified macro names to their definitions and implements
// the search-path resolution used by adapter.dispatch: explicit namespace
// first, then the configured package search order, with adapter-prefixed
// implementations shadowing default ones inside each package.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/macroscope/internal/resolver"
)

// Macro is one registered macro definition.
type Macro struct {
	// Package is the owning package namespace.
	Package string
	// Name is the macro name, including any adapter prefix
	// (e.g. "postgres__dateadd", "default__dateadd").
	Name string
	// Args holds the declared argument names, defaults rendered inline.
	Args []string
	// FilePath and Line locate the definition for diagnostics.
	FilePath string
	Line     int
}

// MacroNotFoundError indicates a dispatch that matched no macro.
type MacroNotFoundError struct {
	Name      string
	Namespace string
}

func (e *MacroNotFoundError) Error() string {
	if e.Namespace != "" {
		return fmt.Sprintf("macro %q not found in namespace %q", e.Name, e.Namespace)
	}
	return fmt.Sprintf("macro %q not found in any package on the search path", e.Name)
}

// MacroRegistry holds macros grouped by package namespace.
type MacroRegistry struct {
	mu sync.RWMutex

	// byPackage maps package → macro name → definition
	byPackage map[string]map[string]*Macro

	// searchOrder is the package search order for dispatch when no
	// explicit namespace is given (project package first, then
	// dependencies, then the global/builtin package)
	searchOrder []string

	// adapterType selects the adapter-specific prefix tried before
	// default__ inside each package
	adapterType string
}

// NewMacroRegistry creates an empty registry for the given adapter type.
func NewMacroRegistry(adapterType string) *MacroRegistry {
	return &MacroRegistry{
		byPackage:   make(map[string]map[string]*Macro),
		adapterType: adapterType,
	}
}

// reservedNamespaces are package names that collide with template builtins
// and can never hold macros.
var reservedNamespaces = map[string]bool{
	"ref":    true,
	"source": true,
	"config": true,
}

// Register adds a macro definition. Re-registering the same package.name
// replaces the earlier definition; the last definition wins, matching how
// project macros shadow package-shipped ones of the same name.
func (r *MacroRegistry) Register(m *Macro) error {
	if reservedNamespaces[m.Package] {
		return fmt.Errorf("package name %q is reserved", m.Package)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pkg, ok := r.byPackage[m.Package]
	if !ok {
		pkg = make(map[string]*Macro)
		r.byPackage[m.Package] = pkg
	}
	pkg[m.Name] = m
	return nil
}

// SetSearchOrder configures the package search order for dispatch.
func (r *MacroRegistry) SetSearchOrder(packages []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchOrder = append([]string(nil), packages...)
}

// Get returns the macro registered under package.name.
func (r *MacroRegistry) Get(pkg, name string) (*Macro, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byPackage[pkg][name]
	return m, ok
}

// Packages returns all registered package names, sorted.
func (r *MacroRegistry) Packages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pkgs := make([]string, 0, len(r.byPackage))
	for pkg := range r.byPackage {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)
	return pkgs
}

// Count returns the number of registered macros across all packages.
func (r *MacroRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, pkg := range r.byPackage {
		n += len(pkg)
	}
	return n
}

// Dispatch resolves a macro name to a concrete implementation. An explicit
// namespace restricts the search to that package; otherwise packages are
// tried in search order. Within each package the adapter-prefixed name is
// tried first, then default__, then the bare name.
//
// Dispatch implements resolver.NamespaceLookup.
func (r *MacroRegistry) Dispatch(macroName, macroNamespace string) (*resolver.ResolvedMacro, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	searchPackages := r.searchOrder
	if macroNamespace != "" {
		searchPackages = []string{macroNamespace}
	}

	for _, pkg := range searchPackages {
		macros, ok := r.byPackage[pkg]
		if !ok {
			continue
		}
		for _, candidate := range r.candidateNames(macroName) {
			if m, ok := macros[candidate]; ok {
				return &resolver.ResolvedMacro{Package: m.Package, Name: m.Name}, nil
			}
		}
	}

	return nil, &MacroNotFoundError{Name: macroName, Namespace: macroNamespace}
}

// candidateNames lists the concrete names tried for a dispatched macro, in
// shadowing order.
func (r *MacroRegistry) candidateNames(macroName string) []string {
	names := make([]string, 0, 3)
	if r.adapterType != "" {
		names = append(names, r.adapterType+"__"+macroName)
	}
	names = append(names, "default__"+macroName, macroName)
	return names
}
