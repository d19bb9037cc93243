package resolver

import (
	"sync/atomic"

	"github.com/leapstack-labs/macroscope/internal/template"
)

// reservedCalls are builtin call names that are never macro calls; they are
// intercepted by dedicated extractors instead.
var reservedCalls = map[string]bool{
	"source": true,
	"ref":    true,
	"config": true,
}

// Resolver extracts macro calls from template text. The zero value is not
// usable; construct with New. A Resolver is safe for concurrent use: it
// holds no mutable state beyond the optional ParseCache.
type Resolver struct {
	cache  *ParseCache
	lookup NamespaceLookup

	// parses counts full template parses (cache misses included).
	// Instrumentation for tests; not part of the resolution contract.
	parses atomic.Int64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache attaches a caller-owned parse cache.
func WithCache(c *ParseCache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithLookup attaches a live namespace lookup used to resolve
// adapter.dispatch calls to concrete macros. Without it, dispatch falls
// back to offline package-list resolution.
func WithLookup(l NamespaceLookup) Option {
	return func(r *Resolver) { r.lookup = l }
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ParseCount returns how many template parses this resolver has performed.
func (r *Resolver) ParseCount() int64 {
	return r.parses.Load()
}

// parsedCalls parses text (or fetches the parse from the cache) and returns
// the template together with its call nodes.
func (r *Resolver) parsedCalls(text string) (*parsedTemplate, error) {
	if r.cache != nil {
		if entry, ok := r.cache.get(text); ok {
			return entry, nil
		}
	}

	r.parses.Add(1)
	tpl, err := template.Parse(text, "")
	if err != nil {
		return nil, err
	}
	entry := &parsedTemplate{tpl: tpl, calls: tpl.FindCalls()}

	if r.cache != nil {
		r.cache.put(text, entry)
	}
	return entry, nil
}

// callKind tags the outcome of classifying one call node.
type callKind int

const (
	callSkipped callKind = iota
	callResolved
	callDispatched
)

// callResolution is the per-call classification result. Skipped calls carry
// no candidates; resolved calls carry exactly one; dispatched calls carry
// the dispatch resolver's candidate set.
type callResolution struct {
	kind       callKind
	candidates []*MacroCall
}

// ResolveCalls statically extracts the macro calls in text. Calls to
// reserved builtins and to names already bound in ctx are dropped; multiple
// calls to the same name keep only the first occurrence. The returned calls
// are stamped with text as their source. A parse failure or an invalid
// dispatch argument fails the whole template; no partial result is
// returned alongside an error.
func (r *Resolver) ResolveCalls(text string, ctx Context) ([]*MacroCall, error) {
	entry, err := r.parsedCalls(text)
	if err != nil {
		return nil, err
	}

	var calls []*MacroCall
	seen := make(map[string]bool)

	for _, call := range entry.calls {
		res, err := r.classifyCall(call)
		if err != nil {
			return nil, err
		}
		if res.kind == callSkipped {
			continue
		}
		for _, mc := range res.candidates {
			if reservedCalls[mc.Name] || ctx.Has(mc.Name) {
				continue
			}
			if seen[mc.Name] {
				continue
			}
			seen[mc.Name] = true
			calls = append(calls, mc)
		}
	}

	for _, mc := range calls {
		mc.Source = text
	}
	return calls, nil
}

// classifyCall decides what a single call node contributes.
//
// Simple name calls resolve directly. Dotted calls on a simple name either
// delegate to dispatch resolution (adapter.dispatch), skip entirely (other
// adapter.* calls reach the adapter's programmatic surface, not user
// macros), or resolve as package.macro with every positional argument
// forced to TypeUnknown. Any other callee shape is not resolvable as a
// macro invocation and is skipped.
func (r *Resolver) classifyCall(call *template.CallExpr) (callResolution, error) {
	switch fn := call.Func.(type) {
	case *template.NameExpr:
		return callResolution{
			kind:       callResolved,
			candidates: []*MacroCall{newMacroCall(call, fn.Name)},
		}, nil

	case *template.GetattrExpr:
		pkg, ok := fn.Target.(*template.NameExpr)
		if !ok {
			return callResolution{kind: callSkipped}, nil
		}

		if pkg.Name == "adapter" {
			if fn.Attr != "dispatch" {
				return callResolution{kind: callSkipped}, nil
			}
			candidates, err := resolveDispatch(call, r.lookup)
			if err != nil {
				return callResolution{}, err
			}
			return callResolution{kind: callDispatched, candidates: candidates}, nil
		}

		mc := newMacroCall(call, pkg.Name+"."+fn.Attr)
		// Namespaced calls do not get precise positional typing.
		for i := range mc.ArgTypes {
			mc.ArgTypes[i] = TypeUnknown
		}
		return callResolution{kind: callResolved, candidates: []*MacroCall{mc}}, nil

	default:
		return callResolution{kind: callSkipped}, nil
	}
}
