package resolver

import (
	"strings"

	"github.com/leapstack-labs/macroscope/internal/template"
)

// ExtractUnrenderedConfig extracts the keyword arguments of a config(...)
// call as opaque string snapshots of their unevaluated expressions. The
// snapshots only support equality checks across parses; they are not an
// exact rendering of the user's input.
//
// Returns nil when no config call is present. If the template contains more
// than one config() call, only the first is read. Templates without the
// literal substring "config(" return immediately without parsing; this
// runs on every file during incremental reparse checks, and a substring
// that only appears inside a string or comment merely costs an unnecessary
// parse.
func (r *Resolver) ExtractUnrenderedConfig(text string) (map[string]string, error) {
	if !strings.Contains(text, "config(") {
		return nil, nil
	}

	entry, err := r.parsedCalls(text)
	if err != nil {
		return nil, err
	}

	var configCall *template.CallExpr
	for _, call := range entry.calls {
		if name, ok := call.Func.(*template.NameExpr); ok && name.Name == "config" {
			configCall = call
			break
		}
	}
	if configCall == nil {
		return nil, nil
	}

	unrendered := make(map[string]string, len(configCall.Kwargs))
	for _, kw := range configCall.Kwargs {
		unrendered[kw.Name] = template.ReprKeyword(kw)
	}
	return unrendered, nil
}
