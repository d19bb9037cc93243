package resolver

import (
	"github.com/leapstack-labs/macroscope/internal/extract"
)

// ParseRefOrSource parses a single ref(...) or source(...) expression into
// its structured arguments. The expression is wrapped in interpolation
// delimiters and handed to the restricted literal-only extractor rather
// than the full template parser; this is the fast path for the extremely
// common ref/source case.
//
// Exactly one of the returned ref and source is non-nil on success. Any
// other outcome (malformed input, neither call present, or both present)
// fails with a ParsingError naming the expression.
func ParseRefOrSource(expression string) (*extract.RefArgs, []string, error) {
	extracted, err := extract.FromSource("{{ " + expression + " }}")
	if err != nil {
		return nil, nil, &ParsingError{Expression: expression}
	}

	switch {
	case len(extracted.Refs) > 0 && len(extracted.Sources) == 0:
		ref := extracted.Refs[0]
		return &ref, nil, nil
	case len(extracted.Sources) > 0 && len(extracted.Refs) == 0:
		src := extracted.Sources[0]
		return nil, []string{src[0], src[1]}, nil
	default:
		return nil, nil, &ParsingError{Expression: expression}
	}
}
