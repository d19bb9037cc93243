// Package extract implements a restricted, literal-only extractor for
// ref(), source() and config() calls in template text. It is deliberately
// not a full template parser: it understands exactly the shapes it can
// resolve statically and reports an ExtractionError for anything else,
// which lets callers fall back to the full resolver. That restriction is
// what makes it fast enough to run on every file.
package extract

import (
	"fmt"
	"strings"
)

// RefArgs is the structured form of a ref(...) call.
type RefArgs struct {
	// Package qualifies the ref when the two-argument form is used.
	Package string
	// Name is the referenced model name.
	Name string
	// Version is a string or int64 when the version keyword is present,
	// nil otherwise.
	Version any
}

// Extraction holds the literal calls found in a template.
type Extraction struct {
	Refs    []RefArgs
	Sources [][2]string
}

// ExtractionError signals input the restricted extractor cannot statically
// understand.
type ExtractionError struct {
	Msg string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %s", e.Msg)
}

func errorf(format string, args ...any) *ExtractionError {
	return &ExtractionError{Msg: fmt.Sprintf(format, args...)}
}

// FromSource scans template text for {{ ... }} expressions and extracts
// literal ref/source/config calls. Comments are skipped; statement blocks
// and non-literal expressions fail extraction. Bare identifier expressions
// ({{ this }}) are tolerated and ignored.
func FromSource(text string) (*Extraction, error) {
	out := &Extraction{}

	rest := text
	for {
		start := strings.Index(rest, "{")
		if start < 0 {
			return out, nil
		}
		rest = rest[start:]

		switch {
		case strings.HasPrefix(rest, "{{"):
			end := strings.Index(rest, "}}")
			if end < 0 {
				return nil, errorf("unclosed expression")
			}
			inner := strings.TrimSpace(rest[2:end])
			inner = strings.TrimPrefix(inner, "-")
			inner = strings.TrimSuffix(strings.TrimSpace(inner), "-")
			if err := out.scanExpression(strings.TrimSpace(inner)); err != nil {
				return nil, err
			}
			rest = rest[end+2:]

		case strings.HasPrefix(rest, "{#"):
			end := strings.Index(rest, "#}")
			if end < 0 {
				return nil, errorf("unclosed comment")
			}
			rest = rest[end+2:]

		case strings.HasPrefix(rest, "{%"):
			return nil, errorf("statement blocks are not statically extractable")

		default:
			rest = rest[1:]
		}
	}
}

// scanExpression handles the body of one {{ ... }} segment.
func (x *Extraction) scanExpression(inner string) error {
	if inner == "" {
		return errorf("empty expression")
	}

	s := newScanner(inner)
	call, err := s.parseCall()
	if err != nil {
		return err
	}
	if !s.atEnd() {
		return errorf("trailing input after expression: %q", inner)
	}
	if call == nil {
		// A bare identifier or attribute chain; nothing to extract.
		return nil
	}

	switch call.name {
	case "ref":
		ref, err := refFromCall(call)
		if err != nil {
			return err
		}
		x.Refs = append(x.Refs, ref)
	case "source":
		src, err := sourceFromCall(call)
		if err != nil {
			return err
		}
		x.Sources = append(x.Sources, src)
	case "config":
		// Recognized but not collected; all arguments must still be literal.
	default:
		return errorf("unknown function call: %s", call.name)
	}
	return nil
}

// refFromCall validates ref('name'), ref('package', 'name') and the
// version keyword (version= or v=).
func refFromCall(call *literalCall) (RefArgs, error) {
	var ref RefArgs

	switch len(call.args) {
	case 1:
		name, ok := call.args[0].(string)
		if !ok {
			return ref, errorf("ref name must be a string literal")
		}
		ref.Name = name
	case 2:
		pkg, okPkg := call.args[0].(string)
		name, okName := call.args[1].(string)
		if !okPkg || !okName {
			return ref, errorf("ref arguments must be string literals")
		}
		ref.Package = pkg
		ref.Name = name
	default:
		return ref, errorf("ref expects 1 or 2 arguments, got %d", len(call.args))
	}

	for key, value := range call.kwargs {
		switch key {
		case "version", "v":
			switch value.(type) {
			case string, int64:
				ref.Version = value
			default:
				return ref, errorf("ref version must be a string or integer literal")
			}
		default:
			return ref, errorf("unexpected keyword argument to ref: %s", key)
		}
	}
	return ref, nil
}

// sourceFromCall validates source('source_name', 'table_name').
func sourceFromCall(call *literalCall) ([2]string, error) {
	var src [2]string

	if len(call.args) != 2 || len(call.kwargs) != 0 {
		return src, errorf("source expects exactly 2 positional arguments")
	}
	name, okName := call.args[0].(string)
	table, okTable := call.args[1].(string)
	if !okName || !okTable {
		return src, errorf("source arguments must be string literals")
	}
	src[0] = name
	src[1] = table
	return src, nil
}
