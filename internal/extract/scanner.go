package extract

import (
	"strconv"
	"strings"
	"unicode"
)

// literalCall is a call whose arguments are all literal constants.
type literalCall struct {
	name   string
	args   []any // string or int64
	kwargs map[string]any
}

// scanner is a minimal tokenizer over a single expression. It recognizes
// identifiers, single- and double-quoted strings, integers and the
// punctuation of a call; everything else ends the extraction.
type scanner struct {
	input string
	pos   int
}

func newScanner(input string) *scanner {
	return &scanner{input: input}
}

func (s *scanner) atEnd() bool {
	s.skipSpace()
	return s.pos >= len(s.input)
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.input) && unicode.IsSpace(rune(s.input[s.pos])) {
		s.pos++
	}
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.input) {
		return 0
	}
	return s.input[s.pos]
}

// parseCall parses ident '(' args ')'. A bare identifier (or dotted chain
// of identifiers) with no call returns nil: callers treat it as an
// expression with nothing to extract.
func (s *scanner) parseCall() (*literalCall, error) {
	name, err := s.ident()
	if err != nil {
		return nil, err
	}

	// Dotted chains without a call (this.schema) are tolerated.
	for {
		s.skipSpace()
		if s.peek() != '.' {
			break
		}
		s.pos++
		if _, err := s.ident(); err != nil {
			return nil, err
		}
	}

	s.skipSpace()
	if s.peek() != '(' {
		if s.atEnd() {
			return nil, nil
		}
		return nil, errorf("unexpected character %q", s.peek())
	}
	s.pos++

	call := &literalCall{name: name, kwargs: make(map[string]any)}

	s.skipSpace()
	if s.peek() == ')' {
		s.pos++
		return call, nil
	}

	for {
		if err := s.parseArg(call); err != nil {
			return nil, err
		}
		s.skipSpace()
		switch s.peek() {
		case ',':
			s.pos++
		case ')':
			s.pos++
			return call, nil
		default:
			return nil, errorf("expected ',' or ')' in argument list")
		}
	}
}

// parseArg parses one positional or keyword argument.
func (s *scanner) parseArg(call *literalCall) error {
	s.skipSpace()

	// A keyword argument starts with an identifier followed by '='.
	if isIdentStart(s.peek()) {
		save := s.pos
		name, err := s.ident()
		if err != nil {
			return err
		}
		s.skipSpace()
		if s.peek() == '=' && !strings.HasPrefix(s.input[s.pos:], "==") {
			s.pos++
			value, err := s.literal()
			if err != nil {
				return err
			}
			call.kwargs[name] = value
			return nil
		}
		// Not a keyword; a bare identifier is not a literal argument.
		s.pos = save
		return errorf("non-literal argument at %q", s.input[s.pos:])
	}

	value, err := s.literal()
	if err != nil {
		return err
	}
	call.args = append(call.args, value)
	return nil
}

// literal parses a quoted string or integer constant.
func (s *scanner) literal() (any, error) {
	s.skipSpace()
	c := s.peek()

	if c == '\'' || c == '"' {
		return s.stringLit(c)
	}
	if c >= '0' && c <= '9' || c == '-' {
		return s.intLit()
	}
	return nil, errorf("expected a literal, found %q", s.input[s.pos:])
}

func (s *scanner) stringLit(quote byte) (string, error) {
	s.pos++ // opening quote
	start := s.pos
	for s.pos < len(s.input) {
		if s.input[s.pos] == quote {
			value := s.input[start:s.pos]
			s.pos++
			return value, nil
		}
		s.pos++
	}
	return "", errorf("unterminated string literal")
}

func (s *scanner) intLit() (int64, error) {
	start := s.pos
	if s.peek() == '-' {
		s.pos++
	}
	for s.pos < len(s.input) && s.input[s.pos] >= '0' && s.input[s.pos] <= '9' {
		s.pos++
	}
	n, err := strconv.ParseInt(s.input[start:s.pos], 10, 64)
	if err != nil {
		return 0, errorf("invalid integer literal %q", s.input[start:s.pos])
	}
	return n, nil
}

func (s *scanner) ident() (string, error) {
	s.skipSpace()
	start := s.pos
	if !isIdentStart(s.peek()) {
		return "", errorf("expected identifier at %q", s.input[s.pos:])
	}
	for s.pos < len(s.input) && isIdentPart(s.input[s.pos]) {
		s.pos++
	}
	return s.input[start:s.pos], nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
