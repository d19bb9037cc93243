package template

import "fmt"

// Error is the base interface for all template errors.
type Error interface {
	error
	Position() Position
}

// baseError provides common error functionality.
type baseError struct {
	pos Position
	msg string
}

func (e *baseError) Position() Position { return e.pos }
func (e *baseError) Error() string {
	if e.pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.pos.File, e.pos.Line, e.pos.Column, e.msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.pos.Line, e.pos.Column, e.msg)
}

// LexError represents an error during lexical analysis.
type LexError struct {
	baseError
}

// NewLexError creates a new lexer error.
func NewLexError(pos Position, msg string) *LexError {
	return &LexError{baseError: baseError{pos: pos, msg: msg}}
}

// ParseError represents an error during template parsing, including a
// malformed expression inside {{ }} or a statement head inside {% %}.
type ParseError struct {
	baseError
	Cause error // Underlying expression-syntax error, if any
}

// NewParseError creates a new parser error.
func NewParseError(pos Position, msg string) *ParseError {
	return &ParseError{baseError: baseError{pos: pos, msg: msg}}
}

// NewParseErrorf creates a new parser error with formatting.
func NewParseErrorf(pos Position, format string, args ...any) *ParseError {
	return &ParseError{baseError: baseError{pos: pos, msg: fmt.Sprintf(format, args...)}}
}

// WrapParseError wraps an underlying error as a parse error.
func WrapParseError(pos Position, msg string, cause error) *ParseError {
	return &ParseError{
		baseError: baseError{pos: pos, msg: msg},
		Cause:     cause,
	}
}

func (e *ParseError) Error() string {
	base := e.baseError.Error()
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
