package template

import (
	"strings"
	"unicode/utf8"
)

// TokenType identifies the type of token.
type TokenType int

// TokenType constants for template token types.
const (
	TokenText TokenType = iota // Literal text (SQL)
	TokenExpr                  // Expression content (between {{ and }})
	TokenStmt                  // Statement content (between {% and %})
	TokenEOF                   // End of input
)

func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "TEXT"
	case TokenExpr:
		return "EXPR"
	case TokenStmt:
		return "STMT"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// Lexer tokenizes a template string. Comments ({# ... #}) are consumed and
// discarded. Whitespace-control markers ({{-, -}}, {%-, -%}) are accepted
// and stripped from the token value.
type Lexer struct {
	input    string
	file     string
	pos      int // current position in input
	line     int // current line number (1-based)
	col      int // current column number (1-based)
	lastLine int // line at start of current token
	lastCol  int // column at start of current token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input, file string) *Lexer {
	return &Lexer{
		input: input,
		file:  file,
		pos:   0,
		line:  1,
		col:   1,
	}
}

// Tokenize converts the input into a slice of tokens.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token

	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenEOF {
			tokens = append(tokens, tok)
			break
		}
		// Comments come back as empty text tokens; drop them.
		if tok.Type == TokenText && tok.Value == "" {
			continue
		}
		tokens = append(tokens, tok)
	}

	return tokens, nil
}

// nextToken returns the next token from the input.
func (l *Lexer) nextToken() (Token, error) {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.position()}, nil
	}

	if l.matchString("{{") {
		return l.scanDelimited("{{", "}}", TokenExpr)
	}
	if l.matchString("{%") {
		return l.scanDelimited("{%", "%}", TokenStmt)
	}
	if l.matchString("{#") {
		return l.scanComment()
	}

	return l.scanText()
}

// scanText scans literal text until a delimiter or EOF.
func (l *Lexer) scanText() (Token, error) {
	l.markStart()
	start := l.pos

	for l.pos < len(l.input) {
		if l.matchString("{{") || l.matchString("{%") || l.matchString("{#") {
			break
		}
		l.advance()
	}

	if l.pos == start {
		return Token{}, NewLexError(l.position(), "unexpected state in lexer")
	}

	return Token{
		Type:  TokenText,
		Value: l.input[start:l.pos],
		Pos:   l.startPosition(),
	}, nil
}

// scanDelimited scans a {{ expr }} or {% stmt %} segment. A closing
// delimiter inside a quoted string literal does not end the segment.
func (l *Lexer) scanDelimited(open, close string, typ TokenType) (Token, error) {
	l.markStart()

	// Skip the opening delimiter and an optional trim marker.
	l.pos += len(open)
	l.col += len(open)
	if l.peek() == '-' {
		l.advance()
	}
	l.skipWhitespace()

	contentStart := l.pos
	var quote rune

	for l.pos < len(l.input) {
		if quote != 0 {
			switch l.peek() {
			case '\\':
				l.advance()
			case quote:
				quote = 0
			}
			l.advance()
			continue
		}
		if r := l.peek(); r == '\'' || r == '"' {
			quote = r
			l.advance()
			continue
		}
		if l.matchString(close) || l.matchString("-"+close) {
			content := strings.TrimSpace(l.input[contentStart:l.pos])
			content = strings.TrimSuffix(content, "-")
			content = strings.TrimSpace(content)

			if l.matchString("-" + close) {
				l.pos++
				l.col++
			}
			l.pos += len(close)
			l.col += len(close)

			return Token{
				Type:  typ,
				Value: content,
				Pos:   l.startPosition(),
			}, nil
		}
		l.advance()
	}

	return Token{}, NewLexError(l.startPosition(), "unclosed segment: missing '"+close+"'")
}

// scanComment consumes a {# ... #} comment and returns an empty text token.
func (l *Lexer) scanComment() (Token, error) {
	l.markStart()

	l.pos += 2
	l.col += 2

	for l.pos < len(l.input) {
		if l.matchString("#}") {
			l.pos += 2
			l.col += 2
			return Token{Type: TokenText, Value: "", Pos: l.startPosition()}, nil
		}
		l.advance()
	}

	return Token{}, NewLexError(l.startPosition(), "unclosed comment: missing '#}'")
}

// Helper methods

// peek returns the current rune without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// advance moves to the next rune, updating position tracking.
func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

// matchString checks if the input at current position matches s.
func (l *Lexer) matchString(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}

// skipWhitespace skips spaces and tabs.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r := l.peek()
		if r != ' ' && r != '\t' {
			break
		}
		l.advance()
	}
}

// markStart records the start position for the current token.
func (l *Lexer) markStart() {
	l.lastLine = l.line
	l.lastCol = l.col
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{File: l.file, Line: l.line, Column: l.col}
}

// startPosition returns the position where the current token started.
func (l *Lexer) startPosition() Position {
	return Position{File: l.file, Line: l.lastLine, Column: l.lastCol}
}
