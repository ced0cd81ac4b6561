// Package lexer provides lexical analysis for flatmsg schema sources.
// It tokenizes .fmsg and .fmdata files into a stream of tokens for the parser.
package lexer

import (
	"strconv"
	"strings"
)

// Lexer tokenizes flatmsg schema source.
//
// Thread Safety: Lexer instances are NOT thread-safe. Each goroutine must
// create its own Lexer via New.
type Lexer struct {
	source      string  // Source text
	file        string  // Source label used in diagnostics
	start       int     // Start offset of current token
	current     int     // Current offset in source
	line        int     // Current line number (1-indexed)
	column      int     // Current column number (1-indexed)
	startLine   int     // Line where current token started
	startColumn int     // Column where current token started
	tokens      []Token // Collected tokens
	err         *LexError
}

// New creates a new Lexer for the given source text and label
func New(source, file string) *Lexer {
	return &Lexer{
		source: source,
		file:   file,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, len(source)/4),
	}
}

// ScanTokens tokenizes the source. Scanning stops at the first lexical
// error, which is recorded as a TOKEN_ERROR followed by EOF so the parser
// reports whichever problem comes first in the source.
func (l *Lexer) ScanTokens() ([]Token, *LexError) {
	for l.err == nil {
		l.skipTrivia()
		if l.err != nil || l.isAtEnd() {
			break
		}
		l.start = l.current
		l.startLine = l.line
		l.startColumn = l.column
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Type:   TOKEN_EOF,
		Line:   l.line,
		Column: l.column,
		File:   l.file,
		Start:  l.current,
		End:    l.current,
	})

	return l.tokens, l.err
}

// scanToken scans a single token
func (l *Lexer) scanToken() {
	c := l.advance()

	switch c {
	case '{':
		l.addToken(TOKEN_LBRACE, nil)
	case '}':
		l.addToken(TOKEN_RBRACE, nil)
	case '(':
		l.addToken(TOKEN_LPAREN, nil)
	case ')':
		l.addToken(TOKEN_RPAREN, nil)
	case '[':
		l.addToken(TOKEN_LBRACKET, nil)
	case ']':
		l.addToken(TOKEN_RBRACKET, nil)
	case '@':
		l.addToken(TOKEN_AT, nil)
	case ':':
		l.addToken(TOKEN_COLON, nil)
	case ';':
		l.addToken(TOKEN_SEMICOLON, nil)
	case ',':
		l.addToken(TOKEN_COMMA, nil)
	case '=':
		l.addToken(TOKEN_EQUAL, nil)
	case '"':
		l.scanString()
	case '-':
		if isDigit(l.peek()) {
			l.scanNumber()
			return
		}
		l.addError("Unexpected character '-'")
	default:
		switch {
		case isDigit(c):
			l.scanNumber()
		case isAlpha(c):
			l.scanIdentifier()
		default:
			l.addError("Unexpected character " + strconv.QuoteRune(rune(c)))
		}
	}
}

// skipTrivia skips whitespace, line comments and block comments
func (l *Lexer) skipTrivia() {
	for !l.isAtEnd() {
		switch c := l.peek(); {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '/' && l.peekNext() == '/':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		case c == '/' && l.peekNext() == '*':
			l.start = l.current
			l.startLine = l.line
			l.startColumn = l.column
			l.advance()
			l.advance()
			for !(l.peek() == '*' && l.peekNext() == '/') {
				if l.isAtEnd() {
					l.addError("Unterminated block comment")
					return
				}
				l.advance()
			}
			l.advance()
			l.advance()
		default:
			return
		}
	}
}

// scanString scans a quoted string literal. Only \" \\ \n and \t escapes
// are recognized; strings may not span lines.
func (l *Lexer) scanString() {
	var builder strings.Builder

	for {
		if l.isAtEnd() || l.peek() == '\n' {
			l.addError("Unterminated string literal")
			return
		}

		c := l.advance()
		if c == '"' {
			break
		}
		if c != '\\' {
			builder.WriteByte(c)
			continue
		}

		if l.isAtEnd() {
			l.addError("Unterminated string literal")
			return
		}
		switch escaped := l.advance(); escaped {
		case '"', '\\':
			builder.WriteByte(escaped)
		case 'n':
			builder.WriteByte('\n')
		case 't':
			builder.WriteByte('\t')
		default:
			l.addError("Invalid escape sequence '\\" + string(escaped) + "'")
			return
		}
	}

	l.addToken(TOKEN_STRING_LITERAL, builder.String())
}

// scanNumber scans an integer, double (1.5) or float (1.5f) literal.
// A leading '-' has already been consumed when present.
func (l *Lexer) scanNumber() {
	for isDigit(l.peek()) {
		l.advance()
	}

	if l.peek() != '.' || !isDigit(l.peekNext()) {
		lexeme := l.source[l.start:l.current]
		value, err := strconv.ParseInt(lexeme, 10, 64)
		if err != nil {
			l.addError("Invalid integer literal '" + lexeme + "'")
			return
		}
		l.addToken(TOKEN_INT_LITERAL, value)
		return
	}

	l.advance() // consume '.'
	for isDigit(l.peek()) {
		l.advance()
	}

	lexeme := l.source[l.start:l.current]
	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		l.addError("Invalid floating point literal '" + lexeme + "'")
		return
	}

	if l.peek() == 'f' {
		l.advance()
		l.addToken(TOKEN_FLOAT_LITERAL, value)
		return
	}
	l.addToken(TOKEN_DOUBLE_LITERAL, value)
}

// scanIdentifier scans an identifier or keyword. Dots are accepted inside
// identifiers so dotted module names arrive as a single token; the parser
// rejects them where a plain identifier is required.
func (l *Lexer) scanIdentifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '.' {
		l.advance()
	}

	lexeme := l.source[l.start:l.current]
	if tokenType, ok := lookupKeyword(lexeme); ok {
		l.addToken(tokenType, nil)
		return
	}
	l.addToken(TOKEN_IDENTIFIER, nil)
}

// Helper methods

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

// advance consumes and returns the current byte, tracking line and column
func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	c := l.source[l.current]
	l.current++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

// addToken adds a token spanning start..current
func (l *Lexer) addToken(tokenType TokenType, literal interface{}) {
	l.tokens = append(l.tokens, Token{
		Type:    tokenType,
		Lexeme:  l.source[l.start:l.current],
		Literal: literal,
		Line:    l.startLine,
		Column:  l.startColumn,
		File:    l.file,
		Start:   l.start,
		End:     l.current,
	})
}

// addError records the first lexical error at the start of the current token
func (l *Lexer) addError(message string) {
	l.err = &LexError{
		Message: message,
		Line:    l.startLine,
		Column:  l.startColumn,
		Offset:  l.start,
		File:    l.file,
	}
	l.tokens = append(l.tokens, Token{
		Type:    TOKEN_ERROR,
		Lexeme:  l.source[l.start:l.current],
		Literal: message,
		Line:    l.startLine,
		Column:  l.startColumn,
		File:    l.file,
		Start:   l.start,
		End:     l.current,
	})
}
