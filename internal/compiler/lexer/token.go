package lexer

import "fmt"

// TokenType represents the type of a token in a flatmsg schema
type TokenType int

const (
	// TOKEN_EOF marks the end of the token stream.
	TOKEN_EOF TokenType = iota
	// TOKEN_ERROR represents a lexical error encountered during scanning.
	// Scanning stops at the first error so it is always the last token
	// before EOF.
	TOKEN_ERROR

	// Keywords - Declarations
	TOKEN_MODULE   // module
	TOKEN_IMPORT   // import
	TOKEN_PROTOCOL // protocol
	TOKEN_DATA     // data
	TOKEN_MESSAGE  // message
	TOKEN_ENUM     // enum

	// Keywords - Attribute specifiers
	TOKEN_OPTIONAL // optional
	TOKEN_REPEATED // repeated

	// Literals
	TOKEN_IDENTIFIER     // Point, x, a.b.c
	TOKEN_INT_LITERAL    // 42, -7
	TOKEN_FLOAT_LITERAL  // 1.5f
	TOKEN_DOUBLE_LITERAL // 1.5
	TOKEN_STRING_LITERAL // "hello"

	// Punctuation
	TOKEN_AT        // @
	TOKEN_COLON     // :
	TOKEN_SEMICOLON // ;
	TOKEN_COMMA     // ,
	TOKEN_EQUAL     // =

	// Delimiters
	TOKEN_LBRACE   // {
	TOKEN_RBRACE   // }
	TOKEN_LPAREN   // (
	TOKEN_RPAREN   // )
	TOKEN_LBRACKET // [
	TOKEN_RBRACKET // ]
)

// Token represents a single lexical token
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{} // int64, float64 or string for literal tokens
	Line    int         // 1-indexed
	Column  int         // 1-indexed
	File    string      // Source label
	Start   int         // Byte offset where the token starts
	End     int         // Byte offset where the token ends (exclusive)
}

var tokenNames = map[TokenType]string{
	TOKEN_EOF:            "EOF",
	TOKEN_ERROR:          "ERROR",
	TOKEN_MODULE:         "MODULE",
	TOKEN_IMPORT:         "IMPORT",
	TOKEN_PROTOCOL:       "PROTOCOL",
	TOKEN_DATA:           "DATA",
	TOKEN_MESSAGE:        "MESSAGE",
	TOKEN_ENUM:           "ENUM",
	TOKEN_OPTIONAL:       "OPTIONAL",
	TOKEN_REPEATED:       "REPEATED",
	TOKEN_IDENTIFIER:     "IDENTIFIER",
	TOKEN_INT_LITERAL:    "INT_LITERAL",
	TOKEN_FLOAT_LITERAL:  "FLOAT_LITERAL",
	TOKEN_DOUBLE_LITERAL: "DOUBLE_LITERAL",
	TOKEN_STRING_LITERAL: "STRING_LITERAL",
	TOKEN_AT:             "AT",
	TOKEN_COLON:          "COLON",
	TOKEN_SEMICOLON:      "SEMICOLON",
	TOKEN_COMMA:          "COMMA",
	TOKEN_EQUAL:          "EQUAL",
	TOKEN_LBRACE:         "LBRACE",
	TOKEN_RBRACE:         "RBRACE",
	TOKEN_LPAREN:         "LPAREN",
	TOKEN_RPAREN:         "RPAREN",
	TOKEN_LBRACKET:       "LBRACKET",
	TOKEN_RBRACKET:       "RBRACKET",
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// IsKeyword reports whether the token type is a keyword. Keywords are
// contextual: the parser accepts them wherever an identifier is expected.
func (t TokenType) IsKeyword() bool {
	return t >= TOKEN_MODULE && t <= TOKEN_REPEATED
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Literal != nil {
		return fmt.Sprintf("%s '%s' (%v) at %d:%d", t.Type, t.Lexeme, t.Literal, t.Line, t.Column)
	}
	return fmt.Sprintf("%s '%s' at %d:%d", t.Type, t.Lexeme, t.Line, t.Column)
}

// Describe renders the token the way diagnostics quote it.
func (t Token) Describe() string {
	switch t.Type {
	case TOKEN_EOF:
		return "end of input"
	case TOKEN_ERROR:
		return "invalid input"
	default:
		return fmt.Sprintf("'%s'", t.Lexeme)
	}
}

// LexError represents an error encountered during lexical analysis
type LexError struct {
	Message string
	Line    int
	Column  int
	Offset  int
	File    string
}

// Error implements the error interface
func (e LexError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}
