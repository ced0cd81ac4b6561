package ast

import (
	"strconv"
	"strings"
)

// LiteralKind identifies the spelling of a literal
type LiteralKind int

const (
	// LiteralInt is a signed integer (42, -7)
	LiteralInt LiteralKind = iota
	// LiteralFloat is a double written with an f suffix (1.5f)
	LiteralFloat
	// LiteralDouble is a double (1.5)
	LiteralDouble
	// LiteralString is a quoted string
	LiteralString
)

// String returns the lowercase kind name used by documents and templates
func (k LiteralKind) String() string {
	switch k {
	case LiteralInt:
		return "int"
	case LiteralFloat:
		return "float"
	case LiteralDouble:
		return "double"
	case LiteralString:
		return "string"
	default:
		return "unknown"
	}
}

// Literal is a constant used for default values and annotation arguments
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Float float64 // Value of LiteralFloat and LiteralDouble
	Str   string  // Unescaped value of LiteralString
	Raw   string  // Source spelling
}

// IntLiteral builds an integer literal
func IntLiteral(v int64) *Literal {
	return &Literal{Kind: LiteralInt, Int: v, Raw: strconv.FormatInt(v, 10)}
}

// DoubleLiteral builds a double literal
func DoubleLiteral(v float64) *Literal {
	return &Literal{Kind: LiteralDouble, Float: v, Raw: formatDouble(v)}
}

// FloatLiteral builds a double literal spelled with the f suffix
func FloatLiteral(v float64) *Literal {
	return &Literal{Kind: LiteralFloat, Float: v, Raw: formatDouble(v) + "f"}
}

// StringLiteral builds a string literal
func StringLiteral(v string) *Literal {
	return &Literal{Kind: LiteralString, Str: v, Raw: Quote(v)}
}

// Value returns the literal as int64, float64 or string
func (l *Literal) Value() interface{} {
	switch l.Kind {
	case LiteralInt:
		return l.Int
	case LiteralFloat, LiteralDouble:
		return l.Float
	default:
		return l.Str
	}
}

// Canonical returns the literal in canonical source form
func (l *Literal) Canonical() string {
	switch l.Kind {
	case LiteralInt:
		return strconv.FormatInt(l.Int, 10)
	case LiteralFloat:
		return formatDouble(l.Float) + "f"
	case LiteralDouble:
		return formatDouble(l.Float)
	default:
		return Quote(l.Str)
	}
}

// Text returns the literal value as plain text (strings unquoted)
func (l *Literal) Text() string {
	switch l.Kind {
	case LiteralString:
		return l.Str
	case LiteralFloat, LiteralDouble:
		return formatDouble(l.Float)
	default:
		return strconv.FormatInt(l.Int, 10)
	}
}

// formatDouble always keeps a fractional part so the text lexes as a double
func formatDouble(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Quote renders a string literal with the escapes the lexer understands
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
