package errors

import "fmt"

// Syntax error codes (SYN001-099)
const (
	// ErrExpected indicates the grammar required an element that was not found
	ErrExpected ErrorCode = "SYN001"
	// ErrTrailingInput indicates input remained after the last declaration
	ErrTrailingInput ErrorCode = "SYN002"
	// ErrLexical indicates a character sequence that does not form a token
	ErrLexical ErrorCode = "SYN003"
)

// NewExpected creates a SYN001 error. expected is the friendly name of the
// grammar element, found describes the token at the error position.
func NewExpected(loc Location, expected, found string) *CompilerError {
	return newError(
		ErrExpected,
		"expected",
		CategorySyntax,
		SeverityError,
		fmt.Sprintf("expecting %s here, found %s", expected, found),
		loc,
	).WithExpected(expected).WithActual(found)
}

// NewTrailingInput creates a SYN002 error
func NewTrailingInput(loc Location, found string) *CompilerError {
	return newError(
		ErrTrailingInput,
		"trailing_input",
		CategorySyntax,
		SeverityError,
		fmt.Sprintf("expecting end of input here, found %s", found),
		loc,
	).WithExpected("end of input").WithActual(found).
		WithSuggestion("Top-level declarations start with module, import, protocol, data, message, enum or an annotation")
}

// NewLexical creates a SYN003 error
func NewLexical(loc Location, message string) *CompilerError {
	return newError(
		ErrLexical,
		"lexical",
		CategorySyntax,
		SeverityError,
		message,
		loc,
	)
}
