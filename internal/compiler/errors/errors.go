// Package errors provides structured error handling for the flatmsg compiler.
// It defines error codes, categories, and formatting for both human-readable
// terminal output and machine-parseable JSON.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/flatmessage/flatmsg/internal/compiler/ast"
)

// ErrorCode represents a unique error code in the flatmsg compiler
type ErrorCode string

// ErrorCategory represents the category of compiler error
type ErrorCategory string

const (
	// CategorySyntax represents syntax errors (SYN001-099)
	CategorySyntax ErrorCategory = "syntax"
	// CategorySemantic represents semantic errors (SEM200-299)
	CategorySemantic ErrorCategory = "semantic"
	// CategoryCodeGen represents template and generation errors (GEN600-699)
	CategoryCodeGen ErrorCategory = "codegen"
	// CategoryIO represents file system errors (IO700-799)
	CategoryIO ErrorCategory = "io"
)

// ErrorSeverity indicates the severity level of an error
type ErrorSeverity string

const (
	// SeverityError indicates an error that prevents compilation
	SeverityError ErrorSeverity = "error"
	// SeverityWarning indicates a warning that suggests potential issues
	SeverityWarning ErrorSeverity = "warning"
)

// Location is a position in a source file
type Location struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// LocationFromSpan converts a node span to an error location
func LocationFromSpan(s ast.Span) Location {
	return Location{Offset: s.Offset, Line: s.Line, Column: s.Column}
}

// LocationAt computes the line and column of a byte offset in source
func LocationAt(source string, offset int) Location {
	if offset > len(source) {
		offset = len(source)
	}
	if offset < 0 {
		offset = 0
	}
	prefix := source[:offset]
	line := strings.Count(prefix, "\n") + 1
	column := offset - strings.LastIndexByte(prefix, '\n')
	return Location{Offset: offset, Line: line, Column: column}
}

// ErrorContext provides source code context for an error
type ErrorContext struct {
	// Current is the line of code where the error occurred
	Current string `json:"current"`
	// SourceLines is a snippet of source code around the error line
	SourceLines []string `json:"source_lines"`
	// FirstLine is the line number of SourceLines[0]
	FirstLine int `json:"first_line"`
}

// CompilerError represents a structured compiler error
type CompilerError struct {
	// Code is the unique error code (e.g., "SYN001", "SEM203")
	Code ErrorCode `json:"code"`
	// Type is a machine-readable error type identifier
	Type string `json:"type"`
	// Category is the error category
	Category ErrorCategory `json:"category"`
	// Severity is the error severity level
	Severity ErrorSeverity `json:"severity"`
	// Message is the primary error message
	Message string `json:"message"`
	// File is the source file name (optional)
	File string `json:"file,omitempty"`
	// Location is the source location of the error
	Location Location `json:"location"`
	// Expected describes what was expected (optional)
	Expected string `json:"expected,omitempty"`
	// Actual describes what was actually found (optional)
	Actual string `json:"actual,omitempty"`
	// Related names another file involved in the error, such as the first
	// definition of a duplicated module (optional)
	Related string `json:"related,omitempty"`
	// Suggestion provides a hint for fixing the error (optional)
	Suggestion string `json:"suggestion,omitempty"`
	// Context provides source code context
	Context *ErrorContext `json:"context,omitempty"`

	cause error
}

// Error implements the error interface
func (e *CompilerError) Error() string {
	return FormatCompact(e)
}

// Unwrap returns the underlying cause, if any
func (e *CompilerError) Unwrap() error {
	return e.cause
}

// Format returns a human-readable error message for terminal output
func (e *CompilerError) Format() string {
	return FormatError(e)
}

// ToJSON returns the error as a JSON string
func (e *CompilerError) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// WithFile sets the source file name for the error
func (e *CompilerError) WithFile(file string) *CompilerError {
	e.File = file
	return e
}

// WithSource attaches the lines surrounding the error location
func (e *CompilerError) WithSource(source string) *CompilerError {
	if e.Location.Line == 0 {
		return e
	}
	lines := strings.Split(source, "\n")
	idx := e.Location.Line - 1
	if idx >= len(lines) {
		return e
	}

	first := idx - 1
	if first < 0 {
		first = 0
	}
	last := idx + 1
	if last >= len(lines) {
		last = len(lines) - 1
	}

	snippet := make([]string, 0, last-first+1)
	for _, l := range lines[first : last+1] {
		snippet = append(snippet, strings.TrimRight(l, "\r"))
	}

	e.Context = &ErrorContext{
		Current:     strings.TrimRight(lines[idx], "\r"),
		SourceLines: snippet,
		FirstLine:   first + 1,
	}
	return e
}

// WithExpected sets the expected value for the error
func (e *CompilerError) WithExpected(expected string) *CompilerError {
	e.Expected = expected
	return e
}

// WithActual sets the actual value for the error
func (e *CompilerError) WithActual(actual string) *CompilerError {
	e.Actual = actual
	return e
}

// WithRelated sets the related file for the error
func (e *CompilerError) WithRelated(related string) *CompilerError {
	e.Related = related
	return e
}

// WithSuggestion sets a suggestion for fixing the error
func (e *CompilerError) WithSuggestion(suggestion string) *CompilerError {
	e.Suggestion = suggestion
	return e
}

// WithCause records the underlying error
func (e *CompilerError) WithCause(cause error) *CompilerError {
	e.cause = cause
	return e
}

// ErrorList is a collection of compiler errors
type ErrorList []*CompilerError

// Error implements the error interface
func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	return FormatErrorList(el)
}

// HasErrors returns true if the list contains any errors (excludes warnings)
func (el ErrorList) HasErrors() bool {
	for _, err := range el {
		if err.Severity == SeverityError {
			return true
		}
	}
	return false
}

// HasWarnings returns true if the list contains any warnings
func (el ErrorList) HasWarnings() bool {
	for _, err := range el {
		if err.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ToJSON returns all errors as a JSON array
func (el ErrorList) ToJSON() (string, error) {
	bytes, err := json.MarshalIndent(el, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ErrorCount returns the number of errors by severity
func (el ErrorList) ErrorCount() (errors, warnings int) {
	for _, err := range el {
		switch err.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return
}

// As extracts a *CompilerError from err's chain
func As(err error) (*CompilerError, bool) {
	var ce *CompilerError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Is reports whether err's chain contains a CompilerError with the given code
func Is(err error, code ErrorCode) bool {
	ce, ok := As(err)
	return ok && ce.Code == code
}

// newError creates a new CompilerError with the given parameters
func newError(
	code ErrorCode,
	typ string,
	category ErrorCategory,
	severity ErrorSeverity,
	message string,
	loc Location,
) *CompilerError {
	return &CompilerError{
		Code:     code,
		Type:     typ,
		Category: category,
		Severity: severity,
		Message:  message,
		Location: loc,
	}
}

func quoted(s string) string {
	return fmt.Sprintf("'%s'", s)
}
