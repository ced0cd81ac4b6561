package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	cerrors "github.com/flatmessage/flatmsg/internal/compiler/errors"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Excerpt      []string // Pre-formatted source lines
	Consequence  string
	Suggestion   string
	HelpCommands []string
	NoColor      bool
}

func paint(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// FormatError creates a standardized error message
//
// Example output:
//
//	❌ SEMANTIC ERROR: shapes.fmsg:3:26: error: Undefined data type 'Pont' [SEM203]
//	     3 |  message Path { repeated Pont pts; }
//	       |                           ^
//
//	   Did you mean Point?
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var headerColor, bodyColor *color.Color
	var symbol string

	switch opts.Level {
	case ErrorLevelError:
		headerColor = paint(opts.NoColor, color.FgRed, color.Bold)
		bodyColor = paint(opts.NoColor, color.FgRed)
		symbol = "❌"
	case ErrorLevelWarning:
		headerColor = paint(opts.NoColor, color.FgYellow, color.Bold)
		bodyColor = paint(opts.NoColor, color.FgYellow)
		symbol = "⚠️"
	default:
		headerColor = paint(opts.NoColor, color.FgCyan, color.Bold)
		bodyColor = paint(opts.NoColor, color.FgCyan)
		symbol = "ℹ️"
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	gray := paint(opts.NoColor, color.FgHiBlack)
	for _, line := range opts.Excerpt {
		gray.Fprintf(&b, "   %s\n", line)
	}

	if opts.Consequence != "" {
		b.WriteString("\n")
		bodyColor.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if opts.Suggestion != "" {
		b.WriteString("\n")
		paint(opts.NoColor, color.FgYellow).Fprintf(&b, "   %s\n", opts.Suggestion)
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := paint(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return paint(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// Diagnostic formats err for the terminal. Compiler errors show their
// position, source excerpt and suggestion; other errors just their text.
func Diagnostic(err error, noColor bool) string {
	ce, ok := cerrors.As(err)
	if !ok {
		return FormatError(ErrorOptions{
			Level:   ErrorLevelError,
			Problem: err.Error(),
			NoColor: noColor,
		})
	}

	level := ErrorLevelError
	if ce.Severity == cerrors.SeverityWarning {
		level = ErrorLevelWarning
	}

	opts := ErrorOptions{
		Level:        level,
		Context:      categoryName(ce.Category),
		Problem:      cerrors.FormatCompact(ce),
		Excerpt:      excerpt(ce),
		Suggestion:   ce.Suggestion,
		HelpCommands: helpFor(ce),
		NoColor:      noColor,
	}
	if ce.Related != "" {
		opts.Consequence = "See also: " + ce.Related
	}
	return FormatError(opts)
}

// WriteDiagnostic writes Diagnostic(err) to w
func WriteDiagnostic(w io.Writer, err error, noColor bool) {
	fmt.Fprint(w, Diagnostic(err, noColor))
}

// WriteWarnings writes each warning in list
func WriteWarnings(w io.Writer, list cerrors.ErrorList, noColor bool) {
	for _, warning := range list {
		WriteDiagnostic(w, warning, noColor)
	}
}

// jsonError is the shape of non-compiler errors in JSON output
type jsonError struct {
	Message string `json:"message"`
}

// WriteDiagnosticJSON writes err as a JSON object
func WriteDiagnosticJSON(w io.Writer, err error) error {
	var payload any = jsonError{Message: err.Error()}
	if ce, ok := cerrors.As(err); ok {
		payload = ce
	}
	data, mErr := json.MarshalIndent(map[string]any{"success": false, "error": payload}, "", "  ")
	if mErr != nil {
		return mErr
	}
	_, wErr := fmt.Fprintln(w, string(data))
	return wErr
}

// excerpt renders the source lines of ce with a caret under its column
func excerpt(ce *cerrors.CompilerError) []string {
	if ce.Context == nil || len(ce.Context.SourceLines) == 0 {
		return nil
	}
	lines := make([]string, 0, len(ce.Context.SourceLines)+1)
	for i, line := range ce.Context.SourceLines {
		lineNum := ce.Context.FirstLine + i
		lines = append(lines, fmt.Sprintf("%4d |  %s", lineNum, line))
		if lineNum == ce.Location.Line && ce.Location.Column > 0 {
			lines = append(lines, fmt.Sprintf("     |  %s^", caretPadding(line, ce.Location.Column)))
		}
	}
	return lines
}

func caretPadding(line string, column int) string {
	var b strings.Builder
	for i := 0; i < column-1; i++ {
		if i < len(line) && line[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func categoryName(category cerrors.ErrorCategory) string {
	switch category {
	case cerrors.CategorySyntax:
		return "syntax error"
	case cerrors.CategorySemantic:
		return "semantic error"
	case cerrors.CategoryCodeGen:
		return "generation failed"
	case cerrors.CategoryIO:
		return "i/o error"
	default:
		return "error"
	}
}

func helpFor(ce *cerrors.CompilerError) []string {
	switch ce.Category {
	case cerrors.CategorySyntax:
		return []string{"Reformat a schema: flatmsgc fmt <file>"}
	case cerrors.CategoryCodeGen:
		return []string{"Inspect the template input: flatmsgc inspect <file>"}
	default:
		return nil
	}
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "configuration error",
		Problem:      message,
		HelpCommands: []string{"Create a config: flatmsgc init", "Get help: flatmsgc --help"},
		NoColor:      noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: message,
		NoColor: noColor,
	})
}

// Info creates a standardized info message
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelInfo,
		Problem: message,
		NoColor: noColor,
	})
}
