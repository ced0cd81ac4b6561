package errors

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/flatmessage/flatmsg/internal/compiler/ast"
)

func TestErrorCodeUniqueness(t *testing.T) {
	codes := make(map[ErrorCode]string)

	groups := map[string][]ErrorCode{
		"syntax":   {ErrExpected, ErrTrailingInput, ErrLexical},
		"semantic": {ErrDuplicateModule, ErrUnresolvedImport, ErrUnresolvedType, ErrDuplicateDeclaration, ErrDuplicateEnumValue, ErrDuplicateEnumNumber},
		"codegen":  {ErrTemplateLoad, ErrTemplateRender, ErrSQLVerify},
		"io":       {ErrIO},
	}

	for group, list := range groups {
		for _, code := range list {
			if prev, exists := codes[code]; exists {
				t.Errorf("Duplicate error code %s (previously used for %s)", code, prev)
			}
			codes[code] = group
		}
	}
}

func TestLocationAt(t *testing.T) {
	source := "data Foo {\n  uint32 x;\n}"

	tests := []struct {
		offset int
		line   int
		column int
	}{
		{0, 1, 1},
		{10, 1, 11},
		{11, 2, 1},
		{13, 2, 3},
		{len(source), 3, 2},
		{len(source) + 5, 3, 2},
	}

	for _, tt := range tests {
		loc := LocationAt(source, tt.offset)
		if loc.Line != tt.line || loc.Column != tt.column {
			t.Errorf("LocationAt(%d): expected %d:%d, got %d:%d", tt.offset, tt.line, tt.column, loc.Line, loc.Column)
		}
	}
}

func TestLocationFromSpan(t *testing.T) {
	loc := LocationFromSpan(ast.Span{Offset: 12, End: 15, Line: 2, Column: 4})
	if loc != (Location{Offset: 12, Line: 2, Column: 4}) {
		t.Errorf("Unexpected location %+v", loc)
	}
}

func TestErrorJSONSerialization(t *testing.T) {
	err := NewExpected(Location{Offset: 11, Line: 1, Column: 12}, "one or more attributes", "end of input").
		WithFile("foo.fmdata")

	jsonStr, jsonErr := err.ToJSON()
	if jsonErr != nil {
		t.Fatalf("Failed to serialize error to JSON: %v", jsonErr)
	}

	var parsed CompilerError
	if unmarshalErr := json.Unmarshal([]byte(jsonStr), &parsed); unmarshalErr != nil {
		t.Fatalf("Failed to parse error JSON: %v", unmarshalErr)
	}

	if parsed.Code != ErrExpected {
		t.Errorf("Expected code %s, got %s", ErrExpected, parsed.Code)
	}
	if parsed.Type != "expected" {
		t.Errorf("Expected type 'expected', got '%s'", parsed.Type)
	}
	if parsed.Category != CategorySyntax {
		t.Errorf("Expected category %s, got %s", CategorySyntax, parsed.Category)
	}
	if parsed.Location.Offset != 11 || parsed.Location.Line != 1 || parsed.Location.Column != 12 {
		t.Errorf("Unexpected location %+v", parsed.Location)
	}
	if parsed.Expected != "one or more attributes" {
		t.Errorf("Expected 'one or more attributes', got '%s'", parsed.Expected)
	}
	if parsed.File != "foo.fmdata" {
		t.Errorf("Expected file 'foo.fmdata', got '%s'", parsed.File)
	}
}

func TestErrorFormatting(t *testing.T) {
	source := "module a;\ndata Foo {\n    Point p;\n}\n"
	err := NewUnresolvedType(Location{Offset: 25, Line: 3, Column: 5}, "foo.fmdata", "Point").
		WithSource(source)

	formatted := err.Format()

	checks := []string{
		"Semantic Error",
		"foo.fmdata",
		"Line 3, Column 5",
		"  2 |  data Foo {",
		"  3 |      Point p;",
		"    |      ^ Undefined data type 'Point'",
		"  4 |  }",
		"Actual:   'Point'",
	}
	for _, want := range checks {
		if !strings.Contains(formatted, want) {
			t.Errorf("Formatted error should contain %q\nGot:\n%s", want, formatted)
		}
	}
}

func TestWithSourceFirstLine(t *testing.T) {
	err := NewExpected(Location{Offset: 4, Line: 1, Column: 5}, "identifier", "';'").
		WithSource("data;\nmore")

	if err.Context == nil {
		t.Fatal("Expected context to be set")
	}
	if err.Context.FirstLine != 1 {
		t.Errorf("Expected first line 1, got %d", err.Context.FirstLine)
	}
	if err.Context.Current != "data;" {
		t.Errorf("Expected current line 'data;', got %q", err.Context.Current)
	}
	if len(err.Context.SourceLines) != 2 {
		t.Errorf("Expected 2 context lines, got %d", len(err.Context.SourceLines))
	}
}

func TestFormatCompact(t *testing.T) {
	tests := []struct {
		name     string
		err      *CompilerError
		expected string
	}{
		{
			"with location",
			NewExpected(Location{Offset: 11, Line: 1, Column: 12}, "one or more attributes", "end of input").WithFile("foo.fmdata"),
			"foo.fmdata:1:12: error: expecting one or more attributes here, found end of input [SYN001]",
		},
		{
			"without location",
			NewUnresolvedImport(Location{}, "b.fmsg", "geo"),
			"b.fmsg: error: Imported module 'geo' couldn't be found [SEM202]",
		},
		{
			"without file",
			NewLexical(Location{Line: 2, Column: 3}, "Unterminated string literal"),
			"<source>:2:3: error: Unterminated string literal [SYN003]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestErrorListFormatting(t *testing.T) {
	errors := ErrorList{
		NewDuplicateModule(Location{}, "b.fmsg", "geo", "a.fmsg"),
		NewDuplicateEnumNumber(Location{Line: 3, Column: 5}, "a.fmsg", "Color", "Blue", "Red", 1),
	}

	formatted := errors.Error()

	if !strings.Contains(formatted, "1 error(s), 1 warning(s)") {
		t.Errorf("Formatted error list should contain counts, got:\n%s", formatted)
	}
	if !strings.Contains(formatted, "See also: a.fmsg") {
		t.Error("Formatted error list should name the related file")
	}
}

func TestErrorListHasErrors(t *testing.T) {
	withError := ErrorList{NewUnresolvedType(Location{}, "a.fmsg", "Point")}
	warningsOnly := ErrorList{NewDuplicateEnumNumber(Location{}, "a.fmsg", "Color", "Blue", "Red", 1)}

	if !withError.HasErrors() {
		t.Error("Expected HasErrors() to return true when list contains errors")
	}
	if warningsOnly.HasErrors() {
		t.Error("Expected HasErrors() to return false when list contains only warnings")
	}
	if !warningsOnly.HasWarnings() {
		t.Error("Expected HasWarnings() to return true")
	}
}

func TestErrorCategories(t *testing.T) {
	cause := fmt.Errorf("boom")

	tests := []struct {
		name     string
		err      *CompilerError
		category ErrorCategory
		code     ErrorCode
	}{
		{"expected", NewExpected(Location{}, "identifier", "';'"), CategorySyntax, ErrExpected},
		{"trailing", NewTrailingInput(Location{}, "'}'"), CategorySyntax, ErrTrailingInput},
		{"lexical", NewLexical(Location{}, "Unexpected character '$'"), CategorySyntax, ErrLexical},
		{"duplicate module", NewDuplicateModule(Location{}, "b", "m", "a"), CategorySemantic, ErrDuplicateModule},
		{"unresolved import", NewUnresolvedImport(Location{}, "a", "m"), CategorySemantic, ErrUnresolvedImport},
		{"unresolved type", NewUnresolvedType(Location{}, "a", "T"), CategorySemantic, ErrUnresolvedType},
		{"duplicate declaration", NewDuplicateDeclaration(Location{}, "a", "module", "y", "x"), CategorySemantic, ErrDuplicateDeclaration},
		{"duplicate enum value", NewDuplicateEnumValue(Location{}, "a", "E", "V"), CategorySemantic, ErrDuplicateEnumValue},
		{"template load", NewTemplateLoad("t.tmpl", cause), CategoryCodeGen, ErrTemplateLoad},
		{"template render", NewTemplateRender("t.tmpl", "a.fmsg", cause), CategoryCodeGen, ErrTemplateRender},
		{"sql verify", NewSQLVerify("out.sql", cause), CategoryCodeGen, ErrSQLVerify},
		{"io", NewIOError("a.fmsg", "read", cause), CategoryIO, ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Expected category %s, got %s", tt.category, tt.err.Category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.Severity != SeverityError {
				t.Errorf("Expected severity error, got %s", tt.err.Severity)
			}
		})
	}
}

func TestIsAndUnwrap(t *testing.T) {
	ioErr := NewIOError("missing.fmsg", "read", fs.ErrNotExist)
	wrapped := fmt.Errorf("compiling: %w", ioErr)

	if !Is(wrapped, ErrIO) {
		t.Error("Expected Is to find IO701 through wrapping")
	}
	if Is(wrapped, ErrExpected) {
		t.Error("Expected Is to reject a different code")
	}

	ce, ok := As(wrapped)
	if !ok || ce != ioErr {
		t.Fatal("Expected As to return the original error")
	}

	// errors.Is from the standard library reaches the cause
	if !isNotExist(wrapped) {
		t.Error("Expected the cause to be reachable through Unwrap")
	}

	if Is(fmt.Errorf("plain"), ErrIO) {
		t.Error("Expected Is to be false for plain errors")
	}
}

func isNotExist(err error) bool {
	for err != nil {
		if err == fs.ErrNotExist {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
