package lexer

import (
	"strconv"
	"strings"
	"testing"
)

// Generate a sample data declaration with n attributes
func generateData(name string, attributes int) string {
	var sb strings.Builder
	sb.WriteString("// Sample data for benchmarking\n@table(\"")
	sb.WriteString(strings.ToLower(name))
	sb.WriteString("\")\ndata ")
	sb.WriteString(name)
	sb.WriteString(" {\n")

	for i := 0; i < attributes; i++ {
		sb.WriteString("    @max(100)\n    optional string field_")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(" = \"default\";\n")
	}

	sb.WriteString("}\n\n")
	return sb.String()
}

// Generate multiple declarations
func generateSchema(count, attributesPerData int) string {
	var sb strings.Builder
	sb.WriteString("module bench.schema;\n\n")
	for i := 0; i < count; i++ {
		sb.WriteString(generateData("Record"+strconv.Itoa(i), attributesPerData))
	}
	return sb.String()
}

func BenchmarkLexer_Simple(b *testing.B) {
	source := `data Point {
    int32 x;
    int32 y;
}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lexer := New(source, "bench.fmdata")
		lexer.ScanTokens()
	}
}

func BenchmarkLexer_50Attributes(b *testing.B) {
	source := generateData("Wide", 50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lexer := New(source, "bench.fmdata")
		lexer.ScanTokens()
	}
}

// Benchmark roughly 1000 lines of schema
func BenchmarkLexer_1000LOC(b *testing.B) {
	source := generateSchema(20, 24)
	lines := strings.Count(source, "\n")

	b.Logf("Generated %d lines of schema", lines)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lexer := New(source, "bench.fmdata")
		lexer.ScanTokens()
	}
}

func BenchmarkLexer_StringsWithEscapes(b *testing.B) {
	source := strings.Repeat(`"hello\nworld" "tab\tseparated" "quote\"inside" "backslash\\here" `, 50)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lexer := New(source, "bench.fmsg")
		lexer.ScanTokens()
	}
}
