// Package format prints flatmsg syntax trees in canonical source form.
// Re-parsing the output yields a tree equal to the input.
package format

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/flatmessage/flatmsg/internal/compiler/ast"
	"github.com/flatmessage/flatmsg/internal/compiler/parser"
)

// Formatter formats flatmsg source code
type Formatter struct {
	config *Config
	buf    *bytes.Buffer
	indent int
}

// New creates a new Formatter with the given configuration
func New(config *Config) *Formatter {
	if config == nil {
		config = DefaultConfig()
	}
	return &Formatter{
		config: config,
		buf:    new(bytes.Buffer),
	}
}

// Print renders a tree with the default configuration
func Print(tree *ast.Tree) string {
	return New(nil).FormatTree(tree)
}

// Format parses source and returns it in canonical form. Comments are not
// part of the syntax tree and are dropped.
func (f *Formatter) Format(source, label string) (string, error) {
	tree, err := parser.Parse(source, label)
	if err != nil {
		return "", err
	}
	return f.FormatTree(tree), nil
}

// FormatFile formats a flatmsg source file
func FormatFile(fs afero.Fs, path string, config *Config) (string, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", err
	}
	return New(config).Format(string(content), path)
}

// FormatTree renders a tree
func (f *Formatter) FormatTree(tree *ast.Tree) string {
	f.buf.Reset()
	f.indent = 0

	var prev ast.Decl
	for _, decl := range tree.Decls {
		if prev != nil && needsBlankLine(prev, decl) {
			f.writeLine("")
		}
		f.formatDecl(decl)
		prev = decl
	}

	return f.buf.String()
}

// needsBlankLine separates blocks from everything else and groups runs of
// one-line declarations of the same kind
func needsBlankLine(prev, next ast.Decl) bool {
	if isBlock(prev) || isBlock(next) {
		return true
	}
	return ast.DeclKind(prev) != ast.DeclKind(next)
}

func isBlock(d ast.Decl) bool {
	switch d.(type) {
	case *ast.Enumeration, *ast.Data, *ast.Message:
		return true
	default:
		return false
	}
}

// formatDecl formats one top-level declaration
func (f *Formatter) formatDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.ModuleDecl:
		f.writeLine("module " + d.Name + ";")
	case *ast.ImportDecl:
		f.writeLine("import " + d.Name + ";")
	case *ast.ProtocolDecl:
		f.writeLine("protocol " + d.Name + ";")
	case *ast.Enumeration:
		f.formatEnumeration(d)
	case *ast.Data:
		f.formatRecord("data", d.Name, d.Attributes, d.Annotations)
	case *ast.Message:
		f.formatRecord("message", d.Name, d.Attributes, d.Annotations)
	default:
		panic("format: unhandled declaration")
	}
}

// formatEnumeration formats an enum block
func (f *Formatter) formatEnumeration(enum *ast.Enumeration) {
	f.formatAnnotations(enum.Annotations)
	f.writeLine("enum " + enum.Name + " : " + enum.Alignment + " {")
	f.indent++

	maxLen := 0
	if f.config.AlignFields {
		for _, v := range enum.Values {
			if len(v.Name) > maxLen {
				maxLen = len(v.Name)
			}
		}
	}

	for _, v := range enum.Values {
		name := v.Name
		if maxLen > 0 {
			name += strings.Repeat(" ", maxLen-len(v.Name))
		}
		f.writeLine(name + " = " + strconv.FormatInt(v.Value, 10) + ",")
	}

	f.indent--
	f.writeLine("}")
}

// formatRecord formats a data or message block
func (f *Formatter) formatRecord(keyword, name string, attributes []*ast.Attribute, annotations []*ast.Annotation) {
	f.formatAnnotations(annotations)
	f.writeLine(keyword + " " + name + " {")
	f.indent++

	// Calculate max type column length for alignment if enabled
	maxTypeLen := 0
	if f.config.AlignFields {
		for _, attr := range attributes {
			if l := len(typeColumn(attr)); l > maxTypeLen {
				maxTypeLen = l
			}
		}
	}

	for _, attr := range attributes {
		f.formatAttribute(attr, maxTypeLen)
	}

	f.indent--
	f.writeLine("}")
}

// typeColumn renders "specifier type[size]"
func typeColumn(attr *ast.Attribute) string {
	var b strings.Builder
	if attr.Specifier != "" {
		b.WriteString(attr.Specifier)
		b.WriteString(" ")
	}
	b.WriteString(attr.Type)
	if attr.ArraySize != nil {
		b.WriteString("[")
		b.WriteString(strconv.Itoa(*attr.ArraySize))
		b.WriteString("]")
	}
	return b.String()
}

// formatAttribute formats one attribute line, annotations first
func (f *Formatter) formatAttribute(attr *ast.Attribute, maxTypeLen int) {
	f.formatAnnotations(attr.Annotations)

	column := typeColumn(attr)
	line := column + " "
	if maxTypeLen > 0 {
		line += strings.Repeat(" ", maxTypeLen-len(column))
	}
	line += attr.Name
	if attr.Default != nil {
		line += " = " + attr.Default.Canonical()
	}
	f.writeLine(line + ";")
}

// formatAnnotations writes annotations on their own line
func (f *Formatter) formatAnnotations(annotations []*ast.Annotation) {
	if len(annotations) == 0 {
		return
	}
	parts := make([]string, len(annotations))
	for i, a := range annotations {
		parts[i] = "@" + a.Name
		if a.Value != nil {
			parts[i] += "(" + a.Value.Canonical() + ")"
		}
	}
	f.writeLine(strings.Join(parts, " "))
}

// writeIndent writes the current indentation level
func (f *Formatter) writeIndent() {
	f.buf.WriteString(strings.Repeat(" ", f.indent*f.config.IndentSize))
}

// writeLine writes a line with indentation
func (f *Formatter) writeLine(text string) {
	if text != "" {
		f.writeIndent()
		f.buf.WriteString(text)
	}
	f.buf.WriteString("\n")
}
