// Package document projects syntax trees into generic documents: nested
// maps, lists and scalars that template engines can walk without knowing
// the tree types. The field names form a versioned contract with template
// authors.
package document

import (
	"fmt"
	"strings"

	"github.com/flatmessage/flatmsg/internal/compiler/ast"
)

// SchemaVersion is the version of the document field layout
const SchemaVersion = 1

// Map is a document node. Lists are []any and scalars are string, int64,
// float64 or bool.
type Map = map[string]any

// Option configures a projection
type Option func(*projector)

// WithStorage sets the storage mapping used for storageType fields. A nil
// mapping leaves every storageType empty.
func WithStorage(storage *Storage) Option {
	return func(p *projector) {
		p.storage = storage
	}
}

type projector struct {
	storage *Storage
}

// Project converts tree into a document
func Project(tree *ast.Tree, opts ...Option) Map {
	p := &projector{storage: DefaultStorage()}
	for _, opt := range opts {
		opt(p)
	}
	return p.project(tree)
}

func (p *projector) project(tree *ast.Tree) Map {
	enums := make([]any, 0)
	data := make([]any, 0)
	messages := make([]any, 0)
	imports := make([]any, 0)

	var module, protocol string
	hasModule, hasProtocol := false, false

	for _, decl := range tree.Decls {
		switch d := decl.(type) {
		case *ast.ModuleDecl:
			// merged trees carry several; the first one names the document
			if !hasModule {
				module, hasModule = d.Name, true
			}
		case *ast.ProtocolDecl:
			if !hasProtocol {
				protocol, hasProtocol = d.Name, true
			}
		case *ast.ImportDecl:
			path, name := splitModule(d.Name)
			imports = append(imports, Map{
				"fullImport": d.Name,
				"importName": name,
				"importPath": path,
			})
		case *ast.Enumeration:
			enums = append(enums, p.enumeration(d))
		case *ast.Data:
			data = append(data, p.record("data", d.Name, d.Attributes, d.Annotations))
		case *ast.Message:
			messages = append(messages, p.record("message", d.Name, d.Attributes, d.Annotations))
		default:
			panic(fmt.Sprintf("document: unhandled declaration %T", decl))
		}
	}

	modulePath, moduleName := splitModule(module)

	dialect := ""
	if p.storage != nil {
		dialect = p.storage.Dialect
	}

	return Map{
		"schemaVersion":  int64(SchemaVersion),
		"source":         tree.Source,
		"fullModule":     module,
		"moduleName":     moduleName,
		"modulePath":     modulePath,
		"hasModule":      hasModule,
		"protocol":       protocol,
		"hasProtocol":    hasProtocol,
		"imports":        imports,
		"enums":          enums,
		"data":           data,
		"messages":       messages,
		"hasEnums":       len(enums) > 0,
		"hasData":        len(data) > 0,
		"hasMessages":    len(messages) > 0,
		"hasImports":     len(imports) > 0,
		"storageDialect": dialect,
		"storageTypes":   p.storage.Map(),
	}
}

func (p *projector) enumeration(e *ast.Enumeration) Map {
	values := make([]any, 0, len(e.Values))
	for i, v := range e.Values {
		values = append(values, Map{
			"name":    v.Name,
			"value":   v.Value,
			"isFirst": i == 0,
			"isLast":  i == len(e.Values)-1,
		})
	}

	storageType, _ := p.storage.Lookup(e.Alignment)
	annotations := projectAnnotations(e.Annotations)

	return Map{
		"kind":           "enum",
		"name":           e.Name,
		"alignment":      e.Alignment,
		"storageType":    storageType,
		"values":         values,
		"hasValues":      len(values) > 0,
		"annotations":    annotations,
		"hasAnnotations": len(annotations) > 0,
	}
}

func (p *projector) record(kind, name string, attrs []*ast.Attribute, anns []*ast.Annotation) Map {
	attributes := make([]any, 0, len(attrs))
	hasSpecifier, hasArraySize, hasDefault := false, false, false

	for i, attr := range attrs {
		attributes = append(attributes, p.attribute(attr, i == 0, i == len(attrs)-1))
		hasSpecifier = hasSpecifier || attr.Specifier != ""
		hasArraySize = hasArraySize || attr.ArraySize != nil
		hasDefault = hasDefault || attr.Default != nil
	}

	annotations := projectAnnotations(anns)

	return Map{
		"kind":            kind,
		"name":            name,
		"attributes":      attributes,
		"annotations":     annotations,
		"hasAnnotations":  len(annotations) > 0,
		"hasSpecifier":    hasSpecifier,
		"hasArraySize":    hasArraySize,
		"hasDefaultValue": hasDefault,
	}
}

func (p *projector) attribute(attr *ast.Attribute, first, last bool) Map {
	var arraySize int64
	if attr.ArraySize != nil {
		arraySize = int64(*attr.ArraySize)
	}

	var defaultValue any = ""
	defaultKind, defaultText := "", ""
	if attr.Default != nil {
		defaultValue = attr.Default.Value()
		defaultKind = literalKind(attr.Default)
		defaultText = attr.Default.Text()
	}

	storageType, _ := p.storage.Lookup(attr.Type)
	annotations := projectAnnotations(attr.Annotations)

	return Map{
		"name":             attr.Name,
		"type":             attr.Type,
		"specifier":        attr.Specifier,
		"hasSpecifier":     attr.Specifier != "",
		"isOptional":       attr.Specifier == ast.SpecifierOptional,
		"isRepeated":       attr.Specifier == ast.SpecifierRepeated,
		"arraySize":        arraySize,
		"hasArraySize":     attr.ArraySize != nil,
		"defaultValue":     defaultValue,
		"defaultValueKind": defaultKind,
		"defaultValueText": defaultText,
		"hasDefaultValue":  attr.Default != nil,
		"annotations":      annotations,
		"hasAnnotations":   len(annotations) > 0,
		"isBuiltin":        ast.IsBuiltinType(attr.Type),
		"storageType":      storageType,
		"isFirst":          first,
		"isLast":           last,
	}
}

func projectAnnotations(anns []*ast.Annotation) []any {
	out := make([]any, 0, len(anns))
	for _, a := range anns {
		var value any = ""
		kind := ""
		if a.Value != nil {
			value = a.Value.Value()
			kind = literalKind(a.Value)
		}
		out = append(out, Map{
			"name":      a.Name,
			"value":     value,
			"hasValue":  a.Value != nil,
			"valueKind": kind,
		})
	}
	return out
}

// literalKind names the kind of a literal; the f spelling is a double
func literalKind(l *ast.Literal) string {
	if l.Kind == ast.LiteralFloat {
		return ast.LiteralDouble.String()
	}
	return l.Kind.String()
}

// splitModule splits a dotted module name at its last dot into the leading
// path and the final segment
func splitModule(full string) (path, name string) {
	i := strings.LastIndex(full, ".")
	if i < 0 {
		return "", full
	}
	return full[:i], full[i+1:]
}
