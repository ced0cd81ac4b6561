package render

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/flatmessage/flatmsg/internal/compiler/ast"
	"github.com/flatmessage/flatmsg/internal/compiler/document"
)

// NameSet is a set of type names
type NameSet map[string]bool

// Has reports whether name is in the set
func (s NameSet) Has(name string) bool {
	return s[name]
}

// Helpers are the functions templates may call. They only read the
// document and the name sets, so the same helpers can serve any number of
// renders.
type Helpers struct {
	enums    NameSet // exported enums of the batch
	data     NameSet // exported data of the batch
	docEnums NameSet // enums declared by the document itself
	storage  map[string]any
}

// NewHelpers creates the helpers for doc
func NewHelpers(doc document.Map, enums, data NameSet) *Helpers {
	h := &Helpers{
		enums:    enums,
		data:     data,
		docEnums: make(NameSet),
	}
	if h.enums == nil {
		h.enums = make(NameSet)
	}
	if h.data == nil {
		h.data = make(NameSet)
	}

	if list, ok := doc["enums"].([]any); ok {
		for _, e := range list {
			if name, ok := field(e, "name").(string); ok {
				h.docEnums[name] = true
			}
		}
	}
	if storage, ok := asMap(doc["storageTypes"]); ok {
		h.storage = storage
	}
	return h
}

// HasAnnotation reports whether node carries an annotation called name
func (h *Helpers) HasAnnotation(node any, name string) bool {
	for _, a := range annotations(node) {
		if field(a, "name") == name {
			return true
		}
	}
	return false
}

// AnnotationValue returns the value of the first annotation called name,
// or "" when there is none
func (h *Helpers) AnnotationValue(node any, name string) any {
	for _, a := range annotations(node) {
		if field(a, "name") == name {
			if v := field(a, "value"); v != nil {
				return v
			}
			return ""
		}
	}
	return ""
}

// GetAnnotationsWithName returns the values of every annotation called name
func (h *Helpers) GetAnnotationsWithName(node any, name string) []any {
	values := make([]any, 0)
	for _, a := range annotations(node) {
		if field(a, "name") == name {
			v := field(a, "value")
			if v == nil {
				v = ""
			}
			values = append(values, v)
		}
	}
	return values
}

// HasSpecifier reports whether attribute is declared with specifier
func (h *Helpers) HasSpecifier(attribute any, specifier string) bool {
	s, _ := field(attribute, "specifier").(string)
	return s != "" && s == specifier
}

// IsUserDefined reports whether typeName is neither an exported enum or
// data name nor mapped to a storage type. Built-in scalars never are, even
// when the storage dialect maps nothing.
func (h *Helpers) IsUserDefined(typeName string) bool {
	if ast.IsBuiltinType(typeName) || h.enums.Has(typeName) || h.data.Has(typeName) {
		return false
	}
	_, mapped := h.StorageTypeOf(typeName)
	return !mapped
}

// IsUserDefinedData reports whether typeName is exported data and not an
// enum of the document or the batch
func (h *Helpers) IsUserDefinedData(typeName string) bool {
	if h.docEnums.Has(typeName) || h.enums.Has(typeName) {
		return false
	}
	return h.data.Has(typeName)
}

// StorageTypeOf looks typeName up in the document's storage mapping
func (h *Helpers) StorageTypeOf(typeName string) (string, bool) {
	v, ok := h.storage[typeName]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StorageType returns the storage type of typeName or ""
func (h *Helpers) StorageType(typeName string) string {
	s, _ := h.StorageTypeOf(typeName)
	return s
}

// Upper upper-cases s
func (h *Helpers) Upper(s string) string { return strings.ToUpper(s) }

// Lower lower-cases s
func (h *Helpers) Lower(s string) string { return strings.ToLower(s) }

// Title upper-cases the first letter of every word and lower-cases the rest
func (h *Helpers) Title(s string) string {
	if s == "" {
		return s
	}
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

// Snake converts CamelCase to snake_case, keeping acronyms together
// (HTTPRequest becomes http_request)
func (h *Helpers) Snake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 {
			prev := runes[i-1]
			if unicode.IsLower(prev) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && prev != '_') {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Join joins the elements of a list with sep
func (h *Helpers) Join(sep string, items any) string {
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Sprint(items)
	}
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = fmt.Sprint(v.Index(i).Interface())
	}
	return strings.Join(parts, sep)
}

// Default returns val unless it is nil or the empty string
func (h *Helpers) Default(def, val any) any {
	if val == nil || val == "" {
		return def
	}
	return val
}

func annotations(node any) []any {
	list, _ := field(node, "annotations").([]any)
	return list
}

// field reads key from a document node
func field(node any, key string) any {
	m, ok := asMap(node)
	if !ok {
		return nil
	}
	return m[key]
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}
