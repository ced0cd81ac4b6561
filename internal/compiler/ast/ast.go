// Package ast defines the syntax tree node types for flatmsg schemas.
// A parsed source unit is an ordered sequence of top-level declarations:
// module, import, protocol, enum, data and message.
package ast

import "fmt"

// Span tracks the position of a node in source text
type Span struct {
	Offset int // Byte offset of the first character
	End    int // Byte offset after the last character
	Line   int // Line number (1-indexed)
	Column int // Column number (1-indexed)
}

// String returns line:column
func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// Node is the base interface for all syntax tree nodes
type Node interface {
	Location() Span
	node()
}

// Decl is a top-level declaration. The set of implementations is closed:
// ModuleDecl, ImportDecl, ProtocolDecl, Enumeration, Data and Message.
type Decl interface {
	Node
	declNode()
}

// Tree is the root of a parsed source unit
type Tree struct {
	Source string // Label of the source, usually its path
	Text   string // Raw source text, kept for diagnostics
	Decls  []Decl
}

// ModuleDecl declares the module of a source unit (module a.b.c;)
type ModuleDecl struct {
	Name string
	Loc  Span
}

func (m *ModuleDecl) node()     {}
func (m *ModuleDecl) declNode() {}

// Location returns the source span of the module declaration.
func (m *ModuleDecl) Location() Span { return m.Loc }

// ImportDecl imports another module (import a.b;)
type ImportDecl struct {
	Name string
	Loc  Span
}

func (i *ImportDecl) node()     {}
func (i *ImportDecl) declNode() {}

// Location returns the source span of the import declaration.
func (i *ImportDecl) Location() Span { return i.Loc }

// ProtocolDecl names the protocol a unit belongs to (protocol Chat;)
type ProtocolDecl struct {
	Name string
	Loc  Span
}

func (p *ProtocolDecl) node()     {}
func (p *ProtocolDecl) declNode() {}

// Location returns the source span of the protocol declaration.
func (p *ProtocolDecl) Location() Span { return p.Loc }

// Enumeration is an enum with a storage alignment (byte, word, dword or qword)
type Enumeration struct {
	Name        string
	Alignment   string
	Values      []*EnumValue
	Annotations []*Annotation
	Loc         Span
}

func (e *Enumeration) node()     {}
func (e *Enumeration) declNode() {}

// Location returns the source span of the enumeration.
func (e *Enumeration) Location() Span { return e.Loc }

// EnumValue is a single name = value entry of an enumeration
type EnumValue struct {
	Name  string
	Value int64
	Loc   Span
}

func (v *EnumValue) node() {}

// Location returns the source span of the enum value.
func (v *EnumValue) Location() Span { return v.Loc }

// Data is a plain record declaration
type Data struct {
	Name        string
	Attributes  []*Attribute
	Annotations []*Annotation
	Loc         Span
}

func (d *Data) node()     {}
func (d *Data) declNode() {}

// Location returns the source span of the data declaration.
func (d *Data) Location() Span { return d.Loc }

// Message is a protocol message declaration
type Message struct {
	Name        string
	Attributes  []*Attribute
	Annotations []*Annotation
	Loc         Span
}

func (m *Message) node()     {}
func (m *Message) declNode() {}

// Location returns the source span of the message declaration.
func (m *Message) Location() Span { return m.Loc }

// Specifiers accepted before an attribute type
const (
	SpecifierOptional = "optional"
	SpecifierRepeated = "repeated"
)

// Attribute is a field of a data or message declaration
type Attribute struct {
	Specifier   string // "", SpecifierOptional or SpecifierRepeated
	Type        string
	ArraySize   *int // nil when absent; never negative
	Name        string
	Default     *Literal
	Annotations []*Annotation
	Loc         Span
}

func (a *Attribute) node() {}

// Location returns the source span of the attribute.
func (a *Attribute) Location() Span { return a.Loc }

// Annotation is an @name or @name(literal) marker
type Annotation struct {
	Name  string
	Value *Literal // nil for a bare @name
	Loc   Span
}

func (a *Annotation) node() {}

// Location returns the source span of the annotation.
func (a *Annotation) Location() Span { return a.Loc }

// DeclKind returns the keyword that introduces a declaration
func DeclKind(d Decl) string {
	switch d.(type) {
	case *ModuleDecl:
		return "module"
	case *ImportDecl:
		return "import"
	case *ProtocolDecl:
		return "protocol"
	case *Enumeration:
		return "enum"
	case *Data:
		return "data"
	case *Message:
		return "message"
	default:
		panic(fmt.Sprintf("ast: unhandled declaration %T", d))
	}
}

// DeclName returns the name carried by a declaration
func DeclName(d Decl) string {
	switch n := d.(type) {
	case *ModuleDecl:
		return n.Name
	case *ImportDecl:
		return n.Name
	case *ProtocolDecl:
		return n.Name
	case *Enumeration:
		return n.Name
	case *Data:
		return n.Name
	case *Message:
		return n.Name
	default:
		panic(fmt.Sprintf("ast: unhandled declaration %T", d))
	}
}
