// Package unit derives translation units from parsed trees. A translation
// unit records which module a tree declares, what it imports and exports,
// and which type names it expects other modules to provide.
package unit

import (
	"fmt"

	"github.com/flatmessage/flatmsg/internal/compiler/ast"
	cerrors "github.com/flatmessage/flatmsg/internal/compiler/errors"
)

// TranslationUnit is a parsed tree plus the metadata the analyzer and the
// generator work from
type TranslationUnit struct {
	SourcePath   string
	TemplatePath string
	Tree         *ast.Tree

	Module          string
	ModuleOrigin    Origin
	Protocol        string
	ImportedModules []string
	ImportOrigins   []Origin // parallel to ImportedModules

	ExportedEnumNames []string
	ExportedDataNames []string
	ImportedTypeNames []string
	TypeOrigins       []Origin // first use of each imported type

	// IncludeOnly units come from include directories. They take part in
	// analysis but produce no output.
	IncludeOnly bool
	// MergedFrom lists the source paths folded into this unit, in order
	MergedFrom []string
	parts      []*ast.Tree
}

// Origin points at the declaration a name came from. Merged units mix
// declarations of several files, so the tree is recorded with the span.
type Origin struct {
	Tree *ast.Tree
	Loc  ast.Span
}

// Error attaches the file, position and source excerpt of o to err
func (o Origin) Error(err *cerrors.CompilerError) *cerrors.CompilerError {
	if o.Tree == nil {
		return err
	}
	err.Location = cerrors.LocationFromSpan(o.Loc)
	return err.WithFile(o.Tree.Source).WithSource(o.Tree.Text)
}

// Build walks the declarations of tree once, in source order
func Build(tree *ast.Tree) (*TranslationUnit, error) {
	u := &TranslationUnit{
		SourcePath: tree.Source,
		Tree:       tree,
	}
	b := newBuilder(u)

	for _, decl := range tree.Decls {
		switch d := decl.(type) {
		case *ast.ModuleDecl:
			if u.Module != "" {
				return nil, duplicate(tree, d.Loc, "module", d.Name, u.Module)
			}
			u.Module = d.Name
			u.ModuleOrigin = Origin{Tree: tree, Loc: d.Loc}
		case *ast.ProtocolDecl:
			if u.Protocol != "" {
				return nil, duplicate(tree, d.Loc, "protocol", d.Name, u.Protocol)
			}
			u.Protocol = d.Name
		case *ast.ImportDecl:
			u.ImportedModules = append(u.ImportedModules, d.Name)
			u.ImportOrigins = append(u.ImportOrigins, Origin{Tree: tree, Loc: d.Loc})
		default:
			b.visit(tree, decl)
		}
	}

	return u, nil
}

func duplicate(tree *ast.Tree, loc ast.Span, kind, name, previous string) error {
	return cerrors.NewDuplicateDeclaration(cerrors.LocationFromSpan(loc), tree.Source, kind, name, previous).
		WithSource(tree.Text)
}

// builder accumulates exports and imported types over type declarations
type builder struct {
	unit  *TranslationUnit
	found map[string]bool
}

func newBuilder(u *TranslationUnit) *builder {
	return &builder{unit: u, found: make(map[string]bool)}
}

func (b *builder) visit(tree *ast.Tree, decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.Enumeration:
		if ast.IsBuiltinType(d.Name) || b.found[d.Name] {
			return
		}
		b.unit.ExportedEnumNames = append(b.unit.ExportedEnumNames, d.Name)
		b.found[d.Name] = true
	case *ast.Data:
		b.unit.ExportedDataNames = append(b.unit.ExportedDataNames, d.Name)
		b.found[d.Name] = true
		b.attributes(tree, d.Attributes)
	case *ast.Message:
		b.attributes(tree, d.Attributes)
	case *ast.ModuleDecl, *ast.ImportDecl, *ast.ProtocolDecl:
		// handled by the caller
	default:
		panic(fmt.Sprintf("unit: unhandled declaration %T", decl))
	}
}

func (b *builder) attributes(tree *ast.Tree, attrs []*ast.Attribute) {
	for _, attr := range attrs {
		if ast.IsBuiltinType(attr.Type) || b.found[attr.Type] {
			continue
		}
		b.found[attr.Type] = true
		b.unit.ImportedTypeNames = append(b.unit.ImportedTypeNames, attr.Type)
		b.unit.TypeOrigins = append(b.unit.TypeOrigins, Origin{Tree: tree, Loc: attr.Loc})
	}
}

// Exports returns the exported enum and data names together
func (u *TranslationUnit) Exports() []string {
	names := make([]string, 0, len(u.ExportedEnumNames)+len(u.ExportedDataNames))
	names = append(names, u.ExportedEnumNames...)
	return append(names, u.ExportedDataNames...)
}

// Trees returns the parsed trees behind the unit: the trees folded into a
// merged unit, otherwise the unit's own tree
func (u *TranslationUnit) Trees() []*ast.Tree {
	if len(u.parts) > 0 {
		return u.parts
	}
	return []*ast.Tree{u.Tree}
}

// Label names the unit in diagnostics: its source path, or its module for
// units built from unlabelled trees
func (u *TranslationUnit) Label() string {
	if u.SourcePath != "" {
		return u.SourcePath
	}
	if u.Module != "" {
		return u.Module
	}
	return "<source>"
}
