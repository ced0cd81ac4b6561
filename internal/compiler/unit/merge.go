package unit

import (
	"github.com/flatmessage/flatmsg/internal/compiler/ast"
)

// Merge folds units into one unit holding the declarations of all of them
// in order. Module, protocol, source and template come from the first unit.
// Imports are the ordered union of all imports minus the modules the merged
// units declare themselves; exports and imported types are recomputed over
// the combined declarations.
func Merge(units []*TranslationUnit) *TranslationUnit {
	if len(units) == 0 {
		return nil
	}

	first := units[0]
	merged := &TranslationUnit{
		SourcePath:   first.SourcePath,
		TemplatePath: first.TemplatePath,
		Module:       first.Module,
		ModuleOrigin: first.ModuleOrigin,
		Protocol:     first.Protocol,
		Tree: &ast.Tree{
			Source: first.Tree.Source,
			Text:   first.Tree.Text,
		},
	}

	declared := make(map[string]bool)
	for _, u := range units {
		if u.Module != "" {
			declared[u.Module] = true
		}
	}

	b := newBuilder(merged)
	seenImport := make(map[string]bool)

	for _, u := range units {
		merged.MergedFrom = append(merged.MergedFrom, u.SourcePath)
		merged.parts = append(merged.parts, u.Trees()...)

		merged.Tree.Decls = append(merged.Tree.Decls, u.Tree.Decls...)

		for i, module := range u.ImportedModules {
			if declared[module] || seenImport[module] {
				continue
			}
			seenImport[module] = true
			merged.ImportedModules = append(merged.ImportedModules, module)
			merged.ImportOrigins = append(merged.ImportOrigins, u.ImportOrigins[i])
		}

		for _, tree := range u.Trees() {
			for _, decl := range tree.Decls {
				b.visit(tree, decl)
			}
		}
	}

	return merged
}
