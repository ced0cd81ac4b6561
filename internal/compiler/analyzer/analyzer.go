// Package analyzer checks a batch of translation units against each other:
// module names must be unique, imported modules must exist and every
// referenced type must be exported by some unit.
package analyzer

import (
	"time"

	"go.uber.org/zap"

	"github.com/flatmessage/flatmsg/internal/compiler/ast"
	cerrors "github.com/flatmessage/flatmsg/internal/compiler/errors"
	"github.com/flatmessage/flatmsg/internal/compiler/unit"
)

// Batch is the result of analyzing one compilation run
type Batch struct {
	Units []*unit.TranslationUnit
	// Modules maps module names to the unit declaring them. Units without a
	// module declaration are not registered.
	Modules map[string]*unit.TranslationUnit

	Exported   map[string]bool // every exported enum and data name
	KnownEnums map[string]bool
	KnownData  map[string]bool

	// Warnings collects non-fatal findings such as enum values sharing a number
	Warnings cerrors.ErrorList
}

// Option configures an analysis
type Option func(*analyzer)

// WithStrictImports resolves a unit's types only against its own exports
// and the exports of modules it imports
func WithStrictImports() Option {
	return func(a *analyzer) {
		a.strict = true
	}
}

// WithLogger sets the logger for pass boundaries and warnings
func WithLogger(logger *zap.Logger) Option {
	return func(a *analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

type analyzer struct {
	strict bool
	logger *zap.Logger
	batch  *Batch
}

// Analyze runs registration over all units, then resolution. The first
// failure aborts the analysis.
func Analyze(units []*unit.TranslationUnit, opts ...Option) (*Batch, error) {
	a := &analyzer{
		logger: zap.NewNop(),
		batch: &Batch{
			Units:      units,
			Modules:    make(map[string]*unit.TranslationUnit),
			Exported:   make(map[string]bool),
			KnownEnums: make(map[string]bool),
			KnownData:  make(map[string]bool),
		},
	}
	for _, opt := range opts {
		opt(a)
	}

	start := time.Now()
	if err := a.register(units); err != nil {
		return nil, err
	}
	a.logger.Debug("registration pass finished",
		zap.Int("units", len(units)),
		zap.Int("modules", len(a.batch.Modules)),
		zap.Int("exported", len(a.batch.Exported)))

	if err := a.resolve(units); err != nil {
		return nil, err
	}
	a.logger.Debug("resolution pass finished",
		zap.Bool("strict_imports", a.strict),
		zap.Duration("duration", time.Since(start)))

	return a.batch, nil
}

// register is the first pass: unique module names, enum consistency and the
// batch-global name sets
func (a *analyzer) register(units []*unit.TranslationUnit) error {
	b := a.batch

	for _, u := range units {
		if u.Module != "" {
			if first, exists := b.Modules[u.Module]; exists {
				err := cerrors.NewDuplicateModule(cerrors.Location{}, u.Label(), u.Module, first.Label())
				return u.ModuleOrigin.Error(err)
			}
			b.Modules[u.Module] = u
		}

		if err := a.checkEnums(u); err != nil {
			return err
		}

		for _, name := range u.ExportedEnumNames {
			b.Exported[name] = true
			b.KnownEnums[name] = true
		}
		for _, name := range u.ExportedDataNames {
			b.Exported[name] = true
			b.KnownData[name] = true
		}
	}

	return nil
}

// resolve is the second pass: imports and referenced types
func (a *analyzer) resolve(units []*unit.TranslationUnit) error {
	b := a.batch

	for _, u := range units {
		for i, module := range u.ImportedModules {
			if _, exists := b.Modules[module]; !exists {
				err := cerrors.NewUnresolvedImport(cerrors.Location{}, u.Label(), module)
				if hint := didYouMean(similar(module, a.moduleNames(u.Module))); hint != "" {
					err = err.WithSuggestion(hint)
				}
				return u.ImportOrigins[i].Error(err)
			}
		}

		visible := b.Exported
		if a.strict {
			visible = a.scope(u)
		}

		for i, name := range u.ImportedTypeNames {
			if !visible[name] {
				err := cerrors.NewUnresolvedType(cerrors.Location{}, u.Label(), name)
				if a.strict && b.Exported[name] {
					err = err.WithSuggestion("The type is exported by a module this file does not import")
				} else if hint := didYouMean(similar(name, visible)); hint != "" {
					err = err.WithSuggestion(hint)
				}
				return u.TypeOrigins[i].Error(err)
			}
		}
	}

	return nil
}

// moduleNames lists the registered modules other than except
func (a *analyzer) moduleNames(except string) map[string]bool {
	names := make(map[string]bool, len(a.batch.Modules))
	for name := range a.batch.Modules {
		if name != except {
			names[name] = true
		}
	}
	return names
}

// scope is the set of names visible to u under strict imports
func (a *analyzer) scope(u *unit.TranslationUnit) map[string]bool {
	visible := make(map[string]bool)
	for _, name := range u.Exports() {
		visible[name] = true
	}
	for _, module := range u.ImportedModules {
		for _, name := range a.batch.Modules[module].Exports() {
			visible[name] = true
		}
	}
	return visible
}

// checkEnums rejects repeated value names inside one enumeration and warns
// about values sharing a number
func (a *analyzer) checkEnums(u *unit.TranslationUnit) error {
	for _, tree := range u.Trees() {
		for _, decl := range tree.Decls {
			enum, ok := decl.(*ast.Enumeration)
			if !ok {
				continue
			}
			if err := a.checkEnum(tree, enum); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *analyzer) checkEnum(tree *ast.Tree, enum *ast.Enumeration) error {
	names := make(map[string]bool)
	numbers := make(map[int64]string)

	for _, value := range enum.Values {
		origin := unit.Origin{Tree: tree, Loc: value.Loc}

		if names[value.Name] {
			err := cerrors.NewDuplicateEnumValue(cerrors.Location{}, tree.Source, enum.Name, value.Name)
			return origin.Error(err)
		}
		names[value.Name] = true

		previous, exists := numbers[value.Value]
		if !exists {
			numbers[value.Value] = value.Name
			continue
		}

		warning := cerrors.NewDuplicateEnumNumber(cerrors.Location{}, tree.Source, enum.Name, value.Name, previous, value.Value)
		a.batch.Warnings = append(a.batch.Warnings, origin.Error(warning))
		a.logger.Warn("enum values share a number",
			zap.String("file", tree.Source),
			zap.String("enum", enum.Name),
			zap.String("value", value.Name),
			zap.String("previous", previous),
			zap.Int64("number", value.Value))
	}
	return nil
}
