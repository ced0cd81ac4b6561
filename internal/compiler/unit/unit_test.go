package unit

import (
	"reflect"
	"testing"

	"github.com/flatmessage/flatmsg/internal/compiler/ast"
	cerrors "github.com/flatmessage/flatmsg/internal/compiler/errors"
	"github.com/flatmessage/flatmsg/internal/compiler/parser"
)

func build(t *testing.T, source, label string) *TranslationUnit {
	t.Helper()
	tree, err := parser.Parse(source, label)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	u, err := Build(tree)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return u
}

func TestBuildSimpleData(t *testing.T) {
	u := build(t, `data Foo { uint32 x; }`, "foo.fmdata")

	if !reflect.DeepEqual(u.ExportedDataNames, []string{"Foo"}) {
		t.Errorf("Expected exports [Foo], got %v", u.ExportedDataNames)
	}
	if len(u.ImportedTypeNames) != 0 {
		t.Errorf("Expected no imported types, got %v", u.ImportedTypeNames)
	}
	if len(u.ImportedModules) != 0 || u.Module != "" {
		t.Errorf("Expected no module information, got %q %v", u.Module, u.ImportedModules)
	}
	if u.SourcePath != "foo.fmdata" {
		t.Errorf("Expected source path foo.fmdata, got %s", u.SourcePath)
	}
}

func TestBuildMetadata(t *testing.T) {
	u := build(t, `module shop.order;
import shop.user;
import shop.money;
protocol Orders;

enum Status : byte { Open = 0, Closed = 1, }
enum Status : byte { Again = 0, }

data Line { Price price; uint16 count; Status status; }

message PlaceOrder {
    User customer;
    repeated Line lines;
    Price total;
    optional Coupon coupon;
}`, "order.fmsg")

	if u.Module != "shop.order" {
		t.Errorf("Expected module shop.order, got %s", u.Module)
	}
	if u.Protocol != "Orders" {
		t.Errorf("Expected protocol Orders, got %s", u.Protocol)
	}
	if !reflect.DeepEqual(u.ImportedModules, []string{"shop.user", "shop.money"}) {
		t.Errorf("Unexpected imports %v", u.ImportedModules)
	}
	if len(u.ImportOrigins) != 2 || u.ImportOrigins[1].Loc.Line != 3 {
		t.Errorf("Unexpected import origins %+v", u.ImportOrigins)
	}
	if !reflect.DeepEqual(u.ExportedEnumNames, []string{"Status"}) {
		t.Errorf("Enum exports should be deduplicated, got %v", u.ExportedEnumNames)
	}
	if !reflect.DeepEqual(u.ExportedDataNames, []string{"Line"}) {
		t.Errorf("Messages must not export names, got %v", u.ExportedDataNames)
	}
	if !reflect.DeepEqual(u.ImportedTypeNames, []string{"Price", "User", "Coupon"}) {
		t.Errorf("Unexpected imported types %v", u.ImportedTypeNames)
	}
	if u.TypeOrigins[1].Loc.Line != 12 {
		t.Errorf("Expected User to be first used on line 12, got %d", u.TypeOrigins[1].Loc.Line)
	}
	if !reflect.DeepEqual(u.Exports(), []string{"Status", "Line"}) {
		t.Errorf("Unexpected exports %v", u.Exports())
	}
}

func TestBuildBuiltinEnumNameIsNotExported(t *testing.T) {
	u := build(t, `enum byte : byte { A = 1, }`, "b.fmsg")
	if len(u.ExportedEnumNames) != 0 {
		t.Errorf("Built-in names must not be exported, got %v", u.ExportedEnumNames)
	}
}

func TestBuildForwardReference(t *testing.T) {
	// A type used before its local declaration is still recorded as imported;
	// resolution happens in the analyzer
	u := build(t, `message M { Later l; } data Later { int8 v; }`, "f.fmsg")
	if !reflect.DeepEqual(u.ImportedTypeNames, []string{"Later"}) {
		t.Errorf("Unexpected imported types %v", u.ImportedTypeNames)
	}
	if !reflect.DeepEqual(u.ExportedDataNames, []string{"Later"}) {
		t.Errorf("Unexpected exports %v", u.ExportedDataNames)
	}
}

func TestBuildDuplicateModule(t *testing.T) {
	tests := []struct {
		name   string
		source string
		line   int
	}{
		{"module", "module a;\nmodule b;", 2},
		{"protocol", "protocol P;\ndata X { int8 v; }\nprotocol Q;", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := parser.Parse(tt.source, "dup.fmsg")
			if err != nil {
				t.Fatal(err)
			}
			_, err = Build(tree)
			if !cerrors.Is(err, cerrors.ErrDuplicateDeclaration) {
				t.Fatalf("Expected SEM204, got %v", err)
			}
			compilerErr, _ := cerrors.As(err)
			if compilerErr.Location.Line != tt.line {
				t.Errorf("Expected line %d, got %d", tt.line, compilerErr.Location.Line)
			}
			if compilerErr.File != "dup.fmsg" {
				t.Errorf("Expected file dup.fmsg, got %s", compilerErr.File)
			}
		})
	}
}

func TestOriginError(t *testing.T) {
	u := build(t, "data A {\n    Missing m;\n}", "a.fmdata")

	err := u.TypeOrigins[0].Error(cerrors.NewUnresolvedType(cerrors.Location{}, "", "Missing"))
	if err.File != "a.fmdata" {
		t.Errorf("Expected file a.fmdata, got %s", err.File)
	}
	if err.Location.Line != 2 || err.Location.Column != 5 {
		t.Errorf("Expected 2:5, got %d:%d", err.Location.Line, err.Location.Column)
	}
	if err.Context == nil || err.Context.Current != "    Missing m;" {
		t.Errorf("Expected source excerpt, got %+v", err.Context)
	}
}

func TestLabel(t *testing.T) {
	if got := (&TranslationUnit{SourcePath: "x.fmsg"}).Label(); got != "x.fmsg" {
		t.Errorf("Label() = %s", got)
	}
	if got := (&TranslationUnit{Module: "m"}).Label(); got != "m" {
		t.Errorf("Label() = %s", got)
	}
	if got := (&TranslationUnit{Tree: &ast.Tree{}}).Label(); got != "<source>" {
		t.Errorf("Label() = %s", got)
	}
}
