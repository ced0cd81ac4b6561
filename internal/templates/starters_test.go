package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/flatmessage/flatmsg/internal/compiler/document"
	"github.com/flatmessage/flatmsg/internal/compiler/driver"
)

// compileStarter scaffolds tmpl with its defaults and compiles the example
// schema with the settings the starter asks for
func compileStarter(t *testing.T, tmpl *Template) string {
	t.Helper()

	fs := afero.NewMemMapFs()
	if _, err := NewEngine(fs).Execute(tmpl, tmpl.NewContext(), "/project", false); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	storage, err := document.NewStorage(tmpl.Settings.Dialect, nil)
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}

	opts := driver.DefaultOptions()
	opts.OutputDir = "/project/out"
	opts.Extension = tmpl.Settings.Extension
	opts.Engine = tmpl.Settings.Engine
	opts.Storage = storage
	opts.VerifySQL = tmpl.Settings.VerifySQL

	compiler := driver.New(opts, driver.WithFS(fs))
	_, err = compiler.Compile(context.Background(), []driver.Input{{
		SourcePath:   "/project/" + SchemaPath,
		TemplatePath: "/project/" + tmpl.Settings.Template,
	}})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	out, err := afero.ReadFile(fs, "/project/out/shapes."+tmpl.Settings.Extension)
	if err != nil {
		t.Fatalf("missing output: %v", err)
	}
	return string(out)
}

func assertContains(t *testing.T, out string, expected ...string) {
	t.Helper()
	for _, exp := range expected {
		if !strings.Contains(out, exp) {
			t.Errorf("output missing %q:\n%s", exp, out)
		}
	}
}

func TestCppStarter(t *testing.T) {
	out := compileStarter(t, NewCppTemplate())

	assertContains(t, out,
		"// Generated by flatmsgc from /project/schema/shapes.fmsg. Do not edit.",
		"namespace shapes {",
		"enum class Color : std::uint8_t {\n    Red = 0,\n    Green = 1,\n    Blue = 2,\n};",
		"struct Point {\n    std::int32_t x;\n    std::int32_t y;\n};",
		"    std::uint32_t id;",
		"    Color color;",
		"    std::vector<Point> points;",
		"    std::optional<std::string> label;",
		"    double scale = 1.0;",
	)
}

func TestSQLStarter(t *testing.T) {
	out := compileStarter(t, NewSQLTemplate())

	assertContains(t, out,
		"CREATE TABLE color_values (\n    value SMALLINT PRIMARY KEY,\n    name TEXT NOT NULL\n);",
		"INSERT INTO color_values (value, name) VALUES (2, 'Blue');",
		"CREATE TABLE points (\n    x INTEGER NOT NULL,\n    y INTEGER NOT NULL\n);",
		"CREATE TABLE draw (",
		"    id BIGINT NOT NULL,",
		"    color INTEGER NOT NULL,",
		"    points TEXT NOT NULL,",
		"    label TEXT,",
		"    scale REAL NOT NULL DEFAULT 1.0\n);",
	)
}

func TestDocsStarter(t *testing.T) {
	out := compileStarter(t, NewLuaDocsTemplate())

	assertContains(t, out,
		"# Module demo.shapes",
		"Protocol: **Shapes**",
		"## enum Color",
		"| Red | 0 |",
		"## data Point",
		"| x | int32 |",
		"## message Draw",
		"| points | Point | repeated |",
	)
}

func TestStarterModuleVariable(t *testing.T) {
	tmpl := NewCppTemplate()
	ctx := tmpl.NewContext()
	ctx.Variables["module"] = "geo.figures"
	ctx.Variables["protocol"] = ""

	fs := afero.NewMemMapFs()
	if _, err := NewEngine(fs).Execute(tmpl, ctx, "/p", false); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	schema, _ := afero.ReadFile(fs, "/p/"+SchemaPath)
	if !strings.HasPrefix(string(schema), "module geo.figures;\n\nenum Color") {
		t.Errorf("unexpected schema header %q", schema)
	}
}
