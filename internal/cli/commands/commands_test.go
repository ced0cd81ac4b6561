package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatmessage/flatmsg/internal/cli/config"
	"github.com/flatmessage/flatmsg/internal/format"
)

const (
	pointSchema = `module demo;

enum Color : byte {
    Red = 0,
    Green = 1,
}

data Point {
    int32 x;
    int32 y;
}
`
	listTemplate = "{{.moduleName}}:{{range .enums}} {{.name}}{{end}}{{range .data}} {{.name}}{{end}}\n"
)

// chdir switches to a fresh temporary directory for the rest of the test
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// run executes the root command with args and returns what it printed
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	oldNoColor := color.NoColor
	t.Cleanup(func() { color.NoColor = oldNoColor })

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "flatmsgc", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"version", "compile", "check", "fmt", "inspect", "watch", "init"} {
		assert.Contains(t, names, expected)
	}

	for _, flag := range []string{"config", "no-color", "json", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "missing --%s", flag)
	}
}

func TestVersionCommand(t *testing.T) {
	oldVersion := Version
	Version = "1.0.0-test"
	t.Cleanup(func() { Version = oldVersion })

	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "flatmsgc version: 1.0.0-test")
	assert.Contains(t, stdout, "Go version:")
}

func TestCompileCommand(t *testing.T) {
	chdir(t)
	writeFile(t, "a.fmsg", pointSchema)
	writeFile(t, "list.tmpl", listTemplate)

	stdout, _, err := run(t, "compile", "a.fmsg", "-t", "list.tmpl", "-o", "out")
	require.NoError(t, err)

	assert.Equal(t, "demo: Color Point\n", readFile(t, filepath.Join("out", "a.txt")))
	assert.Contains(t, stdout, "✓ Compiled 1 unit(s) into 1 file(s)")
	assert.Contains(t, stdout, "• out/a.txt")
}

func TestCompileCommandTemplatePairs(t *testing.T) {
	chdir(t)
	writeFile(t, "a.fmsg", pointSchema)
	writeFile(t, "b.fmsg", "module other;\nimport demo;\ndata Line { Point from; Point to; }\n")
	writeFile(t, "list.tmpl", listTemplate)
	writeFile(t, "count.tmpl", "{{len .data}}\n")

	_, _, err := run(t, "compile", "a.fmsg=list.tmpl", "b.fmsg=count.tmpl", "-o", "out", "-e", ".h")
	require.NoError(t, err)

	assert.Equal(t, "demo: Color Point\n", readFile(t, filepath.Join("out", "a.h")))
	assert.Equal(t, "1\n", readFile(t, filepath.Join("out", "b.h")))
}

func TestCompileCommandJSON(t *testing.T) {
	chdir(t)
	writeFile(t, "a.fmsg", pointSchema)
	writeFile(t, "list.tmpl", listTemplate)

	stdout, _, err := run(t, "--json", "compile", "a.fmsg", "-t", "list.tmpl", "-o", "out")
	require.NoError(t, err)

	var result struct {
		Success bool `json:"success"`
		Outputs []struct {
			Source string `json:"source"`
			Path   string `json:"path"`
			Bytes  int    `json:"bytes"`
		} `json:"outputs"`
		Warnings []any `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result), stdout)
	assert.True(t, result.Success)
	require.Len(t, result.Outputs, 1)
	assert.Equal(t, "a.fmsg", result.Outputs[0].Source)
	assert.Equal(t, filepath.Join("out", "a.txt"), result.Outputs[0].Path)
	assert.Equal(t, len("demo: Color Point\n"), result.Outputs[0].Bytes)
	assert.Empty(t, result.Warnings)
}

func TestCompileCommandSyntaxError(t *testing.T) {
	chdir(t)
	writeFile(t, "bad.fmsg", "data Foo { uint32 x }\n")
	writeFile(t, "list.tmpl", listTemplate)

	_, stderr, err := run(t, "compile", "bad.fmsg", "-t", "list.tmpl", "-o", "out")
	require.Error(t, err)

	var reported *reportedError
	assert.True(t, errors.As(err, &reported))
	assert.Contains(t, stderr, "SYNTAX ERROR")
	assert.Contains(t, stderr, "[SYN001]")
	assert.NoDirExists(t, "out")
}

func TestCompileCommandSyntaxErrorJSON(t *testing.T) {
	chdir(t)
	writeFile(t, "bad.fmsg", "data Foo { uint32 x }\n")
	writeFile(t, "list.tmpl", listTemplate)

	stdout, _, err := run(t, "--json", "compile", "bad.fmsg", "-t", "list.tmpl")
	require.Error(t, err)

	var result struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
			File string `json:"file"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result), stdout)
	assert.False(t, result.Success)
	assert.Equal(t, "SYN001", result.Error.Code)
	assert.Equal(t, "bad.fmsg", result.Error.File)
}

func TestCompileCommandUnresolvedType(t *testing.T) {
	chdir(t)
	writeFile(t, "a.fmsg", "module a;\ndata Path { Pont start; }\ndata Point { int32 x; }\n")
	writeFile(t, "list.tmpl", listTemplate)

	_, stderr, err := run(t, "compile", "a.fmsg", "-t", "list.tmpl", "-o", "out")
	require.Error(t, err)
	assert.Contains(t, stderr, "[SEM203]")
	assert.Contains(t, stderr, "Did you mean Point?")
}

func TestCompileCommandMissingTemplate(t *testing.T) {
	chdir(t)
	writeFile(t, "a.fmsg", pointSchema)

	_, stderr, err := run(t, "compile", "a.fmsg")
	require.Error(t, err)
	assert.Contains(t, stderr, "no template for a.fmsg")
}

func TestCompileCommandInvalidEngine(t *testing.T) {
	chdir(t)
	writeFile(t, "a.fmsg", pointSchema)

	_, stderr, err := run(t, "compile", "a.fmsg", "-t", "x.tmpl", "--engine", "jinja")
	require.Error(t, err)
	assert.Contains(t, stderr, "CONFIGURATION ERROR")
	assert.Contains(t, stderr, "jinja")
}

func TestCompileCommandUsesConfigFile(t *testing.T) {
	chdir(t)
	writeFile(t, "a.fmsg", pointSchema)
	writeFile(t, "templates/list.tmpl", listTemplate)
	writeFile(t, "flatmsg.yaml", "output_dir: gen\nextension: hpp\ntemplate: templates/list.tmpl\n")

	_, _, err := run(t, "compile", "a.fmsg")
	require.NoError(t, err)
	assert.Equal(t, "demo: Color Point\n", readFile(t, filepath.Join("gen", "a.hpp")))

	// flags win over the file
	_, _, err = run(t, "compile", "a.fmsg", "-o", "other")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join("other", "a.hpp"))
}

func TestCompileCommandBrokenConfigFile(t *testing.T) {
	chdir(t)
	writeFile(t, "a.fmsg", pointSchema)
	writeFile(t, "flatmsg.yaml", "threads: -2\n")

	_, stderr, err := run(t, "compile", "a.fmsg", "-t", "x.tmpl")
	require.Error(t, err)
	assert.Contains(t, stderr, "CONFIGURATION ERROR")
	assert.Contains(t, stderr, "flatmsgc init")
}

func TestCompileCommandIncludeDirectory(t *testing.T) {
	chdir(t)
	writeFile(t, "shared/geo.fmsg", "module geo;\ndata Point { int32 x; }\n")
	writeFile(t, "a.fmsg", "module a;\nimport geo;\ndata Path { repeated Point pts; }\n")
	writeFile(t, "list.tmpl", listTemplate)

	_, _, err := run(t, "compile", "a.fmsg", "-t", "list.tmpl", "-o", "out", "-I", "shared")
	require.NoError(t, err)

	assert.Equal(t, "a: Path\n", readFile(t, filepath.Join("out", "a.txt")))
	assert.NoFileExists(t, filepath.Join("out", "geo.txt"))
}

func TestCheckCommand(t *testing.T) {
	chdir(t)
	writeFile(t, "a.fmsg", "module demo;\nprotocol Demo;\nenum E : byte { X = 1, Y = 1, }\n")

	stdout, stderr, err := run(t, "check", "a.fmsg")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Source")
	assert.Contains(t, stdout, "a.fmsg")
	assert.Contains(t, stdout, "demo")
	assert.Contains(t, stdout, "Demo")
	assert.Contains(t, stdout, "✓ 1 unit(s) checked, 1 warning(s)")
	assert.Contains(t, stderr, "[SEM206]")
	assert.NoDirExists(t, "generated")
}

func TestCheckCommandJSON(t *testing.T) {
	chdir(t)
	writeFile(t, "shared/geo.fmsg", "module geo;\ndata Point { int32 x; }\n")
	writeFile(t, "a.fmsg", "module a;\nimport geo;\ndata Path { repeated Point pts; }\n")

	stdout, _, err := run(t, "--json", "check", "a.fmsg", "-I", "shared")
	require.NoError(t, err)

	var result struct {
		Success bool       `json:"success"`
		Units   []unitJSON `json:"units"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result), stdout)
	require.Len(t, result.Units, 2)
	assert.Equal(t, "a", result.Units[0].Module)
	assert.Equal(t, []string{"geo"}, result.Units[0].Imports)
	assert.Equal(t, "geo", result.Units[1].Module)
	assert.True(t, result.Units[1].IncludeOnly)
	assert.Equal(t, []string{"Point"}, result.Units[1].Exports)
}

func TestFormatCommand(t *testing.T) {
	chdir(t)
	writeFile(t, "schema/a.fmsg", "module   demo;\ndata P{int32 x;}\n")

	stdout, _, err := run(t, "fmt")
	require.NoError(t, err)
	assert.Contains(t, stdout, "--- a/schema/a.fmsg")
	assert.Contains(t, stdout, "Run 'flatmsgc fmt --write' to apply changes")
	assert.Equal(t, "module   demo;\ndata P{int32 x;}\n", readFile(t, "schema/a.fmsg"), "preview must not write")

	_, stderr, err := run(t, "fmt", "--check", "schema")
	require.Error(t, err)
	assert.Contains(t, stderr, "schema/a.fmsg needs formatting")

	stdout, _, err = run(t, "fmt", "--write", "schema/a.fmsg")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ schema/a.fmsg formatted")

	_, _, err = run(t, "fmt", "--check")
	assert.NoError(t, err)
}

func TestFormatCommandErrors(t *testing.T) {
	chdir(t)

	_, _, err := run(t, "fmt", "missing.fmsg")
	assert.Error(t, err)

	_, _, err = run(t, "fmt")
	assert.Error(t, err, "an empty directory has nothing to format")

	writeFile(t, "bad.fmsg", "data {")
	_, stderr, err := run(t, "fmt", "bad.fmsg")
	require.Error(t, err)
	assert.Contains(t, stderr, "[SYN001]")
}

func TestInspectCommand(t *testing.T) {
	chdir(t)
	writeFile(t, "a.fmsg", pointSchema)

	stdout, _, err := run(t, "inspect", "a.fmsg")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc), stdout)
	assert.Equal(t, "demo", doc["moduleName"])
	assert.Equal(t, "sql", doc["storageDialect"])
	assert.Len(t, doc["enums"], 1)

	_, _, err = run(t, "inspect", "a.fmsg", "--format", "yaml", "-o", "doc.yaml")
	require.NoError(t, err)
	assert.Contains(t, readFile(t, "doc.yaml"), "moduleName: demo")

	_, _, err = run(t, "inspect", "a.fmsg", "--format", "toml")
	assert.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	chdir(t)

	stdout, _, err := run(t, "init", "proj", "--template", "sql", "--module", "geo.shapes", "--yes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Created sql starter in proj")

	assert.FileExists(t, filepath.Join("proj", "schema", "shapes.fmsg"))
	assert.FileExists(t, filepath.Join("proj", "templates", "sql.tmpl"))
	assert.Contains(t, readFile(t, filepath.Join("proj", "schema", "shapes.fmsg")), "module geo.shapes;")

	cfg, err := config.Load(filepath.Join("proj", "flatmsg.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sql", cfg.Extension)
	assert.Equal(t, "templates/sql.tmpl", cfg.Template)
	assert.True(t, cfg.VerifySQL)

	style, err := format.LoadConfig(afero.NewOsFs(), filepath.Join("proj", format.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, format.DefaultConfig(), style)
	assert.Contains(t, stdout, format.ConfigFileName)

	// a second run refuses to overwrite the project
	_, stderr, err := run(t, "init", "proj", "--template", "sql", "--yes")
	require.Error(t, err)
	assert.Contains(t, stderr, "already exists")

	_, _, err = run(t, "init", "proj", "--template", "cpp", "--yes", "--force")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join("proj", "templates", "cpp.tmpl"))
}

func TestInitCommandThenCompile(t *testing.T) {
	root := chdir(t)

	_, _, err := run(t, "init", "proj", "--template", "sql", "--yes")
	require.NoError(t, err)

	require.NoError(t, os.Chdir(filepath.Join(root, "proj")))
	_, stderr, err := run(t, "compile", "schema/shapes.fmsg")
	require.NoError(t, err, stderr)

	assert.Contains(t, readFile(t, filepath.Join("generated", "shapes.sql")), "CREATE TABLE points (")
}

func TestInitCommandRejectsBadInput(t *testing.T) {
	chdir(t)

	_, _, err := run(t, "init", "--template", "cobol", "--yes")
	assert.Error(t, err)

	_, stderr, err := run(t, "init", "--template", "cpp", "--module", "not a module", "--yes")
	require.Error(t, err)
	assert.Contains(t, stderr, "invalid module name")
	assert.NoFileExists(t, "flatmsg.yaml")
}

// cancelOnWrite cancels once the output contains marker
type cancelOnWrite struct {
	bytes.Buffer
	marker string
	cancel context.CancelFunc
}

func (w *cancelOnWrite) Write(p []byte) (int, error) {
	n, err := w.Buffer.Write(p)
	if bytes.Contains(w.Bytes(), []byte(w.marker)) {
		w.cancel()
	}
	return n, err
}

func TestWatchCommandInitialBuild(t *testing.T) {
	chdir(t)
	writeFile(t, "a.fmsg", pointSchema)
	writeFile(t, "list.tmpl", listTemplate)

	oldNoColor := color.NoColor
	t.Cleanup(func() { color.NoColor = oldNoColor })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stdout := &cancelOnWrite{marker: "Watching", cancel: cancel}

	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--no-color", "watch", "a.fmsg", "-t", "list.tmpl", "-o", "out"})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.NotEqual(t, context.DeadlineExceeded, ctx.Err(), "watch did not start")

	assert.Contains(t, stdout.String(), "Built 1 file(s)")
	assert.Contains(t, stdout.String(), "Watching 1 director(ies)")
	assert.Equal(t, "demo: Color Point\n", readFile(t, filepath.Join("out", "a.txt")))
}

func TestWatchCommandRequiresTemplate(t *testing.T) {
	chdir(t)
	writeFile(t, "a.fmsg", pointSchema)

	_, _, err := run(t, "watch", "a.fmsg")
	assert.Error(t, err)
}

func TestParseInputs(t *testing.T) {
	inputs, err := parseInputs([]string{"a.fmsg", "b.fmsg=b.tmpl"}, "default.tmpl", true)
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "default.tmpl", inputs[0].TemplatePath)
	assert.Equal(t, "b.tmpl", inputs[1].TemplatePath)

	_, err = parseInputs([]string{"=x.tmpl"}, "", true)
	assert.Error(t, err)

	inputs, err = parseInputs([]string{"a.fmsg"}, "", false)
	require.NoError(t, err)
	assert.Empty(t, inputs[0].TemplatePath)
}
