// Package templates holds the starter projects `flatmsgc init` scaffolds:
// an example schema, a template for one output language and the compiler
// settings that go with it.
package templates

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"
)

// VariableType represents the type of template variable
type VariableType string

const (
	VariableTypeString VariableType = "string"
	VariableTypeSelect VariableType = "select"
)

// Template is a starter project
type Template struct {
	Name        string
	Description string
	Version     string
	Variables   []*TemplateVariable
	Files       []*TemplateFile
	Settings    Settings
}

// Settings are the compiler options a starter's template expects
type Settings struct {
	Engine    string
	Extension string
	Template  string // path of the template file, relative to the project
	Dialect   string
	VerifySQL bool
}

// TemplateVariable represents a configurable variable in a template
type TemplateVariable struct {
	Name     string
	Type     VariableType
	Default  string
	Required bool
	Options  []string
	Prompt   string
}

// TemplateFile represents a file in a template. Content is rendered with
// [[ ]] delimiters when Template is set, so {{ }} in generator templates
// passes through untouched.
type TemplateFile struct {
	TargetPath string
	Content    string
	Template   bool
}

// TemplateContext contains all data for template execution
type TemplateContext struct {
	Variables map[string]string
}

// NewContext returns a context holding every variable's default
func (t *Template) NewContext() *TemplateContext {
	ctx := &TemplateContext{Variables: make(map[string]string, len(t.Variables))}
	for _, v := range t.Variables {
		ctx.Variables[v.Name] = v.Default
	}
	return ctx
}

// Engine is the template rendering engine
type Engine struct {
	fs    afero.Fs
	funcs template.FuncMap
}

// NewEngine creates an engine writing through fs
func NewEngine(fs afero.Fs) *Engine {
	return &Engine{
		fs: fs,
		funcs: template.FuncMap{
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"title": func(s string) string {
				if s == "" {
					return s
				}
				return strings.ToUpper(s[:1]) + s[1:]
			},
			// last returns the final segment of a dotted module name
			"last": func(s string) string {
				return s[strings.LastIndex(s, ".")+1:]
			},
		},
	}
}

// Execute writes the files of tmpl below targetDir and returns their paths.
// Existing files are left alone unless overwrite is set.
func (e *Engine) Execute(tmpl *Template, ctx *TemplateContext, targetDir string, overwrite bool) ([]string, error) {
	if err := e.validateContext(tmpl, ctx); err != nil {
		return nil, fmt.Errorf("invalid template context: %w", err)
	}

	type pending struct {
		path    string
		content string
	}
	files := make([]pending, 0, len(tmpl.Files))

	for _, file := range tmpl.Files {
		targetPath, err := e.renderString(file.TargetPath, ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to render target path %s: %w", file.TargetPath, err)
		}
		fullPath, err := within(targetDir, targetPath)
		if err != nil {
			return nil, err
		}

		content := file.Content
		if file.Template {
			content, err = e.renderString(file.Content, ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to render template %s: %w", file.TargetPath, err)
			}
		}

		if !overwrite {
			if exists, _ := afero.Exists(e.fs, fullPath); exists {
				return nil, fmt.Errorf("%s already exists", fullPath)
			}
		}
		files = append(files, pending{fullPath, content})
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := e.fs.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return written, fmt.Errorf("failed to create parent directory for %s: %w", f.path, err)
		}
		if err := afero.WriteFile(e.fs, f.path, []byte(f.content), 0o644); err != nil {
			return written, fmt.Errorf("failed to write file %s: %w", f.path, err)
		}
		written = append(written, f.path)
	}
	return written, nil
}

// within joins targetPath to targetDir, rejecting paths that escape it
func within(targetDir, targetPath string) (string, error) {
	targetPath = filepath.Clean(targetPath)
	if filepath.IsAbs(targetPath) {
		return "", fmt.Errorf("invalid target path: %s attempts to write outside project directory", targetPath)
	}

	fullPath := filepath.Join(targetDir, targetPath)
	root := filepath.Clean(targetDir) + string(filepath.Separator)
	if !strings.HasPrefix(filepath.Clean(fullPath)+string(filepath.Separator), root) {
		return "", fmt.Errorf("invalid target path: %s attempts to write outside project directory", targetPath)
	}
	return fullPath, nil
}

func (e *Engine) renderString(tmplStr string, ctx *TemplateContext) (string, error) {
	tmpl, err := template.New("").Delims("[[", "]]").Funcs(e.funcs).Option("missingkey=error").Parse(tmplStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Engine) validateContext(tmpl *Template, ctx *TemplateContext) error {
	for _, v := range tmpl.Variables {
		value, ok := ctx.Variables[v.Name]
		if v.Required && (!ok || value == "") {
			return fmt.Errorf("required variable %s not provided", v.Name)
		}
		if v.Type == VariableTypeSelect && ok && !contains(v.Options, value) {
			return fmt.Errorf("variable %s must be one of %s", v.Name, strings.Join(v.Options, ", "))
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Validate validates a template structure
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if t.Version == "" {
		return fmt.Errorf("template version is required")
	}
	if len(t.Files) == 0 {
		return fmt.Errorf("template must have at least one file")
	}

	varNames := make(map[string]bool)
	for _, v := range t.Variables {
		if v.Name == "" {
			return fmt.Errorf("variable name is required")
		}
		if varNames[v.Name] {
			return fmt.Errorf("duplicate variable name: %s", v.Name)
		}
		varNames[v.Name] = true

		if v.Type == VariableTypeSelect && len(v.Options) == 0 {
			return fmt.Errorf("select variable %s must have options", v.Name)
		}
	}

	for _, f := range t.Files {
		if f.TargetPath == "" {
			return fmt.Errorf("file target path is required")
		}
		if f.Content == "" {
			return fmt.Errorf("file content is required for %s", f.TargetPath)
		}
	}

	if t.Settings.Template != "" && !t.hasFile(t.Settings.Template) {
		return fmt.Errorf("settings name template %s, which the starter does not create", t.Settings.Template)
	}
	return nil
}

func (t *Template) hasFile(path string) bool {
	for _, f := range t.Files {
		if filepath.Clean(f.TargetPath) == filepath.Clean(path) {
			return true
		}
	}
	return false
}

// SchemaFiles lists the target paths of the schema files a starter creates
func (t *Template) SchemaFiles() []string {
	var out []string
	for _, f := range t.Files {
		if ext := filepath.Ext(f.TargetPath); ext == ".fmsg" || ext == ".fmdata" {
			out = append(out, f.TargetPath)
		}
	}
	return out
}
