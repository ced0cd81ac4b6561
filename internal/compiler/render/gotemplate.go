package render

import (
	"bytes"
	"text/template"

	"github.com/flatmessage/flatmsg/internal/compiler/document"
)

// GoEngine renders text/template templates
type GoEngine struct{}

// NewGoEngine creates the text/template engine
func NewGoEngine() *GoEngine {
	return &GoEngine{}
}

// Name implements Engine
func (e *GoEngine) Name() string { return "go" }

// Render implements Engine. The document is the template's dot.
func (e *GoEngine) Render(doc document.Map, source string, helpers *Helpers) (string, error) {
	tmpl, err := template.New("template").
		Funcs(goFuncs(helpers)).
		Option("missingkey=zero").
		Parse(source)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, doc); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func goFuncs(h *Helpers) template.FuncMap {
	return template.FuncMap{
		"hasAnnotation":          h.HasAnnotation,
		"annotationValue":        h.AnnotationValue,
		"hasSpecifier":           h.HasSpecifier,
		"isUserDefined":          h.IsUserDefined,
		"isUserDefinedData":      h.IsUserDefinedData,
		"getAnnotationsWithName": h.GetAnnotationsWithName,
		"storageType":            h.StorageType,
		"upper":                  h.Upper,
		"lower":                  h.Lower,
		"title":                  h.Title,
		"snake":                  h.Snake,
		"join":                   h.Join,
		"default":                h.Default,
	}
}
