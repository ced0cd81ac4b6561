// Package render feeds projected documents through template engines. The
// Engine interface is the boundary: an engine receives a document, the
// template source and the helper functions, and returns the rendered text.
package render

import (
	"fmt"

	"github.com/flatmessage/flatmsg/internal/compiler/document"
	cerrors "github.com/flatmessage/flatmsg/internal/compiler/errors"
)

// Engine renders a template against a document
type Engine interface {
	Name() string
	Render(doc document.Map, source string, helpers *Helpers) (string, error)
}

// Option configures a render call
type Option func(*options)

type options struct {
	engine       Engine
	engineName   string
	templateName string
	registry     *Registry
}

// WithEngine renders with engine
func WithEngine(engine Engine) Option {
	return func(o *options) {
		o.engine = engine
	}
}

// WithEngineName renders with the registered engine called name
func WithEngineName(name string) Option {
	return func(o *options) {
		o.engineName = name
	}
}

// WithTemplateName names the template in errors, usually its path
func WithTemplateName(name string) Option {
	return func(o *options) {
		o.templateName = name
	}
}

// WithRegistry looks engine names up in registry instead of the default one
func WithRegistry(registry *Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// Render renders templateSource against doc. exportedEnumNames and
// exportedDataNames are the batch-wide export sets the type helpers
// consult.
func Render(doc document.Map, templateSource string, exportedEnumNames, exportedDataNames NameSet, opts ...Option) (string, error) {
	o := &options{
		engineName:   DefaultEngine,
		templateName: "<template>",
		registry:     DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(o)
	}

	engine := o.engine
	if engine == nil {
		var err error
		engine, err = o.registry.Get(o.engineName)
		if err != nil {
			return "", cerrors.NewTemplateRender(o.templateName, sourceOf(doc), err)
		}
	}

	helpers := NewHelpers(doc, exportedEnumNames, exportedDataNames)

	out, err := engine.Render(doc, templateSource, helpers)
	if err != nil {
		return "", cerrors.NewTemplateRender(o.templateName, sourceOf(doc), fmt.Errorf("%s engine: %w", engine.Name(), err))
	}
	return out, nil
}

func sourceOf(doc document.Map) string {
	s, _ := doc["source"].(string)
	return s
}
