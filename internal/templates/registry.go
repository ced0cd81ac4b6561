package templates

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages available starter templates
type Registry struct {
	templates map[string]*Template
	mutex     sync.RWMutex
}

// NewRegistry creates a new template registry
func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]*Template),
	}
}

// Register registers a template in the registry
func (r *Registry) Register(tmpl *Template) error {
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.templates[tmpl.Name]; exists {
		return fmt.Errorf("template %s already registered", tmpl.Name)
	}

	r.templates[tmpl.Name] = tmpl
	return nil
}

// Get retrieves a template by name
func (r *Registry) Get(name string) (*Template, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tmpl, exists := r.templates[name]
	if !exists {
		return nil, fmt.Errorf("template %s not found", name)
	}

	return tmpl, nil
}

// List returns all registered templates sorted by name
func (r *Registry) List() []*Template {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	templates := make([]*Template, 0, len(r.templates))
	for _, tmpl := range r.templates {
		templates = append(templates, tmpl)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})

	return templates
}

// Names returns the registered template names, sorted
func (r *Registry) Names() []string {
	list := r.List()
	names := make([]string, len(list))
	for i, tmpl := range list {
		names[i] = tmpl.Name
	}
	return names
}

var (
	builtinOnce     sync.Once
	builtinRegistry *Registry
)

// Builtin returns the registry of built-in starters
func Builtin() *Registry {
	builtinOnce.Do(func() {
		builtinRegistry = NewRegistry()
		for _, tmpl := range []*Template{NewCppTemplate(), NewSQLTemplate(), NewLuaDocsTemplate()} {
			if err := builtinRegistry.Register(tmpl); err != nil {
				panic(fmt.Sprintf("templates: failed to register %s: %v", tmpl.Name, err))
			}
		}
	})
	return builtinRegistry
}
