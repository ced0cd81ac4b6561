package render

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultEngine is the engine used when none is configured
const DefaultEngine = "go"

// Registry manages the available template engines
type Registry struct {
	engines map[string]Engine
	mutex   sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		engines: make(map[string]Engine),
	}
}

// Register adds an engine under its name
func (r *Registry) Register(engine Engine) error {
	if engine == nil || engine.Name() == "" {
		return fmt.Errorf("engine name is required")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.engines[engine.Name()]; exists {
		return fmt.Errorf("engine %s already registered", engine.Name())
	}

	r.engines[engine.Name()] = engine
	return nil
}

// Get retrieves an engine by name
func (r *Registry) Get(name string) (Engine, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	engine, exists := r.engines[name]
	if !exists {
		return nil, fmt.Errorf("template engine %s not found", name)
	}

	return engine, nil
}

// Names returns the registered engine names in sorted order
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(NewGoEngine())
	_ = r.Register(NewLuaEngine())
	return r
}

// DefaultRegistry returns the registry holding the built-in engines
func DefaultRegistry() *Registry {
	return defaultRegistry
}
