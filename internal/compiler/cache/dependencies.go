package cache

import (
	"sync"

	"github.com/flatmessage/flatmsg/internal/compiler/ast"
)

// ModuleDependency is one module and its import edges
type ModuleDependency struct {
	Module  string   // The module name
	Path    string   // File declaring the module (empty if only imported so far)
	Imports []string // Modules this module imports
}

// DependencyGraph tracks import relationships between modules
type DependencyGraph struct {
	nodes map[string]*ModuleDependency
	mu    sync.RWMutex
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[string]*ModuleDependency),
	}
}

func (dg *DependencyGraph) node(module string) *ModuleDependency {
	n, exists := dg.nodes[module]
	if !exists {
		n = &ModuleDependency{
			Module:  module,
			Imports: make([]string, 0),
		}
		dg.nodes[module] = n
	}
	return n
}

// AddModule registers a module declared in path. The first file to declare
// a module stays its path.
func (dg *DependencyGraph) AddModule(module, path string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	if n := dg.node(module); n.Path == "" {
		n.Path = path
	}
}

// AddImport records that from imports to
func (dg *DependencyGraph) AddImport(from, to string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	f := dg.node(from)
	dg.node(to)
	if !contains(f.Imports, to) {
		f.Imports = append(f.Imports, to)
	}
}

// Path returns the file declaring module, if known
func (dg *DependencyGraph) Path(module string) (string, bool) {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	if n, exists := dg.nodes[module]; exists && n.Path != "" {
		return n.Path, true
	}
	return "", false
}

// GetTransitiveImports returns every module reachable from roots through
// imports, roots included, in breadth-first discovery order
func (dg *DependencyGraph) GetTransitiveImports(roots ...string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	visited := make(map[string]bool)
	result := make([]string, 0)
	queue := append([]string(nil), roots...)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		result = append(result, current)

		if n, exists := dg.nodes[current]; exists {
			queue = append(queue, n.Imports...)
		}
	}
	return result
}

// Size returns the number of modules in the graph
func (dg *DependencyGraph) Size() int {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	return len(dg.nodes)
}

// BuildDependencies registers the module declared in tree together with its
// imports and returns the module name. Trees without a module declaration
// are not added and yield "".
func (dg *DependencyGraph) BuildDependencies(path string, tree *ast.Tree) string {
	var module string
	var imports []string

	for _, decl := range tree.Decls {
		switch d := decl.(type) {
		case *ast.ModuleDecl:
			if module == "" {
				module = d.Name
			}
		case *ast.ImportDecl:
			imports = append(imports, d.Name)
		}
	}

	if module == "" {
		return ""
	}

	dg.AddModule(module, path)
	for _, imported := range imports {
		dg.AddImport(module, imported)
	}
	return module
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
