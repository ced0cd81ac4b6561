package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/flatmessage/flatmsg/internal/compiler/ast"
)

type cacheEntry struct {
	tree   *ast.Tree
	hash   string
	usedAt time.Time
}

// ASTCache keeps parsed trees between compilations, keyed by file path. A
// tree is handed out again only while the file's content hash matches the
// one it was parsed from.
type ASTCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	now     func() time.Time
}

// NewASTCache creates an empty cache
func NewASTCache() *ASTCache {
	return &ASTCache{
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

// Lookup returns the tree stored for path if it was parsed from content
// with the given hash. An entry with another hash is stale and dropped.
func (ac *ASTCache) Lookup(path, hash string) (*ast.Tree, bool) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	e, ok := ac.entries[path]
	if !ok {
		return nil, false
	}
	if e.hash != hash {
		delete(ac.entries, path)
		return nil, false
	}
	e.usedAt = ac.now()
	return e.tree, true
}

// Store records the tree parsed from path, replacing any older entry
func (ac *ASTCache) Store(path string, tree *ast.Tree, hash string) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	ac.entries[path] = &cacheEntry{tree: tree, hash: hash, usedAt: ac.now()}
}

// Invalidate removes the entry of path
func (ac *ASTCache) Invalidate(path string) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	delete(ac.entries, path)
}

// Len returns the number of cached trees
func (ac *ASTCache) Len() int {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	return len(ac.entries)
}

// Paths returns the cached paths in sorted order
func (ac *ASTCache) Paths() []string {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	paths := make([]string, 0, len(ac.entries))
	for path := range ac.entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// PruneUnused drops every entry neither stored nor looked up since t and
// returns the dropped paths in sorted order. Files that left the batch,
// e.g. deleted include files, disappear this way.
func (ac *ASTCache) PruneUnused(t time.Time) []string {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	var pruned []string
	for path, e := range ac.entries {
		if e.usedAt.Before(t) {
			delete(ac.entries, path)
			pruned = append(pruned, path)
		}
	}
	sort.Strings(pruned)
	return pruned
}
