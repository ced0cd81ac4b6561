package cache

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/flatmessage/flatmsg/internal/compiler/ast"
	cerrors "github.com/flatmessage/flatmsg/internal/compiler/errors"
	"github.com/flatmessage/flatmsg/internal/compiler/parser"
)

// ParseMetrics tracks performance metrics for a parse run
type ParseMetrics struct {
	TotalFiles    int
	CacheHits     int
	CacheMisses   int
	FilesParsed   int
	ParseDuration time.Duration
	TotalDuration time.Duration
}

// CacheHitRate returns the cache hit rate as a percentage
func (pm *ParseMetrics) CacheHitRate() float64 {
	if pm.TotalFiles == 0 {
		return 0.0
	}
	return float64(pm.CacheHits) / float64(pm.TotalFiles) * 100.0
}

// ParseResult represents the result of parsing a single file
type ParseResult struct {
	Path   string
	Tree   *ast.Tree
	Hash   string
	Cached bool
}

// Coordinator parses source files, reusing cached trees whose content hash
// is unchanged
type Coordinator struct {
	fs      afero.Fs
	cache   *ASTCache
	metrics *ParseMetrics
	mu      sync.Mutex
}

// NewCoordinator creates a coordinator reading through fs. A nil cache
// disables caching.
func NewCoordinator(fs afero.Fs, cache *ASTCache) *Coordinator {
	return &Coordinator{
		fs:      fs,
		cache:   cache,
		metrics: &ParseMetrics{},
	}
}

// ParseFiles parses paths with at most threads files in flight. Results
// keep the order of paths; when several files fail, the error of the
// earliest path is returned.
func (c *Coordinator) ParseFiles(ctx context.Context, paths []string, threads int) ([]*ParseResult, error) {
	start := time.Now()
	c.mu.Lock()
	c.metrics = &ParseMetrics{TotalFiles: len(paths)}
	c.mu.Unlock()

	results := make([]*ParseResult, len(paths))
	errs := make([]error, len(paths))

	if threads < 1 {
		threads = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = c.ParseFile(path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.metrics.TotalDuration = time.Since(start)
	c.mu.Unlock()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ParseFile parses a single file, consulting the cache first
func (c *Coordinator) ParseFile(path string) (*ParseResult, error) {
	content, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, cerrors.NewIOError(path, "read", err)
	}
	hash := HashContent(content)

	if c.cache != nil {
		if tree, ok := c.cache.Lookup(path, hash); ok {
			c.record(func(m *ParseMetrics) { m.CacheHits++ })
			return &ParseResult{Path: path, Tree: tree, Hash: hash, Cached: true}, nil
		}
	}

	parseStart := time.Now()
	tree, err := parser.Parse(string(content), path)
	elapsed := time.Since(parseStart)

	c.record(func(m *ParseMetrics) {
		m.CacheMisses++
		m.FilesParsed++
		m.ParseDuration += elapsed
	})

	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Store(path, tree, hash)
	}

	return &ParseResult{Path: path, Tree: tree, Hash: hash}, nil
}

func (c *Coordinator) record(update func(*ParseMetrics)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	update(c.metrics)
}

// InvalidateFile drops the cached tree of path
func (c *Coordinator) InvalidateFile(path string) {
	if c.cache != nil {
		c.cache.Invalidate(path)
	}
}

// PruneUnused drops cached trees of files not parsed since t, see
// ASTCache.PruneUnused
func (c *Coordinator) PruneUnused(t time.Time) []string {
	if c.cache == nil {
		return nil
	}
	return c.cache.PruneUnused(t)
}

// GetMetrics returns a copy of the metrics of the last run
func (c *Coordinator) GetMetrics() *ParseMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	metrics := *c.metrics
	return &metrics
}
