// Package driver runs a compilation: it parses the inputs, pulls in the
// include-directory modules they import, analyzes the batch and renders
// each unit through its template.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flatmessage/flatmsg/internal/compiler/analyzer"
	"github.com/flatmessage/flatmsg/internal/compiler/cache"
	"github.com/flatmessage/flatmsg/internal/compiler/document"
	cerrors "github.com/flatmessage/flatmsg/internal/compiler/errors"
	"github.com/flatmessage/flatmsg/internal/compiler/render"
	"github.com/flatmessage/flatmsg/internal/compiler/unit"
	"github.com/flatmessage/flatmsg/internal/sqlcheck"
)

// Options configures a compilation
type Options struct {
	OutputDir       string
	Extension       string
	Merge           bool
	IncludeDirs     []string
	IncludePatterns []string
	Threads         int
	Engine          string
	Storage         *document.Storage
	StrictImports   bool
	VerifySQL       bool
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		OutputDir:       "generated",
		Extension:       "txt",
		IncludePatterns: []string{"*.fmsg", "*.fmdata"},
		Threads:         1,
		Engine:          render.DefaultEngine,
		Storage:         document.DefaultStorage(),
	}
}

// Input pairs a schema file with the template it is rendered through
type Input struct {
	SourcePath   string
	TemplatePath string
}

// Output describes one generated file
type Output struct {
	Unit  *unit.TranslationUnit
	Path  string
	Bytes int
}

// Result contains information about a compilation
type Result struct {
	Units    []*unit.TranslationUnit
	Batch    *analyzer.Batch
	Outputs  []Output
	Duration time.Duration
	Warnings cerrors.ErrorList
}

// Verifier checks rendered SQL
type Verifier interface {
	Verify(ctx context.Context, ddl string) error
}

// Option configures a Compiler's collaborators
type Option func(*Compiler)

// WithFS performs all file I/O through fs
func WithFS(fs afero.Fs) Option {
	return func(c *Compiler) {
		c.fs = fs
	}
}

// WithLogger logs compilation stages to logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCache reuses parsed trees across compilations
func WithCache(astCache *cache.ASTCache) Option {
	return func(c *Compiler) {
		c.cache = astCache
	}
}

// WithVerifier checks rendered output when VerifySQL is set. Without it an
// in-memory SQLite verifier is used.
func WithVerifier(verifier Verifier) Option {
	return func(c *Compiler) {
		c.verifier = verifier
	}
}

// Compiler coordinates the compilation stages.
// A Compiler may be reused for several compilations but not concurrently.
type Compiler struct {
	opts        Options
	fs          afero.Fs
	logger      *zap.Logger
	cache       *cache.ASTCache
	coordinator *cache.Coordinator
	verifier    Verifier
}

// New creates a compiler. Without WithFS it works on the OS file system.
func New(opts Options, deps ...Option) *Compiler {
	c := &Compiler{
		opts:   opts,
		fs:     afero.NewOsFs(),
		logger: zap.NewNop(),
	}
	for _, dep := range deps {
		dep(c)
	}
	if c.opts.Threads < 1 {
		c.opts.Threads = 1
	}
	if c.opts.Extension == "" {
		c.opts.Extension = "txt"
	}
	if len(c.opts.IncludePatterns) == 0 {
		c.opts.IncludePatterns = []string{"*.fmsg", "*.fmdata"}
	}
	if c.opts.VerifySQL && c.verifier == nil {
		c.verifier = sqlcheck.New(sqlcheck.WithLogger(c.logger))
	}
	c.coordinator = cache.NewCoordinator(c.fs, c.cache)
	return c
}

// Coordinator exposes the parse coordinator, e.g. for cache invalidation
func (c *Compiler) Coordinator() *cache.Coordinator {
	return c.coordinator
}

// Check parses and analyzes inputs without rendering anything
func (c *Compiler) Check(ctx context.Context, inputs []Input) (*Result, error) {
	start := time.Now()
	logger := c.logger.With(zap.String("run_id", uuid.NewString()))

	units, batch, err := c.analyze(ctx, logger, inputs)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Units:    units,
		Batch:    batch,
		Duration: time.Since(start),
		Warnings: batch.Warnings,
	}
	logger.Info("check finished",
		zap.Int("units", len(units)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// Compile runs every stage and writes one output per non-include unit
func (c *Compiler) Compile(ctx context.Context, inputs []Input) (*Result, error) {
	start := time.Now()
	logger := c.logger.With(zap.String("run_id", uuid.NewString()))

	units, batch, err := c.analyze(ctx, logger, inputs)
	if err != nil {
		return nil, err
	}

	targets := make([]*unit.TranslationUnit, 0, len(units))
	for _, u := range units {
		if !u.IncludeOnly {
			targets = append(targets, u)
		}
	}

	genStart := time.Now()
	rendered, err := c.generate(ctx, targets, batch)
	if err != nil {
		return nil, err
	}
	logger.Debug("generated outputs",
		zap.Int("units", len(targets)),
		zap.Duration("duration", time.Since(genStart)))

	outputs, err := c.write(targets, rendered)
	if err != nil {
		return nil, err
	}
	for _, out := range outputs {
		logger.Debug("wrote output", zap.String("file", out.Path), zap.Int("bytes", out.Bytes))
	}

	result := &Result{
		Units:    units,
		Batch:    batch,
		Outputs:  outputs,
		Duration: time.Since(start),
		Warnings: batch.Warnings,
	}
	logger.Info("compilation finished",
		zap.Int("units", len(units)),
		zap.Int("outputs", len(outputs)),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// analyze runs parsing, include discovery, merging and semantic analysis
func (c *Compiler) analyze(ctx context.Context, logger *zap.Logger, inputs []Input) ([]*unit.TranslationUnit, *analyzer.Batch, error) {
	if len(inputs) == 0 {
		return nil, nil, fmt.Errorf("no input files")
	}

	paths := make([]string, len(inputs))
	for i, in := range inputs {
		paths[i] = in.SourcePath
	}

	parseStart := time.Now()
	parsed, err := c.coordinator.ParseFiles(ctx, paths, c.opts.Threads)
	if err != nil {
		return nil, nil, err
	}
	metrics := c.coordinator.GetMetrics()
	logger.Debug("parsed inputs",
		zap.Int("files", metrics.TotalFiles),
		zap.Int("cache_hits", metrics.CacheHits),
		zap.Float64("cache_hit_rate", metrics.CacheHitRate()),
		zap.Duration("duration", time.Since(parseStart)))

	units := make([]*unit.TranslationUnit, 0, len(inputs))
	for i, res := range parsed {
		u, err := unit.Build(res.Tree)
		if err != nil {
			return nil, nil, err
		}
		u.SourcePath = inputs[i].SourcePath
		u.TemplatePath = inputs[i].TemplatePath
		units = append(units, u)
	}

	if c.opts.Merge && len(units) > 1 {
		units = []*unit.TranslationUnit{unit.Merge(units)}
		logger.Debug("merged inputs", zap.Int("files", len(inputs)))
	}

	includes, err := c.includes(ctx, logger, units, paths)
	if err != nil {
		return nil, nil, err
	}
	units = append(units, includes...)

	opts := []analyzer.Option{analyzer.WithLogger(logger)}
	if c.opts.StrictImports {
		opts = append(opts, analyzer.WithStrictImports())
	}
	batch, err := analyzer.Analyze(units, opts...)
	if err != nil {
		return nil, nil, err
	}
	return units, batch, nil
}

// includes parses the include directories and returns, as include-only
// units, the files whose modules the inputs import directly or transitively
func (c *Compiler) includes(ctx context.Context, logger *zap.Logger, units []*unit.TranslationUnit, inputPaths []string) ([]*unit.TranslationUnit, error) {
	if len(c.opts.IncludeDirs) == 0 {
		return nil, nil
	}

	skip := make(map[string]bool, len(inputPaths))
	for _, p := range inputPaths {
		skip[filepath.Clean(p)] = true
	}

	var files []string
	for _, dir := range c.opts.IncludeDirs {
		found, err := Discover(c.fs, dir, c.opts.IncludePatterns)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !skip[filepath.Clean(f)] {
				skip[filepath.Clean(f)] = true
				files = append(files, f)
			}
		}
	}
	if len(files) == 0 {
		return nil, nil
	}

	parsed, err := c.coordinator.ParseFiles(ctx, files, c.opts.Threads)
	if err != nil {
		return nil, err
	}

	graph := cache.NewDependencyGraph()
	declared := make(map[string]bool)
	var roots []string
	for _, u := range units {
		if u.Module != "" {
			declared[u.Module] = true
			graph.AddModule(u.Module, u.SourcePath)
			for _, imported := range u.ImportedModules {
				graph.AddImport(u.Module, imported)
			}
		}
		roots = append(roots, u.ImportedModules...)
	}
	modules := make([]string, len(parsed))
	for i, res := range parsed {
		modules[i] = graph.BuildDependencies(res.Path, res.Tree)
	}

	needed := make(map[string]bool)
	for _, module := range graph.GetTransitiveImports(roots...) {
		needed[module] = true
	}

	var result []*unit.TranslationUnit
	for i, res := range parsed {
		module := modules[i]
		if declared[module] {
			declaredIn, _ := graph.Path(module)
			logger.Debug("include file shadowed by input",
				zap.String("file", res.Path),
				zap.String("module", module),
				zap.String("declared_in", declaredIn))
			continue
		}
		if module == "" || !needed[module] {
			continue
		}
		u, err := unit.Build(res.Tree)
		if err != nil {
			return nil, err
		}
		u.SourcePath = res.Path
		u.IncludeOnly = true
		result = append(result, u)
	}

	logger.Debug("resolved include directories",
		zap.Int("files", len(files)),
		zap.Int("modules", graph.Size()),
		zap.Int("units", len(result)))
	return result, nil
}

type rendered struct {
	text string
	path string
}

// generate renders targets in parallel; results keep the order of targets
func (c *Compiler) generate(ctx context.Context, targets []*unit.TranslationUnit, batch *analyzer.Batch) ([]rendered, error) {
	results := make([]rendered, len(targets))
	errs := make([]error, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Threads)

	for i, u := range targets {
		i, u := i, u
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = c.generateUnit(ctx, u, batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (c *Compiler) generateUnit(ctx context.Context, u *unit.TranslationUnit, batch *analyzer.Batch) (rendered, error) {
	if u.TemplatePath == "" {
		return rendered{}, cerrors.NewTemplateLoad("", fmt.Errorf("no template given for %s", u.Label()))
	}
	source, err := afero.ReadFile(c.fs, u.TemplatePath)
	if err != nil {
		return rendered{}, cerrors.NewTemplateLoad(u.TemplatePath, err)
	}

	doc := document.Project(u.Tree, document.WithStorage(c.opts.Storage))
	opts := []render.Option{render.WithTemplateName(u.TemplatePath)}
	if c.opts.Engine != "" {
		opts = append(opts, render.WithEngineName(c.opts.Engine))
	}
	text, err := render.Render(doc, string(source), batch.KnownEnums, batch.KnownData, opts...)
	if err != nil {
		return rendered{}, err
	}

	path := c.outputPath(u)
	if c.opts.VerifySQL {
		if err := c.verifier.Verify(ctx, text); err != nil {
			return rendered{}, cerrors.NewSQLVerify(path, err)
		}
	}
	return rendered{text: text, path: path}, nil
}

// write stores rendered outputs in order once every render succeeded
func (c *Compiler) write(targets []*unit.TranslationUnit, results []rendered) ([]Output, error) {
	outputs := make([]Output, 0, len(results))
	for i, res := range results {
		dir := filepath.Dir(res.path)
		if err := c.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, cerrors.NewIOError(dir, "create directory", err)
		}
		if err := afero.WriteFile(c.fs, res.path, []byte(res.text), 0o644); err != nil {
			return nil, cerrors.NewIOError(res.path, "write", err)
		}
		outputs = append(outputs, Output{Unit: targets[i], Path: res.path, Bytes: len(res.text)})
	}
	return outputs, nil
}

// outputPath is <OutputDir>/<source stem>.<Extension>
func (c *Compiler) outputPath(u *unit.TranslationUnit) string {
	base := filepath.Base(u.SourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(os.PathSeparator) {
		stem = "out"
	}
	return filepath.Join(c.opts.OutputDir, stem+"."+strings.TrimPrefix(c.opts.Extension, "."))
}
