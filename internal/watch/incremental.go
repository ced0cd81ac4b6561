package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flatmessage/flatmsg/internal/compiler/driver"
)

// CompileResult holds the result of one rebuild
type CompileResult struct {
	Success      bool
	Err          error
	Duration     time.Duration
	ChangedFiles []string
	Outputs      []driver.Output
	// Dropped lists cached files that were no longer part of the build
	Dropped []string
}

// IncrementalCompiler recompiles a fixed set of inputs, reparsing only the
// files that changed since the last build
type IncrementalCompiler struct {
	compiler *driver.Compiler
	inputs   []driver.Input
	logger   *zap.Logger

	mu          sync.Mutex
	lastCompile time.Time
	builds      int
}

// NewIncrementalCompiler wraps compiler, which should be created with a
// parse cache so unchanged files are not parsed again
func NewIncrementalCompiler(compiler *driver.Compiler, inputs []driver.Input, logger *zap.Logger) *IncrementalCompiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IncrementalCompiler{
		compiler: compiler,
		inputs:   inputs,
		logger:   logger,
	}
}

// FullBuild compiles every input
func (ic *IncrementalCompiler) FullBuild(ctx context.Context) *CompileResult {
	return ic.build(ctx, nil)
}

// IncrementalBuild drops the cached trees of changedFiles and recompiles.
// Template changes need no invalidation since templates are read on every
// build.
func (ic *IncrementalCompiler) IncrementalBuild(ctx context.Context, changedFiles []string) *CompileResult {
	coordinator := ic.compiler.Coordinator()
	for _, file := range changedFiles {
		coordinator.InvalidateFile(file)
		if abs, err := filepath.Abs(file); err == nil && abs != file {
			coordinator.InvalidateFile(abs)
		}
	}
	return ic.build(ctx, changedFiles)
}

func (ic *IncrementalCompiler) build(ctx context.Context, changed []string) *CompileResult {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	start := time.Now()
	result := &CompileResult{ChangedFiles: changed}

	res, err := ic.compiler.Compile(ctx, ic.inputs)
	result.Duration = time.Since(start)
	ic.builds++

	if err != nil {
		result.Err = err
		ic.logger.Debug("rebuild failed",
			zap.Int("changed", len(changed)),
			zap.Duration("duration", result.Duration),
			zap.Error(err))
		return result
	}

	result.Success = true
	result.Outputs = res.Outputs
	result.Dropped = ic.compiler.Coordinator().PruneUnused(start)
	ic.lastCompile = time.Now()
	ic.logger.Debug("rebuild finished",
		zap.Int("changed", len(changed)),
		zap.Int("outputs", len(res.Outputs)),
		zap.Strings("dropped", result.Dropped),
		zap.Duration("duration", result.Duration))
	return result
}

// LastCompile returns the time of the last successful build
func (ic *IncrementalCompiler) LastCompile() time.Time {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.lastCompile
}

// Builds returns how many builds ran
func (ic *IncrementalCompiler) Builds() int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.builds
}

// WatchDirs returns the directories holding the inputs and their templates
func WatchDirs(inputs []driver.Input) []string {
	dirs := make([]string, 0, 2*len(inputs))
	for _, in := range inputs {
		dirs = append(dirs, filepath.Dir(in.SourcePath))
		if in.TemplatePath != "" {
			dirs = append(dirs, filepath.Dir(in.TemplatePath))
		}
	}
	return uniqueDirs(dirs)
}

// WatchPatterns returns globs matching the inputs' templates in addition
// to schemaPatterns
func WatchPatterns(inputs []driver.Input, schemaPatterns []string) []string {
	seen := make(map[string]bool)
	patterns := make([]string, 0, len(schemaPatterns)+len(inputs))
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			patterns = append(patterns, p)
		}
	}
	for _, p := range schemaPatterns {
		add(p)
	}
	for _, in := range inputs {
		if in.TemplatePath != "" {
			add(escapeGlob(filepath.Base(in.TemplatePath)))
		}
	}
	return patterns
}

func escapeGlob(name string) string {
	var out []rune
	for _, r := range name {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\', '!':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
