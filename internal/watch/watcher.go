// Package watch recompiles schemas when their sources or templates change.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

// DefaultDelay is how long the debouncer waits for further changes
const DefaultDelay = 100 * time.Millisecond

// FileWatcher monitors directories and reports changed files in batches
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	dirs      []string
	trees     []string
	patterns  []glob.Glob
	ignored   []glob.Glob
	onChange  func([]string) error
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// Config configures a FileWatcher
type Config struct {
	Dirs     []string // Directories to watch, without their subdirectories
	Trees    []string // Directories to watch together with every non-hidden subdirectory
	Patterns []string // Base-name globs of interesting files; empty matches all
	Ignored  []string // Base-name globs of files to skip
	Delay    time.Duration
	Logger   *zap.Logger
}

// NewFileWatcher creates a watcher calling onChange with each batch of
// changed files
func NewFileWatcher(cfg Config, onChange func([]string) error) (*FileWatcher, error) {
	patterns, err := compileGlobs(cfg.Patterns)
	if err != nil {
		return nil, err
	}
	ignored, err := compileGlobs(cfg.Ignored)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	delay := cfg.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fw := &FileWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(delay),
		dirs:      uniqueDirs(cfg.Dirs),
		trees:     uniqueDirs(cfg.Trees),
		patterns:  patterns,
		ignored:   ignored,
		onChange:  onChange,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}

	fw.debouncer.SetCallback(func(files []string) {
		if err := fw.onChange(files); err != nil {
			fw.logger.Warn("handling file changes failed", zap.Error(err))
		}
	})

	return fw, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid watch pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func uniqueDirs(dirs []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			dir = "."
		}
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			result = append(result, dir)
		}
	}
	sort.Strings(result)
	return result
}

// Dirs returns the configured directories and trees
func (fw *FileWatcher) Dirs() []string {
	return uniqueDirs(append(append([]string(nil), fw.dirs...), fw.trees...))
}

// Start begins watching the file system
func (fw *FileWatcher) Start() error {
	for _, dir := range fw.dirs {
		if err := fw.add(dir); err != nil {
			return err
		}
	}
	for _, dir := range fw.trees {
		if err := fw.addTree(dir); err != nil {
			return err
		}
	}

	fw.wg.Add(1)
	go fw.watch()

	return nil
}

func (fw *FileWatcher) add(dir string) error {
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	fw.logger.Debug("watching directory", zap.String("dir", dir))
	return nil
}

// addTree watches root and its subdirectories, skipping hidden ones the
// same way include discovery does
func (fw *FileWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if base := d.Name(); path != root && len(base) > 1 && base[0] == '.' {
			return filepath.SkipDir
		}
		return fw.add(path)
	})
}

// inTree reports whether dir lies inside one of the watched trees
func (fw *FileWatcher) inTree(dir string) bool {
	for _, root := range fw.trees {
		rel, err := filepath.Rel(root, dir)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Stop stops the file watcher. Further calls are no-ops.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		close(fw.stopChan)
		fw.wg.Wait()
		fw.debouncer.Stop()
		err = fw.watcher.Close()
	})
	return err
}

// watch is the main event loop
func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if fw.shouldIgnore(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 && fw.inTree(filepath.Dir(event.Name)) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addTree(event.Name); err != nil {
						fw.logger.Warn("watching new directory failed", zap.Error(err))
					}
					continue
				}
			}

			// Editors that save atomically rename a temp file over the target
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				if fw.matchesPattern(event.Name) {
					fw.logger.Debug("file changed",
						zap.String("file", event.Name),
						zap.String("op", event.Op.String()))
					fw.debouncer.Add(event.Name)
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watcher error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

// shouldIgnore checks if a file path should be ignored
func (fw *FileWatcher) shouldIgnore(path string) bool {
	baseName := filepath.Base(path)
	if strings.HasPrefix(baseName, ".") || strings.HasSuffix(baseName, "~") {
		return true
	}

	for _, g := range fw.ignored {
		if g.Match(baseName) {
			return true
		}
	}
	return false
}

// matchesPattern checks if a file matches any of the watch patterns
func (fw *FileWatcher) matchesPattern(path string) bool {
	if len(fw.patterns) == 0 {
		return true
	}

	baseName := filepath.Base(path)
	for _, g := range fw.patterns {
		if g.Match(baseName) {
			return true
		}
	}
	return false
}

// Debouncer collects file changes and triggers callbacks after a delay
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopped  bool
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
	}
}

// Add records a changed file and restarts the delay
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	d.files[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush triggers the callback with the accumulated files, sorted
func (d *Debouncer) flush() {
	d.mutex.Lock()
	if len(d.files) == 0 || d.stopped {
		d.mutex.Unlock()
		return
	}

	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	sort.Strings(files)
	d.files = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	// outside the lock so the callback may take as long as a rebuild does
	if callback != nil {
		callback(files)
	}
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop cancels a pending flush
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
}
