package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"

	cerrors "github.com/flatmessage/flatmsg/internal/compiler/errors"
)

// Discover walks dir and returns the files whose base name matches one of
// patterns, in lexical walk order. Hidden directories are skipped.
func Discover(fs afero.Fs, dir string, patterns []string) ([]string, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}

	var files []string
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(path)
		if info.IsDir() {
			if path != dir && len(base) > 1 && base[0] == '.' {
				return filepath.SkipDir
			}
			return nil
		}
		for _, g := range globs {
			if g.Match(base) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, cerrors.NewIOError(dir, "scan include directory", err)
	}
	return files, nil
}
