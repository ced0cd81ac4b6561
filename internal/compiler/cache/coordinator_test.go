package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"

	cerrors "github.com/flatmessage/flatmsg/internal/compiler/errors"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

func TestCoordinator_ParseFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/user.fmdata", `data User { string name; }`)
	writeFile(t, fs, "/post.fmsg", `message Post { User author; }`)

	coordinator := NewCoordinator(fs, NewASTCache())

	results, err := coordinator.ParseFiles(context.Background(), []string{"/user.fmdata", "/post.fmsg"}, 1)
	if err != nil {
		t.Fatalf("ParseFiles() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Path != "/user.fmdata" || results[1].Path != "/post.fmsg" {
		t.Errorf("results are out of order: %s, %s", results[0].Path, results[1].Path)
	}
	if results[0].Tree.Source != "/user.fmdata" {
		t.Errorf("tree source = %q", results[0].Tree.Source)
	}

	metrics := coordinator.GetMetrics()
	if metrics.CacheMisses != 2 || metrics.CacheHits != 0 || metrics.FilesParsed != 2 {
		t.Errorf("unexpected first-run metrics %+v", metrics)
	}
}

func TestCoordinator_CacheHitsAndInvalidation(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/a.fmdata", `data A { int32 x; }`)

	coordinator := NewCoordinator(fs, NewASTCache())
	ctx := context.Background()

	first, err := coordinator.ParseFiles(ctx, []string{"/a.fmdata"}, 1)
	if err != nil {
		t.Fatal(err)
	}

	second, err := coordinator.ParseFiles(ctx, []string{"/a.fmdata"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !second[0].Cached {
		t.Error("second parse should be served from the cache")
	}
	if second[0].Tree != first[0].Tree {
		t.Error("cached result should reuse the parsed tree")
	}
	if rate := coordinator.GetMetrics().CacheHitRate(); rate != 100.0 {
		t.Errorf("CacheHitRate() = %v, want 100", rate)
	}

	// A content change misses even though the path is cached
	writeFile(t, fs, "/a.fmdata", `data A { int64 x; }`)
	third, err := coordinator.ParseFiles(ctx, []string{"/a.fmdata"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if third[0].Cached {
		t.Error("changed file should be parsed again")
	}

	coordinator.InvalidateFile("/a.fmdata")
	fourth, err := coordinator.ParseFiles(ctx, []string{"/a.fmdata"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if fourth[0].Cached {
		t.Error("invalidated file should be parsed again")
	}
}

func TestCoordinator_PruneUnused(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/a.fmdata", `data A { int32 x; }`)
	writeFile(t, fs, "/b.fmdata", `data B { int32 x; }`)

	coordinator := NewCoordinator(fs, NewASTCache())
	ctx := context.Background()
	if _, err := coordinator.ParseFiles(ctx, []string{"/a.fmdata", "/b.fmdata"}, 1); err != nil {
		t.Fatal(err)
	}

	time.Sleep(time.Millisecond)
	start := time.Now()
	if _, err := coordinator.ParseFiles(ctx, []string{"/a.fmdata"}, 1); err != nil {
		t.Fatal(err)
	}

	if pruned := coordinator.PruneUnused(start); len(pruned) != 1 || pruned[0] != "/b.fmdata" {
		t.Errorf("PruneUnused() = %v, want [/b.fmdata]", pruned)
	}
	if pruned := NewCoordinator(fs, nil).PruneUnused(start); pruned != nil {
		t.Errorf("PruneUnused() without cache = %v", pruned)
	}
}

func TestCoordinator_WithoutCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/a.fmdata", `data A { int32 x; }`)

	coordinator := NewCoordinator(fs, nil)
	for i := 0; i < 2; i++ {
		results, err := coordinator.ParseFiles(context.Background(), []string{"/a.fmdata"}, 1)
		if err != nil {
			t.Fatal(err)
		}
		if results[0].Cached {
			t.Error("nothing should be cached without a cache")
		}
	}
}

func TestCoordinator_ParallelKeepsOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	var paths []string
	for i := 0; i < 16; i++ {
		path := fmt.Sprintf("/f%02d.fmdata", i)
		writeFile(t, fs, path, fmt.Sprintf("data D%d { int32 v; }", i))
		paths = append(paths, path)
	}

	results, err := NewCoordinator(fs, NewASTCache()).ParseFiles(context.Background(), paths, 4)
	if err != nil {
		t.Fatalf("ParseFiles() error = %v", err)
	}
	for i, result := range results {
		if result.Path != paths[i] {
			t.Errorf("result %d has path %s, want %s", i, result.Path, paths[i])
		}
	}
}

func TestCoordinator_FirstErrorByInputOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/ok.fmdata", `data A { int32 x; }`)
	writeFile(t, fs, "/bad1.fmdata", `data B { `)
	writeFile(t, fs, "/bad2.fmdata", `data C int32`)

	_, err := NewCoordinator(fs, nil).ParseFiles(context.Background(),
		[]string{"/ok.fmdata", "/bad1.fmdata", "/bad2.fmdata"}, 3)
	if err == nil {
		t.Fatal("expected a parse error")
	}

	compilerErr, ok := cerrors.As(err)
	if !ok {
		t.Fatalf("expected *CompilerError, got %T", err)
	}
	if compilerErr.File != "/bad1.fmdata" {
		t.Errorf("error file = %s, want /bad1.fmdata", compilerErr.File)
	}
}

func TestCoordinator_MissingFile(t *testing.T) {
	_, err := NewCoordinator(afero.NewMemMapFs(), nil).ParseFile("/missing.fmsg")
	if !cerrors.Is(err, cerrors.ErrIO) {
		t.Errorf("expected IO error, got %v", err)
	}
}
