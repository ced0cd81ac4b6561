package watch

import (
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestFileWatcher_Start(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "shapes.fmsg")
	if err := os.WriteFile(testFile, []byte("data A { int8 x; }"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	var mu sync.Mutex
	var changes [][]string

	watcher, err := NewFileWatcher(Config{
		Dirs:     []string{tmpDir},
		Patterns: []string{"*.fmsg"},
		Delay:    50 * time.Millisecond,
	}, func(files []string) error {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, files)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(testFile, []byte("data A { int8 y; }"), 0644); err != nil {
		t.Fatalf("Failed to modify file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(changes)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(changes) == 0 {
		t.Fatal("Expected changes to be detected")
	}
	for _, batch := range changes {
		for _, file := range batch {
			if filepath.Base(file) != "shapes.fmsg" {
				t.Errorf("Unexpected file reported: %s", file)
			}
		}
	}
}

func TestFileWatcher_Trees(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "geo", "base")
	hidden := filepath.Join(root, ".cache")
	for _, dir := range []string{nested, hidden} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	var mu sync.Mutex
	seen := make(map[string]bool)

	watcher, err := NewFileWatcher(Config{
		Trees:    []string{root},
		Patterns: []string{"*.fmdata"},
		Delay:    50 * time.Millisecond,
	}, func(files []string) error {
		mu.Lock()
		defer mu.Unlock()
		for _, f := range files {
			seen[filepath.Base(f)] = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	if got := watcher.Dirs(); !reflect.DeepEqual(got, []string{root}) {
		t.Errorf("Dirs() = %v, want [%s]", got, root)
	}

	wait := func(name string) bool {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			mu.Lock()
			ok := seen[name]
			mu.Unlock()
			if ok {
				return true
			}
			time.Sleep(20 * time.Millisecond)
		}
		return false
	}

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(nested, "point.fmdata"), []byte("data Point { int32 x; }"), 0644); err != nil {
		t.Fatal(err)
	}
	if !wait("point.fmdata") {
		t.Fatal("change in a nested directory was not reported")
	}

	// directories created after Start are picked up too
	added := filepath.Join(root, "color")
	if err := os.Mkdir(added, 0755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(added, "color.fmdata"), []byte("enum Color : byte { Red = 0, }"), 0644); err != nil {
		t.Fatal(err)
	}
	if !wait("color.fmdata") {
		t.Fatal("change in a new directory was not reported")
	}

	if err := os.WriteFile(filepath.Join(hidden, "stale.fmdata"), []byte("data {"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if seen["stale.fmdata"] {
		t.Error("hidden directories must not be watched")
	}
}

func TestNewFileWatcher_InvalidPattern(t *testing.T) {
	_, err := NewFileWatcher(Config{Patterns: []string{"[unclosed"}}, func([]string) error { return nil })
	if err == nil {
		t.Error("Expected error for invalid pattern")
	}
}

func TestDebouncer_Add(t *testing.T) {
	var mu sync.Mutex
	var called bool
	var files []string

	debouncer := NewDebouncer(50 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		called = true
		files = f
	})

	debouncer.Add("b.fmsg")
	debouncer.Add("a.fmsg")
	debouncer.Add("b.fmsg") // Duplicate

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if !called {
		t.Fatal("Expected callback to be called")
	}
	if !reflect.DeepEqual(files, []string{"a.fmsg", "b.fmsg"}) {
		t.Errorf("Expected sorted unique files, got %v", files)
	}
}

func TestDebouncer_MultipleFlushes(t *testing.T) {
	var mu sync.Mutex
	var callCount int

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	})

	debouncer.Add("a.fmsg")
	time.Sleep(80 * time.Millisecond)

	debouncer.Add("b.fmsg")
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if callCount != 2 {
		t.Errorf("Expected 2 callback calls, got %d", callCount)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	var mu sync.Mutex
	called := false

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		called = true
	})

	debouncer.Add("a.fmsg")
	debouncer.Stop()
	debouncer.Add("b.fmsg")
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if called {
		t.Error("Expected no callback after Stop")
	}
}

func TestFileWatcher_ShouldIgnore(t *testing.T) {
	watcher, err := NewFileWatcher(Config{Ignored: []string{"*.swp", "*.bak"}}, func([]string) error { return nil })
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	tests := []struct {
		path     string
		expected bool
	}{
		{"schemas/shapes.fmsg", false},
		{"schemas/shapes.fmsg.swp", true},
		{"old.bak", true},
		{"schemas/.shapes.fmsg", true}, // hidden file
		{"shapes.fmsg~", true},         // editor backup
		{"header.tmpl", false},
	}

	for _, tt := range tests {
		result := watcher.shouldIgnore(tt.path)
		if result != tt.expected {
			t.Errorf("shouldIgnore(%q) = %v, expected %v", tt.path, result, tt.expected)
		}
	}
}

func TestFileWatcher_MatchesPattern(t *testing.T) {
	tests := []struct {
		patterns []string
		path     string
		expected bool
	}{
		{[]string{"*.fmsg"}, "dir/test.fmsg", true},
		{[]string{"*.fmsg"}, "test.go", false},
		{[]string{"*.fmsg", "*.fmdata"}, "base.fmdata", true},
		{[]string{"*.{fmsg,fmdata}"}, "base.fmdata", true},
		{[]string{"header.tmpl"}, "tmpl/header.tmpl", true},
		{[]string{}, "anything.txt", true}, // No patterns = match all
	}

	for _, tt := range tests {
		watcher, err := NewFileWatcher(Config{Patterns: tt.patterns}, func([]string) error { return nil })
		if err != nil {
			t.Fatalf("Failed to create watcher: %v", err)
		}
		result := watcher.matchesPattern(tt.path)
		if result != tt.expected {
			t.Errorf("matchesPattern(%v, %q) = %v, expected %v",
				tt.patterns, tt.path, result, tt.expected)
		}
		watcher.Stop()
	}
}

func TestFileWatcher_Stop(t *testing.T) {
	watcher, err := NewFileWatcher(Config{Dirs: []string{t.TempDir()}}, func(files []string) error { return nil })
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}

	// Second stop is a no-op
	if err := watcher.Stop(); err != nil {
		t.Errorf("second Stop() returned error: %v", err)
	}
}

func TestUniqueDirs(t *testing.T) {
	got := uniqueDirs([]string{"b", "a/", "", "./a", "b"})
	want := []string{".", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("uniqueDirs = %v, expected %v", got, want)
	}
}

func BenchmarkDebouncer_Add(b *testing.B) {
	debouncer := NewDebouncer(100 * time.Millisecond)
	debouncer.SetCallback(func(files []string) {})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		debouncer.Add("file.fmsg")
	}
}
