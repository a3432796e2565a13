package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectEvent waits for one event or fails the test.
func collectEvent(t *testing.T, w Watcher) FileEvent {
	t.Helper()
	select {
	case event, ok := <-w.Events():
		require.True(t, ok, "event channel closed unexpectedly")
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return FileEvent{}
	}
}

// drainFor collects events for a fixed window.
func drainFor(w Watcher, window time.Duration) []FileEvent {
	var events []FileEvent
	deadline := time.After(window)
	for {
		select {
		case event, ok := <-w.Events():
			if !ok {
				return events
			}
			events = append(events, event)
		case <-deadline:
			return events
		}
	}
}

func newStartedWatcher(t *testing.T, opts Options) *HybridWatcher {
	t.Helper()
	w, err := NewHybridWatcher(opts)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func TestHybridWatcherRequiresRoot(t *testing.T) {
	_, err := NewHybridWatcher(Options{})
	require.Error(t, err)
}

func TestHybridWatcherStartMissingDir(t *testing.T) {
	w, err := NewHybridWatcher(Options{Root: filepath.Join(t.TempDir(), "missing")})
	require.NoError(t, err)
	require.Error(t, w.Start())
	_ = w.Stop()
}

func TestHybridWatcherDetectsCreate(t *testing.T) {
	// Given a watcher on an empty directory
	dir := t.TempDir()
	w := newStartedWatcher(t, Options{Root: dir})

	// When a file is created
	path := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	// Then a create event with the absolute path and size arrives
	event := collectEvent(t, w)
	assert.Equal(t, path, event.Path)
	assert.Equal(t, OpCreate, event.Operation)
	assert.False(t, event.IsDir)
	assert.Equal(t, int64(5), event.Size)
}

func TestHybridWatcherDetectsModifyAndDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	w := newStartedWatcher(t, Options{Root: dir})

	require.NoError(t, os.WriteFile(path, []byte("version two"), 0o644))
	event := collectEvent(t, w)
	assert.Equal(t, path, event.Path)
	assert.Contains(t, []Operation{OpModify, OpCreate}, event.Operation)

	require.NoError(t, os.Remove(path))
	deadline := time.After(3 * time.Second)
	for {
		select {
		case event := <-w.Events():
			if event.Operation == OpDelete {
				assert.Equal(t, path, event.Path)
				assert.Zero(t, event.Size)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for delete event")
		}
	}
}

func TestHybridWatcherRecursiveNewDirectory(t *testing.T) {
	// Given a recursive watcher
	dir := t.TempDir()
	w := newStartedWatcher(t, Options{Root: dir, Recursive: true})

	// When a subdirectory appears and a file lands inside it
	sub := filepath.Join(dir, "incoming")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Give the watcher a moment to add the new watch point.
	time.Sleep(200 * time.Millisecond)
	path := filepath.Join(sub, "nested.txt")
	require.NoError(t, os.WriteFile(path, []byte("deep"), 0o644))

	// Then the nested file event is delivered; the directory itself is not
	events := drainFor(w, 2*time.Second)
	var sawNested, sawDir bool
	for _, event := range events {
		if event.Path == path {
			sawNested = true
		}
		if event.Path == sub {
			sawDir = true
		}
	}
	assert.True(t, sawNested, "expected event for nested file")
	assert.False(t, sawDir, "directory events must be suppressed")
}

func TestHybridWatcherNonRecursiveIgnoresSubdir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	w := newStartedWatcher(t, Options{Root: dir})

	require.NoError(t, os.WriteFile(filepath.Join(sub, "hidden.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seen.txt"), []byte("x"), 0o644))

	events := drainFor(w, 2*time.Second)
	for _, event := range events {
		assert.NotContains(t, event.Path, "hidden.txt")
	}
}

func TestHybridWatcherIgnoreGlobs(t *testing.T) {
	dir := t.TempDir()
	w := newStartedWatcher(t, Options{
		Root:      dir,
		Recursive: true,
		Ignore:    []string{"*.tmp", "build"},
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "build"), 0o755))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build", "out.bin"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kept.txt"), []byte("x"), 0o644))

	events := drainFor(w, 2*time.Second)
	var sawKept bool
	for _, event := range events {
		assert.NotContains(t, event.Path, "scratch.tmp")
		assert.NotContains(t, event.Path, "out.bin")
		if filepath.Base(event.Path) == "kept.txt" {
			sawKept = true
		}
	}
	assert.True(t, sawKept, "expected event for kept.txt")
}

func TestHybridWatcherOversizeRejected(t *testing.T) {
	dir := t.TempDir()
	w := newStartedWatcher(t, Options{Root: dir, MaxFileSize: 10})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.bin"), make([]byte, 64), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "small.txt"), []byte("ok"), 0o644))

	events := drainFor(w, 2*time.Second)
	var sawSmall bool
	for _, event := range events {
		assert.NotEqual(t, "big.bin", filepath.Base(event.Path))
		if filepath.Base(event.Path) == "small.txt" {
			sawSmall = true
		}
	}
	assert.True(t, sawSmall, "expected event for small.txt")
}

func TestHybridWatcherStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := NewHybridWatcher(Options{Root: dir})
	require.NoError(t, err)
	require.NoError(t, w.Start())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.False(t, w.IsHealthy())

	// Channels are closed after stop
	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestHybridWatcherType(t *testing.T) {
	dir := t.TempDir()
	w := newStartedWatcher(t, Options{Root: dir})
	assert.Contains(t, []string{"fsnotify", "polling"}, w.WatcherType())
	assert.Equal(t, dir, w.RootPath())
}
