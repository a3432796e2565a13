package watcher

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// HybridWatcher implements the Watcher interface using fsnotify as the
// primary watching mechanism with polling as a fallback.
type HybridWatcher struct {
	fsWatcher   *fsnotify.Watcher
	pollWatcher *PollingWatcher
	useFsnotify bool
	events      chan FileEvent
	errors      chan error
	stopCh      chan struct{}
	rootPath    string
	opts        Options
	mu          sync.RWMutex
	stopped     bool
	dropped     atomic.Uint64
}

var _ Watcher = (*HybridWatcher)(nil)

// NewHybridWatcher creates a new hybrid watcher with the given options.
// Attempts to use fsnotify first, falls back to polling if it fails.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()
	if opts.Root == "" {
		return nil, fmt.Errorf("watcher root must not be empty")
	}

	h := &HybridWatcher{
		events: make(chan FileEvent, opts.EventBufferSize),
		errors: make(chan error, 10),
		stopCh: make(chan struct{}),
		opts:   opts,
	}

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		h.fsWatcher = fsw
		h.useFsnotify = true
	} else {
		// Fall back to polling
		h.useFsnotify = false
		h.pollWatcher = NewPollingWatcher(opts)
	}

	return h, nil
}

// Start begins watching the configured root directory.
func (h *HybridWatcher) Start() error {
	absPath, err := filepath.Abs(h.opts.Root)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	if info, err := os.Stat(absPath); err != nil || !info.IsDir() {
		return fmt.Errorf("watch root is not a directory: %s", absPath)
	}
	h.rootPath = absPath

	if h.useFsnotify {
		return h.startFsnotify()
	}
	return h.startPolling()
}

// startFsnotify adds the watch points and spawns the event loop.
func (h *HybridWatcher) startFsnotify() error {
	if h.opts.Recursive {
		if err := h.addRecursive(h.rootPath); err != nil {
			return fmt.Errorf("add directories to watcher: %w", err)
		}
	} else {
		if err := h.fsWatcher.Add(h.rootPath); err != nil {
			return fmt.Errorf("add directory to watcher: %w", err)
		}
	}

	go h.runFsnotify()
	return nil
}

func (h *HybridWatcher) runFsnotify() {
	for {
		select {
		case <-h.stopCh:
			return
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return
			}
			h.emitError(err)
		}
	}
}

// startPolling starts the polling-based watcher and forwards its events
// through the same rejection filters as the fsnotify path.
func (h *HybridWatcher) startPolling() error {
	go func() {
		for {
			select {
			case <-h.stopCh:
				return
			case event, ok := <-h.pollWatcher.Events():
				if !ok {
					return
				}
				h.emitFiltered(event)
			case err, ok := <-h.pollWatcher.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	return h.pollWatcher.Start(h.rootPath)
}

// handleFsnotifyEvent converts and filters fsnotify events.
func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	isDir := false
	var size int64
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
		size = info.Size()
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		// Track new directories so files created inside them are seen.
		if isDir && h.opts.Recursive && !h.ignored(event.Name) {
			_ = h.fsWatcher.Add(event.Name)
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	case event.Op&fsnotify.Chmod != 0:
		// Ignore chmod events
		return
	default:
		return
	}

	h.emitFiltered(FileEvent{
		Path:      event.Name,
		Operation: op,
		IsDir:     isDir,
		Size:      size,
		Timestamp: time.Now(),
	})
}

// emitFiltered applies the rejection filters and forwards the event.
// Directories, ignored paths, vanished files and oversize files are
// all dropped here so downstream only ever sees notifiable changes.
func (h *HybridWatcher) emitFiltered(event FileEvent) {
	if event.IsDir {
		return
	}
	if h.ignored(event.Path) {
		return
	}

	if event.Operation == OpCreate || event.Operation == OpModify {
		info, err := os.Stat(event.Path)
		if err != nil {
			// Vanished between the event and now; nothing to report.
			return
		}
		if info.IsDir() {
			return
		}
		event.Size = info.Size()
		if h.opts.MaxFileSize > 0 && event.Size > h.opts.MaxFileSize {
			slog.Warn("skipping oversize file",
				slog.String("path", event.Path),
				slog.Int64("size", event.Size),
				slog.Int64("limit", h.opts.MaxFileSize))
			return
		}
	} else {
		event.Size = 0
	}

	h.emitEvent(event)
}

// ignored reports whether the path matches one of the ignore globs.
// Patterns are matched against the slash-separated path relative to
// the watch root.
func (h *HybridWatcher) ignored(path string) bool {
	if len(h.opts.Ignore) == 0 {
		return false
	}

	relPath, err := filepath.Rel(h.rootPath, path)
	if err != nil || relPath == "." {
		return false
	}
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range h.opts.Ignore {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
		// A pattern matching a parent directory covers everything below it.
		if ok, _ := doublestar.Match(pattern+"/**", relPath); ok {
			return true
		}
	}
	return false
}

// addRecursive adds all directories under root to the fsnotify watcher.
func (h *HybridWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}

		if !d.IsDir() {
			return nil
		}

		if path != root && h.ignored(path) {
			return filepath.SkipDir
		}

		return h.fsWatcher.Add(path)
	})
}

// emitEvent sends an event to the output channel without blocking the
// watch loop. Drops are counted rather than stalling event delivery.
func (h *HybridWatcher) emitEvent(event FileEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return
	}

	select {
	case h.events <- event:
	default:
		count := h.dropped.Add(1)
		slog.Warn("event buffer full, dropping event",
			slog.String("path", event.Path),
			slog.Uint64("total_dropped", count),
		)
	}
}

// DroppedEvents returns the number of events dropped due to buffer overflow.
func (h *HybridWatcher) DroppedEvents() uint64 {
	return h.dropped.Load()
}

// emitError sends an error to the error channel.
func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		return
	}

	select {
	case h.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}

	h.stopped = true
	close(h.stopCh)

	if h.useFsnotify && h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}

	close(h.events)
	close(h.errors)
	return nil
}

// Events returns the channel of accepted file events.
func (h *HybridWatcher) Events() <-chan FileEvent {
	return h.events
}

// Errors returns the channel of errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// IsHealthy returns true if the watcher is running and hasn't stopped.
func (h *HybridWatcher) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.stopped
}

// WatcherType returns the watch mechanism in use ("fsnotify" or "polling").
func (h *HybridWatcher) WatcherType() string {
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}

// RootPath returns the root path being watched.
func (h *HybridWatcher) RootPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rootPath
}
