// Package watcher provides real-time file system watching with built-in
// rejection filtering.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: Polling for environments where fsnotify fails (network mounts, Docker volumes)
//
// Events carry absolute paths and are pre-filtered: directory events,
// ignored globs, vanished files and files over the configured size
// ceiling never reach the consumer. Debouncing is intentionally not
// done here; the notify package aggregates raw events per directory.
//
// Usage:
//
//	w, err := watcher.NewHybridWatcher(watcher.Options{
//	    Root:      "/srv/drop",
//	    Recursive: true,
//	})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	if err := w.Start(); err != nil {
//	    return err
//	}
//
//	for event := range w.Events() {
//	    switch event.Operation {
//	    case watcher.OpCreate:
//	        // Handle file creation
//	    case watcher.OpModify:
//	        // Handle file modification
//	    case watcher.OpDelete:
//	        // Handle file deletion
//	    }
//	}
package watcher
