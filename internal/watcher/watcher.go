package watcher

import (
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted.
	OpDelete
	// OpRename indicates a file or directory was renamed or moved away.
	OpRename
)

// String returns the name used in notifications and logs.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "created"
	case OpModify:
		return "modified"
	case OpDelete:
		return "deleted"
	case OpRename:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileEvent represents a file system event.
type FileEvent struct {
	// Path is the absolute path of the changed file.
	Path string

	// Operation is the type of file system operation.
	Operation Operation

	// IsDir indicates if the event is for a directory. Directory events
	// are watch bookkeeping only and are never notified on.
	IsDir bool

	// Size is the file size in bytes at observation time. Zero for
	// deletes and renames where the file is already gone.
	Size int64

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Watcher defines the interface for watching one directory tree.
//
// Events carry absolute paths and have already passed the rejection
// filters (ignore globs, size ceiling, directory suppression).
type Watcher interface {
	// Start begins watching. Returns an error if watching fails to
	// initialize; after that the watcher runs until Stop is called.
	Start() error

	// Stop stops the watcher and closes both channels.
	// Safe to call multiple times.
	Stop() error

	// Events returns a channel of accepted file events.
	// The channel is closed when the watcher stops.
	Events() <-chan FileEvent

	// Errors returns a channel of watcher errors.
	// Non-fatal errors are sent here; the watcher continues running.
	// The channel is closed when the watcher stops.
	Errors() <-chan error
}

// Options configures the watcher behavior.
type Options struct {
	// Root is the directory to watch. Required; made absolute at Start.
	Root string

	// Recursive includes subdirectories, including ones created later.
	Recursive bool

	// Ignore holds doublestar glob patterns matched against the path
	// relative to Root. Matching paths are dropped silently.
	Ignore []string

	// MaxFileSize is the size ceiling in bytes. Larger files are
	// rejected. Zero means no limit.
	MaxFileSize int64

	// PollInterval is the scan cadence for polling mode (fallback).
	// Default: 2s
	PollInterval time.Duration

	// EventBufferSize is the size of the event channel buffer.
	// Default: 256
	EventBufferSize int
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.PollInterval == 0 {
		o.PollInterval = 2 * time.Second
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = 256
	}
	return o
}
