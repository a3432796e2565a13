package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// PlainRenderer outputs one line per event (for CI/pipes).
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	errors []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// RecordEvent implements Renderer.
func (r *PlainRenderer) RecordEvent(event EventNotice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "%s %-8s %s (%s)\n",
		event.Time.Format("15:04:05"), event.Kind, event.Path, FormatSize(event.Size))
}

// RecordFlush implements Renderer.
func (r *PlainRenderer) RecordFlush(notice FlushNotice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch notice.Status {
	case "failed":
		_, _ = fmt.Fprintf(r.out, "%s FAILED   %d file(s) in %s -> %s\n",
			notice.Time.Format("15:04:05"), notice.Files, notice.Directory, notice.Recipient)
	case "logged":
		_, _ = fmt.Fprintf(r.out, "%s logged   %d file(s) in %s\n",
			notice.Time.Format("15:04:05"), notice.Files, notice.Directory)
	default:
		_, _ = fmt.Fprintf(r.out, "%s notified %d file(s) in %s -> %s\n",
			notice.Time.Format("15:04:05"), notice.Files, notice.Directory, notice.Recipient)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}

	if event.Scope != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.Scope, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

// FormatSize renders a byte count for display.
func FormatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
