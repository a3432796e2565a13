// Package ui renders the live watch display: a plain line-per-event
// renderer for pipes and CI, and a bubbletea dashboard for interactive
// terminals.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// EventNotice is one accepted file event, for display.
type EventNotice struct {
	Directory string
	Path      string
	Kind      string
	Size      int64
	Time      time.Time
}

// FlushNotice is one dispatched batch, for display.
type FlushNotice struct {
	Directory string
	Recipient string
	Files     int
	Status    string // "sent", "failed", "logged"
	Time      time.Time
}

// ErrorEvent represents an error during watching.
type ErrorEvent struct {
	Scope  string
	Err    error
	IsWarn bool
}

// DirectorySnapshot is one watched directory's state for the
// dashboard.
type DirectorySnapshot struct {
	Path        string
	State       string
	WatcherType string
	Pending     int
	EventsSeen  uint64
	LastFlush   time.Time
}

// StatusFunc supplies the dashboard with fresh per-directory state.
type StatusFunc func() []DirectorySnapshot

// Renderer defines the interface for the watch display.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// RecordEvent displays one accepted file event.
	RecordEvent(event EventNotice)

	// RecordFlush displays one dispatched batch.
	RecordFlush(notice FlushNotice)

	// AddError displays an error.
	AddError(event ErrorEvent)

	// Stop stops the renderer and cleans up.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool

	// Status feeds the dashboard; plain mode ignores it.
	Status StatusFunc
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithStatus sets the dashboard's status source.
func WithStatus(status StatusFunc) ConfigOption {
	return func(c *Config) {
		c.Status = status
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer creates an appropriate renderer based on config and
// environment: the dashboard for interactive terminals, plain text
// for CI environments, pipes, or when plain mode is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain {
		return NewPlainRenderer(cfg)
	}
	if !IsTTY(cfg.Output) {
		return NewPlainRenderer(cfg)
	}
	if DetectCI() {
		return NewPlainRenderer(cfg)
	}

	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
