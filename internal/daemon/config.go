// Package daemon keeps a running watch process reachable: a
// single-instance lock, a PID file, and a JSON-RPC status endpoint on
// a Unix socket that `watchpost status` and `watchpost flush` talk to.
package daemon

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/watchpost/watchpost/internal/config"
)

// Config holds the daemon file paths and timeouts.
type Config struct {
	// SocketPath is the Unix domain socket path for IPC.
	// Default: ~/.watchpost/watchpost.sock
	SocketPath string

	// PIDPath is the file path for storing the daemon's process ID.
	// Default: ~/.watchpost/watchpost.pid
	PIDPath string

	// LockPath is the flock path guarding single-instance startup.
	// Default: ~/.watchpost/watchpost.lock
	LockPath string

	// Timeout is the maximum duration for client-daemon communication.
	// Default: 30s
	Timeout time.Duration

	// ShutdownGracePeriod is the time to wait for graceful shutdown.
	// Default: 10s
	ShutdownGracePeriod time.Duration
}

// DefaultConfig returns a Config rooted in the data directory.
func DefaultConfig() Config {
	dataDir := config.DataDir()
	return Config{
		SocketPath:          filepath.Join(dataDir, "watchpost.sock"),
		PIDPath:             filepath.Join(dataDir, "watchpost.pid"),
		LockPath:            filepath.Join(dataDir, "watchpost.lock"),
		Timeout:             30 * time.Second,
		ShutdownGracePeriod: 10 * time.Second,
	}
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket path cannot be empty")
	}
	if c.PIDPath == "" {
		return fmt.Errorf("PID path cannot be empty")
	}
	if c.LockPath == "" {
		return fmt.Errorf("lock path cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("shutdown grace period must be positive")
	}
	return nil
}
