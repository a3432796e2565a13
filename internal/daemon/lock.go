package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/watchpost/watchpost/internal/errors"
)

// InstanceLock keeps a second watch process from starting. It pairs a
// flock (released automatically if the holder dies) with a PID file so
// the error message can name the holder. A PID file left behind by a
// crashed process is harmless: the flock is free, acquisition succeeds
// and overwrites the stale PID.
type InstanceLock struct {
	flock   *flock.Flock
	pidFile *PIDFile
	held    bool
}

// NewInstanceLock creates a lock at the given paths.
func NewInstanceLock(lockPath, pidPath string) *InstanceLock {
	return &InstanceLock{
		flock:   flock.New(lockPath),
		pidFile: NewPIDFile(pidPath),
	}
}

// Acquire takes the lock without blocking. When another process holds
// it, the error carries the holder's PID read from the PID file.
func (l *InstanceLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.flock.Path()), 0755); err != nil {
		return errors.New(errors.ErrCodeInternal, "failed to create lock directory", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return errors.New(errors.ErrCodeInternal, "failed to acquire instance lock", err)
	}
	if !acquired {
		msg := "another watchpost instance is already running"
		if pid, readErr := l.pidFile.Read(); readErr == nil {
			msg = fmt.Sprintf("another watchpost instance is already running (pid %d)", pid)
		}
		return errors.New(errors.ErrCodeAlreadyRunning, msg, nil).
			WithSuggestion("stop the running instance or wait for it to exit")
	}

	if err := l.pidFile.Write(); err != nil {
		_ = l.flock.Unlock()
		return errors.New(errors.ErrCodeInternal, "failed to write PID file", err)
	}
	l.held = true
	return nil
}

// Release unlocks and removes the PID file. Safe to call when the
// lock was never acquired.
func (l *InstanceLock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false

	pidErr := l.pidFile.Remove()
	if err := l.flock.Unlock(); err != nil {
		return errors.New(errors.ErrCodeInternal, "failed to release instance lock", err)
	}
	return pidErr
}

// PIDFile returns the lock's PID file.
func (l *InstanceLock) PIDFile() *PIDFile {
	return l.pidFile
}
