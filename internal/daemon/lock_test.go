package daemon

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchpost/watchpost/internal/errors"
)

func lockPaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "watchpost.lock"), filepath.Join(dir, "watchpost.pid")
}

func TestInstanceLockAcquireRelease(t *testing.T) {
	lockPath, pidPath := lockPaths(t)
	lock := NewInstanceLock(lockPath, pidPath)

	// When acquired, the PID file holds this process's PID
	require.NoError(t, lock.Acquire())
	pid, err := lock.PIDFile().Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	// When released, the PID file is gone
	require.NoError(t, lock.Release())
	_, err = lock.PIDFile().Read()
	assert.ErrorIs(t, err, ErrPIDFileNotFound)
}

func TestInstanceLockSecondAcquireFails(t *testing.T) {
	lockPath, pidPath := lockPaths(t)

	first := NewInstanceLock(lockPath, pidPath)
	require.NoError(t, first.Acquire())
	defer func() { _ = first.Release() }()

	// A second holder in the same paths is refused with the holder PID
	second := NewInstanceLock(lockPath, pidPath)
	err := second.Acquire()

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAlreadyRunning, errors.GetCode(err))
	assert.Contains(t, err.Error(), strconv.Itoa(os.Getpid()))
}

func TestInstanceLockReleaseWithoutAcquire(t *testing.T) {
	lockPath, pidPath := lockPaths(t)
	lock := NewInstanceLock(lockPath, pidPath)

	assert.NoError(t, lock.Release())
}

func TestInstanceLockStalePIDFile(t *testing.T) {
	// Given a PID file left behind without a held flock
	lockPath, pidPath := lockPaths(t)
	require.NoError(t, os.WriteFile(pidPath, []byte("999999"), 0o644))

	// When acquiring
	lock := NewInstanceLock(lockPath, pidPath)
	err := lock.Acquire()

	// Then acquisition succeeds and the stale PID is overwritten
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()
	pid, err := lock.PIDFile().Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestPIDFileIsRunning(t *testing.T) {
	pidFile := NewPIDFile(filepath.Join(t.TempDir(), "test.pid"))

	assert.False(t, pidFile.IsRunning())

	require.NoError(t, pidFile.Write())
	assert.True(t, pidFile.IsRunning())

	require.NoError(t, pidFile.Remove())
	assert.False(t, pidFile.IsRunning())
}

func TestPIDFileRemoveMissingIsNil(t *testing.T) {
	pidFile := NewPIDFile(filepath.Join(t.TempDir(), "absent.pid"))

	assert.NoError(t, pidFile.Remove())
}

func TestPIDFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o644))

	_, err := NewPIDFile(path).Read()

	assert.Error(t, err)
}
