package monitor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
	"github.com/watchpost/watchpost/internal/notify"
)

// captureSender collects sent messages and signals each arrival.
type captureSender struct {
	mu   sync.Mutex
	sent []notify.Message
	ch   chan notify.Message
}

func newCaptureSender() *captureSender {
	return &captureSender{ch: make(chan notify.Message, 10)}
}

func (s *captureSender) Send(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	s.ch <- msg
	return nil
}

func (s *captureSender) waitMessage(t *testing.T, within time.Duration) notify.Message {
	t.Helper()
	select {
	case msg := <-s.ch:
		return msg
	case <-time.After(within):
		t.Fatal("timed out waiting for a notification")
		return notify.Message{}
	}
}

// gateSender stalls the delivery whose body mentions blockName until
// release is closed; everything else passes straight through.
type gateSender struct {
	*captureSender
	blockName string
	entered   chan struct{}
	release   chan struct{}
}

func (s *gateSender) Send(ctx context.Context, msg notify.Message) error {
	if strings.Contains(msg.Body, s.blockName) {
		close(s.entered)
		<-s.release
	}
	return s.captureSender.Send(ctx, msg)
}

func testConfig(t *testing.T, dirs ...string) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Settings.DebounceDelaySeconds = 1
	cfg.Settings.CooldownSeconds = 60
	off := false
	cfg.Settings.PersistCooldowns = &off
	for _, d := range dirs {
		cfg.Directories = append(cfg.Directories, config.DirectoryConfig{
			Path:        d,
			Recursive:   true,
			NotifyEmail: "ops@example.com",
		})
	}
	return cfg
}

func newStartedMonitor(t *testing.T, cfg *config.Config, sender notify.Sender) *Monitor {
	t.Helper()
	m, err := New(Options{
		Config:       cfg,
		Sender:       sender,
		SnapshotPath: filepath.Join(t.TempDir(), "cooldowns.json"),
	})
	require.NoError(t, err)
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Stop() })
	return m
}

// waitForPending polls until the directory's pipeline has accumulated
// at least one change.
func waitForPending(t *testing.T, m *Monitor, dir string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, s := range m.Status() {
			if s.Path == dir && s.Pending > 0 {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("pipeline never accumulated the change")
}

func TestMonitorRequiresSenderWhenEmailEnabled(t *testing.T) {
	cfg := testConfig(t, t.TempDir())

	_, err := New(Options{Config: cfg})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}

func TestMonitorRequiresEnabledDirectories(t *testing.T) {
	cfg := testConfig(t)
	m, err := New(Options{Config: cfg, Sender: newCaptureSender()})
	require.NoError(t, err)

	err = m.Start()

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}

func TestMonitorSkipsMissingDirectory(t *testing.T) {
	// Given one existing and one missing configured directory
	existing := t.TempDir()
	cfg := testConfig(t, existing, filepath.Join(existing, "does-not-exist"))
	sender := newCaptureSender()

	// When the monitor starts
	m := newStartedMonitor(t, cfg, sender)

	// Then only the existing directory has a pipeline
	status := m.Status()
	require.Len(t, status, 1)
	assert.Equal(t, existing, status[0].Path)
}

func TestMonitorAllDirectoriesMissingFailsStart(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "gone"))
	m, err := New(Options{Config: cfg, Sender: newCaptureSender()})
	require.NoError(t, err)

	err = m.Start()

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWatchDirMissing, errors.GetCode(err))
}

func TestMonitorNotifiesOnFileChange(t *testing.T) {
	// Given a running monitor over one directory
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	sender := newCaptureSender()
	m := newStartedMonitor(t, cfg, sender)

	// When a file is created and the pending change is force-flushed
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.txt"), []byte("q3"), 0o644))
	waitForPending(t, m, dir)
	require.NoError(t, m.Flush(dir))

	// Then one notification arrives for the directory
	msg := sender.waitMessage(t, 3*time.Second)
	assert.Equal(t, []string{"ops@example.com"}, msg.To)
	assert.Contains(t, msg.Subject, filepath.Base(dir))
	assert.Contains(t, msg.Body, "report.txt")
}

func TestMonitorDirectoriesFlushIndependently(t *testing.T) {
	// Given two watched directories and a sender that stalls the first
	// directory's delivery
	dirA := t.TempDir()
	dirB := t.TempDir()
	sender := &gateSender{
		captureSender: newCaptureSender(),
		blockName:     "slow.txt",
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	m := newStartedMonitor(t, testConfig(t, dirA, dirB), sender)

	require.NoError(t, os.WriteFile(filepath.Join(dirA, "slow.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dirB, "fast.txt"), []byte("b"), 0o644))
	waitForPending(t, m, dirA)
	waitForPending(t, m, dirB)

	// When the first directory's send is in flight and stuck
	go func() { _ = m.Flush(dirA) }()
	select {
	case <-sender.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("first directory never reached the sender")
	}

	// Then the second directory still flushes on time
	require.NoError(t, m.Flush(dirB))
	msg := sender.waitMessage(t, 3*time.Second)
	assert.Contains(t, msg.Body, "fast.txt")

	// And releasing the stall completes the first delivery
	close(sender.release)
	msg = sender.waitMessage(t, 3*time.Second)
	assert.Contains(t, msg.Body, "slow.txt")
}

func TestMonitorFlushUnknownDirectory(t *testing.T) {
	dir := t.TempDir()
	m := newStartedMonitor(t, testConfig(t, dir), newCaptureSender())

	err := m.Flush(filepath.Join(dir, "elsewhere"))

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWatchDirMissing, errors.GetCode(err))
}

func TestMonitorStatusCountsEvents(t *testing.T) {
	dir := t.TempDir()
	m := newStartedMonitor(t, testConfig(t, dir), newCaptureSender())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	waitForPending(t, m, dir)

	status := m.Status()
	require.Len(t, status, 1)
	assert.Equal(t, dir, status[0].Path)
	assert.GreaterOrEqual(t, status[0].EventsSeen, uint64(1))
	assert.Equal(t, "accumulating", status[0].State)
	assert.NotEmpty(t, status[0].WatcherType)
}

func TestMonitorStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	m := newStartedMonitor(t, testConfig(t, dir), newCaptureSender())

	require.NoError(t, m.Stop())
	require.NoError(t, m.Stop())
}

func TestMonitorPersistsCooldownsOnStop(t *testing.T) {
	// Given a monitor with persistence on and one delivered notification
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Settings.PersistCooldowns = nil // default: on
	sender := newCaptureSender()
	snapshot := filepath.Join(t.TempDir(), "cooldowns.json")

	m, err := New(Options{Config: cfg, Sender: sender, SnapshotPath: snapshot})
	require.NoError(t, err)
	require.NoError(t, m.Start())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	waitForPending(t, m, dir)
	require.NoError(t, m.Flush(dir))
	sender.waitMessage(t, 3*time.Second)

	// When the monitor stops
	require.NoError(t, m.Stop())

	// Then the cooldown snapshot exists and a fresh monitor reloads it
	_, statErr := os.Stat(snapshot)
	require.NoError(t, statErr)

	m2, err := New(Options{Config: cfg, Sender: sender, SnapshotPath: snapshot})
	require.NoError(t, err)
	require.NoError(t, m2.Start())
	defer func() { _ = m2.Stop() }()
	assert.Equal(t, 1, m2.CooldownCount())
}
