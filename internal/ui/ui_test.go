package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRendererFallsBackToPlain(t *testing.T) {
	// A bytes.Buffer is not a TTY, so the plain renderer is chosen
	cfg := NewConfig(&bytes.Buffer{})

	r := NewRenderer(cfg)

	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestNewRendererForcePlain(t *testing.T) {
	cfg := NewConfig(&bytes.Buffer{}, WithForcePlain(true))

	_, ok := NewRenderer(cfg).(*PlainRenderer)
	assert.True(t, ok)
}

func TestIsTTYNonFile(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
	assert.False(t, IsTTY(nil))
}

func TestPlainRendererEventLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))
	require.NoError(t, r.Start(context.Background()))

	r.RecordEvent(EventNotice{
		Path: "/srv/drop/report.txt",
		Kind: "created",
		Size: 2048,
		Time: time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC),
	})

	out := buf.String()
	assert.Contains(t, out, "12:30:45")
	assert.Contains(t, out, "created")
	assert.Contains(t, out, "/srv/drop/report.txt")
	assert.Contains(t, out, "2.0 KB")
}

func TestPlainRendererFlushLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	r.RecordFlush(FlushNotice{Directory: "/srv/drop", Recipient: "ops@example.com", Files: 3, Status: "sent", Time: time.Now()})
	r.RecordFlush(FlushNotice{Directory: "/srv/drop", Recipient: "ops@example.com", Files: 1, Status: "failed", Time: time.Now()})
	r.RecordFlush(FlushNotice{Directory: "/srv/drop", Files: 2, Status: "logged", Time: time.Now()})

	out := buf.String()
	assert.Contains(t, out, "notified 3 file(s)")
	assert.Contains(t, out, "FAILED   1 file(s)")
	assert.Contains(t, out, "logged   2 file(s)")
}

func TestPlainRendererErrors(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	r.AddError(ErrorEvent{Scope: "watcher", Err: errors.New("boom")})
	r.AddError(ErrorEvent{Err: errors.New("warn only"), IsWarn: true})

	out := buf.String()
	assert.Contains(t, out, "ERROR: watcher: boom")
	assert.Contains(t, out, "WARN: warn only")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "2.0 MB", FormatSize(2<<20))
}

func TestWatchModelRecordsEvents(t *testing.T) {
	m := newWatchModel(nil)

	model, _ := m.Update(eventMsg{
		Path: "/srv/drop/a.txt",
		Kind: "modified",
		Time: time.Now(),
	})
	wm := model.(*watchModel)

	require.Len(t, wm.recent, 1)
	assert.Contains(t, wm.recent[0], "/srv/drop/a.txt")
}

func TestWatchModelBoundsRecentFeed(t *testing.T) {
	m := newWatchModel(nil)

	for i := 0; i < maxRecentLines*2; i++ {
		m.pushRecent("line")
	}

	assert.Len(t, m.recent, maxRecentLines)
}

func TestWatchModelTickPullsStatus(t *testing.T) {
	m := newWatchModel(func() []DirectorySnapshot {
		return []DirectorySnapshot{{Path: "/srv/drop", State: "idle", WatcherType: "fsnotify"}}
	})

	model, _ := m.Update(tickMsg(time.Now()))
	wm := model.(*watchModel)

	require.Len(t, wm.dirs, 1)
	assert.Contains(t, wm.View(), "/srv/drop")
}

func TestWatchModelQuitKeys(t *testing.T) {
	m := newWatchModel(nil)

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	assert.True(t, model.(*watchModel).quitting)
	assert.NotNil(t, cmd)
}
