// Package monitor assembles the per-directory watch pipelines: one
// watcher, aggregator and dispatcher per enabled configured directory,
// all sharing a single cooldown registry, sender, history store and
// audit trail.
package monitor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
	"github.com/watchpost/watchpost/internal/logging"
	"github.com/watchpost/watchpost/internal/notify"
	"github.com/watchpost/watchpost/internal/watcher"
)

// Options wires the monitor to its services. Sender is required when
// the config has email sending enabled; History, Archiver and Trail
// may be nil.
type Options struct {
	Config   *config.Config
	Sender   notify.Sender
	History  notify.DeliveryRecorder
	Archiver notify.Archiver
	Trail    *logging.Trail

	// SnapshotPath overrides where cooldowns are persisted.
	// Default: <data dir>/cooldowns.json.
	SnapshotPath string

	// OnEvent, when set, observes every accepted file event. Used by
	// the watch display; must not block.
	OnEvent func(dir string, ev watcher.FileEvent)
}

// DirectoryStatus is one directory's live pipeline state.
type DirectoryStatus struct {
	Path        string    `json:"path"`
	State       string    `json:"state"`
	Pending     int       `json:"pending"`
	WatcherType string    `json:"watcher_type"`
	EventsSeen  uint64    `json:"events_seen"`
	Dropped     uint64    `json:"dropped"`
	LastFlush   time.Time `json:"last_flush,omitempty"`
}

// pipeline is one directory's watcher -> aggregator -> dispatcher chain.
type pipeline struct {
	dir config.DirectoryConfig
	w   *watcher.HybridWatcher
	agg *notify.Aggregator

	events atomic.Uint64

	mu        sync.Mutex
	lastFlush time.Time
}

func (p *pipeline) flushedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastFlush
}

func (p *pipeline) markFlushed() {
	p.mu.Lock()
	p.lastFlush = time.Now()
	p.mu.Unlock()
}

// Monitor runs the watch pipelines for every enabled directory.
type Monitor struct {
	opts      Options
	cfg       *config.Config
	cooldowns *notify.CooldownRegistry
	audit     *logging.Scope

	mu        sync.Mutex
	pipelines map[string]*pipeline
	order     []string
	group     *errgroup.Group
	started   bool
	stopped   bool
}

// New creates a monitor from validated configuration.
func New(opts Options) (*Monitor, error) {
	if opts.Config == nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "monitor requires a configuration", nil)
	}
	if opts.Config.Settings.EmailOnChange() && opts.Sender == nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "email sending is enabled but no sender was provided", nil)
	}
	if opts.SnapshotPath == "" {
		opts.SnapshotPath = filepath.Join(config.DataDir(), "cooldowns.json")
	}
	return &Monitor{
		opts:      opts,
		cfg:       opts.Config,
		cooldowns: notify.NewCooldownRegistry(opts.Config.Settings.Cooldown()),
		audit:     opts.Trail.For("monitor"),
		pipelines: make(map[string]*pipeline),
	}, nil
}

// Start builds and starts one pipeline per enabled directory. A
// configured directory that does not exist is logged and skipped; the
// remaining directories still start. Start fails only when no
// directory could be watched.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return errors.New(errors.ErrCodeAlreadyRunning, "monitor already started", nil)
	}

	if m.cfg.Settings.Persist() {
		if err := m.cooldowns.Load(m.opts.SnapshotPath); err != nil {
			slog.Warn("failed to load cooldown snapshot",
				slog.String("path", m.opts.SnapshotPath),
				slog.String("error", err.Error()))
		}
	}

	dirs := m.cfg.EnabledDirectories()
	if len(dirs) == 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "no enabled directories to watch", nil)
	}

	m.group = &errgroup.Group{}
	for _, dir := range dirs {
		if err := m.startPipelineLocked(dir); err != nil {
			slog.Error("skipping directory",
				slog.String("path", dir.Path),
				slog.String("error", err.Error()))
			_ = m.audit.Record("start", logging.StatusSkipped, map[string]string{
				"path":  dir.Path,
				"error": errors.GetCode(err),
			})
		}
	}
	if len(m.pipelines) == 0 {
		return errors.New(errors.ErrCodeWatchDirMissing, "none of the configured directories could be watched", nil)
	}

	m.started = true
	slog.Info("monitor started",
		slog.Int("directories", len(m.pipelines)),
		slog.Duration("debounce", m.cfg.Settings.DebounceDelay()),
		slog.Duration("cooldown", m.cfg.Settings.Cooldown()))
	return nil
}

func (m *Monitor) startPipelineLocked(dir config.DirectoryConfig) error {
	info, err := os.Stat(dir.Path)
	if err != nil {
		return errors.New(errors.ErrCodeWatchDirMissing,
			fmt.Sprintf("watch directory does not exist: %s", dir.Path), err)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeWatchDirMissing,
			fmt.Sprintf("watch path is not a directory: %s", dir.Path), nil)
	}

	w, err := watcher.NewHybridWatcher(watcher.Options{
		Root:        dir.Path,
		Recursive:   dir.Recursive,
		Ignore:      dir.Ignore,
		MaxFileSize: m.cfg.MaxFileSize(dir),
	})
	if err != nil {
		return err
	}

	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Directory:   dir.Path,
		NotifyEmail: dir.NotifyEmail,
		FromEmail:   dir.FromEmail,
		Sender:      m.opts.Sender,
		Cooldowns:   m.cooldowns,
		History:     m.opts.History,
		Archiver:    m.archiverForConfig(),
		Trail:       m.opts.Trail,
		SendEmail:   m.cfg.Settings.EmailOnChange(),
	})

	p := &pipeline{dir: dir, w: w}
	p.agg = notify.NewAggregator(m.cfg.Settings.DebounceDelay(), m.cooldowns, func(changes []notify.Change) {
		p.markFlushed()
		dispatcher.Dispatch(changes)
	}, m.opts.Trail)

	if err := w.Start(); err != nil {
		return err
	}

	m.pipelines[dir.Path] = p
	m.order = append(m.order, dir.Path)
	m.group.Go(func() error {
		m.runPipeline(p)
		return nil
	})
	return nil
}

// archiverForConfig returns the configured archiver, or nil when
// archiving on notify is off.
func (m *Monitor) archiverForConfig() notify.Archiver {
	if !m.cfg.Settings.Archive() {
		return nil
	}
	return m.opts.Archiver
}

// runPipeline pumps watcher events into the aggregator until the
// watcher's channels close.
func (m *Monitor) runPipeline(p *pipeline) {
	events := p.w.Events()
	errs := p.w.Errors()
	for events != nil || errs != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			p.events.Add(1)
			if m.opts.OnEvent != nil {
				m.opts.OnEvent(p.dir.Path, ev)
			}
			p.agg.Record(ev)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watcher error",
				slog.String("path", p.dir.Path),
				slog.String("error", err.Error()))
		}
	}
}

// Flush forces an immediate flush of one directory's pending changes.
func (m *Monitor) Flush(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.New(errors.ErrCodeInvalidPath, "invalid directory path", err)
	}

	m.mu.Lock()
	p, ok := m.pipelines[abs]
	m.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeWatchDirMissing,
			fmt.Sprintf("directory is not being watched: %s", abs), nil)
	}
	p.agg.FlushNow()
	return nil
}

// FlushAll forces an immediate flush of every pipeline.
func (m *Monitor) FlushAll() {
	m.mu.Lock()
	pipelines := make([]*pipeline, 0, len(m.pipelines))
	for _, p := range m.pipelines {
		pipelines = append(pipelines, p)
	}
	m.mu.Unlock()
	for _, p := range pipelines {
		p.agg.FlushNow()
	}
}

// Status returns a snapshot of every pipeline, ordered by path.
func (m *Monitor) Status() []DirectoryStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]DirectoryStatus, 0, len(m.pipelines))
	for _, path := range m.order {
		p := m.pipelines[path]
		out = append(out, DirectoryStatus{
			Path:        path,
			State:       p.agg.State().String(),
			Pending:     p.agg.PendingCount(),
			WatcherType: p.w.WatcherType(),
			EventsSeen:  p.events.Load(),
			Dropped:     p.w.DroppedEvents(),
			LastFlush:   p.flushedAt(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// CooldownCount returns the number of live cooldown entries.
func (m *Monitor) CooldownCount() int {
	return m.cooldowns.Len()
}

// Stop shuts down every pipeline: watchers first so no new events
// arrive, then aggregators, then the cooldown snapshot when
// persistence is on. Safe to call once; later calls are no-ops.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if !m.started || m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	pipelines := make([]*pipeline, 0, len(m.pipelines))
	for _, path := range m.order {
		pipelines = append(pipelines, m.pipelines[path])
	}
	group := m.group
	m.mu.Unlock()

	for _, p := range pipelines {
		if err := p.w.Stop(); err != nil {
			slog.Warn("watcher stop failed",
				slog.String("path", p.dir.Path),
				slog.String("error", err.Error()))
		}
	}
	_ = group.Wait()

	for _, p := range pipelines {
		p.agg.Stop()
	}

	if m.cfg.Settings.Persist() {
		if err := m.cooldowns.Save(m.opts.SnapshotPath); err != nil {
			slog.Warn("failed to save cooldown snapshot",
				slog.String("path", m.opts.SnapshotPath),
				slog.String("error", err.Error()))
		}
	}

	slog.Info("monitor stopped")
	return nil
}
