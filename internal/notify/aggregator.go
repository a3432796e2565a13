package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/watchpost/watchpost/internal/logging"
	"github.com/watchpost/watchpost/internal/watcher"
)

// State is the aggregator's lifecycle phase for one directory.
type State int

const (
	// StateIdle means no changes are pending.
	StateIdle State = iota
	// StateAccumulating means changes are pending and the debounce
	// timer is running.
	StateAccumulating
	// StateFlushing means a drained batch is being dispatched.
	StateFlushing
)

// String returns the name reported in status output.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

// FlushFunc receives a drained batch of changes, ordered by observation
// time. It runs on the timer goroutine with no aggregator lock held.
type FlushFunc func(changes []Change)

// Aggregator collects file events for one watched directory and flushes
// them as a batch once the directory has been quiet for the debounce
// window. Every new event restarts the timer.
type Aggregator struct {
	delay     time.Duration
	cooldowns *CooldownRegistry
	flush     FlushFunc
	audit     *logging.Scope

	mu      sync.Mutex
	pending map[string]Change
	timer   *time.Timer
	state   State
	stopped bool
}

// NewAggregator creates an aggregator. The trail may be nil.
func NewAggregator(delay time.Duration, cooldowns *CooldownRegistry, flush FlushFunc, trail *logging.Trail) *Aggregator {
	return &Aggregator{
		delay:     delay,
		cooldowns: cooldowns,
		flush:     flush,
		audit:     trail.For("aggregator"),
		pending:   make(map[string]Change),
		state:     StateIdle,
	}
}

// Record adds a file event to the pending set and restarts the debounce
// timer. Events for paths inside their cooldown window are rejected
// here and never become pending.
func (a *Aggregator) Record(event watcher.FileEvent) {
	if a.cooldowns.Active(event.Path) {
		_ = a.audit.Record("record", logging.StatusSkipped, map[string]string{
			"path":   event.Path,
			"op":     event.Operation.String(),
			"reason": "cooldown",
		})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}

	// Last write wins: a create followed by a modify reports as a
	// modify, a modify followed by a delete reports as a delete.
	a.pending[event.Path] = Change{
		Path:       event.Path,
		Kind:       event.Operation,
		Size:       event.Size,
		ObservedAt: event.Timestamp,
	}
	a.state = StateAccumulating
	a.scheduleFlushLocked()

	_ = a.audit.Record("record", logging.StatusSuccess, map[string]string{
		"path": event.Path,
		"op":   event.Operation.String(),
	})
}

// scheduleFlushLocked cancels any running timer and starts a fresh one.
// Caller must hold a.mu.
func (a *Aggregator) scheduleFlushLocked() {
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.doFlush)
}

// FlushNow drains and dispatches the pending set immediately, without
// waiting for the debounce timer. Used by the daemon flush method.
func (a *Aggregator) FlushNow() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()
	a.doFlush()
}

// doFlush drains the pending set atomically and hands the batch to the
// flush function outside the lock, so new events recorded during a
// send land in a fresh pending set.
func (a *Aggregator) doFlush() {
	a.mu.Lock()
	if a.stopped || len(a.pending) == 0 {
		a.state = StateIdle
		a.mu.Unlock()
		return
	}

	changes := make([]Change, 0, len(a.pending))
	for _, c := range a.pending {
		changes = append(changes, c)
	}
	a.pending = make(map[string]Change)
	a.state = StateFlushing
	a.mu.Unlock()

	sort.Slice(changes, func(i, j int) bool {
		if changes[i].ObservedAt.Equal(changes[j].ObservedAt) {
			return changes[i].Path < changes[j].Path
		}
		return changes[i].ObservedAt.Before(changes[j].ObservedAt)
	})

	a.flush(changes)

	a.mu.Lock()
	if len(a.pending) == 0 {
		a.state = StateIdle
	} else {
		a.state = StateAccumulating
	}
	a.mu.Unlock()
}

// Stop cancels the pending timer and discards unflushed changes.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.pending = nil
	a.state = StateIdle
}

// State returns the current lifecycle phase.
func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// PendingCount returns the number of distinct paths awaiting flush.
func (a *Aggregator) PendingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}
