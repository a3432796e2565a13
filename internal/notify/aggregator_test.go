package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchpost/watchpost/internal/watcher"
)

// flushCollector captures flushed batches on a channel.
type flushCollector struct {
	batches chan []Change
}

func newFlushCollector() *flushCollector {
	return &flushCollector{batches: make(chan []Change, 10)}
}

func (f *flushCollector) flush(changes []Change) {
	f.batches <- changes
}

func (f *flushCollector) waitBatch(t *testing.T, within time.Duration) []Change {
	t.Helper()
	select {
	case batch := <-f.batches:
		return batch
	case <-time.After(within):
		t.Fatal("timed out waiting for flush")
		return nil
	}
}

func (f *flushCollector) expectNoBatch(t *testing.T, within time.Duration) {
	t.Helper()
	select {
	case batch := <-f.batches:
		t.Fatalf("unexpected flush of %d changes", len(batch))
	case <-time.After(within):
	}
}

func event(path string, op watcher.Operation, size int64) watcher.FileEvent {
	return watcher.FileEvent{
		Path:      path,
		Operation: op,
		Size:      size,
		Timestamp: time.Now(),
	}
}

func TestAggregatorFlushesAfterQuietPeriod(t *testing.T) {
	// Given an aggregator with a short debounce window
	collector := newFlushCollector()
	agg := NewAggregator(50*time.Millisecond, NewCooldownRegistry(0), collector.flush, nil)
	defer agg.Stop()

	// When one event is recorded
	agg.Record(event("/srv/a.txt", watcher.OpCreate, 10))
	assert.Equal(t, StateAccumulating, agg.State())

	// Then a single batch arrives once the window elapses
	batch := collector.waitBatch(t, time.Second)
	require.Len(t, batch, 1)
	assert.Equal(t, "/srv/a.txt", batch[0].Path)
	assert.Equal(t, watcher.OpCreate, batch[0].Kind)

	// And the aggregator returns to idle
	assert.Eventually(t, func() bool { return agg.State() == StateIdle },
		time.Second, 10*time.Millisecond)
}

func TestAggregatorRestartsTimerOnEachEvent(t *testing.T) {
	collector := newFlushCollector()
	agg := NewAggregator(100*time.Millisecond, NewCooldownRegistry(0), collector.flush, nil)
	defer agg.Stop()

	// Events arriving faster than the window keep deferring the flush
	for i := 0; i < 4; i++ {
		agg.Record(event("/srv/a.txt", watcher.OpModify, 10))
		collector.expectNoBatch(t, 60*time.Millisecond)
	}

	// One batch once the burst ends
	batch := collector.waitBatch(t, time.Second)
	assert.Len(t, batch, 1)
	collector.expectNoBatch(t, 200*time.Millisecond)
}

func TestAggregatorLastWriteWins(t *testing.T) {
	collector := newFlushCollector()
	agg := NewAggregator(50*time.Millisecond, NewCooldownRegistry(0), collector.flush, nil)
	defer agg.Stop()

	// A create followed by a modify within one window
	agg.Record(event("/srv/a.txt", watcher.OpCreate, 5))
	agg.Record(event("/srv/a.txt", watcher.OpModify, 20))

	batch := collector.waitBatch(t, time.Second)
	require.Len(t, batch, 1)
	assert.Equal(t, watcher.OpModify, batch[0].Kind)
	assert.Equal(t, int64(20), batch[0].Size)
}

func TestAggregatorBatchesDistinctPaths(t *testing.T) {
	collector := newFlushCollector()
	agg := NewAggregator(50*time.Millisecond, NewCooldownRegistry(0), collector.flush, nil)
	defer agg.Stop()

	agg.Record(event("/srv/a.txt", watcher.OpCreate, 1))
	agg.Record(event("/srv/b.txt", watcher.OpCreate, 2))
	agg.Record(event("/srv/c.txt", watcher.OpDelete, 0))

	batch := collector.waitBatch(t, time.Second)
	assert.Len(t, batch, 3)
}

func TestAggregatorRejectsCooldownPaths(t *testing.T) {
	// Given a path already inside its cooldown window
	cooldowns := NewCooldownRegistry(time.Hour)
	cooldowns.Mark("/srv/hot.txt")

	collector := newFlushCollector()
	agg := NewAggregator(50*time.Millisecond, cooldowns, collector.flush, nil)
	defer agg.Stop()

	// When events arrive for the hot path and a cold one
	agg.Record(event("/srv/hot.txt", watcher.OpModify, 10))
	agg.Record(event("/srv/cold.txt", watcher.OpModify, 10))

	// Then only the cold path is flushed
	batch := collector.waitBatch(t, time.Second)
	require.Len(t, batch, 1)
	assert.Equal(t, "/srv/cold.txt", batch[0].Path)
}

func TestAggregatorFlushNow(t *testing.T) {
	collector := newFlushCollector()
	agg := NewAggregator(time.Hour, NewCooldownRegistry(0), collector.flush, nil)
	defer agg.Stop()

	agg.Record(event("/srv/a.txt", watcher.OpCreate, 1))
	agg.FlushNow()

	batch := collector.waitBatch(t, time.Second)
	assert.Len(t, batch, 1)
	assert.Zero(t, agg.PendingCount())
}

func TestAggregatorFlushNowEmpty(t *testing.T) {
	collector := newFlushCollector()
	agg := NewAggregator(time.Hour, NewCooldownRegistry(0), collector.flush, nil)
	defer agg.Stop()

	agg.FlushNow()
	collector.expectNoBatch(t, 100*time.Millisecond)
	assert.Equal(t, StateIdle, agg.State())
}

func TestAggregatorStopDiscardsPending(t *testing.T) {
	collector := newFlushCollector()
	agg := NewAggregator(50*time.Millisecond, NewCooldownRegistry(0), collector.flush, nil)

	agg.Record(event("/srv/a.txt", watcher.OpCreate, 1))
	agg.Stop()

	collector.expectNoBatch(t, 200*time.Millisecond)
	assert.Equal(t, StateIdle, agg.State())

	// Records after stop are ignored
	agg.Record(event("/srv/b.txt", watcher.OpCreate, 1))
	assert.Zero(t, agg.PendingCount())
}

func TestAggregatorRecordDuringFlush(t *testing.T) {
	// Given a flush function that blocks until released
	release := make(chan struct{})
	var mu sync.Mutex
	var batches [][]Change
	agg := NewAggregator(30*time.Millisecond, NewCooldownRegistry(0), func(changes []Change) {
		mu.Lock()
		batches = append(batches, changes)
		mu.Unlock()
		if len(batches) == 1 {
			<-release
		}
	}, nil)
	defer agg.Stop()

	// When an event lands while the first batch is mid-flush
	agg.Record(event("/srv/a.txt", watcher.OpCreate, 1))
	assert.Eventually(t, func() bool { return agg.State() == StateFlushing },
		time.Second, 5*time.Millisecond)
	agg.Record(event("/srv/b.txt", watcher.OpCreate, 1))
	close(release)

	// Then the late event flushes in its own batch
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/srv/a.txt", batches[0][0].Path)
	assert.Equal(t, "/srv/b.txt", batches[1][0].Path)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "accumulating", StateAccumulating.String())
	assert.Equal(t, "flushing", StateFlushing.String())
}
