// Package notify turns raw file events into batched email notifications.
//
// The pipeline has three stages per watched directory:
//
//	watcher events -> Aggregator -> Dispatcher -> Sender
//
// The Aggregator holds pending changes in a last-write-wins map and
// restarts a debounce timer on every event, so a burst of changes
// produces a single flush once the directory goes quiet. Files inside
// their cooldown window are rejected at record time and never enter
// the pending set.
//
// The Dispatcher takes a flushed batch, drops files that vanished
// since their event, renders one email, and hands it to the Sender.
// Cooldowns are stamped and the delivery is recorded in history only
// when the send succeeds; a failed send leaves the files eligible for
// the next change.
package notify
