package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Audit record status values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusSkipped = "skipped"
)

// Record is one entry in the change audit trail.
type Record struct {
	Timestamp time.Time         `json:"timestamp"`
	Component string            `json:"component"`
	Action    string            `json:"action"`
	Status    string            `json:"status"`
	Details   map[string]string `json:"details,omitempty"`
}

// Trail is an append-only JSONL audit log. Records are never rewritten or
// rotated away; the trail is the durable history of every watch decision.
// A nil *Trail is valid and discards all records, which keeps call sites
// unconditional.
type Trail struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenTrail opens (or creates) the audit trail at path in append mode.
func OpenTrail(path string) (*Trail, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit trail: %w", err)
	}

	return &Trail{path: path, file: f}, nil
}

// OpenDefaultTrail opens the audit trail at the default path.
func OpenDefaultTrail() (*Trail, error) {
	return OpenTrail(DefaultTrailPath())
}

// Path returns the trail file path.
func (t *Trail) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// Append writes one record to the trail. The timestamp is set here so
// callers only name what happened.
func (t *Trail) Append(component, action, status string, details map[string]string) error {
	if t == nil {
		return nil
	}
	return t.AppendRecord(Record{
		Timestamp: time.Now().UTC(),
		Component: component,
		Action:    action,
		Status:    status,
		Details:   details,
	})
}

// AppendRecord writes a fully-formed record to the trail.
func (t *Trail) AppendRecord(rec Record) error {
	if t == nil {
		return nil
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return fmt.Errorf("audit trail is closed")
	}
	if _, err := t.file.Write(data); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	// Each record is flushed so the trail survives a crash mid-batch.
	return t.file.Sync()
}

// Close closes the trail file. Further appends return an error.
func (t *Trail) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}

// Scope binds a component name so call sites don't repeat it.
type Scope struct {
	trail     *Trail
	component string
}

// For returns a Scope writing records under the given component name.
func (t *Trail) For(component string) *Scope {
	return &Scope{trail: t, component: component}
}

// Record appends one record under the scope's component.
func (s *Scope) Record(action, status string, details map[string]string) error {
	if s == nil {
		return nil
	}
	return s.trail.Append(s.component, action, status, details)
}
