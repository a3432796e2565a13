// Package history persists notification delivery history in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/watchpost/watchpost/internal/errors"
	"github.com/watchpost/watchpost/internal/notify"
)

// Store is a SQLite-backed delivery history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// SQLite allows one writer; keep the pool honest about that.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, errors.New(errors.ErrCodeHistoryCorrupt, "history schema init failed", err)
	}

	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS deliveries (
		id TEXT PRIMARY KEY,
		directory TEXT NOT NULL,
		recipient TEXT NOT NULL,
		subject TEXT NOT NULL,
		file_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		sent_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deliveries_sent_at ON deliveries(sent_at DESC);
	CREATE INDEX IF NOT EXISTS idx_deliveries_status ON deliveries(status);
	CREATE INDEX IF NOT EXISTS idx_deliveries_directory ON deliveries(directory);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// RecordDelivery inserts one delivery row. Implements notify.DeliveryRecorder.
func (s *Store) RecordDelivery(ctx context.Context, d notify.Delivery) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries (id, directory, recipient, subject, file_count, status, error, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Directory, d.Recipient, d.Subject, d.FileCount, d.Status, d.Error,
		d.SentAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// Recent returns the newest deliveries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]notify.Delivery, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx, `
		SELECT id, directory, recipient, subject, file_count, status, error, sent_at
		FROM deliveries ORDER BY sent_at DESC LIMIT ?
	`, limit)
}

// Failed returns the newest failed deliveries, most recent first.
func (s *Store) Failed(ctx context.Context, limit int) ([]notify.Delivery, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.query(ctx, `
		SELECT id, directory, recipient, subject, file_count, status, error, sent_at
		FROM deliveries WHERE status = ? ORDER BY sent_at DESC LIMIT ?
	`, notify.DeliveryFailed, limit)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]notify.Delivery, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var out []notify.Delivery
	for rows.Next() {
		var d notify.Delivery
		var sentAt string
		if err := rows.Scan(&d.ID, &d.Directory, &d.Recipient, &d.Subject,
			&d.FileCount, &d.Status, &d.Error, &sentAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, sentAt); err == nil {
			d.SentAt = ts
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountsByDirectory returns sent/failed totals per watched directory.
func (s *Store) CountsByDirectory(ctx context.Context) (map[string]DirectoryCounts, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT directory, status, COUNT(*) FROM deliveries GROUP BY directory, status
	`)
	if err != nil {
		return nil, fmt.Errorf("count deliveries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]DirectoryCounts)
	for rows.Next() {
		var directory, status string
		var count int
		if err := rows.Scan(&directory, &status, &count); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		counts := out[directory]
		switch status {
		case notify.DeliverySent:
			counts.Sent = count
		case notify.DeliveryFailed:
			counts.Failed = count
		}
		out[directory] = counts
	}
	return out, rows.Err()
}

// DirectoryCounts aggregates delivery outcomes for one directory.
type DirectoryCounts struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Prune deletes rows older than the retention window and returns the
// number removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `DELETE FROM deliveries WHERE sent_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
