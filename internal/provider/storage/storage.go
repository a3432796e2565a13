// Package storage archives and serves files through a pluggable object
// store. The local provider writes under a root directory, the s3
// provider talks to any S3-compatible endpoint, and the mock provider
// keeps objects in memory for tests.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
)

// Object describes one stored object.
type Object struct {
	Key        string    `json:"key"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Service is the object storage interface.
type Service interface {
	// Upload stores the local file under key and returns the key.
	Upload(ctx context.Context, localPath, key string) (string, error)

	// Download copies the object at key to localPath.
	Download(ctx context.Context, key, localPath string) error

	// List returns objects whose keys start with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error

	// URL returns a retrieval URL for key, valid for expiry where the
	// backend supports expiring links.
	URL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Name identifies the provider in logs and status output.
	Name() string
}

// New creates the storage service selected by the configuration.
func New(cfg *config.Config) (Service, error) {
	switch strings.ToLower(cfg.Storage.Provider) {
	case "local":
		return NewLocalService(cfg.Storage.Local.Root)
	case "s3":
		return NewS3Service(cfg.Storage.S3)
	case "mock":
		return NewMockService(), nil
	default:
		return nil, errors.New(errors.ErrCodeUnknownProvider,
			fmt.Sprintf("unknown storage provider: %s", cfg.Storage.Provider), nil)
	}
}

// Archiver adapts a storage service to the notify.Archiver interface,
// filing each archived copy under a date-stamped key.
type Archiver struct {
	store Service
	now   func() time.Time
}

// NewArchiver creates an archiver writing through the given store.
func NewArchiver(store Service) *Archiver {
	return &Archiver{store: store, now: time.Now}
}

// Archive uploads the file under archive/<date>/<name> and returns the key.
func (a *Archiver) Archive(ctx context.Context, path string) (string, error) {
	key := fmt.Sprintf("archive/%s/%s", a.now().UTC().Format("2006-01-02"), filepath.Base(path))
	return a.store.Upload(ctx, path, key)
}
