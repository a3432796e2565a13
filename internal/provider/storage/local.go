package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/watchpost/watchpost/internal/errors"
)

// LocalService stores objects as plain files under a root directory.
// Keys map to relative paths; parent directories are created on demand.
type LocalService struct {
	root string
}

// NewLocalService creates a local storage service rooted at root.
func NewLocalService(root string) (*LocalService, error) {
	if root == "" {
		return nil, errors.ConfigError("local storage root is not configured", nil)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalService{root: abs}, nil
}

// Name implements Service.
func (s *LocalService) Name() string { return "local" }

// Root returns the absolute storage root.
func (s *LocalService) Root() string { return s.root }

// resolve maps a key to a path under the root, rejecting escapes.
func (s *LocalService) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", errors.New(errors.ErrCodeInvalidPath,
			fmt.Sprintf("invalid storage key: %s", key), nil)
	}
	return filepath.Join(s.root, clean), nil
}

// Upload implements Service.
func (s *LocalService) Upload(_ context.Context, localPath, key string) (string, error) {
	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}
	if err := copyFile(localPath, dst); err != nil {
		return "", errors.New(errors.ErrCodeUploadFailed,
			fmt.Sprintf("failed to store %s", key), err)
	}
	return key, nil
}

// Download implements Service.
func (s *LocalService) Download(_ context.Context, key, localPath string) error {
	src, err := s.resolve(key)
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); err != nil {
		return errors.New(errors.ErrCodeFileNotFound,
			fmt.Sprintf("object not found: %s", key), err)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	return copyFile(src, localPath)
}

// List implements Service.
func (s *LocalService) List(_ context.Context, prefix string) ([]Object, error) {
	var out []Object
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, Object{Key: key, Size: info.Size(), ModifiedAt: info.ModTime()})
		return nil
	})
	return out, err
}

// Delete implements Service.
func (s *LocalService) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.ErrCodeFileNotFound,
				fmt.Sprintf("object not found: %s", key), err)
		}
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// URL implements Service. Local objects get a file:// URL; expiry does
// not apply.
func (s *LocalService) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", errors.New(errors.ErrCodeFileNotFound,
			fmt.Sprintf("object not found: %s", key), err)
	}
	return "file://" + filepath.ToSlash(path), nil
}

// copyFile copies src to dst, preserving the file mode.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy contents: %w", err)
	}
	return out.Sync()
}

var _ Service = (*LocalService)(nil)
