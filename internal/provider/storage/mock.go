package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/watchpost/watchpost/internal/errors"
)

// MockService keeps objects in memory. Used in tests.
type MockService struct {
	mu      sync.Mutex
	objects map[string]mockObject
}

type mockObject struct {
	data       []byte
	modifiedAt time.Time
}

// NewMockService creates an empty in-memory store.
func NewMockService() *MockService {
	return &MockService{objects: make(map[string]mockObject)}
}

// Name implements Service.
func (m *MockService) Name() string { return "mock" }

// Upload implements Service.
func (m *MockService) Upload(_ context.Context, localPath, key string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", errors.New(errors.ErrCodeUploadFailed,
			fmt.Sprintf("failed to read %s", localPath), err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = mockObject{data: data, modifiedAt: time.Now()}
	return key, nil
}

// Download implements Service.
func (m *MockService) Download(_ context.Context, key, localPath string) error {
	m.mu.Lock()
	obj, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeFileNotFound,
			fmt.Sprintf("object not found: %s", key), nil)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	return os.WriteFile(localPath, obj.data, 0o644)
}

// List implements Service.
func (m *MockService) List(_ context.Context, prefix string) ([]Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Object
	for key, obj := range m.objects {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, Object{Key: key, Size: int64(len(obj.data)), ModifiedAt: obj.modifiedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Delete implements Service.
func (m *MockService) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return errors.New(errors.ErrCodeFileNotFound,
			fmt.Sprintf("object not found: %s", key), nil)
	}
	delete(m.objects, key)
	return nil
}

// URL implements Service.
func (m *MockService) URL(_ context.Context, key string, _ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return "", errors.New(errors.ErrCodeFileNotFound,
			fmt.Sprintf("object not found: %s", key), nil)
	}
	return "mock://" + key, nil
}

var _ Service = (*MockService)(nil)
