package signature

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/watchpost/watchpost/internal/errors"
)

// MockService simulates the signing lifecycle in memory. Requests start
// as sent; tests advance them with Advance.
type MockService struct {
	mu       sync.Mutex
	requests map[string]*Request
	docs     map[string][]byte
}

// NewMockService creates an empty mock signature service.
func NewMockService() *MockService {
	return &MockService{
		requests: make(map[string]*Request),
		docs:     make(map[string][]byte),
	}
}

// Name implements Service.
func (m *MockService) Name() string { return "mock" }

// Send implements Service.
func (m *MockService) Send(_ context.Context, documentPath string, recipients []string, subject string) (*Request, error) {
	if err := validateSendArgs(documentPath, recipients); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(documentPath)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to read document %s", documentPath), err)
	}

	now := time.Now().UTC()
	request := &Request{
		ID:         uuid.NewString(),
		Document:   filepath.Base(documentPath),
		Subject:    subject,
		Recipients: append([]string(nil), recipients...),
		Status:     StatusSent,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[request.ID] = request
	m.docs[request.ID] = content

	copied := *request
	return &copied, nil
}

// Status implements Service.
func (m *MockService) Status(_ context.Context, id string) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeSignFailed,
			fmt.Sprintf("signature request not found: %s", id), nil)
	}
	copied := *request
	return &copied, nil
}

// Download implements Service. The "signed" copy is the original bytes.
func (m *MockService) Download(_ context.Context, id, localPath string) error {
	m.mu.Lock()
	request, ok := m.requests[id]
	var content []byte
	if ok {
		content = m.docs[id]
	}
	m.mu.Unlock()

	if !ok {
		return errors.New(errors.ErrCodeSignFailed,
			fmt.Sprintf("signature request not found: %s", id), nil)
	}
	if request.Status != StatusSigned {
		return errors.New(errors.ErrCodeSignFailed,
			fmt.Sprintf("request %s is %s, not signed", id, request.Status), nil)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	return os.WriteFile(localPath, content, 0o644)
}

// Void implements Service.
func (m *MockService) Void(_ context.Context, id, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok {
		return errors.New(errors.ErrCodeSignFailed,
			fmt.Sprintf("signature request not found: %s", id), nil)
	}
	if request.Status == StatusSigned {
		return errors.New(errors.ErrCodeSignFailed,
			"cannot void a signed request", nil)
	}
	request.Status = StatusVoided
	request.UpdatedAt = time.Now().UTC()
	return nil
}

// Advance moves a request to the given status. Test hook.
func (m *MockService) Advance(id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("signature request not found: %s", id)
	}
	request.Status = status
	request.UpdatedAt = time.Now().UTC()
	return nil
}

var _ Service = (*MockService)(nil)
