package email

import (
	"context"
	"log/slog"
	"sync"

	"github.com/watchpost/watchpost/internal/notify"
)

// MockService records messages instead of sending them. Used in tests
// and as the provider of last resort when no SMTP relay is configured.
type MockService struct {
	mu            sync.Mutex
	maxRecipients int
	sent          []notify.Message
	failWith      error
}

// NewMockService creates a mock email service.
func NewMockService(maxRecipients int) *MockService {
	return &MockService{maxRecipients: maxRecipients}
}

// Name implements Service.
func (m *MockService) Name() string { return "mock" }

// Send validates and records the message.
func (m *MockService) Send(_ context.Context, msg notify.Message) error {
	if err := validateMessage(msg, m.maxRecipients); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, msg)
	slog.Info("mock email recorded",
		slog.String("subject", msg.Subject),
		slog.Int("recipients", len(msg.To)))
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MockService) Sent() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.sent...)
}

// FailWith makes every subsequent Send return err; nil restores normal
// behavior.
func (m *MockService) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

var _ Service = (*MockService)(nil)
var _ notify.Sender = (*MockService)(nil)
