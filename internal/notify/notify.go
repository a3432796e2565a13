package notify

import (
	"context"
	"time"

	"github.com/watchpost/watchpost/internal/watcher"
)

// Change is one pending file change awaiting flush. When several events
// hit the same path within one debounce window, the latest one wins.
type Change struct {
	// Path is the absolute path of the changed file.
	Path string

	// Kind is the most recent operation observed for the path.
	Kind watcher.Operation

	// Size is the file size in bytes at observation time.
	Size int64

	// ObservedAt is when the winning event was recorded.
	ObservedAt time.Time
}

// Message is an outbound notification email. HTML, when set, is sent
// as an HTML alternative alongside the plain Body.
type Message struct {
	From        string
	To          []string
	CC          []string
	BCC         []string
	Subject     string
	Body        string
	HTML        string
	Attachments []string
}

// Sender delivers a notification message. Implementations handle their
// own retries; the dispatcher never retries a failed send.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Delivery is one row of notification history.
type Delivery struct {
	ID        string
	Directory string
	Recipient string
	Subject   string
	FileCount int
	Status    string
	Error     string
	SentAt    time.Time
}

// Delivery status values.
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// DeliveryRecorder persists delivery history rows.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, d Delivery) error
}

// Archiver copies a notified file into archive storage before the
// notification is sent. The returned key identifies the stored object.
type Archiver interface {
	Archive(ctx context.Context, path string) (string, error)
}
