package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/watchpost/watchpost/internal/errors"
	"github.com/watchpost/watchpost/internal/logging"
	"github.com/watchpost/watchpost/internal/watcher"
)

// DispatcherConfig wires one dispatcher to its directory and services.
type DispatcherConfig struct {
	// Directory is the absolute path of the watched directory.
	Directory string

	// NotifyEmail is the recipient address.
	NotifyEmail string

	// FromEmail is the sender address; falls back to NotifyEmail.
	FromEmail string

	// Sender delivers the rendered message. Required when SendEmail.
	Sender Sender

	// Cooldowns is stamped on successful delivery.
	Cooldowns *CooldownRegistry

	// History records deliveries; nil disables history.
	History DeliveryRecorder

	// Archiver copies changed files to storage before sending; nil
	// disables archiving.
	Archiver Archiver

	// Trail is the audit trail; nil discards records.
	Trail *logging.Trail

	// SendEmail false turns flushes into log-only batches.
	SendEmail bool

	// SendTimeout bounds one delivery attempt. Default 60s.
	SendTimeout time.Duration
}

// Dispatcher renders and delivers one notification per flushed batch.
type Dispatcher struct {
	cfg   DispatcherConfig
	audit *logging.Scope
}

// NewDispatcher creates a dispatcher for one watched directory.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.NotifyEmail
	}
	if cfg.SendTimeout == 0 {
		cfg.SendTimeout = 60 * time.Second
	}
	return &Dispatcher{
		cfg:   cfg,
		audit: cfg.Trail.For("dispatcher"),
	}
}

// Dispatch delivers one notification for a flushed batch. Changes whose
// files vanished between event and flush are dropped first; if nothing
// survives, no message is sent. A failed send is not retried here and
// leaves cooldowns unstamped, so the files notify again on their next
// change.
func (d *Dispatcher) Dispatch(changes []Change) {
	changes = d.filterVanished(changes)
	if len(changes) == 0 {
		_ = d.audit.Record("dispatch", logging.StatusSkipped, map[string]string{
			"directory": d.cfg.Directory,
			"reason":    "no surviving changes",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	if d.cfg.Archiver != nil {
		d.archive(ctx, changes)
	}

	msg := d.buildMessage(changes)

	if !d.cfg.SendEmail {
		// Log-only mode still stamps cooldowns so a quiet config does
		// not report the same change on every debounce window.
		slog.Info("change notification (email disabled)",
			slog.String("directory", d.cfg.Directory),
			slog.Int("files", len(changes)))
		d.complete(ctx, changes, msg, nil)
		return
	}

	err := d.cfg.Sender.Send(ctx, msg)
	d.complete(ctx, changes, msg, err)
}

// filterVanished drops create/modify changes whose file no longer
// exists. Deletes and renames describe absent files and pass through.
func (d *Dispatcher) filterVanished(changes []Change) []Change {
	kept := changes[:0]
	for _, c := range changes {
		if c.Kind == watcher.OpCreate || c.Kind == watcher.OpModify {
			if _, err := os.Stat(c.Path); err != nil {
				_ = d.audit.Record("dispatch", logging.StatusSkipped, map[string]string{
					"path":   c.Path,
					"code":   errors.ErrCodeFileVanished,
					"reason": "file vanished before flush",
				})
				continue
			}
		}
		kept = append(kept, c)
	}
	return kept
}

// archive copies surviving files into storage. Archive failures are
// logged and do not block the notification.
func (d *Dispatcher) archive(ctx context.Context, changes []Change) {
	for _, c := range changes {
		if _, err := os.Stat(c.Path); err != nil {
			continue
		}
		key, err := d.cfg.Archiver.Archive(ctx, c.Path)
		if err != nil {
			slog.Warn("failed to archive changed file",
				slog.String("path", c.Path),
				slog.String("error", err.Error()))
			continue
		}
		slog.Debug("archived changed file",
			slog.String("path", c.Path),
			slog.String("key", key))
	}
}

// buildMessage renders the notification email for a batch.
func (d *Dispatcher) buildMessage(changes []Change) Message {
	subject := fmt.Sprintf("File changes detected in %s", filepath.Base(d.cfg.Directory))

	var body strings.Builder
	fmt.Fprintf(&body, "The following file changes were detected in %s at %s:\n\n",
		d.cfg.Directory, time.Now().Format(time.RFC1123))
	// Deletes and renames describe files that no longer exist at their
	// recorded path, so only create/modify changes are attached.
	var attachments []string
	for _, c := range changes {
		fmt.Fprintf(&body, "  - %s (%s, %.1f KB)\n",
			filepath.Base(c.Path), c.Kind, float64(c.Size)/1024)
		if c.Kind == watcher.OpCreate || c.Kind == watcher.OpModify {
			attachments = append(attachments, c.Path)
		}
	}
	fmt.Fprintf(&body, "\nTotal: %d file(s)\n", len(changes))

	return Message{
		From:        d.cfg.FromEmail,
		To:          []string{d.cfg.NotifyEmail},
		Subject:     subject,
		Body:        body.String(),
		Attachments: attachments,
	}
}

// complete stamps cooldowns and records history according to the send
// outcome. sendErr nil means the batch was delivered (or email is off).
func (d *Dispatcher) complete(ctx context.Context, changes []Change, msg Message, sendErr error) {
	delivery := Delivery{
		ID:        uuid.NewString(),
		Directory: d.cfg.Directory,
		Recipient: d.cfg.NotifyEmail,
		Subject:   msg.Subject,
		FileCount: len(changes),
		SentAt:    time.Now().UTC(),
	}

	if sendErr != nil {
		delivery.Status = DeliveryFailed
		delivery.Error = sendErr.Error()

		slog.Error("notification send failed",
			slog.String("directory", d.cfg.Directory),
			slog.Int("files", len(changes)),
			slog.String("error", sendErr.Error()))
		_ = d.audit.Record("dispatch", logging.StatusFailure, map[string]string{
			"directory": d.cfg.Directory,
			"code":      errors.ErrCodeSendFailed,
			"error":     sendErr.Error(),
		})
	} else {
		delivery.Status = DeliverySent
		for _, c := range changes {
			d.cfg.Cooldowns.Mark(c.Path)
		}

		slog.Info("notification dispatched",
			slog.String("directory", d.cfg.Directory),
			slog.String("to", d.cfg.NotifyEmail),
			slog.Int("files", len(changes)))
		_ = d.audit.Record("dispatch", logging.StatusSuccess, map[string]string{
			"directory": d.cfg.Directory,
			"to":        d.cfg.NotifyEmail,
			"files":     fmt.Sprintf("%d", len(changes)),
		})
	}

	if d.cfg.History != nil {
		if err := d.cfg.History.RecordDelivery(ctx, delivery); err != nil {
			slog.Warn("failed to record delivery history",
				slog.String("error", err.Error()))
		}
	}
}
