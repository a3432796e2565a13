package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message/mail"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
	"github.com/watchpost/watchpost/internal/logging"
)

// FetchedMessage is the metadata saved alongside attachments.
type FetchedMessage struct {
	UID         uint32    `json:"uid"`
	From        string    `json:"from"`
	Subject     string    `json:"subject"`
	Date        time.Time `json:"date"`
	Attachments []string  `json:"attachments"`
}

// FetchReport summarizes one fetch run.
type FetchReport struct {
	Messages           int      `json:"messages"`
	Saved              []string `json:"saved"`
	SkippedAttachments int      `json:"skipped_attachments"`
}

// Fetcher downloads filtered messages and attachments from the mailbox.
type Fetcher struct {
	cfg   config.MailboxConfig
	audit *logging.Scope
}

// NewFetcher creates a fetcher. The trail may be nil.
func NewFetcher(cfg config.MailboxConfig, trail *logging.Trail) *Fetcher {
	return &Fetcher{cfg: cfg, audit: trail.For("fetcher")}
}

// Fetch pulls matching messages and saves their attachments under the
// configured output directory. Each message also gets a JSON metadata
// file next to its attachments.
func (f *Fetcher) Fetch(ctx context.Context) (*FetchReport, error) {
	c, err := dial(f.cfg.IMAP)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select(f.cfg.IMAP.Mailbox, true); err != nil {
		return nil, errors.New(errors.ErrCodeFetchFailed,
			fmt.Sprintf("failed to select mailbox %s", f.cfg.IMAP.Mailbox), err)
	}

	uids, err := f.searchUIDs(c)
	if err != nil {
		return nil, err
	}

	report := &FetchReport{}
	if len(uids) == 0 {
		return report, nil
	}

	if err := os.MkdirAll(f.cfg.Fetch.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, messages)
	}()

	for msg := range messages {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}
		if msg.Envelope == nil {
			continue
		}
		if !subjectMatches(msg.Envelope.Subject, f.cfg.Fetch.SubjectContains) {
			continue
		}

		saved, skipped := f.saveMessage(msg, section)
		report.Messages++
		report.Saved = append(report.Saved, saved...)
		report.SkippedAttachments += skipped
	}

	if err := <-done; err != nil {
		return report, errors.New(errors.ErrCodeFetchFailed, "imap fetch failed", err)
	}

	_ = f.audit.Record("fetch", logging.StatusSuccess, map[string]string{
		"messages": fmt.Sprintf("%d", report.Messages),
		"saved":    fmt.Sprintf("%d", len(report.Saved)),
	})
	return report, nil
}

// searchUIDs builds the server-side search from the fetch filters.
// With multiple senders the per-sender results are unioned, mirroring
// an OR the protocol cannot express directly.
func (f *Fetcher) searchUIDs(c imapSearcher) ([]uint32, error) {
	base := func() *imap.SearchCriteria {
		criteria := imap.NewSearchCriteria()
		if f.cfg.Fetch.DaysBack > 0 {
			criteria.Since = time.Now().AddDate(0, 0, -f.cfg.Fetch.DaysBack)
		}
		return criteria
	}

	if len(f.cfg.Fetch.Senders) == 0 {
		uids, err := c.UidSearch(base())
		if err != nil {
			return nil, errors.New(errors.ErrCodeFetchFailed, "imap search failed", err)
		}
		return uids, nil
	}

	seen := make(map[uint32]bool)
	var out []uint32
	for _, sender := range f.cfg.Fetch.Senders {
		criteria := base()
		criteria.Header.Add("From", sender)
		uids, err := c.UidSearch(criteria)
		if err != nil {
			return nil, errors.New(errors.ErrCodeFetchFailed, "imap search failed", err)
		}
		for _, uid := range uids {
			if !seen[uid] {
				seen[uid] = true
				out = append(out, uid)
			}
		}
	}
	return out, nil
}

// imapSearcher is the slice of the IMAP client the search needs.
type imapSearcher interface {
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
}

// saveMessage writes the message's allowed attachments and a metadata
// JSON file. Returns saved paths and the skipped-attachment count.
func (f *Fetcher) saveMessage(msg *imap.Message, section *imap.BodySectionName) ([]string, int) {
	meta := FetchedMessage{
		UID:     msg.Uid,
		From:    addressString(msg.Envelope.From),
		Subject: msg.Envelope.Subject,
		Date:    msg.Envelope.Date,
	}

	var saved []string
	skipped := 0

	body := msg.GetBody(section)
	if body != nil {
		mr, err := mail.CreateReader(body)
		if err != nil {
			slog.Warn("failed to parse message body",
				slog.Uint64("uid", uint64(msg.Uid)),
				slog.String("error", err.Error()))
		} else {
			for {
				part, err := mr.NextPart()
				if err == io.EOF {
					break
				}
				if err != nil {
					break
				}
				header, ok := part.Header.(*mail.AttachmentHeader)
				if !ok {
					continue
				}
				name, _ := header.Filename()
				if name == "" {
					continue
				}

				data, err := io.ReadAll(part.Body)
				if err != nil {
					skipped++
					continue
				}
				maxSize := int64(f.cfg.Fetch.MaxAttachmentSizeMB) * 1024 * 1024
				if !attachmentAllowed(name, int64(len(data)), f.cfg.Fetch.AttachmentTypes, maxSize) {
					skipped++
					_ = f.audit.Record("attachment", logging.StatusSkipped, map[string]string{
						"name":   name,
						"reason": "type or size filter",
					})
					continue
				}

				path := uniquePath(f.cfg.Fetch.OutputDir, filepath.Base(name))
				if err := os.WriteFile(path, data, 0o644); err != nil {
					slog.Warn("failed to save attachment",
						slog.String("name", name),
						slog.String("error", err.Error()))
					skipped++
					continue
				}
				saved = append(saved, path)
				meta.Attachments = append(meta.Attachments, filepath.Base(path))
			}
		}
	}

	f.writeMetadata(meta)
	return saved, skipped
}

// writeMetadata saves the message descriptor as msg_<uid>.json.
func (f *Fetcher) writeMetadata(meta FetchedMessage) {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(f.cfg.Fetch.OutputDir, fmt.Sprintf("msg_%d.json", meta.UID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Warn("failed to save message metadata",
			slog.Uint64("uid", uint64(meta.UID)),
			slog.String("error", err.Error()))
	}
}

// uniquePath returns dir/name, or the first name_N variant not yet taken.
func uniquePath(dir, name string) string {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
