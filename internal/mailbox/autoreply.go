package mailbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message/mail"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
	"github.com/watchpost/watchpost/internal/logging"
	"github.com/watchpost/watchpost/internal/notify"
)

// AutoReplier polls the mailbox and answers new messages while running.
// Messages already unseen when it starts are left alone, as is mail
// from the account's own address.
type AutoReplier struct {
	cfg     config.MailboxConfig
	sender  notify.Sender
	audit   *logging.Scope
	breaker *errors.CircuitBreaker

	mu        sync.Mutex
	processed map[uint32]bool
	started   bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewAutoReplier creates an auto-replier sending through the given
// sender. The trail may be nil.
func NewAutoReplier(cfg config.MailboxConfig, sender notify.Sender, trail *logging.Trail) *AutoReplier {
	return &AutoReplier{
		cfg:       cfg,
		sender:    sender,
		audit:     trail.For("autoreply"),
		breaker:   errors.NewCircuitBreaker("autoreply"),
		processed: make(map[uint32]bool),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start snapshots the currently-unseen messages so only mail arriving
// after this point is answered, then begins polling.
func (a *AutoReplier) Start() error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = true
	a.mu.Unlock()

	initial, err := a.unseenUIDs()
	if err != nil {
		return err
	}
	a.mu.Lock()
	for _, uid := range initial {
		a.processed[uid] = true
	}
	a.mu.Unlock()

	go a.run()
	return nil
}

func (a *AutoReplier) run() {
	defer close(a.doneCh)

	ticker := time.NewTicker(a.cfg.AutoReply.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			if err := a.poll(); err != nil {
				slog.Warn("auto-reply poll failed",
					slog.String("error", err.Error()))
			}
		}
	}
}

// Stop halts polling and waits for the loop to exit.
func (a *AutoReplier) Stop() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	select {
	case <-a.stopCh:
	default:
		close(a.stopCh)
	}
	<-a.doneCh
}

// unseenUIDs returns the UIDs currently flagged unseen.
func (a *AutoReplier) unseenUIDs() ([]uint32, error) {
	c, err := dial(a.cfg.IMAP)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select(a.cfg.IMAP.Mailbox, true); err != nil {
		return nil, errors.New(errors.ErrCodeFetchFailed, "failed to select mailbox", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	return c.UidSearch(criteria)
}

// poll answers every unseen message not yet processed.
func (a *AutoReplier) poll() error {
	c, err := dial(a.cfg.IMAP)
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select(a.cfg.IMAP.Mailbox, false); err != nil {
		return errors.New(errors.ErrCodeFetchFailed, "failed to select mailbox", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return errors.New(errors.ErrCodeFetchFailed, "imap search failed", err)
	}

	a.mu.Lock()
	var fresh []uint32
	for _, uid := range uids {
		if !a.processed[uid] {
			fresh = append(fresh, uid)
		}
	}
	a.mu.Unlock()
	if len(fresh) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(fresh...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, messages)
	}()

	var answered []uint32
	for msg := range messages {
		if msg.Envelope == nil {
			continue
		}
		from := addressString(msg.Envelope.From)

		a.mu.Lock()
		a.processed[msg.Uid] = true
		a.mu.Unlock()

		// Never answer our own mail; that way lies a reply loop.
		if strings.EqualFold(from, a.cfg.IMAP.Username) || from == "" {
			continue
		}

		body := extractText(msg.GetBody(section))
		reply := BuildReply(a.cfg.IMAP.Username, from, msg.Envelope.Subject, body, a.cfg.AutoReply.Signature)

		err := a.breaker.Execute(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return a.sender.Send(ctx, reply)
		})
		if err != nil {
			slog.Warn("auto-reply send failed",
				slog.String("to", from),
				slog.String("error", err.Error()))
			_ = a.audit.Record("reply", logging.StatusFailure, map[string]string{
				"to":    from,
				"error": err.Error(),
			})
			continue
		}

		answered = append(answered, msg.Uid)
		_ = a.audit.Record("reply", logging.StatusSuccess, map[string]string{
			"to":      from,
			"subject": reply.Subject,
		})
	}
	if err := <-done; err != nil {
		return errors.New(errors.ErrCodeFetchFailed, "imap fetch failed", err)
	}

	// Mark answered messages seen so they don't surface again.
	if len(answered) > 0 {
		marked := new(imap.SeqSet)
		marked.AddNum(answered...)
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := c.UidStore(marked, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			slog.Warn("failed to mark messages seen",
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// BuildReply renders the acknowledgment for one inbound message.
func BuildReply(ownAddr, to, subject, originalBody, signature string) notify.Message {
	replySubject := subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		replySubject = "Re: " + subject
	}

	var body strings.Builder
	body.WriteString("Hello,\n\n")
	body.WriteString("Thank you for your message. This is an automated acknowledgment; ")
	body.WriteString("it will be reviewed shortly.\n")
	if signature != "" {
		fmt.Fprintf(&body, "\n%s\n", signature)
	}
	if originalBody != "" {
		body.WriteString("\n--- Original Message ---\n")
		for _, line := range strings.Split(strings.TrimRight(originalBody, "\n"), "\n") {
			fmt.Fprintf(&body, "> %s\n", line)
		}
	}

	return notify.Message{
		From:    ownAddr,
		To:      []string{to},
		Subject: replySubject,
		Body:    body.String(),
	}
}

// extractText pulls the first text part out of a message body.
func extractText(r io.Reader) string {
	if r == nil {
		return ""
	}
	mr, err := mail.CreateReader(r)
	if err != nil {
		return ""
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return ""
		}
		if err != nil {
			return ""
		}
		if _, ok := part.Header.(*mail.InlineHeader); ok {
			data, err := io.ReadAll(part.Body)
			if err != nil {
				return ""
			}
			return string(data)
		}
	}
}
