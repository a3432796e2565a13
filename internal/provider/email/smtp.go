package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mail "github.com/wneessen/go-mail"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
	"github.com/watchpost/watchpost/internal/notify"
)

// SMTPService sends mail through an SMTP relay using go-mail.
type SMTPService struct {
	cfg    config.EmailConfig
	client *mail.Client
}

// NewSMTPService creates an SMTP-backed email service.
func NewSMTPService(cfg config.EmailConfig) (*SMTPService, error) {
	if cfg.SMTP.Host == "" {
		return nil, errors.ConfigError("smtp host is not configured", nil)
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTP.Port),
		mail.WithTimeout(cfg.SMTP.Timeout()),
	}
	if cfg.SMTP.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTP.Username),
			mail.WithPassword(cfg.SMTP.Password),
		)
	}
	if cfg.SMTP.UseSSL {
		// Implicit TLS, port 465 style.
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.SMTP.Host, opts...)
	if err != nil {
		return nil, errors.NetworkError("failed to create smtp client", err)
	}

	return &SMTPService{cfg: cfg, client: client}, nil
}

// Name implements Service.
func (s *SMTPService) Name() string { return "smtp" }

// Send validates, renders and delivers one message, retrying transient
// failures with exponential backoff up to the configured attempts.
func (s *SMTPService) Send(ctx context.Context, msg notify.Message) error {
	if err := validateMessage(msg, s.cfg.MaxRecipients); err != nil {
		return err
	}

	m := mail.NewMsg()
	from := msg.From
	if from == "" {
		from = s.cfg.SMTP.Username
	}
	if err := m.From(from); err != nil {
		return errors.New(errors.ErrCodeInvalidRecipient,
			fmt.Sprintf("invalid from address: %s", from), err)
	}
	if err := m.To(msg.To...); err != nil {
		return errors.New(errors.ErrCodeInvalidRecipient, "invalid recipient address", err)
	}
	if len(msg.CC) > 0 {
		if err := m.Cc(msg.CC...); err != nil {
			return errors.New(errors.ErrCodeInvalidRecipient, "invalid cc address", err)
		}
	}
	if len(msg.BCC) > 0 {
		if err := m.Bcc(msg.BCC...); err != nil {
			return errors.New(errors.ErrCodeInvalidRecipient, "invalid bcc address", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	for _, path := range msg.Attachments {
		m.AttachFile(path)
	}

	retry := errors.RetryConfig{
		MaxRetries:   s.cfg.SMTP.RetryAttempts,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}

	err := errors.Retry(ctx, retry, func() error {
		if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
			slog.Warn("smtp send attempt failed",
				slog.String("host", s.cfg.SMTP.Host),
				slog.String("error", err.Error()))
			return err
		}
		return nil
	})
	if err != nil {
		return errors.New(errors.ErrCodeSendFailed,
			fmt.Sprintf("smtp send to %v failed", msg.To), err)
	}

	slog.Debug("smtp message delivered",
		slog.String("host", s.cfg.SMTP.Host),
		slog.Int("recipients", len(msg.To)),
		slog.Int("attachments", len(msg.Attachments)))
	return nil
}

var _ Service = (*SMTPService)(nil)
var _ notify.Sender = (*SMTPService)(nil)
