// Package email delivers notification messages through a pluggable
// provider. The SMTP provider is the production path; the mock provider
// backs tests and dry runs.
package email

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
	"github.com/watchpost/watchpost/internal/notify"
)

// Service sends email messages. Implements notify.Sender.
type Service interface {
	Send(ctx context.Context, msg notify.Message) error

	// Name identifies the provider in logs and status output.
	Name() string
}

var recipientPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateRecipient checks one address against the accepted format.
func ValidateRecipient(addr string) error {
	if !recipientPattern.MatchString(addr) {
		return errors.New(errors.ErrCodeInvalidRecipient,
			fmt.Sprintf("invalid recipient address: %s", addr), nil)
	}
	return nil
}

// validateMessage applies the common message checks shared by
// providers. The recipient cap counts To, CC and BCC together.
func validateMessage(msg notify.Message, maxRecipients int) error {
	if len(msg.To) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "message has no recipients", nil)
	}
	total := len(msg.To) + len(msg.CC) + len(msg.BCC)
	if maxRecipients > 0 && total > maxRecipients {
		return errors.New(errors.ErrCodeTooManyRecipients,
			fmt.Sprintf("message has %d recipients, limit is %d", total, maxRecipients), nil)
	}
	for _, addrs := range [][]string{msg.To, msg.CC, msg.BCC} {
		for _, addr := range addrs {
			if err := ValidateRecipient(addr); err != nil {
				return err
			}
		}
	}
	if msg.From != "" {
		if err := ValidateRecipient(msg.From); err != nil {
			return err
		}
	}
	return nil
}

// New creates the email service selected by the configuration.
// WATCHPOST_EMAIL_PROVIDER has already been applied by config loading.
func New(cfg *config.Config) (Service, error) {
	switch strings.ToLower(cfg.Email.Provider) {
	case "smtp":
		return NewSMTPService(cfg.Email)
	case "mock":
		return NewMockService(cfg.Email.MaxRecipients), nil
	default:
		return nil, errors.New(errors.ErrCodeUnknownProvider,
			fmt.Sprintf("unknown email provider: %s", cfg.Email.Provider), nil)
	}
}
