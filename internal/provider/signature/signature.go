// Package signature sends documents for electronic signature through a
// pluggable provider. The api provider talks to a REST e-signature
// backend; the mock provider simulates the signing lifecycle in memory.
package signature

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
)

// Status is the lifecycle state of a signature request.
type Status string

const (
	StatusSent     Status = "sent"
	StatusViewed   Status = "viewed"
	StatusSigned   Status = "signed"
	StatusDeclined Status = "declined"
	StatusVoided   Status = "voided"
)

// Request is one signature request and its current state.
type Request struct {
	ID         string    `json:"id"`
	Document   string    `json:"document"`
	Subject    string    `json:"subject"`
	Recipients []string  `json:"recipients"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Service manages signature requests.
type Service interface {
	// Send submits a document for signing and returns the new request.
	Send(ctx context.Context, documentPath string, recipients []string, subject string) (*Request, error)

	// Status fetches the current state of a request.
	Status(ctx context.Context, id string) (*Request, error)

	// Download saves the signed document to localPath. Only valid once
	// the request is signed.
	Download(ctx context.Context, id, localPath string) error

	// Void cancels an outstanding request.
	Void(ctx context.Context, id, reason string) error

	// Name identifies the provider in logs and status output.
	Name() string
}

// New creates the signature service selected by the configuration.
func New(cfg *config.Config) (Service, error) {
	switch strings.ToLower(cfg.Signature.Provider) {
	case "api":
		return NewAPIService(cfg.Signature.API)
	case "mock":
		return NewMockService(), nil
	default:
		return nil, errors.New(errors.ErrCodeUnknownProvider,
			fmt.Sprintf("unknown signature provider: %s", cfg.Signature.Provider), nil)
	}
}

// validateSendArgs applies the checks shared by providers.
func validateSendArgs(documentPath string, recipients []string) error {
	if documentPath == "" {
		return errors.ValidationError("document path must not be empty", nil)
	}
	if len(recipients) == 0 {
		return errors.ValidationError("at least one recipient is required", nil)
	}
	return nil
}
