package signature

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
)

// APIService talks to a REST e-signature backend. Documents go up
// base64-encoded in JSON; signed copies come back the same way.
type APIService struct {
	cfg    config.SignatureAPIConfig
	client *http.Client
}

// NewAPIService creates an API-backed signature service.
func NewAPIService(cfg config.SignatureAPIConfig) (*APIService, error) {
	if cfg.BaseURL == "" {
		return nil, errors.ConfigError("signature base_url is not configured", nil)
	}
	if cfg.APIKey == "" {
		return nil, errors.ConfigError("signature api_key is not configured", nil)
	}
	return &APIService{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Name implements Service.
func (s *APIService) Name() string { return "api" }

func (s *APIService) url(path string) string {
	return strings.TrimRight(s.cfg.BaseURL, "/") + path
}

// do sends one JSON request and decodes the JSON response into out.
func (s *APIService) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url(path), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.NetworkError("signature request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return errors.NetworkError("failed to read signature response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New(errors.ErrCodeSignFailed,
			fmt.Sprintf("signature backend returned status %d", resp.StatusCode), nil)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse signature response: %w", err)
		}
	}
	return nil
}

type sendRequest struct {
	Name       string   `json:"name"`
	Subject    string   `json:"subject"`
	Content    string   `json:"content"`
	Recipients []string `json:"recipients"`
}

// Send implements Service.
func (s *APIService) Send(ctx context.Context, documentPath string, recipients []string, subject string) (*Request, error) {
	if err := validateSendArgs(documentPath, recipients); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(documentPath)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to read document %s", documentPath), err)
	}

	var request Request
	err = s.do(ctx, http.MethodPost, "/requests", sendRequest{
		Name:       filepath.Base(documentPath),
		Subject:    subject,
		Content:    base64.StdEncoding.EncodeToString(content),
		Recipients: recipients,
	}, &request)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Status implements Service.
func (s *APIService) Status(ctx context.Context, id string) (*Request, error) {
	if id == "" {
		return nil, errors.ValidationError("request id must not be empty", nil)
	}
	var request Request
	if err := s.do(ctx, http.MethodGet, "/requests/"+id, nil, &request); err != nil {
		return nil, err
	}
	return &request, nil
}

// Download implements Service.
func (s *APIService) Download(ctx context.Context, id, localPath string) error {
	if id == "" {
		return errors.ValidationError("request id must not be empty", nil)
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := s.do(ctx, http.MethodGet, "/requests/"+id+"/document", nil, &payload); err != nil {
		return err
	}

	data, err := base64.StdEncoding.DecodeString(payload.Content)
	if err != nil {
		return errors.New(errors.ErrCodeSignFailed, "signed document payload is not valid base64", err)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	return os.WriteFile(localPath, data, 0o644)
}

// Void implements Service.
func (s *APIService) Void(ctx context.Context, id, reason string) error {
	if id == "" {
		return errors.ValidationError("request id must not be empty", nil)
	}
	return s.do(ctx, http.MethodPost, "/requests/"+id+"/void", map[string]string{
		"reason": reason,
	}, nil)
}

var _ Service = (*APIService)(nil)
