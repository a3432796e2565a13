package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
)

// SerperService queries the serper.dev web search API.
type SerperService struct {
	cfg     config.SerperConfig
	client  *http.Client
	breaker *errors.CircuitBreaker
}

// NewSerperService creates a serper-backed search service.
func NewSerperService(cfg config.SerperConfig) (*SerperService, error) {
	if cfg.APIKey == "" {
		return nil, errors.ConfigError("serper api key is not configured", nil)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://google.serper.dev/search"
	}
	return &SerperService{
		cfg:     cfg,
		client:  &http.Client{Timeout: 15 * time.Second},
		breaker: errors.NewCircuitBreaker("serper"),
	}, nil
}

// Name implements Service.
func (s *SerperService) Name() string { return "serper" }

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search implements Service. Repeated failures open the circuit breaker
// so a dead endpoint fails fast instead of stalling callers.
func (s *SerperService) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if query == "" {
		return nil, errors.ValidationError("search query must not be empty", nil)
	}

	var results []Result
	err := s.breaker.Execute(func() error {
		var err error
		results, err = s.doSearch(ctx, query, limit)
		return err
	})
	return results, err
}

func (s *SerperService) doSearch(ctx context.Context, query string, limit int) ([]Result, error) {
	payload, err := json.Marshal(serperRequest{Query: query, Num: limit})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.NetworkError("serper request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.NetworkError("failed to read serper response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NetworkError(
			fmt.Sprintf("serper returned status %d", resp.StatusCode), nil)
	}

	var parsed serperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse serper response: %w", err)
	}

	out := make([]Result, 0, len(parsed.Organic))
	for _, hit := range parsed.Organic {
		out = append(out, Result{Title: hit.Title, URL: hit.Link, Snippet: hit.Snippet})
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Service = (*SerperService)(nil)
