// Package search answers queries through a pluggable provider: the
// serper provider calls the serper.dev web search API, the index
// provider queries the local file inventory index, and the mock
// provider returns canned results for tests.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Service answers search queries.
type Service interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)

	// Name identifies the provider in logs and status output.
	Name() string
}

// New creates the search service selected by the configuration.
func New(cfg *config.Config) (Service, error) {
	switch strings.ToLower(cfg.Search.Provider) {
	case "serper":
		return NewSerperService(cfg.Search.Serper)
	case "index":
		return OpenIndexService(cfg.Search.Index.Path)
	case "mock":
		return NewMockService(), nil
	default:
		return nil, errors.New(errors.ErrCodeUnknownProvider,
			fmt.Sprintf("unknown search provider: %s", cfg.Search.Provider), nil)
	}
}

// MockService returns deterministic results for tests.
type MockService struct{}

// NewMockService creates a mock search service.
func NewMockService() *MockService { return &MockService{} }

// Name implements Service.
func (m *MockService) Name() string { return "mock" }

// Search implements Service.
func (m *MockService) Search(_ context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 3
	}
	results := make([]Result, 0, limit)
	for i := 0; i < limit; i++ {
		results = append(results, Result{
			Title:   fmt.Sprintf("Result %d for %q", i+1, query),
			URL:     fmt.Sprintf("https://example.com/%d", i+1),
			Snippet: fmt.Sprintf("Mock snippet %d matching %s", i+1, query),
		})
	}
	return results, nil
}

var _ Service = (*MockService)(nil)
