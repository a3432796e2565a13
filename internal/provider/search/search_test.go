package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
)

func TestMockServiceReturnsResults(t *testing.T) {
	svc := NewMockService()
	results, err := svc.Search(context.Background(), "quarterly report", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, results[0].Title, "quarterly report")
}

func TestSerperServiceSearch(t *testing.T) {
	// Given a fake serper endpoint
	var gotKey string
	var gotQuery serperRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotQuery))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"organic": []map[string]string{
				{"title": "Invoice guide", "link": "https://example.com/a", "snippet": "how to"},
				{"title": "Second hit", "link": "https://example.com/b", "snippet": "more"},
			},
		})
	}))
	defer server.Close()

	svc, err := NewSerperService(config.SerperConfig{APIKey: "key-123", Endpoint: server.URL})
	require.NoError(t, err)

	// When searching
	results, err := svc.Search(context.Background(), "invoice", 2)
	require.NoError(t, err)

	// Then the request carried the key and query, and hits are mapped
	assert.Equal(t, "key-123", gotKey)
	assert.Equal(t, "invoice", gotQuery.Query)
	require.Len(t, results, 2)
	assert.Equal(t, "Invoice guide", results[0].Title)
	assert.Equal(t, "https://example.com/a", results[0].URL)
}

func TestSerperServiceErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	svc, err := NewSerperService(config.SerperConfig{APIKey: "bad", Endpoint: server.URL})
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), "anything", 1)
	require.Error(t, err)
}

func TestSerperServiceRequiresKey(t *testing.T) {
	_, err := NewSerperService(config.SerperConfig{})
	require.Error(t, err)
}

func TestSerperServiceEmptyQuery(t *testing.T) {
	svc, err := NewSerperService(config.SerperConfig{APIKey: "k"})
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "", 1)
	require.Error(t, err)
}

func TestIndexServiceRoundTrip(t *testing.T) {
	svc, err := OpenIndexService(filepath.Join(t.TempDir(), "inventory.bleve"))
	require.NoError(t, err)
	defer svc.Close()

	require.NoError(t, svc.IndexFiles([]FileDoc{
		{Path: "/srv/docs/contract.pdf", Name: "contract.pdf", Category: "documents", Size: 1024, ModifiedAt: time.Now()},
		{Path: "/srv/pics/holiday.jpg", Name: "holiday.jpg", Category: "images", Size: 2048, ModifiedAt: time.Now()},
	}))

	count, err := svc.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	results, err := svc.Search(context.Background(), "contract", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "contract.pdf", results[0].Title)
	assert.Equal(t, "documents", results[0].Snippet)
	assert.Equal(t, "file:///srv/docs/contract.pdf", results[0].URL)
}

func TestNewSelectsProvider(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Search.Provider = "mock"
	svc, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", svc.Name())

	cfg.Search.Provider = "grep"
	_, err = New(cfg)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnknownProvider, errors.GetCode(err))
}
