package signature

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchpost/watchpost/internal/config"
	"github.com/watchpost/watchpost/internal/errors"
)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contract.pdf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMockServiceLifecycle(t *testing.T) {
	svc := NewMockService()
	ctx := context.Background()
	doc := writeDoc(t, "contract body")

	// Send creates a request in sent state
	request, err := svc.Send(ctx, doc, []string{"signer@example.com"}, "Please sign")
	require.NoError(t, err)
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, StatusSent, request.Status)
	assert.Equal(t, "contract.pdf", request.Document)

	// Download before signing is rejected
	out := filepath.Join(t.TempDir(), "signed.pdf")
	err = svc.Download(ctx, request.ID, out)
	require.Error(t, err)

	// Once signed, the document downloads
	require.NoError(t, svc.Advance(request.ID, StatusSigned))
	status, err := svc.Status(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSigned, status.Status)

	require.NoError(t, svc.Download(ctx, request.ID, out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "contract body", string(data))

	// A signed request cannot be voided
	require.Error(t, svc.Void(ctx, request.ID, "changed my mind"))
}

func TestMockServiceVoid(t *testing.T) {
	svc := NewMockService()
	ctx := context.Background()

	request, err := svc.Send(ctx, writeDoc(t, "x"), []string{"signer@example.com"}, "s")
	require.NoError(t, err)

	require.NoError(t, svc.Void(ctx, request.ID, "obsolete"))
	status, err := svc.Status(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVoided, status.Status)
}

func TestMockServiceValidation(t *testing.T) {
	svc := NewMockService()
	ctx := context.Background()

	_, err := svc.Send(ctx, "", []string{"a@example.com"}, "s")
	require.Error(t, err)

	_, err = svc.Send(ctx, writeDoc(t, "x"), nil, "s")
	require.Error(t, err)

	_, err = svc.Status(ctx, "missing")
	require.Error(t, err)
}

func TestAPIServiceSend(t *testing.T) {
	// Given a fake signature backend
	var gotAuth string
	var gotPayload sendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/requests", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(Request{ID: "req-1", Status: StatusSent})
	}))
	defer server.Close()

	svc, err := NewAPIService(config.SignatureAPIConfig{BaseURL: server.URL, APIKey: "key-9"})
	require.NoError(t, err)

	doc := writeDoc(t, "contract body")
	request, err := svc.Send(context.Background(), doc, []string{"signer@example.com"}, "Please sign")
	require.NoError(t, err)

	assert.Equal(t, "req-1", request.ID)
	assert.Equal(t, "Bearer key-9", gotAuth)
	assert.Equal(t, "contract.pdf", gotPayload.Name)
	decoded, err := base64.StdEncoding.DecodeString(gotPayload.Content)
	require.NoError(t, err)
	assert.Equal(t, "contract body", string(decoded))
}

func TestAPIServiceDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/requests/req-1/document", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"content": base64.StdEncoding.EncodeToString([]byte("signed copy")),
		})
	}))
	defer server.Close()

	svc, err := NewAPIService(config.SignatureAPIConfig{BaseURL: server.URL, APIKey: "k"})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "signed.pdf")
	require.NoError(t, svc.Download(context.Background(), "req-1", out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "signed copy", string(data))
}

func TestAPIServiceErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc, err := NewAPIService(config.SignatureAPIConfig{BaseURL: server.URL, APIKey: "k"})
	require.NoError(t, err)

	_, err = svc.Status(context.Background(), "req-1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSignFailed, errors.GetCode(err))
}

func TestAPIServiceRequiresConfig(t *testing.T) {
	_, err := NewAPIService(config.SignatureAPIConfig{})
	require.Error(t, err)
}

func TestNewSelectsProvider(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Signature.Provider = "mock"
	svc, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", svc.Name())

	cfg.Signature.Provider = "fax"
	_, err = New(cfg)
	require.Error(t, err)
}
