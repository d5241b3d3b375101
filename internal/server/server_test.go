package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DataDrivenAngel/luma-mcp/internal/config"
	apperrors "github.com/DataDrivenAngel/luma-mcp/internal/errors"
	"github.com/DataDrivenAngel/luma-mcp/internal/luma"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Luma.APIKey = "test-key"

	client, err := luma.New(luma.Config{
		APIKey:    "test-key",
		ReadLimit: luma.TierLimit{MaxRequests: 100, Window: time.Minute},
		WriteLimit: luma.TierLimit{
			MaxRequests: 100,
			Window:      time.Minute,
		},
	}, nil, nil)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	return New(cfg, client, nil)
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected error code NOT_FOUND, got %s", body.Error.Code)
	}
}

func TestServerRejectsUnknownMethod(t *testing.T) {
	srv := testServer(t)

	req := httptest.NewRequest(http.MethodPatch, "/events", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Error.Code != "METHOD_NOT_ALLOWED" {
		t.Fatalf("expected error code METHOD_NOT_ALLOWED, got %s", body.Error.Code)
	}
}
