package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDrivenAngel/luma-mcp/internal/core"
)

type fakeCreator struct {
	fn func(ctx context.Context, event map[string]any) (map[string]any, error)
}

func (f *fakeCreator) CreateEvent(ctx context.Context, event map[string]any) (map[string]any, error) {
	return f.fn(ctx, event)
}

func templatesRouter(creator EventCreator) http.Handler {
	h := &TemplatesHandler{Client: creator}
	r := chi.NewRouter()
	r.Get("/templates", h.List)
	r.Get("/templates/{type}", h.Get)
	r.Post("/templates/create", h.Create)
	return r
}

func TestListTemplatesReturnsCatalog(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/templates", nil)
	rec := httptest.NewRecorder()
	templatesRouter(nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var templates []core.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &templates))
	assert.Len(t, templates, 5)
}

func TestGetTemplateByType(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/templates/webinar", nil)
	rec := httptest.NewRecorder()
	templatesRouter(nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var tpl core.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tpl))
	assert.Equal(t, "Online Webinar", tpl.Name)
	assert.Equal(t, 1, tpl.DefaultDurationHours)
}

func TestGetTemplateUnknownTypeIs404(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/templates/hackathon", nil)
	rec := httptest.NewRecorder()
	templatesRouter(nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeErrorResponse(t, rec).Error.Code)
}

func TestCreateFromTemplateBuildsPayload(t *testing.T) {
	var captured map[string]any
	creator := &fakeCreator{
		fn: func(ctx context.Context, event map[string]any) (map[string]any, error) {
			captured = event
			return map[string]any{"api_id": "evt-1"}, nil
		},
	}

	body := bytes.NewBufferString(`{
		"template_type": "conference",
		"name": "DevOps Summit",
		"start_at": "2024-09-15T09:00:00Z",
		"timezone": "UTC"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/templates/create", body)
	rec := httptest.NewRecorder()
	templatesRouter(creator).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "DevOps Summit", captured["name"])
	assert.Equal(t, "2024-09-15T17:00:00Z", captured["end_at"])
	assert.Equal(t, true, captured["require_rsvp_approval"])
}

func TestCreateFromTemplateUnknownTemplateIs404(t *testing.T) {
	body := bytes.NewBufferString(`{
		"template_type": "hackathon",
		"name": "Nope",
		"start_at": "2024-09-15T09:00:00Z",
		"timezone": "UTC"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/templates/create", body)
	rec := httptest.NewRecorder()
	templatesRouter(nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateFromTemplateBadStartIs400(t *testing.T) {
	body := bytes.NewBufferString(`{
		"template_type": "meetup",
		"name": "Broken",
		"start_at": "next tuesday",
		"timezone": "UTC"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/templates/create", body)
	rec := httptest.NewRecorder()
	templatesRouter(nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
