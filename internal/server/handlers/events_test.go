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

	apperrors "github.com/DataDrivenAngel/luma-mcp/internal/errors"
	"github.com/DataDrivenAngel/luma-mcp/internal/luma"
)

type fakeEventsAPI struct {
	createFn func(ctx context.Context, event map[string]any) (map[string]any, error)
	getFn    func(ctx context.Context, eventID string) (map[string]any, error)
	updateFn func(ctx context.Context, eventID string, event map[string]any) (map[string]any, error)
	deleteFn func(ctx context.Context, eventID string) (map[string]any, error)
	listFn   func(ctx context.Context, limit, offset int) (map[string]any, error)
}

func (f *fakeEventsAPI) CreateEvent(ctx context.Context, event map[string]any) (map[string]any, error) {
	return f.createFn(ctx, event)
}

func (f *fakeEventsAPI) GetEvent(ctx context.Context, eventID string) (map[string]any, error) {
	return f.getFn(ctx, eventID)
}

func (f *fakeEventsAPI) UpdateEvent(ctx context.Context, eventID string, event map[string]any) (map[string]any, error) {
	return f.updateFn(ctx, eventID, event)
}

func (f *fakeEventsAPI) DeleteEvent(ctx context.Context, eventID string) (map[string]any, error) {
	return f.deleteFn(ctx, eventID)
}

func (f *fakeEventsAPI) ListEvents(ctx context.Context, limit, offset int) (map[string]any, error) {
	return f.listFn(ctx, limit, offset)
}

func eventsRouter(api EventsAPI) http.Handler {
	h := &EventsHandler{Client: api}
	r := chi.NewRouter()
	r.Post("/events", h.Create)
	r.Get("/events", h.List)
	r.Get("/events/{id}", h.Get)
	r.Put("/events/{id}", h.Update)
	r.Delete("/events/{id}", h.Delete)
	return r
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) apperrors.HTTPErrorResponse {
	t.Helper()
	var resp apperrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateEventForwardsValidatedPayload(t *testing.T) {
	var captured map[string]any
	api := &fakeEventsAPI{
		createFn: func(ctx context.Context, event map[string]any) (map[string]any, error) {
			captured = event
			return map[string]any{"api_id": "evt-1"}, nil
		},
	}

	body := bytes.NewBufferString(`{"name":"Launch Party","start_at":"2024-06-01T10:00:00Z","timezone":"UTC"}`)
	req := httptest.NewRequest(http.MethodPost, "/events", body)
	rec := httptest.NewRecorder()
	eventsRouter(api).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Launch Party", captured["name"])
	assert.NotContains(t, captured, "meeting_url")
}

func TestCreateEventRejectsInvalidBody(t *testing.T) {
	api := &fakeEventsAPI{
		createFn: func(ctx context.Context, event map[string]any) (map[string]any, error) {
			t.Fatal("client must not be called on validation failure")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(`{"name":""}`))
	rec := httptest.NewRecorder()
	eventsRouter(api).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeErrorResponse(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}

func TestGetEventNotFoundMapsToEnvelope(t *testing.T) {
	api := &fakeEventsAPI{
		getFn: func(ctx context.Context, eventID string) (map[string]any, error) {
			return nil, &luma.APIError{Kind: luma.KindUpstream, Status: 404, Message: "event not found"}
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/events/evt-missing", nil)
	rec := httptest.NewRecorder()
	eventsRouter(api).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeErrorResponse(t, rec)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "event not found", resp.Error.Message)
}

func TestGetEventRateLimitMapsTo429(t *testing.T) {
	api := &fakeEventsAPI{
		getFn: func(ctx context.Context, eventID string) (map[string]any, error) {
			return nil, &luma.APIError{Kind: luma.KindRateLimit, Status: 429, Message: "rate limit exceeded and max retries reached"}
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/events/evt-1", nil)
	rec := httptest.NewRecorder()
	eventsRouter(api).ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decodeErrorResponse(t, rec).Error.Code)
}

func TestUpdateEventForwardsOnlySetFields(t *testing.T) {
	var captured map[string]any
	api := &fakeEventsAPI{
		updateFn: func(ctx context.Context, eventID string, event map[string]any) (map[string]any, error) {
			require.Equal(t, "evt-7", eventID)
			captured = event
			return map[string]any{"api_id": eventID}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPut, "/events/evt-7", bytes.NewBufferString(`{"name":"Renamed"}`))
	rec := httptest.NewRecorder()
	eventsRouter(api).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"name": "Renamed"}, captured)
}

func TestDeleteEventRespondsWithConfirmation(t *testing.T) {
	api := &fakeEventsAPI{
		deleteFn: func(ctx context.Context, eventID string) (map[string]any, error) {
			return map[string]any{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/events/evt-9", nil)
	rec := httptest.NewRecorder()
	eventsRouter(api).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Event deleted successfully", body["message"])
}

func TestListEventsValidatesPagination(t *testing.T) {
	api := &fakeEventsAPI{
		listFn: func(ctx context.Context, limit, offset int) (map[string]any, error) {
			return map[string]any{"entries": []any{}}, nil
		},
	}
	router := eventsRouter(api)

	tests := []struct {
		query    string
		wantCode int
	}{
		{"", http.StatusOK},
		{"?limit=100&offset=5", http.StatusOK},
		{"?limit=0", http.StatusBadRequest},
		{"?limit=101", http.StatusBadRequest},
		{"?limit=abc", http.StatusBadRequest},
		{"?offset=-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run("query "+tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/events"+tt.query, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestListEventsUsesDefaults(t *testing.T) {
	var gotLimit, gotOffset int
	api := &fakeEventsAPI{
		listFn: func(ctx context.Context, limit, offset int) (map[string]any, error) {
			gotLimit, gotOffset = limit, offset
			return map[string]any{"entries": []any{}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	eventsRouter(api).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, gotLimit)
	assert.Equal(t, 0, gotOffset)
}

func TestGetEventTimeoutMapsToGatewayTimeout(t *testing.T) {
	api := &fakeEventsAPI{
		getFn: func(ctx context.Context, eventID string) (map[string]any, error) {
			return nil, &luma.APIError{Kind: luma.KindTimeout, Message: "request timeout and max retries reached"}
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/events/evt-1", nil)
	rec := httptest.NewRecorder()
	eventsRouter(api).ServeHTTP(rec, req)

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "REQUEST_TIMEOUT", decodeErrorResponse(t, rec).Error.Code)
}
