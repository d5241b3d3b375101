package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DataDrivenAngel/luma-mcp/internal/core"
	apperrors "github.com/DataDrivenAngel/luma-mcp/internal/errors"
)

// EventsAPI is the slice of the upstream client the event handlers use.
type EventsAPI interface {
	CreateEvent(ctx context.Context, event map[string]any) (map[string]any, error)
	GetEvent(ctx context.Context, eventID string) (map[string]any, error)
	UpdateEvent(ctx context.Context, eventID string, event map[string]any) (map[string]any, error)
	DeleteEvent(ctx context.Context, eventID string) (map[string]any, error)
	ListEvents(ctx context.Context, limit, offset int) (map[string]any, error)
}

// EventsHandler proxies event CRUD to the upstream API. Request bodies
// are validated locally; upstream responses pass through untouched.
type EventsHandler struct {
	Client EventsAPI
}

// Create handles POST /events
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req core.EventCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Request body is not valid JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, r, apperrors.WrapValidationError(r.Context(), err, "Event validation failed"))
		return
	}

	result, err := h.Client.CreateEvent(r.Context(), req.Payload())
	if err != nil {
		respondWithError(w, r, apperrors.FromUpstream(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// Get handles GET /events/{id}
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if eventID == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("Event ID is required"))
		return
	}

	result, err := h.Client.GetEvent(r.Context(), eventID)
	if err != nil {
		respondWithError(w, r, apperrors.FromUpstream(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Update handles PUT /events/{id}
func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if eventID == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("Event ID is required"))
		return
	}

	var req core.EventUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Request body is not valid JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, r, apperrors.WrapValidationError(r.Context(), err, "Event validation failed"))
		return
	}

	result, err := h.Client.UpdateEvent(r.Context(), eventID, req.Payload())
	if err != nil {
		respondWithError(w, r, apperrors.FromUpstream(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /events/{id}
func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")
	if eventID == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("Event ID is required"))
		return
	}

	if _, err := h.Client.DeleteEvent(r.Context(), eventID); err != nil {
		respondWithError(w, r, apperrors.FromUpstream(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Event deleted successfully"})
}

// List handles GET /events
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondWithError(w, r, apperrors.NewValidationError("Limit must be between 1 and 100"))
			return
		}
		limit = parsed
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, r, apperrors.NewValidationError("Offset must be non-negative"))
			return
		}
		offset = parsed
	}

	result, err := h.Client.ListEvents(r.Context(), limit, offset)
	if err != nil {
		respondWithError(w, r, apperrors.FromUpstream(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
