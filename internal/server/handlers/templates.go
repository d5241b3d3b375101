package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DataDrivenAngel/luma-mcp/internal/core"
	apperrors "github.com/DataDrivenAngel/luma-mcp/internal/errors"
)

// EventCreator is the slice of the upstream client template creation uses.
type EventCreator interface {
	CreateEvent(ctx context.Context, event map[string]any) (map[string]any, error)
}

// TemplatesHandler serves the fixed template catalog and creates events
// from templates.
type TemplatesHandler struct {
	Client EventCreator
}

// List handles GET /templates
func (h *TemplatesHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.Templates())
}

// Get handles GET /templates/{type}
func (h *TemplatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	templateType := chi.URLParam(r, "type")
	tpl, ok := core.TemplateByType(templateType)
	if !ok {
		respondWithError(w, r, apperrors.NewNotFoundError("Template not found"))
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

// Create handles POST /templates/create
func (h *TemplatesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req core.CreateFromTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Request body is not valid JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		respondWithError(w, r, apperrors.WrapValidationError(r.Context(), err, "Template request validation failed"))
		return
	}

	tpl, ok := core.TemplateByType(req.TemplateType)
	if !ok {
		respondWithError(w, r, apperrors.NewNotFoundError("Template not found"))
		return
	}

	payload, err := core.BuildEventPayload(tpl, req)
	if err != nil {
		respondWithError(w, r, apperrors.WrapValidationError(r.Context(), err, "Invalid start_at format"))
		return
	}

	result, err := h.Client.CreateEvent(r.Context(), payload)
	if err != nil {
		respondWithError(w, r, apperrors.FromUpstream(r.Context(), err))
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
