package core

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GeoAddress is the location block attached to in-person events. The
// upstream expects a Google Places reference.
type GeoAddress struct {
	Type        string `json:"type" validate:"omitempty,max=50"`
	PlaceID     string `json:"place_id" validate:"required"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// EventCreateRequest is the inbound body for creating an event.
type EventCreateRequest struct {
	Name                string      `json:"name" validate:"required,min=1,max=200"`
	StartAt             string      `json:"start_at" validate:"required"`
	Timezone            string      `json:"timezone" validate:"required"`
	EndAt               *string     `json:"end_at,omitempty"`
	RequireRSVPApproval *bool       `json:"require_rsvp_approval,omitempty"`
	MeetingURL          *string     `json:"meeting_url,omitempty" validate:"omitempty,max=2000,url"`
	GeoAddress          *GeoAddress `json:"geo_address_json,omitempty" validate:"omitempty"`
}

// Validate checks field constraints, filling in the geo address type
// default first.
func (r *EventCreateRequest) Validate() error {
	r.normalize()
	return validate.Struct(r)
}

func (r *EventCreateRequest) normalize() {
	if r.GeoAddress != nil && r.GeoAddress.Type == "" {
		r.GeoAddress.Type = "google"
	}
}

// Payload builds the upstream request body, omitting unset optional
// fields so partial documents stay partial on the wire.
func (r *EventCreateRequest) Payload() map[string]any {
	payload := map[string]any{
		"name":     r.Name,
		"start_at": r.StartAt,
		"timezone": r.Timezone,
	}
	if r.EndAt != nil {
		payload["end_at"] = *r.EndAt
	}
	if r.RequireRSVPApproval != nil {
		payload["require_rsvp_approval"] = *r.RequireRSVPApproval
	}
	if r.MeetingURL != nil {
		payload["meeting_url"] = *r.MeetingURL
	}
	if r.GeoAddress != nil {
		payload["geo_address_json"] = r.GeoAddress.payload()
	}
	return payload
}

// EventUpdateRequest is the inbound body for updating an event. Every
// field is optional; only set fields are forwarded upstream.
type EventUpdateRequest struct {
	Name                *string     `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	StartAt             *string     `json:"start_at,omitempty"`
	Timezone            *string     `json:"timezone,omitempty"`
	EndAt               *string     `json:"end_at,omitempty"`
	RequireRSVPApproval *bool       `json:"require_rsvp_approval,omitempty"`
	MeetingURL          *string     `json:"meeting_url,omitempty" validate:"omitempty,max=2000,url"`
	GeoAddress          *GeoAddress `json:"geo_address_json,omitempty" validate:"omitempty"`
}

// Validate checks field constraints on the set fields.
func (r *EventUpdateRequest) Validate() error {
	if r.GeoAddress != nil && r.GeoAddress.Type == "" {
		r.GeoAddress.Type = "google"
	}
	return validate.Struct(r)
}

// Payload builds the upstream request body from the set fields.
func (r *EventUpdateRequest) Payload() map[string]any {
	payload := map[string]any{}
	if r.Name != nil {
		payload["name"] = *r.Name
	}
	if r.StartAt != nil {
		payload["start_at"] = *r.StartAt
	}
	if r.Timezone != nil {
		payload["timezone"] = *r.Timezone
	}
	if r.EndAt != nil {
		payload["end_at"] = *r.EndAt
	}
	if r.RequireRSVPApproval != nil {
		payload["require_rsvp_approval"] = *r.RequireRSVPApproval
	}
	if r.MeetingURL != nil {
		payload["meeting_url"] = *r.MeetingURL
	}
	if r.GeoAddress != nil {
		payload["geo_address_json"] = r.GeoAddress.payload()
	}
	return payload
}

func (g *GeoAddress) payload() map[string]any {
	out := map[string]any{
		"type":     g.Type,
		"place_id": g.PlaceID,
	}
	if g.Description != "" {
		out["description"] = g.Description
	}
	return out
}

// CreateFromTemplateRequest is the inbound body for creating an event
// from a catalog template.
type CreateFromTemplateRequest struct {
	TemplateType string      `json:"template_type" validate:"required"`
	Name         string      `json:"name" validate:"required,min=1,max=200"`
	StartAt      string      `json:"start_at" validate:"required"`
	Timezone     string      `json:"timezone" validate:"required"`
	MeetingURL   *string     `json:"meeting_url,omitempty" validate:"omitempty,max=2000,url"`
	GeoAddress   *GeoAddress `json:"geo_address_json,omitempty" validate:"omitempty"`
}

// Validate checks field constraints. Template existence is checked
// separately against the catalog.
func (r *CreateFromTemplateRequest) Validate() error {
	if r.GeoAddress != nil && r.GeoAddress.Type == "" {
		r.GeoAddress.Type = "google"
	}
	return validate.Struct(r)
}
