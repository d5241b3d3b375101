package luma

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Event CRUD operations. Each is a thin wrapper issuing exactly one
// logical call through the retry/admission machinery; payloads and
// responses are opaque structured documents owned by the callers.

// CreateEvent creates a new event.
func (c *Client) CreateEvent(ctx context.Context, event map[string]any) (map[string]any, error) {
	return c.request(ctx, http.MethodPost, "event/create", event)
}

// GetEvent fetches event details by ID.
func (c *Client) GetEvent(ctx context.Context, eventID string) (map[string]any, error) {
	return c.request(ctx, http.MethodGet, "event/get/"+url.PathEscape(eventID), nil)
}

// UpdateEvent updates an existing event.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, event map[string]any) (map[string]any, error) {
	return c.request(ctx, http.MethodPut, "event/update/"+url.PathEscape(eventID), event)
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) (map[string]any, error) {
	return c.request(ctx, http.MethodDelete, "event/delete/"+url.PathEscape(eventID), nil)
}

// ListEvents lists the authenticated user's events.
func (c *Client) ListEvents(ctx context.Context, limit, offset int) (map[string]any, error) {
	endpoint := "user/events"
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	return c.request(ctx, http.MethodGet, endpoint, nil)
}

// GetSelf returns the authenticated user. Doubles as the upstream
// connectivity probe for health checks.
func (c *Client) GetSelf(ctx context.Context) (map[string]any, error) {
	return c.request(ctx, http.MethodGet, "user/get-self", nil)
}

// CreateTicketType creates a ticket type for an event.
func (c *Client) CreateTicketType(ctx context.Context, eventID string, ticket map[string]any) (map[string]any, error) {
	payload := map[string]any{"event_id": eventID}
	for k, v := range ticket {
		payload[k] = v
	}
	return c.request(ctx, http.MethodPost, "event/ticket-types/create", payload)
}
