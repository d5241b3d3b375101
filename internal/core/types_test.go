package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventCreateRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EventCreateRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *EventCreateRequest) {}},
		{name: "missing name", mutate: func(r *EventCreateRequest) { r.Name = "" }, wantErr: true},
		{name: "name too long", mutate: func(r *EventCreateRequest) { r.Name = strings.Repeat("x", 201) }, wantErr: true},
		{name: "missing start", mutate: func(r *EventCreateRequest) { r.StartAt = "" }, wantErr: true},
		{name: "missing timezone", mutate: func(r *EventCreateRequest) { r.Timezone = "" }, wantErr: true},
		{
			name: "bad meeting url",
			mutate: func(r *EventCreateRequest) {
				bad := "not a url"
				r.MeetingURL = &bad
			},
			wantErr: true,
		},
		{
			name: "geo address without place id",
			mutate: func(r *EventCreateRequest) {
				r.GeoAddress = &GeoAddress{Description: "somewhere"}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := EventCreateRequest{
				Name:     "Team Offsite",
				StartAt:  "2024-06-01T10:00:00Z",
				Timezone: "UTC",
			}
			tt.mutate(&req)
			err := req.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestEventCreateRequestGeoDefaultsToGoogle(t *testing.T) {
	req := EventCreateRequest{
		Name:       "Picnic",
		StartAt:    "2024-06-01T10:00:00Z",
		Timezone:   "UTC",
		GeoAddress: &GeoAddress{PlaceID: "ChIJabc"},
	}
	require.NoError(t, req.Validate())
	require.Equal(t, "google", req.GeoAddress.Type)
}

func TestEventCreateRequestPayloadOmitsUnset(t *testing.T) {
	req := EventCreateRequest{
		Name:     "Minimal",
		StartAt:  "2024-06-01T10:00:00Z",
		Timezone: "UTC",
	}
	payload := req.Payload()
	require.Equal(t, map[string]any{
		"name":     "Minimal",
		"start_at": "2024-06-01T10:00:00Z",
		"timezone": "UTC",
	}, payload)

	approval := true
	req.RequireRSVPApproval = &approval
	require.Equal(t, true, req.Payload()["require_rsvp_approval"])
}

func TestEventUpdateRequestPayloadOnlySetFields(t *testing.T) {
	newName := "Renamed"
	req := EventUpdateRequest{Name: &newName}
	require.NoError(t, req.Validate())
	require.Equal(t, map[string]any{"name": "Renamed"}, req.Payload())

	empty := EventUpdateRequest{}
	require.NoError(t, empty.Validate())
	require.Empty(t, empty.Payload())
}

func TestCreateFromTemplateRequestValidation(t *testing.T) {
	req := CreateFromTemplateRequest{
		TemplateType: "webinar",
		Name:         "Q3 Review",
		StartAt:      "2024-07-01T15:00:00Z",
		Timezone:     "UTC",
	}
	require.NoError(t, req.Validate())

	req.Name = ""
	require.Error(t, req.Validate())
}
