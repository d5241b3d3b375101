package errors

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DataDrivenAngel/luma-mcp/internal/luma"
)

func TestFromUpstreamMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *luma.APIError
		wantCode   string
		wantStatus int
	}{
		{
			name:       "rate limit exhausted",
			err:        &luma.APIError{Kind: luma.KindRateLimit, Status: 429, Message: "rate limit exceeded and max retries reached"},
			wantCode:   "RATE_LIMIT_EXCEEDED",
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "timeout exhausted",
			err:        &luma.APIError{Kind: luma.KindTimeout, Message: "request timeout and max retries reached"},
			wantCode:   "REQUEST_TIMEOUT",
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "admission budget exhausted",
			err:        &luma.APIError{Kind: luma.KindAdmission, Message: "rate limiter wait budget exhausted"},
			wantCode:   "ADMISSION_TIMEOUT",
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "transport failure",
			err:        &luma.APIError{Kind: luma.KindTransport, Message: "connection refused"},
			wantCode:   "TRANSPORT_ERROR",
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "upstream 404 becomes not found",
			err:        &luma.APIError{Kind: luma.KindUpstream, Status: 404, Message: "event not found"},
			wantCode:   "NOT_FOUND",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "upstream 403 status preserved",
			err:        &luma.APIError{Kind: luma.KindUpstream, Status: 403, Message: "forbidden"},
			wantCode:   "UPSTREAM_ERROR",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "upstream 500 status preserved",
			err:        &luma.APIError{Kind: luma.KindUpstream, Status: 500, Message: "API Error: 500"},
			wantCode:   "UPSTREAM_ERROR",
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envelope := FromUpstream(context.Background(), tt.err)
			require.Equal(t, tt.wantCode, envelope.Code)
			require.Equal(t, tt.wantStatus, HTTPStatusFromEnvelope(envelope))
			require.NotEmpty(t, envelope.CorrelationID)
		})
	}
}

func TestEnsureEnvelopePassthrough(t *testing.T) {
	env := NewNotFoundError("missing")
	require.Same(t, env, EnsureEnvelope(env))
}

func TestEnsureEnvelopeWrapsPlainError(t *testing.T) {
	env := EnsureEnvelope(context.Canceled)
	require.Equal(t, "INTERNAL_ERROR", env.Code)
	require.Equal(t, context.Canceled.Error(), env.Context["wrapped_error"])
}

func TestHTTPStatusFromCodeDefaults(t *testing.T) {
	require.Equal(t, http.StatusInternalServerError, HTTPStatusFromCode("SOMETHING_ELSE"))
	require.Equal(t, http.StatusBadRequest, HTTPStatusFromCode("VALIDATION_FAILED"))
	require.Equal(t, http.StatusTooManyRequests, HTTPStatusFromCode("RATE_LIMIT_EXCEEDED"))
}
