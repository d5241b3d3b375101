package luma

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("luma: api key is required")

// ErrUnsupportedMethod is returned for methods outside GET/POST/PUT/DELETE.
// This is a caller bug, never retried.
var ErrUnsupportedMethod = errors.New("luma: unsupported http method")

// ErrorKind classifies terminal request failures.
type ErrorKind string

const (
	// KindRateLimit: upstream returned 429 and retries are exhausted.
	KindRateLimit ErrorKind = "rate_limit_exceeded"

	// KindTimeout: the per-attempt timeout fired and retries are exhausted.
	KindTimeout ErrorKind = "request_timeout"

	// KindUpstream: any other non-success upstream response.
	KindUpstream ErrorKind = "upstream_error"

	// KindTransport: the request never produced an HTTP response.
	KindTransport ErrorKind = "transport_error"

	// KindAdmission: the local rate limiter wait budget ran out before
	// the request was ever issued.
	KindAdmission ErrorKind = "admission_timeout"
)

// APIError is the terminal failure of one logical upstream operation.
// Retryable conditions (429, local timeout) surface as an APIError only
// after the dispatcher has exhausted its retries.
type APIError struct {
	Kind    ErrorKind
	Status  int            // upstream HTTP status, 0 when no response was received
	Message string
	Details map[string]any // parsed upstream error body, when parseable
	Err     error          // underlying cause for transport/timeout failures
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("luma: %s (status %d)", e.Message, e.Status)
	}
	return "luma: " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AsAPIError unwraps err into an APIError, reporting whether it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
