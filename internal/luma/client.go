package luma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/DataDrivenAngel/luma-mcp/internal/metrics"
	"github.com/DataDrivenAngel/luma-mcp/internal/ratelimit"
)

const (
	defaultBaseURL    = "https://api.lu.ma"
	defaultAPIVersion = "public/v1"
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3

	apiKeyHeader = "x-luma-api-key"
)

// TierLimit is the quota applied to one traffic tier.
type TierLimit struct {
	MaxRequests   int
	Window        time.Duration
	BlockDuration time.Duration
}

// Config carries the settings the client needs from the environment.
type Config struct {
	APIKey        string
	BaseURL       string
	APIVersion    string
	Timeout       time.Duration
	MaxRetries    int
	BackoffFactor float64
	ReadLimit     TierLimit
	WriteLimit    TierLimit
}

// Client issues authenticated, rate-limited requests against the Luma
// API. GET traffic is admitted by ReadLimiter, mutating traffic by the
// stricter WriteLimiter; both are shared, process-wide instances passed
// in at construction so tests can substitute deterministic clocks.
type Client struct {
	APIKey        string
	BaseURL       string
	APIVersion    string
	HTTPClient    *http.Client
	ReadLimiter   *ratelimit.Limiter
	WriteLimiter  *ratelimit.Limiter
	ReadLimit     TierLimit
	WriteLimit    TierLimit
	MaxRetries    int
	BackoffFactor float64
	Timeout       time.Duration
	Logger        *logging.Logger
	Clock         func() time.Time
	Sleep         func(ctx context.Context, d time.Duration) error
}

// New builds a client from config, failing fast when the API key is
// absent. Nil limiters get fresh instances sharing the client's backoff
// factor.
func New(cfg Config, read, write *ratelimit.Limiter) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	if read == nil {
		read = &ratelimit.Limiter{BackoffFactor: cfg.BackoffFactor}
	}
	if write == nil {
		write = &ratelimit.Limiter{BackoffFactor: cfg.BackoffFactor}
	}

	return &Client{
		APIKey:        cfg.APIKey,
		BaseURL:       cfg.BaseURL,
		APIVersion:    cfg.APIVersion,
		ReadLimiter:   read,
		WriteLimiter:  write,
		ReadLimit:     cfg.ReadLimit,
		WriteLimit:    cfg.WriteLimit,
		MaxRetries:    cfg.MaxRetries,
		BackoffFactor: cfg.BackoffFactor,
		Timeout:       cfg.Timeout,
	}, nil
}

// request performs one logical upstream operation as an explicit
// attempt loop. Worst case latency is (maxRetries+1) attempts x
// (per-attempt timeout + capped backoff), plus up to the limiter's
// admission budget ahead of each attempt.
func (c *Client) request(ctx context.Context, method, endpoint string, payload any) (map[string]any, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	limiter, limit := c.tier(method)

	// Rate-limit buckets key on the endpoint path; query parameters do
	// not split buckets.
	key := endpoint
	if i := strings.IndexByte(key, '?'); i >= 0 {
		key = key[:i]
	}

	for attempt := 0; ; attempt++ {
		waitStart := c.now()
		if err := limiter.WaitUntilAdmitted(ctx, key, limit.MaxRequests, limit.Window); err != nil {
			if errors.Is(err, ratelimit.ErrAdmissionTimeout) {
				metrics.RecordAdmissionTimeout(metricEndpoint(key))
				return nil, &APIError{Kind: KindAdmission, Message: "rate limiter wait budget exhausted", Err: err}
			}
			return nil, err
		}
		metrics.RecordLimiterWait(metricEndpoint(key), c.now().Sub(waitStart))
		limiter.RecordRequest(key)

		result, retry, err := c.attempt(ctx, method, endpoint, key, payload)
		if err == nil && retry == "" {
			return result, nil
		}
		if retry == "" {
			return nil, err
		}

		// Retryable: 429 or local timeout.
		if attempt >= c.maxRetries() {
			metrics.RecordUpstreamRetriesExhausted(metricEndpoint(key), string(retry))
			switch retry {
			case retryRateLimited:
				return nil, &APIError{Kind: KindRateLimit, Status: http.StatusTooManyRequests, Message: "rate limit exceeded and max retries reached"}
			default:
				return nil, &APIError{Kind: KindTimeout, Message: "request timeout and max retries reached", Err: err}
			}
		}

		backoff := ratelimit.Backoff(c.backoffFactor(), attempt)
		c.logRetry(endpoint, method, string(retry), attempt, backoff)
		metrics.RecordUpstreamRetry(metricEndpoint(key), string(retry))
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
}

type retryReason string

const (
	retryRateLimited retryReason = "rate_limited"
	retryTimeout     retryReason = "timeout"
)

// attempt issues a single HTTP call. A non-empty retry reason means the
// caller should back off and try again; otherwise err (if any) is
// terminal.
func (c *Client) attempt(ctx context.Context, method, endpoint, key string, payload any) (map[string]any, retryReason, error) {
	var body *bytes.Reader
	if payload != nil && (method == http.MethodPost || method == http.MethodPut) {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, "", &APIError{Kind: KindTransport, Message: "failed to encode request payload", Err: err}
		}
		body = bytes.NewReader(encoded)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(attemptCtx, method, c.endpointURL(endpoint), body)
	} else {
		req, err = http.NewRequestWithContext(attemptCtx, method, c.endpointURL(endpoint), nil)
	}
	if err != nil {
		return nil, "", &APIError{Kind: KindTransport, Message: "failed to build request", Err: err}
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set(apiKeyHeader, c.APIKey)

	start := c.now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// The logical operation itself was cancelled.
			return nil, "", ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, retryTimeout, err
		}
		metrics.RecordUpstreamRequest(metricEndpoint(key), method, 0, c.now().Sub(start))
		return nil, "", &APIError{Kind: KindTransport, Message: "request failed: " + err.Error(), Err: err}
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	metrics.RecordUpstreamRequest(metricEndpoint(key), method, resp.StatusCode, c.now().Sub(start))

	if resp.StatusCode == http.StatusTooManyRequests {
		if wait := retryAfterHeader(resp); wait > 0 {
			// Upstream told us how long to stand down: hard-block the
			// key so concurrent callers stop hammering it too.
			limiter, _ := c.tier(method)
			limiter.BlockKey(key, wait)
		}
		return nil, retryRateLimited, nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		message, details := decodeErrorBody(resp)
		return nil, "", &APIError{
			Kind:    KindUpstream,
			Status:  resp.StatusCode,
			Message: message,
			Details: details,
		}
	}

	result := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// Tolerate empty bodies (e.g. delete responses); anything else
		// malformed on a success status is an upstream defect.
		if errors.Is(err, io.EOF) {
			return result, "", nil
		}
		return nil, "", &APIError{Kind: KindUpstream, Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return result, "", nil
}

// decodeErrorBody extracts a human-readable message and raw details
// from an error response, falling back to a generic message when the
// body is not parseable JSON.
func decodeErrorBody(resp *http.Response) (string, map[string]any) {
	fallback := fmt.Sprintf("API Error: %d", resp.StatusCode)

	var details map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil || details == nil {
		return fallback, nil
	}
	if msg, ok := details["message"].(string); ok && msg != "" {
		return msg, details
	}
	return fallback, details
}

// retryAfterHeader interprets the Retry-After header as either seconds
// or an HTTP date.
func retryAfterHeader(resp *http.Response) time.Duration {
	retry := resp.Header.Get("Retry-After")
	if retry == "" {
		return 0
	}
	if seconds, err := time.ParseDuration(retry + "s"); err == nil {
		return seconds
	}
	if parsed, err := http.ParseTime(retry); err == nil {
		return time.Until(parsed)
	}
	return 0
}

// metricEndpoint trims identifier segments so metric labels stay
// low-cardinality ("event/get/abc123" -> "event/get").
func metricEndpoint(key string) string {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) > 2 {
		return parts[0] + "/" + parts[1]
	}
	return key
}

func (c *Client) tier(method string) (*ratelimit.Limiter, TierLimit) {
	if method == http.MethodGet {
		return c.ReadLimiter, c.ReadLimit
	}
	return c.WriteLimiter, c.WriteLimit
}

func (c *Client) endpointURL(endpoint string) string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	version := strings.Trim(c.APIVersion, "/")
	if version == "" {
		version = defaultAPIVersion
	}
	return base + "/" + version + "/" + strings.TrimPrefix(endpoint, "/")
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func (c *Client) maxRetries() int {
	if c.MaxRetries > 0 {
		return c.MaxRetries
	}
	return defaultMaxRetries
}

func (c *Client) backoffFactor() float64 {
	if c.BackoffFactor > 0 {
		return c.BackoffFactor
	}
	return 2
}

func (c *Client) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) logRetry(endpoint, method, reason string, attempt int, backoff time.Duration) {
	if c.Logger == nil {
		return
	}
	c.Logger.Warn("Retrying upstream request",
		zap.String("endpoint", endpoint),
		zap.String("method", method),
		zap.String("reason", reason),
		zap.Int("attempt", attempt),
		zap.Duration("backoff", backoff))
}
