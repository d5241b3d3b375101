package metrics

import (
	"strconv"
	"time"

	"github.com/DataDrivenAngel/luma-mcp/internal/observability"
)

// Application-level metrics following Prometheus conventions. Upstream
// metrics describe the proxy's outbound Luma traffic; labels use
// trimmed endpoint forms to keep cardinality bounded.
var (
	UpstreamRequestsTotal         = "upstream_requests_total"
	UpstreamRequestDuration       = "upstream_request_duration_ms"
	UpstreamRetriesTotal          = "upstream_retries_total"
	UpstreamRetriesExhaustedTotal = "upstream_retries_exhausted_total"
	AdmissionTimeoutsTotal        = "ratelimiter_admission_timeouts_total"
	LimiterWaitDuration           = "ratelimiter_wait_ms"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordUpstreamRequest records one HTTP attempt against the Luma API.
// A status of 0 means no response was received.
func RecordUpstreamRequest(endpoint, method string, status int, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	labels := map[string]string{
		"endpoint": endpoint,
		"method":   method,
		"status":   strconv.Itoa(status),
	}

	_ = observability.TelemetrySystem.Counter(UpstreamRequestsTotal, 1, labels)
	_ = observability.TelemetrySystem.Histogram(UpstreamRequestDuration, duration, map[string]string{
		"endpoint": endpoint,
		"method":   method,
	})
}

// RecordUpstreamRetry records a scheduled retry and its reason
// (rate_limited or timeout).
func RecordUpstreamRetry(endpoint, reason string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			UpstreamRetriesTotal,
			1,
			map[string]string{
				"endpoint": endpoint,
				"reason":   reason,
			},
		)
	}
}

// RecordUpstreamRetriesExhausted records a logical operation that
// failed after its final retry.
func RecordUpstreamRetriesExhausted(endpoint, reason string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			UpstreamRetriesExhaustedTotal,
			1,
			map[string]string{
				"endpoint": endpoint,
				"reason":   reason,
			},
		)
	}
}

// RecordLimiterWait records how long a request waited for local
// rate-limiter admission before being allowed through.
func RecordLimiterWait(endpoint string, duration time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Histogram(
			LimiterWaitDuration,
			duration,
			map[string]string{"endpoint": endpoint},
		)
	}
}

// RecordAdmissionTimeout records a request that gave up waiting for
// local rate-limiter admission.
func RecordAdmissionTimeout(endpoint string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			AdmissionTimeoutsTotal,
			1,
			map[string]string{"endpoint": endpoint},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerUptime,
			float64(seconds),
			nil,
		)
	}
}
