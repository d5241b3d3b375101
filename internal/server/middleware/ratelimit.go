package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"golang.org/x/time/rate"
)

const clientLimiterTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// InboundLimiter applies a per-client token bucket keyed by the
// request's remote IP. It protects the proxy itself; the upstream
// quotas are enforced separately by the outbound client.
type InboundLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rps     rate.Limit
	burst   int
}

// NewInboundLimiter builds a limiter allowing rps requests per second
// with the given burst per client.
func NewInboundLimiter(rps float64, burst int) *InboundLimiter {
	return &InboundLimiter{
		clients: make(map[string]*clientLimiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// Handler is the chi middleware enforcing the per-client limit.
func (l *InboundLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientKey(r)) {
			envelope := errors.NewErrorEnvelope("RATE_LIMIT_EXCEEDED", "Too many requests from this client").
				WithCorrelationID(GetRequestID(r.Context()))
			writeErrorResponse(w, envelope, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *InboundLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	client, ok := l.clients[key]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = client
		l.pruneLocked(now)
	}
	client.lastSeen = now
	return client.limiter.Allow()
}

// pruneLocked drops buckets idle past the TTL so the map stays bounded.
func (l *InboundLimiter) pruneLocked(now time.Time) {
	for key, client := range l.clients {
		if now.Sub(client.lastSeen) > clientLimiterTTL {
			delete(l.clients, key)
		}
	}
}

// clientKey prefers the IP RealIP already resolved into RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
