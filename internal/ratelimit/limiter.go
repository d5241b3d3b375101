package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

const (
	// maxBackoff caps a single backoff sleep for blocked keys.
	maxBackoff = 5 * time.Minute

	// pollInterval is the fixed wait between admission checks for keys
	// that are over quota but not blocked.
	pollInterval = time.Second

	// maxAdmissionWait bounds the cumulative time a caller may spend
	// waiting for admission on one key.
	maxAdmissionWait = 10 * time.Minute

	defaultBackoffFactor = 2.0
)

// ErrAdmissionTimeout is returned when a caller exhausts the cumulative
// wait budget without being admitted.
var ErrAdmissionTimeout = errors.New("rate limiter admission timeout")

// Limiter is a sliding-window-log rate limiter with per-key hard blocks.
// One instance governs one traffic tier; keys identify endpoints within
// the tier. The zero value is usable. Safe for concurrent use.
type Limiter struct {
	// BackoffFactor escalates the sleep applied to blocked keys.
	// Zero means the default of 2.
	BackoffFactor float64

	// Clock reports the current time. Nil means time.Now in UTC.
	Clock func() time.Time

	// Sleep suspends the caller for the given duration, honoring ctx
	// cancellation. Nil means a timer-backed default. Tests inject a
	// recording stub so no real delays occur.
	Sleep func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	requests     map[string][]time.Time
	blockedUntil map[string]time.Time
}

// CanMakeRequest reports whether a request on key is currently admitted
// given the tier quota. Blocked keys are never admitted. Entries older
// than the window are pruned before counting, so repeated calls without
// an intervening RecordRequest are idempotent.
func (l *Limiter) CanMakeRequest(key string, maxRequests int, window time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.blockedLocked(key) {
		return false
	}

	l.pruneLocked(key, window)
	return len(l.requests[key]) < maxRequests
}

// RecordRequest records an issued request against key. Callers must
// record immediately after actually issuing an admitted request;
// admission checks alone never record.
func (l *Limiter) RecordRequest(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.requests == nil {
		l.requests = make(map[string][]time.Time)
	}
	l.requests[key] = append(l.requests[key], l.now())
}

// BlockKey forbids requests on key for the given duration, irrespective
// of window occupancy.
func (l *Limiter) BlockKey(key string, d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.blockedUntil == nil {
		l.blockedUntil = make(map[string]time.Time)
	}
	l.blockedUntil[key] = l.now().Add(d)
}

// WaitUntilAdmitted suspends the caller until a request on key is
// admitted. Blocked keys sleep an escalating backoff derived from the
// observed request log; keys that are merely over quota poll at a fixed
// interval. Returns ErrAdmissionTimeout once the cumulative wait budget
// is exhausted, or the context error if ctx is cancelled mid-wait.
// Admission is first-ready-wins: no FIFO fairness between waiters.
// The caller still owns RecordRequest, so abandoning the wait has no
// side effects on window occupancy.
func (l *Limiter) WaitUntilAdmitted(ctx context.Context, key string, maxRequests int, window time.Duration) error {
	var waited time.Duration
	for {
		if l.CanMakeRequest(key, maxRequests, window) {
			return nil
		}
		if waited > maxAdmissionWait {
			return fmt.Errorf("%w: waited %s for %q", ErrAdmissionTimeout, waited.Round(time.Second), key)
		}

		d := pollInterval
		if l.isBlocked(key) {
			d = l.blockBackoff(key)
		}

		if err := l.sleep(ctx, d); err != nil {
			return err
		}
		waited += d
	}
}

func (l *Limiter) isBlocked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.blockedLocked(key)
}

// blockedLocked reports and lazily clears the block state for key.
func (l *Limiter) blockedLocked(key string) bool {
	until, ok := l.blockedUntil[key]
	if !ok {
		return false
	}
	if l.now().Before(until) {
		return true
	}
	delete(l.blockedUntil, key)
	return false
}

// pruneLocked drops request log entries older than the window.
func (l *Limiter) pruneLocked(key string, window time.Duration) {
	log, ok := l.requests[key]
	if !ok {
		return
	}

	cutoff := l.now().Add(-window)
	kept := log[:0]
	for _, ts := range log {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.requests, key)
		return
	}
	l.requests[key] = kept
}

// blockBackoff derives the sleep for a blocked key from the length of
// its request log, capped at maxBackoff.
func (l *Limiter) blockBackoff(key string) time.Duration {
	l.mu.Lock()
	n := len(l.requests[key])
	l.mu.Unlock()

	factor := l.BackoffFactor
	if factor <= 0 {
		factor = defaultBackoffFactor
	}
	return Backoff(factor, n)
}

// Backoff returns factor^n seconds capped at five minutes. The limiter
// applies it to its per-key log length; the dispatcher applies the same
// curve to its per-call attempt counter.
func Backoff(factor float64, n int) time.Duration {
	if factor <= 0 {
		factor = defaultBackoffFactor
	}
	seconds := math.Min(math.Pow(factor, float64(n)), maxBackoff.Seconds())
	return time.Duration(seconds * float64(time.Second))
}

func (l *Limiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}

func (l *Limiter) sleep(ctx context.Context, d time.Duration) error {
	if l.Sleep != nil {
		return l.Sleep(ctx, d)
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
