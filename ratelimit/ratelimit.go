// Package ratelimit implements the per-user token bucket from spec.md
// §4.5/§8: capacity C burst, refill R per second, one token per send.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter tracks one token bucket per fingerprint. The zero value is not
// usable; construct with New.
type Limiter struct {
	mu       sync.Mutex
	burst    int
	refill   rate.Limit
	buckets  map[string]*rate.Limiter
}

// Defaults from spec.md §4.5: burst 4, refill 1/sec.
const (
	DefaultBurst  = 4
	DefaultRefill = 1.0
)

// New creates a Limiter with the given burst capacity and per-second
// refill rate.
func New(burst int, refillPerSecond float64) *Limiter {
	return &Limiter{
		burst:   burst,
		refill:  rate.Limit(refillPerSecond),
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow consumes one token for fingerprint's bucket if available and
// reports whether the send may proceed. Callers must serialize access to
// the engine's room lock around this call per spec.md §5 ("rate limits
// enforced in the engine under the room lock").
func (l *Limiter) Allow(fingerprint string) bool {
	l.mu.Lock()
	b, ok := l.buckets[fingerprint]
	if !ok {
		b = rate.NewLimiter(l.refill, l.burst)
		l.buckets[fingerprint] = b
	}
	l.mu.Unlock()
	return b.Allow()
}

// Forget drops a user's bucket on disconnect so memory doesn't grow
// unboundedly across reconnects with different transient fingerprints in
// tests; real fingerprints are stable but this keeps long-lived servers
// tidy.
func (l *Limiter) Forget(fingerprint string) {
	l.mu.Lock()
	delete(l.buckets, fingerprint)
	l.mu.Unlock()
}
