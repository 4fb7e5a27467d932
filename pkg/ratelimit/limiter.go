package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is an advisory per-user submission limiter. It exists to absorb
// accidental double-clicks and bursts, not to provide correctness: the
// contended account is namespaced per user, so cross-user coordination is
// never required. Constructed once per process and injected.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    rate.Limit
	burst   int
	ttl     time.Duration
	lastGC  time.Time
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing perMinute submissions per user with the
// given burst, evicting idle users after ttl.
func New(perMinute int, burst int, ttl time.Duration) *Limiter {
	if perMinute <= 0 {
		perMinute = 12
	}
	if burst <= 0 {
		burst = 2
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Limiter{
		entries: make(map[string]*entry),
		rate:    rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		ttl:     ttl,
		lastGC:  time.Now(),
	}
}

// Allow reports whether the user may submit now.
func (l *Limiter) Allow(user string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastGC) > l.ttl {
		l.gc(now)
	}

	e, ok := l.entries[user]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[user] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}

// gc drops users that have been idle longer than the TTL. Caller holds mu.
func (l *Limiter) gc(now time.Time) {
	for user, e := range l.entries {
		if now.Sub(e.lastSeen) > l.ttl {
			delete(l.entries, user)
		}
	}
	l.lastGC = now
}

// Size returns the number of tracked users.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
