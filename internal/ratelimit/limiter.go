// Package ratelimit implements a fixed-window request limiter keyed by
// client IP. Windows are aligned to multiples of the window size so
// resets land on predictable boundaries.
package ratelimit

import (
	"sync"
	"time"
)

// pruneThreshold bounds the tracked-key map; stale windows are evicted
// once the map grows past it.
const pruneThreshold = 4096

// Decision is the outcome of one Allow call, carrying everything a
// handler needs for the X-RateLimit response headers.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     int // seconds until the current window ends, >= 1
}

type windowCount struct {
	start int64
	count int
}

// Limiter tracks request counts per key within aligned fixed windows.
// Safe for concurrent use.
type Limiter struct {
	limit  int
	window int64 // seconds

	mu     sync.Mutex
	counts map[string]*windowCount
	now    func() time.Time
}

// New creates a Limiter allowing limit requests per window.
func New(limit int, window time.Duration) *Limiter {
	secs := int64(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return &Limiter{
		limit:  limit,
		window: secs,
		counts: make(map[string]*windowCount),
		now:    time.Now,
	}
}

// Allow records a request for key and reports whether it is within the
// limit. An empty key cannot be attributed to a client and is never
// blocked.
func (l *Limiter) Allow(key string) Decision {
	if key == "" {
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit, Reset: int(l.window)}
	}

	now := l.now().Unix()
	start := now - now%l.window
	reset := int(start + l.window - now)
	if reset < 1 {
		reset = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counts[key]
	if !ok || c.start != start {
		if len(l.counts) > pruneThreshold {
			l.prune(start)
		}
		l.counts[key] = &windowCount{start: start, count: 1}
		return Decision{Allowed: true, Limit: l.limit, Remaining: max(0, l.limit-1), Reset: reset}
	}

	if c.count >= l.limit {
		return Decision{Allowed: false, Limit: l.limit, Remaining: 0, Reset: reset}
	}

	c.count++
	return Decision{Allowed: true, Limit: l.limit, Remaining: max(0, l.limit-c.count), Reset: reset}
}

// prune drops entries from past windows. Caller holds the lock.
func (l *Limiter) prune(currentStart int64) {
	for k, c := range l.counts {
		if c.start != currentStart {
			delete(l.counts, k)
		}
	}
}
