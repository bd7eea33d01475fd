package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"horse.fit/polyglot/internal/globaltime"
)

// Window configures one sliding-window ceiling.
type Window struct {
	Requests int
	Window   time.Duration
}

func (w Window) validate() error {
	if w.Requests < 1 {
		return fmt.Errorf("requests must be >= 1")
	}
	if w.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	return nil
}

// Limiter is a sliding-window request counter keyed by scope string.
// All bucket mutations happen under a single mutex so two concurrent
// admits for the same key cannot both observe "one slot remaining".
type Limiter struct {
	cfg Window

	mu      sync.Mutex
	buckets map[string][]time.Time
}

func NewLimiter(cfg Window) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid rate limit config: %w", err)
	}
	return &Limiter{
		cfg:     cfg,
		buckets: make(map[string][]time.Time),
	}, nil
}

// Allow records a request for key if the ceiling permits it. When denied,
// the second return value is the number of whole seconds (always >= 1)
// until the oldest retained request leaves the window.
func (l *Limiter) Allow(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := globaltime.Now()
	bucket := l.evictLocked(key, now)

	if len(bucket) < l.cfg.Requests {
		l.buckets[key] = append(bucket, now)
		return true, 0
	}

	oldest := bucket[0]
	retryAfter := int(oldest.Add(l.cfg.Window).Sub(now).Seconds()) + 1
	if retryAfter < 1 {
		retryAfter = 1
	}
	return false, retryAfter
}

// Sweep evicts expired entries across all buckets and deletes the empty
// ones, bounding memory for keys that went quiet.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := globaltime.Now()
	removed := 0
	for key := range l.buckets {
		if len(l.evictLocked(key, now)) == 0 {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// BucketCount reports the number of live buckets.
func (l *Limiter) BucketCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) evictLocked(key string, now time.Time) []time.Time {
	bucket := l.buckets[key]
	cutoff := now.Add(-l.cfg.Window)
	idx := 0
	for idx < len(bucket) && !bucket[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		bucket = bucket[idx:]
		l.buckets[key] = bucket
	}
	return bucket
}
