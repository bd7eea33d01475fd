// Package globaltime is the process clock. The rate limiter and the
// admin cache read it instead of time.Now so tests can pin time.
package globaltime

import (
	"sync"
	"time"
)

var (
	mu    sync.RWMutex
	clock func() time.Time = time.Now
)

// Now returns the current time from the active clock.
func Now() time.Time {
	mu.RLock()
	defer mu.RUnlock()
	return clock()
}

// UTC returns Now in UTC.
func UTC() time.Time {
	return Now().UTC()
}

// SetMockTime freezes the clock at t until ResetTime. Tests using it
// must not run in parallel.
func SetMockTime(t time.Time) {
	mu.Lock()
	defer mu.Unlock()
	clock = func() time.Time { return t }
}

// ResetTime restores the wall clock.
func ResetTime() {
	mu.Lock()
	defer mu.Unlock()
	clock = time.Now
}
