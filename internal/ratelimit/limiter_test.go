package ratelimit

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/polyglot/internal/globaltime"
)

func TestAllowCeilingNeverExceeded(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	limiter, err := NewLimiter(Window{Requests: 5, Window: 15 * time.Second})
	if err != nil {
		t.Fatalf("build limiter: %v", err)
	}

	// Fire at a steady sub-window cadence and count admissions inside
	// every rolling window of 15 seconds.
	admitted := make([]time.Time, 0, 64)
	for step := 0; step < 60; step++ {
		now := base.Add(time.Duration(step) * time.Second)
		globaltime.SetMockTime(now)
		if ok, _ := limiter.Allow("user:1"); ok {
			admitted = append(admitted, now)
		}
	}

	for i := range admitted {
		count := 1
		for j := i + 1; j < len(admitted); j++ {
			if admitted[j].Sub(admitted[i]) < 15*time.Second {
				count++
			}
		}
		if count > 5 {
			t.Fatalf("window starting at %v admitted %d requests, ceiling is 5", admitted[i], count)
		}
	}
}

func TestDenialCarriesPositiveRetryAfter(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	limiter, err := NewLimiter(Window{Requests: 2, Window: 10 * time.Second})
	if err != nil {
		t.Fatalf("build limiter: %v", err)
	}

	for i := 0; i < 2; i++ {
		if ok, _ := limiter.Allow("chat:9"); !ok {
			t.Fatalf("request %d should be admitted", i)
		}
	}

	for offset := 0; offset < 10; offset++ {
		globaltime.SetMockTime(base.Add(time.Duration(offset) * time.Second))
		ok, retryAfter := limiter.Allow("chat:9")
		if ok {
			t.Fatalf("request at +%ds should be denied", offset)
		}
		if retryAfter < 1 {
			t.Fatalf("retry_after must be positive, got %d", retryAfter)
		}
	}
}

func TestReadmissionAfterWindow(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	limiter, err := NewLimiter(Window{Requests: 1, Window: 5 * time.Second})
	if err != nil {
		t.Fatalf("build limiter: %v", err)
	}

	if ok, _ := limiter.Allow("user:3"); !ok {
		t.Fatal("first request should be admitted")
	}
	if ok, _ := limiter.Allow("user:3"); ok {
		t.Fatal("second request inside window should be denied")
	}

	globaltime.SetMockTime(base.Add(6 * time.Second))
	if ok, _ := limiter.Allow("user:3"); !ok {
		t.Fatal("request after window should be admitted again")
	}
}

func TestSweepDeletesEmptyBuckets(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	limiter, err := NewLimiter(Window{Requests: 3, Window: 5 * time.Second})
	if err != nil {
		t.Fatalf("build limiter: %v", err)
	}

	limiter.Allow("user:1")
	limiter.Allow("user:2")
	if got := limiter.BucketCount(); got != 2 {
		t.Fatalf("expected 2 buckets, got %d", got)
	}

	globaltime.SetMockTime(base.Add(time.Minute))
	if removed := limiter.Sweep(); removed != 2 {
		t.Fatalf("expected 2 buckets removed, got %d", removed)
	}
	if got := limiter.BucketCount(); got != 0 {
		t.Fatalf("expected 0 buckets after sweep, got %d", got)
	}
}

func TestMultiLimiterScopeOrder(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	multi, err := NewMultiLimiter(Window{Requests: 2, Window: 15 * time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatalf("build multi limiter: %v", err)
	}

	// Exhaust the per-user scope for user 1 in chat 100.
	for i := 0; i < 2; i++ {
		if d := multi.Check(1, 100); !d.Allowed {
			t.Fatalf("request %d should be admitted, denied by %s", i, d.Scope)
		}
	}

	decision := multi.Check(1, 100)
	if decision.Allowed {
		t.Fatal("third request should be denied")
	}
	if decision.Scope != ScopeUser {
		t.Fatalf("expected user scope to deny first, got %q", decision.Scope)
	}
	if decision.RetryAfter < 1 {
		t.Fatalf("denial must carry positive retry_after, got %d", decision.RetryAfter)
	}

	// A different user in the same chat is still admitted.
	if d := multi.Check(2, 100); !d.Allowed {
		t.Fatalf("other user should be admitted, denied by %s", d.Scope)
	}
}

func TestMultiLimiterChatCeiling(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	multi, err := NewMultiLimiter(Window{Requests: 1, Window: 15 * time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatalf("build multi limiter: %v", err)
	}

	// Chat ceiling is 3x the user ceiling: three distinct users pass,
	// the fourth is stopped by the chat scope.
	for user := int64(1); user <= 3; user++ {
		if d := multi.Check(user, 500); !d.Allowed {
			t.Fatalf("user %d should be admitted, denied by %s", user, d.Scope)
		}
	}
	decision := multi.Check(4, 500)
	if decision.Allowed {
		t.Fatal("fourth user should be denied by chat scope")
	}
	if decision.Scope != ScopeChat {
		t.Fatalf("expected chat scope denial, got %q", decision.Scope)
	}
}

func TestMultiLimiterPrivateChatSkipsChatScope(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(base)
	defer globaltime.ResetTime()

	multi, err := NewMultiLimiter(Window{Requests: 2, Window: 15 * time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatalf("build multi limiter: %v", err)
	}

	// chat id == user id marks a private conversation; only the user
	// ceiling applies.
	if d := multi.Check(7, 7); !d.Allowed {
		t.Fatalf("private request should be admitted, denied by %s", d.Scope)
	}
	if d := multi.Check(7, 7); !d.Allowed {
		t.Fatalf("second private request should be admitted, denied by %s", d.Scope)
	}
	if d := multi.Check(7, 7); d.Allowed || d.Scope != ScopeUser {
		t.Fatalf("expected user scope denial, got allowed=%v scope=%q", d.Allowed, d.Scope)
	}
}
