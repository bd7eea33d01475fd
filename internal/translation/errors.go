package translation

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText rejects requests with no translatable content.
	ErrEmptyText = errors.New("empty text provided")
	// ErrInvalidTarget rejects target languages outside the supported set.
	ErrInvalidTarget = errors.New("invalid target language code")
	// ErrAllProvidersFailed is returned when every configured provider
	// was exhausted without producing a translation.
	ErrAllProvidersFailed = errors.New("all translation providers failed")
)

// ProviderError wraps a backend-level failure (non-2xx status, malformed
// response, transport error). The orchestrator retries these within the
// same provider before falling back.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// RateLimitedError marks an HTTP 429 from a backend. It is never retried
// against the same provider; the orchestrator moves on immediately.
type RateLimitedError struct {
	Provider string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: rate limit exceeded", e.Provider)
}
