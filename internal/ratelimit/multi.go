package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// ScopeGlobal throttles the whole process; ScopeUser and ScopeChat
	// throttle individual senders and conversations.
	ScopeGlobal = "global"
	ScopeUser   = "user"
	ScopeChat   = "chat"

	globalRequests = 1000
	globalWindow   = 60 * time.Second

	sweepInterval = 5 * time.Minute
)

// Decision is the outcome of a multi-scope admission check.
type Decision struct {
	Allowed    bool
	RetryAfter int
	Scope      string
}

// MultiLimiter composes global, per-user and per-chat sliding windows.
// A request is admitted only when every applicable scope admits it;
// the first denying scope short-circuits.
type MultiLimiter struct {
	global *Limiter
	user   *Limiter
	chat   *Limiter
	logger zerolog.Logger
}

// NewMultiLimiter builds the three scope limiters from the per-user
// window; the per-chat ceiling is three times the per-user one.
func NewMultiLimiter(userWindow Window, logger zerolog.Logger) (*MultiLimiter, error) {
	global, err := NewLimiter(Window{Requests: globalRequests, Window: globalWindow})
	if err != nil {
		return nil, fmt.Errorf("build global limiter: %w", err)
	}
	user, err := NewLimiter(userWindow)
	if err != nil {
		return nil, fmt.Errorf("build user limiter: %w", err)
	}
	chat, err := NewLimiter(Window{Requests: userWindow.Requests * 3, Window: userWindow.Window})
	if err != nil {
		return nil, fmt.Errorf("build chat limiter: %w", err)
	}

	return &MultiLimiter{
		global: global,
		user:   user,
		chat:   chat,
		logger: logger,
	}, nil
}

// Check runs admission in global -> user -> chat order. The chat scope is
// skipped for private conversations, where the chat id equals the user id.
func (m *MultiLimiter) Check(userID, chatID int64) Decision {
	if allowed, retryAfter := m.global.Allow(ScopeGlobal); !allowed {
		m.logger.Warn().Int("retry_after", retryAfter).Msg("global rate limit exceeded")
		return Decision{RetryAfter: retryAfter, Scope: ScopeGlobal}
	}

	userKey := fmt.Sprintf("user:%d", userID)
	if allowed, retryAfter := m.user.Allow(userKey); !allowed {
		m.logger.Info().Int64("user_id", userID).Int("retry_after", retryAfter).Msg("user rate limit exceeded")
		return Decision{RetryAfter: retryAfter, Scope: ScopeUser}
	}

	if chatID != 0 && chatID != userID {
		chatKey := fmt.Sprintf("chat:%d", chatID)
		if allowed, retryAfter := m.chat.Allow(chatKey); !allowed {
			m.logger.Info().Int64("chat_id", chatID).Int("retry_after", retryAfter).Msg("chat rate limit exceeded")
			return Decision{RetryAfter: retryAfter, Scope: ScopeChat}
		}
	}

	return Decision{Allowed: true}
}

// Run sweeps stale buckets on a fixed interval until ctx is cancelled.
// Sweep problems are logged and never stop the loop.
func (m *MultiLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepAll()
		}
	}
}

func (m *MultiLimiter) sweepAll() {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Interface("panic", r).Msg("rate limiter sweep failed")
		}
	}()

	removed := m.global.Sweep() + m.user.Sweep() + m.chat.Sweep()
	if removed > 0 {
		m.logger.Debug().Int("removed", removed).Msg("swept empty rate limit buckets")
	}
}
