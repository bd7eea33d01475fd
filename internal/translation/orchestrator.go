package translation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/polyglot/internal/config"
	"horse.fit/polyglot/internal/langdetect"
	"horse.fit/polyglot/internal/language"
	"horse.fit/polyglot/internal/metrics"
)

// PassThroughProvider tags results that needed no translation because
// source and target already matched.
const PassThroughProvider = "none"

// defaultMaxRetries bounds within-provider retries on generic backend
// errors; rate limits and unexpected failures move on immediately.
const defaultMaxRetries = 2

// Service orchestrates translation across the registered providers:
// primary first, then the fallback chain, retrying with exponential
// backoff inside each provider.
type Service struct {
	registry   *Registry
	logger     zerolog.Logger
	maxRetries int

	// sleep is swappable so tests run without real backoff delays.
	sleep func(time.Duration)
}

func NewService(cfg *config.Config, logger zerolog.Logger) *Service {
	return &Service{
		registry:   NewRegistry(cfg, logger),
		logger:     logger,
		maxRetries: defaultMaxRetries,
		sleep:      time.Sleep,
	}
}

// NewServiceWithRegistry builds a service over a pre-built registry.
func NewServiceWithRegistry(registry *Registry, logger zerolog.Logger) *Service {
	return &Service{
		registry:   registry,
		logger:     logger,
		maxRetries: defaultMaxRetries,
		sleep:      time.Sleep,
	}
}

// Primary returns the configured primary provider name.
func (s *Service) Primary() string {
	return s.registry.Primary()
}

// ConfiguredProviders lists the providers ready to accept calls.
func (s *Service) ConfiguredProviders() []string {
	return s.registry.ConfiguredNames()
}

// Translate translates text into targetLang, resolving the source
// language when sourceLang is empty. When source and target match, the
// original text is returned untouched with the pass-through provider
// tag and no network call is made.
func (s *Service) Translate(ctx context.Context, text, targetLang, sourceLang string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}

	target := language.Normalize(targetLang)
	if target == "" {
		return Result{}, ErrInvalidTarget
	}

	source := language.Normalize(sourceLang)
	if source == "" {
		source = s.DetectLanguage(ctx, text)
	}

	if source == target {
		return Result{
			Text:       text,
			SourceLang: source,
			TargetLang: target,
			Provider:   PassThroughProvider,
		}, nil
	}

	for _, name := range s.registry.AttemptOrder() {
		provider, err := s.registry.Provider(name)
		if err != nil || !provider.Configured() {
			continue
		}

		result, ok := s.tryProvider(ctx, provider, Request{
			Text:       text,
			SourceLang: source,
			TargetLang: target,
		})
		if ok {
			return result, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
	}

	return Result{}, ErrAllProvidersFailed
}

// tryProvider runs up to maxRetries+1 attempts against one provider.
// Generic backend errors back off and retry; a rate limit or any
// unexpected error abandons the provider immediately.
func (s *Service) tryProvider(ctx context.Context, provider Provider, req Request) (Result, bool) {
	name := provider.Name()

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		started := time.Now()
		result, err := provider.Translate(ctx, req)
		metrics.ProviderLatency.WithLabelValues(name).Observe(time.Since(started).Seconds())

		if err == nil {
			metrics.TranslationsTotal.WithLabelValues(name, "ok").Inc()
			s.logger.Info().Str("provider", name).Str("target_lang", req.TargetLang).Msg("translation successful")
			return result, true
		}

		var rateLimited *RateLimitedError
		if errors.As(err, &rateLimited) {
			metrics.TranslationsTotal.WithLabelValues(name, "rate_limited").Inc()
			s.logger.Warn().Str("provider", name).Msg("provider rate limit exceeded")
			return Result{}, false
		}

		var provErr *ProviderError
		if errors.As(err, &provErr) {
			metrics.TranslationsTotal.WithLabelValues(name, "error").Inc()
			s.logger.Warn().Err(err).Str("provider", name).Int("attempt", attempt+1).Msg("provider call failed")
			if attempt < s.maxRetries {
				s.sleep(time.Duration(1<<attempt) * time.Second)
			}
			continue
		}

		metrics.TranslationsTotal.WithLabelValues(name, "error").Inc()
		s.logger.Error().Err(err).Str("provider", name).Msg("unexpected provider error")
		return Result{}, false
	}

	return Result{}, false
}

// DetectLanguage resolves the source language of text through the
// primary provider when it is configured, degrading to the heuristic
// detector on any failure.
func (s *Service) DetectLanguage(ctx context.Context, text string) string {
	provider, err := s.registry.Provider(s.registry.Primary())
	if err == nil && provider.Configured() {
		detected, err := provider.DetectLanguage(ctx, text)
		if err == nil && detected != "" {
			return detected
		}
		if err != nil {
			s.logger.Warn().Err(err).Str("provider", provider.Name()).Msg("language detection failed")
		}
	}
	return langdetect.Detect(text)
}

// TranslateMultiple fans text out to several target languages, reusing
// one source-language resolution. Failed targets are logged and skipped
// so one bad language does not sink the rest.
func (s *Service) TranslateMultiple(ctx context.Context, text string, targetLangs []string, sourceLang string) []Result {
	source := language.Normalize(sourceLang)
	if source == "" {
		source = s.DetectLanguage(ctx, text)
	}

	results := make([]Result, 0, len(targetLangs))
	for _, targetLang := range targetLangs {
		target := language.Normalize(targetLang)
		if target == "" || target == source {
			continue
		}

		result, err := s.Translate(ctx, text, target, source)
		if err != nil {
			s.logger.Error().Err(err).Str("target_lang", target).Msg("translation failed for target language")
			continue
		}
		results = append(results, result)
	}
	return results
}
