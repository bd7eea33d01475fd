package translation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubProvider struct {
	name       string
	configured bool
	calls      int
	translate  func(req Request) (Result, error)
	detect     func(text string) (string, error)
}

func (s *stubProvider) Name() string     { return s.name }
func (s *stubProvider) Configured() bool { return s.configured }

func (s *stubProvider) DetectLanguage(_ context.Context, text string) (string, error) {
	if s.detect != nil {
		return s.detect(text)
	}
	return "en", nil
}

func (s *stubProvider) Translate(_ context.Context, req Request) (Result, error) {
	s.calls++
	return s.translate(req)
}

func newStubService(primary string, providers ...*stubProvider) *Service {
	registry := &Registry{
		providers: make(map[string]Provider),
		primary:   primary,
	}
	for _, p := range providers {
		registry.providers[p.name] = p
	}

	svc := NewServiceWithRegistry(registry, zerolog.Nop())
	svc.sleep = func(time.Duration) {}
	return svc
}

func succeedWith(provider string) func(req Request) (Result, error) {
	return func(req Request) (Result, error) {
		return Result{
			Text:       "translated by " + provider,
			SourceLang: req.SourceLang,
			TargetLang: req.TargetLang,
			Provider:   provider,
		}, nil
	}
}

func TestTranslateSameLanguageShortCircuit(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name:       "deepl",
		configured: true,
		translate: func(Request) (Result, error) {
			return Result{}, fmt.Errorf("should not be called")
		},
	}
	svc := newStubService("deepl", primary)

	result, err := svc.Translate(context.Background(), "hello", "en", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "hello" {
		t.Fatalf("expected original text back, got %q", result.Text)
	}
	if result.Provider != PassThroughProvider {
		t.Fatalf("expected provider %q, got %q", PassThroughProvider, result.Provider)
	}
	if primary.calls != 0 {
		t.Fatalf("expected zero provider calls, got %d", primary.calls)
	}
}

func TestTranslateRateLimitFallsBackWithoutRetry(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name:       "deepl",
		configured: true,
		translate: func(Request) (Result, error) {
			return Result{}, &RateLimitedError{Provider: "deepl"}
		},
	}
	secondary := &stubProvider{
		name:       "libre",
		configured: true,
		translate:  succeedWith("libre"),
	}
	svc := newStubService("deepl", primary, secondary)

	result, err := svc.Translate(context.Background(), "hello", "ru", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Provider != "libre" {
		t.Fatalf("expected fallback provider result, got %q", result.Provider)
	}
	if primary.calls != 1 {
		t.Fatalf("rate-limited provider must be attempted exactly once, got %d calls", primary.calls)
	}
}

func TestTranslateRetriesGenericProviderErrors(t *testing.T) {
	t.Parallel()

	attempts := 0
	primary := &stubProvider{
		name:       "deepl",
		configured: true,
		translate: func(req Request) (Result, error) {
			attempts++
			if attempts < 3 {
				return Result{}, &ProviderError{Provider: "deepl", Err: fmt.Errorf("backend hiccup")}
			}
			return succeedWith("deepl")(req)
		},
	}
	svc := newStubService("deepl", primary)

	var slept []time.Duration
	svc.sleep = func(d time.Duration) { slept = append(slept, d) }

	result, err := svc.Translate(context.Background(), "hello", "ru", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Provider != "deepl" {
		t.Fatalf("expected primary provider result, got %q", result.Provider)
	}
	if primary.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", primary.calls)
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(slept) != len(want) {
		t.Fatalf("expected %d backoff sleeps, got %d", len(want), len(slept))
	}
	for i := range want {
		if slept[i] != want[i] {
			t.Fatalf("backoff %d: expected %v, got %v", i, want[i], slept[i])
		}
	}
}

func TestTranslateUnexpectedErrorSkipsRetries(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name:       "deepl",
		configured: true,
		translate: func(Request) (Result, error) {
			return Result{}, fmt.Errorf("something odd")
		},
	}
	secondary := &stubProvider{
		name:       "libre",
		configured: true,
		translate:  succeedWith("libre"),
	}
	svc := newStubService("deepl", primary, secondary)

	result, err := svc.Translate(context.Background(), "hello", "ru", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Provider != "libre" {
		t.Fatalf("expected fallback provider result, got %q", result.Provider)
	}
	if primary.calls != 1 {
		t.Fatalf("unexpected errors must not retry, got %d calls", primary.calls)
	}
}

func TestTranslateSkipsUnconfiguredProviders(t *testing.T) {
	t.Parallel()

	unconfigured := &stubProvider{
		name: "deepl",
		translate: func(Request) (Result, error) {
			return Result{}, fmt.Errorf("should not be called")
		},
	}
	configured := &stubProvider{
		name:       "libre",
		configured: true,
		translate:  succeedWith("libre"),
	}
	svc := newStubService("deepl", unconfigured, configured)

	result, err := svc.Translate(context.Background(), "hello", "ru", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Provider != "libre" {
		t.Fatalf("expected configured provider result, got %q", result.Provider)
	}
	if unconfigured.calls != 0 {
		t.Fatalf("unconfigured provider must never be called, got %d calls", unconfigured.calls)
	}
}

func TestTranslateAllProvidersFailed(t *testing.T) {
	t.Parallel()

	failing := func(name string) *stubProvider {
		return &stubProvider{
			name:       name,
			configured: true,
			translate: func(Request) (Result, error) {
				return Result{}, &ProviderError{Provider: name, Err: fmt.Errorf("down")}
			},
		}
	}
	svc := newStubService("deepl", failing("deepl"), failing("libre"))

	_, err := svc.Translate(context.Background(), "hello", "ru", "en")
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("expected ErrAllProvidersFailed, got %v", err)
	}
}

func TestTranslateInputValidation(t *testing.T) {
	t.Parallel()

	svc := newStubService("deepl", &stubProvider{
		name:       "deepl",
		configured: true,
		translate:  succeedWith("deepl"),
	})

	if _, err := svc.Translate(context.Background(), "   ", "ru", "en"); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if _, err := svc.Translate(context.Background(), "hello", "xx", "en"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
}

func TestDetectLanguagePrefersPrimaryProvider(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name:       "deepl",
		configured: true,
		detect: func(string) (string, error) {
			return "ru", nil
		},
		translate: succeedWith("deepl"),
	}
	svc := newStubService("deepl", primary)

	if got := svc.DetectLanguage(context.Background(), "привет мир"); got != "ru" {
		t.Fatalf("expected provider detection result, got %q", got)
	}
}

func TestDetectLanguageFallsBackToHeuristic(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name:       "deepl",
		configured: true,
		detect: func(string) (string, error) {
			return "", fmt.Errorf("detection down")
		},
		translate: succeedWith("deepl"),
	}
	svc := newStubService("deepl", primary)

	// The heuristic detector recognizes Cyrillic text without a provider.
	if got := svc.DetectLanguage(context.Background(), "привет, как у тебя дела сегодня"); got != "ru" {
		t.Fatalf("expected heuristic detection to return ru, got %q", got)
	}
}

func TestTranslateMultiplePartialFailure(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name:       "deepl",
		configured: true,
		translate: func(req Request) (Result, error) {
			if req.TargetLang == "fr" {
				return Result{}, fmt.Errorf("fr backend broken")
			}
			return succeedWith("deepl")(req)
		},
	}
	svc := newStubService("deepl", primary)

	results := svc.TranslateMultiple(context.Background(), "hello", []string{"ru", "fr", "de"}, "en")
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].TargetLang != "ru" || results[1].TargetLang != "de" {
		t.Fatalf("unexpected targets: %q, %q", results[0].TargetLang, results[1].TargetLang)
	}
}

func TestTranslateMultipleFiltersSameLanguage(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{
		name:       "deepl",
		configured: true,
		translate:  succeedWith("deepl"),
	}
	svc := newStubService("deepl", primary)

	results := svc.TranslateMultiple(context.Background(), "hello", []string{"en", "ru"}, "en")
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].TargetLang != "ru" {
		t.Fatalf("expected ru target, got %q", results[0].TargetLang)
	}
}
