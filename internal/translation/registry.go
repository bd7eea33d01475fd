package translation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/polyglot/internal/config"
)

// fallbackOrder ranks providers by output quality, best first. The
// orchestrator tries the configured primary first, then the rest of this
// list in order.
var fallbackOrder = []string{"argos", "deepl", "libre", "google", "mymemory"}

// Registry stores translation providers and resolves the configured
// primary provider.
type Registry struct {
	providers map[string]Provider
	primary   string
}

// NewRegistry builds a registry holding every provider variant, wired
// from cfg. Providers missing their configuration stay registered but
// report Configured() == false and are skipped at call time.
func NewRegistry(cfg *config.Config, logger zerolog.Logger) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		primary:   normalizeProviderName(cfg.TranslatorProvider),
	}
	r.register(NewDeepLProvider(cfg.DeepLAPIKey))
	r.register(NewGoogleProvider(cfg.GoogleProjectID, cfg.GoogleCredentialsJSONPath))
	r.register(NewLibreProvider(cfg.LibreBaseURL, cfg.LibreAPIKey))
	r.register(NewMyMemoryProvider(logger))
	r.register(NewArgosProvider())

	if _, exists := r.providers[r.primary]; !exists {
		r.primary = "deepl"
	}
	return r
}

func (r *Registry) register(provider Provider) {
	r.providers[normalizeProviderName(provider.Name())] = provider
}

// Provider resolves a provider by name.
func (r *Registry) Provider(name string) (Provider, error) {
	provider, ok := r.providers[normalizeProviderName(name)]
	if !ok {
		return nil, fmt.Errorf("translation provider %q is not registered (available: %s)",
			name, strings.Join(r.ProviderNames(), ", "))
	}
	return provider, nil
}

// Primary returns the configured primary provider name.
func (r *Registry) Primary() string {
	if r == nil {
		return ""
	}
	return r.primary
}

// AttemptOrder returns the primary provider followed by the remaining
// providers in fallback priority order.
func (r *Registry) AttemptOrder() []string {
	order := make([]string, 0, len(fallbackOrder))
	order = append(order, r.primary)
	for _, name := range fallbackOrder {
		if name == r.primary {
			continue
		}
		if _, exists := r.providers[name]; exists {
			order = append(order, name)
		}
	}
	return order
}

// ConfiguredNames lists providers ready to accept calls, sorted.
func (r *Registry) ConfiguredNames() []string {
	names := make([]string, 0, len(r.providers))
	for name, provider := range r.providers {
		if provider.Configured() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ProviderNames lists every registered provider, sorted.
func (r *Registry) ProviderNames() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeProviderName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
