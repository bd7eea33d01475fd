// Package metrics exposes the service's Prometheus collectors. All
// collectors register with the default registry at import time and are
// served by the HTTP API's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TranslationsTotal counts provider translate calls by outcome
	// (ok, error, rate_limited).
	TranslationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyglot_translations_total",
			Help: "Total number of provider translation attempts",
		},
		[]string{"provider", "outcome"},
	)

	// ProviderLatency tracks end-to-end provider call duration.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polyglot_provider_latency_seconds",
			Help:    "Translation provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// RateLimitDenials counts admission denials by scope (global, user, chat).
	RateLimitDenials = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyglot_rate_limit_denials_total",
			Help: "Total number of rate limit denials",
		},
		[]string{"scope"},
	)

	// WebhookEvents counts inbound webhook updates by kind.
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyglot_webhook_events_total",
			Help: "Total number of webhook updates received",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(TranslationsTotal)
	prometheus.MustRegister(ProviderLatency)
	prometheus.MustRegister(RateLimitDenials)
	prometheus.MustRegister(WebhookEvents)
}
