package translation

import (
	"context"
	"net/http"
	"time"
)

// Provider translates free-form text between languages.
type Provider interface {
	// Name returns the registry identifier (for example: "deepl").
	Name() string
	// Configured reports whether the provider has everything it needs
	// to accept calls. Unconfigured providers are skipped by the
	// orchestrator.
	Configured() bool
	// DetectLanguage resolves the source language of text, falling back
	// to heuristic detection when the backend has no native support.
	DetectLanguage(ctx context.Context, text string) (string, error)
	// Translate performs one translation call.
	Translate(ctx context.Context, req Request) (Result, error)
}

// Request describes one translation request. SourceLang may be empty,
// in which case the provider resolves it.
type Request struct {
	Text       string
	SourceLang string // ISO 639-1 (for example: "ru", "en")
	TargetLang string
}

// Result contains translated text and provider metadata.
type Result struct {
	Text       string
	SourceLang string
	TargetLang string
	Provider   string
}

const requestTimeout = 30 * time.Second

// newHTTPClient builds the client for a single translate-or-detect call.
// Callers release it with CloseIdleConnections when the call finishes so
// no connection outlives the call that opened it.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}
