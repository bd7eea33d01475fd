package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"horse.fit/polyglot/internal/langdetect"
	"horse.fit/polyglot/internal/language"
)

const (
	// DefaultGoogleBaseURL points to the Cloud Translation v2 REST API.
	DefaultGoogleBaseURL = "https://translation.googleapis.com/language/translate/v2"

	translateScope = "https://www.googleapis.com/auth/cloud-translation"
)

// GoogleProvider translates text through the Cloud Translation v2 REST
// API, authenticating with a service account key file.
type GoogleProvider struct {
	projectID       string
	credentialsPath string
	baseURL         string

	credOnce    sync.Once
	credErr     error
	tokenSource oauth2.TokenSource
}

func NewGoogleProvider(projectID, credentialsPath string) *GoogleProvider {
	return &GoogleProvider{
		projectID:       strings.TrimSpace(projectID),
		credentialsPath: strings.TrimSpace(credentialsPath),
		baseURL:         DefaultGoogleBaseURL,
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

func (p *GoogleProvider) Configured() bool {
	return p != nil && p.projectID != "" && p.credentialsPath != ""
}

// loadCredentials parses the service account key once and caches the
// resulting token source for the process lifetime. Tokens themselves are
// refreshed by oauth2 as they expire.
func (p *GoogleProvider) loadCredentials(ctx context.Context) (oauth2.TokenSource, error) {
	p.credOnce.Do(func() {
		data, err := os.ReadFile(p.credentialsPath)
		if err != nil {
			p.credErr = fmt.Errorf("read credentials file: %w", err)
			return
		}
		creds, err := google.CredentialsFromJSON(ctx, data, translateScope)
		if err != nil {
			p.credErr = fmt.Errorf("parse credentials: %w", err)
			return
		}
		p.tokenSource = creds.TokenSource
	})
	if p.credErr != nil {
		return nil, p.credErr
	}
	return p.tokenSource, nil
}

func (p *GoogleProvider) DetectLanguage(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(googleDetectRequest{Q: truncateForDetection(text)})
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("marshal detect request: %w", err)}
	}

	respBody, err := p.call(ctx, p.baseURL+"/detect", body)
	if err != nil {
		// Detection is best-effort; fall back to the heuristic detector.
		return langdetect.Detect(text), nil
	}

	var payload googleDetectResponse
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return langdetect.Detect(text), nil
	}
	if len(payload.Data.Detections) == 0 || len(payload.Data.Detections[0]) == 0 {
		return langdetect.DefaultLanguage, nil
	}

	detected := language.Normalize(payload.Data.Detections[0][0].Language)
	if detected == "" {
		detected = langdetect.DefaultLanguage
	}
	return detected, nil
}

func (p *GoogleProvider) Translate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, ErrEmptyText
	}

	body, err := json.Marshal(googleTranslateRequest{
		Q:      req.Text,
		Source: req.SourceLang,
		Target: req.TargetLang,
		Format: "text",
	})
	if err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("marshal translate request: %w", err)}
	}

	respBody, err := p.call(ctx, p.baseURL, body)
	if err != nil {
		return Result{}, err
	}

	var payload googleTranslateResponse
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(payload.Data.Translations) == 0 {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("no translation returned")}
	}

	item := payload.Data.Translations[0]
	sourceLang := language.Normalize(item.DetectedSourceLanguage)
	if sourceLang == "" {
		sourceLang = req.SourceLang
	}

	return Result{
		Text:       item.TranslatedText,
		SourceLang: sourceLang,
		TargetLang: req.TargetLang,
		Provider:   p.Name(),
	}, nil
}

func (p *GoogleProvider) call(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	tokenSource, err := p.loadCredentials(ctx)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err}
	}

	client := newHTTPClient()
	defer client.CloseIdleConnections()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	token, err := tokenSource.Token()
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("acquire token: %w", err)}
	}
	token.SetAuthHeader(httpReq)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitedError{Provider: p.Name()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("api status %d", resp.StatusCode)}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("read response: %w", err)}
	}
	return respBody, nil
}

type googleTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type googleTranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
}

type googleDetectRequest struct {
	Q string `json:"q"`
}

type googleDetectResponse struct {
	Data struct {
		Detections [][]struct {
			Language string `json:"language"`
		} `json:"detections"`
	} `json:"data"`
}
