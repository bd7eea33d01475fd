package translation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"horse.fit/polyglot/internal/langdetect"
	"horse.fit/polyglot/internal/language"
)

// LibreProvider translates text through a self-hosted or public
// LibreTranslate instance.
type LibreProvider struct {
	baseURL string
	apiKey  string
}

func NewLibreProvider(baseURL, apiKey string) *LibreProvider {
	return &LibreProvider{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
	}
}

func (p *LibreProvider) Name() string {
	return "libre"
}

func (p *LibreProvider) Configured() bool {
	return p != nil && p.baseURL != ""
}

func (p *LibreProvider) DetectLanguage(ctx context.Context, text string) (string, error) {
	req := libreDetectRequest{
		Q:      truncateForDetection(text),
		APIKey: p.apiKey,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", &ProviderError{Provider: p.Name(), Err: fmt.Errorf("marshal detect request: %w", err)}
	}

	respBody, err := p.post(ctx, "/detect", body)
	if err != nil {
		return langdetect.Detect(text), nil
	}

	var detections []libreDetection
	if err := json.Unmarshal(respBody, &detections); err != nil {
		return langdetect.Detect(text), nil
	}
	if len(detections) == 0 {
		return langdetect.DefaultLanguage, nil
	}

	detected := language.Normalize(detections[0].Language)
	if detected == "" {
		detected = langdetect.DefaultLanguage
	}
	return detected, nil
}

func (p *LibreProvider) Translate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, ErrEmptyText
	}

	sourceLang := req.SourceLang
	if sourceLang == "" {
		var err error
		sourceLang, err = p.DetectLanguage(ctx, req.Text)
		if err != nil {
			return Result{}, err
		}
	}

	body, err := json.Marshal(libreTranslateRequest{
		Q:      req.Text,
		Source: sourceLang,
		Target: req.TargetLang,
		Format: "text",
		APIKey: p.apiKey,
	})
	if err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("marshal translate request: %w", err)}
	}

	respBody, err := p.post(ctx, "/translate", body)
	if err != nil {
		return Result{}, err
	}

	var payload libreTranslateResponse
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.TranslatedText == "" {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("no translation returned")}
	}

	return Result{
		Text:       payload.TranslatedText,
		SourceLang: sourceLang,
		TargetLang: req.TargetLang,
		Provider:   p.Name(),
	}, nil
}

func (p *LibreProvider) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	client := newHTTPClient()
	defer client.CloseIdleConnections()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

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

type libreTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreTranslateResponse struct {
	TranslatedText string `json:"translatedText"`
}

type libreDetectRequest struct {
	Q      string `json:"q"`
	APIKey string `json:"api_key,omitempty"`
}

type libreDetection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}
