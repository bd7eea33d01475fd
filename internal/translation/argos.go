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
)

// DefaultArgosBaseURL points to the public Argos Translate instance.
const DefaultArgosBaseURL = "https://translate.argosopentech.com"

// ArgosProvider translates text through the public Argos Translate
// server. It needs no configuration.
type ArgosProvider struct {
	baseURL string
}

func NewArgosProvider() *ArgosProvider {
	return &ArgosProvider{baseURL: DefaultArgosBaseURL}
}

func (p *ArgosProvider) Name() string {
	return "argos"
}

func (p *ArgosProvider) Configured() bool {
	return p != nil
}

// DetectLanguage uses the heuristic detector; the backend has no native
// detection endpoint.
func (p *ArgosProvider) DetectLanguage(_ context.Context, text string) (string, error) {
	return langdetect.Detect(text), nil
}

func (p *ArgosProvider) Translate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, ErrEmptyText
	}

	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = langdetect.Detect(req.Text)
	}

	body, err := json.Marshal(argosTranslateRequest{
		Q:      req.Text,
		Source: sourceLang,
		Target: req.TargetLang,
		Format: "text",
	})
	if err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("marshal translate request: %w", err)}
	}

	client := newHTTPClient()
	defer client.CloseIdleConnections()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Result{}, &RateLimitedError{Provider: p.Name()}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		detail := strings.TrimSpace(string(respBody))
		if len(detail) > 200 {
			detail = detail[:200]
		}
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("api status %d: %s", resp.StatusCode, detail)}
	}

	var payload argosTranslateResponse
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

type argosTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type argosTranslateResponse struct {
	TranslatedText string `json:"translatedText"`
}
