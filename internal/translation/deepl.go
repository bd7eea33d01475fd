package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"horse.fit/polyglot/internal/langdetect"
	"horse.fit/polyglot/internal/language"
)

// DefaultDeepLBaseURL points to the DeepL free-tier API.
const DefaultDeepLBaseURL = "https://api-free.deepl.com/v2"

// deepLLangCodes maps ISO 639-1 codes to DeepL's upper-case identifiers.
var deepLLangCodes = map[string]string{
	"en": "EN",
	"ru": "RU",
	"tr": "TR",
	"es": "ES",
	"fr": "FR",
	"de": "DE",
	"it": "IT",
	"pt": "PT",
	"zh": "ZH",
	"ja": "JA",
	"ko": "KO",
	"nl": "NL",
	"pl": "PL",
	"uk": "UK",
}

// DeepLProvider translates text through the DeepL REST API.
type DeepLProvider struct {
	apiKey  string
	baseURL string
}

func NewDeepLProvider(apiKey string) *DeepLProvider {
	return &DeepLProvider{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultDeepLBaseURL,
	}
}

func (p *DeepLProvider) Name() string {
	return "deepl"
}

func (p *DeepLProvider) Configured() bool {
	return p != nil && p.apiKey != ""
}

// mapLangCode converts an ISO code to DeepL's format. Target-direction
// codes for English and Portuguese must carry a region qualifier;
// source-direction codes must not.
func mapLangCode(code string, forTarget bool) string {
	mapped, ok := deepLLangCodes[code]
	if !ok {
		mapped = strings.ToUpper(code)
	}
	if forTarget {
		switch mapped {
		case "EN":
			mapped = "EN-US"
		case "PT":
			mapped = "PT-PT"
		}
	}
	return mapped
}

func (p *DeepLProvider) DetectLanguage(ctx context.Context, text string) (string, error) {
	// DeepL has no standalone detection endpoint; a throwaway
	// translation to English reports the detected source language.
	payload, err := p.call(ctx, url.Values{
		"text":        {truncateForDetection(text)},
		"target_lang": {"EN"},
	})
	if err != nil {
		// Transport-level failures degrade to heuristic detection.
		var provErr *ProviderError
		if errors.As(err, &provErr) {
			return langdetect.Detect(text), nil
		}
		return "", err
	}

	if len(payload.Translations) == 0 {
		return langdetect.DefaultLanguage, nil
	}
	detected := language.Normalize(payload.Translations[0].DetectedSourceLanguage)
	if detected == "" {
		detected = langdetect.DefaultLanguage
	}
	return detected, nil
}

func (p *DeepLProvider) Translate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, ErrEmptyText
	}

	form := url.Values{
		"text":        {req.Text},
		"target_lang": {mapLangCode(req.TargetLang, true)},
	}
	if req.SourceLang != "" {
		form.Set("source_lang", mapLangCode(req.SourceLang, false))
	}

	payload, err := p.call(ctx, form)
	if err != nil {
		return Result{}, err
	}
	if len(payload.Translations) == 0 {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("no translation returned")}
	}

	item := payload.Translations[0]
	sourceLang := language.Normalize(item.DetectedSourceLanguage)
	if sourceLang == "" {
		sourceLang = req.SourceLang
	}

	return Result{
		Text:       item.Text,
		SourceLang: sourceLang,
		TargetLang: req.TargetLang,
		Provider:   p.Name(),
	}, nil
}

func (p *DeepLProvider) call(ctx context.Context, form url.Values) (*deepLResponse, error) {
	client := newHTTPClient()
	defer client.CloseIdleConnections()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("read response: %w", err)}
	}

	var payload deepLResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}
	return &payload, nil
}

type deepLResponse struct {
	Translations []struct {
		Text                   string `json:"text"`
		DetectedSourceLanguage string `json:"detected_source_language"`
	} `json:"translations"`
}

// detectionSampleLength bounds the text sent to detection-only calls.
const detectionSampleLength = 1000

func truncateForDetection(text string) string {
	runes := []rune(text)
	if len(runes) <= detectionSampleLength {
		return text
	}
	return string(runes[:detectionSampleLength])
}
