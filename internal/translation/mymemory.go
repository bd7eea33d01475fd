package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/polyglot/internal/langdetect"
)

const (
	// DefaultMyMemoryBaseURL points to the public MyMemory API.
	DefaultMyMemoryBaseURL = "https://api.mymemory.translated.net"

	// myMemoryMaxTextLength is the backend's hard input ceiling. Longer
	// text is truncated rather than rejected.
	myMemoryMaxTextLength = 10000
)

// MyMemoryProvider translates text through the free MyMemory API. It
// needs no configuration and serves as the fallback of last resort.
type MyMemoryProvider struct {
	baseURL string
	logger  zerolog.Logger
}

func NewMyMemoryProvider(logger zerolog.Logger) *MyMemoryProvider {
	return &MyMemoryProvider{
		baseURL: DefaultMyMemoryBaseURL,
		logger:  logger,
	}
}

func (p *MyMemoryProvider) Name() string {
	return "mymemory"
}

func (p *MyMemoryProvider) Configured() bool {
	return p != nil
}

// DetectLanguage uses the heuristic detector; the backend has no native
// detection endpoint.
func (p *MyMemoryProvider) DetectLanguage(_ context.Context, text string) (string, error) {
	return langdetect.Detect(text), nil
}

func (p *MyMemoryProvider) Translate(ctx context.Context, req Request) (Result, error) {
	text := req.Text
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}

	if runes := []rune(text); len(runes) > myMemoryMaxTextLength {
		text = string(runes[:myMemoryMaxTextLength])
		p.logger.Warn().Int("max_length", myMemoryMaxTextLength).Msg("text truncated for mymemory")
	}

	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = langdetect.Detect(text)
	}

	query := url.Values{
		"q":        {text},
		"langpair": {sourceLang + "|" + req.TargetLang},
	}

	client := newHTTPClient()
	defer client.CloseIdleConnections()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/get?"+query.Encode(), nil)
	if err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Result{}, &RateLimitedError{Provider: p.Name()}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("api status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("read response: %w", err)}
	}

	var payload myMemoryResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	if int(payload.ResponseStatus) != http.StatusOK {
		details := strings.TrimSpace(payload.ResponseDetails)
		if strings.Contains(details, "QUERY_LENGTH") {
			return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("text too long for backend")}
		}
		if details == "" {
			details = "unknown error"
		}
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("backend error: %s", details)}
	}

	translated := payload.ResponseData.TranslatedText
	if translated == "" {
		return Result{}, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("no translation returned")}
	}
	if translated == text {
		p.logger.Warn().Str("target_lang", req.TargetLang).Msg("mymemory returned the original text")
	}

	return Result{
		Text:       translated,
		SourceLang: sourceLang,
		TargetLang: req.TargetLang,
		Provider:   p.Name(),
	}, nil
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  myMemoryStatus `json:"responseStatus"`
	ResponseDetails string         `json:"responseDetails"`
}

// myMemoryStatus tolerates the backend reporting its status as either a
// JSON number or a quoted string.
type myMemoryStatus int

func (s *myMemoryStatus) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(string(data), `"`)
	var value int
	if _, err := fmt.Sscanf(trimmed, "%d", &value); err != nil {
		return fmt.Errorf("parse response status %q: %w", trimmed, err)
	}
	*s = myMemoryStatus(value)
	return nil
}
