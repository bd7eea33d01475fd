package language

import (
	"sort"
	"strings"
)

type label struct {
	english string
	russian string
}

// supportedLanguages is the fixed ISO 639-1 set the service translates between.
var supportedLanguages = map[string]label{
	"en": {english: "English", russian: "Английский"},
	"ru": {english: "Russian", russian: "Русский"},
	"tr": {english: "Turkish", russian: "Турецкий"},
	"es": {english: "Spanish", russian: "Испанский"},
	"fr": {english: "French", russian: "Французский"},
	"de": {english: "German", russian: "Немецкий"},
	"it": {english: "Italian", russian: "Итальянский"},
	"pt": {english: "Portuguese", russian: "Португальский"},
	"zh": {english: "Chinese", russian: "Китайский"},
	"ja": {english: "Japanese", russian: "Японский"},
	"ko": {english: "Korean", russian: "Корейский"},
	"ar": {english: "Arabic", russian: "Арабский"},
	"hi": {english: "Hindi", russian: "Хинди"},
	"nl": {english: "Dutch", russian: "Голландский"},
	"pl": {english: "Polish", russian: "Польский"},
	"uk": {english: "Ukrainian", russian: "Украинский"},
}

// Normalize lowercases a language code, truncates it to the primary two-letter
// subtag and validates it against the supported set. Returns "" for anything
// outside the set.
func Normalize(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}
	if len(trimmed) > 2 {
		trimmed = trimmed[:2]
	}
	if _, ok := supportedLanguages[trimmed]; !ok {
		return ""
	}
	return trimmed
}

// IsSupported reports whether code (already normalized or not) is translatable.
func IsSupported(code string) bool {
	return Normalize(code) != ""
}

// ParseList splits a comma-separated language list, normalizes each entry and
// drops invalid codes and duplicates, preserving first-seen order.
func ParseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	langs := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		code := Normalize(part)
		if code == "" {
			continue
		}
		if _, exists := seen[code]; exists {
			continue
		}
		seen[code] = struct{}{}
		langs = append(langs, code)
	}
	return langs
}

// SupportedCodes returns the supported language codes in sorted order.
func SupportedCodes() []string {
	codes := make([]string, 0, len(supportedLanguages))
	for code := range supportedLanguages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Name returns the human-readable language name in the display language
// ("en" or "ru"); unsupported codes fall back to their upper-cased form.
func Name(code, displayLang string) string {
	normalized := Normalize(code)
	labels, ok := supportedLanguages[normalized]
	if !ok {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if Normalize(displayLang) == "ru" {
		return labels.russian
	}
	return labels.english
}
