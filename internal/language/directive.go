package language

import (
	"regexp"
	"strings"
)

// Directive prefixes like "translate to en: text" or "en: text" let a user
// override the configured target language for a single message.
var directivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:переведи на|translate to|на|to)\s+([a-z]{2})\s*[:：]\s*(.+)$`),
	regexp.MustCompile(`(?i)^([a-z]{2})\s*[:：]\s*(.+)$`),
}

// ExtractDirective parses an inline target-language directive from text.
// It returns the normalized target code and the remaining text, or
// ("", text) when no valid directive is present.
func ExtractDirective(text string) (string, string) {
	trimmed := strings.TrimSpace(text)
	for _, pattern := range directivePatterns {
		match := pattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		code := Normalize(match[1])
		rest := strings.TrimSpace(match[2])
		if code != "" && rest != "" {
			return code, rest
		}
	}
	return "", text
}
