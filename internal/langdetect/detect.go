package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"horse.fit/polyglot/internal/language"
)

// DefaultLanguage is returned whenever the text carries no usable signal.
const DefaultLanguage = "en"

var detectorLanguages = []lingua.Language{
	lingua.English,
	lingua.Russian,
	lingua.Turkish,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Italian,
	lingua.Portuguese,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
	lingua.Arabic,
	lingua.Hindi,
	lingua.Dutch,
	lingua.Polish,
	lingua.Ukrainian,
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// Detect guesses the language of text without touching the network.
// Empty input, texts shorter than 3 characters, and texts without letters
// all resolve to DefaultLanguage. Mixed-script text resolves to the
// dominant script's language.
func Detect(text string) string {
	sample := strings.TrimSpace(text)
	if len([]rune(sample)) < 3 {
		return DefaultLanguage
	}

	hasLetter := false
	for _, r := range sample {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return DefaultLanguage
	}

	detected, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return DefaultLanguage
	}

	code := strings.ToLower(detected.IsoCode639_1().String())
	if !language.IsSupported(code) {
		return DefaultLanguage
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectorLanguages...).
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
