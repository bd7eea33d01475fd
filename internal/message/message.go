// Package message renders translation results into transport-sized text
// blocks and normalizes inbound text before processing.
package message

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"horse.fit/polyglot/internal/translation"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	sentenceEnd   = regexp.MustCompile(`[.!?]\s+`)
)

// Normalize applies NFKC normalization, collapses whitespace runs into
// single spaces and trims the result.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFKC.String(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Limit truncates text to max runes, preferring a word boundary when one
// falls in the last fifth of the allowance. Truncation is always marked
// with an ellipsis.
func Limit(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	truncated := runes[:max]
	lastSpace := -1
	for i, r := range truncated {
		if r == ' ' {
			lastSpace = i
		}
	}
	if lastSpace > max*8/10 {
		truncated = truncated[:lastSpace]
	}
	return string(truncated) + "..."
}

// ExtractText joins the non-empty parts (message text, caption), then
// normalizes and bounds the result to max runes.
func ExtractText(max int, parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return Limit(Normalize(strings.Join(nonEmpty, "\n")), max)
}

// splitFloor is the smallest workable chunk limit: below it the ellipsis
// markers leave no room for content and a forced split cannot advance.
const splitFloor = 7

// Split breaks text into chunks of at most max runes (at least
// splitFloor; smaller limits are raised to it). Paragraph boundaries are
// preferred, then sentence boundaries; as a last resort a sentence is
// cut mid-word with ellipsis markers on both sides of the cut. Nothing
// is dropped.
func Split(text string, max int) []string {
	if max < splitFloor {
		max = splitFloor
	}
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	var chunks []string
	current := ""

	for _, paragraph := range strings.Split(text, "\n\n") {
		if utf8.RuneCountInString(paragraph) > max {
			for _, sentence := range splitSentences(paragraph) {
				if utf8.RuneCountInString(current)+utf8.RuneCountInString(sentence)+2 <= max {
					if current != "" {
						current += " " + sentence
					} else {
						current = sentence
					}
					continue
				}

				if current != "" {
					chunks = append(chunks, current)
				}
				current = sentence

				// Forced split: the ellipsis markers flag the cut on
				// both sides so readers see the text continues.
				for utf8.RuneCountInString(current) > max {
					runes := []rune(current)
					cut := max - 3
					chunks = append(chunks, string(runes[:cut])+"...")
					current = "..." + string(runes[cut:])
				}
			}
			continue
		}

		if utf8.RuneCountInString(current)+utf8.RuneCountInString(paragraph)+2 <= max {
			if current != "" {
				current += "\n\n" + paragraph
			} else {
				current = paragraph
			}
		} else {
			if current != "" {
				chunks = append(chunks, current)
			}
			current = paragraph
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// splitSentences cuts text after sentence-terminating punctuation
// followed by whitespace, keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	matches := sentenceEnd.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []string{text}
	}

	parts := make([]string, 0, len(matches)+1)
	start := 0
	for _, m := range matches {
		// m[0] is the punctuation byte; the sentence ends right after it.
		end := m[0] + 1
		parts = append(parts, text[start:end])
		start = m[1]
	}
	if start < len(text) {
		parts = append(parts, text[start:])
	}
	return parts
}

// FormatTranslations renders results into blocks of at most max runes.
// Each result gets a header line; blocks accumulate greedily and flush
// when the next one would overflow. A single oversized block is run
// through Split so it is never silently truncated.
func FormatTranslations(results []translation.Result, sourceLang string, edited bool, max int) []string {
	if len(results) == 0 {
		return nil
	}

	var messages []string
	current := ""

	flush := func() {
		if trimmed := strings.TrimSpace(current); trimmed != "" {
			messages = append(messages, trimmed)
		}
		current = ""
	}

	for _, result := range results {
		header := fmt.Sprintf("Translation (%s→%s):", sourceLang, result.TargetLang)
		if edited {
			header = fmt.Sprintf("Translation (%s→%s, edited):", sourceLang, result.TargetLang)
		}
		block := header + "\n" + result.Text + "\n\n"

		if utf8.RuneCountInString(block) > max {
			flush()
			messages = append(messages, Split(strings.TrimSpace(block), max)...)
			continue
		}

		if utf8.RuneCountInString(current)+utf8.RuneCountInString(block) <= max {
			current += block
		} else {
			flush()
			current = block
		}
	}

	flush()
	return messages
}
