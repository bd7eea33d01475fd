package message

import (
	"strings"
	"testing"
	"unicode/utf8"

	"horse.fit/polyglot/internal/translation"
)

// stripMarkers removes injected ellipsis markers and all whitespace so
// chunk concatenations can be compared against the original content.
func stripMarkers(s string) string {
	s = strings.ReplaceAll(s, "...", "")
	return strings.Join(strings.Fields(s), "")
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  hello   world  ", "hello world"},
		{"line one\n\n\tline two", "line one line two"},
		{"ﬁle", "file"}, // NFKC expands the ligature
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLimit(t *testing.T) {
	t.Parallel()

	if got := Limit("short", 100); got != "short" {
		t.Fatalf("text under limit must pass through, got %q", got)
	}

	long := strings.Repeat("word ", 30) // 150 runes
	got := Limit(long, 100)
	if utf8.RuneCountInString(got) > 103 {
		t.Fatalf("limited text too long: %d runes", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncation must be marked, got %q", got)
	}
	// The cut lands on a word boundary, not mid-word.
	trimmed := strings.TrimSuffix(got, "...")
	if strings.HasSuffix(trimmed, "wor") || strings.HasSuffix(trimmed, "wo") {
		t.Fatalf("expected word-boundary cut, got %q", trimmed)
	}
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	if got := ExtractText(100, "caption here", ""); got != "caption here" {
		t.Fatalf("unexpected extract result %q", got)
	}
	if got := ExtractText(100, "text", "caption"); got != "text caption" {
		t.Fatalf("parts must join before normalizing, got %q", got)
	}
	if got := ExtractText(100, "", "   "); got != "" {
		t.Fatalf("blank parts must yield empty text, got %q", got)
	}
}

func TestSplitShortTextPassesThrough(t *testing.T) {
	t.Parallel()

	chunks := Split("hello world", 100)
	if len(chunks) != 1 || chunks[0] != "hello world" {
		t.Fatalf("unexpected chunks %v", chunks)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	t.Parallel()

	first := strings.Repeat("a", 60)
	second := strings.Repeat("b", 60)
	chunks := Split(first+"\n\n"+second, 100)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != first || chunks[1] != second {
		t.Fatalf("paragraphs must not be cut, got %v", chunks)
	}
}

func TestSplitFallsBackToSentences(t *testing.T) {
	t.Parallel()

	sentence := "This is a complete sentence that runs on for a while."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 5))

	chunks := Split(text, 120)
	for i, chunk := range chunks {
		if utf8.RuneCountInString(chunk) > 120 {
			t.Fatalf("chunk %d exceeds limit: %d runes", i, utf8.RuneCountInString(chunk))
		}
	}
	if got := stripMarkers(strings.Join(chunks, " ")); got != stripMarkers(text) {
		t.Fatal("sentence split lost content")
	}
}

func TestSplitForcedCutIsMarked(t *testing.T) {
	t.Parallel()

	// One unbreakable run: no paragraph or sentence boundaries.
	text := strings.Repeat("x", 250)
	chunks := Split(text, 100)

	for i, chunk := range chunks {
		if utf8.RuneCountInString(chunk) > 100 {
			t.Fatalf("chunk %d exceeds limit: %d runes", i, utf8.RuneCountInString(chunk))
		}
	}
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(chunk, "...") {
			t.Fatalf("forced cut %d must end with ellipsis marker, got %q", i, chunk)
		}
	}
	if got := stripMarkers(strings.Join(chunks, "")); got != text {
		t.Fatalf("forced split lost content: %d vs %d runes", len(got), len(text))
	}
}

func TestSplitChunkInvariant(t *testing.T) {
	t.Parallel()

	// Mixed content: paragraphs, sentences and one unbreakable run.
	inputs := []string{
		strings.Repeat("Short sentence. ", 40),
		strings.Repeat("para\n\n", 30),
		strings.Repeat("z", 333),
		"First paragraph is fine.\n\n" + strings.Repeat("A very long paragraph full of sentences. ", 10),
	}

	for _, text := range inputs {
		chunks := Split(text, 100)
		for i, chunk := range chunks {
			if utf8.RuneCountInString(chunk) > 100 {
				t.Fatalf("chunk %d exceeds 100 runes (%d) for input %.30q", i, utf8.RuneCountInString(chunk), text)
			}
		}
		if got := stripMarkers(strings.Join(chunks, " ")); got != stripMarkers(text) {
			t.Fatalf("content not reconstructed for input %.30q", text)
		}
	}
}

func TestFormatTranslationsHeaders(t *testing.T) {
	t.Parallel()

	results := []translation.Result{
		{Text: "привет", SourceLang: "en", TargetLang: "ru", Provider: "deepl"},
	}

	messages := FormatTranslations(results, "en", false, 3500)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if !strings.HasPrefix(messages[0], "Translation (en→ru):") {
		t.Fatalf("missing header, got %q", messages[0])
	}

	edited := FormatTranslations(results, "en", true, 3500)
	if !strings.HasPrefix(edited[0], "Translation (en→ru, edited):") {
		t.Fatalf("missing edited header, got %q", edited[0])
	}
}

func TestFormatTranslationsGreedyAccumulation(t *testing.T) {
	t.Parallel()

	results := []translation.Result{
		{Text: "uno", SourceLang: "en", TargetLang: "es"},
		{Text: "eins", SourceLang: "en", TargetLang: "de"},
		{Text: "un", SourceLang: "en", TargetLang: "fr"},
	}

	// Generous limit: all three blocks share one message.
	messages := FormatTranslations(results, "en", false, 3500)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d: %v", len(messages), messages)
	}
	for _, lang := range []string{"es", "de", "fr"} {
		if !strings.Contains(messages[0], "en→"+lang) {
			t.Fatalf("missing %s block in %q", lang, messages[0])
		}
	}

	// Tight limit: one block per message.
	messages = FormatTranslations(results, "en", false, 40)
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d: %v", len(messages), messages)
	}
	for i, msg := range messages {
		if utf8.RuneCountInString(msg) > 40 {
			t.Fatalf("message %d exceeds limit: %q", i, msg)
		}
	}
}

func TestFormatTranslationsOversizedBlockIsSplit(t *testing.T) {
	t.Parallel()

	results := []translation.Result{
		{Text: strings.Repeat("big ", 100), SourceLang: "en", TargetLang: "ru"},
	}

	messages := FormatTranslations(results, "en", false, 100)
	if len(messages) < 2 {
		t.Fatalf("oversized block must be split, got %d messages", len(messages))
	}
	for i, msg := range messages {
		if utf8.RuneCountInString(msg) > 100 {
			t.Fatalf("message %d exceeds limit: %d runes", i, utf8.RuneCountInString(msg))
		}
	}
}

func TestFormatTranslationsEmpty(t *testing.T) {
	t.Parallel()

	if got := FormatTranslations(nil, "en", false, 100); got != nil {
		t.Fatalf("expected nil for no results, got %v", got)
	}
}

func TestSplitTinyLimitStillTerminates(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("x", 40)
	for _, max := range []int{-1, 0, 1, 3, 5} {
		chunks := Split(text, max)
		for i, chunk := range chunks {
			if n := utf8.RuneCountInString(chunk); n > 7 {
				t.Fatalf("max=%d: chunk %d has %d runes", max, i, n)
			}
		}
		if got := stripMarkers(strings.Join(chunks, "")); got != text {
			t.Fatalf("max=%d: reconstruction mismatch, got %q", max, got)
		}
	}
}
