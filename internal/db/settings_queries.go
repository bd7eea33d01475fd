package db

import (
	"context"
	"fmt"
	"strings"

	"horse.fit/polyglot/internal/globaltime"
	"horse.fit/polyglot/internal/language"
)

// ChannelConfig is the read model for a channel's translation settings.
type ChannelConfig struct {
	TargetLangs   []string
	Autotranslate bool
}

// GetChannelSettings reads a channel's settings, or returns the provided
// defaults when the channel has no row yet.
func (p *Pool) GetChannelSettings(ctx context.Context, chatID int64, defaultLangs []string) (ChannelConfig, error) {
	const q = `
SELECT target_langs, autotranslate
FROM channel_settings
WHERE chat_id = $1
`

	var (
		rawLangs      string
		autotranslate bool
	)
	err := p.QueryRow(ctx, q, chatID).Scan(&rawLangs, &autotranslate)
	if err != nil {
		if IsNoRows(err) {
			return ChannelConfig{
				TargetLangs:   append([]string(nil), defaultLangs...),
				Autotranslate: true,
			}, nil
		}
		return ChannelConfig{}, fmt.Errorf("query channel settings: %w", err)
	}

	langs := language.ParseList(rawLangs)
	if len(langs) == 0 {
		langs = append([]string(nil), defaultLangs...)
	}
	return ChannelConfig{
		TargetLangs:   langs,
		Autotranslate: autotranslate,
	}, nil
}

// SetChannelSettings updates a channel's settings. Nil fields keep
// their current value; a missing row is created with defaultLangs and
// autotranslate on for the fields not supplied, mirroring what
// GetChannelSettings reports for a rowless channel. Last write wins.
func (p *Pool) SetChannelSettings(ctx context.Context, chatID int64, targetLangs []string, autotranslate *bool, defaultLangs []string) error {
	now := globaltime.Now().UTC()

	var langsValue *string
	if targetLangs != nil {
		joined := strings.Join(targetLangs, ",")
		langsValue = &joined
	}
	insertDefault := strings.Join(defaultLangs, ",")

	const q = `
INSERT INTO channel_settings (chat_id, target_langs, autotranslate, created_at, updated_at)
VALUES ($1, COALESCE($2, $5), COALESCE($3, TRUE), $4, $4)
ON CONFLICT (chat_id)
DO UPDATE SET
	target_langs = COALESCE($2, channel_settings.target_langs),
	autotranslate = COALESCE($3, channel_settings.autotranslate),
	updated_at = $4
`
	if _, err := p.Exec(ctx, q, chatID, langsValue, autotranslate, now, insertDefault); err != nil {
		return fmt.Errorf("upsert channel settings: %w", err)
	}
	return nil
}

// GetUserTargetLanguage returns the user's preferred target language,
// or nil when the user has not chosen one yet.
func (p *Pool) GetUserTargetLanguage(ctx context.Context, userID int64) (*string, error) {
	const q = `
SELECT target_lang
FROM user_settings
WHERE user_id = $1
`

	var lang string
	err := p.QueryRow(ctx, q, userID).Scan(&lang)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user settings: %w", err)
	}
	return &lang, nil
}

// SetUserTargetLanguage stores the user's preferred target language.
func (p *Pool) SetUserTargetLanguage(ctx context.Context, userID int64, targetLang string) error {
	now := globaltime.Now().UTC()

	const q = `
INSERT INTO user_settings (user_id, target_lang, created_at, updated_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (user_id)
DO UPDATE SET
	target_lang = $2,
	updated_at = $3
`
	if _, err := p.Exec(ctx, q, userID, targetLang, now); err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}
	return nil
}
