package db

import (
	"context"
	"fmt"

	"horse.fit/polyglot/internal/globaltime"
)

// ChannelStats aggregates per-channel translation counters.
type ChannelStats struct {
	Posts        int64
	Translations int64
}

// RecordTranslationStats increments today's post and translation
// counters for a channel, creating the daily row on first write.
func (p *Pool) RecordTranslationStats(ctx context.Context, channelID int64, posts, translations int) error {
	now := globaltime.Now().UTC()
	today := now.Format("2006-01-02")

	const q = `
INSERT INTO translation_stats (date, channel_id, posts, translations, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (date, channel_id)
DO UPDATE SET
	posts = translation_stats.posts + $3,
	translations = translation_stats.translations + $4
`
	if _, err := p.Exec(ctx, q, today, channelID, posts, translations, now); err != nil {
		return fmt.Errorf("upsert translation stats: %w", err)
	}
	return nil
}

// GetTranslationStats sums a channel's counters over the trailing days.
func (p *Pool) GetTranslationStats(ctx context.Context, channelID int64, days int) (ChannelStats, error) {
	startDate := globaltime.Now().UTC().AddDate(0, 0, -days).Format("2006-01-02")

	const q = `
SELECT COALESCE(SUM(posts), 0), COALESCE(SUM(translations), 0)
FROM translation_stats
WHERE channel_id = $1
  AND date >= $2
`

	var stats ChannelStats
	if err := p.QueryRow(ctx, q, channelID, startDate).Scan(&stats.Posts, &stats.Translations); err != nil {
		return ChannelStats{}, fmt.Errorf("query translation stats: %w", err)
	}
	return stats, nil
}

// CleanupOldStats removes daily rows older than the retention period and
// reports how many were deleted.
func (p *Pool) CleanupOldStats(ctx context.Context, daysToKeep int) (int64, error) {
	cutoff := globaltime.Now().UTC().AddDate(0, 0, -daysToKeep).Format("2006-01-02")

	const q = `
DELETE FROM translation_stats
WHERE date < $1
`
	tag, err := p.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old translation stats: %w", err)
	}
	return tag.RowsAffected(), nil
}
