package db

import (
	"context"
	"fmt"
	"time"

	"horse.fit/polyglot/internal/globaltime"
)

// UserChannelInfo is the read model for a user's registered channels.
type UserChannelInfo struct {
	ChannelID     int64
	Title         string
	AddedAt       time.Time
	TargetLangs   string
	Autotranslate bool
}

// AddUserChannel registers that a user added the bot to a channel.
// Re-adding refreshes the title and timestamp.
func (p *Pool) AddUserChannel(ctx context.Context, userID, channelID int64, title string) error {
	now := globaltime.Now().UTC()
	if title == "" {
		title = fmt.Sprintf("Channel %d", channelID)
	}

	const q = `
INSERT INTO user_channels (user_id, channel_id, title, added_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, channel_id)
DO UPDATE SET
	title = $3,
	added_at = $4
`
	if _, err := p.Exec(ctx, q, userID, channelID, title, now); err != nil {
		return fmt.Errorf("upsert user channel: %w", err)
	}
	return nil
}

// RemoveUserChannel drops a user-channel link.
func (p *Pool) RemoveUserChannel(ctx context.Context, userID, channelID int64) error {
	const q = `
DELETE FROM user_channels
WHERE user_id = $1
  AND channel_id = $2
`
	if _, err := p.Exec(ctx, q, userID, channelID); err != nil {
		return fmt.Errorf("delete user channel: %w", err)
	}
	return nil
}

// ListUserChannels returns the channels a user added the bot to, newest
// first, joined with each channel's current settings.
func (p *Pool) ListUserChannels(ctx context.Context, userID int64) ([]UserChannelInfo, error) {
	const q = `
SELECT
	uc.channel_id,
	uc.title,
	uc.added_at,
	COALESCE(cs.target_langs, 'en'),
	COALESCE(cs.autotranslate, TRUE)
FROM user_channels uc
LEFT JOIN channel_settings cs
	ON cs.chat_id = uc.channel_id
WHERE uc.user_id = $1
ORDER BY uc.added_at DESC
`

	rows, err := p.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query user channels: %w", err)
	}
	defer rows.Close()

	items := make([]UserChannelInfo, 0, 8)
	for rows.Next() {
		var row UserChannelInfo
		if err := rows.Scan(&row.ChannelID, &row.Title, &row.AddedAt, &row.TargetLangs, &row.Autotranslate); err != nil {
			return nil, fmt.Errorf("scan user channel row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user channels: %w", err)
	}

	return items, nil
}

// DeleteUserData removes everything stored about a user: their language
// preference and their channel links.
func (p *Pool) DeleteUserData(ctx context.Context, userID int64) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM user_settings WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete user settings: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_channels WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete user channels: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DeleteChannelData removes a channel's settings, statistics and links
// when the bot is removed from it.
func (p *Pool) DeleteChannelData(ctx context.Context, chatID int64) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM channel_settings WHERE chat_id = $1`, chatID); err != nil {
		return fmt.Errorf("delete channel settings: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM translation_stats WHERE channel_id = $1`, chatID); err != nil {
		return fmt.Errorf("delete channel stats: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_channels WHERE channel_id = $1`, chatID); err != nil {
		return fmt.Errorf("delete channel links: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
