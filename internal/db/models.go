package db

import (
	"time"
)

// ChannelSettings maps channel_settings: per-channel translation targets
// and the autotranslate flag. TargetLangs is a comma-separated list of
// ISO 639-1 codes.
type ChannelSettings struct {
	ChatID        int64     `gorm:"column:chat_id;primaryKey"`
	TargetLangs   string    `gorm:"column:target_langs;type:text;not null;default:en"`
	Autotranslate bool      `gorm:"column:autotranslate;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (ChannelSettings) TableName() string { return "channel_settings" }

// UserSettings maps user_settings: the preferred target language for
// private-chat translations.
type UserSettings struct {
	UserID     int64     `gorm:"column:user_id;primaryKey"`
	TargetLang string    `gorm:"column:target_lang;type:text;not null;default:en"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (UserSettings) TableName() string { return "user_settings" }

// TranslationStat maps translation_stats: one row per channel per day.
type TranslationStat struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Date         string    `gorm:"column:date;type:text;not null;uniqueIndex:idx_stats_date_channel"`
	ChannelID    int64     `gorm:"column:channel_id;type:bigint;not null;uniqueIndex:idx_stats_date_channel"`
	Posts        int       `gorm:"column:posts;type:integer;not null;default:0"`
	Translations int       `gorm:"column:translations;type:integer;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (TranslationStat) TableName() string { return "translation_stats" }

// UserChannel maps user_channels: which user added the bot to which
// channel.
type UserChannel struct {
	UserID    int64     `gorm:"column:user_id;primaryKey"`
	ChannelID int64     `gorm:"column:channel_id;primaryKey"`
	Title     string    `gorm:"column:title;type:text"`
	AddedAt   time.Time `gorm:"column:added_at;type:timestamptz;not null;default:now()"`
}

func (UserChannel) TableName() string { return "user_channels" }
