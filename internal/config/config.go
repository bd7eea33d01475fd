package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// ProviderNames lists the accepted TRANSLATOR_PROVIDER values.
var ProviderNames = []string{"DEEPL", "GOOGLE", "LIBRE", "MYMEMORY"}

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"PG_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"PG_MAX_CONNS" default:"8"`

	ChatAPIBaseURL string `envconfig:"CHAT_API_BASE_URL" default:""`
	ChatAPIToken   string `envconfig:"CHAT_API_TOKEN" default:""`
	BotUsername    string `envconfig:"BOT_USERNAME" default:""`

	TranslatorProvider        string `envconfig:"TRANSLATOR_PROVIDER" default:"DEEPL"`
	DeepLAPIKey               string `envconfig:"DEEPL_API_KEY" default:""`
	GoogleProjectID           string `envconfig:"GOOGLE_PROJECT_ID" default:""`
	GoogleCredentialsJSONPath string `envconfig:"GOOGLE_CREDENTIALS_JSON_PATH" default:""`
	LibreBaseURL              string `envconfig:"LIBRE_BASE_URL" default:""`
	LibreAPIKey               string `envconfig:"LIBRE_API_KEY" default:""`

	RateLimitRequests int `envconfig:"RATE_LIMIT_REQUESTS" default:"5"`
	RateLimitWindow   int `envconfig:"RATE_LIMIT_WINDOW" default:"15"`

	MaxTextLength    int `envconfig:"MAX_TEXT_LENGTH" default:"4096"`
	MaxCommentLength int `envconfig:"MAX_COMMENT_LENGTH" default:"3500"`

	DefaultChannelLangs string `envconfig:"DEFAULT_CHANNEL_LANGS" default:"en"`
	DefaultUserLang     string `envconfig:"DEFAULT_USER_LANG" default:"en"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("PG_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("PG_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("PG_MIN_CONNS (%d) cannot exceed PG_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	provider := strings.ToUpper(strings.TrimSpace(c.TranslatorProvider))
	valid := false
	for _, name := range ProviderNames {
		if provider == name {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("TRANSLATOR_PROVIDER must be one of: %s", strings.Join(ProviderNames, ", "))
	}
	c.TranslatorProvider = provider

	if c.RateLimitRequests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be >= 1")
	}
	if c.RateLimitWindow < 1 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be >= 1")
	}
	if c.MaxTextLength < 1 {
		return fmt.Errorf("MAX_TEXT_LENGTH must be >= 1")
	}
	if c.MaxCommentLength < 16 {
		return fmt.Errorf("MAX_COMMENT_LENGTH must be >= 16")
	}
	return nil
}

// DefaultChannelLangList splits DEFAULT_CHANNEL_LANGS, dropping blanks and duplicates.
func (c *Config) DefaultChannelLangList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.DefaultChannelLangs, ",")
	langs := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		lang := strings.ToLower(strings.TrimSpace(part))
		if lang == "" {
			continue
		}
		if _, exists := seen[lang]; exists {
			continue
		}
		seen[lang] = struct{}{}
		langs = append(langs, lang)
	}
	return langs
}
