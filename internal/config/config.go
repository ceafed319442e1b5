package config

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/hamed0406/sitewatch/internal/domain"
)

type NotifyConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	SlackWebhook   string `mapstructure:"slack_webhook"`
	TelegramToken  string `mapstructure:"telegram_token"`
	TelegramChatID string `mapstructure:"telegram_chat_id"`
}

type Config struct {
	Sites           []string      `mapstructure:"sites"`
	PollInterval    int           `mapstructure:"poll_interval"` // seconds, shared by all sites
	LogDir          string        `mapstructure:"log_dir"`
	AggregateLog    string        `mapstructure:"aggregate_log"`
	TruncateOnStart bool          `mapstructure:"truncate_on_start"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	OpsAddr         string        `mapstructure:"ops_addr"` // empty disables the ops endpoint
	Notify          NotifyConfig  `mapstructure:"notify"`
}

// Load reads the YAML config (path, or sitewatch.yaml in . and ./config)
// with SITEWATCH_* environment overrides, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("sites", []string{})
	v.SetDefault("poll_interval", 60)
	v.SetDefault("log_dir", "logs")
	v.SetDefault("aggregate_log", "logs/all.log")
	v.SetDefault("truncate_on_start", false)
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("ops_addr", "")
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.slack_webhook", "")
	v.SetDefault("notify.telegram_token", "")
	v.SetDefault("notify.telegram_chat_id", "")

	v.SetEnvPrefix("SITEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sitewatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
		// No file is fine; env vars and defaults still apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Sites, validation.Required, validation.Each(is.URL)),
		validation.Field(&c.PollInterval, validation.Required, validation.Min(1)),
		validation.Field(&c.LogDir, validation.Required),
		validation.Field(&c.AggregateLog, validation.Required),
		validation.Field(&c.Notify),
	)
}

func (n NotifyConfig) Validate() error {
	if !n.Enabled {
		return nil
	}
	if n.SlackWebhook == "" && n.TelegramToken == "" {
		return errors.New("notify enabled but no channel configured")
	}
	if n.TelegramToken != "" && n.TelegramChatID == "" {
		return errors.New("telegram_token set but telegram_chat_id empty")
	}
	return nil
}

// SiteList expands the configured URLs into per-site configs sharing the
// one poll interval.
func (c Config) SiteList() []domain.Site {
	out := make([]domain.Site, 0, len(c.Sites))
	for _, u := range c.Sites {
		out = append(out, domain.Site{URL: u, PollInterval: c.PollInterval})
	}
	return out
}
