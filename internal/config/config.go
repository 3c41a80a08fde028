package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	maxPushChunkSize = 100
)

type Config struct {
	DatabaseDriver string `koanf:"database_driver"`
	DatabaseURI    string `koanf:"database_uri"`
	SQLitePath     string `koanf:"sqlite_path"`

	HTTPAddr         string        `koanf:"http_addr"`
	HTTPWriteTimeout time.Duration `koanf:"http_write_timeout"` // 0 = no write deadline
	Timezone     string `koanf:"timezone"`
	CronSchedule string `koanf:"cron_schedule"` // empty disables the in-process trigger
	CronSecret   string `koanf:"cron_secret"`

	ExpoBaseURL     string `koanf:"expo_base_url"`
	ExpoAccessToken string `koanf:"expo_access_token"`
	PushChunkSize   int    `koanf:"push_chunk_size"`

	SlackWebhookURL string  `koanf:"slack_webhook_url"`
	TelegramToken   string  `koanf:"telegram_token"`
	TelegramChatID  int64   `koanf:"telegram_chat_id"`
	ChatRatePerSec  float64 `koanf:"chat_rate_per_sec"` // 0 = unlimited

	CallTimeout time.Duration `koanf:"call_timeout"`

	AIAPIKey  string `koanf:"ai_api_key"`
	AIBaseURL string `koanf:"ai_base_url"`
	AIModel   string `koanf:"ai_model"`

	LogLevel string `koanf:"log_level"`
}

// Load layers defaults, the optional YAML file at path and the environment.
// A .env file in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	known := DefaultConfig()
	if err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := known[key]; !ok {
			return ""
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseURI == "" {
			errs = append(errs, errors.New("database_uri is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database_driver %q", c.DatabaseDriver))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err))
	}
	if c.PushChunkSize < 1 || c.PushChunkSize > maxPushChunkSize {
		errs = append(errs, fmt.Errorf("push_chunk_size must be between 1 and %d", maxPushChunkSize))
	}
	if c.CallTimeout <= 0 {
		errs = append(errs, errors.New("call_timeout must be positive"))
	}
	if c.HTTPWriteTimeout < 0 {
		errs = append(errs, errors.New("http_write_timeout must not be negative"))
	}
	if c.ChatRatePerSec < 0 {
		errs = append(errs, errors.New("chat_rate_per_sec must not be negative"))
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		errs = append(errs, errors.New("telegram_token and telegram_chat_id must be set together"))
	}

	return errors.Join(errs...)
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
