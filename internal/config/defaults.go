package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"database_driver": DriverPostgres,
		"database_uri":    "",
		"sqlite_path":     "billme.db",

		"http_addr":          ":8080",
		"http_write_timeout": "30m",
		"timezone":           "UTC",
		"cron_schedule":      "0 9 * * *",
		"cron_secret":        "",

		"expo_base_url":     "https://exp.host",
		"expo_access_token": "",
		"push_chunk_size":   100,

		"slack_webhook_url": "",
		"telegram_token":    "",
		"telegram_chat_id":  0,
		"chat_rate_per_sec": 1.0,

		"call_timeout": "15s",

		"ai_api_key":  "",
		"ai_base_url": "https://openrouter.ai/api/v1",
		"ai_model":    "openai/gpt-4o-mini",

		"log_level": "info",
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
