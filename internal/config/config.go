package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port        string
	Environment string

	// Telegram bot configuration
	TelegramBotToken    string
	TelegramChatID      int64
	TelegramAPIEndpoint string // override for tests/proxies, empty = api.telegram.org
	TelegramRateLimit   float64

	// Externally visible base URL, used when (re-)registering the webhook.
	// When empty, handlers fall back to the base URL of the incoming request.
	PublicBaseURL string

	// Gallery persistence
	StorePath string

	// Backfill configuration
	BackfillPageSize  int
	BackfillMaxPhotos int
	BackfillOnStart   bool
	BackfillInterval  time.Duration // zero disables the periodic job
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8000"),
		Environment: getEnv("ENVIRONMENT", "development"),

		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:      getInt64Env("TELEGRAM_CHAT_ID", 0),
		TelegramAPIEndpoint: getEnv("TELEGRAM_API_ENDPOINT", ""),
		TelegramRateLimit:   getFloatEnv("TELEGRAM_RATE_LIMIT", 25),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		StorePath: getEnv("GALLERY_STORE_PATH", "data/gallery.json"),

		BackfillPageSize:  getIntEnv("BACKFILL_PAGE_SIZE", 100),
		BackfillMaxPhotos: getIntEnv("BACKFILL_MAX_PHOTOS", 1000),
		BackfillOnStart:   getBoolEnv("BACKFILL_ON_START", false),
		BackfillInterval:  getDurationEnv("BACKFILL_INTERVAL", 0),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
