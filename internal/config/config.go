package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the chat client core.
type Config struct {
	APIBaseURL string // REST collaborator base URL
	PushURL    string // websocket push channel URL
	Token      string // bearer credential from the auth module

	PollInterval    time.Duration // active-room fetch cadence
	ReceiptDebounce time.Duration // quiet period before read receipts flush
	ComposingIdle   time.Duration // keystroke idle time before composing clears

	// Session actor, as resolved by the out-of-scope auth module.
	ActorID   int64
	ActorName string
	ActorRole string

	Env      string
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables. A .env file is
// loaded first if present (development convenience).
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:      getEnv("CHAT_API_URL", "http://localhost:8080"),
		PushURL:         getEnv("CHAT_PUSH_URL", "ws://localhost:8080/ws"),
		Token:           os.Getenv("CHAT_TOKEN"),
		PollInterval:    getDuration("CHAT_POLL_INTERVAL", 3*time.Second),
		ReceiptDebounce: getDuration("CHAT_RECEIPT_DEBOUNCE", time.Second),
		ComposingIdle:   getDuration("CHAT_COMPOSING_IDLE", 2*time.Second),
		ActorID:         getInt64("CHAT_USER_ID", 0),
		ActorName:       os.Getenv("CHAT_USER_NAME"),
		ActorRole:       getEnv("CHAT_USER_ROLE", "employee"),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         os.Getenv("LOG_FILE"),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
