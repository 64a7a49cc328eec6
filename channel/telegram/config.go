package telegram

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// BotConfig holds all configuration needed to create and run the bot.
// Use NewBotConfigFromEnv() to load from environment variables (.env file
// supported).
type BotConfig struct {
	// BotToken authenticates against the bot platform. Required.
	BotToken string
	// PollTimeout is the long-poll timeout in seconds (default 60).
	PollTimeout int
	// RedisAddr selects the Redis session backend when non-empty
	// (host:port). Empty means in-memory sessions.
	RedisAddr string
	// RedisPassword is the optional Redis AUTH password.
	RedisPassword string
	// SessionTTL is the Redis session expiry; 0 = no expiry.
	SessionTTL time.Duration
	// Debug enables verbose logging.
	Debug bool
	// LogFile path for file logging (empty = stdout only).
	LogFile string
}

// NewBotConfigFromEnv loads configuration from environment variables,
// reading a .env file first if one is present. A missing BOT_TOKEN is a
// fatal startup condition for the process.
func NewBotConfigFromEnv() (*BotConfig, error) {
	loadDotEnv()

	botToken := getEnv("BOT_TOKEN", "")
	if botToken == "" {
		return nil, fmt.Errorf("bot token not configured: set BOT_TOKEN in environment")
	}

	pollTimeout, err := strconv.Atoi(getEnv("POLL_TIMEOUT", "60"))
	if err != nil || pollTimeout <= 0 {
		pollTimeout = 60
	}

	var sessionTTL time.Duration
	if raw := getEnv("SESSION_TTL", ""); raw != "" {
		sessionTTL, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", raw, err)
		}
	}

	return &BotConfig{
		BotToken:      botToken,
		PollTimeout:   pollTimeout,
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionTTL:    sessionTTL,
		Debug:         toBool(getEnv("DEBUG", "false")),
		LogFile:       getEnv("LOG_FILE", ""),
	}, nil
}

// Summary returns a human-readable configuration summary with the token masked.
func (c *BotConfig) Summary() string {
	tokenDisplay := c.BotToken
	if len(tokenDisplay) > 10 {
		tokenDisplay = tokenDisplay[:10] + "..."
	}
	return fmt.Sprintf(
		"Token: %s | Poll: %ds | Sessions: %s | Debug: %v",
		tokenDisplay,
		c.PollTimeout,
		defaultStr(c.RedisAddr, "in-memory"),
		c.Debug,
	)
}

// --- internal helpers ---

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.TrimSpace(val)
}

func toBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func defaultStr(s, d string) string {
	if s == "" {
		return d
	}
	return s
}

// loadDotEnv attempts to load a .env file from the current directory.
// It silently ignores errors (file not found, parse errors).
func loadDotEnv() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}
