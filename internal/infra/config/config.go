package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/joho/godotenv"
)

const (
	DefaultEndpoint       = "https://practicum.yandex.ru/api/user_api/homework_statuses/"
	DefaultRetryPeriod    = 600 * time.Second
	DefaultRequestTimeout = 5 * time.Second
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	PracticumToken string
	TelegramToken  string
	TelegramChatID int64
	Endpoint       string
	RetryPeriod    time.Duration
	RequestTimeout time.Duration
	PollCronSpec   string // Optional, replaces the fixed sleep with a cron schedule
	DatabaseURL    string // Optional, enables the notification journal
	LogLevel       string
	Environment    string

	rawChatID string
}

// ConfigurationError lists every required value that is missing or malformed.
type ConfigurationError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid environment variables: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

func (e *ConfigurationError) Kind() homework.Kind { return homework.KindConfiguration }

// Load reads configuration from environment variables and the given .env files
// (".env" when none are given). A missing default .env is ignored, but an
// explicitly named file must load. Existing environment variables are never
// overridden.
// Required values are not checked here, see Validate.
func Load(envFiles ...string) (*AppConfig, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &AppConfig{
		PracticumToken: os.Getenv("PRACTICUM_TOKEN"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		rawChatID:      strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")),
		PollCronSpec:   strings.TrimSpace(os.Getenv("POLL_CRON_SPEC")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
	}
	if cfg.rawChatID != "" {
		// A malformed chat id is reported by Validate together with missing values.
		cfg.TelegramChatID, _ = strconv.ParseInt(cfg.rawChatID, 10, 64)
	}

	cfg.Endpoint = os.Getenv("PRACTICUM_ENDPOINT")
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	cfg.RetryPeriod = DefaultRetryPeriod
	if v := os.Getenv("RETRY_PERIOD"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid RETRY_PERIOD %q: expected a positive number of seconds", v)
		}
		cfg.RetryPeriod = time.Duration(secs) * time.Second
	}

	cfg.RequestTimeout = DefaultRequestTimeout
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: expected a positive duration", v)
		}
		cfg.RequestTimeout = d
	}
	if cfg.RequestTimeout >= cfg.RetryPeriod {
		return nil, fmt.Errorf("REQUEST_TIMEOUT (%s) must be shorter than RETRY_PERIOD (%s)", cfg.RequestTimeout, cfg.RetryPeriod)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}

// Validate checks that the tokens and the chat id needed to run the bot are
// present. The returned *ConfigurationError names every problem at once.
func (c *AppConfig) Validate() error {
	cfgErr := &ConfigurationError{}
	if c.PracticumToken == "" {
		cfgErr.Missing = append(cfgErr.Missing, "PRACTICUM_TOKEN")
	}
	if c.TelegramToken == "" {
		cfgErr.Missing = append(cfgErr.Missing, "TELEGRAM_TOKEN")
	}
	switch {
	case c.rawChatID == "" && c.TelegramChatID == 0:
		cfgErr.Missing = append(cfgErr.Missing, "TELEGRAM_CHAT_ID")
	case c.rawChatID != "":
		if _, err := strconv.ParseInt(c.rawChatID, 10, 64); err != nil {
			cfgErr.Invalid = append(cfgErr.Invalid, "TELEGRAM_CHAT_ID")
		}
	}

	if len(cfgErr.Missing) > 0 || len(cfgErr.Invalid) > 0 {
		return cfgErr
	}
	return nil
}
