package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI string

	// Timezone is the scheduler's local timezone: reference dates, the
	// daily regeneration boundary, and user-facing time labels all use it.
	// Persisted instants are always UTC.
	Timezone string

	DispatchInterval time.Duration
	DispatchGrace    time.Duration
	NotifyTimeout    time.Duration
	StartupDelay     time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string

	TelegramToken string

	LogLevel string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	cfg := &Config{
		DatabaseURI:      os.Getenv("DATABASE_URI"),
		Timezone:         getEnvOrDefault("TIMEZONE", "Asia/Karachi"),
		DispatchInterval: getDurationOrDefault("DISPATCH_INTERVAL", time.Minute),
		DispatchGrace:    getDurationOrDefault("DISPATCH_GRACE", 5*time.Minute),
		NotifyTimeout:    getDurationOrDefault("NOTIFY_TIMEOUT", 30*time.Second),
		StartupDelay:     getDurationOrDefault("STARTUP_DELAY", 5*time.Second),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getIntOrDefault("SMTP_PORT", 587),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		FromEmail:        os.Getenv("FROM_EMAIL"),
		FromName:         getEnvOrDefault("FROM_NAME", "DoseAlert"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	return cfg, nil
}

// Location resolves the configured local timezone. Load already validated
// it, so this never fails after a successful Load.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
