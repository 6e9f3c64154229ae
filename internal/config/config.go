package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseDriver  string
	DatabaseURL     string
	LogLevel        string
	LogFormat       string
	Port            string
	PrometheusPort  string
	TelegramToken   string
	AutoMigrate     bool
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment. Values from envFiles (or
// ".env" when none are given) are loaded first; a missing file is ignored,
// and variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{
		DatabaseDriver: getEnvOrDefault("DATABASE_DRIVER", DriverPostgres),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		Port:           getEnvOrDefault("PORT", "8080"),
		PrometheusPort: getEnvOrDefault("PROMETHEUS_PORT", "9090"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
	}

	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, cfg.DatabaseDriver)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\", got %q", cfg.LogFormat)
	}

	var err error
	if cfg.AutoMigrate, err = strconv.ParseBool(getEnvOrDefault("AUTO_MIGRATE", "true")); err != nil {
		return nil, fmt.Errorf("invalid AUTO_MIGRATE: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(getEnvOrDefault("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// BotEnabled reports whether the Telegram front end should be started
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
