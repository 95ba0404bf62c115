// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default values applied when the corresponding environment variable is unset.
const (
	DefaultPort          = "8080"
	DefaultDBHost        = "localhost"
	DefaultDBPort        = 5432
	DefaultDBUser        = "postgres"
	DefaultDBPassword    = "postgres"
	DefaultDBName        = "genflow"
	DefaultSweepSchedule = "@every 1m"
	DefaultSweepWorkers  = 4
	// DefaultMaxInputBytes caps referenced input media at 100 MiB.
	DefaultMaxInputBytes = int64(100 << 20)
	DefaultHTTPTimeout   = 60 * time.Second
)

// Provider holds the credentials and endpoint for one generation backend.
type Provider struct {
	APIKey  string
	BaseURL string
}

// Config represents the full service configuration.
type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// SweepSchedule is a cron expression for the recurring poll sweep.
	// Empty disables the in-process scheduler.
	SweepSchedule string
	SweepWorkers  int

	MaxInputBytes int64
	HTTPTimeout   time.Duration

	Seedance Provider
	Kling    Provider

	// EnableMockProvider registers the in-memory provider, useful for local
	// development without real credentials.
	EnableMockProvider bool
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("GENFLOW_ENV", "development"),
		Port: getEnv("PORT", DefaultPort),

		DBHost:     getEnv("DB_HOST", DefaultDBHost),
		DBPort:     getEnvInt("DB_PORT", DefaultDBPort),
		DBUser:     getEnv("DB_USER", DefaultDBUser),
		DBPassword: getEnv("DB_PASSWORD", DefaultDBPassword),
		DBName:     getEnv("DB_NAME", DefaultDBName),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		SweepSchedule: getEnv("SWEEP_SCHEDULE", DefaultSweepSchedule),
		SweepWorkers:  getEnvInt("SWEEP_WORKERS", DefaultSweepWorkers),

		MaxInputBytes: getEnvInt64("MAX_INPUT_BYTES", DefaultMaxInputBytes),
		HTTPTimeout:   time.Second * time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", int(DefaultHTTPTimeout/time.Second))),

		Seedance: Provider{
			APIKey:  os.Getenv("SEEDANCE_API_KEY"),
			BaseURL: getEnv("SEEDANCE_BASE_URL", "https://api.seedance.dev"),
		},
		Kling: Provider{
			APIKey:  os.Getenv("KLING_API_KEY"),
			BaseURL: getEnv("KLING_BASE_URL", "https://api.klingai.com"),
		},

		EnableMockProvider: getEnvBool("ENABLE_MOCK_PROVIDER", false),
	}

	if cfg.SweepWorkers <= 0 {
		return nil, fmt.Errorf("SWEEP_WORKERS must be positive, got %d", cfg.SweepWorkers)
	}
	if cfg.MaxInputBytes <= 0 {
		return nil, fmt.Errorf("MAX_INPUT_BYTES must be positive, got %d", cfg.MaxInputBytes)
	}

	return cfg, nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
