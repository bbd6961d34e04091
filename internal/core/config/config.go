package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration, passed explicitly to the
// constructors that need it.
type Config struct {
	Port        string
	MetricsPort string
	DatabaseURL string
	// ProviderURL is the payment provider endpoint; empty means local mode
	// where the external call is a no-op success.
	ProviderURL string
	Env         string

	WorkerCount      int
	PollInterval     time.Duration
	MaxAttempts      int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	StuckJobTimeout  time.Duration
}

// LoadConfig reads the .env file (if any) and returns a Config from the
// environment with documented defaults.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on system env variables")
	}

	return &Config{
		Port:        getEnv("PORT", "3000"),
		MetricsPort: getEnv("METRICS_PORT", "9091"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		ProviderURL: getEnv("PROVIDER_URL", ""),
		Env:         getEnv("ENV", "development"),

		WorkerCount:      getEnvInt("WORKER_COUNT", 4),
		PollInterval:     getEnvDuration("POLL_INTERVAL", time.Second),
		MaxAttempts:      getEnvInt("MAX_ATTEMPTS", 3),
		RetryBackoffBase: getEnvDuration("RETRY_BACKOFF_BASE", time.Second),
		RetryBackoffMax:  getEnvDuration("RETRY_BACKOFF_MAX", 60*time.Second),
		StuckJobTimeout:  getEnvDuration("STUCK_JOB_TIMEOUT", 5*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer env value, using default", "key", key, "value", raw)

		return fallback
	}

	return value
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration env value, using default", "key", key, "value", raw)

		return fallback
	}

	return value
}
