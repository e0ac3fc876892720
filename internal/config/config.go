package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var validBackends = []string{BackendMemory, BackendFile, BackendSQLite, BackendPostgres}

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataBackend  string
	StorageKey   string
	DataDir      string
	SQLiteDBPath string
	PostgresURL  string

	// Exchange rates
	RatesBaseURL     string
	RatesDefaultBase string
	RatesTimeout     time.Duration

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// HTTP rate limiting
	RateLimitRPS   float64
	RateLimitBurst int

	StatementCacheTTL time.Duration

	// Worker
	DigestInterval time.Duration
	// WorkerStatusPort serves the worker's digests. Empty disables it.
	WorkerStatusPort string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		StorageKey:   getEnv("STORAGE_KEY", "mini_budget_movements_v1"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/minibudget.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		RatesBaseURL:     getEnv("RATES_BASE_URL", "https://api.frankfurter.app"),
		RatesDefaultBase: strings.ToUpper(getEnv("RATES_DEFAULT_BASE", "EUR")),
		RatesTimeout:     getEnvDuration("RATES_TIMEOUT", 0),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "minibudget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 30),

		StatementCacheTTL: getEnvDuration("STATEMENT_CACHE_TTL", 5*time.Minute),

		DigestInterval:   getEnvDuration("DIGEST_INTERVAL", 10*time.Minute),
		WorkerStatusPort: getEnv("WORKER_STATUS_PORT", "8082"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if msg := validatePort(c.Port); msg != "" {
		errors = append(errors, msg)
	}
	if c.WorkerStatusPort != "" {
		if msg := validatePort(c.WorkerStatusPort); msg != "" {
			errors = append(errors, "worker status "+msg)
		}
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if strings.TrimSpace(c.StorageKey) == "" {
		errors = append(errors, "storage key cannot be empty")
	}

	switch c.DataBackend {
	case BackendFile:
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
		if strings.ContainsAny(c.StorageKey, `/\`) || strings.HasPrefix(c.StorageKey, ".") {
			errors = append(errors, fmt.Sprintf("storage key '%s' is not a valid file name", c.StorageKey))
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendPostgres:
		if c.PostgresURL == "" {
			errors = append(errors, "Postgres URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	}

	if u, err := url.Parse(c.RatesBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid rates base URL '%s': must be an absolute http(s) URL", c.RatesBaseURL))
	}
	if !isCurrencyCode(c.RatesDefaultBase) {
		errors = append(errors, fmt.Sprintf("invalid default rates base '%s': must be a three-letter currency code", c.RatesDefaultBase))
	}
	if c.RatesTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid rates timeout %v: must not be negative", c.RatesTimeout))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %v: must be greater than 0", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	if c.StatementCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid statement cache TTL %v: must be at least 1 second", c.StatementCacheTTL))
	}

	if c.DigestInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid digest interval %v: must be at least 1 second", c.DigestInterval))
	} else if c.DigestInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid digest interval %v: must be at most 24 hours", c.DigestInterval))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func validatePort(value string) string {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Sprintf("invalid port '%s': must be a number", value)
	}
	if port < 1 || port > 65535 {
		return fmt.Sprintf("invalid port %d: must be between 1 and 65535", port)
	}
	return ""
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
