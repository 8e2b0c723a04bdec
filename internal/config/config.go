package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultMonAddress is the wrapped MON token contract on Monad mainnet.
const DefaultMonAddress = "0x760afe86e5de5fa0ee542fc7b7b713e1c5425701"

// Config holds all configuration for montrack
type Config struct {
	// Database configuration
	DatabaseDSN string

	// Redis configuration
	RedisURL string

	// Chain RPC configuration
	MonadRPCURL       string
	RPCMaxRetries     int
	RPCTimeoutSeconds int

	// Webhook configuration
	WebhookAuthToken string

	// QuickNode key-value list configuration
	KVListURL    string
	KVListAPIKey string
	KVListKey    string

	// MON token address, lowercased
	MonAddress string

	// Ingestion configuration
	MaxConcurrentEvents int

	// HTTP configuration
	HTTPPort    string
	MetricsPort string

	// Logging configuration
	LogLevel string
}

// Load reads configuration from environment variables and validates it
func Load() (Config, error) {
	cfg := Config{
		DatabaseDSN:      getEnv("DATABASE_DSN", ""),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		MonadRPCURL:      getEnv("MONAD_RPC_URL", ""),
		WebhookAuthToken: getEnv("WEBHOOK_AUTH_TOKEN", ""),
		KVListURL:        getEnv("KV_LIST_URL", "https://api.quicknode.com/kv/rest/v1"),
		KVListAPIKey:     getEnv("KV_LIST_API_KEY", ""),
		KVListKey:        getEnv("KV_LIST_KEY", "tracked_wallets"),
		MonAddress:       strings.ToLower(getEnv("MON_ADDRESS", DefaultMonAddress)),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		MetricsPort:      getEnv("METRICS_PORT", "9100"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	// DATABASE_DSN wins; otherwise assemble from discrete DB_* parts
	if cfg.DatabaseDSN == "" {
		if host := getEnv("DB_HOST", ""); host != "" {
			cfg.DatabaseDSN = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
				host,
				getEnv("DB_USER", ""),
				getEnv("DB_PASSWORD", ""),
				getEnv("DB_NAME", ""),
				getEnv("DB_PORT", "5432"),
				getEnv("DB_SSL_MODE", "disable"),
			)
		}
	}

	var err error
	cfg.MaxConcurrentEvents, err = parseIntEnv("MAX_CONCURRENT_EVENTS", 16)
	if err != nil {
		return cfg, fmt.Errorf("invalid MAX_CONCURRENT_EVENTS: %w", err)
	}

	cfg.RPCMaxRetries, err = parseIntEnv("RPC_MAX_RETRIES", 5)
	if err != nil {
		return cfg, fmt.Errorf("invalid RPC_MAX_RETRIES: %w", err)
	}

	cfg.RPCTimeoutSeconds, err = parseIntEnv("RPC_TIMEOUT_SECONDS", 10)
	if err != nil {
		return cfg, fmt.Errorf("invalid RPC_TIMEOUT_SECONDS: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that the configuration is valid
func (c Config) validate() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN (or DB_HOST and friends) is required")
	}

	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.MonadRPCURL == "" {
		return fmt.Errorf("MONAD_RPC_URL is required")
	}

	if c.WebhookAuthToken == "" {
		return fmt.Errorf("WEBHOOK_AUTH_TOKEN is required")
	}

	if c.MonAddress == "" {
		return fmt.Errorf("MON_ADDRESS must not be empty")
	}

	if c.MaxConcurrentEvents < 1 {
		return fmt.Errorf("MAX_CONCURRENT_EVENTS must be at least 1")
	}

	if c.RPCMaxRetries < 0 {
		return fmt.Errorf("RPC_MAX_RETRIES must not be negative")
	}

	if c.RPCTimeoutSeconds < 1 {
		return fmt.Errorf("RPC_TIMEOUT_SECONDS must be at least 1")
	}

	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be one of: trace, debug, info, warn, error, fatal, panic)", c.LogLevel)
	}

	return nil
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an integer environment variable with a default value
func parseIntEnv(key string, defaultValue int) (int, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(str)
}
