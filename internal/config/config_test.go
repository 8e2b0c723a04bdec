package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"DATABASE_DSN", "DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PORT", "DB_SSL_MODE",
	"REDIS_URL", "MONAD_RPC_URL", "RPC_MAX_RETRIES", "RPC_TIMEOUT_SECONDS",
	"WEBHOOK_AUTH_TOKEN", "KV_LIST_URL", "KV_LIST_API_KEY", "KV_LIST_KEY",
	"MON_ADDRESS", "MAX_CONCURRENT_EVENTS", "HTTP_PORT", "METRICS_PORT", "LOG_LEVEL",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		if value, ok := os.LookupEnv(key); ok {
			t.Setenv(key, value) // register restore
			os.Unsetenv(key)
		}
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "host=localhost user=montrack dbname=montrack")
	t.Setenv("MONAD_RPC_URL", "https://rpc.example.com")
	t.Setenv("WEBHOOK_AUTH_TOKEN", "secret")
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, DefaultMonAddress, cfg.MonAddress)
	assert.Equal(t, 16, cfg.MaxConcurrentEvents)
	assert.Equal(t, 5, cfg.RPCMaxRetries)
	assert.Equal(t, 10, cfg.RPCTimeoutSeconds)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "9100", cfg.MetricsPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "tracked_wallets", cfg.KVListKey)
}

func TestLoadAssemblesDSNFromParts(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MONAD_RPC_URL", "https://rpc.example.com")
	t.Setenv("WEBHOOK_AUTH_TOKEN", "secret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "montrack")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "montrack")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.DatabaseDSN, "host=db.internal")
	assert.Contains(t, cfg.DatabaseDSN, "port=5432")
	assert.Contains(t, cfg.DatabaseDSN, "sslmode=disable")
}

func TestLoadRequiresDatabase(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("MONAD_RPC_URL", "https://rpc.example.com")
	t.Setenv("WEBHOOK_AUTH_TOKEN", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DSN")
}

func TestLoadRequiresAuthToken(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DATABASE_DSN", "host=localhost")
	t.Setenv("MONAD_RPC_URL", "https://rpc.example.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEBHOOK_AUTH_TOKEN")
}

func TestLoadLowercasesMonAddress(t *testing.T) {
	clearConfigEnv(t)
	setRequiredEnv(t)
	t.Setenv("MON_ADDRESS", "0xABCDEF0000000000000000000000000000000001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", cfg.MonAddress)
}

func TestLoadRejectsBadIntegers(t *testing.T) {
	clearConfigEnv(t)
	setRequiredEnv(t)
	t.Setenv("MAX_CONCURRENT_EVENTS", "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_CONCURRENT_EVENTS")
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	clearConfigEnv(t)
	setRequiredEnv(t)
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}
