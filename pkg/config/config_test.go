package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TRUEORIGIN_GATEWAY_URL", "")
	t.Setenv("TRUEORIGIN_SERVICE_ID", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("TRUEORIGIN_ENV", "")
	t.Setenv("TRUEORIGIN_REQUEST_TIMEOUT", "")
	t.Setenv("TRUEORIGIN_KEYSTORE", "")
	t.Setenv("TRUEORIGIN_REDIS_ADDR", "")
	t.Setenv("TRUEORIGIN_TELEMETRY", "")

	cfg := config.Load()

	assert.Equal(t, "http://localhost:4943", cfg.GatewayURL)
	assert.Equal(t, "bkyz2-fmaaa-aaaaa-qaaaq-cai", cfg.ServiceID)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Contains(t, cfg.KeystorePath, ".trueorigin")
	assert.Contains(t, cfg.SnapshotPath, ".trueorigin")
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.TelemetryEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TRUEORIGIN_GATEWAY_URL", "https://gateway.trueorigin.example")
	t.Setenv("TRUEORIGIN_SERVICE_ID", "rrkah-fqaaa-aaaaa-aaaaq-cai")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("TRUEORIGIN_ENV", "production")
	t.Setenv("TRUEORIGIN_REQUEST_TIMEOUT", "10s")
	t.Setenv("TRUEORIGIN_KEYSTORE", "/var/lib/trueorigin/session.json")
	t.Setenv("TRUEORIGIN_REDIS_ADDR", "redis:6379")
	t.Setenv("TRUEORIGIN_REDIS_DB", "3")
	t.Setenv("TRUEORIGIN_IDEMPOTENCY_DSN", "postgres://dash@db/dash?sslmode=disable")
	t.Setenv("TRUEORIGIN_TELEMETRY", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg := config.Load()

	assert.Equal(t, "https://gateway.trueorigin.example", cfg.GatewayURL)
	assert.Equal(t, "rrkah-fqaaa-aaaaa-aaaaq-cai", cfg.ServiceID)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/var/lib/trueorigin/session.json", cfg.KeystorePath)
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "postgres://dash@db/dash?sslmode=disable", cfg.IdempotencyDSN)
	assert.True(t, cfg.TelemetryEnabled)
	assert.Equal(t, "collector:4317", cfg.TelemetryEndpoint)
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("TRUEORIGIN_REQUEST_TIMEOUT", "not-a-duration")

	cfg := config.Load()
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}
