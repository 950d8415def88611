// Package config loads dashboard client configuration from environment
// variables, with optional per-environment YAML profiles layered on top.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds dashboard client configuration.
type Config struct {
	GatewayURL     string
	ServiceID      string
	LogLevel       string
	Environment    string
	RequestTimeout time.Duration

	KeystorePath string
	SnapshotPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	IdempotencyDSN string

	TelemetryEnabled  bool
	TelemetryEndpoint string
}

// Load loads configuration from environment variables.
func Load() *Config {
	gateway := os.Getenv("TRUEORIGIN_GATEWAY_URL")
	if gateway == "" {
		// Local replica default
		gateway = "http://localhost:4943"
	}

	serviceID := os.Getenv("TRUEORIGIN_SERVICE_ID")
	if serviceID == "" {
		serviceID = "bkyz2-fmaaa-aaaaa-qaaaq-cai"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	environment := os.Getenv("TRUEORIGIN_ENV")
	if environment == "" {
		environment = "development"
	}

	stateDir := defaultStateDir()
	keystore := os.Getenv("TRUEORIGIN_KEYSTORE")
	if keystore == "" {
		keystore = filepath.Join(stateDir, "session.json")
	}
	snapshot := os.Getenv("TRUEORIGIN_SNAPSHOT")
	if snapshot == "" {
		snapshot = filepath.Join(stateDir, "cache.db")
	}

	redisDB := 0
	if v := os.Getenv("TRUEORIGIN_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	telemetryEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if telemetryEndpoint == "" {
		telemetryEndpoint = "localhost:4317"
	}

	return &Config{
		GatewayURL:        gateway,
		ServiceID:         serviceID,
		LogLevel:          logLevel,
		Environment:       environment,
		RequestTimeout:    durationEnv("TRUEORIGIN_REQUEST_TIMEOUT", 30*time.Second),
		KeystorePath:      keystore,
		SnapshotPath:      snapshot,
		RedisAddr:         os.Getenv("TRUEORIGIN_REDIS_ADDR"),
		RedisPassword:     os.Getenv("TRUEORIGIN_REDIS_PASSWORD"),
		RedisDB:           redisDB,
		CacheTTL:          durationEnv("TRUEORIGIN_CACHE_TTL", 15*time.Minute),
		IdempotencyDSN:    os.Getenv("TRUEORIGIN_IDEMPOTENCY_DSN"),
		TelemetryEnabled:  os.Getenv("TRUEORIGIN_TELEMETRY") == "true",
		TelemetryEndpoint: telemetryEndpoint,
	}
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".trueorigin"
	}
	return filepath.Join(home, ".trueorigin")
}
