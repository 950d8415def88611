package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is a per-environment configuration profile: which gateway the
// dashboard talks to, how its cache behaves, and where telemetry goes.
type Profile struct {
	Name         string             `yaml:"name" json:"name"`
	Code         string             `yaml:"code" json:"code"`
	Gateway      GatewayConfig      `yaml:"gateway" json:"gateway"`
	Cache        CacheConfig        `yaml:"cache" json:"cache"`
	Telemetry    TelemetryConfig    `yaml:"telemetry" json:"telemetry"`
	Verification VerificationConfig `yaml:"verification" json:"verification"`
}

// GatewayConfig points the client at one deployment.
type GatewayConfig struct {
	URL              string `yaml:"url" json:"url"`
	ServiceID        string `yaml:"service_id" json:"service_id"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms,omitempty" json:"request_timeout_ms,omitempty"`
	MaxRetries       int    `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	BreakerThreshold int    `yaml:"breaker_threshold,omitempty" json:"breaker_threshold,omitempty"`
	BreakerResetMs   int    `yaml:"breaker_reset_ms,omitempty" json:"breaker_reset_ms,omitempty"`
}

// CacheConfig tunes the query cache. StaleAfterMs is keyed by query key
// root; a negative value means the entry never goes stale.
type CacheConfig struct {
	RedisAddr    string         `yaml:"redis_addr,omitempty" json:"redis_addr,omitempty"`
	SnapshotPath string         `yaml:"snapshot_path,omitempty" json:"snapshot_path,omitempty"`
	TTLMs        int            `yaml:"ttl_ms,omitempty" json:"ttl_ms,omitempty"`
	StaleAfterMs map[string]int `yaml:"stale_after_ms,omitempty" json:"stale_after_ms,omitempty"`
}

// TelemetryConfig controls trace and metric export.
type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled" json:"enabled"`
	Endpoint   string  `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	SampleRate float64 `yaml:"sample_rate,omitempty" json:"sample_rate,omitempty"`
	Insecure   bool    `yaml:"insecure,omitempty" json:"insecure,omitempty"`
}

// VerificationConfig mirrors the backend's verification attempt budget so
// the client can reject over-budget attempts before the wire.
type VerificationConfig struct {
	AttemptsPerWindow int `yaml:"attempts_per_window,omitempty" json:"attempts_per_window,omitempty"`
	WindowSeconds     int `yaml:"window_seconds,omitempty" json:"window_seconds,omitempty"`
}

// LoadProfile loads a profile YAML by environment code. It searches the
// profiles directory for profile_<code>.yaml.
func LoadProfile(profilesDir, code string) (*Profile, error) {
	code = strings.ToLower(code)
	path := filepath.Join(profilesDir, fmt.Sprintf("profile_%s.yaml", code))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", code, err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", code, err)
	}

	if profile.Code == "" {
		profile.Code = code
	}

	return &profile, nil
}

// LoadAllProfiles loads all profile_*.yaml files from the profiles
// directory.
func LoadAllProfiles(profilesDir string) (map[string]*Profile, error) {
	matches, err := filepath.Glob(filepath.Join(profilesDir, "profile_*.yaml"))
	if err != nil {
		return nil, err
	}

	profiles := make(map[string]*Profile, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var profile Profile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		if profile.Code == "" {
			base := filepath.Base(path)
			profile.Code = strings.TrimSuffix(strings.TrimPrefix(base, "profile_"), ".yaml")
		}

		profiles[profile.Code] = &profile
	}

	return profiles, nil
}

// StaleAfter returns the staleness window configured for a query key
// root, or fallback when the profile does not name it.
func (p *Profile) StaleAfter(root string, fallback time.Duration) time.Duration {
	ms, ok := p.Cache.StaleAfterMs[root]
	if !ok {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// RequestTimeout returns the gateway timeout, or fallback when unset.
func (p *Profile) RequestTimeout(fallback time.Duration) time.Duration {
	if p.Gateway.RequestTimeoutMs <= 0 {
		return fallback
	}
	return time.Duration(p.Gateway.RequestTimeoutMs) * time.Millisecond
}

// ApplyProfile overlays the profile's settings onto the config. Fields
// the profile leaves empty keep their environment values.
func (c *Config) ApplyProfile(p *Profile) {
	if p == nil {
		return
	}
	if p.Gateway.URL != "" {
		c.GatewayURL = p.Gateway.URL
	}
	if p.Gateway.ServiceID != "" {
		c.ServiceID = p.Gateway.ServiceID
	}
	if p.Gateway.RequestTimeoutMs > 0 {
		c.RequestTimeout = time.Duration(p.Gateway.RequestTimeoutMs) * time.Millisecond
	}
	if p.Cache.RedisAddr != "" {
		c.RedisAddr = p.Cache.RedisAddr
	}
	if p.Cache.SnapshotPath != "" {
		c.SnapshotPath = p.Cache.SnapshotPath
	}
	if p.Cache.TTLMs > 0 {
		c.CacheTTL = time.Duration(p.Cache.TTLMs) * time.Millisecond
	}
	if p.Telemetry.Endpoint != "" {
		c.TelemetryEndpoint = p.Telemetry.Endpoint
	}
	if p.Telemetry.Enabled {
		c.TelemetryEnabled = true
	}
}
