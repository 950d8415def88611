package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/agent"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/config"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/dashboard"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/observability"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/query"
)

// app bundles what every subcommand needs: the configuration, the facade
// client, and the resources to release on exit.
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	client *dashboard.Client

	closers []func() error
}

// commonFlags are shared by every subcommand.
type commonFlags struct {
	env      string
	profiles string
	jsonOut  bool
}

func (f *commonFlags) register(cmd *flag.FlagSet) {
	cmd.StringVar(&f.env, "env", os.Getenv("TRUEORIGIN_PROFILE"), "Environment profile code (development, staging, production)")
	cmd.StringVar(&f.profiles, "profiles", os.Getenv("TRUEORIGIN_PROFILES"), "Directory holding profile_<env>.yaml files")
	cmd.BoolVar(&f.jsonOut, "json", false, "Output as JSON")
}

// buildApp assembles the client stack: environment config with an optional
// profile overlay, the cache store, the idempotency store, telemetry, and
// the stored identity when one exists.
func buildApp(flags commonFlags, stderr io.Writer) (*app, error) {
	cfg := config.Load()

	var profile *config.Profile
	if flags.env != "" {
		dir := flags.profiles
		if dir == "" {
			dir = "profiles"
		}
		p, err := config.LoadProfile(dir, flags.env)
		if err != nil {
			return nil, err
		}
		cfg.ApplyProfile(p)
		profile = p
	}

	a := &app{cfg: cfg, log: newLogger(cfg.LogLevel, stderr)}

	store, err := a.openStore()
	if err != nil {
		a.Close()
		return nil, err
	}
	idem, err := a.openIdempotency()
	if err != nil {
		a.Close()
		return nil, err
	}

	var track query.TrackFunc
	if cfg.TelemetryEnabled {
		obs, err := observability.New(context.Background(), &observability.Config{
			ServiceName:    "trueorigin-dashctl",
			ServiceVersion: cliVersion,
			Environment:    cfg.Environment,
			OTLPEndpoint:   cfg.TelemetryEndpoint,
			SampleRate:     1.0,
			BatchTimeout:   5 * time.Second,
			Enabled:        true,
			Insecure:       true,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() error { return obs.Shutdown(context.Background()) })
		track = obs.OperationTracker()
	}

	opts := dashboard.Options{
		Store:       store,
		Idempotency: idem,
		Track:       track,
		Logger:      a.log,
		StaleAfter:  staleWindows(profile),
	}
	if profile != nil {
		if profile.Gateway.MaxRetries > 0 {
			policy := agent.DefaultRetryPolicy
			policy.MaxAttempts = profile.Gateway.MaxRetries
			opts.Actor = append(opts.Actor, agent.WithRetryPolicy(policy))
		}
		if profile.Gateway.BreakerThreshold > 0 {
			reset := time.Duration(profile.Gateway.BreakerResetMs) * time.Millisecond
			if reset <= 0 {
				reset = 30 * time.Second
			}
			opts.Actor = append(opts.Actor, agent.WithBreaker(profile.Gateway.BreakerThreshold, reset))
		}
	}

	a.client = dashboard.New(cfg.GatewayURL, cfg.ServiceID, opts)

	id, err := agent.LoadIdentity(cfg.KeystorePath, passphrase())
	switch {
	case err == nil:
		a.client.Login(id)
	case errors.Is(err, agent.ErrKeystoreMissing):
		// Anonymous until login.
	default:
		a.log.Warn("stored identity unavailable, continuing anonymously", "error", err)
	}

	return a, nil
}

// Close releases stores and telemetry in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
}

// callCtx bounds one gateway round trip.
func (a *app) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.cfg.RequestTimeout)
}

func (a *app) openStore() (query.Store, error) {
	if a.cfg.RedisAddr != "" {
		s := query.NewRedisStore(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB, a.cfg.CacheTTL)
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
	if a.cfg.SnapshotPath != "" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.SnapshotPath), 0o700); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		s, err := query.OpenSnapshotStore(a.cfg.SnapshotPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	}
	return query.NewMemoryStore(), nil
}

func (a *app) openIdempotency() (query.IdempotencyStore, error) {
	if a.cfg.IdempotencyDSN != "" {
		return query.OpenPostgresIdempotencyStore(a.cfg.IdempotencyDSN, a.cfg.CacheTTL)
	}
	return query.NewMemoryIdempotencyStore(a.cfg.CacheTTL), nil
}

// staleWindows converts the profile's per-root windows into the facade's
// shape. Negative values mean never stale.
func staleWindows(p *config.Profile) map[string]time.Duration {
	if p == nil || len(p.Cache.StaleAfterMs) == 0 {
		return nil
	}
	windows := make(map[string]time.Duration, len(p.Cache.StaleAfterMs))
	for root, ms := range p.Cache.StaleAfterMs {
		if ms < 0 {
			windows[root] = query.StaleNever
			continue
		}
		windows[root] = time.Duration(ms) * time.Millisecond
	}
	return windows
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func passphrase() []byte {
	return []byte(os.Getenv("TRUEORIGIN_PASSPHRASE"))
}

func printJSON(w io.Writer, v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(w, string(data))
	return 0
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// parsePairs parses "k=v,k2=v2" into a map. Empty input yields nil.
func parsePairs(s string) (map[string]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	pairs := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("malformed pair %q, want key=value", part)
		}
		pairs[k] = v
	}
	return pairs, nil
}
