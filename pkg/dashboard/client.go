// Package dashboard assembles the client stack behind one facade: the
// session provider, the query cache, the envelope decoder and the view
// mappers, bound into the concrete queries and mutations the dashboard
// consumes. Each query carries its cache key, staleness window and enable
// predicate; each mutation carries its cache effects.
package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/agent"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/decode"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/query"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/views"
)

// Cache key roots. Staleness windows are configured per root, so profile
// files and DefaultWindows speak the same names.
const (
	rootAuthContext   = "authContext"
	rootNavContext    = "navigationContext"
	rootMyOrgs        = "myOrganizations"
	rootCertification = "myResellerCertification"
	rootOrgSearch     = "findOrganizationsByName"
	rootOrganization  = "organization"
	rootListing       = "organizations"
	rootAnalytics     = "organizationAnalytics"
	rootRateLimit     = "verificationRateLimit"
	rootRoles         = "availableRoles"
	rootProduct       = "product"
	rootUser          = "user"
)

// DefaultWindows returns the staleness window per cache key root. Session
// state ages quickly, the role catalog never does.
func DefaultWindows() map[string]time.Duration {
	return map[string]time.Duration{
		rootAuthContext:   30 * time.Second,
		rootNavContext:    time.Minute,
		rootMyOrgs:        time.Minute,
		rootCertification: 5 * time.Minute,
		rootOrgSearch:     30 * time.Second,
		rootOrganization:  time.Minute,
		rootListing:       30 * time.Second,
		rootAnalytics:     time.Minute,
		rootRateLimit:     10 * time.Second,
		rootRoles:         query.StaleNever,
		rootProduct:       time.Minute,
		rootUser:          time.Minute,
	}
}

// Options configure the facade. Zero values select an in-memory cache, the
// default logger and no telemetry.
type Options struct {
	// Store backs the query cache.
	Store query.Store
	// Idempotency records mutation outcomes for replay.
	Idempotency query.IdempotencyStore
	// Track times queries and mutations. The telemetry provider's
	// OperationTracker fits here.
	Track query.TrackFunc
	// Logger receives diagnostics from every layer.
	Logger *slog.Logger
	// StaleAfter overrides staleness windows per key root. Negative values
	// keep entries fresh until something invalidates them.
	StaleAfter map[string]time.Duration
	// Actor extends the options every gateway actor is built with.
	Actor []agent.ActorOption
}

// Client is the dashboard facade. One instance serves all goroutines.
type Client struct {
	provider *agent.Provider
	queries  *query.Client
	decoder  *decode.Decoder
	mapper   *views.Mapper
	log      *slog.Logger
	windows  map[string]time.Duration
}

// New wires a facade for the given gateway and canister, starting with the
// anonymous identity.
func New(gatewayURL, serviceID string, opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	windows := DefaultWindows()
	for root, d := range opts.StaleAfter {
		windows[root] = d
	}

	c := &Client{
		decoder: decode.New(log),
		mapper:  views.NewMapper(log),
		log:     log,
		windows: windows,
	}
	c.queries = query.NewClient(query.Options{
		Store:       opts.Store,
		Logger:      log,
		Track:       opts.Track,
		Idempotency: opts.Idempotency,
	})

	actorOpts := append([]agent.ActorOption{agent.WithLogger(log)}, opts.Actor...)
	c.provider = agent.NewProvider(func(id *agent.Identity) agent.Actor {
		return agent.NewHTTPActor(gatewayURL, serviceID, id, actorOpts...)
	}, log)

	// Crossing an identity boundary drops every cached view.
	c.provider.OnSwap(func(previous, next *agent.Identity) {
		if previous.Principal().Equal(next.Principal()) {
			return
		}
		if err := c.queries.Apply(context.Background(), query.ClearAll()); err != nil {
			log.Warn("cache clear on session swap failed", "error", err)
		}
	})
	return c
}

// Login installs id as the acting identity. A nil id logs in anonymously.
func (c *Client) Login(id *agent.Identity) {
	c.provider.Swap(id)
}

// Principal returns the acting principal.
func (c *Client) Principal() candid.Principal {
	return c.provider.Principal()
}

// Authenticated reports whether a signing identity is installed.
func (c *Client) Authenticated() bool {
	return c.provider.Authenticated()
}

// Provider exposes the session provider.
func (c *Client) Provider() *agent.Provider {
	return c.provider
}

// Queries exposes the cache client for warm-up and direct effects.
func (c *Client) Queries() *query.Client {
	return c.queries
}

// NotifyFocus tells the cache the embedding surface regained user
// attention. Session-sensitive views refetch on their next read.
func (c *Client) NotifyFocus() {
	c.queries.NotifyFocus()
}

func (c *Client) window(root string) time.Duration {
	return c.windows[root]
}

// cachedRole reads the role from the cached session view without fetching.
// Unresolved or undecodable entries report RoleUnknown, which keeps the
// role-gated queries disabled until the session view lands.
func (c *Client) cachedRole(ctx context.Context) views.Role {
	entry, ok, err := c.queries.Store().Get(ctx, AuthContextKey())
	if err != nil || !ok {
		return views.RoleUnknown
	}
	var auth views.AuthContext
	if err := json.Unmarshal(entry.Payload, &auth); err != nil {
		return views.RoleUnknown
	}
	return auth.Role
}
