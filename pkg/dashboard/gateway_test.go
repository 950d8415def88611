package dashboard_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/agent"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/dashboard"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/views"
)

const testServiceID = "rrkah-fqaaa-aaaaa-aaaaq-cai"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gateway is an in-process stand-in for the HTTP gateway. Tests register a
// handler per method; a call to an unregistered method fails the test.
type gateway struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	calls    map[string]int
	handlers map[string]http.HandlerFunc
}

func newGateway(t *testing.T) *gateway {
	g := &gateway{
		t:        t,
		calls:    make(map[string]int),
		handlers: make(map[string]http.HandlerFunc),
	}
	g.srv = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *gateway) serve(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	method := parts[len(parts)-1]

	g.mu.Lock()
	g.calls[method]++
	h := g.handlers[method]
	g.mu.Unlock()

	if h == nil {
		g.t.Errorf("unexpected gateway call %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h(w, r)
}

func (g *gateway) handle(method string, h http.HandlerFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[method] = h
}

// respond answers method with a successful envelope around v.
func (g *gateway) respond(method string, v any) {
	g.handle(method, func(w http.ResponseWriter, _ *http.Request) {
		writeData(g.t, w, v)
	})
}

// respondRaw answers method with raw JSON, no envelope.
func (g *gateway) respondRaw(method, raw string) {
	g.handle(method, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(raw))
	})
}

// respondError answers method with an error envelope.
func (g *gateway) respondError(method, kind, message string) {
	g.handle(method, func(w http.ResponseWriter, _ *http.Request) {
		writeError(g.t, w, kind, message)
	})
}

func (g *gateway) callCount(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

// client builds a facade pointed at this gateway.
func (g *gateway) client(opts dashboard.Options) *dashboard.Client {
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return dashboard.New(g.srv.URL, testServiceID, opts)
}

func writeData(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	raw, err := json.Marshal(map[string]any{
		"data":  []any{v},
		"error": nil,
		"metadata": map[string]any{
			"timestamp":  time.Now().UnixNano(),
			"version":    "1.0",
			"request_id": []string{"req-test"},
		},
	})
	require.NoError(t, err)
	_, _ = w.Write(raw)
}

func writeError(t *testing.T, w http.ResponseWriter, kind, message string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	raw, err := json.Marshal(map[string]any{
		"data": nil,
		"error": []any{map[string]any{
			kind: map[string]any{"message": message, "details": []any{}},
		}},
		"metadata": map[string]any{
			"timestamp":  time.Now().UnixNano(),
			"version":    "1.0",
			"request_id": []string{"req-test"},
		},
	})
	require.NoError(t, err)
	_, _ = w.Write(raw)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

// seededPrincipal derives a stable principal for fixtures.
func seededPrincipal(t *testing.T, seed byte) candid.Principal {
	t.Helper()
	id, err := agent.IdentityFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
	require.NoError(t, err)
	return id.Principal()
}

// primeAuth seeds the cached session view by serving and running the
// session query once.
func primeAuth(t *testing.T, g *gateway, c *dashboard.Client, wire map[string]any) views.AuthContext {
	t.Helper()
	g.respond(api.MethodGetAuthContext, wire)
	auth, err := c.AuthContext(context.Background())
	require.NoError(t, err)
	return auth
}

// --- wire fixtures ---

func userWire(id candid.Principal) map[string]any {
	return map[string]any{
		"id":         id.String(),
		"first_name": []string{"Dana"},
		"last_name":  []string{"Reyes"},
		"email":      []string{"dana@acme.example"},
		"created_at": 1700000000000000000,
	}
}

func orgWire(id candid.Principal, name string) map[string]any {
	return map[string]any{
		"id":          id.String(),
		"name":        name,
		"description": "fabricates authentic goods",
		"metadata":    []any{},
		"created_at":  1700000000000000000,
		"created_by":  id.String(),
		"updated_at":  1700000000000000000,
		"updated_by":  id.String(),
	}
}

func authWire(role string, user candid.Principal) map[string]any {
	return map[string]any{
		"user":                []any{userWire(user)},
		"is_registered":       true,
		"role":                []any{map[string]any{role: nil}},
		"brand_owner_details": nil,
		"reseller_details":    nil,
	}
}

func brandOwnerAuthWire(user candid.Principal, active map[string]any, orgs ...map[string]any) map[string]any {
	wire := authWire("BrandOwner", user)
	details := map[string]any{
		"has_organizations":   len(orgs) > 0,
		"organizations":       []any{orgs},
		"active_organization": nil,
	}
	if active != nil {
		details["active_organization"] = []any{active}
	}
	wire["brand_owner_details"] = []any{details}
	return wire
}

func resellerAuthWire(user candid.Principal, org map[string]any, code string) map[string]any {
	wire := authWire("Reseller", user)
	wire["reseller_details"] = []any{map[string]any{
		"is_profile_complete_and_verified": true,
		"associated_organization":          []any{org},
		"certification_code":               []string{code},
		"certification_timestamp":          []any{1700000000000000000},
	}}
	return wire
}

func resellerWire(userID, orgID candid.Principal, code string) map[string]any {
	return map[string]any{
		"id":                      userID.String(),
		"user_id":                 userID.String(),
		"organization_id":         orgID.String(),
		"name":                    "Reyes Resale",
		"public_key":              "302a300506032b6570032100bb",
		"contact_email":           []string{"dana@acme.example"},
		"contact_phone":           nil,
		"ecommerce_urls":          []any{},
		"additional_metadata":     []any{},
		"is_verified":             true,
		"certification_code":      []string{code},
		"certification_timestamp": []any{1700000000000000000},
		"created_at":              1700000000000000000,
		"updated_at":              1700000000000000000,
	}
}
