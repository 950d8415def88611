package dashboard_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/agent"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/dashboard"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/decode"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/query"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/views"
)

func TestInitializeSessionSeedsSessionView(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	user := seededPrincipal(t, 0xB1)
	g.respond(api.MethodInitializeUserSession, authWire("Customer", user))

	auth, err := c.InitializeSession(ctx)
	require.NoError(t, err)
	assert.True(t, auth.IsRegistered)
	assert.Equal(t, views.RoleCustomer, auth.Role)

	// The seeded entry serves session reads without touching the gateway.
	cached, err := c.AuthContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth, cached)
	assert.Equal(t, 0, g.callCount(api.MethodGetAuthContext))
}

func TestInitializeSessionInvalidatesNavigation(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	g.respond(api.MethodGetNavigationContext, map[string]any{
		"user_display_name":         "Dana Reyes",
		"user_avatar_id":            []string{"avatar-7"},
		"current_organization_name": nil,
	})
	_, err := c.NavigationContext(ctx)
	require.NoError(t, err)

	g.respond(api.MethodInitializeUserSession, authWire("Customer", seededPrincipal(t, 0xB2)))
	_, err = c.InitializeSession(ctx)
	require.NoError(t, err)

	_, err = c.NavigationContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, g.callCount(api.MethodGetNavigationContext))
}

func TestSelectActiveOrganizationRefreshesSessionState(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	user := seededPrincipal(t, 0xC1)
	orgID := seededPrincipal(t, 0xC2)
	org := orgWire(orgID, "Acme Fabrication")

	primeAuth(t, g, c, brandOwnerAuthWire(user, nil, org))

	g.respond(api.MethodGetMyOrganizations, []any{org})
	_, err := c.MyOrganizations(ctx)
	require.NoError(t, err)

	g.respond(api.MethodSelectActiveOrganization, brandOwnerAuthWire(user, org, org))
	auth, err := c.SelectActiveOrganization(ctx, orgID)
	require.NoError(t, err)
	require.NotNil(t, auth.BrandOwner)
	require.NotNil(t, auth.BrandOwner.ActiveOrganization)
	assert.Equal(t, "Acme Fabrication", auth.BrandOwner.ActiveOrganization.Name)

	// The session view was replaced in place.
	cached, err := c.AuthContext(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached.BrandOwner)
	assert.NotNil(t, cached.BrandOwner.ActiveOrganization)
	assert.Equal(t, 1, g.callCount(api.MethodGetAuthContext))

	// The organization listing refetches on next read.
	_, err = c.MyOrganizations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, g.callCount(api.MethodGetMyOrganizations))
}

func TestCreateOrganizationForOwnerSeedsContext(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	user := seededPrincipal(t, 0xD1)
	orgID := seededPrincipal(t, 0xD2)
	org := orgWire(orgID, "Northwind Labs")

	g.respond(api.MethodCreateOrganizationForOwner, map[string]any{
		"organization":      org,
		"user_auth_context": brandOwnerAuthWire(user, org, org),
	})

	out, err := c.CreateOrganizationForOwner(ctx, dashboard.CreateOrganizationInput{
		Name:        "Northwind Labs",
		Description: "fabricates authentic goods",
	})
	require.NoError(t, err)
	assert.Equal(t, "Northwind Labs", out.Organization.Name)
	assert.Equal(t, views.RoleBrandOwner, out.AuthContext.Role)

	cached, err := c.AuthContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, g.callCount(api.MethodGetAuthContext))
	require.NotNil(t, cached.BrandOwner)
	assert.True(t, cached.BrandOwner.HasOrganizations)
}

func TestCompleteResellerProfileWire(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	user := seededPrincipal(t, 0xE1)
	orgID := seededPrincipal(t, 0xE2)

	var gotBody []byte
	g.handle(api.MethodCompleteResellerProfile, func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		writeData(t, w, resellerAuthWire(user, orgWire(orgID, "Acme"), "CERT-1234"))
	})

	auth, err := c.CompleteResellerProfile(ctx, dashboard.ResellerProfileInput{
		OrganizationID: orgID,
		Name:           "Reyes Resale",
		ContactEmail:   "dana@acme.example",
	})
	require.NoError(t, err)
	assert.Equal(t, views.RoleReseller, auth.Role)

	var req map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(gotBody, &req))
	assert.JSONEq(t, `["dana@acme.example"]`, string(req["contact_email"]))
	assert.JSONEq(t, `[]`, string(req["contact_phone"]))
	assert.Equal(t, "Reyes Resale", strings.Trim(string(req["reseller_name"]), `"`))
	assert.Equal(t, orgID.String(), strings.Trim(string(req["target_organization_id"]), `"`))
}

func TestUpdateOrganizationReplaysRecordedOutcome(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{
		Idempotency: query.NewMemoryIdempotencyStore(time.Minute),
	})
	ctx := context.Background()

	orgID := seededPrincipal(t, 0xF1)
	g.respond(api.MethodUpdateOrganization, map[string]any{
		"organization": orgWire(orgID, "Acme Fabrication"),
	})

	in := dashboard.UpdateOrganizationInput{ID: orgID, Name: "Acme Fabrication"}
	first, err := c.UpdateOrganization(ctx, in)
	require.NoError(t, err)
	second, err := c.UpdateOrganization(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, g.callCount(api.MethodUpdateOrganization))
}

func TestVerifyProductRefreshesBudget(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	productID := seededPrincipal(t, 0xF2)
	serialNo := seededPrincipal(t, 0xF3)

	g.respond(api.MethodGetVerificationRateLimit, map[string]any{
		"remaining_attempts":   5,
		"reset_time":           1700000300000000000,
		"current_window_start": 1700000000000000000,
	})
	_, err := c.VerificationRateLimit(ctx, productID)
	require.NoError(t, err)

	g.respond(api.MethodVerifyProduct, map[string]any{
		"status":       map[string]any{"FirstVerification": nil},
		"verification": nil,
		"rewards": []any{map[string]any{
			"points":                10,
			"is_first_verification": true,
			"special_reward":        nil,
			"reward_description":    []string{"authentic purchase bonus"},
		}},
		"expiration": nil,
	})
	outcome, err := c.VerifyProduct(ctx, dashboard.VerifyProductInput{
		ProductID:  productID,
		SerialNo:   serialNo,
		UniqueCode: "UC-0001",
		Nonce:      "nonce-1",
	})
	require.NoError(t, err)
	assert.Equal(t, views.VerificationFirst, outcome.Status)
	assert.True(t, outcome.Status.Genuine())
	require.NotNil(t, outcome.Rewards)
	assert.Equal(t, uint32(10), outcome.Rewards.Points)

	// The budget view for this product refetches on next read.
	_, err = c.VerificationRateLimit(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 2, g.callCount(api.MethodGetVerificationRateLimit))
}

func TestRedeemRewardReplaysInsteadOfDoublePaying(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{
		Idempotency: query.NewMemoryIdempotencyStore(time.Minute),
	})
	ctx := context.Background()

	g.respond(api.MethodRedeemProductReward, map[string]any{
		"success":        true,
		"transaction_id": []string{"tx-777"},
		"message":        "reward sent",
	})

	in := dashboard.RedeemRewardInput{
		ProductID:     seededPrincipal(t, 0xF4),
		SerialNo:      seededPrincipal(t, 0xF5),
		UniqueCode:    "UC-0002",
		WalletAddress: "0xabc",
	}
	first, err := c.RedeemReward(ctx, in)
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, "tx-777", first.TransactionID)

	second, err := c.RedeemReward(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, g.callCount(api.MethodRedeemProductReward))
}

func TestMutationFailureAppliesNoEffects(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	user := seededPrincipal(t, 0xF6)
	orgID := seededPrincipal(t, 0xF7)
	primeAuth(t, g, c, brandOwnerAuthWire(user, nil, orgWire(orgID, "Acme")))

	g.respond(api.MethodGetMyOrganizations, []any{orgWire(orgID, "Acme")})
	_, err := c.MyOrganizations(ctx)
	require.NoError(t, err)

	g.respondError(api.MethodSelectActiveOrganization, "Unauthorized", "not an organization member")
	_, err = c.SelectActiveOrganization(ctx, orgID)
	require.Error(t, err)
	assert.True(t, decode.IsKind(err, api.KindUnauthorized))

	_, err = c.MyOrganizations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, g.callCount(api.MethodGetMyOrganizations), "failed mutations must leave cached views untouched")
}

func TestLogoutReturnsAcknowledgement(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	id, err := agent.NewIdentity()
	require.NoError(t, err)
	c.Login(id)

	g.respond(api.MethodLogoutUser, map[string]any{
		"message":      "logged out",
		"redirect_url": []string{"https://dashboard.trueorigin.example/login"},
	})

	out, err := c.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "logged out", out.Message)
	assert.Equal(t, "https://dashboard.trueorigin.example/login", out.RedirectURL)
	assert.True(t, c.Principal().IsAnonymous())
	assert.False(t, c.Authenticated())
}

func TestLogoutTearsDownDespiteRemoteFailure(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	id, err := agent.NewIdentity()
	require.NoError(t, err)
	c.Login(id)

	primeAuth(t, g, c, authWire("Customer", id.Principal()))

	g.respondError(api.MethodLogoutUser, "InternalError", "session registry unavailable")
	_, err = c.Logout(ctx)
	require.Error(t, err)

	_, ok, err := c.Queries().Store().Get(ctx, dashboard.AuthContextKey())
	require.NoError(t, err)
	assert.False(t, ok, "session state must clear even when the remote logout fails")
	assert.False(t, c.Authenticated())
}
