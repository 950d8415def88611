package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/dashboard"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/decode"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/query"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/views"
)

func TestAuthContextServedFromCacheWithinWindow(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	user := seededPrincipal(t, 0x11)
	g.respond(api.MethodGetAuthContext, authWire("Customer", user))

	first, err := c.AuthContext(ctx)
	require.NoError(t, err)
	second, err := c.AuthContext(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, g.callCount(api.MethodGetAuthContext))
	assert.Equal(t, views.RoleCustomer, first.Role)
	require.NotNil(t, first.User)
	assert.Equal(t, user.String(), first.User.ID.String())
	assert.Equal(t, first, second)
}

func TestNavigationContextFlattensOptionals(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})

	g.respond(api.MethodGetNavigationContext, map[string]any{
		"user_display_name":         "Dana Reyes",
		"user_avatar_id":            []string{"avatar-7"},
		"current_organization_name": nil,
	})

	nav, err := c.NavigationContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Dana Reyes", nav.DisplayName)
	assert.Equal(t, "avatar-7", nav.AvatarID)
	assert.Empty(t, nav.OrganizationName)
}

func TestMyOrganizationsGatedByBrandOwnerRole(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	_, err := c.MyOrganizations(ctx)
	require.ErrorIs(t, err, query.ErrDisabled)
	assert.Equal(t, 0, g.callCount(api.MethodGetMyOrganizations))

	user := seededPrincipal(t, 0x21)
	orgID := seededPrincipal(t, 0x22)
	primeAuth(t, g, c, brandOwnerAuthWire(user, nil, orgWire(orgID, "Acme Fabrication")))

	g.respond(api.MethodGetMyOrganizations, []any{orgWire(orgID, "Acme Fabrication")})
	orgs, err := c.MyOrganizations(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 1)
	assert.Equal(t, "Acme Fabrication", orgs[0].Name)
}

func TestMyResellerCertificationGatedByResellerRole(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	user := seededPrincipal(t, 0x31)
	orgID := seededPrincipal(t, 0x32)
	primeAuth(t, g, c, brandOwnerAuthWire(user, nil, orgWire(orgID, "Acme")))

	_, err := c.MyResellerCertification(ctx)
	require.ErrorIs(t, err, query.ErrDisabled)
	assert.Equal(t, 0, g.callCount(api.MethodGetMyResellerCertification))
}

func TestFindOrganizationsByNameBlankQueryDisabled(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})

	_, err := c.FindOrganizationsByName(context.Background(), "   ")
	require.ErrorIs(t, err, query.ErrDisabled)
	assert.Equal(t, 0, g.callCount(api.MethodFindOrganizationsByName))
}

func TestFindOrganizationsByNameCachesPerName(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	orgID := seededPrincipal(t, 0x41)
	g.handle(api.MethodFindOrganizationsByName, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(mustJSON(t, []any{orgWire(orgID, req.Name)})))
	})

	acme, err := c.FindOrganizationsByName(ctx, "Acme")
	require.NoError(t, err)
	require.Len(t, acme, 1)
	assert.Equal(t, "Acme", acme[0].Name)

	_, err = c.FindOrganizationsByName(ctx, "Globex")
	require.NoError(t, err)
	_, err = c.FindOrganizationsByName(ctx, "Acme")
	require.NoError(t, err)

	assert.Equal(t, 2, g.callCount(api.MethodFindOrganizationsByName))
}

func TestOrganizationEnvelopeErrorSurfacesTypedFailure(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	orgID := seededPrincipal(t, 0x51)
	g.respondError(api.MethodGetOrganizationByID, "NotFound", "no such organization")

	_, err := c.Organization(ctx, orgID)
	require.Error(t, err)
	f, ok := decode.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, api.KindNotFound, f.Kind)
	assert.Equal(t, "no such organization", f.Message)
	assert.Equal(t, api.MethodGetOrganizationByID, f.Method)

	// Failures are never cached; the next read hits the gateway again.
	_, err = c.Organization(ctx, orgID)
	require.Error(t, err)
	assert.Equal(t, 2, g.callCount(api.MethodGetOrganizationByID))
}

func TestListOrganizationsCarriesPageInfo(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})

	orgID := seededPrincipal(t, 0x52)
	g.respond(api.MethodListOrganizations, map[string]any{
		"organizations": []any{orgWire(orgID, "Acme Fabrication")},
		"pagination": []any{map[string]any{
			"page":     1,
			"limit":    20,
			"total":    41,
			"has_more": true,
		}},
	})

	list, err := c.ListOrganizations(context.Background(), "Acme", 1, 20)
	require.NoError(t, err)
	require.Len(t, list.Organizations, 1)
	require.NotNil(t, list.Page)
	assert.Equal(t, uint64(41), list.Page.Total)
	assert.True(t, list.Page.HasMore)
}

func TestOrganizationAnalyticsDecodes(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})

	orgID := seededPrincipal(t, 0x53)
	g.respond(api.MethodGetOrganizationAnalytic, map[string]any{
		"total_products":           12,
		"active_resellers":         4,
		"verifications_this_month": 230,
	})

	analytics, err := c.OrganizationAnalytics(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), analytics.TotalProducts)
	assert.Equal(t, uint64(4), analytics.ActiveResellers)
	assert.Equal(t, uint64(230), analytics.VerificationsThisMonth)
}

func TestAvailableRolesStayFresh(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	g.respond(api.MethodGetAvailableRoles, []any{
		map[string]any{"Customer": nil},
		map[string]any{"Reseller": nil},
		map[string]any{"BrandOwner": nil},
	})

	roles, err := c.AvailableRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []views.Role{views.RoleCustomer, views.RoleReseller, views.RoleBrandOwner}, roles)

	_, err = c.AvailableRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, g.callCount(api.MethodGetAvailableRoles))
}

func TestVerificationRateLimitKeyedPerProduct(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})
	ctx := context.Background()

	g.respond(api.MethodGetVerificationRateLimit, map[string]any{
		"remaining_attempts":   3,
		"reset_time":           1700000300000000000,
		"current_window_start": 1700000000000000000,
	})

	first := seededPrincipal(t, 0x61)
	second := seededPrincipal(t, 0x62)

	limit, err := c.VerificationRateLimit(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), limit.RemainingAttempts)
	assert.False(t, limit.Exhausted())

	_, err = c.VerificationRateLimit(ctx, second)
	require.NoError(t, err)
	_, err = c.VerificationRateLimit(ctx, first)
	require.NoError(t, err)

	assert.Equal(t, 2, g.callCount(api.MethodGetVerificationRateLimit))
}

func TestProductLookupFoldsNoneToNil(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})

	g.respondRaw(api.MethodGetProductByID, `"none"`)

	product, err := c.Product(context.Background(), seededPrincipal(t, 0x71))
	require.NoError(t, err)
	assert.Nil(t, product)
}

func TestProductLookupDecodesBareVariant(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})

	productID := seededPrincipal(t, 0x72)
	orgID := seededPrincipal(t, 0x73)
	g.respondRaw(api.MethodGetProductByID, mustJSON(t, map[string]any{
		"product": map[string]any{
			"id":          productID.String(),
			"name":        "Meridian Serum",
			"org_id":      orgID.String(),
			"category":    "cosmetics",
			"description": "30ml bottle",
			"metadata":    []any{},
			"public_key":  "302a300506032b6570032100aa",
			"created_at":  1700000000000000000,
			"created_by":  orgID.String(),
			"updated_at":  1700000000000000000,
			"updated_by":  orgID.String(),
		},
	}))

	product, err := c.Product(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "Meridian Serum", product.Name)
	assert.Equal(t, orgID.String(), product.OrgID.String())
}

func TestUserLookupDecodesBareVariant(t *testing.T) {
	g := newGateway(t)
	c := g.client(dashboard.Options{})

	userID := seededPrincipal(t, 0x74)
	g.respondRaw(api.MethodGetUserByID, mustJSON(t, map[string]any{
		"user": map[string]any{
			"id":           userID.String(),
			"user_role":    []any{map[string]any{"Customer": nil}},
			"is_principal": true,
			"is_enabled":   true,
			"org_ids":      []any{},
			"first_name":   []string{"Dana"},
			"last_name":    []string{"Reyes"},
			"phone_no":     nil,
			"email":        []string{"dana@acme.example"},
			"detail_meta":  []any{},
			"created_at":   1700000000000000000,
			"created_by":   userID.String(),
			"updated_at":   1700000000000000000,
			"updated_by":   userID.String(),
		},
	}))

	account, err := c.UserByID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, views.RoleCustomer, account.Role)
	assert.True(t, account.Enabled)
	assert.Equal(t, "dana@acme.example", account.Email)
}
