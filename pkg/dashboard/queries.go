package dashboard

import (
	"context"
	"strconv"
	"strings"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/decode"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/query"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/views"
)

// Cache key constructors. Mutation effects and tests address entries
// through these, never through ad hoc literals.

// AuthContextKey addresses the cached session view.
func AuthContextKey() query.Key { return query.NewKey(rootAuthContext) }

// NavigationContextKey addresses the cached header state.
func NavigationContextKey() query.Key { return query.NewKey(rootNavContext) }

// MyOrganizationsKey addresses the brand owner's organization list.
func MyOrganizationsKey() query.Key { return query.NewKey(rootMyOrgs) }

// ResellerCertificationKey addresses the reseller certification page.
func ResellerCertificationKey() query.Key { return query.NewKey(rootCertification) }

// OrganizationSearchKey addresses one name search result.
func OrganizationSearchKey(name string) query.Key { return query.NewKey(rootOrgSearch, name) }

// OrganizationKey addresses one organization by id.
func OrganizationKey(id candid.Principal) query.Key {
	return query.NewKey(rootOrganization, id.String())
}

// OrganizationsKey addresses one page of the organization listing.
func OrganizationsKey(name string, page, limit uint32) query.Key {
	return query.NewKey(rootListing, name,
		strconv.FormatUint(uint64(page), 10),
		strconv.FormatUint(uint64(limit), 10))
}

// AnalyticsKey addresses one organization's analytics snapshot.
func AnalyticsKey(id candid.Principal) query.Key {
	return query.NewKey(rootAnalytics, id.String())
}

// RateLimitKey addresses the verification budget for one product.
func RateLimitKey(productID candid.Principal) query.Key {
	return query.NewKey(rootRateLimit, productID.String())
}

// AvailableRolesKey addresses the static role catalog.
func AvailableRolesKey() query.Key { return query.NewKey(rootRoles) }

// ProductKey addresses one product by id.
func ProductKey(id candid.Principal) query.Key {
	return query.NewKey(rootProduct, id.String())
}

// UserKey addresses one user by id.
func UserKey(id candid.Principal) query.Key {
	return query.NewKey(rootUser, id.String())
}

// AuthContext returns the session view: who is signed in, their role and
// the role-specific onboarding state.
func (c *Client) AuthContext(ctx context.Context) (views.AuthContext, error) {
	return query.Run(ctx, c.queries, query.Query[views.AuthContext]{
		Key:            AuthContextKey(),
		StaleAfter:     c.window(rootAuthContext),
		RefetchOnFocus: true,
		Fetch: func(ctx context.Context) (views.AuthContext, error) {
			var env api.Response[api.AuthContextResponse]
			if err := c.provider.Use().Call(ctx, api.MethodGetAuthContext, nil, &env); err != nil {
				return views.AuthContext{}, err
			}
			return decode.Value(c.decoder, api.MethodGetAuthContext, env,
				func(raw api.AuthContextResponse) (views.AuthContext, error) {
					return c.mapper.AuthContext(raw), nil
				})
		},
	})
}

// NavigationContext returns the lightweight header state.
func (c *Client) NavigationContext(ctx context.Context) (views.NavigationContext, error) {
	return query.Run(ctx, c.queries, query.Query[views.NavigationContext]{
		Key:            NavigationContextKey(),
		StaleAfter:     c.window(rootNavContext),
		RefetchOnFocus: true,
		Fetch: func(ctx context.Context) (views.NavigationContext, error) {
			var env api.Response[api.NavigationContextResponse]
			if err := c.provider.Use().Call(ctx, api.MethodGetNavigationContext, nil, &env); err != nil {
				return views.NavigationContext{}, err
			}
			return decode.Value(c.decoder, api.MethodGetNavigationContext, env,
				func(raw api.NavigationContextResponse) (views.NavigationContext, error) {
					return c.mapper.NavigationContext(raw), nil
				})
		},
	})
}

// MyOrganizations lists the signed-in brand owner's organizations. The
// query stays disabled until the cached session view reports the
// BrandOwner role, and a result arriving after the role changed is
// discarded instead of cached.
func (c *Client) MyOrganizations(ctx context.Context) ([]views.Organization, error) {
	return query.Run(ctx, c.queries, query.Query[[]views.Organization]{
		Key:        MyOrganizationsKey(),
		StaleAfter: c.window(rootMyOrgs),
		Enabled:    func() bool { return c.cachedRole(ctx) == views.RoleBrandOwner },
		Fetch: func(ctx context.Context) ([]views.Organization, error) {
			var env api.Response[[]api.OrganizationPublic]
			if err := c.provider.Use().Call(ctx, api.MethodGetMyOrganizations, nil, &env); err != nil {
				return nil, err
			}
			return decode.Collection(c.decoder, api.MethodGetMyOrganizations, env,
				func(raw api.OrganizationPublic) (views.Organization, error) {
					return c.mapper.Organization(raw), nil
				})
		},
	})
}

// MyResellerCertification returns the signed-in reseller's certification
// page. Disabled until the cached session view reports the Reseller role.
func (c *Client) MyResellerCertification(ctx context.Context) (views.ResellerCertification, error) {
	return query.Run(ctx, c.queries, query.Query[views.ResellerCertification]{
		Key:        ResellerCertificationKey(),
		StaleAfter: c.window(rootCertification),
		Enabled:    func() bool { return c.cachedRole(ctx) == views.RoleReseller },
		Fetch: func(ctx context.Context) (views.ResellerCertification, error) {
			var env api.Response[api.ResellerCertificationPageContext]
			if err := c.provider.Use().Call(ctx, api.MethodGetMyResellerCertification, nil, &env); err != nil {
				return views.ResellerCertification{}, err
			}
			return decode.Value(c.decoder, api.MethodGetMyResellerCertification, env,
				func(raw api.ResellerCertificationPageContext) (views.ResellerCertification, error) {
					return c.mapper.ResellerCertification(raw), nil
				})
		},
	})
}

// FindOrganizationsByName searches organizations by name through the
// legacy endpoint, which replies with a naked sequence. Blank searches
// stay disabled.
func (c *Client) FindOrganizationsByName(ctx context.Context, name string) ([]views.Organization, error) {
	return query.Run(ctx, c.queries, query.Query[[]views.Organization]{
		Key:        OrganizationSearchKey(name),
		StaleAfter: c.window(rootOrgSearch),
		Enabled:    func() bool { return strings.TrimSpace(name) != "" },
		Fetch: func(ctx context.Context) ([]views.Organization, error) {
			var items []api.OrganizationPublic
			req := api.FindOrganizationsByNameRequest{Name: name}
			if err := c.provider.Use().Call(ctx, api.MethodFindOrganizationsByName, req, &items); err != nil {
				return nil, err
			}
			return decode.BareCollection(c.decoder, api.MethodFindOrganizationsByName, items,
				func(raw api.OrganizationPublic) (views.Organization, error) {
					return c.mapper.Organization(raw), nil
				})
		},
	})
}

// Organization returns one organization by id.
func (c *Client) Organization(ctx context.Context, id candid.Principal) (views.Organization, error) {
	return query.Run(ctx, c.queries, query.Query[views.Organization]{
		Key:        OrganizationKey(id),
		StaleAfter: c.window(rootOrganization),
		Fetch: func(ctx context.Context) (views.Organization, error) {
			var env api.Response[api.OrganizationResponse]
			req := api.GetOrganizationRequest{OrgID: id}
			if err := c.provider.Use().Call(ctx, api.MethodGetOrganizationByID, req, &env); err != nil {
				return views.Organization{}, err
			}
			return decode.Value(c.decoder, api.MethodGetOrganizationByID, env,
				func(raw api.OrganizationResponse) (views.Organization, error) {
					return c.mapper.Organization(raw.Organization), nil
				})
		},
	})
}

// ListOrganizations pages through organizations matching name. Page and
// limit zero ask for the backend defaults.
func (c *Client) ListOrganizations(ctx context.Context, name string, page, limit uint32) (views.OrganizationList, error) {
	return query.Run(ctx, c.queries, query.Query[views.OrganizationList]{
		Key:        OrganizationsKey(name, page, limit),
		StaleAfter: c.window(rootListing),
		Fetch: func(ctx context.Context) (views.OrganizationList, error) {
			req := api.FindOrganizationsRequest{Name: name}
			if page > 0 || limit > 0 {
				req.Pagination = candid.Some(api.PaginationRequest{
					Page:  candid.Some(page),
					Limit: candid.Some(limit),
				})
			}
			var env api.Response[api.OrganizationsListResponse]
			if err := c.provider.Use().Call(ctx, api.MethodListOrganizations, req, &env); err != nil {
				return views.OrganizationList{}, err
			}
			return decode.Value(c.decoder, api.MethodListOrganizations, env,
				func(raw api.OrganizationsListResponse) (views.OrganizationList, error) {
					return c.mapper.OrganizationList(raw), nil
				})
		},
	})
}

// OrganizationAnalytics returns the dashboard snapshot for one
// organization.
func (c *Client) OrganizationAnalytics(ctx context.Context, id candid.Principal) (views.Analytics, error) {
	return query.Run(ctx, c.queries, query.Query[views.Analytics]{
		Key:        AnalyticsKey(id),
		StaleAfter: c.window(rootAnalytics),
		Fetch: func(ctx context.Context) (views.Analytics, error) {
			var env api.Response[api.OrganizationAnalyticData]
			req := api.GetOrganizationAnalyticRequest{OrgID: id}
			if err := c.provider.Use().Call(ctx, api.MethodGetOrganizationAnalytic, req, &env); err != nil {
				return views.Analytics{}, err
			}
			return decode.Value(c.decoder, api.MethodGetOrganizationAnalytic, env,
				func(raw api.OrganizationAnalyticData) (views.Analytics, error) {
					return c.mapper.Analytics(raw), nil
				})
		},
	})
}

// VerificationRateLimit returns the caller's remaining verification budget
// for one product. The budget drains and refills server side, so the view
// refetches when the user comes back to it.
func (c *Client) VerificationRateLimit(ctx context.Context, productID candid.Principal) (views.RateLimit, error) {
	return query.Run(ctx, c.queries, query.Query[views.RateLimit]{
		Key:            RateLimitKey(productID),
		StaleAfter:     c.window(rootRateLimit),
		RefetchOnFocus: true,
		Fetch: func(ctx context.Context) (views.RateLimit, error) {
			var env api.Response[api.RateLimitInfo]
			req := api.RateLimitRequest{ProductID: productID}
			if err := c.provider.Use().Call(ctx, api.MethodGetVerificationRateLimit, req, &env); err != nil {
				return views.RateLimit{}, err
			}
			return decode.Value(c.decoder, api.MethodGetVerificationRateLimit, env,
				func(raw api.RateLimitInfo) (views.RateLimit, error) {
					return c.mapper.RateLimit(raw), nil
				})
		},
	})
}

// AvailableRoles lists the roles open for self-registration. The catalog
// is static, so the entry never goes stale on its own.
func (c *Client) AvailableRoles(ctx context.Context) ([]views.Role, error) {
	return query.Run(ctx, c.queries, query.Query[[]views.Role]{
		Key:        AvailableRolesKey(),
		StaleAfter: c.window(rootRoles),
		Fetch: func(ctx context.Context) ([]views.Role, error) {
			var env api.Response[[]api.Role]
			if err := c.provider.Use().Call(ctx, api.MethodGetAvailableRoles, nil, &env); err != nil {
				return nil, err
			}
			return decode.Collection(c.decoder, api.MethodGetAvailableRoles, env,
				func(raw api.Role) (views.Role, error) {
					return c.mapper.RoleFromTag(raw), nil
				})
		},
	})
}

// Product looks up one product through the legacy bare result. nil means
// the lookup matched nothing.
func (c *Client) Product(ctx context.Context, id candid.Principal) (*views.Product, error) {
	return query.Run(ctx, c.queries, query.Query[*views.Product]{
		Key:        ProductKey(id),
		StaleAfter: c.window(rootProduct),
		Fetch: func(ctx context.Context) (*views.Product, error) {
			var result api.ProductResult
			req := api.GetProductRequest{ProductID: id}
			if err := c.provider.Use().Call(ctx, api.MethodGetProductByID, req, &result); err != nil {
				return nil, err
			}
			return decode.Bare(c.decoder, api.MethodGetProductByID, result,
				func(raw api.Product) (views.Product, error) {
					return c.mapper.Product(raw), nil
				})
		},
	})
}

// UserByID looks up one user through the legacy bare result. nil means the
// lookup matched nothing.
func (c *Client) UserByID(ctx context.Context, id candid.Principal) (*views.UserAccount, error) {
	return query.Run(ctx, c.queries, query.Query[*views.UserAccount]{
		Key:        UserKey(id),
		StaleAfter: c.window(rootUser),
		Fetch: func(ctx context.Context) (*views.UserAccount, error) {
			var result api.UserResult
			req := api.GetUserRequest{UserID: id}
			if err := c.provider.Use().Call(ctx, api.MethodGetUserByID, req, &result); err != nil {
				return nil, err
			}
			return decode.Bare(c.decoder, api.MethodGetUserByID, result,
				func(raw api.User) (views.UserAccount, error) {
					return c.mapper.UserAccount(raw), nil
				})
		},
	})
}
