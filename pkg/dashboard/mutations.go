package dashboard

import (
	"context"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/decode"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/observability"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/query"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/views"
)

// InitializeSession registers the caller's session with the backend and
// seeds the cached session view from the response.
func (c *Client) InitializeSession(ctx context.Context) (views.AuthContext, error) {
	return query.Exec(ctx, c.queries, query.Mutation[struct{}, views.AuthContext]{
		Name: api.MethodInitializeUserSession,
		Run: func(ctx context.Context, _ struct{}) (views.AuthContext, error) {
			var env api.Response[api.AuthContextResponse]
			if err := c.provider.Use().Call(ctx, api.MethodInitializeUserSession, nil, &env); err != nil {
				return views.AuthContext{}, err
			}
			out, err := decode.Value(c.decoder, api.MethodInitializeUserSession, env,
				func(raw api.AuthContextResponse) (views.AuthContext, error) {
					return c.mapper.AuthContext(raw), nil
				})
			if err != nil {
				return views.AuthContext{}, err
			}
			observability.AddSpanEvent(ctx, "session.initialized",
				observability.SessionOperation(c.provider.Principal().String(), out.Role.String())...)
			return out, nil
		},
		OnSuccess: func(_ struct{}, out views.AuthContext) []query.Effect {
			return []query.Effect{
				query.SetValue(AuthContextKey(), out),
				query.Invalidate(NavigationContextKey()),
			}
		},
	}, struct{}{})
}

// SelectActiveOrganization switches the brand owner's working organization
// and refreshes the cached session view from the response.
func (c *Client) SelectActiveOrganization(ctx context.Context, orgID candid.Principal) (views.AuthContext, error) {
	return query.Exec(ctx, c.queries, query.Mutation[candid.Principal, views.AuthContext]{
		Name: api.MethodSelectActiveOrganization,
		Run: func(ctx context.Context, id candid.Principal) (views.AuthContext, error) {
			var env api.Response[api.AuthContextResponse]
			req := api.SelectActiveOrganizationRequest{OrgID: id}
			if err := c.provider.Use().Call(ctx, api.MethodSelectActiveOrganization, req, &env); err != nil {
				return views.AuthContext{}, err
			}
			return decode.Value(c.decoder, api.MethodSelectActiveOrganization, env,
				func(raw api.AuthContextResponse) (views.AuthContext, error) {
					return c.mapper.AuthContext(raw), nil
				})
		},
		OnSuccess: func(_ candid.Principal, out views.AuthContext) []query.Effect {
			return []query.Effect{
				query.SetValue(AuthContextKey(), out),
				query.Invalidate(NavigationContextKey()),
				query.Invalidate(MyOrganizationsKey()),
			}
		},
	}, orgID)
}

// CreateOrganizationInput names a new organization.
type CreateOrganizationInput struct {
	Name        string
	Description string
	Metadata    map[string]string
}

// CreateOrganizationForOwner creates the brand owner's organization and
// returns it together with the refreshed session view, which becomes the
// cached one.
func (c *Client) CreateOrganizationForOwner(ctx context.Context, in CreateOrganizationInput) (views.OrganizationContext, error) {
	return query.Exec(ctx, c.queries, query.Mutation[CreateOrganizationInput, views.OrganizationContext]{
		Name: api.MethodCreateOrganizationForOwner,
		Run: func(ctx context.Context, in CreateOrganizationInput) (views.OrganizationContext, error) {
			req := api.CreateOrganizationWithOwnerContextRequest{
				Name:        in.Name,
				Description: in.Description,
				Metadata:    views.MetadataPairs(in.Metadata),
			}
			var env api.Response[api.OrganizationContextResponse]
			if err := c.provider.Use().Call(ctx, api.MethodCreateOrganizationForOwner, req, &env); err != nil {
				return views.OrganizationContext{}, err
			}
			return decode.Value(c.decoder, api.MethodCreateOrganizationForOwner, env,
				func(raw api.OrganizationContextResponse) (views.OrganizationContext, error) {
					return c.mapper.OrganizationContext(raw), nil
				})
		},
		OnSuccess: func(_ CreateOrganizationInput, out views.OrganizationContext) []query.Effect {
			return []query.Effect{
				query.SetValue(AuthContextKey(), out.AuthContext),
				query.Invalidate(MyOrganizationsKey()),
				query.Invalidate(NavigationContextKey()),
			}
		},
	}, in)
}

// ResellerProfileInput completes reseller onboarding against a chosen
// organization. Empty contact fields stay absent on the wire.
type ResellerProfileInput struct {
	OrganizationID candid.Principal
	Name           string
	ContactEmail   string
	ContactPhone   string
	EcommerceURLs  map[string]string
	Metadata       map[string]string
}

// CompleteResellerProfile finishes reseller onboarding and refreshes the
// cached session view from the response.
func (c *Client) CompleteResellerProfile(ctx context.Context, in ResellerProfileInput) (views.AuthContext, error) {
	return query.Exec(ctx, c.queries, query.Mutation[ResellerProfileInput, views.AuthContext]{
		Name: api.MethodCompleteResellerProfile,
		Run: func(ctx context.Context, in ResellerProfileInput) (views.AuthContext, error) {
			req := api.CompleteResellerProfileRequest{
				TargetOrganizationID: in.OrganizationID,
				ResellerName:         in.Name,
				ContactEmail:         optString(in.ContactEmail),
				ContactPhone:         optString(in.ContactPhone),
				EcommerceURLs:        views.MetadataPairs(in.EcommerceURLs),
				AdditionalMetadata:   views.MetadataPairs(in.Metadata),
			}
			var env api.Response[api.AuthContextResponse]
			if err := c.provider.Use().Call(ctx, api.MethodCompleteResellerProfile, req, &env); err != nil {
				return views.AuthContext{}, err
			}
			return decode.Value(c.decoder, api.MethodCompleteResellerProfile, env,
				func(raw api.AuthContextResponse) (views.AuthContext, error) {
					return c.mapper.AuthContext(raw), nil
				})
		},
		OnSuccess: func(_ ResellerProfileInput, out views.AuthContext) []query.Effect {
			return []query.Effect{
				query.SetValue(AuthContextKey(), out),
				query.Invalidate(ResellerCertificationKey()),
				query.Invalidate(NavigationContextKey()),
			}
		},
	}, in)
}

// UpdateOrganizationInput replaces an organization's editable fields.
type UpdateOrganizationInput struct {
	ID          candid.Principal
	Name        string
	Description string
	Metadata    map[string]string
}

// UpdateOrganization saves the organization and drops every cached view
// that may still render its previous state. An identical save within the
// idempotency window replays the recorded outcome instead of calling
// again.
func (c *Client) UpdateOrganization(ctx context.Context, in UpdateOrganizationInput) (views.Organization, error) {
	return query.Exec(ctx, c.queries, query.Mutation[UpdateOrganizationInput, views.Organization]{
		Name:       api.MethodUpdateOrganization,
		Idempotent: true,
		Run: func(ctx context.Context, in UpdateOrganizationInput) (views.Organization, error) {
			req := api.UpdateOrganizationRequest{
				ID:          in.ID,
				Name:        in.Name,
				Description: in.Description,
				Metadata:    views.MetadataPairs(in.Metadata),
			}
			var env api.Response[api.OrganizationResponse]
			if err := c.provider.Use().Call(ctx, api.MethodUpdateOrganization, req, &env); err != nil {
				return views.Organization{}, err
			}
			return decode.Value(c.decoder, api.MethodUpdateOrganization, env,
				func(raw api.OrganizationResponse) (views.Organization, error) {
					return c.mapper.Organization(raw.Organization), nil
				})
		},
		OnSuccess: func(in UpdateOrganizationInput, _ views.Organization) []query.Effect {
			return []query.Effect{
				query.Invalidate(AuthContextKey()),
				query.Invalidate(OrganizationKey(in.ID)),
				query.Invalidate(MyOrganizationsKey()),
				query.InvalidatePrefix(query.NewKey(rootOrgSearch)),
			}
		},
	}, in)
}

// VerifyProductInput is one verification attempt for a printed code.
// Timestamp and Nonce are optional replay guards; zero values stay off the
// wire.
type VerifyProductInput struct {
	ProductID    candid.Principal
	SerialNo     candid.Principal
	PrintVersion uint8
	UniqueCode   string
	Metadata     map[string]string
	Timestamp    uint64
	Nonce        string
}

// VerifyProduct checks a printed code against the backend. Every call is a
// genuine attempt that counts against the product's verification budget,
// so the cached budget is refreshed on completion.
func (c *Client) VerifyProduct(ctx context.Context, in VerifyProductInput) (views.VerificationOutcome, error) {
	return query.Exec(ctx, c.queries, query.Mutation[VerifyProductInput, views.VerificationOutcome]{
		Name: api.MethodVerifyProduct,
		Run: func(ctx context.Context, in VerifyProductInput) (views.VerificationOutcome, error) {
			req := api.VerifyProductEnhancedRequest{
				ProductID:    in.ProductID,
				SerialNo:     in.SerialNo,
				PrintVersion: in.PrintVersion,
				UniqueCode:   in.UniqueCode,
				Metadata:     views.MetadataPairs(in.Metadata),
			}
			if in.Timestamp != 0 {
				req.Timestamp = candid.Some(in.Timestamp)
			}
			if in.Nonce != "" {
				req.Nonce = candid.Some(in.Nonce)
			}
			var env api.Response[api.ProductVerificationEnhancedResponse]
			if err := c.provider.Use().Call(ctx, api.MethodVerifyProduct, req, &env); err != nil {
				return views.VerificationOutcome{}, err
			}
			out, err := decode.Value(c.decoder, api.MethodVerifyProduct, env,
				func(raw api.ProductVerificationEnhancedResponse) (views.VerificationOutcome, error) {
					return c.mapper.VerificationOutcome(raw), nil
				})
			if err != nil {
				return views.VerificationOutcome{}, err
			}
			observability.AddSpanEvent(ctx, "product.verified",
				observability.VerifyOperation(in.ProductID.String(), out.Status.String())...)
			return out, nil
		},
		OnSuccess: func(in VerifyProductInput, _ views.VerificationOutcome) []query.Effect {
			return []query.Effect{query.Invalidate(RateLimitKey(in.ProductID))}
		},
	}, in)
}

// RedeemRewardInput claims the reward attached to a first verification.
// ProductID scopes the cache effect; the wire payload carries the rest.
type RedeemRewardInput struct {
	ProductID     candid.Principal
	SerialNo      candid.Principal
	UniqueCode    string
	WalletAddress string
}

// RedeemReward claims a verification reward. Outcomes are recorded, so a
// repeated claim replays the first result instead of paying twice.
func (c *Client) RedeemReward(ctx context.Context, in RedeemRewardInput) (views.RewardRedemption, error) {
	return query.Exec(ctx, c.queries, query.Mutation[RedeemRewardInput, views.RewardRedemption]{
		Name:       api.MethodRedeemProductReward,
		Idempotent: true,
		Run: func(ctx context.Context, in RedeemRewardInput) (views.RewardRedemption, error) {
			req := api.RedeemRewardRequest{
				SerialNo:      in.SerialNo,
				UniqueCode:    in.UniqueCode,
				WalletAddress: in.WalletAddress,
			}
			var env api.Response[api.RedeemRewardResponse]
			if err := c.provider.Use().Call(ctx, api.MethodRedeemProductReward, req, &env); err != nil {
				return views.RewardRedemption{}, err
			}
			return decode.Value(c.decoder, api.MethodRedeemProductReward, env,
				func(raw api.RedeemRewardResponse) (views.RewardRedemption, error) {
					return c.mapper.RewardRedemption(raw), nil
				})
		},
		OnSuccess: func(in RedeemRewardInput, _ views.RewardRedemption) []query.Effect {
			return []query.Effect{query.Invalidate(RateLimitKey(in.ProductID))}
		},
	}, in)
}

// Logout ends the backend session and tears down local auth state. The
// cached session view is removed and the cache cleared even when the
// remote call fails, and the provider returns to the anonymous identity.
func (c *Client) Logout(ctx context.Context) (views.Logout, error) {
	out, err := query.Exec(ctx, c.queries, query.Mutation[struct{}, views.Logout]{
		Name: api.MethodLogoutUser,
		Run: func(ctx context.Context, _ struct{}) (views.Logout, error) {
			var env api.Response[api.LogoutResponse]
			if cerr := c.provider.Use().Call(ctx, api.MethodLogoutUser, nil, &env); cerr != nil {
				return views.Logout{}, cerr
			}
			return decode.Value(c.decoder, api.MethodLogoutUser, env,
				func(raw api.LogoutResponse) (views.Logout, error) {
					return c.mapper.Logout(raw), nil
				})
		},
	}, struct{}{})

	teardown := context.WithoutCancel(ctx)
	if aerr := c.queries.Apply(teardown, query.Remove(AuthContextKey()), query.ClearAll()); aerr != nil {
		c.log.Warn("auth cache teardown failed", "error", aerr)
	}
	c.provider.Logout()
	return out, err
}

// optString wraps a non-empty string.
func optString(s string) candid.Opt[string] {
	if s == "" {
		return candid.None[string]()
	}
	return candid.Some(s)
}
