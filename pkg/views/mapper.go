package views

import (
	"log/slog"
	"sort"
	"time"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
)

// Mapper converts wire records to view models. It is stateless apart from
// the logger used to report anomalies such as unrecognized tags, so a single
// instance is shared freely across goroutines.
type Mapper struct {
	log *slog.Logger
}

// NewMapper builds a Mapper logging through log.
func NewMapper(log *slog.Logger) *Mapper {
	return &Mapper{log: log}
}

func (m *Mapper) logger() *slog.Logger {
	if m == nil || m.log == nil {
		return slog.Default()
	}
	return m.log
}

// RoleFromTag maps a wire role tag onto the closed enum. Unrecognized tags
// degrade to RoleUnknown with a warning instead of failing the decode.
func (m *Mapper) RoleFromTag(tag api.Role) Role {
	if role, ok := roleByTag[tag.Tag]; ok {
		return role
	}
	m.logger().Warn("unrecognized role tag", "tag", tag.Tag)
	return RoleUnknown
}

// VerificationStatusFromTag maps a wire verification status tag onto the
// closed enum with the same degradation rule as RoleFromTag.
func (m *Mapper) VerificationStatusFromTag(tag api.VerificationStatus) VerificationStatus {
	if status, ok := verificationByTag[tag.Tag]; ok {
		return status
	}
	m.logger().Warn("unrecognized verification status tag", "tag", tag.Tag)
	return VerificationUnknown
}

// UserProfile flattens the public user record.
func (m *Mapper) UserProfile(raw api.UserPublic) UserProfile {
	return UserProfile{
		ID:        raw.ID,
		FirstName: candid.UnwrapOr(raw.FirstName, ""),
		LastName:  candid.UnwrapOr(raw.LastName, ""),
		Email:     candid.UnwrapOr(raw.Email, ""),
		CreatedAt: nsTime(raw.CreatedAt),
	}
}

// UserAccount flattens the full legacy user record.
func (m *Mapper) UserAccount(raw api.User) UserAccount {
	role := RoleUnknown
	if tag, ok := candid.Unwrap(raw.UserRole); ok {
		role = m.RoleFromTag(tag)
	}
	return UserAccount{
		ID:        raw.ID,
		Role:      role,
		Principal: raw.IsPrincipal,
		Enabled:   raw.IsEnabled,
		OrgIDs:    raw.OrgIDs,
		FirstName: candid.UnwrapOr(raw.FirstName, ""),
		LastName:  candid.UnwrapOr(raw.LastName, ""),
		Phone:     candid.UnwrapOr(raw.PhoneNo, ""),
		Email:     candid.UnwrapOr(raw.Email, ""),
		Metadata:  metadataMap(raw.DetailMeta),
		CreatedAt: nsTime(raw.CreatedAt),
		UpdatedAt: nsTime(raw.UpdatedAt),
	}
}

// Organization flattens an organization record.
func (m *Mapper) Organization(raw api.OrganizationPublic) Organization {
	return Organization{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
		Metadata:    metadataMap(raw.Metadata),
		CreatedAt:   nsTime(raw.CreatedAt),
		UpdatedAt:   nsTime(raw.UpdatedAt),
	}
}

// Organizations maps a slice of organization records, preserving order.
func (m *Mapper) Organizations(raw []api.OrganizationPublic) []Organization {
	out := make([]Organization, 0, len(raw))
	for _, org := range raw {
		out = append(out, m.Organization(org))
	}
	return out
}

// OrganizationList flattens one page of organizations.
func (m *Mapper) OrganizationList(raw api.OrganizationsListResponse) OrganizationList {
	list := OrganizationList{Organizations: m.Organizations(raw.Organizations)}
	if p, ok := candid.Unwrap(raw.Pagination); ok {
		list.Page = &Page{Page: p.Page, Limit: p.Limit, Total: p.Total, HasMore: p.HasMore}
	}
	return list
}

// AuthContext flattens the session record. Role-specific details are plain
// pointers: nil means the backend sent nothing for that role.
func (m *Mapper) AuthContext(raw api.AuthContextResponse) AuthContext {
	ctx := AuthContext{IsRegistered: raw.IsRegistered}

	if user, ok := candid.Unwrap(raw.User); ok {
		profile := m.UserProfile(user)
		ctx.User = &profile
	}
	if tag, ok := candid.Unwrap(raw.Role); ok {
		ctx.Role = m.RoleFromTag(tag)
	}
	if details, ok := candid.Unwrap(raw.BrandOwnerDetails); ok {
		owner := BrandOwnerDetails{
			HasOrganizations: details.HasOrganizations,
			Organizations:    m.Organizations(candid.UnwrapArray(details.Organizations)),
		}
		if active, ok := candid.Unwrap(details.ActiveOrganization); ok {
			org := m.Organization(active)
			owner.ActiveOrganization = &org
		}
		ctx.BrandOwner = &owner
	}
	if details, ok := candid.Unwrap(raw.ResellerDetails); ok {
		reseller := ResellerDetails{
			ProfileCompleteAndVerified: details.IsProfileCompleteAndVerified,
			CertificationCode:          candid.UnwrapOr(details.CertificationCode, ""),
			CertifiedAt:                nsTime(candid.UnwrapOr(details.CertificationTimestamp, 0)),
		}
		if org, ok := candid.Unwrap(details.AssociatedOrganization); ok {
			associated := m.Organization(org)
			reseller.AssociatedOrganization = &associated
		}
		ctx.Reseller = &reseller
	}
	return ctx
}

// NavigationContext flattens the header state.
func (m *Mapper) NavigationContext(raw api.NavigationContextResponse) NavigationContext {
	return NavigationContext{
		DisplayName:      raw.UserDisplayName,
		AvatarID:         candid.UnwrapOr(raw.UserAvatarID, ""),
		OrganizationName: candid.UnwrapOr(raw.CurrentOrganizationName, ""),
	}
}

// OrganizationContext flattens the created-organization response.
func (m *Mapper) OrganizationContext(raw api.OrganizationContextResponse) OrganizationContext {
	return OrganizationContext{
		Organization: m.Organization(raw.Organization),
		AuthContext:  m.AuthContext(raw.UserAuthContext),
	}
}

// ResellerProfile flattens a reseller record.
func (m *Mapper) ResellerProfile(raw api.ResellerPublic) ResellerProfile {
	return ResellerProfile{
		ID:                raw.ID,
		UserID:            raw.UserID,
		OrganizationID:    raw.OrganizationID,
		Name:              raw.Name,
		PublicKey:         raw.PublicKey,
		ContactEmail:      candid.UnwrapOr(raw.ContactEmail, ""),
		ContactPhone:      candid.UnwrapOr(raw.ContactPhone, ""),
		EcommerceURLs:     metadataMap(raw.EcommerceURLs),
		Metadata:          metadataMap(raw.AdditionalMetadata),
		Verified:          raw.IsVerified,
		CertificationCode: candid.UnwrapOr(raw.CertificationCode, ""),
		CertifiedAt:       nsTime(candid.UnwrapOr(raw.CertificationTimestamp, 0)),
		CreatedAt:         nsTime(raw.CreatedAt),
		UpdatedAt:         nsTime(raw.UpdatedAt),
	}
}

// ResellerCertification flattens the certification page aggregate.
func (m *Mapper) ResellerCertification(raw api.ResellerCertificationPageContext) ResellerCertification {
	return ResellerCertification{
		Profile:           m.ResellerProfile(raw.ResellerProfile),
		Organization:      m.Organization(raw.AssociatedOrganization),
		CertificationCode: raw.CertificationCode,
		CertifiedAt:       nsTime(raw.CertificationTimestamp),
		User:              m.UserProfile(raw.UserDetails),
	}
}

// Analytics flattens the analytics snapshot.
func (m *Mapper) Analytics(raw api.OrganizationAnalyticData) Analytics {
	return Analytics{
		TotalProducts:          raw.TotalProducts,
		ActiveResellers:        raw.ActiveResellers,
		VerificationsThisMonth: raw.VerificationsThisMonth,
	}
}

// RateLimit flattens the verification budget record.
func (m *Mapper) RateLimit(raw api.RateLimitInfo) RateLimit {
	return RateLimit{
		RemainingAttempts: raw.RemainingAttempts,
		ResetAt:           nsTime(raw.ResetTime),
		WindowStartedAt:   nsTime(raw.CurrentWindowStart),
	}
}

// Product flattens a product record.
func (m *Mapper) Product(raw api.Product) Product {
	return Product{
		ID:          raw.ID,
		Name:        raw.Name,
		OrgID:       raw.OrgID,
		Category:    raw.Category,
		Description: raw.Description,
		Metadata:    metadataMap(raw.Metadata),
		PublicKey:   raw.PublicKey,
		CreatedAt:   nsTime(raw.CreatedAt),
		UpdatedAt:   nsTime(raw.UpdatedAt),
	}
}

// VerificationOutcome flattens the verify response.
func (m *Mapper) VerificationOutcome(raw api.ProductVerificationEnhancedResponse) VerificationOutcome {
	outcome := VerificationOutcome{
		Status:    m.VerificationStatusFromTag(raw.Status),
		ExpiresAt: nsTime(candid.UnwrapOr(raw.Expiration, 0)),
	}
	if v, ok := candid.Unwrap(raw.Verification); ok {
		event := VerificationEvent{
			ID:           v.ID,
			ProductID:    v.ProductID,
			SerialNo:     v.SerialNo,
			PrintVersion: v.PrintVersion,
			Metadata:     metadataMap(v.Metadata),
			CreatedAt:    nsTime(v.CreatedAt),
			CreatedBy:    v.CreatedBy,
		}
		outcome.Verification = &event
	}
	if r, ok := candid.Unwrap(raw.Rewards); ok {
		rewards := Rewards{
			Points:            r.Points,
			FirstVerification: r.IsFirstVerification,
			SpecialReward:     candid.UnwrapOr(r.SpecialReward, ""),
			Description:       candid.UnwrapOr(r.RewardDescription, ""),
		}
		outcome.Rewards = &rewards
	}
	return outcome
}

// RewardRedemption flattens the redeem response.
func (m *Mapper) RewardRedemption(raw api.RedeemRewardResponse) RewardRedemption {
	return RewardRedemption{
		Success:       raw.Success,
		TransactionID: candid.UnwrapOr(raw.TransactionID, ""),
		Message:       raw.Message,
	}
}

// Logout flattens the logout acknowledgement.
func (m *Mapper) Logout(raw api.LogoutResponse) Logout {
	return Logout{
		Message:     raw.Message,
		RedirectURL: candid.UnwrapOr(raw.RedirectURL, ""),
	}
}

// MetadataPairs converts a display map back to ordered wire pairs. Keys are
// sorted so request payloads are deterministic.
func MetadataPairs(meta map[string]string) []api.Metadata {
	if len(meta) == 0 {
		return []api.Metadata{}
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]api.Metadata, 0, len(keys))
	for _, k := range keys {
		out = append(out, api.Metadata{Key: k, Value: meta[k]})
	}
	return out
}

func metadataMap(pairs []api.Metadata) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		out[p.Key] = p.Value
	}
	return out
}

// nsTime converts a nanosecond epoch timestamp, using the zero time for the
// zero timestamp so absent values stay recognizably absent.
func nsTime(ns uint64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(ns)).UTC()
}
