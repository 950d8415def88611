package views

import (
	"strings"
	"time"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
)

// UserProfile is the display slice of a user record.
type UserProfile struct {
	ID        candid.Principal
	FirstName string
	LastName  string
	Email     string
	CreatedAt time.Time
}

// DisplayName picks the friendliest available identifier: full name, then
// email, then the shortened principal text.
func (u UserProfile) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Email != "" {
		return u.Email
	}
	text := u.ID.String()
	if len(text) > 11 {
		return text[:11] + "..."
	}
	return text
}

// UserAccount is the full account view produced by the legacy user lookups.
type UserAccount struct {
	ID        candid.Principal
	Role      Role
	Principal bool
	Enabled   bool
	OrgIDs    []candid.Principal
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Organization is the display model of an organization.
type Organization struct {
	ID          candid.Principal
	Name        string
	Description string
	Metadata    map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Page describes the slice of a listing actually served.
type Page struct {
	Page    uint32
	Limit   uint32
	Total   uint64
	HasMore bool
}

// OrganizationList is one page of organizations.
type OrganizationList struct {
	Organizations []Organization
	Page          *Page
}

// BrandOwnerDetails is the brand-owner slice of the auth context.
type BrandOwnerDetails struct {
	HasOrganizations   bool
	Organizations      []Organization
	ActiveOrganization *Organization
}

// ResellerDetails is the reseller slice of the auth context.
type ResellerDetails struct {
	ProfileCompleteAndVerified bool
	AssociatedOrganization     *Organization
	CertificationCode          string
	CertifiedAt                time.Time
}

// AuthContext is the session view backing routing and header rendering.
type AuthContext struct {
	User         *UserProfile
	IsRegistered bool
	Role         Role
	BrandOwner   *BrandOwnerDetails
	Reseller     *ResellerDetails
}

// Authenticated reports whether a registered user is attached to the session.
func (a AuthContext) Authenticated() bool {
	return a.IsRegistered && a.User != nil
}

// NavigationContext is the lightweight header state.
type NavigationContext struct {
	DisplayName      string
	AvatarID         string
	OrganizationName string
}

// OrganizationContext pairs a just-created organization with the refreshed
// session view.
type OrganizationContext struct {
	Organization Organization
	AuthContext  AuthContext
}

// ResellerProfile is the display model of a reseller record.
type ResellerProfile struct {
	ID                candid.Principal
	UserID            candid.Principal
	OrganizationID    candid.Principal
	Name              string
	PublicKey         string
	ContactEmail      string
	ContactPhone      string
	EcommerceURLs     map[string]string
	Metadata          map[string]string
	Verified          bool
	CertificationCode string
	CertifiedAt       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ResellerCertification aggregates the certification page.
type ResellerCertification struct {
	Profile           ResellerProfile
	Organization      Organization
	CertificationCode string
	CertifiedAt       time.Time
	User              UserProfile
}

// Analytics is the per-organization dashboard snapshot.
type Analytics struct {
	TotalProducts          uint64
	ActiveResellers        uint64
	VerificationsThisMonth uint64
}

// RateLimit is the verification budget view for one product.
type RateLimit struct {
	RemainingAttempts uint32
	ResetAt           time.Time
	WindowStartedAt   time.Time
}

// Exhausted reports whether further verification attempts will be rejected
// until the window resets.
func (r RateLimit) Exhausted() bool { return r.RemainingAttempts == 0 }

// Product is the display model of a product record.
type Product struct {
	ID          candid.Principal
	Name        string
	OrgID       candid.Principal
	Category    string
	Description string
	Metadata    map[string]string
	PublicKey   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VerificationEvent is a recorded verification.
type VerificationEvent struct {
	ID           candid.Principal
	ProductID    candid.Principal
	SerialNo     candid.Principal
	PrintVersion uint8
	Metadata     map[string]string
	CreatedAt    time.Time
	CreatedBy    candid.Principal
}

// Rewards summarizes points granted for a verification.
type Rewards struct {
	Points            uint32
	FirstVerification bool
	SpecialReward     string
	Description       string
}

// VerificationOutcome is the view of a verify call.
type VerificationOutcome struct {
	Status       VerificationStatus
	Verification *VerificationEvent
	Rewards      *Rewards
	ExpiresAt    time.Time
}

// RewardRedemption is the view of a redeem call. Success false carries the
// business reason in Message.
type RewardRedemption struct {
	Success       bool
	TransactionID string
	Message       string
}

// Logout acknowledges session termination.
type Logout struct {
	Message     string
	RedirectURL string
}
