package api

import (
	"fmt"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
)

// Metadata is a free-form key/value pair attached to users, organizations,
// products and error details.
type Metadata struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UserPublic is the externally visible slice of a user record.
type UserPublic struct {
	ID        candid.Principal   `json:"id"`
	FirstName candid.Opt[string] `json:"first_name"`
	LastName  candid.Opt[string] `json:"last_name"`
	Email     candid.Opt[string] `json:"email"`
	CreatedAt uint64             `json:"created_at"`
}

// User is the full user record returned by the legacy user operations.
type User struct {
	ID          candid.Principal   `json:"id"`
	UserRole    candid.Opt[Role]   `json:"user_role"`
	IsPrincipal bool               `json:"is_principal"`
	IsEnabled   bool               `json:"is_enabled"`
	OrgIDs      []candid.Principal `json:"org_ids"`
	FirstName   candid.Opt[string] `json:"first_name"`
	LastName    candid.Opt[string] `json:"last_name"`
	PhoneNo     candid.Opt[string] `json:"phone_no"`
	Email       candid.Opt[string] `json:"email"`
	DetailMeta  []Metadata         `json:"detail_meta"`
	CreatedAt   uint64             `json:"created_at"`
	CreatedBy   candid.Principal   `json:"created_by"`
	UpdatedAt   uint64             `json:"updated_at"`
	UpdatedBy   candid.Principal   `json:"updated_by"`
}

// OrganizationPublic is an organization with private material stripped.
type OrganizationPublic struct {
	ID          candid.Principal `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Metadata    []Metadata       `json:"metadata"`
	CreatedAt   uint64           `json:"created_at"`
	CreatedBy   candid.Principal `json:"created_by"`
	UpdatedAt   uint64           `json:"updated_at"`
	UpdatedBy   candid.Principal `json:"updated_by"`
}

// Product is a registered product of an organization.
type Product struct {
	ID          candid.Principal `json:"id"`
	Name        string           `json:"name"`
	OrgID       candid.Principal `json:"org_id"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Metadata    []Metadata       `json:"metadata"`
	PublicKey   string           `json:"public_key"`
	CreatedAt   uint64           `json:"created_at"`
	CreatedBy   candid.Principal `json:"created_by"`
	UpdatedAt   uint64           `json:"updated_at"`
	UpdatedBy   candid.Principal `json:"updated_by"`
}

// ResellerPublic is the externally visible slice of a reseller profile.
type ResellerPublic struct {
	ID                     candid.Principal   `json:"id"`
	UserID                 candid.Principal   `json:"user_id"`
	OrganizationID         candid.Principal   `json:"organization_id"`
	Name                   string             `json:"name"`
	PublicKey              string             `json:"public_key"`
	ContactEmail           candid.Opt[string] `json:"contact_email"`
	ContactPhone           candid.Opt[string] `json:"contact_phone"`
	EcommerceURLs          []Metadata         `json:"ecommerce_urls"`
	AdditionalMetadata     []Metadata         `json:"additional_metadata"`
	IsVerified             bool               `json:"is_verified"`
	CertificationCode      candid.Opt[string] `json:"certification_code"`
	CertificationTimestamp candid.Opt[uint64] `json:"certification_timestamp"`
	CreatedAt              uint64             `json:"created_at"`
	UpdatedAt              uint64             `json:"updated_at"`
}

// --- Session and context operations ---

// BrandOwnerContextDetails is the brand-owner slice of the auth context.
type BrandOwnerContextDetails struct {
	HasOrganizations   bool                             `json:"has_organizations"`
	Organizations      candid.Opt[[]OrganizationPublic] `json:"organizations"`
	ActiveOrganization candid.Opt[OrganizationPublic]   `json:"active_organization"`
}

// ResellerContextDetails is the reseller slice of the auth context.
type ResellerContextDetails struct {
	IsProfileCompleteAndVerified bool                           `json:"is_profile_complete_and_verified"`
	AssociatedOrganization       candid.Opt[OrganizationPublic] `json:"associated_organization"`
	CertificationCode            candid.Opt[string]             `json:"certification_code"`
	CertificationTimestamp       candid.Opt[uint64]             `json:"certification_timestamp"`
}

// AuthContextResponse describes the caller's session as the backend sees it.
// An unregistered caller still decodes successfully with IsRegistered false.
type AuthContextResponse struct {
	User              candid.Opt[UserPublic]               `json:"user"`
	IsRegistered      bool                                 `json:"is_registered"`
	Role              candid.Opt[Role]                     `json:"role"`
	BrandOwnerDetails candid.Opt[BrandOwnerContextDetails] `json:"brand_owner_details"`
	ResellerDetails   candid.Opt[ResellerContextDetails]   `json:"reseller_details"`
}

// NavigationContextResponse carries the lightweight header state.
type NavigationContextResponse struct {
	UserDisplayName         string             `json:"user_display_name"`
	UserAvatarID            candid.Opt[string] `json:"user_avatar_id"`
	CurrentOrganizationName candid.Opt[string] `json:"current_organization_name"`
}

// LogoutResponse acknowledges session termination.
type LogoutResponse struct {
	Message     string             `json:"message"`
	RedirectURL candid.Opt[string] `json:"redirect_url"`
}

// OrganizationContextResponse pairs a freshly created organization with the
// caller's refreshed auth context.
type OrganizationContextResponse struct {
	Organization    OrganizationPublic  `json:"organization"`
	UserAuthContext AuthContextResponse `json:"user_auth_context"`
}

// ResellerCertificationPageContext aggregates everything the certification
// page shows. The backend guarantees code and timestamp are present for
// verified resellers, so they arrive unwrapped.
type ResellerCertificationPageContext struct {
	ResellerProfile        ResellerPublic     `json:"reseller_profile"`
	AssociatedOrganization OrganizationPublic `json:"associated_organization"`
	CertificationCode      string             `json:"certification_code"`
	CertificationTimestamp uint64             `json:"certification_timestamp"`
	UserDetails            UserPublic         `json:"user_details"`
}

// CompleteResellerProfileRequest finishes reseller onboarding against a
// chosen organization.
type CompleteResellerProfileRequest struct {
	TargetOrganizationID candid.Principal   `json:"target_organization_id"`
	ResellerName         string             `json:"reseller_name"`
	ContactEmail         candid.Opt[string] `json:"contact_email"`
	ContactPhone         candid.Opt[string] `json:"contact_phone"`
	EcommerceURLs        []Metadata         `json:"ecommerce_urls"`
	AdditionalMetadata   []Metadata         `json:"additional_metadata"`
}

// SelectActiveOrganizationRequest switches the brand owner's working
// organization.
type SelectActiveOrganizationRequest struct {
	OrgID candid.Principal `json:"org_id"`
}

// --- Organization operations ---

// FindOrganizationsByNameRequest is the payload of the legacy name search.
type FindOrganizationsByNameRequest struct {
	Name string `json:"name"`
}

// GetOrganizationRequest selects one organization by id.
type GetOrganizationRequest struct {
	OrgID candid.Principal `json:"org_id"`
}

// CreateOrganizationRequest is the payload of create_organization_v2.
type CreateOrganizationRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Metadata    []Metadata `json:"metadata"`
}

// CreateOrganizationWithOwnerContextRequest is the payload of
// create_organization_for_owner. Same shape as CreateOrganizationRequest but
// kept distinct because the operations evolve independently.
type CreateOrganizationWithOwnerContextRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Metadata    []Metadata `json:"metadata"`
}

// UpdateOrganizationRequest is the payload of update_organization_v2.
type UpdateOrganizationRequest struct {
	ID          candid.Principal `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Metadata    []Metadata       `json:"metadata"`
}

// OrganizationResponse wraps a single organization.
type OrganizationResponse struct {
	Organization OrganizationPublic `json:"organization"`
}

// PaginationRequest selects a page of a listing operation.
type PaginationRequest struct {
	Page  candid.Opt[uint32] `json:"page"`
	Limit candid.Opt[uint32] `json:"limit"`
}

// PaginationResponse reports the page actually served.
type PaginationResponse struct {
	Page    uint32 `json:"page"`
	Limit   uint32 `json:"limit"`
	Total   uint64 `json:"total"`
	HasMore bool   `json:"has_more"`
}

// FindOrganizationsRequest is the payload of list_organizations_v2.
type FindOrganizationsRequest struct {
	Name       string                        `json:"name"`
	Pagination candid.Opt[PaginationRequest] `json:"pagination"`
}

// OrganizationsListResponse is a page of organizations.
type OrganizationsListResponse struct {
	Organizations []OrganizationPublic           `json:"organizations"`
	Pagination    candid.Opt[PaginationResponse] `json:"pagination"`
}

// GetOrganizationAnalyticRequest selects the organization to aggregate.
type GetOrganizationAnalyticRequest struct {
	OrgID candid.Principal `json:"org_id"`
}

// OrganizationAnalyticData is the dashboard analytics snapshot.
type OrganizationAnalyticData struct {
	TotalProducts          uint64 `json:"total_products"`
	ActiveResellers        uint64 `json:"active_resellers"`
	VerificationsThisMonth uint64 `json:"verifications_this_month"`
}

// --- Verification operations ---

// VerifyProductEnhancedRequest is the payload of verify_product_v2.
// Timestamp and Nonce guard against replayed verification attempts.
type VerifyProductEnhancedRequest struct {
	ProductID    candid.Principal   `json:"product_id"`
	SerialNo     candid.Principal   `json:"serial_no"`
	PrintVersion uint8              `json:"print_version"`
	UniqueCode   string             `json:"unique_code"`
	Metadata     []Metadata         `json:"metadata"`
	Timestamp    candid.Opt[uint64] `json:"timestamp"`
	Nonce        candid.Opt[string] `json:"nonce"`
}

// ProductVerification is a recorded verification event.
type ProductVerification struct {
	ID           candid.Principal `json:"id"`
	ProductID    candid.Principal `json:"product_id"`
	SerialNo     candid.Principal `json:"serial_no"`
	PrintVersion uint8            `json:"print_version"`
	Metadata     []Metadata       `json:"metadata"`
	CreatedAt    uint64           `json:"created_at"`
	CreatedBy    candid.Principal `json:"created_by"`
}

// VerificationRewards summarizes points granted for a verification.
type VerificationRewards struct {
	Points              uint32             `json:"points"`
	IsFirstVerification bool               `json:"is_first_verification"`
	SpecialReward       candid.Opt[string] `json:"special_reward"`
	RewardDescription   candid.Opt[string] `json:"reward_description"`
}

// ProductVerificationEnhancedResponse is the outcome of verify_product_v2.
type ProductVerificationEnhancedResponse struct {
	Status       VerificationStatus              `json:"status"`
	Verification candid.Opt[ProductVerification] `json:"verification"`
	Rewards      candid.Opt[VerificationRewards] `json:"rewards"`
	Expiration   candid.Opt[uint64]              `json:"expiration"`
}

// RateLimitRequest selects the product whose verification budget to report.
type RateLimitRequest struct {
	ProductID candid.Principal `json:"product_id"`
}

// RateLimitInfo reports the caller's verification budget for one product.
type RateLimitInfo struct {
	RemainingAttempts  uint32 `json:"remaining_attempts"`
	ResetTime          uint64 `json:"reset_time"`
	CurrentWindowStart uint64 `json:"current_window_start"`
}

// GetProductRequest selects one product by id.
type GetProductRequest struct {
	ProductID candid.Principal `json:"product_id"`
}

// GetUserRequest selects one user by id.
type GetUserRequest struct {
	UserID candid.Principal `json:"user_id"`
}

// RedeemRewardRequest claims the reward attached to a first verification.
type RedeemRewardRequest struct {
	SerialNo      candid.Principal `json:"serial_no"`
	UniqueCode    string           `json:"unique_code"`
	WalletAddress string           `json:"wallet_address"`
}

// RedeemRewardResponse reports the redemption outcome. Success false with a
// message is a business rejection, not an error envelope.
type RedeemRewardResponse struct {
	Success       bool               `json:"success"`
	TransactionID candid.Opt[string] `json:"transaction_id"`
	Message       string             `json:"message"`
}

// --- Product operations ---

// ProductInput is the payload of create_product.
type ProductInput struct {
	Name        string           `json:"name"`
	OrgID       candid.Principal `json:"org_id"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Metadata    []Metadata       `json:"metadata"`
}

// UpdateProductRequest is the payload of update_product.
type UpdateProductRequest struct {
	ID          candid.Principal `json:"id"`
	Name        string           `json:"name"`
	OrgID       candid.Principal `json:"org_id"`
	Category    string           `json:"category"`
	Description string           `json:"description"`
	Metadata    []Metadata       `json:"metadata"`
}

// ListProductsRequest selects an organization's products.
type ListProductsRequest struct {
	OrgID candid.Principal `json:"org_id"`
}

// --- Serial number operations ---

// ProductSerialNumber is one printable serial of a product.
type ProductSerialNumber struct {
	ProductID    candid.Principal `json:"product_id"`
	SerialNo     candid.Principal `json:"serial_no"`
	UserSerialNo string           `json:"user_serial_no"`
	PrintVersion uint8            `json:"print_version"`
	Metadata     []Metadata       `json:"metadata"`
	CreatedAt    uint64           `json:"created_at"`
	CreatedBy    candid.Principal `json:"created_by"`
	UpdatedAt    uint64           `json:"updated_at"`
	UpdatedBy    candid.Principal `json:"updated_by"`
}

// ProductUniqueCodeRecord is the printable outcome of
// print_product_serial_number: the signed code bound to one serial and print
// version.
type ProductUniqueCodeRecord struct {
	UniqueCode   string           `json:"unique_code"`
	PrintVersion uint8            `json:"print_version"`
	ProductID    candid.Principal `json:"product_id"`
	SerialNo     candid.Principal `json:"serial_no"`
	CreatedAt    uint64           `json:"created_at"`
}

// ListSerialNumbersRequest narrows list_product_serial_numbers. Both filters
// absent lists every serial the caller may see.
type ListSerialNumbersRequest struct {
	OrganizationID candid.Opt[candid.Principal] `json:"organization_id"`
	ProductID      candid.Opt[candid.Principal] `json:"product_id"`
}

// CreateSerialNumberRequest mints a serial for a product.
type CreateSerialNumberRequest struct {
	ProductID candid.Principal `json:"product_id"`
}

// UpdateSerialNumberRequest bumps a serial's print version.
type UpdateSerialNumberRequest struct {
	ProductID candid.Principal `json:"product_id"`
	SerialNo  candid.Principal `json:"serial_no"`
}

// PrintSerialNumberRequest signs and returns the unique code of a serial.
type PrintSerialNumberRequest struct {
	ProductID candid.Principal `json:"product_id"`
	SerialNo  candid.Principal `json:"serial_no"`
}

// --- Reseller operations ---

// Reseller is the full reseller record.
type Reseller struct {
	ID            candid.Principal `json:"id"`
	OrgID         candid.Principal `json:"org_id"`
	ResellerID    string           `json:"reseller_id"`
	Name          string           `json:"name"`
	DateJoined    uint64           `json:"date_joined"`
	Metadata      []Metadata       `json:"metadata"`
	EcommerceURLs []Metadata       `json:"ecommerce_urls"`
	PublicKey     string           `json:"public_key"`
	CreatedAt     uint64           `json:"created_at"`
	CreatedBy     candid.Principal `json:"created_by"`
	UpdatedAt     uint64           `json:"updated_at"`
	UpdatedBy     candid.Principal `json:"updated_by"`
}

// ListResellersRequest selects an organization's resellers.
type ListResellersRequest struct {
	OrgID candid.Principal `json:"org_id"`
}

// FindResellersRequest searches resellers by display name or reseller id.
type FindResellersRequest struct {
	Name string `json:"name"`
}

// CheckResellerVerificationRequest asks whether the caller holds a verified
// reseller profile in the organization.
type CheckResellerVerificationRequest struct {
	OrgID candid.Principal `json:"org_id"`
}

// Wire tags of the reseller verification status variant.
const (
	ResellerStatusTagSuccess              = "Success"
	ResellerStatusTagInvalidCode          = "InvalidCode"
	ResellerStatusTagExpiredCode          = "ExpiredCode"
	ResellerStatusTagReplayAttackDetected = "ReplayAttackDetected"
	ResellerStatusTagResellerNotFound     = "ResellerNotFound"
	ResellerStatusTagOrganizationNotFound = "OrganizationNotFound"
	ResellerStatusTagInternalError        = "InternalError"
)

// ResellerVerificationStatus is the raw status variant of verify_reseller_v2.
type ResellerVerificationStatus struct {
	Tag string
}

func (s ResellerVerificationStatus) MarshalJSON() ([]byte, error) {
	return marshalUnitVariant(s.Tag)
}

func (s *ResellerVerificationStatus) UnmarshalJSON(data []byte) error {
	tag, err := unmarshalUnitVariant(data)
	if err != nil {
		return fmt.Errorf("reseller verification status: %w", err)
	}
	s.Tag = tag
	return nil
}

// VerifyResellerRequest is the payload of verify_reseller_v2. Timestamp must
// match the one embedded in the generated code; Context must match the value
// supplied at generation time when one was given.
type VerifyResellerRequest struct {
	ResellerID candid.Principal   `json:"reseller_id"`
	UniqueCode string             `json:"unique_code"`
	Timestamp  uint64             `json:"timestamp"`
	Context    candid.Opt[string] `json:"context"`
}

// ResellerVerificationResponse is the outcome of verify_reseller_v2.
// Organization and Reseller are populated only on success.
type ResellerVerificationResponse struct {
	Status       ResellerVerificationStatus     `json:"status"`
	Organization candid.Opt[OrganizationPublic] `json:"organization"`
	Reseller     candid.Opt[Reseller]           `json:"reseller"`
}

// GenerateResellerUniqueCodeRequest mints a time-boxed verification code.
type GenerateResellerUniqueCodeRequest struct {
	ResellerID candid.Principal   `json:"reseller_id"`
	Context    candid.Opt[string] `json:"context"`
}

// ResellerUniqueCodeResponse carries the generated code and the timestamp
// that must accompany its verification.
type ResellerUniqueCodeResponse struct {
	UniqueCode string             `json:"unique_code"`
	ResellerID candid.Principal   `json:"reseller_id"`
	Timestamp  uint64             `json:"timestamp"`
	Context    candid.Opt[string] `json:"context"`
}

// --- Account operations ---

// UserDetailsInput is the payload of update_self_details.
type UserDetailsInput struct {
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	PhoneNo    string     `json:"phone_no"`
	Email      string     `json:"email"`
	DetailMeta []Metadata `json:"detail_meta"`
}

// SetSelfRoleRequest assigns the caller's role after registration.
type SetSelfRoleRequest struct {
	Role Role `json:"role"`
}

// GreetRequest is the payload of the connectivity probe.
type GreetRequest struct {
	Name string `json:"name"`
}

// ProductVerificationDetail is one row of
// list_product_verifications_by_org_id, joined with product and user data.
type ProductVerificationDetail struct {
	UserEmail   candid.Opt[string] `json:"user_email"`
	ProductID   candid.Principal   `json:"product_id"`
	ProductName string             `json:"product_name"`
	SerialNo    candid.Principal   `json:"serial_no"`
	CreatedAt   uint64             `json:"created_at"`
}

// ListVerificationsRequest selects the organization whose verification rows
// to join.
type ListVerificationsRequest struct {
	OrgID candid.Principal `json:"org_id"`
}
