// Package views turns raw wire records into flattened, display-ready models:
// optionals become pointers or zero values, nanosecond timestamps become
// time.Time, and open wire tags collapse onto closed enums with an explicit
// unknown fallback. Mapping is total; malformed tags degrade, never panic.
package views

import "github.com/prasetyowira/TrueOrigin-sub001/pkg/api"

// Role is the closed role enum used across the dashboard. RoleUnknown is the
// absorbing value for tags this client version does not recognize.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleCustomer
	RoleBrandOwner
	RoleReseller
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleUnknown:    "Unknown",
	RoleCustomer:   "Customer",
	RoleBrandOwner: "BrandOwner",
	RoleReseller:   "Reseller",
	RoleAdmin:      "Admin",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Unknown"
}

// Tag returns the wire tag that maps onto this role, empty for RoleUnknown.
func (r Role) Tag() (api.Role, bool) {
	switch r {
	case RoleCustomer:
		return api.Role{Tag: api.RoleTagCustomer}, true
	case RoleBrandOwner:
		return api.Role{Tag: api.RoleTagBrandOwner}, true
	case RoleReseller:
		return api.Role{Tag: api.RoleTagReseller}, true
	case RoleAdmin:
		return api.Role{Tag: api.RoleTagAdmin}, true
	default:
		return api.Role{}, false
	}
}

var roleByTag = map[string]Role{
	api.RoleTagCustomer:   RoleCustomer,
	api.RoleTagBrandOwner: RoleBrandOwner,
	api.RoleTagReseller:   RoleReseller,
	api.RoleTagAdmin:      RoleAdmin,
}

// VerificationStatus is the closed product verification outcome enum.
type VerificationStatus uint8

const (
	VerificationUnknown VerificationStatus = iota
	VerificationFirst
	VerificationMultiple
	VerificationInvalid
)

var verificationNames = map[VerificationStatus]string{
	VerificationUnknown:  "Unknown",
	VerificationFirst:    "FirstVerification",
	VerificationMultiple: "MultipleVerification",
	VerificationInvalid:  "Invalid",
}

func (s VerificationStatus) String() string {
	if name, ok := verificationNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Genuine reports whether the verification proved an authentic product.
func (s VerificationStatus) Genuine() bool {
	return s == VerificationFirst || s == VerificationMultiple
}

var verificationByTag = map[string]VerificationStatus{
	api.VerificationTagFirst:    VerificationFirst,
	api.VerificationTagMultiple: VerificationMultiple,
	api.VerificationTagInvalid:  VerificationInvalid,
}
