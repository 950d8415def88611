package api

// Canister method names called by the dashboard client.
const (
	MethodGetAuthContext             = "get_auth_context"
	MethodGetNavigationContext       = "get_navigation_context"
	MethodGetMyOrganizations         = "get_my_organizations"
	MethodGetMyResellerCertification = "get_my_reseller_certification"
	MethodFindOrganizationsByName    = "find_organizations_by_name"
	MethodListOrganizations          = "list_organizations_v2"
	MethodGetOrganizationByID        = "get_organization_by_id_v2"
	MethodGetOrganizationAnalytic    = "get_organization_analytic"
	MethodGetVerificationRateLimit   = "get_verification_rate_limit"
	MethodGetAvailableRoles          = "get_available_roles"
	MethodGetProductByID             = "get_product_by_id"
	MethodGetUserByID                = "get_user_by_id"

	MethodInitializeUserSession      = "initialize_user_session"
	MethodSelectActiveOrganization   = "select_active_organization"
	MethodCreateOrganizationForOwner = "create_organization_for_owner"
	MethodCompleteResellerProfile    = "complete_reseller_profile"
	MethodUpdateOrganization         = "update_organization_v2"
	MethodVerifyProduct              = "verify_product_v2"
	MethodRedeemProductReward        = "redeem_product_reward"
	MethodLogoutUser                 = "logout_user"
)

// Methods of the wider backend surface. The dashboard facade does not wrap
// them, but the bindings cover them so other frontends built on this client
// do not have to redeclare the wire contract.
const (
	MethodWhoami                    = "whoami"
	MethodGreet                     = "greet"
	MethodCheckResellerVerification = "check_reseller_verification"
	MethodListProducts              = "list_products"
	MethodListResellersByOrgID      = "list_resellers_by_org_id"
	MethodFindResellersByNameOrID   = "find_resellers_by_name_or_id"
	MethodListProductSerialNumbers  = "list_product_serial_numbers"
	MethodListProductVerifications  = "list_product_verifications_by_org_id"
	MethodGetOrganizationLegacy     = "get_organization_by_id"
	MethodGetOrganizationPrivateKey = "get_organization_private_key"

	MethodCreateOrganization        = "create_organization_v2"
	MethodUpdateOrganizationLegacy  = "update_organization"
	MethodCreateProduct             = "create_product"
	MethodUpdateProduct             = "update_product"
	MethodCreateSerialNumber        = "create_product_serial_number"
	MethodUpdateSerialNumber        = "update_product_serial_number"
	MethodPrintSerialNumber         = "print_product_serial_number"
	MethodRegister                  = "register"
	MethodUpdateSelfDetails         = "update_self_details"
	MethodSetSelfRole               = "set_self_role"
	MethodVerifyReseller            = "verify_reseller_v2"
	MethodGenerateResellerCode      = "generate_reseller_unique_code_v2"
)

// CallKind distinguishes read-only query calls, which are safe to retry,
// from state-changing update calls, which are not.
type CallKind uint8

const (
	CallQuery CallKind = iota
	CallUpdate
)

func (k CallKind) String() string {
	if k == CallUpdate {
		return "update"
	}
	return "query"
}

var methodKinds = map[string]CallKind{
	MethodGetAuthContext:             CallQuery,
	MethodGetNavigationContext:       CallQuery,
	MethodGetMyOrganizations:         CallQuery,
	MethodGetMyResellerCertification: CallQuery,
	MethodFindOrganizationsByName:    CallQuery,
	MethodListOrganizations:          CallQuery,
	MethodGetOrganizationByID:        CallQuery,
	MethodGetOrganizationAnalytic:    CallQuery,
	MethodGetVerificationRateLimit:   CallQuery,
	MethodGetAvailableRoles:          CallQuery,
	MethodGetProductByID:             CallQuery,
	MethodGetUserByID:                CallQuery,

	MethodInitializeUserSession:      CallUpdate,
	MethodSelectActiveOrganization:   CallUpdate,
	MethodCreateOrganizationForOwner: CallUpdate,
	MethodCompleteResellerProfile:    CallUpdate,
	MethodUpdateOrganization:         CallUpdate,
	MethodVerifyProduct:              CallUpdate,
	MethodRedeemProductReward:        CallUpdate,
	MethodLogoutUser:                 CallUpdate,

	MethodWhoami:                    CallQuery,
	MethodGreet:                     CallQuery,
	MethodCheckResellerVerification: CallQuery,
	MethodListProducts:              CallQuery,
	MethodListResellersByOrgID:      CallQuery,
	MethodFindResellersByNameOrID:   CallQuery,
	MethodListProductSerialNumbers:  CallQuery,
	MethodListProductVerifications:  CallQuery,
	MethodGetOrganizationLegacy:     CallQuery,
	MethodGetOrganizationPrivateKey: CallQuery,

	MethodCreateOrganization:       CallUpdate,
	MethodUpdateOrganizationLegacy: CallUpdate,
	MethodCreateProduct:            CallUpdate,
	MethodUpdateProduct:            CallUpdate,
	MethodCreateSerialNumber:       CallUpdate,
	MethodUpdateSerialNumber:       CallUpdate,
	MethodPrintSerialNumber:        CallUpdate,
	MethodRegister:                 CallUpdate,
	MethodUpdateSelfDetails:        CallUpdate,
	MethodSetSelfRole:              CallUpdate,
	MethodVerifyReseller:           CallUpdate,
	MethodGenerateResellerCode:     CallUpdate,
}

// MethodKind returns the call kind of a known method.
func MethodKind(method string) (CallKind, bool) {
	k, ok := methodKinds[method]
	return k, ok
}

// IsQuery reports whether the method is a read-only query call. Unknown
// methods are treated as updates so they are never retried by accident.
func IsQuery(method string) bool {
	k, ok := methodKinds[method]
	return ok && k == CallQuery
}

// bareReplyMethods answer with their payload directly: legacy tagged
// variants, plain records and collections. Everything else replies inside
// the response envelope.
var bareReplyMethods = map[string]bool{
	MethodFindOrganizationsByName: true,
	MethodGetProductByID:          true,
	MethodGetUserByID:             true,

	MethodWhoami:                    true,
	MethodGreet:                     true,
	MethodListProducts:              true,
	MethodListResellersByOrgID:      true,
	MethodFindResellersByNameOrID:   true,
	MethodListProductSerialNumbers:  true,
	MethodListProductVerifications:  true,
	MethodGetOrganizationLegacy:     true,
	MethodGetOrganizationPrivateKey: true,
	MethodUpdateOrganizationLegacy:  true,
	MethodCreateProduct:             true,
	MethodUpdateProduct:             true,
	MethodCreateSerialNumber:        true,
	MethodUpdateSerialNumber:        true,
	MethodPrintSerialNumber:         true,
	MethodRegister:                  true,
	MethodUpdateSelfDetails:         true,
	MethodSetSelfRole:               true,
}

// IsEnveloped reports whether the method replies inside the response
// envelope. Unknown methods are treated as enveloped so their replies
// still pass boundary validation.
func IsEnveloped(method string) bool {
	return !bareReplyMethods[method]
}
