package api

import (
	"encoding/json"
	"fmt"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
)

// GenericError is the error payload of the pre-envelope operations.
type GenericError struct {
	Message string     `json:"message"`
	Details []Metadata `json:"details"`
}

func (e GenericError) Error() string {
	if e.Message == "" {
		return "legacy operation failed"
	}
	return e.Message
}

// The pre-envelope operations return single-tag variants instead of the
// uniform envelope. Tags are lowercase on the wire. A "none" arm means the
// lookup matched nothing, which the decode layer folds into its empty-result
// handling. Each result type exposes the same three accessors so decoding
// stays generic.

// OrganizationResult is the bare result of the legacy organization lookups.
type OrganizationResult struct {
	organization *OrganizationPublic
	err          *GenericError
}

// Value returns the success arm.
func (r OrganizationResult) Value() (OrganizationPublic, bool) {
	if r.organization == nil {
		var zero OrganizationPublic
		return zero, false
	}
	return *r.organization, true
}

// Err returns the error arm.
func (r OrganizationResult) Err() (GenericError, bool) {
	if r.err == nil {
		return GenericError{}, false
	}
	return *r.err, true
}

func (r *OrganizationResult) UnmarshalJSON(data []byte) error {
	var value OrganizationPublic
	var err GenericError
	none, matched, decodeErr := decodeLegacyVariant(data, "organization", &value, &err)
	if decodeErr != nil {
		return fmt.Errorf("organization result: %w", decodeErr)
	}
	*r = OrganizationResult{}
	switch {
	case none:
	case matched:
		r.organization = &value
	default:
		r.err = &err
	}
	return nil
}

// ProductResult is the bare result of the legacy product lookups.
type ProductResult struct {
	product *Product
	err     *GenericError
}

func (r ProductResult) Value() (Product, bool) {
	if r.product == nil {
		var zero Product
		return zero, false
	}
	return *r.product, true
}

func (r ProductResult) Err() (GenericError, bool) {
	if r.err == nil {
		return GenericError{}, false
	}
	return *r.err, true
}

func (r *ProductResult) UnmarshalJSON(data []byte) error {
	var value Product
	var err GenericError
	none, matched, decodeErr := decodeLegacyVariant(data, "product", &value, &err)
	if decodeErr != nil {
		return fmt.Errorf("product result: %w", decodeErr)
	}
	*r = ProductResult{}
	switch {
	case none:
	case matched:
		r.product = &value
	default:
		r.err = &err
	}
	return nil
}

// UserResult is the bare result of the legacy user operations.
type UserResult struct {
	user *User
	err  *GenericError
}

func (r UserResult) Value() (User, bool) {
	if r.user == nil {
		var zero User
		return zero, false
	}
	return *r.user, true
}

func (r UserResult) Err() (GenericError, bool) {
	if r.err == nil {
		return GenericError{}, false
	}
	return *r.err, true
}

func (r *UserResult) UnmarshalJSON(data []byte) error {
	var value User
	var err GenericError
	none, matched, decodeErr := decodeLegacyVariant(data, "user", &value, &err)
	if decodeErr != nil {
		return fmt.Errorf("user result: %w", decodeErr)
	}
	*r = UserResult{}
	switch {
	case none:
	case matched:
		r.user = &value
	default:
		r.err = &err
	}
	return nil
}

// PrivateKeyResult is the bare result of get_organization_private_key.
type PrivateKeyResult struct {
	key *string
	err *GenericError
}

func (r PrivateKeyResult) Value() (string, bool) {
	if r.key == nil {
		return "", false
	}
	return *r.key, true
}

func (r PrivateKeyResult) Err() (GenericError, bool) {
	if r.err == nil {
		return GenericError{}, false
	}
	return *r.err, true
}

func (r *PrivateKeyResult) UnmarshalJSON(data []byte) error {
	var value string
	var err GenericError
	none, matched, decodeErr := decodeLegacyVariant(data, "key", &value, &err)
	if decodeErr != nil {
		return fmt.Errorf("private key result: %w", decodeErr)
	}
	*r = PrivateKeyResult{}
	switch {
	case none:
	case matched:
		r.key = &value
	default:
		r.err = &err
	}
	return nil
}

// UniqueCodeResult is the bare result of the legacy reseller code generator.
type UniqueCodeResult struct {
	code *string
	err  *GenericError
}

func (r UniqueCodeResult) Value() (string, bool) {
	if r.code == nil {
		return "", false
	}
	return *r.code, true
}

func (r UniqueCodeResult) Err() (GenericError, bool) {
	if r.err == nil {
		return GenericError{}, false
	}
	return *r.err, true
}

func (r *UniqueCodeResult) UnmarshalJSON(data []byte) error {
	var value string
	var err GenericError
	none, matched, decodeErr := decodeLegacyVariant(data, "unique_code", &value, &err)
	if decodeErr != nil {
		return fmt.Errorf("unique code result: %w", decodeErr)
	}
	*r = UniqueCodeResult{}
	switch {
	case none:
	case matched:
		r.code = &value
	default:
		r.err = &err
	}
	return nil
}

// ResellerVerificationRecord is the success payload of the legacy reseller
// verification. Status tags here are Success, MultipleVerification and
// Invalid; the views layer maps them.
type ResellerVerificationRecord struct {
	Status       VerificationStatus `json:"status"`
	Organization OrganizationPublic `json:"organization"`
	RegisteredAt candid.Opt[uint64] `json:"registered_at"`
}

// ResellerVerificationResult is the bare result of the legacy reseller
// verification.
type ResellerVerificationResult struct {
	record *ResellerVerificationRecord
	err    *GenericError
}

func (r ResellerVerificationResult) Value() (ResellerVerificationRecord, bool) {
	if r.record == nil {
		return ResellerVerificationRecord{}, false
	}
	return *r.record, true
}

func (r ResellerVerificationResult) Err() (GenericError, bool) {
	if r.err == nil {
		return GenericError{}, false
	}
	return *r.err, true
}

func (r *ResellerVerificationResult) UnmarshalJSON(data []byte) error {
	var value ResellerVerificationRecord
	var err GenericError
	none, matched, decodeErr := decodeLegacyVariant(data, "result", &value, &err)
	if decodeErr != nil {
		return fmt.Errorf("reseller verification result: %w", decodeErr)
	}
	*r = ResellerVerificationResult{}
	switch {
	case none:
	case matched:
		r.record = &value
	default:
		r.err = &err
	}
	return nil
}

// The serial-number operations predate the envelope but already carry the
// kinded error variant in their error arm, so they get their own accessor
// shape instead of the message-only GenericError.

// SerialNumberResult is the bare result of the serial create/update
// operations.
type SerialNumberResult struct {
	serial *ProductSerialNumber
	err    *Error
}

func (r SerialNumberResult) Value() (ProductSerialNumber, bool) {
	if r.serial == nil {
		return ProductSerialNumber{}, false
	}
	return *r.serial, true
}

func (r SerialNumberResult) Err() (Error, bool) {
	if r.err == nil {
		return Error{}, false
	}
	return *r.err, true
}

func (r *SerialNumberResult) UnmarshalJSON(data []byte) error {
	var value ProductSerialNumber
	var kerr Error
	matched, decodeErr := decodeKindedVariant(data, "result", &value, &kerr)
	if decodeErr != nil {
		return fmt.Errorf("serial number result: %w", decodeErr)
	}
	*r = SerialNumberResult{}
	if matched {
		r.serial = &value
	} else {
		r.err = &kerr
	}
	return nil
}

// SerialNumbersResult is the Ok/Err result of list_product_serial_numbers.
type SerialNumbersResult struct {
	serials []ProductSerialNumber
	err     *Error
}

func (r SerialNumbersResult) Value() ([]ProductSerialNumber, bool) {
	if r.err != nil {
		return nil, false
	}
	return r.serials, true
}

func (r SerialNumbersResult) Err() (Error, bool) {
	if r.err == nil {
		return Error{}, false
	}
	return *r.err, true
}

func (r *SerialNumbersResult) UnmarshalJSON(data []byte) error {
	var value []ProductSerialNumber
	var kerr Error
	matched, decodeErr := decodeKindedVariant(data, "Ok", &value, &kerr)
	if decodeErr != nil {
		return fmt.Errorf("serial numbers result: %w", decodeErr)
	}
	*r = SerialNumbersResult{}
	if matched {
		if value == nil {
			value = []ProductSerialNumber{}
		}
		r.serials = value
	} else {
		r.err = &kerr
	}
	return nil
}

// UniqueCodePrintResult is the bare result of print_product_serial_number.
type UniqueCodePrintResult struct {
	record *ProductUniqueCodeRecord
	err    *Error
}

func (r UniqueCodePrintResult) Value() (ProductUniqueCodeRecord, bool) {
	if r.record == nil {
		return ProductUniqueCodeRecord{}, false
	}
	return *r.record, true
}

func (r UniqueCodePrintResult) Err() (Error, bool) {
	if r.err == nil {
		return Error{}, false
	}
	return *r.err, true
}

func (r *UniqueCodePrintResult) UnmarshalJSON(data []byte) error {
	var value ProductUniqueCodeRecord
	var kerr Error
	matched, decodeErr := decodeKindedVariant(data, "result", &value, &kerr)
	if decodeErr != nil {
		return fmt.Errorf("unique code print result: %w", decodeErr)
	}
	*r = UniqueCodePrintResult{}
	if matched {
		r.record = &value
	} else {
		r.err = &kerr
	}
	return nil
}

// decodeLegacyVariant decodes a single-tag variant with arms "none",
// valueTag and "error". It reports (none, valueMatched); when both are false
// the error arm was taken.
func decodeLegacyVariant(data []byte, valueTag string, value any, errOut *GenericError) (none bool, matched bool, err error) {
	var asString string
	if jsonErr := json.Unmarshal(data, &asString); jsonErr == nil {
		if asString == "none" {
			return true, false, nil
		}
		return false, false, fmt.Errorf("unexpected tag string %q", asString)
	}

	var arms map[string]json.RawMessage
	if jsonErr := json.Unmarshal(data, &arms); jsonErr != nil {
		return false, false, jsonErr
	}
	if len(arms) != 1 {
		return false, false, fmt.Errorf("variant must carry exactly one tag, got %d", len(arms))
	}

	for tag, raw := range arms {
		switch tag {
		case "none":
			return true, false, nil
		case valueTag:
			if jsonErr := json.Unmarshal(raw, value); jsonErr != nil {
				return false, false, fmt.Errorf("%s arm: %w", tag, jsonErr)
			}
			return false, true, nil
		case "error":
			if jsonErr := json.Unmarshal(raw, errOut); jsonErr != nil {
				return false, false, fmt.Errorf("error arm: %w", jsonErr)
			}
			return false, false, nil
		default:
			return false, false, fmt.Errorf("unknown tag %q", tag)
		}
	}
	return false, false, fmt.Errorf("no tag present")
}

// decodeKindedVariant decodes a single-tag variant whose error arm carries
// the kinded Error. The error tag is "error" for the result/error shapes and
// "Err" for the Ok/Err shapes; both are accepted.
func decodeKindedVariant(data []byte, valueTag string, value any, errOut *Error) (matched bool, err error) {
	var arms map[string]json.RawMessage
	if jsonErr := json.Unmarshal(data, &arms); jsonErr != nil {
		return false, jsonErr
	}
	if len(arms) != 1 {
		return false, fmt.Errorf("variant must carry exactly one tag, got %d", len(arms))
	}

	for tag, raw := range arms {
		switch tag {
		case valueTag:
			if jsonErr := json.Unmarshal(raw, value); jsonErr != nil {
				return false, fmt.Errorf("%s arm: %w", tag, jsonErr)
			}
			return true, nil
		case "error", "Err":
			if jsonErr := json.Unmarshal(raw, errOut); jsonErr != nil {
				return false, fmt.Errorf("%s arm: %w", tag, jsonErr)
			}
			return false, nil
		default:
			return false, fmt.Errorf("unknown tag %q", tag)
		}
	}
	return false, fmt.Errorf("no tag present")
}
