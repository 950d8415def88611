package api

import (
	"encoding/json"
	"fmt"
)

// Wire tags of the user role variant.
const (
	RoleTagAdmin      = "Admin"
	RoleTagBrandOwner = "BrandOwner"
	RoleTagReseller   = "Reseller"
	RoleTagCustomer   = "Customer"
)

// Role is the raw role variant as transported. It carries the tag verbatim;
// mapping onto the closed enum, including the unknown fallback, happens in
// the views package so wire decoding never loses information.
type Role struct {
	Tag string
}

// MarshalJSON emits the unit-variant form {"<Tag>": null}.
func (r Role) MarshalJSON() ([]byte, error) {
	return marshalUnitVariant(r.Tag)
}

// UnmarshalJSON accepts the unit-variant form and, for resilience against
// older gateway encodings, a bare tag string.
func (r *Role) UnmarshalJSON(data []byte) error {
	tag, err := unmarshalUnitVariant(data)
	if err != nil {
		return fmt.Errorf("role: %w", err)
	}
	r.Tag = tag
	return nil
}

// Wire tags of the product verification status variant.
const (
	VerificationTagFirst    = "FirstVerification"
	VerificationTagMultiple = "MultipleVerification"
	VerificationTagInvalid  = "Invalid"
)

// VerificationStatus is the raw product verification status variant.
type VerificationStatus struct {
	Tag string
}

func (s VerificationStatus) MarshalJSON() ([]byte, error) {
	return marshalUnitVariant(s.Tag)
}

func (s *VerificationStatus) UnmarshalJSON(data []byte) error {
	tag, err := unmarshalUnitVariant(data)
	if err != nil {
		return fmt.Errorf("verification status: %w", err)
	}
	s.Tag = tag
	return nil
}

func marshalUnitVariant(tag string) ([]byte, error) {
	if tag == "" {
		return nil, fmt.Errorf("unit variant: empty tag")
	}
	return json.Marshal(map[string]any{tag: nil})
}

func unmarshalUnitVariant(data []byte) (string, error) {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		if asString == "" {
			return "", fmt.Errorf("empty tag string")
		}
		return asString, nil
	}

	var arms map[string]json.RawMessage
	if err := json.Unmarshal(data, &arms); err != nil {
		return "", fmt.Errorf("neither tag string nor variant object: %w", err)
	}
	if len(arms) != 1 {
		return "", fmt.Errorf("variant object must carry exactly one tag, got %d", len(arms))
	}
	for tag := range arms {
		return tag, nil
	}
	return "", fmt.Errorf("unreachable")
}
