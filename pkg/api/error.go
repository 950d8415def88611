package api

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ErrorKind enumerates the closed set of error variants. The first seven are
// produced by the backend; EmptyResult and TransportFailure are synthesized
// client side and never appear on the wire. KindUnknown absorbs tags added by
// newer backend versions so decoding stays total.
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	KindInvalidInput
	KindNotFound
	KindUnauthorized
	KindAlreadyExists
	KindMalformedData
	KindInternalError
	KindExternalAPIError
	KindEmptyResult
	KindTransportFailure
)

var kindTags = map[ErrorKind]string{
	KindInvalidInput:     "InvalidInput",
	KindNotFound:         "NotFound",
	KindUnauthorized:     "Unauthorized",
	KindAlreadyExists:    "AlreadyExists",
	KindMalformedData:    "MalformedData",
	KindInternalError:    "InternalError",
	KindExternalAPIError: "ExternalApiError",
	KindEmptyResult:      "EmptyResult",
	KindTransportFailure: "TransportFailure",
}

// tagPrecedence fixes the order in which tags are considered when a
// malformed payload carries more than one. Earlier entries win.
var tagPrecedence = []ErrorKind{
	KindInvalidInput,
	KindNotFound,
	KindUnauthorized,
	KindAlreadyExists,
	KindMalformedData,
	KindInternalError,
	KindExternalAPIError,
}

// String returns the wire tag, or "Unknown" for the absorbing variant.
func (k ErrorKind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return "Unknown"
}

// Retryable reports whether an operation failing with this kind may be
// retried without changing its arguments. Validation and authorization
// failures are deterministic, so retrying them only burns the budget.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindInternalError, KindExternalAPIError, KindTransportFailure:
		return true
	default:
		return false
	}
}

// errorPayload is the body carried by every wire variant.
type errorPayload struct {
	Message string     `json:"message"`
	Details []Metadata `json:"details"`
}

// Error is the backend error variant: a single tag from the closed set with
// a message and optional detail pairs. It implements error so failures can
// flow through standard wrapping.
type Error struct {
	Kind    ErrorKind
	Message string
	Details []Metadata

	// wireTag preserves the tag as received when Kind is KindUnknown.
	wireTag string
}

// NewError builds an error value of a known kind.
func NewError(kind ErrorKind, message string) Error {
	return Error{Kind: kind, Message: message}
}

// WithDetail appends a key/value detail pair.
func (e Error) WithDetail(key, value string) Error {
	e.Details = append(e.Details, Metadata{Key: key, Value: value})
	return e
}

// WireTag returns the tag as it appeared on the wire, falling back to the
// kind's canonical tag.
func (e Error) WireTag() string {
	if e.wireTag != "" {
		return e.wireTag
	}
	return e.Kind.String()
}

// Detail returns the value of the named detail pair.
func (e Error) Detail(key string) (string, bool) {
	for _, d := range e.Details {
		if d.Key == key {
			return d.Value, true
		}
	}
	return "", false
}

func (e Error) Error() string {
	if e.Message == "" {
		return e.WireTag()
	}
	return fmt.Sprintf("%s: %s", e.WireTag(), e.Message)
}

// MarshalJSON emits the single-tag variant form {"<Tag>": {"message": ...,
// "details": [...]}}. Unknown kinds round-trip through their preserved tag.
func (e Error) MarshalJSON() ([]byte, error) {
	tag := e.WireTag()
	if tag == "Unknown" {
		tag = kindTags[KindInternalError]
	}
	payload := errorPayload{Message: e.Message, Details: e.Details}
	if payload.Details == nil {
		payload.Details = []Metadata{}
	}
	return json.Marshal(map[string]errorPayload{tag: payload})
}

// UnmarshalJSON decodes the variant form. When several tags are present the
// highest-precedence one wins; a payload with only unrecognized tags decodes
// as KindUnknown with the lexicographically first tag preserved for logging.
func (e *Error) UnmarshalJSON(data []byte) error {
	var arms map[string]json.RawMessage
	if err := json.Unmarshal(data, &arms); err != nil {
		return fmt.Errorf("error variant: %w", err)
	}
	if len(arms) == 0 {
		return fmt.Errorf("error variant: no tag present")
	}

	for _, kind := range tagPrecedence {
		raw, ok := arms[kindTags[kind]]
		if !ok {
			continue
		}
		var payload errorPayload
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return fmt.Errorf("error variant %s: %w", kindTags[kind], err)
			}
		}
		*e = Error{Kind: kind, Message: payload.Message, Details: payload.Details}
		return nil
	}

	tags := make([]string, 0, len(arms))
	for tag := range arms {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	tag := tags[0]

	var payload errorPayload
	if raw := arms[tag]; len(raw) > 0 && string(raw) != "null" {
		// Tolerate arbitrary payloads under unknown tags.
		_ = json.Unmarshal(raw, &payload)
	}
	*e = Error{Kind: KindUnknown, Message: payload.Message, Details: payload.Details, wireTag: tag}
	return nil
}
