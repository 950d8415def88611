// Package decode interprets wire responses: it applies the error-wins rule,
// peels the zero-or-one optional layer off envelope payloads, folds legacy
// bare variants into the same failure taxonomy, and gates on the envelope
// metadata version. Every helper returns either a typed value or a *Failure.
package decode

import (
	"errors"
	"fmt"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
)

// Messages used when the wire payload carries none.
const (
	emptyResultMessage = "No data returned from server."
	genericMessage     = "API Error"
)

// Failure is the uniform client-side error: the error kind, the best
// human-readable message the payload offered, and the request id when the
// envelope carried one.
type Failure struct {
	Kind      api.ErrorKind
	Message   string
	Method    string
	RequestID string
	Details   []api.Metadata

	cause error
}

func (f *Failure) Error() string {
	if f.RequestID != "" {
		return fmt.Sprintf("%s: %s: %s (request %s)", f.Method, f.Kind, f.Message, f.RequestID)
	}
	return fmt.Sprintf("%s: %s: %s", f.Method, f.Kind, f.Message)
}

// Unwrap exposes the underlying transport or unmarshalling error, if any.
func (f *Failure) Unwrap() error { return f.cause }

// AsFailure extracts a *Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsKind reports whether err is a *Failure of the given kind.
func IsKind(err error, kind api.ErrorKind) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == kind
}

// failureFromWire maps an envelope error variant onto a Failure, preferring
// the payload message and falling back to the generic one.
func failureFromWire(method string, e api.Error, meta api.ResponseMetadata) *Failure {
	msg := e.Message
	if msg == "" {
		msg = genericMessage
	}
	return &Failure{
		Kind:      e.Kind,
		Message:   msg,
		Method:    method,
		RequestID: candid.UnwrapOr(meta.RequestID, ""),
		Details:   e.Details,
	}
}

// emptyResult is the failure for a success envelope that carried no data
// where exactly one value was required.
func emptyResult(method string, meta api.ResponseMetadata) *Failure {
	return &Failure{
		Kind:      api.KindEmptyResult,
		Message:   emptyResultMessage,
		Method:    method,
		RequestID: candid.UnwrapOr(meta.RequestID, ""),
	}
}

// NewTransportFailure wraps a network or gateway error. The transport layer
// uses it so callers see one taxonomy regardless of where a call died.
func NewTransportFailure(method, requestID string, cause error) *Failure {
	msg := genericMessage
	if cause != nil {
		msg = cause.Error()
	}
	return &Failure{
		Kind:      api.KindTransportFailure,
		Message:   msg,
		Method:    method,
		RequestID: requestID,
		cause:     cause,
	}
}

// NewMalformedFailure wraps a payload that failed schema validation or typed
// unmarshalling.
func NewMalformedFailure(method, requestID string, cause error) *Failure {
	msg := genericMessage
	if cause != nil {
		msg = cause.Error()
	}
	return &Failure{
		Kind:      api.KindMalformedData,
		Message:   msg,
		Method:    method,
		RequestID: requestID,
		cause:     cause,
	}
}
