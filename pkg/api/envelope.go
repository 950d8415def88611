// Package api holds the wire bindings for the TrueOrigin canister interface:
// the response envelope, the error variant, and the request and response
// records of every operation the dashboard client calls. Types mirror the
// upstream interface field for field; interpretation (unwrapping, fallbacks,
// view mapping) lives in the decode and views packages.
package api

import (
	"time"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
)

// Version is the envelope metadata version stamped by the current backend.
const Version = "1.0"

// ResponseMetadata rides along with every enveloped response.
type ResponseMetadata struct {
	Timestamp uint64             `json:"timestamp"`
	Version   string             `json:"version"`
	RequestID candid.Opt[string] `json:"request_id"`
}

// Response is the uniform envelope wrapping every v2 operation result.
// Exactly one of Data and Error is expected to be present; when both arrive
// the error wins.
type Response[T any] struct {
	Data     candid.Opt[T]     `json:"data"`
	Error    candid.Opt[Error] `json:"error"`
	Metadata ResponseMetadata  `json:"metadata"`
}

// Success builds an envelope carrying data, stamped with current metadata.
// The client uses it in tests and fixtures; the backend is the producer in
// production.
func Success[T any](v T) Response[T] {
	return Response[T]{
		Data:     candid.Some(v),
		Metadata: stampMetadata(),
	}
}

// Failure builds an envelope carrying an error.
func Failure[T any](e Error) Response[T] {
	return Response[T]{
		Error:    candid.Some(e),
		Metadata: stampMetadata(),
	}
}

// WithRequestID returns a copy of the envelope with the request id set.
func (r Response[T]) WithRequestID(id string) Response[T] {
	r.Metadata.RequestID = candid.Some(id)
	return r
}

func stampMetadata() ResponseMetadata {
	return ResponseMetadata{
		Timestamp: uint64(time.Now().UnixNano()),
		Version:   Version,
	}
}
