// Package candid models the wire conventions of the upstream canister
// interface: optional values travel as zero-or-one-length sequences and
// principals travel in their textual encoding. The rest of the client builds
// on these primitives instead of re-deriving the encoding rules per call.
package candid

import (
	"bytes"
	"encoding/json"
)

// Opt is an optional value in wire form. An absent value is an empty (or nil)
// sequence, a present value is a sequence of exactly one element. Sequences
// longer than one are not produced by the upstream interface; Unwrap ignores
// the tail rather than failing so a misbehaving gateway degrades to
// first-value semantics instead of an error.
type Opt[T any] []T

// Some wraps a present value.
func Some[T any](v T) Opt[T] { return Opt[T]{v} }

// None is the absent value.
func None[T any]() Opt[T] { return Opt[T]{} }

// Wrap lifts a nullable pointer into wire form. nil maps to the absent value.
// It is the inverse of Ptr.
func Wrap[T any](p *T) Opt[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Unwrap removes exactly one level of optionality. It reports whether a value
// was present. Nested optionals stay nested: Opt[Opt[T]] unwraps to Opt[T].
func Unwrap[T any](o Opt[T]) (T, bool) {
	if len(o) == 0 {
		var zero T
		return zero, false
	}
	return o[0], true
}

// UnwrapOr removes one level of optionality, substituting fallback when the
// value is absent.
func UnwrapOr[T any](o Opt[T], fallback T) T {
	if v, ok := Unwrap(o); ok {
		return v
	}
	return fallback
}

// Ptr converts wire form to a nullable pointer. Absent maps to nil. The
// pointer refers to a copy, so mutating it never aliases the wire value.
func Ptr[T any](o Opt[T]) *T {
	if len(o) == 0 {
		return nil
	}
	v := o[0]
	return &v
}

// UnwrapArray flattens an optional collection. An absent collection is an
// empty slice, so callers can range over the result without a presence check.
func UnwrapArray[T any](o Opt[[]T]) []T {
	items, ok := Unwrap(o)
	if !ok || items == nil {
		return []T{}
	}
	return items
}

// IsSome reports whether the value is present.
func (o Opt[T]) IsSome() bool { return len(o) > 0 }

// MarshalJSON emits the canonical empty sequence for the absent value so a
// nil Opt never serializes as JSON null.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal([]T(o))
}

// UnmarshalJSON accepts both the canonical sequence form and a bare null,
// which some gateway versions emit for absent fields.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = nil
		return nil
	}
	var seq []T
	if err := json.Unmarshal(data, &seq); err != nil {
		return err
	}
	*o = seq
	return nil
}
