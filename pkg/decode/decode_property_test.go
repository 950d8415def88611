//go:build property
// +build property

// Package decode_test contains property-based tests for envelope decoding
// totality and error-arm precedence.
package decode_test

import (
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/decode"
)

// The seven kinds the backend can put on the wire, in precedence order.
var wireKinds = []api.ErrorKind{
	api.KindInvalidInput,
	api.KindNotFound,
	api.KindUnauthorized,
	api.KindAlreadyExists,
	api.KindMalformedData,
	api.KindInternalError,
	api.KindExternalAPIError,
}

func propDecoder() *decode.Decoder {
	return decode.New(slog.New(slog.NewTextHandler(&strings.Builder{}, nil)))
}

// TestValueDeliversAnyPayload verifies the data arm is decoded verbatim.
// Property: Value(Success(v), identity) == v
func TestValueDeliversAnyPayload(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("success envelopes yield their payload", prop.ForAll(
		func(v string) bool {
			got, err := decode.Value(propDecoder(), "get_auth_context", api.Success(v), identity[string])
			return err == nil && got == v
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestErrorArmAlwaysWins verifies a populated error arm shadows any data.
// Property: Value(env with data and error) fails with the error's kind
func TestErrorArmAlwaysWins(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("the error arm shadows the data arm", prop.ForAll(
		func(payload, message string, kindIdx int) bool {
			kind := wireKinds[kindIdx%len(wireKinds)]
			env := api.Response[string]{
				Data:     candid.Some(payload),
				Error:    candid.Some(api.NewError(kind, message)),
				Metadata: api.ResponseMetadata{Timestamp: 1, Version: api.Version},
			}

			_, err := decode.Value(propDecoder(), "get_auth_context", env, identity[string])
			if err == nil {
				return false
			}
			f, ok := decode.AsFailure(err)
			if !ok || f.Kind != kind {
				return false
			}
			if message == "" {
				return f.Message == "API Error"
			}
			return f.Message == message
		},
		gen.AnyString(),
		gen.AnyString(),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// TestErrorWireRoundTrip verifies the variant codec is lossless for every
// backend kind.
func TestErrorWireRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("error variants round trip", prop.ForAll(
		func(message string, kindIdx int) bool {
			kind := wireKinds[kindIdx%len(wireKinds)]
			blob, err := json.Marshal(api.NewError(kind, message))
			if err != nil {
				return false
			}
			var back api.Error
			if err := json.Unmarshal(blob, &back); err != nil {
				return false
			}
			return back.Kind == kind && back.Message == message
		},
		gen.AnyString(),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// TestErrorTagPrecedence verifies multi-tag payloads decode to the
// highest-precedence tag present, regardless of how many tags appear.
func TestErrorTagPrecedence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("the highest-precedence tag wins", prop.ForAll(
		func(mask int) bool {
			mask = mask%(1<<len(wireKinds)-1) + 1 // At least one tag set

			arms := make(map[string]any)
			want := api.KindUnknown
			for i, kind := range wireKinds {
				if mask&(1<<i) == 0 {
					continue
				}
				arms[kind.String()] = map[string]any{"message": "m", "details": []any{}}
				if want == api.KindUnknown {
					want = kind
				}
			}

			blob, err := json.Marshal(arms)
			if err != nil {
				return false
			}
			var got api.Error
			if err := json.Unmarshal(blob, &got); err != nil {
				return false
			}
			return got.Kind == want
		},
		gen.IntRange(0, 1<<20),
	))

	properties.TestingRun(t)
}

// TestCollectionPreservesOrder verifies element order and count survive
// decoding.
func TestCollectionPreservesOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("collections keep their elements in order", prop.ForAll(
		func(items []string) bool {
			env := api.Success(items)
			got, err := decode.Collection(propDecoder(), "list_organizations_v2", env, identity[string])
			if err != nil {
				return false
			}
			if len(got) != len(items) {
				return false
			}
			for i := range items {
				if got[i] != items[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}
