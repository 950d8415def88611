package api_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
)

func TestErrorUnmarshal_KnownTag(t *testing.T) {
	raw := `{"NotFound": {"message": "Organization not found.", "details": [{"key": "org_id", "value": "abc"}]}}`

	var e api.Error
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, api.KindNotFound, e.Kind)
	assert.Equal(t, "Organization not found.", e.Message)
	v, ok := e.Detail("org_id")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}

// TestErrorUnmarshal_PrecedenceOrder checks that a malformed multi-tag
// payload resolves to the highest-precedence tag instead of a random map
// iteration winner.
func TestErrorUnmarshal_PrecedenceOrder(t *testing.T) {
	raw := `{
		"InternalError": {"message": "low priority"},
		"InvalidInput":  {"message": "high priority"},
		"NotFound":      {"message": "middle priority"}
	}`

	var e api.Error
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, api.KindInvalidInput, e.Kind)
	assert.Equal(t, "high priority", e.Message)
}

func TestErrorUnmarshal_UnknownTagIsAbsorbed(t *testing.T) {
	raw := `{"QuotaExceeded": {"message": "too many requests"}}`

	var e api.Error
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, api.KindUnknown, e.Kind)
	assert.Equal(t, "QuotaExceeded", e.WireTag())
	assert.Equal(t, "too many requests", e.Message)
}

func TestErrorUnmarshal_NullPayload(t *testing.T) {
	var e api.Error
	require.NoError(t, json.Unmarshal([]byte(`{"Unauthorized": null}`), &e))

	assert.Equal(t, api.KindUnauthorized, e.Kind)
	assert.Empty(t, e.Message)
}

func TestErrorUnmarshal_EmptyObjectRejected(t *testing.T) {
	var e api.Error
	assert.Error(t, json.Unmarshal([]byte(`{}`), &e))
}

func TestErrorMarshal_RoundTrip(t *testing.T) {
	e := api.NewError(api.KindAlreadyExists, "Organization already exists.").
		WithDetail("name", "Acme")

	out, err := json.Marshal(e)
	require.NoError(t, err)

	var back api.Error
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, e.Kind, back.Kind)
	assert.Equal(t, e.Message, back.Message)
	assert.Equal(t, e.Details, back.Details)
}

func TestErrorKind_Retryable(t *testing.T) {
	assert.True(t, api.KindInternalError.Retryable())
	assert.True(t, api.KindExternalAPIError.Retryable())
	assert.True(t, api.KindTransportFailure.Retryable())

	assert.False(t, api.KindInvalidInput.Retryable())
	assert.False(t, api.KindUnauthorized.Retryable())
	assert.False(t, api.KindNotFound.Retryable())
	assert.False(t, api.KindEmptyResult.Retryable())
}

func TestIsQuery_UnknownMethodIsNotRetried(t *testing.T) {
	assert.True(t, api.IsQuery(api.MethodGetAuthContext))
	assert.False(t, api.IsQuery(api.MethodVerifyProduct))
	assert.False(t, api.IsQuery("some_future_method"))

	kind, ok := api.MethodKind(api.MethodLogoutUser)
	assert.True(t, ok)
	assert.Equal(t, api.CallUpdate, kind)
}

func TestIsEnveloped_LegacyRepliesAreBare(t *testing.T) {
	assert.True(t, api.IsEnveloped(api.MethodGetAuthContext))
	assert.True(t, api.IsEnveloped(api.MethodVerifyProduct))
	assert.True(t, api.IsEnveloped(api.MethodCheckResellerVerification))
	assert.True(t, api.IsEnveloped(api.MethodGenerateResellerCode))

	assert.False(t, api.IsEnveloped(api.MethodWhoami))
	assert.False(t, api.IsEnveloped(api.MethodGetProductByID))
	assert.False(t, api.IsEnveloped(api.MethodListProductSerialNumbers))
	assert.False(t, api.IsEnveloped(api.MethodPrintSerialNumber))

	assert.True(t, api.IsEnveloped("some_future_method"),
		"unknown replies still pass boundary validation")
}
