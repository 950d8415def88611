package api_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/api"
	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
)

func TestEnvelopeUnmarshal_SuccessShape(t *testing.T) {
	raw := `{
		"data": [{"user_display_name": "Alice", "user_avatar_id": ["av-1"], "current_organization_name": []}],
		"error": [],
		"metadata": {"timestamp": 1724544000000000000, "version": "1.0", "request_id": ["req-7"]}
	}`

	var env api.Response[api.NavigationContextResponse]
	require.NoError(t, json.Unmarshal([]byte(raw), &env))

	nav, ok := candid.Unwrap(env.Data)
	require.True(t, ok)
	assert.Equal(t, "Alice", nav.UserDisplayName)
	assert.Equal(t, "av-1", candid.UnwrapOr(nav.UserAvatarID, ""))
	assert.False(t, nav.CurrentOrganizationName.IsSome())
	assert.False(t, env.Error.IsSome())
	assert.Equal(t, "req-7", candid.UnwrapOr(env.Metadata.RequestID, ""))
}

func TestEnvelopeUnmarshal_NullOptionals(t *testing.T) {
	raw := `{"data": null, "error": null, "metadata": {"timestamp": 1, "version": "1.0", "request_id": null}}`

	var env api.Response[api.LogoutResponse]
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.False(t, env.Data.IsSome())
	assert.False(t, env.Error.IsSome())
	assert.False(t, env.Metadata.RequestID.IsSome())
}

func TestSuccessFailureConstructors(t *testing.T) {
	ok := api.Success(api.LogoutResponse{Message: "Successfully logged out."})
	assert.True(t, ok.Data.IsSome())
	assert.False(t, ok.Error.IsSome())
	assert.Equal(t, api.Version, ok.Metadata.Version)
	assert.NotZero(t, ok.Metadata.Timestamp)

	failed := api.Failure[api.LogoutResponse](api.NewError(api.KindUnauthorized, "No session."))
	assert.False(t, failed.Data.IsSome())
	e, present := candid.Unwrap(failed.Error)
	require.True(t, present)
	assert.Equal(t, api.KindUnauthorized, e.Kind)

	stamped := failed.WithRequestID("req-1")
	assert.Equal(t, "req-1", candid.UnwrapOr(stamped.Metadata.RequestID, ""))
}

func TestValidateEnvelope(t *testing.T) {
	valid := `{
		"data": [],
		"error": [{"InternalError": {"message": "boom", "details": []}}],
		"metadata": {"timestamp": 5, "version": "1.0", "request_id": []}
	}`
	assert.NoError(t, api.ValidateEnvelope([]byte(valid)))

	// data with two elements breaks the zero-or-one contract.
	twoValues := `{
		"data": [1, 2],
		"error": [],
		"metadata": {"timestamp": 5, "version": "1.0"}
	}`
	assert.Error(t, api.ValidateEnvelope([]byte(twoValues)))

	missingMetadata := `{"data": [], "error": []}`
	assert.Error(t, api.ValidateEnvelope([]byte(missingMetadata)))

	assert.Error(t, api.ValidateEnvelope([]byte(`not json`)))
}

func TestVariantTags_BothEncodings(t *testing.T) {
	var fromObject api.Role
	require.NoError(t, json.Unmarshal([]byte(`{"BrandOwner": null}`), &fromObject))
	assert.Equal(t, api.RoleTagBrandOwner, fromObject.Tag)

	var fromString api.Role
	require.NoError(t, json.Unmarshal([]byte(`"Reseller"`), &fromString))
	assert.Equal(t, api.RoleTagReseller, fromString.Tag)

	var status api.VerificationStatus
	require.NoError(t, json.Unmarshal([]byte(`{"FirstVerification": null}`), &status))
	assert.Equal(t, api.VerificationTagFirst, status.Tag)

	var bad api.Role
	assert.Error(t, json.Unmarshal([]byte(`{"A": null, "B": null}`), &bad))

	out, err := json.Marshal(api.Role{Tag: api.RoleTagAdmin})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Admin": null}`, string(out))
}
