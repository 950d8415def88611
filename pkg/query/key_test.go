package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyCanonicalDeterministic(t *testing.T) {
	a := NewKey("organization", "uxrrr-q7777-77774-qaaaq-cai")
	b := NewKey("organization", "uxrrr-q7777-77774-qaaaq-cai")
	assert.Equal(t, a.Canonical(), b.Canonical())
}

func TestKeyCanonicalNormalizesUnicode(t *testing.T) {
	composed := NewKey("findOrganizationsByName", "café")
	decomposed := NewKey("findOrganizationsByName", "café")
	assert.Equal(t, composed.Canonical(), decomposed.Canonical())
}

func TestKeyCanonicalKeepsPartBoundaries(t *testing.T) {
	assert.NotEqual(t, NewKey("ab", "c").Canonical(), NewKey("a", "bc").Canonical())
}

func TestKeyHasPrefix(t *testing.T) {
	key := NewKey("findOrganizationsByName", "acme")

	assert.True(t, key.HasPrefix(NewKey("findOrganizationsByName")))
	assert.True(t, key.HasPrefix(NewKey("findOrganizationsByName", "acme")))
	assert.True(t, key.HasPrefix(Key{}))
	assert.False(t, key.HasPrefix(NewKey("organization")))
	assert.False(t, key.HasPrefix(NewKey("findOrganizationsByName", "acme", "extra")))
}

func TestParseCanonicalKeyRoundTrip(t *testing.T) {
	key := NewKey("organization", `with "quotes" and \ backslash`)

	parsed, ok := parseCanonicalKey(key.Canonical())
	assert.True(t, ok)
	assert.Equal(t, key, parsed)
}

func TestParseCanonicalKeyRejectsGarbage(t *testing.T) {
	_, ok := parseCanonicalKey("not json")
	assert.False(t, ok)
}
