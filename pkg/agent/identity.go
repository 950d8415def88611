// Package agent binds the dashboard to the backend gateway: session
// identities, the HTTP transport with its resilience wrapping, and the
// provider that swaps the live actor on login and logout.
package agent

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prasetyowira/TrueOrigin-sub001/pkg/candid"
)

// Identity is an ed25519 session keypair together with the principal
// derived from its public key. The anonymous identity carries no key.
type Identity struct {
	pub       ed25519.PublicKey
	priv      ed25519.PrivateKey
	principal candid.Principal
	anonymous bool
}

// AnonymousIdentity returns the identity unauthenticated calls run under.
func AnonymousIdentity() *Identity {
	return &Identity{anonymous: true, principal: candid.Anonymous()}
}

// NewIdentity generates a fresh session keypair.
func NewIdentity() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	return identityFromKeys(pub, priv)
}

// IdentityFromSeed derives the identity deterministically from a 32-byte
// seed, so a stored seed always yields the same principal.
func IdentityFromSeed(seed []byte) (*Identity, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return identityFromKeys(priv.Public().(ed25519.PublicKey), priv)
}

func identityFromKeys(pub ed25519.PublicKey, priv ed25519.PrivateKey) (*Identity, error) {
	principal, err := candid.SelfAuthenticating(pub)
	if err != nil {
		return nil, err
	}
	return &Identity{pub: pub, priv: priv, principal: principal}, nil
}

// Principal returns the principal this identity authenticates as.
func (id *Identity) Principal() candid.Principal { return id.principal }

// Anonymous reports whether the identity authenticates nothing.
func (id *Identity) Anonymous() bool { return id.anonymous }

// Seed returns the private key seed for keystore persistence.
func (id *Identity) Seed() ([]byte, error) {
	if id.anonymous {
		return nil, fmt.Errorf("anonymous identity has no key material")
	}
	return id.priv.Seed(), nil
}

// SessionClaims are the JWT claims attached to authenticated gateway calls.
type SessionClaims struct {
	jwt.RegisteredClaims
	Principal string `json:"principal"`
}

// SessionToken mints a session JWT signed with the identity key. The
// anonymous identity returns an empty token: the gateway treats bare
// calls as anonymous.
func (id *Identity) SessionToken(ttl time.Duration) (string, error) {
	if id.anonymous {
		return "", nil
	}
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.principal.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "trueorigin.dashboard",
			Audience:  jwt.ClaimStrings{"trueorigin.gateway"},
		},
		Principal: id.principal.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(id.priv)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken validates a token against the identity's public key.
func (id *Identity) ParseSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return id.pub, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return claims, nil
}
