package candid

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"strings"
)

const (
	// maxPrincipalBytes bounds the opaque identifier, checksum excluded.
	maxPrincipalBytes = 29

	selfAuthenticatingSuffix = 0x02
	anonymousByte            = 0x04
)

var base32NoPad = base32.StdEncoding.WithPadding(base32.NoPadding)

// Principal is the opaque caller identifier used by the upstream interface.
// The zero value is the anonymous principal.
type Principal struct {
	raw []byte
}

// Anonymous is the principal of unauthenticated callers.
func Anonymous() Principal {
	return Principal{raw: []byte{anonymousByte}}
}

// SelfAuthenticating derives a principal from an Ed25519 public key: the
// SHA-224 digest of the DER-encoded key followed by the self-authenticating
// suffix byte.
func SelfAuthenticating(pub ed25519.PublicKey) (Principal, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return Principal{}, fmt.Errorf("principal: encode public key: %w", err)
	}
	sum := sha256.Sum224(der)
	raw := make([]byte, 0, len(sum)+1)
	raw = append(raw, sum[:]...)
	raw = append(raw, selfAuthenticatingSuffix)
	return Principal{raw: raw}, nil
}

// PrincipalFromBytes wraps a raw identifier. The input is copied.
func PrincipalFromBytes(raw []byte) (Principal, error) {
	if len(raw) == 0 || len(raw) > maxPrincipalBytes {
		return Principal{}, fmt.Errorf("principal: raw length %d out of range", len(raw))
	}
	return Principal{raw: bytes.Clone(raw)}, nil
}

// ParsePrincipal decodes the textual form: lowercase base32 of a big-endian
// CRC-32 checksum followed by the raw bytes, split into dash-separated groups
// of five characters.
func ParsePrincipal(text string) (Principal, error) {
	compact := strings.ReplaceAll(text, "-", "")
	decoded, err := base32NoPad.DecodeString(strings.ToUpper(compact))
	if err != nil {
		return Principal{}, fmt.Errorf("principal: decode %q: %w", text, err)
	}
	if len(decoded) < 5 || len(decoded) > 4+maxPrincipalBytes {
		return Principal{}, fmt.Errorf("principal: decoded length %d out of range", len(decoded))
	}
	want := binary.BigEndian.Uint32(decoded[:4])
	raw := decoded[4:]
	if crc32.ChecksumIEEE(raw) != want {
		return Principal{}, fmt.Errorf("principal: checksum mismatch in %q", text)
	}
	if p, err := PrincipalFromBytes(raw); err == nil {
		if p.String() != strings.ToLower(text) {
			return Principal{}, fmt.Errorf("principal: non-canonical text %q", text)
		}
		return p, nil
	}
	return Principal{}, fmt.Errorf("principal: invalid raw bytes in %q", text)
}

// MustParsePrincipal is ParsePrincipal for trusted literals. It panics on
// malformed input.
func MustParsePrincipal(text string) Principal {
	p, err := ParsePrincipal(text)
	if err != nil {
		panic(err)
	}
	return p
}

// Raw returns a copy of the opaque identifier bytes.
func (p Principal) Raw() []byte {
	if len(p.raw) == 0 {
		return []byte{anonymousByte}
	}
	return bytes.Clone(p.raw)
}

// IsAnonymous reports whether p identifies an unauthenticated caller.
func (p Principal) IsAnonymous() bool {
	return len(p.raw) == 0 || (len(p.raw) == 1 && p.raw[0] == anonymousByte)
}

// Equal reports byte equality of the raw identifiers.
func (p Principal) Equal(q Principal) bool {
	return bytes.Equal(p.Raw(), q.Raw())
}

// String renders the canonical textual form.
func (p Principal) String() string {
	raw := p.Raw()
	buf := make([]byte, 4+len(raw))
	binary.BigEndian.PutUint32(buf, crc32.ChecksumIEEE(raw))
	copy(buf[4:], raw)
	enc := strings.ToLower(base32NoPad.EncodeToString(buf))

	var b strings.Builder
	b.Grow(len(enc) + len(enc)/5)
	for i, r := range enc {
		if i > 0 && i%5 == 0 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MarshalText encodes the canonical textual form, which is also how
// principals appear inside JSON payloads.
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes and checksums the textual form.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := ParsePrincipal(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
