// Package query runs cacheable reads and effectful mutations for the
// dashboard: stable cache keys, pluggable stores, latest-request-wins
// fetch coordination and declarative mutation effects.
package query

import (
	"encoding/json"
	"strings"

	"github.com/gowebpki/jcs"
	"golang.org/x/text/unicode/norm"
)

// Key addresses one cache entry as an ordered tuple of string parts,
// for example ["organization", "uxrrr-q7777-77774-qaaaq-cai"]. Two keys
// identify the same entry exactly when their canonical forms are equal.
type Key []string

// NewKey builds a Key from parts. Parts are NFC normalized so lookups
// that differ only in Unicode composition (organization names typed with
// combining marks) land on the same entry.
func NewKey(parts ...string) Key {
	k := make(Key, len(parts))
	for i, p := range parts {
		k[i] = norm.NFC.String(p)
	}
	return k
}

// Canonical returns the RFC 8785 canonical JSON encoding of the key.
// Stores index entries by this string.
func (k Key) Canonical() string {
	raw, err := json.Marshal([]string(k))
	if err != nil {
		return strings.Join(k, "\x1f")
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return string(raw)
	}
	return string(canon)
}

// HasPrefix reports whether the first len(prefix) parts of k equal prefix.
// An empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, p := range prefix {
		if k[i] != p {
			return false
		}
	}
	return true
}

// String renders the key for log lines.
func (k Key) String() string {
	return strings.Join(k, "/")
}

// parseCanonicalKey recovers the key parts from a canonical encoding.
func parseCanonicalKey(canon string) (Key, bool) {
	var parts []string
	if err := json.Unmarshal([]byte(canon), &parts); err != nil {
		return nil, false
	}
	return Key(parts), true
}
