package model

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// IdentitySize is the byte length of an Identity (an Ed25519 public key).
const IdentitySize = ed25519.PublicKeySize

// Identity is a participant's public key. Its text form is base58, matching
// the wallet addresses callers already use.
type Identity [IdentitySize]byte

// ParseIdentity decodes a base58 identity. The zero key is rejected.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	raw, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("decode identity %q: %w", s, ErrInvalidIdentity)
	}
	if len(raw) != IdentitySize {
		return id, fmt.Errorf("identity %q has %d bytes, want %d: %w", s, len(raw), IdentitySize, ErrInvalidIdentity)
	}
	copy(id[:], raw)
	if id.IsZero() {
		return Identity{}, fmt.Errorf("identity %q is the zero key: %w", s, ErrInvalidIdentity)
	}
	return id, nil
}

// IdentityFromPublicKey converts an Ed25519 public key into an Identity.
func IdentityFromPublicKey(pub ed25519.PublicKey) (Identity, error) {
	var id Identity
	if len(pub) != IdentitySize {
		return id, fmt.Errorf("public key has %d bytes, want %d: %w", len(pub), IdentitySize, ErrInvalidIdentity)
	}
	copy(id[:], pub)
	return id, nil
}

// String returns the base58 form.
func (id Identity) String() string {
	return base58.Encode(id[:])
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// PublicKey returns the identity as an Ed25519 public key.
func (id Identity) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(id[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
