package validator

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/curve25519"
)

// ErrInvalidKey is returned when a WireGuard key is not 32 bytes of
// standard base64.
var ErrInvalidKey = errors.New("invalid WireGuard key: must be 32 bytes of base64")

// WireGuard returns the grammar for a user-supplied WireGuard interface
// file. The [Interface] section must carry the local identity and address;
// every usable tunnel also needs a [Peer] with a key, allowed ranges and a
// concrete endpoint to dial.
//
// wg-quick tolerates far more than this (DNS, MTU, multiple peers), and so
// does the validator: the grammar names only what a working tunnel cannot
// exist without.
func WireGuard() Grammar {
	return Grammar{
		Sections: []SectionRule{
			{Name: "Interface", Keys: []string{"PrivateKey", "Address"}},
			{Name: "Peer", Keys: []string{"PublicKey", "AllowedIPs", "Endpoint"}},
		},
	}
}

// CheckKey verifies that a WireGuard key decodes to exactly 32 bytes of
// standard base64. It applies to private, public and preshared keys alike,
// which all share the Curve25519 key size.
func CheckKey(keyBase64 string) error {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(keyBase64))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != curve25519.ScalarSize {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(raw))
	}
	return nil
}

// PublicKey derives the public key for a base64-encoded private key, using
// the same Curve25519 scalar multiplication as "wg pubkey". It lets the vpn
// flow report the interface identity without ever printing the private key.
func PublicKey(privateBase64 string) (string, error) {
	priv, err := base64.StdEncoding.DecodeString(strings.TrimSpace(privateBase64))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(priv) != curve25519.ScalarSize {
		return "", fmt.Errorf("%w: got %d bytes", ErrInvalidKey, len(priv))
	}

	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return "", fmt.Errorf("derive public key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(pub), nil
}
