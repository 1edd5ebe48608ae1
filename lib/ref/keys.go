// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/hex"
	"fmt"
)

// KeySize is the byte length of both author and exchange keys.
const KeySize = 32

// PublicKey is a validated ed25519 author key, serialized as 64
// lowercase hex characters. It identifies the author of records and
// rumors and verifies their signatures.
//
// PublicKey is an immutable value type. The zero value is not valid;
// use IsZero to check.
type PublicKey struct {
	key string
}

// ParsePublicKey validates and wraps a raw hex-encoded author key.
func ParsePublicKey(raw string) (PublicKey, error) {
	normalized, err := parseKeyHex("public key", raw)
	if err != nil {
		return PublicKey{}, err
	}
	return PublicKey{key: normalized}, nil
}

// PublicKeyFromBytes wraps a raw 32-byte ed25519 public key.
func PublicKeyFromBytes(raw []byte) (PublicKey, error) {
	if len(raw) != KeySize {
		return PublicKey{}, fmt.Errorf("public key must be %d bytes, got %d", KeySize, len(raw))
	}
	return PublicKey{key: hex.EncodeToString(raw)}, nil
}

// MustParsePublicKey is like ParsePublicKey but panics on error. Use
// in tests and static initialization where the input is known-valid.
func MustParsePublicKey(raw string) PublicKey {
	k, err := ParsePublicKey(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParsePublicKey(%q): %v", raw, err))
	}
	return k
}

// String returns the lowercase hex form of the key.
func (k PublicKey) String() string { return k.key }

// Bytes returns the decoded 32-byte key. Returns nil for the zero value.
func (k PublicKey) Bytes() []byte { return keyBytes(k.key) }

// IsZero reports whether the PublicKey is the zero value.
func (k PublicKey) IsZero() bool { return k.key == "" }

// MarshalText implements encoding.TextMarshaler.
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.key), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset key).
func (k *PublicKey) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*k = PublicKey{}
		return nil
	}
	parsed, err := ParsePublicKey(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ExchangeKey is a validated x25519 key, serialized as 64 lowercase
// hex characters. It is the delivery address for sealed envelopes:
// gift wraps are routed to the recipient's exchange key, and the
// recipient's private half decrypts them.
//
// ExchangeKey is an immutable value type. The zero value is not valid;
// use IsZero to check.
type ExchangeKey struct {
	key string
}

// ParseExchangeKey validates and wraps a raw hex-encoded exchange key.
func ParseExchangeKey(raw string) (ExchangeKey, error) {
	normalized, err := parseKeyHex("exchange key", raw)
	if err != nil {
		return ExchangeKey{}, err
	}
	return ExchangeKey{key: normalized}, nil
}

// ExchangeKeyFromBytes wraps a raw 32-byte x25519 public key.
func ExchangeKeyFromBytes(raw []byte) (ExchangeKey, error) {
	if len(raw) != KeySize {
		return ExchangeKey{}, fmt.Errorf("exchange key must be %d bytes, got %d", KeySize, len(raw))
	}
	return ExchangeKey{key: hex.EncodeToString(raw)}, nil
}

// MustParseExchangeKey is like ParseExchangeKey but panics on error.
func MustParseExchangeKey(raw string) ExchangeKey {
	k, err := ParseExchangeKey(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseExchangeKey(%q): %v", raw, err))
	}
	return k
}

// String returns the lowercase hex form of the key.
func (k ExchangeKey) String() string { return k.key }

// Bytes returns the decoded 32-byte key. Returns nil for the zero value.
func (k ExchangeKey) Bytes() []byte { return keyBytes(k.key) }

// IsZero reports whether the ExchangeKey is the zero value.
func (k ExchangeKey) IsZero() bool { return k.key == "" }

// MarshalText implements encoding.TextMarshaler.
func (k ExchangeKey) MarshalText() ([]byte, error) {
	return []byte(k.key), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset key).
func (k *ExchangeKey) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*k = ExchangeKey{}
		return nil
	}
	parsed, err := ParseExchangeKey(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// parseKeyHex validates a 64-character lowercase hex key string and
// returns its normalized (lowercased) form.
func parseKeyHex(what, raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty %s", what)
	}
	if len(raw) != KeySize*2 {
		return "", fmt.Errorf("%s must be %d hex characters, got %d: %q", what, KeySize*2, len(raw), raw)
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("%s is not valid hex: %q", what, raw)
	}
	return hex.EncodeToString(decoded), nil
}

// keyBytes decodes a normalized hex key string. The string was
// validated at construction, so decoding cannot fail.
func keyBytes(key string) []byte {
	if key == "" {
		return nil
	}
	decoded, err := hex.DecodeString(key)
	if err != nil {
		panic("ref: invariant violation: stored key is not hex: " + key)
	}
	return decoded
}
