// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/maitred-foundation/maitred/lib/ref"
)

// SeedSize is the byte length of an identity seed.
const SeedSize = 32

// exchangeDerivationContext is the BLAKE3 derive-key context that
// turns an identity seed into the x25519 exchange secret. Fixed
// forever: changing it changes every identity's exchange key.
const exchangeDerivationContext = "maitred.foundation 2026-01-12 identity exchange key v1"

// Identity is a party's long-lived key material: an ed25519 signing
// key (whose public half is the party's author key) and an x25519
// exchange key (whose public half is the party's delivery address),
// both derived from a single 32-byte seed.
type Identity struct {
	signKey     ed25519.PrivateKey
	exchangeKey *ecdh.PrivateKey
	author      ref.PublicKey
	exchange    ref.ExchangeKey
}

// NewIdentity derives an Identity from a 32-byte seed. The same seed
// always derives the same keys.
func NewIdentity(seed []byte) (*Identity, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("envelope: identity seed must be %d bytes, got %d", SeedSize, len(seed))
	}

	signKey := ed25519.NewKeyFromSeed(seed)
	author, err := ref.PublicKeyFromBytes(signKey.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("envelope: deriving author key: %w", err)
	}

	// The exchange secret is domain-separated from the signing seed
	// so a compromise of one key never reveals the other.
	var exchangeSecret [SeedSize]byte
	blake3.DeriveKey(exchangeDerivationContext, seed, exchangeSecret[:])
	exchangeKey, err := ecdh.X25519().NewPrivateKey(exchangeSecret[:])
	if err != nil {
		return nil, fmt.Errorf("envelope: deriving exchange key: %w", err)
	}
	exchange, err := ref.ExchangeKeyFromBytes(exchangeKey.PublicKey().Bytes())
	if err != nil {
		return nil, fmt.Errorf("envelope: encoding exchange key: %w", err)
	}

	return &Identity{
		signKey:     signKey,
		exchangeKey: exchangeKey,
		author:      author,
		exchange:    exchange,
	}, nil
}

// GenerateIdentity creates an Identity from a fresh random seed. The
// seed is not retained; persist identities through lib/keystore.
func GenerateIdentity() (*Identity, error) {
	seed := make([]byte, SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("envelope: generating identity seed: %w", err)
	}
	return NewIdentity(seed)
}

// Author returns the public ed25519 author key.
func (id *Identity) Author() ref.PublicKey { return id.author }

// Exchange returns the public x25519 exchange key, the party's
// delivery address for gift wraps.
func (id *Identity) Exchange() ref.ExchangeKey { return id.exchange }
