// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/maitred-foundation/maitred/lib/codec"
	"github.com/maitred-foundation/maitred/lib/ref"
	"github.com/maitred-foundation/maitred/record"
)

// wrapVersion is the current gift wrap payload version.
const wrapVersion = 1

// hkdfInfoWrap is the HKDF-SHA256 domain for wrap key derivation.
var hkdfInfoWrap = []byte("maitred.wrap.v1")

// timestampFuzz is how far into the past a gift wrap's outer
// timestamp is randomized. Observers of the public record cannot
// correlate wraps by send time within this window.
const timestampFuzz = 48 * time.Hour

// wrapPayload is the CBOR content of a gift wrap record.
type wrapPayload struct {
	Version    int             `cbor:"v"`
	Ephemeral  ref.ExchangeKey `cbor:"ephemeral"`
	Nonce      []byte          `cbor:"nonce"`
	Ciphertext []byte          `cbor:"ciphertext"`
}

// GiftWrap encrypts the seal under a single-use key pair and returns
// a publishable record addressed to the recipient's exchange key. The
// ephemeral private keys are scoped to this call and are never
// returned; nothing on the outer record identifies the true sender.
func GiftWrap(seal *Seal, recipient ref.ExchangeKey, relayHint string) (*record.Record, error) {
	if recipient.IsZero() {
		return nil, fmt.Errorf("%w: recipient exchange key is unset", ErrEncoding)
	}

	plaintext, err := codec.Marshal(seal)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding seal: %v", ErrEncoding, err)
	}

	// Single-use x25519 key for the encryption layer.
	ephemeralExchange, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("envelope: generating ephemeral exchange key: %w", err)
	}
	ephemeralPublic, err := ref.ExchangeKeyFromBytes(ephemeralExchange.PublicKey().Bytes())
	if err != nil {
		return nil, fmt.Errorf("envelope: encoding ephemeral exchange key: %w", err)
	}

	key, err := deriveSharedKey(ephemeralExchange, recipient.Bytes(), hkdfInfoWrap,
		ephemeralPublic, recipient)
	if err != nil {
		return nil, fmt.Errorf("envelope: deriving wrap key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: creating wrap cipher: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("envelope: generating wrap nonce: %w", err)
	}

	content, err := codec.Marshal(wrapPayload{
		Version:    wrapVersion,
		Ephemeral:  ephemeralPublic,
		Nonce:      nonce,
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding wrap payload: %v", ErrEncoding, err)
	}

	// Single-use ed25519 key for the outer signature. The outer
	// author is this throwaway key, not the sender.
	signPublic, signKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("envelope: generating ephemeral signing key: %w", err)
	}
	author, err := ref.PublicKeyFromBytes(signPublic)
	if err != nil {
		return nil, fmt.Errorf("envelope: encoding ephemeral signing key: %w", err)
	}

	wrapped := &record.Record{
		Author:    author,
		Kind:      ref.KindGiftWrap,
		CreatedAt: fuzzedTimestamp(),
		Tags:      record.Tags{record.RoutingTag(recipient, relayHint)},
		Content:   content,
	}
	if err := wrapped.Sign(signKey); err != nil {
		return nil, fmt.Errorf("envelope: signing gift wrap: %w", err)
	}
	return wrapped, nil
}

// Opened is the result of unwrapping a gift wrap: the inner rumor
// plus the authenticated sender keys recovered from the seal. The
// sender's exchange key is what a reply gets sealed to.
type Opened struct {
	Rumor          Rumor
	Sender         ref.PublicKey
	SenderExchange ref.ExchangeKey
}

// Open peels both envelope layers with the recipient's identity and
// returns the rumor. Fails with ErrDecryption when either layer does
// not decrypt for this recipient and with ErrMalformedMessage when
// the decrypted content does not parse as a valid rumor.
func Open(wrapped *record.Record, recipient *Identity) (*Opened, error) {
	if wrapped.Kind != ref.KindGiftWrap {
		return nil, fmt.Errorf("%w: record kind %s is not a gift wrap", ErrMalformedMessage, wrapped.Kind)
	}

	var payload wrapPayload
	if err := codec.Unmarshal(wrapped.Content, &payload); err != nil {
		return nil, fmt.Errorf("%w: wrap payload does not parse: %v", ErrDecryption, err)
	}
	if payload.Version != wrapVersion {
		return nil, fmt.Errorf("%w: unsupported wrap version %d", ErrDecryption, payload.Version)
	}
	if payload.Ephemeral.IsZero() {
		return nil, fmt.Errorf("%w: wrap payload is missing the ephemeral key", ErrDecryption)
	}

	key, err := deriveSharedKey(recipient.exchangeKey, payload.Ephemeral.Bytes(), hkdfInfoWrap,
		payload.Ephemeral, recipient.Exchange())
	if err != nil {
		return nil, fmt.Errorf("%w: deriving wrap key: %v", ErrDecryption, err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: creating wrap cipher: %w", err)
	}
	sealBytes, err := aead.Open(nil, payload.Nonce, payload.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: wrap does not decrypt for this recipient", ErrDecryption)
	}

	var seal Seal
	if err := codec.Unmarshal(sealBytes, &seal); err != nil {
		return nil, fmt.Errorf("%w: seal does not parse: %v", ErrDecryption, err)
	}
	rumor, err := openSeal(&seal, recipient)
	if err != nil {
		return nil, err
	}
	return &Opened{
		Rumor:          *rumor,
		Sender:         seal.Sender,
		SenderExchange: seal.SenderExchange,
	}, nil
}

// Builder wraps rumors on behalf of one sender identity: seal, then
// gift wrap, in a single call. It is the production implementation of
// the enveloper abstraction the reservation protocol depends on.
type Builder struct {
	Sender *Identity
}

// Wrap seals the rumor to the recipient and gift-wraps the result.
func (b *Builder) Wrap(rumor *Rumor, recipient ref.ExchangeKey, relayHint string) (*record.Record, error) {
	seal, err := NewSeal(rumor, b.Sender, recipient)
	if err != nil {
		return nil, err
	}
	return GiftWrap(seal, recipient, relayHint)
}

// fuzzedTimestamp returns a unix timestamp randomized up to
// timestampFuzz into the past.
func fuzzedTimestamp() int64 {
	fuzz, err := rand.Int(rand.Reader, big.NewInt(int64(timestampFuzz/time.Second)))
	if err != nil {
		// crypto/rand failure already failed key generation paths;
		// use the un-fuzzed time rather than aborting the wrap.
		return time.Now().Unix()
	}
	return time.Now().Unix() - fuzz.Int64()
}
