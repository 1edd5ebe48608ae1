// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"crypto/ecdh"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/maitred-foundation/maitred/lib/codec"
	"github.com/maitred-foundation/maitred/lib/ref"
)

// sealVersion is the current seal layout version, rejected as
// unsupported by older readers.
const sealVersion = 1

// hkdfInfoSeal is the HKDF-SHA256 domain for seal key derivation. The
// sender and recipient exchange keys are appended so the derived key
// binds both parties.
var hkdfInfoSeal = []byte("maitred.seal.v1")

// sealSigDomainKey is the BLAKE3 key for the seal signature digest.
var sealSigDomainKey = [32]byte{
	'm', 'a', 'i', 't', 'r', 'e', 'd', '.',
	's', 'e', 'a', 'l', '.', 's', 'i', 'g', '.', 'v', '1',
}

// Seal is a rumor encrypted to one recipient and signed by the
// sender. The sender's exchange key rides in the header (inside the
// signed region) so the recipient can derive the same symmetric key
// and knows where to address a reply.
type Seal struct {
	Version        int             `cbor:"v"`
	Sender         ref.PublicKey   `cbor:"sender"`
	SenderExchange ref.ExchangeKey `cbor:"sender_exchange"`
	Nonce          []byte          `cbor:"nonce"`
	Ciphertext     []byte          `cbor:"ciphertext"`
	Sig            []byte          `cbor:"sig,omitempty"`
}

// sealSigRegion is the signed subset of Seal fields.
type sealSigRegion struct {
	Version        int             `cbor:"v"`
	Sender         ref.PublicKey   `cbor:"sender"`
	SenderExchange ref.ExchangeKey `cbor:"sender_exchange"`
	Nonce          []byte          `cbor:"nonce"`
	Ciphertext     []byte          `cbor:"ciphertext"`
}

// NewSeal encrypts the rumor to the recipient's exchange key and
// signs the result with the sender's identity. The rumor's author
// must be the sender; its ID is finalized if unset.
func NewSeal(rumor *Rumor, sender *Identity, recipient ref.ExchangeKey) (*Seal, error) {
	if rumor.Author != sender.Author() {
		return nil, fmt.Errorf("%w: rumor author %s is not the sealing identity %s",
			ErrEncoding, rumor.Author, sender.Author())
	}
	if recipient.IsZero() {
		return nil, fmt.Errorf("%w: recipient exchange key is unset", ErrEncoding)
	}
	if rumor.ID.IsZero() {
		if err := rumor.Finalize(); err != nil {
			return nil, err
		}
	}

	plaintext, err := codec.Marshal(rumor)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding rumor: %v", ErrEncoding, err)
	}

	key, err := deriveSharedKey(sender.exchangeKey, recipient.Bytes(), hkdfInfoSeal,
		sender.Exchange(), recipient)
	if err != nil {
		return nil, fmt.Errorf("envelope: deriving seal key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: creating seal cipher: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("envelope: generating seal nonce: %w", err)
	}

	seal := &Seal{
		Version:        sealVersion,
		Sender:         sender.Author(),
		SenderExchange: sender.Exchange(),
		Nonce:          nonce,
		Ciphertext:     aead.Seal(nil, nonce, plaintext, nil),
	}

	digest, err := sealDigest(seal)
	if err != nil {
		return nil, err
	}
	seal.Sig = ed25519.Sign(sender.signKey, digest)
	return seal, nil
}

// openSeal verifies the seal signature, decrypts the rumor with the
// recipient's exchange key, and checks that the rumor's author and ID
// are consistent with the seal.
func openSeal(seal *Seal, recipient *Identity) (*Rumor, error) {
	if seal.Version != sealVersion {
		return nil, fmt.Errorf("%w: unsupported seal version %d", ErrDecryption, seal.Version)
	}
	if seal.Sender.IsZero() || seal.SenderExchange.IsZero() {
		return nil, fmt.Errorf("%w: seal is missing sender keys", ErrDecryption)
	}

	digest, err := sealDigest(seal)
	if err != nil {
		return nil, err
	}
	if len(seal.Sig) != ed25519.SignatureSize ||
		!ed25519.Verify(seal.Sender.Bytes(), digest, seal.Sig) {
		return nil, fmt.Errorf("%w: seal signature verification failed", ErrDecryption)
	}

	key, err := deriveSharedKey(recipient.exchangeKey, seal.SenderExchange.Bytes(), hkdfInfoSeal,
		seal.SenderExchange, recipient.Exchange())
	if err != nil {
		return nil, fmt.Errorf("%w: deriving seal key: %v", ErrDecryption, err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: creating seal cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, seal.Nonce, seal.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: seal does not decrypt for this recipient", ErrDecryption)
	}

	var rumor Rumor
	if err := codec.Unmarshal(plaintext, &rumor); err != nil {
		return nil, fmt.Errorf("%w: rumor does not parse: %v", ErrMalformedMessage, err)
	}
	if rumor.Author != seal.Sender {
		return nil, fmt.Errorf("%w: rumor author %s does not match seal sender %s",
			ErrMalformedMessage, rumor.Author, seal.Sender)
	}
	computed, err := rumor.ComputeID()
	if err != nil {
		return nil, fmt.Errorf("%w: rehashing rumor: %v", ErrMalformedMessage, err)
	}
	if computed != rumor.ID {
		return nil, fmt.Errorf("%w: rumor ID %s does not match content hash %s",
			ErrMalformedMessage, rumor.ID, computed)
	}
	return &rumor, nil
}

// sealDigest hashes the signed region of a seal.
func sealDigest(seal *Seal) ([]byte, error) {
	encoded, err := codec.Marshal(sealSigRegion{
		Version:        seal.Version,
		Sender:         seal.Sender,
		SenderExchange: seal.SenderExchange,
		Nonce:          seal.Nonce,
		Ciphertext:     seal.Ciphertext,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding seal for signing: %v", ErrEncoding, err)
	}
	hasher, err := blake3.NewKeyed(sealSigDomainKey[:])
	if err != nil {
		panic("envelope: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(encoded)
	return hasher.Sum(nil), nil
}

// deriveSharedKey runs X25519 between the private key and the raw
// peer public key, then expands the shared secret with HKDF-SHA256.
// The info string is the domain tag followed by the sender and
// recipient exchange keys, in that order on both sides, binding the
// derived key to the specific pair.
func deriveSharedKey(private *ecdh.PrivateKey, peerPublic []byte, domain []byte, senderExchange, recipientExchange ref.ExchangeKey) ([]byte, error) {
	peer, err := ecdh.X25519().NewPublicKey(peerPublic)
	if err != nil {
		return nil, fmt.Errorf("parsing peer exchange key: %w", err)
	}
	shared, err := private.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("X25519 key agreement: %w", err)
	}

	info := make([]byte, 0, len(domain)+2*ref.KeySize)
	info = append(info, domain...)
	info = append(info, senderExchange.Bytes()...)
	info = append(info, recipientExchange.Bytes()...)

	reader := hkdf.New(sha256.New, shared, nil, info)
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("HKDF expansion: %w", err)
	}
	return key, nil
}
