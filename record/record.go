// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"crypto/ed25519"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/maitred-foundation/maitred/lib/codec"
	"github.com/maitred-foundation/maitred/lib/ref"
)

// recordDomainKey is the 32-byte BLAKE3 key for record ID hashing.
// Domain separation keeps record IDs from ever colliding with rumor
// IDs computed over similar bytes. The value is the ASCII domain name
// zero-padded to 32 bytes; changing it invalidates every existing
// record ID.
var recordDomainKey = [32]byte{
	'm', 'a', 'i', 't', 'r', 'e', 'd', '.',
	'r', 'e', 'c', 'o', 'r', 'd', '.', 'v', '1',
}

// Record is the outer, publishable object. Relays index it by kind,
// author, and tags; consumers verify the signature against the
// author's key. Content is opaque bytes whose meaning depends on the
// kind (JSON for profile records, an encrypted payload for gift
// wraps).
type Record struct {
	// ID is the BLAKE3 hash of the unsigned fields. Derived; never
	// part of the hashed region.
	ID ref.RecordID `json:"id"`

	Author     ref.PublicKey `json:"author"`
	Kind       ref.Kind      `json:"kind"`
	Identifier string        `json:"identifier,omitempty"`

	// CreatedAt is a unix timestamp in seconds. Among records sharing
	// an identity the greatest CreatedAt wins.
	CreatedAt int64 `json:"created_at"`

	Tags    Tags   `json:"tags,omitempty"`
	Content []byte `json:"content,omitempty"`

	// Sig is the ed25519 signature of ID by Author.
	Sig []byte `json:"sig,omitempty"`
}

// hashRegion is the subset of Record fields covered by the ID hash,
// in a fixed shape so the deterministic CBOR encoding is stable.
type hashRegion struct {
	Author     ref.PublicKey `cbor:"author"`
	Kind       int           `cbor:"kind"`
	Identifier string        `cbor:"identifier,omitempty"`
	CreatedAt  int64         `cbor:"created_at"`
	Tags       Tags          `cbor:"tags,omitempty"`
	Content    []byte        `cbor:"content,omitempty"`
}

// Identity is the replaceability key of a record. Two records with
// the same Identity are revisions of the same logical record.
type Identity struct {
	Kind       ref.Kind
	Author     ref.PublicKey
	Identifier string
}

// Identity returns the record's replaceability key.
func (r *Record) Identity() Identity {
	return Identity{Kind: r.Kind, Author: r.Author, Identifier: r.Identifier}
}

// ComputeID hashes the record's unsigned fields. It does not modify
// the record.
func (r *Record) ComputeID() (ref.RecordID, error) {
	encoded, err := codec.Marshal(hashRegion{
		Author:     r.Author,
		Kind:       int(r.Kind),
		Identifier: r.Identifier,
		CreatedAt:  r.CreatedAt,
		Tags:       r.Tags,
		Content:    r.Content,
	})
	if err != nil {
		return ref.RecordID{}, fmt.Errorf("record: encoding for hashing: %w", err)
	}
	return ref.RecordIDFromBytes(keyedHash(recordDomainKey, encoded))
}

// Sign computes the record's ID and signs it with the given ed25519
// private key, which must correspond to r.Author. Sets ID and Sig.
func (r *Record) Sign(key ed25519.PrivateKey) error {
	public, err := ref.PublicKeyFromBytes(key.Public().(ed25519.PublicKey))
	if err != nil {
		return fmt.Errorf("record: extracting public key: %w", err)
	}
	if public != r.Author {
		return fmt.Errorf("record: signing key %s does not match author %s", public, r.Author)
	}

	id, err := r.ComputeID()
	if err != nil {
		return err
	}
	r.ID = id
	r.Sig = ed25519.Sign(key, id.Bytes())
	return nil
}

// Verify checks that the record's ID matches its content and that Sig
// is a valid signature of the ID by Author.
func (r *Record) Verify() error {
	computed, err := r.ComputeID()
	if err != nil {
		return err
	}
	if computed != r.ID {
		return fmt.Errorf("record: ID %s does not match content hash %s", r.ID, computed)
	}
	if len(r.Sig) != ed25519.SignatureSize {
		return fmt.Errorf("record: signature is %d bytes, want %d", len(r.Sig), ed25519.SignatureSize)
	}
	// ed25519.Verify panics on a key that is not 32 bytes, and a
	// record decoded from relay JSON can carry a zero Author.
	if r.Author.IsZero() {
		return fmt.Errorf("record: %s has no author key", r.ID)
	}
	if !ed25519.Verify(r.Author.Bytes(), r.ID.Bytes(), r.Sig) {
		return fmt.Errorf("record: signature verification failed for %s", r.ID)
	}
	return nil
}

// Supersedes reports whether r is authoritative over other. Records
// with different identities are unrelated and never supersede each
// other. Equal timestamps tie-break on the lower ID so that every
// observer picks the same winner.
func (r *Record) Supersedes(other *Record) bool {
	if other == nil {
		return true
	}
	if r.Identity() != other.Identity() {
		return false
	}
	if r.CreatedAt != other.CreatedAt {
		return r.CreatedAt > other.CreatedAt
	}
	return r.ID.String() < other.ID.String()
}

// Latest returns the authoritative record per identity from a mixed
// batch, e.g. the union of fetch results from several relays.
func Latest(records []*Record) map[Identity]*Record {
	latest := make(map[Identity]*Record)
	for _, r := range records {
		if r == nil {
			continue
		}
		if current, ok := latest[r.Identity()]; !ok || r.Supersedes(current) {
			latest[r.Identity()] = r
		}
	}
	return latest
}

// keyedHash computes a BLAKE3 keyed hash. The key is always one of
// the package's fixed 32-byte domain keys, so initialization cannot
// fail.
func keyedHash(key [32]byte, data []byte) []byte {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("record: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	return hasher.Sum(nil)
}
