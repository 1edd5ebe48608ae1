// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/maitred-foundation/maitred/lib/codec"
	"github.com/maitred-foundation/maitred/lib/ref"
	"github.com/maitred-foundation/maitred/record"
)

// rumorDomainKey is the 32-byte BLAKE3 key for rumor ID hashing,
// domain-separated from record IDs. ASCII name zero-padded to 32
// bytes; fixed forever.
var rumorDomainKey = [32]byte{
	'm', 'a', 'i', 't', 'r', 'e', 'd', '.',
	'r', 'u', 'm', 'o', 'r', '.', 'v', '1',
}

// Rumor is the unsigned inner message of the envelope. It is never
// published directly; its ID exists purely so responses can name the
// rumor they answer.
type Rumor struct {
	// ID is the BLAKE3 hash of the deterministic CBOR encoding of
	// every other field. Excluded from its own hash region.
	ID ref.RecordID `cbor:"id" json:"id"`

	Kind      ref.Kind       `cbor:"kind" json:"kind"`
	Author    ref.PublicKey  `cbor:"author" json:"author"`
	CreatedAt int64          `cbor:"created_at" json:"created_at"`
	Tags      record.Tags    `cbor:"tags,omitempty" json:"tags,omitempty"`
	Content   []byte         `cbor:"content,omitempty" json:"content,omitempty"`
}

// rumorHashRegion is the hashed subset of Rumor fields, in a fixed
// shape so the encoding is stable across versions.
type rumorHashRegion struct {
	Kind      int           `cbor:"kind"`
	Author    ref.PublicKey `cbor:"author"`
	CreatedAt int64         `cbor:"created_at"`
	Tags      record.Tags   `cbor:"tags,omitempty"`
	Content   []byte        `cbor:"content,omitempty"`
}

// ComputeID hashes the rumor's fields (excluding ID itself).
func (r *Rumor) ComputeID() (ref.RecordID, error) {
	encoded, err := codec.Marshal(rumorHashRegion{
		Kind:      int(r.Kind),
		Author:    r.Author,
		CreatedAt: r.CreatedAt,
		Tags:      r.Tags,
		Content:   r.Content,
	})
	if err != nil {
		return ref.RecordID{}, fmt.Errorf("%w: encoding rumor for hashing: %v", ErrEncoding, err)
	}

	hasher, err := blake3.NewKeyed(rumorDomainKey[:])
	if err != nil {
		panic("envelope: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(encoded)
	return ref.RecordIDFromBytes(hasher.Sum(nil))
}

// Finalize computes and stores the rumor's ID. Call after the last
// field mutation and before sealing; NewSeal finalizes automatically
// when the ID is unset.
func (r *Rumor) Finalize() error {
	id, err := r.ComputeID()
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}
