// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/hex"
	"fmt"
)

// RecordIDSize is the byte length of a record ID (a BLAKE3 digest).
const RecordIDSize = 32

// RecordID is a validated record or rumor content hash, serialized as
// 64 lowercase hex characters. Response messages carry the RecordID of
// the rumor that began their thread (the root), so the whole
// request/response/modification exchange correlates to one ID.
//
// RecordID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type RecordID struct {
	id string
}

// ParseRecordID validates and wraps a raw hex-encoded record ID.
func ParseRecordID(raw string) (RecordID, error) {
	if raw == "" {
		return RecordID{}, fmt.Errorf("empty record ID")
	}
	if len(raw) != RecordIDSize*2 {
		return RecordID{}, fmt.Errorf("record ID must be %d hex characters, got %d: %q", RecordIDSize*2, len(raw), raw)
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return RecordID{}, fmt.Errorf("record ID is not valid hex: %q", raw)
	}
	return RecordID{id: hex.EncodeToString(decoded)}, nil
}

// RecordIDFromBytes wraps a raw 32-byte digest.
func RecordIDFromBytes(raw []byte) (RecordID, error) {
	if len(raw) != RecordIDSize {
		return RecordID{}, fmt.Errorf("record ID must be %d bytes, got %d", RecordIDSize, len(raw))
	}
	return RecordID{id: hex.EncodeToString(raw)}, nil
}

// MustParseRecordID is like ParseRecordID but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParseRecordID(raw string) RecordID {
	id, err := ParseRecordID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRecordID(%q): %v", raw, err))
	}
	return id
}

// String returns the lowercase hex form of the ID.
func (r RecordID) String() string { return r.id }

// Bytes returns the decoded 32-byte digest. Returns nil for the zero value.
func (r RecordID) Bytes() []byte { return keyBytes(r.id) }

// IsZero reports whether the RecordID is the zero value.
func (r RecordID) IsZero() bool { return r.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (r RecordID) MarshalText() ([]byte, error) {
	return []byte(r.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset ID).
func (r *RecordID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*r = RecordID{}
		return nil
	}
	parsed, err := ParseRecordID(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
