// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated value types for the identifiers that
// appear on the wire: author public keys, delivery exchange keys,
// record IDs, and record kinds.
//
// All types are immutable values with Parse/MustParse constructors,
// String accessors, and MarshalText/UnmarshalText for JSON and CBOR
// round-trips. The zero value of each type is "unset"; use IsZero to
// check. Constructing one of these types through Parse guarantees the
// hex is well-formed and the length is right, so downstream code never
// re-validates.
//
// Key exports:
//
//   - [PublicKey] -- 32-byte ed25519 author key, lowercase hex
//   - [ExchangeKey] -- 32-byte x25519 delivery key, lowercase hex
//   - [RecordID] -- 32-byte BLAKE3 content hash, lowercase hex
//   - [Kind] -- numeric record kind
package ref
