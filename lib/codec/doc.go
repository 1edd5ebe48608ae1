// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides deterministic CBOR encoding and decoding for
// everything that gets hashed or encrypted: rumor bodies, seal and
// gift wrap payloads, and the signed region of records.
//
// Determinism matters because rumor and record IDs are content hashes.
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2) so the
// same logical content always produces identical bytes, and therefore
// the same ID, on every machine and in every process.
//
// The decoder ignores unknown fields for forward compatibility: an
// older reader can open an envelope produced by a newer writer and
// still recover the fields it understands.
package codec
