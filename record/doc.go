// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package record defines the addressable record model shared by
// everything this system publishes: a signed, timestamped object whose
// identity is the triple (kind, author, identifier). Among records
// sharing an identity, the one with the greatest timestamp is
// authoritative; older copies are superseded, never mutated in place.
// The identifier is assigned once and never changes across revisions
// of the same logical record.
//
// A record's ID is the BLAKE3 hash of the deterministic CBOR encoding
// of its unsigned fields, and its signature is ed25519 over that ID.
// Relays store and republish records as-is; any consumer can verify
// author and integrity offline.
//
// Tags carry the small amount of routing and correlation metadata the
// protocol needs: a "p" tag addresses a record to an exchange key
// (with an optional preferred-relay hint), an "e" tag references
// another record (marked "root" when it points at the rumor that
// began a thread), and a "d" tag names the stable identifier of a
// replaceable record.
package record
