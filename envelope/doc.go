// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package envelope implements the three-layer message envelope used
// for all private communication:
//
//   - A [Rumor] is the unsigned inner message. Its ID is a content
//     hash used purely for correlation; rumors are never published
//     directly.
//   - A [Seal] is the rumor encrypted to one recipient under a key
//     derived from the sender's and recipient's x25519 exchange keys,
//     then signed by the sender's ed25519 key. It proves authorship
//     to the recipient without revealing authorship to anyone else.
//   - A gift wrap is the seal re-encrypted under single-use throwaway
//     keys and published as an ordinary record addressed, via a
//     routing tag, to the recipient's exchange key. The outer layer
//     carries no sender-identifying metadata.
//
// [Open] inverts the layering: it peels a gift wrap with the
// recipient's identity and returns the rumor plus the authenticated
// sender keys. Decryption failures (wrong recipient, corrupt payload,
// unsupported version) surface as [ErrDecryption]; plaintext that
// does not parse surfaces as [ErrMalformedMessage]. Both are expected
// at a relay-facing boundary — the listener drops such records and
// moves on.
//
// All operations are pure cryptographic computation. Key material is
// held only for the duration of a single call; the ephemeral wrap
// keys in particular are generated inside [GiftWrap] and never escape
// it.
package envelope
