// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import "errors"

// Sentinel errors for the envelope boundary. Callers match with
// errors.Is; the wrapped message carries the failing layer.
var (
	// ErrEncoding means a rumor or seal failed to serialize before
	// any encryption happened. Caller error, not retried.
	ErrEncoding = errors.New("envelope: message failed to encode")

	// ErrDecryption means the outer or inner layer could not be
	// decrypted with the given key: the record is addressed to
	// someone else, the payload is corrupt, or the version is
	// unsupported. Dropped silently at the protocol boundary.
	ErrDecryption = errors.New("envelope: cannot decrypt message")

	// ErrMalformedMessage means decryption succeeded but the inner
	// plaintext does not parse as a valid rumor. Dropped silently at
	// the protocol boundary.
	ErrMalformedMessage = errors.New("envelope: decrypted message is malformed")
)
