// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "strconv"

// Kind is the numeric type of a record or rumor. Kinds partition the
// record space: relays index by kind, and consumers dispatch on it.
//
// The assigned values live with the protocol that owns them (see the
// reservation package); ref only defines the kinds every layer needs.
type Kind int

// Kinds used by every layer of the envelope stack.
const (
	// KindProfile is the replaceable business profile record: display
	// name, published exchange key, and opening hours.
	KindProfile Kind = 0

	// KindGiftWrap is the outer envelope kind. Every privately
	// delivered message, regardless of its inner rumor kind, travels
	// the relays as a gift wrap.
	KindGiftWrap Kind = 1059
)

// String returns the decimal form of the kind.
func (k Kind) String() string { return strconv.Itoa(int(k)) }
