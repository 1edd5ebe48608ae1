// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"github.com/maitred-foundation/maitred/lib/ref"
)

// Tag is an ordered tuple of strings. The first element is the tag
// name; the meaning of the rest depends on the name.
type Tag []string

// Tags is the ordered tag list of a record or rumor.
type Tags []Tag

// Tag names and markers used by the protocol.
const (
	// TagRouting ("p") addresses a record to an exchange key:
	// ["p", <exchange key hex>, <relay hint>?].
	TagRouting = "p"

	// TagReference ("e") references another record or rumor:
	// ["e", <record id hex>, <relay hint>?, <marker>?].
	TagReference = "e"

	// TagIdentifier ("d") names the stable identifier of a
	// replaceable record: ["d", <identifier>].
	TagIdentifier = "d"

	// MarkerRoot on a reference tag marks the referenced rumor as the
	// root of the thread.
	MarkerRoot = "root"
)

// Name returns the tag name, or "" for an empty tag.
func (t Tag) Name() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// RoutingTag builds a "p" tag addressing the given exchange key. The
// relay hint, when non-empty, names the endpoint the recipient should
// prefer for replies.
func RoutingTag(key ref.ExchangeKey, relayHint string) Tag {
	if relayHint == "" {
		return Tag{TagRouting, key.String()}
	}
	return Tag{TagRouting, key.String(), relayHint}
}

// ReferenceTag builds an "e" tag referencing the given record ID with
// an optional marker. The relay hint slot is kept even when empty so
// the marker always sits at index 3.
func ReferenceTag(id ref.RecordID, relayHint, marker string) Tag {
	if marker == "" {
		if relayHint == "" {
			return Tag{TagReference, id.String()}
		}
		return Tag{TagReference, id.String(), relayHint}
	}
	return Tag{TagReference, id.String(), relayHint, marker}
}

// IdentifierTag builds a "d" tag carrying a replaceable record's
// stable identifier.
func IdentifierTag(identifier string) Tag {
	return Tag{TagIdentifier, identifier}
}

// Routing returns the exchange key and relay hint of the first valid
// "p" tag, or ok=false if none exists.
func (ts Tags) Routing() (key ref.ExchangeKey, relayHint string, ok bool) {
	for _, tag := range ts {
		if tag.Name() != TagRouting || len(tag) < 2 {
			continue
		}
		parsed, err := ref.ParseExchangeKey(tag[1])
		if err != nil {
			continue
		}
		hint := ""
		if len(tag) >= 3 {
			hint = tag[2]
		}
		return parsed, hint, true
	}
	return ref.ExchangeKey{}, "", false
}

// RootReference returns the record ID of the first reference tag
// marked "root", or ok=false if none exists.
func (ts Tags) RootReference() (ref.RecordID, bool) {
	for _, tag := range ts {
		if tag.Name() != TagReference || len(tag) < 4 || tag[3] != MarkerRoot {
			continue
		}
		parsed, err := ref.ParseRecordID(tag[1])
		if err != nil {
			continue
		}
		return parsed, true
	}
	return ref.RecordID{}, false
}

// Identifier returns the value of the first "d" tag, or ok=false if
// none exists.
func (ts Tags) Identifier() (string, bool) {
	for _, tag := range ts {
		if tag.Name() == TagIdentifier && len(tag) >= 2 {
			return tag[1], true
		}
	}
	return "", false
}
