// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package reservation

import (
	"encoding/json"
	"fmt"

	"github.com/maitred-foundation/maitred/envelope"
	"github.com/maitred-foundation/maitred/lib/ref"
	"github.com/maitred-foundation/maitred/record"
)

// Request is a classified inbound reservation message with everything
// the desk needs to answer it: the payload, the thread root, and the
// authenticated reply route recovered from the envelope.
type Request struct {
	Type    MessageType
	Payload RequestPayload

	// RumorID is this message's own rumor ID.
	RumorID ref.RecordID

	// Root is the thread root: RumorID for a fresh request, the
	// root-marked reference for a modification or cancellation.
	Root ref.RecordID

	// Counterparty is the authenticated author of the request.
	Counterparty ref.PublicKey

	// ReplyKey is the counterparty's exchange key, where the
	// response gets sealed to.
	ReplyKey ref.ExchangeKey

	// RelayHint is the counterparty's preferred relay for replies,
	// empty when none was named.
	RelayHint string
}

// ParseRequest classifies an opened envelope as a reservation
// message. It fails with ErrNotReservationMessage for foreign rumor
// kinds and with ErrMissingRootReference for a modification or
// cancellation that does not name its thread root.
func ParseRequest(opened *envelope.Opened) (*Request, error) {
	rumor := &opened.Rumor
	if rumor.Kind != KindReservationRequest {
		return nil, fmt.Errorf("%w: kind %s", ErrNotReservationMessage, rumor.Kind)
	}

	var payload RequestPayload
	if err := json.Unmarshal(rumor.Content, &payload); err != nil {
		return nil, fmt.Errorf("%w: payload does not parse: %v", ErrNotReservationMessage, err)
	}

	request := &Request{
		Payload:      payload,
		RumorID:      rumor.ID,
		Counterparty: opened.Sender,
		ReplyKey:     opened.SenderExchange,
	}
	if _, hint, ok := rumor.Tags.Routing(); ok {
		request.RelayHint = hint
	}

	root, hasRoot := rumor.Tags.RootReference()
	switch {
	case payload.Status == statusCancelled:
		// A cancellation always belongs to an existing thread.
		if !hasRoot {
			return nil, fmt.Errorf("%w: cancellation %s has no root reference", ErrMissingRootReference, rumor.ID)
		}
		request.Type = TypeCancellation
		request.Root = root
	case hasRoot:
		request.Type = TypeModification
		request.Root = root
	default:
		request.Type = TypeRequest
		request.Root = rumor.ID
	}
	return request, nil
}

// NewRequestRumor builds the counterparty-side request rumor: payload
// as JSON content, a routing tag naming the business's exchange key
// and the sender's preferred reply relay, and, for a modification or
// cancellation, a reference tag marking the original thread root.
// The rumor is finalized (its ID computed) before return.
func NewRequestRumor(author ref.PublicKey, createdAt int64, payload RequestPayload, business ref.ExchangeKey, replyRelay string, root ref.RecordID) (*envelope.Rumor, error) {
	content, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("reservation: encoding request payload: %w", err)
	}

	tags := record.Tags{record.RoutingTag(business, replyRelay)}
	if !root.IsZero() {
		tags = append(tags, record.ReferenceTag(root, "", record.MarkerRoot))
	}

	rumor := &envelope.Rumor{
		Kind:      KindReservationRequest,
		Author:    author,
		CreatedAt: createdAt,
		Tags:      tags,
		Content:   content,
	}
	if err := rumor.Finalize(); err != nil {
		return nil, err
	}
	return rumor, nil
}
