// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package reservation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/maitred-foundation/maitred/envelope"
	"github.com/maitred-foundation/maitred/lib/ref"
)

func testIdentity(t *testing.T) *envelope.Identity {
	t.Helper()
	identity, err := envelope.GenerateIdentity()
	if err != nil {
		t.Fatalf("generating identity: %v", err)
	}
	return identity
}

// openedRequest fakes the envelope layer: it finalizes the rumor and
// hands it back as if it had been unwrapped from a gift wrap.
func openedRequest(t *testing.T, sender *envelope.Identity, payload RequestPayload, root ref.RecordID) *envelope.Opened {
	t.Helper()
	business := testIdentity(t)
	rumor, err := NewRequestRumor(sender.Author(), 1760990000, payload,
		business.Exchange(), "https://relay.example.com", root)
	if err != nil {
		t.Fatalf("building request rumor: %v", err)
	}
	return &envelope.Opened{
		Rumor:          *rumor,
		Sender:         sender.Author(),
		SenderExchange: sender.Exchange(),
	}
}

func TestParseRequestFresh(t *testing.T) {
	sender := testIdentity(t)
	payload := RequestPayload{
		PartySize: 4,
		Time:      1760994000,
		TZID:      "America/Los_Angeles",
		Notes:     "window table please",
	}
	opened := openedRequest(t, sender, payload, ref.RecordID{})

	req, err := ParseRequest(opened)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Type != TypeRequest {
		t.Errorf("type = %v, want request", req.Type)
	}
	// A fresh request is its own thread root.
	if req.Root != req.RumorID {
		t.Errorf("root = %v, want own rumor ID %v", req.Root, req.RumorID)
	}
	if req.Counterparty != sender.Author() {
		t.Errorf("counterparty = %v, want %v", req.Counterparty, sender.Author())
	}
	if req.ReplyKey != sender.Exchange() {
		t.Errorf("reply key = %v, want sender exchange key", req.ReplyKey)
	}
	if req.RelayHint != "https://relay.example.com" {
		t.Errorf("relay hint = %q", req.RelayHint)
	}
	if req.Payload.PartySize != 4 || req.Payload.Notes != "window table please" {
		t.Errorf("payload = %+v", req.Payload)
	}
}

func TestParseRequestModification(t *testing.T) {
	sender := testIdentity(t)
	root := ref.MustParseRecordID(
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	payload := RequestPayload{PartySize: 6, Time: 1761000000, TZID: "America/Los_Angeles"}
	opened := openedRequest(t, sender, payload, root)

	req, err := ParseRequest(opened)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Type != TypeModification {
		t.Errorf("type = %v, want modification", req.Type)
	}
	if req.Root != root {
		t.Errorf("root = %v, want original thread root %v", req.Root, root)
	}
	if req.Root == req.RumorID {
		t.Error("modification adopted its own ID as root")
	}
}

func TestParseRequestCancellation(t *testing.T) {
	sender := testIdentity(t)
	root := ref.MustParseRecordID(
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	payload := RequestPayload{PartySize: 4, Status: "cancelled"}
	opened := openedRequest(t, sender, payload, root)

	req, err := ParseRequest(opened)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Type != TypeCancellation {
		t.Errorf("type = %v, want cancellation", req.Type)
	}
	if req.Root != root {
		t.Errorf("root = %v, want %v", req.Root, root)
	}
}

func TestParseRequestCancellationWithoutRoot(t *testing.T) {
	sender := testIdentity(t)
	payload := RequestPayload{PartySize: 4, Status: "cancelled"}
	opened := openedRequest(t, sender, payload, ref.RecordID{})

	_, err := ParseRequest(opened)
	if !errors.Is(err, ErrMissingRootReference) {
		t.Fatalf("err = %v, want ErrMissingRootReference", err)
	}
}

func TestParseRequestForeignKind(t *testing.T) {
	sender := testIdentity(t)
	content, _ := json.Marshal(RequestPayload{PartySize: 4})
	rumor := &envelope.Rumor{
		Kind:      ref.Kind(30023),
		Author:    sender.Author(),
		CreatedAt: 1760990000,
		Content:   content,
	}
	if err := rumor.Finalize(); err != nil {
		t.Fatalf("finalizing rumor: %v", err)
	}
	opened := &envelope.Opened{
		Rumor:          *rumor,
		Sender:         sender.Author(),
		SenderExchange: sender.Exchange(),
	}
	_, err := ParseRequest(opened)
	if !errors.Is(err, ErrNotReservationMessage) {
		t.Fatalf("err = %v, want ErrNotReservationMessage", err)
	}
}

func TestParseRequestGarbagePayload(t *testing.T) {
	sender := testIdentity(t)
	rumor := &envelope.Rumor{
		Kind:      KindReservationRequest,
		Author:    sender.Author(),
		CreatedAt: 1760990000,
		Content:   []byte("not json at all"),
	}
	if err := rumor.Finalize(); err != nil {
		t.Fatalf("finalizing rumor: %v", err)
	}
	opened := &envelope.Opened{
		Rumor:          *rumor,
		Sender:         sender.Author(),
		SenderExchange: sender.Exchange(),
	}
	_, err := ParseRequest(opened)
	if !errors.Is(err, ErrNotReservationMessage) {
		t.Fatalf("err = %v, want ErrNotReservationMessage", err)
	}
}

func TestNewRequestRumorTags(t *testing.T) {
	sender := testIdentity(t)
	business := testIdentity(t)
	root := ref.MustParseRecordID(
		"cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc")

	rumor, err := NewRequestRumor(sender.Author(), 1760990000,
		RequestPayload{PartySize: 2, Time: 1760994000, TZID: "America/Los_Angeles"},
		business.Exchange(), "https://relay.example.com", root)
	if err != nil {
		t.Fatalf("NewRequestRumor: %v", err)
	}
	if rumor.ID.IsZero() {
		t.Error("rumor was not finalized")
	}
	key, hint, ok := rumor.Tags.Routing()
	if !ok || key != business.Exchange() || hint != "https://relay.example.com" {
		t.Errorf("routing tag = %v %q %v", key, hint, ok)
	}
	gotRoot, ok := rumor.Tags.RootReference()
	if !ok || gotRoot != root {
		t.Errorf("root reference = %v %v, want %v", gotRoot, ok, root)
	}

	// Fresh requests carry no reference tag at all.
	fresh, err := NewRequestRumor(sender.Author(), 1760990000,
		RequestPayload{PartySize: 2, Time: 1760994000, TZID: "America/Los_Angeles"},
		business.Exchange(), "", ref.RecordID{})
	if err != nil {
		t.Fatalf("NewRequestRumor: %v", err)
	}
	if _, ok := fresh.Tags.RootReference(); ok {
		t.Error("fresh request carries a root reference")
	}
}
