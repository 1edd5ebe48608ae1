// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/maitred-foundation/maitred/envelope"
	"github.com/maitred-foundation/maitred/lib/clock"
	"github.com/maitred-foundation/maitred/lib/ref"
	"github.com/maitred-foundation/maitred/record"
	"github.com/maitred-foundation/maitred/relay"
	"github.com/maitred-foundation/maitred/reservation"
)

type fakeFetcher struct {
	records []*record.Record
}

func (f *fakeFetcher) Fetch(ctx context.Context, endpoint string, filter relay.Filter) ([]*record.Record, error) {
	return f.records, nil
}

type deskCall struct {
	req     *reservation.Request
	accept  bool
	reasons []string
}

type fakeDesk struct {
	calls []deskCall
}

func (f *fakeDesk) Accept(ctx context.Context, req *reservation.Request, opts reservation.ResponseOptions) error {
	f.calls = append(f.calls, deskCall{req: req, accept: true})
	return nil
}

func (f *fakeDesk) Decline(ctx context.Context, req *reservation.Request, reasons []string) error {
	f.calls = append(f.calls, deskCall{req: req, reasons: reasons})
	return nil
}

func testIdentity(t *testing.T) *envelope.Identity {
	t.Helper()
	identity, err := envelope.GenerateIdentity()
	if err != nil {
		t.Fatalf("generating identity: %v", err)
	}
	return identity
}

func testAgent(t *testing.T, business *envelope.Identity, fetcher Fetcher, desk Desk) *Agent {
	t.Helper()
	return NewAgent(AgentConfig{
		Identity: business,
		Fetcher:  fetcher,
		Desk:     desk,
		Relays:   []string{"https://relay-a.example.com"},
		Policy: reservation.Policy{
			Enabled:                     true,
			CheckConflicts:              true,
			MinPartySize:                1,
			MaxPartySize:                8,
			DefaultDurationMinutes:      90,
			MaxSimultaneousReservations: 1,
			ConflictBufferMinutes:       15,
		},
		Clock:  clock.Fake(time.Unix(1760990000, 0)),
		Logger: slog.New(slog.DiscardHandler),
	})
}

// wrapRequest builds a real gift-wrapped reservation request from the
// counterparty to the business.
func wrapRequest(t *testing.T, counterparty, business *envelope.Identity, payload reservation.RequestPayload, root ref.RecordID) *record.Record {
	t.Helper()
	rumor, err := reservation.NewRequestRumor(counterparty.Author(), 1760990000,
		payload, business.Exchange(), "", root)
	if err != nil {
		t.Fatalf("building request rumor: %v", err)
	}
	builder := &envelope.Builder{Sender: counterparty}
	wrapped, err := builder.Wrap(rumor, business.Exchange(), "")
	if err != nil {
		t.Fatalf("wrapping request: %v", err)
	}
	return wrapped
}

func TestAgentAcceptsAndBooks(t *testing.T) {
	business := testIdentity(t)
	counterparty := testIdentity(t)
	payload := reservation.RequestPayload{
		PartySize: 4,
		Time:      1760994000,
		TZID:      "America/Los_Angeles",
	}
	fetcher := &fakeFetcher{records: []*record.Record{
		wrapRequest(t, counterparty, business, payload, ref.RecordID{}),
	}}
	desk := &fakeDesk{}
	agent := testAgent(t, business, fetcher, desk)

	agent.poll(context.Background())

	if len(desk.calls) != 1 || !desk.calls[0].accept {
		t.Fatalf("desk calls = %+v, want one accept", desk.calls)
	}
	if len(agent.bookings) != 1 {
		t.Fatalf("bookings = %d, want 1", len(agent.bookings))
	}
	root := desk.calls[0].req.Root
	booking := agent.bookings[root]
	if got := booking.End.Sub(booking.Start); got != 90*time.Minute {
		t.Errorf("booking duration = %v, want default 90m", got)
	}
}

func TestAgentDeduplicatesAcrossPolls(t *testing.T) {
	business := testIdentity(t)
	counterparty := testIdentity(t)
	payload := reservation.RequestPayload{
		PartySize: 4, Time: 1760994000, TZID: "America/Los_Angeles",
	}
	fetcher := &fakeFetcher{records: []*record.Record{
		wrapRequest(t, counterparty, business, payload, ref.RecordID{}),
	}}
	desk := &fakeDesk{}
	agent := testAgent(t, business, fetcher, desk)

	agent.poll(context.Background())
	agent.poll(context.Background())

	if len(desk.calls) != 1 {
		t.Fatalf("desk calls = %d, want 1 after duplicate polls", len(desk.calls))
	}
}

func TestAgentDeclinesOverCapacity(t *testing.T) {
	business := testIdentity(t)
	first := testIdentity(t)
	second := testIdentity(t)
	payload := reservation.RequestPayload{
		PartySize: 2, Time: 1760994000, TZID: "America/Los_Angeles",
	}
	fetcher := &fakeFetcher{records: []*record.Record{
		wrapRequest(t, first, business, payload, ref.RecordID{}),
		wrapRequest(t, second, business, payload, ref.RecordID{}),
	}}
	desk := &fakeDesk{}
	agent := testAgent(t, business, fetcher, desk)

	agent.poll(context.Background())

	if len(desk.calls) != 2 {
		t.Fatalf("desk calls = %d, want 2", len(desk.calls))
	}
	if !desk.calls[0].accept {
		t.Error("first request was not accepted")
	}
	if desk.calls[1].accept {
		t.Error("second overlapping request was accepted over capacity")
	}
	if got := desk.calls[1].reasons; len(got) != 1 || got[0] != reservation.ReasonCapacityExhausted {
		t.Errorf("decline reasons = %v", got)
	}
}

func TestAgentCancellationFreesCapacity(t *testing.T) {
	business := testIdentity(t)
	counterparty := testIdentity(t)
	payload := reservation.RequestPayload{
		PartySize: 2, Time: 1760994000, TZID: "America/Los_Angeles",
	}
	desk := &fakeDesk{}
	fetcher := &fakeFetcher{records: []*record.Record{
		wrapRequest(t, counterparty, business, payload, ref.RecordID{}),
	}}
	agent := testAgent(t, business, fetcher, desk)
	agent.poll(context.Background())
	root := desk.calls[0].req.Root

	// Cancel the thread, then have someone else request the slot.
	other := testIdentity(t)
	fetcher.records = []*record.Record{
		wrapRequest(t, counterparty, business,
			reservation.RequestPayload{PartySize: 2, Status: "cancelled"}, root),
		wrapRequest(t, other, business, payload, ref.RecordID{}),
	}
	agent.poll(context.Background())

	if _, ok := agent.bookings[root]; ok {
		t.Error("cancelled booking still held")
	}
	last := desk.calls[len(desk.calls)-1]
	if !last.accept {
		t.Errorf("slot not reusable after cancellation: %+v", last)
	}
}

func TestAgentModificationDoesNotConflictWithItself(t *testing.T) {
	business := testIdentity(t)
	counterparty := testIdentity(t)
	payload := reservation.RequestPayload{
		PartySize: 2, Time: 1760994000, TZID: "America/Los_Angeles",
	}
	desk := &fakeDesk{}
	fetcher := &fakeFetcher{records: []*record.Record{
		wrapRequest(t, counterparty, business, payload, ref.RecordID{}),
	}}
	agent := testAgent(t, business, fetcher, desk)
	agent.poll(context.Background())
	root := desk.calls[0].req.Root

	// Shift the same thread by 30 minutes; its own booking must not
	// count against the capacity of one.
	modified := payload
	modified.Time += 30 * 60
	fetcher.records = []*record.Record{
		wrapRequest(t, counterparty, business, modified, root),
	}
	agent.poll(context.Background())

	last := desk.calls[len(desk.calls)-1]
	if !last.accept {
		t.Errorf("modification declined against its own booking: %+v", last)
	}
	if got := agent.bookings[root].Start.Unix(); got != modified.Time {
		t.Errorf("booking start = %d, want modified %d", got, modified.Time)
	}
}

func TestAgentIgnoresForeignTraffic(t *testing.T) {
	business := testIdentity(t)
	sender := testIdentity(t)
	stranger := testIdentity(t)

	// A wrap for somebody else entirely.
	foreignRumor := &envelope.Rumor{
		Kind:      reservation.KindReservationRequest,
		Author:    sender.Author(),
		CreatedAt: 1760990000,
		Content:   []byte(`{"party_size":2}`),
	}
	if err := foreignRumor.Finalize(); err != nil {
		t.Fatalf("finalizing rumor: %v", err)
	}
	builder := &envelope.Builder{Sender: sender}
	foreignWrap, err := builder.Wrap(foreignRumor, stranger.Exchange(), "")
	if err != nil {
		t.Fatalf("wrapping: %v", err)
	}

	// A decryptable wrap carrying a non-reservation rumor.
	chatRumor := &envelope.Rumor{
		Kind:      ref.Kind(14),
		Author:    sender.Author(),
		CreatedAt: 1760990000,
		Content:   []byte("hello"),
	}
	if err := chatRumor.Finalize(); err != nil {
		t.Fatalf("finalizing rumor: %v", err)
	}
	chatWrap, err := builder.Wrap(chatRumor, business.Exchange(), "")
	if err != nil {
		t.Fatalf("wrapping: %v", err)
	}

	desk := &fakeDesk{}
	fetcher := &fakeFetcher{records: []*record.Record{foreignWrap, chatWrap}}
	agent := testAgent(t, business, fetcher, desk)
	agent.poll(context.Background())

	if len(desk.calls) != 0 {
		t.Errorf("desk calls = %+v, want none for foreign traffic", desk.calls)
	}
	if len(agent.bookings) != 0 {
		t.Errorf("bookings = %d, want 0", len(agent.bookings))
	}
}
