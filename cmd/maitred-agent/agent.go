// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/maitred-foundation/maitred/envelope"
	"github.com/maitred-foundation/maitred/lib/clock"
	"github.com/maitred-foundation/maitred/lib/hours"
	"github.com/maitred-foundation/maitred/lib/ref"
	"github.com/maitred-foundation/maitred/profile"
	"github.com/maitred-foundation/maitred/record"
	"github.com/maitred-foundation/maitred/relay"
	"github.com/maitred-foundation/maitred/reservation"
)

// fetchWindow is how far back each poll looks. Gift-wrap timestamps
// are fuzzed up to 48 hours into the past, so a monotonic since
// cursor would miss wraps published after the cursor with an earlier
// fuzzed timestamp. The agent instead re-fetches the whole fuzz
// window every poll and relies on rumor-ID dedup.
const fetchWindow = 49 * time.Hour

// seenRetention is how long opened rumor IDs stay in the dedup set.
// Must exceed fetchWindow or a wrap could be handled twice.
const seenRetention = 72 * time.Hour

// fetchLimit caps one poll's results per relay.
const fetchLimit = 500

// Fetcher retrieves records from one relay endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string, filter relay.Filter) ([]*record.Record, error)
}

// Desk answers classified reservation requests.
type Desk interface {
	Accept(ctx context.Context, req *reservation.Request, opts reservation.ResponseOptions) error
	Decline(ctx context.Context, req *reservation.Request, reasons []string) error
}

// ProfileLoader supplies the business's own published profile, for
// the opening-hours check.
type ProfileLoader interface {
	Load(ctx context.Context, author ref.PublicKey) (*profile.BusinessProfile, error)
}

// AgentConfig holds configuration for creating an Agent.
type AgentConfig struct {
	Identity     *envelope.Identity
	Fetcher      Fetcher
	Desk         Desk
	Profiles     ProfileLoader
	Relays       []string
	Policy       reservation.Policy
	PollInterval time.Duration
	Clock        clock.Clock
	Logger       *slog.Logger
}

// Agent is the reservation listener: it polls the relays for gift
// wraps routed to the business, opens them, and answers reservation
// requests per the auto-accept policy.
//
// The accepted-booking book lives in memory only; a restarted agent
// starts with empty conflict state. Run is single-goroutine, so the
// book needs no locking.
type Agent struct {
	identity     *envelope.Identity
	fetcher      Fetcher
	desk         Desk
	profiles     ProfileLoader
	relays       []string
	policy       reservation.Policy
	pollInterval time.Duration
	clock        clock.Clock
	logger       *slog.Logger

	seen     map[ref.RecordID]time.Time
	bookings map[ref.RecordID]reservation.Booking
}

// NewAgent creates an Agent.
func NewAgent(config AgentConfig) *Agent {
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollInterval := config.PollInterval
	if pollInterval == 0 {
		pollInterval = 15 * time.Second
	}
	return &Agent{
		identity:     config.Identity,
		fetcher:      config.Fetcher,
		desk:         config.Desk,
		profiles:     config.Profiles,
		relays:       config.Relays,
		policy:       config.Policy,
		pollInterval: pollInterval,
		clock:        clk,
		logger:       logger,
		seen:         make(map[ref.RecordID]time.Time),
		bookings:     make(map[ref.RecordID]reservation.Booking),
	}
}

// Run polls until the context is cancelled. One poll or message
// failing never stops the loop.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("reservation agent started",
		"author", a.identity.Author().String(),
		"exchange", a.identity.Exchange().String(),
		"relays", a.relays,
		"poll_interval", a.pollInterval)

	for {
		a.poll(ctx)
		select {
		case <-ctx.Done():
			a.logger.Info("reservation agent stopping", "cause", context.Cause(ctx))
			return nil
		case <-a.clock.After(a.pollInterval):
		}
	}
}

// poll fetches the recent gift wraps from every relay and handles the
// ones not seen before.
func (a *Agent) poll(ctx context.Context) {
	now := a.clock.Now()
	a.pruneSeen(now)

	filter := relay.Filter{
		Kinds:   []ref.Kind{ref.KindGiftWrap},
		Routing: a.identity.Exchange(),
		Since:   now.Add(-fetchWindow).Unix(),
		Limit:   fetchLimit,
	}
	for _, endpoint := range a.relays {
		records, err := a.fetcher.Fetch(ctx, endpoint, filter)
		if err != nil {
			a.logger.Warn("relay poll failed", "endpoint", endpoint, "error", err)
			continue
		}
		for _, wrapped := range records {
			a.handle(ctx, wrapped)
		}
	}
}

// handle opens one gift wrap and dispatches the rumor inside. Wraps
// that do not decrypt for this identity, or that are not reservation
// messages, are dropped without a response: the relay feed is public
// and carries traffic for other recipients and other protocols.
func (a *Agent) handle(ctx context.Context, wrapped *record.Record) {
	opened, err := envelope.Open(wrapped, a.identity)
	if err != nil {
		if errors.Is(err, envelope.ErrDecryption) || errors.Is(err, envelope.ErrMalformedMessage) {
			a.logger.Debug("dropping undecryptable gift wrap",
				"record", wrapped.ID.String(), "error", err)
			return
		}
		a.logger.Warn("opening gift wrap failed", "record", wrapped.ID.String(), "error", err)
		return
	}

	if _, ok := a.seen[opened.Rumor.ID]; ok {
		return
	}
	a.seen[opened.Rumor.ID] = a.clock.Now()

	req, err := reservation.ParseRequest(opened)
	if err != nil {
		if errors.Is(err, reservation.ErrNotReservationMessage) {
			a.logger.Debug("ignoring non-reservation rumor",
				"rumor", opened.Rumor.ID.String(), "kind", opened.Rumor.Kind)
			return
		}
		a.logger.Warn("unusable reservation message dropped",
			"rumor", opened.Rumor.ID.String(), "error", err)
		return
	}

	a.logger.Info("reservation message received",
		"type", req.Type.String(),
		"root", req.Root.String(),
		"counterparty", req.Counterparty.String(),
		"party_size", req.Payload.PartySize)

	switch req.Type {
	case reservation.TypeCancellation:
		a.cancel(req)
	default:
		a.evaluate(ctx, req)
	}
}

// cancel releases the booking for the thread. Cancellations are not
// answered; the counterparty already moved on.
func (a *Agent) cancel(req *reservation.Request) {
	if _, ok := a.bookings[req.Root]; !ok {
		a.logger.Info("cancellation for unknown booking", "root", req.Root.String())
		return
	}
	delete(a.bookings, req.Root)
	a.logger.Info("booking cancelled", "root", req.Root.String())
}

// evaluate runs the auto-accept policy on a request or modification
// and sends the response.
func (a *Agent) evaluate(ctx context.Context, req *reservation.Request) {
	schedule := a.scheduleFor(ctx)

	// A modification's own thread does not conflict with itself.
	existing := make([]reservation.Booking, 0, len(a.bookings))
	for root, booking := range a.bookings {
		if root == req.Root {
			continue
		}
		existing = append(existing, booking)
	}

	decision := reservation.Decide(req.Payload, a.policy, existing, schedule)
	if !decision.Accept {
		a.logger.Info("reservation declined",
			"root", req.Root.String(), "reasons", decision.Reasons)
		if err := a.desk.Decline(ctx, req, decision.Reasons); err != nil {
			a.logger.Error("sending decline failed", "root", req.Root.String(), "error", err)
		}
		return
	}

	if err := a.desk.Accept(ctx, req, reservation.ResponseOptions{}); err != nil {
		a.logger.Error("sending confirmation failed", "root", req.Root.String(), "error", err)
		return
	}

	duration := time.Duration(req.Payload.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = time.Duration(a.policy.DefaultDurationMinutes) * time.Minute
	}
	start := time.Unix(req.Payload.Time, 0)
	a.bookings[req.Root] = reservation.Booking{
		Root:  req.Root,
		Start: start,
		End:   start.Add(duration),
	}
	a.logger.Info("reservation confirmed",
		"root", req.Root.String(),
		"start", start.UTC().Format(time.RFC3339),
		"party_size", req.Payload.PartySize,
		"active_bookings", len(a.bookings))
}

// scheduleFor loads the business's own published opening hours. A
// missing profile, or a relay outage, yields a nil schedule, which
// skips the hours check rather than blocking reservations.
func (a *Agent) scheduleFor(ctx context.Context) *hours.Schedule {
	if a.profiles == nil || !a.policy.CheckBusinessHours {
		return nil
	}
	prof, err := a.profiles.Load(ctx, a.identity.Author())
	if err != nil {
		a.logger.Warn("loading business profile failed", "error", err)
		return nil
	}
	if prof == nil {
		return nil
	}
	return prof.Schedule
}

func (a *Agent) pruneSeen(now time.Time) {
	for id, at := range a.seen {
		if now.Sub(at) > seenRetention {
			delete(a.seen, id)
		}
	}
}
