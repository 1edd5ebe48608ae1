// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/maitred-foundation/maitred/envelope"
	"github.com/maitred-foundation/maitred/lib/clock"
	"github.com/maitred-foundation/maitred/lib/ref"
	"github.com/maitred-foundation/maitred/lib/tracking"
	"github.com/maitred-foundation/maitred/record"
	"github.com/maitred-foundation/maitred/relay"
)

// Enveloper seals a rumor for one recipient and gift-wraps it into a
// publishable record. [envelope.Builder] is the production
// implementation; tests substitute fakes to observe the rumor before
// it disappears behind two layers of encryption.
type Enveloper interface {
	Wrap(rumor *envelope.Rumor, recipient ref.ExchangeKey, relayHint string) (*record.Record, error)
}

// Tracker receives accepted reservations for external booking
// analytics. Implementations must be best-effort: Report never
// returns an error and must not block the accept path beyond its own
// internal timeout.
type Tracker interface {
	Report(ctx context.Context, event tracking.Event)
}

// DeskConfig holds configuration for creating a Desk.
type DeskConfig struct {
	// Identity is the business identity responses are authored and
	// sealed under. Required.
	Identity *envelope.Identity
	// Publisher broadcasts wrapped responses. Required.
	Publisher relay.Publisher
	// Relays are the business's own endpoints, used for both the
	// counterparty copy and the self copy. Required, non-empty.
	Relays []string
	// Enveloper wraps response rumors. If nil, an [envelope.Builder]
	// over Identity is used.
	Enveloper Enveloper
	// Tracker, when set, receives accepted reservations.
	Tracker Tracker
	// Clock supplies response timestamps. If nil, clock.Real() is
	// used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Desk answers reservation requests on behalf of a business: it
// builds the response rumor, seals one copy to the counterparty and
// one to the business itself, and publishes both.
type Desk struct {
	identity  *envelope.Identity
	enveloper Enveloper
	publisher relay.Publisher
	relays    []string
	tracker   Tracker
	clock     clock.Clock
	logger    *slog.Logger
}

// NewDesk creates a Desk.
func NewDesk(config DeskConfig) (*Desk, error) {
	if config.Identity == nil {
		return nil, fmt.Errorf("reservation: desk requires an identity")
	}
	if config.Publisher == nil {
		return nil, fmt.Errorf("reservation: desk requires a publisher")
	}
	if len(config.Relays) == 0 {
		return nil, fmt.Errorf("reservation: desk requires at least one relay endpoint")
	}
	enveloper := config.Enveloper
	if enveloper == nil {
		enveloper = &envelope.Builder{Sender: config.Identity}
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Desk{
		identity:  config.Identity,
		enveloper: enveloper,
		publisher: config.Publisher,
		relays:    config.Relays,
		tracker:   config.Tracker,
		clock:     clk,
		logger:    logger,
	}, nil
}

// ResponseOptions override fields of the confirmed reservation. A
// zero field means "use the value from the request".
type ResponseOptions struct {
	// Time replaces the confirmed start timestamp.
	Time int64
	// TZID replaces the confirmed timezone.
	TZID string
	// DurationMinutes replaces the confirmed duration.
	DurationMinutes int
	// Message is free-form text for the counterparty.
	Message string
}

// Accept confirms a reservation request. The effective time and
// timezone (option override, else request value) must both be
// present; a missing value fails with ErrMissingReservationFields
// before anything is encrypted or published. On success the accepted
// booking is reported to the tracker, best-effort.
func (d *Desk) Accept(ctx context.Context, req *Request, opts ResponseOptions) error {
	confirmedTime := opts.Time
	if confirmedTime == 0 {
		confirmedTime = req.Payload.Time
	}
	tzid := opts.TZID
	if tzid == "" {
		tzid = req.Payload.TZID
	}
	if confirmedTime == 0 || tzid == "" {
		return fmt.Errorf("%w: time=%d tzid=%q", ErrMissingReservationFields, confirmedTime, tzid)
	}
	duration := opts.DurationMinutes
	if duration == 0 {
		duration = req.Payload.DurationMinutes
	}

	payload := ResponsePayload{
		Status:          StatusConfirmed,
		Time:            confirmedTime,
		TZID:            tzid,
		RootRumorID:     req.Root,
		PartySize:       req.Payload.PartySize,
		DurationMinutes: duration,
		Message:         opts.Message,
	}
	if err := d.respond(ctx, req, payload); err != nil {
		return err
	}

	if d.tracker != nil {
		d.tracker.Report(ctx, tracking.Event{
			RootRumorID:          req.Root,
			ReservationTimestamp: confirmedTime,
			Month:                tracking.MonthOf(confirmedTime, tzid),
			Identity:             d.identity.Author().String(),
		})
	}
	return nil
}

// Decline rejects a reservation request, carrying the decision
// reasons to the counterparty as the response message. The declined
// slot echoes the request so the counterparty can tell which ask was
// refused; a request with no usable time leaves it zero.
func (d *Desk) Decline(ctx context.Context, req *Request, reasons []string) error {
	payload := ResponsePayload{
		Status:      StatusDeclined,
		Time:        req.Payload.Time,
		TZID:        req.Payload.TZID,
		RootRumorID: req.Root,
		Message:     strings.Join(reasons, "; "),
	}
	return d.respond(ctx, req, payload)
}

// respond builds the single response rumor, wraps it once for the
// counterparty and once for the business itself, and publishes both
// copies concurrently. The send succeeds if each copy landed on at
// least one endpoint.
func (d *Desk) respond(ctx context.Context, req *Request, payload ResponsePayload) error {
	content, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("reservation: encoding response payload: %w", err)
	}

	rumor := &envelope.Rumor{
		Kind:      KindReservationResponse,
		Author:    d.identity.Author(),
		CreatedAt: d.clock.Now().Unix(),
		Tags: record.Tags{
			record.ReferenceTag(req.Root, "", record.MarkerRoot),
			record.RoutingTag(req.ReplyKey, ""),
		},
		Content: content,
	}
	if err := rumor.Finalize(); err != nil {
		return err
	}

	theirCopy, err := d.enveloper.Wrap(rumor, req.ReplyKey, req.RelayHint)
	if err != nil {
		return fmt.Errorf("reservation: wrapping response for counterparty: %w", err)
	}
	// The self copy lets the business's other sessions reconstruct
	// the thread; it never carries the counterparty's relay hint.
	ourCopy, err := d.enveloper.Wrap(rumor, d.identity.Exchange(), "")
	if err != nil {
		return fmt.Errorf("reservation: wrapping response self copy: %w", err)
	}

	theirEndpoints := d.relays
	if req.RelayHint != "" && !containsEndpoint(d.relays, req.RelayHint) {
		theirEndpoints = append(append([]string(nil), d.relays...), req.RelayHint)
	}

	var wg sync.WaitGroup
	var theirResult, ourResult relay.PublishResult
	wg.Add(2)
	go func() {
		defer wg.Done()
		theirResult = d.publisher.Publish(ctx, theirCopy, theirEndpoints)
	}()
	go func() {
		defer wg.Done()
		ourResult = d.publisher.Publish(ctx, ourCopy, d.relays)
	}()
	wg.Wait()

	if theirResult.AllFailed() || ourResult.AllFailed() {
		d.logger.Error("reservation response publish failed",
			"root", req.Root.String(),
			"status", payload.Status,
			"counterparty_errors", theirResult.Errors(),
			"self_errors", ourResult.Errors())
		return fmt.Errorf("%w: root %s", ErrPublishFailed, req.Root)
	}
	d.logger.Info("reservation response published",
		"root", req.Root.String(),
		"status", payload.Status)
	return nil
}

func containsEndpoint(endpoints []string, endpoint string) bool {
	for _, e := range endpoints {
		if e == endpoint {
			return true
		}
	}
	return false
}
