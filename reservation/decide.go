// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package reservation

import (
	"time"

	"github.com/maitred-foundation/maitred/lib/hours"
	"github.com/maitred-foundation/maitred/lib/ref"
)

// Policy is the immutable auto-accept configuration, supplied fresh
// on every evaluation. There is no hidden global state: two calls to
// Decide with the same policy and inputs yield the same decision.
type Policy struct {
	// Enabled gates the whole engine; when false every request is
	// rejected for a human to handle.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// CheckBusinessHours rejects requests outside the published
	// opening hours, resolved in the request's timezone.
	CheckBusinessHours bool `json:"checkBusinessHours" yaml:"check_business_hours"`

	// CheckConflicts rejects requests that would exceed the
	// simultaneous-reservation capacity.
	CheckConflicts bool `json:"checkConflicts" yaml:"check_conflicts"`

	MinPartySize int `json:"minPartySize" yaml:"min_party_size"`
	MaxPartySize int `json:"maxPartySize" yaml:"max_party_size"`

	// DefaultDurationMinutes applies when a request names no
	// duration.
	DefaultDurationMinutes int `json:"defaultDurationMinutes" yaml:"default_duration_minutes"`

	// MaxSimultaneousReservations caps how many bookings may overlap
	// the requested (buffered) interval before the engine rejects.
	MaxSimultaneousReservations int `json:"maxSimultaneousReservations" yaml:"max_simultaneous_reservations"`

	// ConflictBufferMinutes extends the requested interval on both
	// ends: bookings separated by less than the buffer are treated
	// as conflicting even when their core intervals do not touch.
	ConflictBufferMinutes int `json:"conflictBufferMinutes" yaml:"conflict_buffer_minutes"`
}

// Booking is an existing reservation the engine checks conflicts
// against. Intervals are absolute; timezone only matters for the
// business-hours lookup, not overlap arithmetic.
type Booking struct {
	Root  ref.RecordID
	Start time.Time
	End   time.Time
}

// Decision is the engine's verdict. Reasons is empty on accept and
// names every violated rule on reject (the first hard violation
// short-circuits, so there is exactly one).
type Decision struct {
	Accept  bool
	Reasons []string
}

// Rejection reasons.
const (
	ReasonDisabled             = "auto-accept-disabled"
	ReasonPartySizeBelowMin    = "party-size-below-minimum"
	ReasonPartySizeAboveMax    = "party-size-above-maximum"
	ReasonMissingTime          = "missing-reservation-time"
	ReasonInvalidTimezone      = "invalid-timezone"
	ReasonOutsideBusinessHours = "outside-business-hours"
	ReasonCapacityExhausted    = "capacity-exhausted"
)

func reject(reason string) Decision {
	return Decision{Accept: false, Reasons: []string{reason}}
}

// Decide evaluates a request against the policy, the existing
// bookings, and the business's opening schedule. It is a pure
// function: no clock, no I/O, no retained state.
//
// Checks run in a fixed order and short-circuit on the first hard
// violation: enabled, party-size bounds, business hours (in the
// request's timezone), then buffered conflict count. A nil schedule
// skips the business-hours check — a business that publishes no hours
// has not constrained them.
func Decide(payload RequestPayload, policy Policy, bookings []Booking, schedule *hours.Schedule) Decision {
	if !policy.Enabled {
		return reject(ReasonDisabled)
	}

	if payload.PartySize < policy.MinPartySize {
		return reject(ReasonPartySizeBelowMin)
	}
	if payload.PartySize > policy.MaxPartySize {
		return reject(ReasonPartySizeAboveMax)
	}

	if payload.Time <= 0 {
		return reject(ReasonMissingTime)
	}

	if policy.CheckBusinessHours {
		location, err := time.LoadLocation(payload.TZID)
		if err != nil || payload.TZID == "" {
			return reject(ReasonInvalidTimezone)
		}
		local := time.Unix(payload.Time, 0).In(location)
		if schedule != nil && !schedule.OpenOn(local) {
			return reject(ReasonOutsideBusinessHours)
		}
	}

	duration := time.Duration(payload.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = time.Duration(policy.DefaultDurationMinutes) * time.Minute
	}

	if policy.CheckConflicts {
		buffer := time.Duration(policy.ConflictBufferMinutes) * time.Minute
		start := time.Unix(payload.Time, 0).Add(-buffer)
		end := time.Unix(payload.Time, 0).Add(duration).Add(buffer)

		overlapping := 0
		for _, booking := range bookings {
			if booking.Start.Before(end) && start.Before(booking.End) {
				overlapping++
			}
		}
		if overlapping >= policy.MaxSimultaneousReservations {
			return reject(ReasonCapacityExhausted)
		}
	}

	return Decision{Accept: true}
}
