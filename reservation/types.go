// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package reservation

import (
	"github.com/maitred-foundation/maitred/lib/ref"
)

// Rumor kinds owned by the reservation protocol.
const (
	// KindReservationRequest is the rumor kind of a reservation
	// request or modification.
	KindReservationRequest ref.Kind = 9901

	// KindReservationResponse is the rumor kind of a confirmation or
	// decline.
	KindReservationResponse ref.Kind = 9902
)

// Status is the outcome carried by a response payload.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusDeclined  Status = "declined"
)

// statusCancelled on a request payload marks the message as a
// cancellation of an existing thread rather than a new request.
const statusCancelled = "cancelled"

// RequestPayload is the JSON content of a reservation request rumor.
type RequestPayload struct {
	// PartySize is the number of guests. Must be positive.
	PartySize int `json:"party_size"`

	// Time is the requested start as a unix timestamp in seconds.
	Time int64 `json:"time,omitempty"`

	// TZID is the IANA timezone the request was made in. All
	// local-time reasoning (business hours) happens in this zone.
	TZID string `json:"tzid,omitempty"`

	// DurationMinutes is the requested duration. Zero means the
	// business's default applies.
	DurationMinutes int `json:"duration,omitempty"`

	// Status is empty for requests and modifications; "cancelled"
	// marks a cancellation.
	Status string `json:"status,omitempty"`

	// Notes is free-form text from the counterparty.
	Notes string `json:"notes,omitempty"`
}

// ResponsePayload is the JSON content of a reservation response
// rumor.
type ResponsePayload struct {
	Status Status `json:"status"`

	// Time and TZID are the confirmed (or declined) slot. They
	// reflect a business override when one was applied, not
	// necessarily the requested values.
	Time int64  `json:"time"`
	TZID string `json:"tzid"`

	// RootRumorID correlates this response to the thread it answers.
	RootRumorID ref.RecordID `json:"root_rumor_id"`

	PartySize       int    `json:"party_size,omitempty"`
	DurationMinutes int    `json:"duration,omitempty"`
	Message         string `json:"message,omitempty"`
}

// MessageType classifies an inbound reservation message.
type MessageType int

const (
	// TypeRequest is a fresh reservation request starting a new
	// thread.
	TypeRequest MessageType = iota
	// TypeModification re-opens an existing thread with changed
	// terms.
	TypeModification
	// TypeCancellation withdraws an existing thread.
	TypeCancellation
)

// String returns the classification name for logging.
func (t MessageType) String() string {
	switch t {
	case TypeRequest:
		return "request"
	case TypeModification:
		return "modification"
	case TypeCancellation:
		return "cancellation"
	default:
		return "unknown"
	}
}
