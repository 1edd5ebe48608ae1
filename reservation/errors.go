// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package reservation

import "errors"

// Sentinel errors of the reservation protocol. Callers match with
// errors.Is.
var (
	// ErrMissingReservationFields means a response cannot be built
	// because the required time and tzid are absent from both the
	// request and the business override. Raised before any
	// cryptographic or network work.
	ErrMissingReservationFields = errors.New("reservation: missing required time and tzid")

	// ErrMissingRootReference means a modification or cancellation
	// rumor carries no reference tag marked root, so the thread it
	// belongs to cannot be determined. The message is dropped, not
	// answered.
	ErrMissingRootReference = errors.New("reservation: cannot find root rumor id")

	// ErrPublishFailed means one of the two response copies reached
	// no relay at all. The action failed and the caller must retry.
	ErrPublishFailed = errors.New("reservation: failed to publish gift wraps")

	// ErrNotReservationMessage means the opened rumor is not a
	// reservation request at all. Dropped at the dispatch boundary.
	ErrNotReservationMessage = errors.New("reservation: rumor is not a reservation message")
)
