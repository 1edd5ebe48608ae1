// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package reservation implements the reservation protocol on top of
// the envelope: the request/response/modification message shapes, the
// correlation rules that tie a response to the thread it answers, the
// accept/decline actions, and the auto-accept decision engine.
//
// A thread is named by its root rumor ID. A fresh request's root is
// the request rumor's own ID; a modification names the original
// thread's root through a reference tag marked "root", and a
// modification without that tag is dropped unanswered. Every response
// carries the root it answers in its payload.
//
// Threads move Requested -> Confirmed or Declined. A modification
// re-enters evaluation; Confirmed and Declined are terminal until the
// next modification arrives.
//
// Accepting (or declining) publishes two gift-wrapped copies of the
// same response rumor: one addressed to the counterparty and one
// addressed to the business itself, since the business's own outbound
// wraps are not otherwise retrievable from the network. Each copy
// succeeds when at least one relay accepted it; the action fails with
// [ErrPublishFailed] only when a copy reached no relay at all.
//
// [Decide] is the auto-accept rule engine: a pure function of the
// policy, the existing bookings, and the incoming request. It holds
// no state and touches no clock, so identical inputs always produce
// the identical decision.
package reservation
