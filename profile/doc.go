// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package profile loads business profiles published as replaceable
// profile records on relays.
//
// A business publishes one kind-0 record whose JSON content carries
// its public metadata; newer records with the same author supersede
// older ones. The reservation agent only consumes the opening-hours
// and timezone fields, which feed the auto-accept decision.
//
// Loader caches fetched profiles for a configurable TTL so the
// per-message decision path does not hit the relays every time.
package profile
