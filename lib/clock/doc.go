// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time for testability. Production code
// injects [Real]; tests inject [Fake] and drive it with Advance, so
// cache expiry and timeout behavior are deterministic instead of
// sleep-based.
//
// Anything that reads the current time or waits for a duration (the
// profile cache TTL, poll loops) takes a Clock instead of calling the
// time package directly.
package clock
