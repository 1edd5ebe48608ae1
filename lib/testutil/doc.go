// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides small helpers shared by tests: channel
// receives with timeouts so a broken concurrent path fails the test
// instead of hanging it.
package testutil
