// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay talks to the record relays: independent network nodes
// that accept and republish signed records. No single relay is
// trusted exclusively; any one accepting a record makes it
// discoverable.
//
// [Client] is the per-endpoint HTTP surface: publish one record,
// fetch records by filter. [Coordinator] is the multi-destination
// publish path: it fans one finished record out to every configured
// endpoint concurrently, applies an independent timeout per endpoint,
// and aggregates the outcome. The operation as a whole succeeds if at
// least one endpoint accepted the record; it is a hard failure only
// when every endpoint rejected or timed out. The coordinator performs
// exactly one attempt per endpoint per call — retries belong to the
// caller.
package relay
