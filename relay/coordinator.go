// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maitred-foundation/maitred/record"
)

// DefaultPublishTimeout bounds each per-endpoint publish when the
// coordinator is configured without one.
const DefaultPublishTimeout = 10 * time.Second

// EndpointResult is the outcome of publishing to one endpoint.
type EndpointResult struct {
	Endpoint string
	OK       bool
	Err      error
}

// PublishResult aggregates per-endpoint outcomes for one publish
// call. It is consumed immediately by the caller and never persisted.
type PublishResult struct {
	Results []EndpointResult
}

// SomeSucceeded reports whether at least one endpoint accepted the
// record. One accepting endpoint makes the record discoverable, so
// this is the overall success condition.
func (r PublishResult) SomeSucceeded() bool {
	for _, result := range r.Results {
		if result.OK {
			return true
		}
	}
	return false
}

// AllFailed reports whether every endpoint rejected or timed out.
// A publish to zero endpoints counts as all-failed: the record
// reached nowhere.
func (r PublishResult) AllFailed() bool {
	return !r.SomeSucceeded()
}

// Errors returns the per-endpoint failures, for logging.
func (r PublishResult) Errors() []error {
	var errs []error
	for _, result := range r.Results {
		if result.Err != nil {
			errs = append(errs, result.Err)
		}
	}
	return errs
}

// Publisher broadcasts a finished record to relay endpoints. The
// reservation protocol depends on this abstraction; [Coordinator] is
// the production implementation and tests substitute fakes.
type Publisher interface {
	Publish(ctx context.Context, rec *record.Record, endpoints []string) PublishResult
}

// CoordinatorConfig holds configuration for creating a Coordinator.
type CoordinatorConfig struct {
	// Client performs the per-endpoint HTTP requests. Required.
	Client *Client
	// Timeout bounds each endpoint's publish independently. If zero,
	// DefaultPublishTimeout is used.
	Timeout time.Duration
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Coordinator fans one record out to several independent relays and
// classifies the overall outcome. Endpoint publishes run concurrently
// with no fail-fast: a slow or dead relay never blocks its siblings,
// and a failure on one does not abort the others.
type Coordinator struct {
	client  *Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(config CoordinatorConfig) *Coordinator {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{client: config.Client, timeout: timeout, logger: logger}
}

// Publish sends the record to every endpoint concurrently and returns
// the aggregated result. Exactly one attempt is made per endpoint;
// the caller decides whether to resubmit after a total failure.
func (c *Coordinator) Publish(ctx context.Context, rec *record.Record, endpoints []string) PublishResult {
	results := make([]EndpointResult, len(endpoints))

	var wg sync.WaitGroup
	for i, endpoint := range endpoints {
		wg.Add(1)
		go func() {
			defer wg.Done()
			publishCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			err := c.client.Publish(publishCtx, endpoint, rec)
			results[i] = EndpointResult{Endpoint: endpoint, OK: err == nil, Err: err}
			if err != nil {
				c.logger.Warn("relay publish failed",
					"endpoint", endpoint, "record_id", rec.ID.String(), "error", err)
			}
		}()
	}
	wg.Wait()

	result := PublishResult{Results: results}
	if result.AllFailed() {
		c.logger.Error("record reached no relay",
			"record_id", rec.ID.String(), "endpoints", len(endpoints))
	}
	return result
}
