// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracking reports accepted reservations to the external
// booking-tracking endpoint. The call is best-effort analytics: every
// failure is logged and swallowed inside this package, so the accept
// action that triggered it never observes an error.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/maitred-foundation/maitred/lib/ref"
)

// reportTimeout bounds the tracking call independently of the
// caller's context, so a hung analytics endpoint cannot stall an
// accept action.
const reportTimeout = 5 * time.Second

// Event is one accepted reservation, as the tracking endpoint wants
// it.
type Event struct {
	// RootRumorID names the reservation thread.
	RootRumorID ref.RecordID `json:"root_rumor_id"`

	// ReservationTimestamp is the confirmed slot, unix seconds.
	ReservationTimestamp int64 `json:"reservation_timestamp"`

	// Month is the reservation's "YYYY-MM" in its own timezone.
	Month string `json:"month"`

	// Identity is the business author key the booking belongs to.
	Identity string `json:"identity"`
}

// ReporterConfig holds configuration for creating a Reporter.
type ReporterConfig struct {
	// Endpoint is the tracking service base URL. Empty disables
	// reporting entirely.
	Endpoint string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Reporter posts reservation events to the tracking endpoint.
type Reporter struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewReporter creates a Reporter.
func NewReporter(config ReporterConfig) *Reporter {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{endpoint: config.Endpoint, httpClient: httpClient, logger: logger}
}

// Report posts one event. It never returns an error: transport and
// server failures are logged at warn level and dropped. The caller's
// context carries cancellation; the reporter adds its own timeout on
// top.
func (r *Reporter) Report(ctx context.Context, event Event) {
	if r == nil || r.endpoint == "" {
		return
	}
	if err := r.post(ctx, event); err != nil {
		r.logger.Warn("booking tracking report failed",
			"root_rumor_id", event.RootRumorID.String(),
			"month", event.Month,
			"error", err)
	}
}

func (r *Reporter) post(ctx context.Context, event Event) error {
	ctx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.endpoint+"/reservations", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := r.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	io.Copy(io.Discard, io.LimitReader(response.Body, 4096))

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("tracking endpoint returned %d", response.StatusCode)
	}
	return nil
}

// MonthOf renders the "YYYY-MM" of a unix timestamp in the given
// IANA timezone, falling back to UTC when the zone does not resolve.
func MonthOf(unixSeconds int64, tzid string) string {
	location, err := time.LoadLocation(tzid)
	if err != nil {
		location = time.UTC
	}
	return time.Unix(unixSeconds, 0).In(location).Format("2006-01")
}
