// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/maitred-foundation/maitred/lib/ref"
	"github.com/maitred-foundation/maitred/record"
)

// maxResponseBytes bounds how much of a relay response is read. A
// misbehaving relay cannot exhaust memory with an unbounded body.
const maxResponseBytes = 8 << 20

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client speaks the relay HTTP API. It is endpoint-agnostic: every
// method takes the relay base URL, so one Client serves all
// configured relays and shares its connection pool across them.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a relay client.
func NewClient(config ClientConfig) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{httpClient: httpClient, logger: logger}
}

// Publish submits one signed record to the relay. The relay validates
// the signature and stores the record; replaceable records supersede
// older revisions server-side.
func (c *Client) Publish(ctx context.Context, endpoint string, rec *record.Record) error {
	if rec.ID.IsZero() || len(rec.Sig) == 0 {
		return fmt.Errorf("relay: refusing to publish an unsigned record")
	}
	_, err := c.doRequest(ctx, http.MethodPost, endpoint, "/v1/records", nil, rec)
	if err != nil {
		return fmt.Errorf("relay: publish to %s failed: %w", endpoint, err)
	}
	return nil
}

// Filter selects records on fetch. Zero fields are unconstrained.
type Filter struct {
	// Kinds restricts results to the given record kinds.
	Kinds []ref.Kind
	// Authors restricts results to records by the given author keys.
	Authors []ref.PublicKey
	// Routing restricts results to records whose "p" tag addresses
	// the given exchange key. This is how a recipient finds its gift
	// wraps.
	Routing ref.ExchangeKey
	// Identifier restricts results to replaceable records with the
	// given "d" identifier.
	Identifier string
	// Since restricts results to records created at or after the
	// given unix timestamp.
	Since int64
	// Limit caps the number of returned records. Zero means the
	// relay's default.
	Limit int
}

// query renders the filter as URL query parameters.
func (f Filter) query() url.Values {
	values := url.Values{}
	for _, kind := range f.Kinds {
		values.Add("kind", kind.String())
	}
	for _, author := range f.Authors {
		values.Add("author", author.String())
	}
	if !f.Routing.IsZero() {
		values.Set("tag", record.TagRouting+":"+f.Routing.String())
	}
	if f.Identifier != "" {
		values.Set("identifier", f.Identifier)
	}
	if f.Since > 0 {
		values.Set("since", strconv.FormatInt(f.Since, 10))
	}
	if f.Limit > 0 {
		values.Set("limit", strconv.Itoa(f.Limit))
	}
	return values
}

// fetchResponse is the relay's fetch result shape.
type fetchResponse struct {
	Records []*record.Record `json:"records"`
}

// Fetch returns the records matching the filter. Records whose
// signature does not verify are dropped with a warning rather than
// returned — a relay cannot hand the caller forged records.
func (c *Client) Fetch(ctx context.Context, endpoint string, filter Filter) ([]*record.Record, error) {
	body, err := c.doRequest(ctx, http.MethodGet, endpoint, "/v1/records", filter.query(), nil)
	if err != nil {
		return nil, fmt.Errorf("relay: fetch from %s failed: %w", endpoint, err)
	}

	var response fetchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("relay: failed to parse fetch response from %s: %w", endpoint, err)
	}

	verified := response.Records[:0]
	for _, rec := range response.Records {
		if rec == nil {
			continue
		}
		if err := rec.Verify(); err != nil {
			c.logger.Warn("dropping record with invalid signature",
				"endpoint", endpoint, "record_id", rec.ID.String(), "error", err)
			continue
		}
		verified = append(verified, rec)
	}
	return verified, nil
}

// doRequest performs one HTTP request against a relay and returns the
// response body. Non-2xx responses are decoded into *Error.
func (c *Client) doRequest(ctx context.Context, method, endpoint, path string, query url.Values, requestBody any) ([]byte, error) {
	requestURL := strings.TrimRight(endpoint, "/") + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	// All relay error responses use the same JSON shape.
	relayErr := &Error{Endpoint: endpoint, StatusCode: response.StatusCode}
	if jsonErr := json.Unmarshal(responseBody, relayErr); jsonErr != nil || relayErr.Code == "" {
		relayErr.Code = CodeUnknown
		relayErr.Message = strings.TrimSpace(string(responseBody))
	}
	return nil, relayErr
}
