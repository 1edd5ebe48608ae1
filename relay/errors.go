// Copyright 2026 The Maitred Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"fmt"
)

// Error is a structured error response from a relay. Callers use
// errors.As to extract the structured information:
//
//	var relayErr *relay.Error
//	if errors.As(err, &relayErr) {
//	    if relayErr.Code == relay.CodeInvalidRecord { ... }
//	}
type Error struct {
	// Endpoint is the relay that produced the error.
	Endpoint string `json:"-"`
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
	// Code is the relay error code (e.g., "invalid_record").
	Code string `json:"code"`
	// Message is the human-readable description from the relay.
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("relay %s: %s (%d): %s", e.Endpoint, e.Code, e.StatusCode, e.Message)
}

// Relay error codes.
const (
	CodeInvalidRecord = "invalid_record"
	CodeBadSignature  = "bad_signature"
	CodeRateLimited   = "rate_limited"
	CodeUnknown       = "unknown"
)

// IsCode checks whether err is a *relay.Error with the given code.
func IsCode(err error, code string) bool {
	var relayErr *Error
	if errors.As(err, &relayErr) {
		return relayErr.Code == code
	}
	return false
}
