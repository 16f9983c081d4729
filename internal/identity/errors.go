// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package identity

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// UpstreamError reports a failed call to an external service. The
// upstream's own error message is preserved verbatim so operators see
// what the service actually said, alongside the HTTP status.
type UpstreamError struct {
	// Service names the upstream ("identity" or "media").
	Service string

	// StatusCode is the HTTP status returned by the upstream, or 0 when
	// the request never completed.
	StatusCode int

	// Message is the upstream's error message, or a transport error
	// description when no response was received.
	Message string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s upstream error: %s", e.Service, e.Message)
	}
	return fmt.Sprintf("%s upstream error (HTTP %d): %s", e.Service, e.StatusCode, e.Message)
}

// Temporary reports whether retrying could plausibly succeed.
func (e *UpstreamError) Temporary() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// upstreamErrorBody matches the error shapes the identity and media
// providers return: {"error":{"message":"..."}}, {"message":"..."},
// {"msg":"..."}, and the OAuth-style {"error":"...","error_description":"..."}.
// The error field is raw because it may be either an object or a string.
type upstreamErrorBody struct {
	Error            json.RawMessage `json:"error,omitempty"`
	Message          string          `json:"message,omitempty"`
	Msg              string          `json:"msg,omitempty"`
	ErrorDescription string          `json:"error_description,omitempty"`
}

// ParseUpstreamError builds an UpstreamError from a non-2xx response
// body. When the body matches none of the known error shapes, the
// status text is used so the error is never empty.
func ParseUpstreamError(service string, statusCode int, body []byte) *UpstreamError {
	msg := extractErrorMessage(body)
	if msg == "" {
		msg = http.StatusText(statusCode)
		if msg == "" {
			msg = "unknown error"
		}
	}
	return &UpstreamError{Service: service, StatusCode: statusCode, Message: msg}
}

// extractErrorMessage pulls the first non-empty message field from a
// JSON error body. Returns empty string when nothing matches.
func extractErrorMessage(body []byte) string {
	var parsed upstreamErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}

	if len(parsed.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(parsed.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	if parsed.Msg != "" {
		return parsed.Msg
	}
	if parsed.ErrorDescription != "" {
		return parsed.ErrorDescription
	}

	// OAuth-style string error code, e.g. {"error":"invalid_grant"}
	if len(parsed.Error) > 0 {
		var code string
		if err := json.Unmarshal(parsed.Error, &code); err == nil {
			return code
		}
	}
	return ""
}
