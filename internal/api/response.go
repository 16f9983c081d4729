// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package api

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/parfour/parfour/internal/logging"
	"github.com/parfour/parfour/internal/middleware"
)

// API error codes returned in the error envelope.
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeAuthentication      = "AUTHENTICATION_ERROR"
	ErrCodeAuthorization       = "AUTHORIZATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeRateLimit           = "RATE_LIMIT_EXCEEDED"
	ErrCodeMediaNotConfigured  = "MEDIA_NOT_CONFIGURED"
	ErrCodeUpstream            = "UPSTREAM_ERROR"
	ErrCodePartialBatchFailure = "PARTIAL_BATCH_FAILURE"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// APIResponse is the uniform response envelope.
type APIResponse struct {
	Status   string    `json:"status"` // "success" or "error"
	Data     any       `json:"data,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata carries response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// APIError is the error half of the envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

var validate = validator.New()

// respondJSON writes a success envelope. Cacheable GET responses get an
// ETag so repeat fetches of sponsor and winner lists can short-circuit.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	resp := APIResponse{
		Status: "success",
		Data:   data,
		Metadata: &Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
	}

	body, err := json.Marshal(resp)
	if err != nil {
		logging.Err(err).Str("path", r.URL.Path).Msg("Failed to encode response")
		http.Error(w, `{"status":"error","error":{"code":"INTERNAL_ERROR","message":"encoding failure"}}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Vary", "Accept-Encoding")

	if r.Method == http.MethodGet && status == http.StatusOK {
		etag := generateETag(body)
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "private, max-age=0, must-revalidate")
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// respondError writes an error envelope and logs it. User-supplied
// values in the message are sanitized before logging to keep log lines
// single-line and injection-free.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondErrorDetails(w, r, status, code, message, nil)
}

func respondErrorDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	logging.Warn().
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Str("code", code).
		Str("message", sanitizeLogValue(message)).
		Msg("Request failed")

	resp := APIResponse{
		Status: "error",
		Metadata: &Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Err(err).Msg("Failed to encode error response")
	}
}

// generateETag computes a weak ETag over the response body. FNV-1a is
// fast and collision-resistant enough for cache validation.
func generateETag(body []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(body)
	return fmt.Sprintf(`W/"%x"`, h.Sum64())
}

// sanitizeLogValue strips control characters from values that end up in
// log lines, preventing log injection via crafted input.
func sanitizeLogValue(s string) string {
	const maxLen = 256
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteString("\\n")
		case r == '\r':
			b.WriteString("\\r")
		case r == '\t':
			b.WriteString("\\t")
		case r < 0x20 || r == 0x7f:
			b.WriteString(fmt.Sprintf("\\x%02x", r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// decodeAndValidate decodes a JSON request body into dst and runs
// struct validation. Returns false after writing the error response.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var fields []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
			}
		}
		respondErrorDetails(w, r, http.StatusBadRequest, ErrCodeValidation, "request validation failed", fields)
		return false
	}
	return true
}
