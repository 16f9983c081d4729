// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/parfour/parfour/internal/metrics"
)

// RateLimitConfig defines rate limit parameters for a class of
// endpoints.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Endpoint-class rate limits.
var (
	// RateLimitLogin is very strict: failed sign-ins against the
	// identity provider should never turn into a brute-force vector.
	RateLimitLogin = RateLimitConfig{Requests: 5, Window: 5 * time.Minute}

	// RateLimitAdmin covers admin writes, including media uploads.
	RateLimitAdmin = RateLimitConfig{Requests: 30, Window: time.Minute}

	// RateLimitWebSocket bounds the upgrade rate, not message volume.
	RateLimitWebSocket = RateLimitConfig{Requests: 30, Window: time.Minute}
)

// RateLimiter builds per-endpoint rate limiting middleware. Disabling
// it turns every limiter into a pass-through, for development.
type RateLimiter struct {
	disabled bool
	requests int
	window   time.Duration
}

// NewRateLimiter creates a rate limiter factory with the default
// request budget.
func NewRateLimiter(requests int, window time.Duration, disabled bool) *RateLimiter {
	return &RateLimiter{
		disabled: disabled,
		requests: requests,
		window:   window,
	}
}

// Default returns the default per-IP limiter.
func (rl *RateLimiter) Default() func(http.Handler) http.Handler {
	return rl.Custom(RateLimitConfig{Requests: rl.requests, Window: rl.window}, "default")
}

// Login returns the strict limiter for the login endpoint.
func (rl *RateLimiter) Login() func(http.Handler) http.Handler {
	return rl.Custom(RateLimitLogin, "login")
}

// Admin returns the limiter for admin write endpoints.
func (rl *RateLimiter) Admin() func(http.Handler) http.Handler {
	return rl.Custom(RateLimitAdmin, "admin")
}

// WebSocket returns the limiter for WebSocket upgrades.
func (rl *RateLimiter) WebSocket() func(http.Handler) http.Handler {
	return rl.Custom(RateLimitWebSocket, "websocket")
}

// Custom returns a per-IP limiter with the given budget. Rejections
// are counted per endpoint class.
func (rl *RateLimiter) Custom(cfg RateLimitConfig, endpoint string) func(http.Handler) http.Handler {
	if rl.disabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(endpoint).Inc()
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
}
