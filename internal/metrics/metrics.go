// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

// Package metrics provides Prometheus instrumentation for Parfour:
// API latency and throughput, session lifecycle, authorization
// decisions, media API calls, circuit breakers, and WebSocket
// connections.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Session Metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Current number of active server sessions",
		},
	)

	SessionVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_verifications_total",
			Help: "Total number of session verifications against the identity provider",
		},
		[]string{"result"}, // "valid", "invalid", "stale", "error"
	)

	SessionRoleChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_role_changes_total",
			Help: "Total number of role changes applied to live sessions",
		},
		[]string{"direction"}, // "promoted", "demoted"
	)

	// Authorization Metrics
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"decision"}, // "allowed", "denied_unauthenticated", "denied_insufficient_role"
	)

	AuthzCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_hits_total",
			Help: "Total number of authorization decision cache hits",
		},
	)

	AuthzCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "authz_cache_misses_total",
			Help: "Total number of authorization decision cache misses",
		},
	)

	// Media API Metrics
	MediaSignatures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_signatures_total",
			Help: "Total number of media request signatures generated",
		},
	)

	MediaAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_api_calls_total",
			Help: "Total number of calls to the media API",
		},
		[]string{"operation", "result"}, // operation: "upload", "delete"; result: "success", "failure"
	)

	MediaAPICallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_api_call_duration_seconds",
			Help:    "Duration of media API calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	MediaBatchDeleteItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_batch_delete_items_total",
			Help: "Total number of items processed by batch deletes",
		},
		[]string{"result"}, // "deleted", "failed"
	)

	// Identity Provider Metrics
	IdentityAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_api_calls_total",
			Help: "Total number of calls to the identity provider",
		},
		[]string{"operation", "result"},
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_webhook_events_total",
			Help: "Total number of identity change webhook events received",
		},
		[]string{"type", "result"}, // result: "accepted", "rejected"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breakers",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures per circuit breaker",
		},
		[]string{"name"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"type"},
	)

	// Content Store Metrics
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_store_operations_total",
			Help: "Total number of content store operations",
		},
		[]string{"operation", "result"},
	)

	FundsUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "funds_updates_total",
			Help: "Total number of funds-raised updates published",
		},
	)
)

// RecordAPIRequest records metrics for a completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
