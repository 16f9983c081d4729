// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/parfour/parfour/internal/config"
	"github.com/parfour/parfour/internal/identity"
	"github.com/parfour/parfour/internal/logging"
	"github.com/parfour/parfour/internal/metrics"
)

// CircuitBreakerClient wraps Client with a circuit breaker so a media
// API outage degrades to fast failures. Configuration errors
// (MissingCredentialError) and 4xx rejections pass through without
// counting toward the failure rate; only transport failures and 5xx
// responses can open the circuit.
type CircuitBreakerClient struct {
	client ClientInterface
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewCircuitBreakerClient creates a media client protected by a
// circuit breaker with the same thresholds used for the identity
// provider: 60% failure rate over at least 10 requests, 3 half-open
// probes, 2 minute recovery timeout.
func NewCircuitBreakerClient(cfg *config.MediaConfig) *CircuitBreakerClient {
	return wrapWithBreaker(NewClient(cfg), "media-api")
}

// wrapWithBreaker builds the breaker around any ClientInterface.
// Split out so tests can wrap a mock.
func wrapWithBreaker(client ClientInterface, name string) *CircuitBreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var mce *MissingCredentialError
			if errors.As(err, &mce) {
				return true
			}
			var ue *identity.UpstreamError
			if errors.As(err, &ue) {
				return !ue.Temporary()
			}
			return false
		},

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Str("breaker", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := breakerStateString(from)
			toStr := breakerStateString(to)

			logging.Info().
				Str("breaker", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("Circuit breaker state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: name}
}

// execute wraps one media API call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			return nil, &identity.UpstreamError{Service: "media", Message: "media service unavailable: " + err.Error()}
		}
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		counts := cbc.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return result, nil
}

// breakerStateFloat converts circuit breaker state to a numeric metric value.
func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// breakerStateString converts circuit breaker state to a string for logging.
func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Upload uploads an image with circuit breaker protection.
func (cbc *CircuitBreakerClient) Upload(ctx context.Context, filename string, content io.Reader, folder string) (*Asset, error) {
	result, err := cbc.execute(func() (any, error) {
		return cbc.client.Upload(ctx, filename, content, folder)
	})
	if err != nil {
		return nil, err
	}
	asset, ok := result.(*Asset)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return asset, nil
}

// Delete removes an asset with circuit breaker protection.
func (cbc *CircuitBreakerClient) Delete(ctx context.Context, publicID string) error {
	_, err := cbc.execute(func() (any, error) {
		return nil, cbc.client.Delete(ctx, publicID)
	})
	return err
}

// List returns a folder's assets with circuit breaker protection.
func (cbc *CircuitBreakerClient) List(ctx context.Context, folder string, maxResults int) ([]Asset, error) {
	result, err := cbc.execute(func() (any, error) {
		return cbc.client.List(ctx, folder, maxResults)
	})
	if err != nil {
		return nil, err
	}
	assets, ok := result.([]Asset)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return assets, nil
}
