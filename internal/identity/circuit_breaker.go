// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/parfour/parfour/internal/config"
	"github.com/parfour/parfour/internal/logging"
	"github.com/parfour/parfour/internal/metrics"
)

// CircuitBreakerClient wraps Client with a circuit breaker so that a
// slow or unavailable identity provider fails fast instead of stacking
// up blocked requests. The breaker uses real time for its recovery
// windows; unit tests should exercise the wrapped client directly.
type CircuitBreakerClient struct {
	client ClientInterface
	cb     *gobreaker.CircuitBreaker[any]
	name   string
}

// NewCircuitBreakerClient creates an identity client protected by a
// circuit breaker. The breaker opens at a 60% failure rate over a
// minimum of 10 requests, allows 3 probes in half-open state, and
// waits 2 minutes before probing an open circuit.
func NewCircuitBreakerClient(cfg *config.IdentityConfig) *CircuitBreakerClient {
	return wrapWithBreaker(NewClient(cfg), "identity-api")
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

		// Client-side upstream errors (4xx) mean the provider is healthy
		// and the request was wrong; only transport failures and 5xx
		// count toward opening the circuit.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var ue *UpstreamError
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
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().
				Str("breaker", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("Circuit breaker state transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: name}
}

// execute wraps one provider call with circuit breaker protection.
func (cbc *CircuitBreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			return nil, &UpstreamError{Service: "identity", Message: "identity provider unavailable: " + err.Error()}
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

// castResult safely type-casts the circuit breaker result.
func castResult[T any](result any, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to a numeric metric value.
func stateToFloat(state gobreaker.State) float64 {
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

// stateToString converts circuit breaker state to a string for logging.
func stateToString(state gobreaker.State) string {
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

// SignInWithPassword performs the password grant with circuit breaker protection.
func (cbc *CircuitBreakerClient) SignInWithPassword(ctx context.Context, email, password string) (*ProviderSession, error) {
	return castResult[ProviderSession](cbc.execute(func() (any, error) {
		return cbc.client.SignInWithPassword(ctx, email, password)
	}))
}

// GetUser fetches a user record with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	return castResult[User](cbc.execute(func() (any, error) {
		return cbc.client.GetUser(ctx, accessToken)
	}))
}

// SignOut revokes a provider session with circuit breaker protection.
func (cbc *CircuitBreakerClient) SignOut(ctx context.Context, accessToken string) error {
	_, err := cbc.execute(func() (any, error) {
		return nil, cbc.client.SignOut(ctx, accessToken)
	})
	return err
}

// ListUsers fetches a page of accounts with circuit breaker protection.
func (cbc *CircuitBreakerClient) ListUsers(ctx context.Context, page, perPage int) (*UsersPage, error) {
	return castResult[UsersPage](cbc.execute(func() (any, error) {
		return cbc.client.ListUsers(ctx, page, perPage)
	}))
}

// UpdateUserRole updates role metadata with circuit breaker protection.
func (cbc *CircuitBreakerClient) UpdateUserRole(ctx context.Context, userID string, role Role) (*User, error) {
	return castResult[User](cbc.execute(func() (any, error) {
		return cbc.client.UpdateUserRole(ctx, userID, role)
	}))
}
