// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/parfour/parfour/internal/events"
	"github.com/parfour/parfour/internal/identity"
	"github.com/parfour/parfour/internal/logging"
	"github.com/parfour/parfour/internal/metrics"
)

// Default cadence for the background verification loop.
const (
	defaultVerifyInterval  = 5 * time.Minute
	defaultCleanupInterval = 15 * time.Minute
)

// Verifier keeps live sessions in sync with the identity provider.
//
// Two inputs feed it: provider webhooks relayed over the event bus, and
// a periodic re-verification of every stored session via the provider's
// user endpoint. Concurrent verifications of the same session are
// serialized by the session's generation counter; only the most
// recently initiated check may apply its result.
type Verifier struct {
	store    Store
	provider identity.ClientInterface
	bus      *events.Bus

	verifyInterval  time.Duration
	cleanupInterval time.Duration

	// demoted holds session IDs whose owner was demoted while working
	// in the admin area. The browser consumes the marker exactly once
	// to drive the redirect away from the admin pages.
	demoted sync.Map
}

// NewVerifier creates a session verifier.
func NewVerifier(store Store, provider identity.ClientInterface, bus *events.Bus) *Verifier {
	return &Verifier{
		store:           store,
		provider:        provider,
		bus:             bus,
		verifyInterval:  defaultVerifyInterval,
		cleanupInterval: defaultCleanupInterval,
	}
}

// Serve runs the webhook consumer and the periodic verification and
// cleanup loops until the context is cancelled. It satisfies the
// supervisor's service contract.
func (v *Verifier) Serve(ctx context.Context) error {
	changes, err := v.bus.SubscribeIdentityChanged(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to identity changes: %w", err)
	}

	verifyTicker := time.NewTicker(v.verifyInterval)
	defer verifyTicker.Stop()
	cleanupTicker := time.NewTicker(v.cleanupInterval)
	defer cleanupTicker.Stop()

	logging.Info().
		Dur("verify_interval", v.verifyInterval).
		Dur("cleanup_interval", v.cleanupInterval).
		Msg("Session verifier started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-changes:
			if !ok {
				return errors.New("identity change subscription closed")
			}
			v.handleIdentityChange(ctx, event)

		case <-verifyTicker.C:
			v.verifyAll(ctx)

		case <-cleanupTicker.C:
			count, err := v.store.CleanupExpired(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("Session cleanup failed")
			} else if count > 0 {
				metrics.SessionsActive.Sub(float64(count))
				logging.Debug().Int("count", count).Msg("Expired sessions removed")
			}
		}
	}
}

// String names the verifier in supervisor logs.
func (v *Verifier) String() string {
	return "session-verifier"
}

// Refresh re-verifies one session against the provider and applies the
// result to the store. If another verification of the same session was
// initiated while this one's provider call was in flight, the response
// is discarded and ErrStaleVerification is returned: the most recently
// initiated check always wins, regardless of response arrival order.
func (v *Verifier) Refresh(ctx context.Context, sessionID string) (*Session, error) {
	session, err := v.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Claim a generation before the provider call.
	session.Generation++
	gen := session.Generation
	if err := v.store.Update(ctx, session); err != nil {
		return nil, err
	}

	user, err := v.provider.GetUser(ctx, session.AccessToken)
	if err != nil {
		metrics.SessionVerifications.WithLabelValues("error").Inc()
		return nil, err
	}

	// Re-read: a newer verification may have started meanwhile.
	current, err := v.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current.Generation != gen {
		metrics.SessionVerifications.WithLabelValues("stale").Inc()
		logging.Ctx(ctx).Debug().
			Str("user_id", current.UserID).
			Uint64("expected", gen).
			Uint64("actual", current.Generation).
			Msg("Discarding superseded verification response")
		return nil, ErrStaleVerification
	}

	return v.applyVerifiedRole(ctx, current, user.Role(), user.Email)
}

// applyVerifiedRole applies a provider-confirmed role to a session. A
// demotion while the session is working in the admin area triggers the
// forced sign-out sequence instead of a plain role update.
func (v *Verifier) applyVerifiedRole(ctx context.Context, session *Session, role identity.Role, email string) (*Session, error) {
	demoted := session.Role.IsAdmin() && !role.IsAdmin()
	promoted := !session.Role.IsAdmin() && role.IsAdmin()

	if demoted && session.InAdminArea() {
		if err := v.forceSignOut(ctx, session); err != nil {
			return nil, err
		}
		metrics.SessionVerifications.WithLabelValues("demoted").Inc()
		return nil, ErrSessionNotFound
	}

	session.Role = role
	if email != "" {
		session.Email = email
	}
	session.LastVerifiedAt = time.Now()
	if err := v.store.Update(ctx, session); err != nil {
		return nil, err
	}

	switch {
	case demoted:
		metrics.SessionRoleChanges.WithLabelValues("demotion").Inc()
	case promoted:
		metrics.SessionRoleChanges.WithLabelValues("promotion").Inc()
	}
	metrics.SessionVerifications.WithLabelValues("ok").Inc()
	return session, nil
}

// forceSignOut runs the demotion sequence for a session caught inside
// the admin area, in strict order: the local role drops to user first,
// then the session is revoked on both sides, then the redirect marker
// is set so the browser navigates away. Each step happens exactly once.
func (v *Verifier) forceSignOut(ctx context.Context, session *Session) error {
	logging.Ctx(ctx).Info().
		Str("user_id", session.UserID).
		Msg("Role revoked while in admin area; forcing sign-out")

	// Step 1: drop the role so any request racing the deletion below
	// already sees a non-admin session.
	session.Role = identity.RoleUser
	session.LastVerifiedAt = time.Now()
	if err := v.store.Update(ctx, session); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	metrics.SessionRoleChanges.WithLabelValues("demotion").Inc()

	// Step 2: revoke the session locally and at the provider.
	if err := v.store.Delete(ctx, session.ID); err != nil {
		return err
	}
	metrics.SessionsActive.Dec()
	if session.AccessToken != "" {
		if err := v.provider.SignOut(ctx, session.AccessToken); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Provider sign-out failed during forced sign-out")
		}
	}

	// Step 3: leave the redirect marker for the browser to consume.
	v.demoted.Store(session.ID, time.Now())
	return nil
}

// ConsumeDemotion reports whether the session was force-signed-out by
// a demotion, clearing the marker. The first caller gets true; repeats
// get false, so the redirect fires once.
func (v *Verifier) ConsumeDemotion(sessionID string) bool {
	_, loaded := v.demoted.LoadAndDelete(sessionID)
	return loaded
}

// handleIdentityChange applies a provider webhook event to all live
// sessions of the affected user.
func (v *Verifier) handleIdentityChange(ctx context.Context, event events.IdentityChangedEvent) {
	log := logging.With().
		Str("type", string(event.Type)).
		Str("user_id", event.UserID).
		Logger()

	switch event.Type {
	case events.IdentityChangeRoleUpdated:
		// The payload's role claim is advisory. Each affected session
		// goes through Refresh, which re-fetches the verified user from
		// the provider and carries the generation guard; the claim
		// itself is never applied.
		sessions, err := v.store.GetByUserID(ctx, event.UserID)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load sessions for role update")
			return
		}
		for _, session := range sessions {
			if _, err := v.Refresh(ctx, session.ID); err != nil &&
				!errors.Is(err, ErrSessionNotFound) && !errors.Is(err, ErrStaleVerification) {
				log.Warn().Err(err).Msg("Failed to re-verify session after role change")
			}
		}
		log.Info().Int("sessions", len(sessions)).Str("claimed_role", string(event.Role)).Msg("Sessions re-verified")

	case events.IdentityChangeUserDeleted, events.IdentityChangeSignedOut:
		count, err := v.store.DeleteByUserID(ctx, event.UserID)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to revoke sessions")
			return
		}
		if count > 0 {
			metrics.SessionsActive.Sub(float64(count))
		}
		log.Info().Int("sessions", count).Msg("Sessions revoked")

	default:
		log.Debug().Msg("Ignoring unknown identity change type")
	}
}

// verifyAll re-verifies every live session. Sessions verified recently
// are skipped so webhook-driven updates don't cause redundant calls.
func (v *Verifier) verifyAll(ctx context.Context) {
	sessions, err := v.store.ListSessions(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to enumerate sessions for verification")
		return
	}

	for _, session := range sessions {
		if time.Since(session.LastVerifiedAt) < v.verifyInterval/2 {
			continue
		}
		if _, err := v.Refresh(ctx, session.ID); err != nil {
			switch {
			case errors.Is(err, ErrStaleVerification),
				errors.Is(err, ErrSessionNotFound),
				errors.Is(err, ErrSessionExpired):
				// Superseded or already revoked; nothing to do.
			default:
				logging.Warn().Err(err).
					Str("user_id", session.UserID).
					Msg("Session verification failed")
			}
		}
	}
}
