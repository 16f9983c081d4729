// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parfour/parfour/internal/identity"
	"github.com/parfour/parfour/internal/logging"
	"github.com/parfour/parfour/internal/metrics"
)

// Manager owns the session lifecycle: sign-in against the provider,
// session lookup with sliding expiry, and sign-out on both sides.
type Manager struct {
	store    Store
	provider identity.ClientInterface
	tokens   *identity.TokenVerifier
	ttl      time.Duration
}

// NewManager creates a session manager.
func NewManager(store Store, provider identity.ClientInterface, ttl time.Duration) *Manager {
	return &Manager{store: store, provider: provider, ttl: ttl}
}

// WithTokenVerifier enables local validation of provider-issued access
// tokens at sign-in. A token the provider hands us that does not
// verify against the shared secret means a misconfigured deployment,
// and no session is created for it.
func (m *Manager) WithTokenVerifier(v *identity.TokenVerifier) *Manager {
	m.tokens = v
	return m
}

// Store exposes the underlying session store.
func (m *Manager) Store() Store {
	return m.store
}

// Login authenticates against the identity provider and creates a
// server session. The provider error passes through untouched so the
// handler can map invalid credentials vs provider outage.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	ps, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if m.tokens != nil {
		if _, err := m.tokens.Verify(ps.AccessToken); err != nil {
			return nil, fmt.Errorf("provider issued an unverifiable access token: %w", err)
		}
	}

	session := NewSession(ps, m.ttl)
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	metrics.SessionsActive.Inc()
	logging.Ctx(ctx).Info().
		Str("user_id", session.UserID).
		Str("role", string(session.Role)).
		Msg("Session created")
	return session, nil
}

// Logout destroys a session locally and revokes it at the provider.
// The local session is always removed; a provider-side revocation
// failure is logged, not returned, since the cookie is dead either way.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	session, err := m.store.Get(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrSessionExpired) {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if err := m.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	metrics.SessionsActive.Dec()

	if session != nil && session.AccessToken != "" {
		if err := m.provider.SignOut(ctx, session.AccessToken); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Provider sign-out failed; local session removed")
		}
	}
	return nil
}

// GetSession looks a session up and slides its expiry forward.
func (m *Manager) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	session, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := m.store.Touch(ctx, sessionID, time.Now().Add(m.ttl)); err != nil && !errors.Is(err, ErrSessionNotFound) {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to touch session")
	}
	return session, nil
}

// MarkAdminAccess records that the session just served an admin area
// request. Called by the authorization gate; the timestamp drives the
// "currently in the admin area" check used by the demotion sequence.
// The write is field-scoped: a verification completing concurrently
// keeps its role and generation.
func (m *Manager) MarkAdminAccess(ctx context.Context, sessionID string) error {
	return m.store.MarkAdminAccess(ctx, sessionID, time.Now())
}
