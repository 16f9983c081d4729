// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

// Package auth provides server sessions synced to the hosted identity
// provider.
//
// A session is created after a successful provider sign-in and stored
// server-side, keyed by an opaque cookie token. The provider stays
// authoritative: sessions are periodically re-verified against it, and
// provider webhooks push role changes into live sessions through the
// event bus. Stale verification responses are discarded with a
// per-session generation counter so the newest initiated check always
// wins.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/parfour/parfour/internal/identity"
)

// Session-related errors.
var (
	// ErrSessionNotFound is returned when a session is not in the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when the session exists but expired.
	ErrSessionExpired = errors.New("session expired")

	// ErrStaleVerification is returned when a verification response is
	// discarded because a newer verification was initiated meanwhile.
	ErrStaleVerification = errors.New("verification response superseded")
)

// adminAccessWindow is how recently a session must have touched the
// admin area to count as "currently in" it. A demotion arriving inside
// this window forces the full sign-out sequence.
const adminAccessWindow = 10 * time.Minute

// Session is an authenticated server session.
type Session struct {
	// ID is the opaque session token stored in the cookie.
	ID string `json:"id"`

	// UserID is the provider user ID.
	UserID string `json:"user_id"`

	// Email is the account email at sign-in time.
	Email string `json:"email"`

	// Role is the user's role as last confirmed by the provider.
	Role identity.Role `json:"role"`

	// AccessToken is the provider access token backing this session.
	AccessToken string `json:"access_token"`

	// RefreshToken is the provider refresh token.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Generation counts verification attempts initiated for this
	// session. A verification result is applied only if no newer
	// attempt started while it was in flight.
	Generation uint64 `json:"generation"`

	// LastAdminAccess is the last time this session served an admin
	// area request. Zero when the session never entered the admin area.
	LastAdminAccess time.Time `json:"last_admin_access,omitempty"`

	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`

	// LastVerifiedAt is the last successful re-verification against
	// the provider.
	LastVerifiedAt time.Time `json:"last_verified_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// InAdminArea reports whether the session accessed the admin area
// recently enough to be treated as currently inside it.
func (s *Session) InAdminArea() bool {
	if s.LastAdminAccess.IsZero() {
		return false
	}
	return time.Since(s.LastAdminAccess) < adminAccessWindow
}

// NewSession creates a session from a provider sign-in.
func NewSession(ps *identity.ProviderSession, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:             generateSessionID(),
		UserID:         ps.User.ID,
		Email:          ps.User.Email,
		Role:           ps.User.Role(),
		AccessToken:    ps.AccessToken,
		RefreshToken:   ps.RefreshToken,
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
		LastAccessedAt: now,
		LastVerifiedAt: now,
	}
}

// generateSessionID generates a cryptographically secure session ID.
func generateSessionID() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(bytes)
}

// Store defines the session storage backend.
type Store interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID. Returns ErrSessionNotFound if not
	// found, ErrSessionExpired if it exists but expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Update replaces an existing session. Returns ErrSessionNotFound
	// if not found.
	Update(ctx context.Context, session *Session) error

	// Delete removes a session by ID. Deleting a missing session is
	// not an error.
	Delete(ctx context.Context, id string) error

	// GetByUserID returns all live sessions for a user.
	GetByUserID(ctx context.Context, userID string) ([]*Session, error)

	// DeleteByUserID removes all sessions for a user, returning the
	// count deleted.
	DeleteByUserID(ctx context.Context, userID string) (int, error)

	// ListSessions returns every live session. Used by the background
	// verifier to sweep the whole store.
	ListSessions(ctx context.Context) ([]*Session, error)

	// Touch updates LastAccessedAt and extends expiry.
	Touch(ctx context.Context, id string, newExpiry time.Time) error

	// MarkAdminAccess sets LastAdminAccess without touching any other
	// field, so it cannot clobber a concurrent verification's role or
	// generation write.
	MarkAdminAccess(ctx context.Context, id string, at time.Time) error

	// CleanupExpired removes all expired sessions, returning the count.
	CleanupExpired(ctx context.Context) (int, error)
}

// MemoryStore is an in-memory Store for development and tests.
// Production uses BadgerStore.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates a new in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Create stores a new session.
func (s *MemoryStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

// Get retrieves a session by ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	copied := *session
	return &copied, nil
}

// Update replaces an existing session.
func (s *MemoryStore) Update(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}
	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

// Delete removes a session by ID.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// GetByUserID returns all live sessions for a user.
func (s *MemoryStore) GetByUserID(_ context.Context, userID string) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []*Session
	for _, session := range s.sessions {
		if session.UserID == userID && !session.IsExpired() {
			copied := *session
			sessions = append(sessions, &copied)
		}
	}
	return sessions, nil
}

// DeleteByUserID removes all sessions for a user.
func (s *MemoryStore) DeleteByUserID(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// ListSessions returns every live session.
func (s *MemoryStore) ListSessions(_ context.Context) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []*Session
	for _, session := range s.sessions {
		if !session.IsExpired() {
			copied := *session
			sessions = append(sessions, &copied)
		}
	}
	return sessions, nil
}

// Touch updates the session's last accessed time and extends expiry.
func (s *MemoryStore) Touch(_ context.Context, id string, newExpiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	session.ExpiresAt = newExpiry
	return nil
}

// MarkAdminAccess sets the admin-area access time.
func (s *MemoryStore) MarkAdminAccess(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.LastAdminAccess = at
	return nil
}

// CleanupExpired removes all expired sessions.
func (s *MemoryStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}
