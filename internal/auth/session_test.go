// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/parfour/parfour/internal/identity"
)

// mockProvider is a scriptable identity client for tests.
type mockProvider struct {
	mu sync.Mutex

	signInFn  func(ctx context.Context, email, password string) (*identity.ProviderSession, error)
	getUserFn func(ctx context.Context, accessToken string) (*identity.User, error)

	signOutCalls []string
}

func (m *mockProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.ProviderSession, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return &identity.ProviderSession{
		AccessToken: "token-" + email,
		TokenType:   "bearer",
		User: identity.User{
			ID:    "user-" + email,
			Email: email,
		},
	}, nil
}

func (m *mockProvider) GetUser(ctx context.Context, accessToken string) (*identity.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, accessToken)
	}
	return &identity.User{ID: "user-1"}, nil
}

func (m *mockProvider) SignOut(_ context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOutCalls = append(m.signOutCalls, accessToken)
	return nil
}

func (m *mockProvider) signedOut() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.signOutCalls...)
}

func (m *mockProvider) ListUsers(_ context.Context, _, _ int) (*identity.UsersPage, error) {
	return &identity.UsersPage{}, nil
}

func (m *mockProvider) UpdateUserRole(_ context.Context, userID string, role identity.Role) (*identity.User, error) {
	return &identity.User{ID: userID, UserMetadata: map[string]any{"role": string(role)}}, nil
}

func adminProviderSession(userID string) *identity.ProviderSession {
	return &identity.ProviderSession{
		AccessToken: "access-" + userID,
		TokenType:   "bearer",
		User: identity.User{
			ID:           userID,
			Email:        userID + "@example.com",
			UserMetadata: map[string]any{"role": "admin"},
		},
	}
}

func TestNewSessionCapturesProviderState(t *testing.T) {
	session := NewSession(adminProviderSession("u1"), time.Hour)

	if session.ID == "" {
		t.Fatal("expected a generated session ID")
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64 hex chars", len(session.ID))
	}
	if session.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", session.UserID)
	}
	if session.Role != identity.RoleAdmin {
		t.Errorf("Role = %q, want admin", session.Role)
	}
	if session.AccessToken != "access-u1" {
		t.Errorf("AccessToken = %q", session.AccessToken)
	}
	if session.IsExpired() {
		t.Error("fresh session should not be expired")
	}
	if session.Generation != 0 {
		t.Errorf("Generation = %d, want 0", session.Generation)
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := generateSessionID()
		if seen[id] {
			t.Fatalf("duplicate session ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestInAdminArea(t *testing.T) {
	tests := []struct {
		name            string
		lastAdminAccess time.Time
		want            bool
	}{
		{"never entered", time.Time{}, false},
		{"just now", time.Now(), true},
		{"five minutes ago", time.Now().Add(-5 * time.Minute), true},
		{"an hour ago", time.Now().Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{LastAdminAccess: tt.lastAdminAccess}
			if got := s.InAdminArea(); got != tt.want {
				t.Errorf("InAdminArea() = %v, want %v", got, tt.want)
			}
		})
	}
}

// runStoreTests exercises the Store contract against any backend.
func runStoreTests(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		if _, err := store.Get(ctx, "nope"); err != ErrSessionNotFound {
			t.Errorf("Get(missing) = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("create and get", func(t *testing.T) {
		session := NewSession(adminProviderSession("store-u1"), time.Hour)
		if err := store.Create(ctx, session); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		got, err := store.Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.UserID != "store-u1" || got.Role != identity.RoleAdmin {
			t.Errorf("round trip mismatch: %+v", got)
		}
	})

	t.Run("update", func(t *testing.T) {
		session := NewSession(adminProviderSession("store-u2"), time.Hour)
		if err := store.Create(ctx, session); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		session.Role = identity.RoleUser
		session.Generation = 7
		if err := store.Update(ctx, session); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		got, err := store.Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Role != identity.RoleUser || got.Generation != 7 {
			t.Errorf("update not persisted: %+v", got)
		}
	})

	t.Run("update missing", func(t *testing.T) {
		ghost := NewSession(adminProviderSession("ghost"), time.Hour)
		if err := store.Update(ctx, ghost); err != ErrSessionNotFound {
			t.Errorf("Update(missing) = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("expired session", func(t *testing.T) {
		session := NewSession(adminProviderSession("store-u3"), -time.Minute)
		if err := store.Create(ctx, session); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if _, err := store.Get(ctx, session.ID); err != ErrSessionExpired {
			t.Errorf("Get(expired) = %v, want ErrSessionExpired", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		session := NewSession(adminProviderSession("store-u4"), time.Hour)
		if err := store.Create(ctx, session); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := store.Delete(ctx, session.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get(ctx, session.ID); err != ErrSessionNotFound {
			t.Errorf("Get(deleted) = %v, want ErrSessionNotFound", err)
		}
		// Deleting again is not an error.
		if err := store.Delete(ctx, session.ID); err != nil {
			t.Errorf("second Delete = %v, want nil", err)
		}
	})

	t.Run("by user id", func(t *testing.T) {
		first := NewSession(adminProviderSession("multi"), time.Hour)
		second := NewSession(adminProviderSession("multi"), time.Hour)
		other := NewSession(adminProviderSession("other"), time.Hour)
		for _, s := range []*Session{first, second, other} {
			if err := store.Create(ctx, s); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		sessions, err := store.GetByUserID(ctx, "multi")
		if err != nil {
			t.Fatalf("GetByUserID failed: %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("GetByUserID returned %d sessions, want 2", len(sessions))
		}

		count, err := store.DeleteByUserID(ctx, "multi")
		if err != nil {
			t.Fatalf("DeleteByUserID failed: %v", err)
		}
		if count != 2 {
			t.Errorf("DeleteByUserID removed %d, want 2", count)
		}
		if _, err := store.Get(ctx, other.ID); err != nil {
			t.Errorf("unrelated session was removed: %v", err)
		}
	})

	t.Run("touch extends expiry", func(t *testing.T) {
		session := NewSession(adminProviderSession("store-u5"), time.Minute)
		if err := store.Create(ctx, session); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		newExpiry := time.Now().Add(2 * time.Hour)
		if err := store.Touch(ctx, session.ID, newExpiry); err != nil {
			t.Fatalf("Touch failed: %v", err)
		}

		got, err := store.Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.ExpiresAt.Before(time.Now().Add(time.Hour)) {
			t.Errorf("expiry not extended: %v", got.ExpiresAt)
		}
	})

	t.Run("mark admin access is field-scoped", func(t *testing.T) {
		session := NewSession(adminProviderSession("store-u6"), time.Hour)
		if err := store.Create(ctx, session); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		// A verification landed since this session was last read.
		verified := *session
		verified.Role = identity.RoleUser
		verified.Generation = 3
		if err := store.Update(ctx, &verified); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		if err := store.MarkAdminAccess(ctx, session.ID, time.Now()); err != nil {
			t.Fatalf("MarkAdminAccess failed: %v", err)
		}

		got, err := store.Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !got.InAdminArea() {
			t.Error("admin access time not recorded")
		}
		if got.Role != identity.RoleUser || got.Generation != 3 {
			t.Errorf("MarkAdminAccess clobbered verified state: role=%q generation=%d", got.Role, got.Generation)
		}

		if err := store.MarkAdminAccess(ctx, "nope", time.Now()); err != ErrSessionNotFound {
			t.Errorf("MarkAdminAccess(missing) = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("cleanup expired", func(t *testing.T) {
		live := NewSession(adminProviderSession("cleanup-live"), time.Hour)
		dead := NewSession(adminProviderSession("cleanup-dead"), -time.Minute)
		for _, s := range []*Session{live, dead} {
			if err := store.Create(ctx, s); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		count, err := store.CleanupExpired(ctx)
		if err != nil {
			t.Fatalf("CleanupExpired failed: %v", err)
		}
		if count < 1 {
			t.Errorf("CleanupExpired removed %d, want at least 1", count)
		}
		if _, err := store.Get(ctx, live.ID); err != nil {
			t.Errorf("live session was removed: %v", err)
		}
	})

	t.Run("list sessions", func(t *testing.T) {
		session := NewSession(adminProviderSession("list-u"), time.Hour)
		if err := store.Create(ctx, session); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		sessions, err := store.ListSessions(ctx)
		if err != nil {
			t.Fatalf("ListSessions failed: %v", err)
		}
		found := false
		for _, s := range sessions {
			if s.ID == session.ID {
				found = true
			}
			if s.IsExpired() {
				t.Errorf("ListSessions returned expired session %s", s.ID)
			}
		}
		if !found {
			t.Error("ListSessions did not include created session")
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, NewMemoryStore())
}

func TestMemoryStoreCopiesSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	session := NewSession(adminProviderSession("copy-u"), time.Hour)
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Mutating the caller's copy must not affect the stored session.
	session.Role = identity.RoleUser

	got, err := store.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Role != identity.RoleAdmin {
		t.Errorf("stored session mutated through caller pointer: role = %q", got.Role)
	}
}
