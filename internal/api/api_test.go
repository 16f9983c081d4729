// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/parfour/parfour/internal/auth"
	"github.com/parfour/parfour/internal/authz"
	"github.com/parfour/parfour/internal/config"
	"github.com/parfour/parfour/internal/events"
	"github.com/parfour/parfour/internal/identity"
	"github.com/parfour/parfour/internal/media"
	"github.com/parfour/parfour/internal/sponsors"
	ws "github.com/parfour/parfour/internal/websocket"

	badger "github.com/dgraph-io/badger/v4"
)

// mockIdentity is a scriptable identity provider client.
type mockIdentity struct {
	mu            sync.Mutex
	signInFn      func(email, password string) (*identity.ProviderSession, error)
	getUserFn     func(accessToken string) (*identity.User, error)
	listUsersFn   func(page, perPage int) (*identity.UsersPage, error)
	updateRoleFn  func(userID string, role identity.Role) (*identity.User, error)
	signOutCalls  []string
	getUserCalled int
}

func (m *mockIdentity) SignInWithPassword(_ context.Context, email, password string) (*identity.ProviderSession, error) {
	if m.signInFn != nil {
		return m.signInFn(email, password)
	}
	return nil, &identity.UpstreamError{Service: "identity", StatusCode: 400, Message: "invalid_grant"}
}

func (m *mockIdentity) GetUser(_ context.Context, accessToken string) (*identity.User, error) {
	m.mu.Lock()
	m.getUserCalled++
	m.mu.Unlock()
	if m.getUserFn != nil {
		return m.getUserFn(accessToken)
	}
	return nil, &identity.UpstreamError{Service: "identity", StatusCode: 401, Message: "invalid token"}
}

func (m *mockIdentity) SignOut(_ context.Context, accessToken string) error {
	m.mu.Lock()
	m.signOutCalls = append(m.signOutCalls, accessToken)
	m.mu.Unlock()
	return nil
}

func (m *mockIdentity) ListUsers(_ context.Context, page, perPage int) (*identity.UsersPage, error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(page, perPage)
	}
	return &identity.UsersPage{}, nil
}

func (m *mockIdentity) UpdateUserRole(_ context.Context, userID string, role identity.Role) (*identity.User, error) {
	if m.updateRoleFn != nil {
		return m.updateRoleFn(userID, role)
	}
	return &identity.User{ID: userID, UserMetadata: map[string]any{"role": string(role)}}, nil
}

// mockMedia is a scriptable media client.
type mockMedia struct {
	mu       sync.Mutex
	uploadFn func(filename string) (*media.Asset, error)
	deleteFn func(publicID string) error
	listFn   func(folder string, maxResults int) ([]media.Asset, error)
	deleted  []string
}

func (m *mockMedia) Upload(_ context.Context, filename string, _ io.Reader, _ string) (*media.Asset, error) {
	if m.uploadFn != nil {
		return m.uploadFn(filename)
	}
	return &media.Asset{PublicID: "sponsors/" + filename, SecureURL: "https://media.example/" + filename}, nil
}

func (m *mockMedia) List(_ context.Context, folder string, maxResults int) ([]media.Asset, error) {
	if m.listFn != nil {
		return m.listFn(folder, maxResults)
	}
	return []media.Asset{}, nil
}

func (m *mockMedia) Delete(_ context.Context, publicID string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, publicID)
	m.mu.Unlock()
	if m.deleteFn != nil {
		return m.deleteFn(publicID)
	}
	return nil
}

const testWebhookSecret = "whsec-test"

// testEnv bundles everything a handler test needs.
type testEnv struct {
	server   *Server
	handler  http.Handler
	identity *mockIdentity
	media    *mockMedia
	store    auth.Store
	bus      *events.Bus
	hub      *ws.Hub
	verifier *auth.Verifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.Security.CookieName = "parfour_session"
	cfg.Security.CookieSecure = false
	cfg.Security.SessionTimeout = time.Hour
	cfg.Security.RateLimitDisabled = true
	cfg.Security.Casbin.CacheEnabled = true
	cfg.Security.Casbin.CacheTTL = time.Minute
	cfg.Identity.WebhookSecret = testWebhookSecret

	enforcer, err := authz.NewEnforcer(cfg.Security.Casbin)
	if err != nil {
		t.Fatalf("failed to build enforcer: %v", err)
	}
	t.Cleanup(enforcer.Close)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	store := auth.NewMemoryStore()
	provider := &mockIdentity{}
	mediaClient := &mockMedia{}
	bus := events.NewBus()
	t.Cleanup(func() {
		_ = bus.Close()
	})

	sessions := auth.NewManager(store, provider, cfg.Security.SessionTimeout)
	verifier := auth.NewVerifier(store, provider, bus)
	hub := ws.NewHub(bus)

	srv := NewServer(cfg, sessions, verifier, authz.NewGate(enforcer),
		provider, mediaClient, sponsors.NewStore(db), bus, hub)

	return &testEnv{
		server:   srv,
		handler:  srv.Routes(),
		identity: provider,
		media:    mediaClient,
		store:    store,
		bus:      bus,
		hub:      hub,
		verifier: verifier,
	}
}

// signIn scripts a successful provider sign-in and returns the session
// cookie for subsequent requests.
func (env *testEnv) signIn(t *testing.T, role string) *http.Cookie {
	t.Helper()

	env.identity.signInFn = func(email, _ string) (*identity.ProviderSession, error) {
		return &identity.ProviderSession{
			AccessToken: "access-" + email,
			User: identity.User{
				ID:           "user-" + email,
				Email:        email,
				UserMetadata: map[string]any{"role": role},
			},
		}, nil
	}

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login",
		`{"email":"test@example.org","password":"pw"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "parfour_session" && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("login response carried no session cookie")
	return nil
}

func (env *testEnv) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

// doWebhook posts a signed webhook body.
func (env *testEnv) doWebhook(t *testing.T, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signature)

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

// decodeEnvelope parses a response envelope.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not a valid envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return resp
}

func errorDetailString(t *testing.T, resp APIResponse, key string) string {
	t.Helper()

	if resp.Error == nil {
		t.Fatal("expected error envelope")
	}
	details, ok := resp.Error.Details.(map[string]any)
	if !ok {
		t.Fatalf("error details = %T, want map", resp.Error.Details)
	}
	val, _ := details[key].(string)
	return val
}

func dataField(t *testing.T, resp APIResponse, key string) any {
	t.Helper()

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T, want map", resp.Data)
	}
	return data[key]
}
