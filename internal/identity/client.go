// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package identity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/parfour/parfour/internal/config"
	"github.com/parfour/parfour/internal/metrics"
)

// maxErrorBodySize limits how much of an error response body is read.
// Prevents unbounded memory allocation on large upstream error pages.
const maxErrorBodySize = 64 * 1024

// ClientInterface defines the identity provider operations. Implemented
// by Client for production and by mocks for testing.
//
// All methods accept a context for cancellation and return typed
// responses or an *UpstreamError on provider failures.
type ClientInterface interface {
	SignInWithPassword(ctx context.Context, email, password string) (*ProviderSession, error)
	GetUser(ctx context.Context, accessToken string) (*User, error)
	SignOut(ctx context.Context, accessToken string) error
	ListUsers(ctx context.Context, page, perPage int) (*UsersPage, error)
	UpdateUserRole(ctx context.Context, userID string, role Role) (*User, error)
}

// Client is the HTTP client for the hosted identity provider's REST API.
// It speaks the GoTrue dialect: password grant for sign-in, bearer
// tokens for user-scoped calls, and a server-only service key for the
// admin endpoints.
type Client struct {
	baseURL    string
	publicKey  string
	serviceKey string
	httpClient *http.Client
}

// NewClient creates an identity provider client from configuration.
func NewClient(cfg *config.IdentityConfig) *Client {
	return &Client{
		baseURL:    trimTrailingSlash(cfg.URL),
		publicKey:  cfg.PublicKey,
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// SignInWithPassword performs the password grant and returns the
// provider session with its access token and user record.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*ProviderSession, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	var session ProviderSession
	err := c.doJSON(ctx, http.MethodPost, "/token?grant_type=password", c.publicKey, payload, &session)
	if err != nil {
		metrics.IdentityAPICalls.WithLabelValues("sign_in", "failure").Inc()
		return nil, err
	}
	if session.AccessToken == "" {
		metrics.IdentityAPICalls.WithLabelValues("sign_in", "failure").Inc()
		return nil, &UpstreamError{Service: "identity", StatusCode: http.StatusOK, Message: "sign-in response missing access token"}
	}

	metrics.IdentityAPICalls.WithLabelValues("sign_in", "success").Inc()
	return &session, nil
}

// GetUser fetches the user record for an access token. This is the
// authoritative read used to verify sessions and refresh roles.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	err := c.doJSON(ctx, http.MethodGet, "/user", accessToken, nil, &user)
	if err != nil {
		metrics.IdentityAPICalls.WithLabelValues("get_user", "failure").Inc()
		return nil, err
	}

	metrics.IdentityAPICalls.WithLabelValues("get_user", "success").Inc()
	return &user, nil
}

// SignOut revokes the provider session behind an access token. A
// provider-side failure is reported but the caller should still drop
// its local session.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	err := c.doJSON(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
	if err != nil {
		metrics.IdentityAPICalls.WithLabelValues("sign_out", "failure").Inc()
		return err
	}

	metrics.IdentityAPICalls.WithLabelValues("sign_out", "success").Inc()
	return nil
}

// ListUsers fetches one page of the account list via the provider's
// admin API. Requires the service key; page is 1-based.
func (c *Client) ListUsers(ctx context.Context, page, perPage int) (*UsersPage, error) {
	if c.serviceKey == "" {
		return nil, fmt.Errorf("identity service key not configured")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}

	path := "/admin/users?" + url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}.Encode()

	var result UsersPage
	err := c.doJSON(ctx, http.MethodGet, path, c.serviceKey, nil, &result)
	if err != nil {
		metrics.IdentityAPICalls.WithLabelValues("list_users", "failure").Inc()
		return nil, err
	}

	metrics.IdentityAPICalls.WithLabelValues("list_users", "success").Inc()
	return &result, nil
}

// UpdateUserRole sets the role in a user's metadata via the provider's
// admin API. Requires the service key. The provider fans the change out
// to its webhook, which is how live sessions learn about demotions.
func (c *Client) UpdateUserRole(ctx context.Context, userID string, role Role) (*User, error) {
	if c.serviceKey == "" {
		return nil, fmt.Errorf("identity service key not configured")
	}
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	payload := map[string]any{
		"user_metadata": map[string]any{
			metadataRoleKey: string(role),
		},
	}

	var user User
	err := c.doJSON(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(userID), c.serviceKey, payload, &user)
	if err != nil {
		metrics.IdentityAPICalls.WithLabelValues("update_role", "failure").Inc()
		return nil, err
	}

	metrics.IdentityAPICalls.WithLabelValues("update_role", "success").Inc()
	return &user, nil
}

// doJSON performs one request against the provider. The bearer token is
// either a user access token or the service key depending on the
// endpoint; the publishable key always rides along as the apikey
// header, matching the provider's REST contract.
func (c *Client) doJSON(ctx context.Context, method, path, bearer string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.publicKey)
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Service: "identity", Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return ParseUpstreamError("identity", resp.StatusCode, errBody)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{
			Service:    "identity",
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to decode response: %v", err),
		}
	}
	return nil
}
