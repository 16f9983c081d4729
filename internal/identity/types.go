// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

// Package identity provides the client for the hosted identity provider.
//
// The provider owns all account state: passwords, email confirmation,
// and per-user metadata. Parfour authenticates against it with the
// password grant, verifies issued access tokens locally, and mirrors
// the provider's role metadata into its own sessions. All calls are
// protected by a circuit breaker so a provider outage degrades to
// fast failures instead of piled-up timeouts.
package identity

import "time"

// User is an account as reported by the identity provider.
type User struct {
	ID               string         `json:"id"`
	Aud              string         `json:"aud,omitempty"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone,omitempty"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	LastSignInAt     *time.Time     `json:"last_sign_in_at,omitempty"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
	AppMetadata      map[string]any `json:"app_metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Role returns the user's resolved role.
func (u *User) Role() Role {
	return RoleFromMetadata(u.UserMetadata)
}

// ProviderSession is the token bundle returned by a successful
// password grant.
type ProviderSession struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// UsersPage is one page of the admin user listing.
type UsersPage struct {
	Users []User `json:"users"`
	Aud   string `json:"aud,omitempty"`
}
