// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token validation errors.
var (
	ErrTokenInvalid = errors.New("access token is invalid")
	ErrTokenExpired = errors.New("access token has expired")
)

// AccessClaims are the claims carried by a provider-issued access token.
// The role travels in user_metadata, same as in the user record.
type AccessClaims struct {
	Email        string         `json:"email,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// Role resolves the role embedded in the token claims.
func (c *AccessClaims) Role() Role {
	return RoleFromMetadata(c.UserMetadata)
}

// TokenVerifier validates provider-issued access tokens locally, using
// the provider's shared HS256 secret. Local verification lets the auth
// middleware reject garbage tokens without a network round trip; the
// provider remains authoritative for revocation via GetUser.
type TokenVerifier struct {
	secret []byte
	leeway time.Duration
}

// NewTokenVerifier creates a verifier for the given shared secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		leeway: 30 * time.Second,
	}
}

// Verify parses and validates an access token, returning its claims.
// The signing method is pinned to HMAC; tokens signed with any other
// algorithm are rejected regardless of signature validity.
func (v *TokenVerifier) Verify(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithLeeway(v.leeway), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return claims, nil
}
