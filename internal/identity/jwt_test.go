// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testJWTSecret = "test-secret-for-token-verification-0123"

// signTestToken creates an HS256 token in the provider's claim shape.
func signTestToken(t *testing.T, secret string, mutate func(*AccessClaims)) string {
	t.Helper()

	claims := &AccessClaims{
		Email:        "golfer@example.org",
		UserMetadata: map[string]any{"role": "admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if mutate != nil {
		mutate(claims)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	v := NewTokenVerifier(testJWTSecret)

	claims, err := v.Verify(signTestToken(t, testJWTSecret, nil))
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("expected subject user-123, got %q", claims.Subject)
	}
	if claims.Role() != RoleAdmin {
		t.Errorf("expected admin role from claims, got %v", claims.Role())
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	v := NewTokenVerifier(testJWTSecret)

	_, err := v.Verify(signTestToken(t, "completely-different-secret-value-9999", nil))
	if err == nil {
		t.Fatal("expected verification failure for wrong secret")
	}
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	v := NewTokenVerifier(testJWTSecret)

	token := signTestToken(t, testJWTSecret, func(c *AccessClaims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	})

	_, err := v.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyMissingSubject(t *testing.T) {
	v := NewTokenVerifier(testJWTSecret)

	token := signTestToken(t, testJWTSecret, func(c *AccessClaims) {
		c.Subject = ""
	})

	if _, err := v.Verify(token); err == nil {
		t.Fatal("expected failure for missing subject")
	}
}

func TestVerifyRejectsNonHMACAlgorithm(t *testing.T) {
	v := NewTokenVerifier(testJWTSecret)

	// alg=none style tokens must never validate
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign none token: %v", err)
	}

	if _, err := v.Verify(signed); err == nil {
		t.Fatal("expected rejection of unsigned token")
	}
}

func TestVerifyGarbageToken(t *testing.T) {
	v := NewTokenVerifier(testJWTSecret)

	for _, garbage := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := v.Verify(garbage); err == nil {
			t.Errorf("expected failure for garbage token %q", garbage)
		}
	}
}
