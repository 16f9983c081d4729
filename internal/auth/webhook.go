// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/parfour/parfour/internal/events"
	"github.com/parfour/parfour/internal/identity"
)

// Webhook-related errors.
var (
	// ErrWebhookSignature is returned when the signature header does not
	// match the payload.
	ErrWebhookSignature = errors.New("webhook signature mismatch")

	// ErrWebhookEventIgnored is returned for event types Parfour does
	// not act on.
	ErrWebhookEventIgnored = errors.New("webhook event type not handled")
)

// Provider webhook event types.
const (
	webhookUserUpdated = "user.updated"
	webhookUserDeleted = "user.deleted"
	webhookSignedOut   = "user.signed_out"
)

// webhookPayload is the provider's webhook envelope.
type webhookPayload struct {
	Type string `json:"type"`
	User struct {
		ID           string         `json:"id"`
		Email        string         `json:"email"`
		UserMetadata map[string]any `json:"user_metadata"`
	} `json:"user"`
	OccurredAt time.Time `json:"occurred_at"`
}

// WebhookVerifier authenticates and decodes identity provider webhooks.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a webhook verifier with the shared secret
// configured at the provider.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// VerifySignature checks the hex-encoded HMAC-SHA256 signature header
// against the raw request body.
func (w *WebhookVerifier) VerifySignature(body []byte, signature string) error {
	if len(w.secret) == 0 {
		return errors.New("webhook secret not configured")
	}

	expected, err := hex.DecodeString(signature)
	if err != nil {
		return ErrWebhookSignature
	}

	mac := hmac.New(sha256.New, w.secret)
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), expected) {
		return ErrWebhookSignature
	}
	return nil
}

// Decode verifies the signature and maps the payload to an internal
// identity change event. Events Parfour does not act on return
// ErrWebhookEventIgnored; the handler acks them without publishing.
func (w *WebhookVerifier) Decode(body []byte, signature string) (events.IdentityChangedEvent, error) {
	var event events.IdentityChangedEvent

	if err := w.VerifySignature(body, signature); err != nil {
		return event, err
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return event, fmt.Errorf("decode webhook payload: %w", err)
	}
	if payload.User.ID == "" {
		return event, errors.New("webhook payload missing user id")
	}

	event.UserID = payload.User.ID
	event.OccurredAt = payload.OccurredAt
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	switch payload.Type {
	case webhookUserUpdated:
		event.Type = events.IdentityChangeRoleUpdated
		event.Role = identity.RoleFromMetadata(payload.User.UserMetadata)
	case webhookUserDeleted:
		event.Type = events.IdentityChangeUserDeleted
	case webhookSignedOut:
		event.Type = events.IdentityChangeSignedOut
	default:
		return event, ErrWebhookEventIgnored
	}
	return event, nil
}

// SignWebhook computes the signature the provider would send for a
// payload. Used by tests and local tooling.
func SignWebhook(body, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
