// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

// Package events provides the in-process event bus.
//
// Identity changes (role promotions and demotions reported by the
// provider webhook) and funds-raised updates fan out through Watermill
// topics. The session verifier consumes identity changes to keep live
// sessions honest; the WebSocket hub consumes funds updates to push
// live totals to connected visitors.
package events

import (
	"time"

	"github.com/parfour/parfour/internal/identity"
)

// Topics.
const (
	// TopicIdentityChanged carries IdentityChangedEvent messages.
	TopicIdentityChanged = "identity.changed"

	// TopicFundsUpdated carries FundsUpdatedEvent messages.
	TopicFundsUpdated = "funds.updated"
)

// Identity change types.
const (
	IdentityChangeRoleUpdated = "role_updated"
	IdentityChangeUserDeleted = "user_deleted"
	IdentityChangeSignedOut   = "signed_out"
)

// IdentityChangedEvent reports that a user's provider-side state
// changed and any live session for that user must be re-evaluated.
type IdentityChangedEvent struct {
	// Type is one of the IdentityChange* constants.
	Type string `json:"type"`

	// UserID is the provider user ID.
	UserID string `json:"user_id"`

	// Role is the user's role after the change. Meaningful for
	// role_updated; ignored otherwise.
	Role identity.Role `json:"role,omitempty"`

	// OccurredAt is when the provider reported the change.
	OccurredAt time.Time `json:"occurred_at"`
}

// FundsUpdatedEvent reports a new funds-raised total for the
// tournament, pushed live to connected visitors.
type FundsUpdatedEvent struct {
	// TotalCents is the new funds-raised total, in cents.
	TotalCents int64 `json:"total_cents"`

	// GoalCents is the fundraising goal, in cents.
	GoalCents int64 `json:"goal_cents"`

	// UpdatedAt is when the total changed.
	UpdatedAt time.Time `json:"updated_at"`
}
