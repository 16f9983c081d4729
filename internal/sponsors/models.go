// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

// Package sponsors stores the tournament's site content: sponsor
// listings, past winners, and the funds-raised counter. Content lives
// in BadgerDB next to the session data; the dataset is a few dozen
// records, so every listing reads the full prefix.
package sponsors

import (
	"time"
)

// Sponsor tiers, highest first.
const (
	TierPlatinum = "platinum"
	TierGold     = "gold"
	TierSilver   = "silver"
	TierBronze   = "bronze"
)

// Sponsor is a tournament sponsor shown on the public site.
type Sponsor struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required,min=1,max=200"`
	Tier string `json:"tier" validate:"required,oneof=platinum gold silver bronze"`

	// WebsiteURL is the sponsor's site, linked from their logo.
	WebsiteURL string `json:"website_url,omitempty" validate:"omitempty,url,max=500"`

	// LogoPublicID is the media API public ID of the sponsor's logo.
	LogoPublicID string `json:"logo_public_id,omitempty" validate:"omitempty,max=300"`

	// LogoURL is the delivery URL for the logo.
	LogoURL string `json:"logo_url,omitempty" validate:"omitempty,url,max=500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Winner is a past tournament result shown on the winners page.
type Winner struct {
	ID       string   `json:"id"`
	Year     int      `json:"year" validate:"required,min=1980,max=2100"`
	Division string   `json:"division" validate:"required,min=1,max=100"`
	Names    []string `json:"names" validate:"required,min=1,dive,required,max=200"`

	// PhotoPublicID is the media API public ID of the winners photo.
	PhotoPublicID string `json:"photo_public_id,omitempty" validate:"omitempty,max=300"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FundsTotal is the running funds-raised counter shown on the home
// page and pushed to live viewers on every update.
type FundsTotal struct {
	TotalCents int64 `json:"total_cents" validate:"min=0"`
	GoalCents  int64 `json:"goal_cents" validate:"min=0"`

	UpdatedAt time.Time `json:"updated_at"`
}
