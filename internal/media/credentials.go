// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

// Package media provides the signed client for the hosted media
// service that stores sponsor photos.
//
// Every mutating call to the media API carries an SHA-1 request
// signature computed over the canonicalized parameters plus the
// account secret. Credentials are validated before any request is
// built; a deployment missing any of them fails with an error naming
// exactly which values are absent, never with a confusing upstream
// rejection.
package media

import (
	"fmt"
	"strings"

	"github.com/parfour/parfour/internal/config"
)

// Credential field names, as reported by MissingCredentialError.
const (
	CredentialCloudName = "cloud_name"
	CredentialAPIKey    = "api_key"
	CredentialAPISecret = "api_secret"
)

// Credentials is the media account credential triple.
type Credentials struct {
	// CloudName identifies the media account.
	CloudName string

	// APIKey is sent with signed requests.
	APIKey string

	// APISecret is mixed into signatures. Never leaves the server.
	APISecret string
}

// CredentialsFromConfig builds Credentials from configuration.
func CredentialsFromConfig(cfg *config.MediaConfig) Credentials {
	return Credentials{
		CloudName: cfg.CloudName,
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	}
}

// Validate returns a MissingCredentialError when any credential is
// empty. Called before every operation so no network request is ever
// attempted with an incomplete configuration.
func (c Credentials) Validate() error {
	var missing []string
	if c.CloudName == "" {
		missing = append(missing, CredentialCloudName)
	}
	if c.APIKey == "" {
		missing = append(missing, CredentialAPIKey)
	}
	if c.APISecret == "" {
		missing = append(missing, CredentialAPISecret)
	}
	if len(missing) > 0 {
		return &MissingCredentialError{Missing: missing}
	}
	return nil
}

// MissingCredentialError reports which media credentials are unset.
// It enumerates every missing field so the operator can fix the
// deployment in one pass.
type MissingCredentialError struct {
	// Missing lists the absent credential fields, in declaration order.
	Missing []string
}

// Error implements the error interface.
func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("media credentials missing: %s", strings.Join(e.Missing, ", "))
}

// Has reports whether the named credential is among the missing ones.
func (e *MissingCredentialError) Has(name string) bool {
	for _, m := range e.Missing {
		if m == name {
			return true
		}
	}
	return false
}
