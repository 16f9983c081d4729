// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
// Missing external credentials are reported by name so the operator
// knows exactly which values to set; nothing is silently defaulted.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateIdentity(); err != nil {
		return err
	}

	if err := c.validateMedia(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates server configuration.
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

// validateIdentity validates identity provider configuration.
func (c *Config) validateIdentity() error {
	missing := c.missingIdentityVars()
	if len(missing) > 0 {
		return fmt.Errorf("identity provider configuration incomplete, missing: %s",
			strings.Join(missing, ", "))
	}

	if !strings.HasPrefix(c.Identity.URL, "http://") && !strings.HasPrefix(c.Identity.URL, "https://") {
		return fmt.Errorf("IDENTITY_URL must start with http:// or https://")
	}
	if c.IsProduction() && strings.HasPrefix(c.Identity.URL, "http://") {
		return fmt.Errorf("IDENTITY_URL must use https:// when ENVIRONMENT=production")
	}
	if len(c.Identity.JWTSecret) < 32 {
		return fmt.Errorf("IDENTITY_JWT_SECRET must be at least 32 characters")
	}
	return nil
}

// missingIdentityVars returns the names of unset required identity variables.
func (c *Config) missingIdentityVars() []string {
	var missing []string
	if c.Identity.URL == "" {
		missing = append(missing, "IDENTITY_URL")
	}
	if c.Identity.PublicKey == "" {
		missing = append(missing, "IDENTITY_PUBLIC_KEY")
	}
	if c.Identity.JWTSecret == "" {
		missing = append(missing, "IDENTITY_JWT_SECRET")
	}
	return missing
}

// validateMedia validates media service configuration. All three
// credentials are required together; the error names every missing one
// so a misconfigured deployment fails fast with a complete picture.
func (c *Config) validateMedia() error {
	missing := c.MissingMediaVars()
	if len(missing) > 0 {
		return fmt.Errorf("media service configuration incomplete, missing: %s",
			strings.Join(missing, ", "))
	}

	if c.Media.RequestsPerSecond <= 0 {
		return fmt.Errorf("MEDIA_RPS must be positive")
	}
	return nil
}

// MissingMediaVars returns the names of unset required media variables.
func (c *Config) MissingMediaVars() []string {
	var missing []string
	if c.Media.CloudName == "" {
		missing = append(missing, "MEDIA_CLOUD_NAME")
	}
	if c.Media.APIKey == "" {
		missing = append(missing, "MEDIA_API_KEY")
	}
	if c.Media.APISecret == "" {
		missing = append(missing, "MEDIA_API_SECRET")
	}
	return missing
}

// validSessionStores defines the allowed session store backends.
var validSessionStores = map[string]bool{
	"badger": true,
	"memory": true,
}

// validateSecurity validates security configuration.
func (c *Config) validateSecurity() error {
	if !validSessionStores[c.Security.SessionStore] {
		return fmt.Errorf("SESSION_STORE must be one of: badger, memory")
	}

	if c.Security.SessionStore == "memory" && c.IsProduction() {
		return fmt.Errorf("SESSION_STORE=memory is not allowed when ENVIRONMENT=production; " +
			"sessions must survive restarts, use SESSION_STORE=badger")
	}

	if c.Security.SessionTimeout < time.Minute {
		return fmt.Errorf("SESSION_TIMEOUT must be at least 1 minute")
	}

	if err := c.validateCORS(); err != nil {
		return err
	}

	return c.validateRateLimits()
}

// validateCORS rejects wildcard origins in production. Wildcard CORS
// combined with cookie authentication lets any origin replay stolen
// credentials against protected endpoints.
func (c *Config) validateCORS() error {
	if c.hasWildcardCORS() && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* (wildcard) is not allowed in production. " +
			"Set specific origins: CORS_ORIGINS=https://yourdomain.org " +
			"or use ENVIRONMENT=development for testing")
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins.
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// Rate limit bounds.
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validLogLevels defines the allowed log levels.
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats.
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration.
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}
