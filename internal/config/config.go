// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

// Package config provides layered configuration loading for Parfour.
//
// Configuration is loaded via Koanf v2 with layered sources, highest
// priority last: built-in defaults, optional YAML config file,
// environment variables. Required external credentials (identity
// provider, media service) are validated at startup; a missing value
// is fatal, never silently defaulted.
package config

import "time"

// Config is the root configuration for the Parfour server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Identity IdentityConfig `koanf:"identity"`
	Media    MediaConfig    `koanf:"media"`
	Security SecurityConfig `koanf:"security"`
	Content  ContentConfig  `koanf:"content"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address.
	Host string `koanf:"host"`

	// Port is the listen port.
	Port int `koanf:"port"`

	// Timeout is the per-request read/write timeout.
	Timeout time.Duration `koanf:"timeout"`

	// PublicURL is the externally visible base URL, used for redirects.
	PublicURL string `koanf:"public_url"`

	// Environment is "development" or "production".
	Environment string `koanf:"environment"`
}

// IdentityConfig holds settings for the hosted identity provider.
// The provider issues verified sessions and identity metadata; Parfour
// never stores passwords itself.
type IdentityConfig struct {
	// URL is the identity provider base URL (e.g. https://xyz.example.co/auth/v1).
	URL string `koanf:"url"`

	// PublicKey is the provider's publishable API key, sent with every call.
	PublicKey string `koanf:"public_key"`

	// JWTSecret verifies provider-issued access tokens locally (HS256).
	JWTSecret string `koanf:"jwt_secret"`

	// ServiceKey authorizes admin endpoints (user listing). Server-only.
	ServiceKey string `koanf:"service_key"`

	// WebhookSecret verifies identity-change notifications (HMAC-SHA256).
	WebhookSecret string `koanf:"webhook_secret"`

	// Timeout bounds calls to the provider.
	Timeout time.Duration `koanf:"timeout"`
}

// MediaConfig holds settings for the hosted media service.
type MediaConfig struct {
	// CloudName identifies the media account.
	CloudName string `koanf:"cloud_name"`

	// APIKey is the media API key.
	APIKey string `koanf:"api_key"`

	// APISecret signs media requests. Server-only, never sent to clients.
	APISecret string `koanf:"api_secret"`

	// APIHost is the media API host.
	APIHost string `koanf:"api_host"`

	// UploadFolder is the folder sponsor photos are uploaded into.
	UploadFolder string `koanf:"upload_folder"`

	// Timeout bounds calls to the media API.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond throttles outbound media API calls.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// SecurityConfig holds session, rate limit and authorization settings.
type SecurityConfig struct {
	// SessionTimeout is the server session time-to-live.
	SessionTimeout time.Duration `koanf:"session_timeout"`

	// SessionStore selects the session backend: "badger" or "memory".
	SessionStore string `koanf:"session_store"`

	// CookieName is the session cookie name.
	CookieName string `koanf:"cookie_name"`

	// CookieSecure sets the Secure flag on the session cookie.
	CookieSecure bool `koanf:"cookie_secure"`

	// RateLimitReqs is the default request budget per window.
	RateLimitReqs int `koanf:"rate_limit_reqs"`

	// RateLimitWindow is the rate limit window.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// RateLimitDisabled turns off rate limiting (development only).
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`

	// CORSOrigins lists allowed CORS origins. Empty denies cross-origin use.
	CORSOrigins []string `koanf:"cors_origins"`

	Casbin CasbinConfig `koanf:"casbin"`
}

// CasbinConfig holds role-based access control settings.
type CasbinConfig struct {
	// ModelPath overrides the embedded Casbin model file.
	ModelPath string `koanf:"model_path"`

	// PolicyPath overrides the embedded Casbin policy file.
	PolicyPath string `koanf:"policy_path"`

	// CacheEnabled enables enforcement decision caching.
	CacheEnabled bool `koanf:"cache_enabled"`

	// CacheTTL is how long to cache decisions.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// ContentConfig holds local content storage settings.
type ContentConfig struct {
	// DataDir is the BadgerDB directory for sessions and site content.
	DataDir string `koanf:"data_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. Defaults
// are loaded first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8072,
			Timeout:     30 * time.Second,
			PublicURL:   "",
			Environment: "development",
		},
		Identity: IdentityConfig{
			URL:           "",
			PublicKey:     "",
			JWTSecret:     "",
			ServiceKey:    "",
			WebhookSecret: "",
			Timeout:       10 * time.Second,
		},
		Media: MediaConfig{
			CloudName:         "",
			APIKey:            "",
			APISecret:         "",
			APIHost:           "api.cloudinary.com",
			UploadFolder:      "sponsors",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
		},
		Security: SecurityConfig{
			SessionTimeout:    24 * time.Hour,
			SessionStore:      "badger",
			CookieName:        "parfour_session",
			CookieSecure:      true,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{},
			Casbin: CasbinConfig{
				CacheEnabled: true,
				CacheTTL:     5 * time.Minute,
			},
		},
		Content: ContentConfig{
			DataDir: "/data/parfour",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
