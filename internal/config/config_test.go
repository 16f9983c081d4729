// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package config

import (
	"strings"
	"testing"
	"time"
)

// validTestConfig returns a config that passes validation, for tests to
// mutate one field at a time.
func validTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Identity.URL = "https://abc.example.co/auth/v1"
	cfg.Identity.PublicKey = "public-anon-key"
	cfg.Identity.JWTSecret = strings.Repeat("s", 40)
	cfg.Media.CloudName = "parfour-test"
	cfg.Media.APIKey = "123456789012345"
	cfg.Media.APISecret = "media-secret"
	return cfg
}

func TestValidateValidConfig(t *testing.T) {
	if err := validTestConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidateMissingMediaCredentials(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{
			name:   "missing cloud name",
			mutate: func(c *Config) { c.Media.CloudName = "" },
			want:   []string{"MEDIA_CLOUD_NAME"},
		},
		{
			name:   "missing api key",
			mutate: func(c *Config) { c.Media.APIKey = "" },
			want:   []string{"MEDIA_API_KEY"},
		},
		{
			name:   "missing api secret",
			mutate: func(c *Config) { c.Media.APISecret = "" },
			want:   []string{"MEDIA_API_SECRET"},
		},
		{
			name: "all missing enumerated together",
			mutate: func(c *Config) {
				c.Media.CloudName = ""
				c.Media.APIKey = ""
				c.Media.APISecret = ""
			},
			want: []string{"MEDIA_CLOUD_NAME", "MEDIA_API_KEY", "MEDIA_API_SECRET"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			for _, name := range tt.want {
				if !strings.Contains(err.Error(), name) {
					t.Errorf("expected error to name %s, got: %v", name, err)
				}
			}
		})
	}
}

func TestValidateMissingIdentityVars(t *testing.T) {
	cfg := validTestConfig()
	cfg.Identity.URL = ""
	cfg.Identity.PublicKey = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "IDENTITY_URL") || !strings.Contains(err.Error(), "IDENTITY_PUBLIC_KEY") {
		t.Errorf("expected both missing vars named, got: %v", err)
	}
}

func TestValidateShortJWTSecret(t *testing.T) {
	cfg := validTestConfig()
	cfg.Identity.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for short JWT secret")
	}
}

func TestValidateIdentityURLScheme(t *testing.T) {
	cfg := validTestConfig()
	cfg.Identity.URL = "ftp://bad.example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-http identity URL")
	}

	cfg = validTestConfig()
	cfg.Identity.URL = "http://plain.example.com"
	cfg.Server.Environment = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for http identity URL in production")
	}
}

func TestValidateWildcardCORSInProduction(t *testing.T) {
	cfg := validTestConfig()
	cfg.Security.CORSOrigins = []string{"*"}
	cfg.Server.Environment = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for wildcard CORS in production")
	}

	cfg.Server.Environment = "development"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("wildcard CORS should be allowed in development, got: %v", err)
	}
}

func TestValidateMemorySessionStoreInProduction(t *testing.T) {
	cfg := validTestConfig()
	cfg.Security.SessionStore = "memory"
	cfg.Server.Environment = "production"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for memory session store in production")
	}
}

func TestValidatePortBounds(t *testing.T) {
	cfg := validTestConfig()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port 0")
	}

	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port > 65535")
	}
}

func TestValidateRateLimitBounds(t *testing.T) {
	cfg := validTestConfig()
	cfg.Security.RateLimitReqs = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero rate limit")
	}

	cfg = validTestConfig()
	cfg.Security.RateLimitReqs = 0
	cfg.Security.RateLimitDisabled = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled rate limit skips bounds check, got: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"MEDIA_API_KEY", "media.api_key"},
		{"MEDIA_CLOUD_NAME", "media.cloud_name"},
		{"IDENTITY_URL", "identity.url"},
		{"IDENTITY_JWT_SECRET", "identity.jwt_secret"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"DATA_DIR", "content.data_dir"},
		{"PATH", ""},
		{"HOME", ""},
		{"RANDOM_UNRELATED_VAR", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadWithKoanfEnvOverride(t *testing.T) {
	t.Setenv("IDENTITY_URL", "https://env.example.co/auth/v1")
	t.Setenv("IDENTITY_PUBLIC_KEY", "env-public-key")
	t.Setenv("IDENTITY_JWT_SECRET", strings.Repeat("x", 40))
	t.Setenv("MEDIA_CLOUD_NAME", "env-cloud")
	t.Setenv("MEDIA_API_KEY", "env-key")
	t.Setenv("MEDIA_API_SECRET", "env-secret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SESSION_TIMEOUT", "2h")
	t.Setenv("CORS_ORIGINS", "https://a.example.org, https://b.example.org")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Media.CloudName != "env-cloud" {
		t.Errorf("expected env cloud name, got %q", cfg.Media.CloudName)
	}
	if cfg.Security.SessionTimeout != 2*time.Hour {
		t.Errorf("expected 2h session timeout, got %v", cfg.Security.SessionTimeout)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != "https://a.example.org" {
		t.Errorf("expected split CORS origins, got %v", cfg.Security.CORSOrigins)
	}
}

func TestLoadWithKoanfMissingCredentialsFails(t *testing.T) {
	// No identity/media env vars set: defaults are empty, validation must fail.
	cfg, err := LoadWithKoanf()
	if err == nil {
		t.Fatalf("expected load to fail without credentials, got config: %+v", cfg)
	}
}

func TestIsProduction(t *testing.T) {
	cfg := validTestConfig()
	for _, env := range []string{"production", "prod", "PRODUCTION"} {
		cfg.Server.Environment = env
		if !cfg.IsProduction() {
			t.Errorf("expected %q to be production", env)
		}
	}
	for _, env := range []string{"", "development", "dev", "staging"} {
		cfg.Server.Environment = env
		if cfg.IsProduction() {
			t.Errorf("expected %q not to be production", env)
		}
	}
}
