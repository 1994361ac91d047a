// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application configuration from OCMS_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/ocms-pages/internal/util"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"OCMS_DB_PATH" envDefault:"./data/ocms.db"`
	SessionSecret string `env:"OCMS_SESSION_SECRET,required"`
	ServerHost    string `env:"OCMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"OCMS_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"OCMS_ENV" envDefault:"development"`
	LogLevel      string `env:"OCMS_LOG_LEVEL" envDefault:"info"`

	// AdminPassword seeds the administrator password on first start.
	AdminPassword string `env:"OCMS_ADMIN_PASSWORD"`

	// SiteURL is the fallback base URL used to build absolute page URLs
	// until one is saved in settings.
	SiteURL string `env:"OCMS_SITE_URL" envDefault:"http://localhost:8080"`

	// Cache configuration
	RedisURL     string `env:"OCMS_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"OCMS_CACHE_PREFIX" envDefault:"ocms:"`   // Redis key prefix
	CacheTTL     int    `env:"OCMS_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"OCMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// GeoIP configuration
	GeoIPDBPath string `env:"OCMS_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Webhooks
	WebhookURLs   []string `env:"OCMS_WEBHOOK_URLS" envSeparator:","`
	WebhookSecret string   `env:"OCMS_WEBHOOK_SECRET"`

	// ViewRetentionDays removes view records older than this many days. 0 keeps them forever.
	ViewRetentionDays int `env:"OCMS_VIEW_RETENTION_DAYS" envDefault:"365"`
	// EventRetentionDays removes event log entries older than this many days. 0 keeps them forever.
	EventRetentionDays int `env:"OCMS_EVENT_RETENTION_DAYS" envDefault:"90"`

	APITokenTTL time.Duration `env:"OCMS_API_TOKEN_TTL" envDefault:"24h"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// WebhooksEnabled returns true if at least one webhook target is configured.
func (c Config) WebhooksEnabled() bool {
	return len(c.WebhookURLs) > 0
}

// ViewRetention returns the view retention period, or 0 when views are kept forever.
func (c Config) ViewRetention() time.Duration {
	if c.ViewRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.ViewRetentionDays) * 24 * time.Hour
}

// EventRetention returns the event log retention period, or 0 when events are kept forever.
func (c Config) EventRetention() time.Duration {
	if c.EventRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses the process environment and returns a validated Config.
func Load() (*Config, error) {
	return LoadFrom(env.ToMap(os.Environ()))
}

// LoadFrom parses the given environment map and returns a validated Config.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("OCMS_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("OCMS_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(c.SessionSecret) {
		slog.Warn("OCMS_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if c.SiteURL != "" {
		if _, err := util.ParseHTTPURL(c.SiteURL); err != nil {
			return fmt.Errorf("OCMS_SITE_URL: %w", err)
		}
	}

	urls := c.WebhookURLs[:0]
	for _, u := range c.WebhookURLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, err := util.ParseHTTPURL(u); err != nil {
			return fmt.Errorf("OCMS_WEBHOOK_URLS: %q: %w", u, err)
		}
		urls = append(urls, u)
	}
	c.WebhookURLs = urls

	if c.ViewRetentionDays < 0 {
		return fmt.Errorf("OCMS_VIEW_RETENTION_DAYS must not be negative")
	}
	if c.APITokenTTL <= 0 {
		return fmt.Errorf("OCMS_API_TOKEN_TTL must be positive")
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
