// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"filippo.io/csrf/gorilla"
)

// devOrigins are trusted in development so the editor works from a local browser.
// The csrf package expects host[:port] values, not URLs.
var devOrigins = []string{"localhost:8080", "127.0.0.1:8080"}

// CSRFConfig configures CSRF protection for the admin forms.
type CSRFConfig struct {
	AuthKey        []byte
	ErrorHandler   http.Handler
	TrustedOrigins []string
}

// DefaultCSRFConfig returns the CSRF configuration for the given environment.
func DefaultCSRFConfig(authKey []byte, isDev bool) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}
	if isDev {
		cfg.TrustedOrigins = slices.Clone(devOrigins)
	}
	return cfg
}

// CSRF rejects cross-origin state-changing requests. filippo.io/csrf/gorilla
// decides from the Sec-Fetch-Site and Origin headers, so no token field is
// needed in the page editor or the delete forms.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	onFail := cfg.ErrorHandler
	if onFail == nil {
		onFail = http.HandlerFunc(rejectCSRF)
	}
	opts := []csrf.Option{csrf.ErrorHandler(onFail)}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

func rejectCSRF(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("cross-origin request rejected",
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	http.Error(w, "Forbidden - CSRF validation failed", http.StatusForbidden)
}

// SkipCSRFPrefix disables the CSRF check for paths under any of prefixes.
// The JSON API is mounted under such a prefix and authenticates with bearer tokens.
func SkipCSRFPrefix(prefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.ContainsFunc(prefixes, func(p string) bool { return strings.HasPrefix(r.URL.Path, p) }) {
				r = csrf.UnsafeSkipCheck(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TrustedOriginsFor returns the host of siteURL as a trusted origin, or nil
// when siteURL has no host.
func TrustedOriginsFor(siteURL string) []string {
	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		return []string{u.Host}
	}
	return nil
}
