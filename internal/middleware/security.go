// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"cmp"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// SecurityHeadersConfig controls the response headers set by SecurityHeaders.
// Empty string fields disable the corresponding header.
type SecurityHeadersConfig struct {
	IsDevelopment         bool
	ContentSecurityPolicy string

	// HSTSMaxAge is in seconds; 0 disables Strict-Transport-Security.
	// HSTS is never sent in development.
	HSTSMaxAge            int
	HSTSIncludeSubDomains bool
	HSTSPreload           bool

	FrameOptions      string
	ReferrerPolicy    string
	PermissionsPolicy string

	// ExcludePaths lists path prefixes that get no security headers.
	ExcludePaths []string
}

// cspOrder fixes the position of well-known directives in the rendered policy.
var cspOrder = []string{
	"default-src", "script-src", "style-src", "img-src", "font-src",
	"connect-src", "frame-src", "object-src", "base-uri", "form-action",
	"frame-ancestors", "upgrade-insecure-requests",
}

// DefaultSecurityHeadersConfig returns the headers used for the admin UI and public pages.
// Page content may embed remote images, so img-src allows https.
func DefaultSecurityHeadersConfig(isDev bool) SecurityHeadersConfig {
	imgSrc := "'self' data: https:"
	if isDev {
		imgSrc = "'self' data: http: https:"
	}

	return SecurityHeadersConfig{
		IsDevelopment:         isDev,
		HSTSMaxAge:            365 * 24 * 60 * 60,
		HSTSIncludeSubDomains: !isDev,
		FrameOptions:          "SAMEORIGIN",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: buildCSP(map[string]string{
			"default-src":     "'self'",
			"script-src":      "'self'",
			"style-src":       "'self' 'unsafe-inline'",
			"img-src":         imgSrc,
			"font-src":        "'self' data:",
			"connect-src":     "'self'",
			"object-src":      "'none'",
			"base-uri":        "'self'",
			"form-action":     "'self'",
			"frame-ancestors": "'self'",
		}),
		PermissionsPolicy: buildPermissionsPolicy([]string{
			"accelerometer", "browsing-topics", "camera", "geolocation",
			"gyroscope", "magnetometer", "microphone", "payment", "usb",
		}),
	}
}

// buildCSP renders directives in cspOrder, followed by any others alphabetically.
func buildCSP(directives map[string]string) string {
	rank := func(k string) int {
		if i := slices.Index(cspOrder, k); i >= 0 {
			return i
		}
		return len(cspOrder)
	}
	keys := slices.SortedFunc(maps.Keys(directives), func(a, b string) int {
		return cmp.Or(cmp.Compare(rank(a), rank(b)), strings.Compare(a, b))
	})

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k + " " + directives[k])
	}
	return b.String()
}

// buildPermissionsPolicy denies every listed feature, sorted by name.
func buildPermissionsPolicy(denied []string) string {
	features := slices.Sorted(slices.Values(denied))
	for i, f := range features {
		features[i] = f + "=()"
	}
	return strings.Join(features, ", ")
}

// headers renders cfg into the fixed header set written on every response.
func (cfg SecurityHeadersConfig) headers() http.Header {
	h := http.Header{}
	h.Set("X-Content-Type-Options", "nosniff")
	set := func(name, value string) {
		if value != "" {
			h.Set(name, value)
		}
	}
	set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	set("X-Frame-Options", cfg.FrameOptions)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Permissions-Policy", cfg.PermissionsPolicy)

	if !cfg.IsDevelopment && cfg.HSTSMaxAge > 0 {
		hsts := []string{"max-age=" + strconv.Itoa(cfg.HSTSMaxAge)}
		if cfg.HSTSIncludeSubDomains {
			hsts = append(hsts, "includeSubDomains")
		}
		if cfg.HSTSPreload {
			hsts = append(hsts, "preload")
		}
		h.Set("Strict-Transport-Security", strings.Join(hsts, "; "))
	}
	return h
}

// SecurityHeaders adds the configured security headers to every response
// outside cfg.ExcludePaths.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	fixed := cfg.headers()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			excluded := slices.ContainsFunc(cfg.ExcludePaths, func(p string) bool {
				return strings.HasPrefix(r.URL.Path, p)
			})
			if !excluded {
				dst := w.Header()
				for k, v := range fixed {
					dst[k] = v
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
