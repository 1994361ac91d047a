// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSecurityHeaders_Production(t *testing.T) {
	handler := SecurityHeaders(DefaultSecurityHeadersConfig(false))(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/page", nil))

	h := rr.Header()
	if got := h.Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Errorf("HSTS = %q", got)
	}
	if h.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff")
	}
	if h.Get("X-Frame-Options") != "SAMEORIGIN" {
		t.Error("missing X-Frame-Options")
	}
	csp := h.Get("Content-Security-Policy")
	if !strings.HasPrefix(csp, "default-src 'self'; script-src 'self'") {
		t.Errorf("unexpected CSP order: %q", csp)
	}
	if !strings.HasPrefix(h.Get("Permissions-Policy"), "accelerometer=()") {
		t.Errorf("Permissions-Policy not sorted: %q", h.Get("Permissions-Policy"))
	}
}

func TestSecurityHeaders_DevelopmentSkipsHSTS(t *testing.T) {
	handler := SecurityHeaders(DefaultSecurityHeadersConfig(true))(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should not be set in development")
	}
}

func TestSecurityHeaders_ExcludePaths(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig(false)
	cfg.ExcludePaths = []string{"/api/"}
	handler := SecurityHeaders(cfg)(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/pages", nil))
	if rr.Header().Get("Content-Security-Policy") != "" {
		t.Error("excluded path should not get CSP")
	}
}

func TestBuildCSP_ExtraDirectivesSorted(t *testing.T) {
	got := buildCSP(map[string]string{
		"default-src": "'self'",
		"worker-src":  "'none'",
		"media-src":   "'self'",
	})
	want := "default-src 'self'; media-src 'self'; worker-src 'none'"
	if got != want {
		t.Errorf("buildCSP() = %q, want %q", got, want)
	}
}

func TestBuildPermissionsPolicy(t *testing.T) {
	got := buildPermissionsPolicy([]string{"usb", "camera"})
	if got != "camera=(), usb=()" {
		t.Errorf("buildPermissionsPolicy() = %q", got)
	}
}

func TestSecurityHeaders_Preload(t *testing.T) {
	cfg := DefaultSecurityHeadersConfig(false)
	cfg.HSTSPreload = true
	cfg.FrameOptions = ""
	rr := httptest.NewRecorder()
	SecurityHeaders(cfg)(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains; preload" {
		t.Errorf("HSTS = %q", got)
	}
	if _, ok := rr.Header()["X-Frame-Options"]; ok {
		t.Error("empty FrameOptions should omit the header")
	}
}
