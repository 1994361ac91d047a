// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/ocms-pages/internal/auth"
)

const testTokenSecret = "test-secret-key-that-is-at-least-32-bytes"

func TestWriteAPIError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteAPIError(rr, http.StatusBadRequest, "validation_error", "Validation failed", map[string]string{"name": "is required"})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body APIError
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "validation_error" || body.Error.Details["name"] != "is required" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestAPITokenAuth(t *testing.T) {
	tm := auth.NewTokenManager(testTokenSecret, time.Hour)
	valid, _, err := tm.Issue(auth.AdminSubject)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	var claims *auth.Claims
	handler := APITokenAuth(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims = GetClaims(r)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/pages", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusOK && (claims == nil || claims.Subject != auth.AdminSubject) {
				t.Errorf("claims not stored in context: %+v", claims)
			}
		})
	}
}

func TestGetClaims_None(t *testing.T) {
	if GetClaims(httptest.NewRequest(http.MethodGet, "/", nil)) != nil {
		t.Error("GetClaims() should be nil without auth")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	handler := rl.Middleware()(okHandler())

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: status = %d, want %d", i, codes[i], want[i])
		}
	}

	other := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	other.RemoteAddr = "192.0.2.11:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, other)
	if rr.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRateLimiter_HTMLMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	handler := rl.HTMLMiddleware()(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.20:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("request %d: status = %d, want %d", i, rr.Code, want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:5555", nil, "192.0.2.1"},
		{"ipv6 remote addr", "[2001:db8::1]:5555", nil, "2001:db8::1"},
		{"x-real-ip", "127.0.0.1:1", map[string]string{"X-Real-IP": "203.0.113.1"}, "203.0.113.1"},
		{"x-forwarded-for list", "127.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.2, 10.0.0.1"}, "203.0.113.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
