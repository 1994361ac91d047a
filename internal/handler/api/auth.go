// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/ocms-pages/internal/auth"
	"github.com/olegiv/ocms-pages/internal/middleware"
	"github.com/olegiv/ocms-pages/internal/service"
)

// TokenRequest is the body of POST /api/v1/auth/token.
type TokenRequest struct {
	Password string `json:"password"`
}

// TokenResponse carries an issued API token.
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssueToken handles POST /api/v1/auth/token
// Exchanges the administrator password for a bearer token.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Password == "" {
		WriteValidationError(w, map[string]string{"password": "is required"})
		return
	}

	clientIP := middleware.ClientIP(r)
	if h.loginProtection != nil {
		if locked, _ := h.loginProtection.IsLocked(clientIP); locked {
			WriteTooManyRequests(w, "Too many failed attempts")
			return
		}
	}

	if err := h.settings.CheckAdminPassword(r.Context(), req.Password); err != nil {
		if !errors.Is(err, service.ErrInvalidPassword) {
			slog.Error("api: password check failed", "error", err)
			WriteInternalError(w, "Failed to check password")
			return
		}
		if h.loginProtection != nil {
			if locked, _ := h.loginProtection.RecordFailedAttempt(clientIP); locked {
				WriteTooManyRequests(w, "Too many failed attempts")
				return
			}
		}
		WriteUnauthorized(w, "Invalid password")
		return
	}
	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(clientIP)
	}

	token, expiresAt, err := h.tokens.Issue(auth.AdminSubject)
	if err != nil {
		slog.Error("api: failed to issue token", "error", err)
		WriteInternalError(w, "Failed to issue token")
		return
	}

	slog.Info("api token issued", "ip", clientIP, "expires_at", expiresAt)
	WriteCreated(w, TokenResponse{Token: token, TokenType: "Bearer", ExpiresAt: expiresAt})
}
