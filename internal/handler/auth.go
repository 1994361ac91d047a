// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ocms-pages/internal/middleware"
	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/render"
	"github.com/olegiv/ocms-pages/internal/service"
	"github.com/olegiv/ocms-pages/internal/session"
)

// AuthHandler handles authentication routes.
type AuthHandler struct {
	settings        *service.SettingsService
	events          *service.EventService
	renderer        *render.Renderer
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. lp may be nil.
func NewAuthHandler(settings *service.SettingsService, events *service.EventService, renderer *render.Renderer, sm *scs.SessionManager, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		settings:        settings,
		events:          events,
		renderer:        renderer,
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// LoginData holds data for the login template.
type LoginData struct {
	Next string
}

// LoginForm renders the login page. Logged-in administrators go straight to the pages list.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if session.IsAdmin(r.Context(), h.sessionManager) {
		http.Redirect(w, r, redirectAdminPages, http.StatusSeeOther)
		return
	}

	renderOrError(w, r, h.renderer, "auth/login", render.TemplateData{
		Title: "Sign in",
		Data:  LoginData{Next: safeNextURL(r.URL.Query().Get(redirectAfterLoginParam))},
	})
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	password := r.FormValue("password")
	next := safeNextURL(r.FormValue(redirectAfterLoginParam))
	clientIP := middleware.ClientIP(r)

	retryURL := redirectLogin
	if next != redirectAdminPages {
		retryURL += "?" + redirectAfterLoginParam + "=" + url.QueryEscape(next)
	}

	if password == "" {
		flashError(w, r, h.renderer, retryURL, "Password is required")
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsLocked(clientIP); locked {
			h.logAuthEvent(r, model.EventLevelWarning, "Login attempt while locked out", map[string]any{"ip": clientIP})
			flashError(w, r, h.renderer, retryURL, fmt.Sprintf("Too many failed attempts. Try again in %s.", formatDuration(remaining)))
			return
		}
	}

	if err := h.settings.CheckAdminPassword(r.Context(), password); err != nil {
		if !errors.Is(err, service.ErrInvalidPassword) {
			logAndInternalError(w, "password check error", "error", err)
			return
		}

		h.logAuthEvent(r, model.EventLevelWarning, "Login failed: invalid password", map[string]any{"ip": clientIP})
		if h.loginProtection != nil {
			if locked, lockDuration := h.loginProtection.RecordFailedAttempt(clientIP); locked {
				h.logAuthEvent(r, model.EventLevelWarning, "Login locked due to failed attempts",
					map[string]any{"ip": clientIP, "duration": lockDuration.String()})
				flashError(w, r, h.renderer, retryURL, fmt.Sprintf("Too many failed attempts. Try again in %s.", formatDuration(lockDuration)))
				return
			}
			if remaining := h.loginProtection.RemainingAttempts(clientIP); remaining > 0 && remaining <= 3 {
				flashError(w, r, h.renderer, retryURL, fmt.Sprintf("Invalid password. %d attempts remaining.", remaining))
				return
			}
		}
		flashError(w, r, h.renderer, retryURL, "Invalid password")
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(clientIP)
	}

	// Renews the token to prevent session fixation
	if err := session.Login(r.Context(), h.sessionManager); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	slog.Info("administrator logged in", "ip", clientIP)
	h.logAuthEvent(r, model.EventLevelInfo, "Administrator logged in", map[string]any{"ip": clientIP})

	http.Redirect(w, r, next, http.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session.IsAdmin(r.Context(), h.sessionManager) {
		h.logAuthEvent(r, model.EventLevelInfo, "Administrator logged out", map[string]any{"ip": middleware.ClientIP(r)})
	}

	if err := session.Logout(r.Context(), h.sessionManager); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	flashAndRedirect(w, r, h.renderer, redirectLogin, "You have been signed out", render.FlashInfo)
}

func (h *AuthHandler) logAuthEvent(r *http.Request, level, message string, metadata map[string]any) {
	if h.events == nil {
		return
	}
	if err := h.events.LogAuthEvent(r.Context(), level, message, metadata); err != nil {
		slog.Warn("failed to log auth event", "error", err)
	}
}

// safeNextURL only allows redirects to local admin paths.
func safeNextURL(next string) string {
	if !strings.HasPrefix(next, RouteAdmin+"/") || strings.HasPrefix(next, "//") {
		return redirectAdminPages
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return redirectAdminPages
	}
	return u.RequestURI()
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
