// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/ocms-pages/internal/auth"
	"github.com/olegiv/ocms-pages/internal/render"
	"github.com/olegiv/ocms-pages/internal/service"
)

// SettingsHandler handles the site settings screen.
type SettingsHandler struct {
	settings *service.SettingsService
	renderer *render.Renderer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService, renderer *render.Renderer) *SettingsHandler {
	return &SettingsHandler{settings: settings, renderer: renderer}
}

// SettingsFormData holds data for the settings template.
type SettingsFormData struct {
	SystemURL string
	Errors    map[string]string
}

// Form handles GET /admin/settings.
func (h *SettingsHandler) Form(w http.ResponseWriter, r *http.Request) {
	systemURL, err := h.settings.SystemURL(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to load system url", "error", err)
		return
	}
	h.render(w, r, http.StatusOK, SettingsFormData{SystemURL: systemURL})
}

// Save handles POST /admin/settings.
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminSettings) {
		return
	}

	data := SettingsFormData{
		SystemURL: strings.TrimSpace(r.FormValue("system_url")),
		Errors:    make(map[string]string),
	}
	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if newPassword != "" || currentPassword != "" {
		switch err := h.settings.CheckAdminPassword(r.Context(), currentPassword); {
		case errors.Is(err, service.ErrInvalidPassword):
			data.Errors["current_password"] = "Current password is incorrect"
		case err != nil:
			logAndInternalError(w, "password check error", "error", err)
			return
		}
		if len(newPassword) < auth.MinPasswordLength {
			data.Errors["new_password"] = fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength)
		}
	}
	if len(data.Errors) > 0 {
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	saved, err := h.settings.SetSystemURL(r.Context(), data.SystemURL)
	if err != nil {
		var verr *service.ValidationError
		if !errors.As(err, &verr) {
			logAndInternalError(w, "failed to save system url", "error", err)
			return
		}
		data.Errors["system_url"] = "Site URL " + verr.Fields["systemUrl"]
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	if newPassword != "" {
		if err := h.settings.SetAdminPassword(r.Context(), newPassword); err != nil {
			logAndInternalError(w, "failed to change admin password", "error", err)
			return
		}
		slog.Info("admin password changed")
	}

	slog.Info("settings saved", "system_url", saved)
	flashSuccess(w, r, h.renderer, redirectAdminSettings, MsgOperationOK)
}

func (h *SettingsHandler) render(w http.ResponseWriter, r *http.Request, status int, data SettingsFormData) {
	if data.Errors == nil {
		data.Errors = make(map[string]string)
	}
	if err := h.renderer.RenderStatus(w, r, status, "admin/settings", render.TemplateData{
		Title: "Settings",
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "render error", "template", "admin/settings", "error", err)
	}
}
