// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
)

// SettingsResponse represents the site settings in API responses.
type SettingsResponse struct {
	SystemURL string `json:"systemUrl"`
}

// UpdateSettingsRequest represents the request body for updating settings.
type UpdateSettingsRequest struct {
	SystemURL *string `json:"systemUrl"`
}

// GetSettings handles GET /api/v1/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	systemURL, err := h.settings.SystemURL(r.Context())
	if err != nil {
		writeServiceError(w, err, "retrieve settings")
		return
	}
	WriteSuccess(w, SettingsResponse{SystemURL: systemURL}, nil)
}

// UpdateSettings handles PUT /api/v1/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SystemURL == nil {
		WriteValidationError(w, map[string]string{"systemUrl": "is required"})
		return
	}

	saved, err := h.settings.SetSystemURL(r.Context(), *req.SystemURL)
	if err != nil {
		writeServiceError(w, err, "update settings")
		return
	}
	WriteSuccess(w, SettingsResponse{SystemURL: saved}, nil)
}
