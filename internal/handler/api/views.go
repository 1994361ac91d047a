// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-pages/internal/analytics"
	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/util"
)

// ViewsResponse holds the views recorded for one absolute URL.
type ViewsResponse struct {
	URL   string                 `json:"url"`
	Views []model.View           `json:"views"`
	PV    int64                  `json:"pv"`
	UV    int64                  `json:"uv"`
	Chart []analytics.ChartPoint `json:"chart,omitempty"`
}

// PageViews handles GET /api/v1/pages/{id}/views
// The page URL is resolved against the system URL. ?chart=1 adds per-day points.
func (h *Handler) PageViews(w http.ResponseWriter, r *http.Request) {
	p, err := h.pages.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "retrieve page")
		return
	}

	pageURL, err := h.settings.PageURL(r.Context(), p.Path)
	if err != nil {
		writeServiceError(w, err, "resolve page url")
		return
	}

	h.writeViews(w, r, pageURL)
}

// ListViews handles GET /api/v1/views?url=<absolute url>
func (h *Handler) ListViews(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		WriteBadRequest(w, "Query parameter url is required", map[string]string{"url": "is required"})
		return
	}
	if _, err := util.ParseHTTPURL(raw); err != nil {
		WriteValidationError(w, map[string]string{"url": err.Error()})
		return
	}

	h.writeViews(w, r, raw)
}

func (h *Handler) writeViews(w http.ResponseWriter, r *http.Request, absoluteURL string) {
	views, err := h.views.ListByURL(r.Context(), absoluteURL)
	if err != nil {
		writeServiceError(w, err, "list views")
		return
	}
	if views == nil {
		views = []model.View{}
	}

	points := analytics.BuildChart(views)
	resp := ViewsResponse{URL: absoluteURL, Views: views}
	resp.PV, resp.UV = analytics.Totals(points)
	if wantChart(r) {
		resp.Chart = points
	}

	WriteSuccess(w, resp, &Meta{Total: int64(len(views))})
}

func wantChart(r *http.Request) bool {
	switch r.URL.Query().Get("chart") {
	case "1", "true":
		return true
	}
	return false
}
