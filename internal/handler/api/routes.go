// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-pages/internal/middleware"
)

// API v1 routes, relative to Prefix.
const (
	Prefix = "/api/v1"

	RouteStatus     = "/status"
	RouteDocs       = "/docs"
	RouteAuthToken  = "/auth/token"
	RoutePages      = "/pages"
	RoutePagesID    = "/pages/{id}"
	RoutePageViews  = "/pages/{id}/views"
	RoutePageByPath = "/pages/path/{path}"
	RouteViews      = "/views"
	RouteSettings   = "/settings"
	RouteJobs       = "/jobs"
	RouteJobRun     = "/jobs/{name}/run"
)

// RouterConfig holds the optional pieces of the API router.
type RouterConfig struct {
	// Docs serves RouteDocs when set.
	Docs *DocsHandler
	// RateLimiter applies to every API request when set.
	RateLimiter *middleware.RateLimiter
}

// Router returns the /api/v1 sub-router.
func (h *Handler) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware())
	}

	// Public endpoints (no authentication required)
	r.Get(RouteStatus, h.Status)
	r.Post(RouteAuthToken, h.IssueToken)
	r.Get(RoutePageByPath, h.GetPageByPath)
	if cfg.Docs != nil {
		r.Get(RouteDocs, cfg.Docs.ServeDocs)
	}

	// Protected endpoints (bearer token required)
	r.Group(func(r chi.Router) {
		r.Use(middleware.APITokenAuth(h.tokens))

		r.Get(RoutePages, h.ListPages)
		r.Post(RoutePages, h.CreatePage)
		r.Get(RoutePagesID, h.GetPage)
		r.Patch(RoutePagesID, h.UpdatePage)
		r.Put(RoutePagesID, h.UpdatePage)
		r.Delete(RoutePagesID, h.DeletePage)
		r.Get(RoutePageViews, h.PageViews)
		r.Get(RouteViews, h.ListViews)

		r.Get(RouteSettings, h.GetSettings)
		r.Put(RouteSettings, h.UpdateSettings)

		if h.jobs != nil {
			r.Get(RouteJobs, h.ListJobs)
			r.Post(RouteJobRun, h.RunJob)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	return r
}
