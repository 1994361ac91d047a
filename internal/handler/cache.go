// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/ocms-pages/internal/cache"
	"github.com/olegiv/ocms-pages/internal/middleware"
	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/render"
	"github.com/olegiv/ocms-pages/internal/service"
)

// CacheHandler handles cache management routes.
type CacheHandler struct {
	renderer     *render.Renderer
	cache        cache.Cache
	backend      string
	eventService *service.EventService
}

// NewCacheHandler creates a new CacheHandler. backend names the cache
// implementation ("memory" or "redis") as reported by cache.New.
func NewCacheHandler(renderer *render.Renderer, c cache.Cache, backend string, es *service.EventService) *CacheHandler {
	return &CacheHandler{
		renderer:     renderer,
		cache:        c,
		backend:      backend,
		eventService: es,
	}
}

// CacheStatsData holds data for the cache stats template.
type CacheStatsData struct {
	Backend     string
	Stats       *cache.Stats
	HealthError string // non-empty if the backend ping failed
}

// Stats handles GET /admin/cache - displays cache statistics.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	data := CacheStatsData{Backend: h.backend}

	if sp, ok := h.cache.(cache.StatsProvider); ok {
		stats := sp.Stats()
		data.Stats = &stats
	}
	if p, ok := h.cache.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			data.HealthError = err.Error()
		}
	}

	renderOrError(w, r, h.renderer, "admin/cache", render.TemplateData{
		Title: "Cache",
		Data:  data,
	})
}

// Clear handles POST /admin/cache/clear - drops every cached entry.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context()); err != nil {
		slog.Error("failed to clear cache", "backend", h.backend, "error", err)
		flashError(w, r, h.renderer, redirectAdminCache, "Failed to clear cache")
		return
	}
	slog.Info("cache cleared", "backend", h.backend)

	if h.eventService != nil {
		_ = h.eventService.LogEvent(r.Context(), model.EventLevelInfo, model.EventCategoryCache, "Cache cleared",
			map[string]any{"backend": h.backend, "ip": middleware.ClientIP(r)})
	}

	flashSuccess(w, r, h.renderer, redirectAdminCache, "Cache cleared successfully")
}
