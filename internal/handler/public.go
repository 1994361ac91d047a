// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/render"
	"github.com/olegiv/ocms-pages/internal/service"
)

// PublicHandler serves published pages to site visitors.
type PublicHandler struct {
	pages    *service.PageService
	renderer *render.Renderer
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(pages *service.PageService, renderer *render.Renderer) *PublicHandler {
	return &PublicHandler{
		pages:    pages,
		renderer: renderer,
	}
}

// PublicPageData holds data for the public page template.
type PublicPageData struct {
	Page model.Page
	Toc  []model.TocItem
}

// Page handles GET /page/{path}. Drafts are reported as not found.
func (h *PublicHandler) Page(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")

	page, err := h.pages.GetPublishedByPath(r.Context(), path)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			h.NotFound(w, r)
			return
		}
		slog.Error("failed to load public page", "error", err, "path", path)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if err := h.renderer.Render(w, r, "public/page", render.TemplateData{
		Title: page.Name,
		Data:  PublicPageData{Page: page, Toc: page.TocItems()},
	}); err != nil {
		logAndInternalError(w, "render error", "template", "public/page", "error", err)
	}
}

// NotFound renders the public 404 page.
func (h *PublicHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.RenderStatus(w, r, http.StatusNotFound, "public/not_found", render.TemplateData{
		Title: "Page not found",
	}); err != nil {
		logAndHTTPError(w, "Not Found", http.StatusNotFound, "render error", "error", err)
	}
}
