// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-pages/internal/handler"
	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/service"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// PageResponse represents a page in API responses.
type PageResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	Cover       string          `json:"cover,omitempty"`
	Content     string          `json:"content"`
	HTML        string          `json:"html"`
	Toc         []model.TocItem `json:"toc"`
	Status      string          `json:"status"`
	Views       int64           `json:"views"`
	URL         string          `json:"url,omitempty"`
	PublishAt   *time.Time      `json:"publishAt"`
	ScheduledAt *time.Time      `json:"scheduledAt,omitempty"`
	CreateAt    time.Time       `json:"createAt"`
	UpdateAt    time.Time       `json:"updateAt"`
}

// CreatePageRequest represents the request body for creating a page.
type CreatePageRequest struct {
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Cover       string     `json:"cover"`
	Content     string     `json:"content"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

// UpdatePageRequest represents the request body for updating a page.
// Omitted fields are left unchanged. An empty scheduledAt string clears the schedule.
type UpdatePageRequest struct {
	Name        *string `json:"name,omitempty"`
	Path        *string `json:"path,omitempty"`
	Cover       *string `json:"cover,omitempty"`
	Content     *string `json:"content,omitempty"`
	Status      *string `json:"status,omitempty"`
	ScheduledAt *string `json:"scheduledAt,omitempty"`
}

// pageToResponse converts a model.Page to PageResponse.
func pageToResponse(p model.Page, absoluteURL string) PageResponse {
	toc := p.TocItems()
	if toc == nil {
		toc = []model.TocItem{}
	}
	return PageResponse{
		ID:          p.ID,
		Name:        p.Name,
		Path:        p.Path,
		Cover:       p.Cover,
		Content:     p.Content,
		HTML:        p.HTML,
		Toc:         toc,
		Status:      p.Status,
		Views:       p.Views,
		URL:         absoluteURL,
		PublishAt:   p.PublishAt,
		ScheduledAt: p.ScheduledAt,
		CreateAt:    p.CreateAt,
		UpdateAt:    p.UpdateAt,
	}
}

// pageURL resolves the absolute URL of a page. Failures are logged and yield "".
func (h *Handler) pageURL(ctx context.Context, path string) string {
	u, err := h.settings.PageURL(ctx, path)
	if err != nil {
		slog.Warn("api: failed to resolve page url", "path", path, "error", err)
		return ""
	}
	return u
}

// ListPages handles GET /api/v1/pages
// Query: status (draft|publish), page, per_page.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := r.URL.Query().Get("status")
	if status != "" && !model.IsValidPageStatus(status) {
		WriteValidationError(w, map[string]string{"status": "must be draft or publish"})
		return
	}

	page := handler.PageParam(r)
	perPage := handler.QueryInt(r, "per_page", defaultPerPage, 1, maxPerPage)

	pages, total, err := h.pages.List(ctx, service.ListPagesParams{
		Status: status,
		Limit:  int64(perPage),
		Offset: handler.PageOffset(page, perPage),
	})
	if err != nil {
		writeServiceError(w, err, "list pages")
		return
	}

	resp := make([]PageResponse, 0, len(pages))
	for _, p := range pages {
		resp = append(resp, pageToResponse(p, h.pageURL(ctx, p.Path)))
	}

	WriteSuccess(w, resp, &Meta{
		Total:   total,
		Page:    page,
		PerPage: perPage,
		Pages:   handler.TotalPages(total, perPage),
	})
}

// GetPage handles GET /api/v1/pages/{id}
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	p, err := h.pages.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "retrieve page")
		return
	}
	WriteSuccess(w, pageToResponse(p, h.pageURL(r.Context(), p.Path)), nil)
}

// GetPageByPath handles GET /api/v1/pages/path/{path}
// Public: only published pages are returned.
func (h *Handler) GetPageByPath(w http.ResponseWriter, r *http.Request) {
	p, err := h.pages.GetPublishedByPath(r.Context(), chi.URLParam(r, "path"))
	if err != nil {
		writeServiceError(w, err, "retrieve page")
		return
	}
	WriteSuccess(w, pageToResponse(p, h.pageURL(r.Context(), p.Path)), nil)
}

// CreatePage handles POST /api/v1/pages
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req CreatePageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Status == "" {
		req.Status = model.PageStatusDraft
	}

	p, err := h.pages.Create(r.Context(), service.PageInput{
		Name:        req.Name,
		Path:        req.Path,
		Cover:       req.Cover,
		Content:     req.Content,
		Status:      req.Status,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		writeServiceError(w, err, "create page")
		return
	}

	WriteCreated(w, pageToResponse(p, h.pageURL(r.Context(), p.Path)))
}

// UpdatePage handles PATCH and PUT /api/v1/pages/{id}
// Both methods apply a partial update; a body of {"status": "publish"} toggles publication.
func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	var req UpdatePageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch := service.PagePatch{
		Name:    req.Name,
		Path:    req.Path,
		Cover:   req.Cover,
		Content: req.Content,
		Status:  req.Status,
	}
	if req.ScheduledAt != nil {
		if *req.ScheduledAt == "" {
			patch.ClearSchedule = true
		} else {
			t, err := time.Parse(time.RFC3339, *req.ScheduledAt)
			if err != nil {
				WriteValidationError(w, map[string]string{"scheduledAt": "must be an RFC 3339 timestamp"})
				return
			}
			patch.ScheduledAt = &t
		}
	}
	if patch.IsEmpty() {
		WriteBadRequest(w, "No fields to update", nil)
		return
	}

	p, err := h.pages.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, err, "update page")
		return
	}

	WriteSuccess(w, pageToResponse(p, h.pageURL(r.Context(), p.Path)), nil)
}

// DeletePage handles DELETE /api/v1/pages/{id}
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	if err := h.pages.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err, "delete page")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
