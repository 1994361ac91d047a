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

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-pages/internal/analytics"
	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/render"
	"github.com/olegiv/ocms-pages/internal/service"
)

// PagesPerPage is the number of pages to display per page.
const PagesPerPage = 10

// scheduleInputLayout is the layout of datetime-local form inputs.
const scheduleInputLayout = "2006-01-02T15:04"

// PagesHandler handles page management routes.
type PagesHandler struct {
	pages    *service.PageService
	views    *service.ViewService
	settings *service.SettingsService
	renderer *render.Renderer
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(pages *service.PageService, views *service.ViewService, settings *service.SettingsService, renderer *render.Renderer) *PagesHandler {
	return &PagesHandler{
		pages:    pages,
		views:    views,
		settings: settings,
		renderer: renderer,
	}
}

// PagesListData holds data for the pages list template.
type PagesListData struct {
	Pages        []model.Page
	Pagination   Pager
	StatusFilter string
	Statuses     []string
	ReturnURL    string
}

// List handles GET /admin/page - displays a paginated list of pages.
func (h *PagesHandler) List(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	if !model.IsValidPageStatus(statusFilter) {
		statusFilter = ""
	}
	page := PageParam(r)

	params := service.ListPagesParams{
		Status: statusFilter,
		Limit:  PagesPerPage,
		Offset: PageOffset(page, PagesPerPage),
	}
	pages, total, err := h.pages.List(r.Context(), params)
	if err != nil {
		logAndInternalError(w, "failed to list pages", "error", err)
		return
	}

	pagination := NewPager(r.URL, page, total, PagesPerPage)
	if pagination.Page != page {
		// Requested page is past the end; show the last one instead.
		params.Offset = pagination.Offset()
		if pages, _, err = h.pages.List(r.Context(), params); err != nil {
			logAndInternalError(w, "failed to list pages", "error", err)
			return
		}
	}

	data := PagesListData{
		Pages:        pages,
		Pagination:   pagination,
		StatusFilter: statusFilter,
		Statuses:     model.PageStatuses,
		ReturnURL:    r.URL.RequestURI(),
	}

	renderOrError(w, r, h.renderer, "admin/pages", render.TemplateData{
		Title: "Pages",
		Data:  data,
	})
}

// ToggleStatus handles POST /admin/page/{id}/status - publishes or unpublishes a page.
// The target status comes from the "status" form field; when it is missing the
// current status is flipped.
func (h *PagesHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminPages) {
		return
	}
	returnURL := safeReturnURL(r.FormValue("return"))

	status := r.FormValue("status")
	if status == "" {
		current, err := h.pages.Get(r.Context(), id)
		if err != nil {
			h.mutationFailed(w, r, returnURL, "failed to load page", id, err)
			return
		}
		status = model.PageStatusPublish
		if current.IsPublished() {
			status = model.PageStatusDraft
		}
	}

	page, err := h.pages.SetStatus(r.Context(), id, status)
	if err != nil {
		h.mutationFailed(w, r, returnURL, "failed to change page status", id, err)
		return
	}

	slog.Info("page status changed", "page_id", page.ID, "path", page.Path, "status", page.Status)
	h.mutationDone(w, r, returnURL, MsgOperationOK)
}

// PageFormData holds data for the page editor template.
type PageFormData struct {
	Page       *model.Page
	Statuses   []string
	Errors     map[string]string
	FormValues map[string]string
	IsEdit     bool
	Action     string
}

// EditorForm handles GET /admin/page/editor and GET /admin/page/editor/{id}.
func (h *PagesHandler) EditorForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.renderEditor(w, r, http.StatusOK, PageFormData{
			FormValues: map[string]string{"status": model.PageStatusDraft},
		})
		return
	}

	page, err := h.pages.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			flashError(w, r, h.renderer, redirectAdminPages, MsgPageNotFound)
			return
		}
		slog.Error("failed to get page", "error", err, "page_id", id)
		flashError(w, r, h.renderer, redirectAdminPages, "Error loading page")
		return
	}

	h.renderEditor(w, r, http.StatusOK, PageFormData{
		Page:       &page,
		FormValues: pageFormValues(page),
	})
}

// Save handles POST /admin/page/editor and POST /admin/page/editor/{id}.
func (h *PagesHandler) Save(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	redirectURL := redirectAdminEditor
	if id != "" {
		redirectURL = fmt.Sprintf(redirectAdminEditorID, id)
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectURL) {
		return
	}

	formValues := map[string]string{
		"name":         strings.TrimSpace(r.FormValue("name")),
		"path":         strings.TrimSpace(r.FormValue("path")),
		"cover":        strings.TrimSpace(r.FormValue("cover")),
		"content":      r.FormValue("content"),
		"status":       r.FormValue("status"),
		"scheduled_at": strings.TrimSpace(r.FormValue("scheduled_at")),
	}

	data := PageFormData{FormValues: formValues}
	if id != "" {
		existing, err := h.pages.Get(r.Context(), id)
		if err != nil {
			h.mutationFailed(w, r, redirectAdminPages, "failed to load page", id, err)
			return
		}
		data.Page = &existing
	}

	scheduledAt, err := parseScheduleInput(formValues["scheduled_at"])
	if err != nil {
		data.Errors = map[string]string{"scheduled_at": "must be a date and time"}
		h.renderEditor(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	var page model.Page
	if id == "" {
		page, err = h.pages.Create(r.Context(), service.PageInput{
			Name:        formValues["name"],
			Path:        formValues["path"],
			Cover:       formValues["cover"],
			Content:     formValues["content"],
			Status:      formValues["status"],
			ScheduledAt: scheduledAt,
		})
	} else {
		name, path, cover, content := formValues["name"], formValues["path"], formValues["cover"], formValues["content"]
		patch := service.PagePatch{
			Name:          &name,
			Path:          &path,
			Cover:         &cover,
			Content:       &content,
			ScheduledAt:   scheduledAt,
			ClearSchedule: scheduledAt == nil,
		}
		if status := formValues["status"]; status != "" {
			patch.Status = &status
		}
		page, err = h.pages.Update(r.Context(), id, patch)
	}

	if err != nil {
		if fields := formErrors(err); fields != nil {
			data.Errors = fields
			h.renderEditor(w, r, http.StatusUnprocessableEntity, data)
			return
		}
		h.mutationFailed(w, r, redirectURL, "failed to save page", id, err)
		return
	}

	slog.Info("page saved", "page_id", page.ID, "path", page.Path, "created", id == "")
	flashSuccess(w, r, h.renderer, redirectAdminPages, MsgOperationOK)
}

// ViewsData holds data for the page views fragment.
type ViewsData struct {
	Page   model.Page
	URL    string
	Points []ChartRow
	PV     int64
	UV     int64
	Error  string
}

// ChartRow is one day of the views chart with bar widths in percent.
type ChartRow struct {
	analytics.ChartPoint
	PVPercent int
	UVPercent int
}

// Views handles GET /admin/page/{id}/views - renders the view statistics modal body.
func (h *PagesHandler) Views(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	page, err := h.pages.Get(r.Context(), id)
	if err != nil {
		h.viewsFailed(w, ViewsData{}, "failed to load page", id, err)
		return
	}
	data := ViewsData{Page: page}

	data.URL, err = h.settings.PageURL(r.Context(), page.Path)
	if err != nil {
		h.viewsFailed(w, data, "failed to resolve page URL", id, err)
		return
	}

	views, err := h.views.ListByURL(r.Context(), data.URL)
	if err != nil {
		h.viewsFailed(w, data, "failed to list views", id, err)
		return
	}

	points := analytics.BuildChart(views)
	data.PV, data.UV = analytics.Totals(points)
	data.Points = chartRows(points)

	if err := h.renderer.RenderFragment(w, http.StatusOK, "fragments/views", data); err != nil {
		logAndInternalError(w, "render error", "error", err)
	}
}

// Delete handles POST /admin/page/{id}/delete and DELETE /admin/page/{id}.
func (h *PagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	returnURL := redirectAdminPages
	if r.Method == http.MethodPost && r.ParseForm() == nil {
		returnURL = safeReturnURL(r.FormValue("return"))
	}

	if err := h.pages.Delete(r.Context(), id); err != nil {
		h.mutationFailed(w, r, returnURL, "failed to delete page", id, err)
		return
	}

	slog.Info("page deleted", "page_id", id)
	h.mutationDone(w, r, returnURL, MsgPageDeleted)
}

func (h *PagesHandler) renderEditor(w http.ResponseWriter, r *http.Request, status int, data PageFormData) {
	data.Statuses = model.PageStatuses
	data.IsEdit = data.Page != nil
	data.Action = redirectAdminEditor
	title := "New Page"
	if data.IsEdit {
		data.Action = fmt.Sprintf(redirectAdminEditorID, data.Page.ID)
		title = "Edit Page"
	}
	if data.Errors == nil {
		data.Errors = make(map[string]string)
	}

	if err := h.renderer.RenderStatus(w, r, status, "admin/editor", render.TemplateData{
		Title: title,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "render error", "template", "admin/editor", "error", err)
	}
}

// mutationDone reports success. Script-driven requests get a refresh hint,
// form posts are redirected back to the listing so it is fetched again.
func (h *PagesHandler) mutationDone(w http.ResponseWriter, r *http.Request, returnURL, message string) {
	h.renderer.SetFlash(r, message, render.FlashSuccess)
	if isHTMX(r) {
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, returnURL, http.StatusSeeOther)
}

func (h *PagesHandler) mutationFailed(w http.ResponseWriter, r *http.Request, returnURL, logMsg, id string, err error) {
	status := serviceErrorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error(logMsg, "error", err, "page_id", id)
	}
	message := serviceErrorMessage(err)
	if isHTMX(r) {
		http.Error(w, message, status)
		return
	}
	flashError(w, r, h.renderer, returnURL, message)
}

func (h *PagesHandler) viewsFailed(w http.ResponseWriter, data ViewsData, logMsg, id string, err error) {
	status := serviceErrorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error(logMsg, "error", err, "page_id", id)
	}
	data.Error = serviceErrorMessage(err)

	if rerr := h.renderer.RenderFragment(w, status, "fragments/views", data); rerr != nil {
		slog.Error("render error", "error", rerr)
	}
}

// formErrors returns per-field messages for errors the editor can display inline.
func formErrors(err error) map[string]string {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		fields := make(map[string]string, len(verr.Fields))
		for k, v := range verr.Fields {
			if k == "scheduledAt" {
				k = "scheduled_at"
			}
			fields[k] = v
		}
		return fields
	}
	if errors.Is(err, service.ErrPathTaken) {
		return map[string]string{"path": "is already used by another page"}
	}
	return nil
}

func pageFormValues(p model.Page) map[string]string {
	values := map[string]string{
		"name":    p.Name,
		"path":    p.Path,
		"cover":   p.Cover,
		"content": p.Content,
		"status":  p.Status,
	}
	if p.ScheduledAt != nil {
		values["scheduled_at"] = p.ScheduledAt.UTC().Format(scheduleInputLayout)
	}
	return values
}

// parseScheduleInput parses a datetime-local value as UTC. Empty means no schedule.
func parseScheduleInput(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(scheduleInputLayout, s, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// safeReturnURL only allows returning to the page listing.
func safeReturnURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" || u.Path != redirectAdminPages {
		return redirectAdminPages
	}
	return u.RequestURI()
}

func chartRows(points []analytics.ChartPoint) []ChartRow {
	var maxPV int64
	for _, p := range points {
		maxPV = max(maxPV, p.PV)
	}

	rows := make([]ChartRow, 0, len(points))
	for _, p := range points {
		row := ChartRow{ChartPoint: p}
		if maxPV > 0 {
			row.PVPercent = int(p.PV * 100 / maxPV)
			row.UVPercent = int(p.UV * 100 / maxPV)
		}
		rows = append(rows, row)
	}
	return rows
}
