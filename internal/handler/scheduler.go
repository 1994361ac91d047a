// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-pages/internal/render"
	"github.com/olegiv/ocms-pages/internal/scheduler"
)

// JobRunner lists and triggers scheduled jobs.
type JobRunner interface {
	Jobs() []scheduler.JobInfo
	Trigger(ctx context.Context, name string) error
}

// SchedulerHandler handles scheduler admin routes.
type SchedulerHandler struct {
	jobs     JobRunner
	renderer *render.Renderer
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(jobs JobRunner, renderer *render.Renderer) *SchedulerHandler {
	return &SchedulerHandler{jobs: jobs, renderer: renderer}
}

// SchedulerListData holds data for the scheduler template.
type SchedulerListData struct {
	Jobs []scheduler.JobInfo
}

// List handles GET /admin/scheduler - displays registered jobs.
func (h *SchedulerHandler) List(w http.ResponseWriter, r *http.Request) {
	renderOrError(w, r, h.renderer, "admin/scheduler", render.TemplateData{
		Title: "Scheduled jobs",
		Data:  SchedulerListData{Jobs: h.jobs.Jobs()},
	})
}

// TriggerNow handles POST /admin/scheduler/{name}/run - runs a job immediately.
func (h *SchedulerHandler) TriggerNow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.jobs.Trigger(r.Context(), name); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			flashError(w, r, h.renderer, redirectAdminScheduler, "Job not found")
			return
		}
		slog.Error("manual job run failed", "job", name, "error", err)
		flashError(w, r, h.renderer, redirectAdminScheduler, "Job failed: "+err.Error())
		return
	}

	slog.Info("job triggered manually", "job", name)
	flashSuccess(w, r, h.renderer, redirectAdminScheduler, MsgOperationOK)
}
