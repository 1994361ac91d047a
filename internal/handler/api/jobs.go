// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-pages/internal/scheduler"
)

// ListJobs handles GET /api/v1/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	jobs := h.jobs.Jobs()
	if jobs == nil {
		jobs = []scheduler.JobInfo{}
	}
	WriteSuccess(w, jobs, &Meta{Total: int64(len(jobs))})
}

// RunJob handles POST /api/v1/jobs/{name}/run
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.jobs.Trigger(r.Context(), name); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			WriteNotFound(w, "Job not found")
			return
		}
		slog.Error("api: job run failed", "job", name, "error", err)
		WriteInternalError(w, "Job failed")
		return
	}
	WriteSuccess(w, map[string]string{"job": name, "status": "completed"}, nil)
}
