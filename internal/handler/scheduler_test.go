// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ocms-pages/internal/render"
	"github.com/olegiv/ocms-pages/internal/scheduler"
)

// fakeJobRunner records triggered jobs.
type fakeJobRunner struct {
	jobs      []scheduler.JobInfo
	triggered []string
	err       error
}

func (f *fakeJobRunner) Jobs() []scheduler.JobInfo { return f.jobs }

func (f *fakeJobRunner) Trigger(_ context.Context, name string) error {
	for _, j := range f.jobs {
		if j.Name == name {
			f.triggered = append(f.triggered, name)
			return f.err
		}
	}
	return scheduler.ErrJobNotFound
}

func newTestSchedulerHandler(t *testing.T, runner *fakeJobRunner) (*SchedulerHandler, *scs.SessionManager) {
	t.Helper()
	sm := testSessionManager(t)
	return NewSchedulerHandler(runner, testRenderer(t, sm)), sm
}

func TestSchedulerHandler_List(t *testing.T) {
	next := time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)
	runner := &fakeJobRunner{jobs: []scheduler.JobInfo{
		{Name: "publish-scheduled-pages", Description: "Publish due pages", Schedule: "* * * * *", NextRun: next},
	}}
	h, sm := newTestSchedulerHandler(t, runner)

	req := requestAsAdmin(sm, httptest.NewRequest(http.MethodGet, "/admin/scheduler", nil))
	w := httptest.NewRecorder()
	h.List(w, req)

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	for _, want := range []string{"publish-scheduled-pages", "2026-05-01 03:00:00", `action="/admin/scheduler/publish-scheduled-pages/run"`} {
		if !strings.Contains(body, want) {
			t.Errorf("scheduler body missing %q", want)
		}
	}
}

func TestSchedulerHandler_TriggerNow(t *testing.T) {
	tests := []struct {
		name      string
		job       string
		err       error
		wantFlash string
		wantType  string
	}{
		{"ok", "prune-views", nil, MsgOperationOK, render.FlashSuccess},
		{"unknown job", "missing", nil, "Job not found", render.FlashError},
		{"job error", "prune-views", errors.New("disk full"), "Job failed: disk full", render.FlashError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeJobRunner{jobs: []scheduler.JobInfo{{Name: "prune-views"}}, err: tt.err}
			h, sm := newTestSchedulerHandler(t, runner)

			req := httptest.NewRequest(http.MethodPost, "/admin/scheduler/"+tt.job+"/run", nil)
			req = requestWithURLParams(requestAsAdmin(sm, req), map[string]string{"name": tt.job})
			w := httptest.NewRecorder()
			h.TriggerNow(w, req)

			assertStatus(t, w.Code, http.StatusSeeOther)
			if loc := w.Header().Get("Location"); loc != redirectAdminScheduler {
				t.Errorf("Location = %q; want %q", loc, redirectAdminScheduler)
			}
			if msg, typ := flashOf(sm, req); msg != tt.wantFlash || typ != tt.wantType {
				t.Errorf("flash = %q (%s); want %q (%s)", msg, typ, tt.wantFlash, tt.wantType)
			}
		})
	}
}
