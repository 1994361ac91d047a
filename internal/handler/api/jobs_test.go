// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/olegiv/ocms-pages/internal/scheduler"
)

// fakeJobs is a JobRunner with a fixed job list.
type fakeJobs struct {
	jobs []scheduler.JobInfo
	err  error
	ran  []string
}

func (f *fakeJobs) Jobs() []scheduler.JobInfo { return f.jobs }

func (f *fakeJobs) Trigger(_ context.Context, name string) error {
	for _, j := range f.jobs {
		if j.Name == name {
			f.ran = append(f.ran, name)
			return f.err
		}
	}
	return scheduler.ErrJobNotFound
}

func TestJobs(t *testing.T) {
	jobs := &fakeJobs{jobs: []scheduler.JobInfo{{Name: "prune-views", Schedule: "0 3 * * *"}}}
	env := testSetup(t, jobs)

	w := env.do(http.MethodGet, "/jobs", "", true)
	assertStatusCode(t, w, http.StatusOK)
	list, meta := unmarshalList[scheduler.JobInfo](t, w)
	if len(list) != 1 || list[0].Name != "prune-views" || meta.Total != 1 {
		t.Errorf("jobs = %+v meta = %+v", list, meta)
	}

	w = env.do(http.MethodPost, "/jobs/prune-views/run", "", true)
	assertStatusCode(t, w, http.StatusOK)
	if len(jobs.ran) != 1 {
		t.Errorf("ran = %v", jobs.ran)
	}

	w = env.do(http.MethodPost, "/jobs/missing/run", "", true)
	assertStatusCode(t, w, http.StatusNotFound)

	jobs.err = errors.New("boom")
	w = env.do(http.MethodPost, "/jobs/prune-views/run", "", true)
	assertStatusCode(t, w, http.StatusInternalServerError)

	w = env.do(http.MethodPost, "/jobs/prune-views/run", "", false)
	assertStatusCode(t, w, http.StatusUnauthorized)
}

func TestJobs_NotMountedWithoutRunner(t *testing.T) {
	env := testSetup(t, nil)

	w := env.do(http.MethodGet, "/jobs", "", true)
	assertStatusCode(t, w, http.StatusNotFound)
}
