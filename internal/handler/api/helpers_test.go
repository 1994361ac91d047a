// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/ocms-pages/internal/auth"
	"github.com/olegiv/ocms-pages/internal/cache"
	"github.com/olegiv/ocms-pages/internal/middleware"
	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/service"
	"github.com/olegiv/ocms-pages/internal/testutil"
)

const (
	testSystemURL     = "https://example.com"
	testAdminPassword = "correct-horse"
	testTokenSecret   = "0123456789abcdef0123456789abcdef"
)

// testEnv is an API router backed by a migrated temporary database.
type testEnv struct {
	t        *testing.T
	handler  *Handler
	router   http.Handler
	pages    *service.PageService
	views    *service.ViewService
	settings *service.SettingsService
	tokens   *auth.TokenManager
	token    string
}

// testSetup builds the API with real services. jobs may be nil.
func testSetup(t *testing.T, jobs *fakeJobs) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	logger := testutil.TestLoggerSilent()

	events := service.NewEventService(db)
	pageCache := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	env := &testEnv{
		t:        t,
		pages:    service.NewPageService(db, service.PageServiceOptions{Cache: pageCache, Events: events, Logger: logger}),
		views:    service.NewViewService(db, pageCache),
		settings: service.NewSettingsService(db, nil, testSystemURL, events, logger),
		tokens:   auth.NewTokenManager(testTokenSecret, time.Hour),
	}
	if err := env.settings.SetAdminPassword(context.Background(), testAdminPassword); err != nil {
		t.Fatalf("SetAdminPassword: %v", err)
	}

	deps := Deps{
		Pages:           env.pages,
		Views:           env.views,
		Settings:        env.settings,
		Tokens:          env.tokens,
		LoginProtection: middleware.NewLoginProtection(middleware.LoginProtectionConfig{MaxFailedAttempts: 3}),
	}
	if jobs != nil {
		deps.Jobs = jobs
	}
	env.handler = NewHandler(deps)
	env.router = env.handler.Router(RouterConfig{})

	token, _, err := env.tokens.Issue(auth.AdminSubject)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	env.token = token
	return env
}

// do sends a request through the router. Authenticated requests carry the test token.
func (e *testEnv) do(method, path, body string, authenticated bool) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// createPage creates a page through the page service.
func (e *testEnv) createPage(name, path, status string) model.Page {
	e.t.Helper()
	p, err := e.pages.Create(context.Background(), service.PageInput{
		Name:    name,
		Path:    path,
		Content: "## " + name,
		Status:  status,
	})
	if err != nil {
		e.t.Fatalf("creating page %q: %v", path, err)
	}
	return p
}

// unmarshalData unmarshals the data field of a success response.
func unmarshalData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v (body %s)", err, w.Body.String())
	}
	return resp.Data
}

// unmarshalList unmarshals a list response with its meta.
func unmarshalList[T any](t *testing.T, w *httptest.ResponseRecorder) ([]T, *Meta) {
	t.Helper()
	var resp struct {
		Data []T   `json:"data"`
		Meta *Meta `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v (body %s)", err, w.Body.String())
	}
	return resp.Data, resp.Meta
}
