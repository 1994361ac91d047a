// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"io/fs"
	"net/http"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-pages/internal/cache"
	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/render"
	"github.com/olegiv/ocms-pages/internal/service"
	"github.com/olegiv/ocms-pages/internal/session"
	"github.com/olegiv/ocms-pages/internal/testutil"
	"github.com/olegiv/ocms-pages/web"
)

const testSystemURL = "https://example.com"

// testDB creates a temporary SQLite database with migrations applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	return db
}

// testServices bundles the services handlers depend on.
type testServices struct {
	db       *sql.DB
	pages    *service.PageService
	views    *service.ViewService
	settings *service.SettingsService
	events   *service.EventService
}

func newTestServices(t *testing.T) testServices {
	t.Helper()
	db := testDB(t)
	logger := testutil.TestLoggerSilent()
	events := service.NewEventService(db)
	pageCache := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	return testServices{
		db:       db,
		pages:    service.NewPageService(db, service.PageServiceOptions{Cache: pageCache, Events: events, Logger: logger}),
		views:    service.NewViewService(db, pageCache),
		settings: service.NewSettingsService(db, nil, testSystemURL, events, logger),
		events:   events,
	}
}

// testSessionManager creates a session manager for testing.
func testSessionManager(t *testing.T) *scs.SessionManager {
	t.Helper()
	sm := scs.New()
	sm.Lifetime = 24 * time.Hour
	return sm
}

// testRenderer parses the embedded templates.
func testRenderer(t *testing.T, sm *scs.SessionManager) *render.Renderer {
	t.Helper()
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("fs.Sub: %v", err)
	}
	r, err := render.New(render.Config{TemplatesFS: templatesFS, SessionManager: sm, IsDev: true})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return r
}

// createTestPage creates a page through the page service.
func createTestPage(t *testing.T, pages *service.PageService, name, path, status string) model.Page {
	t.Helper()
	p, err := pages.Create(context.Background(), service.PageInput{
		Name:    name,
		Path:    path,
		Content: "# " + name + "\n\nBody text.",
		Status:  status,
	})
	if err != nil {
		t.Fatalf("creating page %q: %v", path, err)
	}
	return p
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// requestWithSession wraps a request with session context.
func requestWithSession(sm *scs.SessionManager, r *http.Request) *http.Request {
	ctx, err := sm.Load(r.Context(), "")
	if err != nil {
		return r
	}
	return r.WithContext(ctx)
}

// requestAsAdmin wraps a request with a session that is logged in.
func requestAsAdmin(sm *scs.SessionManager, r *http.Request) *http.Request {
	r = requestWithSession(sm, r)
	sm.Put(r.Context(), session.KeyAdmin, true)
	return r
}

// flashOf returns the flash message and type stored in the request session.
func flashOf(sm *scs.SessionManager, r *http.Request) (string, string) {
	return sm.GetString(r.Context(), session.KeyFlash), sm.GetString(r.Context(), session.KeyFlashType)
}

// assertStatus checks if the response status code matches the expected value.
func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}
