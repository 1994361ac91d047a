// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/service"
	"github.com/olegiv/ocms-pages/internal/testutil"
)

const firefoxUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0"

type fakeRecorder struct {
	mu    sync.Mutex
	views []service.ViewInput
}

func (f *fakeRecorder) Record(_ context.Context, in service.ViewInput) (model.View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, in)
	return model.View{URL: in.URL, Count: 1}, nil
}

func (f *fakeRecorder) recorded() []service.ViewInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.ViewInput(nil), f.views...)
}

type fakeResolver struct{}

func (fakeResolver) PageURL(_ context.Context, path string) (string, error) {
	return service.ResolvePageURL("https://example.com", path)
}

type fakeGeo struct{}

func (fakeGeo) Country(string) string { return "DE" }

func newTestRouter(tr *Tracker, status int) http.Handler {
	r := chi.NewRouter()
	r.With(tr.Middleware).Get("/page/{path}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	r.Post("/page/{path}", func(w http.ResponseWriter, _ *http.Request) {})
	return r
}

func TestTracker_RecordsSuccessfulViews(t *testing.T) {
	rec := &fakeRecorder{}
	tr := NewTracker(rec, fakeResolver{}, fakeGeo{}, testutil.TestLoggerSilent())
	tr.Start(context.Background())

	router := newTestRouter(tr, http.StatusOK)
	req := httptest.NewRequest(http.MethodGet, "/page/about", nil)
	req.Header.Set("User-Agent", firefoxUA)
	req.Header.Set("X-Real-IP", "203.0.113.9")
	router.ServeHTTP(httptest.NewRecorder(), req)

	tr.Stop()

	views := rec.recorded()
	require.Len(t, views, 1)
	assert.Equal(t, "https://example.com/page/about", views[0].URL)
	assert.Equal(t, "about", views[0].PagePath)
	assert.Equal(t, "203.0.113.9", views[0].IP)
	assert.Equal(t, "DE", views[0].Address)
	assert.Equal(t, "Firefox", views[0].Browser)
	assert.Equal(t, model.DeviceDesktop, views[0].Device)
}

func TestTracker_SkipsNonSuccessAndBots(t *testing.T) {
	rec := &fakeRecorder{}
	tr := NewTracker(rec, fakeResolver{}, nil, testutil.TestLoggerSilent())
	tr.Start(context.Background())

	notFound := newTestRouter(tr, http.StatusNotFound)
	notFound.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/page/missing", nil))

	ok := newTestRouter(tr, http.StatusOK)
	botReq := httptest.NewRequest(http.MethodGet, "/page/about", nil)
	botReq.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	ok.ServeHTTP(httptest.NewRecorder(), botReq)

	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/page/about", nil))

	tr.Stop()
	assert.Empty(t, rec.recorded())
}

func TestTracker_EnqueueAfterStop(t *testing.T) {
	tr := NewTracker(&fakeRecorder{}, fakeResolver{}, nil, testutil.TestLoggerSilent())
	tr.Start(context.Background())
	tr.Stop()

	done := make(chan struct{})
	go func() {
		tr.enqueue(hit{path: "late"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked after Stop")
	}
}

func TestGetRealIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{"X-Real-IP header", "127.0.0.1:12345", map[string]string{"X-Real-IP": "203.0.113.50"}, "203.0.113.50"},
		{"X-Forwarded-For single IP", "127.0.0.1:12345", map[string]string{"X-Forwarded-For": "198.51.100.178"}, "198.51.100.178"},
		{"X-Forwarded-For multiple IPs", "127.0.0.1:12345", map[string]string{"X-Forwarded-For": "198.51.100.178, 10.0.0.1"}, "198.51.100.178"},
		{"RemoteAddr IPv4", "192.0.2.1:54321", nil, "192.0.2.1"},
		{"RemoteAddr IPv6", "[2001:db8::1]:54321", nil, "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getRealIP(req); got != tt.expected {
				t.Errorf("getRealIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}
