// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olegiv/ocms-pages/internal/model"
)

func TestPublicHandler_Page(t *testing.T) {
	svc := newTestServices(t)
	h := NewPublicHandler(svc.pages, testRenderer(t, nil))
	createTestPage(t, svc.pages, "About us", "about", model.PageStatusPublish)
	createTestPage(t, svc.pages, "Secret", "secret", model.PageStatusDraft)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   []string
	}{
		{
			name:       "published",
			path:       "about",
			wantStatus: http.StatusOK,
			wantBody:   []string{"<h1>About us</h1>", `class="toc"`, "Body text."},
		},
		{
			name:       "draft is hidden",
			path:       "secret",
			wantStatus: http.StatusNotFound,
			wantBody:   []string{"Page not found"},
		},
		{
			name:       "missing",
			path:       "nope",
			wantStatus: http.StatusNotFound,
			wantBody:   []string{"Page not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/page/"+tt.path, nil)
			req = requestWithURLParams(req, map[string]string{"path": tt.path})
			w := httptest.NewRecorder()
			h.Page(w, req)

			assertStatus(t, w.Code, tt.wantStatus)
			body := w.Body.String()
			for _, want := range tt.wantBody {
				if !strings.Contains(body, want) {
					t.Errorf("body missing %q", want)
				}
			}
		})
	}
}
