// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/olegiv/ocms-pages/internal/model"
)

func TestEventsHandler_List(t *testing.T) {
	svc := newTestServices(t)
	sm := testSessionManager(t)
	h := NewEventsHandler(svc.events, testRenderer(t, sm))

	ctx := context.Background()
	if err := svc.events.LogPageEvent(ctx, "Page published", map[string]any{"path": "about", "status": "publish"}); err != nil {
		t.Fatalf("LogPageEvent: %v", err)
	}
	if err := svc.events.LogEvent(ctx, model.EventLevelError, model.EventCategorySystem, "Disk almost full", nil); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}

	req := requestAsAdmin(sm, httptest.NewRequest(http.MethodGet, "/admin/events", nil))
	w := httptest.NewRecorder()
	h.List(w, req)

	assertStatus(t, w.Code, http.StatusOK)
	body := w.Body.String()
	for _, want := range []string{"Page published", "path: about, status: publish", "Disk almost full"} {
		if !strings.Contains(body, want) {
			t.Errorf("events body missing %q", want)
		}
	}
}

func TestFormatMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata string
		want     string
	}{
		{"empty", "", ""},
		{"empty object", "{}", ""},
		{"strings sorted", `{"status":"publish","path":"about"}`, "path: about, status: publish"},
		{"numbers and bools", `{"count":3,"ok":true}`, "count: 3, ok: true"},
		{"nested", `{"ids":[1,2]}`, "ids: [1,2]"},
		{"null", `{"user":null}`, "user: null"},
		{"invalid json", "not json", "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatMetadata(tt.metadata); got != tt.want {
				t.Errorf("formatMetadata(%q) = %q; want %q", tt.metadata, got, tt.want)
			}
		})
	}
}
