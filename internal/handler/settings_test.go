// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/olegiv/ocms-pages/internal/service"
)

func newTestSettingsHandler(t *testing.T) (*SettingsHandler, testServices, *http.Request) {
	t.Helper()
	svc := newTestServices(t)
	if err := svc.settings.SetAdminPassword(context.Background(), testAdminPassword); err != nil {
		t.Fatalf("SetAdminPassword: %v", err)
	}
	sm := testSessionManager(t)
	h := NewSettingsHandler(svc.settings, testRenderer(t, sm))
	return h, svc, requestAsAdmin(sm, httptest.NewRequest(http.MethodGet, "/admin/settings", nil))
}

func TestSettingsHandler_Form(t *testing.T) {
	h, _, req := newTestSettingsHandler(t)

	w := httptest.NewRecorder()
	h.Form(w, req)

	assertStatus(t, w.Code, http.StatusOK)
	if !strings.Contains(w.Body.String(), `value="`+testSystemURL+`"`) {
		t.Error("form should show the fallback system URL")
	}
}

func settingsPost(base *http.Request, values url.Values) *http.Request {
	req := postForm("/admin/settings", values)
	return req.WithContext(base.Context())
}

func TestSettingsHandler_Save_SystemURL(t *testing.T) {
	h, svc, base := newTestSettingsHandler(t)

	w := httptest.NewRecorder()
	h.Save(w, settingsPost(base, url.Values{"system_url": {"https://pages.example.org/"}}))

	assertStatus(t, w.Code, http.StatusSeeOther)
	if loc := w.Header().Get("Location"); loc != redirectAdminSettings {
		t.Errorf("Location = %q; want %q", loc, redirectAdminSettings)
	}

	got, err := svc.settings.SystemURL(context.Background())
	if err != nil {
		t.Fatalf("SystemURL: %v", err)
	}
	if got != "https://pages.example.org" {
		t.Errorf("SystemURL = %q; want trailing slash trimmed", got)
	}
}

func TestSettingsHandler_Save_InvalidURL(t *testing.T) {
	h, svc, base := newTestSettingsHandler(t)

	w := httptest.NewRecorder()
	h.Save(w, settingsPost(base, url.Values{"system_url": {"ftp://example.com"}}))

	assertStatus(t, w.Code, http.StatusUnprocessableEntity)
	if !strings.Contains(w.Body.String(), "Site URL ") {
		t.Error("expected inline site URL error")
	}

	got, _ := svc.settings.SystemURL(context.Background())
	if got != testSystemURL {
		t.Errorf("SystemURL = %q; invalid value must not be stored", got)
	}
}

func TestSettingsHandler_Save_Password(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		newPass    string
		wantStatus int
		wantError  string
	}{
		{
			name:       "wrong current password",
			current:    "nope",
			newPass:    "new-password-1",
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "Current password is incorrect",
		},
		{
			name:       "new password too short",
			current:    testAdminPassword,
			newPass:    "short",
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "Password must be at least 8 characters",
		},
		{
			name:       "changed",
			current:    testAdminPassword,
			newPass:    "new-password-1",
			wantStatus: http.StatusSeeOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc, base := newTestSettingsHandler(t)

			w := httptest.NewRecorder()
			h.Save(w, settingsPost(base, url.Values{
				"system_url":       {"https://changed.example.com"},
				"current_password": {tt.current},
				"new_password":     {tt.newPass},
			}))

			assertStatus(t, w.Code, tt.wantStatus)
			ctx := context.Background()
			if tt.wantError != "" {
				if !strings.Contains(w.Body.String(), tt.wantError) {
					t.Errorf("body missing %q", tt.wantError)
				}
				if got, _ := svc.settings.SystemURL(ctx); got != testSystemURL {
					t.Errorf("SystemURL = %q; nothing should be saved on error", got)
				}
				return
			}

			if err := svc.settings.CheckAdminPassword(ctx, tt.newPass); err != nil {
				t.Errorf("new password rejected: %v", err)
			}
			if err := svc.settings.CheckAdminPassword(ctx, testAdminPassword); !errors.Is(err, service.ErrInvalidPassword) {
				t.Errorf("old password check error = %v; want ErrInvalidPassword", err)
			}
		})
	}
}
