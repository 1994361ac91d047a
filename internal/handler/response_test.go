// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/ocms-pages/internal/service"
)

func TestLogAndHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		message    string
		statusCode int
	}{
		{"bad request", "Bad Request", http.StatusBadRequest},
		{"not found", "Not Found", http.StatusNotFound},
		{"internal error", "Internal Server Error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			logAndHTTPError(w, tt.message, tt.statusCode, "test error")

			if w.Code != tt.statusCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.statusCode)
			}
			if w.Body.String() == "" {
				t.Error("body should not be empty")
			}
		})
	}
}

func TestServiceErrorMapping(t *testing.T) {
	verr := &service.ValidationError{Fields: map[string]string{"name": "is required"}}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", verr, http.StatusUnprocessableEntity, "validation failed: name: is required"},
		{"not found", service.ErrPageNotFound, http.StatusNotFound, MsgPageNotFound},
		{"wrapped path taken", fmt.Errorf("%w: about", service.ErrPathTaken), http.StatusConflict, "Path is already used by another page"},
		{"other", errors.New("disk full"), http.StatusInternalServerError, "Operation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serviceErrorStatus(tt.err); got != tt.wantStatus {
				t.Errorf("serviceErrorStatus() = %d, want %d", got, tt.wantStatus)
			}
			if got := serviceErrorMessage(tt.err); got != tt.wantMsg {
				t.Errorf("serviceErrorMessage() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestIsHTMX(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if isHTMX(req) {
		t.Error("plain request reported as htmx")
	}
	req.Header.Set("HX-Request", "true")
	if !isHTMX(req) {
		t.Error("HX-Request request not detected")
	}
}
