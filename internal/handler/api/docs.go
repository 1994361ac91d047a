// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/olegiv/ocms-pages/internal/service"
)

const docsTemplate = "api/docs.html"

// DocsHandler renders the HTML reference for the JSON API. Example URLs
// point at the configured system URL.
type DocsHandler struct {
	settings *service.SettingsService
	fsys     fs.FS
	cached   *template.Template // nil in development, where every request re-parses
}

// DocsConfig configures NewDocsHandler.
type DocsConfig struct {
	Settings   *service.SettingsService
	TemplateFS fs.FS
	IsDev      bool
}

// NewDocsHandler parses the docs template once, so a missing template fails at startup.
func NewDocsHandler(cfg DocsConfig) (*DocsHandler, error) {
	h := &DocsHandler{settings: cfg.Settings, fsys: cfg.TemplateFS}
	tmpl, err := h.load()
	if err != nil {
		return nil, err
	}
	if !cfg.IsDev {
		h.cached = tmpl
	}
	return h, nil
}

func (h *DocsHandler) load() (*template.Template, error) {
	tmpl, err := template.ParseFS(h.fsys, docsTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", docsTemplate, err)
	}
	return tmpl, nil
}

// baseURL is the API root under the system URL. Without one it is derived
// from the request host, honoring X-Forwarded-Proto.
func (h *DocsHandler) baseURL(r *http.Request) string {
	if h.settings != nil {
		if u, err := h.settings.SystemURL(r.Context()); err == nil && u != "" {
			return u + Prefix
		}
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	switch p := r.Header.Get("X-Forwarded-Proto"); p {
	case "http", "https":
		scheme = p
	}
	return scheme + "://" + r.Host + Prefix
}

// ServeDocs handles GET /api/v1/docs
func (h *DocsHandler) ServeDocs(w http.ResponseWriter, r *http.Request) {
	tmpl := h.cached
	if tmpl == nil {
		var err error
		if tmpl, err = h.load(); err != nil {
			slog.Error("api docs template reload failed", "error", err)
			http.Error(w, "Failed to parse template", http.StatusInternalServerError)
			return
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ BaseURL string }{h.baseURL(r)}); err != nil {
		slog.Error("api docs render failed", "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = buf.WriteTo(w)
}
