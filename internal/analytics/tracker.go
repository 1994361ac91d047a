// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package analytics records public page views and turns them into charts.
package analytics

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/service"
)

// DefaultQueueSize bounds the number of views waiting to be stored.
const DefaultQueueSize = 256

// ViewRecorder stores a view.
type ViewRecorder interface {
	Record(ctx context.Context, in service.ViewInput) (model.View, error)
}

// URLResolver builds the absolute URL of a page path.
type URLResolver interface {
	PageURL(ctx context.Context, path string) (string, error)
}

// CountryLookup maps an IP address to a country code.
type CountryLookup interface {
	Country(ip string) string
}

// hit is the part of a request needed to record a view after the response.
type hit struct {
	ip        string
	userAgent string
	path      string
}

// Tracker records views of public pages in the background.
type Tracker struct {
	views    ViewRecorder
	resolver URLResolver
	geo      CountryLookup
	logger   *slog.Logger
	queue    chan hit
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewTracker creates a tracker. geo may be nil.
func NewTracker(views ViewRecorder, resolver URLResolver, geo CountryLookup, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		views:    views,
		resolver: resolver,
		geo:      geo,
		logger:   logger,
		queue:    make(chan hit, DefaultQueueSize),
	}
}

// Start launches the background worker. It stops when ctx is cancelled or
// Stop is called.
func (t *Tracker) Start(ctx context.Context) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case h, ok := <-t.queue:
				if !ok {
					return
				}
				t.record(ctx, h)
			}
		}
	}()
}

// Stop drains pending views and waits for the worker to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()
	t.wg.Wait()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.status = http.StatusOK
		rw.wroteHeader = true
	}
	return rw.ResponseWriter.Write(b)
}

// Middleware tracks successful GET requests of the page route. The page path
// is taken from the "path" URL parameter.
func (t *Tracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.status != http.StatusOK {
			return
		}

		path := chi.URLParam(r, "path")
		if path == "" {
			path = strings.TrimPrefix(r.URL.Path, "/page/")
		}
		t.enqueue(hit{ip: getRealIP(r), userAgent: r.UserAgent(), path: path})
	})
}

func (t *Tracker) enqueue(h hit) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	select {
	case t.queue <- h:
	default:
		t.logger.Warn("view queue full, dropping view", "path", h.path)
	}
}

func (t *Tracker) record(ctx context.Context, h hit) {
	ua := ParseUserAgent(h.userAgent)
	if ua.Device == model.DeviceBot {
		return
	}

	pageURL, err := t.resolver.PageURL(ctx, h.path)
	if err != nil {
		t.logger.Error("failed to resolve page url", "path", h.path, "error", err)
		return
	}

	var country string
	if t.geo != nil {
		country = t.geo.Country(h.ip)
	}

	_, err = t.views.Record(ctx, service.ViewInput{
		IP:        h.ip,
		UserAgent: h.userAgent,
		URL:       pageURL,
		PagePath:  h.path,
		Address:   country,
		Browser:   ua.Browser,
		OS:        ua.OS,
		Device:    ua.Device,
	})
	if err != nil {
		t.logger.Error("failed to record view", "path", h.path, "error", err)
	}
}

// getRealIP extracts the real client IP from the request.
// It respects X-Real-IP and X-Forwarded-For headers set by reverse proxies.
func getRealIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx > 0 {
		ip = ip[:idx]
	}
	ip = strings.TrimPrefix(ip, "[")
	ip = strings.TrimSuffix(ip, "]")

	return ip
}
