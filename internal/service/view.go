// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-pages/internal/cache"
	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/store"
	"github.com/olegiv/ocms-pages/internal/util"
)

// ViewInput describes one tracked page view.
type ViewInput struct {
	IP        string
	UserAgent string
	// URL is the absolute page URL the view is keyed by.
	URL string
	// PagePath, when set, also increments the page's view counter.
	PagePath string
	Address  string
	Browser  string
	OS       string
	Device   string
}

// ViewService records and looks up page views.
type ViewService struct {
	db      *sql.DB
	queries *store.Queries
	cache   cache.Cache
	now     func() time.Time
}

// NewViewService creates a new ViewService. c is the page cache shared with
// PageService; cached pages carry the view counter, so it is invalidated when
// a view bumps the counter. c may be nil.
func NewViewService(db *sql.DB, c cache.Cache) *ViewService {
	return &ViewService{
		db:      db,
		queries: store.New(db),
		cache:   c,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ListByURL returns the view records of an absolute URL, oldest activity first.
func (s *ViewService) ListByURL(ctx context.Context, absoluteURL string) ([]model.View, error) {
	absoluteURL = strings.TrimSpace(absoluteURL)
	if absoluteURL == "" {
		return nil, &ValidationError{Fields: map[string]string{"url": "is required"}}
	}
	if _, err := util.ParseHTTPURL(absoluteURL); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"url": err.Error()}}
	}

	views, err := s.queries.ListViewsByURL(ctx, absoluteURL)
	if err != nil {
		return nil, fmt.Errorf("listing views: %w", err)
	}
	if views == nil {
		views = []model.View{}
	}
	return views, nil
}

// Record upserts a view and bumps the page view counter in one transaction.
func (s *ViewService) Record(ctx context.Context, in ViewInput) (model.View, error) {
	if in.URL == "" {
		return model.View{}, &ValidationError{Fields: map[string]string{"url": "is required"}}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.View{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	view, err := qtx.UpsertView(ctx, store.UpsertViewParams{
		ID:        uuid.New().String(),
		IP:        in.IP,
		UserAgent: in.UserAgent,
		URL:       in.URL,
		Address:   in.Address,
		Browser:   in.Browser,
		OS:        in.OS,
		Device:    in.Device,
		Now:       s.now(),
	})
	if err != nil {
		return model.View{}, fmt.Errorf("recording view: %w", err)
	}

	if in.PagePath != "" {
		if err := qtx.IncrementPageViews(ctx, in.PagePath); err != nil {
			return model.View{}, fmt.Errorf("incrementing page views: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.View{}, fmt.Errorf("committing view: %w", err)
	}

	if in.PagePath != "" && s.cache != nil {
		if err := s.cache.DeleteByPrefix(ctx, pageCachePrefix); err != nil {
			slog.Warn("failed to invalidate page cache after view", "path", in.PagePath, "error", err)
		}
	}
	return view, nil
}

// Prune deletes view records last updated before the given time.
func (s *ViewService) Prune(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.queries.DeleteViewsBefore(ctx, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning views: %w", err)
	}
	return n, nil
}
