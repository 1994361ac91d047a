// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/olegiv/ocms-pages/internal/auth"
	"github.com/olegiv/ocms-pages/internal/cache"
	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/store"
	"github.com/olegiv/ocms-pages/internal/util"
)

const systemURLCacheKey = "settings:" + model.SettingKeySystemURL

// SettingsService reads and writes site settings.
type SettingsService struct {
	queries  *store.Queries
	cache    cache.Cache
	fallback string
	events   *EventService
	logger   *slog.Logger
	now      func() time.Time
}

// NewSettingsService creates a SettingsService. fallbackURL is returned by
// SystemURL when no system URL has been stored.
func NewSettingsService(db *sql.DB, c cache.Cache, fallbackURL string, events *EventService, logger *slog.Logger) *SettingsService {
	if c == nil {
		c = cache.NewMemoryCache(cache.MemoryCacheOptions{})
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{
		queries:  store.New(db),
		cache:    c,
		fallback: strings.TrimRight(fallbackURL, "/"),
		events:   events,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SystemURL returns the base site URL.
func (s *SettingsService) SystemURL(ctx context.Context) (string, error) {
	if b, err := s.cache.Get(ctx, systemURLCacheKey); err == nil {
		return string(b), nil
	}

	setting, err := s.queries.GetSetting(ctx, model.SettingKeySystemURL)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.fallback, nil
	case err != nil:
		return "", fmt.Errorf("getting system url: %w", err)
	}

	if err := s.cache.Set(ctx, systemURLCacheKey, []byte(setting.Value), 0); err != nil {
		s.logger.Debug("system url not cached", "error", err)
	}
	return setting.Value, nil
}

// SetSystemURL stores a new base site URL. It must be an absolute http(s) URL.
func (s *SettingsService) SetSystemURL(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if _, err := util.ParseHTTPURL(raw); err != nil {
		return "", &ValidationError{Fields: map[string]string{"systemUrl": err.Error()}}
	}

	if err := s.queries.UpsertSetting(ctx, model.SettingKeySystemURL, raw, s.now()); err != nil {
		return "", fmt.Errorf("saving system url: %w", err)
	}
	if err := s.cache.Delete(ctx, systemURLCacheKey); err != nil {
		s.logger.Warn("failed to invalidate settings cache", "error", err)
	}

	if s.events != nil {
		if err := s.events.LogConfigEvent(ctx, "System URL updated", map[string]any{"system_url": raw}); err != nil {
			s.logger.Warn("failed to log settings event", "error", err)
		}
	}
	return raw, nil
}

// PageURL resolves the public path of a page against the system URL.
// The page path replaces any path on the system URL.
func (s *SettingsService) PageURL(ctx context.Context, path string) (string, error) {
	systemURL, err := s.SystemURL(ctx)
	if err != nil {
		return "", err
	}
	return ResolvePageURL(systemURL, path)
}

// ResolvePageURL resolves /page/{path} against base.
func ResolvePageURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing system url: %w", err)
	}
	ref := &url.URL{Path: model.PublicPagePath(path)}
	return u.ResolveReference(ref).String(), nil
}

// CheckAdminPassword verifies the admin password and upgrades its hash
// when the stored parameters are outdated.
func (s *SettingsService) CheckAdminPassword(ctx context.Context, password string) error {
	setting, err := s.queries.GetSetting(ctx, model.SettingKeyAdminPasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidPassword
	}
	if err != nil {
		return fmt.Errorf("getting admin password: %w", err)
	}

	ok, err := auth.CheckPassword(password, setting.Value)
	if err != nil {
		return fmt.Errorf("checking admin password: %w", err)
	}
	if !ok {
		return ErrInvalidPassword
	}

	if auth.NeedsRehash(setting.Value) {
		if err := s.storePassword(ctx, password); err != nil {
			s.logger.Warn("failed to upgrade admin password hash", "error", err)
		}
	}
	return nil
}

// SetAdminPassword replaces the admin password.
func (s *SettingsService) SetAdminPassword(ctx context.Context, password string) error {
	if len(password) < auth.MinPasswordLength {
		return &ValidationError{Fields: map[string]string{
			"password": fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength),
		}}
	}
	if err := s.storePassword(ctx, password); err != nil {
		return err
	}
	if s.events != nil {
		if err := s.events.LogAuthEvent(ctx, model.EventLevelInfo, "Admin password changed", nil); err != nil {
			s.logger.Warn("failed to log auth event", "error", err)
		}
	}
	return nil
}

// EnsureAdminPassword stores password as the admin password unless one is
// already set. It reports whether a password was stored.
func (s *SettingsService) EnsureAdminPassword(ctx context.Context, password string) (bool, error) {
	_, err := s.queries.GetSetting(ctx, model.SettingKeyAdminPasswordHash)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("getting admin password: %w", err)
	}
	if err := s.SetAdminPassword(ctx, password); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SettingsService) storePassword(ctx context.Context, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.queries.UpsertSetting(ctx, model.SettingKeyAdminPasswordHash, hash, s.now()); err != nil {
		return fmt.Errorf("saving admin password: %w", err)
	}
	return nil
}
