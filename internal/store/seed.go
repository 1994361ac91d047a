// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-pages/internal/auth"
	"github.com/olegiv/ocms-pages/internal/model"
)

// DefaultAdminPassword is the admin password seeded into a fresh database.
const DefaultAdminPassword = "changeme"

// Seed creates initial data in the database.
// The admin password hash and the system URL are only written when absent.
func Seed(ctx context.Context, db *sql.DB, siteURL string) error {
	queries := New(db)
	now := time.Now().UTC()

	_, err := queries.GetSetting(ctx, model.SettingKeyAdminPasswordHash)
	switch {
	case err == nil:
		slog.Info("admin password already set, skipping seed")
	case errors.Is(err, sql.ErrNoRows):
		passwordHash, err := auth.HashPassword(DefaultAdminPassword)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		if err := queries.UpsertSetting(ctx, model.SettingKeyAdminPasswordHash, passwordHash, now); err != nil {
			return fmt.Errorf("storing admin password: %w", err)
		}
		slog.Info("created default admin password", "password", DefaultAdminPassword)
	default:
		return fmt.Errorf("checking admin password: %w", err)
	}

	if siteURL == "" {
		return nil
	}
	_, err = queries.GetSetting(ctx, model.SettingKeySystemURL)
	if errors.Is(err, sql.ErrNoRows) {
		if err := queries.UpsertSetting(ctx, model.SettingKeySystemURL, siteURL, now); err != nil {
			return fmt.Errorf("storing system url: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking system url: %w", err)
	}
	return nil
}
