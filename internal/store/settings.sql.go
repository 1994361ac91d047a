// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/ocms-pages/internal/model"
)

const getSetting = `SELECT key, value, update_at FROM settings WHERE key = ?`

func (q *Queries) GetSetting(ctx context.Context, key string) (model.Setting, error) {
	var s model.Setting
	err := q.db.QueryRowContext(ctx, getSetting, key).Scan(&s.Key, &s.Value, &s.UpdateAt)
	return s, err
}

const upsertSetting = `INSERT INTO settings (key, value, update_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, update_at = excluded.update_at`

func (q *Queries) UpsertSetting(ctx context.Context, key, value string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, key, value, now)
	return err
}
