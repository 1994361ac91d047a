// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/ocms-pages/internal/model"
)

const viewColumns = `id, ip, user_agent, url, count, address, browser, os, device, create_at, update_at`

func scanView(row rowScanner) (model.View, error) {
	var v model.View
	err := row.Scan(
		&v.ID, &v.IP, &v.UserAgent, &v.URL, &v.Count,
		&v.Address, &v.Browser, &v.OS, &v.Device, &v.CreateAt, &v.UpdateAt,
	)
	return v, err
}

// UpsertViewParams identifies a visitor and URL, plus the visitor details
// stored on first sight.
type UpsertViewParams struct {
	ID        string
	IP        string
	UserAgent string
	URL       string
	Address   string
	Browser   string
	OS        string
	Device    string
	Now       time.Time
}

const upsertView = `INSERT INTO views (
	id, ip, user_agent, url, count, address, browser, os, device, create_at, update_at
) VALUES (?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?)
ON CONFLICT (ip, user_agent, url) DO UPDATE SET
	count = views.count + 1,
	update_at = excluded.update_at`

// UpsertView inserts a view or increments the count of an existing one.
func (q *Queries) UpsertView(ctx context.Context, arg UpsertViewParams) (model.View, error) {
	_, err := q.db.ExecContext(ctx, upsertView,
		arg.ID, arg.IP, arg.UserAgent, arg.URL,
		arg.Address, arg.Browser, arg.OS, arg.Device, arg.Now, arg.Now,
	)
	if err != nil {
		return model.View{}, err
	}
	return q.GetView(ctx, arg.IP, arg.UserAgent, arg.URL)
}

const getView = `SELECT ` + viewColumns + ` FROM views WHERE ip = ? AND user_agent = ? AND url = ?`

func (q *Queries) GetView(ctx context.Context, ip, userAgent, url string) (model.View, error) {
	return scanView(q.db.QueryRowContext(ctx, getView, ip, userAgent, url))
}

const listViewsByURL = `SELECT ` + viewColumns + ` FROM views WHERE url = ? ORDER BY update_at, id`

func (q *Queries) ListViewsByURL(ctx context.Context, url string) ([]model.View, error) {
	rows, err := q.db.QueryContext(ctx, listViewsByURL, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.View
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteViewsBefore = `DELETE FROM views WHERE update_at < ?`

// DeleteViewsBefore removes views not updated since before.
func (q *Queries) DeleteViewsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteViewsBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
