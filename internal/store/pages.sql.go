// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/util"
)

const pageColumns = `id, name, path, cover, content, html, toc, status, views,
	publish_at, scheduled_at, create_at, update_at`

func scanPage(row rowScanner) (model.Page, error) {
	var (
		p                      model.Page
		publishAt, scheduledAt sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Path, &p.Cover, &p.Content, &p.HTML, &p.Toc,
		&p.Status, &p.Views, &publishAt, &scheduledAt, &p.CreateAt, &p.UpdateAt,
	)
	p.PublishAt = util.TimePtr(publishAt)
	p.ScheduledAt = util.TimePtr(scheduledAt)
	return p, err
}

func scanPages(rows *sql.Rows) ([]model.Page, error) {
	defer func() { _ = rows.Close() }()

	var items []model.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CreatePageParams holds the columns of a new page row.
type CreatePageParams struct {
	ID          string
	Name        string
	Path        string
	Cover       string
	Content     string
	HTML        string
	Toc         string
	Status      string
	PublishAt   sql.NullTime
	ScheduledAt sql.NullTime
	CreateAt    time.Time
	UpdateAt    time.Time
}

const createPage = `INSERT INTO pages (
	id, name, path, cover, content, html, toc, status, views,
	publish_at, scheduled_at, create_at, update_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`

func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (model.Page, error) {
	_, err := q.db.ExecContext(ctx, createPage,
		arg.ID, arg.Name, arg.Path, arg.Cover, arg.Content, arg.HTML, arg.Toc, arg.Status,
		arg.PublishAt, arg.ScheduledAt, arg.CreateAt, arg.UpdateAt,
	)
	if err != nil {
		return model.Page{}, err
	}
	return q.GetPageByID(ctx, arg.ID)
}

const getPageByID = `SELECT ` + pageColumns + ` FROM pages WHERE id = ?`

func (q *Queries) GetPageByID(ctx context.Context, id string) (model.Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPageByID, id))
}

const getPageByPath = `SELECT ` + pageColumns + ` FROM pages WHERE path = ?`

func (q *Queries) GetPageByPath(ctx context.Context, path string) (model.Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPageByPath, path))
}

// ListPagesParams filters and paginates ListPages. An empty Status lists all pages.
type ListPagesParams struct {
	Status string
	Limit  int64
	Offset int64
}

const listPages = `SELECT ` + pageColumns + ` FROM pages
WHERE (?1 = '' OR status = ?1)
ORDER BY create_at DESC, id
LIMIT ?2 OFFSET ?3`

func (q *Queries) ListPages(ctx context.Context, arg ListPagesParams) ([]model.Page, error) {
	rows, err := q.db.QueryContext(ctx, listPages, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanPages(rows)
}

const countPages = `SELECT COUNT(*) FROM pages WHERE (?1 = '' OR status = ?1)`

func (q *Queries) CountPages(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPages, status).Scan(&n)
	return n, err
}

const pathExists = `SELECT EXISTS(SELECT 1 FROM pages WHERE path = ? AND id != ?)`

// PathExists reports whether path is used by a page other than excludeID.
func (q *Queries) PathExists(ctx context.Context, path, excludeID string) (bool, error) {
	var exists bool
	if err := q.db.QueryRowContext(ctx, pathExists, path, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking path: %w", err)
	}
	return exists, nil
}

// UpdatePageParams holds the full set of writable page columns.
type UpdatePageParams struct {
	ID          string
	Name        string
	Path        string
	Cover       string
	Content     string
	HTML        string
	Toc         string
	Status      string
	PublishAt   sql.NullTime
	ScheduledAt sql.NullTime
	UpdateAt    time.Time
}

const updatePage = `UPDATE pages SET
	name = ?, path = ?, cover = ?, content = ?, html = ?, toc = ?, status = ?,
	publish_at = ?, scheduled_at = ?, update_at = ?
WHERE id = ?`

func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) (model.Page, error) {
	res, err := q.db.ExecContext(ctx, updatePage,
		arg.Name, arg.Path, arg.Cover, arg.Content, arg.HTML, arg.Toc, arg.Status,
		arg.PublishAt, arg.ScheduledAt, arg.UpdateAt, arg.ID,
	)
	if err != nil {
		return model.Page{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Page{}, sql.ErrNoRows
	}
	return q.GetPageByID(ctx, arg.ID)
}

const deletePage = `DELETE FROM pages WHERE id = ?`

// DeletePage removes a page and returns the number of deleted rows.
func (q *Queries) DeletePage(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deletePage, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const incrementPageViews = `UPDATE pages SET views = views + 1 WHERE path = ?`

func (q *Queries) IncrementPageViews(ctx context.Context, path string) error {
	_, err := q.db.ExecContext(ctx, incrementPageViews, path)
	return err
}

const listDueScheduledPages = `SELECT ` + pageColumns + ` FROM pages
WHERE status = 'draft' AND scheduled_at IS NOT NULL AND scheduled_at <= ?
ORDER BY scheduled_at`

// ListDueScheduledPages returns draft pages whose scheduled time has passed.
func (q *Queries) ListDueScheduledPages(ctx context.Context, now time.Time) ([]model.Page, error) {
	rows, err := q.db.QueryContext(ctx, listDueScheduledPages, now)
	if err != nil {
		return nil, err
	}
	return scanPages(rows)
}
