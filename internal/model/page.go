// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application.
package model

import (
	"encoding/json"
	"time"
)

// Page statuses
const (
	PageStatusDraft   = "draft"
	PageStatusPublish = "publish"
)

// PageStatuses contains all valid page statuses.
var PageStatuses = []string{PageStatusDraft, PageStatusPublish}

// IsValidPageStatus reports whether status is one of PageStatuses.
func IsValidPageStatus(status string) bool {
	return status == PageStatusDraft || status == PageStatusPublish
}

// Page represents a static site page managed by the CMS.
type Page struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Path        string     `json:"path"`
	Cover       string     `json:"cover,omitempty"`
	Content     string     `json:"content"`
	HTML        string     `json:"html"`
	Toc         string     `json:"toc"`
	Status      string     `json:"status"`
	Views       int64      `json:"views"`
	PublishAt   *time.Time `json:"publishAt"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	CreateAt    time.Time  `json:"createAt"`
	UpdateAt    time.Time  `json:"updateAt"`
}

// IsPublished returns true if the page is published.
func (p *Page) IsPublished() bool {
	return p.Status == PageStatusPublish
}

// IsDraft returns true if the page is a draft.
func (p *Page) IsDraft() bool {
	return p.Status == PageStatusDraft
}

// PublicPath returns the site-relative URL the page is served at.
func (p *Page) PublicPath() string {
	return PublicPagePath(p.Path)
}

// PublicPagePath returns the site-relative URL for a page path.
func PublicPagePath(path string) string {
	return "/page/" + path
}

// TocItems decodes the stored table of contents. Malformed data yields nil.
func (p *Page) TocItems() []TocItem {
	if p.Toc == "" {
		return nil
	}
	var items []TocItem
	if err := json.Unmarshal([]byte(p.Toc), &items); err != nil {
		return nil
	}
	return items
}

// TocItem is a single heading in a page's table of contents.
type TocItem struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}
