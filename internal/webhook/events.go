// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook delivers signed page lifecycle events to configured endpoints.
package webhook

import (
	"time"

	"github.com/olegiv/ocms-pages/internal/model"
)

// Event represents a webhook event to be dispatched.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent creates a new webhook event.
func NewEvent(eventType string, data any) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// PageEventData contains data for page events.
type PageEventData struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	Status    string     `json:"status"`
	PublishAt *time.Time `json:"publish_at,omitempty"`
}

// NewPageEvent builds an event of eventType carrying page.
func NewPageEvent(eventType string, page model.Page) *Event {
	return NewEvent(eventType, PageEventData{
		ID:        page.ID,
		Name:      page.Name,
		Path:      page.Path,
		Status:    page.Status,
		PublishAt: page.PublishAt,
	})
}
