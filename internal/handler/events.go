// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/ocms-pages/internal/render"
	"github.com/olegiv/ocms-pages/internal/service"
)

// EventsPerPage is the number of events to display per page.
const EventsPerPage = 25

// EventsHandler handles event log viewing routes.
type EventsHandler struct {
	events   *service.EventService
	renderer *render.Renderer
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(events *service.EventService, renderer *render.Renderer) *EventsHandler {
	return &EventsHandler{events: events, renderer: renderer}
}

// EventRow is an event prepared for display.
type EventRow struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Details   string // Formatted metadata as readable text
	CreatedAt time.Time
}

// formatMetadata converts JSON metadata to readable text format.
// Example: {"path":"about","status":"publish"} -> "path: about, status: publish"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		var strValue string
		switch v := data[key].(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			strValue = strconv.FormatBool(v)
		case nil:
			strValue = "null"
		default:
			if b, err := json.Marshal(v); err == nil {
				strValue = string(b)
			}
		}
		parts = append(parts, key+": "+strValue)
	}

	return strings.Join(parts, ", ")
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Events     []EventRow
	Pagination Pager
}

// List handles GET /admin/events - displays a paginated list of events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	total, err := h.events.Count(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count events", "error", err)
		return
	}

	pagination := NewPager(r.URL, PageParam(r), total, EventsPerPage)

	events, err := h.events.List(r.Context(), EventsPerPage, pagination.Offset())
	if err != nil {
		logAndInternalError(w, "failed to list events", "error", err)
		return
	}

	rows := make([]EventRow, len(events))
	for i, e := range events {
		rows[i] = EventRow{
			ID:        e.ID,
			Level:     e.Level,
			Category:  e.Category,
			Message:   e.Message,
			Details:   formatMetadata(e.Metadata),
			CreatedAt: e.CreatedAt,
		}
	}

	renderOrError(w, r, h.renderer, "admin/events", render.TemplateData{
		Title: "Event log",
		Data:  EventsListData{Events: rows, Pagination: pagination},
	})
}
