// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url.Parse(%q): %v", raw, err)
	}
	return u
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total   int64
		perPage int
		want    int
	}{
		{0, 10, 1},
		{5, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{10, 0, 1},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.perPage); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d; want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}

func TestQueryInt(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"per_page=30", 30},
		{"", 20},
		{"per_page=abc", 20},
		{"per_page=0", 20},
		{"per_page=101", 20},
		{"per_page=100", 100},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			if got := QueryInt(req, "per_page", 20, 1, 100); got != tt.want {
				t.Errorf("QueryInt = %d; want %d", got, tt.want)
			}
		})
	}

	for q, want := range map[string]int{"page=3": 3, "": 1, "page=-1": 1, "page=0": 1} {
		if got := PageParam(httptest.NewRequest(http.MethodGet, "/?"+q, nil)); got != want {
			t.Errorf("PageParam(%q) = %d; want %d", q, got, want)
		}
	}
}

func TestNewPager(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		total    int64
		wantPage int
		wantPrev string
		wantNext string
	}{
		{"first", 1, 50, 1, "", "/admin/page?page=2"},
		{"middle", 3, 50, 3, "/admin/page?page=2", "/admin/page?page=4"},
		{"last", 5, 50, 5, "/admin/page?page=4", ""},
		{"past the end", 9, 50, 5, "/admin/page?page=4", ""},
		{"empty", 1, 0, 1, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPager(mustURL(t, "/admin/page"), tt.page, tt.total, 10)
			if p.Page != tt.wantPage {
				t.Errorf("Page = %d; want %d", p.Page, tt.wantPage)
			}
			if p.PrevURL != tt.wantPrev || p.NextURL != tt.wantNext {
				t.Errorf("prev/next = %q %q; want %q %q", p.PrevURL, p.NextURL, tt.wantPrev, tt.wantNext)
			}
		})
	}
}

func TestNewPager_KeepsFilters(t *testing.T) {
	p := NewPager(mustURL(t, "/admin/page?status=draft&page=2&q="), 1, 50, 10)
	if p.NextURL != "/admin/page?page=2&status=draft" {
		t.Errorf("NextURL = %q", p.NextURL)
	}
}

func TestNewPager_Links(t *testing.T) {
	tests := []struct {
		page int
		want string
	}{
		{10, "1 _ 8 9 [10] 11 12 _ 20"},
		{1, "[1] 2 3 4 5 _ 20"},
		{19, "1 _ 16 17 18 [19] 20"},
		{4, "1 2 3 [4] 5 6 _ 20"},
	}
	for _, tt := range tests {
		p := NewPager(mustURL(t, "/admin/events"), tt.page, 200, 10)
		var got []string
		for _, l := range p.Links {
			switch {
			case l.Number == 0:
				got = append(got, "_")
			case l.Current:
				got = append(got, "["+strconv.Itoa(l.Number)+"]")
			default:
				got = append(got, strconv.Itoa(l.Number))
			}
		}
		if s := strings.Join(got, " "); s != tt.want {
			t.Errorf("page %d links = %q; want %q", tt.page, s, tt.want)
		}
	}
}

func TestPageOffset(t *testing.T) {
	tests := []struct {
		page, perPage int
		want          int64
	}{
		{1, 20, 0},
		{0, 20, 0},
		{3, 20, 40},
		{math.MaxInt, 100, math.MaxInt64},
		{2, 0, 0},
	}
	for _, tt := range tests {
		if got := PageOffset(tt.page, tt.perPage); got != tt.want {
			t.Errorf("PageOffset(%d, %d) = %d; want %d", tt.page, tt.perPage, got, tt.want)
		}
	}
}

func TestPager_OffsetAndVisible(t *testing.T) {
	p := NewPager(mustURL(t, "/admin/page"), 3, 45, 10)
	if p.Offset() != 20 {
		t.Errorf("Offset() = %d; want 20", p.Offset())
	}
	if !p.Visible() {
		t.Error("Visible() = false; want true")
	}
	if NewPager(mustURL(t, "/admin/page"), 1, 7, 10).Visible() {
		t.Error("a single page should not show the pager")
	}
}
