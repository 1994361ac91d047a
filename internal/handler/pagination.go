// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
)

// pagerWindow is the number of numbered links shown around the current page.
const pagerWindow = 5

// Pager is one page of an admin list plus the links to its neighbours.
// Page is always within [1, Pages].
type Pager struct {
	Page    int
	Pages   int
	PerPage int
	Total   int64

	// PrevURL and NextURL are empty on the first and last page.
	PrevURL string
	NextURL string
	Links   []PageLink
}

// PageLink is a numbered link in the pager. A zero Number marks a gap.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

// NewPager clamps page to the available range and builds links on u's path.
// Query parameters other than "page" are kept, so list filters survive paging.
func NewPager(u *url.URL, page int, total int64, perPage int) Pager {
	pages := TotalPages(total, perPage)
	page = min(max(page, 1), pages)

	q := url.Values{}
	for k, v := range u.Query() {
		if k != "page" && len(v) > 0 && v[0] != "" {
			q[k] = v
		}
	}
	link := func(n int) string {
		q.Set("page", strconv.Itoa(n))
		return u.Path + "?" + q.Encode()
	}

	p := Pager{Page: page, Pages: pages, PerPage: perPage, Total: total}
	if page > 1 {
		p.PrevURL = link(page - 1)
	}
	if page < pages {
		p.NextURL = link(page + 1)
	}

	lo := max(1, min(page-pagerWindow/2, pages-pagerWindow+1))
	hi := min(pages, lo+pagerWindow-1)
	if lo > 1 {
		p.Links = append(p.Links, PageLink{Number: 1, URL: link(1)})
		if lo > 2 {
			p.Links = append(p.Links, PageLink{})
		}
	}
	for n := lo; n <= hi; n++ {
		p.Links = append(p.Links, PageLink{Number: n, URL: link(n), Current: n == page})
	}
	if hi < pages {
		if hi < pages-1 {
			p.Links = append(p.Links, PageLink{})
		}
		p.Links = append(p.Links, PageLink{Number: pages, URL: link(pages)})
	}
	return p
}

// Visible reports whether the list spans more than one page.
func (p Pager) Visible() bool { return p.Pages > 1 }

// Offset is the row offset of the current page.
func (p Pager) Offset() int64 { return PageOffset(p.Page, p.PerPage) }

// PageOffset returns the row offset of a 1-based page. Offsets too large for
// int64 saturate, so a huge page number reads past the end instead of wrapping.
func PageOffset(page, perPage int) int64 {
	if page <= 1 || perPage <= 0 {
		return 0
	}
	n, size := int64(page-1), int64(perPage)
	if n > math.MaxInt64/size {
		return math.MaxInt64
	}
	return n * size
}

// TotalPages returns the number of pages needed for total rows, at least 1.
func TotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// PageParam returns the "page" query parameter, or 1 when it is absent or invalid.
func PageParam(r *http.Request) int {
	return QueryInt(r, "page", 1, 1, 0)
}

// QueryInt parses an integer query parameter. Missing, malformed and
// out-of-range values yield def. A zero hi means no upper bound.
func QueryInt(r *http.Request, name string, def, lo, hi int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < lo || (hi > 0 && v > hi) {
		return def
	}
	return v
}
