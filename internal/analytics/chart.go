// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"sort"

	"github.com/olegiv/ocms-pages/internal/model"
)

// ChartDateLayout is the day bucket format of ChartPoint.Date.
const ChartDateLayout = "2006-01-02"

// ChartPoint is one day of view statistics.
// PV sums the visit counts, UV counts distinct visitors.
type ChartPoint struct {
	Date string `json:"date"`
	PV   int64  `json:"pv"`
	UV   int64  `json:"uv"`
}

// BuildChart buckets views by the UTC day of their last visit, oldest day first.
func BuildChart(views []model.View) []ChartPoint {
	byDay := make(map[string]*ChartPoint)
	for _, v := range views {
		day := v.UpdateAt.UTC().Format(ChartDateLayout)
		p, ok := byDay[day]
		if !ok {
			p = &ChartPoint{Date: day}
			byDay[day] = p
		}
		p.PV += v.Count
		p.UV++
	}

	points := make([]ChartPoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// Totals sums PV and UV over all points.
func Totals(points []ChartPoint) (pv, uv int64) {
	for _, p := range points {
		pv += p.PV
		uv += p.UV
	}
	return pv, uv
}
