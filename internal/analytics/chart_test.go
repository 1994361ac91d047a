// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/ocms-pages/internal/model"
)

func TestBuildChart(t *testing.T) {
	day1 := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 4, 3, 23, 59, 0, 0, time.UTC)

	views := []model.View{
		{Count: 3, UpdateAt: day2},
		{Count: 1, UpdateAt: day1},
		{Count: 4, UpdateAt: day1.Add(time.Hour)},
	}

	points := BuildChart(views)
	assert.Equal(t, []ChartPoint{
		{Date: "2026-04-01", PV: 5, UV: 2},
		{Date: "2026-04-03", PV: 3, UV: 1},
	}, points)

	pv, uv := Totals(points)
	assert.Equal(t, int64(8), pv)
	assert.Equal(t, int64(3), uv)
}

func TestBuildChartEmpty(t *testing.T) {
	points := BuildChart(nil)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}
