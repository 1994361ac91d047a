// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"time"
)

// NullTimeFromPtr converts a *time.Time to sql.NullTime.
func NullTimeFromPtr(ptr *time.Time) sql.NullTime {
	if ptr == nil || ptr.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: ptr.UTC(), Valid: true}
}

// NullTimeFromValue creates a valid sql.NullTime from t.
func NullTimeFromValue(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// TimePtr converts sql.NullTime to *time.Time, nil when not valid.
func TimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// FormatNullTime formats a nullable time with layout, or returns "" when unset.
func FormatNullTime(nt sql.NullTime, layout string) string {
	if !nt.Valid {
		return ""
	}
	return nt.Time.Format(layout)
}
