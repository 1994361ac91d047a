// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"database/sql"
	"testing"

	"github.com/olegiv/ocms-pages/internal/testutil"
)

func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	return testutil.TestDB(t)
}
