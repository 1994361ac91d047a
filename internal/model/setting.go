// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Setting keys
const (
	SettingKeySystemURL         = "system_url"
	SettingKeyAdminPasswordHash = "admin_password_hash"
)

// Setting is a key/value site setting.
type Setting struct {
	Key      string
	Value    string
	UpdateAt time.Time
}
