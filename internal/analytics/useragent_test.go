// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"testing"

	"github.com/olegiv/ocms-pages/internal/model"
)

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name    string
		ua      string
		browser string
		device  string
	}{
		{
			name:    "Chrome desktop",
			ua:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			browser: "Chrome",
			device:  model.DeviceDesktop,
		},
		{
			name:    "Safari iPhone",
			ua:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			browser: "Safari",
			device:  model.DeviceMobile,
		},
		{
			name:   "Googlebot",
			ua:     "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			device: model.DeviceBot,
		},
		{
			name:    "empty",
			ua:      "",
			browser: "Unknown",
			device:  model.DeviceDesktop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseUserAgent(tt.ua)
			if tt.browser != "" && got.Browser != tt.browser {
				t.Errorf("Browser = %q, want %q", got.Browser, tt.browser)
			}
			if got.Device != tt.device {
				t.Errorf("Device = %q, want %q", got.Device, tt.device)
			}
			if got.OS == "" {
				t.Error("OS should never be empty")
			}
		})
	}
}
