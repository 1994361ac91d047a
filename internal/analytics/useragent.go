// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"github.com/mileusna/useragent"

	"github.com/olegiv/ocms-pages/internal/model"
)

// ParsedUA holds the parts of a user agent stored with a view.
type ParsedUA struct {
	Browser string
	OS      string
	Device  string
}

// ParseUserAgent extracts browser, OS and device type from a user agent string.
func ParseUserAgent(uaString string) ParsedUA {
	ua := useragent.Parse(uaString)

	result := ParsedUA{
		Browser: ua.Name,
		OS:      ua.OS,
	}

	if result.Browser == "" {
		result.Browser = "Unknown"
	}
	if result.OS == "" {
		result.OS = "Unknown"
	}

	switch {
	case ua.Bot:
		result.Device = model.DeviceBot
	case ua.Tablet:
		result.Device = model.DeviceTablet
	case ua.Mobile:
		result.Device = model.DeviceMobile
	default:
		result.Device = model.DeviceDesktop
	}

	return result
}
