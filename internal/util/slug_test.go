// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"About Us", "about-us"},
		{"  Hello,   World!  ", "hello-world"},
		{"Über uns", "uber-uns"},
		{"Café & Crème", "cafe-creme"},
		{"关于", "guan-yu"},
		{"already-a-slug", "already-a-slug"},
		{"--trim--me--", "trim-me"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlugify_Length(t *testing.T) {
	got := Slugify(strings.Repeat("ab ", 200))
	if len(got) > MaxSlugLength {
		t.Errorf("len = %d, want <= %d", len(got), MaxSlugLength)
	}
	if !IsValidSlug(got) {
		t.Errorf("Slugify produced invalid slug %q", got)
	}
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"about", true},
		{"about-us-2", true},
		{"", false},
		{"About", false},
		{"-about", false},
		{"about-", false},
		{"about--us", false},
		{"about/us", false},
		{"über", false},
		{strings.Repeat("a", MaxSlugLength+1), false},
	}

	for _, tt := range tests {
		if got := IsValidSlug(tt.slug); got != tt.valid {
			t.Errorf("IsValidSlug(%q) = %v, want %v", tt.slug, got, tt.valid)
		}
	}
}
