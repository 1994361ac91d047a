// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONHelpers(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	_, err := GetJSON[[]testItem](ctx, c, "items")
	assert.True(t, errors.Is(err, ErrCacheMiss))

	items := []testItem{{"a", 1}, {"b", 2}}
	require.NoError(t, SetJSON(ctx, c, "items", items, 0))

	got, err := GetJSON[[]testItem](ctx, c, "items")
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestGetJSON_Corrupt(t *testing.T) {
	c := NewMemoryCache(MemoryCacheOptions{})
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "bad", []byte("{not json"), 0))
	_, err := GetJSON[testItem](ctx, c, "bad")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheMiss))
}
