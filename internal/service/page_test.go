// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/testutil"
)

func newTestPageService(t *testing.T) (*PageService, *recordingDispatcher) {
	t.Helper()
	db := testDB(t)
	d := &recordingDispatcher{}
	svc := NewPageService(db, PageServiceOptions{
		Dispatcher: d,
		Events:     NewEventService(db),
		Logger:     testutil.TestLoggerSilent(),
	})
	return svc, d
}

func TestPageService_Create(t *testing.T) {
	svc, d := newTestPageService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, PageInput{Name: "About Us", Content: "# Hello\n\nWorld"})
	require.NoError(t, err)

	assert.NotEmpty(t, page.ID)
	assert.Equal(t, "about-us", page.Path)
	assert.Equal(t, model.PageStatusDraft, page.Status)
	assert.Nil(t, page.PublishAt)
	assert.Contains(t, page.HTML, "<h1")
	assert.Contains(t, page.Toc, `"Hello"`)
	assert.Equal(t, []string{model.EventPageCreated}, d.types())
}

func TestPageService_CreatePublishedSetsPublishAt(t *testing.T) {
	svc, _ := newTestPageService(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	page, err := svc.Create(context.Background(), PageInput{Name: "Launch", Status: model.PageStatusPublish})
	require.NoError(t, err)
	require.NotNil(t, page.PublishAt)
	assert.True(t, page.PublishAt.Equal(fixed))
}

func TestPageService_CreateValidation(t *testing.T) {
	svc, _ := newTestPageService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, PageInput{Name: "", Path: "Bad Path", Status: "archived", Cover: "javascript:alert(1)"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "path")
	assert.Contains(t, verr.Fields, "status")
	assert.Contains(t, verr.Fields, "cover")
}

func TestPageService_CreateDuplicatePath(t *testing.T) {
	svc, _ := newTestPageService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, PageInput{Name: "Contact"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, PageInput{Name: "Contact"})
	assert.ErrorIs(t, err, ErrPathTaken)
}

func TestPageService_ListNewestFirst(t *testing.T) {
	svc, _ := newTestPageService(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"First", "Second", "Third"} {
		at := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return at }
		_, err := svc.Create(ctx, PageInput{Name: name})
		require.NoError(t, err)
	}

	pages, total, err := svc.List(ctx, ListPagesParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, pages, 3)
	assert.Equal(t, "Third", pages[0].Name)
	assert.Equal(t, "First", pages[2].Name)

	pages, total, err = svc.List(ctx, ListPagesParams{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, pages, 1)
	assert.Equal(t, "Second", pages[0].Name)
}

func TestPageService_ListInvalidStatus(t *testing.T) {
	svc, _ := newTestPageService(t)
	_, _, err := svc.List(context.Background(), ListPagesParams{Status: "archived"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPageService_ListCacheInvalidatedOnMutation(t *testing.T) {
	svc, _ := newTestPageService(t)
	ctx := context.Background()

	pages, _, err := svc.List(ctx, ListPagesParams{})
	require.NoError(t, err)
	assert.Empty(t, pages)

	_, err = svc.Create(ctx, PageInput{Name: "Fresh"})
	require.NoError(t, err)

	pages, _, err = svc.List(ctx, ListPagesParams{})
	require.NoError(t, err)
	assert.Len(t, pages, 1)
}

func TestPageService_SetStatus(t *testing.T) {
	svc, d := newTestPageService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, PageInput{Name: "Toggle"})
	require.NoError(t, err)

	published, err := svc.SetStatus(ctx, page.ID, model.PageStatusPublish)
	require.NoError(t, err)
	assert.Equal(t, model.PageStatusPublish, published.Status)
	require.NotNil(t, published.PublishAt)

	draft, err := svc.SetStatus(ctx, page.ID, model.PageStatusDraft)
	require.NoError(t, err)
	assert.Equal(t, model.PageStatusDraft, draft.Status)
	require.NotNil(t, draft.PublishAt, "unpublishing keeps publishAt")
	assert.True(t, draft.PublishAt.Equal(*published.PublishAt))

	assert.Equal(t, []string{
		model.EventPageCreated, model.EventPagePublished, model.EventPageUnpublished,
	}, d.types())
}

func TestPageService_SetStatusInvalid(t *testing.T) {
	svc, _ := newTestPageService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, PageInput{Name: "Status"})
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, page.ID, "archived")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPageService_UpdatePartial(t *testing.T) {
	svc, d := newTestPageService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, PageInput{Name: "Original", Content: "old", Cover: "/cover.png"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, page.ID, PagePatch{Content: strPtr("## New section")})
	require.NoError(t, err)
	assert.Equal(t, "Original", updated.Name)
	assert.Equal(t, "original", updated.Path)
	assert.Equal(t, "/cover.png", updated.Cover)
	assert.Contains(t, updated.HTML, "New section")
	assert.Equal(t, model.EventPageUpdated, d.types()[1])
}

func TestPageService_UpdateNotFound(t *testing.T) {
	svc, _ := newTestPageService(t)
	_, err := svc.Update(context.Background(), "missing", PagePatch{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestPageService_UpdatePathConflict(t *testing.T) {
	svc, _ := newTestPageService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, PageInput{Name: "One"})
	require.NoError(t, err)
	two, err := svc.Create(ctx, PageInput{Name: "Two"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, two.ID, PagePatch{Path: strPtr("one")})
	assert.True(t, errors.Is(err, ErrPathTaken))
}

func TestPageService_Delete(t *testing.T) {
	svc, d := newTestPageService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, PageInput{Name: "Doomed"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, page.ID))
	_, err = svc.Get(ctx, page.ID)
	assert.ErrorIs(t, err, ErrPageNotFound)
	assert.Equal(t, model.EventPageDeleted, d.types()[1])

	assert.ErrorIs(t, svc.Delete(ctx, page.ID), ErrPageNotFound)
}

func TestPageService_GetPublishedByPath(t *testing.T) {
	svc, _ := newTestPageService(t)
	ctx := context.Background()

	page, err := svc.Create(ctx, PageInput{Name: "Hidden"})
	require.NoError(t, err)

	_, err = svc.GetPublishedByPath(ctx, page.Path)
	assert.ErrorIs(t, err, ErrPageNotFound)

	_, err = svc.SetStatus(ctx, page.ID, model.PageStatusPublish)
	require.NoError(t, err)

	got, err := svc.GetPublishedByPath(ctx, page.Path)
	require.NoError(t, err)
	assert.Equal(t, page.ID, got.ID)

	_, err = svc.SetStatus(ctx, page.ID, model.PageStatusDraft)
	require.NoError(t, err)

	_, err = svc.GetPublishedByPath(ctx, page.Path)
	assert.ErrorIs(t, err, ErrPageNotFound, "cached copy must be dropped on unpublish")
}

func TestPageService_PublishDue(t *testing.T) {
	svc, d := newTestPageService(t)
	ctx := context.Background()

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	due, err := svc.Create(ctx, PageInput{Name: "Due", ScheduledAt: &past})
	require.NoError(t, err)
	_, err = svc.Create(ctx, PageInput{Name: "Later", ScheduledAt: &future})
	require.NoError(t, err)

	n, err := svc.PublishDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Get(ctx, due.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished())
	assert.NotNil(t, got.PublishAt)
	assert.Nil(t, got.ScheduledAt)
	assert.Contains(t, d.types(), model.EventPagePublished)
}

func TestPageService_ScheduleRequiresDraft(t *testing.T) {
	svc, _ := newTestPageService(t)
	ctx := context.Background()
	later := time.Now().Add(24 * time.Hour)
	publish := model.PageStatusPublish

	_, err := svc.Create(ctx, PageInput{Name: "Now", Status: publish, ScheduledAt: &later})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "scheduledAt")

	page, err := svc.Create(ctx, PageInput{Name: "Live", Status: publish})
	require.NoError(t, err)
	_, err = svc.Update(ctx, page.ID, PagePatch{ScheduledAt: &later})
	require.ErrorAs(t, err, &verr)

	draft, err := svc.Create(ctx, PageInput{Name: "Pending", ScheduledAt: &later})
	require.NoError(t, err)
	require.NotNil(t, draft.ScheduledAt)

	// Publishing a scheduled draft drops the schedule.
	got, err := svc.Update(ctx, draft.ID, PagePatch{Status: &publish})
	require.NoError(t, err)
	assert.True(t, got.IsPublished())
	assert.Nil(t, got.ScheduledAt)
}

func TestPagePatch_IsEmpty(t *testing.T) {
	assert.True(t, PagePatch{}.IsEmpty())
	assert.False(t, PagePatch{Status: strPtr("draft")}.IsEmpty())
	assert.False(t, PagePatch{ClearSchedule: true}.IsEmpty())
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"path": "bad", "name": "is required"}}
	assert.Equal(t, "validation failed: name: is required; path: bad", err.Error())
}
