// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-pages/internal/cache"
	"github.com/olegiv/ocms-pages/internal/markdown"
	"github.com/olegiv/ocms-pages/internal/model"
	"github.com/olegiv/ocms-pages/internal/store"
	"github.com/olegiv/ocms-pages/internal/util"
	"github.com/olegiv/ocms-pages/internal/webhook"
)

// Page cache keys. Every page mutation drops everything under pageCachePrefix.
const (
	pageCachePrefix     = "pages:"
	pageListCachePrefix = "pages:list:"
	pagePathCachePrefix = "pages:path:"

	// MaxPageNameLength caps page names.
	MaxPageNameLength = 255

	// DefaultPageLimit is used when ListPagesParams.Limit is not positive.
	DefaultPageLimit = 20

	// MaxPageLimit caps a single list request.
	MaxPageLimit = 100
)

// EventDispatcher receives page lifecycle events.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event *webhook.Event) error
}

// PageInput holds the fields of a new page.
type PageInput struct {
	Name        string
	Path        string
	Cover       string
	Content     string
	Status      string
	ScheduledAt *time.Time
}

// PagePatch is a partial page update. Nil fields are left unchanged.
type PagePatch struct {
	Name        *string
	Path        *string
	Cover       *string
	Content     *string
	Status      *string
	ScheduledAt *time.Time
	// ClearSchedule removes a pending schedule. It wins over ScheduledAt.
	ClearSchedule bool
}

// IsEmpty reports whether the patch changes nothing.
func (p PagePatch) IsEmpty() bool {
	return p.Name == nil && p.Path == nil && p.Cover == nil && p.Content == nil &&
		p.Status == nil && p.ScheduledAt == nil && !p.ClearSchedule
}

// ListPagesParams filters and paginates List.
type ListPagesParams struct {
	Status string
	Limit  int64
	Offset int64
}

type pageList struct {
	Pages []model.Page `json:"pages"`
	Total int64        `json:"total"`
}

// PageService manages pages.
type PageService struct {
	db         *sql.DB
	queries    *store.Queries
	cache      cache.Cache
	renderer   *markdown.Renderer
	dispatcher EventDispatcher
	events     *EventService
	logger     *slog.Logger
	cacheTTL   time.Duration
	now        func() time.Time
}

// PageServiceOptions holds the optional collaborators of a PageService.
type PageServiceOptions struct {
	Cache      cache.Cache
	Dispatcher EventDispatcher
	Events     *EventService
	Logger     *slog.Logger
	CacheTTL   time.Duration
}

// NewPageService creates a new PageService.
func NewPageService(db *sql.DB, opts PageServiceOptions) *PageService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := opts.Cache
	if c == nil {
		c = cache.NewMemoryCache(cache.MemoryCacheOptions{})
	}
	return &PageService{
		db:         db,
		queries:    store.New(db),
		cache:      c,
		renderer:   markdown.NewRenderer(),
		dispatcher: opts.Dispatcher,
		events:     opts.Events,
		logger:     logger,
		cacheTTL:   opts.CacheTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// List returns pages newest first along with the total matching count.
func (s *PageService) List(ctx context.Context, params ListPagesParams) ([]model.Page, int64, error) {
	if params.Status != "" && !model.IsValidPageStatus(params.Status) {
		return nil, 0, &ValidationError{Fields: map[string]string{"status": "must be draft or publish"}}
	}
	if params.Limit <= 0 {
		params.Limit = DefaultPageLimit
	}
	if params.Limit > MaxPageLimit {
		params.Limit = MaxPageLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	key := fmt.Sprintf("%s%s:%d:%d", pageListCachePrefix, params.Status, params.Limit, params.Offset)
	if cached, err := cache.GetJSON[pageList](ctx, s.cache, key); err == nil {
		return cached.Pages, cached.Total, nil
	}

	pages, err := s.queries.ListPages(ctx, store.ListPagesParams(params))
	if err != nil {
		return nil, 0, fmt.Errorf("listing pages: %w", err)
	}
	total, err := s.queries.CountPages(ctx, params.Status)
	if err != nil {
		return nil, 0, fmt.Errorf("counting pages: %w", err)
	}
	if pages == nil {
		pages = []model.Page{}
	}

	if err := cache.SetJSON(ctx, s.cache, key, pageList{Pages: pages, Total: total}, s.cacheTTL); err != nil {
		s.logger.Debug("page list not cached", "error", err)
	}
	return pages, total, nil
}

// Get returns the page with the given id.
func (s *PageService) Get(ctx context.Context, id string) (model.Page, error) {
	page, err := s.queries.GetPageByID(ctx, id)
	if err != nil {
		return model.Page{}, notFound(err, "getting page")
	}
	return page, nil
}

// GetByPath returns the page with the given path regardless of status.
func (s *PageService) GetByPath(ctx context.Context, path string) (model.Page, error) {
	page, err := s.queries.GetPageByPath(ctx, path)
	if err != nil {
		return model.Page{}, notFound(err, "getting page by path")
	}
	return page, nil
}

// GetPublishedByPath returns a published page. Drafts are reported as not found.
func (s *PageService) GetPublishedByPath(ctx context.Context, path string) (model.Page, error) {
	key := pagePathCachePrefix + path
	if page, err := cache.GetJSON[model.Page](ctx, s.cache, key); err == nil {
		return page, nil
	}

	page, err := s.GetByPath(ctx, path)
	if err != nil {
		return model.Page{}, err
	}
	if !page.IsPublished() {
		return model.Page{}, ErrPageNotFound
	}

	if err := cache.SetJSON(ctx, s.cache, key, page, s.cacheTTL); err != nil {
		s.logger.Debug("page not cached", "path", path, "error", err)
	}
	return page, nil
}

// Create validates input and stores a new page.
func (s *PageService) Create(ctx context.Context, in PageInput) (model.Page, error) {
	now := s.now()
	page := model.Page{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Path:        strings.TrimSpace(in.Path),
		Cover:       strings.TrimSpace(in.Cover),
		Content:     in.Content,
		Status:      in.Status,
		ScheduledAt: utcPtr(in.ScheduledAt),
	}
	if page.Status == "" {
		page.Status = model.PageStatusDraft
	}
	if page.Path == "" {
		page.Path = util.Slugify(page.Name)
	}
	if page.ScheduledAt != nil && page.IsPublished() {
		return model.Page{}, errScheduleOnPublished()
	}

	if err := s.validate(ctx, page); err != nil {
		return model.Page{}, err
	}
	if err := s.render(&page); err != nil {
		return model.Page{}, err
	}
	if page.IsPublished() {
		page.PublishAt = &now
		page.ScheduledAt = nil
	}

	created, err := s.queries.CreatePage(ctx, store.CreatePageParams{
		ID:          page.ID,
		Name:        page.Name,
		Path:        page.Path,
		Cover:       page.Cover,
		Content:     page.Content,
		HTML:        page.HTML,
		Toc:         page.Toc,
		Status:      page.Status,
		PublishAt:   util.NullTimeFromPtr(page.PublishAt),
		ScheduledAt: util.NullTimeFromPtr(page.ScheduledAt),
		CreateAt:    now,
		UpdateAt:    now,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return model.Page{}, pathTaken(page.Path)
		}
		return model.Page{}, fmt.Errorf("creating page: %w", err)
	}

	s.afterMutation(ctx, model.EventPageCreated, created, "Page created")
	return created, nil
}

// errScheduleOnPublished rejects a publish date on a page that is already
// published or being published in the same write.
func errScheduleOnPublished() error {
	return &ValidationError{Fields: map[string]string{"scheduledAt": "only draft pages can be scheduled"}}
}

// Update applies a partial update to the page with the given id.
func (s *PageService) Update(ctx context.Context, id string, patch PagePatch) (model.Page, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return model.Page{}, err
	}

	next := current
	if patch.Name != nil {
		next.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Path != nil {
		next.Path = strings.TrimSpace(*patch.Path)
		if next.Path == "" {
			next.Path = util.Slugify(next.Name)
		}
	}
	if patch.Cover != nil {
		next.Cover = strings.TrimSpace(*patch.Cover)
	}
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.ScheduledAt != nil {
		next.ScheduledAt = utcPtr(patch.ScheduledAt)
	}
	if patch.ClearSchedule {
		next.ScheduledAt = nil
	}
	if patch.ScheduledAt != nil && !patch.ClearSchedule && next.IsPublished() {
		return model.Page{}, errScheduleOnPublished()
	}

	if err := s.validate(ctx, next); err != nil {
		return model.Page{}, err
	}
	if patch.Content != nil && *patch.Content != current.Content {
		next.Content = *patch.Content
		if err := s.render(&next); err != nil {
			return model.Page{}, err
		}
	}

	now := s.now()
	if next.IsPublished() {
		if next.PublishAt == nil {
			next.PublishAt = &now
		}
		next.ScheduledAt = nil
	}

	updated, err := s.queries.UpdatePage(ctx, store.UpdatePageParams{
		ID:          id,
		Name:        next.Name,
		Path:        next.Path,
		Cover:       next.Cover,
		Content:     next.Content,
		HTML:        next.HTML,
		Toc:         next.Toc,
		Status:      next.Status,
		PublishAt:   util.NullTimeFromPtr(next.PublishAt),
		ScheduledAt: util.NullTimeFromPtr(next.ScheduledAt),
		UpdateAt:    now,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return model.Page{}, pathTaken(next.Path)
		}
		return model.Page{}, notFound(err, "updating page")
	}

	eventType := model.EventPageUpdated
	message := "Page updated"
	if current.Status != updated.Status {
		if updated.IsPublished() {
			eventType, message = model.EventPagePublished, "Page published"
		} else {
			eventType, message = model.EventPageUnpublished, "Page unpublished"
		}
	}
	s.afterMutation(ctx, eventType, updated, message)
	return updated, nil
}

// SetStatus changes only the status of a page.
func (s *PageService) SetStatus(ctx context.Context, id, status string) (model.Page, error) {
	return s.Update(ctx, id, PagePatch{Status: &status})
}

// Delete removes the page with the given id.
func (s *PageService) Delete(ctx context.Context, id string) error {
	page, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.queries.DeletePage(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting page: %w", err)
	}
	if n == 0 {
		return ErrPageNotFound
	}

	s.afterMutation(ctx, model.EventPageDeleted, page, "Page deleted")
	return nil
}

// PublishDue publishes draft pages whose scheduled time is at or before now.
// It returns the number of pages published.
func (s *PageService) PublishDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.queries.ListDueScheduledPages(ctx, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("listing scheduled pages: %w", err)
	}

	published := 0
	status := model.PageStatusPublish
	for _, page := range due {
		if _, err := s.Update(ctx, page.ID, PagePatch{Status: &status}); err != nil {
			s.logger.Error("failed to publish scheduled page", "page_id", page.ID, "error", err)
			continue
		}
		published++
		s.logger.Info("published scheduled page", "page_id", page.ID, "path", page.Path)
	}
	return published, nil
}

func (s *PageService) validate(ctx context.Context, page model.Page) error {
	verr := &ValidationError{}

	switch {
	case page.Name == "":
		verr.add("name", "is required")
	case utf8.RuneCountInString(page.Name) > MaxPageNameLength:
		verr.add("name", fmt.Sprintf("must be at most %d characters", MaxPageNameLength))
	}

	switch {
	case page.Path == "":
		verr.add("path", "is required")
	case !util.IsValidSlug(page.Path):
		verr.add("path", "must contain only lowercase letters, numbers and hyphens")
	}

	if !model.IsValidPageStatus(page.Status) {
		verr.add("status", "must be draft or publish")
	}

	if page.Cover != "" && !validCover(page.Cover) {
		verr.add("cover", "must be an http(s) URL or an absolute path")
	}

	if err := verr.orNil(); err != nil {
		return err
	}

	taken, err := s.queries.PathExists(ctx, page.Path, page.ID)
	if err != nil {
		return err
	}
	if taken {
		return pathTaken(page.Path)
	}
	return nil
}

func (s *PageService) render(page *model.Page) error {
	res, err := s.renderer.Render(page.Content)
	if err != nil {
		return fmt.Errorf("rendering page content: %w", err)
	}
	page.HTML = res.HTML
	page.Toc = res.TocJSON()
	return nil
}

// afterMutation invalidates cached pages, records an audit event and
// dispatches a webhook. Failures here are logged, not returned.
func (s *PageService) afterMutation(ctx context.Context, eventType string, page model.Page, message string) {
	if err := s.cache.DeleteByPrefix(ctx, pageCachePrefix); err != nil {
		s.logger.Warn("failed to invalidate page cache", "error", err)
	}

	if s.events != nil {
		meta := map[string]any{"page_id": page.ID, "path": page.Path, "status": page.Status}
		if err := s.events.LogPageEvent(ctx, message, meta); err != nil {
			s.logger.Warn("failed to log page event", "error", err)
		}
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(ctx, webhook.NewPageEvent(eventType, page)); err != nil {
			s.logger.Warn("failed to dispatch page event", "event", eventType, "error", err)
		}
	}
}

func validCover(cover string) bool {
	if strings.HasPrefix(cover, "/") && !strings.HasPrefix(cover, "//") {
		return true
	}
	u, err := url.Parse(cover)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPageNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func pathTaken(path string) error {
	return fmt.Errorf("%w: %s", ErrPathTaken, path)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
