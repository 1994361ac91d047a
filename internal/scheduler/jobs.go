// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"time"
)

// Job names.
const (
	JobPublishPages = "publish-scheduled-pages"
	JobPruneViews   = "prune-views"
	JobPruneEvents  = "prune-events"
	JobReloadGeoIP  = "reload-geoip"
)

// PagePublisher publishes pages whose schedule has passed.
type PagePublisher interface {
	PublishDue(ctx context.Context, now time.Time) (int, error)
}

// ViewPruner deletes view records last updated before a time.
type ViewPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// EventPruner deletes audit events older than a duration.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Reloader reloads an on-disk database.
type Reloader interface {
	Reload() error
}

// Jobs holds the collaborators of the built-in jobs. Nil collaborators and
// zero retentions leave the corresponding job unregistered.
type Jobs struct {
	Pages          PagePublisher
	Views          ViewPruner
	ViewRetention  time.Duration
	Events         EventPruner
	EventRetention time.Duration
	GeoIP          Reloader
}

// RegisterDefaults adds the built-in jobs to s.
func (s *Scheduler) RegisterDefaults(j Jobs) error {
	now := func() time.Time { return time.Now().UTC() }

	if j.Pages != nil {
		err := s.Add(JobPublishPages, "Publish draft pages whose scheduled time has passed", PublishSchedule,
			func(ctx context.Context) error {
				n, err := j.Pages.PublishDue(ctx, now())
				if n > 0 {
					s.logger.Info("published scheduled pages", "count", n)
				}
				return err
			})
		if err != nil {
			return err
		}
	}

	if j.Views != nil && j.ViewRetention > 0 {
		err := s.Add(JobPruneViews, "Delete view records past the retention period", ViewPruneSchedule,
			func(ctx context.Context) error {
				n, err := j.Views.Prune(ctx, now().Add(-j.ViewRetention))
				if n > 0 {
					s.logger.Info("pruned old views", "count", n)
				}
				return err
			})
		if err != nil {
			return err
		}
	}

	if j.Events != nil && j.EventRetention > 0 {
		err := s.Add(JobPruneEvents, "Delete audit events past the retention period", EventPruneSchedule,
			func(ctx context.Context) error {
				n, err := j.Events.DeleteOldEvents(ctx, j.EventRetention)
				if n > 0 {
					s.logger.Info("pruned old events", "count", n)
				}
				return err
			})
		if err != nil {
			return err
		}
	}

	if j.GeoIP != nil {
		err := s.Add(JobReloadGeoIP, "Reload the GeoIP database if it changed on disk", GeoIPReloadSchedule,
			func(context.Context) error { return j.GeoIP.Reload() })
		if err != nil {
			return err
		}
	}

	return nil
}
