// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// Dispatcher queues events and delivers them to every configured URL
// from a pool of workers.
type Dispatcher struct {
	urls    []string
	secret  string
	client  *http.Client
	logger  *slog.Logger
	queue   chan *QueuedDelivery
	workers int
	policy  RetryPolicy

	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

// QueuedDelivery represents a delivery queued for processing.
type QueuedDelivery struct {
	DeliveryID string
	Event      string
	Payload    []byte
	URL        string
}

// Config holds dispatcher configuration.
type Config struct {
	URLs      []string
	Secret    string
	Workers   int
	QueueSize int
	Retry     RetryPolicy
	// Client overrides the default SSRF-safe HTTP client.
	Client *http.Client
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   3,
		QueueSize: 100,
		Retry:     DefaultRetryPolicy(),
	}
}

// NewDispatcher creates a new webhook dispatcher.
func NewDispatcher(cfg Config, logger *slog.Logger) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if cfg.Retry.InitialBackoff <= 0 {
		cfg.Retry.InitialBackoff = def.Retry.InitialBackoff
	}
	if cfg.Retry.MaxBackoff < cfg.Retry.InitialBackoff {
		cfg.Retry.MaxBackoff = max(def.Retry.MaxBackoff, cfg.Retry.InitialBackoff)
	}
	if cfg.Client == nil {
		cfg.Client = newSafeClient()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		urls:    cfg.URLs,
		secret:  cfg.Secret,
		client:  cfg.Client,
		logger:  logger,
		queue:   make(chan *QueuedDelivery, cfg.QueueSize),
		workers: cfg.Workers,
		policy:  cfg.Retry,
		done:    make(chan struct{}),
	}
}

// Start starts the dispatcher workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting webhook dispatcher", "workers", d.workers, "targets", len(d.urls))

	for i := range d.workers {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop cancels pending retries and waits for the workers to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.done)
	d.wg.Wait()
	d.logger.Info("webhook dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	// done is merged into the context so retry waits end on Stop.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-d.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case delivery := <-d.queue:
			d.logger.Debug("webhook worker processing delivery",
				"worker_id", id,
				"delivery_id", delivery.DeliveryID,
				"event", delivery.Event)
			d.process(ctx, delivery)
		}
	}
}

// Dispatch queues event for delivery to every configured URL. It never
// blocks; deliveries are dropped with a warning when the queue is full.
func (d *Dispatcher) Dispatch(_ context.Context, event *Event) error {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()

	if !running || len(d.urls) == 0 {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding webhook event: %w", err)
	}

	for _, u := range d.urls {
		qd := &QueuedDelivery{
			DeliveryID: uuid.NewString(),
			Event:      event.Type,
			Payload:    payload,
			URL:        u,
		}
		select {
		case d.queue <- qd:
		default:
			d.logger.Warn("webhook queue full, dropping delivery",
				"delivery_id", qd.DeliveryID,
				"event", event.Type,
				"url", u)
		}
	}
	return nil
}

// DispatchEvent is a convenience method to dispatch an event with the given type and data.
func (d *Dispatcher) DispatchEvent(ctx context.Context, eventType string, data any) error {
	return d.Dispatch(ctx, NewEvent(eventType, data))
}

// Pending returns the number of queued deliveries.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}
