// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-pages/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestSignature(t *testing.T) {
	payload := []byte(`{"type":"page.created"}`)

	sig := GenerateSignature(payload, "secret")
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, GenerateSignature(payload, "secret"))

	assert.True(t, VerifySignature(payload, sig, "secret"))
	assert.True(t, VerifySignature(payload, "sha256="+sig, "secret"))
	assert.False(t, VerifySignature(payload, sig, "other"))
	assert.False(t, VerifySignature([]byte(`{}`), sig, "secret"))
}

func TestNewPageEvent(t *testing.T) {
	now := time.Now().UTC()
	ev := NewPageEvent(model.EventPagePublished, model.Page{
		ID: "p1", Name: "About", Path: "about", Status: model.PageStatusPublish, PublishAt: &now,
	})

	assert.Equal(t, model.EventPagePublished, ev.Type)
	data, ok := ev.Data.(PageEventData)
	require.True(t, ok)
	assert.Equal(t, "about", data.Path)
	assert.Equal(t, &now, data.PublishAt)
}

type capture struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
}

func (c *capture) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, r)
	c.bodies = append(c.bodies, body)
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func TestDispatcher_DeliversSignedPayload(t *testing.T) {
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.record(r)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDispatcher(Config{
		URLs:   []string{srv.URL},
		Secret: "hook-secret",
		Retry:  fastRetry(),
		Client: srv.Client(),
	}, testLogger())
	d.Start(context.Background())
	defer d.Stop()

	require.NoError(t, d.Dispatch(context.Background(), NewPageEvent(model.EventPageCreated, model.Page{ID: "p1", Path: "about"})))

	require.Eventually(t, func() bool { return c.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	req, body := c.requests[0], c.bodies[0]
	assert.Equal(t, model.EventPageCreated, req.Header.Get(HeaderEvent))
	assert.NotEmpty(t, req.Header.Get(HeaderDeliveryID))
	assert.True(t, VerifySignature(body, req.Header.Get(HeaderSignature), "hook-secret"))

	var ev Event
	require.NoError(t, json.Unmarshal(body, &ev))
	assert.Equal(t, model.EventPageCreated, ev.Type)
}

func TestDeliver_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	d := NewDispatcher(Config{URLs: []string{srv.URL}, Retry: fastRetry(), Client: srv.Client()}, testLogger())

	result, err := d.deliver(context.Background(), &QueuedDelivery{DeliveryID: "d1", URL: srv.URL, Payload: []byte("{}")})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "ok", result.ResponseBody)
}

func TestDeliver_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewDispatcher(Config{URLs: []string{srv.URL}, Retry: fastRetry(), Client: srv.Client()}, testLogger())

	result, err := d.deliver(context.Background(), &QueuedDelivery{DeliveryID: "d1", URL: srv.URL, Payload: []byte("{}")})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3, result.Attempts)
}

func TestDeliver_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewDispatcher(Config{URLs: []string{srv.URL}, Retry: fastRetry(), Client: srv.Client()}, testLogger())

	_, err := d.deliver(context.Background(), &QueuedDelivery{DeliveryID: "d1", URL: srv.URL, Payload: []byte("{}")})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDispatch_NotRunningOrNoTargets(t *testing.T) {
	d := NewDispatcher(Config{URLs: []string{"https://example.com/hook"}}, testLogger())
	require.NoError(t, d.Dispatch(context.Background(), NewEvent("page.created", nil)))
	assert.Equal(t, 0, d.Pending(), "stopped dispatcher must not queue")

	empty := NewDispatcher(Config{}, testLogger())
	empty.Start(context.Background())
	defer empty.Stop()
	require.NoError(t, empty.Dispatch(context.Background(), NewEvent("page.created", nil)))
	assert.Equal(t, 0, empty.Pending())
}

func TestDefaultClientBlocksPrivateTargets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("private target must not be reached")
	}))
	defer srv.Close()

	d := NewDispatcher(Config{URLs: []string{srv.URL}, Retry: RetryPolicy{MaxAttempts: 1}}, testLogger())
	_, err := d.deliver(context.Background(), &QueuedDelivery{DeliveryID: "d1", URL: srv.URL, Payload: []byte("{}")})
	require.Error(t, err)
}
