// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/olegiv/ocms-pages/internal/util"
)

// Delivery constants
const (
	DefaultRequestTimeout = 30 * time.Second
	MaxResponseLen        = 10 * 1024
	UserAgent             = "oCMS-Pages/1.0"
)

// Delivery headers
const (
	HeaderSignature  = "X-Webhook-Signature"
	HeaderEvent      = "X-Webhook-Event"
	HeaderDeliveryID = "X-Webhook-Delivery-ID"
)

// RetryPolicy controls exponential backoff between delivery attempts.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy returns 5 attempts starting at 1 second, capped at 1 minute.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
	}
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.InitialBackoff)
	b = retry.WithJitterPercent(10, b)
	b = retry.WithCappedDuration(p.MaxBackoff, b)
	return retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

// DeliveryResult represents the result of a delivery attempt.
type DeliveryResult struct {
	StatusCode   int
	ResponseBody string
	Attempts     int
}

func newSafeClient() *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Client{
		Timeout: DefaultRequestTimeout,
		Transport: &http.Transport{
			DialContext:         util.SafeDialContext(dialer),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// process delivers with retries and logs the outcome.
func (d *Dispatcher) process(ctx context.Context, delivery *QueuedDelivery) {
	result, err := d.deliver(ctx, delivery)
	if err != nil {
		d.logger.Warn("webhook delivery failed",
			"delivery_id", delivery.DeliveryID,
			"event", delivery.Event,
			"url", delivery.URL,
			"attempts", result.Attempts,
			"status_code", result.StatusCode,
			"error", err)
		return
	}
	d.logger.Info("webhook delivered",
		"delivery_id", delivery.DeliveryID,
		"event", delivery.Event,
		"url", delivery.URL,
		"attempts", result.Attempts,
		"status_code", result.StatusCode)
}

// deliver POSTs the payload, retrying network errors, 5xx, 408 and 429.
func (d *Dispatcher) deliver(ctx context.Context, delivery *QueuedDelivery) (DeliveryResult, error) {
	var result DeliveryResult
	err := retry.Do(ctx, d.policy.backoff(), func(ctx context.Context) error {
		result.Attempts++
		status, body, err := d.attempt(ctx, delivery)
		result.StatusCode, result.ResponseBody = status, body
		return err
	})
	return result, err
}

func (d *Dispatcher) attempt(ctx context.Context, delivery *QueuedDelivery) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.URL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return 0, "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set(HeaderEvent, delivery.Event)
	req.Header.Set(HeaderDeliveryID, delivery.DeliveryID)
	if d.secret != "" {
		req.Header.Set(HeaderSignature, "sha256="+GenerateSignature(delivery.Payload, d.secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", retry.RetryableError(fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp.StatusCode, string(body), nil
	case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return resp.StatusCode, string(body), retry.RetryableError(fmt.Errorf("HTTP %d", resp.StatusCode))
	default:
		return resp.StatusCode, string(body), fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}

// GenerateSignature generates a hex HMAC-SHA256 signature for the payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies a signature produced by GenerateSignature,
// with or without the "sha256=" prefix.
func VerifySignature(payload []byte, signature, secret string) bool {
	if len(signature) > 7 && signature[:7] == "sha256=" {
		signature = signature[7:]
	}
	expected := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
