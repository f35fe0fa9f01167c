// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package fetch retrieves event and ticket data from the booking platform.
//
// The platform exposes a paged event list and a per-event detail endpoint.
// Both wrap their payload in a code/message envelope; a non-zero code or an
// undecodable body is reported as ErrMalformed so callers can retry it like
// any other transient failure.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/stagewatch/stagewatch/internal/config"
	"github.com/stagewatch/stagewatch/internal/models/platform"
)

// ErrMalformed marks a response that arrived but could not be interpreted:
// undecodable JSON or an error envelope. Treated as transient.
var ErrMalformed = errors.New("malformed platform response")

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics.
const maxErrorBodySize = 64 * 1024

func readBodyForError(r io.Reader) []byte {
	limited := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// PlatformAPI is the platform surface the fetcher depends on. Implemented by
// Client for production and by mocks in tests.
type PlatformAPI interface {
	ListEvents(ctx context.Context, page, pageSize int, tag string) (*platform.EventListResponse, error)
	EventDetail(ctx context.Context, eventID string) (*platform.EventDetailResponse, error)
}

// Client is the HTTP client for the booking platform API.
//
// Features:
//   - Configurable request timeout
//   - Automatic retry on HTTP 429 with exponential backoff
//   - Token auth via request header
//
// Thread Safety: safe for concurrent use.
type Client struct {
	baseURL        string
	token          string
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a platform API client from configuration.
func NewClient(cfg *config.PlatformConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		token:   cfg.Token,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries:     5,
		retryBaseDelay: 1 * time.Second,
	}
}

// doRequestWithRateLimit performs a GET with automatic 429 handling.
// Backoff doubles per attempt (1s, 2s, 4s, ...) and honors Retry-After.
func (c *Client) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// makeRequest handles common request boilerplate: URL assembly, status
// check, JSON decode, and envelope validation.
func (c *Client) makeRequest(ctx context.Context, path string, params url.Values, result platform.Envelope) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return fmt.Errorf("failed to make %s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%s request failed with status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrMalformed, path, err)
	}

	if !result.OK() {
		return fmt.Errorf("%w: %s returned code %d: %s", ErrMalformed, path, result.ErrorCode(), result.ErrorMessage())
	}

	return nil
}

// ListEvents fetches one page of the event list, optionally filtered by tag.
func (c *Client) ListEvents(ctx context.Context, page, pageSize int, tag string) (*platform.EventListResponse, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	if tag != "" {
		params.Set("tag", tag)
	}

	var result platform.EventListResponse
	if err := c.makeRequest(ctx, "/api/v1/events", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EventDetail fetches the full detail for one event, tickets included.
func (c *Client) EventDetail(ctx context.Context, eventID string) (*platform.EventDetailResponse, error) {
	params := url.Values{}
	params.Set("event_id", eventID)

	var result platform.EventDetailResponse
	if err := c.makeRequest(ctx, "/api/v1/event", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
