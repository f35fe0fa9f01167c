// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/stagewatch/stagewatch/internal/config"
	"github.com/stagewatch/stagewatch/internal/models/schedule"
)

// ScheduleSource is the schedule-lookup surface the resolver depends on.
type ScheduleSource interface {
	Day(ctx context.Context, date time.Time) ([]schedule.ShowEntry, error)
}

// ScheduleClient queries the schedule-lookup service by date, with a
// per-date cache and a client-side rate limiter. The lookup service is a
// shared community resource; the limiter keeps Stagewatch polite.
type ScheduleClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cache   DayCache
}

// NewScheduleClient creates a schedule client over the given cache.
func NewScheduleClient(cfg *config.ScheduleConfig, cache DayCache) *ScheduleClient {
	return &ScheduleClient{
		baseURL: cfg.URL,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		cache:   cache,
	}
}

// Day returns the schedule listing for one calendar day, served from the
// cache when a fresh entry exists.
func (c *ScheduleClient) Day(ctx context.Context, date time.Time) ([]schedule.ShowEntry, error) {
	key := date.Format("2006-01-02")

	shows, ok, err := c.cache.Get(key)
	if err != nil {
		return nil, fmt.Errorf("day cache read: %w", err)
	}
	if ok {
		return shows, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("date", key)
	reqURL := c.baseURL + "/api/v1/shows?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schedule request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schedule request failed with status %d", resp.StatusCode)
	}

	var day schedule.DayResponse
	if err := json.NewDecoder(resp.Body).Decode(&day); err != nil {
		return nil, fmt.Errorf("failed to decode schedule response: %w", err)
	}
	if day.Code != 0 {
		return nil, fmt.Errorf("schedule service returned code %d", day.Code)
	}

	if err := c.cache.Set(key, day.Shows); err != nil {
		return nil, fmt.Errorf("day cache write: %w", err)
	}
	return day.Shows, nil
}
