// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stagewatch/stagewatch/internal/config"
	"github.com/stagewatch/stagewatch/internal/logging"
	"github.com/stagewatch/stagewatch/internal/metrics"
	"github.com/stagewatch/stagewatch/internal/models"
	"github.com/stagewatch/stagewatch/internal/models/platform"
)

// ErrExhausted is returned when the event list cannot be fetched even after
// degrading the page size all the way down.
var ErrExhausted = errors.New("event list fetch exhausted all page sizes")

// Fetcher assembles a full snapshot from the platform API: one paged list
// fetch followed by bounded-concurrency detail fetches.
//
// A detail fetch that keeps failing after the configured retries does not
// fail the snapshot; the event keeps its tickets from the previous snapshot
// so one flaky endpoint cannot suppress changes everywhere else.
type Fetcher struct {
	api        PlatformAPI
	pageSize   int
	filterTags []string
	attempts   int
	retryDelay time.Duration
	sem        chan struct{}
}

// NewFetcher creates a fetcher over the given platform API.
func NewFetcher(api PlatformAPI, platformCfg *config.PlatformConfig, fetchCfg *config.FetchConfig) *Fetcher {
	return &Fetcher{
		api:        api,
		pageSize:   platformCfg.PageSize,
		filterTags: platformCfg.FilterTags,
		attempts:   fetchCfg.RetryAttempts,
		retryDelay: fetchCfg.RetryDelay,
		sem:        make(chan struct{}, fetchCfg.Concurrency),
	}
}

// FetchAll fetches the event list and every event's detail, returning a
// fresh snapshot. prev supplies fallback tickets for events whose detail
// fetch failed; it may be nil on first run.
func (f *Fetcher) FetchAll(ctx context.Context, prev *models.Snapshot) (*models.Snapshot, error) {
	basics, err := f.fetchList(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]models.Event, len(basics))
	keep := make([]bool, len(basics))

	var wg sync.WaitGroup
	for i := range basics {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			f.sem <- struct{}{}
			defer func() { <-f.sem }()

			ev, err := f.fetchDetail(ctx, basics[i])
			if err != nil {
				metrics.FetchSkips.Inc()
				logging.Warn().Err(err).Str("event_id", basics[i].ID).Msg("Detail fetch failed, keeping previous tickets")
				if prevEv := previousEvent(prev, basics[i].ID); prevEv != nil {
					events[i] = *prevEv
					keep[i] = true
				}
				return
			}
			events[i] = ev
			keep[i] = true
		}(i)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	snap := &models.Snapshot{Version: models.SnapshotVersion}
	for i := range events {
		if keep[i] {
			snap.Events = append(snap.Events, events[i])
		}
	}
	return snap, nil
}

// fetchList fetches all event-list pages. On failure it halves the page
// size and starts over; a page size of zero means the list is unreachable.
func (f *Fetcher) fetchList(ctx context.Context) ([]platform.EventBasic, error) {
	for pageSize := f.pageSize; pageSize > 0; pageSize /= 2 {
		basics, err := f.fetchListPages(ctx, pageSize)
		if err == nil {
			return basics, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		metrics.FetchPageDegrades.Inc()
		logging.Warn().Err(err).Int("page_size", pageSize).Msg("List fetch failed, degrading page size")
	}
	return nil, ErrExhausted
}

func (f *Fetcher) fetchListPages(ctx context.Context, pageSize int) ([]platform.EventBasic, error) {
	tags := f.filterTags
	if len(tags) == 0 {
		tags = []string{""}
	}

	var out []platform.EventBasic
	seen := make(map[string]bool)

	for _, tag := range tags {
		fetched := 0
		for page := 1; ; page++ {
			resp, err := f.api.ListEvents(ctx, page, pageSize, tag)
			if err != nil {
				return nil, err
			}
			fetched += len(resp.Data.Events)
			for _, ev := range resp.Data.Events {
				if !seen[ev.ID] {
					seen[ev.ID] = true
					out = append(out, ev)
				}
			}
			if len(resp.Data.Events) < pageSize || fetched >= resp.Data.Count {
				break
			}
		}
	}
	return out, nil
}

// fetchDetail fetches one event's detail, retrying transient failures.
func (f *Fetcher) fetchDetail(ctx context.Context, basic platform.EventBasic) (models.Event, error) {
	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		resp, err := f.api.EventDetail(ctx, basic.ID)
		if err == nil {
			return buildEvent(basic, resp), nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return models.Event{}, err
		}
		if attempt == f.attempts {
			break
		}
		metrics.FetchRetries.Inc()

		select {
		case <-time.After(f.retryDelay):
		case <-ctx.Done():
			return models.Event{}, ctx.Err()
		}
	}
	return models.Event{}, lastErr
}

// buildEvent maps the wire detail onto the domain event.
func buildEvent(basic platform.EventBasic, resp *platform.EventDetailResponse) models.Event {
	d := resp.Data
	ev := models.Event{
		ID:        basic.ID,
		Title:     firstNonEmpty(d.Event.Title, basic.Title),
		Venue:     d.Venue,
		StartTime: time.Unix(basic.StartAt, 0).UTC(),
		EndTime:   time.Unix(basic.EndAt, 0).UTC(),
		UpdatedAt: time.Unix(d.UpdatedAt, 0).UTC(),
		Deadline:  time.Unix(d.Deadline, 0).UTC(),
		CreatedAt: time.Unix(d.CreatedAt, 0).UTC(),
	}

	tickets := make([]models.Ticket, 0, len(d.Tickets))
	for _, t := range d.Tickets {
		tickets = append(tickets, buildTicket(t))
	}
	ev.Tickets = models.NormalizeTickets(ev.ID, tickets)
	return ev
}

func buildTicket(t platform.TicketDetail) models.Ticket {
	ticket := models.Ticket{
		ID:            t.ID,
		EventID:       t.EventID,
		Title:         t.Title,
		StartTime:     time.Unix(t.StartAt, 0).UTC(),
		EndTime:       time.Unix(t.EndAt, 0).UTC(),
		Status:        mapStatus(t.Status),
		Price:         t.Price,
		TotalCount:    t.Amount,
		RemainCount:   t.Remainder,
		DaysRemaining: t.RemainDays,
		CreatedAt:     time.Unix(t.CreatedAt, 0).UTC(),
	}
	if t.SaleStartAt != nil {
		at := time.Unix(*t.SaleStartAt, 0).UTC()
		ticket.SaleStartAt = &at
	}
	return ticket
}

func mapStatus(code int) models.TicketStatus {
	switch code {
	case platform.StatusPending:
		return models.TicketStatusPending
	case platform.StatusExpired:
		return models.TicketStatusExpired
	default:
		return models.TicketStatusActive
	}
}

func previousEvent(prev *models.Snapshot, id string) *models.Event {
	if prev == nil {
		return nil
	}
	return prev.Event(id)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
