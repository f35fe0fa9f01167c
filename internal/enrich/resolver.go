// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package enrich

import (
	"context"
	"fmt"
	"sync"

	"github.com/stagewatch/stagewatch/internal/alias"
	"github.com/stagewatch/stagewatch/internal/logging"
	"github.com/stagewatch/stagewatch/internal/metrics"
	"github.com/stagewatch/stagewatch/internal/models"
	"github.com/stagewatch/stagewatch/internal/models/schedule"
	"github.com/stagewatch/stagewatch/internal/store"
)

// Resolver resolves a ticket's cast list and city.
//
// Resolution order:
//  1. the permanent cast cache (ticket id keyed), when the city is known
//  2. the schedule listing for the ticket's date, matched by event title
//  3. the event's aliases in insertion order, each outcome recorded so
//     persistently failing aliases get pruned
//
// Only non-empty casts are cached; a show listed without cast today may
// gain one tomorrow.
type Resolver struct {
	mu      sync.Mutex
	source  ScheduleSource
	aliases *alias.Resolver
	doc     *store.Document[map[string]models.CastEntry]
	cache   map[string]models.CastEntry
}

// NewResolver loads the cast cache from path and wires the resolver.
func NewResolver(path string, source ScheduleSource, aliases *alias.Resolver) (*Resolver, error) {
	doc := store.NewDocument[map[string]models.CastEntry](path)
	cache, err := doc.Load()
	if err != nil {
		return nil, fmt.Errorf("load cast cache: %w", err)
	}
	if cache == nil {
		cache = make(map[string]models.CastEntry)
	}
	return &Resolver{
		source:  source,
		aliases: aliases,
		doc:     doc,
		cache:   cache,
	}, nil
}

// Resolve returns the cast and city for one ticket. cityHint is the city
// already known for the ticket from an earlier cycle, used to pick between
// same-title shows running in different cities. A miss everywhere is not
// an error: the ticket simply stays unenriched for this cycle.
func (r *Resolver) Resolve(ctx context.Context, eventTitle string, t *models.Ticket, cityHint string) ([]models.CastMember, string, error) {
	if cityHint == "" {
		cityHint = t.City
	}

	r.mu.Lock()
	cached, ok := r.cache[t.ID]
	r.mu.Unlock()

	if ok && cityHint != "" {
		metrics.EnrichCacheHits.Inc()
		return cached.Cast, cityHint, nil
	}
	metrics.EnrichCacheMisses.Inc()

	shows, err := r.source.Day(ctx, t.StartTime)
	if err != nil {
		return nil, "", fmt.Errorf("schedule lookup: %w", err)
	}

	show := findShow(shows, alias.Normalize(eventTitle), t, cityHint)
	if show == nil {
		show = r.aliasFallback(shows, eventTitle, t, cityHint)
	}
	if show == nil {
		return nil, "", nil
	}

	cast := make([]models.CastMember, 0, len(show.Cast))
	for _, pair := range show.Cast {
		cast = append(cast, models.CastMember{Role: pair.Role, Artist: pair.Artist})
	}

	if len(cast) > 0 {
		r.mu.Lock()
		r.cache[t.ID] = models.CastEntry{EventID: t.EventID, Cast: cast}
		snapshot := make(map[string]models.CastEntry, len(r.cache))
		for k, v := range r.cache {
			snapshot[k] = v
		}
		r.mu.Unlock()

		if err := r.doc.Commit(snapshot); err != nil {
			return cast, show.City, fmt.Errorf("persist cast cache: %w", err)
		}
	}

	city := cityHint
	if city == "" {
		city = show.City
	}
	return cast, city, nil
}

// aliasFallback tries the event's aliases against the day listing, in
// insertion order, recording every outcome so the alias resolver can prune
// pairs that keep failing.
func (r *Resolver) aliasFallback(shows []schedule.ShowEntry, eventTitle string, t *models.Ticket, cityHint string) *schedule.ShowEntry {
	name := alias.Normalize(eventTitle)
	for _, al := range r.aliases.Aliases(t.EventID) {
		show := findShow(shows, al, t, cityHint)
		if err := r.aliases.RecordLookupOutcome(al, name, show != nil); err != nil {
			logging.Warn().Err(err).Str("alias", al).Msg("Failed to persist alias lookup outcome")
		}
		if show != nil {
			metrics.EnrichAliasFallbacks.Inc()
			return show
		}
	}
	return nil
}

// findShow matches a day listing entry by normalized title. When several
// entries share a title (same production, two cities), the one whose show
// time matches the ticket wins, then the one in the hinted city; otherwise
// the first match does.
func findShow(shows []schedule.ShowEntry, title string, t *models.Ticket, cityHint string) *schedule.ShowEntry {
	var first, inCity *schedule.ShowEntry
	wantTime := t.StartTime.Format("15:04")

	for i := range shows {
		if alias.Normalize(shows[i].Title) != title {
			continue
		}
		if shows[i].Time == wantTime {
			return &shows[i]
		}
		if inCity == nil && cityHint != "" && shows[i].City == cityHint {
			inCity = &shows[i]
		}
		if first == nil {
			first = &shows[i]
		}
	}
	if inCity != nil {
		return inCity
	}
	return first
}

// Cached returns the cached cast entry for a ticket id, if any.
func (r *Resolver) Cached(ticketID string) (models.CastEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[ticketID]
	return entry, ok
}
