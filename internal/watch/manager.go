// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package watch runs the periodic observation cycle: fetch a fresh
// snapshot, classify changes against the stored one, enrich, group
// pending releases, compose notices, and fan them out.
package watch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stagewatch/stagewatch/internal/diff"
	"github.com/stagewatch/stagewatch/internal/logging"
	"github.com/stagewatch/stagewatch/internal/metrics"
	"github.com/stagewatch/stagewatch/internal/models"
	"github.com/stagewatch/stagewatch/internal/notify"
	"github.com/stagewatch/stagewatch/internal/pending"
	"github.com/stagewatch/stagewatch/internal/store"
)

// ErrBusy is returned by TriggerCycle when a cycle is already in flight.
var ErrBusy = errors.New("observation cycle already in progress")

// SnapshotFetcher fetches a fresh snapshot from the platform.
type SnapshotFetcher interface {
	FetchAll(ctx context.Context, prev *models.Snapshot) (*models.Snapshot, error)
}

// CastResolver resolves a ticket's cast and city. cityHint is the city
// remembered from earlier cycles, used to pick between same-title shows
// in different cities.
type CastResolver interface {
	Resolve(ctx context.Context, eventTitle string, t *models.Ticket, cityHint string) ([]models.CastMember, string, error)
}

// ReleaseGrouper buckets pending tickets by announced release time.
type ReleaseGrouper interface {
	Group(eventID, eventTitle string, tickets []models.Ticket) ([]pending.Bucket, error)
}

// CycleResult summarizes one completed observation cycle.
type CycleResult struct {
	CycleID       string        `json:"cycle_id"`
	Events        int           `json:"events"`
	ChangedEvents int           `json:"changed_events"`
	Notices       int           `json:"notices"`
	Duration      time.Duration `json:"duration"`
}

// Manager orchestrates the observation loop.
//
// A cycle that fails at any stage before the snapshot commit counts as
// "no update": nothing is delivered, the stored snapshot keeps its
// previous state, and the next tick retries from scratch.
type Manager struct {
	fetcher   SnapshotFetcher
	snapshots *store.SnapshotStore
	enricher  CastResolver
	grouper   ReleaseGrouper
	composer  notify.Composer
	prefs     *notify.Preferences
	notifier  notify.Notifier
	interval  time.Duration

	mu        sync.RWMutex
	running   bool
	lastCycle time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	cycleMu   sync.Mutex // prevents concurrent cycle execution
}

// NewManager wires the cycle components together.
func NewManager(
	fetcher SnapshotFetcher,
	snapshots *store.SnapshotStore,
	enricher CastResolver,
	grouper ReleaseGrouper,
	prefs *notify.Preferences,
	notifier notify.Notifier,
	interval time.Duration,
) *Manager {
	return &Manager{
		fetcher:   fetcher,
		snapshots: snapshots,
		enricher:  enricher,
		grouper:   grouper,
		prefs:     prefs,
		notifier:  notifier,
		interval:  interval,
	}
}

// Start begins the periodic observation loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("watch manager is already running")
	}
	m.running = true
	m.stopChan = make(chan struct{})
	m.mu.Unlock()

	logging.Info().Dur("interval", m.interval).Msg("Starting watch manager")

	// Add before starting the goroutines so Stop cannot Wait early.
	m.wg.Add(2)

	// Initial cycle runs in the background so startup is not blocked by a
	// slow platform.
	go func() {
		defer m.wg.Done()
		if _, err := m.TriggerCycle(ctx); err != nil && !errors.Is(err, ErrBusy) {
			logging.Warn().Err(err).Msg("Initial cycle failed (will retry on next tick)")
		}
	}()

	go m.watchLoop(ctx)
	return nil
}

// Stop halts the loop and waits for any in-flight cycle to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopChan)
	m.mu.Unlock()

	m.wg.Wait()
	logging.Info().Msg("Watch manager stopped")
}

// TriggerCycle runs one cycle immediately. When a cycle is already in
// flight it returns ErrBusy without waiting; the in-flight cycle's result
// stands.
func (m *Manager) TriggerCycle(ctx context.Context) (CycleResult, error) {
	if !m.cycleMu.TryLock() {
		return CycleResult{}, ErrBusy
	}
	defer m.cycleMu.Unlock()
	return m.runCycle(ctx)
}

// LastCycleTime returns the completion time of the last successful cycle.
func (m *Manager) LastCycleTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastCycle
}

// Snapshot returns the stored snapshot.
func (m *Manager) Snapshot() (models.Snapshot, error) {
	return m.snapshots.Load()
}

func (m *Manager) watchLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.TriggerCycle(ctx); err != nil && !errors.Is(err, ErrBusy) {
				logging.Warn().Err(err).Msg("Observation cycle failed")
			}
		}
	}
}

// runCycle executes one full observation cycle. Callers must hold cycleMu.
func (m *Manager) runCycle(ctx context.Context) (CycleResult, error) {
	cycleID := uuid.NewString()
	start := time.Now()
	log := logging.With().Str("cycle_id", cycleID).Logger()

	prev, err := m.snapshots.Load()
	if err != nil {
		metrics.RecordCycle(time.Since(start), "failed")
		return CycleResult{}, fmt.Errorf("load snapshot: %w", err)
	}

	fresh, err := m.fetcher.FetchAll(ctx, &prev)
	if err != nil {
		metrics.RecordCycle(time.Since(start), "failed")
		return CycleResult{}, fmt.Errorf("fetch snapshot: %w", err)
	}

	diffs := make(map[string]diff.Result)
	casts := make(map[string]models.CastEntry)
	pendingTexts := make(map[string][]string)

	for i := range fresh.Events {
		ev := &fresh.Events[i]

		carryCities(prev.Event(ev.ID), ev)
		var oldTickets []models.Ticket
		if old := prev.Event(ev.ID); old != nil {
			oldTickets = old.Tickets
		}

		d := diff.Classify(oldTickets, ev.Tickets)
		if !d.Changed() {
			continue
		}

		m.enrichTickets(ctx, ev, d.Immediate, casts)

		if len(d.Pending) > 0 {
			buckets, err := m.grouper.Group(ev.ID, ev.Title, d.Pending)
			if err != nil {
				log.Warn().Err(err).Str("event_id", ev.ID).Msg("Pending grouping failed")
			}
			for _, b := range buckets {
				pendingTexts[ev.ID] = append(pendingTexts[ev.ID], b.Text)
			}
		}

		diffs[ev.ID] = d
	}

	res := m.composer.Compose(fresh, diffs, casts, pendingTexts, prev.UpdatedAt)
	if res.Changed {
		notify.Fanout(ctx, m.prefs, res, m.notifier)
	}

	if err := m.snapshots.Commit(*fresh); err != nil {
		metrics.RecordCycle(time.Since(start), "failed")
		return CycleResult{}, err
	}

	m.mu.Lock()
	m.lastCycle = time.Now()
	m.mu.Unlock()

	duration := time.Since(start)
	metrics.RecordCycle(duration, "ok")
	log.Info().
		Int("events", len(fresh.Events)).
		Int("changed", len(diffs)).
		Int("notices", len(res.Blocks)).
		Dur("duration", duration).
		Msg("Cycle completed")

	return CycleResult{
		CycleID:       cycleID,
		Events:        len(fresh.Events),
		ChangedEvents: len(diffs),
		Notices:       len(res.Blocks),
		Duration:      duration,
	}, nil
}

// enrichTickets resolves cast and city for the immediate tickets of one
// event. Enrichment failures never fail the cycle; the affected ticket is
// announced without cast details.
func (m *Manager) enrichTickets(ctx context.Context, ev *models.Event, tickets []models.Ticket, casts map[string]models.CastEntry) {
	if m.enricher == nil {
		return
	}

	index := make(map[string]int, len(ev.Tickets))
	for i := range ev.Tickets {
		index[ev.Tickets[i].ID] = i
	}

	for i := range tickets {
		t := &tickets[i]
		cast, city, err := m.enricher.Resolve(ctx, ev.Title, t, t.City)
		if err != nil {
			logging.Warn().Err(err).Str("ticket_id", t.ID).Msg("Enrichment failed")
			continue
		}
		if city != "" {
			t.City = city
			if j, ok := index[t.ID]; ok {
				ev.Tickets[j].City = city
			}
		}
		if len(cast) > 0 {
			casts[t.ID] = models.CastEntry{EventID: ev.ID, Cast: cast}
		}
	}
}

// carryCities copies previously resolved cities onto the fresh tickets so
// the cast cache's fast path stays warm across cycles.
func carryCities(old, fresh *models.Event) {
	if old == nil {
		return
	}
	cities := make(map[string]string, len(old.Tickets))
	for _, t := range old.Tickets {
		if t.City != "" {
			cities[t.ID] = t.City
		}
	}
	for i := range fresh.Tickets {
		if fresh.Tickets[i].City == "" {
			fresh.Tickets[i].City = cities[fresh.Tickets[i].ID]
		}
	}
}
