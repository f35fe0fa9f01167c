// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package enrich fills in cast lists and cities for tickets by querying the
// schedule-lookup service, with an alias fallback chain for events whose
// platform title does not match the schedule listing.
package enrich

import (
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/stagewatch/stagewatch/internal/models/schedule"
)

// DayCache caches one day's schedule listing. Entries expire after the
// configured freshness window so same-day cast changes eventually surface.
type DayCache interface {
	// Get returns the cached listing for a date key (YYYY-MM-DD).
	Get(date string) ([]schedule.ShowEntry, bool, error)

	// Set stores a listing under the date key.
	Set(date string, shows []schedule.ShowEntry) error

	// Close releases cache resources.
	Close() error
}

// MemoryDayCache is an in-memory DayCache for testing.
type MemoryDayCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryDayEntry
}

type memoryDayEntry struct {
	shows     []schedule.ShowEntry
	expiresAt time.Time
}

// NewMemoryDayCache creates an in-memory day cache.
func NewMemoryDayCache(ttl time.Duration) *MemoryDayCache {
	return &MemoryDayCache{
		ttl:     ttl,
		entries: make(map[string]memoryDayEntry),
	}
}

func (c *MemoryDayCache) Get(date string) ([]schedule.ShowEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[date]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.shows, true, nil
}

func (c *MemoryDayCache) Set(date string, shows []schedule.ShowEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[date] = memoryDayEntry{shows: shows, expiresAt: time.Now().Add(c.ttl)}
	return nil
}

func (c *MemoryDayCache) Close() error { return nil }

// BadgerDayCache is a BadgerDB-backed DayCache for production use. TTL
// expiry is delegated to badger so stale listings vanish without a sweeper,
// and the cache survives restarts.
type BadgerDayCache struct {
	db     *badger.DB
	ttl    time.Duration
	prefix []byte
}

// OpenBadgerDayCache opens (or creates) the badger store at dir.
func OpenBadgerDayCache(dir string, ttl time.Duration) (*BadgerDayCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerDayCache{db: db, ttl: ttl, prefix: []byte("day:")}, nil
}

func (c *BadgerDayCache) makeKey(date string) []byte {
	return append(c.prefix, []byte(date)...)
}

func (c *BadgerDayCache) Get(date string) ([]schedule.ShowEntry, bool, error) {
	var shows []schedule.ShowEntry
	found := false

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.makeKey(date))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &shows); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return shows, found, nil
}

func (c *BadgerDayCache) Set(date string, shows []schedule.ShowEntry) error {
	data, err := json.Marshal(shows)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(c.makeKey(date), data).WithTTL(c.ttl)
		return txn.SetEntry(e)
	})
}

func (c *BadgerDayCache) Close() error {
	return c.db.Close()
}
