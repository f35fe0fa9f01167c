// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/stagewatch/stagewatch/internal/models"
)

// SnapshotStore persists the last known event/ticket state as one versioned
// document and maintains the last two update timestamps across commits.
type SnapshotStore struct {
	doc *Document[models.Snapshot]

	mu   sync.Mutex
	last time.Time
}

// NewSnapshotStore creates a snapshot store backed by the given file path.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{doc: NewDocument[models.Snapshot](path)}
}

// Load returns the current snapshot. A missing file yields an empty
// versioned snapshot.
func (s *SnapshotStore) Load() (models.Snapshot, error) {
	snap, err := s.doc.Load()
	if err != nil {
		return snap, err
	}
	if snap.Version == 0 {
		snap.Version = models.SnapshotVersion
	}

	s.mu.Lock()
	if snap.UpdatedAt.After(s.last) {
		s.last = snap.UpdatedAt
	}
	s.mu.Unlock()

	return snap, nil
}

// Commit stamps the snapshot with the commit time, shifts the previous
// update time, and writes it through the crash-safe document commit.
func (s *SnapshotStore) Commit(snap models.Snapshot) error {
	s.mu.Lock()
	snap.Version = models.SnapshotVersion
	snap.PrevUpdated = s.last
	snap.UpdatedAt = time.Now()
	s.mu.Unlock()

	if err := s.doc.Commit(snap); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	s.mu.Lock()
	s.last = snap.UpdatedAt
	s.mu.Unlock()
	return nil
}
