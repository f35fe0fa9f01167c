// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package store

import (
	"path/filepath"
	"testing"

	"github.com/stagewatch/stagewatch/internal/models"
)

func TestSnapshotStoreTracksLastTwoUpdateTimes(t *testing.T) {
	s := NewSnapshotStore(filepath.Join(t.TempDir(), "snapshot.json"))

	if err := s.Commit(models.Snapshot{Events: []models.Event{{ID: "1"}}}); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	first, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if first.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be stamped on commit")
	}
	if !first.PrevUpdated.IsZero() {
		t.Error("PrevUpdated should be zero after the first commit")
	}

	if err := s.Commit(models.Snapshot{Events: []models.Event{{ID: "1"}, {ID: "2"}}}); err != nil {
		t.Fatalf("second commit: %v", err)
	}
	second, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !second.PrevUpdated.Equal(first.UpdatedAt) {
		t.Errorf("PrevUpdated = %v, want %v", second.PrevUpdated, first.UpdatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt should advance: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
}

func TestSnapshotStoreVersionStamped(t *testing.T) {
	s := NewSnapshotStore(filepath.Join(t.TempDir(), "snapshot.json"))

	if err := s.Commit(models.Snapshot{}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	snap, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Version != models.SnapshotVersion {
		t.Errorf("version = %d, want %d", snap.Version, models.SnapshotVersion)
	}
}
