// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package store persists Stagewatch state as versioned JSON documents with a
// crash-safe commit: the current file is renamed aside as a backup before
// the new content is written, and restored if the write fails. Each persisted
// unit (snapshot, aliases, cast cache, subscriptions, report ledger) is one
// Document with one schema.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// ErrCorrupted is returned by Load when the document exists but cannot be
// decoded. Callers decide whether to start fresh or abort.
var ErrCorrupted = errors.New("store: document corrupted")

// ErrRestoreFailed is returned by Commit when a failed write could not be
// rolled back from the backup. This is the one fatal persistence path.
var ErrRestoreFailed = errors.New("store: backup restoration failed")

// Document is a single crash-safe persisted JSON document of type T.
//
// Commit holds an exclusive lock for the whole backup/write sequence;
// concurrent Load calls block until the commit finishes, so readers never
// observe a partially written document.
type Document[T any] struct {
	path string
	mu   sync.Mutex
}

// NewDocument creates a document store backed by the given file path. The
// parent directory is created on first commit.
func NewDocument[T any](path string) *Document[T] {
	return &Document[T]{path: path}
}

// Path returns the backing file path.
func (d *Document[T]) Path() string {
	return d.path
}

// BackupPath returns the path the previous content is renamed to during a
// commit.
func (d *Document[T]) BackupPath() string {
	return d.path + ".bak"
}

// Load reads and decodes the document. A missing file yields the zero value
// of T and no error; an undecodable file yields ErrCorrupted.
func (d *Document[T]) Load() (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var v T
	data, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("read %s: %w", d.path, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %s: %v", ErrCorrupted, d.path, err)
	}
	return v, nil
}

// Commit atomically replaces the document content.
//
// Sequence: remove any prior backup, rename the current file to the backup
// location, write the new content, rename it into place. On any write
// failure the backup is restored and the error surfaced; if restoration
// itself fails, ErrRestoreFailed propagates to the caller.
func (d *Document[T]) Commit(v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", d.path, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(d.path), 0o750); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	backed := false
	if _, err := os.Stat(d.path); err == nil {
		if err := os.Remove(d.BackupPath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove prior backup %s: %w", d.BackupPath(), err)
		}
		if err := os.Rename(d.path, d.BackupPath()); err != nil {
			return fmt.Errorf("back up %s: %w", d.path, err)
		}
		backed = true
	}

	if err := d.write(data); err != nil {
		if backed {
			if restoreErr := os.Rename(d.BackupPath(), d.path); restoreErr != nil {
				return fmt.Errorf("%w: %s after write error: %v", ErrRestoreFailed, d.path, err)
			}
		}
		return fmt.Errorf("write %s: %w", d.path, err)
	}

	return nil
}

// write stages the content in a temp file and renames it into place so a
// crash mid-write never leaves a truncated document at d.path.
func (d *Document[T]) write(data []byte) error {
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, d.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
