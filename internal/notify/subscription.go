// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package notify

import (
	"fmt"
	"sort"
	"sync"

	"github.com/stagewatch/stagewatch/internal/store"
)

// MaxLevel is the highest notification level.
const MaxLevel = 3

// Preferences tracks each destination's notification level. A destination
// is created at the default level on first touch and never auto-deleted;
// silencing is level 0, not removal.
type Preferences struct {
	mu           sync.Mutex
	doc          *store.Document[map[string]int]
	levels       map[string]int
	defaultLevel int
}

// NewPreferences loads the subscription document from path.
func NewPreferences(path string, defaultLevel int) (*Preferences, error) {
	doc := store.NewDocument[map[string]int](path)
	levels, err := doc.Load()
	if err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	if levels == nil {
		levels = make(map[string]int)
	}
	return &Preferences{
		doc:          doc,
		levels:       levels,
		defaultLevel: defaultLevel,
	}, nil
}

// Level returns a destination's level, creating it at the default on first
// touch.
func (p *Preferences) Level(dest string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if level, ok := p.levels[dest]; ok {
		return level, nil
	}
	p.levels[dest] = p.defaultLevel
	if err := p.commitLocked(); err != nil {
		return 0, err
	}
	return p.defaultLevel, nil
}

// SetLevel updates a destination's level (0 to MaxLevel).
func (p *Preferences) SetLevel(dest string, level int) error {
	if level < 0 || level > MaxLevel {
		return fmt.Errorf("level must be 0..%d, got %d", MaxLevel, level)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.levels[dest] = level
	return p.commitLocked()
}

// Destinations returns all known destination ids, sorted for stable fanout
// order.
func (p *Preferences) Destinations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.levels))
	for dest := range p.levels {
		out = append(out, dest)
	}
	sort.Strings(out)
	return out
}

func (p *Preferences) commitLocked() error {
	snapshot := make(map[string]int, len(p.levels))
	for k, v := range p.levels {
		snapshot[k] = v
	}
	if err := p.doc.Commit(snapshot); err != nil {
		return fmt.Errorf("persist subscriptions: %w", err)
	}
	return nil
}
