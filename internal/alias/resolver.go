// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package alias maintains the bidirectional mapping between user-chosen
// aliases, canonical search names, and event identifiers, and prunes
// aliases that keep failing schedule lookups.
package alias

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stagewatch/stagewatch/internal/logging"
	"github.com/stagewatch/stagewatch/internal/store"
)

// pruneThreshold is the number of consecutive failed lookups of one
// (alias, search name) pair after which the alias is deleted everywhere.
const pruneThreshold = 2

// Document is the persisted alias state, schema version 2. The indices are
// co-maintained: every alias appears in AliasToEvent and in its event's
// EventAliases list; every search name in NameToEvent and SearchNames.
type Document struct {
	Version      int                       `json:"version"`
	AliasToEvent map[string]string         `json:"alias_to_event"`
	EventAliases map[string][]string       `json:"event_aliases"`
	SearchNames  map[string][]string       `json:"search_names"`
	NameToEvent  map[string]string         `json:"name_to_event"`
	Failures     map[string]map[string]int `json:"failures"`
}

// DocumentVersion is the current alias document schema version.
const DocumentVersion = 2

func emptyDocument() Document {
	return Document{
		Version:      DocumentVersion,
		AliasToEvent: make(map[string]string),
		EventAliases: make(map[string][]string),
		SearchNames:  make(map[string][]string),
		NameToEvent:  make(map[string]string),
		Failures:     make(map[string]map[string]int),
	}
}

// Resolver is the in-memory alias index with crash-safe persistence.
// Mutations happen from the active poll cycle or from API calls serialized
// by the internal mutex.
type Resolver struct {
	mu  sync.Mutex
	doc *store.Document[Document]
	d   Document
	log zerolog.Logger
}

// NewResolver loads the alias document from path, running the one-time
// legacy-shape migration if needed.
func NewResolver(path string) (*Resolver, error) {
	r := &Resolver{
		doc: store.NewDocument[Document](path),
		log: logging.With().Str("component", "alias").Logger(),
	}

	d, err := r.doc.Load()
	if err != nil {
		return nil, fmt.Errorf("load alias document: %w", err)
	}

	if d.Version < DocumentVersion {
		d, err = migrate(path, d)
		if err != nil {
			return nil, fmt.Errorf("migrate alias document: %w", err)
		}
		if err := r.doc.Commit(d); err != nil {
			return nil, fmt.Errorf("persist migrated alias document: %w", err)
		}
		r.log.Info().Int("version", d.Version).Msg("alias document migrated")
	}

	r.d = d
	return r, nil
}

// Normalize returns the canonical key form of an alias: trimmed and
// lower-cased.
func Normalize(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}

// AddAlias maps an alias to an event and persists the document.
// Re-adding a previously pruned alias re-creates it with a fresh zero
// failure counter. An alias points at one event; re-adding with a
// different event re-targets it.
func (r *Resolver) AddAlias(eventID, alias string) error {
	key := Normalize(alias)
	if key == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.d.AliasToEvent[key]; ok {
		if prev == eventID {
			delete(r.d.Failures, key)
			return r.commitLocked()
		}
		r.d.EventAliases[prev] = remove(r.d.EventAliases[prev], key)
	}

	r.d.AliasToEvent[key] = eventID
	r.d.EventAliases[eventID] = appendUnique(r.d.EventAliases[eventID], key)
	delete(r.d.Failures, key)
	return r.commitLocked()
}

// AddSearchName registers a canonical search-name variant for an event
// and persists the document.
func (r *Resolver) AddSearchName(eventID, name string) error {
	key := Normalize(name)
	if key == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.d.NameToEvent[key]; ok && prev != eventID {
		r.d.SearchNames[prev] = remove(r.d.SearchNames[prev], key)
	}
	r.d.NameToEvent[key] = eventID
	r.d.SearchNames[eventID] = appendUnique(r.d.SearchNames[eventID], key)
	return r.commitLocked()
}

// ResolveByAlias returns the event id an alias maps to. Matching is exact
// on the normalized alias text.
func (r *Resolver) ResolveByAlias(alias string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.d.AliasToEvent[Normalize(alias)]
	return id, ok
}

// ResolveByName returns the event id a canonical search name maps to.
func (r *Resolver) ResolveByName(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.d.NameToEvent[Normalize(name)]
	return id, ok
}

// MatchName resolves by case-insensitive substring over search names and
// aliases, for callers holding free text. Exact matches win; otherwise the
// first substring hit in sorted key order is returned, keeping the result
// deterministic.
func (r *Resolver) MatchName(text string) (string, bool) {
	key := Normalize(text)
	if key == "" {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.d.NameToEvent[key]; ok {
		return id, true
	}
	if id, ok := r.d.AliasToEvent[key]; ok {
		return id, true
	}

	for _, idx := range []map[string]string{r.d.NameToEvent, r.d.AliasToEvent} {
		keys := make([]string, 0, len(idx))
		for k := range idx {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if strings.Contains(k, key) || strings.Contains(key, k) {
				return idx[k], true
			}
		}
	}
	return "", false
}

// Aliases returns the event's aliases in insertion order.
func (r *Resolver) Aliases(eventID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.d.EventAliases[eventID]))
	copy(out, r.d.EventAliases[eventID])
	return out
}

// SearchNames returns the event's canonical search names in insertion order.
func (r *Resolver) SearchNames(eventID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.d.SearchNames[eventID]))
	copy(out, r.d.SearchNames[eventID])
	return out
}

// RecordLookupOutcome updates the consecutive-failure counter for an
// (alias, search name) pair and persists the document. Success resets
// the pair to zero; the second consecutive failure prunes the alias from
// every index, and the prune survives restarts.
func (r *Resolver) RecordLookupOutcome(aliasText, name string, success bool) error {
	key := Normalize(aliasText)
	nameKey := Normalize(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if success {
		counts, ok := r.d.Failures[key]
		if !ok || counts[nameKey] == 0 {
			return nil
		}
		counts[nameKey] = 0
		return r.commitLocked()
	}

	counts := r.d.Failures[key]
	if counts == nil {
		counts = make(map[string]int)
		r.d.Failures[key] = counts
	}
	counts[nameKey]++

	if counts[nameKey] >= pruneThreshold {
		r.pruneLocked(key)
		r.log.Info().Str("alias", key).Str("name", nameKey).Msg("alias pruned after repeated lookup failures")
	}
	return r.commitLocked()
}

// RemoveAlias deletes an alias (and its search-name entry, when the same
// text was registered as one) from every index and persists the document.
// It reports whether the alias existed.
func (r *Resolver) RemoveAlias(aliasText string) (bool, error) {
	key := Normalize(aliasText)

	r.mu.Lock()
	defer r.mu.Unlock()

	_, inAlias := r.d.AliasToEvent[key]
	_, inName := r.d.NameToEvent[key]
	if !inAlias && !inName {
		return false, nil
	}
	r.pruneLocked(key)
	return true, r.commitLocked()
}

// pruneLocked removes an alias from all three indices and the failure map.
func (r *Resolver) pruneLocked(key string) {
	if eventID, ok := r.d.AliasToEvent[key]; ok {
		r.d.EventAliases[eventID] = remove(r.d.EventAliases[eventID], key)
		if len(r.d.EventAliases[eventID]) == 0 {
			delete(r.d.EventAliases, eventID)
		}
	}
	delete(r.d.AliasToEvent, key)

	if eventID, ok := r.d.NameToEvent[key]; ok {
		r.d.SearchNames[eventID] = remove(r.d.SearchNames[eventID], key)
		if len(r.d.SearchNames[eventID]) == 0 {
			delete(r.d.SearchNames, eventID)
		}
		delete(r.d.NameToEvent, key)
	}

	delete(r.d.Failures, key)
}

func (r *Resolver) commitLocked() error {
	if err := r.doc.Commit(r.d); err != nil {
		return fmt.Errorf("commit alias document: %w", err)
	}
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func remove(list []string, v string) []string {
	out := list[:0]
	for _, x := range list {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
