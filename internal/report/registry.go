// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package report keeps the crowd-submitted seat listing registry: creation,
// amendment, error flagging with auto-eviction, and a bounded recency list.
package report

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/stagewatch/stagewatch/internal/alias"
	"github.com/stagewatch/stagewatch/internal/models"
	"github.com/stagewatch/stagewatch/internal/store"
)

const (
	// errorReporterThreshold is the number of distinct reporters whose
	// flags evict a report.
	errorReporterThreshold = 3

	// recentCapacity bounds the recency list.
	recentCapacity = 20
)

// RecentEntry is one recency-list element.
type RecentEntry struct {
	ReportID string `json:"report_id"`
	EventID  string `json:"event_id"`
}

// Document is the persisted registry state.
type Document struct {
	Version int                      `json:"version"`
	NextID  int64                    `json:"next_id"`
	Reports map[string]models.Report `json:"reports"`
	Recent  []RecentEntry            `json:"recent"`
}

// DocumentVersion is the current registry schema version.
const DocumentVersion = 1

// Fields are the amendable report fields. Zero values leave the stored
// field untouched.
type Fields struct {
	Seat        string
	Price       float64
	ListPrice   float64
	Category    string
	Description string
	ImageRef    string
}

// Registry manages seat-listing reports. Event titles are normalized and
// resolved through the alias resolver so "剧A" and the full platform title
// land on the same event id.
type Registry struct {
	mu      sync.Mutex
	doc     *store.Document[Document]
	d       Document
	aliases *alias.Resolver
}

// NewRegistry loads the report document from path.
func NewRegistry(path string, aliases *alias.Resolver) (*Registry, error) {
	doc := store.NewDocument[Document](path)
	d, err := doc.Load()
	if err != nil {
		return nil, fmt.Errorf("load report registry: %w", err)
	}
	if d.Reports == nil {
		d.Reports = make(map[string]models.Report)
	}
	if d.NextID == 0 {
		d.NextID = 1
	}
	d.Version = DocumentVersion
	return &Registry{doc: doc, d: d, aliases: aliases}, nil
}

// Create stores a new report and returns its id. The event title resolves
// through the alias indices when possible; an unresolvable title is kept
// verbatim with an empty event id.
func (r *Registry) Create(submitterID, eventTitle string, fields Fields) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := strconv.FormatInt(r.d.NextID, 10)
	r.d.NextID++

	eventID := r.resolveEvent(eventTitle)
	r.d.Reports[id] = models.Report{
		ID:          id,
		EventID:     eventID,
		EventTitle:  eventTitle,
		SubmitterID: submitterID,
		Seat:        fields.Seat,
		Price:       fields.Price,
		ListPrice:   fields.ListPrice,
		Category:    fields.Category,
		Description: fields.Description,
		ImageRef:    fields.ImageRef,
		CreatedAt:   time.Now().UTC(),
	}
	r.touchLocked(id, eventID)

	if err := r.commitLocked(); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns a report by id.
func (r *Registry) Get(id string) (models.Report, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.d.Reports[id]
	return rep, ok
}

// Delete removes a report. Only the submitter may delete their own report
// unless the requester is elevated. Returns false when the report does not
// exist or the requester lacks permission.
func (r *Registry) Delete(id, requester string, elevated bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, ok := r.d.Reports[id]
	if !ok {
		return false, nil
	}
	if !elevated && rep.SubmitterID != requester {
		return false, nil
	}

	r.removeLocked(id)
	return true, r.commitLocked()
}

// Amend updates a report's fields and moves it to the front of the recency
// list. Same permission rule as Delete.
func (r *Registry) Amend(id, requester string, elevated bool, fields Fields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, ok := r.d.Reports[id]
	if !ok {
		return false, nil
	}
	if !elevated && rep.SubmitterID != requester {
		return false, nil
	}

	if fields.Seat != "" {
		rep.Seat = fields.Seat
	}
	if fields.Price != 0 {
		rep.Price = fields.Price
	}
	if fields.ListPrice != 0 {
		rep.ListPrice = fields.ListPrice
	}
	if fields.Category != "" {
		rep.Category = fields.Category
	}
	if fields.Description != "" {
		rep.Description = fields.Description
	}
	if fields.ImageRef != "" {
		rep.ImageRef = fields.ImageRef
	}
	r.d.Reports[id] = rep
	r.touchLocked(id, rep.EventID)

	return true, r.commitLocked()
}

// FlagError records an error reason against a report. Repeat flags from
// the same reporter accumulate reasons but count once. The third distinct
// reporter evicts the report; deleted reports whose count is returned as
// zero were simply not found.
func (r *Registry) FlagError(id, reporter, reason string) (count int, deleted bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep, ok := r.d.Reports[id]
	if !ok {
		return 0, false, nil
	}

	if rep.Errors == nil {
		rep.Errors = make(map[string][]string)
	}
	rep.Errors[reporter] = append(rep.Errors[reporter], reason)
	r.d.Reports[id] = rep

	count = rep.ErrorReporters()
	if count >= errorReporterThreshold {
		r.removeLocked(id)
		return count, true, r.commitLocked()
	}
	return count, false, r.commitLocked()
}

// Recent returns the recency list, most recent first.
func (r *Registry) Recent() []RecentEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RecentEntry, len(r.d.Recent))
	copy(out, r.d.Recent)
	return out
}

// touchLocked moves (id, eventID) to the front of the recency list,
// evicting the oldest entry past capacity.
func (r *Registry) touchLocked(id, eventID string) {
	entries := r.d.Recent[:0:0]
	entries = append(entries, RecentEntry{ReportID: id, EventID: eventID})
	for _, e := range r.d.Recent {
		if e.ReportID != id {
			entries = append(entries, e)
		}
	}
	if len(entries) > recentCapacity {
		entries = entries[:recentCapacity]
	}
	r.d.Recent = entries
}

func (r *Registry) removeLocked(id string) {
	delete(r.d.Reports, id)
	for i, e := range r.d.Recent {
		if e.ReportID == id {
			r.d.Recent = append(r.d.Recent[:i], r.d.Recent[i+1:]...)
			break
		}
	}
}

func (r *Registry) resolveEvent(title string) string {
	if r.aliases == nil {
		return ""
	}
	if id, ok := r.aliases.ResolveByAlias(title); ok {
		return id
	}
	if id, ok := r.aliases.MatchName(title); ok {
		return id
	}
	return ""
}

func (r *Registry) commitLocked() error {
	if err := r.doc.Commit(r.d); err != nil {
		return fmt.Errorf("persist report registry: %w", err)
	}
	return nil
}
