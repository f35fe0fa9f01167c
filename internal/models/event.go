// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package models

import "time"

// TicketStatus is the sale state of a ticket as reported by the platform.
type TicketStatus string

// Ticket sale states.
const (
	TicketStatusActive  TicketStatus = "active"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusExpired TicketStatus = "expired"
)

// Transition classifies how a ticket changed between two snapshots.
// Assigned by the diff engine; valid for the current cycle only.
type Transition string

// Ticket transitions.
const (
	TransitionNone   Transition = ""
	TransitionNew    Transition = "new"
	TransitionAdd    Transition = "add"
	TransitionReturn Transition = "return"
)

// Ticket is one sellable session/category within an event, not a physical
// seat. TotalCount and RemainCount are pointers because the platform omits
// them for some listings; a nil count compares as zero.
type Ticket struct {
	ID            string       `json:"id"`
	EventID       string       `json:"event_id"`
	Title         string       `json:"title"`
	StartTime     time.Time    `json:"start_time"`
	EndTime       time.Time    `json:"end_time"`
	Status        TicketStatus `json:"status"`
	Price         float64      `json:"price"`
	TotalCount    *int         `json:"total_count,omitempty"`
	RemainCount   *int         `json:"remain_count,omitempty"`
	DaysRemaining int          `json:"days_remaining"`
	SaleStartAt   *time.Time   `json:"sale_start_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	City          string       `json:"city,omitempty"`

	// Transition and PendingRelease are computed per cycle by the diff
	// engine and never persisted.
	Transition     Transition `json:"-"`
	PendingRelease bool       `json:"-"`
}

// Total returns the total capacity, treating an unset count as zero.
func (t *Ticket) Total() int {
	if t.TotalCount == nil {
		return 0
	}
	return *t.TotalCount
}

// Remain returns the remaining count, treating an unset count as zero.
func (t *Ticket) Remain() int {
	if t.RemainCount == nil {
		return 0
	}
	return *t.RemainCount
}

// SoldOut reports whether the ticket has capacity but nothing left.
func (t *Ticket) SoldOut() bool {
	return t.Total() > 0 && t.Remain() == 0
}

// Event is a live performance with one or more sellable ticket types.
// Owned by the snapshot store and replaced wholesale each fetch cycle.
type Event struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Venue     string    `json:"venue"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	UpdatedAt time.Time `json:"updated_at"`
	Deadline  time.Time `json:"deadline"`
	CreatedAt time.Time `json:"created_at"`
	Tickets   []Ticket  `json:"tickets"`
}

// Ticket returns the ticket with the given id, or nil.
func (e *Event) Ticket(id string) *Ticket {
	for i := range e.Tickets {
		if e.Tickets[i].ID == id {
			return &e.Tickets[i]
		}
	}
	return nil
}

// NormalizeTickets drops malformed tickets (both counts unset) and stamps
// the owning event id on the survivors. Order is preserved.
func NormalizeTickets(eventID string, tickets []Ticket) []Ticket {
	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.TotalCount == nil && t.RemainCount == nil {
			continue
		}
		t.EventID = eventID
		out = append(out, t)
	}
	return out
}

// Snapshot is the full persisted state of all tracked events and tickets as
// of the last successful fetch cycle. Events keep event-list order.
type Snapshot struct {
	Version     int       `json:"version"`
	Events      []Event   `json:"events"`
	UpdatedAt   time.Time `json:"updated_at"`
	PrevUpdated time.Time `json:"prev_updated_at"`
}

// SnapshotVersion is the current snapshot document schema version.
const SnapshotVersion = 1

// Event returns the event with the given id, or nil.
func (s *Snapshot) Event(id string) *Event {
	for i := range s.Events {
		if s.Events[i].ID == id {
			return &s.Events[i]
		}
	}
	return nil
}
