// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package diff classifies per-ticket transitions between the stored
// snapshot and a freshly fetched one.
//
// Classification rules, applied per ticket id against the prior record:
//
//  1. no prior record                      -> new
//  2. prior total 0 (or unset), total > 0  -> new
//  3. total grew                           -> add (restock)
//  4. remaining was 0, now > 0             -> return
//  5. otherwise                            -> no tag
//
// Untagged tickets whose remaining count still moved are collected
// separately so the highest notification level can observe them.
//
// Tickets whose status is pending and which received any tag, and "new"
// tickets with zero total and zero remaining (announced but not on sale),
// divert to the pending-release path instead of the immediate-notice path.
package diff

import "github.com/stagewatch/stagewatch/internal/models"

// Result is the per-event diff output. Slices keep the input ticket order.
// All empty means the event is skipped for this cycle.
type Result struct {
	// Immediate holds tagged tickets routed to the immediate-notice path.
	Immediate []models.Ticket

	// Pending holds tagged tickets diverted to the pending-release path.
	Pending []models.Ticket

	// Quantity holds untagged tickets whose remaining count moved. Only
	// subscribers at the highest notification level see these.
	Quantity []models.Ticket
}

// Changed reports whether any ticket changed observably.
func (r *Result) Changed() bool {
	return len(r.Immediate) > 0 || len(r.Pending) > 0 || len(r.Quantity) > 0
}

// Tagged reports whether any ticket received a transition tag.
func (r *Result) Tagged() bool {
	return len(r.Immediate) > 0 || len(r.Pending) > 0
}

// Classify compares an event's stored tickets against the freshly fetched
// ones and annotates each fetched ticket with its transition. Running it
// twice over identical snapshots tags nothing the second time because every
// rule requires an observable difference.
func Classify(old, fresh []models.Ticket) Result {
	index := make(map[string]*models.Ticket, len(old))
	for i := range old {
		index[old[i].ID] = &old[i]
	}

	var res Result
	for _, t := range fresh {
		old := index[t.ID]
		t.Transition = classifyOne(old, &t)
		if t.Transition == models.TransitionNone {
			if old != nil && old.Remain() != t.Remain() {
				res.Quantity = append(res.Quantity, t)
			}
			continue
		}
		if isPending(&t) {
			t.PendingRelease = true
			res.Pending = append(res.Pending, t)
			continue
		}
		res.Immediate = append(res.Immediate, t)
	}
	return res
}

func classifyOne(old, fresh *models.Ticket) models.Transition {
	if old == nil {
		return models.TransitionNew
	}
	if old.Total() == 0 && fresh.Total() > 0 {
		return models.TransitionNew
	}
	if fresh.Total() > old.Total() {
		return models.TransitionAdd
	}
	if old.Remain() == 0 && fresh.Remain() > 0 {
		return models.TransitionReturn
	}
	return models.TransitionNone
}

// isPending implements the pending sub-classification. The zero-capacity
// "new" case mirrors upstream API behavior where announced-but-unsized
// tickets surface before sale opens; see the project design notes before
// changing it.
func isPending(t *models.Ticket) bool {
	if t.Status == models.TicketStatusPending {
		return true
	}
	return t.Transition == models.TransitionNew && t.Total() == 0 && t.Remain() == 0
}
