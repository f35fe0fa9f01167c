// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package models

// CastMember is one (role, artist) pair from the schedule-lookup service.
type CastMember struct {
	Role   string `json:"role"`
	Artist string `json:"artist"`
}

// CastEntry is the permanently cached enrichment result for one ticket.
// Only non-empty casts are cached; an empty lookup is retried next cycle.
type CastEntry struct {
	EventID string       `json:"event_id"`
	Cast    []CastMember `json:"cast"`
}
