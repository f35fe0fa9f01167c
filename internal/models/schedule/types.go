// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package schedule holds the wire types of the secondary schedule-lookup
// service: per-date lists of show entries with cast rosters. The enrich
// package queries it by title, datetime, and optional city on top of a
// per-date cache.
package schedule

// CastPair is one (role, artist) entry of a show's cast array.
type CastPair struct {
	Role   string `json:"role"`
	Artist string `json:"artist"`
}

// ShowEntry is one show of a date's schedule.
type ShowEntry struct {
	Title string     `json:"musical_name"`
	City  string     `json:"city"`
	Venue string     `json:"venue"`
	Time  string     `json:"time"`
	Cast  []CastPair `json:"cast"`
}

// DayResponse is the payload of the by-date schedule endpoint.
type DayResponse struct {
	Code  int         `json:"code"`
	Shows []ShowEntry `json:"data"`
}
