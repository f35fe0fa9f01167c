// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package models

import "time"

// Report is one crowd-submitted seat listing for an event. Error reports
// from other users accumulate in Errors keyed by reporter id; the registry
// evicts the report once three distinct reporters have flagged it.
type Report struct {
	ID          string              `json:"id"`
	EventID     string              `json:"event_id"`
	EventTitle  string              `json:"event_title"`
	SubmitterID string              `json:"submitter_id"`
	Seat        string              `json:"seat"`
	Price       float64             `json:"price"`
	ListPrice   float64             `json:"list_price"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	ImageRef    string              `json:"image_ref,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	Errors      map[string][]string `json:"errors,omitempty"`
}

// ErrorReporters returns the number of distinct users that flagged the report.
func (r *Report) ErrorReporters() int {
	return len(r.Errors)
}
