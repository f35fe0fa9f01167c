// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package api

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var validate = validator.New()

// SubscriptionRequest is the body of PUT /subscriptions/{dest}.
// Level 0 mutes the destination, 3 receives every quantity movement.
type SubscriptionRequest struct {
	Level int `json:"level" validate:"min=0,max=3"`
}

// CreateReportRequest is the body of POST /reports.
type CreateReportRequest struct {
	SubmitterID string  `json:"submitter_id" validate:"required,max=128"`
	EventTitle  string  `json:"event_title" validate:"required,max=256"`
	Seat        string  `json:"seat" validate:"max=128"`
	Price       float64 `json:"price" validate:"min=0"`
	ListPrice   float64 `json:"list_price" validate:"min=0"`
	Category    string  `json:"category" validate:"max=64"`
	Description string  `json:"description" validate:"max=1000"`
	ImageRef    string  `json:"image_ref" validate:"max=256"`
}

// AmendReportRequest is the body of PATCH /reports/{id}. Empty fields
// leave the stored values untouched.
type AmendReportRequest struct {
	RequesterID string  `json:"requester_id" validate:"required,max=128"`
	Elevated    bool    `json:"elevated"`
	Seat        string  `json:"seat" validate:"max=128"`
	Price       float64 `json:"price" validate:"min=0"`
	ListPrice   float64 `json:"list_price" validate:"min=0"`
	Category    string  `json:"category" validate:"max=64"`
	Description string  `json:"description" validate:"max=1000"`
	ImageRef    string  `json:"image_ref" validate:"max=256"`
}

// AliasRequest is the body of PUT /aliases/{event}. At least one of the
// two fields must be set; both may be.
type AliasRequest struct {
	Alias      string `json:"alias" validate:"max=128"`
	SearchName string `json:"search_name" validate:"max=256"`
}

// DeleteReportRequest is the body of DELETE /reports/{id}.
type DeleteReportRequest struct {
	RequesterID string `json:"requester_id" validate:"required,max=128"`
	Elevated    bool   `json:"elevated"`
}

// FlagErrorRequest is the body of POST /reports/{id}/errors.
type FlagErrorRequest struct {
	ReporterID string `json:"reporter_id" validate:"required,max=128"`
	Reason     string `json:"reason" validate:"required,max=500"`
}

// decodeAndValidate parses the request body into dst and runs the
// validator tags over it.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validate body: %w", err)
	}
	return nil
}
