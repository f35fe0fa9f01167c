// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package platform holds the wire types of the external booking-platform
// API. Stagewatch owns no guarantees about this format; the fields below are
// the ones the pipeline consumes. Timestamps come as Unix seconds and ticket
// status as a numeric code, both mapped to domain types by internal/fetch.
package platform

// Ticket status codes used by the platform.
const (
	StatusActive  = 1
	StatusPending = 2
	StatusExpired = 3
)

// BaseResponse is the envelope every platform endpoint returns. Code 0
// marks success; any other code, or a body that fails to decode, is treated
// as a malformed response by the fetch layer and retried.
type BaseResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OK reports whether the envelope carries the success marker.
func (r *BaseResponse) OK() bool {
	return r.Code == 0
}

// ErrorCode returns the platform status code.
func (r *BaseResponse) ErrorCode() int { return r.Code }

// ErrorMessage returns the platform status message.
func (r *BaseResponse) ErrorMessage() string { return r.Message }

// Envelope is satisfied by every response type that embeds BaseResponse.
// The fetch layer uses it to validate responses generically.
type Envelope interface {
	OK() bool
	ErrorCode() int
	ErrorMessage() string
}

// EventBasic is one entry of the event-list endpoint.
type EventBasic struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Location string   `json:"location"`
	StartAt  int64    `json:"start_time"`
	EndAt    int64    `json:"end_time"`
	Tags     []string `json:"tags"`
	TimeMark int      `json:"is_time_mark"`
}

// EventListResponse is the payload of the event-list endpoint.
type EventListResponse struct {
	BaseResponse
	Data struct {
		Count  int          `json:"count"`
		Events []EventBasic `json:"result"`
	} `json:"data"`
}

// TicketDetail is one ticket row of the event-detail endpoint. Amount and
// Remainder are pointers because the platform omits them for listings that
// have not been sized yet.
type TicketDetail struct {
	ID          string  `json:"id"`
	EventID     string  `json:"event_id"`
	Title       string  `json:"title"`
	StartAt     int64   `json:"start_time"`
	EndAt       int64   `json:"end_time"`
	Status      int     `json:"status"`
	CreatedAt   int64   `json:"create_time"`
	Price       float64 `json:"price"`
	Amount      *int    `json:"amount,omitempty"`
	Remainder   *int    `json:"remainder,omitempty"`
	RemainDays  int     `json:"remain_days"`
	SaleStartAt *int64  `json:"start_sale_time,omitempty"`
}

// EventDetailResponse is the payload of the event-detail endpoint.
type EventDetailResponse struct {
	BaseResponse
	Data struct {
		Event     EventBasic     `json:"event"`
		Venue     string         `json:"venue_name"`
		UpdatedAt int64          `json:"update_time"`
		Deadline  int64          `json:"deadline"`
		CreatedAt int64          `json:"create_time"`
		Tickets   []TicketDetail `json:"ticket_detail_list"`
	} `json:"data"`
}
