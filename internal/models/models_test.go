// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package models

import (
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestTicketCountsNilSafe(t *testing.T) {
	tk := Ticket{}
	if tk.Total() != 0 || tk.Remain() != 0 {
		t.Errorf("nil counts should read as zero, got total=%d remain=%d", tk.Total(), tk.Remain())
	}

	tk.TotalCount = intPtr(10)
	tk.RemainCount = intPtr(0)
	if !tk.SoldOut() {
		t.Error("total=10 remain=0 should be sold out")
	}

	tk.RemainCount = intPtr(3)
	if tk.SoldOut() {
		t.Error("remain=3 should not be sold out")
	}
}

func TestNormalizeTicketsDropsMalformed(t *testing.T) {
	tickets := []Ticket{
		{ID: "t1", TotalCount: intPtr(5), RemainCount: intPtr(5)},
		{ID: "t2"}, // both counts unset: malformed
		{ID: "t3", RemainCount: intPtr(0)},
	}

	out := NormalizeTickets("e1", tickets)
	if len(out) != 2 {
		t.Fatalf("expected 2 tickets after normalization, got %d", len(out))
	}
	if out[0].ID != "t1" || out[1].ID != "t3" {
		t.Errorf("order not preserved: %s, %s", out[0].ID, out[1].ID)
	}
	for _, tk := range out {
		if tk.EventID != "e1" {
			t.Errorf("ticket %s missing back-reference, got %q", tk.ID, tk.EventID)
		}
	}
}

func TestSnapshotEventLookup(t *testing.T) {
	snap := Snapshot{
		Version: SnapshotVersion,
		Events: []Event{
			{ID: "100", Title: "Hamilton"},
			{ID: "200", Title: "Six"},
		},
		UpdatedAt: time.Now(),
	}

	if e := snap.Event("200"); e == nil || e.Title != "Six" {
		t.Errorf("lookup of 200 failed: %+v", e)
	}
	if e := snap.Event("999"); e != nil {
		t.Errorf("expected nil for unknown event, got %+v", e)
	}
}

func TestEventTicketLookup(t *testing.T) {
	e := Event{ID: "100", Tickets: []Ticket{{ID: "a"}, {ID: "b"}}}
	if tk := e.Ticket("b"); tk == nil || tk.ID != "b" {
		t.Errorf("ticket lookup failed: %+v", tk)
	}
	if tk := e.Ticket("z"); tk != nil {
		t.Errorf("expected nil for unknown ticket, got %+v", tk)
	}
}
