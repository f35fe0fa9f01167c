// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stagewatch/stagewatch/internal/diff"
	"github.com/stagewatch/stagewatch/internal/models"
)

func intPtr(v int) *int { return &v }

func taggedTicket(id, title string, tr models.Transition, total, remain int) models.Ticket {
	return models.Ticket{
		ID:          id,
		Title:       title,
		Transition:  tr,
		TotalCount:  intPtr(total),
		RemainCount: intPtr(remain),
		Price:       280,
	}
}

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{Events: []models.Event{{
		ID:      "500",
		Title:   "Phantom",
		EndTime: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}}}
}

func TestComposeSectionOrder(t *testing.T) {
	diffs := map[string]diff.Result{"500": {
		Immediate: []models.Ticket{
			taggedTicket("t3", "Return Seat", models.TransitionReturn, 10, 1),
			taggedTicket("t1", "New Seat", models.TransitionNew, 10, 10),
			taggedTicket("t2", "Restocked Seat", models.TransitionAdd, 20, 10),
		},
	}}
	pendingTexts := map[string][]string{"500": {"Phantom\non sale 2025-08-01 12:00\n[0042]"}}

	var c Composer
	res := c.Compose(testSnapshot(), diffs, nil, pendingTexts, time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))

	if !res.Changed || len(res.Blocks) != 1 {
		t.Fatalf("res = %+v", res)
	}
	if !res.HasUpcoming {
		t.Error("HasUpcoming should be set")
	}

	text := res.Blocks[0].Text
	order := []string{"Phantom", "runs until 2025-12-31", "last checked 2025-07-01 12:00", "NEW", "New Seat", "RESTOCK", "Restocked Seat", "RETURN", "Return Seat", "UPCOMING", "[0042]"}
	pos := -1
	for _, want := range order {
		idx := strings.Index(text, want)
		if idx < 0 {
			t.Fatalf("%q missing from block:\n%s", want, text)
		}
		if idx < pos {
			t.Errorf("%q out of order in block:\n%s", want, text)
		}
		pos = idx
	}

	wantCats := []Category{CategoryNew, CategoryRestock, CategoryReturn, CategoryUpcoming}
	if len(res.Blocks[0].Categories) != len(wantCats) {
		t.Fatalf("categories = %v, want %v", res.Blocks[0].Categories, wantCats)
	}
	for i, c := range wantCats {
		if res.Blocks[0].Categories[i] != c {
			t.Errorf("category %d = %v, want %v", i, res.Blocks[0].Categories[i], c)
		}
	}
}

func TestComposeSoldOutMarkerAndCast(t *testing.T) {
	diffs := map[string]diff.Result{"500": {
		Immediate: []models.Ticket{taggedTicket("t1", "VIP", models.TransitionNew, 10, 0)},
	}}
	casts := map[string]models.CastEntry{"t1": {
		EventID: "500",
		Cast: []models.CastMember{
			{Role: "Phantom", Artist: "Zhang San"},
			{Role: "Christine", Artist: "Li Si"},
		},
	}}

	var c Composer
	res := c.Compose(testSnapshot(), diffs, casts, nil, time.Time{})

	text := res.Blocks[0].Text
	if !strings.Contains(text, "[sold out]") {
		t.Errorf("sold-out marker missing:\n%s", text)
	}
	if !strings.Contains(text, "Zhang San Li Si") {
		t.Errorf("cast not space-joined:\n%s", text)
	}
	if strings.Contains(text, "last checked") {
		t.Errorf("zero lastSeen should omit the checked line:\n%s", text)
	}
}

func TestComposeSkipsUnchangedEvents(t *testing.T) {
	var c Composer
	res := c.Compose(testSnapshot(), nil, nil, nil, time.Time{})
	if res.Changed || len(res.Blocks) != 0 {
		t.Errorf("unchanged snapshot composed %+v", res)
	}
}

func TestComposeQuantityOnlyBlock(t *testing.T) {
	diffs := map[string]diff.Result{"500": {
		Quantity: []models.Ticket{taggedTicket("t1", "VIP", models.TransitionNone, 10, 3)},
	}}

	var c Composer
	res := c.Compose(testSnapshot(), diffs, nil, nil, time.Time{})

	if len(res.Blocks) != 1 {
		t.Fatalf("blocks = %+v", res.Blocks)
	}
	block := res.Blocks[0]
	if len(block.Categories) != 1 || block.Categories[0] != CategoryQuantity {
		t.Errorf("categories = %v, want quantity only", block.Categories)
	}
	if block.MinLevel() != 3 {
		t.Errorf("MinLevel = %d, want 3", block.MinLevel())
	}
	if got := block.Render(2); got != "" {
		t.Errorf("level 2 should see nothing of a quantity-only block, got %q", got)
	}
	if got := block.Render(3); !strings.Contains(got, "QUANTITY") {
		t.Errorf("level 3 render = %q", got)
	}
}

func TestBlockMinLevel(t *testing.T) {
	cases := []struct {
		cats []Category
		want int
	}{
		{[]Category{CategoryNew}, 1},
		{[]Category{CategoryReturn}, 2},
		{[]Category{CategoryReturn, CategoryUpcoming}, 1},
		{[]Category{CategoryQuantity}, 3},
		{nil, 0},
	}
	for _, tc := range cases {
		b := Block{Categories: tc.cats}
		if got := b.MinLevel(); got != tc.want {
			t.Errorf("MinLevel(%v) = %d, want %d", tc.cats, got, tc.want)
		}
	}
}
