// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package notify turns diff results into subscriber-facing text and
// delivers it according to per-destination notification levels.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/stagewatch/stagewatch/internal/diff"
	"github.com/stagewatch/stagewatch/internal/metrics"
	"github.com/stagewatch/stagewatch/internal/models"
)

// Category classifies the content of a notification block.
type Category string

const (
	CategoryNew      Category = "new"
	CategoryRestock  Category = "restock"
	CategoryReturn   Category = "return"
	CategoryUpcoming Category = "upcoming"
	CategoryQuantity Category = "quantity"
)

// categoryLevels maps each category to the minimum notification level that
// receives it. Levels: 0 none, 1 releases/restocks/upcoming, 2 also ticket
// returns, 3 any quantity movement.
var categoryLevels = map[Category]int{
	CategoryNew:      1,
	CategoryRestock:  1,
	CategoryUpcoming: 1,
	CategoryReturn:   2,
	CategoryQuantity: 3,
}

// Section is one category's part of a block: the heading plus its lines,
// newline separated, no trailing newline.
type Section struct {
	Category Category
	Text     string
}

// Block is one event's notice. A destination receives the header plus the
// sections its level covers; sections above the level are withheld.
type Block struct {
	EventID    string
	Title      string
	Header     string
	Text       string // full render, every section included
	Sections   []Section
	Categories []Category
}

// MinLevel returns the lowest destination level that receives any part of
// this block.
func (b *Block) MinLevel() int {
	min := 0
	for _, c := range b.Categories {
		lvl := categoryLevels[c]
		if min == 0 || lvl < min {
			min = lvl
		}
	}
	return min
}

// Render returns the text a destination at level receives from this
// block: the header plus only the sections the level covers. An empty
// string means the block is withheld entirely.
func (b *Block) Render(level int) string {
	var parts []string
	for _, s := range b.Sections {
		if lvl := categoryLevels[s.Category]; lvl > 0 && level >= lvl {
			parts = append(parts, s.Text)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	if b.Header == "" {
		return strings.Join(parts, "\n")
	}
	return b.Header + "\n" + strings.Join(parts, "\n")
}

// Result is the composed output of one cycle.
type Result struct {
	Changed     bool
	Blocks      []Block
	HasUpcoming bool
}

// Composer formats notification blocks. Cast lookup is keyed by ticket id.
type Composer struct{}

// Compose builds one block per changed event, in snapshot order. diffs is
// keyed by event id, casts by ticket id, pendingTexts by event id. lastSeen
// is the previous snapshot's update time, shown in each block header.
func (c *Composer) Compose(snap *models.Snapshot, diffs map[string]diff.Result, casts map[string]models.CastEntry, pendingTexts map[string][]string, lastSeen time.Time) Result {
	var res Result

	for i := range snap.Events {
		ev := &snap.Events[i]
		d, ok := diffs[ev.ID]
		upcoming := pendingTexts[ev.ID]
		if (!ok || !d.Changed()) && len(upcoming) == 0 {
			continue
		}

		block := composeBlock(ev, d, casts, upcoming, lastSeen)
		if len(block.Categories) == 0 {
			continue
		}
		if containsCategory(block.Categories, CategoryUpcoming) {
			res.HasUpcoming = true
		}
		res.Blocks = append(res.Blocks, block)
	}

	res.Changed = len(res.Blocks) > 0
	return res
}

func composeBlock(ev *models.Event, d diff.Result, casts map[string]models.CastEntry, upcoming []string, lastSeen time.Time) Block {
	block := Block{EventID: ev.ID, Title: ev.Title}

	var h strings.Builder
	fmt.Fprintf(&h, "%s\n", ev.Title)
	fmt.Fprintf(&h, "runs until %s", ev.EndTime.Format("2006-01-02"))
	if !lastSeen.IsZero() {
		fmt.Fprintf(&h, "\nlast checked %s", lastSeen.Format("2006-01-02 15:04"))
	}
	block.Header = h.String()

	ticketSections := []struct {
		heading    string
		category   Category
		transition models.Transition
		tickets    []models.Ticket
	}{
		{"NEW", CategoryNew, models.TransitionNew, d.Immediate},
		{"RESTOCK", CategoryRestock, models.TransitionAdd, d.Immediate},
		{"RETURN", CategoryReturn, models.TransitionReturn, d.Immediate},
		{"QUANTITY", CategoryQuantity, models.TransitionNone, d.Quantity},
	}

	addSection := func(category Category, heading string, lines []string) {
		block.Sections = append(block.Sections, Section{
			Category: category,
			Text:     heading + "\n" + strings.Join(lines, "\n"),
		})
		block.Categories = append(block.Categories, category)
		metrics.NoticesComposed.WithLabelValues(string(category)).Inc()
	}

	for _, s := range ticketSections {
		// UPCOMING sits between RETURN and QUANTITY in the rendered order.
		if s.category == CategoryQuantity && len(upcoming) > 0 {
			addSection(CategoryUpcoming, "UPCOMING", upcoming)
		}
		if lines := ticketLines(s.tickets, s.transition, casts); len(lines) > 0 {
			addSection(s.category, s.heading, lines)
		}
	}

	block.Text = block.Render(MaxLevel)
	return block
}

// ticketLines formats the tickets matching one transition, preserving
// input order.
func ticketLines(tickets []models.Ticket, transition models.Transition, casts map[string]models.CastEntry) []string {
	var lines []string
	for _, t := range tickets {
		if t.Transition != transition {
			continue
		}
		lines = append(lines, ticketLine(&t, casts))
	}
	return lines
}

func ticketLine(t *models.Ticket, casts map[string]models.CastEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s %.2f %d/%d", t.Title, t.Price, t.Remain(), t.Total())
	if t.SoldOut() {
		b.WriteString(" [sold out]")
	}
	if t.City != "" {
		fmt.Fprintf(&b, " @%s", t.City)
	}
	if entry, ok := casts[t.ID]; ok && len(entry.Cast) > 0 {
		artists := make([]string, 0, len(entry.Cast))
		for _, m := range entry.Cast {
			artists = append(artists, m.Artist)
		}
		fmt.Fprintf(&b, " %s", strings.Join(artists, " "))
	}
	return b.String()
}

func containsCategory(cats []Category, want Category) bool {
	for _, c := range cats {
		if c == want {
			return true
		}
	}
	return false
}
