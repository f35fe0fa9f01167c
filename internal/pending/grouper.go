// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package pending groups announced-but-not-yet-on-sale tickets into
// release buckets keyed by short ids that subscribers can quote back.
package pending

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stagewatch/stagewatch/internal/models"
	"github.com/stagewatch/stagewatch/internal/store"
)

// Bucket is one pending release: every ticket of an event that opens sale
// at the same announced time. Buckets live until a caller removes them;
// there is no automatic expiry.
type Bucket struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	EventTitle string     `json:"event_title"`
	ReleaseAt  *time.Time `json:"release_at,omitempty"`
	Text       string     `json:"text"`
	TicketIDs  []string   `json:"ticket_ids"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Grouper creates and tracks release buckets. Persisted as a document so
// quoted bucket ids survive restarts.
type Grouper struct {
	mu      sync.Mutex
	doc     *store.Document[map[string]Bucket]
	buckets map[string]Bucket
	idFn    func() int
}

// NewGrouper loads the bucket document from path.
func NewGrouper(path string) (*Grouper, error) {
	doc := store.NewDocument[map[string]Bucket](path)
	buckets, err := doc.Load()
	if err != nil {
		return nil, fmt.Errorf("load pending buckets: %w", err)
	}
	if buckets == nil {
		buckets = make(map[string]Bucket)
	}
	return &Grouper{
		doc:     doc,
		buckets: buckets,
		idFn:    func() int { return rand.IntN(10000) },
	}, nil
}

// Group buckets an event's pending tickets by announced release time.
// Tickets without one share a single "time to be announced" bucket. The
// composed texts are numbered when more than one bucket results.
func (g *Grouper) Group(eventID, eventTitle string, tickets []models.Ticket) ([]Bucket, error) {
	if len(tickets) == 0 {
		return nil, nil
	}

	type group struct {
		releaseAt *time.Time
		tickets   []models.Ticket
	}
	groups := make(map[int64]*group)
	for _, t := range tickets {
		key := int64(-1) // shared bucket for unannounced times
		if t.SaleStartAt != nil {
			key = t.SaleStartAt.Unix()
		}
		if groups[key] == nil {
			groups[key] = &group{releaseAt: t.SaleStartAt}
		}
		groups[key].tickets = append(groups[key].tickets, t)
	}

	keys := make([]int64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	// Earliest release first, unannounced last.
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == -1 {
			return false
		}
		if keys[j] == -1 {
			return true
		}
		return keys[i] < keys[j]
	})

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Bucket, 0, len(keys))
	for i, k := range keys {
		grp := groups[k]
		b := Bucket{
			ID:         g.newIDLocked(),
			EventID:    eventID,
			EventTitle: eventTitle,
			ReleaseAt:  grp.releaseAt,
			CreatedAt:  time.Now().UTC(),
		}
		for _, t := range grp.tickets {
			b.TicketIDs = append(b.TicketIDs, t.ID)
		}
		b.Text = composeText(i+1, len(keys) > 1, eventTitle, grp.releaseAt, grp.tickets, b.ID)

		g.buckets[b.ID] = b
		out = append(out, b)
	}

	if err := g.commitLocked(); err != nil {
		return nil, err
	}
	return out, nil
}

// newIDLocked draws a 4-digit id not used by any live bucket.
func (g *Grouper) newIDLocked() string {
	for {
		id := fmt.Sprintf("%04d", g.idFn())
		if _, taken := g.buckets[id]; !taken {
			return id
		}
	}
}

func composeText(ordinal int, numbered bool, title string, releaseAt *time.Time, tickets []models.Ticket, id string) string {
	var b strings.Builder

	if numbered {
		fmt.Fprintf(&b, "%d. %s\n", ordinal, title)
	} else {
		fmt.Fprintf(&b, "%s\n", title)
	}

	if releaseAt != nil {
		fmt.Fprintf(&b, "on sale %s\n", releaseAt.Format("2006-01-02 15:04"))
	} else {
		b.WriteString("on-sale time to be announced\n")
	}

	for _, t := range tickets {
		fmt.Fprintf(&b, "- %s %.2f\n", t.Title, t.Price)
	}
	fmt.Fprintf(&b, "[%s]", id)
	return b.String()
}

// Live returns all tracked buckets, earliest release first.
func (g *Grouper) Live() []Bucket {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Bucket, 0, len(g.buckets))
	for _, b := range g.buckets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReleaseAt == nil {
			return false
		}
		if out[j].ReleaseAt == nil {
			return true
		}
		return out[i].ReleaseAt.Before(*out[j].ReleaseAt)
	})
	return out
}

// Get returns the bucket for an id.
func (g *Grouper) Get(id string) (Bucket, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.buckets[id]
	return b, ok
}

// Remove drops a bucket, freeing its id for reuse.
func (g *Grouper) Remove(id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.buckets[id]; !ok {
		return false, nil
	}
	delete(g.buckets, id)
	return true, g.commitLocked()
}

func (g *Grouper) commitLocked() error {
	snapshot := make(map[string]Bucket, len(g.buckets))
	for k, v := range g.buckets {
		snapshot[k] = v
	}
	if err := g.doc.Commit(snapshot); err != nil {
		return fmt.Errorf("persist pending buckets: %w", err)
	}
	return nil
}
