// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package alias

import (
	"fmt"
	"sort"

	"github.com/stagewatch/stagewatch/internal/store"
)

// migrate upgrades an alias document to the current schema version.
//
// Version 1 was a bare alias-to-event map with no envelope; it decodes into
// the v2 struct as an empty document with Version 0, so a fresh install and
// a legacy file look the same until the raw shape is probed. The migration
// runs once at load time; runtime code never branches on document shape.
func migrate(path string, d Document) (Document, error) {
	out := emptyDocument()

	if d.Version == 0 {
		legacy, err := loadLegacy(path)
		if err != nil {
			return out, err
		}
		// Legacy maps carry no insertion order; sort aliases for a
		// stable reverse index.
		ids := make(map[string][]string)
		for aliasKey, eventID := range legacy {
			key := Normalize(aliasKey)
			out.AliasToEvent[key] = eventID
			ids[eventID] = append(ids[eventID], key)
		}
		for eventID, aliases := range ids {
			sort.Strings(aliases)
			out.EventAliases[eventID] = aliases
		}
		return out, nil
	}

	return out, fmt.Errorf("unknown alias document version %d", d.Version)
}

func loadLegacy(path string) (map[string]string, error) {
	raw := store.NewDocument[map[string]string](path)
	legacy, err := raw.Load()
	if err != nil {
		// A v1 file is a flat string map; anything else is corrupt.
		return nil, fmt.Errorf("decode legacy alias map: %w", err)
	}
	return legacy, nil
}
