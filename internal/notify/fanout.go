// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package notify

import (
	"context"
	"strings"

	"github.com/stagewatch/stagewatch/internal/logging"
	"github.com/stagewatch/stagewatch/internal/metrics"
)

// Notifier is the delivery transport. Implementations live outside this
// module (bot front end, webhook relay).
type Notifier interface {
	Send(ctx context.Context, dest, text string) error
}

// Fanout delivers a composed result to every known destination, filtered by
// each destination's level. A failed send is logged and counted; it never
// aborts delivery to the remaining destinations.
func Fanout(ctx context.Context, prefs *Preferences, res Result, notifier Notifier) {
	if !res.Changed {
		return
	}

	for _, dest := range prefs.Destinations() {
		level, err := prefs.Level(dest)
		if err != nil {
			logging.Error().Err(err).Str("dest", dest).Msg("Failed to read notification level")
			continue
		}
		if level == 0 {
			metrics.NoticesDelivered.WithLabelValues("filtered").Inc()
			continue
		}

		var texts []string
		for _, block := range res.Blocks {
			// Each destination gets its own rendering: sections above its
			// level are withheld, not just whole blocks.
			if text := block.Render(level); text != "" {
				texts = append(texts, text)
			}
		}
		if len(texts) == 0 {
			metrics.NoticesDelivered.WithLabelValues("filtered").Inc()
			continue
		}

		if err := notifier.Send(ctx, dest, strings.Join(texts, "\n\n")); err != nil {
			metrics.NoticesDelivered.WithLabelValues("failed").Inc()
			logging.Error().Err(err).Str("dest", dest).Msg("Notice delivery failed")
			continue
		}
		metrics.NoticesDelivered.WithLabelValues("sent").Inc()
	}
}
