// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package main is the entry point for the Stagewatch server.
//
// Stagewatch watches a ticket-booking platform for inventory changes:
// new releases, restocks, returned seats, and announced-but-unsold
// batches. Each observation cycle fetches a full snapshot, diffs it
// against the stored one, enriches changed tickets with cast and city
// from a schedule-lookup service, and fans composed notices out to
// subscribed destinations by notification level.
//
// # Startup order
//
//  1. Configuration (koanf v2: defaults, config file, environment)
//  2. Persistent state documents under STATE_DIR
//  3. Platform client behind a circuit breaker
//  4. Schedule client with badger day cache and rate limiter
//  5. Watch manager and admin API under the supervisor tree
//
// # Configuration
//
// Environment variables override the config file which overrides
// defaults. The required settings are PLATFORM_URL and PLATFORM_TOKEN;
// SCHEDULE_URL enables enrichment. See internal/config for the full
// mapping table.
//
// # Signal handling
//
// SIGINT and SIGTERM stop the poll loop, drain in-flight API requests,
// and close the day cache before exit.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/stagewatch/stagewatch/internal/alias"
	"github.com/stagewatch/stagewatch/internal/api"
	"github.com/stagewatch/stagewatch/internal/config"
	"github.com/stagewatch/stagewatch/internal/enrich"
	"github.com/stagewatch/stagewatch/internal/fetch"
	"github.com/stagewatch/stagewatch/internal/logging"
	"github.com/stagewatch/stagewatch/internal/notify"
	"github.com/stagewatch/stagewatch/internal/pending"
	"github.com/stagewatch/stagewatch/internal/report"
	"github.com/stagewatch/stagewatch/internal/store"
	"github.com/stagewatch/stagewatch/internal/supervisor"
	"github.com/stagewatch/stagewatch/internal/watch"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Str("platform_url", cfg.Platform.URL).
		Str("state_dir", cfg.State.Dir).
		Dur("interval", cfg.Watch.Interval).
		Msg("Starting Stagewatch")

	if err := os.MkdirAll(cfg.State.Dir, 0o750); err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.State.Dir).Msg("Failed to create state directory")
	}

	aliases, err := alias.NewResolver(cfg.State.AliasPath())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load alias store")
	}
	snapshots := store.NewSnapshotStore(cfg.State.SnapshotPath())

	fetcher := fetch.NewFetcher(fetch.NewBreakerClient(&cfg.Platform), &cfg.Platform, &cfg.Fetch)

	var dayCache enrich.DayCache
	badgerCache, err := enrich.OpenBadgerDayCache(cfg.Schedule.CacheDir, cfg.Schedule.CacheTTL)
	if err != nil {
		logging.Warn().Err(err).Msg("Day cache unavailable, using in-memory cache")
		dayCache = enrich.NewMemoryDayCache(cfg.Schedule.CacheTTL)
	} else {
		dayCache = badgerCache
		defer func() {
			if err := badgerCache.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing day cache")
			}
		}()
	}

	var enricher watch.CastResolver
	if cfg.Schedule.URL != "" {
		resolver, err := enrich.NewResolver(cfg.State.CastCachePath(), enrich.NewScheduleClient(&cfg.Schedule, dayCache), aliases)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to load cast cache")
		}
		enricher = resolver
	} else {
		logging.Info().Msg("Schedule lookup disabled (SCHEDULE_URL unset) - notices carry no cast details")
	}

	grouper, err := pending.NewGrouper(cfg.State.PendingPath())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load pending buckets")
	}
	prefs, err := notify.NewPreferences(cfg.State.SubscriptionsPath(), cfg.Notify.DefaultLevel)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load subscription preferences")
	}
	reports, err := report.NewRegistry(cfg.State.ReportsPath(), aliases)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load report registry")
	}

	var notifier notify.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.WebhookTimeout)
	} else {
		logging.Info().Msg("No webhook configured - notices go to the log")
		notifier = notify.LogNotifier{}
	}

	manager := watch.NewManager(fetcher, snapshots, enricher, grouper, prefs, notifier, cfg.Watch.Interval)
	router := api.NewRouter(manager, prefs, reports, grouper, aliases, cfg.Server.RateLimitReqs)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddWatchService(watch.NewService(manager))
	tree.AddAPIService(api.NewServer(&cfg.Server, router.Setup()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Fatal().Err(err).Msg("Supervisor tree failed")
	}
	logging.Info().Msg("Stagewatch stopped")
}
