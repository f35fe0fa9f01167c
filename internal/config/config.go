// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

// Package config loads the layered Stagewatch configuration: struct
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Platform PlatformConfig `koanf:"platform"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Fetch    FetchConfig    `koanf:"fetch"`
	Watch    WatchConfig    `koanf:"watch"`
	State    StateConfig    `koanf:"state"`
	Notify   NotifyConfig   `koanf:"notify"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// PlatformConfig points at the external booking platform.
type PlatformConfig struct {
	URL        string        `koanf:"url"`
	Token      string        `koanf:"token"`
	Timeout    time.Duration `koanf:"timeout"`
	PageSize   int           `koanf:"page_size"`
	FilterTags []string      `koanf:"filter_tags"`
}

// ScheduleConfig points at the secondary schedule-lookup service.
type ScheduleConfig struct {
	URL      string        `koanf:"url"`
	Timeout  time.Duration `koanf:"timeout"`
	CacheDir string        `koanf:"cache_dir"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
	// RatePerSecond caps outgoing lookups; the lookup service is a shared
	// community resource.
	RatePerSecond float64 `koanf:"rate_per_second"`
}

// FetchConfig tunes the bounded-concurrency detail fetch.
type FetchConfig struct {
	Concurrency   int           `koanf:"concurrency"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
}

// WatchConfig tunes the polling cycle.
type WatchConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// StateConfig locates the persisted documents.
type StateConfig struct {
	Dir string `koanf:"dir"`
}

// SnapshotPath returns the snapshot document path.
func (s StateConfig) SnapshotPath() string { return filepath.Join(s.Dir, "snapshot.json") }

// AliasPath returns the alias document path.
func (s StateConfig) AliasPath() string { return filepath.Join(s.Dir, "aliases.json") }

// CastCachePath returns the cast-cache document path.
func (s StateConfig) CastCachePath() string { return filepath.Join(s.Dir, "cast_cache.json") }

// SubscriptionsPath returns the subscription-preference document path.
func (s StateConfig) SubscriptionsPath() string { return filepath.Join(s.Dir, "subscriptions.json") }

// ReportsPath returns the report-ledger document path.
func (s StateConfig) ReportsPath() string { return filepath.Join(s.Dir, "reports.json") }

// PendingPath returns the pending-bucket document path.
func (s StateConfig) PendingPath() string { return filepath.Join(s.Dir, "pending.json") }

// NotifyConfig tunes message fanout.
type NotifyConfig struct {
	// DefaultLevel is assigned to a destination on first interaction:
	// 0 none, 1 releases/restocks, 2 also returns, 3 any quantity change.
	DefaultLevel int `koanf:"default_level"`

	// WebhookURL receives composed notices as JSON posts. Empty means
	// notices only go to the log.
	WebhookURL string `koanf:"webhook_url"`

	// WebhookTimeout bounds each delivery attempt.
	WebhookTimeout time.Duration `koanf:"webhook_timeout"`
}

// ServerConfig tunes the admin HTTP server.
type ServerConfig struct {
	Host          string        `koanf:"host"`
	Port          int           `koanf:"port"`
	Timeout       time.Duration `koanf:"timeout"`
	RateLimitReqs int           `koanf:"rate_limit_reqs"`
}

// LoggingConfig tunes log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaultConfig returns the built-in defaults, applied before file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			URL:      "",
			Token:    "",
			Timeout:  30 * time.Second,
			PageSize: 20,
		},
		Schedule: ScheduleConfig{
			URL:           "",
			Timeout:       30 * time.Second,
			CacheDir:      "/data/stagewatch/schedule-cache",
			CacheTTL:      12 * time.Hour,
			RatePerSecond: 2,
		},
		Fetch: FetchConfig{
			Concurrency:   10,
			RetryAttempts: 3,
			RetryDelay:    1 * time.Second,
		},
		Watch: WatchConfig{
			Interval: 5 * time.Minute,
		},
		State: StateConfig{
			Dir: "/data/stagewatch",
		},
		Notify: NotifyConfig{
			DefaultLevel:   1,
			WebhookTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8317,
			Timeout:       30 * time.Second,
			RateLimitReqs: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks cross-field constraints after all layers are applied.
func (c *Config) Validate() error {
	if c.Platform.URL == "" {
		return fmt.Errorf("platform.url is required")
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be >= 1, got %d", c.Fetch.Concurrency)
	}
	if c.Fetch.RetryAttempts < 1 {
		return fmt.Errorf("fetch.retry_attempts must be >= 1, got %d", c.Fetch.RetryAttempts)
	}
	if c.Platform.PageSize < 1 {
		return fmt.Errorf("platform.page_size must be >= 1, got %d", c.Platform.PageSize)
	}
	if c.Watch.Interval < time.Second {
		return fmt.Errorf("watch.interval must be >= 1s, got %s", c.Watch.Interval)
	}
	if c.Notify.DefaultLevel < 0 || c.Notify.DefaultLevel > 3 {
		return fmt.Errorf("notify.default_level must be 0..3, got %d", c.Notify.DefaultLevel)
	}
	if c.State.Dir == "" {
		return fmt.Errorf("state.dir is required")
	}
	return nil
}
