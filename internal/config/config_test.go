// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Platform.URL != "" {
		t.Errorf("Platform.URL should be empty by default, got %q", cfg.Platform.URL)
	}
	if cfg.Platform.PageSize != 20 {
		t.Errorf("Platform.PageSize = %d, want 20", cfg.Platform.PageSize)
	}
	if cfg.Fetch.Concurrency != 10 {
		t.Errorf("Fetch.Concurrency = %d, want 10", cfg.Fetch.Concurrency)
	}
	if cfg.Fetch.RetryAttempts != 3 {
		t.Errorf("Fetch.RetryAttempts = %d, want 3", cfg.Fetch.RetryAttempts)
	}
	if cfg.Fetch.RetryDelay != time.Second {
		t.Errorf("Fetch.RetryDelay = %v, want 1s", cfg.Fetch.RetryDelay)
	}
	if cfg.Watch.Interval != 5*time.Minute {
		t.Errorf("Watch.Interval = %v, want 5m", cfg.Watch.Interval)
	}
	if cfg.Schedule.CacheTTL != 12*time.Hour {
		t.Errorf("Schedule.CacheTTL = %v, want 12h", cfg.Schedule.CacheTTL)
	}
	if cfg.Notify.DefaultLevel != 1 {
		t.Errorf("Notify.DefaultLevel = %d, want 1", cfg.Notify.DefaultLevel)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"PLATFORM_URL", "platform.url"},
		{"PLATFORM_TOKEN", "platform.token"},
		{"PLATFORM_FILTER_TAGS", "platform.filter_tags"},
		{"SCHEDULE_URL", "schedule.url"},
		{"SCHEDULE_CACHE_TTL", "schedule.cache_ttl"},
		{"FETCH_CONCURRENCY", "fetch.concurrency"},
		{"FETCH_RETRY_DELAY", "fetch.retry_delay"},
		{"WATCH_INTERVAL", "watch.interval"},
		{"STATE_DIR", "state.dir"},
		{"NOTIFY_DEFAULT_LEVEL", "notify.default_level"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},

		// Unmapped variables are dropped.
		{"PATH", ""},
		{"HOME", ""},
		{"RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.input); got != tt.expected {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	t.Setenv("PLATFORM_URL", "https://platform.example.com")
	t.Setenv("PLATFORM_TOKEN", "tok-123")
	t.Setenv("FETCH_CONCURRENCY", "4")
	t.Setenv("WATCH_INTERVAL", "90s")
	t.Setenv("PLATFORM_FILTER_TAGS", "drama, musical ,opera")
	t.Setenv("STATE_DIR", t.TempDir())
	t.Setenv(ConfigPathEnvVar, "/nonexistent/config.yaml")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}

	if cfg.Platform.URL != "https://platform.example.com" {
		t.Errorf("Platform.URL = %q", cfg.Platform.URL)
	}
	if cfg.Fetch.Concurrency != 4 {
		t.Errorf("Fetch.Concurrency = %d, want 4", cfg.Fetch.Concurrency)
	}
	if cfg.Watch.Interval != 90*time.Second {
		t.Errorf("Watch.Interval = %v, want 90s", cfg.Watch.Interval)
	}
	want := []string{"drama", "musical", "opera"}
	if len(cfg.Platform.FilterTags) != len(want) {
		t.Fatalf("FilterTags = %v, want %v", cfg.Platform.FilterTags, want)
	}
	for i, tag := range want {
		if cfg.Platform.FilterTags[i] != tag {
			t.Errorf("FilterTags[%d] = %q, want %q", i, cfg.Platform.FilterTags[i], tag)
		}
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
platform:
  url: https://file.example.com
  page_size: 50
watch:
  interval: 10m
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Platform.URL != "https://file.example.com" {
		t.Errorf("Platform.URL = %q", cfg.Platform.URL)
	}
	if cfg.Platform.PageSize != 50 {
		t.Errorf("Platform.PageSize = %d, want 50", cfg.Platform.PageSize)
	}
	if cfg.Watch.Interval != 10*time.Minute {
		t.Errorf("Watch.Interval = %v, want 10m", cfg.Watch.Interval)
	}
	// Defaults survive underneath the file layer.
	if cfg.Fetch.Concurrency != 10 {
		t.Errorf("Fetch.Concurrency = %d, want default 10", cfg.Fetch.Concurrency)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing platform url", func(c *Config) { c.Platform.URL = "" }},
		{"zero concurrency", func(c *Config) { c.Fetch.Concurrency = 0 }},
		{"zero retry attempts", func(c *Config) { c.Fetch.RetryAttempts = 0 }},
		{"sub-second interval", func(c *Config) { c.Watch.Interval = 100 * time.Millisecond }},
		{"level out of range", func(c *Config) { c.Notify.DefaultLevel = 4 }},
		{"empty state dir", func(c *Config) { c.State.Dir = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Platform.URL = "https://platform.example.com"
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStatePathHelpers(t *testing.T) {
	s := StateConfig{Dir: "/data/stagewatch"}
	if got := s.SnapshotPath(); got != "/data/stagewatch/snapshot.json" {
		t.Errorf("SnapshotPath = %q", got)
	}
	if got := s.AliasPath(); got != "/data/stagewatch/aliases.json" {
		t.Errorf("AliasPath = %q", got)
	}
}
