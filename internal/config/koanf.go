// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/stagewatch/config.yaml",
	"/etc/stagewatch/config.yml",
}

// ConfigPathEnvVar overrides the config file search entirely.
const ConfigPathEnvVar = "CONFIG_PATH"

// LoadWithKoanf loads configuration with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Transform environment variable names to koanf paths:
	// PLATFORM_URL -> platform.url, WATCH_INTERVAL -> watch.interval.
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when supplied through environment variables.
var sliceConfigPaths = []string{
	"platform.filter_tags",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars always arrive as strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from the YAML layer), nothing to do.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped, which keeps unrelated
// environment noise out of the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Platform mappings
		"platform_url":         "platform.url",
		"platform_token":       "platform.token",
		"platform_timeout":     "platform.timeout",
		"platform_page_size":   "platform.page_size",
		"platform_filter_tags": "platform.filter_tags",

		// Schedule-lookup mappings
		"schedule_url":       "schedule.url",
		"schedule_timeout":   "schedule.timeout",
		"schedule_cache_dir": "schedule.cache_dir",
		"schedule_cache_ttl": "schedule.cache_ttl",
		"schedule_rate":      "schedule.rate_per_second",

		// Fetch mappings
		"fetch_concurrency":    "fetch.concurrency",
		"fetch_retry_attempts": "fetch.retry_attempts",
		"fetch_retry_delay":    "fetch.retry_delay",

		// Watch mappings
		"watch_interval": "watch.interval",

		// State mappings
		"state_dir": "state.dir",

		// Notify mappings
		"notify_default_level": "notify.default_level",
		"notify_webhook_url":   "notify.webhook_url",

		// Server mappings
		"http_port":           "server.port",
		"http_host":           "server.host",
		"http_timeout":        "server.timeout",
		"rate_limit_requests": "server.rate_limit_reqs",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
