// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := parseLevel(tc.in); got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)
	logger.Info().Str("event_id", "500").Msg("snapshot committed")

	out := buf.String()
	if !strings.Contains(out, `"event_id":"500"`) {
		t.Errorf("expected event_id field in output, got %s", out)
	}
	if !strings.Contains(out, "snapshot committed") {
		t.Errorf("expected message in output, got %s", out)
	}
}

func TestSlogAdapterForwardsAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := &slogHandler{logger: NewTestLogger(&buf)}
	logger := slog.New(handler)

	logger.Info("cycle finished", slog.Int("changed", 3), slog.String("cycle_id", "abc"))

	out := buf.String()
	if !strings.Contains(out, `"changed":3`) {
		t.Errorf("expected changed field, got %s", out)
	}
	if !strings.Contains(out, `"cycle_id":"abc"`) {
		t.Errorf("expected cycle_id field, got %s", out)
	}
}

func TestSlogAdapterGroups(t *testing.T) {
	var buf bytes.Buffer
	base := &slogHandler{logger: NewTestLogger(&buf)}
	logger := slog.New(base).WithGroup("fetch")

	logger.Warn("detail fetch skipped", slog.String("event_id", "42"))

	out := buf.String()
	if !strings.Contains(out, `"fetch.event_id":"42"`) {
		t.Errorf("expected grouped key, got %s", out)
	}
}
