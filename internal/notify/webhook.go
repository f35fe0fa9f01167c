// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/stagewatch/stagewatch/internal/logging"
)

// WebhookNotifier posts each notice as JSON to a configured endpoint. The
// receiving side (bot front end, relay) routes it to the destination.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier posting to url.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	Dest string `json:"dest"`
	Text string `json:"text"`
}

// Send posts one notice. Non-2xx responses are errors so fanout counts
// them as failed deliveries.
func (n *WebhookNotifier) Send(ctx context.Context, dest, text string) error {
	body, err := json.Marshal(webhookPayload{Dest: dest, Text: text})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

// LogNotifier writes notices to the log. Used when no webhook is
// configured so a bare deployment still surfaces changes.
type LogNotifier struct{}

// Send logs the notice.
func (LogNotifier) Send(_ context.Context, dest, text string) error {
	logging.Info().Str("dest", dest).Str("notice", text).Msg("Notice")
	return nil
}
