// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the watch pipeline:
// - Poll cycle duration and outcome
// - Platform fetch retries and skips
// - Cast enrichment cache efficiency
// - Notification composition and fanout
// - Circuit breaker state for the platform API

var (
	// Watch Cycle Metrics
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stagewatch_cycle_duration_seconds",
			Help:    "Duration of a full watch cycle in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagewatch_cycles_total",
			Help: "Total watch cycles by outcome",
		},
		[]string{"outcome"}, // "success", "failure", "skipped"
	)

	// Platform Fetch Metrics
	FetchRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagewatch_fetch_retries_total",
			Help: "Total detail fetch retry attempts",
		},
	)

	FetchSkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagewatch_fetch_skips_total",
			Help: "Total events skipped after exhausting detail fetch retries",
		},
	)

	FetchPageDegrades = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagewatch_fetch_page_degrades_total",
			Help: "Total list fetch page size reductions",
		},
	)

	// Enrichment Metrics
	EnrichCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagewatch_enrich_cache_hits_total",
			Help: "Total cast lookups served from the cache",
		},
	)

	EnrichCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagewatch_enrich_cache_misses_total",
			Help: "Total cast lookups that queried the schedule service",
		},
	)

	EnrichAliasFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stagewatch_enrich_alias_fallbacks_total",
			Help: "Total cast lookups that fell back to alias search",
		},
	)

	// Notification Metrics
	NoticesComposed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagewatch_notices_composed_total",
			Help: "Total notification blocks composed by category",
		},
		[]string{"category"}, // "new", "restock", "return", "upcoming"
	)

	NoticesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagewatch_notices_delivered_total",
			Help: "Total notices delivered by result",
		},
		[]string{"result"}, // "sent", "filtered", "failed"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stagewatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stagewatch_circuit_breaker_requests_total",
			Help: "Circuit breaker request outcomes",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// HTTP API Metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stagewatch_api_request_duration_seconds",
			Help:    "Duration of admin API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
)

// RecordCycle records a completed watch cycle.
func RecordCycle(duration time.Duration, outcome string) {
	CycleDuration.Observe(duration.Seconds())
	CyclesTotal.WithLabelValues(outcome).Inc()
}

// RecordAPIRequest records a completed admin API request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}
