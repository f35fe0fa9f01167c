// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stagewatch/stagewatch/internal/alias"
	"github.com/stagewatch/stagewatch/internal/metrics"
	"github.com/stagewatch/stagewatch/internal/models"
	"github.com/stagewatch/stagewatch/internal/notify"
	"github.com/stagewatch/stagewatch/internal/pending"
	"github.com/stagewatch/stagewatch/internal/report"
	"github.com/stagewatch/stagewatch/internal/watch"
)

// CycleTrigger is the slice of the watch manager the API needs.
type CycleTrigger interface {
	TriggerCycle(ctx context.Context) (watch.CycleResult, error)
	Snapshot() (models.Snapshot, error)
	LastCycleTime() time.Time
}

// Router wires handlers to their dependencies.
type Router struct {
	manager   CycleTrigger
	prefs     *notify.Preferences
	reports   *report.Registry
	grouper   *pending.Grouper
	aliases   *alias.Resolver
	rateLimit int
}

// NewRouter creates the admin API router. rateLimit is requests per
// minute per client IP; zero disables limiting.
func NewRouter(manager CycleTrigger, prefs *notify.Preferences, reports *report.Registry, grouper *pending.Grouper, aliases *alias.Resolver, rateLimit int) *Router {
	return &Router{
		manager:   manager,
		prefs:     prefs,
		reports:   reports,
		grouper:   grouper,
		aliases:   aliases,
		rateLimit: rateLimit,
	}
}

// Setup builds the chi handler tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/healthz", rt.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if rt.rateLimit > 0 {
			r.Use(httprate.LimitByIP(rt.rateLimit, time.Minute))
		}

		r.Post("/refresh", rt.handleRefresh)
		r.Get("/events", rt.handleEvents)
		r.Get("/events/{id}", rt.handleEvent)

		r.Get("/subscriptions/{dest}", rt.handleGetSubscription)
		r.Put("/subscriptions/{dest}", rt.handlePutSubscription)

		r.Route("/aliases/{event}", func(r chi.Router) {
			r.Get("/", rt.handleAliasGet)
			r.Put("/", rt.handleAliasPut)
			r.Delete("/{alias}", rt.handleAliasDelete)
		})

		r.Get("/pending", rt.handlePendingList)
		r.Delete("/pending/{id}", rt.handlePendingDelete)

		r.Route("/reports", func(r chi.Router) {
			r.Post("/", rt.handleReportCreate)
			r.Get("/recent", rt.handleReportRecent)
			r.Get("/{id}", rt.handleReportGet)
			r.Patch("/{id}", rt.handleReportAmend)
			r.Delete("/{id}", rt.handleReportDelete)
			r.Post("/{id}/errors", rt.handleReportFlagError)
		})
	})

	return r
}

// metricsMiddleware records per-route request durations using the chi
// route pattern so path parameters do not explode the label space.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		metrics.RecordAPIRequest(r.Method, endpoint, strconv.Itoa(ww.Status()), time.Since(start))
	})
}
