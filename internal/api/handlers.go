// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stagewatch/stagewatch/internal/alias"
	"github.com/stagewatch/stagewatch/internal/logging"
	"github.com/stagewatch/stagewatch/internal/report"
	"github.com/stagewatch/stagewatch/internal/watch"
)

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"last_cycle": rt.manager.LastCycleTime(),
		"time":       time.Now().UTC(),
	})
}

// handleRefresh runs one observation cycle synchronously. A cycle already
// in flight yields 409 rather than queuing a second one.
func (rt *Router) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := rt.manager.TriggerCycle(r.Context())
	if err != nil {
		if errors.Is(err, watch.ErrBusy) {
			respondError(w, r, http.StatusConflict, ErrCodeConflict, "a cycle is already in progress")
			return
		}
		logging.Error().Err(err).Msg("Manual refresh failed")
		respondError(w, r, http.StatusBadGateway, ErrCodeInternalError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (rt *Router) handleEvents(w http.ResponseWriter, r *http.Request) {
	snap, err := rt.manager.Snapshot()
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to load snapshot")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (rt *Router) handleEvent(w http.ResponseWriter, r *http.Request) {
	snap, err := rt.manager.Snapshot()
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to load snapshot")
		return
	}
	ev := snap.Event(chi.URLParam(r, "id"))
	if ev == nil {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "event not found")
		return
	}
	respondJSON(w, http.StatusOK, ev)
}

func (rt *Router) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	dest := chi.URLParam(r, "dest")
	level, err := rt.prefs.Level(dest)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to read subscription")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"dest": dest, "level": level})
}

func (rt *Router) handlePutSubscription(w http.ResponseWriter, r *http.Request) {
	dest := chi.URLParam(r, "dest")

	var req SubscriptionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}
	if err := rt.prefs.SetLevel(dest, req.Level); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"dest": dest, "level": req.Level})
}

func (rt *Router) handleAliasGet(w http.ResponseWriter, r *http.Request) {
	event := chi.URLParam(r, "event")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"event_id":     event,
		"aliases":      rt.aliases.Aliases(event),
		"search_names": rt.aliases.SearchNames(event),
	})
}

// handleAliasPut registers an alias and/or a canonical search name for an
// event. Mutations are committed before the response is written.
func (rt *Router) handleAliasPut(w http.ResponseWriter, r *http.Request) {
	event := chi.URLParam(r, "event")

	var req AliasRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}
	if req.Alias == "" && req.SearchName == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "alias or search_name required")
		return
	}

	if req.Alias != "" {
		if err := rt.aliases.AddAlias(event, req.Alias); err != nil {
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to store alias")
			return
		}
	}
	if req.SearchName != "" {
		if err := rt.aliases.AddSearchName(event, req.SearchName); err != nil {
			respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to store search name")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"event_id":     event,
		"aliases":      rt.aliases.Aliases(event),
		"search_names": rt.aliases.SearchNames(event),
	})
}

func (rt *Router) handleAliasDelete(w http.ResponseWriter, r *http.Request) {
	al := chi.URLParam(r, "alias")
	ok, err := rt.aliases.RemoveAlias(al)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to remove alias")
		return
	}
	if !ok {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "alias not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"removed": alias.Normalize(al)})
}

func (rt *Router) handlePendingList(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, rt.grouper.Live())
}

func (rt *Router) handlePendingDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := rt.grouper.Remove(id)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to remove bucket")
		return
	}
	if !ok {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "bucket not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (rt *Router) handleReportCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	id, err := rt.reports.Create(req.SubmitterID, req.EventTitle, report.Fields{
		Seat:        req.Seat,
		Price:       req.Price,
		ListPrice:   req.ListPrice,
		Category:    req.Category,
		Description: req.Description,
		ImageRef:    req.ImageRef,
	})
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to store report")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (rt *Router) handleReportRecent(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, rt.reports.Recent())
}

func (rt *Router) handleReportGet(w http.ResponseWriter, r *http.Request) {
	rep, ok := rt.reports.Get(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "report not found")
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (rt *Router) handleReportAmend(w http.ResponseWriter, r *http.Request) {
	var req AmendReportRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	ok, err := rt.reports.Amend(id, req.RequesterID, req.Elevated, report.Fields{
		Seat:        req.Seat,
		Price:       req.Price,
		ListPrice:   req.ListPrice,
		Category:    req.Category,
		Description: req.Description,
		ImageRef:    req.ImageRef,
	})
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to amend report")
		return
	}
	if !ok {
		// Indistinguishable on purpose: a missing report and a foreign
		// report both yield the same refusal.
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, "report not found or not yours")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"amended": id})
}

func (rt *Router) handleReportDelete(w http.ResponseWriter, r *http.Request) {
	var req DeleteReportRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	ok, err := rt.reports.Delete(id, req.RequesterID, req.Elevated)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to delete report")
		return
	}
	if !ok {
		respondError(w, r, http.StatusForbidden, ErrCodeForbidden, "report not found or not yours")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (rt *Router) handleReportFlagError(w http.ResponseWriter, r *http.Request) {
	var req FlagErrorRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	count, deleted, err := rt.reports.FlagError(id, req.ReporterID, req.Reason)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "failed to flag report")
		return
	}
	if count == 0 && !deleted {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "report not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":        id,
		"reporters": count,
		"deleted":   deleted,
	})
}
