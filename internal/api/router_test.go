// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/stagewatch/stagewatch/internal/alias"
	"github.com/stagewatch/stagewatch/internal/models"
	"github.com/stagewatch/stagewatch/internal/notify"
	"github.com/stagewatch/stagewatch/internal/pending"
	"github.com/stagewatch/stagewatch/internal/report"
	"github.com/stagewatch/stagewatch/internal/watch"
)

type fakeManager struct {
	snap       models.Snapshot
	triggerErr error
	triggered  int
}

func (m *fakeManager) TriggerCycle(_ context.Context) (watch.CycleResult, error) {
	m.triggered++
	if m.triggerErr != nil {
		return watch.CycleResult{}, m.triggerErr
	}
	return watch.CycleResult{CycleID: "c1", Events: len(m.snap.Events)}, nil
}

func (m *fakeManager) Snapshot() (models.Snapshot, error) { return m.snap, nil }
func (m *fakeManager) LastCycleTime() time.Time           { return time.Time{} }

func newTestAPI(t *testing.T, manager *fakeManager) http.Handler {
	h, _ := newTestAPIAt(t, manager, t.TempDir())
	return h
}

func newTestAPIAt(t *testing.T, manager *fakeManager, dir string) (http.Handler, *alias.Resolver) {
	t.Helper()

	prefs, err := notify.NewPreferences(filepath.Join(dir, "subs.json"), 1)
	if err != nil {
		t.Fatal(err)
	}
	aliases, err := alias.NewResolver(filepath.Join(dir, "aliases.json"))
	if err != nil {
		t.Fatal(err)
	}
	reports, err := report.NewRegistry(filepath.Join(dir, "reports.json"), aliases)
	if err != nil {
		t.Fatal(err)
	}
	grouper, err := pending.NewGrouper(filepath.Join(dir, "pending.json"))
	if err != nil {
		t.Fatal(err)
	}

	return NewRouter(manager, prefs, reports, grouper, aliases, 0).Setup(), aliases
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestAPI(t, &fakeManager{})
	rec, resp := doJSON(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Errorf("health = %d %+v", rec.Code, resp)
	}
}

func TestRefreshTriggersCycle(t *testing.T) {
	m := &fakeManager{}
	h := newTestAPI(t, m)

	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/refresh", nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("refresh = %d %+v", rec.Code, resp)
	}
	if m.triggered != 1 {
		t.Errorf("trigger count = %d", m.triggered)
	}
}

func TestRefreshWhileBusyConflicts(t *testing.T) {
	m := &fakeManager{triggerErr: watch.ErrBusy}
	h := newTestAPI(t, m)

	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/refresh", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("busy refresh = %d", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeConflict {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestEventLookup(t *testing.T) {
	m := &fakeManager{snap: models.Snapshot{Events: []models.Event{{ID: "500", Title: "Phantom"}}}}
	h := newTestAPI(t, m)

	rec, _ := doJSON(t, h, http.MethodGet, "/api/v1/events/500", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("existing event = %d", rec.Code)
	}

	rec, resp := doJSON(t, h, http.MethodGet, "/api/v1/events/999", nil)
	if rec.Code != http.StatusNotFound || resp.Error == nil {
		t.Errorf("missing event = %d %+v", rec.Code, resp)
	}
}

func TestSubscriptionRoundTrip(t *testing.T) {
	h := newTestAPI(t, &fakeManager{})

	// First touch creates the destination at the default level.
	rec, resp := doJSON(t, h, http.MethodGet, "/api/v1/subscriptions/chat-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}
	data := resp.Data.(map[string]interface{})
	if data["level"].(float64) != 1 {
		t.Errorf("default level = %v", data["level"])
	}

	rec, _ = doJSON(t, h, http.MethodPut, "/api/v1/subscriptions/chat-1", SubscriptionRequest{Level: 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("put = %d", rec.Code)
	}

	_, resp = doJSON(t, h, http.MethodGet, "/api/v1/subscriptions/chat-1", nil)
	if resp.Data.(map[string]interface{})["level"].(float64) != 3 {
		t.Errorf("level after put = %+v", resp.Data)
	}

	rec, resp = doJSON(t, h, http.MethodPut, "/api/v1/subscriptions/chat-1", SubscriptionRequest{Level: 5})
	if rec.Code != http.StatusBadRequest || resp.Error == nil {
		t.Errorf("out-of-range level = %d %+v", rec.Code, resp)
	}
}

func TestAliasManagementOverHTTP(t *testing.T) {
	dir := t.TempDir()
	h, aliases := newTestAPIAt(t, &fakeManager{}, dir)

	rec, resp := doJSON(t, h, http.MethodPut, "/api/v1/aliases/500", AliasRequest{
		Alias:      "drama-a",
		SearchName: "Phantom of the Opera",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put alias = %d %+v", rec.Code, resp)
	}
	if id, ok := aliases.ResolveByAlias("DRAMA-A"); !ok || id != "500" {
		t.Errorf("alias added over HTTP does not resolve: %q, %v", id, ok)
	}
	if id, ok := aliases.ResolveByName("phantom of the opera"); !ok || id != "500" {
		t.Errorf("search name added over HTTP does not resolve: %q, %v", id, ok)
	}

	rec, resp = doJSON(t, h, http.MethodGet, "/api/v1/aliases/500", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get aliases = %d", rec.Code)
	}
	data := resp.Data.(map[string]interface{})
	if got := data["aliases"].([]interface{}); len(got) != 1 || got[0] != "drama-a" {
		t.Errorf("listed aliases = %v", got)
	}

	// The mutation is committed, not just held in memory: a fresh resolver
	// on the same file must still see it.
	reloaded, err := alias.NewResolver(filepath.Join(dir, "aliases.json"))
	if err != nil {
		t.Fatal(err)
	}
	if id, ok := reloaded.ResolveByAlias("drama-a"); !ok || id != "500" {
		t.Errorf("alias lost across restart: %q, %v", id, ok)
	}

	rec, _ = doJSON(t, h, http.MethodDelete, "/api/v1/aliases/500/drama-a", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete alias = %d", rec.Code)
	}
	if _, ok := aliases.ResolveByAlias("drama-a"); ok {
		t.Error("deleted alias still resolves")
	}

	rec, _ = doJSON(t, h, http.MethodDelete, "/api/v1/aliases/500/drama-a", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleting a missing alias = %d", rec.Code)
	}
}

func TestAliasPutRequiresAField(t *testing.T) {
	h := newTestAPI(t, &fakeManager{})

	rec, resp := doJSON(t, h, http.MethodPut, "/api/v1/aliases/500", AliasRequest{})
	if rec.Code != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("empty alias request = %d %+v", rec.Code, resp)
	}
}

func TestReportLifecycleOverHTTP(t *testing.T) {
	h := newTestAPI(t, &fakeManager{})

	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/reports", CreateReportRequest{
		SubmitterID: "owner",
		EventTitle:  "Phantom",
		Seat:        "A1",
		Price:       580,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %+v", rec.Code, resp)
	}
	id := resp.Data.(map[string]interface{})["id"].(string)

	rec, _ = doJSON(t, h, http.MethodGet, "/api/v1/reports/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get = %d", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodPatch, "/api/v1/reports/"+id, AmendReportRequest{RequesterID: "stranger", Seat: "Z9"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign amend = %d", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodPost, "/api/v1/reports/"+id+"/errors", FlagErrorRequest{ReporterID: "u1", Reason: "wrong price"})
	if rec.Code != http.StatusOK {
		t.Errorf("flag = %d", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodDelete, "/api/v1/reports/"+id, DeleteReportRequest{RequesterID: "owner"})
	if rec.Code != http.StatusOK {
		t.Errorf("delete = %d", rec.Code)
	}

	rec, _ = doJSON(t, h, http.MethodGet, "/api/v1/reports/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", rec.Code)
	}
}

func TestReportCreateValidation(t *testing.T) {
	h := newTestAPI(t, &fakeManager{})

	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/reports", CreateReportRequest{SubmitterID: "owner"})
	if rec.Code != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("missing title = %d %+v", rec.Code, resp)
	}
}

func TestPendingDeleteMissing(t *testing.T) {
	h := newTestAPI(t, &fakeManager{})
	rec, _ := doJSON(t, h, http.MethodDelete, "/api/v1/pending/0042", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing bucket = %d", rec.Code)
	}
}
