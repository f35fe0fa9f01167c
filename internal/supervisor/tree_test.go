// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stagewatch/stagewatch/internal/logging"
)

// blockingService runs until its context is canceled.
type blockingService struct {
	started atomic.Int32
}

func (s *blockingService) Serve(ctx context.Context) error {
	s.started.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return "blocking-service" }

// crashingService fails once, then blocks.
type crashingService struct {
	runs atomic.Int32
}

func (s *crashingService) Serve(ctx context.Context) error {
	if s.runs.Add(1) == 1 {
		return errors.New("transient failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *crashingService) String() string { return "crashing-service" }

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	if cfg.FailureThreshold != 5.0 || cfg.FailureDecay != 30.0 {
		t.Errorf("failure parameters = %+v", cfg)
	}
	if cfg.FailureBackoff != 15*time.Second || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("timeouts = %+v", cfg)
	}
}

func TestTreeRunsServicesInBothLayers(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), TreeConfig{})

	watchSvc := &blockingService{}
	apiSvc := &blockingService{}
	tree.AddWatchService(watchSvc)
	tree.AddAPIService(apiSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for watchSvc.started.Load() == 0 || apiSvc.started.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("services never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}

func TestTreeRestartsCrashedService(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), TreeConfig{FailureBackoff: 10 * time.Millisecond})

	svc := &crashingService{}
	tree.AddWatchService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(2 * time.Second)
	for svc.runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("service restarted %d times, want at least 2 runs", svc.runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-errCh
}
