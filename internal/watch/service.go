// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package watch

import (
	"context"
)

// Service adapts the manager to the suture.Service interface so the
// supervisor tree can restart it on failure.
type Service struct {
	manager *Manager
}

// NewService wraps a manager as a supervised service.
func NewService(m *Manager) *Service {
	return &Service{manager: m}
}

// Serve starts the manager and blocks until the context is canceled, then
// shuts it down gracefully.
func (s *Service) Serve(ctx context.Context) error {
	if err := s.manager.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.manager.Stop()
	return ctx.Err()
}

// String identifies the service in supervisor logs.
func (s *Service) String() string {
	return "watch-manager"
}
