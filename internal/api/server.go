// Stagewatch - Ticket Inventory Tracking and Release Notifications
// Copyright 2026 Stagewatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stagewatch/stagewatch

package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/stagewatch/stagewatch/internal/config"
	"github.com/stagewatch/stagewatch/internal/logging"
)

// Server runs the admin API as a supervised service.
type Server struct {
	cfg     *config.ServerConfig
	handler http.Handler
}

// NewServer wraps the handler tree in a supervised HTTP server.
func NewServer(cfg *config.ServerConfig, handler http.Handler) *Server {
	return &Server{cfg: cfg, handler: handler}
}

// Serve starts the listener and blocks until the context is canceled or
// the listener fails. Shutdown drains in-flight requests for up to ten
// seconds.
func (s *Server) Serve(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Timeout,
		WriteTimeout:      s.cfg.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("Admin API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("API shutdown did not drain cleanly")
		}
		return ctx.Err()
	}
}

// String identifies the service in supervisor logs.
func (s *Server) String() string {
	return "api-server"
}
