// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/samber/oops"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// DefaultServerConfig returns the default server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              ":4000",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
}

// Server runs the API handler until shut down.
type Server struct {
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
}

// NewServer creates a Server for handler.
func NewServer(handler http.Handler, cfg ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// Start binds the listen address and serves in the background. Serve
// errors are sent on the returned channel.
func (s *Server) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return nil, oops.Code("API_LISTEN_FAILED").With("addr", s.server.Addr).Wrap(err)
	}
	s.listener = ln
	s.logger.Info("starting API server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- oops.Code("API_SERVE_FAILED").Wrap(err)
		}
		close(errCh)
	}()
	return errCh, nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	if err := s.server.Shutdown(ctx); err != nil {
		return oops.Code("API_SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}
