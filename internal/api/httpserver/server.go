// Package httpserver owns the HTTP listener lifecycle.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/goback-io/goback/internal/logging"
)

// Server wraps http.Server with the service defaults.
type Server struct {
	srv    *http.Server
	logger *logging.Logger
}

// New creates a server bound to addr serving handler.
func New(addr string, logger *logging.Logger, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the listener and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
