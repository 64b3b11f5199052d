// Package stats exposes gateway metrics over a standalone HTTP listener.
package stats

import (
	"context"
	"net/http"
	"time"

	"github.com/gitgate/gitgate/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the Prometheus metrics endpoint.
type Server struct {
	cfg    *config.Config
	server *http.Server
}

// NewServer returns a metrics server listening on the configured address.
func NewServer(ctx context.Context) (*Server, error) {
	cfg := config.FromContext(ctx)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		cfg: cfg,
		server: &http.Server{
			Addr:              cfg.Stats.ListenAddr,
			Handler:           mux,
			ReadHeaderTimeout: time.Second * 10,
			ReadTimeout:       time.Second * 10,
			WriteTimeout:      time.Second * 10,
			MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
		},
	}, nil
}

// ListenAndServe starts the metrics server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe() //nolint:wrapcheck
}

// Shutdown gracefully shuts down the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx) //nolint:wrapcheck
}

// Close closes the metrics server.
func (s *Server) Close() error {
	return s.server.Close() //nolint:wrapcheck
}
