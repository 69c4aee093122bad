// HTTP server lifecycle and routing. streampush runs two listeners: the
// health port for probes and the HTTP port for the status API, metrics,
// and the websocket feed.

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/arkavo-org/streampush/internal/config"
	"github.com/arkavo-org/streampush/internal/svc/api"
	"github.com/arkavo-org/streampush/internal/svc/health"
)

// Server wraps the HTTP servers and their dependencies.
type Server struct {
	healthServer *http.Server
	apiServer    *http.Server
}

// New creates a new server instance with the given configuration.
// The servers are not started until Start is called.
func New(cfg *config.Config, pub api.StatsSource, ready health.ReadyFunc) *Server {
	healthMux := http.NewServeMux()
	health.New(ready).RegisterRoutes(healthMux)

	apiMux := http.NewServeMux()
	api.NewService(pub, cfg).RegisterRoutes(apiMux)

	return &Server{
		healthServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.HealthPort),
			Handler: healthMux,
		},
		apiServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
			Handler: apiMux,
		},
	}
}

// Start begins serving HTTP requests on both listeners.
// Blocks until one of them stops or fails.
func (s *Server) Start() error {
	errCh := make(chan error, 2)
	go func() { errCh <- s.healthServer.ListenAndServe() }()
	go func() { errCh <- s.apiServer.ListenAndServe() }()
	return <-errCh
}

// Shutdown gracefully stops both servers with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	healthErr := s.healthServer.Shutdown(ctx)
	apiErr := s.apiServer.Shutdown(ctx)
	if healthErr != nil {
		return healthErr
	}
	return apiErr
}

// ShutdownWithTimeout stops the servers with a fixed 5-second timeout.
// This is a convenience wrapper around Shutdown.
func (s *Server) ShutdownWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
