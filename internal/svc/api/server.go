// HTTP API service integration. The API exposes publisher state and
// configuration without ever blocking the media path: every handler reads
// lock-free snapshots.

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arkavo-org/streampush/internal/config"
	"github.com/arkavo-org/streampush/internal/publisher"
)

// StatsSource yields point-in-time publisher statistics.
// Satisfied by *publisher.Publisher; an interface so handlers are testable
// without a live connection.
type StatsSource interface {
	State() publisher.State
	Stats() publisher.Stats
	LastError() error
}

// Service provides the HTTP status API.
type Service struct {
	pub       StatsSource
	cfg       *config.Config
	upgrader  websocket.Upgrader
	startTime int64
}

// NewService creates a new API service.
func NewService(pub StatsSource, cfg *config.Config) *Service {
	return &Service{
		pub: pub,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The API binds to an operator-controlled port.
				return true
			},
		},
		startTime: getCurrentTime(),
	}
}

// RegisterRoutes registers API routes on the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/ws", s.handleStatsFeed)
	mux.Handle("/metrics", promhttp.Handler())
}

// getCurrentTime returns current Unix timestamp.
// Extracted for testability.
func getCurrentTime() int64 {
	return time.Now().Unix()
}
