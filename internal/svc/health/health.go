// Health check endpoints for monitoring and integration tests.

package health

import (
	"net/http"
)

// ReadyFunc reports whether the process is ready to serve its purpose.
type ReadyFunc func() bool

// Service provides health check functionality.
type Service struct {
	ready ReadyFunc
}

// New creates a new health service. ready may be nil, in which case
// /readyz always succeeds.
func New(ready ReadyFunc) *Service {
	return &Service{ready: ready}
}

// RegisterRoutes adds health check routes to the provided mux.
// /healthz reports liveness; /readyz reports whether the publisher
// currently holds an active session.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
}

// handleHealth responds to liveness checks.
// Returns 200 OK to indicate the server is running.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleReady responds to readiness checks.
func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.ready != nil && !s.ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
