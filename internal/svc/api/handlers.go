// HTTP API handlers. All handlers are fast, allocation-light, and never
// block the media path.

package api

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// StatusResponse represents the /api/status response.
type StatusResponse struct {
	State      string  `json:"state"`
	BytesSent  uint64  `json:"bytes_sent"`
	FramesSent uint64  `json:"frames_sent"`
	DurationS  float64 `json:"duration_s"`
	BitrateBps float64 `json:"bitrate_bps"`
	LastError  string  `json:"last_error,omitempty"`
	Uptime     int64   `json:"uptime"` // seconds
	GoVersion  string  `json:"go_version"`
}

// ConfigResponse represents the /api/config response. The stream key never
// leaves the process.
type ConfigResponse struct {
	DestinationURL string `json:"destination_url"`
	Platform       string `json:"platform"`
	InputPath      string `json:"input_path"`
	Realtime       bool   `json:"realtime"`
	Loop           bool   `json:"loop"`
	QueueCapacity  int    `json:"queue_capacity"`
	DropPolicy     string `json:"drop_policy"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleStatus handles GET /api/status.
// Returns the publisher state and session statistics.
func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.statusSnapshot())
}

// handleConfig handles GET /api/config.
// Returns the sanitized running configuration.
func (s *Service) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	response := ConfigResponse{
		DestinationURL: s.cfg.Destination.URL,
		Platform:       s.cfg.Destination.Platform,
		InputPath:      s.cfg.Input.Path,
		Realtime:       s.cfg.Input.Realtime,
		Loop:           s.cfg.Input.Loop,
		QueueCapacity:  s.cfg.Queue.Capacity,
		DropPolicy:     s.cfg.Queue.Drop,
	}
	s.writeJSON(w, http.StatusOK, response)
}

// statusSnapshot builds one status response from the publisher snapshot.
func (s *Service) statusSnapshot() StatusResponse {
	stats := s.pub.Stats()
	response := StatusResponse{
		State:      stats.State,
		BytesSent:  stats.BytesSent,
		FramesSent: stats.FramesSent,
		DurationS:  stats.Duration.Seconds(),
		BitrateBps: stats.BitrateBps,
		Uptime:     getCurrentTime() - s.startTime,
		GoVersion:  runtime.Version(),
	}
	if err := s.pub.LastError(); err != nil {
		response.LastError = err.Error()
	}
	return response
}

// writeJSON writes a JSON response with the given status code.
func (s *Service) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
