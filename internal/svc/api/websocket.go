// WebSocket statistics feed. Pushes one status snapshot per second so
// dashboards can follow a session without polling.

package api

import (
	"net/http"
	"time"
)

const (
	statsFeedInterval = time.Second
	writeWait         = 5 * time.Second
)

// handleStatsFeed handles GET /api/ws.
// Upgrades to WebSocket and streams status snapshots until the client
// disconnects.
func (s *Service) handleStatsFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade failed, response already sent
		return
	}
	defer conn.Close()

	// Consume control frames so pings and the close handshake are handled.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(statsFeedInterval)
	defer ticker.Stop()

	// First snapshot immediately, then one per tick.
	for {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(s.statusSnapshot()); err != nil {
			return
		}
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
