// Unit tests for the WebSocket statistics feed. Tests verify the upgrade
// and that snapshots arrive over the socket.

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arkavo-org/streampush/internal/publisher"
)

func TestStatsFeedRejectsPost(t *testing.T) {
	service := NewService(&stubStats{}, testConfig())

	req := httptest.NewRequest("POST", "/api/ws", nil)
	w := httptest.NewRecorder()

	service.handleStatsFeed(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestStatsFeedDeliversSnapshots(t *testing.T) {
	stub := &stubStats{
		state: publisher.StatePublishing,
		stats: publisher.Stats{
			State:      "publishing",
			BytesSent:  4096,
			FramesSent: 25,
			Duration:   time.Second,
		},
	}
	service := NewService(stub, testConfig())

	srv := httptest.NewServer(http.HandlerFunc(service.handleStatsFeed))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing feed: %v", err)
	}
	defer conn.Close()
	if resp != nil {
		resp.Body.Close()
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snapshot StatusResponse
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if snapshot.State != "publishing" {
		t.Errorf("State = %q, want publishing", snapshot.State)
	}
	if snapshot.BytesSent != 4096 || snapshot.FramesSent != 25 {
		t.Errorf("counters = %d/%d", snapshot.BytesSent, snapshot.FramesSent)
	}
}
