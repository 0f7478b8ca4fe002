package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/udisondev/pokenav/internal/worldstate"
)

const (
	maxFrameSize = 1 << 20
	pongWait     = 60 * time.Second
	writeWait    = 5 * time.Second
)

// StateAck answers every frame received on /ws/state.
type StateAck struct {
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// handleStateStream accepts worldstate.Snapshot JSON frames from the emulator
// bridge and publishes each into the feed. Malformed frames are rejected with
// an error ack and the stream stays open.
func (s *Server) handleStateStream(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error.
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer ws.Close()

	// Hijacked connections are not closed by http.Server.Shutdown.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-r.Context().Done():
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			_ = ws.Close()
		case <-done:
		}
	}()

	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	slog.Info("state bridge connected", "remote", r.RemoteAddr)
	frames := 0
	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("state bridge read failed", "remote", r.RemoteAddr, "error", err)
			}
			break
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		var snap worldstate.Snapshot
		ack := StateAck{OK: true}
		if err := json.Unmarshal(message, &snap); err != nil {
			ack = StateAck{Error: err.Error()}
		} else {
			s.feed.Publish(&snap)
			ack.CapturedAt = snap.CapturedAt
			frames++
		}

		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteJSON(ack); err != nil {
			slog.Warn("state bridge write failed", "remote", r.RemoteAddr, "error", err)
			break
		}
	}
	slog.Info("state bridge disconnected", "remote", r.RemoteAddr, "frames", frames)
}
