package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// handleLive pushes an export snapshot on connect and then on every tick.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("live upgrade failed: %v", err)
		return
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()

	// The read loop only detects client disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.liveInterval)
	defer ticker.Stop()
	for {
		if err := s.pushSnapshot(conn); err != nil {
			s.logger.Printf("live write failed: %v", err)
			return
		}
		select {
		case <-ticker.C:
		case <-closed:
			return
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) pushSnapshot(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(s.svc.Export())
}
