package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// stream pushes the sorted view of one side on connect and after every publish
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	side, ok := s.side(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("Websocket upgrade failed: %s", err)
		return
	}
	defer conn.Close()
	log := s.log.WithField("side", side.String())
	log.Debug("Stream opened")

	// the client only ever sends close frames
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		changed, err := s.book.Changed(side)
		if err != nil {
			log.Warnf("Stream stopped: %s", err)
			return
		}
		orders, err := s.book.AllOf(side)
		if err != nil {
			log.Warnf("Stream stopped: %s", err)
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(orders); err != nil {
			log.Debugf("Stream write failed: %s", err)
			return
		}
		select {
		case <-changed:
		case <-gone:
			log.Debug("Stream closed by client")
			return
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}
