package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jrsteele09/go-room-server/presence"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	messageTimeout = 5 * time.Second
)

// WebSocketHandler upgrades an authenticated request to a presence channel.
// The reader feeds the hub; a writer goroutine drains the observer queue.
func (s *Server) WebSocketHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}

		observer, err := s.presence.Connect(presence.Identity{UserID: claims.UserID, Name: claims.Name})
		if err != nil {
			log.Err(err).Msg("presence connect failed")
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "presence unavailable"),
				time.Now().Add(writeWait))
			_ = conn.Close()
			return
		}

		go writePump(conn, observer)
		s.readPump(conn, observer)
	}
}

func (s *Server) readPump(conn *websocket.Conn, observer *presence.Observer) {
	defer func() {
		s.presence.Disconnect(observer)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("observer", observer.ID()).Msg("presence channel closed")
			}
			return
		}

		in, err := presence.DecodeInbound(data)
		if err != nil {
			s.presence.Notify(observer, presence.Outbound{Type: presence.TypeError, Message: publicMessage(err)})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
		if err := s.presence.Handle(ctx, observer, in); err != nil {
			log.Debug().Err(err).Str("observer", observer.ID()).Msg("presence message rejected")
		}
		cancel()
	}
}

func writePump(conn *websocket.Conn, observer *presence.Observer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-observer.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
