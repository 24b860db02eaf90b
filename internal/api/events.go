// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ManuGH/boomctl/internal/log"
	"github.com/ManuGH/boomctl/internal/metrics"
	"github.com/ManuGH/boomctl/internal/reconcile"
)

const (
	eventsWriteWait  = 5 * time.Second
	eventsPongWait   = 60 * time.Second
	eventsPingPeriod = eventsPongWait * 9 / 10
)

// EventTypeState is the only event type: a full view after every change.
const EventTypeState = "state"

// Event is one websocket message.
type Event struct {
	Type  string         `json:"type"`
	State reconcile.View `json:"state"`
}

// handleEvents streams the view on every change. Slow clients skip
// intermediate views and always receive the latest one.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "events")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error.
		logger.Debug().Err(err).Str(log.FieldEvent, "events.upgrade_failed").Msg("websocket upgrade failed")
		return
	}
	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)

	disconnected := metrics.SubscriberConnected()
	defer disconnected()

	views, unsubscribe := s.rec.Subscribe()
	defer unsubscribe()

	logger.Debug().Str(log.FieldEvent, "events.connected").Str("remote_addr", r.RemoteAddr).Msg("event stream opened")

	gone := make(chan struct{})
	go readUntilClosed(conn, gone)

	ping := time.NewTicker(eventsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			logger.Debug().Str(log.FieldEvent, "events.disconnected").Msg("event stream closed by client")
			return

		case v := <-views:
			_ = conn.SetWriteDeadline(time.Now().Add(eventsWriteWait))
			if err := conn.WriteJSON(Event{Type: EventTypeState, State: v}); err != nil {
				logger.Debug().Err(err).Str(log.FieldEvent, "events.write_failed").Msg("event write failed")
				return
			}

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventsWriteWait)); err != nil {
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and closes gone when the connection ends.
func readUntilClosed(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.streams[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.streams, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

// Close ends every open event stream. The HTTP server's Shutdown does not
// touch hijacked connections.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.streams))
	for c := range s.streams {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = c.Close()
	}
}
