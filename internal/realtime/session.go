// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package realtime

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antipro/Sharelist-Reborn/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // commands are small; 64 KB is generous
)

// sessionIDCounter hands out unique, monotonically increasing session ids
// so broadcast iteration order is deterministic.
var sessionIDCounter atomic.Uint64

// Session is one WebSocket connection. It starts anonymous; a join:user
// command binds it to a user's room. allowedUserID restricts which
// identity the session may join when the upgrade carried a valid token.
type Session struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Event

	// userID is the bound identity. Guarded by hub.mu.
	userID string

	// allowedUserID, when non-empty, is the only identity this session
	// may bind to. Set from the authenticated upgrade request.
	allowedUserID string

	dispatch Dispatcher
}

// Dispatcher routes a decoded inbound envelope to the mutation handlers.
type Dispatcher interface {
	Dispatch(session *Session, env Envelope)
}

// NewSession wraps a connection. allowedUserID may be empty when the
// upgrade was unauthenticated.
func NewSession(hub *Hub, conn *websocket.Conn, dispatch Dispatcher, allowedUserID string) *Session {
	return &Session{
		id:            sessionIDCounter.Add(1),
		hub:           hub,
		conn:          conn,
		send:          make(chan Event, 256),
		allowedUserID: allowedUserID,
		dispatch:      dispatch,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() uint64 {
	return s.id
}

// Start begins the read and write pumps.
func (s *Session) Start() {
	go s.writePump()
	go s.readPump()
}

// readPump reads command frames and hands them to the dispatcher. It
// exits on any read error and unregisters the session, which also
// removes it from its room.
func (s *Session) readPump() {
	defer func() {
		s.hub.Unregister <- s
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close")
			}
			break
		}

		env, err := UnmarshalEnvelope(data)
		if err != nil {
			// Malformed frames are dropped at the boundary.
			logging.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}

		s.dispatch.Dispatch(s, env)
	}
}

// writePump serializes outbound events onto the connection and keeps the
// connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case event, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel.
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := MarshalEvent(event)
			if err != nil {
				logging.Error().Err(err).Str("event_type", event.Type).Msg("failed to marshal event")
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Error().Err(err).Msg("failed to write event")
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
