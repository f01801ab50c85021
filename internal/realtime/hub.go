// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package realtime

import (
	"context"
	"sort"
	"sync"

	"github.com/antipro/Sharelist-Reborn/internal/logging"
	"github.com/antipro/Sharelist-Reborn/internal/metrics"
)

// roomMessage is a broadcast addressed to every session bound to a user.
type roomMessage struct {
	userID string
	event  Event
}

// Hub maintains the set of active sessions and the per-user rooms that
// are the unit of fan-out. A session joins the hub anonymous; Bind
// attaches it to a user's room once a join command arrives. Multiple
// sessions for the same user (devices, tabs) share one room, and a
// broadcast reaches all of them, including the one that originated the
// mutation.
type Hub struct {
	sessions  map[*Session]bool
	rooms     map[string]map[*Session]bool
	broadcast chan roomMessage

	Register   chan *Session
	Unregister chan *Session

	mu sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[*Session]bool),
		rooms:      make(map[string]map[*Session]bool),
		broadcast:  make(chan roomMessage, 256),
		Register:   make(chan *Session),
		Unregister: make(chan *Session),
	}
}

// RunWithContext runs the hub loop until the context is canceled, then
// closes every session. Designed for suture supervision.
//
// Selection is priority-ordered so behavior stays predictable when
// several channels are ready at once: shutdown first, then session
// lifecycle, then broadcasts.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case session := <-h.Register:
			h.register(session)
			continue
		case session := <-h.Unregister:
			h.unregister(session)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()

		case session := <-h.Register:
			h.register(session)

		case session := <-h.Unregister:
			h.unregister(session)

		case msg := <-h.broadcast:
			h.broadcastToRoom(msg)
		}
	}
}

func (h *Hub) register(session *Session) {
	h.mu.Lock()
	h.sessions[session] = true
	total := len(h.sessions)
	h.mu.Unlock()

	metrics.SessionsConnected.Set(float64(total))
	logging.Info().Int("total_sessions", total).Msg("session connected")
}

func (h *Hub) unregister(session *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[session]; ok {
		delete(h.sessions, session)
		h.removeFromRoomLocked(session)
		close(session.send)
	}
	total := len(h.sessions)
	rooms := len(h.rooms)
	h.mu.Unlock()

	metrics.SessionsConnected.Set(float64(total))
	metrics.RoomsActive.Set(float64(rooms))
	logging.Info().Int("total_sessions", total).Msg("session disconnected")
}

// Bind attaches a session to the room for userID. A rebind moves the
// session out of its previous room first. There is no explicit leave
// command; rooms empty out as sessions disconnect.
func (h *Hub) Bind(session *Session, userID string) {
	h.mu.Lock()
	if _, ok := h.sessions[session]; !ok {
		h.mu.Unlock()
		return
	}
	h.removeFromRoomLocked(session)
	session.userID = userID
	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*Session]bool)
		h.rooms[userID] = room
	}
	room[session] = true
	rooms := len(h.rooms)
	h.mu.Unlock()

	metrics.RoomsActive.Set(float64(rooms))
	logging.Info().Str("user_id", userID).Msg("session bound to room")
}

// UserID returns the identity a session is bound to, or "" while the
// session is still anonymous.
func (h *Hub) UserID(session *Session) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return session.userID
}

// removeFromRoomLocked detaches a session from its room, dropping the
// room when it empties. Caller holds h.mu.
func (h *Hub) removeFromRoomLocked(session *Session) {
	if session.userID == "" {
		return
	}
	if room, ok := h.rooms[session.userID]; ok {
		delete(room, session)
		if len(room) == 0 {
			delete(h.rooms, session.userID)
		}
	}
	session.userID = ""
}

// BroadcastToUser queues an event for every session in the user's room.
// The queue is bounded; when it is full the event is dropped with a
// warning rather than blocking a mutation handler.
func (h *Hub) BroadcastToUser(userID string, event Event) {
	select {
	case h.broadcast <- roomMessage{userID: userID, event: event}:
		metrics.EventsBroadcast.WithLabelValues(event.Type).Inc()
	default:
		logging.Warn().Str("event_type", event.Type).Msg("broadcast channel full, dropping event")
	}
}

// broadcastToRoom delivers a message to each session in the target room
// in session-id order, so delivery order is deterministic within a
// single broadcast. Sessions whose send buffer is full are disconnected;
// a client that cannot keep up resynchronizes with a fresh join.
func (h *Hub) broadcastToRoom(msg roomMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[msg.userID]
	if !ok {
		return
	}

	targets := make([]*Session, 0, len(room))
	for session := range room {
		targets = append(targets, session)
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].id < targets[j].id
	})

	var toRemove []*Session
	for _, session := range targets {
		select {
		case session.send <- msg.event:
		default:
			toRemove = append(toRemove, session)
		}
	}

	for _, session := range toRemove {
		delete(h.sessions, session)
		h.removeFromRoomLocked(session)
		close(session.send)
		logging.Warn().Msg("session send buffer full, disconnecting")
	}
}

// SendToSession unicasts an event to one session, bypassing rooms. Used
// for the initial-data snapshot, which only the joining session receives.
//
// The send happens under h.mu: the hub goroutine closes session.send only
// while holding the lock and removing the session from h.sessions, so
// membership here guarantees the channel is still open. A session the hub
// has already disconnected is skipped.
func (h *Hub) SendToSession(session *Session, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[session]; !ok {
		return
	}

	select {
	case session.send <- event:
		metrics.EventsBroadcast.WithLabelValues(event.Type).Inc()
	default:
		logging.Warn().Str("event_type", event.Type).Msg("session send buffer full, dropping event")
	}
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// RoomSize returns the number of sessions bound to a user.
func (h *Hub) RoomSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// shutdown closes every session and logs the reason.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	closed := len(h.sessions)
	for session := range h.sessions {
		delete(h.sessions, session)
		h.removeFromRoomLocked(session)
		close(session.send)
	}
	h.mu.Unlock()

	// Context cancellation is the normal shutdown path, so the reason is
	// logged as a field rather than an error.
	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}

	metrics.SessionsConnected.Set(0)
	metrics.RoomsActive.Set(0)
	logging.Info().
		Str("component", "realtime-hub").
		Str("reason", reason).
		Int("sessions_closed", closed).
		Msg("hub stopped")
}
