// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startHub runs the hub loop for the duration of the test.
func startHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("hub did not stop")
		}
	})
	return hub
}

// connect registers a session and waits for the hub to pick it up.
func connect(t *testing.T, hub *Hub) *Session {
	t.Helper()

	session := NewSession(hub, nil, nil, "")
	before := hub.SessionCount()
	hub.Register <- session
	require.Eventually(t, func() bool {
		return hub.SessionCount() > before
	}, time.Second, time.Millisecond)
	return session
}

// receive waits for one event on a session's send channel.
func receive(t *testing.T, session *Session) Event {
	t.Helper()

	select {
	case event := <-session.send:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHubBindAndBroadcast(t *testing.T) {
	hub := startHub(t)

	s1 := connect(t, hub)
	s2 := connect(t, hub)
	other := connect(t, hub)

	hub.Bind(s1, "alice")
	hub.Bind(s2, "alice")
	hub.Bind(other, "bob")

	assert.Equal(t, 2, hub.RoomSize("alice"))
	assert.Equal(t, 1, hub.RoomSize("bob"))

	hub.BroadcastToUser("alice", Event{Type: EventItemCreated, Data: "x"})

	assert.Equal(t, EventItemCreated, receive(t, s1).Type)
	assert.Equal(t, EventItemCreated, receive(t, s2).Type)

	select {
	case event := <-other.send:
		t.Fatalf("bob's session received alice's event %q", event.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubRebindMovesRooms(t *testing.T) {
	hub := startHub(t)

	s := connect(t, hub)
	hub.Bind(s, "alice")
	require.Equal(t, 1, hub.RoomSize("alice"))

	hub.Bind(s, "bob")
	assert.Equal(t, 0, hub.RoomSize("alice"))
	assert.Equal(t, 1, hub.RoomSize("bob"))
	assert.Equal(t, "bob", hub.UserID(s))
}

func TestHubBindIgnoresUnregisteredSession(t *testing.T) {
	hub := startHub(t)

	stray := NewSession(hub, nil, nil, "")
	hub.Bind(stray, "alice")
	assert.Equal(t, 0, hub.RoomSize("alice"))
}

func TestHubUnregisterLeavesRoom(t *testing.T) {
	hub := startHub(t)

	s := connect(t, hub)
	hub.Bind(s, "alice")

	hub.Unregister <- s
	require.Eventually(t, func() bool {
		return hub.SessionCount() == 0
	}, time.Second, time.Millisecond)
	assert.Equal(t, 0, hub.RoomSize("alice"))

	// The send channel is closed so the write pump drains out.
	_, open := <-s.send
	assert.False(t, open)
}

func TestHubUnicast(t *testing.T) {
	hub := startHub(t)

	s := connect(t, hub)
	hub.SendToSession(s, Event{Type: EventInitialData})
	assert.Equal(t, EventInitialData, receive(t, s).Type)
}

func TestHubUnicastToDisconnectedSession(t *testing.T) {
	t.Run("unregistered session is skipped", func(t *testing.T) {
		hub := startHub(t)

		s := connect(t, hub)
		hub.Bind(s, "alice")
		hub.Unregister <- s
		require.Eventually(t, func() bool {
			return hub.SessionCount() == 0
		}, time.Second, time.Millisecond)

		// The send channel is closed; the unicast must notice the session
		// is gone instead of panicking on it.
		assert.NotPanics(t, func() {
			hub.SendToSession(s, Event{Type: EventInitialData})
		})
	})

	t.Run("session dropped for a full buffer is skipped", func(t *testing.T) {
		hub := startHub(t)

		s := connect(t, hub)
		hub.Bind(s, "bob")

		// A stalled client never drains its buffer; keep broadcasting
		// until the hub gives up on the session and closes its channel.
		require.Eventually(t, func() bool {
			hub.BroadcastToUser("bob", Event{Type: EventItemCreated})
			return hub.SessionCount() == 0
		}, 5*time.Second, time.Millisecond)

		assert.NotPanics(t, func() {
			hub.SendToSession(s, Event{Type: EventInitialData})
		})
	})
}

func TestHubShutdownClosesSessions(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	s := NewSession(hub, nil, nil, "")
	hub.Register <- s
	require.Eventually(t, func() bool { return hub.SessionCount() == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	_, open := <-s.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.SessionCount())
}
