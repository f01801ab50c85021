// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package replica

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/antipro/Sharelist-Reborn/internal/logging"
	"github.com/antipro/Sharelist-Reborn/internal/realtime"
)

// Client is one device's connection to the event channel. It sends
// fire-and-forget commands and folds every received event into its
// State, including echoes of its own mutations. Nothing is applied
// optimistically; the local state changes only when the server's event
// comes back.
type Client struct {
	conn  *websocket.Conn
	state *State
	undo  *UndoBuffer

	writeMu sync.Mutex

	events    chan string
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to a server's /ws endpoint. The caller appends a
// ?token= query parameter when the session should be bound to a
// verified identity.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}

	c := &Client{
		conn:   conn,
		state:  NewState(),
		undo:   NewUndoBuffer(0),
		events: make(chan string, 64),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// State returns the local replica.
func (c *Client) State() *State {
	return c.state
}

// Events emits the type of each event applied to the state, in arrival
// order. The channel is buffered; a slow consumer loses notifications
// but never stalls the reducer.
func (c *Client) Events() <-chan string {
	return c.events
}

// Done is closed when the read loop exits.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close shuts the connection down.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// Join binds this connection to a user and requests the initial snapshot.
func (c *Client) Join(userID string) error {
	return c.send(realtime.CommandJoinUser, realtime.JoinUserPayload{UserID: userID})
}

// CreateProject requests a new project. The project appears in State
// when the broadcast arrives.
func (c *Client) CreateProject(name string) error {
	return c.send(realtime.CommandCreateProject, realtime.CreateProjectPayload{Name: name})
}

// CreateItem requests a new item in a project.
func (c *Client) CreateItem(projectID, content string) error {
	return c.send(realtime.CommandCreateItem, realtime.CreateItemPayload{ProjectID: projectID, Content: content})
}

// ToggleItem flips an item's completed flag.
func (c *Client) ToggleItem(itemID string) error {
	return c.send(realtime.CommandToggleItem, realtime.ToggleItemPayload{ItemID: itemID})
}

// DeleteItem requests a deletion and arms the undo buffer with the
// item's current state, captured before the delete so a later restore
// carries the original entity verbatim.
func (c *Client) DeleteItem(itemID string) error {
	item, ok := c.state.Item(itemID)
	if !ok {
		return fmt.Errorf("item %s not in local state", itemID)
	}
	if err := c.send(realtime.CommandDeleteItem, realtime.DeleteItemPayload{ItemID: itemID}); err != nil {
		return err
	}
	c.undo.Push(item)
	return nil
}

// Undo restores the most recently deleted item if the window is still
// open. Returns false when there is nothing to restore.
func (c *Client) Undo() (bool, error) {
	item, ok := c.undo.Take()
	if !ok {
		return false, nil
	}
	payload := realtime.RestoreItemPayload{Item: realtime.RestoredItem{
		ID:        item.ID,
		ProjectID: item.ProjectID,
		Content:   item.Content,
		Completed: item.Completed,
		CreatedAt: item.CreatedAt,
	}}
	if err := c.send(realtime.CommandRestoreItem, payload); err != nil {
		return false, err
	}
	return true, nil
}

// send marshals and writes one command frame.
func (c *Client) send(commandType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", commandType, err)
	}
	frame, err := json.Marshal(realtime.Envelope{Type: commandType, Data: data})
	if err != nil {
		return fmt.Errorf("encoding %s envelope: %w", commandType, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("sending %s: %w", commandType, err)
	}
	return nil
}

// readLoop applies every received event to the local state.
func (c *Client) readLoop() {
	defer func() {
		close(c.done)
		_ = c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		env, err := realtime.UnmarshalEnvelope(data)
		if err != nil {
			logging.Warn().Err(err).Msg("dropping malformed event frame")
			continue
		}
		if err := c.state.Apply(env); err != nil {
			logging.Warn().Err(err).Str("event_type", env.Type).Msg("dropping unapplicable event")
			continue
		}

		select {
		case c.events <- env.Type:
		default:
		}
	}
}
