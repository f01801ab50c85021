// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

// Package realtime implements the event channel, the session/room
// registry, and the server-side mutation handlers.
//
// Every frame on the wire is a JSON envelope {"type": ..., "data": ...}.
// Inbound commands are decoded into tagged variants with a fixed schema
// per tag and validated at this boundary, so malformed payloads never
// reach a mutation handler. Outbound events carry the canonical entity
// produced by a successful persist.
package realtime

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/antipro/Sharelist-Reborn/internal/models"
	"github.com/antipro/Sharelist-Reborn/internal/validation"
)

// Command types (client to server). Commands are fire-and-forget: their
// effects arrive only as broadcast events.
const (
	CommandJoinUser      = "join:user"
	CommandCreateProject = "create:project"
	CommandCreateItem    = "create:item"
	CommandToggleItem    = "toggle:item"
	CommandDeleteItem    = "delete:item"
	CommandRestoreItem   = "restore:item"
)

// Event types (server to client). initial-data is unicast to the joining
// session; everything else is broadcast to the whole room.
const (
	EventInitialData    = "initial-data"
	EventProjectCreated = "project:created"
	EventItemCreated    = "item:created"
	EventItemUpdated    = "item:updated"
	EventItemDeleted    = "item:deleted"
	EventItemRestored   = "item:restored"
)

// Event is an outbound envelope.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Envelope is an inbound frame whose payload is decoded according to Type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// JoinUserPayload binds the session to a user identity.
type JoinUserPayload struct {
	UserID string `json:"userId" validate:"required,max=64"`
}

// CreateProjectPayload requests a new project.
type CreateProjectPayload struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CreateItemPayload requests a new item in a project.
type CreateItemPayload struct {
	ProjectID string `json:"projectId" validate:"required,max=64"`
	Content   string `json:"content" validate:"required,max=2000"`
}

// ToggleItemPayload flips an item's completed flag.
type ToggleItemPayload struct {
	ItemID string `json:"itemId" validate:"required,max=64"`
}

// DeleteItemPayload removes an item.
type DeleteItemPayload struct {
	ItemID string `json:"itemId" validate:"required,max=64"`
}

// RestoreItemPayload re-inserts a previously deleted item verbatim. The
// full entity travels with the command because the server no longer has
// it; id and createdAt are the original values, not fresh ones.
type RestoreItemPayload struct {
	Item RestoredItem `json:"item"`
}

// RestoredItem mirrors models.TodoItem with boundary validation tags.
type RestoredItem struct {
	ID        string `json:"id" validate:"required,max=64"`
	ProjectID string `json:"projectId" validate:"required,max=64"`
	Content   string `json:"content" validate:"required,max=2000"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"createdAt" validate:"required"`
}

// TodoItem converts the validated payload back to the shared entity.
func (r RestoredItem) TodoItem() models.TodoItem {
	return models.TodoItem{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		Content:   r.Content,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt,
	}
}

// InitialDataPayload is the full snapshot unicast on join.
type InitialDataPayload struct {
	Projects []models.Project  `json:"projects"`
	Items    []models.TodoItem `json:"items"`
}

// ItemDeletedPayload identifies a removed item. Only the id travels; the
// entity is gone.
type ItemDeletedPayload struct {
	ItemID string `json:"itemId"`
}

// decodePayload unmarshals and validates a tagged payload.
func decodePayload[T any](raw json.RawMessage) (T, error) {
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("decoding payload: %w", err)
	}
	if verr := validation.ValidateStruct(&payload); verr != nil {
		return payload, fmt.Errorf("validating payload: %w", verr)
	}
	return payload, nil
}

// MarshalEvent encodes an outbound envelope.
func MarshalEvent(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// UnmarshalEnvelope decodes an inbound frame without touching the payload.
func UnmarshalEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("envelope has no type")
	}
	return env, nil
}
