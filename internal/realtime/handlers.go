// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/antipro/Sharelist-Reborn/internal/logging"
	"github.com/antipro/Sharelist-Reborn/internal/metrics"
	"github.com/antipro/Sharelist-Reborn/internal/models"
)

// commandTimeout bounds how long a single mutation may hold the store.
const commandTimeout = 10 * time.Second

// Store is the persistence surface the mutation handlers need. Both
// database.Postgres and database.Memory satisfy it. Ownership checks are
// embedded in the guarded item statements so check and mutation are one
// atomic operation at the store.
type Store interface {
	CreateProject(ctx context.Context, userID string, project models.Project) error
	ProjectOwned(ctx context.Context, projectID, userID string) (bool, error)
	ListProjects(ctx context.Context, userID string) ([]models.Project, error)
	InsertItem(ctx context.Context, userID string, item models.TodoItem) error
	ToggleItem(ctx context.Context, userID, itemID string) (models.TodoItem, error)
	DeleteItem(ctx context.Context, userID, itemID string) error
	ListItems(ctx context.Context, userID string) ([]models.TodoItem, error)
}

// Handlers routes inbound commands: authorize, validate ownership,
// persist, then broadcast exactly one canonical event to the owner's
// room. Failures at any step are dropped silently toward the client —
// unauthenticated or unauthorized commands produce no error event, only
// a server-side log. The originating session learns of its own mutation
// from the broadcast like every sibling session, which is why client
// reducers must be duplicate-safe.
type Handlers struct {
	store Store
	hub   *Hub

	// Seams for deterministic tests.
	now   func() int64
	newID func() string
}

// NewHandlers constructs the command router.
func NewHandlers(store Store, hub *Hub) *Handlers {
	return &Handlers{
		store: store,
		hub:   hub,
		now:   func() int64 { return time.Now().UnixMilli() },
		newID: func() string { return uuid.New().String() },
	}
}

// Dispatch implements Dispatcher. It runs on the session's read
// goroutine; each command is handled to completion before the next frame
// from that session is read.
func (h *Handlers) Dispatch(session *Session, env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if env.Type == CommandJoinUser {
		h.handleJoin(ctx, session, env)
		return
	}

	// Fail closed: every mutation requires a bound identity. Unbound
	// commands are dropped without a reply so an unauthenticated probe
	// learns nothing.
	userID := h.hub.UserID(session)
	if userID == "" {
		metrics.CommandsDropped.WithLabelValues("unbound").Inc()
		logging.Warn().Str("command", env.Type).Msg("dropping command from unbound session")
		return
	}

	switch env.Type {
	case CommandCreateProject:
		h.handleCreateProject(ctx, userID, env)
	case CommandCreateItem:
		h.handleCreateItem(ctx, userID, env)
	case CommandToggleItem:
		h.handleToggleItem(ctx, userID, env)
	case CommandDeleteItem:
		h.handleDeleteItem(ctx, userID, env)
	case CommandRestoreItem:
		h.handleRestoreItem(ctx, userID, env)
	default:
		metrics.CommandsDropped.WithLabelValues("unknown").Inc()
		logging.Warn().Str("command", env.Type).Msg("dropping unknown command")
	}
}

// handleJoin binds the session to a room and unicasts a full snapshot to
// it. The rest of the room is not notified. A reconnecting client issues
// a fresh join; the snapshot is the system's only resynchronization
// mechanism.
func (h *Handlers) handleJoin(ctx context.Context, session *Session, env Envelope) {
	payload, err := decodePayload[JoinUserPayload](env.Data)
	if err != nil {
		metrics.CommandsDropped.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Msg("dropping invalid join command")
		return
	}

	// When the upgrade was authenticated, the session may only join as
	// that identity.
	if session.allowedUserID != "" && session.allowedUserID != payload.UserID {
		metrics.CommandsDropped.WithLabelValues("identity_mismatch").Inc()
		logging.Warn().
			Str("claimed_user_id", payload.UserID).
			Msg("dropping join for identity not matching session token")
		return
	}

	h.hub.Bind(session, payload.UserID)

	projects, err := h.store.ListProjects(ctx, payload.UserID)
	if err != nil {
		logging.Error().Err(err).Str("user_id", payload.UserID).Msg("loading projects for snapshot")
		return
	}
	items, err := h.store.ListItems(ctx, payload.UserID)
	if err != nil {
		logging.Error().Err(err).Str("user_id", payload.UserID).Msg("loading items for snapshot")
		return
	}

	if projects == nil {
		projects = []models.Project{}
	}
	if items == nil {
		items = []models.TodoItem{}
	}

	h.hub.SendToSession(session, Event{
		Type: EventInitialData,
		Data: InitialDataPayload{Projects: projects, Items: items},
	})
}

func (h *Handlers) handleCreateProject(ctx context.Context, userID string, env Envelope) {
	payload, err := decodePayload[CreateProjectPayload](env.Data)
	if err != nil {
		metrics.CommandsDropped.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Msg("dropping invalid create:project")
		return
	}

	project := models.Project{
		ID:        h.newID(),
		Name:      payload.Name,
		CreatedAt: h.now(),
	}
	if err := h.store.CreateProject(ctx, userID, project); err != nil {
		logging.Error().Err(err).Str("user_id", userID).Msg("persisting project failed")
		return
	}

	h.hub.BroadcastToUser(userID, Event{Type: EventProjectCreated, Data: project})
}

func (h *Handlers) handleCreateItem(ctx context.Context, userID string, env Envelope) {
	payload, err := decodePayload[CreateItemPayload](env.Data)
	if err != nil {
		metrics.CommandsDropped.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Msg("dropping invalid create:item")
		return
	}

	item := models.TodoItem{
		ID:        h.newID(),
		ProjectID: payload.ProjectID,
		Content:   payload.Content,
		Completed: false,
		CreatedAt: h.now(),
	}
	if err := h.store.InsertItem(ctx, userID, item); err != nil {
		// Covers both ownership mismatch and store failure; neither is
		// surfaced to the client.
		metrics.CommandsDropped.WithLabelValues("rejected").Inc()
		logging.Warn().Err(err).Str("user_id", userID).Str("project_id", payload.ProjectID).
			Msg("create:item not persisted")
		return
	}

	h.hub.BroadcastToUser(userID, Event{Type: EventItemCreated, Data: item})
}

func (h *Handlers) handleToggleItem(ctx context.Context, userID string, env Envelope) {
	payload, err := decodePayload[ToggleItemPayload](env.Data)
	if err != nil {
		metrics.CommandsDropped.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Msg("dropping invalid toggle:item")
		return
	}

	item, err := h.store.ToggleItem(ctx, userID, payload.ItemID)
	if err != nil {
		metrics.CommandsDropped.WithLabelValues("rejected").Inc()
		logging.Warn().Err(err).Str("user_id", userID).Str("item_id", payload.ItemID).
			Msg("toggle:item not persisted")
		return
	}

	h.hub.BroadcastToUser(userID, Event{Type: EventItemUpdated, Data: item})
}

// handleDeleteItem removes the item and broadcasts the deletion. The
// delete statement is an ownership-guarded no-op for absent or foreign
// ids, and the deletion event is broadcast regardless: item:deleted is
// idempotent at every reducer, so confirming a no-op delete is harmless
// and matches the reference behavior.
func (h *Handlers) handleDeleteItem(ctx context.Context, userID string, env Envelope) {
	payload, err := decodePayload[DeleteItemPayload](env.Data)
	if err != nil {
		metrics.CommandsDropped.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Msg("dropping invalid delete:item")
		return
	}

	if err := h.store.DeleteItem(ctx, userID, payload.ItemID); err != nil {
		logging.Error().Err(err).Str("user_id", userID).Str("item_id", payload.ItemID).
			Msg("delete:item not persisted")
		return
	}

	h.hub.BroadcastToUser(userID, Event{Type: EventItemDeleted, Data: ItemDeletedPayload{ItemID: payload.ItemID}})
}

// handleRestoreItem re-inserts a deleted item verbatim. Restore is a
// replay of a prior entity, not a new creation: the original id and
// createdAt are preserved, and the id is accepted for re-insertion
// because the delete removed it. A replayed restore hits the primary key
// and is dropped here; the reducers would have ignored the duplicate
// anyway.
func (h *Handlers) handleRestoreItem(ctx context.Context, userID string, env Envelope) {
	payload, err := decodePayload[RestoreItemPayload](env.Data)
	if err != nil {
		metrics.CommandsDropped.WithLabelValues("invalid").Inc()
		logging.Warn().Err(err).Msg("dropping invalid restore:item")
		return
	}

	item := payload.Item.TodoItem()
	owned, err := h.store.ProjectOwned(ctx, item.ProjectID, userID)
	if err != nil {
		logging.Error().Err(err).Str("user_id", userID).Msg("checking ownership for restore")
		return
	}
	if !owned {
		metrics.CommandsDropped.WithLabelValues("rejected").Inc()
		logging.Warn().Str("user_id", userID).Str("project_id", item.ProjectID).
			Msg("restore:item for foreign project")
		return
	}

	if err := h.store.InsertItem(ctx, userID, item); err != nil {
		// Most often a replayed restore hitting the primary key.
		metrics.CommandsDropped.WithLabelValues("rejected").Inc()
		logging.Warn().Err(err).Str("user_id", userID).Str("item_id", item.ID).
			Msg("restore:item not persisted")
		return
	}

	h.hub.BroadcastToUser(userID, Event{Type: EventItemRestored, Data: item})
}
