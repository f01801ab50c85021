// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

// Package replica implements the client side of the event channel: a
// duplicate-safe reducer over broadcast events, a single-slot undo
// buffer, and a WebSocket client that keeps a local State converged with
// the server.
//
// The reducer's contract is idempotence and order tolerance. The server
// may deliver an event more than once across reconnects, and a snapshot
// may arrive after events it already includes; applying any delivered
// sequence must converge to the same state. Creations keep the first
// copy of an id and ignore the rest, updates replace only what exists,
// and deletions of absent ids are no-ops.
package replica

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/antipro/Sharelist-Reborn/internal/models"
	"github.com/antipro/Sharelist-Reborn/internal/realtime"
)

// DefaultProjectID is the active-project fallback when a snapshot
// carries no projects at all.
const DefaultProjectID = "inbox"

// State is a local replica of one user's projects and items. Collections
// preserve arrival order; display order for items is computed on read.
type State struct {
	mu sync.RWMutex

	projects []models.Project
	items    []models.TodoItem

	projectIDs map[string]bool
	itemIndex  map[string]int

	activeProjectID string
}

// NewState returns an empty replica.
func NewState() *State {
	return &State{
		projectIDs: make(map[string]bool),
		itemIndex:  make(map[string]int),
	}
}

// Apply folds one server event into the replica. Unknown event types are
// ignored so old clients survive new server events.
func (s *State) Apply(env realtime.Envelope) error {
	switch env.Type {
	case realtime.EventInitialData:
		var payload realtime.InitialDataPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return fmt.Errorf("decoding initial-data: %w", err)
		}
		s.applyInitialData(payload)

	case realtime.EventProjectCreated:
		var project models.Project
		if err := json.Unmarshal(env.Data, &project); err != nil {
			return fmt.Errorf("decoding project:created: %w", err)
		}
		s.applyProjectCreated(project)

	case realtime.EventItemCreated, realtime.EventItemRestored:
		var item models.TodoItem
		if err := json.Unmarshal(env.Data, &item); err != nil {
			return fmt.Errorf("decoding %s: %w", env.Type, err)
		}
		s.applyItemInserted(item)

	case realtime.EventItemUpdated:
		var item models.TodoItem
		if err := json.Unmarshal(env.Data, &item); err != nil {
			return fmt.Errorf("decoding item:updated: %w", err)
		}
		s.applyItemUpdated(item)

	case realtime.EventItemDeleted:
		var payload realtime.ItemDeletedPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return fmt.Errorf("decoding item:deleted: %w", err)
		}
		s.applyItemDeleted(payload.ItemID)
	}
	return nil
}

// applyInitialData replaces the replica with a snapshot. Duplicate ids
// inside the snapshot collapse to the first occurrence. The active
// project survives the reload when it still exists; otherwise it falls
// back to the first project, then to the default id.
func (s *State) applyInitialData(payload realtime.InitialDataPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.projects = s.projects[:0]
	s.items = s.items[:0]
	s.projectIDs = make(map[string]bool)
	s.itemIndex = make(map[string]int)

	for _, p := range payload.Projects {
		if s.projectIDs[p.ID] {
			continue
		}
		s.projectIDs[p.ID] = true
		s.projects = append(s.projects, p)
	}
	for _, item := range payload.Items {
		if _, ok := s.itemIndex[item.ID]; ok {
			continue
		}
		s.itemIndex[item.ID] = len(s.items)
		s.items = append(s.items, item)
	}

	if !s.projectIDs[s.activeProjectID] {
		if len(s.projects) > 0 {
			s.activeProjectID = s.projects[0].ID
		} else {
			s.activeProjectID = DefaultProjectID
		}
	}
}

// applyProjectCreated inserts a project once and selects it. A duplicate
// delivery still reselects, which is what the originating device expects.
func (s *State) applyProjectCreated(project models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.projectIDs[project.ID] {
		s.projectIDs[project.ID] = true
		s.projects = append(s.projects, project)
	}
	s.activeProjectID = project.ID
}

func (s *State) applyItemInserted(item models.TodoItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.itemIndex[item.ID]; ok {
		return
	}
	s.itemIndex[item.ID] = len(s.items)
	s.items = append(s.items, item)
}

func (s *State) applyItemUpdated(item models.TodoItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Replace-only: an update for an id the replica never saw (or already
	// deleted) must not resurrect it.
	if i, ok := s.itemIndex[item.ID]; ok {
		s.items[i] = item
	}
}

func (s *State) applyItemDeleted(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.itemIndex[itemID]
	if !ok {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.itemIndex, itemID)
	for j := i; j < len(s.items); j++ {
		s.itemIndex[s.items[j].ID] = j
	}
}

// Projects returns the project list in arrival order.
func (s *State) Projects() []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// ActiveProjectID returns the currently selected project id.
func (s *State) ActiveProjectID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeProjectID
}

// SetActiveProject selects a project explicitly, as the UI does when the
// user switches lists.
func (s *State) SetActiveProject(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeProjectID = projectID
}

// Item looks up an item by id.
func (s *State) Item(itemID string) (models.TodoItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.itemIndex[itemID]
	if !ok {
		return models.TodoItem{}, false
	}
	return s.items[i], true
}

// ItemsForProject returns the display-ordered view of a project's items:
// incomplete before completed, newest first within each group. The sort
// is recomputed from stored state on every call, so a toggled item moves
// between groups without any stored ordering to maintain.
func (s *State) ItemsForProject(projectID string) []models.TodoItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.TodoItem
	for _, item := range s.items {
		if item.ProjectID == projectID {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Completed != out[j].Completed {
			return !out[i].Completed
		}
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

// ItemCount returns the total number of items across all projects.
func (s *State) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
