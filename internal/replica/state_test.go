// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package replica

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antipro/Sharelist-Reborn/internal/models"
	"github.com/antipro/Sharelist-Reborn/internal/realtime"
)

func envelope(t *testing.T, eventType string, data interface{}) realtime.Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return realtime.Envelope{Type: eventType, Data: raw}
}

func TestStateInitialData(t *testing.T) {
	t.Run("loads snapshot and selects first project", func(t *testing.T) {
		s := NewState()
		err := s.Apply(envelope(t, realtime.EventInitialData, realtime.InitialDataPayload{
			Projects: []models.Project{
				{ID: "p1", Name: "Inbox", CreatedAt: 100},
				{ID: "p2", Name: "Work", CreatedAt: 200},
			},
			Items: []models.TodoItem{
				{ID: "i1", ProjectID: "p1", Content: "first", CreatedAt: 150},
			},
		}))
		require.NoError(t, err)

		assert.Len(t, s.Projects(), 2)
		assert.Equal(t, "p1", s.ActiveProjectID())
		assert.Equal(t, 1, s.ItemCount())
	})

	t.Run("falls back to default id when snapshot is empty", func(t *testing.T) {
		s := NewState()
		require.NoError(t, s.Apply(envelope(t, realtime.EventInitialData, realtime.InitialDataPayload{})))
		assert.Equal(t, DefaultProjectID, s.ActiveProjectID())
	})

	t.Run("collapses duplicate ids keeping the first", func(t *testing.T) {
		s := NewState()
		require.NoError(t, s.Apply(envelope(t, realtime.EventInitialData, realtime.InitialDataPayload{
			Projects: []models.Project{
				{ID: "p1", Name: "first copy", CreatedAt: 100},
				{ID: "p1", Name: "second copy", CreatedAt: 100},
			},
			Items: []models.TodoItem{
				{ID: "i1", ProjectID: "p1", Content: "keep me", CreatedAt: 1},
				{ID: "i1", ProjectID: "p1", Content: "drop me", CreatedAt: 2},
			},
		})))

		projects := s.Projects()
		require.Len(t, projects, 1)
		assert.Equal(t, "first copy", projects[0].Name)

		item, ok := s.Item("i1")
		require.True(t, ok)
		assert.Equal(t, "keep me", item.Content)
	})

	t.Run("active project survives reload when still present", func(t *testing.T) {
		s := NewState()
		snapshot := realtime.InitialDataPayload{Projects: []models.Project{
			{ID: "p1", CreatedAt: 1},
			{ID: "p2", CreatedAt: 2},
		}}
		require.NoError(t, s.Apply(envelope(t, realtime.EventInitialData, snapshot)))
		s.SetActiveProject("p2")

		require.NoError(t, s.Apply(envelope(t, realtime.EventInitialData, snapshot)))
		assert.Equal(t, "p2", s.ActiveProjectID())
	})
}

func TestStateReducerIdempotence(t *testing.T) {
	events := []realtime.Envelope{}
	add := func(eventType string, data interface{}) {
		raw, _ := json.Marshal(data)
		events = append(events, realtime.Envelope{Type: eventType, Data: raw})
	}

	add(realtime.EventProjectCreated, models.Project{ID: "p1", Name: "Inbox", CreatedAt: 1})
	add(realtime.EventItemCreated, models.TodoItem{ID: "i1", ProjectID: "p1", Content: "a", CreatedAt: 10})
	add(realtime.EventItemCreated, models.TodoItem{ID: "i2", ProjectID: "p1", Content: "b", CreatedAt: 20})
	add(realtime.EventItemUpdated, models.TodoItem{ID: "i1", ProjectID: "p1", Content: "a", Completed: true, CreatedAt: 10})
	add(realtime.EventItemDeleted, realtime.ItemDeletedPayload{ItemID: "i2"})
	add(realtime.EventItemRestored, models.TodoItem{ID: "i2", ProjectID: "p1", Content: "b", CreatedAt: 20})

	apply := func(s *State, seq []realtime.Envelope) {
		for _, env := range seq {
			require.NoError(t, s.Apply(env))
		}
	}

	once := NewState()
	apply(once, events)

	// Applying the full sequence twice converges to the same state.
	twice := NewState()
	apply(twice, events)
	apply(twice, events)

	assert.Equal(t, once.Projects(), twice.Projects())
	assert.Equal(t, once.ItemsForProject("p1"), twice.ItemsForProject("p1"))

	// i1 kept its toggle only in the single-application replica; the
	// duplicated run re-delivered the same events, so the result must
	// still match (update events carry absolute state, not diffs).
	item, ok := twice.Item("i1")
	require.True(t, ok)
	assert.True(t, item.Completed)
}

func TestStateEventHandling(t *testing.T) {
	t.Run("project created auto-selects", func(t *testing.T) {
		s := NewState()
		require.NoError(t, s.Apply(envelope(t, realtime.EventProjectCreated, models.Project{ID: "p1", CreatedAt: 1})))
		require.NoError(t, s.Apply(envelope(t, realtime.EventProjectCreated, models.Project{ID: "p2", CreatedAt: 2})))
		assert.Equal(t, "p2", s.ActiveProjectID())
	})

	t.Run("duplicate item create keeps first copy", func(t *testing.T) {
		s := NewState()
		require.NoError(t, s.Apply(envelope(t, realtime.EventItemCreated, models.TodoItem{ID: "i1", ProjectID: "p1", Content: "original", CreatedAt: 1})))
		require.NoError(t, s.Apply(envelope(t, realtime.EventItemCreated, models.TodoItem{ID: "i1", ProjectID: "p1", Content: "duplicate", CreatedAt: 1})))

		item, ok := s.Item("i1")
		require.True(t, ok)
		assert.Equal(t, "original", item.Content)
		assert.Equal(t, 1, s.ItemCount())
	})

	t.Run("update for unknown id does not resurrect", func(t *testing.T) {
		s := NewState()
		require.NoError(t, s.Apply(envelope(t, realtime.EventItemUpdated, models.TodoItem{ID: "ghost", ProjectID: "p1", CreatedAt: 1})))
		assert.Equal(t, 0, s.ItemCount())
	})

	t.Run("delete of absent id is a no-op", func(t *testing.T) {
		s := NewState()
		require.NoError(t, s.Apply(envelope(t, realtime.EventItemDeleted, realtime.ItemDeletedPayload{ItemID: "ghost"})))
		assert.Equal(t, 0, s.ItemCount())
	})

	t.Run("restore after delete brings the item back unchanged", func(t *testing.T) {
		s := NewState()
		item := models.TodoItem{ID: "i1", ProjectID: "p1", Content: "keep", Completed: true, CreatedAt: 42}
		require.NoError(t, s.Apply(envelope(t, realtime.EventItemCreated, item)))
		require.NoError(t, s.Apply(envelope(t, realtime.EventItemDeleted, realtime.ItemDeletedPayload{ItemID: "i1"})))
		require.NoError(t, s.Apply(envelope(t, realtime.EventItemRestored, item)))

		got, ok := s.Item("i1")
		require.True(t, ok)
		assert.Equal(t, item, got)
	})

	t.Run("unknown event types are ignored", func(t *testing.T) {
		s := NewState()
		require.NoError(t, s.Apply(realtime.Envelope{Type: "future:event", Data: json.RawMessage(`{"x":1}`)}))
	})
}

func TestItemsForProjectOrdering(t *testing.T) {
	s := NewState()
	insert := func(id string, completed bool, createdAt int64) {
		require.NoError(t, s.Apply(envelope(t, realtime.EventItemCreated, models.TodoItem{
			ID: id, ProjectID: "p1", Content: id, Completed: completed, CreatedAt: createdAt,
		})))
	}

	insert("old-done", true, 10)
	insert("new-open", false, 40)
	insert("old-open", false, 20)
	insert("new-done", true, 30)

	items := s.ItemsForProject("p1")
	require.Len(t, items, 4)

	ids := []string{items[0].ID, items[1].ID, items[2].ID, items[3].ID}
	assert.Equal(t, []string{"new-open", "old-open", "new-done", "old-done"}, ids)

	// Toggling moves an item across the divide on the next read.
	toggled := models.TodoItem{ID: "new-open", ProjectID: "p1", Content: "new-open", Completed: true, CreatedAt: 40}
	require.NoError(t, s.Apply(envelope(t, realtime.EventItemUpdated, toggled)))

	items = s.ItemsForProject("p1")
	assert.Equal(t, "old-open", items[0].ID)
	assert.Equal(t, "new-open", items[1].ID)
}
