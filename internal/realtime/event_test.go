// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package realtime

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalEnvelope(t *testing.T) {
	t.Run("valid frame", func(t *testing.T) {
		env, err := UnmarshalEnvelope([]byte(`{"type":"create:item","data":{"projectId":"p1","content":"milk"}}`))
		require.NoError(t, err)
		assert.Equal(t, CommandCreateItem, env.Type)
		assert.NotEmpty(t, env.Data)
	})

	t.Run("missing type is rejected", func(t *testing.T) {
		_, err := UnmarshalEnvelope([]byte(`{"data":{}}`))
		assert.Error(t, err)
	})

	t.Run("invalid json is rejected", func(t *testing.T) {
		_, err := UnmarshalEnvelope([]byte(`{"type":`))
		assert.Error(t, err)
	})
}

func TestDecodePayload(t *testing.T) {
	t.Run("valid create item", func(t *testing.T) {
		payload, err := decodePayload[CreateItemPayload](json.RawMessage(`{"projectId":"p1","content":"milk"}`))
		require.NoError(t, err)
		assert.Equal(t, "p1", payload.ProjectID)
		assert.Equal(t, "milk", payload.Content)
	})

	t.Run("missing required field fails validation", func(t *testing.T) {
		_, err := decodePayload[CreateItemPayload](json.RawMessage(`{"projectId":"p1"}`))
		assert.Error(t, err)
	})

	t.Run("oversized content fails validation", func(t *testing.T) {
		long := make([]byte, 2001)
		for i := range long {
			long[i] = 'x'
		}
		raw, err := json.Marshal(CreateItemPayload{ProjectID: "p1", Content: string(long)})
		require.NoError(t, err)

		_, err = decodePayload[CreateItemPayload](raw)
		assert.Error(t, err)
	})

	t.Run("restore payload validates nested item", func(t *testing.T) {
		_, err := decodePayload[RestoreItemPayload](json.RawMessage(`{"item":{"id":"i1","projectId":"p1","content":"","createdAt":5}}`))
		assert.Error(t, err)

		payload, err := decodePayload[RestoreItemPayload](json.RawMessage(`{"item":{"id":"i1","projectId":"p1","content":"milk","completed":true,"createdAt":5}}`))
		require.NoError(t, err)
		item := payload.Item.TodoItem()
		assert.Equal(t, "i1", item.ID)
		assert.True(t, item.Completed)
		assert.Equal(t, int64(5), item.CreatedAt)
	})
}

func TestMarshalEventWireFormat(t *testing.T) {
	data, err := MarshalEvent(Event{Type: EventItemDeleted, Data: ItemDeletedPayload{ItemID: "i9"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"item:deleted","data":{"itemId":"i9"}}`, string(data))
}
