// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package replica

import (
	"sync"
	"time"

	"github.com/antipro/Sharelist-Reborn/internal/models"
)

// DefaultUndoWindow is how long a deleted item stays restorable.
const DefaultUndoWindow = 3 * time.Second

// UndoBuffer holds the most recently deleted item for a short window.
// A single slot: a second deletion evicts the first, and the evicted
// item is gone for good. Taking the item clears the slot so an undo
// cannot be replayed.
type UndoBuffer struct {
	mu sync.Mutex

	item     models.TodoItem
	deadline time.Time
	filled   bool

	window time.Duration
	now    func() time.Time
}

// NewUndoBuffer creates a buffer with the given window. A zero window
// means DefaultUndoWindow.
func NewUndoBuffer(window time.Duration) *UndoBuffer {
	if window <= 0 {
		window = DefaultUndoWindow
	}
	return &UndoBuffer{
		window: window,
		now:    time.Now,
	}
}

// Push stores a deleted item, replacing whatever was there and restarting
// the window.
func (b *UndoBuffer) Push(item models.TodoItem) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.item = item
	b.deadline = b.now().Add(b.window)
	b.filled = true
}

// Take removes and returns the buffered item if the window is still open.
func (b *UndoBuffer) Take() (models.TodoItem, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.filled || b.now().After(b.deadline) {
		b.filled = false
		return models.TodoItem{}, false
	}
	item := b.item
	b.item = models.TodoItem{}
	b.filled = false
	return item, true
}

// Peek reports whether an undo is currently available without consuming it.
func (b *UndoBuffer) Peek() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filled && !b.now().After(b.deadline)
}
