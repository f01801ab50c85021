// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/antipro/Sharelist-Reborn/internal/models"
)

// InsertItem persists a new or restored item. The guarded INSERT ... SELECT
// enforces project ownership in the same statement; ErrNotFound means the
// project does not exist or belongs to someone else. Restore passes an
// item carrying its original id and created_at, which is accepted as long
// as the id is no longer present.
func (p *Postgres) InsertItem(ctx context.Context, userID string, item models.TodoItem) error {
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO items (id, project_id, content, completed, created_at)
		 SELECT $1, p.id, $3, $4, $5
		 FROM projects p
		 WHERE p.id = $2 AND p.user_id = $6`,
		item.ID, item.ProjectID, item.Content, item.Completed, item.CreatedAt, userID)
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleItem flips completed on an owned item in a single atomic UPDATE
// and returns the resulting row. Concurrent toggles serialize at the row
// lock; the last commit wins.
func (p *Postgres) ToggleItem(ctx context.Context, userID, itemID string) (models.TodoItem, error) {
	var item models.TodoItem
	err := p.db.QueryRowContext(ctx,
		`UPDATE items i SET completed = NOT i.completed
		 FROM projects p
		 WHERE i.id = $1 AND i.project_id = p.id AND p.user_id = $2
		 RETURNING i.id, i.project_id, i.content, i.completed, i.created_at`,
		itemID, userID).
		Scan(&item.ID, &item.ProjectID, &item.Content, &item.Completed, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TodoItem{}, ErrNotFound
		}
		return models.TodoItem{}, fmt.Errorf("toggling item: %w", err)
	}
	return item, nil
}

// DeleteItem removes an owned item. Deleting an id that is absent (or not
// owned) is not an error; the delete event is idempotent on the client
// side and the reference implementation broadcasts regardless.
func (p *Postgres) DeleteItem(ctx context.Context, userID, itemID string) error {
	_, err := p.db.ExecContext(ctx,
		`DELETE FROM items i
		 USING projects p
		 WHERE i.id = $1 AND i.project_id = p.id AND p.user_id = $2`,
		itemID, userID)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// ListItems returns every item in every project owned by userID.
func (p *Postgres) ListItems(ctx context.Context, userID string) ([]models.TodoItem, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT i.id, i.project_id, i.content, i.completed, i.created_at
		 FROM items i
		 JOIN projects p ON i.project_id = p.id
		 WHERE p.user_id = $1
		 ORDER BY i.created_at ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []models.TodoItem
	for rows.Next() {
		var item models.TodoItem
		if err := rows.Scan(&item.ID, &item.ProjectID, &item.Content, &item.Completed, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}
