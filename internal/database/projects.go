// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package database

import (
	"context"
	"fmt"

	"github.com/antipro/Sharelist-Reborn/internal/models"
)

// CreateProject inserts a project owned by userID.
func (p *Postgres) CreateProject(ctx context.Context, userID string, project models.Project) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO projects (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		project.ID, userID, project.Name, project.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

// ProjectOwned reports whether projectID exists and belongs to userID.
func (p *Postgres) ProjectOwned(ctx context.Context, projectID, userID string) (bool, error) {
	var owned bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND user_id = $2)`,
		projectID, userID).Scan(&owned)
	if err != nil {
		return false, fmt.Errorf("checking project ownership: %w", err)
	}
	return owned, nil
}

// ListProjects returns all projects owned by userID, oldest first.
func (p *Postgres) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM projects WHERE user_id = $1 ORDER BY created_at ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var project models.Project
		if err := rows.Scan(&project.ID, &project.Name, &project.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}
