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

// CreateUser inserts a new account. Returns ErrDuplicateEmail when the
// email already has an account.
func (p *Postgres) CreateUser(ctx context.Context, user models.User, passwordHash string) error {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, user.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking existing email: %w", err)
	}
	if exists {
		return ErrDuplicateEmail
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash, timezone, language, theme)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.Username, passwordHash, user.Timezone, user.Language, user.Theme)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetUserByEmail fetches an account and its password hash for login.
func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (models.User, string, error) {
	var user models.User
	var hash string
	err := p.db.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, timezone, language, theme
		 FROM users WHERE email = $1`, email).
		Scan(&user.ID, &user.Email, &user.Username, &hash, &user.Timezone, &user.Language, &user.Theme)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, "", ErrNotFound
		}
		return models.User{}, "", fmt.Errorf("querying user by email: %w", err)
	}
	return user, hash, nil
}

// GetUserByID fetches an account by id.
func (p *Postgres) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := p.db.QueryRowContext(ctx,
		`SELECT id, email, username, timezone, language, theme
		 FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Email, &user.Username, &user.Timezone, &user.Language, &user.Theme)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("querying user by id: %w", err)
	}
	return user, nil
}

// UpdateUserSettings changes the mutable profile fields and returns the
// updated account.
func (p *Postgres) UpdateUserSettings(ctx context.Context, id, timezone, language, theme string) (models.User, error) {
	var user models.User
	err := p.db.QueryRowContext(ctx,
		`UPDATE users SET timezone = $2, language = $3, theme = $4
		 WHERE id = $1
		 RETURNING id, email, username, timezone, language, theme`,
		id, timezone, language, theme).
		Scan(&user.ID, &user.Email, &user.Username, &user.Timezone, &user.Language, &user.Theme)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("updating user settings: %w", err)
	}
	return user, nil
}
