// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

// Package database implements the persistence store over four relations:
// users, projects, items, and verify_codes.
//
// Two backends are provided. Postgres is the durable production store,
// accessed through the pgx stdlib driver with goose-managed embedded
// migrations. Memory keeps everything in process and exists for
// development and tests.
//
// The store is the single source of truth: realtime mutation handlers
// persist here first and broadcast only after a successful write. Row
// atomicity of the guarded statements below (ownership joins, the toggle
// UPDATE) is the only concurrency control the system relies on.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/antipro/Sharelist-Reborn/internal/database/migrations"
	"github.com/antipro/Sharelist-Reborn/internal/logging"
)

var (
	// ErrNotFound is returned when a row does not exist or is not owned
	// by the requesting user. Callers must not distinguish the two cases;
	// ownership failures stay indistinguishable from absence.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when registering an email that
	// already has an account.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrCodeInvalid is returned when a verification code does not match
	// or has expired.
	ErrCodeInvalid = errors.New("invalid or expired verification code")

	// ErrDuplicateID is returned when inserting an item whose id already
	// exists, as a replayed restore does. Postgres raises a primary key
	// violation for the same condition.
	ErrDuplicateID = errors.New("id already exists")
)

// Postgres is the durable store backend.
type Postgres struct {
	db *sql.DB
}

// Open connects to PostgreSQL, verifies the connection, and runs any
// pending schema migrations.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logging.Info().Msg("database connected and migrated")
	return &Postgres{db: db}, nil
}

// runMigrations applies the embedded goose migrations.
func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
