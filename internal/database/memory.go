// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package database

import (
	"context"
	"sync"

	"github.com/antipro/Sharelist-Reborn/internal/models"
)

// Memory is an in-process store backend with the same semantics as
// Postgres, used for development and tests. Collections preserve
// insertion order so list results match the SQL ORDER BY created_at ASC
// behavior (ids are inserted with monotonically non-decreasing
// timestamps in practice).
type Memory struct {
	mu sync.Mutex

	users  []memUser
	codes  map[string]models.VerificationCode
	owners map[string]string // project id -> user id

	projects []memProject
	items    []models.TodoItem
}

type memUser struct {
	user models.User
	hash string
}

type memProject struct {
	userID  string
	project models.Project
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		codes:  make(map[string]models.VerificationCode),
		owners: make(map[string]string),
	}
}

// Close is a no-op for the memory backend.
func (m *Memory) Close() error { return nil }

// CreateUser inserts a new account.
func (m *Memory) CreateUser(_ context.Context, user models.User, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.user.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	m.users = append(m.users, memUser{user: user, hash: passwordHash})
	return nil
}

// GetUserByEmail fetches an account and its password hash.
func (m *Memory) GetUserByEmail(_ context.Context, email string) (models.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.user.Email == email {
			return u.user, u.hash, nil
		}
	}
	return models.User{}, "", ErrNotFound
}

// GetUserByID fetches an account by id.
func (m *Memory) GetUserByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.user.ID == id {
			return u.user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// UpdateUserSettings changes the mutable profile fields.
func (m *Memory) UpdateUserSettings(_ context.Context, id, timezone, language, theme string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, u := range m.users {
		if u.user.ID == id {
			m.users[i].user.Timezone = timezone
			m.users[i].user.Language = language
			m.users[i].user.Theme = theme
			return m.users[i].user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// CreateProject inserts a project owned by userID.
func (m *Memory) CreateProject(_ context.Context, userID string, project models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.projects = append(m.projects, memProject{userID: userID, project: project})
	m.owners[project.ID] = userID
	return nil
}

// ProjectOwned reports whether projectID exists and belongs to userID.
func (m *Memory) ProjectOwned(_ context.Context, projectID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.owners[projectID] == userID, nil
}

// ListProjects returns all projects owned by userID in insertion order.
func (m *Memory) ListProjects(_ context.Context, userID string) ([]models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var projects []models.Project
	for _, p := range m.projects {
		if p.userID == userID {
			projects = append(projects, p.project)
		}
	}
	return projects, nil
}

// InsertItem persists a new or restored item after an ownership check.
func (m *Memory) InsertItem(_ context.Context, userID string, item models.TodoItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.owners[item.ProjectID] != userID {
		return ErrNotFound
	}
	for _, existing := range m.items {
		if existing.ID == item.ID {
			return ErrDuplicateID
		}
	}
	m.items = append(m.items, item)
	return nil
}

// ToggleItem flips completed on an owned item and returns the result.
func (m *Memory) ToggleItem(_ context.Context, userID, itemID string) (models.TodoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, item := range m.items {
		if item.ID == itemID && m.owners[item.ProjectID] == userID {
			m.items[i].Completed = !m.items[i].Completed
			return m.items[i], nil
		}
	}
	return models.TodoItem{}, ErrNotFound
}

// DeleteItem removes an owned item; absent ids are a no-op.
func (m *Memory) DeleteItem(_ context.Context, userID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, item := range m.items {
		if item.ID == itemID && m.owners[item.ProjectID] == userID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// ListItems returns every item in every project owned by userID.
func (m *Memory) ListItems(_ context.Context, userID string) ([]models.TodoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var items []models.TodoItem
	for _, item := range m.items {
		if m.owners[item.ProjectID] == userID {
			items = append(items, item)
		}
	}
	return items, nil
}

// UpsertCode stores the active verification code for an email address.
func (m *Memory) UpsertCode(_ context.Context, vc models.VerificationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.codes[vc.Email] = vc
	return nil
}

// VerifyCode checks that the stored code matches and has not expired.
func (m *Memory) VerifyCode(_ context.Context, email, code string, nowMillis int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	vc, ok := m.codes[email]
	if !ok || vc.Code != code || vc.ExpiresAt <= nowMillis {
		return ErrCodeInvalid
	}
	return nil
}

// DeleteCode consumes the code for an email.
func (m *Memory) DeleteCode(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.codes, email)
	return nil
}
