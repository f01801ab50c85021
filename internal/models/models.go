// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

// Package models defines the entities shared between the store, the
// realtime layer, and the HTTP API.
//
// Timestamps are Unix milliseconds to keep the wire format identical
// across server and clients; an item restored after deletion carries its
// original CreatedAt, so the value is data, not bookkeeping.
package models

// User is an account identity. The password hash never leaves the store
// layer and is deliberately absent here.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Timezone string `json:"timezone"`
	Language string `json:"language"`
	Theme    string `json:"theme"`
}

// Project is a named task list owned by exactly one user. Ownership is a
// store-side foreign key and is not part of the entity broadcast to
// clients.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

// TodoItem is a single task. IDs are globally unique across the whole
// system, not just within a project: client replicas deduplicate purely
// by ID with no project scoping.
type TodoItem struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
	CreatedAt int64  `json:"createdAt"`
}

// VerificationCode is the single active registration code for an email
// address. A new request overwrites any prior unexpired code; the record
// is consumed atomically with successful registration.
type VerificationCode struct {
	Email     string `json:"email"`
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expiresAt"`
}

// AuthResponse is the HTTP payload returned by register and login.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
