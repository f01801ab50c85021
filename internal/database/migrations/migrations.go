// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

// Package migrations embeds the goose SQL migrations for the store schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
