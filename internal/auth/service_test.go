// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antipro/Sharelist-Reborn/internal/database"
)

func newTestService(t *testing.T) (*Service, *database.Memory) {
	t.Helper()

	jwtManager, err := NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)

	store := database.NewMemory()
	// bcrypt.MinCost keeps the hashing fast in tests.
	return NewService(store, jwtManager, 4, 2*time.Hour), store
}

// registerAccount walks the full code-then-register flow.
func registerAccount(t *testing.T, svc *Service, email string) string {
	t.Helper()
	ctx := context.Background()

	code, err := svc.RequestCode(ctx, email)
	require.NoError(t, err)

	resp, err := svc.Register(ctx, email, code, "alice", "hunter22")
	require.NoError(t, err)
	return resp.User.ID
}

func TestRequestCode(t *testing.T) {
	svc, _ := newTestService(t)

	code, err := svc.RequestCode(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Len(t, code, 6)

	// A second request replaces the first; only the new code registers.
	code2, err := svc.RequestCode(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Len(t, code2, 6)

	if code != code2 {
		_, err = svc.Register(context.Background(), "a@example.com", code, "alice", "hunter22")
		assert.ErrorIs(t, err, database.ErrCodeInvalid)
	}
}

func TestRegister(t *testing.T) {
	t.Run("creates account with defaults and inbox project", func(t *testing.T) {
		svc, store := newTestService(t)
		ctx := context.Background()

		code, err := svc.RequestCode(ctx, "a@example.com")
		require.NoError(t, err)

		resp, err := svc.Register(ctx, "a@example.com", code, "alice", "hunter22")
		require.NoError(t, err)

		assert.NotEmpty(t, resp.User.ID)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "UTC", resp.User.Timezone)
		assert.Equal(t, "en", resp.User.Language)
		assert.Equal(t, "dark", resp.User.Theme)

		projects, err := store.ListProjects(ctx, resp.User.ID)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		assert.Equal(t, DefaultProjectName, projects[0].Name)
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		ctx := context.Background()

		_, err := svc.RequestCode(ctx, "a@example.com")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "a@example.com", "000000", "alice", "hunter22")
		assert.ErrorIs(t, err, database.ErrCodeInvalid)
	})

	t.Run("code is consumed on success", func(t *testing.T) {
		svc, _ := newTestService(t)
		ctx := context.Background()

		code, err := svc.RequestCode(ctx, "a@example.com")
		require.NoError(t, err)
		_, err = svc.Register(ctx, "a@example.com", code, "alice", "hunter22")
		require.NoError(t, err)

		_, err = svc.Register(ctx, "a@example.com", code, "alice2", "hunter22")
		assert.ErrorIs(t, err, database.ErrCodeInvalid)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		ctx := context.Background()
		registerAccount(t, svc, "a@example.com")

		code, err := svc.RequestCode(ctx, "a@example.com")
		require.NoError(t, err)
		_, err = svc.Register(ctx, "a@example.com", code, "clone", "hunter22")
		assert.ErrorIs(t, err, database.ErrDuplicateEmail)
	})
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	userID := registerAccount(t, svc, "a@example.com")
	ctx := context.Background()

	t.Run("correct password", func(t *testing.T) {
		resp, err := svc.Login(ctx, "a@example.com", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, userID, resp.User.ID)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		_, err1 := svc.Login(ctx, "a@example.com", "wrong")
		_, err2 := svc.Login(ctx, "missing@example.com", "hunter22")
		assert.ErrorIs(t, err1, ErrInvalidCredentials)
		assert.ErrorIs(t, err2, ErrInvalidCredentials)
	})
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)
	userID := registerAccount(t, svc, "a@example.com")

	user, err := svc.UpdateProfile(context.Background(), userID, "Asia/Shanghai", "zh", "light")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", user.Timezone)
	assert.Equal(t, "zh", user.Language)
	assert.Equal(t, "light", user.Theme)

	_, err = svc.UpdateProfile(context.Background(), "missing", "UTC", "en", "dark")
	assert.ErrorIs(t, err, database.ErrNotFound)
}
