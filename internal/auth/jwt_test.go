// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTManager(t *testing.T) {
	t.Run("short secret is rejected", func(t *testing.T) {
		_, err := NewJWTManager("short", time.Hour)
		assert.Error(t, err)
	})

	t.Run("round trip", func(t *testing.T) {
		m, err := NewJWTManager(testSecret, time.Hour)
		require.NoError(t, err)

		token, err := m.GenerateToken("u1")
		require.NoError(t, err)

		claims, err := m.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		m, err := NewJWTManager(testSecret, -time.Minute)
		require.NoError(t, err)

		token, err := m.GenerateToken("u1")
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		m1, err := NewJWTManager(testSecret, time.Hour)
		require.NoError(t, err)
		m2, err := NewJWTManager("ffffffffffffffffffffffffffffffff", time.Hour)
		require.NoError(t, err)

		token, err := m1.GenerateToken("u1")
		require.NoError(t, err)

		_, err = m2.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("non-HMAC signing method is rejected", func(t *testing.T) {
		m, err := NewJWTManager(testSecret, time.Hour)
		require.NoError(t, err)

		// alg=none with an empty signature must never validate.
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1"})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		m, err := NewJWTManager(testSecret, time.Hour)
		require.NoError(t, err)
		_, err = m.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
	assert.False(t, CheckPassword("not-a-hash", "hunter22"))
}
