// Sharelist Reborn - Real-Time Multi-Device Task Lists
// Copyright 2026 antipro
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/antipro/Sharelist-Reborn

// Package auth implements account registration with email-code
// verification, login, profile updates, and the JWT session tokens that
// bind realtime sessions to user identities.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/antipro/Sharelist-Reborn/internal/database"
	"github.com/antipro/Sharelist-Reborn/internal/logging"
	"github.com/antipro/Sharelist-Reborn/internal/models"
)

// ErrInvalidCredentials is returned on login with a wrong email or
// password. The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid email or password")

// DefaultProjectName is the project created for every new account.
const DefaultProjectName = "Inbox"

// Store is the persistence surface the auth service needs. Both
// database.Postgres and database.Memory satisfy it.
type Store interface {
	CreateUser(ctx context.Context, user models.User, passwordHash string) error
	GetUserByEmail(ctx context.Context, email string) (models.User, string, error)
	UpdateUserSettings(ctx context.Context, id, timezone, language, theme string) (models.User, error)
	CreateProject(ctx context.Context, userID string, project models.Project) error
	UpsertCode(ctx context.Context, vc models.VerificationCode) error
	VerifyCode(ctx context.Context, email, code string, nowMillis int64) error
	DeleteCode(ctx context.Context, email string) error
}

// Service wires the store, the token manager, and verification policy.
type Service struct {
	store      Store
	jwt        *JWTManager
	bcryptCost int
	codeTTL    time.Duration
}

// NewService constructs the auth service.
func NewService(store Store, jwt *JWTManager, bcryptCost int, codeTTL time.Duration) *Service {
	return &Service{
		store:      store,
		jwt:        jwt,
		bcryptCost: bcryptCost,
		codeTTL:    codeTTL,
	}
}

// RequestCode issues a 6-digit verification code for the email, replacing
// any previously issued code. The code is returned to the caller; real
// mail delivery is out of scope, so the handler echoes it in the response
// the way the reference deployment does.
func (s *Service) RequestCode(ctx context.Context, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}

	vc := models.VerificationCode{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(s.codeTTL).UnixMilli(),
	}
	if err := s.store.UpsertCode(ctx, vc); err != nil {
		return "", err
	}

	// Stands in for SMTP delivery.
	logging.Info().Str("email", email).Str("code", code).Msg("verification code issued")
	return code, nil
}

// Register creates an account after verifying the emailed code. A default
// Inbox project is created alongside the account, and the code is
// consumed so it cannot be replayed.
func (s *Service) Register(ctx context.Context, email, code, username, password string) (models.AuthResponse, error) {
	if err := s.store.VerifyCode(ctx, email, code, time.Now().UnixMilli()); err != nil {
		return models.AuthResponse{}, err
	}

	hash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return models.AuthResponse{}, err
	}

	user := models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Username: username,
		Timezone: "UTC",
		Language: "en",
		Theme:    "dark",
	}
	if err := s.store.CreateUser(ctx, user, hash); err != nil {
		return models.AuthResponse{}, err
	}

	project := models.Project{
		ID:        uuid.New().String(),
		Name:      DefaultProjectName,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := s.store.CreateProject(ctx, user.ID, project); err != nil {
		return models.AuthResponse{}, err
	}

	if err := s.store.DeleteCode(ctx, email); err != nil {
		// The account exists; a stale code row is harmless. Log and move on.
		logging.Warn().Err(err).Str("email", email).Msg("failed to consume verification code")
	}

	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return models.AuthResponse{}, err
	}

	logging.Info().Str("user_id", user.ID).Msg("account registered")
	return models.AuthResponse{User: user, Token: token}, nil
}

// Login authenticates by email and password.
func (s *Service) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	user, hash, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.AuthResponse{}, ErrInvalidCredentials
		}
		return models.AuthResponse{}, err
	}

	if !CheckPassword(hash, password) {
		return models.AuthResponse{}, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID)
	if err != nil {
		return models.AuthResponse{}, err
	}
	return models.AuthResponse{User: user, Token: token}, nil
}

// UpdateProfile changes the mutable settings fields and returns the
// updated account.
func (s *Service) UpdateProfile(ctx context.Context, userID, timezone, language, theme string) (models.User, error) {
	return s.store.UpdateUserSettings(ctx, userID, timezone, language, theme)
}

// generateCode produces a 6-digit numeric code, zero-padded.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
