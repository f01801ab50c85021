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

// UpsertCode stores the active verification code for an email address,
// replacing any prior code whether or not it has expired.
func (p *Postgres) UpsertCode(ctx context.Context, vc models.VerificationCode) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO verify_codes (email, code, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at`,
		vc.Email, vc.Code, vc.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upserting verification code: %w", err)
	}
	return nil
}

// VerifyCode checks that the stored code matches and has not expired at
// nowMillis. Returns ErrCodeInvalid on mismatch or expiry.
func (p *Postgres) VerifyCode(ctx context.Context, email, code string, nowMillis int64) error {
	var matched bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM verify_codes
		   WHERE email = $1 AND code = $2 AND expires_at > $3
		 )`, email, code, nowMillis).Scan(&matched)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("verifying code: %w", err)
	}
	if !matched {
		return ErrCodeInvalid
	}
	return nil
}

// DeleteCode consumes the code for an email after successful registration.
func (p *Postgres) DeleteCode(ctx context.Context, email string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM verify_codes WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("deleting verification code: %w", err)
	}
	return nil
}
