package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsAdmin      bool
	Active       bool
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.Pool.QueryRow(ctx,
		"SELECT id, email, password_hash, is_admin, active FROM _users WHERE email = $1", email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// UpsertUser creates or updates a user by email. Used by the bootstrap command.
func (s *Store) UpsertUser(ctx context.Context, email, passwordHash string, isAdmin bool) (created bool, err error) {
	_, err = s.GetUserByEmail(ctx, email)
	exists := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}

	_, err = s.Pool.Exec(ctx,
		`INSERT INTO _users (email, password_hash, is_admin)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, is_admin = EXCLUDED.is_admin, updated_at = NOW()`,
		email, passwordHash, isAdmin)
	if err != nil {
		return false, fmt.Errorf("upsert user: %w", err)
	}
	return !exists, nil
}
