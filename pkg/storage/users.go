package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nippo-hq/nippo/pkg/auth"
)

// CreateUser inserts a new user record and returns its ID. Username and
// email uniqueness is enforced by the UNIQUE constraints on the table, not
// by a prior read, so two concurrent registrations of the same name cannot
// both succeed; the loser observes ErrConflict.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash, email string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password, email) VALUES (?, ?, ?)`,
		username, passwordHash, email)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: username or email already taken", ErrConflict)
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read user id: %w", err)
	}

	return id, nil
}

// GetUserByUsername returns the user with the given username, including the
// password hash for credential verification. Returns ErrNotFound if absent.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	user := &auth.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password, email, created_at FROM users WHERE username = ?`,
		username).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return user, nil
}

// SeedAdmin creates the default administrative account if no user with the
// given username exists yet. Idempotent across restarts.
func (s *Store) SeedAdmin(ctx context.Context, username, passwordHash, email string) (created bool, err error) {
	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = ?`, username).Scan(&id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to check for admin user: %w", err)
	}

	if _, err := s.CreateUser(ctx, username, passwordHash, email); err != nil {
		// A concurrent seed may have won the race; that still counts as seeded.
		if errors.Is(err, ErrConflict) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
