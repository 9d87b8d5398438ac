package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

// CreateUser registers a new account. A taken username yields ErrAlreadyExists.
func (s *SQLite) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)
	`, u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, fmt.Errorf("store: create user %s: %w", username, apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("store: create user: %w", err)
	}
	return u, nil
}

// FindUserByUsername looks up an account by its login name.
func (s *SQLite) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE username = ?
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: find user: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: find user: %w", err)
	}
	return &u, nil
}

// UserExists reports whether id belongs to a registered account.
func (s *SQLite) UserExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.conn.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: user exists: %w", err)
	}
	return true, nil
}
