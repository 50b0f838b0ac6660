package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser inserts a new account. Usernames are unique case-insensitively;
// a duplicate returns ErrUserExists.
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, passwordHash,
	)
	if isUniqueViolation(err) {
		return User{}, fmt.Errorf("storage: create user %q: %w", username, ErrUserExists)
	}
	if err != nil {
		return User{}, fmt.Errorf("storage: cannot create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}, nil
}

// UserByName looks an account up by username.
func (s *Store) UserByName(ctx context.Context, username string) (User, error) {
	var u User
	var createdAt any
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("storage: user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("storage: cannot query user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}
