package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Session is an issued login token, identified by the token's unique id.
type Session struct {
	ID        string
	Username  string
	ExpiresAt time.Time
	Revoked   bool
}

// CreateSession records a newly issued token.
func (s *Store) CreateSession(ctx context.Context, id, username string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, username, expires_at) VALUES (?, ?, ?)",
		id, username, expiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot create session: %w", err)
	}
	return nil
}

// ActiveSession returns the session if it exists, is not revoked and has not
// expired at now. Anything else is ErrNotFound.
func (s *Store) ActiveSession(ctx context.Context, id string, now time.Time) (Session, error) {
	var sess Session
	var expires int64
	var revoked int
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, expires_at, revoked FROM sessions WHERE id = ?",
		id,
	).Scan(&sess.ID, &sess.Username, &expires, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("storage: session: %w", ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("storage: cannot query session: %w", err)
	}
	sess.ExpiresAt = time.Unix(expires, 0)
	sess.Revoked = revoked != 0
	if sess.Revoked || !now.Before(sess.ExpiresAt) {
		return Session{}, fmt.Errorf("storage: session inactive: %w", ErrNotFound)
	}
	return sess, nil
}

// RevokeSession invalidates a token. Revoking an unknown id returns ErrNotFound.
func (s *Store) RevokeSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE sessions SET revoked = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("storage: cannot revoke session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: cannot revoke session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storage: revoke session: %w", ErrNotFound)
	}
	return nil
}

// PurgeSessions deletes expired and revoked sessions and returns how many
// were removed.
func (s *Store) PurgeSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE revoked = 1 OR expires_at <= ?",
		now.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot purge sessions: %w", err)
	}
	return n, nil
}
