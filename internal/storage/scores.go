package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DefaultTopLimit is the leaderboard size when no limit is given.
const DefaultTopLimit = 10

// ScoreEntry represents a single leaderboard record.
type ScoreEntry struct {
	ID        int64
	Username  string
	Score     int
	CreatedAt time.Time
}

// SaveScore records a new score. Returns the ID of the inserted record.
func (s *Store) SaveScore(ctx context.Context, username string, score int) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO scores (username, score) VALUES (?, ?)",
		username, score,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopScores retrieves the top N scores across all players, highest first.
// Ties keep insertion order.
func (s *Store) TopScores(ctx context.Context, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, score, created_at
		 FROM scores
		 ORDER BY score DESC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Username, &e.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the best score of the given player.
// Returns 0 if the player has no scores.
func (s *Store) HighScore(ctx context.Context, username string) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(score) FROM scores WHERE username = ?",
		username,
	).Scan(&score)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// ClearScores deletes every leaderboard entry.
func (s *Store) ClearScores(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM scores")
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}
