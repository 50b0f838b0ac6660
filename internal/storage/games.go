package storage

import (
	"context"
	"fmt"
	"time"
)

// End reasons recorded for finished live games.
const (
	EndFinished = "finished"
	EndStale    = "stale"
)

// GameRecord is a live game that has ended.
type GameRecord struct {
	ID         string
	Username   string
	Mode       string
	GridSize   int
	Score      int
	EndReason  string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the game was live.
func (r GameRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SaveGame stores a finished game. Saving the same id twice is an error.
func (s *Store) SaveGame(ctx context.Context, r GameRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games
		 (id, username, mode, grid_size, score, end_reason, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Username, r.Mode, r.GridSize, r.Score, r.EndReason,
		r.StartedAt.UnixMilli(), r.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save game %s: %w", r.ID, err)
	}
	return nil
}

// RecentGames returns the most recently finished games, newest first.
// An empty username matches every player.
func (s *Store) RecentGames(ctx context.Context, username string, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, mode, grid_size, score, end_reason, started_at, finished_at
		 FROM games
		 WHERE ? = '' OR username = ?
		 ORDER BY finished_at DESC
		 LIMIT ?`,
		username, username, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query games: %w", err)
	}
	defer rows.Close()

	var out []GameRecord
	for rows.Next() {
		var r GameRecord
		var started, finished int64
		if err := rows.Scan(&r.ID, &r.Username, &r.Mode, &r.GridSize, &r.Score,
			&r.EndReason, &started, &finished); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		r.FinishedAt = time.UnixMilli(finished)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}
