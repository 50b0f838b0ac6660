// Package api defines the request/response contract between the snake client
// and the arena server, and an HTTP implementation of the client side.
package api

import (
	"errors"
	"time"

	"github.com/vovakirdan/snake-arena/internal/core"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// ErrUnauthorized is returned when the server rejects the supplied token.
var ErrUnauthorized = errors.New("api: unauthorized")

// ErrNotFound is returned when the requested game does not exist.
var ErrNotFound = errors.New("api: not found")

// Credentials is the body of login and sign-up requests.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the outcome of a login attempt. A rejected login is not a
// transport error: Success is false and Error carries the message to show.
type LoginResult struct {
	Success  bool   `json:"success"`
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SignupResult is the outcome of a sign-up attempt. It never carries a token.
type SignupResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Ack is a bare acknowledgement.
type Ack struct {
	Success bool `json:"success"`
}

// LeaderboardEntry is one row of the leaderboard, already ordered by the server.
type LeaderboardEntry struct {
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// ScoreSubmission is the body of POST /api/leaderboard.
type ScoreSubmission struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// GameSummary describes a live game that can be watched.
type GameSummary struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Mode     snake.Mode `json:"mode"`
}

// GameSnapshot is the remote view of someone else's game.
type GameSnapshot struct {
	Username  string       `json:"username"`
	Mode      snake.Mode   `json:"mode"`
	Score     int          `json:"score"`
	Snake     []core.Point `json:"snake"`
	Food      core.Point   `json:"food"`
	GridSize  int          `json:"grid_size"`
	Tick      uint64       `json:"tick"`
	Alive     bool         `json:"alive"`
	UpdatedAt time.Time    `json:"updated_at,omitzero"`
}

// StartGameRequest registers a new live game.
type StartGameRequest struct {
	Mode     snake.Mode `json:"mode"`
	GridSize int        `json:"grid_size"`
}

// StartGameResponse carries the id of a freshly registered game.
type StartGameResponse struct {
	ID string `json:"id"`
}

// FinishGameRequest closes a live game.
type FinishGameRequest struct {
	Score int `json:"score"`
}

// UserResponse is returned by GET /api/user.
type UserResponse struct {
	Username string `json:"username"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HistoryEntry is a finished live game, as returned by GET /api/history.
type HistoryEntry struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Mode       snake.Mode `json:"mode"`
	Score      int        `json:"score"`
	EndReason  string     `json:"end_reason"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	LiveGames int    `json:"live_games"`
}
