package api

import (
	"context"

	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// Client is everything the session layer needs from the arena server.
// Every call may block on the network and honours ctx cancellation.
type Client interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)
	Signup(ctx context.Context, username, password string) (SignupResult, error)
	Logout(ctx context.Context, token string) (Ack, error)

	Leaderboard(ctx context.Context) ([]LeaderboardEntry, error)
	SubmitScore(ctx context.Context, username string, score int) (Ack, error)

	ActiveGames(ctx context.Context) ([]GameSummary, error)
	GameState(ctx context.Context, id string) (GameSnapshot, error)

	StartGame(ctx context.Context, token string, mode snake.Mode, gridSize int) (string, error)
	PublishState(ctx context.Context, token, id string, snap snake.Snapshot) error
	FinishGame(ctx context.Context, token, id string, score int) error
}
