// Package arena keeps the set of games that are being played right now so
// that other players can watch them. Games live only in memory; when a game
// ends, or stops publishing for too long, it is handed to a ResultSaver.
package arena

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// Errors returned by Arena methods.
var (
	ErrNotFound        = errors.New("arena: game not found")
	ErrForbidden       = errors.New("arena: game belongs to another player")
	ErrTooManyGames    = errors.New("arena: too many live games")
	ErrInvalidSnapshot = errors.New("arena: snapshot does not match game")
)

// End reasons passed to the ResultSaver.
const (
	EndFinished = "finished"
	EndStale    = "stale"
)

// Config holds arena limits.
type Config struct {
	StaleAfter      time.Duration // Games silent for this long are reaped
	ReapPeriod      time.Duration // How often the reaper runs
	MaxGamesPerUser int           // Concurrent live games per player
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		StaleAfter:      30 * time.Second,
		ReapPeriod:      10 * time.Second,
		MaxGamesPerUser: 3,
	}
}

// Game is a live game as seen by spectators.
type Game struct {
	ID        string
	Username  string
	Mode      snake.Mode
	GridSize  int
	Snapshot  snake.Snapshot
	StartedAt time.Time
	UpdatedAt time.Time
}

func (g *Game) clone() Game {
	c := *g
	c.Snapshot.Snake = slices.Clone(g.Snapshot.Snake)
	return c
}

// Result is a game that has left the arena.
type Result struct {
	ID         string
	Username   string
	Mode       snake.Mode
	GridSize   int
	Score      int
	EndReason  string
	StartedAt  time.Time
	FinishedAt time.Time
}

// ResultSaver persists ended games.
// This keeps the arena independent of the storage package.
type ResultSaver interface {
	SaveResult(ctx context.Context, r Result) error
}

// ResultSaverFunc adapts a function to ResultSaver.
type ResultSaverFunc func(ctx context.Context, r Result) error

// SaveResult calls f.
func (f ResultSaverFunc) SaveResult(ctx context.Context, r Result) error {
	return f(ctx, r)
}
