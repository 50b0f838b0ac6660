package session

import (
	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// View is the screen the session is currently on. It is a closed set: the
// concrete types below are the only implementations.
type View interface {
	isView()
}

// Unauthenticated is the login screen.
type Unauthenticated struct {
	Error   string
	Pending bool
}

// SigningUp is the registration screen.
type SigningUp struct {
	Error   string
	Pending bool
}

// GameResult summarises the last finished game shown on the menu.
type GameResult struct {
	Mode  snake.Mode
	Score int
}

// Menu is the main menu. LastResult is set right after a game ends.
type Menu struct {
	LastResult *GameResult
}

// Playing holds the running game. Game is owned by the tick scheduler and
// must only be read by renderers.
type Playing struct {
	Mode snake.Mode
	Game *snake.Game
}

// Leaderboard lists the top scores.
type Leaderboard struct {
	Entries []api.LeaderboardEntry
	Loading bool
	Err     string
}

// WatchList lists games that can be spectated.
type WatchList struct {
	Games   []api.GameSummary
	Loading bool
	Err     string
}

// Watching mirrors another player's game. Snapshot is nil until the first
// successful fetch; after a failed fetch the previous snapshot stays and
// Stale is set.
type Watching struct {
	GameID   string
	Snapshot *api.GameSnapshot
	Stale    bool
	Err      string
}

func (Unauthenticated) isView() {}
func (SigningUp) isView()       {}
func (Menu) isView()            {}
func (Playing) isView()         {}
func (Leaderboard) isView()     {}
func (WatchList) isView()       {}
func (Watching) isView()        {}

// ViewName returns a short stable name for logging and metrics.
func ViewName(v View) string {
	switch v.(type) {
	case Unauthenticated:
		return "unauthenticated"
	case SigningUp:
		return "signing_up"
	case Menu:
		return "menu"
	case Playing:
		return "playing"
	case Leaderboard:
		return "leaderboard"
	case WatchList:
		return "watch_list"
	case Watching:
		return "watching"
	default:
		return "unknown"
	}
}
