package session

import (
	"context"
	"time"

	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// Event is an input to the state machine: a user action or the result of an
// effect.
type Event interface {
	isEvent()
}

// Effect is work the machine asks its host to perform outside Dispatch.
// The host waits Delay, calls Run and dispatches the returned event (if any)
// back into the machine. Run never touches machine state.
type Effect struct {
	Name  string
	Delay time.Duration
	Run   func(ctx context.Context) Event
}

// User actions.
type (
	LoginSubmitted  struct{ Username, Password string }
	SignupChosen    struct{}
	SignupSubmitted struct{ Username, Password string }
	// Back leaves SigningUp for the login screen and Watching for the watch list.
	Back            struct{}
	SelectMode      struct{ Mode snake.Mode }
	Steer           struct{ Key string }
	Abandon         struct{}
	Logout          struct{}
	ViewLeaderboard struct{}
	WatchPlayers    struct{}
	PickGame        struct{ ID string }
	BackToMenu      struct{}
	Retry           struct{}
)

// Effect results.
type (
	LoginCompleted struct {
		Username string
		Result   api.LoginResult
		Err      error
	}
	SignupCompleted struct {
		Username string
		Result   api.SignupResult
		Err      error
	}
	TickFired         struct{ Tick Tick }
	LeaderboardLoaded struct {
		Request uint64
		Entries []api.LeaderboardEntry
		Err     error
	}
	ActiveGamesLoaded struct {
		Request uint64
		Games   []api.GameSummary
		Err     error
	}
	PollDue         struct{ Poll Poll }
	SnapshotFetched struct {
		Poll     Poll
		Snapshot api.GameSnapshot
		Err      error
	}
	GameRegistered struct {
		Generation uint64
		ID         string
		Err        error
	}
	// RemoteFailed reports a fire-and-forget call that did not succeed.
	RemoteFailed struct {
		Op  string
		Err error
	}
)

func (LoginSubmitted) isEvent()    {}
func (SignupChosen) isEvent()      {}
func (SignupSubmitted) isEvent()   {}
func (Back) isEvent()              {}
func (SelectMode) isEvent()        {}
func (Steer) isEvent()             {}
func (Abandon) isEvent()           {}
func (Logout) isEvent()            {}
func (ViewLeaderboard) isEvent()   {}
func (WatchPlayers) isEvent()      {}
func (PickGame) isEvent()          {}
func (BackToMenu) isEvent()        {}
func (Retry) isEvent()             {}
func (LoginCompleted) isEvent()    {}
func (SignupCompleted) isEvent()   {}
func (TickFired) isEvent()         {}
func (LeaderboardLoaded) isEvent() {}
func (ActiveGamesLoaded) isEvent() {}
func (PollDue) isEvent()           {}
func (SnapshotFetched) isEvent()   {}
func (GameRegistered) isEvent()    {}
func (RemoteFailed) isEvent()      {}
