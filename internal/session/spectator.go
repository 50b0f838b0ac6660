package session

import (
	"context"
	"time"

	"github.com/vovakirdan/snake-arena/internal/api"
)

// DefaultPollInterval is the delay between two spectator fetches.
const DefaultPollInterval = 400 * time.Millisecond

// Poll identifies one step of a spectator run.
type Poll struct {
	Generation uint64
	GameID     string
}

// SpectatorSync mirrors a remote game by fetching its state on a fixed
// cadence. Like TickScheduler it hands out effects instead of owning
// goroutines. Each Begin starts a new run with its own context; Stop cancels
// that context, so an in-flight request is aborted and its late result is
// recognised as stale.
type SpectatorSync struct {
	client     api.Client
	interval   time.Duration
	generation uint64
	gameID     string
	running    bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewSpectatorSync creates a stopped sync.
func NewSpectatorSync(client api.Client, interval time.Duration) *SpectatorSync {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &SpectatorSync{client: client, interval: interval}
}

// Interval returns the delay between fetches.
func (s *SpectatorSync) Interval() time.Duration {
	return s.interval
}

// Begin stops any current run and starts watching gameID. The returned
// effect fetches immediately.
func (s *SpectatorSync) Begin(parent context.Context, gameID string) Effect {
	s.Stop()
	s.generation++
	s.gameID = gameID
	s.running = true
	s.ctx, s.cancel = context.WithCancel(parent)
	return s.fetch(Poll{Generation: s.generation, GameID: gameID})
}

// Due handles a scheduled poll. It returns the fetch effect, or false when
// the poll belongs to a stopped run.
func (s *SpectatorSync) Due(p Poll) (Effect, bool) {
	if !s.current(p) {
		return Effect{}, false
	}
	return s.fetch(p), true
}

// Resolved handles a finished fetch. It reports whether the result should be
// shown and, if so, returns the effect that schedules the next poll.
func (s *SpectatorSync) Resolved(p Poll) (Effect, bool) {
	if !s.current(p) {
		return Effect{}, false
	}
	return Effect{
		Name:  "poll",
		Delay: s.interval,
		Run: func(context.Context) Event {
			return PollDue{Poll: p}
		},
	}, true
}

// Stop ends the current run. Polls and fetch results from it are ignored
// from now on.
func (s *SpectatorSync) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
}

// Running reports whether a game is being watched.
func (s *SpectatorSync) Running() bool {
	return s.running
}

// GameID returns the id of the watched game.
func (s *SpectatorSync) GameID() string {
	return s.gameID
}

func (s *SpectatorSync) current(p Poll) bool {
	return s.running && p.Generation == s.generation && p.GameID == s.gameID
}

func (s *SpectatorSync) fetch(p Poll) Effect {
	runCtx := s.ctx
	client := s.client
	return Effect{
		Name: "fetch-game",
		Run: func(ctx context.Context) Event {
			if err := runCtx.Err(); err != nil {
				return SnapshotFetched{Poll: p, Err: err}
			}
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			stop := context.AfterFunc(runCtx, cancel)
			defer stop()

			snap, err := client.GameState(ctx, p.GameID)
			return SnapshotFetched{Poll: p, Snapshot: snap, Err: err}
		},
	}
}
