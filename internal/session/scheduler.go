package session

import (
	"time"

	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// DefaultTickPeriod is the interval between simulation steps.
const DefaultTickPeriod = 120 * time.Millisecond

// Tick is a request to step the game once. Ticks from an earlier Start are
// recognised by their generation and ignored.
type Tick struct {
	Generation uint64
}

// TickScheduler drives one game at a fixed period. It never owns a timer:
// Start and Fire hand back the next Tick and the host delivers it after
// Period. Stop invalidates every tick already handed out.
type TickScheduler struct {
	period     time.Duration
	game       *snake.Game
	generation uint64
	running    bool
	onGameOver func(score int)
}

// NewTickScheduler creates a stopped scheduler.
func NewTickScheduler(period time.Duration) *TickScheduler {
	if period <= 0 {
		period = DefaultTickPeriod
	}
	return &TickScheduler{period: period}
}

// Period returns the interval between ticks.
func (s *TickScheduler) Period() time.Duration {
	return s.period
}

// Start begins driving game and returns the first tick. Any previous game is
// dropped without its callback firing. onGameOver is called exactly once, with
// the final score, when a step ends the game.
func (s *TickScheduler) Start(game *snake.Game, onGameOver func(score int)) Tick {
	s.generation++
	s.game = game
	s.onGameOver = onGameOver
	s.running = true
	return Tick{Generation: s.generation}
}

// Fire steps the game for tick t. It returns the next tick and true while the
// game continues. Stale ticks, a stopped scheduler and a finished game return
// false.
func (s *TickScheduler) Fire(t Tick) (Tick, bool) {
	if !s.running || t.Generation != s.generation {
		return Tick{}, false
	}

	res := s.game.Step()
	if res.State.GameOver {
		cb := s.onGameOver
		s.Stop()
		if cb != nil {
			cb(res.State.Score)
		}
		return Tick{}, false
	}
	return Tick{Generation: s.generation}, true
}

// Stop halts the scheduler. It is safe to call at any time.
func (s *TickScheduler) Stop() {
	s.generation++
	s.running = false
	s.onGameOver = nil
}

// Running reports whether a game is being driven.
func (s *TickScheduler) Running() bool {
	return s.running
}

// Game returns the current (or last) game.
func (s *TickScheduler) Game() *snake.Game {
	return s.game
}
