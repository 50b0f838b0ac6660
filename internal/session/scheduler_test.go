package session

import (
	"testing"
	"time"

	"github.com/vovakirdan/snake-arena/internal/core"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

func lineGame(mode snake.Mode, headX int) *snake.Game {
	cfg := core.DefaultConfig()
	cfg.Seed = 1
	return snake.Initialize(mode, cfg, []core.Point{{X: headX, Y: 7}}, core.Point{X: 0, Y: 0}, core.DirRight)
}

func TestSchedulerDefaultPeriod(t *testing.T) {
	if got := NewTickScheduler(0).Period(); got != DefaultTickPeriod {
		t.Errorf("period = %v, want %v", got, DefaultTickPeriod)
	}
	if got := NewTickScheduler(50 * time.Millisecond).Period(); got != 50*time.Millisecond {
		t.Errorf("period = %v", got)
	}
}

func TestSchedulerStepsOncePerTick(t *testing.T) {
	s := NewTickScheduler(0)
	g := lineGame(snake.ModeWalls, 7)
	tick := s.Start(g, func(int) { t.Fatal("unexpected game over") })

	for i := 1; i <= 3; i++ {
		var ok bool
		tick, ok = s.Fire(tick)
		if !ok {
			t.Fatalf("tick %d stopped the scheduler", i)
		}
		if g.Tick() != uint64(i) {
			t.Fatalf("game tick = %d, want %d", g.Tick(), i)
		}
	}
}

func TestSchedulerGameOverCallbackOnce(t *testing.T) {
	s := NewTickScheduler(0)
	g := lineGame(snake.ModeWalls, 13)

	calls := 0
	final := -1
	tick := s.Start(g, func(score int) {
		calls++
		final = score
	})

	tick, ok := s.Fire(tick) // {14,7}
	if !ok {
		t.Fatal("scheduler stopped early")
	}
	last := tick
	if _, ok := s.Fire(tick); ok {
		t.Fatal("fatal step should stop the scheduler")
	}
	if s.Running() {
		t.Error("scheduler still running")
	}

	// Re-delivering the same tick does nothing.
	if _, ok := s.Fire(last); ok {
		t.Error("tick accepted after game over")
	}
	if calls != 1 || final != 0 {
		t.Errorf("callback calls = %d score = %d, want 1 call with 0", calls, final)
	}
}

func TestSchedulerStopInvalidatesTicks(t *testing.T) {
	s := NewTickScheduler(0)
	g := lineGame(snake.ModePassThrough, 7)
	called := false
	tick := s.Start(g, func(int) { called = true })

	s.Stop()
	if _, ok := s.Fire(tick); ok {
		t.Error("tick fired after Stop")
	}
	if g.Tick() != 0 {
		t.Error("game stepped after Stop")
	}
	if called {
		t.Error("Stop must not report a game over")
	}
	s.Stop()
}

func TestSchedulerRestartIgnoresOldGeneration(t *testing.T) {
	s := NewTickScheduler(0)
	first := lineGame(snake.ModePassThrough, 7)
	old := s.Start(first, nil)

	second := lineGame(snake.ModePassThrough, 3)
	cur := s.Start(second, nil)

	if _, ok := s.Fire(old); ok {
		t.Error("tick from the previous game accepted")
	}
	if _, ok := s.Fire(cur); !ok {
		t.Error("current tick rejected")
	}
	if first.Tick() != 0 || second.Tick() != 1 {
		t.Errorf("ticks: first=%d second=%d", first.Tick(), second.Tick())
	}
	if s.Game() != second {
		t.Error("Game() does not return the current game")
	}
}
