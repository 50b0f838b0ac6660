package core

import "time"

// RuntimeConfig contains configuration passed to a game at initialization.
type RuntimeConfig struct {
	GridSize   int           // Side length of the square grid in cells
	TickPeriod time.Duration // Time between simulation steps
	Seed       int64         // RNG seed for deterministic food placement
}

// DefaultConfig returns a RuntimeConfig with the classic 15×15 board at 120ms per tick.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		GridSize:   15,
		TickPeriod: 120 * time.Millisecond,
		Seed:       0, // 0 means use current time in platform layer
	}
}

// GameState is the coarse status of a game, returned after every step.
type GameState struct {
	Score    int  // Current score
	GameOver bool // Whether the game has ended
}

// StepResult is returned by Game.Step() after each simulation tick.
type StepResult struct {
	State GameState
	Ate   bool // Food was consumed this tick
}
