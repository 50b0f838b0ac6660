// Package snake implements the grid snake simulation: one deterministic step
// per tick, mode-dependent boundary handling, self-collision and food placement.
package snake

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/vovakirdan/snake-arena/internal/core"
)

// Mode is the boundary-crossing policy of a game.
type Mode string

const (
	ModeWalls       Mode = "walls"        // Leaving the grid is fatal
	ModePassThrough Mode = "pass-through" // Leaving the grid wraps to the opposite edge
)

// Modes lists the playable modes in menu order.
var Modes = []Mode{ModeWalls, ModePassThrough}

// ParseMode validates a wire/config mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeWalls, ModePassThrough:
		return Mode(s), nil
	}
	return "", fmt.Errorf("snake: unknown mode %q", s)
}

// Title returns the display name.
func (m Mode) Title() string {
	if m == ModePassThrough {
		return "Pass-Through"
	}
	return "Walls"
}

// State is the simulation-local state of one game.
type State struct {
	Snake            []core.Point // Head at index 0
	Food             core.Point
	Direction        core.Direction // Direction used by the last step
	PendingDirection core.Direction // Applied at the start of the next step
	Score            int
	Alive            bool
}

// Game owns the state of one snake game. It is not safe for concurrent use;
// the platform serializes all calls on its update loop.
type Game struct {
	mode Mode
	size int
	rng  *rand.Rand
	tick uint64

	snake     []core.Point
	food      core.Point
	direction core.Direction
	pending   core.Direction
	score     int
	alive     bool
}

// New starts a game with the standard opening: a one-segment snake in the
// middle of the grid heading right, and food in the upper-left area.
func New(mode Mode, cfg core.RuntimeConfig) *Game {
	n := cfg.GridSize
	head := core.Point{X: n / 2, Y: n / 2}
	food := core.Point{X: n / 5, Y: n / 5}
	if food == head {
		rng := rand.New(rand.NewSource(cfg.Seed))
		var ok bool
		if food, ok = core.RandomFreeCell(rng, map[core.Point]bool{head: true}, n); !ok {
			panic("snake: grid too small for a snake and food")
		}
	}
	return Initialize(mode, cfg, []core.Point{head}, food, core.DirRight)
}

// Initialize builds a game from an explicit position. The snake must be
// non-empty and on the grid, and food must not lie on it; violations are
// programmer errors and panic.
func Initialize(mode Mode, cfg core.RuntimeConfig, snake []core.Point, food core.Point, dir core.Direction) *Game {
	if cfg.GridSize < 1 {
		panic(fmt.Sprintf("snake: invalid grid size %d", cfg.GridSize))
	}
	if len(snake) == 0 {
		panic("snake: initial snake is empty")
	}
	for _, seg := range snake {
		if !core.InBounds(seg, cfg.GridSize) {
			panic(fmt.Sprintf("snake: segment %v outside %dx%d grid", seg, cfg.GridSize, cfg.GridSize))
		}
	}
	if slices.Contains(snake, food) {
		panic(fmt.Sprintf("snake: initial food %v lies on the snake", food))
	}

	return &Game{
		mode:      mode,
		size:      cfg.GridSize,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		snake:     slices.Clone(snake),
		food:      food,
		direction: dir,
		pending:   dir,
		alive:     true,
	}
}

// Title returns the display name.
func (g *Game) Title() string {
	return "Snake (" + g.mode.Title() + ")"
}

// Mode returns the game's boundary mode.
func (g *Game) Mode() Mode {
	return g.mode
}

// Size returns the grid side length.
func (g *Game) Size() int {
	return g.size
}

// Tick returns how many live steps have been taken.
func (g *Game) Tick() uint64 {
	return g.tick
}

// Alive reports whether the game is still running.
func (g *Game) Alive() bool {
	return g.alive
}

// Score returns the number of food items eaten.
func (g *Game) Score() int {
	return g.score
}

// Direction returns the direction the snake moved on the last step.
func (g *Game) Direction() core.Direction {
	return g.direction
}

// Len returns the snake length.
func (g *Game) Len() int {
	return len(g.snake)
}

// Head returns the head position.
func (g *Game) Head() core.Point {
	return g.snake[0]
}

// SetPendingDirection records the direction for the next step.
// It does no reversal filtering; that is the router's job.
// Input that races the terminal step is ignored.
func (g *Game) SetPendingDirection(d core.Direction) {
	if !g.alive {
		return
	}
	g.pending = d
}

// Step advances the game by one tick. Once the game is over it is a no-op.
func (g *Game) Step() core.StepResult {
	if !g.alive {
		return core.StepResult{State: g.State()}
	}
	g.tick++

	g.direction = g.pending
	newHead := g.snake[0].Add(g.direction)

	switch g.mode {
	case ModePassThrough:
		newHead = core.Wrap(newHead, g.size)
	default:
		if !core.InBounds(newHead, g.size) {
			g.alive = false
			return core.StepResult{State: g.State()}
		}
	}

	// The whole pre-step body counts, including the tail that is about to move.
	if slices.Contains(g.snake, newHead) {
		g.alive = false
		return core.StepResult{State: g.State()}
	}

	g.snake = append([]core.Point{newHead}, g.snake...)

	ate := newHead == g.food
	if ate {
		g.score++
		g.spawnFood()
	} else {
		g.snake = g.snake[:len(g.snake)-1]
	}

	return core.StepResult{State: g.State(), Ate: ate}
}

// spawnFood places food uniformly over the cells not covered by the snake.
func (g *Game) spawnFood() {
	occupied := make(map[core.Point]bool, len(g.snake))
	for _, seg := range g.snake {
		occupied[seg] = true
	}
	food, ok := core.RandomFreeCell(g.rng, occupied, g.size)
	if !ok {
		panic("snake: no free cell left for food")
	}
	g.food = food
}

// State returns the coarse game status.
func (g *Game) State() core.GameState {
	return core.GameState{
		Score:    g.score,
		GameOver: !g.alive,
	}
}

// Session returns a deep copy of the full simulation state.
func (g *Game) Session() State {
	return State{
		Snake:            slices.Clone(g.snake),
		Food:             g.food,
		Direction:        g.direction,
		PendingDirection: g.pending,
		Score:            g.score,
		Alive:            g.alive,
	}
}
