package snake

import (
	"slices"

	"github.com/vovakirdan/snake-arena/internal/core"
)

// Snapshot captures the observable game state for determinism testing and
// for publishing to spectators.
type Snapshot struct {
	Tick      uint64         `json:"tick"`
	Mode      Mode           `json:"mode"`
	GridSize  int            `json:"grid_size"`
	Score     int            `json:"score"`
	Snake     []core.Point   `json:"snake"`
	Food      core.Point     `json:"food"`
	Direction core.Direction `json:"direction"`
	Alive     bool           `json:"alive"`
}

// Snapshot returns the current game snapshot.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Tick:      g.tick,
		Mode:      g.mode,
		GridSize:  g.size,
		Score:     g.score,
		Snake:     slices.Clone(g.snake),
		Food:      g.food,
		Direction: g.direction,
		Alive:     g.alive,
	}
}
