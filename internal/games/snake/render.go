package snake

import (
	"fmt"

	"github.com/vovakirdan/snake-arena/internal/core"
)

// Each grid cell is drawn two columns wide so the board looks square.
const cellWidth = 2

// BoardSize returns the screen footprint of an n×n board including its frame.
func BoardSize(n int) (w, h int) {
	return n*cellWidth + 2, n + 2
}

// RenderBoard draws a framed board with its top-left corner at (x, y).
// Snake segments or food outside the grid are skipped, so untrusted remote
// snapshots can be drawn as-is.
func RenderBoard(dst *core.Screen, x, y, n int, body []core.Point, food core.Point, alive bool) {
	w, h := BoardSize(n)
	dst.DrawBox(core.NewRect(x, y, w, h), core.ColorGray)

	cell := func(p core.Point, r rune, c core.Color) {
		if !core.InBounds(p, n) {
			return
		}
		cx := x + 1 + p.X*cellWidth
		cy := y + 1 + p.Y
		for i := range cellWidth {
			dst.SetCell(cx+i, cy, r, c)
		}
	}

	cell(food, '●', core.ColorRed)

	bodyColor := core.ColorGreen
	if !alive {
		bodyColor = core.ColorGray
	}
	// Tail first so the head wins on overlap.
	for i := len(body) - 1; i >= 1; i-- {
		cell(body[i], '█', bodyColor)
	}
	if len(body) > 0 {
		headColor := core.ColorBrightGreen
		if !alive {
			headColor = core.ColorYellow
		}
		cell(body[0], '█', headColor)
	}
}

// Render draws the game with a score line into dst.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()

	w, _ := BoardSize(g.size)
	ox := (dst.Width() - w) / 2
	if ox < 0 {
		ox = 0
	}

	hud := fmt.Sprintf("%s  Score: %d", g.Title(), g.score)
	dst.DrawText(ox, 0, hud)

	RenderBoard(dst, ox, 1, g.size, g.snake, g.food, g.alive)

	if !g.alive {
		_, h := BoardSize(g.size)
		dst.DrawTextCentered(1+h, "Game Over")
	}
}
