// Package core provides fundamental types and utilities for snake arena.
// It contains no external dependencies (especially no Bubble Tea) to keep game
// logic pure and testable.
package core

import "math/rand"

// Point is a cell coordinate on the square game grid.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the point moved by one step in the given direction.
func (p Point) Add(d Direction) Point {
	dx, dy := d.Vector()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Direction is one of the four unit moves on the grid.
// The zero value is DirRight, so a Direction is never the zero vector.
type Direction uint8

const (
	DirRight Direction = iota
	DirDown
	DirLeft
	DirUp
)

// Vector returns the (dx, dy) unit vector for the direction.
// Y grows downwards, matching screen rows.
func (d Direction) Vector() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	default:
		return 1, 0
	}
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	default:
		return DirLeft
	}
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "unknown"
	}
}

// mod is a modulo that stays in [0, n) for negative v.
func mod(v, n int) int {
	return ((v % n) + n) % n
}

// Wrap folds p back onto an n×n grid, wrapping each coordinate independently.
func Wrap(p Point, n int) Point {
	return Point{X: mod(p.X, n), Y: mod(p.Y, n)}
}

// InBounds reports whether p lies on an n×n grid.
func InBounds(p Point, n int) bool {
	return p.X >= 0 && p.X < n && p.Y >= 0 && p.Y < n
}

// RandomFreeCell picks a cell of the n×n grid uniformly among those not in
// occupied. It returns false when the grid is full.
func RandomFreeCell(rng *rand.Rand, occupied map[Point]bool, n int) (Point, bool) {
	free := make([]Point, 0, max(0, n*n-len(occupied)))
	for y := range n {
		for x := range n {
			p := Point{X: x, Y: y}
			if !occupied[p] {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		return Point{}, false
	}
	return free[rng.Intn(len(free))], true
}

// Rect represents an axis-aligned box on the screen.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}
