package core

// Color represents a foreground color for a screen cell.
// The platform layer maps these to terminal colors.
type Color uint8

const (
	ColorDefault Color = iota
	ColorGreen
	ColorBrightGreen
	ColorRed
	ColorYellow
	ColorGray
)
