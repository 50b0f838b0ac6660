package core

// Action represents a semantic action, abstracted from physical key presses.
// This allows games and menus to work with high-level intents rather than raw input.
type Action int

const (
	ActionNone    Action = iota
	ActionUp             // W, K, Up arrow
	ActionDown           // S, J, Down arrow
	ActionLeft           // A, H, Left arrow
	ActionRight          // D, L, Right arrow
	ActionConfirm        // Enter - confirm selection in menu
	ActionBack           // Escape - go back
	ActionQuit           // Ctrl+C - exit session
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionConfirm:
		return "Confirm"
	case ActionBack:
		return "Back"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// keyActions is the single key table shared by the game and the menus.
var keyActions = map[string]Action{
	"up":     ActionUp,
	"w":      ActionUp,
	"k":      ActionUp,
	"down":   ActionDown,
	"s":      ActionDown,
	"j":      ActionDown,
	"left":   ActionLeft,
	"a":      ActionLeft,
	"h":      ActionLeft,
	"right":  ActionRight,
	"d":      ActionRight,
	"l":      ActionRight,
	"enter":  ActionConfirm,
	"esc":    ActionBack,
	"ctrl+c": ActionQuit,
}

// ActionForKey maps a key identifier (as reported by the terminal layer,
// e.g. "up", "w", "enter") to an action. Unknown keys map to ActionNone.
func ActionForKey(key string) Action {
	return keyActions[key]
}

// Direction returns the grid direction for a directional action.
func (a Action) Direction() (Direction, bool) {
	switch a {
	case ActionUp:
		return DirUp, true
	case ActionDown:
		return DirDown, true
	case ActionLeft:
		return DirLeft, true
	case ActionRight:
		return DirRight, true
	default:
		return DirRight, false
	}
}
