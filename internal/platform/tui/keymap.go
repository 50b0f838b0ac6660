package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines every binding the client understands. Which ones are live
// depends on the screen; see helpFor.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Focus     key.Binding
	Signup    key.Binding
	Steer     key.Binding
	Abandon   key.Binding
	Back      key.Binding
	Menu      key.Binding
	Retry     key.Binding
	Scores    key.Binding
	Watch     key.Binding
	Logout    key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "move down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "next field"),
		),
		Signup: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "sign up"),
		),
		Steer: key.NewBinding(
			key.WithKeys("up", "down", "left", "right", "w", "a", "s", "d", "h", "j", "k", "l"),
			key.WithHelp("arrows/wasd", "steer"),
		),
		Abandon: key.NewBinding(
			key.WithKeys("esc", "x"),
			key.WithHelp("esc", "end game"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("esc/b", "back"),
		),
		Menu: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "menu"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Scores: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "leaderboard"),
		),
		Watch: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "watch"),
		),
		Logout: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "log out"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// screenKeys adapts the subset of bindings live on one screen to help.KeyMap.
type screenKeys struct {
	short []key.Binding
	full  [][]key.Binding
}

func (s screenKeys) ShortHelp() []key.Binding  { return s.short }
func (s screenKeys) FullHelp() [][]key.Binding { return s.full }
