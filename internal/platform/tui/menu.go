package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/snake-arena/internal/games/snake"
	"github.com/vovakirdan/snake-arena/internal/session"
)

// menuAction is what a main menu entry does when chosen.
type menuAction int

const (
	menuPlay menuAction = iota
	menuLeaderboard
	menuWatch
	menuLogout
	menuQuit
)

// MenuItem is one line of the main menu.
type MenuItem struct {
	Title  string
	Action menuAction
	Mode   snake.Mode // Set for menuPlay
}

// menuItems lists the main menu: one entry per game mode, then the rest.
func menuItems() []MenuItem {
	items := make([]MenuItem, 0, len(snake.Modes)+4)
	for _, m := range snake.Modes {
		items = append(items, MenuItem{Title: "Play " + m.Title(), Action: menuPlay, Mode: m})
	}
	return append(items,
		MenuItem{Title: "Leaderboard", Action: menuLeaderboard},
		MenuItem{Title: "Watch players", Action: menuWatch},
		MenuItem{Title: "Log out", Action: menuLogout},
		MenuItem{Title: "Quit", Action: menuQuit},
	)
}

// event returns the session event for a menu entry. Quit has none.
func (it MenuItem) event() session.Event {
	switch it.Action {
	case menuPlay:
		return session.SelectMode{Mode: it.Mode}
	case menuLeaderboard:
		return session.ViewLeaderboard{}
	case menuWatch:
		return session.WatchPlayers{}
	case menuLogout:
		return session.Logout{}
	}
	return nil
}

func renderMenu(v session.Menu, items []MenuItem, cursor int, sess session.Context, width int) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText(titleStyle.Render("  S N A K E   A R E N A  "), width))
	b.WriteString("\n\n")

	who := "Signed in as " + sess.Username
	if sess.Guest() {
		who += " (guest: games are not broadcast)"
	}
	b.WriteString(centerText(dimStyle.Render(who), width))
	b.WriteString("\n\n")

	if r := v.LastResult; r != nil {
		b.WriteString(centerText(fmt.Sprintf("Last game: %s, score %d", r.Mode.Title(), r.Score), width))
		b.WriteString("\n\n")
	}

	for i, it := range items {
		line := "  " + it.Title + "  "
		if i == cursor {
			line = activeItem.Render("> " + it.Title + "  ")
		}
		b.WriteString(centerText(line, width))
		b.WriteString("\n")
	}
	return b.String()
}

// centerText centers text within width. Styled text is measured without
// its escape sequences.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}
