package session

import (
	"slices"

	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// Context is the per-session data that outlives a single view.
// The zero value is a logged-out session.
type Context struct {
	Token         string
	Username      string
	SelectedMode  snake.Mode
	ActiveGames   []api.GameSummary
	WatchedGameID string
}

// Authenticated reports whether someone is signed in. A freshly signed-up
// user has a username but no token and still counts as signed in.
func (c Context) Authenticated() bool {
	return c.Username != ""
}

// Guest reports whether the session has a username but no server token.
// Guests can play and watch but their games are not published live.
func (c Context) Guest() bool {
	return c.Username != "" && c.Token == ""
}

func (c Context) clone() Context {
	c.ActiveGames = slices.Clone(c.ActiveGames)
	return c
}
