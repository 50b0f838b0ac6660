package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/core"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
	"github.com/vovakirdan/snake-arena/internal/session"
)

// stubClient answers every call immediately.
type stubClient struct {
	leaderboard []api.LeaderboardEntry
	games       []api.GameSummary
	lbErr       error
}

func (c *stubClient) Login(_ context.Context, user, pass string) (api.LoginResult, error) {
	if pass != "secret" {
		return api.LoginResult{Error: "Invalid credentials"}, nil
	}
	return api.LoginResult{Success: true, Token: "tok", Username: user}, nil
}

func (c *stubClient) Signup(context.Context, string, string) (api.SignupResult, error) {
	return api.SignupResult{Success: true}, nil
}

func (c *stubClient) Logout(context.Context, string) (api.Ack, error) {
	return api.Ack{Success: true}, nil
}

func (c *stubClient) Leaderboard(context.Context) ([]api.LeaderboardEntry, error) {
	return c.leaderboard, c.lbErr
}

func (c *stubClient) SubmitScore(context.Context, string, int) (api.Ack, error) {
	return api.Ack{Success: true}, nil
}

func (c *stubClient) ActiveGames(context.Context) ([]api.GameSummary, error) {
	return c.games, nil
}

func (c *stubClient) GameState(context.Context, string) (api.GameSnapshot, error) {
	return api.GameSnapshot{}, errors.New("unreachable")
}

func (c *stubClient) StartGame(context.Context, string, snake.Mode, int) (string, error) {
	return "g1", nil
}

func (c *stubClient) PublishState(context.Context, string, string, snake.Snapshot) error {
	return nil
}

func (c *stubClient) FinishGame(context.Context, string, string, int) error { return nil }

func newTestApp(t *testing.T, client *stubClient) App {
	t.Helper()
	a := NewApp(session.Options{
		Client:       client,
		Game:         core.DefaultConfig(),
		PollInterval: time.Hour,
	}, "")
	t.Cleanup(a.cancel)
	return a
}

// send delivers msg and then every message its immediate commands produce.
// Delayed effects (game ticks, polls) are not run.
func send(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, cmd := a.Update(msg)
	a = m.(App)
	for _, ev := range drain(cmd) {
		a = send(t, a, ev)
	}
	return a
}

func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(50 * time.Millisecond):
		return nil // a timer; leave it
	}

	switch msg := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, drain(c)...)
		}
		return out
	case session.Event:
		return []tea.Msg{msg}
	}
	return nil
}

func typeText(t *testing.T, a App, s string) App {
	t.Helper()
	return send(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func press(t *testing.T, a App, k tea.KeyType) App {
	t.Helper()
	return send(t, a, tea.KeyMsg{Type: k})
}

func login(t *testing.T, a App) App {
	t.Helper()
	a = typeText(t, a, "alice")
	a = press(t, a, tea.KeyEnter) // to password
	a = typeText(t, a, "secret")
	return press(t, a, tea.KeyEnter)
}

func TestLoginThroughForm(t *testing.T) {
	a := newTestApp(t, &stubClient{})

	a = login(t, a)
	if _, ok := a.Machine().View().(session.Menu); !ok {
		t.Fatalf("view = %T, want Menu", a.Machine().View())
	}
	if got := a.Machine().Session().Username; got != "alice" {
		t.Errorf("username = %q", got)
	}
	if !strings.Contains(a.View(), "Signed in as alice") {
		t.Error("menu does not show the signed-in user")
	}
}

func TestFailedLoginKeepsUsername(t *testing.T) {
	a := newTestApp(t, &stubClient{})

	a = typeText(t, a, "alice")
	a = press(t, a, tea.KeyTab)
	a = typeText(t, a, "nope")
	a = press(t, a, tea.KeyEnter)

	v, ok := a.Machine().View().(session.Unauthenticated)
	if !ok || v.Error == "" {
		t.Fatalf("view = %#v, want Unauthenticated with error", a.Machine().View())
	}
	user, pass := a.form.values()
	if user != "alice" || pass != "" {
		t.Errorf("form = %q/%q, want username kept and password cleared", user, pass)
	}
	if !strings.Contains(a.View(), "Invalid credentials") {
		t.Error("error message not rendered")
	}
}

func TestSignupScreen(t *testing.T) {
	a := newTestApp(t, &stubClient{})

	a = send(t, a, tea.KeyMsg{Type: tea.KeyCtrlN})
	if _, ok := a.Machine().View().(session.SigningUp); !ok {
		t.Fatalf("view = %T, want SigningUp", a.Machine().View())
	}
	a = press(t, a, tea.KeyEsc)
	if _, ok := a.Machine().View().(session.Unauthenticated); !ok {
		t.Fatalf("esc: view = %T, want Unauthenticated", a.Machine().View())
	}

	a = send(t, a, tea.KeyMsg{Type: tea.KeyCtrlN})
	a = typeText(t, a, "bob")
	a = press(t, a, tea.KeyEnter)
	a = typeText(t, a, "pw")
	a = press(t, a, tea.KeyEnter)
	if _, ok := a.Machine().View().(session.Menu); !ok {
		t.Fatalf("after sign-up: view = %T, want Menu", a.Machine().View())
	}
	if !a.Machine().Session().Guest() {
		t.Error("sign-up should leave a guest session")
	}
}

func TestMenuStartsGameAndSteers(t *testing.T) {
	a := login(t, newTestApp(t, &stubClient{}))

	a = typeText(t, a, "1")
	v, ok := a.Machine().View().(session.Playing)
	if !ok {
		t.Fatalf("view = %T, want Playing", a.Machine().View())
	}
	if v.Mode != snake.Modes[0] {
		t.Errorf("mode = %s, want %s", v.Mode, snake.Modes[0])
	}

	a = press(t, a, tea.KeyDown)
	if v.Game.Session().PendingDirection != core.DirDown {
		t.Errorf("pending direction = %v, want down", v.Game.Session().PendingDirection)
	}
	if !strings.Contains(a.View(), "Score: 0") {
		t.Error("board HUD not rendered")
	}

	a = press(t, a, tea.KeyEsc)
	if _, ok := a.Machine().View().(session.Menu); !ok {
		t.Fatalf("after esc: view = %T, want Menu", a.Machine().View())
	}
	if !strings.Contains(a.View(), "Last game") {
		t.Error("menu does not show the last result")
	}
}

func TestLeaderboardScreen(t *testing.T) {
	client := &stubClient{leaderboard: []api.LeaderboardEntry{{Username: "bob", Score: 9}, {Username: "alice", Score: 4}}}
	a := login(t, newTestApp(t, client))

	a = typeText(t, a, "t")
	v, ok := a.Machine().View().(session.Leaderboard)
	if !ok || v.Loading || len(v.Entries) != 2 {
		t.Fatalf("view = %#v", a.Machine().View())
	}
	if len(a.table.Rows()) != 2 || a.table.Rows()[0][1] != "bob" {
		t.Errorf("table rows = %v", a.table.Rows())
	}
	if !strings.Contains(a.View(), "bob") {
		t.Error("leaderboard not rendered")
	}

	a = typeText(t, a, "b")
	if _, ok := a.Machine().View().(session.Menu); !ok {
		t.Fatalf("back: view = %T, want Menu", a.Machine().View())
	}
}

func TestLeaderboardErrorOffersRetry(t *testing.T) {
	client := &stubClient{lbErr: errors.New("server down")}
	a := login(t, newTestApp(t, client))

	a = typeText(t, a, "t")
	if !strings.Contains(a.View(), "server down") || !strings.Contains(a.View(), "r to retry") {
		t.Errorf("error view missing retry hint:\n%s", a.View())
	}

	client.lbErr = nil
	client.leaderboard = []api.LeaderboardEntry{{Username: "carol", Score: 1}}
	a = typeText(t, a, "r")
	if v := a.Machine().View().(session.Leaderboard); v.Err != "" || len(v.Entries) != 1 {
		t.Errorf("after retry: %#v", v)
	}
}

func TestWatchListPicksSelectedGame(t *testing.T) {
	client := &stubClient{games: []api.GameSummary{
		{ID: "g1", Username: "bob", Mode: snake.ModeWalls},
		{ID: "g2", Username: "carol", Mode: snake.ModePassThrough},
	}}
	a := login(t, newTestApp(t, client))

	a = typeText(t, a, "v")
	if _, ok := a.Machine().View().(session.WatchList); !ok {
		t.Fatalf("view = %T, want WatchList", a.Machine().View())
	}
	a = press(t, a, tea.KeyDown)
	a = press(t, a, tea.KeyEnter)

	v, ok := a.Machine().View().(session.Watching)
	if !ok || v.GameID != "g2" {
		t.Fatalf("view = %#v, want Watching g2", a.Machine().View())
	}
	if !strings.Contains(a.View(), "Cannot reach game") {
		t.Errorf("failed first fetch not rendered:\n%s", a.View())
	}

	a = press(t, a, tea.KeyEsc)
	if _, ok := a.Machine().View().(session.WatchList); !ok {
		t.Fatalf("esc: view = %T, want WatchList", a.Machine().View())
	}
	if a.Machine().SyncRunning() {
		t.Error("spectator poll still running after leaving")
	}
}

func TestEveryViewRenders(t *testing.T) {
	a := newTestApp(t, &stubClient{})
	snap := &api.GameSnapshot{
		Username: "bob",
		Mode:     snake.ModeWalls,
		Score:    3,
		Snake:    []core.Point{{X: 2, Y: 2}, {X: 1, Y: 2}, {X: 40, Y: 40}},
		Food:     core.Point{X: 5, Y: 5},
		GridSize: 10,
		Alive:    false,
	}

	views := []session.View{
		session.Unauthenticated{},
		session.Unauthenticated{Pending: true},
		session.SigningUp{Error: "User exists"},
		session.Menu{LastResult: &session.GameResult{Mode: snake.ModeWalls, Score: 2}},
		session.Playing{Mode: snake.ModeWalls, Game: snake.New(snake.ModeWalls, core.DefaultConfig())},
		session.Leaderboard{Loading: true},
		session.Leaderboard{Err: "boom"},
		session.WatchList{},
		session.Watching{GameID: "g1"},
		session.Watching{GameID: "g1", Snapshot: snap},
		session.Watching{GameID: "g1", Snapshot: snap, Stale: true, Err: "timeout"},
	}
	for _, v := range views {
		if out := a.render(v); strings.TrimSpace(out) == "" {
			t.Errorf("%s rendered nothing", session.ViewName(v))
		}
	}
}

func TestForceQuit(t *testing.T) {
	a := newTestApp(t, &stubClient{})
	m, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	a = m.(App)
	if cmd == nil || a.View() != "" {
		t.Error("ctrl+c should quit")
	}
	if a.ctx.Err() == nil {
		t.Error("quitting should cancel in-flight effects")
	}
}
