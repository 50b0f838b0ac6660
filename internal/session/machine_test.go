package session

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/core"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

func TestNewMachineStartsLoggedOut(t *testing.T) {
	h := newHarness(t, newFakeClient())

	if _, ok := h.m.View().(Unauthenticated); !ok {
		t.Fatalf("initial view = %s", ViewName(h.m.View()))
	}
	if h.m.Session().Authenticated() {
		t.Error("fresh session should not be authenticated")
	}
}

func TestLoginSuccess(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)

	h.dispatch(LoginSubmitted{Username: " alice ", Password: "pw"})
	if v, ok := h.m.View().(Unauthenticated); !ok || !v.Pending {
		t.Fatalf("expected pending login, got %#v", h.m.View())
	}

	// A second submit while pending is dropped.
	h.dispatch(LoginSubmitted{Username: "alice", Password: "pw"})
	if len(h.pending) != 1 {
		t.Fatalf("pending effects = %v, want one login", h.names())
	}

	h.runNamed("login")
	if _, ok := h.m.View().(Menu); !ok {
		t.Fatalf("view = %s, want menu", ViewName(h.m.View()))
	}
	sess := h.m.Session()
	if sess.Token != "tok" || sess.Username != "alice" || sess.Guest() {
		t.Errorf("unexpected session %+v", sess)
	}
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name      string
		user      string
		pass      string
		result    api.LoginResult
		err       error
		wantError string
		wantCalls int
	}{
		{
			name:      "blank fields",
			user:      "  ",
			pass:      "pw",
			wantError: msgMissingCredentials,
		},
		{
			name:      "rejected",
			user:      "alice",
			pass:      "bad",
			result:    api.LoginResult{Success: false, Error: "invalid username or password"},
			wantError: "invalid username or password",
			wantCalls: 1,
		},
		{
			name:      "rejected without reason",
			user:      "alice",
			pass:      "bad",
			wantError: "login failed",
			wantCalls: 1,
		},
		{
			name:      "transport error",
			user:      "alice",
			pass:      "pw",
			err:       errors.New("connection refused"),
			wantError: "connection refused",
			wantCalls: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newFakeClient()
			c.login, c.loginErr = tc.result, tc.err
			h := newHarness(t, c)

			h.dispatch(LoginSubmitted{Username: tc.user, Password: tc.pass})
			h.settle()

			v, ok := h.m.View().(Unauthenticated)
			if !ok {
				t.Fatalf("view = %s, want unauthenticated", ViewName(h.m.View()))
			}
			if v.Error != tc.wantError || v.Pending {
				t.Errorf("view = %+v, want error %q", v, tc.wantError)
			}
			if got := c.count("login"); got != tc.wantCalls {
				t.Errorf("login calls = %d, want %d", got, tc.wantCalls)
			}
			if h.m.Session().Authenticated() {
				t.Error("failed login authenticated the session")
			}
		})
	}
}

func TestSignupEntersMenuAsGuest(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)

	h.dispatch(SignupChosen{})
	if _, ok := h.m.View().(SigningUp); !ok {
		t.Fatalf("view = %s, want signing up", ViewName(h.m.View()))
	}
	h.dispatch(SignupSubmitted{Username: "newbie", Password: "pw"})
	h.settle()

	if _, ok := h.m.View().(Menu); !ok {
		t.Fatalf("view = %s, want menu", ViewName(h.m.View()))
	}
	sess := h.m.Session()
	if sess.Username != "newbie" || sess.Token != "" || !sess.Guest() {
		t.Errorf("unexpected session %+v", sess)
	}
}

func TestSignupFailureAndBack(t *testing.T) {
	c := newFakeClient()
	c.signup = api.SignupResult{Success: false, Error: "username already taken"}
	h := newHarness(t, c)

	h.dispatch(SignupChosen{})
	h.dispatch(SignupSubmitted{Username: "alice", Password: "pw"})
	h.settle()

	v, ok := h.m.View().(SigningUp)
	if !ok || v.Error != "username already taken" {
		t.Fatalf("view = %#v", h.m.View())
	}

	h.dispatch(Back{})
	if _, ok := h.m.View().(Unauthenticated); !ok {
		t.Fatalf("back from sign-up went to %s", ViewName(h.m.View()))
	}
}

func TestMenuEventsIgnoredWhenLoggedOut(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)

	for _, e := range []Event{SelectMode{Mode: snake.ModeWalls}, ViewLeaderboard{}, WatchPlayers{}, Logout{}, BackToMenu{}} {
		h.dispatch(e)
		if _, ok := h.m.View().(Unauthenticated); !ok {
			t.Fatalf("%T moved a logged-out session to %s", e, ViewName(h.m.View()))
		}
	}
	if len(h.pending) != 0 {
		t.Errorf("unexpected effects %v", h.names())
	}
}

func TestSelectModeStartsScheduler(t *testing.T) {
	h := newHarness(t, newFakeClient())
	h.login()

	h.dispatch(SelectMode{Mode: snake.ModeWalls})

	v, ok := h.m.View().(Playing)
	if !ok || v.Mode != snake.ModeWalls || v.Game == nil {
		t.Fatalf("view = %#v", h.m.View())
	}
	if !h.m.SchedulerRunning() {
		t.Error("scheduler not running")
	}
	if h.m.Session().SelectedMode != snake.ModeWalls {
		t.Error("selected mode not stored")
	}
	tick := h.take("tick")
	if tick.Delay != DefaultTickPeriod {
		t.Errorf("tick delay = %v, want %v", tick.Delay, DefaultTickPeriod)
	}
}

func TestSelectUnknownModeIgnored(t *testing.T) {
	h := newHarness(t, newFakeClient())
	h.login()

	h.dispatch(SelectMode{Mode: "spiral"})
	if _, ok := h.m.View().(Menu); !ok {
		t.Fatalf("view = %s, want menu", ViewName(h.m.View()))
	}
}

// rayClear reports whether moving straight from the head in d reaches the
// edge without touching food or body.
func rayClear(s snake.State, n int, d core.Direction) bool {
	for p := s.Snake[0].Add(d); core.InBounds(p, n); p = p.Add(d) {
		if p == s.Food || slices.Contains(s.Snake, p) {
			return false
		}
	}
	return true
}

// steerToWall picks a heading that runs into the wall without eating.
func steerToWall(s snake.State, n int) (core.Direction, bool) {
	if rayClear(s, n, s.Direction) {
		return s.Direction, false
	}
	for _, d := range []core.Direction{core.DirUp, core.DirDown, core.DirLeft, core.DirRight} {
		if d != s.Direction.Opposite() && rayClear(s, n, d) {
			return d, true
		}
	}
	for _, d := range []core.Direction{core.DirUp, core.DirDown, core.DirLeft, core.DirRight} {
		p := s.Snake[0].Add(d)
		if core.InBounds(p, n) && p != s.Food && !slices.Contains(s.Snake, p) {
			return d, true
		}
	}
	return 0, false
}

func TestGameOverSubmitsFinalScoreOnce(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)
	h.login()

	h.dispatch(SelectMode{Mode: snake.ModeWalls})

	for i := 0; i < 5000; i++ {
		v, ok := h.m.View().(Playing)
		if !ok {
			break
		}
		st := v.Game.Session()
		if st.Score < 3 {
			if d, found := pathStep(st, v.Game.Size()); found {
				h.dispatch(Steer{Key: keyFor(d)})
			}
		} else if d, turn := steerToWall(st, v.Game.Size()); turn {
			h.dispatch(Steer{Key: keyFor(d)})
		}
		h.settle()
		h.runNamed("tick")
	}

	menu, ok := h.m.View().(Menu)
	if !ok {
		t.Fatalf("game never ended, view = %s", ViewName(h.m.View()))
	}
	if menu.LastResult == nil || menu.LastResult.Score != 3 || menu.LastResult.Mode != snake.ModeWalls {
		t.Fatalf("last result = %+v, want walls/3", menu.LastResult)
	}
	if h.m.SchedulerRunning() {
		t.Error("scheduler still running after game over")
	}
	if h.has("tick") {
		t.Error("a tick was scheduled after game over")
	}

	h.settle()
	want := []api.ScoreSubmission{{Username: "alice", Score: 3}}
	if !slices.Equal(c.submitted, want) {
		t.Errorf("submitted = %+v, want %+v", c.submitted, want)
	}
	if got := c.count("finish"); got != 1 {
		t.Errorf("finish calls = %d, want 1", got)
	}
}

func TestStaleTickAfterLeavingGameIsIgnored(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)
	h.login()

	h.dispatch(SelectMode{Mode: snake.ModePassThrough})
	tick := h.take("tick")
	game := h.m.View().(Playing).Game

	h.dispatch(WatchPlayers{})
	if _, ok := h.m.View().(WatchList); !ok {
		t.Fatalf("view = %s, want watch list", ViewName(h.m.View()))
	}
	if h.m.SchedulerRunning() {
		t.Fatal("scheduler survived navigation")
	}

	before := len(h.pending)
	h.run(tick)
	if len(h.pending) != before {
		t.Errorf("stale tick produced effects %v", h.names())
	}
	if game.Tick() != 0 {
		t.Errorf("stale tick stepped the game to tick %d", game.Tick())
	}
	if c.count("submit") != 0 {
		t.Error("leaving a game must not submit a score")
	}
}

func TestAbandonEndsGameWithCurrentScore(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)
	h.login()

	h.dispatch(SelectMode{Mode: snake.ModeWalls})
	h.runNamed("tick")
	h.dispatch(Abandon{})

	menu, ok := h.m.View().(Menu)
	if !ok || menu.LastResult == nil || menu.LastResult.Score != 0 {
		t.Fatalf("view = %#v", h.m.View())
	}
	h.settle()
	if c.count("submit") != 1 {
		t.Errorf("submit calls = %d, want 1", c.count("submit"))
	}
}

func TestLivePublishing(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)
	h.login()

	h.dispatch(SelectMode{Mode: snake.ModeWalls})
	h.runNamed("start-game")
	h.runNamed("tick")
	h.runNamed("publish")
	h.runNamed("tick")
	h.runNamed("publish")

	if len(c.published) != 2 || c.published[1].Tick != 2 {
		t.Fatalf("published = %+v", c.published)
	}

	h.dispatch(Abandon{})
	h.settle()
	if !slices.Equal(c.finished, []int{0}) {
		t.Errorf("finished = %v, want [0]", c.finished)
	}
}

func TestGuestGamesAreNotPublished(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)

	h.dispatch(SignupChosen{})
	h.dispatch(SignupSubmitted{Username: "newbie", Password: "pw"})
	h.settle()
	h.dispatch(SelectMode{Mode: snake.ModeWalls})
	h.runNamed("tick")
	h.settle()
	h.dispatch(Abandon{})
	h.settle()

	for _, name := range []string{"start", "publish", "finish"} {
		if c.count(name) != 0 {
			t.Errorf("guest game made %d %s calls", c.count(name), name)
		}
	}
	if !slices.Equal(c.submitted, []api.ScoreSubmission{{Username: "newbie", Score: 0}}) {
		t.Errorf("submitted = %+v", c.submitted)
	}
}

func TestRegistrationArrivingAfterGameEnd(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)
	h.login()

	h.dispatch(SelectMode{Mode: snake.ModeWalls})
	start := h.take("start-game")
	h.dispatch(Abandon{})
	h.settle()
	if c.count("finish") != 0 {
		t.Fatal("finish sent before the game had an id")
	}

	h.run(start)
	h.settle()
	if !slices.Equal(c.finished, []int{0}) {
		t.Errorf("finished = %v, want the late registration closed", c.finished)
	}
}

func TestRegistrationArrivingAfterNextGameStarted(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)
	h.login()

	h.dispatch(SelectMode{Mode: snake.ModeWalls})
	first := h.take("start-game")
	h.dispatch(Abandon{})
	h.settle()

	h.dispatch(SelectMode{Mode: snake.ModePassThrough})
	h.runNamed("start-game")
	h.run(first)
	h.settle()
	if !slices.Equal(c.finished, []int{0}) {
		t.Fatalf("finished = %v, want the first game closed", c.finished)
	}
	if _, ok := h.m.View().(Playing); !ok {
		t.Fatalf("view = %s, want the second game still playing", ViewName(h.m.View()))
	}

	h.dispatch(Abandon{})
	h.settle()
	if len(c.finished) != 2 {
		t.Errorf("finished = %v, want both games closed", c.finished)
	}
}

func TestLogoutWhileRegistrationPending(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)
	h.login()

	h.dispatch(SelectMode{Mode: snake.ModeWalls})
	start := h.take("start-game")
	h.dispatch(Logout{})
	h.settle()
	if c.count("logout") != 0 {
		t.Fatal("token revoked before the pending game was closed")
	}

	h.run(start)
	h.settle()
	if !slices.Equal(c.finished, []int{0}) || !slices.Equal(c.finishBy, []string{"tok"}) {
		t.Fatalf("finished = %v by %v, want one close with the old token", c.finished, c.finishBy)
	}
	if i, j := slices.Index(c.seq, "finish"), slices.Index(c.seq, "logout"); j < 0 || i > j {
		t.Errorf("calls in order %v, want finish before logout", c.seq)
	}
}

func TestLogoutSentWhenPendingRegistrationFails(t *testing.T) {
	c := newFakeClient()
	c.startErr = errors.New("arena full")
	h := newHarness(t, c)
	h.login()

	h.dispatch(SelectMode{Mode: snake.ModeWalls})
	start := h.take("start-game")
	h.dispatch(Logout{})
	h.settle()
	h.run(start)
	h.settle()

	if c.count("finish") != 0 || c.count("logout") != 1 {
		t.Errorf("calls = %v", c.calls)
	}
}

func TestLogoutFromPlaying(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)
	h.login()
	h.dispatch(SelectMode{Mode: snake.ModeWalls})
	h.runNamed("start-game")

	h.dispatch(Logout{})
	if _, ok := h.m.View().(Unauthenticated); !ok {
		t.Fatalf("view = %s", ViewName(h.m.View()))
	}
	if sess := h.m.Session(); sess.Authenticated() || sess.Token != "" {
		t.Errorf("session not cleared: %+v", sess)
	}
	h.settle()

	if c.count("logout") != 1 || c.count("finish") != 1 || c.count("submit") != 0 {
		t.Errorf("calls = %v", c.calls)
	}
}

func TestGuestLogoutSkipsRemoteCall(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)
	h.dispatch(SignupChosen{})
	h.dispatch(SignupSubmitted{Username: "newbie", Password: "pw"})
	h.settle()

	h.dispatch(Logout{})
	h.settle()
	if c.count("logout") != 0 {
		t.Error("guest logout called the server")
	}
	if h.m.Session().Authenticated() {
		t.Error("guest still authenticated")
	}
}

func TestLeaderboardLoadAndRetry(t *testing.T) {
	c := newFakeClient()
	c.boardErr = errors.New("timeout")
	h := newHarness(t, c)
	h.login()

	h.dispatch(ViewLeaderboard{})
	if v, ok := h.m.View().(Leaderboard); !ok || !v.Loading {
		t.Fatalf("view = %#v", h.m.View())
	}
	h.settle()
	if v := h.m.View().(Leaderboard); v.Err != "timeout" || v.Loading {
		t.Fatalf("view = %+v", v)
	}

	c.boardErr = nil
	c.leaderboard = []api.LeaderboardEntry{{Username: "bob", Score: 9}, {Username: "alice", Score: 4}}
	h.dispatch(Retry{})
	h.settle()

	v := h.m.View().(Leaderboard)
	if v.Err != "" || len(v.Entries) != 2 || v.Entries[0].Username != "bob" {
		t.Fatalf("view = %+v", v)
	}

	h.dispatch(BackToMenu{})
	if _, ok := h.m.View().(Menu); !ok {
		t.Errorf("view = %s, want menu", ViewName(h.m.View()))
	}
}

func TestLateLeaderboardResultIgnored(t *testing.T) {
	c := newFakeClient()
	c.leaderboard = []api.LeaderboardEntry{{Username: "bob", Score: 9}}
	h := newHarness(t, c)
	h.login()

	h.dispatch(ViewLeaderboard{})
	fetch := h.take("fetch-leaderboard")
	h.dispatch(BackToMenu{})
	h.dispatch(ViewLeaderboard{})
	h.run(fetch)

	if v := h.m.View().(Leaderboard); !v.Loading || len(v.Entries) != 0 {
		t.Errorf("stale result applied: %+v", v)
	}
}

func TestWatchListAndSpectating(t *testing.T) {
	c := newFakeClient()
	c.games = []api.GameSummary{{ID: "g9", Username: "bob", Mode: snake.ModeWalls}}
	c.snapshot = api.GameSnapshot{Username: "bob", Mode: snake.ModeWalls, Score: 2,
		Snake: []core.Point{{X: 1, Y: 1}}, Food: core.Point{X: 4, Y: 4}, GridSize: 15, Alive: true}
	h := newHarness(t, c)
	h.login()

	h.dispatch(WatchPlayers{})
	h.settle()
	wl := h.m.View().(WatchList)
	if len(wl.Games) != 1 || len(h.m.Session().ActiveGames) != 1 {
		t.Fatalf("watch list = %+v", wl)
	}

	h.dispatch(PickGame{ID: "g9"})
	if !h.m.SyncRunning() || h.m.Session().WatchedGameID != "g9" {
		t.Fatal("sync not started")
	}
	h.runNamed("fetch-game")

	w := h.m.View().(Watching)
	if w.Snapshot == nil || w.Snapshot.Score != 2 || w.Stale {
		t.Fatalf("watching = %+v", w)
	}
	poll := h.take("poll")
	if poll.Delay != DefaultPollInterval {
		t.Errorf("poll delay = %v, want %v", poll.Delay, DefaultPollInterval)
	}

	// A failed fetch keeps the old snapshot and keeps polling.
	c.snapshotErr = errors.New("bad gateway")
	h.run(poll)
	h.runNamed("fetch-game")
	w = h.m.View().(Watching)
	if w.Snapshot == nil || w.Snapshot.Score != 2 || !w.Stale || w.Err != "bad gateway" {
		t.Fatalf("watching after failure = %+v", w)
	}
	h.take("poll")

	c.snapshotErr = nil
	c.snapshot.Score = 3
	h.dispatch(PollDue{Poll: Poll{Generation: h.m.sync.generation, GameID: "g9"}})
	h.runNamed("fetch-game")
	if w = h.m.View().(Watching); w.Stale || w.Snapshot.Score != 3 {
		t.Fatalf("watching after recovery = %+v", w)
	}

	h.dispatch(Back{})
	if _, ok := h.m.View().(WatchList); !ok {
		t.Fatalf("back from watching went to %s", ViewName(h.m.View()))
	}
	h.settle()
	if h.m.SyncRunning() || h.m.Session().WatchedGameID != "" {
		t.Error("sync still running after back")
	}
	if c.count("games") != 2 {
		t.Errorf("watch list was not refreshed, games calls = %d", c.count("games"))
	}
}

func TestPollAfterBackDoesNotFetch(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)
	h.login()
	h.dispatch(WatchPlayers{})
	h.settle()
	h.dispatch(PickGame{ID: "g1"})
	h.runNamed("fetch-game")
	poll := h.take("poll")

	h.dispatch(BackToMenu{})
	h.run(poll)

	if h.has("fetch-game") {
		t.Error("poll after stop scheduled a fetch")
	}
	if c.count("state") != 1 {
		t.Errorf("state calls = %d, want 1", c.count("state"))
	}
}

func TestBackCancelsQueuedFetch(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)
	h.login()
	h.dispatch(WatchPlayers{})
	h.settle()
	h.dispatch(PickGame{ID: "g1"})
	fetch := h.take("fetch-game")

	h.dispatch(Back{})
	h.settle()
	before := h.m.View()
	h.run(fetch)

	if c.count("state") != 0 {
		t.Error("a fetch was issued after the sync stopped")
	}
	if _, ok := h.m.View().(WatchList); !ok || h.has("poll") {
		t.Errorf("late result changed state: view=%#v effects=%v (before %#v)", h.m.View(), h.names(), before)
	}
}

func TestBackDuringInFlightFetch(t *testing.T) {
	c := newFakeClient()
	c.snapshot = api.GameSnapshot{Username: "bob", Score: 7}
	h := newHarness(t, c)
	h.login()
	h.dispatch(WatchPlayers{})
	h.settle()
	h.dispatch(PickGame{ID: "g1"})

	c.onGameState = func(ctx context.Context) {
		// The user leaves while the request is on the wire.
		h.dispatch(Back{})
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Error("in-flight request was not cancelled")
		}
	}
	h.runNamed("fetch-game")

	if _, ok := h.m.View().(WatchList); !ok {
		t.Fatalf("view = %s, want watch list", ViewName(h.m.View()))
	}
	if h.has("poll") {
		t.Error("a poll was scheduled after the sync stopped")
	}
}

func TestTimersNeverOverlap(t *testing.T) {
	c := newFakeClient()
	h := newHarness(t, c)
	h.login()

	// checkTimers runs after every dispatch.
	events := []Event{
		SelectMode{Mode: snake.ModeWalls},
		WatchPlayers{},
		PickGame{ID: "g1"},
		ViewLeaderboard{},
		WatchPlayers{},
		PickGame{ID: "g1"},
		BackToMenu{},
		SelectMode{Mode: snake.ModePassThrough},
		BackToMenu{},
		WatchPlayers{},
		PickGame{ID: "g1"},
		Logout{},
	}
	for _, e := range events {
		h.dispatch(e)
		h.settle()
	}
	if h.m.SchedulerRunning() || h.m.SyncRunning() {
		t.Error("timer left running after logout")
	}
}
