package session

import (
	"context"
	"sync"
	"testing"

	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/core"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// fakeClient records calls and returns canned responses.
type fakeClient struct {
	mu sync.Mutex

	login       api.LoginResult
	loginErr    error
	signup      api.SignupResult
	signupErr   error
	leaderboard []api.LeaderboardEntry
	boardErr    error
	games       []api.GameSummary
	gamesErr    error
	snapshot    api.GameSnapshot
	snapshotErr error
	gameID      string
	startErr    error

	// onGameState runs inside GameState before it returns.
	onGameState func(ctx context.Context)

	calls     map[string]int
	seq       []string // Call names in order
	submitted []api.ScoreSubmission
	published []snake.Snapshot
	finished  []int
	finishBy  []string // Token of each finish call
}

var _ api.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{
		login:  api.LoginResult{Success: true, Token: "tok", Username: "alice"},
		signup: api.SignupResult{Success: true},
		gameID: "g1",
		calls:  make(map[string]int),
	}
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.seq = append(f.seq, name)
	f.mu.Unlock()
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeClient) Login(ctx context.Context, username, password string) (api.LoginResult, error) {
	f.record("login")
	return f.login, f.loginErr
}

func (f *fakeClient) Signup(ctx context.Context, username, password string) (api.SignupResult, error) {
	f.record("signup")
	return f.signup, f.signupErr
}

func (f *fakeClient) Logout(ctx context.Context, token string) (api.Ack, error) {
	f.record("logout")
	return api.Ack{Success: true}, nil
}

func (f *fakeClient) Leaderboard(ctx context.Context) ([]api.LeaderboardEntry, error) {
	f.record("leaderboard")
	return f.leaderboard, f.boardErr
}

func (f *fakeClient) SubmitScore(ctx context.Context, username string, score int) (api.Ack, error) {
	f.record("submit")
	f.mu.Lock()
	f.submitted = append(f.submitted, api.ScoreSubmission{Username: username, Score: score})
	f.mu.Unlock()
	return api.Ack{Success: true}, nil
}

func (f *fakeClient) ActiveGames(ctx context.Context) ([]api.GameSummary, error) {
	f.record("games")
	return f.games, f.gamesErr
}

func (f *fakeClient) GameState(ctx context.Context, id string) (api.GameSnapshot, error) {
	f.record("state")
	if f.onGameState != nil {
		f.onGameState(ctx)
	}
	return f.snapshot, f.snapshotErr
}

func (f *fakeClient) StartGame(ctx context.Context, token string, mode snake.Mode, gridSize int) (string, error) {
	f.record("start")
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.gameID, nil
}

func (f *fakeClient) PublishState(ctx context.Context, token, id string, snap snake.Snapshot) error {
	f.record("publish")
	f.mu.Lock()
	f.published = append(f.published, snap)
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) FinishGame(ctx context.Context, token, id string, score int) error {
	f.record("finish")
	f.mu.Lock()
	f.finished = append(f.finished, score)
	f.finishBy = append(f.finishBy, token)
	f.mu.Unlock()
	return nil
}

// harness runs a machine with effects executed synchronously on demand.
type harness struct {
	t       *testing.T
	m       *Machine
	client  *fakeClient
	pending []Effect
}

func newHarness(t *testing.T, client *fakeClient) *harness {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.Seed = 42
	m := New(Options{
		Client:        client,
		Game:          cfg,
		ReversalGuard: true,
	})
	return &harness{t: t, m: m, client: client}
}

func (h *harness) dispatch(e Event) {
	h.t.Helper()
	h.pending = append(h.pending, h.m.Dispatch(e)...)
	h.checkTimers()
}

// checkTimers asserts that the scheduler and the sync never run together and
// that each only runs on its own screen.
func (h *harness) checkTimers() {
	h.t.Helper()
	sched, syncing := h.m.SchedulerRunning(), h.m.SyncRunning()
	if sched && syncing {
		h.t.Fatal("scheduler and spectator sync both active")
	}
	if _, ok := h.m.View().(Playing); sched && !ok {
		h.t.Fatalf("scheduler running on %s", ViewName(h.m.View()))
	}
	if _, ok := h.m.View().(Watching); syncing && !ok {
		h.t.Fatalf("sync running on %s", ViewName(h.m.View()))
	}
}

// take removes and returns the first pending effect with the given name.
func (h *harness) take(name string) Effect {
	h.t.Helper()
	for i, eff := range h.pending {
		if eff.Name == name {
			h.pending = append(h.pending[:i], h.pending[i+1:]...)
			return eff
		}
	}
	h.t.Fatalf("no pending %q effect (have %v)", name, h.names())
	return Effect{}
}

func (h *harness) has(name string) bool {
	for _, eff := range h.pending {
		if eff.Name == name {
			return true
		}
	}
	return false
}

func (h *harness) names() []string {
	out := make([]string, 0, len(h.pending))
	for _, eff := range h.pending {
		out = append(out, eff.Name)
	}
	return out
}

// run executes one effect and feeds its event back.
func (h *harness) run(eff Effect) {
	h.t.Helper()
	if ev := eff.Run(context.Background()); ev != nil {
		h.dispatch(ev)
	}
}

func (h *harness) runNamed(name string) {
	h.t.Helper()
	h.run(h.take(name))
}

// settle runs every pending effect that has no delay, repeatedly, leaving
// timers queued.
func (h *harness) settle() {
	h.t.Helper()
	for i := 0; i < 100; i++ {
		idx := -1
		for j, eff := range h.pending {
			if eff.Delay == 0 {
				idx = j
				break
			}
		}
		if idx < 0 {
			return
		}
		eff := h.pending[idx]
		h.pending = append(h.pending[:idx], h.pending[idx+1:]...)
		h.run(eff)
	}
	h.t.Fatal("effects did not settle")
}

func (h *harness) login() {
	h.t.Helper()
	h.dispatch(LoginSubmitted{Username: "alice", Password: "pw"})
	h.settle()
	if _, ok := h.m.View().(Menu); !ok {
		h.t.Fatalf("login did not reach menu, view=%s", ViewName(h.m.View()))
	}
}

func keyFor(d core.Direction) string {
	switch d {
	case core.DirUp:
		return "up"
	case core.DirDown:
		return "down"
	case core.DirLeft:
		return "left"
	default:
		return "right"
	}
}

// pathStep returns the first move of a shortest path from the head to the
// food that avoids the whole body.
func pathStep(s snake.State, n int) (core.Direction, bool) {
	blocked := make(map[core.Point]bool, len(s.Snake))
	for _, p := range s.Snake {
		blocked[p] = true
	}
	dirs := []core.Direction{core.DirUp, core.DirDown, core.DirLeft, core.DirRight}
	first := map[core.Point]core.Direction{}
	queue := []core.Point{}
	head := s.Snake[0]
	for _, d := range dirs {
		p := head.Add(d)
		if core.InBounds(p, n) && !blocked[p] {
			blocked[p] = true
			first[p] = d
			queue = append(queue, p)
		}
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if p == s.Food {
			return first[p], true
		}
		for _, d := range dirs {
			q := p.Add(d)
			if core.InBounds(q, n) && !blocked[q] {
				blocked[q] = true
				first[q] = first[p]
				queue = append(queue, q)
			}
		}
	}
	return 0, false
}
