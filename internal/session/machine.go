// Package session holds the client-side state machine: which screen is shown,
// who is signed in, and the two timers that may run behind a screen (the game
// tick and the spectator poll).
//
// The machine is a single writer. The host feeds it events one at a time
// through Dispatch and runs the effects it returns; effects report back with
// new events and never touch machine state themselves.
package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/snake-arena/internal/api"
	"github.com/vovakirdan/snake-arena/internal/core"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
)

// Options configures a Machine.
type Options struct {
	Client        api.Client
	Game          core.RuntimeConfig
	PollInterval  time.Duration
	ReversalGuard bool
	Logger        *log.Logger
	// Parent bounds every spectator run. Defaults to context.Background().
	Parent context.Context
}

// liveGame tracks the server-side registration of the current game.
type liveGame struct {
	generation uint64
	token      string // Token the game was registered with
	id         string
	finished   bool
	score      int
}

// endedGame is a game that ended before the server assigned it an id. It is
// closed as soon as the registration comes back.
type endedGame struct {
	token string
	score int
}

// Machine is the session state machine.
type Machine struct {
	client api.Client
	cfg    core.RuntimeConfig
	logger *log.Logger
	parent context.Context

	router *snake.Router
	sched  *TickScheduler
	sync   *SpectatorSync

	sess Context
	view View

	live       liveGame
	unfinished map[uint64]endedGame // By scheduler generation
	logouts    map[string]bool      // Tokens to revoke once their games are closed
	request    uint64
	out     []Effect
}

// New creates a machine on the login screen.
func New(opts Options) *Machine {
	if opts.Client == nil {
		panic("session: nil api client")
	}
	if opts.Game.GridSize == 0 {
		opts.Game = core.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Parent == nil {
		opts.Parent = context.Background()
	}
	return &Machine{
		client: opts.Client,
		cfg:    opts.Game,
		logger: opts.Logger,
		parent: opts.Parent,
		router: snake.NewRouter(opts.ReversalGuard),
		sched:  NewTickScheduler(opts.Game.TickPeriod),
		sync:   NewSpectatorSync(opts.Client, opts.PollInterval),
		view:   Unauthenticated{},

		unfinished: make(map[uint64]endedGame),
		logouts:    make(map[string]bool),
	}
}

// View returns the current screen.
func (m *Machine) View() View {
	return m.view
}

// Session returns a copy of the session context.
func (m *Machine) Session() Context {
	return m.sess.clone()
}

// SchedulerRunning reports whether a game is being ticked.
func (m *Machine) SchedulerRunning() bool {
	return m.sched.Running()
}

// SyncRunning reports whether a remote game is being polled.
func (m *Machine) SyncRunning() bool {
	return m.sync.Running()
}

// Dispatch applies one event and returns the effects it produced.
func (m *Machine) Dispatch(e Event) []Effect {
	m.out = nil
	before := ViewName(m.view)

	m.handle(e)

	if after := ViewName(m.view); after != before {
		m.logger.Debug("view changed", "from", before, "to", after, "event", fmt.Sprintf("%T", e))
	}
	out := m.out
	m.out = nil
	return out
}

func (m *Machine) emit(eff Effect) {
	m.out = append(m.out, eff)
}

func (m *Machine) handle(e Event) {
	// Transitions allowed from every signed-in screen.
	if m.sess.Authenticated() {
		switch e.(type) {
		case Logout:
			m.logout()
			return
		case WatchPlayers:
			m.enterWatchList()
			return
		case ViewLeaderboard:
			m.enterLeaderboard()
			return
		}
	}

	switch v := m.view.(type) {
	case Unauthenticated:
		m.handleUnauthenticated(v, e)
	case SigningUp:
		m.handleSigningUp(v, e)
	case Menu:
		m.handleMenu(e)
	case Playing:
		m.handlePlaying(e)
	case Leaderboard:
		m.handleLeaderboard(v, e)
	case WatchList:
		m.handleWatchList(v, e)
	case Watching:
		m.handleWatching(v, e)
	default:
		panic(fmt.Sprintf("session: unhandled view %T", m.view))
	}

	// Registration results may arrive on any screen.
	if ev, ok := e.(GameRegistered); ok {
		m.gameRegistered(ev)
	}
}

func (m *Machine) handleUnauthenticated(v Unauthenticated, e Event) {
	switch ev := e.(type) {
	case LoginSubmitted:
		if v.Pending {
			return
		}
		user, pass, msg := validateCredentials(ev.Username, ev.Password)
		if msg != "" {
			m.setView(Unauthenticated{Error: msg})
			return
		}
		m.setView(Unauthenticated{Pending: true})
		client := m.client
		m.emit(Effect{Name: "login", Run: func(ctx context.Context) Event {
			res, err := client.Login(ctx, user, pass)
			return LoginCompleted{Username: user, Result: res, Err: err}
		}})

	case LoginCompleted:
		if !v.Pending {
			return
		}
		if msg := failureMessage(ev.Err, ev.Result.Success, ev.Result.Error, "login failed"); msg != "" {
			m.logger.Info("login rejected", "user", ev.Username, "reason", msg)
			m.setView(Unauthenticated{Error: msg})
			return
		}
		m.sess.Token = ev.Result.Token
		m.sess.Username = ev.Result.Username
		if m.sess.Username == "" {
			m.sess.Username = ev.Username
		}
		m.logger.Info("logged in", "user", m.sess.Username)
		m.setView(Menu{})

	case SignupChosen:
		if !v.Pending {
			m.setView(SigningUp{})
		}
	}
}

func (m *Machine) handleSigningUp(v SigningUp, e Event) {
	switch ev := e.(type) {
	case SignupSubmitted:
		if v.Pending {
			return
		}
		user, pass, msg := validateCredentials(ev.Username, ev.Password)
		if msg != "" {
			m.setView(SigningUp{Error: msg})
			return
		}
		m.setView(SigningUp{Pending: true})
		client := m.client
		m.emit(Effect{Name: "signup", Run: func(ctx context.Context) Event {
			res, err := client.Signup(ctx, user, pass)
			return SignupCompleted{Username: user, Result: res, Err: err}
		}})

	case SignupCompleted:
		if !v.Pending {
			return
		}
		if msg := failureMessage(ev.Err, ev.Result.Success, ev.Result.Error, "sign-up failed"); msg != "" {
			m.setView(SigningUp{Error: msg})
			return
		}
		// Sign-up does not issue a token: the new user continues as a guest
		// until they log in.
		m.sess.Token = ""
		m.sess.Username = ev.Username
		m.logger.Info("signed up", "user", ev.Username)
		m.setView(Menu{})

	case Back:
		m.setView(Unauthenticated{})
	}
}

func (m *Machine) handleMenu(e Event) {
	if ev, ok := e.(SelectMode); ok {
		mode, err := snake.ParseMode(string(ev.Mode))
		if err != nil {
			m.logger.Warn("ignoring mode selection", "err", err)
			return
		}
		m.startGame(mode)
	}
}

func (m *Machine) handlePlaying(e Event) {
	switch ev := e.(type) {
	case Steer:
		if m.sched.Running() {
			m.router.RouteKey(m.sched.Game(), ev.Key)
		}

	case TickFired:
		next, ok := m.sched.Fire(ev.Tick)
		if !ok {
			return
		}
		m.emit(m.tickEffect(next))
		m.publish()

	case Abandon, BackToMenu:
		if m.sched.Running() {
			g := m.sched.Game()
			m.logger.Debug("game abandoned", "mode", g.Mode(), "score", g.Score())
			m.sched.Stop()
			m.gameOver(g.Score())
		}
	}
}

func (m *Machine) handleLeaderboard(v Leaderboard, e Event) {
	switch ev := e.(type) {
	case LeaderboardLoaded:
		if ev.Request != m.request || !v.Loading {
			return
		}
		if ev.Err != nil {
			m.logger.Warn("leaderboard fetch failed", "err", ev.Err)
			m.setView(Leaderboard{Entries: v.Entries, Err: ev.Err.Error()})
			return
		}
		m.setView(Leaderboard{Entries: ev.Entries})

	case Retry:
		if !v.Loading {
			m.enterLeaderboard()
		}

	case BackToMenu:
		m.setView(Menu{})
	}
}

func (m *Machine) handleWatchList(v WatchList, e Event) {
	switch ev := e.(type) {
	case ActiveGamesLoaded:
		if ev.Request != m.request || !v.Loading {
			return
		}
		if ev.Err != nil {
			m.logger.Warn("active games fetch failed", "err", ev.Err)
			m.setView(WatchList{Games: v.Games, Err: ev.Err.Error()})
			return
		}
		m.sess.ActiveGames = ev.Games
		m.setView(WatchList{Games: ev.Games})

	case PickGame:
		if ev.ID == "" {
			return
		}
		m.sess.WatchedGameID = ev.ID
		m.setView(Watching{GameID: ev.ID})
		m.emit(m.sync.Begin(m.parent, ev.ID))

	case Retry:
		if !v.Loading {
			m.enterWatchList()
		}

	case BackToMenu:
		m.setView(Menu{})
	}
}

func (m *Machine) handleWatching(v Watching, e Event) {
	switch ev := e.(type) {
	case PollDue:
		if eff, ok := m.sync.Due(ev.Poll); ok {
			m.emit(eff)
		}

	case SnapshotFetched:
		next, ok := m.sync.Resolved(ev.Poll)
		if !ok {
			return
		}
		if ev.Err != nil {
			m.logger.Debug("spectator fetch failed", "game", ev.Poll.GameID, "err", ev.Err)
			v.Stale = true
			v.Err = ev.Err.Error()
		} else {
			snap := ev.Snapshot
			v.Snapshot = &snap
			v.Stale = false
			v.Err = ""
		}
		m.view = v
		m.emit(next)

	case Back:
		m.enterWatchList()

	case BackToMenu:
		m.setView(Menu{})
	}
}

// setView switches screens and stops whichever timer the new screen does not
// own. Leaving Playing while a game is still running drops that game without
// a score.
func (m *Machine) setView(v View) {
	if _, playing := v.(Playing); !playing && m.sched.Running() {
		g := m.sched.Game()
		m.sched.Stop()
		m.logger.Debug("game dropped", "mode", g.Mode(), "score", g.Score())
		m.finishLive(g.Score())
	}
	if _, watching := v.(Watching); !watching && m.sync.Running() {
		m.sync.Stop()
		m.sess.WatchedGameID = ""
	}
	m.view = v
}

func (m *Machine) startGame(mode snake.Mode) {
	cfg := m.cfg
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	g := snake.New(mode, cfg)

	m.sess.SelectedMode = mode
	m.setView(Playing{Mode: mode, Game: g})
	first := m.sched.Start(g, m.gameOver)
	m.emit(m.tickEffect(first))
	m.logger.Debug("game started", "mode", mode, "grid", cfg.GridSize)

	m.live = liveGame{generation: first.Generation, token: m.sess.Token}
	if m.sess.Token == "" {
		return
	}
	client, token, gen, size := m.client, m.sess.Token, first.Generation, cfg.GridSize
	m.emit(Effect{Name: "start-game", Run: func(ctx context.Context) Event {
		id, err := client.StartGame(ctx, token, mode, size)
		return GameRegistered{Generation: gen, ID: id, Err: err}
	}})
}

// gameOver is the scheduler's terminal callback and the abandon path.
func (m *Machine) gameOver(score int) {
	mode := m.sess.SelectedMode
	m.logger.Info("game over", "user", m.sess.Username, "mode", mode, "score", score)
	m.finishLive(score)
	m.setView(Menu{LastResult: &GameResult{Mode: mode, Score: score}})

	if m.sess.Username == "" {
		return
	}
	client, user := m.client, m.sess.Username
	m.emit(Effect{Name: "submit-score", Run: func(ctx context.Context) Event {
		if _, err := client.SubmitScore(ctx, user, score); err != nil {
			return RemoteFailed{Op: "submit-score", Err: err}
		}
		return nil
	}})
}

func (m *Machine) tickEffect(t Tick) Effect {
	return Effect{
		Name:  "tick",
		Delay: m.sched.Period(),
		Run: func(context.Context) Event {
			return TickFired{Tick: t}
		},
	}
}

// publish pushes the current game to the server for spectators.
func (m *Machine) publish() {
	if m.live.id == "" || m.live.finished || m.sess.Token == "" {
		return
	}
	client, token, id := m.client, m.sess.Token, m.live.id
	snap := m.sched.Game().Snapshot()
	m.emit(Effect{Name: "publish", Run: func(ctx context.Context) Event {
		if err := client.PublishState(ctx, token, id, snap); err != nil {
			return RemoteFailed{Op: "publish", Err: err}
		}
		return nil
	}})
}

// finishLive marks the current game finished and closes it on the server,
// or remembers it until its registration arrives.
func (m *Machine) finishLive(score int) {
	if m.live.finished {
		return
	}
	m.live.finished = true
	m.live.score = score
	switch {
	case m.live.token == "":
	case m.live.id != "":
		m.emit(m.closeEffect(m.live.token, m.live.id, score, false))
	default:
		m.unfinished[m.live.generation] = endedGame{token: m.live.token, score: score}
	}
}

// closeEffect finishes a live game and, when revoke is set, then logs its
// token out. The two calls run in order so the finish is still authorized.
func (m *Machine) closeEffect(token, id string, score int, revoke bool) Effect {
	client, name := m.client, "finish-game"
	if id == "" {
		name = "logout"
	}
	return Effect{Name: name, Run: func(ctx context.Context) Event {
		if id != "" {
			if err := client.FinishGame(ctx, token, id, score); err != nil {
				if revoke {
					_, _ = client.Logout(ctx, token)
				}
				return RemoteFailed{Op: "finish-game", Err: err}
			}
		}
		if revoke {
			if _, err := client.Logout(ctx, token); err != nil {
				return RemoteFailed{Op: "logout", Err: err}
			}
		}
		return nil
	}}
}

func (m *Machine) gameRegistered(ev GameRegistered) {
	if g, ok := m.unfinished[ev.Generation]; ok {
		delete(m.unfinished, ev.Generation)
		revoke := m.logouts[g.token] && !m.awaitingRegistration(g.token)
		if revoke {
			delete(m.logouts, g.token)
		}
		if ev.Err != nil {
			m.logger.Warn("live game registration failed", "err", ev.Err)
			if revoke {
				m.emit(m.closeEffect(g.token, "", 0, true))
			}
			return
		}
		m.logger.Debug("closing game registered after it ended", "id", ev.ID, "score", g.score)
		m.emit(m.closeEffect(g.token, ev.ID, g.score, revoke))
		return
	}
	if ev.Generation != m.live.generation || m.live.id != "" || m.live.finished {
		return
	}
	if ev.Err != nil {
		m.logger.Warn("live game registration failed", "err", ev.Err)
		return
	}
	m.live.id = ev.ID
}

// awaitingRegistration reports whether an ended game registered with token
// is still waiting for its id.
func (m *Machine) awaitingRegistration(token string) bool {
	for _, g := range m.unfinished {
		if g.token == token {
			return true
		}
	}
	return false
}

func (m *Machine) enterLeaderboard() {
	m.request++
	m.setView(Leaderboard{Loading: true})
	client, req := m.client, m.request
	m.emit(Effect{Name: "fetch-leaderboard", Run: func(ctx context.Context) Event {
		entries, err := client.Leaderboard(ctx)
		return LeaderboardLoaded{Request: req, Entries: entries, Err: err}
	}})
}

func (m *Machine) enterWatchList() {
	m.request++
	m.setView(WatchList{Games: m.sess.ActiveGames, Loading: true})
	client, req := m.client, m.request
	m.emit(Effect{Name: "fetch-games", Run: func(ctx context.Context) Event {
		games, err := client.ActiveGames(ctx)
		return ActiveGamesLoaded{Request: req, Games: games, Err: err}
	}})
}

func (m *Machine) logout() {
	token, user := m.sess.Token, m.sess.Username
	// Stop timers and close the live game while the token is still known.
	m.setView(Unauthenticated{})
	m.sess = Context{}
	m.logger.Info("logged out", "user", user)

	if token == "" {
		return
	}
	if m.awaitingRegistration(token) {
		// Revoked after the pending game is closed.
		m.logouts[token] = true
		return
	}
	client := m.client
	m.emit(Effect{Name: "logout", Run: func(ctx context.Context) Event {
		if _, err := client.Logout(ctx, token); err != nil {
			return RemoteFailed{Op: "logout", Err: err}
		}
		return nil
	}})
}

const msgMissingCredentials = "username and password are required"

func validateCredentials(user, pass string) (string, string, string) {
	user = strings.TrimSpace(user)
	if user == "" || pass == "" {
		return "", "", msgMissingCredentials
	}
	return user, pass, ""
}

// failureMessage returns the text to show for a failed remote auth call, or
// "" when the call succeeded.
func failureMessage(err error, success bool, reason, fallback string) string {
	switch {
	case err != nil:
		return err.Error()
	case !success && reason != "":
		return reason
	case !success:
		return fallback
	}
	return ""
}
