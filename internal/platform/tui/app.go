package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/snake-arena/internal/core"
	"github.com/vovakirdan/snake-arena/internal/games/snake"
	"github.com/vovakirdan/snake-arena/internal/session"
)

// Default terminal size until the first WindowSizeMsg arrives.
const (
	defaultWidth  = 80
	defaultHeight = 24
)

// App is the top-level Bubble Tea model. All session state lives in the
// machine; App only keeps widget state (form fields, table cursor, help).
type App struct {
	machine *session.Machine
	ctx     context.Context
	cancel  context.CancelFunc

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	form    authForm
	items   []MenuItem
	cursor  int
	home    int // Menu cursor position when the menu is entered
	table   table.Model
	screen  *core.Screen

	// What the widgets were last built for.
	shown   string
	loading bool
	pending bool

	width    int
	height   int
	quitting bool
}

// NewApp creates the client model. username pre-fills the login form.
func NewApp(opts session.Options, username string) App {
	if opts.Parent == nil {
		opts.Parent = context.Background()
	}
	ctx, cancel := context.WithCancel(opts.Parent)
	opts.Parent = ctx

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	a := App{
		machine: session.New(opts),
		ctx:     ctx,
		cancel:  cancel,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		form:    newAuthForm(username),
		items:   menuItems(),
		screen:  core.NewScreen(defaultWidth, defaultHeight),
		width:   defaultWidth,
		height:  defaultHeight,
	}
	a.shown = session.ViewName(a.machine.View())
	return a
}

// WithDefaultMode puts the menu cursor on the entry that plays mode.
func (a App) WithDefaultMode(mode snake.Mode) App {
	for i, it := range a.items {
		if it.Action == menuPlay && it.Mode == mode {
			a.home = i
			a.cursor = i
		}
	}
	return a
}

// Machine exposes the session machine, mainly for tests.
func (a App) Machine() *session.Machine {
	return a.machine
}

// Init starts the cursor blink and the spinner.
func (a App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.spinner.Tick)
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.rebuildTable()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)

	case session.Event:
		return a.dispatch(msg)
	}

	if a.inForm() {
		var cmd tea.Cmd
		a.form, cmd = a.form.update(msg)
		return a, cmd
	}
	return a, nil
}

// dispatch feeds one event to the machine and schedules its effects.
func (a App) dispatch(ev session.Event) (App, tea.Cmd) {
	effs := a.machine.Dispatch(ev)
	a.syncWidgets()
	return a, effectCmds(a.ctx, effs)
}

// syncWidgets rebuilds widget state after the machine moved.
func (a *App) syncWidgets() {
	v := a.machine.View()
	name := session.ViewName(v)
	changed := name != a.shown
	a.shown = name

	switch v := v.(type) {
	case session.Unauthenticated:
		if changed {
			user, _ := a.form.values()
			a.form = newAuthForm(user)
		} else if a.pending && !v.Pending && v.Error != "" {
			a.form = a.form.clearPassword()
		}
		a.pending = v.Pending
	case session.SigningUp:
		if changed {
			user, _ := a.form.values()
			a.form = newAuthForm(user)
		} else if a.pending && !v.Pending && v.Error != "" {
			a.form = a.form.clearPassword()
		}
		a.pending = v.Pending
	case session.Menu:
		if changed {
			a.cursor = a.home
		}
	case session.Leaderboard:
		if changed || a.loading != v.Loading {
			a.rebuildTable()
		}
		a.loading = v.Loading
	case session.WatchList:
		if changed || a.loading != v.Loading {
			a.rebuildTable()
		}
		a.loading = v.Loading
	}
}

func (a *App) rebuildTable() {
	switch v := a.machine.View().(type) {
	case session.Leaderboard:
		a.table = leaderboardTable(v.Entries, a.height)
	case session.WatchList:
		a.table = watchTable(v.Games, a.height)
	}
}

func (a App) inForm() bool {
	switch a.machine.View().(type) {
	case session.Unauthenticated, session.SigningUp:
		return true
	}
	return false
}

func (a App) quit() (tea.Model, tea.Cmd) {
	a.quitting = true
	a.cancel()
	return a, tea.Quit
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.ForceQuit) {
		return a.quit()
	}
	if !a.inForm() && key.Matches(msg, a.keys.Help) {
		a.help.ShowAll = !a.help.ShowAll
		return a, nil
	}

	switch v := a.machine.View().(type) {
	case session.Unauthenticated:
		return a.formKey(msg, v.Pending, func(user, pass string) session.Event {
			return session.LoginSubmitted{Username: user, Password: pass}
		})

	case session.SigningUp:
		if msg.Type == tea.KeyEsc {
			return a.dispatch(session.Back{})
		}
		return a.formKey(msg, v.Pending, func(user, pass string) session.Event {
			return session.SignupSubmitted{Username: user, Password: pass}
		})

	case session.Menu:
		return a.menuKey(msg)

	case session.Playing:
		switch {
		case key.Matches(msg, a.keys.Abandon):
			return a.dispatch(session.Abandon{})
		case key.Matches(msg, a.keys.Steer):
			return a.dispatch(session.Steer{Key: msg.String()})
		}

	case session.Leaderboard:
		switch {
		case key.Matches(msg, a.keys.Back), key.Matches(msg, a.keys.Menu):
			return a.dispatch(session.BackToMenu{})
		case key.Matches(msg, a.keys.Retry):
			return a.dispatch(session.Retry{})
		case key.Matches(msg, a.keys.Watch):
			return a.dispatch(session.WatchPlayers{})
		case key.Matches(msg, a.keys.Quit):
			return a.quit()
		case key.Matches(msg, a.keys.Up), key.Matches(msg, a.keys.Down):
			var cmd tea.Cmd
			a.table, cmd = a.table.Update(msg)
			return a, cmd
		}

	case session.WatchList:
		switch {
		case key.Matches(msg, a.keys.Select):
			if i := a.table.Cursor(); i >= 0 && i < len(v.Games) {
				return a.dispatch(session.PickGame{ID: v.Games[i].ID})
			}
		case key.Matches(msg, a.keys.Back), key.Matches(msg, a.keys.Menu):
			return a.dispatch(session.BackToMenu{})
		case key.Matches(msg, a.keys.Retry):
			return a.dispatch(session.Retry{})
		case key.Matches(msg, a.keys.Scores):
			return a.dispatch(session.ViewLeaderboard{})
		case key.Matches(msg, a.keys.Quit):
			return a.quit()
		case key.Matches(msg, a.keys.Up), key.Matches(msg, a.keys.Down):
			var cmd tea.Cmd
			a.table, cmd = a.table.Update(msg)
			return a, cmd
		}

	case session.Watching:
		switch {
		case key.Matches(msg, a.keys.Back):
			return a.dispatch(session.Back{})
		case key.Matches(msg, a.keys.Menu):
			return a.dispatch(session.BackToMenu{})
		case key.Matches(msg, a.keys.Quit):
			return a.quit()
		}

	default:
		panic(fmt.Sprintf("tui: unhandled view %T", v))
	}
	return a, nil
}

func (a App) formKey(msg tea.KeyMsg, pending bool, submit func(user, pass string) session.Event) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Signup):
		if _, ok := a.machine.View().(session.Unauthenticated); ok && !pending {
			return a.dispatch(session.SignupChosen{})
		}
		return a, nil
	case key.Matches(msg, a.keys.Focus):
		a.form = a.form.next()
		return a, nil
	case key.Matches(msg, a.keys.Select):
		if a.form.focus == fieldUsername {
			a.form = a.form.next()
			return a, nil
		}
		if pending {
			return a, nil
		}
		return a.dispatch(submit(a.form.values()))
	}

	var cmd tea.Cmd
	a.form, cmd = a.form.update(msg)
	return a, cmd
}

func (a App) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a.quit()
	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(a.items)-1 {
			a.cursor++
		}
	case key.Matches(msg, a.keys.Select):
		it := a.items[a.cursor]
		if it.Action == menuQuit {
			return a.quit()
		}
		return a.dispatch(it.event())
	case key.Matches(msg, a.keys.Scores):
		return a.dispatch(session.ViewLeaderboard{})
	case key.Matches(msg, a.keys.Watch):
		return a.dispatch(session.WatchPlayers{})
	case key.Matches(msg, a.keys.Logout):
		return a.dispatch(session.Logout{})
	default:
		// 1, 2, ... start the matching mode directly.
		if s := msg.String(); len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(snake.Modes) {
			return a.dispatch(session.SelectMode{Mode: snake.Modes[s[0]-'1']})
		}
	}
	return a, nil
}

// View renders the current screen.
func (a App) View() string {
	if a.quitting {
		return ""
	}
	return a.render(a.machine.View())
}

func (a App) render(v session.View) string {
	var b strings.Builder

	switch v := v.(type) {
	case session.Unauthenticated:
		a.renderForm(&b, "Log in", v.Error, v.Pending, "ctrl+n: sign up")

	case session.SigningUp:
		a.renderForm(&b, "Sign up", v.Error, v.Pending, "esc: back to log in")

	case session.Menu:
		b.WriteString(renderMenu(v, a.items, a.cursor, a.machine.Session(), a.width))

	case session.Playing:
		a.renderPlaying(&b, v)

	case session.Leaderboard:
		b.WriteString(centerText(titleStyle.Render("LEADERBOARD"), a.width))
		b.WriteString("\n\n")
		b.WriteString(a.status(v.Loading, v.Err, "Loading scores"))
		b.WriteString(boxStyle.Render(renderTableContent(a.table, "No scores recorded yet.")))

	case session.WatchList:
		b.WriteString(centerText(titleStyle.Render("LIVE GAMES"), a.width))
		b.WriteString("\n\n")
		b.WriteString(a.status(v.Loading, v.Err, "Looking for games"))
		b.WriteString(boxStyle.Render(renderTableContent(a.table, "Nobody is playing right now.")))

	case session.Watching:
		a.renderWatching(&b, v)

	default:
		panic(fmt.Sprintf("tui: unhandled view %T", v))
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(a.help.View(a.helpFor(v))))
	return b.String()
}

func (a App) status(loading bool, err, what string) string {
	switch {
	case loading:
		return a.spinner.View() + " " + what + "...\n"
	case err != "":
		return errStyle.Render("Error: "+err) + dimStyle.Render("  (r to retry)") + "\n"
	}
	return "\n"
}

func (a App) renderForm(b *strings.Builder, title, errMsg string, pending bool, hint string) {
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("SNAKE ARENA - " + title))
	b.WriteString("\n\n")
	b.WriteString(a.form.view())
	b.WriteString("\n\n")
	switch {
	case pending:
		b.WriteString(a.spinner.View() + " Contacting server...")
	case errMsg != "":
		b.WriteString(errStyle.Render(errMsg))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(hint))
	b.WriteString("\n")
}

func (a App) ensureScreen(w, h int) *core.Screen {
	w = max(w, a.width)
	if a.screen.Width() != w || a.screen.Height() != h {
		a.screen.Resize(w, h)
	}
	return a.screen
}

func (a App) renderPlaying(b *strings.Builder, v session.Playing) {
	bw, bh := snake.BoardSize(v.Game.Size())
	scr := a.ensureScreen(bw, bh+2)
	v.Game.Render(scr)
	b.WriteString(RenderScreen(scr))
	b.WriteString("\n")
	if a.machine.Session().Guest() {
		b.WriteString(dimStyle.Render("Playing as guest: not broadcast to spectators"))
		b.WriteString("\n")
	}
}

func (a App) renderWatching(b *strings.Builder, v session.Watching) {
	snap := v.Snapshot
	if snap == nil {
		b.WriteString("\n")
		if v.Err != "" {
			b.WriteString(errStyle.Render("Cannot reach game: " + v.Err))
			b.WriteString("\n")
		}
		b.WriteString(a.spinner.View() + " Connecting to game...")
		b.WriteString("\n")
		return
	}

	n := max(snap.GridSize, 1)
	bw, bh := snake.BoardSize(n)
	scr := a.ensureScreen(bw, bh+1)
	scr.Clear()
	ox := max((scr.Width()-bw)/2, 0)
	scr.DrawText(ox, 0, fmt.Sprintf("Watching %s (%s)  Score: %d", snap.Username, snap.Mode.Title(), snap.Score))
	snake.RenderBoard(scr, ox, 1, n, snap.Snake, snap.Food, snap.Alive)
	b.WriteString(RenderScreen(scr))
	b.WriteString("\n")

	switch {
	case v.Stale:
		b.WriteString(errStyle.Render("Connection lost, retrying: " + v.Err))
	case !snap.Alive:
		b.WriteString(dimStyle.Render("Game over"))
	}
	b.WriteString("\n")
}

// helpFor returns the bindings live on screen v.
func (a App) helpFor(v session.View) screenKeys {
	k := a.keys
	var short []key.Binding
	switch v.(type) {
	case session.Unauthenticated:
		short = []key.Binding{k.Focus, k.Select, k.Signup, k.ForceQuit}
	case session.SigningUp:
		short = []key.Binding{k.Focus, k.Select, k.Back, k.ForceQuit}
	case session.Menu:
		short = []key.Binding{k.Up, k.Down, k.Select, k.Scores, k.Watch, k.Logout, k.Quit}
	case session.Playing:
		short = []key.Binding{k.Steer, k.Abandon, k.ForceQuit}
	case session.Leaderboard:
		short = []key.Binding{k.Up, k.Down, k.Retry, k.Watch, k.Back, k.Quit}
	case session.WatchList:
		short = []key.Binding{k.Up, k.Down, k.Select, k.Retry, k.Scores, k.Back, k.Quit}
	case session.Watching:
		short = []key.Binding{k.Back, k.Menu, k.Quit}
	}
	return screenKeys{short: short, full: [][]key.Binding{short, {k.Help, k.ForceQuit}}}
}

// Run starts a full-screen client and blocks until the user quits.
func Run(opts session.Options, username string, mode snake.Mode) error {
	p := tea.NewProgram(NewApp(opts, username).WithDefaultMode(mode), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
