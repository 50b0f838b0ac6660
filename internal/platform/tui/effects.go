// Package tui is the Bubble Tea front end of the snake client. It renders the
// session machine's current screen, turns key presses into session events
// and runs the machine's effects as commands.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/snake-arena/internal/session"
)

// effectCmd turns an effect into a command. Delayed effects become tea.Tick
// timers; the event they return is fed back through Update.
func effectCmd(ctx context.Context, eff session.Effect) tea.Cmd {
	run := func() tea.Msg {
		if ev := eff.Run(ctx); ev != nil {
			return ev
		}
		return nil
	}
	if eff.Delay > 0 {
		return tea.Tick(eff.Delay, func(time.Time) tea.Msg {
			return run()
		})
	}
	return run
}

func effectCmds(ctx context.Context, effs []session.Effect) tea.Cmd {
	if len(effs) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(effs))
	for _, eff := range effs {
		cmds = append(cmds, effectCmd(ctx, eff))
	}
	return tea.Batch(cmds...)
}
