package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/snake-arena/internal/api"
)

// Table layout constants
const (
	tableChrome   = 10 // Title, status line, help and borders
	minTableRows  = 3
	nameColWidth  = 20
	modeColWidth  = 14
	dateColWidth  = 14
	rankColWidth  = 6
	scoreColWidth = 8
)

func newTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(height-tableChrome, minTableRows)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func leaderboardTable(entries []api.LeaderboardEntry, height int) table.Model {
	t := newTable([]table.Column{
		{Title: "Rank", Width: rankColWidth},
		{Title: "Player", Width: nameColWidth},
		{Title: "Score", Width: scoreColWidth},
		{Title: "Date", Width: dateColWidth},
	}, height)

	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		date := ""
		if !e.CreatedAt.IsZero() {
			date = e.CreatedAt.Local().Format("Jan 02 15:04")
		}
		rows[i] = table.Row{fmt.Sprintf("#%d", i+1), e.Username, fmt.Sprintf("%d", e.Score), date}
	}
	t.SetRows(rows)
	return t
}

func watchTable(games []api.GameSummary, height int) table.Model {
	t := newTable([]table.Column{
		{Title: "Player", Width: nameColWidth},
		{Title: "Mode", Width: modeColWidth},
	}, height)

	rows := make([]table.Row, len(games))
	for i, g := range games {
		rows[i] = table.Row{g.Username, g.Mode.Title()}
	}
	t.SetRows(rows)
	return t
}

// renderTableContent renders the table or a placeholder when it is empty.
func renderTableContent(t table.Model, empty string) string {
	if len(t.Rows()) == 0 {
		return dimStyle.Italic(true).Padding(1, 4).Render(empty)
	}
	return t.View()
}
