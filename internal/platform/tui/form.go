package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// authForm is the username/password pair shared by the login and sign-up
// screens.
type authForm struct {
	inputs [2]textinput.Model
	focus  int
}

const (
	fieldUsername = iota
	fieldPassword
)

func newAuthForm(username string) authForm {
	user := textinput.New()
	user.Placeholder = "username"
	user.Prompt = "Username: "
	user.CharLimit = 32
	user.SetValue(username)

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.Prompt = "Password: "
	pass.CharLimit = 72
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	f := authForm{inputs: [2]textinput.Model{user, pass}}
	if username != "" {
		f.focus = fieldPassword
	}
	f.inputs[f.focus].Focus()
	return f
}

// next moves focus to the other field.
func (f authForm) next() authForm {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + 1) % len(f.inputs)
	f.inputs[f.focus].Focus()
	return f
}

func (f authForm) values() (string, string) {
	return strings.TrimSpace(f.inputs[fieldUsername].Value()), f.inputs[fieldPassword].Value()
}

// clearPassword keeps the username so a failed attempt can be retried.
func (f authForm) clearPassword() authForm {
	f.inputs[fieldPassword].Reset()
	return f
}

func (f authForm) update(msg tea.Msg) (authForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f authForm) view() string {
	return f.inputs[fieldUsername].View() + "\n" + f.inputs[fieldPassword].View()
}
