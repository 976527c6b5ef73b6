package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type formField struct {
	label       string
	placeholder string
	secret      bool
}

var formFields = map[string][]formField{
	KindLogin: {
		{label: "Username", placeholder: "username"},
		{label: "Password", placeholder: "password", secret: true},
	},
	KindRegister: {
		{label: "Username", placeholder: "username"},
		{label: "Email", placeholder: "you@example.com"},
		{label: "Password", placeholder: "password", secret: true},
	},
}

// form holds the inputs of the login or register view.
type form struct {
	kind   string
	fields []formField
	inputs []textinput.Model
	focus  int
}

func isFormKind(kind string) bool {
	_, ok := formFields[kind]
	return ok
}

func newForm(kind string) form {
	fields := formFields[kind]
	inputs := make([]textinput.Model, len(fields))
	for i, field := range fields {
		in := textinput.New()
		in.Placeholder = field.placeholder
		in.CharLimit = 128
		in.Width = 32
		if field.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		inputs[i] = in
	}
	f := form{kind: kind, fields: fields, inputs: inputs}
	if len(inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

// focusNext moves focus by delta, wrapping around.
func (f *form) focusNext(delta int) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	return f.inputs[f.focus].Focus()
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	if len(f.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// values returns the trimmed field values. Secrets are not trimmed.
func (f form) values() []string {
	out := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		if f.fields[i].secret {
			out[i] = in.Value()
			continue
		}
		out[i] = strings.TrimSpace(in.Value())
	}
	return out
}

func (f form) complete() bool {
	if len(f.inputs) == 0 {
		return false
	}
	for _, v := range f.values() {
		if v == "" {
			return false
		}
	}
	return true
}

// clearSecret empties password fields and focuses the first one.
func (f *form) clearSecret() {
	for i := range f.inputs {
		if f.fields[i].secret {
			f.inputs[i].SetValue("")
			f.inputs[f.focus].Blur()
			f.focus = i
			f.inputs[i].Focus()
			return
		}
	}
}
