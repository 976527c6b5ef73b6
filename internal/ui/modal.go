package ui

import (
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// promptModal asks for one line of text and turns it into a path.
type promptModal struct {
	title  string
	hint   string
	input  textinput.Model
	toPath func(string) string
}

func newPrompt(title, hint, placeholder, value string, toPath func(string) string) promptModal {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 200
	in.Width = 40
	in.SetValue(value)
	in.Focus()
	return promptModal{title: title, hint: hint, input: in, toPath: toPath}
}

func newSearchPrompt() promptModal {
	return newPrompt("Search", "Courses, modules and topics", "anatomy", "", searchPath)
}

func newGoToPrompt(current string) promptModal {
	return newPrompt("Go to", "A path such as /courses/1 or #/topics/7", "/", current, strings.TrimSpace)
}

// searchPath builds the search route for a query.
func searchPath(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	return "/search/" + url.PathEscape(query)
}

func (p promptModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Cancel):
			return p, nil, true
		case key.Matches(km, keys.Submit):
			path := p.toPath(p.input.Value())
			if path == "" {
				return p, nil, true
			}
			return p, func() tea.Msg { return navigateMsg{path: path} }, true
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd, false
}

func (p promptModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(p.title))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(p.hint))
	b.WriteString("\n\n")
	b.WriteString(p.input.View())
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter confirm · esc cancel"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.BorderFocus)).
		Padding(1, 2).
		Width(50)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
