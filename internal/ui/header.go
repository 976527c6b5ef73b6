package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the navigation bar drawn around protected views.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	header := m.shown.Header

	links := []string{"H Dashboard", "c Courses", "/ Search"}
	if header.Admin {
		links = append(links, "A Users")
	}
	links = append(links, "i About")

	left := bg.Render("libterm", styles.Logo) + bg.Spaces(2) +
		bg.Render(strings.Join(links, "  "), styles.MutedText)

	var right string
	if header.LoggedIn {
		count := 0
		if m.ctl != nil {
			count = m.ctl.CompletedCount()
		}
		done := fmt.Sprintf("✓ %d %s", count, pluralize(count, "topic", "topics"))
		who := header.Username
		if header.Admin {
			who += " (admin)"
		}
		right = bg.Render(done, styles.SuccessText) + bg.Spaces(2) +
			bg.Render(who, styles.AccentText) + bg.Spaces(2) +
			bg.Render("L Log out", styles.FaintText)
	} else {
		right = bg.Render("Log in", styles.AccentText)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return styles.Header.Width(m.width).Render(left + bg.Spaces(gap) + right)
}

// renderBanner renders the inline message line.
func (m Model) renderBanner() string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)
	if m.banner.text == "" {
		return bg.FillLine("", m.width)
	}
	var text string
	switch m.banner.kind {
	case bannerError:
		text = bg.Render("✗ "+m.banner.text, styles.DangerText)
	case bannerSuccess:
		text = bg.Render("✓ "+m.banner.text, styles.SuccessText)
	default:
		text = bg.Render("• "+m.banner.text, styles.InfoText)
	}
	return bg.FillLine(bg.Space()+text, m.width)
}

// renderFooter renders key hints for the current view.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var hints []string
	switch kind := m.shown.Frame.View.Kind; {
	case isFormKind(kind):
		hints = []string{"tab next field", "enter submit", "ctrl+r login/register"}
		if kind == KindRegister {
			hints = append(hints, "esc back to login")
		}
	case kind == KindTopic:
		hints = []string{"m mark complete", "j/k scroll", "esc back"}
	default:
		hints = []string{"j/k move", "enter open", "esc back", "r reload"}
	}
	hints = append(hints, "T theme", "? help", "ctrl+c quit")
	return styles.Footer.Width(m.width).Render(bg.Render(strings.Join(hints, " · "), styles.MutedText))
}
