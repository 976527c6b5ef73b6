package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tamsa/libterm/internal/library"
	"github.com/tamsa/libterm/internal/router"
)

// Completion button labels on the topic page.
const (
	markCompleteLabel = "[ Mark as Complete ]"
	completedLabel    = "[ Completed ]"
)

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	if m.shown.Frame.Chrome {
		b.WriteString(m.renderHeader())
		b.WriteString("\n")
	}
	b.WriteString(m.renderBanner())
	b.WriteString("\n")

	content := m.renderContent()
	b.WriteString(lipgloss.NewStyle().
		Width(m.width).
		Height(m.contentHeight()).
		MaxHeight(m.contentHeight()).
		Render(content))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderContent renders the page body for the current frame.
func (m Model) renderContent() string {
	styles := m.theme.Styles()
	frame := m.shown.Frame
	if frame.Seq == 0 {
		return styles.MutedText.Render(" Starting...")
	}

	switch frame.View.Kind {
	case KindLogin, KindRegister:
		return m.renderForm()
	case KindAbout:
		return m.renderAbout()
	case router.NotFoundKind:
		return m.renderNotFound()
	}

	delivery := m.shown.Delivery
	if frame.Loading && delivery == nil {
		return " " + m.spinner.View() + " " + styles.MutedText.Render("Loading "+strings.ToLower(frame.View.Title)+"...")
	}
	if delivery != nil && delivery.Err != nil {
		return m.heading(frame.View.Title) + "\n\n" +
			styles.MutedText.Render(" This page could not be loaded. Press r to try again.")
	}

	var data any
	if delivery != nil {
		data = delivery.Data
	}
	switch frame.View.Kind {
	case KindTopic:
		return m.renderTopic()
	case KindHome:
		return m.renderDashboard(data)
	default:
		return m.renderList(viewTitle(frame, data), m.emptyText(frame.View.Kind))
	}
}

func (m Model) heading(title string) string {
	return " " + m.theme.Styles().Heading.Render(title)
}

func (m Model) emptyText(kind string) string {
	switch kind {
	case KindCourses:
		return "No courses yet."
	case KindCourse:
		return "This course has no modules yet."
	case KindModule:
		return "This module has no topics yet."
	case KindSearch:
		return "No results."
	case KindUsers:
		return "No users."
	default:
		return "Nothing here."
	}
}

// renderDashboard renders the home view: a greeting, progress and courses.
func (m Model) renderDashboard(data any) string {
	styles := m.theme.Styles()
	name := m.shown.Header.Username
	if name == "" {
		name = "reader"
	}
	count := 0
	if m.ctl != nil {
		count = m.ctl.CompletedCount()
	}

	var b strings.Builder
	b.WriteString(m.heading("Welcome back, " + name))
	b.WriteString("\n")
	b.WriteString(" " + styles.SuccessText.Render(fmt.Sprintf("%d %s completed", count, pluralize(count, "topic", "topics"))))
	b.WriteString("\n\n")

	list := m.renderList("Courses", "No courses yet.")
	b.WriteString(list)
	return b.String()
}

// renderList renders the current rows with the cursor kept in view.
func (m Model) renderList(title, empty string) string {
	styles := m.theme.Styles()
	items := m.items()

	var b strings.Builder
	b.WriteString(m.heading(title))
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString(" " + styles.MutedText.Render(empty))
		return b.String()
	}

	visible := maxInt(1, m.contentHeight()-6)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := minInt(len(items), start+visible)

	nameWidth := 0
	for _, it := range items[start:end] {
		nameWidth = maxInt(nameWidth, len([]rune(it.Title)))
	}
	nameWidth = minInt(nameWidth, 40)

	for i := start; i < end; i++ {
		it := items[i]
		marker := "  "
		if i == m.cursor {
			marker = "› "
		}
		line := marker + padRight(truncate(it.Title, 40), nameWidth)
		if it.TopicID != 0 && m.ctl != nil && m.ctl.IsComplete(it.TopicID) {
			line += " ✓"
		}
		if it.Detail != "" && m.width >= LayoutCompactWidth {
			detailWidth := maxInt(10, m.width-nameWidth-20)
			line += "  " + styles.MutedText.Render(truncate(it.Detail, detailWidth))
		}
		if i == m.cursor {
			line = styles.Selected.Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		if it.Badge != "" {
			line += " " + styles.BadgeStyle(it.Badge).Render(titleCase(it.Badge))
		}
		b.WriteString(" " + line + "\n")
	}
	if len(items) > visible {
		b.WriteString(" " + styles.FaintText.Render(fmt.Sprintf("%d of %d", m.cursor+1, len(items))))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderTopic renders the topic viewport and its completion button.
func (m Model) renderTopic() string {
	topic, ok := m.topic()
	if !ok {
		return m.heading(m.shown.Frame.View.Title)
	}
	completed := m.ctl != nil && m.ctl.IsComplete(topic.ID)
	return m.viewport.View() + "\n\n " + m.completionButton(completed)
}

func (m Model) completionButton(completed bool) string {
	styles := m.theme.Styles()
	if completed {
		return styles.DisabledButton.Render(completedLabel)
	}
	if m.busy {
		return styles.Button.Render(markCompleteLabel) + " " + m.spinner.View()
	}
	return styles.Button.Render(markCompleteLabel)
}

// topicBody is the scrollable part of the topic page.
func (m Model) topicBody(topic library.Topic) string {
	styles := m.theme.Styles()
	width := maxInt(20, m.width-2)

	var b strings.Builder
	b.WriteString(m.heading(topic.Name))
	b.WriteString("\n\n")

	text := htmlToText(topic.Content)
	if text == "" {
		text = "This topic has no content yet."
	}
	b.WriteString(lipgloss.NewStyle().Width(width).PaddingLeft(1).Render(styles.Text.Render(text)))
	b.WriteString("\n\n")

	b.WriteString(" " + styles.AccentText.Bold(true).Render("Resources"))
	b.WriteString("\n")
	if len(topic.Resources) == 0 {
		b.WriteString(" " + styles.MutedText.Render("No resources for this topic."))
		return b.String()
	}
	for _, r := range topic.Resources {
		label := r.TypeLabel()
		b.WriteString(" • " + styles.BadgeStyle(r.ResourceType).Render(label) + " " +
			styles.Text.Render(r.Name) + "  " +
			styles.MutedText.Render(truncateMiddle(r.PathOrURL, maxInt(20, width-len(r.Name)-16))))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderForm renders the login or register form.
func (m Model) renderForm() string {
	styles := m.theme.Styles()
	title := "Log in"
	subtitle := "Sign in to browse the library."
	if m.form.kind == KindRegister {
		title = "Create an account"
		subtitle = "Register, then log in with your new account."
	}

	var b strings.Builder
	b.WriteString(styles.Logo.Render("libterm"))
	b.WriteString("\n\n")
	b.WriteString(styles.Heading.Render(title))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(subtitle))
	b.WriteString("\n\n")
	for i, in := range m.form.inputs {
		label := styles.Text.Render(padRight(m.form.fields[i].label, 10))
		if i == m.form.focus {
			label = styles.AccentText.Render(padRight(m.form.fields[i].label, 10))
		}
		b.WriteString(label + " " + in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.busy {
		b.WriteString(m.spinner.View() + " " + styles.MutedText.Render("Please wait..."))
	} else if m.form.kind == KindLogin {
		b.WriteString(styles.FaintText.Render("No account? Press ctrl+r to register."))
	} else {
		b.WriteString(styles.FaintText.Render("Have an account? Press ctrl+r to log in."))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Border)).
		Padding(1, 3)
	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center, box.Render(b.String()))
}

// renderAbout renders the about page.
func (m Model) renderAbout() string {
	styles := m.theme.Styles()
	rows := [][2]string{
		{"Server", m.apiURL},
		{"Theme", m.theme.Name},
		{"Log file", m.logPath},
	}
	var b strings.Builder
	b.WriteString(m.heading("About libterm"))
	b.WriteString("\n\n")
	b.WriteString(" " + styles.Text.Render("A terminal client for the course library: browse courses, modules and topics and track what you have completed."))
	b.WriteString("\n\n")
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		b.WriteString(" " + styles.MutedText.Render(padRight(row[0], 10)) + styles.Text.Render(truncateMiddle(row[1], maxInt(20, m.width-14))))
		b.WriteString("\n")
	}
	b.WriteString("\n " + styles.FaintText.Render("Press ? for keyboard shortcuts."))
	return b.String()
}

// renderNotFound renders the page for unmatched paths.
func (m Model) renderNotFound() string {
	styles := m.theme.Styles()
	return m.heading("Page not found") + "\n\n" +
		" " + styles.Text.Render("Nothing lives at "+m.shown.Frame.Path+".") + "\n" +
		" " + styles.MutedText.Render("Press H for the dashboard or esc to go back.")
}
