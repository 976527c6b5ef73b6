package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tamsa/libterm/internal/library"
)

// Controller is what the UI asks of the application. Navigation methods
// render through the Screen; the rest report their outcome directly.
type Controller interface {
	Navigate(ctx context.Context, path string)
	Back(ctx context.Context) bool
	Refresh(ctx context.Context)
	Login(ctx context.Context, username, password string) error
	Register(ctx context.Context, username, email, password string) (string, error)
	Logout()
	MarkComplete(ctx context.Context, topicID int64) error
	IsComplete(topicID int64) bool
	CompletedCount() int
	SaveTheme(name string) error
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller Controller
	Screen     *Screen
	ThemeName  string
	APIURL     string
	LogPath    string
}

type bannerKind int

const (
	bannerInfo bannerKind = iota
	bannerSuccess
	bannerError
)

// banner is the single inline line under the header used for every error
// and notice. A carried banner survives the next frame change.
type banner struct {
	text  string
	kind  bannerKind
	carry bool
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx     context.Context
	ctl     Controller
	screen  *Screen
	keys    keyMap
	apiURL  string
	logPath string

	theme  Theme
	width  int
	height int
	ready  bool

	shown    screenState
	cursor   int
	viewport viewport.Model
	spinner  spinner.Model
	form     form
	modal    Modal
	showHelp bool
	banner   banner
	busy     bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	screen := opts.Screen
	if screen == nil {
		screen = NewScreen()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		ctl:     opts.Controller,
		screen:  screen,
		keys:    DefaultKeyMap(),
		apiURL:  opts.APIURL,
		logPath: opts.LogPath,
		theme:   GetTheme(opts.ThemeName),
		spinner: sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.spinner.Tick,
		func() tea.Msg { return redrawMsg{} },
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, m.topicViewportHeight())
		}
		m.ready = true
		m.syncContent()
		return m, nil

	case redrawMsg:
		m.apply(m.screen.snapshot())
		return m, waitForRedraw(m.ctx, m.screen)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case navigateMsg:
		return m, m.navigateCmd(msg.path)

	case loginDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			m.form.clearSecret()
		}
		return m, nil

	case registerDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			m.form.clearSecret()
			return m, nil
		}
		notice := strings.TrimSpace(msg.message)
		if notice == "" {
			notice = "Registration successful"
		}
		m.banner = banner{text: notice + ". Please log in.", kind: bannerSuccess, carry: true}
		return m, m.navigateCmd("/login")

	case markDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.banner = banner{text: "Topic marked as complete", kind: bannerSuccess}
		}
		m.syncContent()
		return m, nil

	case themeSavedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil
	}

	if m.modal == nil && m.isForm() {
		return m, m.form.update(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// apply moves the model onto the latest screen state.
func (m *Model) apply(state screenState) {
	prev := m.shown
	newFrame := state.Frame.Seq != prev.Frame.Seq

	if newFrame {
		m.cursor = 0
		m.viewport.GotoTop()
		if m.banner.carry {
			m.banner.carry = false
		} else {
			m.banner = banner{}
		}
		if isFormKind(state.Frame.View.Kind) && prev.Frame.View.Kind != state.Frame.View.Kind {
			m.form = newForm(state.Frame.View.Kind)
		}
		if state.Frame.View.Kind == KindLogin && prev.Header.LoggedIn && m.banner.text == "" {
			m.banner = banner{text: sessionEndedNotice, kind: bannerInfo}
		}
	}
	if d := state.Delivery; d != nil && d.Err != nil && (prev.Delivery == nil || prev.Delivery.Seq != d.Seq) {
		m.setError(d.Err)
	}

	m.shown = state
	m.syncContent()
}

const sessionEndedNotice = "Your session has ended. Please log in again."

func (m *Model) setError(err error) {
	if err == nil || library.IsSessionExpired(err) {
		return
	}
	text := err.Error()
	var apiErr *library.APIError
	if errors.As(err, &apiErr) && apiErr.Kind == library.KindNetwork {
		text = "Cannot reach the library server. Check your connection and try again."
	}
	m.banner = banner{text: text, kind: bannerError}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	if m.isForm() {
		return m.handleFormKey(msg)
	}

	header := m.shown.Header
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.ToggleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.syncContent()
		return m, m.saveThemeCmd(m.theme.Name)
	case key.Matches(msg, m.keys.Back):
		return m, m.backCmd()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()
	case key.Matches(msg, m.keys.Home):
		return m, m.navigateCmd("/")
	case key.Matches(msg, m.keys.Courses):
		return m, m.navigateCmd("/courses")
	case key.Matches(msg, m.keys.Search):
		m.modal = newSearchPrompt()
		return m, nil
	case key.Matches(msg, m.keys.GoTo):
		m.modal = newGoToPrompt(m.shown.Frame.Path)
		return m, nil
	case key.Matches(msg, m.keys.Admin) && header.Admin:
		return m, m.navigateCmd("/admin/users")
	case key.Matches(msg, m.keys.About):
		return m, m.navigateCmd("/about")
	case key.Matches(msg, m.keys.Logout) && header.LoggedIn:
		m.banner = banner{text: "You have been logged out.", kind: bannerInfo, carry: true}
		return m, m.logoutCmd()
	}

	if m.shown.Frame.View.Kind == KindTopic {
		return m.handleTopicKey(msg)
	}
	return m.handleListKey(msg)
}

// handleListKey moves the cursor and opens list entries.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.items()
	if len(items) == 0 {
		return m, nil
	}
	half := maxInt(1, m.contentHeight()/2)
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = len(items) - 1
	case key.Matches(msg, m.keys.HalfPageUp):
		m.cursor = maxInt(0, m.cursor-half)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.cursor = minInt(len(items)-1, m.cursor+half)
	case key.Matches(msg, m.keys.Open):
		if m.cursor < len(items) && items[m.cursor].Path != "" {
			return m, m.navigateCmd(items[m.cursor].Path)
		}
	}
	return m, nil
}

// handleTopicKey scrolls topic content and marks it complete.
func (m Model) handleTopicKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.MarkComplete), key.Matches(msg, m.keys.Open):
		topic, ok := m.topic()
		if !ok || m.busy || m.ctl == nil || m.ctl.IsComplete(topic.ID) {
			return m, nil
		}
		m.busy = true
		return m, m.markCompleteCmd(topic.ID)
	case key.Matches(msg, m.keys.Up):
		m.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.viewport.HalfPageUp()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.viewport.HalfPageDown()
	}
	return m, nil
}

// handleFormKey drives the login and register forms.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Switch):
		if m.form.kind == KindLogin {
			return m, m.navigateCmd("/register")
		}
		return m, m.navigateCmd("/login")
	case key.Matches(msg, m.keys.Cancel):
		if m.form.kind == KindRegister {
			return m, m.navigateCmd("/login")
		}
		if m.shown.Header.LoggedIn {
			return m, m.backCmd()
		}
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		return m, m.form.focusNext(1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.form.focusNext(-1)
	case key.Matches(msg, m.keys.Submit):
		if m.busy {
			return m, nil
		}
		if !m.form.complete() {
			m.banner = banner{text: "Please fill in all fields.", kind: bannerError}
			return m, nil
		}
		m.busy = true
		m.banner = banner{}
		values := m.form.values()
		if m.form.kind == KindLogin {
			return m, m.loginCmd(values[0], values[1])
		}
		return m, m.registerCmd(values[0], values[1], values[2])
	}
	return m, m.form.update(msg)
}

func (m Model) isForm() bool {
	return isFormKind(m.shown.Frame.View.Kind) && len(m.form.inputs) > 0
}

// syncContent refreshes the viewport for the current frame.
func (m *Model) syncContent() {
	if !m.ready {
		return
	}
	m.viewport.Width = m.width
	m.viewport.Height = m.topicViewportHeight()
	topic, ok := m.topic()
	if !ok {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(m.topicBody(topic))
}

func (m Model) topic() (library.Topic, bool) {
	if m.shown.Frame.View.Kind != KindTopic || m.shown.Delivery == nil {
		return library.Topic{}, false
	}
	topic, ok := m.shown.Delivery.Data.(library.Topic)
	if !ok {
		return library.Topic{}, false
	}
	if topic.ID == 0 {
		topic.ID, _ = m.shown.Frame.View.Params.Int64(0)
	}
	return topic, true
}

func (m Model) contentHeight() int {
	h := m.height - footerLines - bannerLines
	if m.shown.Frame.Chrome {
		h -= headerLines
	}
	return maxInt(1, h)
}

// topicViewportHeight leaves room for the completion button.
func (m Model) topicViewportHeight() int {
	return maxInt(1, m.contentHeight()-2)
}

// Messages

type navigateMsg struct{ path string }

type loginDoneMsg struct{ err error }

type registerDoneMsg struct {
	message string
	err     error
}

type markDoneMsg struct {
	topicID int64
	err     error
}

type themeSavedMsg struct{ err error }

// Commands

func (m Model) navigateCmd(path string) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	if ctl == nil {
		return nil
	}
	return func() tea.Msg {
		ctl.Navigate(ctx, path)
		return nil
	}
}

func (m Model) backCmd() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	if ctl == nil {
		return nil
	}
	return func() tea.Msg {
		ctl.Back(ctx)
		return nil
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	if ctl == nil {
		return nil
	}
	return func() tea.Msg {
		ctl.Refresh(ctx)
		return nil
	}
}

func (m Model) loginCmd(username, password string) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return loginDoneMsg{err: ctl.Login(ctx, username, password)}
	}
}

func (m Model) registerCmd(username, email, password string) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		message, err := ctl.Register(ctx, username, email, password)
		return registerDoneMsg{message: message, err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	ctl := m.ctl
	if ctl == nil {
		return nil
	}
	return func() tea.Msg {
		ctl.Logout()
		return nil
	}
}

func (m Model) markCompleteCmd(topicID int64) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return markDoneMsg{topicID: topicID, err: ctl.MarkComplete(ctx, topicID)}
	}
}

func (m Model) saveThemeCmd(name string) tea.Cmd {
	ctl := m.ctl
	if ctl == nil {
		return nil
	}
	return func() tea.Msg {
		return themeSavedMsg{err: ctl.SaveTheme(name)}
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
