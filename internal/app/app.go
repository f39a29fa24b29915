package app

import (
	"fmt"
	"net/url"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/nhle/lms-notify/internal/channel"
	"github.com/nhle/lms-notify/internal/model"
	"github.com/nhle/lms-notify/internal/notify"
	"github.com/nhle/lms-notify/internal/store"
	appsync "github.com/nhle/lms-notify/internal/sync"
	"github.com/nhle/lms-notify/internal/theme"
	"github.com/nhle/lms-notify/internal/ui"
	"github.com/nhle/lms-notify/internal/ui/bell"
	"github.com/nhle/lms-notify/internal/ui/command"
	"github.com/nhle/lms-notify/internal/ui/dropdown"
	helpview "github.com/nhle/lms-notify/internal/ui/help"
	"github.com/nhle/lms-notify/internal/ui/setup"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewMain ViewState = iota
	ViewSetup
	ViewHelp
	ViewCommand
)

// Options wires the root model to its collaborators.
type Options struct {
	Config     *model.AppConfig
	ConfigPath string
	Prefs      store.Store
	Connector  Connector
	Probe      setup.Validator
	Log        *logrus.Entry
	Now        func() time.Time
}

// Model is the root Bubble Tea model. It owns the notification store and
// routes page props from refreshes and actions into it, then mirrors the
// result on the bell, the dropdown and the sound cue.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *KeyMap
	cfg          *model.AppConfig
	configPath   string
	prefs        store.Store
	connector    Connector
	probe        setup.Validator
	log          *logrus.Entry
	now          func() time.Time

	session  *Session
	notes    *notify.Store
	bell     bell.Model
	dropdown dropdown.Model
	open     bool
	sound    bool
	loaded   bool

	helpView    helpview.Model
	commandView command.Model
	setupView   setup.Model

	ready  bool
	alert  string
	status string
}

// New creates the root application model. When no server is configured
// the first-run setup form is shown instead of connecting.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg, _ = model.LoadConfig("")
	}
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	loc := cfg.Location()

	keys := DefaultKeyMap()
	m := Model{
		currentView: ViewMain,
		keys:        keys,
		cfg:         cfg,
		configPath:  opts.ConfigPath,
		prefs:       opts.Prefs,
		connector:   opts.Connector,
		probe:       opts.Probe,
		log:         log.WithField("component", "app"),
		now:         func() time.Time { return now().In(loc) },
		sound:       cfg.Sound.DefaultEnabled,
		bell:        bell.New(),
		helpView:    helpview.New(keys, 80, 24),
		commandView: command.New(80, 24),
		setupView:   setup.New(cfg, opts.ConfigPath, opts.Probe, 80, 24),
	}
	m.resetNotifications()

	if cfg.Server.URL == "" {
		m.currentView = ViewSetup
	}
	return m
}

// resetNotifications starts from an empty store, as after switching portals.
func (m *Model) resetNotifications() {
	m.notes = notify.NewStore()
	m.loaded = false
	m.open = false
	m.dropdown = dropdown.New(m.notes, m.keys, m.cfg.Display.DropdownLimit, m.layout.ContentWidth(), m.layout.ContentHeight())
	m.dropdown.SetClock(m.now)
	m.dropdown.SetSound(m.sound)
	m.bell.SetState(false, 0, false)
}

// Init either starts the setup form or connects to the configured portal.
func (m Model) Init() tea.Cmd {
	if m.currentView == ViewSetup {
		return m.setupView.Init()
	}
	return m.connect()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.dropdown.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.setupView.SetSize(contentWidth, contentHeight)
		// Forward to the setup form so huh can lay itself out.
		if m.currentView == ViewSetup {
			return m.updateActiveView(msg)
		}
		return m, nil

	case sessionReadyMsg:
		if msg.err != nil {
			m.alert = "cannot connect: " + msg.err.Error()
			m.log.WithError(msg.err).Error("connecting to portal")
			return m, nil
		}
		m.session = msg.session
		m.sound = m.session.Cue.Enabled()
		m.dropdown.SetSound(m.sound)
		m.session.Start()
		return m, m.session.Poller.Start()

	case appsync.PropsMsg:
		var wait tea.Cmd
		if m.session != nil {
			wait = m.session.Poller.WaitForNextResult()
		}
		return m, tea.Batch(wait, m.apply("refresh", msg.Props, msg.Err))

	case actionResultMsg:
		if msg.err != nil && msg.kind == actionDelete && m.session != nil {
			// The item was hidden optimistically; let the server decide.
			m.session.Poller.Refresh()
		}
		return m, m.apply(string(msg.kind), msg.props, msg.err)

	case bell.TickMsg:
		var cmd tea.Cmd
		m.bell, cmd = m.bell.Update(msg)
		return m, cmd

	case dropdown.OpenMsg:
		return m, m.openNotification(msg.Notification)

	case dropdown.MarkReadMsg:
		if m.session == nil {
			return m, nil
		}
		return m, m.markRead(msg.ID)

	case dropdown.DeleteMsg:
		if m.session == nil {
			return m, nil
		}
		m.notes.Remove(msg.ID)
		return m, tea.Batch(m.syncBell(), m.deleteNotification(msg.ID))

	case dropdown.ReadAllMsg:
		if m.session == nil {
			return m, nil
		}
		return m, m.markAllRead()

	case dropdown.ToggleSoundMsg:
		return m, m.setSound(!m.sound)

	case dropdown.ViewAllMsg:
		m.setOpen(false)
		if m.session == nil {
			return m, nil
		}
		return m, m.visit(msg.URL)

	case dropdown.CloseMsg:
		m.setOpen(false)
		return m, nil

	case navigatedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("opening link")
			m.status = "open in browser: " + msg.url
		} else {
			m.status = "opened " + msg.url
		}
		return m, nil

	case prefSavedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Warn("saving sound preference")
			m.status = "sound preference not saved"
		}
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case setup.DoneMsg:
		m.cfg = msg.Config
		m.currentView = ViewMain
		m.alert = ""
		if m.session != nil {
			m.session.Close()
			m.session = nil
		}
		m.resetNotifications()
		return m, m.connect()

	case setup.CancelMsg:
		if m.session == nil {
			return m, tea.Quit
		}
		m.currentView = ViewMain
		return m, nil

	case tea.MouseMsg:
		if m.currentView == ViewMain {
			return m.handleMouse(msg)
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		switch m.currentView {
		case ViewMain:
			return m.handleMainKeys(msg)
		case ViewHelp:
			switch {
			case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Close):
				m.currentView = m.previousView
				return m, nil
			case key.Matches(msg, m.keys.Quit):
				return m, m.quit()
			}
			return m, nil
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewMain:
		if m.open {
			m.dropdown, cmd = m.dropdown.Update(msg)
		}
	case ViewSetup:
		m.setupView, cmd = m.setupView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

func (m Model) handleMainKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Help) {
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Refresh):
		if m.session != nil {
			m.session.Poller.Refresh()
			m.status = "refreshing..."
		}
		return m, nil
	}

	if m.open {
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		m.setOpen(true)
		return m, nil

	case key.Matches(msg, m.keys.Sound):
		return m, m.setSound(!m.sound)

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus()
	}
	return m, nil
}

// handleMouse toggles the panel from the bell and closes it on clicks
// outside the panel.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress {
		return m, nil
	}
	if msg.Button != tea.MouseButtonLeft {
		return m.updateActiveView(msg)
	}

	if m.bell.Visible() && m.layout.InHeaderControl(msg.X, msg.Y, lipgloss.Width(m.bell.View())) {
		m.setOpen(!m.open)
		return m, nil
	}
	if !m.open {
		return m, nil
	}
	x, y, ok := m.inPanel(msg.X, msg.Y)
	if !ok {
		m.setOpen(false)
		return m, nil
	}
	if n, ok := m.dropdown.RowAt(x, y); ok {
		return m, func() tea.Msg { return dropdown.OpenMsg{Notification: n} }
	}
	return m, nil
}

// inPanel translates (x, y) into dropdown coordinates and reports whether
// the point is inside the rendered panel.
func (m Model) inPanel(x, y int) (int, int, bool) {
	panel := m.dropdown.View()
	left := m.layout.Width - lipgloss.Width(panel)
	top := m.layout.HeaderHeight
	ok := x >= left && y >= top && y < top+lipgloss.Height(panel)
	return x - left, y - top, ok
}

// setOpen opens or closes the dropdown. It only opens while the page
// carries notification props.
func (m *Model) setOpen(open bool) {
	if open && !m.notes.Available() {
		return
	}
	if open && !m.open {
		m.dropdown.Reset()
	}
	m.open = open
	m.bell.SetOpen(open)
}

func (m *Model) setSound(enabled bool) tea.Cmd {
	m.sound = enabled
	m.dropdown.SetSound(enabled)
	if m.session != nil {
		m.session.Cue.SetEnabled(enabled)
	}
	return m.saveSound(enabled)
}

// openNotification marks an unread item read, follows its action link and
// closes the panel.
func (m *Model) openNotification(n model.Notification) tea.Cmd {
	m.setOpen(false)
	if m.session == nil {
		return nil
	}

	var cmds []tea.Cmd
	if n.IsUnread() {
		cmds = append(cmds, m.markRead(n.ID))
	}
	if n.HasAction() {
		cmds = append(cmds, m.visit(*n.ActionURL))
	}
	return tea.Batch(cmds...)
}

// apply folds a server response into the store. Failures keep the current
// state and surface as a status bar hint until the next success.
func (m *Model) apply(op string, props model.PageProps, err error) tea.Cmd {
	if err != nil {
		m.alert = describeError(op, err)
		m.log.WithError(err).WithField("op", op).Warn("portal request failed")
		return nil
	}

	m.alert = ""
	m.status = ""
	m.notes.Apply(props)
	m.loaded = true

	if m.session != nil && m.notes.Available() {
		m.session.Cue.Observe(m.notes.TotalUnread())
	}
	if !m.notes.Available() {
		m.setOpen(false)
	}
	return m.syncBell()
}

func (m *Model) syncBell() tea.Cmd {
	return m.bell.SetState(m.notes.Available(), m.notes.TotalUnread(), m.notes.HasUrgentUnread())
}

func (m *Model) quit() tea.Cmd {
	if m.session != nil {
		m.session.Close()
	}
	return tea.Quit
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch command.Normalize(cmd) {
	case command.Refresh, "sync":
		if m.session != nil {
			m.session.Poller.Refresh()
		}
		return nil
	case command.ReadAll:
		if m.session == nil || m.notes.TotalUnread() == 0 {
			return nil
		}
		return m.markAllRead()
	case command.SoundOn:
		return m.setSound(true)
	case command.SoundOff:
		return m.setSound(false)
	case command.ViewAll:
		if m.session == nil || m.notes.Config().AllURL == "" {
			return nil
		}
		return m.visit(m.notes.Config().AllURL)
	case command.Setup, "configure":
		m.previousView = m.currentView
		m.currentView = ViewSetup
		m.setupView = setup.New(m.cfg, m.configPath, m.probe, m.layout.ContentWidth(), m.layout.ContentHeight())
		return m.setupView.Init()
	case command.Quit, "q":
		return m.quit()
	default:
		m.status = "unknown command: " + cmd
		return nil
	}
}

// describeError turns a channel error into a short status bar hint.
func describeError(op string, err error) string {
	if channel.IsAuthError(err) {
		return op + " failed: session expired, sign in again"
	}
	if status := channel.StatusOf(err); status != 0 {
		return fmt.Sprintf("%s failed: HTTP %d", op, status)
	}
	return op + " failed: portal unreachable"
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(m.title(), m.bell.View())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.alert)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

func (m Model) title() string {
	host := m.cfg.Server.URL
	if u, err := url.Parse(host); err == nil && u.Host != "" {
		host = u.Host
	}
	if host == "" {
		return "lmsnotify"
	}
	return fmt.Sprintf("lmsnotify · %s@%s", m.cfg.RoleOrDefault(), host)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewSetup:
		return m.setupView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	}

	if m.open {
		return lipgloss.PlaceHorizontal(m.layout.ContentWidth(), lipgloss.Right, m.dropdown.View())
	}
	return m.renderIdle()
}

// renderIdle is shown while the panel is closed.
func (m Model) renderIdle() string {
	var lines []string
	switch {
	case m.session == nil:
		lines = append(lines, "Connecting to "+m.cfg.Server.URL+"...")
	case !m.loaded:
		lines = append(lines, "Waiting for the portal...")
	case !m.notes.Available():
		lines = append(lines, "This page carries no notifications.")
	default:
		summary := "Tidak ada notifikasi baru"
		if n := m.notes.TotalUnread(); n > 0 {
			summary = fmt.Sprintf("%d belum dibaca", n)
		}
		lines = append(lines,
			lipgloss.NewStyle().Bold(true).Render(summary),
			theme.HelpStyle.Render("press b to open notifications"),
		)
	}
	if m.session != nil {
		if last := m.session.Poller.Status().LastSync; !last.IsZero() {
			lines = append(lines, theme.MutedStyle.Render("last sync "+last.Format("15:04:05")))
		}
	}

	return lipgloss.NewStyle().
		Width(m.layout.ContentWidth()).
		Height(m.layout.ContentHeight()).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewSetup:
		return "enter next | esc cancel"
	}

	hints := "q quit | b notifications | R refresh | : command | ? help"
	if m.open {
		hints = "j/k move | enter open | r read | d delete | A read all | s sound | v view all | esc close"
	}
	if m.status != "" {
		return m.status + " | " + hints
	}
	return hints
}
