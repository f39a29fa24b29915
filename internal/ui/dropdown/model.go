// Package dropdown renders the notification panel opened from the bell and
// translates key presses into notification actions.
package dropdown

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/nhle/lms-notify/internal/keys"
	"github.com/nhle/lms-notify/internal/model"
	"github.com/nhle/lms-notify/internal/notify"
	"github.com/nhle/lms-notify/internal/theme"
)

const (
	Title        = "Notifikasi"
	ReadAllLabel = "Baca Semua"
	MuteLabel    = "Matikan suara"
	UnmuteLabel  = "Nyalakan suara"
	EmptyTitle   = "Tidak ada notifikasi"
	EmptyHint    = "Notifikasi baru akan muncul di sini"
	ViewAllLabel = "Lihat Semua Notifikasi"
	MarkHint     = "Tandai dibaca"
	DeleteHint   = "Hapus"

	maxWidth     = 60
	messageLines = 2
)

// OpenMsg asks the app to open a notification: mark it read when unread,
// follow its action URL and close the panel.
type OpenMsg struct {
	Notification model.Notification
}

// MarkReadMsg asks the app to mark one notification read.
type MarkReadMsg struct {
	ID int64
}

// DeleteMsg asks the app to delete one notification.
type DeleteMsg struct {
	ID int64
}

// ReadAllMsg asks the app to mark everything read.
type ReadAllMsg struct{}

// ToggleSoundMsg flips the sound preference.
type ToggleSoundMsg struct{}

// ViewAllMsg asks the app to navigate to the full notifications page.
type ViewAllMsg struct {
	URL string
}

// CloseMsg closes the panel.
type CloseMsg struct{}

// Model is the dropdown panel.
type Model struct {
	store    *notify.Store
	keys     *keys.KeyMap
	limit    int
	now      func() time.Time
	sound    bool
	cursor   int
	viewport viewport.Model
	width    int
	height   int
}

// New creates a dropdown over the given store. limit caps how many items
// are listed.
func New(s *notify.Store, k *keys.KeyMap, limit, width, height int) Model {
	m := Model{
		store:    s,
		keys:     k,
		limit:    limit,
		now:      time.Now,
		viewport: viewport.New(width, height),
	}
	m.SetSize(width, height)
	return m
}

// SetClock replaces the time source used for day buckets and relative
// times. The returned location decides where midnight falls.
func (m *Model) SetClock(now func() time.Time) {
	m.now = now
}

// SetSound reflects the current sound preference in the header.
func (m *Model) SetSound(enabled bool) {
	m.sound = enabled
}

// Reset moves the cursor back to the first item.
func (m *Model) Reset() {
	m.cursor = 0
}

// SetSize updates the space the panel may occupy.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Width returns the rendered panel width including its border.
func (m Model) Width() int {
	return m.panelWidth() + 2
}

func (m Model) panelWidth() int {
	w := m.width - 2
	if w > maxWidth {
		w = maxWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// visible returns the listed items in display order.
func (m Model) visible() ([]notify.DayGroup, []model.Notification) {
	groups := m.store.View(m.limit, m.now())
	var flat []model.Notification
	for _, g := range groups {
		flat = append(flat, g.Items...)
	}
	return groups, flat
}

// Selected returns the notification under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	_, flat := m.visible()
	if len(flat) == 0 {
		return model.Notification{}, false
	}
	return flat[m.clamp(len(flat))], true
}

func (m Model) clamp(n int) int {
	switch {
	case n == 0:
		return 0
	case m.cursor >= n:
		return n - 1
	case m.cursor < 0:
		return 0
	}
	return m.cursor
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key input while the panel is open.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeys(msg)

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.move(-1)
		case tea.MouseButtonWheelDown:
			m.move(1)
		}
	}
	return m, nil
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.move(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.move(-1)
		return m, nil

	case key.Matches(msg, m.keys.Open):
		n, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, emit(OpenMsg{Notification: n})

	case key.Matches(msg, m.keys.MarkRead):
		n, ok := m.Selected()
		if !ok || !n.IsUnread() {
			return m, nil
		}
		return m, emit(MarkReadMsg{ID: n.ID})

	case key.Matches(msg, m.keys.Delete):
		n, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, emit(DeleteMsg{ID: n.ID})

	case key.Matches(msg, m.keys.ReadAll):
		if m.store.TotalUnread() == 0 {
			return m, nil
		}
		return m, emit(ReadAllMsg{})

	case key.Matches(msg, m.keys.Sound):
		return m, emit(ToggleSoundMsg{})

	case key.Matches(msg, m.keys.ViewAll):
		url := m.store.Config().AllURL
		if m.store.Len() == 0 || url == "" {
			return m, nil
		}
		return m, emit(ViewAllMsg{URL: url})

	case key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.Toggle):
		return m, emit(CloseMsg{})
	}
	return m, nil
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func (m *Model) move(delta int) {
	_, flat := m.visible()
	m.cursor = m.clamp(len(flat))
	m.cursor += delta
	m.cursor = m.clamp(len(flat))
}

// View renders the whole panel.
func (m Model) View() string {
	outer := m.panelWidth()
	w := outer - theme.PanelStyle.GetHorizontalPadding()

	header := m.renderHeader(w)
	footer := m.renderFooter(w)

	groups, flat := m.visible()
	var body string
	if len(flat) == 0 {
		body = m.renderEmpty(w)
	} else {
		body = m.renderList(groups, m.clamp(len(flat)), w, m.bodyHeight(header, footer))
	}

	rule := theme.MutedStyle.Render(strings.Repeat("─", w))
	parts := []string{header, rule, body}
	if footer != "" {
		parts = append(parts, rule, footer)
	}

	return theme.PanelStyle.Width(outer).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

// RowAt returns the notification drawn at (x, y), counted from the panel's
// top-left border corner.
func (m Model) RowAt(x, y int) (model.Notification, bool) {
	if x < 1 || x >= m.Width()-1 {
		return model.Notification{}, false
	}
	w := m.panelWidth() - theme.PanelStyle.GetHorizontalPadding()
	header := m.renderHeader(w)
	footer := m.renderFooter(w)

	groups, flat := m.visible()
	if len(flat) == 0 {
		return model.Notification{}, false
	}

	height := m.bodyHeight(header, footer)
	// top border, header, rule
	row := y - 1 - lipgloss.Height(header) - 1
	if row < 0 || row >= height {
		return model.Notification{}, false
	}

	l := m.layoutList(groups, m.clamp(len(flat)), w, height)
	line := row + l.offset
	for i, span := range l.rows {
		if line >= span.start && line < span.end {
			return flat[i], true
		}
	}
	return model.Notification{}, false
}

func (m Model) bodyHeight(header, footer string) int {
	h := m.height - 2 - lipgloss.Height(header) - 1
	if footer != "" {
		h -= lipgloss.Height(footer) + 1
	}
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) renderHeader(w int) string {
	title := lipgloss.NewStyle().Bold(true).Render(Title)
	if unread := m.store.TotalUnread(); unread > 0 {
		title += "\n" + theme.MutedStyle.Render(fmt.Sprintf("%d belum dibaca", unread))
	}

	sound := "♪ " + MuteLabel
	if !m.sound {
		sound = "✕ " + UnmuteLabel
	}
	actions := []string{theme.HelpStyle.Render("s " + sound)}
	if m.store.TotalUnread() > 0 {
		actions = append(actions,
			lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("A "+ReadAllLabel))
	}
	right := lipgloss.JoinVertical(lipgloss.Right, actions...)

	gap := w - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		return lipgloss.JoinVertical(lipgloss.Left, title, right)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, strings.Repeat(" ", gap), right)
}

func (m Model) renderFooter(w int) string {
	url := m.store.Config().AllURL
	if m.store.Len() == 0 || url == "" {
		return ""
	}
	label := lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("v ↗ " + ViewAllLabel)
	if m.store.Truncated(m.limit) {
		label += theme.MutedStyle.Render(fmt.Sprintf(" (+%d)", m.store.Len()-m.limit))
	}
	return lipgloss.NewStyle().
		Width(w).
		Align(lipgloss.Center).
		Render(label)
}

func (m Model) renderEmpty(w int) string {
	return lipgloss.NewStyle().
		Width(w).
		Align(lipgloss.Center).
		Padding(1, 0).
		Render(lipgloss.JoinVertical(lipgloss.Center,
			theme.MutedStyle.Render("🔔"),
			lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray).Render(EmptyTitle),
			theme.HelpStyle.Render(EmptyHint),
		))
}

// listLayout is the rendered list body and the lines each row covers.
type listLayout struct {
	content string
	rows    []lineSpan
	offset  int
}

type lineSpan struct {
	start, end int
}

// layoutList draws the grouped rows and picks the scroll offset that keeps
// the selected row fully visible.
func (m Model) layoutList(groups []notify.DayGroup, cursor, w, height int) listLayout {
	now := m.now()

	var (
		l     listLayout
		parts []string
		line  int
		index int
	)
	for _, g := range groups {
		label := theme.GroupHeaderStyle.Render(g.Label)
		parts = append(parts, label)
		line += lipgloss.Height(label)
		for _, n := range g.Items {
			row := renderRow(n, now, w, index == cursor)
			h := lipgloss.Height(row)
			l.rows = append(l.rows, lineSpan{start: line, end: line + h})
			parts = append(parts, row)
			line += h
			index++
		}
	}
	l.content = strings.Join(parts, "\n")

	if cursor < len(l.rows) {
		if sel := l.rows[cursor]; sel.end > height {
			l.offset = sel.end - height
		}
	}
	return l
}

func (m Model) renderList(groups []notify.DayGroup, cursor, w, height int) string {
	l := m.layoutList(groups, cursor, w, height)
	vp := m.viewport
	vp.Width = w
	vp.Height = height
	vp.SetContent(l.content)
	vp.SetYOffset(l.offset)
	return vp.View()
}

func renderRow(n model.Notification, now time.Time, w int, selected bool) string {
	inner := w - 4

	titleStyle := lipgloss.NewStyle()
	if n.IsUnread() {
		titleStyle = titleStyle.Bold(true)
	}
	head := theme.TypeIcon(n.Type) + " "
	if badge := theme.PriorityBadge(n.Priority); badge != "" {
		head += badge + " "
	}
	dot := ""
	if n.IsUnread() {
		dot = " " + lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("●")
	}
	room := inner - lipgloss.Width(head) - lipgloss.Width(dot)
	if room < 4 {
		room = 4
	}
	head += titleStyle.Render(ansi.Truncate(n.Title, room, "…")) + dot

	body := theme.MutedStyle.Render(clampLines(n.Message, inner-2, messageLines))

	meta := theme.MutedStyle.Render("◷ " + notify.RelativeTime(n.CreatedAt, now))
	if selected {
		hints := []string{}
		if n.IsUnread() {
			hints = append(hints, "r "+MarkHint)
		}
		hints = append(hints, "d "+DeleteHint)
		meta += "  " + theme.HelpStyle.Render(strings.Join(hints, " · "))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, head, "  "+body, "  "+meta)
	if selected {
		return theme.SelectedItemStyle.Width(w - 1).Render(content)
	}
	return theme.ListItemStyle.Width(w).Render(content)
}

// clampLines word-wraps s to width and keeps at most n lines, marking the
// cut with an ellipsis.
func clampLines(s string, width, n int) string {
	if width < 1 {
		width = 1
	}
	wrapped := strings.Split(ansi.Wordwrap(strings.TrimSpace(s), width, ""), "\n")
	if len(wrapped) <= n {
		return strings.Join(wrapped, "\n")
	}
	wrapped = wrapped[:n]
	last := wrapped[n-1]
	wrapped[n-1] = ansi.Truncate(last+" …", width, "…")
	return strings.Join(wrapped, "\n")
}
