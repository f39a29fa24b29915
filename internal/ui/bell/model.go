// Package bell renders the header bell: glyph, unread badge, urgent shake
// and the unread pulse dot.
package bell

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/lms-notify/internal/notify"
	"github.com/nhle/lms-notify/internal/theme"
)

const (
	glyph        = "🔔"
	frameRate    = 150 * time.Millisecond
	pulseGlyph   = "●"
	restingFrame = 1
)

// shakeFrames keep the bell inside a fixed three cell slot.
var shakeFrames = []string{glyph + " ", " " + glyph, glyph + " ", " " + glyph}

// TickMsg advances the shake/pulse animation. ID names the bell and Tag
// the animation run that scheduled it.
type TickMsg struct {
	ID  int64
	Tag int
}

var lastID atomic.Int64

func nextID() int64 {
	return lastID.Add(1)
}

// Model is the bell control.
type Model struct {
	id        int64
	tag       int
	frame     int
	visible   bool
	open      bool
	total     int
	urgent    bool
	animating bool
}

// New creates a hidden bell. It becomes visible once SetState reports that
// the page carries notification props.
func New() Model {
	return Model{id: nextID()}
}

// SetState updates what the bell shows and starts the animation loop when
// an urgent unread item appears.
func (m *Model) SetState(visible bool, total int, urgent bool) tea.Cmd {
	m.visible = visible
	m.total = total
	m.urgent = visible && urgent

	if !m.urgent {
		m.animating = false
		m.frame = 0
		return nil
	}
	if m.animating {
		return nil
	}
	m.animating = true
	m.tag++
	return m.tick()
}

// SetOpen highlights the bell while its dropdown is open.
func (m *Model) SetOpen(open bool) {
	m.open = open
}

// Visible reports whether the control is rendered at all.
func (m Model) Visible() bool {
	return m.visible
}

// Shaking reports whether the urgent animation is running.
func (m Model) Shaking() bool {
	return m.animating
}

// Badge returns the badge text for the current unread total.
func (m Model) Badge() string {
	return notify.BadgeText(m.total)
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update advances the animation on its own ticks and ignores stale ones.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	tick, ok := msg.(TickMsg)
	if !ok || tick.ID != m.id || tick.Tag != m.tag || !m.animating {
		return m, nil
	}
	m.frame = (m.frame + 1) % len(shakeFrames)
	return m, m.tick()
}

func (m Model) tick() tea.Cmd {
	id, tag := m.id, m.tag
	return tea.Tick(frameRate, func(time.Time) tea.Msg {
		return TickMsg{ID: id, Tag: tag}
	})
}

// View renders the bell, or nothing when it is hidden.
func (m Model) View() string {
	if !m.visible {
		return ""
	}

	icon := shakeFrames[restingFrame]
	if m.animating {
		icon = shakeFrames[m.frame]
	}

	style := lipgloss.NewStyle()
	if m.open || m.total > 0 {
		style = style.Foreground(theme.ColorBlue).Bold(true)
	}
	out := style.Render(icon)

	if m.total > 0 {
		dot := lipgloss.NewStyle().Foreground(theme.ColorRed)
		if m.animating && m.frame%2 == 1 {
			dot = dot.Faint(true)
		}
		out += dot.Render(pulseGlyph)
		out += theme.BadgeStyle.Render(m.Badge())
	}
	return out
}
