package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/lms-notify/internal/theme"
)

// Layout manages the terminal layout dimensions: a one line header holding
// the title and the bell, the content area, and a status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top header bar with a title on the left and
// the bell control on the right.
func (l Layout) RenderHeader(title string, control string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	controlRendered := ""
	if control != "" {
		controlRendered = theme.HeaderStyle.
			Align(lipgloss.Right).
			Render(control)
	}

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(controlRendered)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.HeaderStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		controlRendered,
	)
}

// InHeaderControl reports whether a click at (x, y) lands on a header
// control of the given rendered width, which sits flush right.
func (l Layout) InHeaderControl(x, y, controlWidth int) bool {
	if controlWidth <= 0 || y >= l.HeaderHeight {
		return false
	}
	return x >= l.Width-controlWidth-theme.HeaderStyle.GetHorizontalPadding()
}

// RenderStatusBar renders the bottom status bar with keyboard hints. A
// non-empty alert is shown first in the error style.
func (l Layout) RenderStatusBar(hints string, alert string) string {
	rendered := theme.StatusBarStyle.Render(hints)
	if alert != "" {
		rendered = theme.ErrorHintStyle.Render(alert) + rendered
	}

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(theme.StatusBarStyle.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar. The content is padded or
// clipped to the content height so the status bar stays at the bottom.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	if h := l.ContentHeight(); h > 0 {
		content = lipgloss.NewStyle().
			Height(h).
			MaxHeight(h).
			Render(content)
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
