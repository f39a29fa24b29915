package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestContentHeight(t *testing.T) {
	l := NewLayout(100, 30)
	assert.Equal(t, 28, l.ContentHeight())
	assert.Equal(t, 100, l.ContentWidth())
}

func TestRenderHeaderFillsWidth(t *testing.T) {
	l := NewLayout(60, 20)
	header := l.RenderHeader("lmsnotify", "bell 3")
	assert.Equal(t, 60, lipgloss.Width(header))
	assert.Contains(t, header, "bell 3")
}

func TestInHeaderControl(t *testing.T) {
	l := NewLayout(60, 20)
	assert.True(t, l.InHeaderControl(59, 0, 4))
	assert.True(t, l.InHeaderControl(54, 0, 4))
	assert.False(t, l.InHeaderControl(10, 0, 4))
	assert.False(t, l.InHeaderControl(59, 1, 4))
	assert.False(t, l.InHeaderControl(59, 0, 0))
}

func TestRenderWithFrameKeepsStatusBarAtBottom(t *testing.T) {
	l := NewLayout(40, 10)
	out := l.RenderWithFrame(l.RenderHeader("t", ""), "one line", l.RenderStatusBar("q quit", "offline"))
	assert.Equal(t, 10, lipgloss.Height(out))
	assert.Contains(t, out, "offline")
}
