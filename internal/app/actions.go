package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/lms-notify/internal/model"
)

// actionTimeout bounds a single notification action round trip.
const actionTimeout = 30 * time.Second

// actionKind names the notification actions sent to the portal.
type actionKind string

const (
	actionMarkRead actionKind = "mark read"
	actionReadAll  actionKind = "read all"
	actionDelete   actionKind = "delete"
)

// actionResultMsg carries the page the portal rendered after an action.
type actionResultMsg struct {
	kind  actionKind
	id    int64
	props model.PageProps
	err   error
}

// sessionReadyMsg is sent once a Session has been built.
type sessionReadyMsg struct {
	session *Session
	err     error
}

// navigatedMsg reports the outcome of opening a link.
type navigatedMsg struct {
	url string
	err error
}

// prefSavedMsg reports the outcome of persisting the sound toggle.
type prefSavedMsg struct {
	err error
}

func (m Model) connect() tea.Cmd {
	connect := m.connector
	cfg := m.cfg
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		s, err := connect(ctx, cfg)
		return sessionReadyMsg{session: s, err: err}
	}
}

func (m Model) markRead(id int64) tea.Cmd {
	p := m.session.Portal
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		props, err := p.MarkRead(ctx, id)
		return actionResultMsg{kind: actionMarkRead, id: id, props: props, err: err}
	}
}

func (m Model) markAllRead() tea.Cmd {
	p := m.session.Portal
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		props, err := p.MarkAllRead(ctx)
		return actionResultMsg{kind: actionReadAll, props: props, err: err}
	}
}

func (m Model) deleteNotification(id int64) tea.Cmd {
	p := m.session.Portal
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		props, err := p.Delete(ctx, id)
		return actionResultMsg{kind: actionDelete, id: id, props: props, err: err}
	}
}

func (m Model) visit(link string) tea.Cmd {
	v := m.session.Visitor
	return func() tea.Msg {
		url, err := v.Visit(link)
		return navigatedMsg{url: url, err: err}
	}
}

func (m Model) saveSound(enabled bool) tea.Cmd {
	prefs := m.prefs
	if prefs == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return prefSavedMsg{err: prefs.SetSoundEnabled(ctx, enabled)}
	}
}
