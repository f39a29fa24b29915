package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/lms-notify/internal/channel"
	"github.com/nhle/lms-notify/internal/model"
	"github.com/nhle/lms-notify/internal/sound"
	appsync "github.com/nhle/lms-notify/internal/sync"
	"github.com/nhle/lms-notify/internal/ui/bell"
	"github.com/nhle/lms-notify/internal/ui/command"
	"github.com/nhle/lms-notify/internal/ui/dropdown"
)

var wib = time.FixedZone("WIB", 7*3600)

func fixedNow() time.Time {
	return time.Date(2026, 10, 15, 14, 0, 0, 0, wib)
}

// fakePortal answers every call with the props it currently holds.
type fakePortal struct {
	mu    sync.Mutex
	props model.PageProps
	err   error
	calls []string
}

func (p *fakePortal) respond(call string) (model.PageProps, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	return p.props, p.err
}

func (p *fakePortal) set(props model.PageProps) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.props = props
}

func (p *fakePortal) called(call string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (p *fakePortal) Fetch(context.Context) (model.PageProps, error) {
	return p.respond("fetch")
}

func (p *fakePortal) MarkRead(_ context.Context, id int64) (model.PageProps, error) {
	return p.respond(fmt.Sprintf("read %d", id))
}

func (p *fakePortal) MarkAllRead(context.Context) (model.PageProps, error) {
	return p.respond("read all")
}

func (p *fakePortal) Delete(_ context.Context, id int64) (model.PageProps, error) {
	return p.respond(fmt.Sprintf("delete %d", id))
}

type fakePlayer struct{ plays atomic.Int32 }

func (f *fakePlayer) Play(context.Context) error { f.plays.Add(1); return nil }
func (f *fakePlayer) Close() error               { return nil }

var _ sound.Player = (*fakePlayer)(nil)

type fakeVisitor struct {
	mu    sync.Mutex
	links []string
}

func (v *fakeVisitor) Visit(link string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.links = append(v.links, link)
	return "https://absensi.kampus.ac.id" + link, nil
}

type harness struct {
	m       Model
	portal  *fakePortal
	player  *fakePlayer
	visitor *fakeVisitor
}

func notif(id int64, priority model.Priority, read bool) model.Notification {
	n := model.Notification{
		ID:        id,
		Title:     fmt.Sprintf("Notifikasi %d", id),
		Message:   "Sesi absensi kelas Basis Data dibuka.",
		Type:      model.TypeAttendance,
		Priority:  priority,
		CreatedAt: fixedNow().Add(-time.Duration(id) * time.Minute),
	}
	if read {
		at := fixedNow()
		n.ReadAt = &at
	}
	return n
}

func pageProps(unread int, items ...model.Notification) model.PageProps {
	return model.PageProps{
		HeaderNotifications: &model.HeaderNotifications{Items: items, UnreadCount: unread},
		NotificationConfig:  &model.NotificationConfig{BaseURL: "/user/notifications", AllURL: "/user/notifications"},
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg, err := model.LoadConfig("")
	require.NoError(t, err)
	cfg.Server.URL = "https://absensi.kampus.ac.id"
	cfg.Server.Role = "user"

	h := &harness{
		portal:  &fakePortal{},
		player:  &fakePlayer{},
		visitor: &fakeVisitor{},
	}

	session := &Session{
		Portal:  h.portal,
		Poller:  appsync.New(h.portal, time.Hour, nil),
		Cue:     sound.NewCue(h.player, true, nil),
		Visitor: h.visitor,
	}
	t.Cleanup(session.Close)

	h.m = New(Options{
		Config: cfg,
		Connector: func(context.Context, *model.AppConfig) (*Session, error) {
			return session, nil
		},
		Now: fixedNow,
	})
	h.update(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.update(sessionReadyMsg{session: session})
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// refresh delivers props as if the background refresher fetched them.
func (h *harness) refresh(props model.PageProps) {
	h.update(appsync.PropsMsg{Props: props, At: fixedNow()})
}

// drain runs cmd and feeds every resulting message back into the model,
// skipping animation ticks.
func (h *harness) drain(cmd tea.Cmd) []tea.Msg {
	var out []tea.Msg
	for _, msg := range run(cmd) {
		out = append(out, msg)
		if next := h.update(msg); next != nil {
			out = append(out, h.drain(next)...)
		}
	}
	return out
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if _, tick := msg.(bell.TickMsg); tick || msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestStartsInSetupWithoutServer(t *testing.T) {
	cfg, err := model.LoadConfig("")
	require.NoError(t, err)
	cfg.Server.URL = ""

	m := New(Options{Config: cfg, Now: fixedNow})
	assert.Equal(t, ViewSetup, m.currentView)
}

func TestUrgentUnreadShakesUntilReadAll(t *testing.T) {
	h := newHarness(t)
	h.refresh(pageProps(3,
		notif(1, model.PriorityUrgent, false),
		notif(2, model.PriorityUrgent, false),
		notif(3, model.PriorityUrgent, false),
	))

	assert.True(t, h.m.bell.Visible())
	assert.Equal(t, "3", h.m.bell.Badge())
	assert.True(t, h.m.bell.Shaking())
	assert.Contains(t, h.m.View(), "3")

	h.update(keyPress("b"))
	require.True(t, h.m.open)
	assert.Contains(t, h.m.View(), dropdown.Title)

	h.portal.set(pageProps(0,
		notif(1, model.PriorityUrgent, true),
		notif(2, model.PriorityUrgent, true),
		notif(3, model.PriorityUrgent, true),
	))
	h.drain(h.update(keyPress("A")))

	assert.True(t, h.portal.called("read all"))
	assert.Equal(t, 0, h.m.notes.TotalUnread())
	assert.Empty(t, h.m.bell.Badge())
	assert.False(t, h.m.bell.Shaking())
}

func TestBellHiddenWithoutNotificationProps(t *testing.T) {
	h := newHarness(t)
	h.refresh(model.PageProps{})

	assert.False(t, h.m.bell.Visible())
	h.update(keyPress("b"))
	assert.False(t, h.m.open)
}

func TestSoundPlaysOncePerIncrease(t *testing.T) {
	h := newHarness(t)

	h.refresh(pageProps(1, notif(1, model.PriorityNormal, false)))
	h.refresh(pageProps(2, notif(2, model.PriorityNormal, false), notif(1, model.PriorityNormal, false)))
	h.refresh(pageProps(2, notif(2, model.PriorityNormal, false), notif(1, model.PriorityNormal, false)))

	assert.Eventually(t, func() bool { return h.player.plays.Load() == 1 }, time.Second, 10*time.Millisecond)

	h.update(keyPress("s"))
	assert.False(t, h.m.sound)
	h.refresh(pageProps(3,
		notif(3, model.PriorityNormal, false),
		notif(2, model.PriorityNormal, false),
		notif(1, model.PriorityNormal, false),
	))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), h.player.plays.Load())
}

func TestFailedRefreshKeepsStateAndAlerts(t *testing.T) {
	h := newHarness(t)
	h.refresh(pageProps(1, notif(1, model.PriorityHigh, false)))

	h.update(appsync.PropsMsg{Err: &channel.TransportError{Op: "fetch", Status: 500, Err: errors.New("boom")}})
	assert.Equal(t, "refresh failed: HTTP 500", h.m.alert)
	assert.Equal(t, 1, h.m.notes.Len())
	assert.Contains(t, h.m.View(), "HTTP 500")

	h.update(appsync.PropsMsg{Err: &channel.AuthError{Status: 419, Message: "expired"}})
	assert.Contains(t, h.m.alert, "session expired")

	h.refresh(pageProps(0))
	assert.Empty(t, h.m.alert)
}

func TestDeleteHidesItemImmediately(t *testing.T) {
	h := newHarness(t)
	h.refresh(pageProps(2, notif(1, model.PriorityNormal, false), notif(2, model.PriorityNormal, false)))

	h.portal.set(pageProps(1, notif(1, model.PriorityNormal, false)))
	cmd := h.update(dropdown.DeleteMsg{ID: 2})

	_, found := h.m.notes.Find(2)
	assert.False(t, found)

	h.drain(cmd)
	assert.True(t, h.portal.called("delete 2"))
	assert.Equal(t, 1, h.m.notes.Len())
}

func TestOpenMarksReadAndFollowsLink(t *testing.T) {
	h := newHarness(t)
	n := notif(5, model.PriorityNormal, false)
	link := "/user/attendance/5"
	n.ActionURL = &link
	h.refresh(pageProps(1, n))

	h.update(keyPress("b"))
	require.True(t, h.m.open)

	read := n
	at := fixedNow()
	read.ReadAt = &at
	h.portal.set(pageProps(0, read))

	h.drain(h.update(dropdown.OpenMsg{Notification: n}))

	assert.False(t, h.m.open)
	assert.True(t, h.portal.called("read 5"))
	assert.Equal(t, []string{link}, h.visitor.links)
	assert.Equal(t, 0, h.m.notes.TotalUnread())
}

func TestCommandPalette(t *testing.T) {
	h := newHarness(t)

	h.update(keyPress(":"))
	assert.Equal(t, ViewCommand, h.m.currentView)

	h.drain(h.update(tea.KeyMsg{Type: tea.KeyEsc}))
	assert.Equal(t, ViewMain, h.m.currentView)

	h.update(keyPress(":"))
	h.update(command.CommandMsg("sound off"))
	assert.Equal(t, ViewMain, h.m.currentView)
	assert.False(t, h.m.sound)
	assert.False(t, h.m.session.Cue.Enabled())

	h.update(command.CommandMsg("frobnicate"))
	assert.Contains(t, h.m.View(), "unknown command: frobnicate")
}

// screenPos finds where text is drawn on the full screen.
func screenPos(t *testing.T, screen, text string) (int, int) {
	t.Helper()
	for y, line := range strings.Split(screen, "\n") {
		plain := ansi.Strip(line)
		if i := strings.Index(plain, text); i >= 0 {
			return ansi.StringWidth(plain[:i]), y
		}
	}
	t.Fatalf("%q not on screen", text)
	return 0, 0
}

func click(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func TestClickingRowOpensIt(t *testing.T) {
	h := newHarness(t)
	second := notif(2, model.PriorityNormal, false)
	link := "/user/attendance/2"
	second.ActionURL = &link
	h.refresh(pageProps(2, notif(1, model.PriorityNormal, false), second))

	h.update(keyPress("b"))
	require.True(t, h.m.open)

	x, y := screenPos(t, h.m.View(), second.Title)
	h.drain(h.update(click(x+1, y+1)))

	assert.False(t, h.m.open)
	assert.True(t, h.portal.called("read 2"))
	assert.False(t, h.portal.called("read 1"))
	assert.Equal(t, []string{link}, h.visitor.links)
}

func TestClickingPanelChromeKeepsItOpen(t *testing.T) {
	h := newHarness(t)
	h.refresh(pageProps(1, notif(1, model.PriorityNormal, false)))
	h.update(keyPress("b"))

	x, y := screenPos(t, h.m.View(), dropdown.Title)
	h.drain(h.update(click(x, y)))
	assert.True(t, h.m.open)
	assert.Empty(t, h.visitor.links)

	h.update(click(0, 10))
	assert.False(t, h.m.open)
}

func TestIdleViewShowsPollerSync(t *testing.T) {
	h := newHarness(t)
	h.portal.set(pageProps(1, notif(1, model.PriorityNormal, false)))
	h.refresh(pageProps(1, notif(1, model.PriorityNormal, false)))

	require.Eventually(t, func() bool {
		return !h.m.session.Poller.Status().LastSync.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	last := h.m.session.Poller.Status().LastSync
	assert.Contains(t, h.m.View(), "last sync "+last.Format("15:04:05"))
}
