// Package live subscribes to the portal's websocket feed and turns
// notification events into page refreshes.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// EventPrefix marks the events that concern the header notifications.
const EventPrefix = "notification."

const (
	defaultReconnectDelay = 5 * time.Second
	maxMessageSize        = 4096
	pongWait              = 60 * time.Second
)

// Event is one message on the feed.
type Event struct {
	Type string          `json:"type"`
	Role string          `json:"role,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Refresher is told to re-fetch the page props.
type Refresher interface {
	Refresh()
}

// Options configures a Listener.
type Options struct {
	URL            string
	Role           string
	Header         http.Header
	ReconnectDelay time.Duration
	Log            *logrus.Entry
}

// Listener keeps one websocket subscription alive until stopped.
type Listener struct {
	opts   Options
	target Refresher
	dialer *websocket.Dialer
	log    *logrus.Entry

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Listener. It does nothing until Start is called.
func New(opts Options, target Refresher) *Listener {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Listener{
		opts:   opts,
		target: target,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    log.WithField("component", "live"),
	}
}

// ResolveURL turns the configured live URL into a websocket URL. Relative
// paths are resolved against the server origin; http schemes become ws.
func ResolveURL(origin, live string) (string, error) {
	if live == "" {
		return "", nil
	}
	base, err := url.Parse(origin)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(live)
	if err != nil {
		return "", err
	}
	u := base.ResolveReference(ref)
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}

// Start launches the subscription loop. Calling Start twice is a no-op.
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
}

// Stop ends the subscription and waits for the loop to exit.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (l *Listener) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		err := l.session(ctx)
		if ctx.Err() != nil {
			return
		}
		l.log.WithError(err).Debugf("feed disconnected; reconnecting in %s", l.opts.ReconnectDelay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.opts.ReconnectDelay):
		}
	}
}

// session dials once and reads until the connection fails or ctx ends.
func (l *Listener) session(ctx context.Context) error {
	conn, resp, err := l.dialer.DialContext(ctx, l.opts.URL, l.opts.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	l.log.Debug("feed connected")

	// A reconnect may have missed events.
	l.target.Refresh()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			l.log.WithError(err).Debug("ignoring malformed event")
			continue
		}
		if l.wants(ev) {
			l.target.Refresh()
		}
	}
}

func (l *Listener) wants(ev Event) bool {
	if !strings.HasPrefix(ev.Type, EventPrefix) {
		return false
	}
	return ev.Role == "" || l.opts.Role == "" || ev.Role == l.opts.Role
}
