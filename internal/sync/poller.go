package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/lms-notify/internal/model"
)

// SyncState represents the current state of the page refresh.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the refresh state.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// PropsMsg is a tea.Msg carrying freshly fetched page props, or the error
// that prevented fetching them.
type PropsMsg struct {
	Props model.PageProps
	Err   error
	At    time.Time
}

// Fetcher loads the page props, the terminal equivalent of a navigation.
type Fetcher interface {
	Fetch(ctx context.Context) (model.PageProps, error)
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// Poller refreshes the page props on an interval and on demand.
type Poller struct {
	fetcher   Fetcher
	interval  time.Duration
	log       *logrus.Entry
	resultCh  chan PropsMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	status    SyncStatus
	running   bool
}

// New creates a Poller. A non-positive interval defaults to 60s.
func New(f Fetcher, interval time.Duration, log *logrus.Entry) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Poller{
		fetcher:   f,
		interval:  interval,
		log:       log.WithField("component", "poller"),
		resultCh:  make(chan PropsMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the polling goroutine and
// subscribes to results.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Refresh requests an immediate fetch. Requests made while one is already
// pending collapse into it.
func (p *Poller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// Status returns the current refresh state. LastSync is the time of the
// last successful fetch.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.fetch()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetch()
		case <-p.triggerCh:
			p.fetch()
		}
	}
}

// fetch performs one refresh and publishes the result.
func (p *Poller) fetch() {
	p.setStatus(SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	props, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.log.WithError(err).Warn("refreshing page props")
		p.setStatus(SyncError, err)
		p.sendResult(PropsMsg{Err: err, At: time.Now()})
		return
	}

	p.setStatus(SyncIdle, nil)
	p.sendResult(PropsMsg{Props: props, At: time.Now()})
}

func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a PropsMsg on the result channel without blocking.
func (p *Poller) sendResult(msg PropsMsg) {
	select {
	case p.resultCh <- msg:
	default:
		p.log.Debug("dropping props result; subscriber is behind")
	}
}

// waitForResult returns a tea.Cmd that waits for the next result.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next result.
// Call it after handling each PropsMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
