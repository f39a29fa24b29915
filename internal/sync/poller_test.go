package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/lms-notify/internal/model"
)

type stubFetcher struct {
	mu    gosync.Mutex
	calls int
	err   error
	props model.PageProps
}

func (s *stubFetcher) Fetch(ctx context.Context) (model.PageProps, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.props, s.err
}

func (s *stubFetcher) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func waitMsg(t *testing.T, p *Poller) PropsMsg {
	t.Helper()
	done := make(chan PropsMsg, 1)
	go func() {
		msg, _ := p.WaitForNextResult()().(PropsMsg)
		done <- msg
	}()
	select {
	case msg := <-done:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for props")
		return PropsMsg{}
	}
}

func TestPollerInitialFetchAndRefresh(t *testing.T) {
	f := &stubFetcher{props: model.PageProps{
		HeaderNotifications: &model.HeaderNotifications{UnreadCount: 2},
	}}
	p := New(f, time.Hour, nil)
	require.NotNil(t, p.Start())
	defer p.Stop()

	assert.Nil(t, p.Start(), "second start is a no-op")

	msg := waitMsg(t, p)
	require.NoError(t, msg.Err)
	assert.Equal(t, 2, msg.Props.HeaderNotifications.UnreadCount)

	p.Refresh()
	msg = waitMsg(t, p)
	require.NoError(t, msg.Err)
	assert.Equal(t, 2, f.Calls())
	assert.Equal(t, SyncIdle, p.Status().State)
	assert.False(t, p.Status().LastSync.IsZero())
}

func TestPollerReportsErrors(t *testing.T) {
	f := &stubFetcher{err: errors.New("connection refused")}
	p := New(f, time.Hour, nil)
	p.Start()
	defer p.Stop()

	msg := waitMsg(t, p)
	assert.EqualError(t, msg.Err, "connection refused")
	assert.Equal(t, SyncError, p.Status().State)
}

func TestPollerStopUnblocksWaiters(t *testing.T) {
	p := New(&stubFetcher{}, time.Hour, nil)
	p.running = true
	cmd := p.WaitForNextResult()
	p.Stop()
	assert.Nil(t, cmd())
	p.Stop()
}
