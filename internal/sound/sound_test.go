package sound

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	played chan struct{}
	err    error
	closed bool
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{played: make(chan struct{}, 8)}
}

func (p *fakePlayer) Play(context.Context) error {
	p.played <- struct{}{}
	return p.err
}

func (p *fakePlayer) Close() error {
	p.closed = true
	return nil
}

func (p *fakePlayer) waitPlays(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-p.played:
		case <-time.After(time.Second):
			t.Fatalf("expected %d plays, got %d", n, i)
		}
	}
	select {
	case <-p.played:
		t.Fatalf("expected exactly %d plays", n)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCueSeedsWithoutPlaying(t *testing.T) {
	p := newFakePlayer()
	c := NewCue(p, true, nil)

	assert.False(t, c.Observe(3), "first render only seeds")
	p.waitPlays(t, 0)
}

func TestCuePlaysOncePerIncrease(t *testing.T) {
	p := newFakePlayer()
	c := NewCue(p, true, nil)

	c.Observe(1)
	assert.True(t, c.Observe(2))
	assert.False(t, c.Observe(2), "unchanged")
	assert.False(t, c.Observe(0), "decrease")
	assert.True(t, c.Observe(4))

	p.waitPlays(t, 2)
}

func TestCueDisabled(t *testing.T) {
	p := newFakePlayer()
	c := NewCue(p, false, nil)

	c.Observe(0)
	assert.False(t, c.Observe(5))

	// Re-enabling does not replay the increase seen while muted.
	c.SetEnabled(true)
	assert.True(t, c.Enabled())
	assert.False(t, c.Observe(5))
	assert.True(t, c.Observe(6))

	p.waitPlays(t, 1)
}

func TestCueSwallowsPlaybackErrors(t *testing.T) {
	p := newFakePlayer()
	p.err = errors.New("autoplay blocked")
	c := NewCue(p, true, nil)

	c.Observe(0)
	assert.True(t, c.Observe(1))
	p.waitPlays(t, 1)

	require.NoError(t, c.Close())
	assert.True(t, p.closed)
}

func TestCueWithoutPlayer(t *testing.T) {
	c := NewCue(nil, true, nil)
	c.Observe(0)
	assert.False(t, c.Observe(1))
	assert.NoError(t, c.Close())
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	data  []byte
	err   error
}

func (f *fakeFetcher) FetchAsset(context.Context, string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.data, f.err
}

func TestAssetPlayerDownloadsOnce(t *testing.T) {
	f := &fakeFetcher{data: []byte("ID3")}
	p := NewAssetPlayer(f, "/sounds/notification.mp3", "mpv --really-quiet")

	var runs [][]string
	p.run = func(_ context.Context, name string, args ...string) error {
		runs = append(runs, append([]string{name}, args...))
		return nil
	}

	ctx := context.Background()
	require.NoError(t, p.Play(ctx))
	require.NoError(t, p.Play(ctx))

	assert.Equal(t, 1, f.calls)
	require.Len(t, runs, 2)
	assert.Equal(t, "mpv", runs[0][0])
	assert.Equal(t, "--really-quiet", runs[0][1])

	file := runs[0][2]
	assert.Equal(t, ".mp3", file[len(file)-4:])
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3"), data)

	require.NoError(t, p.Close())
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))
}

func TestAssetPlayerMissingAsset(t *testing.T) {
	f := &fakeFetcher{err: errors.New("status 404")}
	p := NewAssetPlayer(f, "/sounds/notification.mp3", "mpv")
	p.run = func(context.Context, string, ...string) error {
		t.Fatal("player must not run without an asset")
		return nil
	}

	assert.Error(t, p.Play(context.Background()))
	assert.NoError(t, p.Close())
}

func TestAssetPlayerPicksKnownCommand(t *testing.T) {
	p := NewAssetPlayer(&fakeFetcher{data: []byte("x")}, "/s.mp3", "")
	p.lookPath = func(name string) (string, error) {
		if name == "mpg123" {
			return "/usr/bin/mpg123", nil
		}
		return "", errors.New("not found")
	}
	var got string
	p.run = func(_ context.Context, name string, _ ...string) error {
		got = name
		return nil
	}

	require.NoError(t, p.Play(context.Background()))
	assert.Equal(t, "mpg123", got)
	require.NoError(t, p.Close())

	p.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	assert.ErrorIs(t, p.Play(context.Background()), ErrNoPlayer)
}

func TestWriterBell(t *testing.T) {
	var buf bytes.Buffer
	b := NewWriterBell(&buf)

	require.NoError(t, b.Play(context.Background()))
	require.NoError(t, b.Play(context.Background()))
	assert.Equal(t, "\a\a", buf.String())
	assert.NoError(t, b.Close())
}

func TestFallback(t *testing.T) {
	failing := newFakePlayer()
	failing.err = errors.New("no asset")
	ok := newFakePlayer()

	f := Fallback{failing, ok}
	require.NoError(t, f.Play(context.Background()))
	failing.waitPlays(t, 1)
	ok.waitPlays(t, 1)

	require.NoError(t, f.Close())
	assert.True(t, failing.closed)
	assert.True(t, ok.closed)

	assert.Error(t, Fallback{failing}.Play(context.Background()))
}
