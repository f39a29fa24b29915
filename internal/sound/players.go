package sound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNoPlayer is returned when no audio command is available.
var ErrNoPlayer = errors.New("no audio player found")

// Fetcher downloads a static asset from the portal.
type Fetcher interface {
	FetchAsset(ctx context.Context, path string) ([]byte, error)
}

// knownPlayers are tried in order when no player command is configured.
var knownPlayers = [][]string{
	{"paplay"},
	{"afplay"},
	{"mpg123", "-q"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
}

// AssetPlayer plays the portal's notification sound with an external
// command. The asset is downloaded on first use and kept in one temporary
// file until Close.
type AssetPlayer struct {
	fetcher   Fetcher
	assetPath string
	command   []string
	lookPath  func(string) (string, error)
	run       func(ctx context.Context, name string, args ...string) error

	mu   sync.Mutex
	file string
}

// NewAssetPlayer returns a player for assetPath. command is the player
// command line (e.g., "mpv --really-quiet"); empty picks a known one.
func NewAssetPlayer(f Fetcher, assetPath, command string) *AssetPlayer {
	return &AssetPlayer{
		fetcher:   f,
		assetPath: assetPath,
		command:   strings.Fields(command),
		lookPath:  exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// Play downloads the asset if needed and runs the player on it.
func (p *AssetPlayer) Play(ctx context.Context) error {
	cmd, err := p.resolveCommand()
	if err != nil {
		return err
	}

	file, err := p.acquire(ctx)
	if err != nil {
		return err
	}

	args := append(append([]string{}, cmd[1:]...), file)
	if err := p.run(ctx, cmd[0], args...); err != nil {
		return fmt.Errorf("running %s: %w", cmd[0], err)
	}
	return nil
}

func (p *AssetPlayer) resolveCommand() ([]string, error) {
	if len(p.command) > 0 {
		return p.command, nil
	}
	for _, c := range knownPlayers {
		if _, err := p.lookPath(c[0]); err == nil {
			return c, nil
		}
	}
	return nil, ErrNoPlayer
}

// acquire returns the cached asset file, downloading it once.
func (p *AssetPlayer) acquire(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file != "" {
		return p.file, nil
	}

	data, err := p.fetcher.FetchAsset(ctx, p.assetPath)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", p.assetPath, err)
	}

	f, err := os.CreateTemp("", "lmsnotify-*"+filepath.Ext(p.assetPath))
	if err != nil {
		return "", fmt.Errorf("creating sound file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing sound file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing sound file: %w", err)
	}

	p.file = f.Name()
	return p.file, nil
}

// Close removes the downloaded asset.
func (p *AssetPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == "" {
		return nil
	}
	err := os.Remove(p.file)
	p.file = ""
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing sound file: %w", err)
	}
	return nil
}

// BellPlayer rings the terminal bell. The terminal is opened on first use.
type BellPlayer struct {
	open func() (io.WriteCloser, error)

	mu sync.Mutex
	w  io.WriteCloser
}

// NewBellPlayer rings the controlling terminal.
func NewBellPlayer() *BellPlayer {
	return &BellPlayer{
		open: func() (io.WriteCloser, error) {
			return os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		},
	}
}

// NewWriterBell rings on w; Close does not close w.
func NewWriterBell(w io.Writer) *BellPlayer {
	return &BellPlayer{
		open: func() (io.WriteCloser, error) {
			return nopCloser{w}, nil
		},
	}
}

// Play writes BEL.
func (b *BellPlayer) Play(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.w == nil {
		w, err := b.open()
		if err != nil {
			return fmt.Errorf("opening terminal: %w", err)
		}
		b.w = w
	}
	_, err := io.WriteString(b.w, "\a")
	return err
}

// Close releases the terminal handle.
func (b *BellPlayer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.w == nil {
		return nil
	}
	err := b.w.Close()
	b.w = nil
	return err
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Fallback tries each player in turn until one succeeds.
type Fallback []Player

// Play runs the first player that succeeds.
func (f Fallback) Play(ctx context.Context) error {
	var errs []error
	for _, p := range f {
		err := p.Play(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close closes every player.
func (f Fallback) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
