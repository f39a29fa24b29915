// Package sound plays the new-notification cue.
package sound

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// playTimeout bounds a single playback attempt.
const playTimeout = 5 * time.Second

// Player produces the audible cue. Implementations hold at most one
// playback resource and release it on Close.
type Player interface {
	Play(ctx context.Context) error
	Close() error
}

// Cue decides when to play: exactly once per increase of the unread
// count, and only while enabled. The first observed count seeds the
// baseline without playing.
type Cue struct {
	player  Player
	enabled bool
	prev    int
	seeded  bool
	log     *logrus.Entry
}

// NewCue returns a Cue driving player.
func NewCue(player Player, enabled bool, log *logrus.Entry) *Cue {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Cue{
		player:  player,
		enabled: enabled,
		log:     log.WithField("component", "sound"),
	}
}

// Enabled reports the current preference.
func (c *Cue) Enabled() bool {
	return c.enabled
}

// SetEnabled changes the preference. The baseline is kept so re-enabling
// does not replay for increases that happened while muted.
func (c *Cue) SetEnabled(enabled bool) {
	c.enabled = enabled
}

// Observe records the unread count of the current render and reports
// whether it triggered the cue. Playback runs on its own goroutine;
// failures are logged and otherwise ignored.
func (c *Cue) Observe(count int) bool {
	prev, seeded := c.prev, c.seeded
	c.prev, c.seeded = count, true

	if !seeded || !c.enabled || count <= prev || c.player == nil {
		return false
	}

	go c.play()
	return true
}

func (c *Cue) play() {
	ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()

	if err := c.player.Play(ctx); err != nil {
		c.log.WithError(err).Debug("notification sound not played")
	}
}

// Close releases the player.
func (c *Cue) Close() error {
	if c.player == nil {
		return nil
	}
	return c.player.Close()
}
