package store

import "context"

// Preference keys.
const (
	KeySoundEnabled = "sound_enabled"
)

// Store persists client-side preferences. Notifications themselves are
// never stored locally; the server's page props are the only source.
type Store interface {
	GetPreference(ctx context.Context, key string) (value string, ok bool, err error)
	SetPreference(ctx context.Context, key, value string) error

	SoundEnabled(ctx context.Context, def bool) (bool, error)
	SetSoundEnabled(ctx context.Context, enabled bool) error
}
