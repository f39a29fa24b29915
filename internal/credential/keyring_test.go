package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useArrayKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	prev := opener
	opener = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { opener = prev })
}

func TestTokenKey(t *testing.T) {
	assert.Equal(t, "token-dosen@absensi.kampus.ac.id", TokenKey("https://absensi.kampus.ac.id/", "dosen"))
	assert.Equal(t, "token-user@localhost:8080", TokenKey("http://localhost:8080", "user"))
	assert.Equal(t, "token-admin@not a url", TokenKey("not a url", "admin"))
}

func TestSetGetDelete(t *testing.T) {
	useArrayKeyring(t)

	v, err := Lookup("token-user@x")
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = Get("token-user@x")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Set("token-user@x", "s3cret"))
	v, err = Get("token-user@x")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	require.NoError(t, Delete("token-user@x"))
	v, err = Lookup("token-user@x")
	require.NoError(t, err)
	assert.Empty(t, v)
}
