package help

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/lms-notify/internal/keys"
)

func TestViewListsBindingsAndLegend(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 40)
	view := m.View()

	assert.Contains(t, view, "mark read")
	assert.Contains(t, view, "read all")
	assert.Contains(t, view, "Kehadiran")
	assert.Contains(t, view, "Pengumuman")
}
