package navigate

import (
	"errors"
	"io"
	"net/url"
	"testing"

	"github.com/pkg/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type originResolver struct {
	origin *url.URL
}

func (r originResolver) ResolveURL(link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	return r.origin.ResolveReference(ref).String(), nil
}

func newNavigator(t *testing.T, opened *[]string, openErr error) *Navigator {
	t.Helper()
	origin, err := url.Parse("https://portal.kampus.ac.id")
	require.NoError(t, err)
	n := New(originResolver{origin: origin}, nil)
	n.open = func(u string) error {
		*opened = append(*opened, u)
		return openErr
	}
	return n
}

func TestVisitResolvesRelativeLinks(t *testing.T) {
	var opened []string
	n := newNavigator(t, &opened, nil)

	got, err := n.Visit("/user/attendance/42")
	require.NoError(t, err)
	assert.Equal(t, "https://portal.kampus.ac.id/user/attendance/42", got)

	got, err = n.Visit("https://elearning.kampus.ac.id/course/7")
	require.NoError(t, err)
	assert.Equal(t, "https://elearning.kampus.ac.id/course/7", got)

	assert.Equal(t, []string{
		"https://portal.kampus.ac.id/user/attendance/42",
		"https://elearning.kampus.ac.id/course/7",
	}, opened)
}

func TestVisitReportsOpenFailure(t *testing.T) {
	var opened []string
	n := newNavigator(t, &opened, errors.New("exec: \"xdg-open\": executable file not found"))

	got, err := n.Visit("/admin/notification-center")
	assert.Error(t, err)
	assert.Equal(t, "https://portal.kampus.ac.id/admin/notification-center", got)

	_, err = n.Visit("")
	assert.Error(t, err)
}

func TestNewSilencesBrowserOutput(t *testing.T) {
	n := New(originResolver{}, nil)
	require.NotNil(t, n.open)
	assert.Equal(t, io.Discard, browser.Stdout)
	assert.Equal(t, io.Discard, browser.Stderr)
}
