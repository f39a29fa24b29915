// Package navigate follows notification links outside the terminal.
package navigate

import (
	"io"

	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Resolver turns portal-relative links into absolute URLs.
type Resolver interface {
	ResolveURL(link string) (string, error)
}

// Navigator opens portal links in the system browser.
type Navigator struct {
	resolver Resolver
	open     func(url string) error
	log      *logrus.Entry
}

// New creates a Navigator that resolves links with r.
func New(r Resolver, log *logrus.Entry) *Navigator {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	// The browser's own output would land on top of the terminal UI.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return &Navigator{
		resolver: r,
		open:     browser.OpenURL,
		log:      log.WithField("component", "navigate"),
	}
}

// Visit resolves link and opens it. It returns the absolute URL so the
// caller can show it when no browser is available.
func (n *Navigator) Visit(link string) (string, error) {
	if link == "" {
		return "", errors.New("empty link")
	}
	target, err := n.resolver.ResolveURL(link)
	if err != nil {
		return "", err
	}
	n.log.WithField("url", target).Debug("opening link")
	if err := n.open(target); err != nil {
		return target, errors.Wrapf(err, "opening %s", target)
	}
	return target, nil
}
