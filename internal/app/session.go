package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nhle/lms-notify/internal/channel"
	"github.com/nhle/lms-notify/internal/credential"
	"github.com/nhle/lms-notify/internal/live"
	"github.com/nhle/lms-notify/internal/model"
	"github.com/nhle/lms-notify/internal/navigate"
	"github.com/nhle/lms-notify/internal/sound"
	"github.com/nhle/lms-notify/internal/store"
	appsync "github.com/nhle/lms-notify/internal/sync"
)

// Portal is the delivery channel as seen by the UI.
type Portal interface {
	Fetch(ctx context.Context) (model.PageProps, error)
	MarkRead(ctx context.Context, id int64) (model.PageProps, error)
	MarkAllRead(ctx context.Context) (model.PageProps, error)
	Delete(ctx context.Context, id int64) (model.PageProps, error)
}

// Visitor opens links outside the terminal.
type Visitor interface {
	Visit(link string) (string, error)
}

// Session bundles everything bound to one portal and role.
type Session struct {
	Portal  Portal
	Poller  *appsync.Poller
	Live    *live.Listener
	Cue     *sound.Cue
	Visitor Visitor
}

// Start begins background refreshing and, when configured, the live feed.
func (s *Session) Start() {
	if s.Live != nil {
		s.Live.Start(context.Background())
	}
}

// Close stops background work and releases the sound player.
func (s *Session) Close() {
	if s.Live != nil {
		s.Live.Stop()
	}
	if s.Poller != nil {
		s.Poller.Stop()
	}
	if s.Cue != nil {
		s.Cue.Close()
	}
}

// Connector builds a Session for a configuration.
type Connector func(ctx context.Context, cfg *model.AppConfig) (*Session, error)

// NewConnector returns the production Connector: a resty channel with the
// keyring token, the page refresher, the optional websocket feed, the sound
// cue seeded from the stored preference and the browser navigator.
func NewConnector(prefs store.Store, log *logrus.Entry) Connector {
	return func(ctx context.Context, cfg *model.AppConfig) (*Session, error) {
		token, err := credential.Lookup(credential.TokenKey(cfg.Server.URL, cfg.Server.Role))
		if err != nil {
			log.WithError(err).Warn("reading portal token; continuing without one")
		}

		client, err := channel.New(channel.Options{
			Origin:   cfg.Server.URL,
			PagePath: cfg.PagePath(),
			Config:   cfg.NotificationConfig(),
			Token:    token,
			Timeout:  cfg.Timeout(),
			Log:      log,
		})
		if err != nil {
			return nil, fmt.Errorf("creating portal client: %w", err)
		}

		enabled := cfg.Sound.DefaultEnabled
		if prefs != nil {
			enabled, err = prefs.SoundEnabled(ctx, cfg.Sound.DefaultEnabled)
			if err != nil {
				log.WithError(err).Warn("reading sound preference")
			}
		}

		player := sound.Fallback{
			sound.NewAssetPlayer(client, cfg.Sound.AssetPath, cfg.Sound.Player),
			sound.NewBellPlayer(),
		}

		s := &Session{
			Portal:  client,
			Poller:  appsync.New(client, cfg.PollInterval(), log),
			Cue:     sound.NewCue(player, enabled, log),
			Visitor: navigate.New(client, log),
		}

		if cfg.Server.LiveURL != "" {
			wsURL, err := live.ResolveURL(cfg.Server.URL, cfg.Server.LiveURL)
			if err != nil {
				return nil, fmt.Errorf("resolving live url: %w", err)
			}
			header := http.Header{}
			if token != "" {
				header.Set("Authorization", "Bearer "+token)
			}
			s.Live = live.New(live.Options{
				URL:    wsURL,
				Role:   string(cfg.RoleOrDefault()),
				Header: header,
				Log:    log,
			}, s.Poller)
		}

		return s, nil
	}
}

// Probe checks that cfg reaches a portal page carrying notification props.
// It backs the first-run setup form.
func Probe(log *logrus.Entry) func(ctx context.Context, cfg *model.AppConfig, token string) error {
	return func(ctx context.Context, cfg *model.AppConfig, token string) error {
		client, err := channel.New(channel.Options{
			Origin:   cfg.Server.URL,
			PagePath: cfg.PagePath(),
			Config:   cfg.NotificationConfig(),
			Token:    token,
			Timeout:  cfg.Timeout(),
			Log:      log,
		})
		if err != nil {
			return err
		}
		props, err := client.Fetch(ctx)
		if err != nil {
			return err
		}
		if !props.HasNotifications() {
			return fmt.Errorf("%s answered without header notifications", cfg.PagePath())
		}
		return nil
	}
}
