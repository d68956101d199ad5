package main

import (
	"context"
	"errors"

	"github.com/nexusforge/console/pkg/api"
	"github.com/nexusforge/console/pkg/auth"
	"github.com/nexusforge/console/pkg/common/config"
	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/nexusforge/console/pkg/events"
	"github.com/nexusforge/console/pkg/notice"
	"github.com/nexusforge/console/pkg/session"
	"github.com/nexusforge/console/pkg/views"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in")

// app is the wiring shared by every command for one invocation.
type app struct {
	cfg      *config.Config
	sessions *session.Manager
	client   *api.Client
	auth     *auth.Service
	bus      *events.Bus
	notifier notice.Notifier

	closeStore func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	store, closeStore, err := session.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sessions := session.NewManager(store)
	if err := sessions.Restore(ctx); err != nil {
		_ = closeStore()
		return nil, err
	}

	notifier := notice.Func(printNotice)
	client := api.New(api.Options{
		BaseURL: cfg.APIBaseURL,
		Tokens:  sessions,
		Timeout: cfg.RequestTimeout,
	})

	logger.WithField("backend", cfg.SessionBackend).Debug("console ready")

	return &app{
		cfg:        cfg,
		sessions:   sessions,
		client:     client,
		auth:       auth.NewService(client, sessions, notifier),
		bus:        events.NewBus(),
		notifier:   notifier,
		closeStore: closeStore,
	}, nil
}

func (a *app) Close() {
	if err := a.closeStore(); err != nil {
		logger.Log.WithError(err).Warn("close session store")
	}
}

func (a *app) requireSession() (session.Session, error) {
	s, ok := a.sessions.Get()
	if !ok {
		return session.Session{}, errNotLoggedIn
	}
	return s, nil
}

func (a *app) deps() views.Deps {
	return views.Deps{Notifier: a.notifier, Bus: a.bus}
}

// withApp builds the app around run and closes it afterwards. Commands
// that talk to protected endpoints set needSession.
func withApp(needSession bool, run func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if needSession {
			if _, err := a.requireSession(); err != nil {
				return err
			}
		}
		return run(cmd.Context(), cmd, a, args)
	}
}
