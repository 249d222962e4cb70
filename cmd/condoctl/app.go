package main

import (
	"context"
	"fmt"
	"io"

	"github.com/DiegoxdGarcia2/smart-condominium/apiclient"
	"github.com/DiegoxdGarcia2/smart-condominium/internal/config"
	"github.com/DiegoxdGarcia2/smart-condominium/payments"
	"github.com/DiegoxdGarcia2/smart-condominium/session"
	"github.com/DiegoxdGarcia2/smart-condominium/token"
	"github.com/DiegoxdGarcia2/smart-condominium/token/filestore"
	"github.com/DiegoxdGarcia2/smart-condominium/token/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// app holds the process-wide session and the services built on it.
type app struct {
	cfg      config.Config
	store    token.Store
	client   *apiclient.Client
	session  *session.Manager
	payments *payments.Service
	closers  []io.Closer
}

func newApp(ctx context.Context, cfg config.Config, out io.Writer) (*app, error) {
	a := &app{cfg: cfg}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store

	a.client, err = apiclient.New(cfg, store,
		apiclient.WithLogger(log.Logger),
		apiclient.WithNavigator(apiclient.NavigatorFunc(func(route string) {
			fmt.Fprintf(out, "Your session has expired. Sign in again with `condoctl login` (%s).\n", route)
		})),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.session, err = session.New(a.client, store,
		session.WithLogger(log.Logger),
		session.WithKeepTokensOnUnavailable(cfg.GetKeepTokensOnUnavailable()),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.payments, err = payments.NewService(a.client, cfg, payments.WithServiceLogger(log.Logger))
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (token.Store, error) {
	switch a.cfg.GetTokenStore() {
	case config.TokenStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.GetRedisAddr(),
			Password: a.cfg.GetRedisPassword(),
			DB:       a.cfg.GetRedisDB(),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", a.cfg.GetRedisAddr(), err)
		}
		a.closers = append(a.closers, client)
		return redisstore.New(client, a.cfg.GetRedisKey())
	case config.TokenStoreFile, "":
		return filestore.New(a.cfg.GetTokenFile())
	default:
		return nil, fmt.Errorf("unknown TOKEN_STORE %q", a.cfg.GetTokenStore())
	}
}

// newPoller builds a confirmation poller, narrowed to the resident's payments
// when the current user is a resident.
func (a *app) newPoller() (*payments.Poller, error) {
	opts := []payments.PollerOption{
		payments.WithInterval(a.cfg.GetPollInterval()),
		payments.WithDeadline(a.cfg.GetPollDeadline()),
		payments.WithPollerLogger(log.Logger),
	}
	if user := a.session.CurrentUser(); user.IsResident() {
		opts = append(opts, payments.WithResident(user.ID))
	}
	return payments.NewPoller(a.client, opts...)
}

// authenticated bootstraps the session and fails unless it is Authenticated.
func (a *app) authenticated(ctx context.Context) error {
	status, err := a.session.Initialize(ctx)
	if status == session.Authenticated {
		return nil
	}
	if err != nil {
		log.Debug().Err(err).Msg("session bootstrap")
	}
	if rerr := a.session.RequireAuthenticated(); rerr != nil {
		return fmt.Errorf("%w; run `condoctl login` first", rerr)
	}
	return nil
}

func (a *app) Close() {
	if a.session != nil {
		a.session.Dispose()
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Err(err).Msg("closing resource")
		}
	}
}
