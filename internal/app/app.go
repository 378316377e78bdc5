// Package app wires settings, stores and the HTTP router into a running
// server process.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/platform-skeleton/internal/api"
	"github.com/99minutos/platform-skeleton/internal/api/handler"
	"github.com/99minutos/platform-skeleton/internal/core/service"
	"github.com/99minutos/platform-skeleton/internal/infrastructure/db"
	"github.com/99minutos/platform-skeleton/internal/infrastructure/db/redis"
	"github.com/99minutos/platform-skeleton/internal/infrastructure/telemetry"
	"github.com/99minutos/platform-skeleton/internal/pkg/config"
)

const (
	shutdownTimeout = 10 * time.Second
	flushTimeout    = 2 * time.Second
)

type App struct {
	settings *config.Settings
	log      zerolog.Logger
	store    *db.Store
	cache    *goredis.Client
	broker   *goredis.Client
	reporter *telemetry.Reporter
	echo     *echo.Echo
}

// New connects to the identity store and builds the router. The cache and
// broker are not contacted here; readiness reports on them.
func New(ctx context.Context, s *config.Settings, log, httpLog zerolog.Logger) (*App, error) {
	reporter, err := telemetry.Init(telemetry.Options{
		DSN:              sentryDSN(s),
		Environment:      string(s.Layer),
		TracesSampleRate: s.Sentry.TracesSampleRate,
		SendDefaultPII:   s.Sentry.SendDefaultPII,
	})
	if err != nil {
		return nil, err
	}

	store, err := db.Open(ctx, s.Database)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	cache, err := redis.NewClient(redis.Config{URL: s.Cache.URL})
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("cache init error: %w", err)
	}
	broker, err := redis.NewClient(redis.Config{URL: s.Celery.BrokerURL})
	if err != nil {
		_ = store.Close(ctx)
		_ = cache.Close()
		return nil, fmt.Errorf("broker init error: %w", err)
	}

	accounts := service.NewAccountService(
		store.Accounts(),
		redis.NewSessionStore(cache),
		s.SecretKey,
		s.Session.CookieAge,
		s.API.PageSize,
	)

	e := api.NewRouter(api.Deps{
		Settings: s,
		Accounts: accounts,
		Readiness: []handler.Dependency{
			{Name: "database", Pinger: store},
			{Name: "cache", Pinger: redisPinger(cache)},
			{Name: "broker", Pinger: redisPinger(broker)},
		},
		Log:      log,
		HTTPLog:  httpLog,
		Reporter: reporter,
	})

	return &App{
		settings: s,
		log:      log,
		store:    store,
		cache:    cache,
		broker:   broker,
		reporter: reporter,
		echo:     e,
	}, nil
}

func sentryDSN(s *config.Settings) string {
	if !s.Sentry.Enabled {
		return ""
	}
	return s.Sentry.DSN
}

func redisPinger(c *goredis.Client) handler.PingFunc {
	return func(ctx context.Context) error {
		return c.Ping(ctx).Err()
	}
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("addr", a.settings.Addr()).
			Str("layer", string(a.settings.Layer)).
			Str("database", string(a.store.Backend)).
			Msg("starting server")
		if err := a.echo.Start(a.settings.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases every connection the App holds.
func (a *App) Close(ctx context.Context) error {
	a.reporter.Flush(flushTimeout)
	return errors.Join(
		a.store.Close(ctx),
		a.cache.Close(),
		a.broker.Close(),
	)
}

// Handler exposes the router, e.g. for tests.
func (a *App) Handler() http.Handler {
	return a.echo
}
