// Package db opens the identity store named by DATABASE_URL. The URL scheme
// picks the backend.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	mongodrv "go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/platform-skeleton/internal/core/ports"
	"github.com/99minutos/platform-skeleton/internal/infrastructure/db/mongo"
	"github.com/99minutos/platform-skeleton/internal/infrastructure/db/postgres"
	"github.com/99minutos/platform-skeleton/internal/pkg/config"
)

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMongo    Backend = "mongodb"
)

var ErrUnsupportedScheme = errors.New("unsupported database scheme")

// BackendFor maps a database URL to its backend.
func BackendFor(rawURL string) (Backend, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: database url: %v", config.ErrImproperlyConfigured, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return BackendPostgres, nil
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	default:
		return "", fmt.Errorf("%w: %w %q", config.ErrImproperlyConfigured, ErrUnsupportedScheme, u.Scheme)
	}
}

// Store is an open identity store.
type Store struct {
	Backend Backend

	accounts ports.AccountRepository

	ping    func(ctx context.Context) error
	migrate func(ctx context.Context) error
	close   func(ctx context.Context) error
}

// Open connects to the backend selected by cfg.URL.
func Open(ctx context.Context, cfg config.DatabaseSettings) (*Store, error) {
	backend, err := BackendFor(cfg.URL)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendPostgres:
		sqlDB, err := postgres.Connect(ctx, postgres.Config{URL: cfg.URL, ConnMaxAge: cfg.ConnMaxAge})
		if err != nil {
			return nil, err
		}
		return newSQLStore(sqlDB), nil
	default:
		client, database, err := mongo.Connect(ctx, mongo.Config{URI: cfg.URL, MaxConnIdle: cfg.ConnMaxAge})
		if err != nil {
			return nil, err
		}
		return newMongoStore(client, database), nil
	}
}

func newSQLStore(sqlDB *sql.DB) *Store {
	return &Store{
		Backend:  BackendPostgres,
		accounts: postgres.NewAccountRepository(sqlDB),
		ping:     sqlDB.PingContext,
		migrate:  func(ctx context.Context) error { return postgres.Migrate(ctx, sqlDB) },
		close:    func(context.Context) error { return sqlDB.Close() },
	}
}

func newMongoStore(client *mongodrv.Client, database *mongodrv.Database) *Store {
	repo := mongo.NewAccountRepository(database)
	return &Store{
		Backend:  BackendMongo,
		accounts: repo,
		ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
		migrate:  repo.EnsureIndexes,
		close:    client.Disconnect,
	}
}

// Accounts returns the account repository of the backend.
func (s *Store) Accounts() ports.AccountRepository {
	return s.accounts
}

// Ping checks the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Migrate brings the schema up to date: goose migrations on Postgres,
// indexes on MongoDB.
func (s *Store) Migrate(ctx context.Context) error {
	return s.migrate(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.close(ctx)
}
