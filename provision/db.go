package provision

import (
	"context"
	"errors"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of a pgx pool used once the database is ready
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

var _ DB = (*pgxpool.Pool)(nil)

// Connector opens a database handle
type Connector func(ctx context.Context, url string) (DB, error)

// PoolConnector opens a pgx pool. A malformed url is a permanent error.
func PoolConnector(ctx context.Context, url string) (DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// transientCodes are server errors raised while postgres starts or is saturated
var transientCodes = map[string]struct{}{
	"57P03": {}, // cannot_connect_now
	"53300": {}, // too_many_connections
}

// classify marks server side errors permanent unless postgres is still starting.
// Network errors stay transient.
func classify(err error) error {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return err
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if _, ok := transientCodes[pgErr.Code]; ok || strings.HasPrefix(pgErr.Code, "08") {
		return err
	}
	return backoff.Permanent(err)
}
