// Package postgres stores records in PostgreSQL through a pgx pool. Text
// search uses generated tsvector columns with the simple configuration, so
// tokens are matched without stemming, like the other backends.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/logging"
	"rolodex/internal/store"
)

var _ store.Store = (*Client)(nil)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Client struct {
	reader
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Client, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres")
	}
	logging.Default().Debug("opened postgres store", "host", pool.Config().ConnConfig.Host)
	return &Client{reader: reader{q: pool}, pool: pool}, nil
}

func (c *Client) Close(ctx context.Context) error {
	c.pool.Close()
	return nil
}

// View runs fn in a read-only REPEATABLE READ transaction.
func (c *Client) View(ctx context.Context, fn func(r store.Reader) error) error {
	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return goerr.Wrap(err, "failed to begin read transaction")
	}
	defer tx.Rollback(ctx)
	return fn(reader{q: tx})
}

func (c *Client) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return goerr.Wrap(err, "failed to commit transaction")
	}
	return nil
}

type reader struct {
	q querier
}

var _ store.Reader = reader{}
