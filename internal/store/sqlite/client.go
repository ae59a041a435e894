// Package sqlite is the default store backend. Full-text search runs on FTS5
// external-content tables that triggers keep in sync with the base tables, so
// the index changes in the same transaction as the row.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/logging"
	"rolodex/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Client)(nil)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Client struct {
	reader
	db *sql.DB
}

func New(ctx context.Context, dsn string) (*Client, error) {
	driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	if driverDSN != ":memory:" {
		path, _, _ := strings.Cut(driverDSN, "?")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("path", path))
		}
	}

	db, err := sql.Open("sqlite", withConnPragmas(driverDSN))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database")
	}
	if driverDSN == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to ping sqlite")
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, goerr.Wrap(err, "failed to set pragma", goerr.V("pragma", pragma))
		}
	}

	logging.Default().Debug("opened sqlite store", "path", driverDSN)
	return &Client{reader: reader{q: db}, db: db}, nil
}

// withConnPragmas repeats the per-connection pragmas in the DSN so that every
// pooled connection enforces foreign keys, not only the one that ran PRAGMA.
func withConnPragmas(dsn string) string {
	if dsn == ":memory:" {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(30000)"
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}

// View runs fn inside a transaction that is always rolled back. SQLite pins
// the snapshot at the first read, so every read made by fn sees the same
// committed state.
func (c *Client) View(ctx context.Context, fn func(r store.Reader) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin read transaction")
	}
	defer tx.Rollback()
	return fn(reader{q: tx})
}

func (c *Client) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// reader implements store.Reader over a pool or a transaction.
type reader struct {
	q querier
}

var _ store.Reader = reader{}
