package main

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/config"
	"rolodex/internal/logging"
	"rolodex/internal/store"
	"rolodex/internal/store/memory"
	"rolodex/internal/store/postgres"
	"rolodex/internal/store/sqlite"
)

// openStore picks the backend from the DSN scheme.
func openStore(ctx context.Context, dsn string) (store.Store, error) {
	scheme := config.Scheme(dsn)
	logging.Default().Debug("opening store", "scheme", scheme)

	switch scheme {
	case "sqlite":
		return sqlite.New(ctx, dsn)
	case "postgres", "postgresql":
		return postgres.New(ctx, dsn)
	case "memory":
		return memory.New(), nil
	default:
		return nil, goerr.Wrap(store.ErrValidation, "unsupported database scheme", goerr.V("scheme", scheme))
	}
}
