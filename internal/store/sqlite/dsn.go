package sqlite

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
)

// parseDSN turns sqlite://path[?query] into a driver DSN. Relative paths are
// made explicit with ./ so the driver never reads them as URIs.
func parseDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "sqlite://") {
		return "", goerr.Wrap(store.ErrValidation, "invalid sqlite DSN scheme, expected sqlite://", goerr.V("dsn", dsn))
	}

	rest := strings.TrimPrefix(dsn, "sqlite://")
	if rest == "" {
		return "", goerr.Wrap(store.ErrValidation, "sqlite DSN has no path", goerr.V("dsn", dsn))
	}
	if rest == ":memory:" {
		return ":memory:", nil
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", goerr.Wrap(store.ErrValidation, "failed to unescape sqlite path", goerr.V("dsn", dsn))
	}
	path = unescaped

	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}
	if hasQuery {
		return path + "?" + query, nil
	}
	return path, nil
}
