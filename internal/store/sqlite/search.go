package sqlite

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
	"rolodex/internal/textindex"
)

func (r reader) SearchInteractionText(ctx context.Context, query string) ([]store.InteractionHit, error) {
	match, err := ftsQuery(query)
	if err != nil {
		return nil, err
	}
	if match == "" {
		return []store.InteractionHit{}, nil
	}

	rows, err := r.q.QueryContext(ctx, `
	SELECT i.id,
		   -bm25(interactions_fts, 1.0, 2.0) AS score,
		   snippet(interactions_fts, -1, '**', '**', '...', 16) AS snippet
	FROM interactions_fts
	JOIN interactions i ON interactions_fts.rowid = i.id
	WHERE interactions_fts MATCH ?
	ORDER BY score DESC, i.id ASC`, match)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search interactions", goerr.V("query", query))
	}
	defer rows.Close()

	hits := []store.InteractionHit{}
	for rows.Next() {
		var h store.InteractionHit
		if err := rows.Scan(&h.InteractionID, &h.Score, &h.Snippet); err != nil {
			return nil, goerr.Wrap(err, "failed to scan interaction hit")
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate interaction hits")
	}
	return hits, nil
}

func (r reader) SearchPersonText(ctx context.Context, query string) ([]store.PersonHit, error) {
	match, err := ftsQuery(query)
	if err != nil {
		return nil, err
	}
	if match == "" {
		return []store.PersonHit{}, nil
	}

	rows, err := r.q.QueryContext(ctx, `
	SELECT p.name,
		   -bm25(persons_fts, 1.0, 1.0) AS score,
		   snippet(persons_fts, -1, '**', '**', '...', 16) AS snippet
	FROM persons_fts
	JOIN persons p ON persons_fts.rowid = p.id
	WHERE persons_fts MATCH ?
	ORDER BY score DESC, p.name ASC`, match)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search persons", goerr.V("query", query))
	}
	defer rows.Close()

	hits := []store.PersonHit{}
	for rows.Next() {
		var h store.PersonHit
		if err := rows.Scan(&h.PersonName, &h.Score, &h.Snippet); err != nil {
			return nil, goerr.Wrap(err, "failed to scan person hit")
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate person hits")
	}
	return hits, nil
}

// ftsQuery converts free text into an FTS5 expression requiring every token
// as a prefix. Tokens are quoted, so FTS5 operators in user input are inert.
// A query with no word characters yields "".
func ftsQuery(query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", goerr.Wrap(store.ErrValidation, "search query must not be empty")
	}
	tokens := textindex.QueryTokens(query)
	terms := make([]string, 0, len(tokens))
	for _, t := range tokens {
		terms = append(terms, `"`+t+`"*`)
	}
	return strings.Join(terms, " AND "), nil
}
