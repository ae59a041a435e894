package postgres

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
	"rolodex/internal/textindex"
)

const headlineOptions = `StartSel=**, StopSel=**, MaxWords=24, MinWords=8, MaxFragments=1`

func (r reader) SearchInteractionText(ctx context.Context, query string) ([]store.InteractionHit, error) {
	tsq, err := tsQuery(query)
	if err != nil {
		return nil, err
	}
	if tsq == "" {
		return []store.InteractionHit{}, nil
	}

	rows, err := r.q.Query(ctx, `
SELECT id,
    ts_rank(search_vector, to_tsquery('simple', $1)) AS score,
    ts_headline('simple', transcript_search || E'\n' || takeaways_text, to_tsquery('simple', $1), '`+headlineOptions+`') AS snippet
FROM interactions
WHERE search_vector @@ to_tsquery('simple', $1)
ORDER BY score DESC, id ASC`, tsq)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search interactions", goerr.V("query", query))
	}
	defer rows.Close()

	hits := []store.InteractionHit{}
	for rows.Next() {
		var h store.InteractionHit
		var score float32
		if err := rows.Scan(&h.InteractionID, &score, &h.Snippet); err != nil {
			return nil, goerr.Wrap(err, "failed to scan interaction hit")
		}
		h.Score = float64(score)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate interaction hits")
	}
	return hits, nil
}

func (r reader) SearchPersonText(ctx context.Context, query string) ([]store.PersonHit, error) {
	tsq, err := tsQuery(query)
	if err != nil {
		return nil, err
	}
	if tsq == "" {
		return []store.PersonHit{}, nil
	}

	rows, err := r.q.Query(ctx, `
SELECT name,
    ts_rank(search_vector, to_tsquery('simple', $1)) AS score,
    ts_headline('simple', state_of_play || E'\n' || background, to_tsquery('simple', $1), '`+headlineOptions+`') AS snippet
FROM persons
WHERE search_vector @@ to_tsquery('simple', $1)
ORDER BY score DESC, name ASC`, tsq)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search persons", goerr.V("query", query))
	}
	defer rows.Close()

	hits := []store.PersonHit{}
	for rows.Next() {
		var h store.PersonHit
		var score float32
		if err := rows.Scan(&h.PersonName, &score, &h.Snippet); err != nil {
			return nil, goerr.Wrap(err, "failed to scan person hit")
		}
		h.Score = float64(score)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate person hits")
	}
	return hits, nil
}

// tsQuery builds a prefix tsquery requiring every token. Tokens only hold
// letters and digits, so no tsquery syntax reaches the server.
func tsQuery(query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", goerr.Wrap(store.ErrValidation, "search query must not be empty")
	}
	tokens := textindex.QueryTokens(query)
	terms := make([]string, 0, len(tokens))
	for _, t := range tokens {
		terms = append(terms, t+":*")
	}
	return strings.Join(terms, " & "), nil
}
