package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
)

const interactionColumns = `id, person_name, date, date_seq, takeaways, tags, source_hash`

func scanInteraction(row pgx.Row) (store.Interaction, error) {
	var i store.Interaction
	var date time.Time
	var tags []string
	if err := row.Scan(&i.ID, &i.PersonName, &date, &i.DateSeq, &i.Takeaways, &tags, &i.SourceHash); err != nil {
		return i, err
	}
	i.Date = store.DateOf(date)
	i.Tags = make([]store.Tag, 0, len(tags))
	for _, t := range tags {
		i.Tags = append(i.Tags, store.Tag(t))
	}
	if i.Takeaways == nil {
		i.Takeaways = []string{}
	}
	return i, nil
}

func (r reader) queryInteractions(ctx context.Context, query string, args ...any) ([]store.Interaction, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query interactions")
	}
	defer rows.Close()

	items := []store.Interaction{}
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan interaction")
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate interactions")
	}
	return items, nil
}

func (r reader) GetInteraction(ctx context.Context, id int64) (*store.Interaction, error) {
	i, err := scanInteraction(r.q.QueryRow(ctx, `SELECT `+interactionColumns+` FROM interactions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(store.ErrNotFound, "interaction not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get interaction", goerr.V("id", id))
	}
	return &i, nil
}

func (r reader) ListInteractions(ctx context.Context, personName string) ([]store.Interaction, error) {
	return r.queryInteractions(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE person_name = $1 ORDER BY date, date_seq, id`, personName)
}

func (r reader) ListAllInteractions(ctx context.Context) ([]store.Interaction, error) {
	return r.queryInteractions(ctx, `SELECT `+interactionColumns+` FROM interactions ORDER BY id`)
}

func (r reader) GetTranscript(ctx context.Context, interactionID int64) (*store.Transcript, error) {
	var t store.Transcript
	var utterances []byte
	err := r.q.QueryRow(ctx,
		`SELECT transcript_text, utterances FROM interactions WHERE id = $1`, interactionID).Scan(&t.Text, &utterances)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(store.ErrNotFound, "interaction not found", goerr.V("id", interactionID))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get transcript", goerr.V("id", interactionID))
	}
	if err := json.Unmarshal(utterances, &t.Utterances); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal utterances", goerr.V("id", interactionID))
	}
	if t.Utterances == nil {
		t.Utterances = []store.Utterance{}
	}
	return &t, nil
}

func (r reader) SourceHashes(ctx context.Context) (map[string]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT source_hash, id FROM interactions WHERE source_hash <> ''`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query source hashes")
	}
	defer rows.Close()

	hashes := make(map[string]int64)
	for rows.Next() {
		var hash string
		var id int64
		if err := rows.Scan(&hash, &id); err != nil {
			return nil, goerr.Wrap(err, "failed to scan source hash")
		}
		hashes[hash] = id
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate source hashes")
	}
	return hashes, nil
}

func (c *Client) CreateInteraction(ctx context.Context, in store.InteractionInput) (*store.Interaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	utterances := in.Transcript.Utterances
	if utterances == nil {
		utterances = []store.Utterance{}
	}
	utterancesJSON, err := json.Marshal(utterances)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal utterances")
	}
	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		tags = append(tags, string(t))
	}
	date := store.DateOf(in.Date)

	var id int64
	err = c.withTx(ctx, func(tx pgx.Tx) error {
		exists, err := lockPerson(ctx, tx, in.PersonName)
		if err != nil {
			return err
		}
		if !exists {
			return goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", in.PersonName))
		}

		var seq int
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(date_seq), 0) + 1 FROM interactions WHERE person_name = $1 AND date = $2`,
			in.PersonName, date).Scan(&seq)
		if err != nil {
			return goerr.Wrap(err, "failed to compute date sequence", goerr.V("name", in.PersonName))
		}

		err = tx.QueryRow(ctx, `
INSERT INTO interactions (
    person_name, date, date_seq, transcript_text, utterances, transcript_search,
    takeaways, takeaways_text, tags, source_hash
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`,
			in.PersonName, date, seq, in.Transcript.Text, string(utterancesJSON), in.Transcript.FullText(),
			in.Takeaways, store.TakeawaysText(in.Takeaways), tags, in.SourceHash,
		).Scan(&id)
		if err != nil {
			return goerr.Wrap(err, "failed to insert interaction", goerr.V("name", in.PersonName))
		}

		if in.State != nil {
			if err := setPersonState(ctx, tx, in.PersonName, *in.State); err != nil {
				return err
			}
		}
		if in.Background != "" {
			_, err := tx.Exec(ctx,
				`UPDATE persons SET background = $2, updated_at = now() WHERE name = $1 AND btrim(background) = ''`,
				in.PersonName, in.Background)
			if err != nil {
				return goerr.Wrap(err, "failed to set background", goerr.V("name", in.PersonName))
			}
		}
		if len(in.Followups) > 0 {
			slug := store.InteractionSlug(date, seq)
			if _, err := insertFollowups(ctx, tx, in.PersonName, id, slug, in.Followups); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.GetInteraction(ctx, id)
}

func (c *Client) DeleteInteraction(ctx context.Context, id int64) (*store.DeleteResult, error) {
	result := &store.DeleteResult{}
	err := c.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM followups WHERE interaction_id = $1`, id)
		if err != nil {
			return goerr.Wrap(err, "failed to delete followups", goerr.V("id", id))
		}
		result.Followups = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM interactions WHERE id = $1`, id)
		if err != nil {
			return goerr.Wrap(err, "failed to delete interaction", goerr.V("id", id))
		}
		if tag.RowsAffected() == 0 {
			return goerr.Wrap(store.ErrNotFound, "interaction not found", goerr.V("id", id))
		}
		result.Interactions = 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
