package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
)

const interactionColumns = `id, person_name, date, date_seq, takeaways, tags, source_hash`

func scanInteraction(row rowScanner) (store.Interaction, error) {
	var i store.Interaction
	var date string
	var takeaways, tags []byte
	if err := row.Scan(&i.ID, &i.PersonName, &date, &i.DateSeq, &takeaways, &tags, &i.SourceHash); err != nil {
		return i, err
	}
	d, err := store.ParseDate(date)
	if err != nil {
		return i, goerr.Wrap(store.ErrIntegrity, "stored interaction date is malformed", goerr.V("id", i.ID), goerr.V("date", date))
	}
	i.Date = d
	if err := json.Unmarshal(takeaways, &i.Takeaways); err != nil {
		return i, goerr.Wrap(err, "failed to unmarshal takeaways", goerr.V("id", i.ID))
	}
	if err := json.Unmarshal(tags, &i.Tags); err != nil {
		return i, goerr.Wrap(err, "failed to unmarshal tags", goerr.V("id", i.ID))
	}
	if i.Takeaways == nil {
		i.Takeaways = []string{}
	}
	if i.Tags == nil {
		i.Tags = []store.Tag{}
	}
	return i, nil
}

func (r reader) queryInteractions(ctx context.Context, query string, args ...any) ([]store.Interaction, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
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
	row := r.q.QueryRowContext(ctx, `SELECT `+interactionColumns+` FROM interactions WHERE id = ?`, id)
	i, err := scanInteraction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(store.ErrNotFound, "interaction not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get interaction", goerr.V("id", id))
	}
	return &i, nil
}

func (r reader) ListInteractions(ctx context.Context, personName string) ([]store.Interaction, error) {
	return r.queryInteractions(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE person_name = ? ORDER BY date, date_seq, id`, personName)
}

func (r reader) ListAllInteractions(ctx context.Context) ([]store.Interaction, error) {
	return r.queryInteractions(ctx, `SELECT `+interactionColumns+` FROM interactions ORDER BY id`)
}

func (r reader) GetTranscript(ctx context.Context, interactionID int64) (*store.Transcript, error) {
	var t store.Transcript
	var utterances []byte
	err := r.q.QueryRowContext(ctx,
		`SELECT transcript_text, utterances FROM interactions WHERE id = ?`, interactionID).Scan(&t.Text, &utterances)
	if errors.Is(err, sql.ErrNoRows) {
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
	rows, err := r.q.QueryContext(ctx, `SELECT source_hash, id FROM interactions WHERE source_hash <> ''`)
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

	takeaways, err := json.Marshal(in.Takeaways)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal takeaways")
	}
	tags, err := json.Marshal(in.Tags)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal tags")
	}
	utterances := in.Transcript.Utterances
	if utterances == nil {
		utterances = []store.Utterance{}
	}
	utterancesJSON, err := json.Marshal(utterances)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal utterances")
	}

	date := store.FormatDate(store.DateOf(in.Date))
	var id int64
	err = c.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := personExists(ctx, tx, in.PersonName)
		if err != nil {
			return err
		}
		if !exists {
			return goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", in.PersonName))
		}

		var seq int
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(date_seq), 0) + 1 FROM interactions WHERE person_name = ? AND date = ?`,
			in.PersonName, date).Scan(&seq)
		if err != nil {
			return goerr.Wrap(err, "failed to compute date sequence", goerr.V("name", in.PersonName), goerr.V("date", date))
		}

		err = tx.QueryRowContext(ctx, `
		INSERT INTO interactions (
			person_name, date, date_seq, transcript_text, utterances, transcript_search,
			takeaways, takeaways_text, tags, source_hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
			in.PersonName, date, seq, in.Transcript.Text, string(utterancesJSON), in.Transcript.FullText(),
			string(takeaways), store.TakeawaysText(in.Takeaways), string(tags), in.SourceHash,
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
			_, err := tx.ExecContext(ctx,
				`UPDATE persons SET background = ?, updated_at = datetime('now') WHERE name = ? AND TRIM(background) = ''`,
				in.Background, in.PersonName)
			if err != nil {
				return goerr.Wrap(err, "failed to set background", goerr.V("name", in.PersonName))
			}
		}
		if len(in.Followups) > 0 {
			slug := store.InteractionSlug(store.DateOf(in.Date), seq)
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
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM followups WHERE interaction_id = ?`, id)
		if err != nil {
			return goerr.Wrap(err, "failed to delete followups", goerr.V("id", id))
		}
		if result.Followups, err = res.RowsAffected(); err != nil {
			return goerr.Wrap(err, "failed to count deleted followups")
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM interactions WHERE id = ?`, id)
		if err != nil {
			return goerr.Wrap(err, "failed to delete interaction", goerr.V("id", id))
		}
		if err := requireAffected(res, goerr.Wrap(store.ErrNotFound, "interaction not found", goerr.V("id", id))); err != nil {
			return err
		}
		result.Interactions = 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
