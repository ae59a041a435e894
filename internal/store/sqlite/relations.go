package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
)

func (r reader) Connections(ctx context.Context, personName string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `
	SELECT CASE WHEN person_a = ?1 THEN person_b ELSE person_a END AS other
	FROM connections
	WHERE person_a = ?1 OR person_b = ?1
	ORDER BY other`, personName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list connections", goerr.V("name", personName))
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, goerr.Wrap(err, "failed to scan connection")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate connections")
	}
	return names, nil
}

func (r reader) ListConnections(ctx context.Context) ([]store.Connection, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT person_a, person_b FROM connections ORDER BY person_a, person_b`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list connections")
	}
	defer rows.Close()

	conns := []store.Connection{}
	for rows.Next() {
		var c store.Connection
		if err := rows.Scan(&c.PersonA, &c.PersonB); err != nil {
			return nil, goerr.Wrap(err, "failed to scan connection")
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate connections")
	}
	return conns, nil
}

const followupColumns = `id, person_name, interaction_id, date_slug, item, status`

func (r reader) queryFollowups(ctx context.Context, query string, args ...any) ([]store.Followup, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query followups")
	}
	defer rows.Close()

	items := []store.Followup{}
	for rows.Next() {
		f, err := scanFollowup(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate followups")
	}
	return items, nil
}

func scanFollowup(row rowScanner) (store.Followup, error) {
	var f store.Followup
	var status string
	if err := row.Scan(&f.ID, &f.PersonName, &f.InteractionID, &f.DateSlug, &f.Item, &status); err != nil {
		return f, err
	}
	f.Status = store.FollowupStatus(status)
	return f, nil
}

func (r reader) ListFollowups(ctx context.Context, personName string, status store.FollowupStatus) ([]store.Followup, error) {
	return r.queryFollowups(ctx, `
	SELECT `+followupColumns+` FROM followups
	WHERE person_name = ? AND (? = '' OR status = ?)
	ORDER BY id`, personName, string(status), string(status))
}

func (r reader) ListAllFollowups(ctx context.Context) ([]store.Followup, error) {
	return r.queryFollowups(ctx, `SELECT `+followupColumns+` FROM followups ORDER BY id`)
}

func (c *Client) Connect(ctx context.Context, a, b string) (bool, error) {
	if err := store.ValidateConnection(a, b); err != nil {
		return false, err
	}
	pair := store.CanonicalPair(a, b)
	var created bool
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		for _, name := range []string{pair.PersonA, pair.PersonB} {
			exists, err := personExists(ctx, tx, name)
			if err != nil {
				return err
			}
			if !exists {
				return goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name))
			}
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO connections (person_a, person_b) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			pair.PersonA, pair.PersonB)
		if err != nil {
			return goerr.Wrap(err, "failed to insert connection", goerr.V("a", pair.PersonA), goerr.V("b", pair.PersonB))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return goerr.Wrap(err, "failed to get rows affected")
		}
		created = n > 0
		return nil
	})
	return created, err
}

func (c *Client) Disconnect(ctx context.Context, a, b string) (bool, error) {
	if err := store.ValidateConnection(a, b); err != nil {
		return false, err
	}
	pair := store.CanonicalPair(a, b)
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM connections WHERE person_a = ? AND person_b = ?`, pair.PersonA, pair.PersonB)
	if err != nil {
		return false, goerr.Wrap(err, "failed to delete connection", goerr.V("a", pair.PersonA), goerr.V("b", pair.PersonB))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, goerr.Wrap(err, "failed to get rows affected")
	}
	return n > 0, nil
}

func (c *Client) CreateFollowups(ctx context.Context, personName string, interactionID int64, items []string) ([]store.Followup, error) {
	if err := store.ValidateFollowupItems(items); err != nil {
		return nil, err
	}
	var created []store.Followup
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := personExists(ctx, tx, personName)
		if err != nil {
			return err
		}
		if !exists {
			return goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", personName))
		}
		interaction, err := reader{q: tx}.GetInteraction(ctx, interactionID)
		if err != nil {
			return err
		}
		if interaction.PersonName != personName {
			return goerr.Wrap(store.ErrIntegrity, "interaction belongs to another person",
				goerr.V("id", interactionID), goerr.V("name", personName), goerr.V("owner", interaction.PersonName))
		}

		created, err = insertFollowups(ctx, tx, personName, interactionID, interaction.Slug(), items)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func insertFollowups(ctx context.Context, tx *sql.Tx, personName string, interactionID int64, slug string, items []string) ([]store.Followup, error) {
	created := make([]store.Followup, 0, len(items))
	for _, item := range items {
		f := store.Followup{
			PersonName:    personName,
			InteractionID: interactionID,
			DateSlug:      slug,
			Item:          item,
			Status:        store.FollowupStatusOpen,
		}
		err := tx.QueryRowContext(ctx,
			`INSERT INTO followups (person_name, interaction_id, date_slug, item, status) VALUES (?, ?, ?, ?, ?) RETURNING id`,
			f.PersonName, f.InteractionID, f.DateSlug, f.Item, string(f.Status)).Scan(&f.ID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to insert followup", goerr.V("name", personName))
		}
		created = append(created, f)
	}
	return created, nil
}

func (c *Client) CompleteFollowup(ctx context.Context, id int64) (*store.Followup, error) {
	var f store.Followup
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE followups SET status = ? WHERE id = ?`, string(store.FollowupStatusComplete), id)
		if err != nil {
			return goerr.Wrap(err, "failed to complete followup", goerr.V("id", id))
		}
		if err := requireAffected(res, goerr.Wrap(store.ErrNotFound, "followup not found", goerr.V("id", id))); err != nil {
			return err
		}
		f, err = scanFollowup(tx.QueryRowContext(ctx, `SELECT `+followupColumns+` FROM followups WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return goerr.Wrap(store.ErrNotFound, "followup not found", goerr.V("id", id))
		}
		if err != nil {
			return goerr.Wrap(err, "failed to read followup", goerr.V("id", id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}
