package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/logging"
	"rolodex/internal/store"
)

const personColumns = `name, current_company, type, background, linkedin_url,
	company_industry, company_revenue, company_headcount, state_of_play, last_delta`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (store.Person, error) {
	var p store.Person
	var personType string
	err := row.Scan(
		&p.Name,
		&p.CurrentCompany,
		&personType,
		&p.Background,
		&p.LinkedInURL,
		&p.CompanyIndustry,
		&p.CompanyRevenue,
		&p.CompanyHeadcount,
		&p.StateOfPlay,
		&p.LastDelta,
	)
	p.Type = store.PersonType(personType)
	return p, err
}

func (r reader) GetPerson(ctx context.Context, name string) (*store.Person, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+personColumns+` FROM persons WHERE name = ?`, name)
	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get person", goerr.V("name", name))
	}
	return &p, nil
}

func (r reader) ListPersons(ctx context.Context) ([]store.Person, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+personColumns+` FROM persons ORDER BY name`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list persons")
	}
	defer rows.Close()

	persons := []store.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan person")
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate persons")
	}
	return persons, nil
}

func (r reader) InteractionIDs(ctx context.Context, personName string) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id FROM interactions WHERE person_name = ? ORDER BY date, date_seq, id`, personName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list interaction ids", goerr.V("name", personName))
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, goerr.Wrap(err, "failed to scan interaction id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate interaction ids")
	}
	return ids, nil
}

func (c *Client) CreatePerson(ctx context.Context, name string, fields store.PersonFields) (*store.Person, error) {
	if err := validatePerson(name, fields); err != nil {
		return nil, err
	}
	p := store.Person{Name: name, PersonFields: fields}
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := personExists(ctx, tx, name)
		if err != nil {
			return err
		}
		if exists {
			return goerr.Wrap(store.ErrConflict, "person already exists", goerr.V("name", name))
		}
		if err := checkSlug(ctx, tx, name); err != nil {
			return err
		}
		return insertPerson(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpsertPerson(ctx context.Context, name string, fields store.PersonFields) (*store.Person, error) {
	if err := validatePerson(name, fields); err != nil {
		return nil, err
	}
	var out *store.Person
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := reader{q: tx}.GetPerson(ctx, name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if err := checkSlug(ctx, tx, name); err != nil {
				return err
			}
			p := store.Person{Name: name, PersonFields: fields}
			out = &p
			return insertPerson(ctx, tx, p)
		case err != nil:
			return err
		}

		_, err = tx.ExecContext(ctx, `
		UPDATE persons SET
			current_company = ?, type = ?, background = ?, linkedin_url = ?,
			company_industry = ?, company_revenue = ?, company_headcount = ?,
			updated_at = datetime('now')
		WHERE name = ?`,
			fields.CurrentCompany, string(fields.Type), fields.Background, fields.LinkedInURL,
			fields.CompanyIndustry, fields.CompanyRevenue, fields.CompanyHeadcount,
			name,
		)
		if err != nil {
			return goerr.Wrap(err, "failed to update person", goerr.V("name", name))
		}
		existing.PersonFields = fields
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetPersonState(ctx context.Context, name string, ps store.PersonState) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		return setPersonState(ctx, tx, name, ps)
	})
}

func (c *Client) SetPersonBackground(ctx context.Context, name, background string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE persons SET background = ?, updated_at = datetime('now') WHERE name = ?`, background, name)
		if err != nil {
			return goerr.Wrap(err, "failed to set background", goerr.V("name", name))
		}
		return requireAffected(res, goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name)))
	})
}

func (c *Client) DeletePerson(ctx context.Context, name string) (*store.DeleteResult, error) {
	result := &store.DeleteResult{}
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		exists, err := personExists(ctx, tx, name)
		if err != nil {
			return err
		}
		if !exists {
			return goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name))
		}

		steps := []struct {
			query string
			count *int64
		}{
			{`DELETE FROM followups WHERE person_name = ?1 OR interaction_id IN (SELECT id FROM interactions WHERE person_name = ?1)`, &result.Followups},
			{`DELETE FROM connections WHERE person_a = ?1 OR person_b = ?1`, &result.Connections},
			{`DELETE FROM interactions WHERE person_name = ?1`, &result.Interactions},
		}
		for _, step := range steps {
			res, err := tx.ExecContext(ctx, step.query, name)
			if err != nil {
				return goerr.Wrap(err, "failed to cascade person delete", goerr.V("name", name))
			}
			n, err := res.RowsAffected()
			if err != nil {
				return goerr.Wrap(err, "failed to count deleted rows")
			}
			*step.count = n
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM persons WHERE name = ?`, name)
		if err != nil {
			return goerr.Wrap(err, "failed to delete person", goerr.V("name", name))
		}
		return requireAffected(res, goerr.Wrap(store.ErrIntegrity, "person vanished during delete", goerr.V("name", name)))
	})
	if err != nil {
		return nil, err
	}
	logging.Default().Debug("deleted person",
		"name", name,
		"interactions", result.Interactions,
		"followups", result.Followups,
		"connections", result.Connections,
	)
	return result, nil
}

func validatePerson(name string, fields store.PersonFields) error {
	if err := store.ValidatePersonName(name); err != nil {
		return err
	}
	return fields.Validate()
}

func personExists(ctx context.Context, q querier, name string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM persons WHERE name = ?`, name).Scan(&n); err != nil {
		return false, goerr.Wrap(err, "failed to check person", goerr.V("name", name))
	}
	return n > 0, nil
}

// checkSlug compares in Go so the rule is identical across backends.
func checkSlug(ctx context.Context, q querier, name string) error {
	rows, err := q.QueryContext(ctx, `SELECT name FROM persons`)
	if err != nil {
		return goerr.Wrap(err, "failed to list person names")
	}
	defer rows.Close()

	for rows.Next() {
		var existing string
		if err := rows.Scan(&existing); err != nil {
			return goerr.Wrap(err, "failed to scan person name")
		}
		if store.SlugsCollide(existing, name) {
			return goerr.Wrap(store.ErrConflict, "person slug collides with an existing person",
				goerr.V("name", name), goerr.V("existing", existing), goerr.V("slug", store.PersonSlug(name)))
		}
	}
	return rows.Err()
}

func insertPerson(ctx context.Context, q querier, p store.Person) error {
	_, err := q.ExecContext(ctx, `INSERT INTO persons (`+personColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.CurrentCompany, string(p.Type), p.Background, p.LinkedInURL,
		p.CompanyIndustry, p.CompanyRevenue, p.CompanyHeadcount, p.StateOfPlay, p.LastDelta,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert person", goerr.V("name", p.Name))
	}
	return nil
}

func setPersonState(ctx context.Context, q querier, name string, ps store.PersonState) error {
	res, err := q.ExecContext(ctx,
		`UPDATE persons SET state_of_play = ?, last_delta = ?, updated_at = datetime('now') WHERE name = ?`,
		ps.StateOfPlay, ps.LastDelta, name)
	if err != nil {
		return goerr.Wrap(err, "failed to set person state", goerr.V("name", name))
	}
	return requireAffected(res, goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name)))
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return goerr.Wrap(err, "failed to get rows affected")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
