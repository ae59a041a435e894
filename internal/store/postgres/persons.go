package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/logging"
	"rolodex/internal/store"
)

const personColumns = `name, current_company, type, background, linkedin_url,
    company_industry, company_revenue, company_headcount, state_of_play, last_delta`

func scanPerson(row pgx.Row) (store.Person, error) {
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
	p, err := scanPerson(r.q.QueryRow(ctx, `SELECT `+personColumns+` FROM persons WHERE name = $1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get person", goerr.V("name", name))
	}
	return &p, nil
}

func (r reader) ListPersons(ctx context.Context) ([]store.Person, error) {
	rows, err := r.q.Query(ctx, `SELECT `+personColumns+` FROM persons ORDER BY name`)
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
	rows, err := r.q.Query(ctx,
		`SELECT id FROM interactions WHERE person_name = $1 ORDER BY date, date_seq, id`, personName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list interaction ids", goerr.V("name", personName))
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, goerr.Wrap(err, "failed to collect interaction ids")
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

func (c *Client) CreatePerson(ctx context.Context, name string, fields store.PersonFields) (*store.Person, error) {
	if err := validatePerson(name, fields); err != nil {
		return nil, err
	}
	p := store.Person{Name: name, PersonFields: fields}
	err := c.withTx(ctx, func(tx pgx.Tx) error {
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
	err := c.withTx(ctx, func(tx pgx.Tx) error {
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

		_, err = tx.Exec(ctx, `
UPDATE persons SET
    current_company = $2, type = $3, background = $4, linkedin_url = $5,
    company_industry = $6, company_revenue = $7, company_headcount = $8,
    updated_at = now()
WHERE name = $1`,
			name, fields.CurrentCompany, string(fields.Type), fields.Background, fields.LinkedInURL,
			fields.CompanyIndustry, fields.CompanyRevenue, fields.CompanyHeadcount,
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
	return setPersonState(ctx, c.pool, name, ps)
}

func (c *Client) SetPersonBackground(ctx context.Context, name, background string) error {
	tag, err := c.pool.Exec(ctx,
		`UPDATE persons SET background = $2, updated_at = now() WHERE name = $1`, name, background)
	if err != nil {
		return goerr.Wrap(err, "failed to set background", goerr.V("name", name))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name))
	}
	return nil
}

func (c *Client) DeletePerson(ctx context.Context, name string) (*store.DeleteResult, error) {
	result := &store.DeleteResult{}
	err := c.withTx(ctx, func(tx pgx.Tx) error {
		exists, err := lockPerson(ctx, tx, name)
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
			{`DELETE FROM followups WHERE person_name = $1 OR interaction_id IN (SELECT id FROM interactions WHERE person_name = $1)`, &result.Followups},
			{`DELETE FROM connections WHERE person_a = $1 OR person_b = $1`, &result.Connections},
			{`DELETE FROM interactions WHERE person_name = $1`, &result.Interactions},
		}
		for _, step := range steps {
			tag, err := tx.Exec(ctx, step.query, name)
			if err != nil {
				return goerr.Wrap(err, "failed to cascade person delete", goerr.V("name", name))
			}
			*step.count = tag.RowsAffected()
		}

		tag, err := tx.Exec(ctx, `DELETE FROM persons WHERE name = $1`, name)
		if err != nil {
			return goerr.Wrap(err, "failed to delete person", goerr.V("name", name))
		}
		if tag.RowsAffected() != 1 {
			return goerr.Wrap(store.ErrIntegrity, "person vanished during delete", goerr.V("name", name))
		}
		return nil
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
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM persons WHERE name = $1)`, name).Scan(&exists); err != nil {
		return false, goerr.Wrap(err, "failed to check person", goerr.V("name", name))
	}
	return exists, nil
}

// lockPerson takes a row lock so concurrent writers serialize on the person.
func lockPerson(ctx context.Context, q querier, name string) (bool, error) {
	var locked string
	err := q.QueryRow(ctx, `SELECT name FROM persons WHERE name = $1 FOR UPDATE`, name).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, goerr.Wrap(err, "failed to lock person", goerr.V("name", name))
	}
	return true, nil
}

func checkSlug(ctx context.Context, q querier, name string) error {
	rows, err := q.Query(ctx, `SELECT name FROM persons`)
	if err != nil {
		return goerr.Wrap(err, "failed to list person names")
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return goerr.Wrap(err, "failed to collect person names")
	}
	for _, existing := range names {
		if store.SlugsCollide(existing, name) {
			return goerr.Wrap(store.ErrConflict, "person slug collides with an existing person",
				goerr.V("name", name), goerr.V("existing", existing), goerr.V("slug", store.PersonSlug(name)))
		}
	}
	return nil
}

func insertPerson(ctx context.Context, q querier, p store.Person) error {
	_, err := q.Exec(ctx, `INSERT INTO persons (`+personColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.Name, p.CurrentCompany, string(p.Type), p.Background, p.LinkedInURL,
		p.CompanyIndustry, p.CompanyRevenue, p.CompanyHeadcount, p.StateOfPlay, p.LastDelta,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to insert person", goerr.V("name", p.Name))
	}
	return nil
}

func setPersonState(ctx context.Context, q querier, name string, ps store.PersonState) error {
	tag, err := q.Exec(ctx,
		`UPDATE persons SET state_of_play = $2, last_delta = $3, updated_at = now() WHERE name = $1`,
		name, ps.StateOfPlay, ps.LastDelta)
	if err != nil {
		return goerr.Wrap(err, "failed to set person state", goerr.V("name", name))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name))
	}
	return nil
}
