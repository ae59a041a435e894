package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/logging"
	"rolodex/internal/store"
)

func (m *Memory) CreatePerson(ctx context.Context, name string, fields store.PersonFields) (*store.Person, error) {
	if err := validatePerson(name, fields); err != nil {
		return nil, err
	}
	st, unlock, err := m.write(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, exists := st.persons[name]; exists {
		return nil, goerr.Wrap(store.ErrConflict, "person already exists", goerr.V("name", name))
	}
	if err := st.checkSlug(name); err != nil {
		return nil, err
	}
	p := store.Person{Name: name, PersonFields: fields}
	st.putPerson(p)
	return &p, nil
}

func (m *Memory) UpsertPerson(ctx context.Context, name string, fields store.PersonFields) (*store.Person, error) {
	if err := validatePerson(name, fields); err != nil {
		return nil, err
	}
	st, unlock, err := m.write(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, exists := st.persons[name]
	if !exists {
		if err := st.checkSlug(name); err != nil {
			return nil, err
		}
		p = store.Person{Name: name}
	}
	p.PersonFields = fields
	st.putPerson(p)
	return &p, nil
}

func (m *Memory) SetPersonState(ctx context.Context, name string, ps store.PersonState) error {
	st, unlock, err := m.write(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	p, ok := st.persons[name]
	if !ok {
		return goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name))
	}
	p.StateOfPlay = ps.StateOfPlay
	p.LastDelta = ps.LastDelta
	st.putPerson(p)
	return nil
}

func (m *Memory) SetPersonBackground(ctx context.Context, name, background string) error {
	st, unlock, err := m.write(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	p, ok := st.persons[name]
	if !ok {
		return goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name))
	}
	p.Background = background
	st.putPerson(p)
	return nil
}

func (m *Memory) DeletePerson(ctx context.Context, name string) (*store.DeleteResult, error) {
	st, unlock, err := m.write(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, ok := st.persons[name]; !ok {
		return nil, goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name))
	}

	result := &store.DeleteResult{}
	for id, f := range st.followups {
		if f.PersonName == name {
			delete(st.followups, id)
			result.Followups++
		}
	}
	for c := range st.connections {
		if c.PersonA == name || c.PersonB == name {
			delete(st.connections, c)
			result.Connections++
		}
	}
	for id, rec := range st.interactions {
		if rec.interaction.PersonName == name {
			delete(st.interactions, id)
			st.interactionText.Delete(id)
			result.Interactions++
		}
	}
	delete(st.persons, name)
	st.personText.Delete(name)

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

func (st *state) checkSlug(name string) error {
	for existing := range st.persons {
		if store.SlugsCollide(existing, name) {
			return goerr.Wrap(store.ErrConflict, "person slug collides with an existing person",
				goerr.V("name", name), goerr.V("existing", existing), goerr.V("slug", store.PersonSlug(name)))
		}
	}
	return nil
}

func (st *state) putPerson(p store.Person) {
	st.persons[p.Name] = p
	st.personText.Put(p.Name, p.StateOfPlay, p.Background)
}
