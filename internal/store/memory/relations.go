package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
)

func (m *Memory) Connect(ctx context.Context, a, b string) (bool, error) {
	if err := store.ValidateConnection(a, b); err != nil {
		return false, err
	}
	st, unlock, err := m.write(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	for _, name := range []string{a, b} {
		if _, ok := st.persons[name]; !ok {
			return false, goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name))
		}
	}

	pair := store.CanonicalPair(a, b)
	if _, exists := st.connections[pair]; exists {
		return false, nil
	}
	st.connections[pair] = struct{}{}
	return true, nil
}

func (m *Memory) Disconnect(ctx context.Context, a, b string) (bool, error) {
	if err := store.ValidateConnection(a, b); err != nil {
		return false, err
	}
	st, unlock, err := m.write(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	pair := store.CanonicalPair(a, b)
	if _, exists := st.connections[pair]; !exists {
		return false, nil
	}
	delete(st.connections, pair)
	return true, nil
}

func (m *Memory) CreateFollowups(ctx context.Context, personName string, interactionID int64, items []string) ([]store.Followup, error) {
	if err := store.ValidateFollowupItems(items); err != nil {
		return nil, err
	}
	st, unlock, err := m.write(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, ok := st.persons[personName]; !ok {
		return nil, goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", personName))
	}
	rec, ok := st.interactions[interactionID]
	if !ok {
		return nil, goerr.Wrap(store.ErrNotFound, "interaction not found", goerr.V("id", interactionID))
	}
	if rec.interaction.PersonName != personName {
		return nil, goerr.Wrap(store.ErrIntegrity, "interaction belongs to another person",
			goerr.V("id", interactionID), goerr.V("name", personName), goerr.V("owner", rec.interaction.PersonName))
	}

	return st.addFollowups(personName, interactionID, rec.interaction.Slug(), items), nil
}

// addFollowups stores items as open followups. The caller holds the write lock.
func (st *state) addFollowups(personName string, interactionID int64, slug string, items []string) []store.Followup {
	created := make([]store.Followup, 0, len(items))
	for _, item := range items {
		f := store.Followup{
			ID:            st.nextFollowupID,
			PersonName:    personName,
			InteractionID: interactionID,
			DateSlug:      slug,
			Item:          item,
			Status:        store.FollowupStatusOpen,
		}
		st.nextFollowupID++
		st.followups[f.ID] = f
		created = append(created, f)
	}
	return created
}

func (m *Memory) CompleteFollowup(ctx context.Context, id int64) (*store.Followup, error) {
	st, unlock, err := m.write(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, ok := st.followups[id]
	if !ok {
		return nil, goerr.Wrap(store.ErrNotFound, "followup not found", goerr.V("id", id))
	}
	f.Status = store.FollowupStatusComplete
	st.followups[id] = f
	return &f, nil
}
