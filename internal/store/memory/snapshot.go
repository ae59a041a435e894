package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
)

// snapshot reads state without locking; callers hold the lock.
type snapshot struct {
	st *state
}

var _ store.Reader = snapshot{}

func (s snapshot) GetPerson(ctx context.Context, name string) (*store.Person, error) {
	p, ok := s.st.persons[name]
	if !ok {
		return nil, goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", name))
	}
	return &p, nil
}

func (s snapshot) ListPersons(ctx context.Context) ([]store.Person, error) {
	persons := make([]store.Person, 0, len(s.st.persons))
	for _, p := range s.st.persons {
		persons = append(persons, p)
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].Name < persons[j].Name })
	return persons, nil
}

func (s snapshot) InteractionIDs(ctx context.Context, personName string) ([]int64, error) {
	items, err := s.ListInteractions(ctx, personName)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(items))
	for _, i := range items {
		ids = append(ids, i.ID)
	}
	return ids, nil
}

func (s snapshot) Connections(ctx context.Context, personName string) ([]string, error) {
	names := []string{}
	for c := range s.st.connections {
		if c.PersonA == personName || c.PersonB == personName {
			names = append(names, c.Other(personName))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s snapshot) ListConnections(ctx context.Context) ([]store.Connection, error) {
	conns := make([]store.Connection, 0, len(s.st.connections))
	for c := range s.st.connections {
		conns = append(conns, c)
	}
	sort.Slice(conns, func(i, j int) bool {
		if conns[i].PersonA != conns[j].PersonA {
			return conns[i].PersonA < conns[j].PersonA
		}
		return conns[i].PersonB < conns[j].PersonB
	})
	return conns, nil
}

func (s snapshot) GetInteraction(ctx context.Context, id int64) (*store.Interaction, error) {
	rec, ok := s.st.interactions[id]
	if !ok {
		return nil, goerr.Wrap(store.ErrNotFound, "interaction not found", goerr.V("id", id))
	}
	out := copyInteraction(rec.interaction)
	return &out, nil
}

func (s snapshot) ListInteractions(ctx context.Context, personName string) ([]store.Interaction, error) {
	items := []store.Interaction{}
	for _, rec := range s.st.interactions {
		if rec.interaction.PersonName == personName {
			items = append(items, copyInteraction(rec.interaction))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.DateSeq != b.DateSeq {
			return a.DateSeq < b.DateSeq
		}
		return a.ID < b.ID
	})
	return items, nil
}

func (s snapshot) ListAllInteractions(ctx context.Context) ([]store.Interaction, error) {
	items := make([]store.Interaction, 0, len(s.st.interactions))
	for _, rec := range s.st.interactions {
		items = append(items, copyInteraction(rec.interaction))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s snapshot) GetTranscript(ctx context.Context, interactionID int64) (*store.Transcript, error) {
	rec, ok := s.st.interactions[interactionID]
	if !ok {
		return nil, goerr.Wrap(store.ErrNotFound, "interaction not found", goerr.V("id", interactionID))
	}
	t := store.Transcript{
		Text:       rec.transcript.Text,
		Utterances: append([]store.Utterance{}, rec.transcript.Utterances...),
	}
	return &t, nil
}

func (s snapshot) SourceHashes(ctx context.Context) (map[string]int64, error) {
	hashes := make(map[string]int64)
	for id, rec := range s.st.interactions {
		if rec.interaction.SourceHash != "" {
			hashes[rec.interaction.SourceHash] = id
		}
	}
	return hashes, nil
}

func (s snapshot) ListFollowups(ctx context.Context, personName string, status store.FollowupStatus) ([]store.Followup, error) {
	items := []store.Followup{}
	for _, f := range s.st.followups {
		if f.PersonName != personName {
			continue
		}
		if status != "" && f.Status != status {
			continue
		}
		items = append(items, f)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s snapshot) ListAllFollowups(ctx context.Context) ([]store.Followup, error) {
	items := make([]store.Followup, 0, len(s.st.followups))
	for _, f := range s.st.followups {
		items = append(items, f)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s snapshot) SearchInteractionText(ctx context.Context, query string) ([]store.InteractionHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(store.ErrValidation, "search query must not be empty")
	}
	hits := s.st.interactionText.Search(query)
	out := make([]store.InteractionHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, store.InteractionHit{InteractionID: h.Key, Score: h.Score, Snippet: h.Snippet})
	}
	return out, nil
}

func (s snapshot) SearchPersonText(ctx context.Context, query string) ([]store.PersonHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(store.ErrValidation, "search query must not be empty")
	}
	hits := s.st.personText.Search(query)
	out := make([]store.PersonHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, store.PersonHit{PersonName: h.Key, Score: h.Score, Snippet: h.Snippet})
	}
	return out, nil
}

func copyInteraction(i store.Interaction) store.Interaction {
	i.Takeaways = append([]string{}, i.Takeaways...)
	i.Tags = append([]store.Tag{}, i.Tags...)
	return i
}
