package memory

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
)

func (m *Memory) CreateInteraction(ctx context.Context, in store.InteractionInput) (*store.Interaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	st, unlock, err := m.write(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, ok := st.persons[in.PersonName]
	if !ok {
		return nil, goerr.Wrap(store.ErrNotFound, "person not found", goerr.V("name", in.PersonName))
	}

	date := store.DateOf(in.Date)
	seq := 1
	for _, rec := range st.interactions {
		i := rec.interaction
		if i.PersonName == in.PersonName && i.Date.Equal(date) && i.DateSeq >= seq {
			seq = i.DateSeq + 1
		}
	}

	created := store.Interaction{
		ID:         st.nextInteractionID,
		PersonName: in.PersonName,
		Date:       date,
		DateSeq:    seq,
		Takeaways:  append([]string{}, in.Takeaways...),
		Tags:       append([]store.Tag{}, in.Tags...),
		SourceHash: in.SourceHash,
	}
	st.nextInteractionID++

	transcript := store.Transcript{
		Text:       in.Transcript.Text,
		Utterances: append([]store.Utterance{}, in.Transcript.Utterances...),
	}
	st.interactions[created.ID] = interactionRecord{interaction: created, transcript: transcript}
	st.interactionText.Put(created.ID, transcript.FullText(), store.TakeawaysText(created.Takeaways))

	if in.State != nil {
		p.StateOfPlay = in.State.StateOfPlay
		p.LastDelta = in.State.LastDelta
	}
	if in.Background != "" && strings.TrimSpace(p.Background) == "" {
		p.Background = in.Background
	}
	if in.State != nil || in.Background != "" {
		st.putPerson(p)
	}
	st.addFollowups(in.PersonName, created.ID, created.Slug(), in.Followups)

	out := copyInteraction(created)
	return &out, nil
}

func (m *Memory) DeleteInteraction(ctx context.Context, id int64) (*store.DeleteResult, error) {
	st, unlock, err := m.write(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, ok := st.interactions[id]; !ok {
		return nil, goerr.Wrap(store.ErrNotFound, "interaction not found", goerr.V("id", id))
	}

	result := &store.DeleteResult{Interactions: 1}
	for fid, f := range st.followups {
		if f.InteractionID == id {
			delete(st.followups, fid)
			result.Followups++
		}
	}
	delete(st.interactions, id)
	st.interactionText.Delete(id)
	return result, nil
}
