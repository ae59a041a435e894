package query

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
	"rolodex/internal/textindex"
)

// MaxQuotes bounds the transcript quotes attached to a text match.
const MaxQuotes = 3

// TextMatch is an interaction hit with the passages that matched.
type TextMatch struct {
	InteractionRow
	Score     float64  `json:"score"`
	Snippet   string   `json:"snippet"`
	Takeaways []string `json:"matching_takeaways"`
	Quotes    []string `json:"transcript_quotes"`
}

// InteractionDetail is an interaction with its transcript.
type InteractionDetail struct {
	InteractionRow
	Transcript store.Transcript `json:"transcript"`
}

type Stats struct {
	Persons       int                      `json:"persons"`
	Interactions  int                      `json:"interactions"`
	Connections   int                      `json:"connections"`
	Followups     int                      `json:"followups"`
	OpenFollowups int                      `json:"open_followups"`
	ByType        map[store.PersonType]int `json:"by_type"`
	ByTag         map[store.Tag]int        `json:"by_tag"`
}

func (e *Engine) SearchText(ctx context.Context, q string) ([]TextMatch, error) {
	var matches []TextMatch
	err := e.view(ctx, func(r store.Reader) error {
		var err error
		matches, err = SearchText(ctx, r, q)
		return err
	})
	return matches, err
}

// SearchText ranks interactions against q and pulls out the takeaways and
// utterances that mention any query token.
func SearchText(ctx context.Context, r store.Reader, q string) ([]TextMatch, error) {
	hits, err := r.SearchInteractionText(ctx, q)
	if err != nil {
		return nil, err
	}
	tokens := textindex.QueryTokens(q)

	matches := make([]TextMatch, 0, len(hits))
	for _, h := range hits {
		in, err := r.GetInteraction(ctx, h.InteractionID)
		if err != nil {
			return nil, err
		}
		t, err := r.GetTranscript(ctx, h.InteractionID)
		if err != nil {
			return nil, err
		}

		m := TextMatch{
			InteractionRow: newInteractionRow(in),
			Score:          h.Score,
			Snippet:        h.Snippet,
			Takeaways:      []string{},
			Quotes:         []string{},
		}
		for _, takeaway := range in.Takeaways {
			if textindex.MatchesAny(tokens, takeaway) {
				m.Takeaways = append(m.Takeaways, takeaway)
			}
		}
		for _, u := range t.Utterances {
			if len(m.Quotes) == MaxQuotes {
				break
			}
			if textindex.MatchesAny(tokens, u.Text) {
				m.Quotes = append(m.Quotes, u.Speaker+": "+u.Text)
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (e *Engine) Person(ctx context.Context, name string) (*PersonRow, error) {
	var row PersonRow
	err := e.view(ctx, func(r store.Reader) error {
		p, err := r.GetPerson(ctx, name)
		if err != nil {
			return err
		}
		row, err = personRow(ctx, r, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Interactions lists one person's interactions in slug order.
func (e *Engine) Interactions(ctx context.Context, personName string) ([]InteractionRow, error) {
	var rows []InteractionRow
	err := e.view(ctx, func(r store.Reader) error {
		if _, err := r.GetPerson(ctx, personName); err != nil {
			return err
		}
		list, err := r.ListInteractions(ctx, personName)
		if err != nil {
			return err
		}
		rows = make([]InteractionRow, 0, len(list))
		for i := range list {
			rows = append(rows, newInteractionRow(&list[i]))
		}
		return nil
	})
	return rows, err
}

func (e *Engine) Interaction(ctx context.Context, id int64) (*InteractionDetail, error) {
	var detail InteractionDetail
	err := e.view(ctx, func(r store.Reader) error {
		in, err := r.GetInteraction(ctx, id)
		if err != nil {
			return err
		}
		t, err := r.GetTranscript(ctx, id)
		if err != nil {
			return err
		}
		detail = InteractionDetail{InteractionRow: newInteractionRow(in), Transcript: *t}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// InteractionBySlug finds an interaction of personName by its path slug.
func (e *Engine) InteractionBySlug(ctx context.Context, personName, slug string) (*InteractionDetail, error) {
	var id int64
	err := e.view(ctx, func(r store.Reader) error {
		list, err := r.ListInteractions(ctx, personName)
		if err != nil {
			return err
		}
		for _, in := range list {
			if in.Slug() == slug {
				id = in.ID
				return nil
			}
		}
		return goerr.Wrap(store.ErrNotFound, "interaction not found", goerr.V("name", personName), goerr.V("slug", slug))
	})
	if err != nil {
		return nil, err
	}
	return e.Interaction(ctx, id)
}

// Followups lists followups of a person, or of everyone when personName is
// empty. An empty status returns every status.
func (e *Engine) Followups(ctx context.Context, personName string, status store.FollowupStatus) ([]store.Followup, error) {
	var items []store.Followup
	err := e.view(ctx, func(r store.Reader) error {
		if personName != "" {
			if _, err := r.GetPerson(ctx, personName); err != nil {
				return err
			}
			var err error
			items, err = r.ListFollowups(ctx, personName, status)
			return err
		}
		all, err := r.ListAllFollowups(ctx)
		if err != nil {
			return err
		}
		items = make([]store.Followup, 0, len(all))
		for _, f := range all {
			if status == "" || f.Status == status {
				items = append(items, f)
			}
		}
		return nil
	})
	return items, err
}

func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{
		ByType: make(map[store.PersonType]int),
		ByTag:  make(map[store.Tag]int),
	}
	err := e.view(ctx, func(r store.Reader) error {
		persons, err := r.ListPersons(ctx)
		if err != nil {
			return err
		}
		s.Persons = len(persons)
		for _, p := range persons {
			key := p.Type
			if key == store.PersonTypeUnset {
				key = store.PersonType(UnknownSegment)
			}
			s.ByType[key]++
		}

		interactions, err := r.ListAllInteractions(ctx)
		if err != nil {
			return err
		}
		s.Interactions = len(interactions)
		for _, in := range interactions {
			for _, t := range in.Tags {
				s.ByTag[t]++
			}
		}

		conns, err := r.ListConnections(ctx)
		if err != nil {
			return err
		}
		s.Connections = len(conns)

		followups, err := r.ListAllFollowups(ctx)
		if err != nil {
			return err
		}
		s.Followups = len(followups)
		for _, f := range followups {
			if f.Status == store.FollowupStatusOpen {
				s.OpenFollowups++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
