// Package query filters and aggregates interactions and persons. Every
// Engine call reads one consistent snapshot of the store.
package query

import (
	"context"
	"slices"
	"strings"

	"rolodex/internal/store"
)

// Viewer opens a consistent snapshot. store.Store satisfies it.
type Viewer interface {
	View(ctx context.Context, fn func(r store.Reader) error) error
}

type Engine struct {
	st Viewer
}

func New(st Viewer) *Engine {
	return &Engine{st: st}
}

// InteractionRow is the list view of an interaction. It never carries the
// transcript.
type InteractionRow struct {
	ID         int64       `json:"id"`
	PersonName string      `json:"person"`
	Date       string      `json:"date"`
	Slug       string      `json:"slug"`
	Tags       []store.Tag `json:"tags"`
	Takeaways  []string    `json:"takeaways"`
}

func newInteractionRow(i *store.Interaction) InteractionRow {
	return InteractionRow{
		ID:         i.ID,
		PersonName: i.PersonName,
		Date:       store.FormatDate(i.Date),
		Slug:       i.Slug(),
		Tags:       i.Tags,
		Takeaways:  i.Takeaways,
	}
}

// PersonRow is a person with its derived relations.
type PersonRow struct {
	store.Person
	InteractionIDs []int64  `json:"interaction_ids"`
	Connections    []string `json:"connections"`
}

func (e *Engine) view(ctx context.Context, fn func(r store.Reader) error) error {
	return e.st.View(ctx, fn)
}

func (e *Engine) SearchInteractions(ctx context.Context, f Filter) ([]InteractionRow, error) {
	var rows []InteractionRow
	err := e.view(ctx, func(r store.Reader) error {
		var err error
		rows, err = SearchInteractions(ctx, r, f)
		return err
	})
	return rows, err
}

func (e *Engine) SearchPersons(ctx context.Context, f Filter) ([]PersonRow, error) {
	var rows []PersonRow
	err := e.view(ctx, func(r store.Reader) error {
		var err error
		rows, err = SearchPersons(ctx, r, f)
		return err
	})
	return rows, err
}

// SearchInteractions returns the interactions matching every predicate in f,
// newest first with ties by id.
func SearchInteractions(ctx context.Context, r store.Reader, f Filter) ([]InteractionRow, error) {
	matched, err := filterInteractions(ctx, r, f)
	if err != nil {
		return nil, err
	}
	rows := make([]InteractionRow, 0, len(matched))
	for i := range matched {
		rows = append(rows, newInteractionRow(&matched[i]))
	}
	return rows, nil
}

func filterInteractions(ctx context.Context, r store.Reader, f Filter) ([]store.Interaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	persons, err := r.ListPersons(ctx)
	if err != nil {
		return nil, err
	}
	owners := make(map[string]*store.Person, len(persons))
	for i := range persons {
		owners[persons[i].Name] = &persons[i]
	}

	var textHits map[int64]struct{}
	if f.Text != "" {
		hits, err := r.SearchInteractionText(ctx, f.Text)
		if err != nil {
			return nil, err
		}
		textHits = make(map[int64]struct{}, len(hits))
		for _, h := range hits {
			textHits[h.InteractionID] = struct{}{}
		}
	}

	all, err := r.ListAllInteractions(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]store.Interaction, 0, len(all))
	for i := range all {
		in := &all[i]
		owner, ok := owners[in.PersonName]
		if !ok || !f.matchPerson(owner) || !f.matchInteraction(in) {
			continue
		}
		if textHits != nil {
			if _, ok := textHits[in.ID]; !ok {
				continue
			}
		}
		matched = append(matched, *in)
	}

	slices.SortFunc(matched, func(a, b store.Interaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return matched, nil
}

// SearchPersons applies the person predicates of f, ignoring tags and dates.
// Text matches against state of play and background. Rows are ordered by name.
func SearchPersons(ctx context.Context, r store.Reader, f Filter) ([]PersonRow, error) {
	matched, err := filterPersons(ctx, r, f)
	if err != nil {
		return nil, err
	}
	rows := make([]PersonRow, 0, len(matched))
	for i := range matched {
		row, err := personRow(ctx, r, &matched[i])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func filterPersons(ctx context.Context, r store.Reader, f Filter) ([]store.Person, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var textHits map[string]struct{}
	if f.Text != "" {
		hits, err := r.SearchPersonText(ctx, f.Text)
		if err != nil {
			return nil, err
		}
		textHits = make(map[string]struct{}, len(hits))
		for _, h := range hits {
			textHits[h.PersonName] = struct{}{}
		}
	}

	persons, err := r.ListPersons(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]store.Person, 0, len(persons))
	for i := range persons {
		if !f.matchPerson(&persons[i]) {
			continue
		}
		if textHits != nil {
			if _, ok := textHits[persons[i].Name]; !ok {
				continue
			}
		}
		matched = append(matched, persons[i])
	}
	slices.SortFunc(matched, func(a, b store.Person) int { return strings.Compare(a.Name, b.Name) })
	return matched, nil
}

func personRow(ctx context.Context, r store.Reader, p *store.Person) (PersonRow, error) {
	ids, err := r.InteractionIDs(ctx, p.Name)
	if err != nil {
		return PersonRow{}, err
	}
	conns, err := r.Connections(ctx, p.Name)
	if err != nil {
		return PersonRow{}, err
	}
	return PersonRow{Person: *p, InteractionIDs: ids, Connections: conns}, nil
}
