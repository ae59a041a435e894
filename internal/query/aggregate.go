package query

import (
	"context"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
)

// UnknownSegment groups persons whose segment field is empty.
const UnknownSegment = "unknown"

type TagCount struct {
	Tag   store.Tag `json:"tag"`
	Count int       `json:"count"`
}

// TagCounts is ordered by count descending, then vocabulary order.
type TagCounts []TagCount

func (tc TagCounts) Map() map[store.Tag]int {
	m := make(map[store.Tag]int, len(tc))
	for _, c := range tc {
		m[c.Tag] = c.Count
	}
	return m
}

func (tc TagCounts) Total() int {
	total := 0
	for _, c := range tc {
		total += c.Count
	}
	return total
}

type SegmentBy string

const (
	SegmentByType     SegmentBy = "type"
	SegmentByIndustry SegmentBy = "industry"
	SegmentByCompany  SegmentBy = "company"
)

func ParseSegmentBy(s string) (SegmentBy, error) {
	by := SegmentBy(strings.ToLower(strings.TrimSpace(s)))
	switch by {
	case SegmentByType, SegmentByIndustry, SegmentByCompany:
		return by, nil
	}
	return "", goerr.Wrap(store.ErrValidation, "segment field must be type, industry or company", goerr.V("by", s))
}

func (by SegmentBy) key(p *store.Person) string {
	var v string
	switch by {
	case SegmentByType:
		v = p.Type.String()
	case SegmentByIndustry:
		v = p.CompanyIndustry
	case SegmentByCompany:
		v = p.CurrentCompany
	}
	if v = strings.TrimSpace(v); v == "" {
		return UnknownSegment
	}
	return v
}

type Segment struct {
	Key          string `json:"segment"`
	Members      int    `json:"people"`
	Interactions int    `json:"interactions"`
}

func (e *Engine) AggregateTags(ctx context.Context, f Filter) (TagCounts, error) {
	var counts TagCounts
	err := e.view(ctx, func(r store.Reader) error {
		var err error
		counts, err = AggregateTags(ctx, r, f)
		return err
	})
	return counts, err
}

func (e *Engine) AggregateSegments(ctx context.Context, by SegmentBy, f Filter) ([]Segment, error) {
	var segments []Segment
	err := e.view(ctx, func(r store.Reader) error {
		var err error
		segments, err = AggregateSegments(ctx, r, by, f)
		return err
	})
	return segments, err
}

// AggregateTags counts tag occurrences over the interactions selected by f.
// An interaction contributes once to each of its tags. Tags never seen are
// omitted. Filtering by tag is rejected.
func AggregateTags(ctx context.Context, r store.Reader, f Filter) (TagCounts, error) {
	if len(f.Tags) > 0 {
		return nil, goerr.Wrap(store.ErrValidation, "tag aggregation does not accept a tag filter")
	}
	matched, err := filterInteractions(ctx, r, f)
	if err != nil {
		return nil, err
	}

	byTag := make(map[store.Tag]int)
	for _, in := range matched {
		for _, t := range in.Tags {
			byTag[t]++
		}
	}

	counts := make(TagCounts, 0, len(byTag))
	for t, n := range byTag {
		counts = append(counts, TagCount{Tag: t, Count: n})
	}
	// Equal counts keep the vocabulary order.
	slices.SortFunc(counts, func(a, b TagCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return a.Tag.Rank() - b.Tag.Rank()
	})
	return counts, nil
}

// AggregateSegments groups persons by a field. With tag, date or text
// predicates the persons are those referenced by the filtered interactions,
// and only those interactions are counted. Otherwise the filtered person set
// is grouped with all of its interactions.
func AggregateSegments(ctx context.Context, r store.Reader, by SegmentBy, f Filter) ([]Segment, error) {
	if _, err := ParseSegmentBy(string(by)); err != nil {
		return nil, err
	}

	groups := make(map[string]*Segment)
	group := func(p *store.Person) *Segment {
		key := by.key(p)
		s, ok := groups[key]
		if !ok {
			s = &Segment{Key: key}
			groups[key] = s
		}
		return s
	}

	if f.interactionScoped() {
		matched, err := filterInteractions(ctx, r, f)
		if err != nil {
			return nil, err
		}
		members := make(map[string]struct{})
		for _, in := range matched {
			p, err := r.GetPerson(ctx, in.PersonName)
			if err != nil {
				return nil, err
			}
			s := group(p)
			s.Interactions++
			if _, seen := members[p.Name]; !seen {
				members[p.Name] = struct{}{}
				s.Members++
			}
		}
	} else {
		persons, err := filterPersons(ctx, r, f)
		if err != nil {
			return nil, err
		}
		for i := range persons {
			ids, err := r.InteractionIDs(ctx, persons[i].Name)
			if err != nil {
				return nil, err
			}
			s := group(&persons[i])
			s.Members++
			s.Interactions += len(ids)
		}
	}

	segments := make([]Segment, 0, len(groups))
	for _, s := range groups {
		segments = append(segments, *s)
	}
	slices.SortFunc(segments, func(a, b Segment) int {
		if a.Members != b.Members {
			return b.Members - a.Members
		}
		return strings.Compare(a.Key, b.Key)
	})
	return segments, nil
}
