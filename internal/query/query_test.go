package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/query"
	"rolodex/internal/store"
	"rolodex/internal/store/memory"
	"rolodex/internal/store/storetest"
)

type fixture struct {
	ctx    context.Context
	st     *memory.Memory
	engine *query.Engine
	ids    map[string]int64
}

// newFixture seeds four persons and five interactions:
//
//	Jane Doe   customer  Acme     Logistics  2025-01-15 [pricing], 2025-01-15 [pricing product]
//	Raj Patel  customer  Globex   Fintech    2025-02-01 [gtm market]
//	Vera Lund  investor  Seedfund            2025-03-10 [market]
//	Kim        (unset)                       2024-12-01 [competitors pricing]
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	persons := []struct {
		name   string
		fields store.PersonFields
	}{
		{"Jane Doe", store.PersonFields{CurrentCompany: "Acme", Type: store.PersonTypeCustomer, CompanyIndustry: "Logistics", Background: "Voiced pricing concerns last quarter"}},
		{"Raj Patel", store.PersonFields{CurrentCompany: "Globex", Type: store.PersonTypeCustomer, CompanyIndustry: "Fintech"}},
		{"Vera Lund", store.PersonFields{CurrentCompany: "Seedfund", Type: store.PersonTypeInvestor}},
		{"Kim", store.PersonFields{}},
	}
	for _, p := range persons {
		_, err := st.CreatePerson(ctx, p.name, p.fields)
		require.NoError(t, err)
	}

	ids := make(map[string]int64)
	add := func(key string, in store.InteractionInput) {
		created, err := st.CreateInteraction(ctx, in)
		require.NoError(t, err)
		ids[key] = created.ID
	}
	add("jane1", storetest.Input("Jane Doe", "2025-01-15", "The budget is tight this year", store.TagPricing))
	add("jane2", storetest.Input("Jane Doe", "2025-01-15", "We want usage dashboards", store.TagPricing, store.TagProduct))
	add("raj", storetest.Input("Raj Patel", "2025-02-01", "Channel partners drive our sales", store.TagGTM, store.TagMarket))
	add("vera", storetest.Input("Vera Lund", "2025-03-10", "Timing of the market matters", store.TagMarket))
	add("kim", storetest.Input("Kim", "2024-12-01", "Switching from a rival on price", store.TagCompetitors, store.TagPricing))

	require.NoError(t, st.SetPersonState(ctx, "Raj Patel", store.PersonState{StateOfPlay: "Expanding rollout", LastDelta: "Signed"}))

	return &fixture{ctx: ctx, st: st, engine: query.New(st), ids: ids}
}

func (fx *fixture) filter(t *testing.T, raw query.RawFilter) query.Filter {
	t.Helper()
	f, err := query.ParseFilter(raw)
	require.NoError(t, err)
	return f
}

func rowIDs(rows []query.InteractionRow) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func personNames(rows []query.PersonRow) []string {
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, r.Name)
	}
	return names
}

func TestParseFilter(t *testing.T) {
	f, err := query.ParseFilter(query.RawFilter{
		Tags:       []string{"Pricing", "product,gtm", ""},
		PersonType: "customer",
		Company:    " acme ",
		DateFrom:   "2025-01-01",
		DateTo:     "2025-01-31",
	})
	require.NoError(t, err)
	assert.Equal(t, []store.Tag{store.TagPricing, store.TagProduct, store.TagGTM}, f.Tags)
	assert.Equal(t, store.PersonTypeCustomer, f.PersonType)
	assert.Equal(t, "acme", f.Company)
	assert.Equal(t, "2025-01-31", store.FormatDate(f.DateTo))

	invalid := []query.RawFilter{
		{Tags: []string{"roadmap"}},
		{PersonType: "partner"},
		{DateFrom: "2025-13-01"},
		{DateTo: "yesterday"},
		{DateFrom: "2025-02-01", DateTo: "2025-01-01"},
	}
	for _, raw := range invalid {
		_, err := query.ParseFilter(raw)
		assert.ErrorIs(t, err, store.ErrValidation, "%+v", raw)
	}
}

func TestSearchInteractions(t *testing.T) {
	fx := newFixture(t)

	t.Run("empty filter returns everything newest first", func(t *testing.T) {
		rows, err := fx.engine.SearchInteractions(fx.ctx, query.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []int64{fx.ids["vera"], fx.ids["raj"], fx.ids["jane1"], fx.ids["jane2"], fx.ids["kim"]}, rowIDs(rows))
	})

	t.Run("rows carry slugs", func(t *testing.T) {
		rows, err := fx.engine.SearchInteractions(fx.ctx, fx.filter(t, query.RawFilter{Person: "jane"}))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "2025-01-15", rows[0].Slug)
		assert.Equal(t, "2025-01-15_2", rows[1].Slug)
		assert.Equal(t, []string{"First takeaway", "Second takeaway", "Third takeaway"}, rows[0].Takeaways)
	})

	tests := []struct {
		name string
		raw  query.RawFilter
		want []string
	}{
		{"tag any overlap", query.RawFilter{Tags: []string{"product", "gtm"}}, []string{"raj", "jane2"}},
		{"type", query.RawFilter{PersonType: "investor"}, []string{"vera"}},
		{"company substring", query.RawFilter{Company: "GLOB"}, []string{"raj"}},
		{"industry substring", query.RawFilter{Industry: "logist"}, []string{"jane1", "jane2"}},
		{"date range inclusive", query.RawFilter{DateFrom: "2025-01-15", DateTo: "2025-02-01"}, []string{"raj", "jane1", "jane2"}},
		{"open ended from", query.RawFilter{DateFrom: "2025-02-02"}, []string{"vera"}},
		{"text", query.RawFilter{Text: "dashboards"}, []string{"jane2"}},
		{"text prefix", query.RawFilter{Text: "switch riv"}, []string{"kim"}},
		{"text and tag", query.RawFilter{Text: "takeaway", Tags: []string{"competitors"}}, []string{"kim"}},
		{"no match", query.RawFilter{Company: "acme", Tags: []string{"market"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := fx.engine.SearchInteractions(fx.ctx, fx.filter(t, tt.raw))
			require.NoError(t, err)
			want := make([]int64, 0, len(tt.want))
			for _, key := range tt.want {
				want = append(want, fx.ids[key])
			}
			assert.Equal(t, want, rowIDs(rows))
		})
	}

	t.Run("invalid filter is rejected", func(t *testing.T) {
		_, err := fx.engine.SearchInteractions(fx.ctx, query.Filter{Tags: []store.Tag{"nope"}})
		assert.ErrorIs(t, err, store.ErrValidation)
	})
}

func TestSearchPersons(t *testing.T) {
	fx := newFixture(t)

	all, err := fx.engine.SearchPersons(fx.ctx, query.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe", "Kim", "Raj Patel", "Vera Lund"}, personNames(all))
	assert.Equal(t, []int64{fx.ids["jane1"], fx.ids["jane2"]}, all[0].InteractionIDs)

	t.Run("background text matches without state of play", func(t *testing.T) {
		rows, err := fx.engine.SearchPersons(fx.ctx, fx.filter(t, query.RawFilter{Text: "pricing"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Jane Doe"}, personNames(rows))
	})

	t.Run("state of play text", func(t *testing.T) {
		rows, err := fx.engine.SearchPersons(fx.ctx, fx.filter(t, query.RawFilter{Text: "rollout"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Raj Patel"}, personNames(rows))
	})

	t.Run("dates and tags are ignored", func(t *testing.T) {
		rows, err := fx.engine.SearchPersons(fx.ctx, fx.filter(t, query.RawFilter{
			PersonType: "customer", Tags: []string{"market"}, DateFrom: "2030-01-01",
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"Jane Doe", "Raj Patel"}, personNames(rows))
	})

	t.Run("connections are derived", func(t *testing.T) {
		_, err := fx.st.Connect(fx.ctx, "Vera Lund", "Jane Doe")
		require.NoError(t, err)
		rows, err := fx.engine.SearchPersons(fx.ctx, fx.filter(t, query.RawFilter{Person: "vera"}))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, []string{"Jane Doe"}, rows[0].Connections)
	})
}

func TestAggregateTags(t *testing.T) {
	fx := newFixture(t)

	counts, err := fx.engine.AggregateTags(fx.ctx, query.Filter{})
	require.NoError(t, err)
	assert.Equal(t, query.TagCounts{
		{Tag: store.TagPricing, Count: 3},
		{Tag: store.TagMarket, Count: 2},
		{Tag: store.TagProduct, Count: 1},
		{Tag: store.TagGTM, Count: 1},
		{Tag: store.TagCompetitors, Count: 1},
	}, counts)

	scoped, err := fx.engine.AggregateTags(fx.ctx, fx.filter(t, query.RawFilter{PersonType: "customer"}))
	require.NoError(t, err)
	assert.Equal(t, map[store.Tag]int{
		store.TagPricing: 2, store.TagProduct: 1, store.TagGTM: 1, store.TagMarket: 1,
	}, scoped.Map())

	_, err = fx.engine.AggregateTags(fx.ctx, query.Filter{Tags: []store.Tag{store.TagPricing}})
	assert.ErrorIs(t, err, store.ErrValidation)

	empty, err := fx.engine.AggregateTags(fx.ctx, fx.filter(t, query.RawFilter{DateFrom: "2030-01-01"}))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAggregateTagsMatchesTagSearch(t *testing.T) {
	fx := newFixture(t)
	filters := []query.RawFilter{
		{},
		{PersonType: "customer"},
		{DateFrom: "2025-01-01"},
		{Text: "takeaway"},
		{Industry: "tech"},
	}
	for _, raw := range filters {
		f := fx.filter(t, raw)
		counts, err := fx.engine.AggregateTags(fx.ctx, f)
		require.NoError(t, err)

		rows, err := fx.engine.SearchInteractions(fx.ctx, f)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, counts.Total(), len(rows), "%+v", raw)

		byTag := counts.Map()
		for _, tag := range store.AllTags() {
			tagged := f
			tagged.Tags = []store.Tag{tag}
			rows, err := fx.engine.SearchInteractions(fx.ctx, tagged)
			require.NoError(t, err)
			assert.Equal(t, len(rows), byTag[tag], "%+v tag=%s", raw, tag)
		}
	}
}

func TestAggregateSegments(t *testing.T) {
	fx := newFixture(t)

	t.Run("by type over persons", func(t *testing.T) {
		segments, err := fx.engine.AggregateSegments(fx.ctx, query.SegmentByType, query.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []query.Segment{
			{Key: "customer", Members: 2, Interactions: 3},
			{Key: "investor", Members: 1, Interactions: 1},
			{Key: "unknown", Members: 1, Interactions: 1},
		}, segments)
	})

	t.Run("by industry groups empty values as unknown", func(t *testing.T) {
		segments, err := fx.engine.AggregateSegments(fx.ctx, query.SegmentByIndustry, query.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []query.Segment{
			{Key: "unknown", Members: 2, Interactions: 2},
			{Key: "Fintech", Members: 1, Interactions: 1},
			{Key: "Logistics", Members: 1, Interactions: 2},
		}, segments)
	})

	t.Run("tag filter scopes to interactions", func(t *testing.T) {
		f := fx.filter(t, query.RawFilter{Tags: []string{"pricing"}})
		segments, err := fx.engine.AggregateSegments(fx.ctx, query.SegmentByCompany, f)
		require.NoError(t, err)
		assert.Equal(t, []query.Segment{
			{Key: "Acme", Members: 1, Interactions: 2},
			{Key: "unknown", Members: 1, Interactions: 1},
		}, segments)
	})

	t.Run("date filter scopes to interactions", func(t *testing.T) {
		f := fx.filter(t, query.RawFilter{DateFrom: "2025-02-01", PersonType: "customer"})
		segments, err := fx.engine.AggregateSegments(fx.ctx, query.SegmentByType, f)
		require.NoError(t, err)
		assert.Equal(t, []query.Segment{{Key: "customer", Members: 1, Interactions: 1}}, segments)
	})

	t.Run("text matches interactions with or without other bounds", func(t *testing.T) {
		want := []query.Segment{{Key: "customer", Members: 1, Interactions: 1}}

		segments, err := fx.engine.AggregateSegments(fx.ctx, query.SegmentByType, fx.filter(t, query.RawFilter{Text: "budget"}))
		require.NoError(t, err)
		assert.Equal(t, want, segments)

		bounded := fx.filter(t, query.RawFilter{Text: "budget", DateFrom: "2000-01-01"})
		segments, err = fx.engine.AggregateSegments(fx.ctx, query.SegmentByType, bounded)
		require.NoError(t, err)
		assert.Equal(t, want, segments)
	})

	t.Run("unknown field is rejected", func(t *testing.T) {
		_, err := query.ParseSegmentBy("region")
		assert.ErrorIs(t, err, store.ErrValidation)
		_, err = fx.engine.AggregateSegments(fx.ctx, "region", query.Filter{})
		assert.ErrorIs(t, err, store.ErrValidation)
	})
}

func TestSearchText(t *testing.T) {
	fx := newFixture(t)

	matches, err := fx.engine.SearchText(fx.ctx, "budget")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, fx.ids["jane1"], m.ID)
	assert.Equal(t, []string{"Jane Doe: The budget is tight this year"}, m.Quotes)
	assert.Empty(t, m.Takeaways)
	assert.Contains(t, m.Snippet, "**budget**")

	takeaways, err := fx.engine.SearchText(fx.ctx, "second")
	require.NoError(t, err)
	assert.Len(t, takeaways, 5)
	for _, m := range takeaways {
		assert.Equal(t, []string{"Second takeaway"}, m.Takeaways)
	}

	_, err = fx.engine.SearchText(fx.ctx, "  ")
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestScenarioJaneDoe(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	engine := query.New(st)

	_, err := st.CreatePerson(ctx, "Jane Doe", store.PersonFields{Type: store.PersonTypeCustomer})
	require.NoError(t, err)
	_, err = st.CreateInteraction(ctx, storetest.Input("Jane Doe", "2025-01-15", "first", store.TagPricing))
	require.NoError(t, err)
	second, err := st.CreateInteraction(ctx, storetest.Input("Jane Doe", "2025-01-15", "second", store.TagPricing, store.TagProduct))
	require.NoError(t, err)

	counts, err := engine.AggregateTags(ctx, query.Filter{})
	require.NoError(t, err)
	assert.Equal(t, map[store.Tag]int{store.TagPricing: 2, store.TagProduct: 1}, counts.Map())

	rows, err := engine.SearchInteractions(ctx, query.Filter{Tags: []store.Tag{store.TagProduct}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].ID)
	assert.Equal(t, "2025-01-15_2", rows[0].Slug)
}

func TestDeletedPersonDisappears(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.st.CreateFollowups(fx.ctx, "Jane Doe", fx.ids["jane1"], []string{"Send quote"})
	require.NoError(t, err)

	_, err = fx.st.DeletePerson(fx.ctx, "Jane Doe")
	require.NoError(t, err)

	rows, err := fx.engine.SearchInteractions(fx.ctx, fx.filter(t, query.RawFilter{Person: "Jane Doe"}))
	require.NoError(t, err)
	assert.Empty(t, rows)

	followups, err := fx.engine.Followups(fx.ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, followups)

	_, err = fx.engine.Person(fx.ctx, "Jane Doe")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDetailViews(t *testing.T) {
	fx := newFixture(t)

	person, err := fx.engine.Person(fx.ctx, "Raj Patel")
	require.NoError(t, err)
	assert.Equal(t, "Expanding rollout", person.StateOfPlay)
	assert.Equal(t, []int64{fx.ids["raj"]}, person.InteractionIDs)
	assert.Empty(t, person.Connections)

	list, err := fx.engine.Interactions(fx.ctx, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, []int64{fx.ids["jane1"], fx.ids["jane2"]}, rowIDs(list))

	_, err = fx.engine.Interactions(fx.ctx, "Nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	detail, err := fx.engine.Interaction(fx.ctx, fx.ids["vera"])
	require.NoError(t, err)
	assert.Equal(t, "Timing of the market matters", detail.Transcript.Text)
	assert.Len(t, detail.Transcript.Utterances, 2)

	bySlug, err := fx.engine.InteractionBySlug(fx.ctx, "Jane Doe", "2025-01-15_2")
	require.NoError(t, err)
	assert.Equal(t, fx.ids["jane2"], bySlug.ID)

	_, err = fx.engine.InteractionBySlug(fx.ctx, "Jane Doe", "2025-01-16")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = fx.engine.Interaction(fx.ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFollowupsAndStats(t *testing.T) {
	fx := newFixture(t)
	created, err := fx.st.CreateFollowups(fx.ctx, "Jane Doe", fx.ids["jane2"], []string{"Send pricing sheet", "Book demo"})
	require.NoError(t, err)
	_, err = fx.st.CreateFollowups(fx.ctx, "Kim", fx.ids["kim"], []string{"Compare rival"})
	require.NoError(t, err)
	_, err = fx.st.CompleteFollowup(fx.ctx, created[0].ID)
	require.NoError(t, err)
	_, err = fx.st.Connect(fx.ctx, "Kim", "Raj Patel")
	require.NoError(t, err)

	open, err := fx.engine.Followups(fx.ctx, "Jane Doe", store.FollowupStatusOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Book demo", open[0].Item)
	assert.Equal(t, "2025-01-15_2", open[0].DateSlug)

	allOpen, err := fx.engine.Followups(fx.ctx, "", store.FollowupStatusOpen)
	require.NoError(t, err)
	assert.Len(t, allOpen, 2)

	_, err = fx.engine.Followups(fx.ctx, "Nobody", "")
	assert.ErrorIs(t, err, store.ErrNotFound)

	stats, err := fx.engine.Stats(fx.ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Persons)
	assert.Equal(t, 5, stats.Interactions)
	assert.Equal(t, 1, stats.Connections)
	assert.Equal(t, 3, stats.Followups)
	assert.Equal(t, 2, stats.OpenFollowups)
	assert.Equal(t, map[store.PersonType]int{"customer": 2, "investor": 1, "unknown": 1}, stats.ByType)
	assert.Equal(t, 3, stats.ByTag[store.TagPricing])
}
