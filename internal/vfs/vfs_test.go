package vfs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/store"
	"rolodex/internal/store/memory"
	"rolodex/internal/store/storetest"
	"rolodex/internal/vfs"
)

func names(entries []vfs.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func seed(t *testing.T) (context.Context, *memory.Memory, []*store.Interaction) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()

	_, err := st.CreatePerson(ctx, "Jane Doe", store.PersonFields{
		CurrentCompany: "Acme",
		Type:           store.PersonTypeCustomer,
		Background:     "Has pricing concerns",
	})
	require.NoError(t, err)
	_, err = st.CreatePerson(ctx, "Bob", store.PersonFields{Type: store.PersonTypeInvestor})
	require.NoError(t, err)

	first, err := st.CreateInteraction(ctx, storetest.Input("Jane Doe", "2025-01-15", "Budget is tight", store.TagPricing))
	require.NoError(t, err)
	second, err := st.CreateInteraction(ctx, storetest.Input("Jane Doe", "2025-01-15", "Want dashboards", store.TagPricing, store.TagProduct))
	require.NoError(t, err)
	return ctx, st, []*store.Interaction{first, second}
}

func TestResolveScenario(t *testing.T) {
	ctx, st, created := seed(t)
	fs := vfs.New(st)

	root, err := fs.List(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob", "Jane_Doe"}, names(root))

	person, err := fs.List(ctx, "/Jane_Doe/")
	require.NoError(t, err)
	assert.Equal(t, []vfs.Entry{
		{Name: "info"}, {Name: "background"}, {Name: "state"}, {Name: "delta"},
		{Name: "connections"}, {Name: "followups"}, {Name: "interactions", IsDir: true},
	}, person)

	interactions, err := fs.List(ctx, "/Jane_Doe/interactions/")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-15", "2025-01-15_2"}, names(interactions))

	tags, err := fs.Read(ctx, "/Jane_Doe/interactions/2025-01-15_2/tags")
	require.NoError(t, err)
	assert.Equal(t, "pricing\nproduct", tags)

	_, followErr := st.CreateFollowups(ctx, "Jane Doe", created[1].ID, []string{"Send pricing sheet"})
	require.NoError(t, followErr)
	followups, err := fs.Read(ctx, "/Jane_Doe/followups")
	require.NoError(t, err)
	assert.Contains(t, followups, "2025-01-15_2: Send pricing sheet")
}

func TestResolvePersonFiles(t *testing.T) {
	ctx, st, _ := seed(t)
	require.NoError(t, st.SetPersonState(ctx, "Jane Doe", store.PersonState{StateOfPlay: "Evaluating", LastDelta: "Asked for a quote"}))
	_, err := st.Connect(ctx, "Jane Doe", "Bob")
	require.NoError(t, err)

	tests := []struct {
		path string
		want string
	}{
		{"/Jane_Doe/background", "Has pricing concerns"},
		{"/Jane_Doe/state", "Evaluating"},
		{"/Jane_Doe/delta", "Asked for a quote"},
		{"/Jane_Doe/connections", "Bob"},
		{"/Bob/background", "(no background)"},
		{"/Bob/state", "(no state of play)"},
		{"/Bob/delta", "(no delta)"},
		{"/Bob/followups", "(no open followups)"},
		{"/Jane_Doe/interactions/2025-01-15/takeaways", "- First takeaway\n- Second takeaway\n- Third takeaway"},
		{"/Jane_Doe/interactions/2025-01-15/transcript", "Interviewer: How is it going?\nJane Doe: Budget is tight"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := vfs.New(st).Read(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	info, err := vfs.New(st).Read(ctx, "/Jane_Doe/info")
	require.NoError(t, err)
	assert.Contains(t, info, "Name:         Jane Doe")
	assert.Contains(t, info, "Type:         customer")
	assert.Contains(t, info, "Interactions: 2")
	assert.Contains(t, info, "Connections:  1")
}

func TestResolveNotFound(t *testing.T) {
	ctx, st, _ := seed(t)
	fs := vfs.New(st)

	paths := []string{
		"/Nobody",
		"/Jane Doe",
		"/jane_doe",
		"/Jane_Doe/nope",
		"/Jane_Doe/info/extra",
		"/Jane_Doe/interactions/2025-01-16",
		"/Jane_Doe/interactions/2025-01-15_3",
		"/Jane_Doe/interactions/2025-01-15_1",
		"/Jane_Doe/interactions/2025-01-15_x",
		"/Jane_Doe/interactions/ 2025-01-15",
		"/Jane_Doe/interactions/not-a-date",
		"/Jane_Doe/interactions/2025-01-15/nope",
		"/Jane_Doe/interactions/2025-01-15/tags/extra",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			_, err := fs.Resolve(ctx, p)
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}

	_, err := fs.Read(ctx, "/Jane_Doe")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = fs.List(ctx, "/Jane_Doe/info")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolveIgnoresEmptySegments(t *testing.T) {
	ctx, st, _ := seed(t)
	node, err := vfs.New(st).Resolve(ctx, "//Jane_Doe///interactions//")
	require.NoError(t, err)
	assert.Equal(t, vfs.KindInteractions, node.Kind)
	assert.Equal(t, "/Jane_Doe/interactions", node.Path)
}

func TestSlugsStableAfterDelete(t *testing.T) {
	ctx, st, _ := seed(t)
	_, err := st.CreateInteraction(ctx, storetest.Input("Jane Doe", "2025-01-15", "Third call"))
	require.NoError(t, err)

	fs := vfs.New(st)
	before, err := fs.Read(ctx, "/Jane_Doe/interactions/2025-01-15_3/transcript")
	require.NoError(t, err)

	node, err := fs.Resolve(ctx, "/Jane_Doe/interactions/2025-01-15_2")
	require.NoError(t, err)
	require.Equal(t, vfs.KindInteraction, node.Kind)

	all, err := st.ListInteractions(ctx, "Jane Doe")
	require.NoError(t, err)
	_, err = st.DeleteInteraction(ctx, all[1].ID)
	require.NoError(t, err)

	entries, err := fs.List(ctx, "/Jane_Doe/interactions")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-15", "2025-01-15_3"}, names(entries))

	after, err := fs.Read(ctx, "/Jane_Doe/interactions/2025-01-15_3/transcript")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTree(t *testing.T) {
	ctx, st, _ := seed(t)
	fs := vfs.New(st)

	out, err := fs.Tree(ctx, "/Bob", 0)
	require.NoError(t, err)
	assert.Equal(t, "Bob/\n"+
		"├── info\n"+
		"├── background\n"+
		"├── state\n"+
		"├── delta\n"+
		"├── connections\n"+
		"├── followups\n"+
		"└── interactions/", out)

	shallow, err := fs.Tree(ctx, "/", 1)
	require.NoError(t, err)
	assert.Equal(t, ".\n├── Bob/\n└── Jane_Doe/", shallow)

	deep, err := fs.Tree(ctx, "/Jane_Doe/interactions", 2)
	require.NoError(t, err)
	assert.Contains(t, deep, "├── 2025-01-15/\n│   ├── transcript")
	assert.Contains(t, deep, "└── 2025-01-15_2/\n    ├── transcript")
}

func TestJoin(t *testing.T) {
	tests := []struct {
		cwd, rel, want string
	}{
		{"/", "Jane_Doe", "/Jane_Doe"},
		{"/Jane_Doe", "interactions/", "/Jane_Doe/interactions"},
		{"/Jane_Doe/interactions", "..", "/Jane_Doe"},
		{"/Jane_Doe", "../../..", "/"},
		{"/Jane_Doe", "./info", "/Jane_Doe/info"},
		{"/Jane_Doe", "/Bob", "/Bob"},
		{"/", "", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, vfs.Join(tt.cwd, tt.rel), "%s + %s", tt.cwd, tt.rel)
	}
}

func TestEveryPersonListsFixedChildren(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	for _, name := range []string{"Ann", "Mary Jane Watson", "O'Neil", "Zed  Z"} {
		_, err := st.CreatePerson(ctx, name, store.PersonFields{})
		require.NoError(t, err)
	}

	want := []string{"info", "background", "state", "delta", "connections", "followups", "interactions"}
	persons, err := st.ListPersons(ctx)
	require.NoError(t, err)
	for _, p := range persons {
		entries, err := vfs.New(st).List(ctx, "/"+p.Slug())
		require.NoError(t, err, p.Name)
		assert.Equal(t, want, names(entries), p.Name)
	}
}
