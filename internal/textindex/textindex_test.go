package textindex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/textindex"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"we", "re", "pricing", "v2", "tiers"}, textindex.Tokenize("We're PRICING v2-tiers!"))
	assert.Empty(t, textindex.Tokenize("  ...  "))
}

func TestQueryTokens(t *testing.T) {
	assert.Equal(t, []string{"deal", "size"}, textindex.QueryTokens("deal Size DEAL"))
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		want  bool
	}{
		{"single token", "pricing", "Pricing concerns came up", true},
		{"prefix", "conc", "Pricing concerns came up", true},
		{"all tokens required", "pricing budget", "Pricing concerns came up", false},
		{"mid-token is not a match", "ricing", "Pricing concerns", false},
		{"empty query", "", "anything", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textindex.Matches(textindex.QueryTokens(tt.query), tt.text))
		})
	}
}

func TestExcerpt(t *testing.T) {
	text := "The customer said that the pricing page is confusing and they want annual billing."
	got := textindex.Excerpt(text, []string{"pricing"}, 10)
	assert.Contains(t, got, "**pricing**")
	assert.True(t, len(got) < len(text))

	assert.Equal(t, "short", textindex.Excerpt("short", []string{"missing"}, 10))
}

func TestIndexSearch(t *testing.T) {
	idx := textindex.New(func(a, b int) bool { return a < b })
	idx.Put(1, "pricing pricing pricing")
	idx.Put(2, "we talked about pricing and many other long topics today")
	idx.Put(3, "nothing relevant")
	require.Len(t, idx.Search("nothing"), 1)

	hits := idx.Search("pricing")
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Key)
	assert.Equal(t, 2, hits[1].Key)
	assert.Contains(t, hits[1].Snippet, "**pricing**")

	idx.Put(1, "replaced")
	hits = idx.Search("pricing")
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Key)

	idx.Delete(2)
	assert.Empty(t, idx.Search("pricing"))
	assert.Nil(t, idx.Search("!!"))
}

func TestIndexTieBreak(t *testing.T) {
	idx := textindex.New(func(a, b string) bool { return a < b })
	idx.Put("Zed", "same words")
	idx.Put("Amy", "same words")

	hits := idx.Search("same")
	require.Len(t, hits, 2)
	assert.Equal(t, "Amy", hits[0].Key)
	assert.Equal(t, "Zed", hits[1].Key)
}
