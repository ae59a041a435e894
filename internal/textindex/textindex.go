// Package textindex implements the token matcher used by the in-memory store
// and by quote extraction. A document matches a query when every query token
// is a case-insensitive prefix of at least one document token, the same rule
// FTS5 and tsquery apply to prefix terms.
package textindex

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize lowercases s and splits it on anything that is not a letter or a digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// QueryTokens tokenizes a query and removes duplicates, keeping order.
func QueryTokens(query string) []string {
	tokens := Tokenize(query)
	out := tokens[:0]
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Matches reports whether text contains every query token.
func Matches(queryTokens []string, text string) bool {
	if len(queryTokens) == 0 {
		return false
	}
	return matchTokens(queryTokens, Tokenize(text))
}

// MatchesAny reports whether text contains at least one query token.
func MatchesAny(queryTokens []string, text string) bool {
	docTokens := Tokenize(text)
	for _, q := range queryTokens {
		if containsToken(docTokens, q) {
			return true
		}
	}
	return false
}

func matchTokens(queryTokens, docTokens []string) bool {
	for _, q := range queryTokens {
		if !containsToken(docTokens, q) {
			return false
		}
	}
	return true
}

func containsToken(docTokens []string, q string) bool {
	for _, d := range docTokens {
		if strings.HasPrefix(d, q) {
			return true
		}
	}
	return false
}

// score weighs exact token hits above prefix hits and normalizes by length.
func score(queryTokens, docTokens []string) float64 {
	if len(docTokens) == 0 {
		return 0
	}
	var hits float64
	for _, q := range queryTokens {
		for _, d := range docTokens {
			switch {
			case d == q:
				hits += 2
			case strings.HasPrefix(d, q):
				hits++
			}
		}
	}
	return hits / float64(len(docTokens))
}

// Excerpt returns up to width runes of context on each side of the first
// query token found in text, with the token wrapped in **.
func Excerpt(text string, queryTokens []string, width int) string {
	lower := strings.ToLower(text)
	start, end := -1, -1
	for _, q := range queryTokens {
		if i := strings.Index(lower, q); i >= 0 && (start < 0 || i < start) {
			start, end = i, i+len(q)
		}
	}
	if start < 0 || len(lower) != len(text) {
		return truncate(text, 2*width)
	}

	from := start
	for n := 0; from > 0 && n < width; n++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for n := 0; to < len(text) && n < width; n++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}

	var b strings.Builder
	if from > 0 {
		b.WriteString("...")
	}
	b.WriteString(text[from:start])
	b.WriteString("**")
	b.WriteString(text[start:end])
	b.WriteString("**")
	b.WriteString(text[end:to])
	if to < len(text) {
		b.WriteString("...")
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// Hit is one ranked match.
type Hit[K comparable] struct {
	Key     K
	Score   float64
	Snippet string
}

type document struct {
	fields []string
	tokens []string
}

// Index is a small forward index keyed by owner id. It is not safe for
// concurrent use; the owning store serializes access.
type Index[K comparable] struct {
	docs map[K]document
	less func(a, b K) bool
}

// New creates an index; less orders keys with equal scores.
func New[K comparable](less func(a, b K) bool) *Index[K] {
	return &Index[K]{docs: make(map[K]document), less: less}
}

// Put replaces the indexed content of key.
func (x *Index[K]) Put(key K, fields ...string) {
	var tokens []string
	for _, f := range fields {
		tokens = append(tokens, Tokenize(f)...)
	}
	x.docs[key] = document{fields: append([]string(nil), fields...), tokens: tokens}
}

func (x *Index[K]) Delete(key K) {
	delete(x.docs, key)
}

// Search returns every key whose content contains all query tokens, best first.
func (x *Index[K]) Search(query string) []Hit[K] {
	q := QueryTokens(query)
	if len(q) == 0 {
		return nil
	}
	var hits []Hit[K]
	for key, doc := range x.docs {
		if !matchTokens(q, doc.tokens) {
			continue
		}
		hits = append(hits, Hit[K]{
			Key:     key,
			Score:   score(q, doc.tokens),
			Snippet: snippetOf(doc.fields, q),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return x.less(hits[i].Key, hits[j].Key)
	})
	return hits
}

func snippetOf(fields []string, q []string) string {
	for _, f := range fields {
		if MatchesAny(q, f) {
			return Excerpt(f, q, 40)
		}
	}
	return ""
}
