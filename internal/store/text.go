package store

import "strings"

// FullText is the indexed text of a transcript: the stored full text, or the
// utterances joined when no full text was supplied.
func (t Transcript) FullText() string {
	if strings.TrimSpace(t.Text) != "" {
		return t.Text
	}
	lines := make([]string, 0, len(t.Utterances))
	for _, u := range t.Utterances {
		lines = append(lines, u.Text)
	}
	return strings.Join(lines, "\n")
}

// TakeawaysText joins takeaways one per line for indexing.
func TakeawaysText(takeaways []string) string {
	return strings.Join(takeaways, "\n")
}
