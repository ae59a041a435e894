package vfs

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"rolodex/internal/store"
)

func renderPersonFile(ctx context.Context, r store.Reader, p *store.Person, name string) (string, error) {
	switch name {
	case "info":
		return renderInfo(ctx, r, p)
	case "background":
		return orPlaceholder(p.Background, "(no background)"), nil
	case "state":
		return orPlaceholder(p.StateOfPlay, "(no state of play)"), nil
	case "delta":
		return orPlaceholder(p.LastDelta, "(no delta)"), nil
	case "connections":
		names, err := r.Connections(ctx, p.Name)
		if err != nil {
			return "", err
		}
		if len(names) == 0 {
			return "(no connections)", nil
		}
		return strings.Join(names, "\n"), nil
	case "followups":
		items, err := r.ListFollowups(ctx, p.Name, store.FollowupStatusOpen)
		if err != nil {
			return "", err
		}
		if len(items) == 0 {
			return "(no open followups)", nil
		}
		lines := make([]string, 0, len(items))
		for _, f := range items {
			lines = append(lines, fmt.Sprintf("[%d] %s: %s", f.ID, f.DateSlug, f.Item))
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", notFound("/" + p.Slug() + "/" + name)
}

func renderInfo(ctx context.Context, r store.Reader, p *store.Person) (string, error) {
	ids, err := r.InteractionIDs(ctx, p.Name)
	if err != nil {
		return "", err
	}
	conns, err := r.Connections(ctx, p.Name)
	if err != nil {
		return "", err
	}

	rows := [][2]string{
		{"Name", p.Name},
		{"Company", p.CurrentCompany},
		{"Type", p.Type.String()},
		{"Industry", p.CompanyIndustry},
		{"Revenue", p.CompanyRevenue},
		{"Headcount", p.CompanyHeadcount},
		{"LinkedIn", p.LinkedInURL},
		{"Interactions", fmt.Sprint(len(ids))},
		{"Connections", fmt.Sprint(len(conns))},
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%-13s %s", row[0]+":", row[1]))
	}
	return strings.Join(lines, "\n"), nil
}

func renderInteractionFile(ctx context.Context, r store.Reader, i *store.Interaction, name string) (string, error) {
	switch name {
	case "transcript":
		t, err := r.GetTranscript(ctx, i.ID)
		if err != nil {
			return "", err
		}
		return FormatTranscript(t), nil
	case "takeaways":
		if len(i.Takeaways) == 0 {
			return "(no takeaways)", nil
		}
		lines := make([]string, 0, len(i.Takeaways))
		for _, t := range i.Takeaways {
			lines = append(lines, "- "+t)
		}
		return strings.Join(lines, "\n"), nil
	case "tags":
		if len(i.Tags) == 0 {
			return "(no tags)", nil
		}
		lines := make([]string, 0, len(i.Tags))
		for _, t := range i.Tags {
			lines = append(lines, t.String())
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", notFound(name)
}

// FormatTranscript renders utterances as "Speaker: text" lines, falling back
// to the full text.
func FormatTranscript(t *store.Transcript) string {
	if len(t.Utterances) > 0 {
		lines := make([]string, 0, len(t.Utterances))
		for _, u := range t.Utterances {
			lines = append(lines, u.Speaker+": "+u.Text)
		}
		return strings.Join(lines, "\n")
	}
	return orPlaceholder(t.Text, "(no transcript available)")
}

func orPlaceholder(text, placeholder string) string {
	if strings.TrimSpace(text) == "" {
		return placeholder
	}
	return text
}

func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
}
