// Package validate checks the cross-row invariants of a store snapshot.
// Well-behaved writers never break them; rows written through ad-hoc SQL or
// older schema versions can.
package validate

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/store"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeOrphanedInteraction   = "orphaned_interaction"
	codeOrphanedFollowup      = "orphaned_followup"
	codeFollowupOwnerMismatch = "followup_owner_mismatch"
	codeStaleFollowupSlug     = "stale_followup_slug"
	codeOrphanedConnection    = "orphaned_connection"
	codeNonCanonicalPair      = "non_canonical_connection"
	codeSlugCollision         = "person_slug_collision"
	codeDuplicateSlug         = "duplicate_interaction_slug"
	codeTakeawayCount         = "takeaway_count"
	codeTagCount              = "tag_count"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Person   string   `json:"person,omitempty"`
	// Ref names the offending row, e.g. "interaction 12".
	Ref string `json:"ref,omitempty"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

// Errors returns the issues of error severity.
func (r *Report) Errors() []Issue {
	return r.filter(SeverityError)
}

func (r *Report) Warnings() []Issue {
	return r.filter(SeverityWarn)
}

func (r *Report) filter(s Severity) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == s {
			out = append(out, issue)
		}
	}
	return out
}

// Snapshot is the part of store.Reader the checks read.
type Snapshot interface {
	ListPersons(ctx context.Context) ([]store.Person, error)
	ListAllInteractions(ctx context.Context) ([]store.Interaction, error)
	ListConnections(ctx context.Context) ([]store.Connection, error)
	ListAllFollowups(ctx context.Context) ([]store.Followup, error)
}

func Run(ctx context.Context, r Snapshot) (*Report, error) {
	if r == nil {
		return nil, goerr.New("snapshot is required")
	}

	persons, err := r.ListPersons(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list persons")
	}
	interactions, err := r.ListAllInteractions(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list interactions")
	}
	connections, err := r.ListConnections(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list connections")
	}
	followups, err := r.ListAllFollowups(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list followups")
	}

	names := make(map[string]struct{}, len(persons))
	for _, p := range persons {
		names[p.Name] = struct{}{}
	}
	byID := make(map[int64]*store.Interaction, len(interactions))
	for i := range interactions {
		byID[interactions[i].ID] = &interactions[i]
	}

	issues := make([]Issue, 0)
	issues = append(issues, checkSlugCollisions(persons)...)
	issues = append(issues, checkInteractions(interactions, names)...)
	issues = append(issues, checkFollowups(followups, names, byID)...)
	issues = append(issues, checkConnections(connections, names)...)
	return &Report{Issues: issues}, nil
}

func checkSlugCollisions(persons []store.Person) []Issue {
	bySlug := make(map[string][]string)
	for _, p := range persons {
		key := strings.ToLower(p.Slug())
		bySlug[key] = append(bySlug[key], p.Name)
	}

	var issues []Issue
	for _, p := range persons {
		group := bySlug[strings.ToLower(p.Slug())]
		if len(group) < 2 || group[0] != p.Name {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeSlugCollision,
			Message:  fmt.Sprintf("persons share the directory %q: %s", p.Slug(), strings.Join(group, ", ")),
			Person:   p.Name,
		})
	}
	return issues
}

func checkInteractions(interactions []store.Interaction, names map[string]struct{}) []Issue {
	var issues []Issue
	seen := make(map[string]int64)
	for _, in := range interactions {
		ref := fmt.Sprintf("interaction %d", in.ID)
		if _, ok := names[in.PersonName]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeOrphanedInteraction,
				Message:  "interaction references a missing person",
				Person:   in.PersonName,
				Ref:      ref,
			})
		}

		key := in.PersonName + "/" + in.Slug()
		if other, dup := seen[key]; dup {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeDuplicateSlug,
				Message:  fmt.Sprintf("slug %s is also used by interaction %d", in.Slug(), other),
				Person:   in.PersonName,
				Ref:      ref,
			})
		} else {
			seen[key] = in.ID
		}

		if n := len(in.Takeaways); n < store.MinTakeaways || n > store.MaxTakeaways {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeTakeawayCount,
				Message:  fmt.Sprintf("interaction has %d takeaways, expected %d to %d", n, store.MinTakeaways, store.MaxTakeaways),
				Person:   in.PersonName,
				Ref:      ref,
			})
		}
		if n := len(in.Tags); n < store.MinTags || n > store.MaxTags {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeTagCount,
				Message:  fmt.Sprintf("interaction has %d tags, expected %d to %d", n, store.MinTags, store.MaxTags),
				Person:   in.PersonName,
				Ref:      ref,
			})
		}
	}
	return issues
}

func checkFollowups(followups []store.Followup, names map[string]struct{}, byID map[int64]*store.Interaction) []Issue {
	var issues []Issue
	for _, f := range followups {
		ref := fmt.Sprintf("followup %d", f.ID)
		in, ok := byID[f.InteractionID]
		_, personOK := names[f.PersonName]
		switch {
		case !personOK || !ok:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeOrphanedFollowup,
				Message:  fmt.Sprintf("followup references a missing person or interaction %d", f.InteractionID),
				Person:   f.PersonName,
				Ref:      ref,
			})
		case in.PersonName != f.PersonName:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeFollowupOwnerMismatch,
				Message:  fmt.Sprintf("interaction %d belongs to %s", in.ID, in.PersonName),
				Person:   f.PersonName,
				Ref:      ref,
			})
		case in.Slug() != f.DateSlug:
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeStaleFollowupSlug,
				Message:  fmt.Sprintf("followup slug %s does not match interaction slug %s", f.DateSlug, in.Slug()),
				Person:   f.PersonName,
				Ref:      ref,
			})
		}
	}
	return issues
}

func checkConnections(connections []store.Connection, names map[string]struct{}) []Issue {
	var issues []Issue
	for _, c := range connections {
		ref := fmt.Sprintf("connection %s <-> %s", c.PersonA, c.PersonB)
		if c.PersonA >= c.PersonB {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeNonCanonicalPair,
				Message:  "connection is not stored with the smaller name first",
				Ref:      ref,
			})
		}
		missing := make([]string, 0, 2)
		for _, name := range []string{c.PersonA, c.PersonB} {
			if _, ok := names[name]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			slices.Sort(missing)
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeOrphanedConnection,
				Message:  "connection references missing persons: " + strings.Join(missing, ", "),
				Ref:      ref,
			})
		}
	}
	return issues
}
