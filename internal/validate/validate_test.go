package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/store"
	"rolodex/internal/store/memory"
	"rolodex/internal/store/storetest"
)

type mockSnapshot struct {
	persons      []store.Person
	interactions []store.Interaction
	connections  []store.Connection
	followups    []store.Followup
	err          error
}

func (m *mockSnapshot) ListPersons(ctx context.Context) ([]store.Person, error) {
	return m.persons, m.err
}

func (m *mockSnapshot) ListAllInteractions(ctx context.Context) ([]store.Interaction, error) {
	return m.interactions, nil
}

func (m *mockSnapshot) ListConnections(ctx context.Context) ([]store.Connection, error) {
	return m.connections, nil
}

func (m *mockSnapshot) ListAllFollowups(ctx context.Context) ([]store.Followup, error) {
	return m.followups, nil
}

func interaction(t *testing.T, id int64, person, date string, seq int) store.Interaction {
	return store.Interaction{
		ID:         id,
		PersonName: person,
		Date:       storetest.Date(t, date),
		DateSeq:    seq,
		Takeaways:  []string{"a", "b", "c"},
		Tags:       []store.Tag{store.TagMarket},
	}
}

func hasIssueCode(issues []Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func TestRun_CleanStore(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	_, err := st.CreatePerson(ctx, "Jane Doe", store.PersonFields{})
	require.NoError(t, err)
	_, err = st.CreatePerson(ctx, "Bob", store.PersonFields{})
	require.NoError(t, err)
	in, err := st.CreateInteraction(ctx, storetest.Input("Jane Doe", "2025-01-15", "hello"))
	require.NoError(t, err)
	_, err = st.CreateFollowups(ctx, "Jane Doe", in.ID, []string{"Call back"})
	require.NoError(t, err)
	_, err = st.Connect(ctx, "Jane Doe", "Bob")
	require.NoError(t, err)

	var report *Report
	err = st.View(ctx, func(r store.Reader) error {
		var err error
		report, err = Run(ctx, r)
		return err
	})
	require.NoError(t, err)
	assert.Empty(t, report.Issues)
}

func TestRun_Issues(t *testing.T) {
	tests := []struct {
		name     string
		snap     *mockSnapshot
		code     string
		severity Severity
	}{
		{
			name:     "orphaned interaction",
			snap:     &mockSnapshot{interactions: []store.Interaction{interaction(t, 1, "Ghost", "2025-01-01", 1)}},
			code:     codeOrphanedInteraction,
			severity: SeverityError,
		},
		{
			name: "duplicate interaction slug",
			snap: &mockSnapshot{
				persons: []store.Person{{Name: "Ann"}},
				interactions: []store.Interaction{
					interaction(t, 1, "Ann", "2025-01-01", 1),
					interaction(t, 2, "Ann", "2025-01-01", 1),
				},
			},
			code:     codeDuplicateSlug,
			severity: SeverityError,
		},
		{
			name: "takeaway count",
			snap: &mockSnapshot{
				persons: []store.Person{{Name: "Ann"}},
				interactions: []store.Interaction{func() store.Interaction {
					i := interaction(t, 1, "Ann", "2025-01-01", 1)
					i.Takeaways = []string{"only one"}
					return i
				}()},
			},
			code:     codeTakeawayCount,
			severity: SeverityWarn,
		},
		{
			name: "tag count",
			snap: &mockSnapshot{
				persons: []store.Person{{Name: "Ann"}},
				interactions: []store.Interaction{func() store.Interaction {
					i := interaction(t, 1, "Ann", "2025-01-01", 1)
					i.Tags = nil
					return i
				}()},
			},
			code:     codeTagCount,
			severity: SeverityWarn,
		},
		{
			name: "orphaned followup",
			snap: &mockSnapshot{
				persons:   []store.Person{{Name: "Ann"}},
				followups: []store.Followup{{ID: 1, PersonName: "Ann", InteractionID: 40, DateSlug: "2025-01-01"}},
			},
			code:     codeOrphanedFollowup,
			severity: SeverityError,
		},
		{
			name: "followup owner mismatch",
			snap: &mockSnapshot{
				persons:      []store.Person{{Name: "Ann"}, {Name: "Bob"}},
				interactions: []store.Interaction{interaction(t, 1, "Bob", "2025-01-01", 1)},
				followups:    []store.Followup{{ID: 1, PersonName: "Ann", InteractionID: 1, DateSlug: "2025-01-01"}},
			},
			code:     codeFollowupOwnerMismatch,
			severity: SeverityError,
		},
		{
			name: "stale followup slug",
			snap: &mockSnapshot{
				persons:      []store.Person{{Name: "Ann"}},
				interactions: []store.Interaction{interaction(t, 1, "Ann", "2025-01-01", 2)},
				followups:    []store.Followup{{ID: 1, PersonName: "Ann", InteractionID: 1, DateSlug: "2025-01-01"}},
			},
			code:     codeStaleFollowupSlug,
			severity: SeverityWarn,
		},
		{
			name: "non canonical connection",
			snap: &mockSnapshot{
				persons:     []store.Person{{Name: "Ann"}, {Name: "Bob"}},
				connections: []store.Connection{{PersonA: "Bob", PersonB: "Ann"}},
			},
			code:     codeNonCanonicalPair,
			severity: SeverityError,
		},
		{
			name: "orphaned connection",
			snap: &mockSnapshot{
				persons:     []store.Person{{Name: "Ann"}},
				connections: []store.Connection{{PersonA: "Ann", PersonB: "Zed"}},
			},
			code:     codeOrphanedConnection,
			severity: SeverityError,
		},
		{
			name:     "slug collision",
			snap:     &mockSnapshot{persons: []store.Person{{Name: "Jane Doe"}, {Name: "jane_doe"}}},
			code:     codeSlugCollision,
			severity: SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := Run(context.Background(), tt.snap)
			require.NoError(t, err)
			require.True(t, hasIssueCode(report.Issues, tt.code), "issues: %+v", report.Issues)
			for _, issue := range report.Issues {
				if issue.Code == tt.code {
					assert.Equal(t, tt.severity, issue.Severity)
				}
			}
		})
	}
}

func TestRun_SlugCollisionReportedOnce(t *testing.T) {
	snap := &mockSnapshot{persons: []store.Person{{Name: "Ann Lee"}, {Name: "Ann_Lee"}, {Name: "ann lee"}}}
	report, err := Run(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, report.Errors(), 1)
	assert.Contains(t, report.Errors()[0].Message, "Ann Lee, Ann_Lee, ann lee")
	assert.Empty(t, report.Warnings())
}

func TestRun_Errors(t *testing.T) {
	_, err := Run(context.Background(), nil)
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = Run(context.Background(), &mockSnapshot{err: boom})
	assert.ErrorIs(t, err, boom)
}
