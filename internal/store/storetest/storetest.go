// Package storetest is the behavioral suite every store backend must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/store"
)

// Date parses YYYY-MM-DD or fails the test.
func Date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := store.ParseDate(s)
	require.NoError(t, err)
	return d
}

// Input builds a valid interaction input with three takeaways.
func Input(person, date string, transcript string, tags ...store.Tag) store.InteractionInput {
	d, _ := store.ParseDate(date)
	if len(tags) == 0 {
		tags = []store.Tag{store.TagProduct}
	}
	return store.InteractionInput{
		PersonName: person,
		Date:       d,
		Transcript: store.Transcript{
			Text: transcript,
			Utterances: []store.Utterance{
				{Speaker: "Interviewer", Text: "How is it going?", Start: 0, End: 2.5},
				{Speaker: person, Text: transcript, Start: 2.5, End: 9},
			},
		},
		Takeaways: []string{"First takeaway", "Second takeaway", "Third takeaway"},
		Tags:      tags,
	}
}

// Run exercises newStore against the Store contract. Each subtest gets a
// fresh, schema-initialized store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	setup := func(t *testing.T) (context.Context, store.Store) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.EnsureSchema(ctx))
		t.Cleanup(func() { _ = s.Close(ctx) })
		return ctx, s
	}

	t.Run("create and get person", func(t *testing.T) {
		ctx, s := setup(t)

		fields := store.PersonFields{
			CurrentCompany:  "Acme",
			Type:            store.PersonTypeCustomer,
			Background:      "Runs procurement",
			CompanyIndustry: "Logistics",
		}
		created, err := s.CreatePerson(ctx, "Jane Doe", fields)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", created.Name)

		got, err := s.GetPerson(ctx, "Jane Doe")
		require.NoError(t, err)
		assert.Equal(t, fields, got.PersonFields)
		assert.Equal(t, "Jane_Doe", got.Slug())
	})

	t.Run("create rejects existing name and colliding slug", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreatePerson(ctx, "Jane Doe", store.PersonFields{})
		require.NoError(t, err)

		_, err = s.CreatePerson(ctx, "Jane Doe", store.PersonFields{})
		assert.ErrorIs(t, err, store.ErrConflict)

		_, err = s.CreatePerson(ctx, "jane doe", store.PersonFields{})
		assert.ErrorIs(t, err, store.ErrConflict)

		_, err = s.UpsertPerson(ctx, "Jane_Doe", store.PersonFields{})
		assert.ErrorIs(t, err, store.ErrConflict)

		persons, err := s.ListPersons(ctx)
		require.NoError(t, err)
		assert.Len(t, persons, 1)
	})

	t.Run("create validates input", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreatePerson(ctx, "", store.PersonFields{})
		assert.ErrorIs(t, err, store.ErrValidation)
		_, err = s.CreatePerson(ctx, "Bad", store.PersonFields{Type: "partner"})
		assert.ErrorIs(t, err, store.ErrValidation)
	})

	t.Run("get unknown person", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.GetPerson(ctx, "Nobody")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("upsert keeps state and interactions", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.UpsertPerson(ctx, "Bob", store.PersonFields{CurrentCompany: "Old Co"})
		require.NoError(t, err)
		require.NoError(t, s.SetPersonState(ctx, "Bob", store.PersonState{StateOfPlay: "Evaluating", LastDelta: "First call"}))
		_, err = s.CreateInteraction(ctx, Input("Bob", "2025-02-01", "hello"))
		require.NoError(t, err)

		updated, err := s.UpsertPerson(ctx, "Bob", store.PersonFields{CurrentCompany: "New Co", Type: store.PersonTypeInvestor})
		require.NoError(t, err)
		assert.Equal(t, "New Co", updated.CurrentCompany)
		assert.Equal(t, "Evaluating", updated.StateOfPlay)

		got, err := s.GetPerson(ctx, "Bob")
		require.NoError(t, err)
		assert.Equal(t, store.PersonTypeInvestor, got.Type)
		assert.Equal(t, "Evaluating", got.StateOfPlay)
		assert.Equal(t, "First call", got.LastDelta)

		ids, err := s.InteractionIDs(ctx, "Bob")
		require.NoError(t, err)
		assert.Len(t, ids, 1)
	})

	t.Run("state and background on unknown person", func(t *testing.T) {
		ctx, s := setup(t)
		assert.ErrorIs(t, s.SetPersonState(ctx, "Ghost", store.PersonState{}), store.ErrNotFound)
		assert.ErrorIs(t, s.SetPersonBackground(ctx, "Ghost", "x"), store.ErrNotFound)
	})

	t.Run("interaction requires existing person", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreateInteraction(ctx, Input("Ghost", "2025-01-01", "text"))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("interaction validation", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreatePerson(ctx, "Ann", store.PersonFields{})
		require.NoError(t, err)

		tooFew := Input("Ann", "2025-01-01", "text")
		tooFew.Takeaways = tooFew.Takeaways[:2]
		_, err = s.CreateInteraction(ctx, tooFew)
		assert.ErrorIs(t, err, store.ErrValidation)

		noTags := Input("Ann", "2025-01-01", "text")
		noTags.Tags = nil
		_, err = s.CreateInteraction(ctx, noTags)
		assert.ErrorIs(t, err, store.ErrValidation)

		badTag := Input("Ann", "2025-01-01", "text", "roadmap")
		_, err = s.CreateInteraction(ctx, badTag)
		assert.ErrorIs(t, err, store.ErrValidation)

		all, err := s.ListAllInteractions(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("same-date interactions get stable slugs", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreatePerson(ctx, "Jane Doe", store.PersonFields{Type: store.PersonTypeCustomer})
		require.NoError(t, err)

		var created []*store.Interaction
		for _, text := range []string{"first", "second", "third"} {
			i, err := s.CreateInteraction(ctx, Input("Jane Doe", "2025-01-15", text))
			require.NoError(t, err)
			created = append(created, i)
		}
		assert.Equal(t, "2025-01-15", created[0].Slug())
		assert.Equal(t, "2025-01-15_2", created[1].Slug())
		assert.Equal(t, "2025-01-15_3", created[2].Slug())

		_, err = s.DeleteInteraction(ctx, created[1].ID)
		require.NoError(t, err)

		items, err := s.ListInteractions(ctx, "Jane Doe")
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "2025-01-15", items[0].Slug())
		assert.Equal(t, "2025-01-15_3", items[1].Slug())
	})

	t.Run("interaction round trip", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreatePerson(ctx, "Ann", store.PersonFields{})
		require.NoError(t, err)

		in := Input("Ann", "2025-03-02", "We discussed pricing tiers", store.TagPricing, store.TagMarket)
		in.SourceHash = "abc123"
		created, err := s.CreateInteraction(ctx, in)
		require.NoError(t, err)

		got, err := s.GetInteraction(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ann", got.PersonName)
		assert.Equal(t, "2025-03-02", store.FormatDate(got.Date))
		assert.Equal(t, in.Takeaways, got.Takeaways)
		assert.Equal(t, []store.Tag{store.TagPricing, store.TagMarket}, got.Tags)

		tr, err := s.GetTranscript(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, in.Transcript.Text, tr.Text)
		assert.Equal(t, in.Transcript.Utterances, tr.Utterances)

		hashes, err := s.SourceHashes(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"abc123": created.ID}, hashes)

		_, err = s.GetInteraction(ctx, created.ID+100)
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.GetTranscript(ctx, created.ID+100)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("interaction with state overwrites rolling state", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreatePerson(ctx, "Ann", store.PersonFields{})
		require.NoError(t, err)

		in := Input("Ann", "2025-03-02", "text")
		in.State = &store.PersonState{StateOfPlay: "Ready to buy", LastDelta: "Budget approved"}
		_, err = s.CreateInteraction(ctx, in)
		require.NoError(t, err)

		got, err := s.GetPerson(ctx, "Ann")
		require.NoError(t, err)
		assert.Equal(t, "Ready to buy", got.StateOfPlay)
		assert.Equal(t, "Budget approved", got.LastDelta)

		hits, err := s.SearchPersonText(ctx, "ready")
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Ann", hits[0].PersonName)
	})

	t.Run("delete person cascades", func(t *testing.T) {
		ctx, s := setup(t)
		for _, name := range []string{"Ann", "Bob", "Cid"} {
			_, err := s.CreatePerson(ctx, name, store.PersonFields{})
			require.NoError(t, err)
		}
		i1, err := s.CreateInteraction(ctx, Input("Ann", "2025-01-01", "alpha"))
		require.NoError(t, err)
		_, err = s.CreateInteraction(ctx, Input("Ann", "2025-01-02", "beta"))
		require.NoError(t, err)
		kept, err := s.CreateInteraction(ctx, Input("Bob", "2025-01-02", "gamma"))
		require.NoError(t, err)
		_, err = s.CreateFollowups(ctx, "Ann", i1.ID, []string{"send deck", "intro to CTO"})
		require.NoError(t, err)
		_, err = s.Connect(ctx, "Ann", "Bob")
		require.NoError(t, err)
		_, err = s.Connect(ctx, "Cid", "Ann")
		require.NoError(t, err)
		_, err = s.Connect(ctx, "Bob", "Cid")
		require.NoError(t, err)

		res, err := s.DeletePerson(ctx, "Ann")
		require.NoError(t, err)
		assert.Equal(t, store.DeleteResult{Interactions: 2, Followups: 2, Connections: 2}, *res)

		_, err = s.GetPerson(ctx, "Ann")
		assert.ErrorIs(t, err, store.ErrNotFound)

		all, err := s.ListAllInteractions(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, kept.ID, all[0].ID)

		followups, err := s.ListAllFollowups(ctx)
		require.NoError(t, err)
		assert.Empty(t, followups)

		conns, err := s.ListConnections(ctx)
		require.NoError(t, err)
		assert.Equal(t, []store.Connection{{PersonA: "Bob", PersonB: "Cid"}}, conns)

		hits, err := s.SearchInteractionText(ctx, "alpha")
		require.NoError(t, err)
		assert.Empty(t, hits)

		_, err = s.DeletePerson(ctx, "Ann")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete interaction cascades followups", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreatePerson(ctx, "Ann", store.PersonFields{})
		require.NoError(t, err)
		i, err := s.CreateInteraction(ctx, Input("Ann", "2025-01-01", "alpha"))
		require.NoError(t, err)
		_, err = s.CreateFollowups(ctx, "Ann", i.ID, []string{"one", "two", "three"})
		require.NoError(t, err)

		res, err := s.DeleteInteraction(ctx, i.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Interactions)
		assert.Equal(t, int64(3), res.Followups)

		_, err = s.DeleteInteraction(ctx, i.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("connections are canonical and idempotent", func(t *testing.T) {
		ctx, s := setup(t)
		for _, name := range []string{"Zed", "Amy"} {
			_, err := s.CreatePerson(ctx, name, store.PersonFields{})
			require.NoError(t, err)
		}

		created, err := s.Connect(ctx, "Zed", "Amy")
		require.NoError(t, err)
		assert.True(t, created)
		created, err = s.Connect(ctx, "Amy", "Zed")
		require.NoError(t, err)
		assert.False(t, created)

		conns, err := s.ListConnections(ctx)
		require.NoError(t, err)
		assert.Equal(t, []store.Connection{{PersonA: "Amy", PersonB: "Zed"}}, conns)

		names, err := s.Connections(ctx, "Zed")
		require.NoError(t, err)
		assert.Equal(t, []string{"Amy"}, names)

		removed, err := s.Disconnect(ctx, "Zed", "Amy")
		require.NoError(t, err)
		assert.True(t, removed)
		removed, err = s.Disconnect(ctx, "Amy", "Zed")
		require.NoError(t, err)
		assert.False(t, removed)

		_, err = s.Connect(ctx, "Amy", "Amy")
		assert.ErrorIs(t, err, store.ErrValidation)
		_, err = s.Connect(ctx, "Amy", "Ghost")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("followups", func(t *testing.T) {
		ctx, s := setup(t)
		for _, name := range []string{"Ann", "Bob"} {
			_, err := s.CreatePerson(ctx, name, store.PersonFields{})
			require.NoError(t, err)
		}
		_, err := s.CreateInteraction(ctx, Input("Ann", "2025-01-01", "alpha"))
		require.NoError(t, err)
		second, err := s.CreateInteraction(ctx, Input("Ann", "2025-01-01", "beta"))
		require.NoError(t, err)

		created, err := s.CreateFollowups(ctx, "Ann", second.ID, []string{"send pricing", "book demo"})
		require.NoError(t, err)
		require.Len(t, created, 2)
		for _, f := range created {
			assert.Equal(t, "2025-01-01_2", f.DateSlug)
			assert.Equal(t, store.FollowupStatusOpen, f.Status)
		}

		_, err = s.CreateFollowups(ctx, "Bob", second.ID, []string{"x"})
		assert.ErrorIs(t, err, store.ErrIntegrity)
		_, err = s.CreateFollowups(ctx, "Ghost", second.ID, []string{"x"})
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.CreateFollowups(ctx, "Ann", second.ID+100, []string{"x"})
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.CreateFollowups(ctx, "Ann", second.ID, nil)
		assert.ErrorIs(t, err, store.ErrValidation)

		done, err := s.CompleteFollowup(ctx, created[0].ID)
		require.NoError(t, err)
		assert.Equal(t, store.FollowupStatusComplete, done.Status)

		open, err := s.ListFollowups(ctx, "Ann", store.FollowupStatusOpen)
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, "book demo", open[0].Item)

		all, err := s.ListFollowups(ctx, "Ann", "")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		_, err = s.CompleteFollowup(ctx, 9999)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("interaction carries followups and first background", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreatePerson(ctx, "Ann", store.PersonFields{})
		require.NoError(t, err)

		in := Input("Ann", "2025-03-01", "alpha")
		in.Followups = []string{"send deck", "intro to CTO"}
		in.Background = "Runs ops at Globex"
		first, err := s.CreateInteraction(ctx, in)
		require.NoError(t, err)

		open, err := s.ListFollowups(ctx, "Ann", store.FollowupStatusOpen)
		require.NoError(t, err)
		require.Len(t, open, 2)
		for _, f := range open {
			assert.Equal(t, first.ID, f.InteractionID)
			assert.Equal(t, "2025-03-01", f.DateSlug)
		}
		ann, err := s.GetPerson(ctx, "Ann")
		require.NoError(t, err)
		assert.Equal(t, "Runs ops at Globex", ann.Background)

		in = Input("Ann", "2025-03-01", "beta")
		in.Background = "Replacement"
		_, err = s.CreateInteraction(ctx, in)
		require.NoError(t, err)
		ann, err = s.GetPerson(ctx, "Ann")
		require.NoError(t, err)
		assert.Equal(t, "Runs ops at Globex", ann.Background)

		in = Input("Ann", "2025-03-02", "gamma")
		in.Followups = []string{"ok", "  "}
		_, err = s.CreateInteraction(ctx, in)
		assert.ErrorIs(t, err, store.ErrValidation)
		ids, err := s.InteractionIDs(ctx, "Ann")
		require.NoError(t, err)
		assert.Len(t, ids, 2)
		all, err := s.ListAllFollowups(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("text search", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreatePerson(ctx, "Ann", store.PersonFields{Background: "Has pricing concerns about seats"})
		require.NoError(t, err)
		_, err = s.CreatePerson(ctx, "Bob", store.PersonFields{})
		require.NoError(t, err)
		require.NoError(t, s.SetPersonState(ctx, "Bob", store.PersonState{StateOfPlay: "Happy with the product"}))

		hits, err := s.SearchPersonText(ctx, "pricing")
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Ann", hits[0].PersonName)
		assert.Contains(t, hits[0].Snippet, "pricing")

		i, err := s.CreateInteraction(ctx, Input("Bob", "2025-01-01", "The onboarding flow was confusing"))
		require.NoError(t, err)
		_, err = s.CreateInteraction(ctx, Input("Ann", "2025-01-01", "Budget is tight this quarter"))
		require.NoError(t, err)

		ihits, err := s.SearchInteractionText(ctx, "Onboarding CONFUS")
		require.NoError(t, err)
		require.Len(t, ihits, 1)
		assert.Equal(t, i.ID, ihits[0].InteractionID)

		ihits, err = s.SearchInteractionText(ctx, "onboarding budget")
		require.NoError(t, err)
		assert.Empty(t, ihits)

		ihits, err = s.SearchInteractionText(ctx, "second takeaway")
		require.NoError(t, err)
		assert.Len(t, ihits, 2)

		_, err = s.SearchInteractionText(ctx, "  ")
		assert.ErrorIs(t, err, store.ErrValidation)
		_, err = s.SearchPersonText(ctx, "")
		assert.ErrorIs(t, err, store.ErrValidation)
	})

	t.Run("text search keeps accents significant", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreatePerson(ctx, "Ann", store.PersonFields{Background: "Runs a café in Lyon"})
		require.NoError(t, err)
		i, err := s.CreateInteraction(ctx, Input("Ann", "2025-01-01", "I sent over my résumé last week"))
		require.NoError(t, err)

		hits, err := s.SearchPersonText(ctx, "café")
		require.NoError(t, err)
		assert.Len(t, hits, 1)
		hits, err = s.SearchPersonText(ctx, "cafe")
		require.NoError(t, err)
		assert.Empty(t, hits)

		ihits, err := s.SearchInteractionText(ctx, "résu")
		require.NoError(t, err)
		require.Len(t, ihits, 1)
		assert.Equal(t, i.ID, ihits[0].InteractionID)
		ihits, err = s.SearchInteractionText(ctx, "resume")
		require.NoError(t, err)
		assert.Empty(t, ihits)
	})

	t.Run("background update reindexes", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreatePerson(ctx, "Ann", store.PersonFields{Background: "likes sailing"})
		require.NoError(t, err)
		require.NoError(t, s.SetPersonBackground(ctx, "Ann", "likes climbing"))

		hits, err := s.SearchPersonText(ctx, "sailing")
		require.NoError(t, err)
		assert.Empty(t, hits)
		hits, err = s.SearchPersonText(ctx, "climbing")
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("view sees a consistent snapshot", func(t *testing.T) {
		ctx, s := setup(t)
		_, err := s.CreatePerson(ctx, "Ann", store.PersonFields{})
		require.NoError(t, err)

		err = s.View(ctx, func(r store.Reader) error {
			persons, err := r.ListPersons(ctx)
			if err != nil {
				return err
			}
			if len(persons) != 1 {
				return errors.New("expected one person")
			}
			_, err = r.GetPerson(ctx, "Ann")
			return err
		})
		require.NoError(t, err)

		sentinel := errors.New("stop")
		err = s.View(ctx, func(r store.Reader) error { return sentinel })
		assert.ErrorIs(t, err, sentinel)
	})
}
