package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/store"
	"rolodex/internal/store/memory"
)

const janeDoc = `person: Jane Doe
person_fields:
  company: Acme
  type: Customer
  industry: Logistics
date: 2025-01-15
transcript:
  text: We need better pricing tiers.
  utterances:
    - speaker: Interviewer
      text: What is missing?
      start: 0
      end: 1.5
    - speaker: Jane Doe
      text: We need better pricing tiers.
      start: 1.5
      end: 4
takeaways:
  - Wants tiered pricing
  - Budget approved for Q3
  - Evaluating two vendors
tags: [pricing, product]
state_of_play: Evaluating tiers
delta: First call
background: Procurement lead at Acme
followups:
  - Send pricing sheet
`

const janeSecondDoc = `{
  "person": "Jane Doe",
  "date": "2025-01-15",
  "transcript": {"text": "Follow-up on the quote."},
  "takeaways": ["Quote received", "Needs legal review", "Decision in May"],
  "tags": ["pricing"],
  "background": "Should not replace the first background"
}`

func writeDoc(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestRun_BasicIngestion(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dir := t.TempDir()
	writeDoc(t, dir, "a_first.yaml", janeDoc)
	writeDoc(t, dir, "b_second.json", janeSecondDoc)
	writeDoc(t, dir, "notes.txt", "ignored")
	writeDoc(t, dir, ".hidden/c.yaml", "ignored: true")

	result, err := Run(ctx, st, []string{dir}, Options{})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	assert.Equal(t, 2, result.Ingested)
	assert.Equal(t, 1, result.Followups)
	require.Len(t, result.Interactions, 2)

	person, err := st.GetPerson(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, store.PersonTypeCustomer, person.Type)
	assert.Equal(t, "Acme", person.CurrentCompany)
	assert.Equal(t, "Evaluating tiers", person.StateOfPlay)
	assert.Equal(t, "First call", person.LastDelta)
	assert.Equal(t, "Procurement lead at Acme", person.Background)

	second, err := st.GetInteraction(ctx, result.Interactions[1])
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15_2", second.Slug())
	assert.Equal(t, []store.Tag{store.TagPricing}, second.Tags)

	followups, err := st.ListFollowups(ctx, "Jane Doe", store.FollowupStatusOpen)
	require.NoError(t, err)
	require.Len(t, followups, 1)
	assert.Equal(t, "2025-01-15", followups[0].DateSlug)
	assert.Equal(t, result.Interactions[0], followups[0].InteractionID)
}

func TestRun_SkipsIngestedDocuments(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dir := t.TempDir()
	path := writeDoc(t, dir, "jane.yaml", janeDoc)

	_, err := Run(ctx, st, []string{path}, Options{})
	require.NoError(t, err)

	again, err := Run(ctx, st, []string{dir}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Ingested)
	assert.Equal(t, 1, again.Skipped)

	full, err := Run(ctx, st, []string{dir}, Options{Full: true})
	require.NoError(t, err)
	assert.Equal(t, 1, full.Ingested)

	ids, err := st.InteractionIDs(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestRun_DuplicateFilesInOneRun(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dir := t.TempDir()
	writeDoc(t, dir, "one.yaml", janeDoc)
	writeDoc(t, dir, "copy.yaml", janeDoc)

	result, err := Run(ctx, st, []string{dir}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Ingested)
	assert.Equal(t, 1, result.Skipped)
}

func TestRun_FailedDocumentCopiesAreNotSkipped(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dir := t.TempDir()
	orphan := `{"person": "Nobody", "date": "2025-01-01", "takeaways": ["a","b","c"], "tags": ["gtm"], "followups": ["Call back"]}`
	writeDoc(t, dir, "one.json", orphan)
	writeDoc(t, dir, "two.json", orphan)

	result, err := Run(ctx, st, []string{dir}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Ingested)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, result.Errors, 2)
	for _, e := range result.Errors {
		assert.ErrorIs(t, e, store.ErrNotFound)
	}

	followups, err := st.ListAllFollowups(ctx)
	require.NoError(t, err)
	assert.Empty(t, followups)
	hashes, err := st.SourceHashes(ctx)
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

func TestRun_DryRun(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	dir := t.TempDir()
	writeDoc(t, dir, "jane.yaml", janeDoc)
	writeDoc(t, dir, "orphan.json", `{"person": "Nobody", "date": "2025-01-01", "takeaways": ["a","b","c"], "tags": ["gtm"]}`)

	result, err := Run(ctx, st, []string{dir}, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Ingested)
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], store.ErrNotFound)
	assert.Empty(t, result.Interactions)

	persons, err := st.ListPersons(ctx)
	require.NoError(t, err)
	assert.Empty(t, persons)
}

func TestRun_InvalidDocuments(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	_, err := st.CreatePerson(ctx, "Ann", store.PersonFields{})
	require.NoError(t, err)

	docs := map[string]string{
		"unknown_key.yaml":  "person: Ann\ndate: 2025-01-01\nmood: happy\n",
		"bad_date.yaml":     "person: Ann\ndate: 01/02/2025\ntakeaways: [a, b, c]\ntags: [gtm]\n",
		"bad_tag.yaml":      "person: Ann\ndate: 2025-01-01\ntakeaways: [a, b, c]\ntags: [roadmap]\n",
		"few_takeaways.yml": "person: Ann\ndate: 2025-01-01\ntakeaways: [a]\ntags: [gtm]\n",
		"bad_type.yaml":     "person: Ann\nperson_fields:\n  type: partner\ndate: 2025-01-01\ntakeaways: [a, b, c]\ntags: [gtm]\n",
		"empty.yaml":        "",
	}
	dir := t.TempDir()
	for name, contents := range docs {
		writeDoc(t, dir, name, contents)
	}

	result, err := Run(ctx, st, []string{dir}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Ingested)
	require.Len(t, result.Errors, len(docs))
	for _, err := range result.Errors {
		assert.ErrorIs(t, err, store.ErrValidation)
	}

	ids, err := st.InteractionIDs(ctx, "Ann")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRun_MissingPath(t *testing.T) {
	_, err := Run(context.Background(), memory.New(), []string{filepath.Join(t.TempDir(), "nope")}, Options{})
	assert.Error(t, err)
}

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(janeDoc))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15", doc.Date)
	assert.Len(t, doc.Transcript.Utterances, 2)
	assert.Equal(t, 1.5, doc.Transcript.Utterances[1].Start)

	in, err := doc.Input("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", in.SourceHash)
	require.NotNil(t, in.State)
	assert.Equal(t, "Evaluating tiers", in.State.StateOfPlay)

	fields, err := doc.Fields()
	require.NoError(t, err)
	assert.Equal(t, "Logistics", fields.CompanyIndustry)

	noState, err := ParseDocument([]byte(janeSecondDoc))
	require.NoError(t, err)
	in, err = noState.Input("")
	require.NoError(t, err)
	assert.Nil(t, in.State)
	fields, err = noState.Fields()
	require.NoError(t, err)
	assert.Nil(t, fields)
}

func TestComputeHash(t *testing.T) {
	assert.Equal(t, computeHash([]byte("a")), computeHash([]byte("a")))
	assert.NotEqual(t, computeHash([]byte("a")), computeHash([]byte("b")))
	assert.Len(t, computeHash(nil), 64)
}
