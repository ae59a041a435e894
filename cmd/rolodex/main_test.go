package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/config"
	"rolodex/internal/store"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const janeDoc = `person: Jane Doe
person_fields:
  company: Acme
  type: customer
  industry: Logistics
date: 2025-01-15
transcript:
  utterances:
    - speaker: Interviewer
      text: What is missing?
    - speaker: Jane Doe
      text: We need better pricing tiers.
takeaways:
  - Wants tiered pricing
  - Budget approved for Q3
  - Evaluating two vendors
tags: [pricing, product]
state_of_play: Evaluating tiers
delta: First call
followups:
  - Send pricing sheet
`

type cli struct {
	t   *testing.T
	dsn string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv(config.EnvDSN, "")
	return &cli{t: t, dsn: "sqlite://" + filepath.Join(t.TempDir(), "rolodex.db")}
}

func (c *cli) run(args ...string) (string, int) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--dsn", c.dsn, "--log-level", "error"}, args...)
	code := run(context.Background(), full, bytes.NewReader(nil), &stdout, &stderr)
	if code != 0 {
		c.t.Logf("rolodex %v: exit %d: %s", args, code, stderr.String())
	}
	return stdout.String(), code
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, code := c.run(args...)
	require.Equal(c.t, 0, code, "rolodex %v", args)
	return out
}

func (c *cli) runJSON(v any, args ...string) {
	c.t.Helper()
	out := c.mustRun(append(args, "--format", "json")...)
	require.NoError(c.t, json.Unmarshal([]byte(out), v), out)
}

func TestIngestAndBrowse(t *testing.T) {
	c := newCLI(t)
	doc := filepath.Join(t.TempDir(), "jane.yaml")
	require.NoError(t, os.WriteFile(doc, []byte(janeDoc), 0o600))

	out := c.mustRun("ingest", doc)
	assert.Contains(t, out, "Interactions ingested: 1")
	assert.Contains(t, out, "Followups created:     1")

	out = c.mustRun("ingest", doc)
	assert.Contains(t, out, "Files skipped:         1")

	assert.Equal(t, "Jane_Doe/\n", c.mustRun("ls"))
	assert.Contains(t, c.mustRun("cat", "/Jane_Doe/state"), "Evaluating tiers")
	assert.Contains(t, c.mustRun("ls", "Jane_Doe/interactions"), "2025-01-15/")
	assert.Contains(t, c.mustRun("tree", "--depth", "1"), "└── Jane_Doe/")

	var rows []map[string]any
	c.runJSON(&rows, "search", "interactions", "--tag", "pricing")
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0]["person"])
	assert.Equal(t, "2025-01-15", rows[0]["slug"])

	c.runJSON(&rows, "search", "interactions", "--tag", "market")
	assert.Empty(t, rows)

	var tags struct {
		Counts []struct {
			Tag   string `json:"tag"`
			Count int    `json:"count"`
		} `json:"counts"`
		Total int `json:"total"`
	}
	c.runJSON(&tags, "aggregate", "tags")
	assert.Equal(t, 2, tags.Total)

	var segments struct {
		Segments []map[string]any `json:"segments"`
	}
	c.runJSON(&segments, "aggregate", "segments", "--by", "company")
	require.Len(t, segments.Segments, 1)
	assert.Equal(t, "Acme", segments.Segments[0]["segment"])

	var person map[string]any
	c.runJSON(&person, "person", "show", "Jane Doe")
	assert.Equal(t, "Evaluating tiers", person["state_of_play"])
	assert.Equal(t, "Acme", person["current_company"])

	out = c.mustRun("interaction", "show", "Jane Doe", "2025-01-15")
	assert.Contains(t, out, "Wants tiered pricing")
	assert.Contains(t, out, "We need better pricing tiers.")

	var followups []map[string]any
	c.runJSON(&followups, "followup", "list")
	require.Len(t, followups, 1)
	assert.Equal(t, "Send pricing sheet", followups[0]["item"])

	assert.Equal(t, "No issues found.\n", c.mustRun("validate"))

	c.mustRun("interaction", "delete", "1")
	assert.Equal(t, "", c.mustRun("ls", "/Jane_Doe/interactions"))
	c.runJSON(&followups, "followup", "list")
	assert.Empty(t, followups)
}

func TestPersonCommands(t *testing.T) {
	c := newCLI(t)

	assert.Contains(t, c.mustRun("person", "create", "Jane Doe", "--company", "Acme", "--type", "customer"), "/Jane_Doe")
	c.mustRun("person", "create", "Bob Smith", "--type", "investor")
	c.mustRun("person", "update", "Bob Smith", "--company", "Fund II")
	assert.Contains(t, c.mustRun("person", "connect", "Jane Doe", "Bob Smith"), "Connected")
	assert.Contains(t, c.mustRun("person", "connect", "Bob Smith", "Jane Doe"), "already connected")

	var people []map[string]any
	c.runJSON(&people, "person", "list", "--type", "investor")
	require.Len(t, people, 1)
	assert.Equal(t, "Bob Smith", people[0]["name"])
	assert.Equal(t, "Fund II", people[0]["current_company"])
	assert.Equal(t, "investor", people[0]["type"])
	assert.Equal(t, []any{"Jane Doe"}, people[0]["connections"])

	c.mustRun("person", "state", "Jane Doe", "--state", "Negotiating", "--delta", "Sent quote")
	assert.Contains(t, c.mustRun("cat", "/Jane_Doe/delta"), "Sent quote")

	out := c.mustRun("person", "delete", "Jane Doe")
	assert.Contains(t, out, "Connections:  1")
	assert.Equal(t, "Bob_Smith/\n", c.mustRun("ls", "/"))
}

func TestCommandErrors(t *testing.T) {
	c := newCLI(t)
	c.mustRun("person", "create", "Jane Doe")

	testCases := []struct {
		name string
		args []string
		code int
	}{
		{name: "missing person", args: []string{"person", "show", "Nobody"}, code: exitNotFound},
		{name: "duplicate person", args: []string{"person", "create", "Jane Doe"}, code: exitConflict},
		{name: "unknown tag", args: []string{"search", "interactions", "--tag", "roadmap"}, code: exitValidation},
		{name: "reversed dates", args: []string{"search", "interactions", "--from", "2025-02-01", "--to", "2025-01-01"}, code: exitValidation},
		{name: "unknown format", args: []string{"stats", "--format", "xml"}, code: exitValidation},
		{name: "bad segment field", args: []string{"aggregate", "segments", "--by", "revenue"}, code: exitValidation},
		{name: "missing path", args: []string{"cat", "/Nobody/info"}, code: exitNotFound},
		{name: "read directory", args: []string{"cat", "/Jane_Doe"}, code: exitNotFound},
		{name: "bad id", args: []string{"interaction", "show", "abc"}, code: exitValidation},
		{name: "missing interaction", args: []string{"interaction", "delete", "42"}, code: exitNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, code := c.run(tc.args...)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestSQLRequiresSQLStore(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--dsn", "memory://", "sql", "SELECT 1"}, nil, &stdout, &stderr)
	assert.Equal(t, exitValidation, code)
	assert.Contains(t, stderr.String(), "store does not support sql")
}

func TestSQL(t *testing.T) {
	c := newCLI(t)
	c.mustRun("person", "create", "Jane Doe", "--company", "Acme")

	var rows []map[string]any
	out := c.mustRun("sql", "SELECT name, current_company FROM persons WHERE name = ?", "--param", "1=Jane Doe")
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0]["current_company"])
}

func TestInit(t *testing.T) {
	t.Setenv(config.EnvDSN, "")
	path := filepath.Join(t.TempDir(), "rolodex.yaml")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run(context.Background(), []string{"init", "--config", path}, nil, &stdout, &stderr))
	cfg, err := config.LoadProjectConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	assert.Equal(t, exitFailure, run(context.Background(), []string{"init", "--config", path}, nil, &stdout, &stderr))
}

func TestExitCode(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "not found", err: goerr.Wrap(store.ErrNotFound, "person not found"), want: exitNotFound},
		{name: "validation", err: goerr.Wrap(store.ErrValidation, "bad tag"), want: exitValidation},
		{name: "config", err: goerr.Wrap(config.ErrInvalid, "bad version"), want: exitValidation},
		{name: "conflict", err: goerr.Wrap(store.ErrConflict, "exists"), want: exitConflict},
		{name: "integrity", err: goerr.Wrap(store.ErrIntegrity, "orphan"), want: exitIntegrity},
		{name: "canceled", err: goerr.Wrap(context.Canceled, "stopped"), want: exitCanceled},
		{name: "other", err: errors.New("boom"), want: exitFailure},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCode(tc.err))
		})
	}
}

func TestParseParamPairs(t *testing.T) {
	params, err := parseParamPairs([]string{"1=Jane Doe", " 2 = acme ", ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"1": "Jane Doe", "2": "acme"}, params)

	_, err = parseParamPairs([]string{"novalue"})
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = parseParamPairs([]string{"=x"})
	assert.ErrorIs(t, err, store.ErrValidation)
}
