package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"rolodex/internal/logging"
)

const ddl = `
CREATE TABLE IF NOT EXISTS persons (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	name              TEXT NOT NULL UNIQUE,
	current_company   TEXT NOT NULL DEFAULT '',
	type              TEXT NOT NULL DEFAULT '' CHECK (type IN ('', 'customer', 'investor', 'competitor')),
	background        TEXT NOT NULL DEFAULT '',
	linkedin_url      TEXT NOT NULL DEFAULT '',
	company_industry  TEXT NOT NULL DEFAULT '',
	company_revenue   TEXT NOT NULL DEFAULT '',
	company_headcount TEXT NOT NULL DEFAULT '',
	state_of_play     TEXT NOT NULL DEFAULT '',
	last_delta        TEXT NOT NULL DEFAULT '',
	created_at        TEXT DEFAULT (datetime('now')),
	updated_at        TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS interactions (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	person_name       TEXT NOT NULL REFERENCES persons(name) ON DELETE CASCADE,
	date              TEXT NOT NULL,
	date_seq          INTEGER NOT NULL CHECK (date_seq >= 1),
	transcript_text   TEXT NOT NULL DEFAULT '',
	utterances        TEXT NOT NULL DEFAULT '[]',
	transcript_search TEXT NOT NULL DEFAULT '',
	takeaways         TEXT NOT NULL DEFAULT '[]',
	takeaways_text    TEXT NOT NULL DEFAULT '',
	tags              TEXT NOT NULL DEFAULT '[]',
	source_hash       TEXT NOT NULL DEFAULT '',
	created_at        TEXT DEFAULT (datetime('now')),
	CONSTRAINT uq_interaction_slug UNIQUE (person_name, date, date_seq)
);

CREATE TABLE IF NOT EXISTS connections (
	person_a   TEXT NOT NULL REFERENCES persons(name) ON DELETE CASCADE,
	person_b   TEXT NOT NULL REFERENCES persons(name) ON DELETE CASCADE,
	created_at TEXT DEFAULT (datetime('now')),
	PRIMARY KEY (person_a, person_b),
	CHECK (person_a < person_b)
);

CREATE TABLE IF NOT EXISTS followups (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	person_name    TEXT NOT NULL REFERENCES persons(name) ON DELETE CASCADE,
	interaction_id INTEGER NOT NULL REFERENCES interactions(id) ON DELETE CASCADE,
	date_slug      TEXT NOT NULL,
	item           TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'complete')),
	created_at     TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_interactions_person_date ON interactions (person_name, date);
CREATE INDEX IF NOT EXISTS idx_interactions_date ON interactions (date);
CREATE INDEX IF NOT EXISTS idx_interactions_source_hash ON interactions (source_hash) WHERE source_hash <> '';
CREATE INDEX IF NOT EXISTS idx_connections_b ON connections (person_b);
CREATE INDEX IF NOT EXISTS idx_followups_person_status ON followups (person_name, status);
CREATE INDEX IF NOT EXISTS idx_followups_interaction ON followups (interaction_id);

CREATE VIRTUAL TABLE IF NOT EXISTS interactions_fts USING fts5(
	transcript_search,
	takeaways_text,
	content=interactions,
	content_rowid=id,
	tokenize='unicode61 remove_diacritics 0'
);

CREATE TRIGGER IF NOT EXISTS interactions_ai AFTER INSERT ON interactions BEGIN
	INSERT INTO interactions_fts(rowid, transcript_search, takeaways_text)
	VALUES (new.id, new.transcript_search, new.takeaways_text);
END;

CREATE TRIGGER IF NOT EXISTS interactions_ad AFTER DELETE ON interactions BEGIN
	INSERT INTO interactions_fts(interactions_fts, rowid, transcript_search, takeaways_text)
	VALUES ('delete', old.id, old.transcript_search, old.takeaways_text);
END;

CREATE TRIGGER IF NOT EXISTS interactions_au AFTER UPDATE ON interactions BEGIN
	INSERT INTO interactions_fts(interactions_fts, rowid, transcript_search, takeaways_text)
	VALUES ('delete', old.id, old.transcript_search, old.takeaways_text);
	INSERT INTO interactions_fts(rowid, transcript_search, takeaways_text)
	VALUES (new.id, new.transcript_search, new.takeaways_text);
END;

CREATE VIRTUAL TABLE IF NOT EXISTS persons_fts USING fts5(
	state_of_play,
	background,
	content=persons,
	content_rowid=id,
	tokenize='unicode61 remove_diacritics 0'
);

CREATE TRIGGER IF NOT EXISTS persons_ai AFTER INSERT ON persons BEGIN
	INSERT INTO persons_fts(rowid, state_of_play, background)
	VALUES (new.id, new.state_of_play, new.background);
END;

CREATE TRIGGER IF NOT EXISTS persons_ad AFTER DELETE ON persons BEGIN
	INSERT INTO persons_fts(persons_fts, rowid, state_of_play, background)
	VALUES ('delete', old.id, old.state_of_play, old.background);
END;

CREATE TRIGGER IF NOT EXISTS persons_au AFTER UPDATE ON persons BEGIN
	INSERT INTO persons_fts(persons_fts, rowid, state_of_play, background)
	VALUES ('delete', old.id, old.state_of_play, old.background);
	INSERT INTO persons_fts(rowid, state_of_play, background)
	VALUES (new.id, new.state_of_play, new.background);
END;
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range splitStatements(ddl) {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return goerr.Wrap(err, "failed to execute DDL", goerr.V("statement", firstLine(stmt)))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logging.Default().Debug("sqlite schema ready")
	return nil
}

// splitStatements splits on lines ending in ';'. Trigger bodies end their
// inner statements with ';' too, so a statement stays open until END;.
func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder
	inTrigger := false

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasPrefix(strings.ToUpper(stripped), "CREATE TRIGGER") {
			inTrigger = true
		}
		if !strings.HasSuffix(stripped, ";") {
			continue
		}
		if inTrigger && !strings.EqualFold(stripped, "END;") {
			continue
		}
		inTrigger = false
		statements = append(statements, current.String())
		current.Reset()
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}

func firstLine(stmt string) string {
	line, _, _ := strings.Cut(stmt, "\n")
	return line
}
